// Package catalog holds the product, health and todo endpoints and the
// typed services that call them through the api pipeline.
package catalog
