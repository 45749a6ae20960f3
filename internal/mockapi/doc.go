// Package mockapi serves an in-memory product API with the same routes,
// shapes and error bodies as the real backend. Tests run it under httptest;
// the mock-server command serves it on a local port.
package mockapi
