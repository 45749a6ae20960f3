package catalog

import "github.com/five82/netmoya/internal/api"

// Product mirrors a catalogue entry.
type Product struct {
	ID            string    `json:"id" yaml:"id"`
	Name          string    `json:"name" yaml:"name"`
	Description   *string   `json:"description,omitempty" yaml:"description,omitempty"`
	Price         float64   `json:"price" yaml:"price"`
	Currency      string    `json:"currency" yaml:"currency"`
	ImageURL      *string   `json:"image_url,omitempty" yaml:"image_url,omitempty"`
	Category      string    `json:"category" yaml:"category"`
	StockQuantity int       `json:"stock_quantity" yaml:"stock_quantity"`
	SKU           *string   `json:"sku,omitempty" yaml:"sku,omitempty"`
	CreatedAt     *api.Time `json:"created_at,omitempty" yaml:"created_at,omitempty"`
	UpdatedAt     *api.Time `json:"updated_at,omitempty" yaml:"updated_at,omitempty"`
}

// ProductListResponse is one page of products.
type ProductListResponse struct {
	Products   []Product `json:"products" yaml:"products"`
	Total      int       `json:"total" yaml:"total"`
	Page       int       `json:"page" yaml:"page"`
	Limit      int       `json:"limit" yaml:"limit"`
	TotalPages int       `json:"total_pages" yaml:"total_pages"`
}

// HasMore reports whether a later page exists.
func (r ProductListResponse) HasMore() bool {
	return r.Page < r.TotalPages
}

// CreateProductRequest is the body of a create call.
type CreateProductRequest struct {
	Name          string  `json:"name"`
	Description   *string `json:"description,omitempty"`
	Price         float64 `json:"price"`
	Currency      string  `json:"currency"`
	Category      string  `json:"category"`
	StockQuantity int     `json:"stock_quantity"`
	SKU           *string `json:"sku,omitempty"`
}

// UpdateProductRequest is a partial update; nil fields are left unchanged.
type UpdateProductRequest struct {
	Name          *string  `json:"name,omitempty"`
	Description   *string  `json:"description,omitempty"`
	Price         *float64 `json:"price,omitempty"`
	Currency      *string  `json:"currency,omitempty"`
	Category      *string  `json:"category,omitempty"`
	StockQuantity *int     `json:"stock_quantity,omitempty"`
	SKU           *string  `json:"sku,omitempty"`
}

// Empty reports whether the update changes nothing.
func (r UpdateProductRequest) Empty() bool {
	return r.Name == nil && r.Description == nil && r.Price == nil && r.Currency == nil &&
		r.Category == nil && r.StockQuantity == nil && r.SKU == nil
}

// HealthResponse is the /api/v1/health payload.
type HealthResponse struct {
	Status    string  `json:"status" yaml:"status"`
	Timestamp *string `json:"timestamp,omitempty" yaml:"timestamp,omitempty"`
	Version   *string `json:"version,omitempty" yaml:"version,omitempty"`
}

// Todo is an entry of the /todos demo endpoint.
type Todo struct {
	UserID    int    `json:"userId" yaml:"user_id"`
	ID        int    `json:"id" yaml:"id"`
	Title     string `json:"title" yaml:"title"`
	Completed bool   `json:"completed" yaml:"completed"`
}
