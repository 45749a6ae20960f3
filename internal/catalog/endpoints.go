package catalog

import (
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/five82/netmoya/internal/api"
)

// Endpoint is the closed set of catalogue descriptors.
type Endpoint interface {
	api.Descriptor
	endpoint()
}

const (
	DefaultPage  = 1
	DefaultLimit = 20
)

var productsRoot = []string{"api", "v1", "products"}

func productPath(extra ...string) (string, error) {
	return api.JoinPath(append(append([]string{}, productsRoot...), extra...)...)
}

// ListProducts fetches one page, optionally filtered.
type ListProducts struct {
	Page     int
	Limit    int
	Category string
	Search   string
}

func (ListProducts) endpoint()             {}
func (ListProducts) Name() string          { return "list_products" }
func (ListProducts) Method() string        { return http.MethodGet }
func (ListProducts) Path() (string, error) { return productPath() }
func (ListProducts) Headers() http.Header  { return nil }
func (ListProducts) Shape() api.Shape      { return api.ShapeEnvelope }

// Task encodes page and limit, plus category and search when set.
func (l ListProducts) Task() api.Task {
	page, limit := l.Page, l.Limit
	if page <= 0 {
		page = DefaultPage
	}
	if limit <= 0 {
		limit = DefaultLimit
	}
	values := url.Values{}
	values.Set("page", strconv.Itoa(page))
	values.Set("limit", strconv.Itoa(limit))
	if c := strings.TrimSpace(l.Category); c != "" {
		values.Set("category", c)
	}
	if s := strings.TrimSpace(l.Search); s != "" {
		values.Set("search", s)
	}
	return api.QueryTask{Values: values}
}

// GetProduct fetches one product.
type GetProduct struct {
	ID string
}

func (GetProduct) endpoint()               {}
func (GetProduct) Name() string            { return "get_product" }
func (GetProduct) Method() string          { return http.MethodGet }
func (g GetProduct) Path() (string, error) { return productPath(g.ID) }
func (GetProduct) Task() api.Task          { return api.PlainTask{} }
func (GetProduct) Headers() http.Header    { return nil }
func (GetProduct) Shape() api.Shape        { return api.ShapeEnvelope }

// CreateProduct posts a new product.
type CreateProduct struct {
	Request CreateProductRequest
}

func (CreateProduct) endpoint()             {}
func (CreateProduct) Name() string          { return "create_product" }
func (CreateProduct) Method() string        { return http.MethodPost }
func (CreateProduct) Path() (string, error) { return productPath() }
func (c CreateProduct) Task() api.Task      { return api.JSONTask{Body: c.Request} }
func (CreateProduct) Headers() http.Header  { return nil }
func (CreateProduct) Shape() api.Shape      { return api.ShapeEnvelope }

// UpdateProduct applies a partial update.
type UpdateProduct struct {
	ID      string
	Request UpdateProductRequest
}

func (UpdateProduct) endpoint()               {}
func (UpdateProduct) Name() string            { return "update_product" }
func (UpdateProduct) Method() string          { return http.MethodPut }
func (u UpdateProduct) Path() (string, error) { return productPath(u.ID) }
func (u UpdateProduct) Task() api.Task        { return api.JSONTask{Body: u.Request} }
func (UpdateProduct) Headers() http.Header    { return nil }
func (UpdateProduct) Shape() api.Shape        { return api.ShapeBare }

// DeleteProduct removes a product.
type DeleteProduct struct {
	ID string
}

func (DeleteProduct) endpoint()               {}
func (DeleteProduct) Name() string            { return "delete_product" }
func (DeleteProduct) Method() string          { return http.MethodDelete }
func (d DeleteProduct) Path() (string, error) { return productPath(d.ID) }
func (DeleteProduct) Task() api.Task          { return api.PlainTask{} }
func (DeleteProduct) Headers() http.Header    { return nil }
func (DeleteProduct) Shape() api.Shape        { return api.ShapeBare }

// UploadProductImage sends an image as the multipart field "image".
type UploadProductImage struct {
	ID       string
	Data     []byte
	FileName string
	MimeType string
}

func (UploadProductImage) endpoint()               {}
func (UploadProductImage) Name() string            { return "upload_product_image" }
func (UploadProductImage) Method() string          { return http.MethodPost }
func (u UploadProductImage) Path() (string, error) { return productPath(u.ID, "image") }
func (UploadProductImage) Shape() api.Shape        { return api.ShapeEnvelope }

// Headers drops the JSON content type so the multipart boundary is used.
func (UploadProductImage) Headers() http.Header {
	return http.Header{"Content-Type": {""}}
}

func (u UploadProductImage) Task() api.Task {
	return api.MultipartTask{Parts: []api.Part{{
		Field:    "image",
		FileName: u.FileName,
		MimeType: u.MimeType,
		Data:     u.Data,
	}}}
}

// HealthCheck asks the API whether it is up.
type HealthCheck struct{}

func (HealthCheck) endpoint()             {}
func (HealthCheck) Name() string          { return "health" }
func (HealthCheck) Method() string        { return http.MethodGet }
func (HealthCheck) Path() (string, error) { return api.JoinPath("api", "v1", "health") }
func (HealthCheck) Task() api.Task        { return api.PlainTask{} }
func (HealthCheck) Headers() http.Header  { return nil }
func (HealthCheck) Shape() api.Shape      { return api.ShapeBare }

// ListTodos fetches the demo todo list.
type ListTodos struct{}

func (ListTodos) endpoint()             {}
func (ListTodos) Name() string          { return "list_todos" }
func (ListTodos) Method() string        { return http.MethodGet }
func (ListTodos) Path() (string, error) { return api.JoinPath("todos") }
func (ListTodos) Task() api.Task        { return api.PlainTask{} }
func (ListTodos) Headers() http.Header  { return nil }
func (ListTodos) Shape() api.Shape      { return api.ShapeBare }

var (
	_ Endpoint = ListProducts{}
	_ Endpoint = GetProduct{}
	_ Endpoint = CreateProduct{}
	_ Endpoint = UpdateProduct{}
	_ Endpoint = DeleteProduct{}
	_ Endpoint = UploadProductImage{}
	_ Endpoint = HealthCheck{}
	_ Endpoint = ListTodos{}
)
