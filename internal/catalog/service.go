package catalog

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/alitto/pond/v2"

	"github.com/five82/netmoya/internal/api"
)

// Products defines the product operations. It is implemented by
// *ProductService and can be faked in tests.
type Products interface {
	List(ctx context.Context, query ListProducts) (ProductListResponse, error)
	Get(ctx context.Context, id string) (Product, error)
	Create(ctx context.Context, req CreateProductRequest) (Product, error)
	Update(ctx context.Context, id string, req UpdateProductRequest) (Product, error)
	Delete(ctx context.Context, id string) error
	UploadImage(ctx context.Context, upload UploadProductImage) (Product, error)
	DeleteMany(ctx context.Context, ids []string) error
}

var _ Products = (*ProductService)(nil)

const defaultDeleteConcurrency = 4

// ProductService calls the product endpoints.
type ProductService struct {
	client *api.Client
	shapes map[string]api.Shape
	pool   pond.Pool
}

// ProductOption configures a ProductService.
type ProductOption func(*productConfig)

type productConfig struct {
	shapes      map[string]api.Shape
	concurrency int
}

// shapeEndpoints are the endpoints whose decoding WithShapes can change.
var shapeEndpoints = []Endpoint{
	ListProducts{}, GetProduct{}, CreateProduct{}, UpdateProduct{}, UploadProductImage{},
}

// CheckShapes rejects overrides for endpoints that do not exist or whose
// response is not decoded.
func CheckShapes(shapes map[string]api.Shape) error {
	for name := range shapes {
		if !slices.ContainsFunc(shapeEndpoints, func(e Endpoint) bool { return e.Name() == name }) {
			names := make([]string, len(shapeEndpoints))
			for i, e := range shapeEndpoints {
				names[i] = e.Name()
			}
			return fmt.Errorf("response shape for %q: want one of %s", name, strings.Join(names, ", "))
		}
	}
	return nil
}

// WithShapes overrides the response shape per endpoint name, for servers
// that answer bare where the default expects an envelope or the reverse.
func WithShapes(shapes map[string]api.Shape) ProductOption {
	return func(c *productConfig) {
		for name, shape := range shapes {
			c.shapes[name] = shape
		}
	}
}

// WithDeleteConcurrency bounds the parallel calls DeleteMany makes.
func WithDeleteConcurrency(n int) ProductOption {
	return func(c *productConfig) {
		if n > 0 {
			c.concurrency = n
		}
	}
}

// NewProductService builds the service. Close releases its worker pool.
func NewProductService(client *api.Client, opts ...ProductOption) *ProductService {
	cfg := productConfig{shapes: map[string]api.Shape{}, concurrency: defaultDeleteConcurrency}
	for _, opt := range opts {
		opt(&cfg)
	}
	return &ProductService{
		client: client,
		shapes: cfg.shapes,
		pool:   pond.NewPool(cfg.concurrency),
	}
}

// Close waits for pending deletes and stops the pool.
func (s *ProductService) Close() {
	s.pool.StopAndWait()
}

func (s *ProductService) shapeOf(e Endpoint) api.Shape {
	if shape, ok := s.shapes[e.Name()]; ok {
		return shape
	}
	return e.Shape()
}

// List fetches one page of products.
func (s *ProductService) List(ctx context.Context, query ListProducts) (ProductListResponse, error) {
	resp, err := fetch[ProductListResponse](ctx, s.client, query, s.shapeOf(query))
	if err != nil {
		return ProductListResponse{}, err
	}
	if resp.Products == nil {
		resp.Products = []Product{}
	}
	return resp, nil
}

// Get fetches a product by id.
func (s *ProductService) Get(ctx context.Context, id string) (Product, error) {
	e := GetProduct{ID: id}
	return fetch[Product](ctx, s.client, e, s.shapeOf(e))
}

// Create posts a new product and returns the stored copy.
func (s *ProductService) Create(ctx context.Context, req CreateProductRequest) (Product, error) {
	e := CreateProduct{Request: req}
	return fetch[Product](ctx, s.client, e, s.shapeOf(e))
}

// Update applies a partial update.
func (s *ProductService) Update(ctx context.Context, id string, req UpdateProductRequest) (Product, error) {
	e := UpdateProduct{ID: id, Request: req}
	return fetch[Product](ctx, s.client, e, s.shapeOf(e))
}

// Delete removes a product. Any 2xx answer is success.
func (s *ProductService) Delete(ctx context.Context, id string) error {
	return api.ExecuteEmpty(ctx, s.client, DeleteProduct{ID: id})
}

// UploadImage uploads a product image and returns the updated product.
func (s *ProductService) UploadImage(ctx context.Context, upload UploadProductImage) (Product, error) {
	return fetch[Product](ctx, s.client, upload, s.shapeOf(upload))
}

// DeleteMany deletes ids in parallel and reports every failure.
func (s *ProductService) DeleteMany(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	group := s.pool.NewGroup()
	// Each task writes its own index.
	errs := make([]error, len(ids))
	for i, id := range ids {
		group.Submit(func() {
			if err := s.Delete(ctx, id); err != nil {
				errs[i] = fmt.Errorf("delete %s: %w", id, err)
			}
		})
	}
	if err := group.Wait(); err != nil {
		return fmt.Errorf("wait for deletes: %w", err)
	}
	return errors.Join(errs...)
}

// TodoService calls the demo todo endpoint.
type TodoService struct {
	client *api.Client
}

// NewTodoService builds the service.
func NewTodoService(client *api.Client) *TodoService {
	return &TodoService{client: client}
}

// List returns all todos.
func (s *TodoService) List(ctx context.Context) ([]Todo, error) {
	return api.Execute[[]Todo](ctx, s.client, ListTodos{})
}

// HealthService checks the API health endpoint.
type HealthService struct {
	client *api.Client
}

// NewHealthService builds the service.
func NewHealthService(client *api.Client) *HealthService {
	return &HealthService{client: client}
}

// Fetch returns the raw health payload.
func (s *HealthService) Fetch(ctx context.Context) (HealthResponse, error) {
	return api.Execute[HealthResponse](ctx, s.client, HealthCheck{})
}

// Check reports whether the API says "ok". Any failure reads as unhealthy.
func (s *HealthService) Check(ctx context.Context) bool {
	resp, err := s.Fetch(ctx)
	if err != nil {
		return false
	}
	return strings.EqualFold(strings.TrimSpace(resp.Status), "ok")
}

func fetch[T any](ctx context.Context, c *api.Client, d api.Descriptor, shape api.Shape) (T, error) {
	if shape == api.ShapeEnvelope {
		env, err := api.ExecuteEnvelope[T](ctx, c, d)
		if err != nil {
			var zero T
			return zero, err
		}
		return env.Unwrap()
	}
	return api.Execute[T](ctx, c, d)
}
