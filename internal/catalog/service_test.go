package catalog_test

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/five82/netmoya/internal/api"
	"github.com/five82/netmoya/internal/catalog"
	"github.com/five82/netmoya/internal/mockapi"
	"github.com/five82/netmoya/internal/session"
)

type alwaysOnline struct{}

func (alwaysOnline) IsConnected() bool { return true }

func newClient(t *testing.T, h http.Handler, token string) (*api.Client, *session.Session) {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	s := session.New(session.Development, map[session.Environment]string{session.Development: srv.URL})
	if token != "" {
		s.SetAccessToken(&token)
	}
	return api.NewClient(s, alwaysOnline{}, api.WithHTTPClient(srv.Client())), s
}

func newProducts(t *testing.T, c *api.Client, opts ...catalog.ProductOption) *catalog.ProductService {
	t.Helper()
	svc := catalog.NewProductService(c, opts...)
	t.Cleanup(svc.Close)
	return svc
}

func strPtr(s string) *string { return &s }

func TestListProducts_ConcreteBareScenario(t *testing.T) {
	c, _ := newClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/v1/products", r.URL.Path)
		require.Equal(t, "limit=10&page=1", r.URL.RawQuery)
		_, _ = io.WriteString(w, `{"products":[{"id":"1","name":"Phone","price":9.5,"currency":"USD","category":"Electronics","stock_quantity":3}],"total":1,"page":1,"limit":10,"total_pages":1}`)
	}), "")
	svc := newProducts(t, c, catalog.WithShapes(map[string]api.Shape{"list_products": api.ShapeBare}))

	resp, err := svc.List(context.Background(), catalog.ListProducts{Page: 1, Limit: 10})
	require.NoError(t, err)
	require.Len(t, resp.Products, 1)
	require.False(t, resp.HasMore())
}

func TestListProducts_PageBeyondTotal(t *testing.T) {
	c, _ := newClient(t, mockapi.New(), "")
	svc := newProducts(t, c)

	resp, err := svc.List(context.Background(), catalog.ListProducts{Page: 50, Limit: 10})
	require.NoError(t, err)
	require.Empty(t, resp.Products)
	require.NotNil(t, resp.Products)
	require.False(t, resp.HasMore())
}

func TestListProducts_QueryOmitsEmptyFilters(t *testing.T) {
	task := catalog.ListProducts{Category: "  ", Search: "lamp"}.Task().(api.QueryTask)
	require.Equal(t, "limit=20&page=1&search=lamp", task.Values.Encode())
}

func TestCreateGetUpdateDeleteRoundTrip(t *testing.T) {
	mock := mockapi.New(mockapi.WithToken("tok"))
	c, _ := newClient(t, mock, "tok")
	svc := newProducts(t, c)
	ctx := context.Background()

	req := catalog.CreateProductRequest{
		Name:          "Standing Desk",
		Description:   strPtr("Oak top"),
		Price:         420,
		Currency:      "EUR",
		Category:      "Home",
		StockQuantity: 7,
		SKU:           strPtr("SD-1"),
	}
	created, err := svc.Create(ctx, req)
	require.NoError(t, err)
	require.NotEmpty(t, created.ID)
	require.Equal(t, req.Name, created.Name)
	require.Equal(t, *req.Description, *created.Description)
	require.Equal(t, req.Price, created.Price)
	require.Equal(t, req.Currency, created.Currency)
	require.Equal(t, req.Category, created.Category)
	require.Equal(t, req.StockQuantity, created.StockQuantity)
	require.Equal(t, *req.SKU, *created.SKU)
	require.NotNil(t, created.CreatedAt)

	got, err := svc.Get(ctx, created.ID)
	require.NoError(t, err)
	require.Equal(t, created.Name, got.Name)

	price := 399.0
	updated, err := svc.Update(ctx, created.ID, catalog.UpdateProductRequest{Price: &price})
	require.NoError(t, err)
	require.Equal(t, price, updated.Price)
	require.Equal(t, "Standing Desk", updated.Name)

	require.NoError(t, svc.Delete(ctx, created.ID))
	_, err = svc.Get(ctx, created.ID)
	require.ErrorIs(t, err, api.ErrNotFound)
}

func TestCreateValidationIsAPIError(t *testing.T) {
	c, _ := newClient(t, mockapi.New(), "")
	svc := newProducts(t, c)

	_, err := svc.Create(context.Background(), catalog.CreateProductRequest{Currency: "USD"})
	require.ErrorIs(t, err, api.ErrAPIError)
	require.Equal(t, "Validation failed", err.Error())
}

func TestUnauthorizedClearsViaLogoutSignal(t *testing.T) {
	c, s := newClient(t, mockapi.New(mockapi.WithToken("good")), "stale")
	var fired atomic.Int32
	c.Logout().Subscribe(func(api.LogoutReason) {
		fired.Add(1)
		s.ClearAccessToken()
	})
	svc := newProducts(t, c)

	_, err := svc.List(context.Background(), catalog.ListProducts{})
	require.ErrorIs(t, err, api.ErrUnauthorized)
	require.Equal(t, int32(1), fired.Load())
	_, ok := s.AccessToken()
	require.False(t, ok)
}

func TestUploadImage(t *testing.T) {
	mock := mockapi.New()
	c, _ := newClient(t, mock, "")
	svc := newProducts(t, c)

	p, err := svc.UploadImage(context.Background(), catalog.UploadProductImage{
		ID:       "3",
		Data:     []byte("png-bytes"),
		FileName: "pods.png",
		MimeType: "image/png",
	})
	require.NoError(t, err)
	require.NotNil(t, p.ImageURL)
	require.Equal(t, "/images/3/pods.png", *p.ImageURL)

	data, ok := mock.Image("3")
	require.True(t, ok)
	require.Equal(t, []byte("png-bytes"), data)
}

func TestDeleteMany_CollectsEveryFailure(t *testing.T) {
	mock := mockapi.New()
	c, _ := newClient(t, mock, "")
	svc := newProducts(t, c, catalog.WithDeleteConcurrency(2))

	err := svc.DeleteMany(context.Background(), []string{"1", "missing-a", "2", "missing-b"})
	require.Error(t, err)
	require.ErrorIs(t, err, api.ErrNotFound)
	require.Contains(t, err.Error(), "delete missing-a")
	require.Contains(t, err.Error(), "delete missing-b")
	require.Equal(t, 2, mock.Len())

	require.NoError(t, svc.DeleteMany(context.Background(), nil))
}

func TestInvalidIDFailsBeforeRequest(t *testing.T) {
	var hits atomic.Int32
	c, _ := newClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
	}), "")
	svc := newProducts(t, c)

	_, err := svc.Get(context.Background(), "a/b")
	require.True(t, errors.Is(err, api.ErrInvalidPath))
	err = svc.Delete(context.Background(), "")
	require.ErrorIs(t, err, api.ErrInvalidPath)
	err = svc.Delete(context.Background(), "..")
	require.ErrorIs(t, err, api.ErrInvalidPath)
	require.Equal(t, int32(0), hits.Load())
}

func TestTodosAndHealth(t *testing.T) {
	c, _ := newClient(t, mockapi.New(), "")
	ctx := context.Background()

	todos, err := catalog.NewTodoService(c).List(ctx)
	require.NoError(t, err)
	require.Len(t, todos, 4)
	require.True(t, todos[3].Completed)

	health := catalog.NewHealthService(c)
	require.True(t, health.Check(ctx))
	resp, err := health.Fetch(ctx)
	require.NoError(t, err)
	require.Equal(t, mockapi.Version, *resp.Version)
}

func TestHealthCheckFailureReadsUnhealthy(t *testing.T) {
	c, _ := newClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"status":"degraded"}`)
	}), "")
	require.False(t, catalog.NewHealthService(c).Check(context.Background()))

	c, _ = newClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"status":"OK"}`)
	}), "")
	require.True(t, catalog.NewHealthService(c).Check(context.Background()))

	c, _ = newClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}), "")
	require.False(t, catalog.NewHealthService(c).Check(context.Background()))
}

func TestEndpointDescriptors(t *testing.T) {
	tests := []struct {
		e      catalog.Endpoint
		method string
		path   string
		shape  api.Shape
	}{
		{catalog.ListProducts{}, http.MethodGet, "/api/v1/products", api.ShapeEnvelope},
		{catalog.GetProduct{ID: "9"}, http.MethodGet, "/api/v1/products/9", api.ShapeEnvelope},
		{catalog.CreateProduct{}, http.MethodPost, "/api/v1/products", api.ShapeEnvelope},
		{catalog.UpdateProduct{ID: "9"}, http.MethodPut, "/api/v1/products/9", api.ShapeBare},
		{catalog.DeleteProduct{ID: "9"}, http.MethodDelete, "/api/v1/products/9", api.ShapeBare},
		{catalog.UploadProductImage{ID: "9"}, http.MethodPost, "/api/v1/products/9/image", api.ShapeEnvelope},
		{catalog.HealthCheck{}, http.MethodGet, "/api/v1/health", api.ShapeBare},
		{catalog.ListTodos{}, http.MethodGet, "/todos", api.ShapeBare},
	}
	for _, tt := range tests {
		t.Run(tt.e.Name(), func(t *testing.T) {
			path, err := tt.e.Path()
			require.NoError(t, err)
			require.Equal(t, tt.path, path)
			require.Equal(t, tt.method, tt.e.Method())
			require.Equal(t, tt.shape, tt.e.Shape())
			require.NotNil(t, tt.e.Task())
		})
	}

	_, ok := catalog.UploadProductImage{}.Headers()["Content-Type"]
	require.True(t, ok, "upload must strip the JSON content type")
}
