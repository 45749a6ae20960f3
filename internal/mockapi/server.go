package mockapi

import (
	"encoding/json"
	"io"
	"net/http"
	"path"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/rs/zerolog"

	"github.com/five82/netmoya/internal/api"
	"github.com/five82/netmoya/internal/catalog"
)

const (
	// Version is reported by the health endpoint.
	Version        = "1.0.0"
	maxImageBytes  = 5 << 20
	defaultPerPage = catalog.DefaultLimit
)

// Server is an in-memory product API.
type Server struct {
	mu       sync.RWMutex
	products map[string]catalog.Product
	images   map[string][]byte
	todos    []catalog.Todo

	token  string
	shapes map[string]api.Shape
	logger zerolog.Logger
	now    func() time.Time
	router *mux.Router
}

// Option configures a Server.
type Option func(*Server)

// WithToken requires "Authorization: Bearer <token>" on product routes.
func WithToken(token string) Option {
	return func(s *Server) { s.token = token }
}

// WithProducts replaces the seed data.
func WithProducts(products []catalog.Product) Option {
	return func(s *Server) {
		s.products = make(map[string]catalog.Product, len(products))
		for _, p := range products {
			s.products[p.ID] = p
		}
	}
}

// WithShapes answers bare or enveloped per endpoint name, overriding the
// catalogue defaults.
func WithShapes(shapes map[string]api.Shape) Option {
	return func(s *Server) {
		for name, shape := range shapes {
			s.shapes[name] = shape
		}
	}
}

// WithLogger logs every request.
func WithLogger(l zerolog.Logger) Option {
	return func(s *Server) { s.logger = l }
}

// WithClock fixes timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *Server) { s.now = now }
}

// New builds a server seeded with SampleProducts and SampleTodos.
func New(opts ...Option) *Server {
	s := &Server{
		images: map[string][]byte{},
		todos:  SampleTodos(),
		shapes: map[string]api.Shape{},
		logger: zerolog.Nop(),
		now:    time.Now,
	}
	WithProducts(SampleProducts())(s)
	for _, opt := range opts {
		opt(s)
	}
	s.router = s.routes()
	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) routes() *mux.Router {
	r := mux.NewRouter()
	r.Use(s.logRequests)

	r.HandleFunc("/api/v1/health", s.handleHealth).Methods(http.MethodGet)
	r.HandleFunc("/todos", s.handleTodos).Methods(http.MethodGet)

	products := r.PathPrefix("/api/v1/products").Subrouter()
	products.Use(s.requireToken)
	products.HandleFunc("", s.handleList).Methods(http.MethodGet)
	products.HandleFunc("", s.handleCreate).Methods(http.MethodPost)
	products.HandleFunc("/{id}", s.handleGet).Methods(http.MethodGet)
	products.HandleFunc("/{id}", s.handleUpdate).Methods(http.MethodPut)
	products.HandleFunc("/{id}", s.handleDelete).Methods(http.MethodDelete)
	products.HandleFunc("/{id}/image", s.handleUpload).Methods(http.MethodPost)

	r.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusNotFound, "route not found")
	})
	return r
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		s.logger.Info().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Str("request_id", r.Header.Get("X-Request-ID")).
			Int("status", rec.status).
			Dur("elapsed", time.Since(start)).
			Msg("mock request")
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (s *Server) requireToken(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.token == "" {
			next.ServeHTTP(w, r)
			return
		}
		auth := r.Header.Get("Authorization")
		if !strings.HasPrefix(auth, "Bearer ") || strings.TrimPrefix(auth, "Bearer ") != s.token {
			writeError(w, http.StatusUnauthorized, "Unauthorized")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) shapeOf(e catalog.Endpoint) api.Shape {
	if shape, ok := s.shapes[e.Name()]; ok {
		return shape
	}
	return e.Shape()
}

// respond writes data bare or wrapped, following the endpoint's shape.
func (s *Server) respond(w http.ResponseWriter, status int, e catalog.Endpoint, data any) {
	if s.shapeOf(e) == api.ShapeEnvelope {
		writeJSON(w, status, map[string]any{"status": true, "message": "Success", "data": data})
		return
	}
	writeJSON(w, status, data)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	ts := s.now().UTC().Format(time.RFC3339)
	version := Version
	writeJSON(w, http.StatusOK, catalog.HealthResponse{Status: "ok", Timestamp: &ts, Version: &version})
}

func (s *Server) handleTodos(w http.ResponseWriter, _ *http.Request) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	writeJSON(w, http.StatusOK, s.todos)
}

func (s *Server) handleList(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	page := positiveInt(q.Get("page"), catalog.DefaultPage)
	limit := positiveInt(q.Get("limit"), defaultPerPage)
	category := strings.TrimSpace(q.Get("category"))
	search := strings.ToLower(strings.TrimSpace(q.Get("search")))

	s.mu.RLock()
	matched := make([]catalog.Product, 0, len(s.products))
	for _, p := range s.products {
		if category != "" && !strings.EqualFold(p.Category, category) {
			continue
		}
		if search != "" && !strings.Contains(strings.ToLower(p.Name), search) &&
			(p.Description == nil || !strings.Contains(strings.ToLower(*p.Description), search)) {
			continue
		}
		matched = append(matched, p)
	}
	s.mu.RUnlock()
	sort.Slice(matched, func(i, j int) bool { return matched[i].ID < matched[j].ID })

	total := len(matched)
	totalPages := (total + limit - 1) / limit
	start := (page - 1) * limit
	pageItems := []catalog.Product{}
	if start < total {
		end := min(start+limit, total)
		pageItems = matched[start:end]
	}

	s.respond(w, http.StatusOK, catalog.ListProducts{}, catalog.ProductListResponse{
		Products:   pageItems,
		Total:      total,
		Page:       page,
		Limit:      limit,
		TotalPages: totalPages,
	})
}

func (s *Server) handleGet(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	s.mu.RLock()
	p, ok := s.products[id]
	s.mu.RUnlock()
	if !ok {
		writeError(w, http.StatusNotFound, "Product not found")
		return
	}
	s.respond(w, http.StatusOK, catalog.GetProduct{}, p)
}

func (s *Server) handleCreate(w http.ResponseWriter, r *http.Request) {
	var req catalog.CreateProductRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON body")
		return
	}
	if fields := validateCreate(req); len(fields) > 0 {
		writeValidation(w, fields)
		return
	}

	now := api.Time{Time: s.now().UTC().Truncate(time.Second)}
	p := catalog.Product{
		ID:            uuid.NewString(),
		Name:          strings.TrimSpace(req.Name),
		Description:   req.Description,
		Price:         req.Price,
		Currency:      req.Currency,
		Category:      req.Category,
		StockQuantity: req.StockQuantity,
		SKU:           req.SKU,
		CreatedAt:     &now,
		UpdatedAt:     &now,
	}
	s.mu.Lock()
	s.products[p.ID] = p
	s.mu.Unlock()

	s.respond(w, http.StatusCreated, catalog.CreateProduct{}, p)
}

func (s *Server) handleUpdate(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	var req catalog.UpdateProductRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON body")
		return
	}
	if fields := validateUpdate(req); len(fields) > 0 {
		writeValidation(w, fields)
		return
	}

	s.mu.Lock()
	p, ok := s.products[id]
	if !ok {
		s.mu.Unlock()
		writeError(w, http.StatusNotFound, "Product not found")
		return
	}
	applyUpdate(&p, req)
	now := api.Time{Time: s.now().UTC().Truncate(time.Second)}
	p.UpdatedAt = &now
	s.products[id] = p
	s.mu.Unlock()

	s.respond(w, http.StatusOK, catalog.UpdateProduct{}, p)
}

func (s *Server) handleDelete(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	s.mu.Lock()
	_, ok := s.products[id]
	delete(s.products, id)
	delete(s.images, id)
	s.mu.Unlock()
	if !ok {
		writeError(w, http.StatusNotFound, "Product not found")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	if err := r.ParseMultipartForm(maxImageBytes); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid multipart body")
		return
	}
	file, header, err := r.FormFile("image")
	if err != nil {
		writeValidation(w, map[string][]string{"image": {"is required"}})
		return
	}
	defer func() { _ = file.Close() }()
	data, err := io.ReadAll(io.LimitReader(file, maxImageBytes))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Unreadable image")
		return
	}

	s.mu.Lock()
	p, ok := s.products[id]
	if !ok {
		s.mu.Unlock()
		writeError(w, http.StatusNotFound, "Product not found")
		return
	}
	imageURL := "/images/" + id + "/" + path.Base(header.Filename)
	p.ImageURL = &imageURL
	s.products[id] = p
	s.images[id] = data
	s.mu.Unlock()

	s.respond(w, http.StatusOK, catalog.UploadProductImage{}, p)
}

// Image returns the bytes last uploaded for id.
func (s *Server) Image(id string) ([]byte, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	data, ok := s.images[id]
	return data, ok
}

// Len reports how many products are stored.
func (s *Server) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.products)
}

func validateCreate(req catalog.CreateProductRequest) map[string][]string {
	fields := map[string][]string{}
	if strings.TrimSpace(req.Name) == "" {
		fields["name"] = append(fields["name"], "is required")
	}
	if req.Price < 0 {
		fields["price"] = append(fields["price"], "must not be negative")
	}
	if strings.TrimSpace(req.Currency) == "" {
		fields["currency"] = append(fields["currency"], "is required")
	}
	if req.StockQuantity < 0 {
		fields["stock_quantity"] = append(fields["stock_quantity"], "must not be negative")
	}
	return fields
}

func validateUpdate(req catalog.UpdateProductRequest) map[string][]string {
	fields := map[string][]string{}
	if req.Name != nil && strings.TrimSpace(*req.Name) == "" {
		fields["name"] = append(fields["name"], "must not be empty")
	}
	if req.Price != nil && *req.Price < 0 {
		fields["price"] = append(fields["price"], "must not be negative")
	}
	if req.StockQuantity != nil && *req.StockQuantity < 0 {
		fields["stock_quantity"] = append(fields["stock_quantity"], "must not be negative")
	}
	return fields
}

func applyUpdate(p *catalog.Product, req catalog.UpdateProductRequest) {
	if req.Name != nil {
		p.Name = strings.TrimSpace(*req.Name)
	}
	if req.Description != nil {
		p.Description = req.Description
	}
	if req.Price != nil {
		p.Price = *req.Price
	}
	if req.Currency != nil {
		p.Currency = *req.Currency
	}
	if req.Category != nil {
		p.Category = *req.Category
	}
	if req.StockQuantity != nil {
		p.StockQuantity = *req.StockQuantity
	}
	if req.SKU != nil {
		p.SKU = req.SKU
	}
}

func positiveInt(raw string, fallback int) int {
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || n <= 0 {
		return fallback
	}
	return n
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]any{"message": message, "code": status})
}

func writeValidation(w http.ResponseWriter, fields map[string][]string) {
	writeJSON(w, http.StatusUnprocessableEntity, map[string]any{
		"message": "Validation failed",
		"errors":  fields,
		"code":    "VALIDATION_ERROR",
	})
}
