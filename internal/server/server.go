// Package server exposes storefront API over HTTP.
package server

import (
	"context"
	"net/http"
	"time"

	"github.com/bool64/ctxd"
	"github.com/bool64/stats"
	"github.com/elinofoods/storefront/cache"
	"github.com/elinofoods/storefront/internal/catalog"
	"github.com/elinofoods/storefront/internal/customers"
	"github.com/elinofoods/storefront/internal/ingredients"
	"github.com/elinofoods/storefront/internal/orders"
	"github.com/elinofoods/storefront/internal/reviews"
	"github.com/klauspost/compress/gzhttp"
	"github.com/rs/cors"
)

// Reviews is a review use case provider.
type Reviews interface {
	List(ctx context.Context, productID string, q reviews.Query) (reviews.Page, error)
	Create(ctx context.Context, productID string, in reviews.Input) (reviews.Review, error)
	Rating(ctx context.Context, productID string) (reviews.Stats, error)
	MarkHelpful(ctx context.Context, reviewID string) (reviews.Review, error)
	Delete(ctx context.Context, productID, reviewID string) error
}

// Ingredients is an ingredient storage.
type Ingredients interface {
	Add(ctx context.Context, i ingredients.Ingredient) (ingredients.Ingredient, error)
	List(ctx context.Context, productID string) ([]ingredients.Ingredient, error)
	Update(ctx context.Context, ingredientID string, u ingredients.Update) error
	Delete(ctx context.Context, ingredientID string) error
}

// Config holds server dependencies.
type Config struct {
	Catalog   *catalog.Catalog
	Orders    *orders.Service
	Customers *customers.Service

	// Reviews and Ingredients are optional, routes respond with 503 when nil.
	Reviews     Reviews
	Ingredients Ingredients

	// Cache is reported by health check.
	Cache     cache.Store
	CacheMode string

	// Invalidator clears caches on demand.
	Invalidator *cache.Invalidator

	// Metrics serves /metrics when not nil.
	Metrics http.Handler

	Logger ctxd.Logger
	Stats  stats.Tracker

	// AllowedOrigin is a CORS origin, default "*".
	AllowedOrigin string

	// MaxBodyBytes limits request body size, default DefaultMaxBodyBytes.
	MaxBodyBytes int64

	Now func() time.Time
}

// DefaultMaxBodyBytes fits base64 encoded ingredient images.
const DefaultMaxBodyBytes = 50 << 20

// Server is an HTTP handler of storefront API.
type Server struct {
	config  Config
	log     ctxd.Logger
	stat    stats.Tracker
	started time.Time
	handler http.Handler
}

// New creates Server.
func New(cfg Config) *Server {
	if cfg.Logger == nil {
		cfg.Logger = ctxd.NoOpLogger{}
	}

	if cfg.Stats == nil {
		cfg.Stats = stats.NoOp{}
	}

	if cfg.Cache == nil {
		cfg.Cache = cache.NoOp{}
	}

	if cfg.Invalidator == nil {
		cfg.Invalidator = &cache.Invalidator{}
	}

	if cfg.AllowedOrigin == "" {
		cfg.AllowedOrigin = "*"
	}

	if cfg.MaxBodyBytes == 0 {
		cfg.MaxBodyBytes = DefaultMaxBodyBytes
	}

	if cfg.Now == nil {
		cfg.Now = time.Now
	}

	s := &Server{
		config:  cfg,
		log:     cfg.Logger,
		stat:    cfg.Stats,
		started: cfg.Now(),
	}

	mux := http.NewServeMux()
	s.routes(mux)

	c := cors.New(cors.Options{
		AllowedOrigins:   []string{cfg.AllowedOrigin},
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete},
		AllowedHeaders:   []string{"*"},
		AllowCredentials: true,
	})

	s.handler = s.recoverer(s.requestLog(c.Handler(gzhttp.GzipHandler(s.securityHeaders(mux)))))

	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.handler.ServeHTTP(w, r)
}

func (s *Server) routes(mux *http.ServeMux) {
	mux.HandleFunc("GET /{$}", s.root)
	mux.HandleFunc("GET /health", s.health)

	if s.config.Metrics != nil {
		mux.Handle("GET /metrics", s.config.Metrics)
	}

	mux.HandleFunc("GET /api/shopify/test-connection", s.testConnection)
	mux.HandleFunc("GET /api/shopify/products", s.listProducts)
	mux.HandleFunc("GET /api/shopify/products/quick", s.quickProducts)
	mux.HandleFunc("GET /api/shopify/products/search", s.searchProducts)
	mux.HandleFunc("POST /api/shopify/products/batch", s.batchProducts)
	mux.HandleFunc("GET /api/shopify/products/id/{id}", s.productByID)
	mux.HandleFunc("GET /api/shopify/products/handle/{handle}", s.productByHandle)
	mux.HandleFunc("GET /api/shopify/products/{identifier}", s.product)
	mux.HandleFunc("POST /api/shopify/products/cache/clear", s.clearCache)

	mux.HandleFunc("GET /api/shopify/reviews/{productId}", s.listReviews)
	mux.HandleFunc("POST /api/shopify/reviews/{productId}", s.createReview)
	mux.HandleFunc("GET /api/shopify/reviews/{productId}/rating", s.rating)
	mux.HandleFunc("POST /api/shopify/reviews/{productId}/{reviewId}/helpful", s.markHelpful)
	mux.HandleFunc("DELETE /api/shopify/reviews/{productId}/{reviewId}", s.deleteReview)

	mux.HandleFunc("GET /api/admin/test-connection", s.testConnection)
	mux.HandleFunc("GET /api/admin/products", s.adminProducts)
	mux.HandleFunc("GET /api/admin/products/{handle}", s.adminProduct)

	mux.HandleFunc("GET /api/admin/customer/count", s.customerCount)
	mux.HandleFunc("GET /api/admin/customer/customers", s.listCustomers)
	mux.HandleFunc("GET /api/admin/customer/{id}/orders", s.customerOrders)
	mux.HandleFunc("GET /api/admin/customer/{id}/insights", s.customerInsights)
	mux.HandleFunc("PUT /api/admin/customer/update", s.updateCustomer)

	mux.HandleFunc("GET /api/admin/revenue", s.revenue)
	mux.HandleFunc("GET /api/admin/revenue/total", s.totalRevenue)

	mux.HandleFunc("POST /api/admin/ingredients/addingredient", s.addIngredient)
	mux.HandleFunc("GET /api/admin/ingredients/getingredients", s.listIngredients)
	mux.HandleFunc("PUT /api/admin/ingredients/updateingredient/{id}", s.updateIngredient)
	mux.HandleFunc("DELETE /api/admin/ingredients/deleteingredient/{id}", s.deleteIngredient)

	mux.HandleFunc("/", s.notFound)
}

func (s *Server) root(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, r, http.StatusOK, map[string]interface{}{
		"message": "Elino Foods Backend API is running",
		"version": "1.0",
	})
}

type healthResponse struct {
	Status    string      `json:"status"`
	Uptime    float64     `json:"uptime"`
	Timestamp int64       `json:"timestamp"`
	Cache     cacheHealth `json:"cache"`
}

type cacheHealth struct {
	Size int    `json:"size"`
	Type string `json:"type"`
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	now := s.config.Now()

	s.writeJSON(w, r, http.StatusOK, healthResponse{
		Status:    "healthy",
		Uptime:    now.Sub(s.started).Seconds(),
		Timestamp: now.UnixMilli(),
		Cache: cacheHealth{
			Size: s.config.Cache.Len(),
			Type: s.config.CacheMode,
		},
	})
}

func (s *Server) notFound(w http.ResponseWriter, r *http.Request) {
	s.writeError(w, r, http.StatusNotFound, "Route not found")
}
