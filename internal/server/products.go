package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/elinofoods/storefront/cache"
	"github.com/elinofoods/storefront/internal/catalog"
)

func cacheStatus(w http.ResponseWriter, hit bool) {
	if hit {
		w.Header().Set("X-Cache", "HIT")
	} else {
		w.Header().Set("X-Cache", "MISS")
	}
}

func intParam(r *http.Request, name string, def int) int {
	v, err := strconv.Atoi(r.URL.Query().Get(name))
	if err != nil || v <= 0 {
		return def
	}

	return v
}

func (s *Server) testConnection(w http.ResponseWriter, r *http.Request) {
	shop, err := s.config.Catalog.Shop(r.Context())
	if err != nil {
		s.fail(w, r, err, "Failed to connect to Shopify")

		return
	}

	s.writeJSON(w, r, http.StatusOK, map[string]interface{}{
		"success": true,
		"shop":    shop,
		"message": "Shopify connection successful!",
	})
}

func (s *Server) quickProducts(w http.ResponseWriter, r *http.Request) {
	products, hit, err := s.config.Catalog.QuickList(r.Context())
	if err != nil {
		s.fail(w, r, err, "Failed to fetch products")

		return
	}

	cacheStatus(w, hit)
	s.writeJSON(w, r, http.StatusOK, products)
}

func (s *Server) listProducts(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	edges, err := s.config.Catalog.List(r.Context(), catalog.ListParams{
		Limit:    intParam(r, "limit", 20),
		SortKey:  q.Get("sortKey"),
		Reverse:  q.Get("reverse") == "true",
		Category: q.Get("category"),
	})
	if err != nil {
		s.fail(w, r, err, "Failed to fetch products")

		return
	}

	s.writeJSON(w, r, http.StatusOK, edges)
}

func (s *Server) searchProducts(w http.ResponseWriter, r *http.Request) {
	products, err := s.config.Catalog.Search(r.Context(), r.URL.Query().Get("q"), intParam(r, "limit", 10))
	if err != nil {
		s.fail(w, r, err, "Failed to search products")

		return
	}

	s.writeJSON(w, r, http.StatusOK, products)
}

type batchRequest struct {
	Identifiers []string `json:"identifiers"`
	// Type is "id" (default) or "handle".
	Type string `json:"type"`
}

func (s *Server) batchProducts(w http.ResponseWriter, r *http.Request) {
	var req batchRequest
	if !s.decode(w, r, &req) {
		return
	}

	products, err := s.config.Catalog.Batch(r.Context(), req.Identifiers, req.Type == "handle")
	if err != nil {
		s.fail(w, r, err, "Failed to batch fetch products")

		return
	}

	s.writeJSON(w, r, http.StatusOK, products)
}

func (s *Server) detail(w http.ResponseWriter, r *http.Request, product json.RawMessage, hit bool, err error) {
	if err != nil {
		s.fail(w, r, err, "Failed to fetch product")

		return
	}

	cacheStatus(w, hit)
	s.writeJSON(w, r, http.StatusOK, product)
}

func (s *Server) productByID(w http.ResponseWriter, r *http.Request) {
	p, hit, err := s.config.Catalog.ProductByID(r.Context(), r.PathValue("id"))
	s.detail(w, r, p, hit, err)
}

func (s *Server) productByHandle(w http.ResponseWriter, r *http.Request) {
	p, hit, err := s.config.Catalog.ProductByHandle(r.Context(), r.PathValue("handle"))
	s.detail(w, r, p, hit, err)
}

func (s *Server) product(w http.ResponseWriter, r *http.Request) {
	p, hit, err := s.config.Catalog.Product(r.Context(), r.PathValue("identifier"))
	s.detail(w, r, p, hit, err)
}

func (s *Server) clearCache(w http.ResponseWriter, r *http.Request) {
	err := s.config.Invalidator.Invalidate(r.Context())

	switch {
	case err == nil:
		s.writeJSON(w, r, http.StatusOK, map[string]interface{}{
			"success": true,
			"message": "Cache cleared",
		})
	case errors.Is(err, cache.ErrAlreadyInvalidated):
		s.writeError(w, r, http.StatusTooManyRequests, err.Error())
	default:
		s.fail(w, r, err, "Failed to clear cache")
	}
}
