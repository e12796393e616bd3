package server

import (
	"net/http"

	"github.com/elinofoods/storefront/internal/customers"
)

func (s *Server) customerCount(w http.ResponseWriter, r *http.Request) {
	n, err := s.config.Customers.Count(r.Context())
	if err != nil {
		s.fail(w, r, err, "Failed to fetch customer count")

		return
	}

	s.writeJSON(w, r, http.StatusOK, map[string]interface{}{
		"success": true,
		"count":   n,
	})
}

func (s *Server) listCustomers(w http.ResponseWriter, r *http.Request) {
	n, list, err := s.config.Customers.List(r.Context())
	if err != nil {
		s.fail(w, r, err, "Failed to fetch customers")

		return
	}

	s.writeJSON(w, r, http.StatusOK, map[string]interface{}{
		"success":   true,
		"count":     n,
		"customers": list,
	})
}

func (s *Server) customerOrders(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	list, err := s.config.Customers.Orders(r.Context(), id)
	if err != nil {
		s.fail(w, r, err, "Failed to fetch customer orders")

		return
	}

	s.writeJSON(w, r, http.StatusOK, map[string]interface{}{
		"success":     true,
		"customer_id": id,
		"orders":      list,
	})
}

func (s *Server) customerInsights(w http.ResponseWriter, r *http.Request) {
	in, err := s.config.Customers.Insights(r.Context(), r.PathValue("id"))
	if err != nil {
		s.fail(w, r, err, "Failed to fetch customer insights")

		return
	}

	s.writeJSON(w, r, http.StatusOK, map[string]interface{}{
		"success":  true,
		"customer": in.Customer,
		"insights": map[string]interface{}{
			"mostPurchasedProduct": in.MostPurchased,
		},
	})
}

func (s *Server) updateCustomer(w http.ResponseWriter, r *http.Request) {
	var u customers.Update
	if !s.decode(w, r, &u) {
		return
	}

	upd, err := s.config.Customers.Update(r.Context(), u)
	if err != nil {
		s.fail(w, r, err, "Failed to update customer")

		return
	}

	res := map[string]interface{}{
		"success":  true,
		"customer": upd.Customer,
	}

	if upd.Address != nil {
		res["address"] = upd.Address
	}

	s.writeJSON(w, r, http.StatusOK, res)
}

func (s *Server) adminProducts(w http.ResponseWriter, r *http.Request) {
	nodes, err := s.config.Catalog.AdminList(r.Context(), intParam(r, "limit", 20), r.URL.Query().Get("reverse") == "true")
	if err != nil {
		s.fail(w, r, err, "Failed to fetch products")

		return
	}

	s.writeJSON(w, r, http.StatusOK, map[string]interface{}{
		"success":  true,
		"products": nodes,
	})
}

func (s *Server) adminProduct(w http.ResponseWriter, r *http.Request) {
	p, err := s.config.Catalog.AdminProduct(r.Context(), r.PathValue("handle"))
	if err != nil {
		s.fail(w, r, err, "Failed to fetch product by handle")

		return
	}

	s.writeJSON(w, r, http.StatusOK, map[string]interface{}{
		"success": true,
		"product": p,
	})
}
