package server

import (
	"net/http"

	"github.com/elinofoods/storefront/internal/ingredients"
	"github.com/elinofoods/storefront/internal/orders"
)

type revenueResponse struct {
	Success bool `json:"success"`
	orders.Revenue
}

func (s *Server) revenue(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	s.writeRevenue(w, r, orders.Filter{
		StartDate:  q.Get("startDate"),
		EndDate:    q.Get("endDate"),
		CustomerID: q.Get("customerId"),
		ProductID:  q.Get("productId"),
	})
}

func (s *Server) totalRevenue(w http.ResponseWriter, r *http.Request) {
	s.writeRevenue(w, r, orders.Filter{})
}

func (s *Server) writeRevenue(w http.ResponseWriter, r *http.Request, f orders.Filter) {
	rev, err := s.config.Orders.Revenue(r.Context(), f)
	if err != nil {
		s.fail(w, r, err, "Failed to fetch revenue")

		return
	}

	s.writeJSON(w, r, http.StatusOK, revenueResponse{Success: true, Revenue: rev})
}

func (s *Server) ingredientsEnabled(w http.ResponseWriter, r *http.Request) bool {
	if s.config.Ingredients == nil {
		s.writeError(w, r, http.StatusServiceUnavailable, "Ingredients storage is not configured")

		return false
	}

	return true
}

func (s *Server) addIngredient(w http.ResponseWriter, r *http.Request) {
	if !s.ingredientsEnabled(w, r) {
		return
	}

	var in ingredients.Ingredient
	if !s.decode(w, r, &in) {
		return
	}

	res, err := s.config.Ingredients.Add(r.Context(), in)
	if err != nil {
		s.fail(w, r, err, "Failed to add ingredient")

		return
	}

	s.writeJSON(w, r, http.StatusOK, map[string]interface{}{
		"success":    true,
		"message":    "Ingredient added successfully",
		"ingredient": res,
	})
}

func (s *Server) listIngredients(w http.ResponseWriter, r *http.Request) {
	if !s.ingredientsEnabled(w, r) {
		return
	}

	res, err := s.config.Ingredients.List(r.Context(), r.URL.Query().Get("product_id"))
	if err != nil {
		s.fail(w, r, err, "Failed to fetch ingredients")

		return
	}

	s.writeJSON(w, r, http.StatusOK, map[string]interface{}{
		"success":     true,
		"ingredients": res,
	})
}

func (s *Server) updateIngredient(w http.ResponseWriter, r *http.Request) {
	if !s.ingredientsEnabled(w, r) {
		return
	}

	var u ingredients.Update
	if !s.decode(w, r, &u) {
		return
	}

	if err := s.config.Ingredients.Update(r.Context(), r.PathValue("id"), u); err != nil {
		s.fail(w, r, err, "Failed to update ingredient")

		return
	}

	s.writeJSON(w, r, http.StatusOK, map[string]interface{}{
		"success": true,
		"message": "Ingredient updated successfully",
	})
}

func (s *Server) deleteIngredient(w http.ResponseWriter, r *http.Request) {
	if !s.ingredientsEnabled(w, r) {
		return
	}

	if err := s.config.Ingredients.Delete(r.Context(), r.PathValue("id")); err != nil {
		s.fail(w, r, err, "Failed to delete ingredient")

		return
	}

	s.writeJSON(w, r, http.StatusOK, map[string]interface{}{
		"success": true,
		"message": "Ingredient deleted successfully",
	})
}
