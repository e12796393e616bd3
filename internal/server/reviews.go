package server

import (
	"net/http"

	"github.com/elinofoods/storefront/internal/reviews"
)

func (s *Server) reviewsEnabled(w http.ResponseWriter, r *http.Request) bool {
	if s.config.Reviews == nil {
		s.writeError(w, r, http.StatusServiceUnavailable, "Reviews storage is not configured")

		return false
	}

	return true
}

func (s *Server) listReviews(w http.ResponseWriter, r *http.Request) {
	if !s.reviewsEnabled(w, r) {
		return
	}

	page, err := s.config.Reviews.List(r.Context(), r.PathValue("productId"), reviews.Query{
		Page:  intParam(r, "page", 1),
		Limit: intParam(r, "limit", 10),
		Sort:  r.URL.Query().Get("sort"),
	})
	if err != nil {
		s.fail(w, r, err, "Failed to fetch reviews")

		return
	}

	s.writeJSON(w, r, http.StatusOK, map[string]interface{}{
		"success": true,
		"data":    page,
	})
}

func (s *Server) createReview(w http.ResponseWriter, r *http.Request) {
	if !s.reviewsEnabled(w, r) {
		return
	}

	var in reviews.Input
	if !s.decode(w, r, &in) {
		return
	}

	review, err := s.config.Reviews.Create(r.Context(), r.PathValue("productId"), in)
	if err != nil {
		s.fail(w, r, err, "Failed to create review")

		return
	}

	s.writeJSON(w, r, http.StatusCreated, map[string]interface{}{
		"success": true,
		"data":    review,
	})
}

func (s *Server) rating(w http.ResponseWriter, r *http.Request) {
	if !s.reviewsEnabled(w, r) {
		return
	}

	st, err := s.config.Reviews.Rating(r.Context(), r.PathValue("productId"))
	if err != nil {
		s.fail(w, r, err, "Failed to fetch product rating")

		return
	}

	s.writeJSON(w, r, http.StatusOK, map[string]interface{}{
		"success": true,
		"data":    st,
	})
}

func (s *Server) markHelpful(w http.ResponseWriter, r *http.Request) {
	if !s.reviewsEnabled(w, r) {
		return
	}

	review, err := s.config.Reviews.MarkHelpful(r.Context(), r.PathValue("reviewId"))
	if err != nil {
		s.fail(w, r, err, "Failed to update review")

		return
	}

	s.writeJSON(w, r, http.StatusOK, map[string]interface{}{
		"success": true,
		"data":    review,
	})
}

func (s *Server) deleteReview(w http.ResponseWriter, r *http.Request) {
	if !s.reviewsEnabled(w, r) {
		return
	}

	if err := s.config.Reviews.Delete(r.Context(), r.PathValue("productId"), r.PathValue("reviewId")); err != nil {
		s.fail(w, r, err, "Failed to delete review")

		return
	}

	s.writeJSON(w, r, http.StatusOK, map[string]interface{}{
		"success": true,
		"message": "Review deleted successfully",
	})
}
