package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/elinofoods/storefront/internal/catalog"
	"github.com/elinofoods/storefront/internal/customers"
	"github.com/elinofoods/storefront/internal/ingredients"
	"github.com/elinofoods/storefront/internal/orders"
	"github.com/elinofoods/storefront/internal/reviews"
	"github.com/elinofoods/storefront/internal/shopify"
)

var errorStatuses = []struct {
	err    error
	status int
}{
	{catalog.ErrNotFound, http.StatusNotFound},
	{reviews.ErrNotFound, http.StatusNotFound},
	{ingredients.ErrNotFound, http.StatusNotFound},
	{customers.ErrNotFound, http.StatusNotFound},
	{catalog.ErrInvalidArgument, http.StatusBadRequest},
	{reviews.ErrInvalid, http.StatusBadRequest},
	{ingredients.ErrInvalid, http.StatusBadRequest},
	{customers.ErrInvalid, http.StatusBadRequest},
	{orders.ErrInvalidFilter, http.StatusBadRequest},
	{ingredients.ErrDuplicate, http.StatusConflict},
}

type errorResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
}

func (s *Server) writeJSON(w http.ResponseWriter, r *http.Request, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.log.Warn(r.Context(), "failed to write response", "error", err)
	}
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, status int, msg string) {
	s.writeJSON(w, r, status, errorResponse{Error: msg})
}

// sentinelMessage returns target message with details appended by "%w: details" wrapping,
// outer context of the chain is dropped.
func sentinelMessage(err, target error) string {
	for e := err; e != nil; e = errors.Unwrap(e) {
		if e == target {
			break
		}

		if errors.Unwrap(e) == target && strings.HasPrefix(e.Error(), target.Error()) {
			return e.Error()
		}
	}

	return target.Error()
}

// fail responds with error status derived from err, fallback is a message of unexpected failures.
func (s *Server) fail(w http.ResponseWriter, r *http.Request, err error, fallback string) {
	for _, es := range errorStatuses {
		if errors.Is(err, es.err) {
			s.writeError(w, r, es.status, sentinelMessage(err, es.err))

			return
		}
	}

	var upstream *shopify.Error
	if errors.As(err, &upstream) && upstream.Status >= 400 && upstream.Status < 500 {
		s.log.Warn(r.Context(), "upstream rejected request", "error", err)
		s.writeError(w, r, upstream.Status, upstream.Error())

		return
	}

	s.log.Error(r.Context(), fallback, "error", err)
	s.writeError(w, r, http.StatusInternalServerError, fallback)
}

func (s *Server) decode(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	r.Body = http.MaxBytesReader(w, r.Body, s.config.MaxBodyBytes)

	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			s.writeError(w, r, http.StatusRequestEntityTooLarge, "Payload too large")

			return false
		}

		s.writeError(w, r, http.StatusBadRequest, "Invalid JSON body")

		return false
	}

	return true
}
