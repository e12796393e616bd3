package server

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/bool64/ctxd"
)

// Metric names of HTTP requests.
const (
	MetricRequest         = "http_request"
	MetricRequestDuration = "http_request_seconds"
)

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(status int) {
	if w.status == 0 {
		w.status = status
	}

	w.ResponseWriter.WriteHeader(status)
}

func (w *statusWriter) Write(b []byte) (int, error) {
	if w.status == 0 {
		w.status = http.StatusOK
	}

	return w.ResponseWriter.Write(b)
}

func (w *statusWriter) Unwrap() http.ResponseWriter {
	return w.ResponseWriter
}

func (s *Server) requestLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		sw := &statusWriter{ResponseWriter: w}

		ctx := ctxd.AddFields(r.Context(), "method", r.Method, "path", r.URL.Path)
		r = r.WithContext(ctx)

		next.ServeHTTP(sw, r)

		elapsed := time.Since(start)
		status := strconv.Itoa(sw.status)
		route := r.Pattern

		s.stat.Add(ctx, MetricRequest, 1, "route", route, "status", status)
		s.stat.Add(ctx, MetricRequestDuration, elapsed.Seconds(), "route", route)
		s.log.Debug(ctx, "request served", "status", sw.status, "elapsed", elapsed.String())
	})
}

func (s *Server) recoverer(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				if rec == http.ErrAbortHandler { //nolint:errorlint // Sentinel value of panic.
					panic(rec)
				}

				s.log.Error(r.Context(), "request panicked", "panic", rec)
				s.writeError(w, r, http.StatusInternalServerError, "Internal server error")
			}
		}()

		next.ServeHTTP(w, r)
	})
}

func (s *Server) securityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Content-Type-Options", "nosniff")

		if strings.HasPrefix(r.URL.Path, "/api/shopify/products") {
			w.Header().Set("Cache-Control", "public, max-age=60")
		}

		next.ServeHTTP(w, r)
	})
}
