package handler

import (
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/marlonbarreto-git/nimbus-gateway-router/internal/requestid"
)

// statusRecorder captures the status code written by the wrapped handler.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (r *statusRecorder) Unwrap() http.ResponseWriter {
	return r.ResponseWriter
}

// withRequestID reuses an incoming X-Request-ID or assigns a new one, echoes
// it in the response and stores it in the request context.
func (h *Handler) withRequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := strings.TrimSpace(r.Header.Get(requestid.Header))
		if id == "" {
			id = requestid.New()
		}
		w.Header().Set(requestid.Header, id)
		next.ServeHTTP(w, r.WithContext(requestid.WithID(r.Context(), id)))
	})
}

// withAccessLog logs every request and counts it by matched route pattern.
// It must wrap the mux directly so r.Pattern is visible after serving.
func (h *Handler) withAccessLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)

		route := r.Pattern
		if route == "" {
			route = "unmatched"
		}
		if h.metrics != nil {
			h.metrics.HTTPRequest(route, rec.status)
		}
		slog.InfoContext(r.Context(), "http_request",
			"method", r.Method,
			"path", r.URL.Path,
			"route", route,
			"status", rec.status,
			"duration_ms", time.Since(start).Milliseconds(),
		)
	})
}

// withRateLimit rejects API requests beyond the configured rate with 429.
// Probes and metrics scrapes are never limited.
func (h *Handler) withRateLimit(next http.Handler) http.Handler {
	if h.limiter == nil {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.HasPrefix(r.URL.Path, "/api/") && !h.limiter.Allow() {
			slog.WarnContext(r.Context(), "rate_limited", "path", r.URL.Path)
			h.writeError(w, r, http.StatusTooManyRequests, "Too many requests", "request rate limit exceeded, retry later")
			return
		}
		next.ServeHTTP(w, r)
	})
}
