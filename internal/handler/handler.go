// Package handler exposes the payment gateway router over HTTP.
package handler

import (
	"net/http"
	"time"

	"github.com/benbjohnson/clock"
	"golang.org/x/time/rate"

	"github.com/marlonbarreto-git/nimbus-gateway-router/internal/config"
	"github.com/marlonbarreto-git/nimbus-gateway-router/internal/health"
	"github.com/marlonbarreto-git/nimbus-gateway-router/internal/metrics"
	"github.com/marlonbarreto-git/nimbus-gateway-router/internal/orchestrator"
)

// Degrader toggles simulated degradation of a gateway.
type Degrader interface {
	SetDegraded(gateway string, degraded bool)
	IsDegraded(gateway string) bool
}

// Handler holds HTTP handler dependencies.
type Handler struct {
	orch     *orchestrator.Orchestrator
	registry *health.Registry
	degrader Degrader
	metrics  *metrics.Metrics
	limiter  *rate.Limiter
	clock    clock.Clock
	started  time.Time
}

// Option configures a Handler.
type Option func(*Handler)

// WithDegrader enables POST /api/simulate/degrade.
func WithDegrader(d Degrader) Option {
	return func(h *Handler) { h.degrader = d }
}

// WithMetrics counts requests and serves GET /metrics.
func WithMetrics(m *metrics.Metrics) Option {
	return func(h *Handler) { h.metrics = m }
}

// WithRateLimiter limits /api/ requests.
func WithRateLimiter(l *rate.Limiter) Option {
	return func(h *Handler) { h.limiter = l }
}

// WithClock sets the clock used for response timestamps.
func WithClock(c clock.Clock) Option {
	return func(h *Handler) { h.clock = c }
}

// New creates a new Handler.
func New(orch *orchestrator.Orchestrator, opts ...Option) *Handler {
	h := &Handler{
		orch:     orch,
		registry: orch.Registry(),
		clock:    clock.New(),
	}
	for _, opt := range opts {
		opt(h)
	}
	h.started = h.clock.Now()
	return h
}

// RegisterRoutes registers all routes on the given mux.
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/transactions", h.InitiateTransaction)
	mux.HandleFunc("POST /api/transactions/initiate", h.InitiateTransaction)
	mux.HandleFunc("GET /api/transactions", h.ListTransactions)
	mux.HandleFunc("GET /api/transactions/stats", h.TransactionStats)
	mux.HandleFunc("POST /api/transactions/callback", h.Callback)
	mux.HandleFunc("POST /api/transactions/simulate-success", h.SimulateSuccess)
	mux.HandleFunc("POST /api/transactions/simulate-failure", h.SimulateFailure)
	mux.HandleFunc("POST /api/transactions/bulk-success", h.BulkSuccess)
	mux.HandleFunc("POST /api/transactions/bulk-failure", h.BulkFailure)

	mux.HandleFunc("GET /api/gateways/health", h.GatewayHealth)
	mux.HandleFunc("GET /api/gateways/stats", h.GatewayStats)
	mux.HandleFunc("GET /api/gateways/{name}", h.GatewayDetail)
	mux.HandleFunc("PUT /api/gateways/config", h.UpdateGatewayConfig)
	mux.HandleFunc("POST /api/gateways/{name}/state", h.SetGatewayState)
	mux.HandleFunc("POST /api/gateways/reset", h.ResetGateways)

	mux.HandleFunc("POST /api/simulate/degrade", h.SimulateDegrade)
	mux.HandleFunc("POST /api/simulate/batch", h.SimulateBatch)
	mux.HandleFunc("POST /api/reset", h.ResetApplication)

	mux.HandleFunc("GET /health", h.Health)
	mux.HandleFunc("GET /{$}", h.Dashboard)
	if h.metrics != nil {
		mux.Handle("GET /metrics", h.metrics.Handler())
	}
}

// Routes returns the full HTTP handler: the route mux behind request-ID,
// access-log and rate-limit middleware.
func (h *Handler) Routes() http.Handler {
	mux := http.NewServeMux()
	h.RegisterRoutes(mux)
	return h.withRequestID(h.withAccessLog(h.withRateLimit(mux)))
}

// Health handles GET /health.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	h.respond(w, r, http.StatusOK, body{
		"status":  "OK",
		"service": config.ServiceName,
	})
}
