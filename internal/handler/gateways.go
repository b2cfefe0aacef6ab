package handler

import (
	"fmt"
	"log/slog"
	"net/http"
	"runtime"
	"time"

	"go.uber.org/multierr"

	"github.com/marlonbarreto-git/nimbus-gateway-router/internal/config"
	"github.com/marlonbarreto-git/nimbus-gateway-router/internal/model"
)

// GatewayHealth handles GET /api/gateways/health.
func (h *Handler) GatewayHealth(w http.ResponseWriter, r *http.Request) {
	stats, err := h.orch.Stats(r.Context())
	if err != nil {
		h.writeError(w, r, http.StatusInternalServerError, "Failed to compute transaction stats", err.Error())
		return
	}

	allUnhealthy := h.registry.AllUnhealthy()
	status := "OK"
	if allUnhealthy {
		status = "DEGRADED"
	}

	var mem runtime.MemStats
	runtime.ReadMemStats(&mem)

	slog.InfoContext(r.Context(), "gateway_health_requested",
		"status", status,
		"all_gateways_unhealthy", allUnhealthy,
		"total_transactions", stats.TotalTransactions,
	)
	h.respond(w, r, http.StatusOK, body{
		"status":                 status,
		"service":                config.ServiceName,
		"version":                config.Version,
		"uptime":                 h.clock.Since(h.started).Seconds(),
		"memory":                 body{"alloc": mem.Alloc, "sys": mem.Sys, "num_gc": mem.NumGC},
		"all_gateways_unhealthy": allUnhealthy,
		"gateways":               h.registry.SnapshotAll(),
		"transactions":           stats,
	})
}

// GatewayStats handles GET /api/gateways/stats.
func (h *Handler) GatewayStats(w http.ResponseWriter, r *http.Request) {
	h.respond(w, r, http.StatusOK, body{
		"gateway_stats":          h.registry.SnapshotAll(),
		"all_gateways_unhealthy": h.registry.AllUnhealthy(),
	})
}

// GatewayDetail handles GET /api/gateways/{name}.
func (h *Handler) GatewayDetail(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")
	view, ok := h.registry.Snapshot(name)
	if !ok {
		h.writeError(w, r, http.StatusNotFound, "Gateway not found", "unknown gateway: "+name)
		return
	}
	h.respond(w, r, http.StatusOK, body{"gateway": view})
}

type configRequest struct {
	Gateways []model.GatewayConfig `json:"gateways"`
}

// UpdateGatewayConfig handles PUT /api/gateways/config. The new set is
// installed only if every gateway is valid.
func (h *Handler) UpdateGatewayConfig(w http.ResponseWriter, r *http.Request) {
	var req configRequest
	if err := decodeJSON(r, &req, false); err != nil {
		h.writeError(w, r, http.StatusBadRequest, "Invalid configuration", "invalid request body: "+err.Error())
		return
	}

	if err := h.registry.ValidateAndSetConfig(req.Gateways); err != nil {
		details := make([]string, 0)
		for _, e := range multierr.Errors(err) {
			details = append(details, e.Error())
		}
		h.respond(w, r, statusFor(err), body{
			"error":   "Invalid configuration",
			"details": details,
		})
		return
	}

	h.respond(w, r, http.StatusOK, body{
		"message":  "Gateway configuration updated",
		"gateways": h.registry.Configs(),
	})
}

type stateRequest struct {
	Healthy         *bool `json:"healthy"`
	DurationMinutes int   `json:"duration_minutes"`
	ResetStats      bool  `json:"reset_stats"`
}

// SetGatewayState handles POST /api/gateways/{name}/state. A disable without
// duration_minutes uses the gateway's configured disable duration.
func (h *Handler) SetGatewayState(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")

	var req stateRequest
	if err := decodeJSON(r, &req, false); err != nil {
		h.writeError(w, r, http.StatusBadRequest, "Invalid state request", "invalid request body: "+err.Error())
		return
	}
	if req.Healthy == nil {
		h.writeValidationError(w, r, []FieldError{{Field: "healthy", Message: "healthy is required"}})
		return
	}
	if req.DurationMinutes < 0 || req.DurationMinutes > config.MaxDisableDurationMinutes {
		h.writeValidationError(w, r, []FieldError{{
			Field:   "duration_minutes",
			Message: fmt.Sprintf("duration_minutes must be between 0 and %d", config.MaxDisableDurationMinutes),
		}})
		return
	}

	var ok bool
	if *req.Healthy {
		ok = h.registry.Enable(name, req.ResetStats)
	} else {
		ok = h.registry.Disable(name, time.Duration(req.DurationMinutes)*time.Minute)
	}
	if !ok {
		h.writeError(w, r, http.StatusNotFound, "Gateway not found", "unknown gateway: "+name)
		return
	}

	view, _ := h.registry.Snapshot(name)
	h.respond(w, r, http.StatusOK, body{
		"message": "Gateway state updated",
		"gateway": view,
	})
}

type resetRequest struct {
	Gateway string `json:"gateway"`
}

// ResetGateways handles POST /api/gateways/reset. With a gateway name only
// that gateway is reset; otherwise every gateway is.
func (h *Handler) ResetGateways(w http.ResponseWriter, r *http.Request) {
	var req resetRequest
	if err := decodeJSON(r, &req, true); err != nil {
		h.writeError(w, r, http.StatusBadRequest, "Invalid reset request", "invalid request body: "+err.Error())
		return
	}

	if req.Gateway == "" {
		h.registry.ResetAll()
		h.respond(w, r, http.StatusOK, body{
			"message":       "All gateways reset",
			"gateway_stats": h.registry.SnapshotAll(),
		})
		return
	}

	if !h.registry.Reset(req.Gateway) {
		h.writeError(w, r, http.StatusNotFound, "Gateway not found", "unknown gateway: "+req.Gateway)
		return
	}
	view, _ := h.registry.Snapshot(req.Gateway)
	h.respond(w, r, http.StatusOK, body{
		"message": "Gateway reset",
		"gateway": view,
	})
}

// ResetApplication handles POST /api/reset.
func (h *Handler) ResetApplication(w http.ResponseWriter, r *http.Request) {
	if err := h.orch.ResetAll(r.Context()); err != nil {
		slog.ErrorContext(r.Context(), "application_reset_failed", "error", err)
		h.writeError(w, r, http.StatusInternalServerError, "Failed to reset application", err.Error())
		return
	}
	h.respond(w, r, http.StatusOK, body{
		"message": "Application reset successfully",
		"reset_details": body{
			"gateways_reset":       true,
			"transactions_cleared": true,
		},
	})
}
