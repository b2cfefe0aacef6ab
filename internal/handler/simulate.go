package handler

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/marlonbarreto-git/nimbus-gateway-router/internal/config"
	"github.com/marlonbarreto-git/nimbus-gateway-router/internal/health"
	"github.com/marlonbarreto-git/nimbus-gateway-router/internal/model"
)

// degradeRequest is the request body for POST /api/simulate/degrade.
type degradeRequest struct {
	Gateway  string `json:"gateway"`
	Degraded bool   `json:"degraded"`
}

// SimulateDegrade handles POST /api/simulate/degrade.
func (h *Handler) SimulateDegrade(w http.ResponseWriter, r *http.Request) {
	var req degradeRequest
	if err := decodeJSON(r, &req, false); err != nil {
		h.writeError(w, r, http.StatusBadRequest, "Invalid request data", "invalid request body: "+err.Error())
		return
	}
	if req.Gateway == "" {
		h.writeValidationError(w, r, []FieldError{{Field: "gateway", Message: "gateway is required"}})
		return
	}
	if h.degrader == nil {
		h.writeError(w, r, http.StatusNotImplemented, "Degradation not supported", "the configured processor cannot be degraded")
		return
	}
	if !h.registry.Has(req.Gateway) {
		h.writeError(w, r, http.StatusNotFound, "Gateway not found", "unknown gateway: "+req.Gateway)
		return
	}

	h.degrader.SetDegraded(req.Gateway, req.Degraded)
	slog.InfoContext(r.Context(), "gateway_degradation_toggled",
		"gateway", req.Gateway,
		"degraded", req.Degraded,
	)
	h.respond(w, r, http.StatusOK, body{
		"gateway":  req.Gateway,
		"degraded": h.degrader.IsDegraded(req.Gateway),
		"message":  "degradation mode updated",
	})
}

// batchRequest is the request body for POST /api/simulate/batch.
// Callback, when set to success or failure, settles each created
// transaction immediately.
type batchRequest struct {
	Count      int                  `json:"count"`
	Instrument model.InstrumentType `json:"instrument"`
	Callback   model.CallbackStatus `json:"callback"`
}

// batchSummary reports the result of a simulated batch.
type batchSummary struct {
	Requested  int            `json:"requested"`
	Initiated  int            `json:"initiated"`
	Rejected   int            `json:"rejected"`
	Completed  int            `json:"completed"`
	Failed     int            `json:"failed"`
	ByGateway  map[string]int `json:"by_gateway"`
	AcceptRate float64        `json:"accept_rate"`
}

// SimulateBatch handles POST /api/simulate/batch.
func (h *Handler) SimulateBatch(w http.ResponseWriter, r *http.Request) {
	var req batchRequest
	if err := decodeJSON(r, &req, false); err != nil {
		h.writeError(w, r, http.StatusBadRequest, "Invalid request data", "invalid request body: "+err.Error())
		return
	}

	if req.Count <= 0 || req.Count > config.MaxBatchSize {
		h.writeValidationError(w, r, []FieldError{{
			Field:   "count",
			Message: fmt.Sprintf("count must be between 1 and %d", config.MaxBatchSize),
		}})
		return
	}
	if req.Instrument == "" {
		req.Instrument = model.InstrumentCard
	}
	if !req.Instrument.IsValid() {
		h.writeValidationError(w, r, []FieldError{{
			Field:   "instrument",
			Message: "instrument must be one of: card, upi, netbanking",
		}})
		return
	}
	if req.Callback != "" && !req.Callback.IsValid() {
		h.writeValidationError(w, r, []FieldError{{
			Field:   "callback",
			Message: `callback must be either "success" or "failure"`,
		}})
		return
	}

	ctx := r.Context()
	summary := batchSummary{Requested: req.Count, ByGateway: make(map[string]int)}
	prefix := batchPrefix()
	for i := 0; i < req.Count; i++ {
		instrument := sampleInstrument(req.Instrument)
		tx, err := h.orch.Initiate(ctx, model.InitiateRequest{
			OrderID:           generateOrderID(prefix, i),
			Amount:            randomAmount(),
			PaymentInstrument: &instrument,
		})
		if err != nil {
			if !errors.Is(err, health.ErrAllGatewaysUnhealthy) {
				slog.ErrorContext(ctx, "batch_initiate_failed", "index", i, "error", err)
			}
			summary.Rejected++
			continue
		}
		summary.Initiated++
		summary.ByGateway[tx.SelectedGateway]++

		if req.Callback == "" {
			continue
		}
		settled, err := h.orch.SimulateCallback(ctx, tx.OrderID, tx.SelectedGateway, req.Callback == model.CallbackSuccess)
		if err != nil {
			slog.ErrorContext(ctx, "batch_callback_failed", "order_id", tx.OrderID, "error", err)
			continue
		}
		if settled.Status == model.StatusCompleted {
			summary.Completed++
		} else {
			summary.Failed++
		}
	}

	if summary.Initiated > 0 {
		summary.AcceptRate = float64(summary.Initiated) / float64(summary.Requested)
	}

	slog.InfoContext(ctx, "batch_simulated",
		"requested", summary.Requested,
		"initiated", summary.Initiated,
		"rejected", summary.Rejected,
	)
	h.respond(w, r, http.StatusOK, body{
		"summary":                summary,
		"all_gateways_unhealthy": h.registry.AllUnhealthy(),
	})
}
