package handler

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/marlonbarreto-git/nimbus-gateway-router/internal/health"
	"github.com/marlonbarreto-git/nimbus-gateway-router/internal/ledger"
	"github.com/marlonbarreto-git/nimbus-gateway-router/internal/model"
	"github.com/marlonbarreto-git/nimbus-gateway-router/internal/orchestrator"
)

// InitiateTransaction handles POST /api/transactions and /api/transactions/initiate.
func (h *Handler) InitiateTransaction(w http.ResponseWriter, r *http.Request) {
	var req model.InitiateRequest
	if err := decodeJSON(r, &req, false); err != nil {
		h.writeError(w, r, http.StatusBadRequest, "Invalid request data", "invalid request body: "+err.Error())
		return
	}
	sanitizeInitiate(&req)
	if errs := validateInitiate(req); len(errs) > 0 {
		h.writeValidationError(w, r, errs)
		return
	}

	tx, err := h.orch.Initiate(r.Context(), req)
	switch {
	case errors.Is(err, ledger.ErrDuplicate):
		h.respond(w, r, http.StatusConflict, body{
			"error":    "Transaction already exists for this order_id",
			"order_id": tx.OrderID,
			"status":   tx.Status,
		})
		return
	case errors.Is(err, health.ErrAllGatewaysUnhealthy):
		h.writeError(w, r, http.StatusServiceUnavailable, "All gateways are unhealthy",
			"No payment gateways are currently available. Please try again later.")
		return
	case err != nil:
		slog.ErrorContext(r.Context(), "initiate_failed", "order_id", req.OrderID, "error", err)
		h.writeError(w, r, statusFor(err), "Failed to initiate transaction", err.Error())
		return
	}

	h.respond(w, r, http.StatusCreated, body{
		"order_id":           tx.OrderID,
		"amount":             tx.Amount,
		"payment_instrument": tx.PaymentInstrument,
		"selected_gateway":   tx.SelectedGateway,
		"status":             tx.Status,
		"created_at":         tx.CreatedAt,
	})
}

// ListTransactions handles GET /api/transactions.
func (h *Handler) ListTransactions(w http.ResponseWriter, r *http.Request) {
	txs, err := h.orch.Transactions(r.Context())
	if err != nil {
		h.writeError(w, r, http.StatusInternalServerError, "Failed to list transactions", err.Error())
		return
	}
	stats, err := h.orch.Stats(r.Context())
	if err != nil {
		h.writeError(w, r, http.StatusInternalServerError, "Failed to compute transaction stats", err.Error())
		return
	}
	h.respond(w, r, http.StatusOK, body{
		"transactions":      txs,
		"transaction_stats": stats,
	})
}

// TransactionStats handles GET /api/transactions/stats.
func (h *Handler) TransactionStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.orch.Stats(r.Context())
	if err != nil {
		h.writeError(w, r, http.StatusInternalServerError, "Failed to compute transaction stats", err.Error())
		return
	}
	h.respond(w, r, http.StatusOK, body{"transaction_stats": stats})
}

// Callback handles POST /api/transactions/callback.
func (h *Handler) Callback(w http.ResponseWriter, r *http.Request) {
	var req model.CallbackRequest
	if err := decodeJSON(r, &req, false); err != nil {
		h.writeError(w, r, http.StatusBadRequest, "Invalid callback data", "invalid request body: "+err.Error())
		return
	}
	req.OrderID = strings.TrimSpace(req.OrderID)
	req.Reason = strings.TrimSpace(req.Reason)
	if errs := validateCallback(req, h.registry.Has); len(errs) > 0 {
		h.writeValidationError(w, r, errs)
		return
	}

	tx, err := h.orch.Callback(r.Context(), req)
	switch {
	case errors.Is(err, ledger.ErrNotFound):
		h.writeError(w, r, http.StatusNotFound, "Transaction not found",
			"Transaction with order_id "+req.OrderID+" not found")
		return
	case errors.Is(err, orchestrator.ErrAlreadyProcessed):
		h.respond(w, r, http.StatusConflict, body{
			"error":          "Transaction has already been processed",
			"order_id":       tx.OrderID,
			"current_status": tx.Status,
		})
		return
	case errors.Is(err, orchestrator.ErrGatewayMismatch):
		h.respond(w, r, http.StatusBadRequest, body{
			"error":            "Gateway mismatch",
			"message":          "callback gateway does not match the transaction's selected gateway",
			"order_id":         tx.OrderID,
			"selected_gateway": tx.SelectedGateway,
			"callback_gateway": req.Gateway,
		})
		return
	case err != nil:
		slog.ErrorContext(r.Context(), "callback_failed", "order_id", req.OrderID, "error", err)
		h.writeError(w, r, statusFor(err), "Failed to process callback", err.Error())
		return
	}

	success := tx.Status == model.StatusCompleted
	slog.InfoContext(r.Context(), "callback_processed",
		"order_id", tx.OrderID,
		"gateway", req.Gateway,
		"success", success,
	)
	h.respond(w, r, http.StatusOK, body{
		"message":  "Callback processed successfully",
		"order_id": tx.OrderID,
		"gateway":  req.Gateway,
		"success":  success,
	})
}

type simulateCallbackRequest struct {
	OrderID string `json:"order_id"`
	Gateway string `json:"gateway"`
}

// SimulateSuccess handles POST /api/transactions/simulate-success.
func (h *Handler) SimulateSuccess(w http.ResponseWriter, r *http.Request) {
	h.simulateCallback(w, r, true)
}

// SimulateFailure handles POST /api/transactions/simulate-failure.
func (h *Handler) SimulateFailure(w http.ResponseWriter, r *http.Request) {
	h.simulateCallback(w, r, false)
}

func (h *Handler) simulateCallback(w http.ResponseWriter, r *http.Request, success bool) {
	var req simulateCallbackRequest
	if err := decodeJSON(r, &req, false); err != nil {
		h.writeError(w, r, http.StatusBadRequest, "Invalid simulation data", "invalid request body: "+err.Error())
		return
	}
	req.OrderID = strings.TrimSpace(req.OrderID)
	req.Gateway = strings.TrimSpace(req.Gateway)
	if msg := requireFields([2]string{"order_id", req.OrderID}, [2]string{"gateway", req.Gateway}); msg != "" {
		h.writeError(w, r, http.StatusBadRequest, "Invalid simulation data", msg)
		return
	}

	tx, err := h.orch.SimulateCallback(r.Context(), req.OrderID, req.Gateway, success)
	if err != nil {
		if errors.Is(err, ledger.ErrNotFound) {
			h.writeError(w, r, http.StatusNotFound, "Transaction not found",
				"Transaction with order_id "+req.OrderID+" not found")
			return
		}
		h.writeError(w, r, statusFor(err), "Failed to simulate callback", err.Error())
		return
	}

	message := "Failure callback simulation completed"
	if success {
		message = "Success callback simulation completed"
	}
	h.respond(w, r, http.StatusOK, body{
		"message":  message,
		"order_id": tx.OrderID,
		"gateway":  req.Gateway,
		"success":  success,
		"status":   tx.Status,
	})
}

// BulkSuccess handles POST /api/transactions/bulk-success.
func (h *Handler) BulkSuccess(w http.ResponseWriter, r *http.Request) {
	h.bulkCallback(w, r, true)
}

// BulkFailure handles POST /api/transactions/bulk-failure.
func (h *Handler) BulkFailure(w http.ResponseWriter, r *http.Request) {
	h.bulkCallback(w, r, false)
}

func (h *Handler) bulkCallback(w http.ResponseWriter, r *http.Request, success bool) {
	result, err := h.orch.BulkCallback(r.Context(), success)
	if err != nil {
		h.writeError(w, r, http.StatusInternalServerError, "Bulk callback failed", err.Error())
		return
	}

	message := "Bulk failure callback completed"
	if success {
		message = "Bulk success callback completed"
	}
	h.respond(w, r, http.StatusOK, body{
		"message":            message,
		"total_transactions": result.Total,
		"success_count":      result.SuccessCount,
		"failure_count":      result.FailureCount,
	})
}
