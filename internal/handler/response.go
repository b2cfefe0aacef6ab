package handler

import (
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/goccy/go-json"

	"github.com/marlonbarreto-git/nimbus-gateway-router/internal/health"
	"github.com/marlonbarreto-git/nimbus-gateway-router/internal/ledger"
	"github.com/marlonbarreto-git/nimbus-gateway-router/internal/orchestrator"
	"github.com/marlonbarreto-git/nimbus-gateway-router/internal/requestid"
)

// body is a JSON response object. Every response gets timestamp and
// request_id added before it is written.
type body map[string]any

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Error("response_encode_failed", "error", err)
	}
}

func (h *Handler) respond(w http.ResponseWriter, r *http.Request, status int, b body) {
	if b == nil {
		b = body{}
	}
	b["timestamp"] = h.clock.Now().UTC()
	b["request_id"] = requestid.FromContext(r.Context())
	writeJSON(w, status, b)
}

func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, status int, title, message string) {
	b := body{"error": title}
	if message != "" {
		b["message"] = message
	}
	h.respond(w, r, status, b)
}

func (h *Handler) writeValidationError(w http.ResponseWriter, r *http.Request, details []FieldError) {
	slog.WarnContext(r.Context(), "validation_failed",
		"path", r.URL.Path,
		"errors", len(details),
	)
	h.respond(w, r, http.StatusBadRequest, body{
		"error":   "Validation failed",
		"details": details,
	})
}

// decodeJSON reads a JSON request body into v. An empty body is accepted
// when allowEmpty is set and leaves v untouched.
func decodeJSON(r *http.Request, v any, allowEmpty bool) error {
	err := json.NewDecoder(r.Body).Decode(v)
	if errors.Is(err, io.EOF) && allowEmpty {
		return nil
	}
	return err
}

// statusFor maps service errors to HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, ledger.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ledger.ErrDuplicate), errors.Is(err, orchestrator.ErrAlreadyProcessed):
		return http.StatusConflict
	case errors.Is(err, orchestrator.ErrGatewayMismatch), errors.Is(err, health.ErrInvalidConfig):
		return http.StatusBadRequest
	case errors.Is(err, health.ErrAllGatewaysUnhealthy):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
