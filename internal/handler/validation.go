package handler

import (
	"regexp"
	"strings"

	"github.com/marlonbarreto-git/nimbus-gateway-router/internal/model"
)

var (
	expiryPattern = regexp.MustCompile(`^(0[1-9]|1[0-2])/([0-9]{2})$`)
	upiPattern    = regexp.MustCompile(`^[a-zA-Z0-9._-]+@[a-zA-Z]{2,}$`)
)

// FieldError describes one invalid request field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// sanitizeInitiate trims whitespace from free-text fields in place.
func sanitizeInitiate(req *model.InitiateRequest) {
	req.OrderID = strings.TrimSpace(req.OrderID)
	if pi := req.PaymentInstrument; pi != nil {
		pi.CardHolderName = strings.TrimSpace(pi.CardHolderName)
		pi.UPIID = strings.TrimSpace(pi.UPIID)
		pi.BankCode = strings.TrimSpace(pi.BankCode)
	}
}

func validateInitiate(req model.InitiateRequest) []FieldError {
	var errs []FieldError
	add := func(field, msg string) {
		errs = append(errs, FieldError{Field: field, Message: msg})
	}

	if req.OrderID == "" {
		add("order_id", "order_id is required")
	}
	if req.Amount < 0.01 {
		add("amount", "amount must be a positive number greater than 0")
	}

	pi := req.PaymentInstrument
	if pi == nil {
		add("payment_instrument", "payment_instrument is required")
		return errs
	}

	switch pi.Type {
	case "":
		add("payment_instrument.type", "payment_instrument.type is required")
	case model.InstrumentCard:
		if pi.CardNumber == "" {
			add("payment_instrument.card_number", "card_number is required for card payments")
		} else if n := len(pi.CardNumber); n < 13 || n > 19 {
			add("payment_instrument.card_number", "card_number must be between 13 and 19 characters")
		}
		if pi.Expiry == "" {
			add("payment_instrument.expiry", "expiry is required for card payments")
		} else if !expiryPattern.MatchString(pi.Expiry) {
			add("payment_instrument.expiry", "expiry must be in MM/YY format")
		}
		if n := len(pi.CVV); n != 0 && (n < 3 || n > 4) {
			add("payment_instrument.cvv", "cvv must be 3 or 4 characters")
		}
	case model.InstrumentUPI:
		if pi.UPIID == "" {
			add("payment_instrument.upi_id", "upi_id is required for UPI payments")
		} else if !upiPattern.MatchString(pi.UPIID) {
			add("payment_instrument.upi_id", "upi_id must be in valid UPI format (e.g., user@bank)")
		}
	case model.InstrumentNetbanking:
		if pi.BankCode == "" {
			add("payment_instrument.bank_code", "bank_code is required for netbanking payments")
		} else if n := len(pi.BankCode); n < 3 || n > 10 {
			add("payment_instrument.bank_code", "bank_code must be between 3 and 10 characters")
		}
	default:
		add("payment_instrument.type", "payment_instrument.type must be one of: card, upi, netbanking")
	}
	return errs
}

// validateCallback checks a callback body. known reports whether a gateway
// name is currently configured.
func validateCallback(req model.CallbackRequest, known func(string) bool) []FieldError {
	var errs []FieldError
	add := func(field, msg string) {
		errs = append(errs, FieldError{Field: field, Message: msg})
	}

	if req.OrderID == "" {
		add("order_id", "order_id is required")
	}
	switch {
	case req.Status == "":
		add("status", "status is required")
	case !req.Status.IsValid():
		add("status", `status must be either "success" or "failure"`)
	}
	switch {
	case req.Gateway == "":
		add("gateway", "gateway is required")
	case !known(req.Gateway):
		add("gateway", "gateway must be a configured gateway")
	}
	return errs
}

// requireFields reports the names of empty required fields as a single
// message, or "" if all are present.
func requireFields(fields ...[2]string) string {
	var missing []string
	for _, f := range fields {
		if strings.TrimSpace(f[1]) == "" {
			missing = append(missing, f[0])
		}
	}
	if len(missing) == 0 {
		return ""
	}
	return "Missing required fields: " + strings.Join(missing, ", ")
}
