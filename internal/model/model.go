package model

import "time"

// GatewayConfig describes one upstream payment gateway and its health policy.
type GatewayConfig struct {
	Name                   string  `json:"name"`
	Weight                 int     `json:"weight"`
	SuccessThreshold       float64 `json:"success_threshold"`
	MinRequests            int     `json:"min_requests"`
	DisableDurationMinutes int     `json:"disable_duration_minutes"`
}

// DisableDuration returns the configured cooldown as a time.Duration.
func (c GatewayConfig) DisableDuration() time.Duration {
	return time.Duration(c.DisableDurationMinutes) * time.Minute
}

// InstrumentType is the kind of payment instrument used by a transaction.
type InstrumentType string

const (
	InstrumentCard       InstrumentType = "card"
	InstrumentUPI        InstrumentType = "upi"
	InstrumentNetbanking InstrumentType = "netbanking"
)

// IsValid returns true if the instrument type is one the service accepts.
func (t InstrumentType) IsValid() bool {
	switch t {
	case InstrumentCard, InstrumentUPI, InstrumentNetbanking:
		return true
	default:
		return false
	}
}

// PaymentInstrument carries the instrument details of a transaction.
// Only the fields relevant to Type are populated.
type PaymentInstrument struct {
	Type           InstrumentType `json:"type"`
	CardNumber     string         `json:"card_number,omitempty"`
	Expiry         string         `json:"expiry,omitempty"`
	CVV            string         `json:"cvv,omitempty"`
	CardHolderName string         `json:"card_holder_name,omitempty"`
	UPIID          string         `json:"upi_id,omitempty"`
	BankCode       string         `json:"bank_code,omitempty"`
}

// InitiateRequest is an incoming request to start a payment transaction.
type InitiateRequest struct {
	OrderID           string             `json:"order_id"`
	Amount            float64            `json:"amount"`
	PaymentInstrument *PaymentInstrument `json:"payment_instrument"`
}

// TransactionStatus represents the lifecycle state of a transaction in the ledger.
type TransactionStatus string

const (
	StatusPending   TransactionStatus = "pending"
	StatusCompleted TransactionStatus = "completed"
	StatusFailed    TransactionStatus = "failed"
)

// CallbackStatus is the outcome reported by a gateway callback.
type CallbackStatus string

const (
	CallbackSuccess CallbackStatus = "success"
	CallbackFailure CallbackStatus = "failure"
)

// IsValid returns true if the callback status is success or failure.
func (s CallbackStatus) IsValid() bool {
	return s == CallbackSuccess || s == CallbackFailure
}

// TransactionStatus maps the callback outcome to the ledger status it produces.
func (s CallbackStatus) TransactionStatus() TransactionStatus {
	if s == CallbackSuccess {
		return StatusCompleted
	}
	return StatusFailed
}

// CallbackRequest is a gateway callback reporting the outcome of a transaction.
type CallbackRequest struct {
	OrderID string         `json:"order_id"`
	Gateway string         `json:"gateway"`
	Status  CallbackStatus `json:"status"`
	Reason  string         `json:"reason,omitempty"`
}

// CallbackData records the callback that settled a transaction.
type CallbackData struct {
	Gateway    string    `json:"gateway"`
	Reason     string    `json:"reason,omitempty"`
	ReceivedAt time.Time `json:"received_at"`
}

// Transaction is a single ledger entry keyed by order ID.
type Transaction struct {
	OrderID           string            `json:"order_id"`
	Amount            float64           `json:"amount"`
	PaymentInstrument PaymentInstrument `json:"payment_instrument"`
	SelectedGateway   string            `json:"selected_gateway"`
	Status            TransactionStatus `json:"status"`
	CreatedAt         time.Time         `json:"created_at"`
	UpdatedAt         time.Time         `json:"updated_at"`
	CallbackReceived  bool              `json:"callback_received"`
	CallbackData      *CallbackData     `json:"callback_data"`
}

// ProcessorResponse represents the result of a simulated gateway call.
type ProcessorResponse struct {
	Gateway   string        `json:"gateway"`
	OrderID   string        `json:"order_id"`
	Success   bool          `json:"success"`
	Message   string        `json:"message"`
	Timestamp time.Time     `json:"timestamp"`
	Latency   time.Duration `json:"latency"`
}
