package config

import (
	"time"

	"github.com/marlonbarreto-git/nimbus-gateway-router/internal/model"
)

const (
	// MaxTotalWeight is the upper bound on the summed weight of all configured gateways.
	MaxTotalWeight = 100

	// MaxDisableDurationMinutes caps how long a gateway can be disabled, one week.
	MaxDisableDurationMinutes = 7 * 24 * 60

	// HealthCheckInterval is how often the sweeper re-evaluates every gateway.
	HealthCheckInterval = 30 * time.Second

	// HistoryWindow is the sliding window over which outcomes drive health decisions.
	HistoryWindow = 30 * time.Minute

	// DefaultSuccessRate is reported for gateways with fewer windowed samples than min_requests.
	DefaultSuccessRate = 1.0

	// SimulationFailureRate is the probability that a simulated gateway call fails.
	SimulationFailureRate = 0.1

	// SimulationMinDelay and SimulationMaxDelay bound the simulated gateway latency.
	SimulationMinDelay = 500 * time.Millisecond
	SimulationMaxDelay = 2000 * time.Millisecond

	// DegradedFailureRate is the failure rate of a gateway switched to degraded mode.
	DegradedFailureRate = 0.8

	// RecentTransactionsLimit caps the recent list in transaction stats.
	RecentTransactionsLimit = 10

	// MaxBatchSize caps POST /api/simulate/batch.
	MaxBatchSize = 1000

	// ServerPort is the default HTTP server port.
	ServerPort = "8080"

	// ServiceName is reported by the health endpoints.
	ServiceName = "payment-service"

	// Version is reported by the health endpoints.
	Version = "1.0.0"
)

// DefaultGateways returns the gateway set installed when no GATEWAYS_FILE is given.
func DefaultGateways() []model.GatewayConfig {
	return []model.GatewayConfig{
		{Name: "razorpay", Weight: 40, SuccessThreshold: 0.9, MinRequests: 10, DisableDurationMinutes: 30},
		{Name: "payu", Weight: 35, SuccessThreshold: 0.9, MinRequests: 10, DisableDurationMinutes: 30},
		{Name: "cashfree", Weight: 25, SuccessThreshold: 0.9, MinRequests: 10, DisableDurationMinutes: 30},
	}
}
