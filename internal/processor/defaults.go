package processor

import "github.com/marlonbarreto-git/nimbus-gateway-router/internal/config"

// NewDefault creates the simulator with the standard 10% failure rate and
// 500ms-2s latency.
func NewDefault() *MockProcessor {
	return NewMockProcessor(MockConfig{
		FailureRate:         config.SimulationFailureRate,
		DegradedFailureRate: config.DegradedFailureRate,
		MinLatency:          config.SimulationMinDelay,
		MaxLatency:          config.SimulationMaxDelay,
	})
}

// NewFromSettings creates the simulator from runtime settings.
func NewFromSettings(s config.Settings) *MockProcessor {
	return NewMockProcessor(MockConfig{
		FailureRate:         s.SimulationFailureRate,
		DegradedFailureRate: config.DegradedFailureRate,
		MinLatency:          s.SimulationMinDelay,
		MaxLatency:          s.SimulationMaxDelay,
	})
}
