package processor

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"github.com/marlonbarreto-git/nimbus-gateway-router/internal/config"
	"github.com/marlonbarreto-git/nimbus-gateway-router/internal/model"
)

// MockConfig holds configuration for the simulated gateways.
type MockConfig struct {
	FailureRate         float64
	DegradedFailureRate float64
	MinLatency          time.Duration
	MaxLatency          time.Duration
}

// MockProcessor simulates every upstream gateway with a random delay and
// outcome. No network call is made.
type MockProcessor struct {
	config   MockConfig
	rng      *rand.Rand
	mu       sync.Mutex
	degraded map[string]bool
}

// NewMockProcessor creates a new mock processor from the given config.
func NewMockProcessor(cfg MockConfig) *MockProcessor {
	if cfg.DegradedFailureRate == 0 {
		cfg.DegradedFailureRate = config.DegradedFailureRate
	}
	return &MockProcessor{
		config:   cfg,
		rng:      rand.New(rand.NewSource(time.Now().UnixNano())),
		degraded: make(map[string]bool),
	}
}

// SetDegraded toggles degraded mode for one gateway.
func (p *MockProcessor) SetDegraded(gateway string, degraded bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if degraded {
		p.degraded[gateway] = true
		return
	}
	delete(p.degraded, gateway)
}

// IsDegraded returns the current degraded state of a gateway.
func (p *MockProcessor) IsDegraded(gateway string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.degraded[gateway]
}

func (p *MockProcessor) Process(ctx context.Context, gateway string, tx model.Transaction) model.ProcessorResponse {
	start := time.Now()

	latency := p.simulateLatency()
	select {
	case <-time.After(latency):
	case <-ctx.Done():
		return model.ProcessorResponse{
			Gateway:   gateway,
			OrderID:   tx.OrderID,
			Success:   false,
			Message:   "context cancelled",
			Timestamp: time.Now(),
			Latency:   time.Since(start),
		}
	}

	success := p.determineOutcome(gateway)
	message := "payment accepted"
	if !success {
		message = "simulated failure"
	}

	return model.ProcessorResponse{
		Gateway:   gateway,
		OrderID:   tx.OrderID,
		Success:   success,
		Message:   message,
		Timestamp: time.Now(),
		Latency:   time.Since(start),
	}
}

func (p *MockProcessor) determineOutcome(gateway string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	failureRate := p.config.FailureRate
	if p.degraded[gateway] {
		failureRate = p.config.DegradedFailureRate
	}
	return p.rng.Float64() >= failureRate
}

func (p *MockProcessor) simulateLatency() time.Duration {
	p.mu.Lock()
	defer p.mu.Unlock()
	min := p.config.MinLatency
	max := p.config.MaxLatency
	if max <= min {
		return min
	}
	return min + time.Duration(p.rng.Int63n(int64(max-min)))
}
