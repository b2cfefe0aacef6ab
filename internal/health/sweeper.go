package health

import (
	"log/slog"
	"sync"
	"time"

	"github.com/benbjohnson/clock"
)

// Sweeper periodically runs Registry.Sweep so that expired disables are
// picked up even when no traffic arrives. Start and Stop are idempotent.
type Sweeper struct {
	registry *Registry
	clock    clock.Clock
	interval time.Duration

	mu      sync.Mutex
	ticker  *clock.Ticker
	stop    chan struct{}
	stopped chan struct{}
}

// NewSweeper creates a stopped sweeper for the given registry.
func NewSweeper(registry *Registry, clk clock.Clock, interval time.Duration) *Sweeper {
	return &Sweeper{
		registry: registry,
		clock:    clk,
		interval: interval,
	}
}

// Start launches the sweep loop. Starting a running sweeper is a no-op.
func (s *Sweeper) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.ticker != nil {
		return
	}

	s.ticker = s.clock.Ticker(s.interval)
	s.stop = make(chan struct{})
	s.stopped = make(chan struct{})
	go s.loop(s.ticker, s.stop, s.stopped)

	slog.Info("health_sweep_started", "interval", s.interval.String())
}

// Stop halts the sweep loop and waits for an in-flight sweep to finish.
// Stopping a stopped sweeper is a no-op.
func (s *Sweeper) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.ticker == nil {
		return
	}

	s.ticker.Stop()
	close(s.stop)
	<-s.stopped
	s.ticker = nil

	slog.Info("health_sweep_stopped")
}

// Running reports whether the sweep loop is active.
func (s *Sweeper) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ticker != nil
}

func (s *Sweeper) loop(ticker *clock.Ticker, stop <-chan struct{}, stopped chan<- struct{}) {
	defer close(stopped)
	for {
		select {
		case <-ticker.C:
			slog.Debug("health_sweep")
			s.registry.Sweep()
		case <-stop:
			return
		}
	}
}
