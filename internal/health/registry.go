// Package health tracks per-gateway outcome history in a sliding time window,
// disables gateways whose windowed success rate drops below their threshold,
// re-enables them once the cooldown expires, and draws a gateway by weight
// among the ones currently eligible.
package health

import (
	"math/rand"
	"sync"
	"time"

	"github.com/benbjohnson/clock"

	"github.com/marlonbarreto-git/nimbus-gateway-router/internal/config"
	"github.com/marlonbarreto-git/nimbus-gateway-router/internal/model"
)

// Outcome records a single transaction outcome.
type Outcome struct {
	Timestamp time.Time `json:"timestamp"`
	Success   bool      `json:"success"`
}

// State is the runtime health state of a gateway.
// DisabledUntil is non-nil exactly when Healthy is false.
type State struct {
	Healthy       bool
	DisabledUntil *time.Time
}

// Stats holds the lifetime counters and windowed history of a gateway.
type Stats struct {
	TotalRequests      int
	SuccessfulRequests int
	FailedRequests     int
	History            []Outcome
	LastUpdated        time.Time
}

// gatewayEntry is the config, state and stats of one gateway behind its own lock.
type gatewayEntry struct {
	mu     sync.Mutex
	config model.GatewayConfig
	state  State
	stats  Stats
}

func newGatewayEntry(cfg model.GatewayConfig, stats Stats) *gatewayEntry {
	return &gatewayEntry{
		config: cfg,
		state:  State{Healthy: true},
		stats:  stats,
	}
}

// resetLocked zeroes the stats and marks the gateway healthy. e.mu must be held.
func (e *gatewayEntry) resetLocked(now time.Time) {
	e.stats = Stats{LastUpdated: now}
	e.state = State{Healthy: true}
}

// Registry owns the configured gateways and their runtime state.
//
// mu guards the gateway set itself; each gateway's state and stats are guarded
// by the entry's own mutex. Operations that touch several gateways lock the
// entries in install order.
type Registry struct {
	mu       sync.RWMutex
	gateways map[string]*gatewayEntry
	order    []string

	clock    clock.Clock
	window   time.Duration
	observer Observer

	rngMu sync.Mutex
	rng   *rand.Rand
}

// Option customizes a Registry.
type Option func(*Registry)

// WithClock sets the time source. Tests pass a clock.Mock.
func WithClock(c clock.Clock) Option {
	return func(r *Registry) { r.clock = c }
}

// WithWindow sets the sliding window length.
func WithWindow(d time.Duration) Option {
	return func(r *Registry) { r.window = d }
}

// WithObserver registers an observer for selections, outcomes and transitions.
func WithObserver(o Observer) Option {
	return func(r *Registry) { r.observer = o }
}

// WithRand sets the random source used for weighted selection.
func WithRand(rng *rand.Rand) Option {
	return func(r *Registry) { r.rng = rng }
}

// NewRegistry creates an empty registry. Install gateways with ValidateAndSetConfig.
func NewRegistry(opts ...Option) *Registry {
	r := &Registry{
		gateways: make(map[string]*gatewayEntry),
		clock:    clock.New(),
		window:   config.HistoryWindow,
		observer: nopObserver{},
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.rng == nil {
		r.rng = rand.New(rand.NewSource(r.clock.Now().UnixNano()))
	}
	return r
}

// Window returns the sliding window length.
func (r *Registry) Window() time.Duration {
	return r.window
}

// Names returns the installed gateway names in install order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, len(r.order))
	copy(names, r.order)
	return names
}

// Has reports whether a gateway with the given name is installed.
func (r *Registry) Has(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.gateways[name]
	return ok
}

// Configs returns the installed gateway configs in install order.
func (r *Registry) Configs() []model.GatewayConfig {
	r.mu.RLock()
	defer r.mu.RUnlock()
	configs := make([]model.GatewayConfig, 0, len(r.order))
	for _, name := range r.order {
		configs = append(configs, r.gateways[name].config)
	}
	return configs
}

// lookup returns the entry for name, or nil.
func (r *Registry) lookup(name string) *gatewayEntry {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.gateways[name]
}

// entries returns the installed entries in install order.
func (r *Registry) entries() []*gatewayEntry {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*gatewayEntry, 0, len(r.order))
	for _, name := range r.order {
		out = append(out, r.gateways[name])
	}
	return out
}

// cutoff returns the oldest timestamp still inside the window at now.
func (r *Registry) cutoff(now time.Time) time.Time {
	return now.Add(-r.window)
}

// pruneHistory returns the outcomes strictly newer than cutoff.
func pruneHistory(history []Outcome, cutoff time.Time) []Outcome {
	if len(history) == 0 {
		return nil
	}
	pruned := make([]Outcome, 0, len(history))
	for _, o := range history {
		if o.Timestamp.After(cutoff) {
			pruned = append(pruned, o)
		}
	}
	return pruned
}
