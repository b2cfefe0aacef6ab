package health

import (
	"log/slog"
	"time"
)

// Disable takes a gateway out of selection until now+d. A zero d uses the
// gateway's configured disable duration. It reports false for an unknown gateway.
func (r *Registry) Disable(name string, d time.Duration) bool {
	e := r.lookup(name)
	if e == nil {
		return false
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if d <= 0 {
		d = e.config.DisableDuration()
	}
	until := r.clock.Now().Add(d)
	e.state = State{Healthy: false, DisabledUntil: &until}

	slog.Info("gateway_manually_disabled", "gateway", name, "disabled_until", until)
	r.observer.GatewayStateChanged(name, false)
	return true
}

// Enable marks a gateway healthy and clears its disable expiry, optionally
// zeroing its stats. It reports false for an unknown gateway.
func (r *Registry) Enable(name string, resetStats bool) bool {
	e := r.lookup(name)
	if e == nil {
		return false
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if resetStats {
		e.resetLocked(r.clock.Now())
	} else {
		e.state = State{Healthy: true}
	}

	slog.Info("gateway_manually_enabled", "gateway", name, "reset_stats", resetStats)
	r.observer.GatewayStateChanged(name, true)
	return true
}

// Reset zeroes a gateway's stats and marks it healthy with no expiry.
// It reports false for an unknown gateway.
func (r *Registry) Reset(name string) bool {
	e := r.lookup(name)
	if e == nil {
		return false
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	e.resetLocked(r.clock.Now())
	slog.Info("gateway_reset", "gateway", name)
	r.observer.GatewayStateChanged(name, true)
	return true
}

// ResetAll resets every installed gateway.
func (r *Registry) ResetAll() {
	now := r.clock.Now()
	for _, e := range r.entries() {
		e.mu.Lock()
		e.resetLocked(now)
		r.observer.GatewayStateChanged(e.config.Name, true)
		e.mu.Unlock()
	}
	slog.Info("gateways_reset_all")
}
