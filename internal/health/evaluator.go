package health

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/marlonbarreto-git/nimbus-gateway-router/internal/config"
	"github.com/marlonbarreto-git/nimbus-gateway-router/internal/model"
)

// Transition is the health decision taken for a gateway.
type Transition int

const (
	// TransitionNone leaves the gateway in its current state.
	TransitionNone Transition = iota
	// TransitionDisable moves a healthy gateway to disabled.
	TransitionDisable
	// TransitionEnable moves a disabled gateway whose cooldown expired back to healthy.
	TransitionEnable
)

// String returns a human-readable transition name.
func (t Transition) String() string {
	switch t {
	case TransitionNone:
		return "none"
	case TransitionDisable:
		return "disable"
	case TransitionEnable:
		return "enable"
	default:
		return "unknown"
	}
}

// Window summarizes the outcomes inside the sliding window.
type Window struct {
	Count     int
	Successes int
}

// Failures returns the number of failed outcomes in the window.
func (w Window) Failures() int {
	return w.Count - w.Successes
}

// SuccessRate returns successes over count, or the default rate for an empty window.
func (w Window) SuccessRate() float64 {
	if w.Count == 0 {
		return config.DefaultSuccessRate
	}
	return float64(w.Successes) / float64(w.Count)
}

// summarize counts the outcomes strictly newer than cutoff.
func summarize(history []Outcome, cutoff time.Time) Window {
	var w Window
	for _, o := range history {
		if !o.Timestamp.After(cutoff) {
			continue
		}
		w.Count++
		if o.Success {
			w.Successes++
		}
	}
	return w
}

// Evaluate decides the health transition for one gateway.
//
// A healthy gateway is disabled once its window holds at least MinRequests
// outcomes and the windowed success rate is below SuccessThreshold. A disabled
// gateway is re-enabled once now reaches DisabledUntil.
func Evaluate(cfg model.GatewayConfig, state State, window Window, now time.Time) Transition {
	if !state.Healthy {
		if state.DisabledUntil != nil && !now.Before(*state.DisabledUntil) {
			return TransitionEnable
		}
		return TransitionNone
	}
	if window.Count >= cfg.MinRequests && window.SuccessRate() < cfg.SuccessThreshold {
		return TransitionDisable
	}
	return TransitionNone
}

// evaluateLocked prunes the history of e, runs Evaluate and applies the result.
// Every call site (outcome recording, sweeping, lazy re-enable on selection)
// goes through here. e.mu must be held.
func (r *Registry) evaluateLocked(e *gatewayEntry, now time.Time) Transition {
	cutoff := r.cutoff(now)
	e.stats.History = pruneHistory(e.stats.History, cutoff)
	window := summarize(e.stats.History, cutoff)

	t := Evaluate(e.config, e.state, window, now)
	switch t {
	case TransitionDisable:
		until := now.Add(e.config.DisableDuration())
		e.state = State{Healthy: false, DisabledUntil: &until}
		slog.Warn("gateway_disabled",
			"gateway", e.config.Name,
			"success_rate", fmt.Sprintf("%.2f", window.SuccessRate()),
			"window_count", window.Count,
			"disabled_until", until,
		)
		r.observer.GatewayStateChanged(e.config.Name, false)
	case TransitionEnable:
		e.resetLocked(now)
		slog.Info("gateway_reenabled", "gateway", e.config.Name)
		r.observer.GatewayStateChanged(e.config.Name, true)
	}
	return t
}

// Sweep evaluates every gateway once. Each gateway is locked on its own, so a
// sweep never blocks selection for longer than one gateway's evaluation.
func (r *Registry) Sweep() {
	now := r.clock.Now()
	for _, e := range r.entries() {
		e.mu.Lock()
		r.evaluateLocked(e, now)
		e.mu.Unlock()
	}
}
