package health

import (
	"time"

	"github.com/marlonbarreto-git/nimbus-gateway-router/internal/config"
)

// HealthView is a read-only report of one gateway's health.
type HealthView struct {
	Name               string     `json:"name"`
	IsHealthy          bool       `json:"is_healthy"`
	DisabledUntil      *time.Time `json:"disabled_until"`
	SuccessRate        float64    `json:"success_rate"`
	WindowCount        int        `json:"window_count"`
	Weight             int        `json:"weight"`
	SuccessThreshold   float64    `json:"success_threshold"`
	MinRequests        int        `json:"min_requests"`
	TotalRequests      int        `json:"total_requests"`
	SuccessfulRequests int        `json:"successful_requests"`
	FailedRequests     int        `json:"failed_requests"`
	RecentSuccesses    int        `json:"recent_success_callbacks"`
	RecentFailures     int        `json:"recent_failure_callbacks"`
	LastUpdated        time.Time  `json:"last_updated"`
}

// Snapshot reports the health of one gateway. It never mutates the registry:
// the window is computed over the stored history without pruning it.
func (r *Registry) Snapshot(name string) (HealthView, bool) {
	e := r.lookup(name)
	if e == nil {
		return HealthView{}, false
	}
	cutoff := r.cutoff(r.clock.Now())

	e.mu.Lock()
	defer e.mu.Unlock()
	return viewLocked(e, cutoff), true
}

// SnapshotAll reports the health of every installed gateway, keyed by name.
func (r *Registry) SnapshotAll() map[string]HealthView {
	cutoff := r.cutoff(r.clock.Now())
	entries := r.entries()

	views := make(map[string]HealthView, len(entries))
	for _, e := range entries {
		e.mu.Lock()
		views[e.config.Name] = viewLocked(e, cutoff)
		e.mu.Unlock()
	}
	return views
}

// AllUnhealthy reports whether no installed gateway is currently healthy.
// An empty registry counts as all unhealthy.
func (r *Registry) AllUnhealthy() bool {
	for _, e := range r.entries() {
		e.mu.Lock()
		healthy := e.state.Healthy
		e.mu.Unlock()
		if healthy {
			return false
		}
	}
	return true
}

// viewLocked builds the report for e. e.mu must be held.
//
// The success rate is the configured default while the window holds fewer than
// MinRequests outcomes, so an under-sampled gateway never looks unhealthy.
func viewLocked(e *gatewayEntry, cutoff time.Time) HealthView {
	window := summarize(e.stats.History, cutoff)

	rate := config.DefaultSuccessRate
	if window.Count >= e.config.MinRequests {
		rate = window.SuccessRate()
	}

	var until *time.Time
	if e.state.DisabledUntil != nil {
		t := *e.state.DisabledUntil
		until = &t
	}

	return HealthView{
		Name:               e.config.Name,
		IsHealthy:          e.state.Healthy,
		DisabledUntil:      until,
		SuccessRate:        rate,
		WindowCount:        window.Count,
		Weight:             e.config.Weight,
		SuccessThreshold:   e.config.SuccessThreshold,
		MinRequests:        e.config.MinRequests,
		TotalRequests:      e.stats.TotalRequests,
		SuccessfulRequests: e.stats.SuccessfulRequests,
		FailedRequests:     e.stats.FailedRequests,
		RecentSuccesses:    window.Successes,
		RecentFailures:     window.Failures(),
		LastUpdated:        e.stats.LastUpdated,
	}
}
