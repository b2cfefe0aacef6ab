package health

import (
	"log/slog"
)

// SelectGateway draws one eligible gateway with probability proportional to its weight.
//
// Every disabled gateway whose cooldown has expired is re-enabled first. All
// gateway locks are held, in install order, for the whole re-enable, filter and
// draw sequence, so a concurrently expiring disable is never observed half-applied.
// The selected gateway's TotalRequests is incremented whether or not an outcome
// is ever recorded for it.
func (r *Registry) SelectGateway() (string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	entries := make([]*gatewayEntry, 0, len(r.order))
	for _, name := range r.order {
		e := r.gateways[name]
		e.mu.Lock()
		defer e.mu.Unlock()
		entries = append(entries, e)
	}

	now := r.clock.Now()
	eligible := make([]*gatewayEntry, 0, len(entries))
	totalWeight := 0
	for _, e := range entries {
		if !e.state.Healthy {
			r.evaluateLocked(e, now)
		}
		if e.state.Healthy {
			eligible = append(eligible, e)
			totalWeight += e.config.Weight
		}
	}

	if len(eligible) == 0 {
		r.observer.SelectionFailed()
		return "", ErrAllGatewaysUnhealthy
	}

	selected := pickWeighted(eligible, r.randFloat()*float64(totalWeight))
	selected.stats.TotalRequests++
	selected.stats.LastUpdated = now

	slog.Info("gateway_selected",
		"gateway", selected.config.Name,
		"weight", selected.config.Weight,
		"eligible", len(eligible),
		"total_requests", selected.stats.TotalRequests,
	)
	r.observer.GatewaySelected(selected.config.Name)
	return selected.config.Name, nil
}

// pickWeighted walks eligible in order, subtracting each weight from roll, and
// returns the first gateway where the remainder drops to zero or below. It
// falls back to the first gateway if rounding leaves roll positive.
func pickWeighted(eligible []*gatewayEntry, roll float64) *gatewayEntry {
	for _, e := range eligible {
		roll -= float64(e.config.Weight)
		if roll <= 0 {
			return e
		}
	}
	return eligible[0]
}

func (r *Registry) randFloat() float64 {
	r.rngMu.Lock()
	defer r.rngMu.Unlock()
	return r.rng.Float64()
}
