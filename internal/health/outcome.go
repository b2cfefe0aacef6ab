package health

// RecordOutcome appends an outcome to the gateway's history, updates its
// lifetime counters and re-evaluates its health immediately, so a disable takes
// effect without waiting for the next sweep.
// It reports false, and does nothing, if the gateway is not installed.
func (r *Registry) RecordOutcome(name string, success bool) bool {
	e := r.lookup(name)
	if e == nil {
		return false
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	now := r.clock.Now()
	e.stats.History = append(e.stats.History, Outcome{Timestamp: now, Success: success})
	if success {
		e.stats.SuccessfulRequests++
	} else {
		e.stats.FailedRequests++
	}
	e.stats.LastUpdated = now

	r.observer.OutcomeRecorded(name, success)
	r.evaluateLocked(e, now)
	return true
}
