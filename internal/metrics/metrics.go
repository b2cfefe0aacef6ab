// Package metrics exposes gateway routing and HTTP metrics to Prometheus.
package metrics

import (
	"net/http"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "nimbus"

// Metrics implements health.Observer on top of Prometheus collectors.
type Metrics struct {
	registry *prometheus.Registry

	selections        *prometheus.CounterVec
	selectionFailures prometheus.Counter
	outcomes          *prometheus.CounterVec
	transitions       *prometheus.CounterVec
	healthy           *prometheus.GaugeVec
	httpRequests      *prometheus.CounterVec
}

// New creates the collectors and registers them, with the Go and process
// collectors, on a dedicated registry.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		selections: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "gateway_selections_total",
			Help:      "Gateways returned by weighted selection.",
		}, []string{"gateway"}),
		selectionFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "gateway_selection_failures_total",
			Help:      "Selections that failed because every gateway was unhealthy.",
		}),
		outcomes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "gateway_outcomes_total",
			Help:      "Transaction outcomes recorded per gateway.",
		}, []string{"gateway", "result"}),
		transitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "gateway_state_changes_total",
			Help:      "Gateway health state changes.",
		}, []string{"gateway", "state"}),
		healthy: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "gateway_healthy",
			Help:      "1 if the gateway is eligible for selection, 0 if disabled.",
		}, []string{"gateway"}),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests served, by route pattern and status code.",
		}, []string{"route", "code"}),
	}

	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.selections,
		m.selectionFailures,
		m.outcomes,
		m.transitions,
		m.healthy,
		m.httpRequests,
	)
	return m
}

// Registry returns the Prometheus registry holding every collector.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// GatewaySelected counts a successful selection.
func (m *Metrics) GatewaySelected(name string) {
	m.selections.WithLabelValues(name).Inc()
}

// SelectionFailed counts a selection that found no eligible gateway.
func (m *Metrics) SelectionFailed() {
	m.selectionFailures.Inc()
}

// OutcomeRecorded counts a recorded transaction outcome.
func (m *Metrics) OutcomeRecorded(name string, success bool) {
	result := "failure"
	if success {
		result = "success"
	}
	m.outcomes.WithLabelValues(name, result).Inc()
}

// GatewayStateChanged counts the change and updates the healthy gauge.
func (m *Metrics) GatewayStateChanged(name string, healthy bool) {
	state := "disabled"
	value := 0.0
	if healthy {
		state = "healthy"
		value = 1
	}
	m.transitions.WithLabelValues(name, state).Inc()
	m.healthy.WithLabelValues(name).Set(value)
}

// ConfigInstalled resets the healthy gauge to the new gateway set, all healthy.
func (m *Metrics) ConfigInstalled(names []string) {
	m.healthy.Reset()
	for _, name := range names {
		m.healthy.WithLabelValues(name).Set(1)
	}
}

// HTTPRequest counts one served HTTP request.
func (m *Metrics) HTTPRequest(route string, code int) {
	m.httpRequests.WithLabelValues(route, strconv.Itoa(code)).Inc()
}
