// Package telemetry holds process metrics and helpers for best-effort side effects.
package telemetry

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics owns the service's Prometheus collectors on a dedicated registry.
type Metrics struct {
	registry          *prometheus.Registry
	authAttempts      *prometheus.CounterVec
	isolationUnits    *prometheus.CounterVec
	isolationFailures *prometheus.CounterVec
	httpDuration      *prometheus.HistogramVec
}

// NewMetrics registers all collectors plus Go and process collectors.
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	f := promauto.With(reg)
	return &Metrics{
		registry: reg,
		authAttempts: f.NewCounterVec(prometheus.CounterOpts{
			Name: "shield_auth_attempts_total",
			Help: "Authentication attempts by principal kind and outcome.",
		}, []string{"principal", "outcome"}),
		isolationUnits: f.NewCounterVec(prometheus.CounterOpts{
			Name: "shield_isolation_units_total",
			Help: "Units of work started by scope (tenant or platform).",
		}, []string{"scope"}),
		isolationFailures: f.NewCounterVec(prometheus.CounterOpts{
			Name: "shield_isolation_failures_total",
			Help: "Isolation enforcer failures by stage.",
		}, []string{"stage"}),
		httpDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "shield_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds.",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route", "status"}),
	}
}

// RecordAuth counts one authentication attempt. m may be nil.
func (m *Metrics) RecordAuth(principalKind, outcome string) {
	if m == nil {
		return
	}
	m.authAttempts.WithLabelValues(principalKind, outcome).Inc()
}

// RecordUnit implements db.Recorder.
func (m *Metrics) RecordUnit(scope string) {
	if m == nil {
		return
	}
	m.isolationUnits.WithLabelValues(scope).Inc()
}

// RecordIsolationFailure implements db.Recorder.
func (m *Metrics) RecordIsolationFailure(stage string) {
	if m == nil {
		return
	}
	m.isolationFailures.WithLabelValues(stage).Inc()
}

// ObserveHTTP records one request. route should be the matched pattern, not the raw path.
func (m *Metrics) ObserveHTTP(method, route string, status int, d time.Duration) {
	if m == nil {
		return
	}
	if route == "" {
		route = "unmatched"
	}
	m.httpDuration.WithLabelValues(method, route, strconv.Itoa(status)).Observe(d.Seconds())
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// Registry exposes the underlying registry for tests.
func (m *Metrics) Registry() *prometheus.Registry { return m.registry }
