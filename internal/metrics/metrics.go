// Package metrics holds the prometheus collectors exposed at /metrics.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics contains the arena collectors and the registry they live in.
// All Record methods are safe on a nil receiver so callers may omit metrics.
type Metrics struct {
	registry *prometheus.Registry

	HTTPRequests       *prometheus.CounterVec
	HTTPDuration       *prometheus.HistogramVec
	GenerationRequests *prometheus.CounterVec
	LinkRepairs        prometheus.Counter
	LoginFailures      prometheus.Counter
}

// New creates a registry with the Go and process collectors plus the arena metrics
func New() *Metrics {
	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector())
	registry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	m := &Metrics{
		registry: registry,
		HTTPRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "arena_http_requests_total",
				Help: "Total number of HTTP requests by method, route and status",
			},
			[]string{"method", "route", "status"},
		),
		HTTPDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "arena_http_request_duration_seconds",
				Help:    "HTTP request latency by method and route",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "route"},
		),
		GenerationRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "arena_generation_requests_total",
				Help: "Total number of generative API calls by kind and outcome",
			},
			[]string{"kind", "status"},
		),
		LinkRepairs: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "arena_link_repairs_total",
			Help: "Total number of character image links regenerated after a failed probe",
		}),
		LoginFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "arena_login_failures_total",
			Help: "Total number of rejected token requests",
		}),
	}

	registry.MustRegister(
		m.HTTPRequests,
		m.HTTPDuration,
		m.GenerationRequests,
		m.LinkRepairs,
		m.LoginFailures,
	)
	return m
}

// Registry returns the underlying registry
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the prometheus exposition format
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// RecordRequest records one served HTTP request
func (m *Metrics) RecordRequest(method, route, status string, seconds float64) {
	if m == nil {
		return
	}
	m.HTTPRequests.WithLabelValues(method, route, status).Inc()
	m.HTTPDuration.WithLabelValues(method, route).Observe(seconds)
}

// RecordGeneration records one generative API call; kind is image or text
func (m *Metrics) RecordGeneration(kind, status string) {
	if m == nil {
		return
	}
	m.GenerationRequests.WithLabelValues(kind, status).Inc()
}

// RecordLinkRepair records a regenerated image link
func (m *Metrics) RecordLinkRepair() {
	if m == nil {
		return
	}
	m.LinkRepairs.Inc()
}

// RecordLoginFailure records a rejected credential check
func (m *Metrics) RecordLoginFailure() {
	if m == nil {
		return
	}
	m.LoginFailures.Inc()
}
