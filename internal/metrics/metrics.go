// Package metrics provides Prometheus instrumentation for the gateway and the
// Supabase client.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the service's Prometheus collectors.
type Metrics struct {
	registry *prometheus.Registry

	httpRequestsTotal   *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
	httpInFlight        prometheus.Gauge

	supabaseRequestsTotal   *prometheus.CounterVec
	supabaseRequestDuration *prometheus.HistogramVec
}

// New creates and registers the service metrics.
func New() *Metrics {
	registry := prometheus.NewRegistry()

	m := &Metrics{
		registry: registry,
		httpRequestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total HTTP requests by service, method, path and status.",
		}, []string{"service", "method", "path", "status"}),
		httpRequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request latency.",
			Buckets: prometheus.DefBuckets,
		}, []string{"service", "method", "path"}),
		httpInFlight: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "http_requests_in_flight",
			Help: "In-flight HTTP requests.",
		}),
		supabaseRequestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "supabase_requests_total",
			Help: "Total Supabase REST requests by table, method and outcome.",
		}, []string{"table", "method", "outcome"}),
		supabaseRequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "supabase_request_duration_seconds",
			Help:    "Supabase REST request latency.",
			Buckets: prometheus.DefBuckets,
		}, []string{"table", "method"}),
	}

	registry.MustRegister(
		m.httpRequestsTotal,
		m.httpRequestDuration,
		m.httpInFlight,
		m.supabaseRequestsTotal,
		m.supabaseRequestDuration,
	)

	return m
}

// IncrementInFlight increments the in-flight request gauge.
func (m *Metrics) IncrementInFlight() { m.httpInFlight.Inc() }

// DecrementInFlight decrements the in-flight request gauge.
func (m *Metrics) DecrementInFlight() { m.httpInFlight.Dec() }

// RecordHTTPRequest records a completed HTTP request.
func (m *Metrics) RecordHTTPRequest(service, method, path, status string, duration time.Duration) {
	m.httpRequestsTotal.WithLabelValues(service, method, path, status).Inc()
	m.httpRequestDuration.WithLabelValues(service, method, path).Observe(duration.Seconds())
}

// RecordSupabaseRequest records a completed Supabase REST request.
func (m *Metrics) RecordSupabaseRequest(table, method, outcome string, duration time.Duration) {
	m.supabaseRequestsTotal.WithLabelValues(table, method, outcome).Inc()
	m.supabaseRequestDuration.WithLabelValues(table, method).Observe(duration.Seconds())
}

// Handler returns an HTTP handler exposing the registry.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
