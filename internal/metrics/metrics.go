// Package metrics exposes Prometheus collectors for authorization decisions,
// signing key set fetches and HTTP traffic.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/Flarenzy/drinks-api/internal/auth"
)

const namespace = "drinks"

type Metrics struct {
	registry *prometheus.Registry

	decisions *prometheus.CounterVec
	fetches   *prometheus.CounterVec
	requests  *prometheus.CounterVec
	durations *prometheus.HistogramVec
}

// New registers all collectors, plus the Go and process collectors, on a
// dedicated registry.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		decisions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "authorization_decisions_total",
			Help:      "Authorization decisions by required permission and outcome.",
		}, []string{"permission", "outcome"}),
		fetches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "jwks_fetches_total",
			Help:      "Signing key set fetches by result.",
		}, []string{"result"}),
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by method, route and status.",
		}, []string{"method", "route", "status"}),
		durations: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by method and route.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
	}

	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.decisions,
		m.fetches,
		m.requests,
		m.durations,
	)

	return m
}

// ObserveDecision implements auth.Observer.
func (m *Metrics) ObserveDecision(permission string, kind auth.Kind) {
	outcome := "allow"
	if kind != "" {
		outcome = string(kind)
	}
	m.decisions.WithLabelValues(permission, outcome).Inc()
}

// ObserveKeySetFetch implements auth.Observer.
func (m *Metrics) ObserveKeySetFetch(ok bool) {
	result := "success"
	if !ok {
		result = "failure"
	}
	m.fetches.WithLabelValues(result).Inc()
}

func (m *Metrics) ObserveRequest(method, route string, status int, elapsed time.Duration) {
	m.requests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.durations.WithLabelValues(method, route).Observe(elapsed.Seconds())
}

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Registry is the gatherer behind Handler.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}
