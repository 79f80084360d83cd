// Package telemetry exposes Prometheus metrics for valuations, engines,
// the snapshot cache and the HTTP API.
package telemetry

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the service collectors on a private registry. It satisfies
// valuation.Observer and marketdata.CacheObserver.
type Metrics struct {
	registry *prometheus.Registry

	AnalysisDuration *prometheus.HistogramVec
	EngineDuration   *prometheus.HistogramVec
	EngineFailures   *prometheus.CounterVec
	CacheLookups     *prometheus.CounterVec
	HTTPRequests     *prometheus.CounterVec
	HTTPDuration     *prometheus.HistogramVec
}

// NewMetrics creates and registers all collectors.
func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),

		AnalysisDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "valuator_analysis_duration_seconds",
				Help:    "End-to-end valuation duration by rating",
				Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
			},
			[]string{"rating"},
		),

		EngineDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "valuator_engine_duration_seconds",
				Help:    "Duration of each valuation engine run",
				Buckets: []float64{0.0001, 0.001, 0.01, 0.05, 0.1, 0.5, 1, 5},
			},
			[]string{"engine", "result"},
		),

		EngineFailures: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "valuator_engine_failures_total",
				Help: "Engine runs that produced an error result",
			},
			[]string{"engine"},
		),

		CacheLookups: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "valuator_cache_lookups_total",
				Help: "Snapshot cache lookups by backend and outcome",
			},
			[]string{"backend", "outcome"},
		),

		HTTPRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "valuator_http_requests_total",
				Help: "HTTP requests by route and status code",
			},
			[]string{"route", "status"},
		),

		HTTPDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "valuator_http_request_duration_seconds",
				Help:    "HTTP request latency by route",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"route"},
		),
	}

	m.registry.MustRegister(
		m.AnalysisDuration,
		m.EngineDuration,
		m.EngineFailures,
		m.CacheLookups,
		m.HTTPRequests,
		m.HTTPDuration,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	return m
}

// Registry returns the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// ObserveEngine records one engine run.
func (m *Metrics) ObserveEngine(engine string, ok bool, d time.Duration) {
	result := "ok"
	if !ok {
		result = "error"
		m.EngineFailures.WithLabelValues(engine).Inc()
	}
	m.EngineDuration.WithLabelValues(engine, result).Observe(d.Seconds())
}

// ObserveCache records one cache lookup.
func (m *Metrics) ObserveCache(backend, outcome string) {
	m.CacheLookups.WithLabelValues(backend, outcome).Inc()
}

// ObserveAnalysis records a completed valuation.
func (m *Metrics) ObserveAnalysis(rating string, d time.Duration) {
	m.AnalysisDuration.WithLabelValues(rating).Observe(d.Seconds())
}

// ObserveHTTP records a served request.
func (m *Metrics) ObserveHTTP(route string, status int, d time.Duration) {
	m.HTTPRequests.WithLabelValues(route, strconv.Itoa(status)).Inc()
	m.HTTPDuration.WithLabelValues(route).Observe(d.Seconds())
}
