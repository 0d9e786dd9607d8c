package monitoring

import (
	"net/http"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds application metrics.
//
// Collectors are registered on a private registry so several instances can
// coexist (tests, CLI commands). A nil *Metrics is valid and records nothing.
type Metrics struct {
	RequestCount int64
	ErrorCount   int64
	StartTime    time.Time

	registry *prometheus.Registry

	httpRequests *prometheus.CounterVec
	httpDuration *prometheus.HistogramVec

	aggregationRuns     *prometheus.CounterVec
	aggregationDuration *prometheus.HistogramVec
	aggregationPoints   prometheus.Gauge

	geocodeRequests *prometheus.CounterVec
	breakerState    *prometheus.GaugeVec
	jobRuns         *prometheus.CounterVec

	rateLimitBlocks      *prometheus.CounterVec
	rateLimitRedisErrors prometheus.Counter
	rateLimitFallback    prometheus.Counter
}

// NewMetrics creates a new metrics instance
func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(registry)

	return &Metrics{
		StartTime: time.Now(),
		registry:  registry,

		httpRequests: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "pontos_http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "route", "status"},
		),
		httpDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "pontos_http_request_duration_seconds",
				Help:    "HTTP request latency in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "route"},
		),

		aggregationRuns: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "pontos_aggregation_runs_total",
				Help: "Aggregation runs by view and outcome",
			},
			[]string{"view", "outcome"},
		),
		aggregationDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "pontos_aggregation_duration_seconds",
				Help:    "Time spent fetching and aggregating donation points",
				Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
			},
			[]string{"view"},
		),
		aggregationPoints: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "pontos_aggregation_input_points",
				Help: "Number of donation points in the last aggregated snapshot",
			},
		),

		geocodeRequests: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "pontos_geocode_requests_total",
				Help: "Geocoding lookups by outcome",
			},
			[]string{"outcome"},
		),
		breakerState: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "pontos_circuit_breaker_state",
				Help: "Circuit breaker state (0=closed, 1=half-open, 2=open)",
			},
			[]string{"name"},
		),
		jobRuns: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "pontos_job_runs_total",
				Help: "Scheduled job runs by job and outcome",
			},
			[]string{"job", "outcome"},
		),

		rateLimitBlocks: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "pontos_rate_limit_blocks_total",
				Help: "Requests rejected by the rate limiter",
			},
			[]string{"scope"},
		),
		rateLimitRedisErrors: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "pontos_rate_limit_redis_errors_total",
				Help: "Redis errors seen by the rate limiter",
			},
		),
		rateLimitFallback: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "pontos_rate_limit_fallback_total",
				Help: "Decisions served by the in-memory fallback limiter",
			},
		),
	}
}

// Handler serves the Prometheus exposition format
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// RecordHTTPRequest records a finished HTTP request
func (m *Metrics) RecordHTTPRequest(method, route string, statusCode int, duration time.Duration) {
	if m == nil {
		return
	}
	atomic.AddInt64(&m.RequestCount, 1)
	if statusCode >= 400 {
		atomic.AddInt64(&m.ErrorCount, 1)
	}

	m.httpRequests.WithLabelValues(method, route, strconv.Itoa(statusCode)).Inc()
	m.httpDuration.WithLabelValues(method, route).Observe(duration.Seconds())
}

// RecordAggregation records one aggregation run over a snapshot of points
func (m *Metrics) RecordAggregation(view string, points int, duration time.Duration, err error) {
	if m == nil {
		return
	}
	outcome := "success"
	if err != nil {
		outcome = "error"
	} else {
		m.aggregationPoints.Set(float64(points))
	}

	m.aggregationRuns.WithLabelValues(view, outcome).Inc()
	m.aggregationDuration.WithLabelValues(view).Observe(duration.Seconds())
}

// RecordGeocode records a geocoding lookup outcome (success, cache_hit, no_results, error)
func (m *Metrics) RecordGeocode(outcome string) {
	if m == nil {
		return
	}
	m.geocodeRequests.WithLabelValues(outcome).Inc()
}

// SetCircuitBreakerState publishes the current state of a named breaker
func (m *Metrics) SetCircuitBreakerState(name, state string) {
	if m == nil {
		return
	}
	var value float64
	switch state {
	case "half-open":
		value = 1
	case "open":
		value = 2
	}
	m.breakerState.WithLabelValues(name).Set(value)
}

// RecordJobRun records a scheduled job execution
func (m *Metrics) RecordJobRun(job string, err error) {
	if m == nil {
		return
	}
	outcome := "success"
	if err != nil {
		outcome = "error"
	}
	m.jobRuns.WithLabelValues(job, outcome).Inc()
}

// IncrementRateLimitIPBlock increments IP-based rate limit blocks
func (m *Metrics) IncrementRateLimitIPBlock() {
	if m == nil {
		return
	}
	m.rateLimitBlocks.WithLabelValues("ip").Inc()
}

// IncrementRateLimitRedisError increments Redis error count for rate limiting
func (m *Metrics) IncrementRateLimitRedisError() {
	if m == nil {
		return
	}
	m.rateLimitRedisErrors.Inc()
}

// IncrementRateLimitFallback increments fallback rate limiter usage count
func (m *Metrics) IncrementRateLimitFallback() {
	if m == nil {
		return
	}
	m.rateLimitFallback.Inc()
}

// GetStats returns a small summary for the health endpoint
func (m *Metrics) GetStats() map[string]interface{} {
	requests := atomic.LoadInt64(&m.RequestCount)
	errors := atomic.LoadInt64(&m.ErrorCount)

	errorRate := float64(0)
	if requests > 0 {
		errorRate = float64(errors) / float64(requests) * 100
	}

	return map[string]interface{}{
		"uptime_seconds":     time.Since(m.StartTime).Seconds(),
		"total_requests":     requests,
		"error_count":        errors,
		"error_rate_percent": errorRate,
		"start_time":         m.StartTime.Format(time.RFC3339),
	}
}
