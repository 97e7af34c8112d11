// Package metrics provides Prometheus metrics for the visit routing service.
package metrics

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Manager manages all Prometheus metrics for the service.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	enabled          bool
	registry         prometheus.Registerer

	// Provider metrics
	geocodeRequests *prometheus.CounterVec
	geocodeLatency  *prometheus.HistogramVec
	routeRequests   *prometheus.CounterVec
	routeLatency    *prometheus.HistogramVec

	// Cache metrics
	cacheOps *prometheus.CounterVec

	// Solver metrics
	solverPhaseDuration *prometheus.HistogramVec
	assignmentsTotal    *prometheus.CounterVec
	unassignedTotal     prometheus.Counter

	// HTTP metrics
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
}

// Global metrics manager instance.
var globalManager *Manager

// Custom registry to avoid default Go metrics.
var customRegistry = prometheus.NewRegistry()

func init() {
	globalManager = NewManager(WithPrometheusRegistry(customRegistry))
}

// NewManager creates a new metrics manager with default configuration.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "visitrouter",
		histogramBuckets: prometheus.DefBuckets,
		enabled:          true,
		registry:         prometheus.DefaultRegisterer,
	}

	for _, opt := range opts {
		opt(m)
	}

	m.initializeMetrics()

	return m
}

func (m *Manager) initializeMetrics() {
	auto := promauto.With(m.registry)

	m.geocodeRequests = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "geocode_requests_total",
		Help:      "Geocoding provider requests by provider and outcome",
	}, []string{"provider", "status"})

	m.geocodeLatency = auto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "geocode_request_duration_seconds",
		Help:      "Geocoding provider request latency in seconds",
		Buckets:   m.histogramBuckets,
	}, []string{"provider"})

	m.routeRequests = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "route_requests_total",
		Help:      "Routing provider requests by provider and outcome",
	}, []string{"provider", "status"})

	m.routeLatency = auto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "route_request_duration_seconds",
		Help:      "Routing provider request latency in seconds",
		Buckets:   m.histogramBuckets,
	}, []string{"provider"})

	m.cacheOps = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "cache_operations_total",
		Help:      "Cache lookups by cache name and result",
	}, []string{"cache", "result"})

	m.solverPhaseDuration = auto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "solver_phase_duration_seconds",
		Help:      "Time spent in each solver phase",
		Buckets:   m.histogramBuckets,
	}, []string{"phase"})

	m.assignmentsTotal = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "assignments_total",
		Help:      "Committed assignments by solver phase",
	}, []string{"phase"})

	m.unassignedTotal = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "unassigned_total",
		Help:      "Internships left unassigned after all solver phases",
	})

	m.httpRequests = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "http_requests_total",
		Help:      "HTTP requests by endpoint, method and status code",
	}, []string{"endpoint", "method", "status_code"})

	m.httpRequestDuration = auto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "http_request_duration_seconds",
		Help:      "HTTP request latency in seconds",
		Buckets:   m.histogramBuckets,
	}, []string{"endpoint", "method"})
}

// RecordGeocodeRequest counts one geocoding provider call.
func (m *Manager) RecordGeocodeRequest(provider, status string) {
	if !m.enabled {
		return
	}
	m.geocodeRequests.WithLabelValues(provider, status).Inc()
}

// RecordGeocodeLatency observes the duration of one geocoding provider call.
func (m *Manager) RecordGeocodeLatency(provider string, seconds float64) {
	if !m.enabled {
		return
	}
	m.geocodeLatency.WithLabelValues(provider).Observe(seconds)
}

// RecordRouteRequest counts one routing provider call.
func (m *Manager) RecordRouteRequest(provider, status string) {
	if !m.enabled {
		return
	}
	m.routeRequests.WithLabelValues(provider, status).Inc()
}

// RecordRouteLatency observes the duration of one routing provider call.
func (m *Manager) RecordRouteLatency(provider string, seconds float64) {
	if !m.enabled {
		return
	}
	m.routeLatency.WithLabelValues(provider).Observe(seconds)
}

// RecordCacheOp counts one cache lookup result (hit or miss).
func (m *Manager) RecordCacheOp(cache, result string) {
	if !m.enabled {
		return
	}
	m.cacheOps.WithLabelValues(cache, result).Inc()
}

// RecordSolverPhaseDuration observes the time spent in one solver phase.
func (m *Manager) RecordSolverPhaseDuration(phase string, seconds float64) {
	if !m.enabled {
		return
	}
	m.solverPhaseDuration.WithLabelValues(phase).Observe(seconds)
}

// RecordAssignment counts one committed assignment for the given phase.
func (m *Manager) RecordAssignment(phase int) {
	if !m.enabled {
		return
	}
	m.assignmentsTotal.WithLabelValues(strconv.Itoa(phase)).Inc()
}

// RecordUnassigned counts one internship left without a teacher.
func (m *Manager) RecordUnassigned() {
	if !m.enabled {
		return
	}
	m.unassignedTotal.Inc()
}

// RecordHTTPRequest counts one handled HTTP request.
func (m *Manager) RecordHTTPRequest(endpoint, method, statusCode string) {
	if !m.enabled {
		return
	}
	m.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
}

// RecordHTTPRequestDuration observes the latency of one handled HTTP request.
func (m *Manager) RecordHTTPRequestDuration(endpoint, method string, seconds float64) {
	if !m.enabled {
		return
	}
	m.httpRequestDuration.WithLabelValues(endpoint, method).Observe(seconds)
}

// GetRegistry returns the custom registry used by the global manager,
// for exposing via an HTTP handler.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}

// Package-level helpers that record on the global manager.

func RecordGeocodeRequest(provider, status string) {
	if globalManager != nil {
		globalManager.RecordGeocodeRequest(provider, status)
	}
}

func RecordGeocodeLatency(provider string, seconds float64) {
	if globalManager != nil {
		globalManager.RecordGeocodeLatency(provider, seconds)
	}
}

func RecordRouteRequest(provider, status string) {
	if globalManager != nil {
		globalManager.RecordRouteRequest(provider, status)
	}
}

func RecordRouteLatency(provider string, seconds float64) {
	if globalManager != nil {
		globalManager.RecordRouteLatency(provider, seconds)
	}
}

func RecordCacheOp(cache, result string) {
	if globalManager != nil {
		globalManager.RecordCacheOp(cache, result)
	}
}

func RecordSolverPhaseDuration(phase string, seconds float64) {
	if globalManager != nil {
		globalManager.RecordSolverPhaseDuration(phase, seconds)
	}
}

func RecordAssignment(phase int) {
	if globalManager != nil {
		globalManager.RecordAssignment(phase)
	}
}

func RecordUnassigned() {
	if globalManager != nil {
		globalManager.RecordUnassigned()
	}
}

func RecordHTTPRequest(endpoint, method, statusCode string) {
	if globalManager != nil {
		globalManager.RecordHTTPRequest(endpoint, method, statusCode)
	}
}

func RecordHTTPRequestDuration(endpoint, method string, seconds float64) {
	if globalManager != nil {
		globalManager.RecordHTTPRequestDuration(endpoint, method, seconds)
	}
}
