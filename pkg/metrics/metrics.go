// Package metrics exposes the service's Prometheus collectors.
// All recording methods are safe on a nil *Metrics so components can run without instrumentation.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/lumigente/lumigente-backend/pkg/httputil"
)

// Scope resolution outcomes
const (
	ScopePrivileged = "privileged"
	ScopeTeam       = "team"
	ScopeSelfOnly   = "self_only"
	ScopeFailClosed = "fail_closed"
)

// Metrics groups the collectors registered for one process
type Metrics struct {
	registry *prometheus.Registry

	httpInFlight        prometheus.Gauge
	httpRequestsTotal   *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	cacheLookups     *prometheus.CounterVec
	cacheEvictions   prometheus.Counter
	sectionFailures  *prometheus.CounterVec
	sectionDuration  *prometheus.HistogramVec
	scopeResolutions *prometheus.CounterVec
	pathSyncs        *prometheus.CounterVec
}

// New creates the collectors and registers them on a private registry
func New(namespace string) *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		httpInFlight: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "http_in_flight_requests",
			Help:      "In-flight HTTP requests.",
		}),
		httpRequestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests.",
		}, []string{"method", "route", "status"}),
		httpRequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latencies in seconds.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route", "status"}),
		cacheLookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "analytics_cache",
			Name:      "lookups_total",
			Help:      "Analytics cache lookups by result (hit, miss, shared).",
		}, []string{"result"}),
		cacheEvictions: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "analytics_cache",
			Name:      "evictions_total",
			Help:      "Entries evicted because the cache was full.",
		}),
		sectionFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "analytics",
			Name:      "section_failures_total",
			Help:      "Dashboard sections replaced by their fallback.",
		}, []string{"section"}),
		sectionDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "analytics",
			Name:      "section_duration_seconds",
			Help:      "Time spent computing one dashboard section.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"section"}),
		scopeResolutions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "scope",
			Name:      "resolutions_total",
			Help:      "Access scope resolutions by outcome.",
		}, []string{"outcome"}),
		pathSyncs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "hierarchy",
			Name:      "path_syncs_total",
			Help:      "Cached hierarchy path rewrites by result.",
		}, []string{"result"}),
	}

	m.registry.MustRegister(
		m.httpInFlight, m.httpRequestsTotal, m.httpRequestDuration,
		m.cacheLookups, m.cacheEvictions,
		m.sectionFailures, m.sectionDuration,
		m.scopeResolutions, m.pathSyncs,
		prometheus.NewGoCollector(),
		prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}),
	)

	return m
}

// Registry exposes the underlying registry, mainly for tests
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Instrument records request count, latency and in-flight requests.
// The route label uses the chi pattern so path parameters do not explode cardinality.
func (m *Metrics) Instrument(next http.Handler) http.Handler {
	if m == nil {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		m.httpInFlight.Inc()
		defer m.httpInFlight.Dec()

		start := time.Now()
		sw := &httputil.ResponseWriter{ResponseWriter: w, Status: http.StatusOK}
		next.ServeHTTP(sw, r)

		route := r.URL.Path
		if rctx := chi.RouteContext(r.Context()); rctx != nil {
			if pattern := rctx.RoutePattern(); pattern != "" {
				route = pattern
			}
		}
		status := strconv.Itoa(sw.Status)

		m.httpRequestDuration.WithLabelValues(r.Method, route, status).Observe(time.Since(start).Seconds())
		m.httpRequestsTotal.WithLabelValues(r.Method, route, status).Inc()
	})
}

// CacheLookup counts one cache lookup with result hit, miss or shared
func (m *Metrics) CacheLookup(result string) {
	if m == nil {
		return
	}
	m.cacheLookups.WithLabelValues(result).Inc()
}

// CacheEviction counts one capacity eviction
func (m *Metrics) CacheEviction() {
	if m == nil {
		return
	}
	m.cacheEvictions.Inc()
}

// SectionFailed counts a dashboard section that fell back
func (m *Metrics) SectionFailed(section string) {
	if m == nil {
		return
	}
	m.sectionFailures.WithLabelValues(section).Inc()
}

// ObserveSection records how long a dashboard section took
func (m *Metrics) ObserveSection(section string, d time.Duration) {
	if m == nil {
		return
	}
	m.sectionDuration.WithLabelValues(section).Observe(d.Seconds())
}

// ScopeResolved counts one access scope resolution
func (m *Metrics) ScopeResolved(outcome string) {
	if m == nil {
		return
	}
	m.scopeResolutions.WithLabelValues(outcome).Inc()
}

// PathSynced counts one hierarchy path sync attempt
func (m *Metrics) PathSynced(changed bool, err error) {
	if m == nil {
		return
	}
	result := "unchanged"
	switch {
	case err != nil:
		result = "error"
	case changed:
		result = "changed"
	}
	m.pathSyncs.WithLabelValues(result).Inc()
}
