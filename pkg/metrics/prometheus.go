package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics is the global metrics container.
type Metrics struct {
	// HTTP front door
	HTTPRequestsTotal    *prometheus.CounterVec
	HTTPRequestDuration  *prometheus.HistogramVec
	HTTPRequestsInFlight prometheus.Gauge

	// Place resolution
	ResolveOperationsTotal *prometheus.CounterVec
	ResolveDuration        *prometheus.HistogramVec
	ResolveTierUsed        *prometheus.CounterVec

	// Routing / provider adapters
	RoutingSegmentsTotal  *prometheus.CounterVec
	ProviderCacheTotal    *prometheus.CounterVec
	ProviderRequestsTotal *prometheus.CounterVec

	// Optimizer / scheduler
	OptimizeDuration    *prometheus.HistogramVec
	OptimizeStopsTotal  *prometheus.HistogramVec
	ScheduleSuggestions *prometheus.CounterVec

	// Process metrics
	Goroutines  prometheus.Gauge
	ServiceInfo *prometheus.GaugeVec
}

var defaultMetrics *Metrics

// InitMetrics initializes the metrics container under the given namespace.
func InitMetrics(namespace, subsystem string) *Metrics {
	m := &Metrics{
		HTTPRequestsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "http_requests_total",
				Help:      "Total number of HTTP requests handled by the front door",
			},
			[]string{"route", "status"},
		),

		HTTPRequestDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "http_request_duration_seconds",
				Help:      "Duration of HTTP requests",
				Buckets:   []float64{.01, .05, .1, .25, .5, 1, 2.5, 5, 10, 30},
			},
			[]string{"route"},
		),

		HTTPRequestsInFlight: promauto.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "http_requests_in_flight",
				Help:      "Current number of HTTP requests being processed",
			},
		),

		ResolveOperationsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "resolve_operations_total",
				Help:      "Total number of place resolution operations",
			},
			[]string{"status"},
		),

		ResolveDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "resolve_duration_seconds",
				Help:      "Duration of a single place resolution",
				Buckets:   []float64{.05, .1, .25, .5, 1, 2.5, 5, 10, 20},
			},
			[]string{"tier"},
		),

		ResolveTierUsed: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "resolve_tier_used_total",
				Help:      "Count of resolutions settled at each cascade tier",
			},
			[]string{"tier"},
		),

		RoutingSegmentsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "routing_segments_total",
				Help:      "Total number of routing segment lookups",
			},
			[]string{"source"}, // google, haversine_fallback
		),

		ProviderCacheTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "provider_cache_total",
				Help:      "Provider adapter cache hits and misses",
			},
			[]string{"adapter", "result"}, // result: hit, miss
		),

		ProviderRequestsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "provider_requests_total",
				Help:      "Total number of outbound provider adapter requests",
			},
			[]string{"adapter", "status"},
		),

		OptimizeDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "optimize_duration_seconds",
				Help:      "Duration of route optimization",
				Buckets:   []float64{.001, .005, .01, .05, .1, .5, 1, 5},
			},
			[]string{"method"}, // brute_force, nearest_neighbor_2opt
		),

		OptimizeStopsTotal: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "optimize_stops_total",
				Help:      "Number of stops in an optimized route",
				Buckets:   []float64{1, 2, 3, 4, 5, 6, 8, 10, 15, 20},
			},
			[]string{"method"},
		),

		ScheduleSuggestions: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "schedule_suggestions_total",
				Help:      "Number of scheduling suggestions emitted",
			},
			[]string{"reason"}, // overflow, window_overrun
		),

		Goroutines: promauto.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "goroutines",
				Help:      "Current number of goroutines",
			},
		),

		ServiceInfo: promauto.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "service_info",
				Help:      "Service information",
			},
			[]string{"version", "environment"},
		),
	}

	defaultMetrics = m
	return m
}

// Get returns the global metrics container, lazily initializing it.
func Get() *Metrics {
	if defaultMetrics == nil {
		return InitMetrics("dayplanner", "")
	}
	return defaultMetrics
}

// RecordHTTPRequest records an HTTP front-door request.
func (m *Metrics) RecordHTTPRequest(route, status string, duration time.Duration) {
	m.HTTPRequestsTotal.WithLabelValues(route, status).Inc()
	m.HTTPRequestDuration.WithLabelValues(route).Observe(duration.Seconds())
}

// RecordResolve records a completed place resolution.
func (m *Metrics) RecordResolve(tier string, success bool, duration time.Duration) {
	status := "resolved"
	if !success {
		status = "no_match"
	}
	m.ResolveOperationsTotal.WithLabelValues(status).Inc()
	m.ResolveDuration.WithLabelValues(tier).Observe(duration.Seconds())
	if success {
		m.ResolveTierUsed.WithLabelValues(tier).Inc()
	}
}

// RecordRoutingSegment records which source served a routing segment.
func (m *Metrics) RecordRoutingSegment(source string) {
	m.RoutingSegmentsTotal.WithLabelValues(source).Inc()
}

// RecordProviderCache records a provider adapter cache hit or miss.
func (m *Metrics) RecordProviderCache(adapter string, hit bool) {
	result := "miss"
	if hit {
		result = "hit"
	}
	m.ProviderCacheTotal.WithLabelValues(adapter, result).Inc()
}

// RecordProviderRequest records an outbound provider adapter request.
func (m *Metrics) RecordProviderRequest(adapter string, success bool) {
	status := "success"
	if !success {
		status = "error"
	}
	m.ProviderRequestsTotal.WithLabelValues(adapter, status).Inc()
}

// RecordOptimize records a completed route optimization.
func (m *Metrics) RecordOptimize(method string, stops int, duration time.Duration) {
	m.OptimizeDuration.WithLabelValues(method).Observe(duration.Seconds())
	m.OptimizeStopsTotal.WithLabelValues(method).Observe(float64(stops))
}

// RecordScheduleSuggestion records a suggestion emitted by the scheduler.
func (m *Metrics) RecordScheduleSuggestion(reason string) {
	m.ScheduleSuggestions.WithLabelValues(reason).Inc()
}

// SetServiceInfo sets the service_info gauge.
func (m *Metrics) SetServiceInfo(version, environment string) {
	m.ServiceInfo.WithLabelValues(version, environment).Set(1)
}

// Handler returns the HTTP handler that serves /metrics.
func Handler() http.Handler {
	return promhttp.Handler()
}

// StartMetricsServer starts a standalone HTTP server for /metrics and /health.
func StartMetricsServer(port int) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", Handler())
	mux.HandleFunc("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK")) //nolint:errcheck // health endpoint, write error is not actionable
	})

	server := &http.Server{
		Addr:         ":" + strconv.Itoa(port),
		Handler:      mux,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	return server.ListenAndServe()
}
