// Package metrics provides Prometheus metrics for the seasonmatch service.
package metrics

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Default metrics configuration constants.
const (
	defaultRefreshInterval = 10 * time.Second
)

// Manager manages all Prometheus metrics for the service.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	enabled          bool
	refreshInterval  time.Duration
	customLabels     map[string]string
	registry         prometheus.Registerer

	// Search metrics
	searches            *prometheus.CounterVec
	searchDuration      prometheus.Histogram
	candidatesScanned   prometheus.Counter
	candidatesRejected  *prometheus.CounterVec
	seasonsSkipped      prometheus.Counter
	seasonFetchDuration prometheus.Histogram
	fetchWorkers        prometheus.Gauge

	// Supplemental value metrics
	supplementalLookups *prometheus.CounterVec
	supplementalTables  *prometheus.CounterVec

	// Upstream metrics
	upstreamRequests *prometheus.CounterVec
	upstreamDuration *prometheus.HistogramVec
	upstreamRetries  *prometheus.CounterVec

	// Cache metrics
	cacheLookups *prometheus.CounterVec
	cacheErrors  *prometheus.CounterVec

	// HTTP metrics
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	// Error metrics
	errorsByComponent *prometheus.CounterVec

	// System metrics
	systemMemoryUsage    prometheus.Gauge
	systemGoroutineCount prometheus.Gauge
	systemGCPauseTime    prometheus.Histogram
}

// Global metrics manager instance.
var globalManager *Manager //nolint:gochecknoglobals // singleton metrics manager

// Custom registry to avoid default Go metrics.
var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // metrics registry

func init() { //nolint:gochecknoinits // global metrics setup
	globalManager = NewManager(WithPrometheusRegistry(customRegistry))
}

// NewManager creates a new metrics manager with default configuration.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "seasonmatch",
		subsystem:        "similarity",
		histogramBuckets: []float64{1, 5, 10, 25, 50, 100, 250, 500, 1000, 2500, 5000, 10000, 30000, 60000},
		enabled:          true,
		refreshInterval:  defaultRefreshInterval,
		customLabels:     make(map[string]string),
		registry:         prometheus.DefaultRegisterer,
	}

	for _, opt := range opts {
		opt(m)
	}

	m.initializeMetrics()

	return m
}

func (m *Manager) counterVec(name, help string, labels ...string) *prometheus.CounterVec {
	return promauto.With(m.registry).NewCounterVec(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        name,
		Help:        help,
		ConstLabels: m.customLabels,
	}, labels)
}

func (m *Manager) histogramVec(name, help string, labels ...string) *prometheus.HistogramVec {
	return promauto.With(m.registry).NewHistogramVec(prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        name,
		Help:        help,
		Buckets:     m.histogramBuckets,
		ConstLabels: m.customLabels,
	}, labels)
}

// initializeMetrics creates all the Prometheus metrics.
func (m *Manager) initializeMetrics() { //nolint:funlen // one place for every metric
	auto := promauto.With(m.registry)

	m.searches = m.counterVec("searches_total", "Similarity searches by outcome", "outcome")

	m.searchDuration = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "search_duration_milliseconds",
		Help:        "End-to-end similarity search duration in milliseconds",
		Buckets:     m.histogramBuckets,
		ConstLabels: m.customLabels,
	})

	m.candidatesScanned = auto.NewCounter(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "candidates_scanned_total",
		Help:        "Candidate seasons scored against a query",
		ConstLabels: m.customLabels,
	})

	m.candidatesRejected = m.counterVec("candidates_rejected_total",
		"Candidate seasons that could not take part in the running minimum", "reason")

	m.seasonsSkipped = auto.NewCounter(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "seasons_skipped_total",
		Help:        "Corpus seasons skipped because their fetch failed",
		ConstLabels: m.customLabels,
	})

	m.seasonFetchDuration = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "season_fetch_duration_milliseconds",
		Help:        "Duration of one corpus season fetch in milliseconds",
		Buckets:     m.histogramBuckets,
		ConstLabels: m.customLabels,
	})

	m.fetchWorkers = auto.NewGauge(prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "fetch_workers",
		Help:        "Configured number of concurrent corpus season fetchers",
		ConstLabels: m.customLabels,
	})

	m.supplementalLookups = m.counterVec("supplemental_lookups_total",
		"Supplemental aggregate value lookups by result", "role", "result")
	m.supplementalTables = m.counterVec("supplemental_table_loads_total",
		"Supplemental bulk table loads by result", "role", "result")

	m.upstreamRequests = m.counterVec("upstream_requests_total",
		"Requests to remote data sources by endpoint and status", "endpoint", "status_code")
	m.upstreamDuration = m.histogramVec("upstream_request_duration_milliseconds",
		"Remote data source request duration in milliseconds", "endpoint")
	m.upstreamRetries = m.counterVec("upstream_retries_total",
		"Retried remote data source requests", "endpoint")

	m.cacheLookups = m.counterVec("cache_lookups_total", "Cache lookups by cache and result", "cache", "result")
	m.cacheErrors = m.counterVec("cache_errors_total", "Cache failures by cache and operation", "cache", "op")

	m.httpRequests = m.counterVec("http_requests_total",
		"Total number of HTTP requests by endpoint and method", "endpoint", "method", "status_code")
	m.httpRequestDuration = m.histogramVec("http_request_duration_milliseconds",
		"HTTP request duration in milliseconds", "endpoint", "method", "status_code")

	m.errorsByComponent = m.counterVec("errors_by_component_total",
		"Total number of errors by component", "component", "error_type")

	m.systemMemoryUsage = auto.NewGauge(prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "system_memory_usage_bytes",
		Help:        "System memory usage in bytes",
		ConstLabels: m.customLabels,
	})

	m.systemGoroutineCount = auto.NewGauge(prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "system_goroutine_count",
		Help:        "Number of goroutines",
		ConstLabels: m.customLabels,
	})

	m.systemGCPauseTime = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "system_gc_pause_time_milliseconds",
		Help:        "GC pause time in milliseconds",
		Buckets:     []float64{0.1, 0.5, 1, 2, 5, 10, 25, 50, 100, 250, 500, 1000},
		ConstLabels: m.customLabels,
	})
}

// RecordSearch counts a finished search and its duration.
func RecordSearch(outcome string, durationMs float64) {
	if !globalManager.enabled {
		return
	}
	globalManager.searches.WithLabelValues(outcome).Inc()
	globalManager.searchDuration.Observe(durationMs)
}

// RecordCandidatesScanned adds n scored candidates.
func RecordCandidatesScanned(n int) {
	if !globalManager.enabled || n <= 0 {
		return
	}
	globalManager.candidatesScanned.Add(float64(n))
}

// RecordCandidateRejected counts a candidate dropped for reason.
func RecordCandidateRejected(reason string) {
	if !globalManager.enabled {
		return
	}
	globalManager.candidatesRejected.WithLabelValues(reason).Inc()
}

// RecordSeasonSkipped counts a corpus season whose fetch failed.
func RecordSeasonSkipped() {
	if !globalManager.enabled {
		return
	}
	globalManager.seasonsSkipped.Inc()
}

// RecordSeasonFetchDuration records one corpus season fetch.
func RecordSeasonFetchDuration(durationMs float64) {
	if !globalManager.enabled {
		return
	}
	globalManager.seasonFetchDuration.Observe(durationMs)
}

// UpdateFetchWorkers sets the fetch worker gauge.
func UpdateFetchWorkers(n int) {
	if !globalManager.enabled {
		return
	}
	globalManager.fetchWorkers.Set(float64(n))
}

// RecordSupplementalLookup counts a supplemental lookup; result is "found" or "unknown".
func RecordSupplementalLookup(role, result string) {
	if !globalManager.enabled {
		return
	}
	globalManager.supplementalLookups.WithLabelValues(role, result).Inc()
}

// RecordSupplementalTableLoad counts a bulk table load; result is "ok", "malformed" or "error".
func RecordSupplementalTableLoad(role, result string) {
	if !globalManager.enabled {
		return
	}
	globalManager.supplementalTables.WithLabelValues(role, result).Inc()
}

// RecordUpstreamRequest records a remote data source request.
func RecordUpstreamRequest(endpoint, statusCode string, durationMs float64) {
	if !globalManager.enabled {
		return
	}
	globalManager.upstreamRequests.WithLabelValues(endpoint, statusCode).Inc()
	globalManager.upstreamDuration.WithLabelValues(endpoint).Observe(durationMs)
}

// RecordUpstreamRetry counts a retried remote request.
func RecordUpstreamRetry(endpoint string) {
	if !globalManager.enabled {
		return
	}
	globalManager.upstreamRetries.WithLabelValues(endpoint).Inc()
}

// RecordCacheLookup counts a cache lookup; result is "hit" or "miss".
func RecordCacheLookup(cache, result string) {
	if !globalManager.enabled {
		return
	}
	globalManager.cacheLookups.WithLabelValues(cache, result).Inc()
}

// RecordCacheError counts a failed cache operation.
func RecordCacheError(cache, op string) {
	if !globalManager.enabled {
		return
	}
	globalManager.cacheErrors.WithLabelValues(cache, op).Inc()
}

// RecordHTTPRequest increments the HTTP requests counter.
func RecordHTTPRequest(endpoint, method, statusCode string) {
	if !globalManager.enabled {
		return
	}
	globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
}

// RecordHTTPRequestDuration records HTTP request duration.
func RecordHTTPRequestDuration(endpoint, method, statusCode string, duration float64) {
	if !globalManager.enabled {
		return
	}
	globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(duration)
}

// RecordErrorByComponent records errors by component.
func RecordErrorByComponent(component, errorType string) {
	if !globalManager.enabled {
		return
	}
	globalManager.errorsByComponent.WithLabelValues(component, errorType).Inc()
}

// UpdateSystemMemoryUsage sets the memory usage gauge.
func UpdateSystemMemoryUsage(bytes uint64) {
	globalManager.systemMemoryUsage.Set(float64(bytes))
}

// UpdateSystemGoroutineCount sets the goroutine gauge.
func UpdateSystemGoroutineCount(count int) {
	globalManager.systemGoroutineCount.Set(float64(count))
}

// RecordSystemGCPauseTime records the average GC pause.
func RecordSystemGCPauseTime(pauseMs float64) {
	globalManager.systemGCPauseTime.Observe(pauseMs)
}

// GetRegistry returns the registry backing the global manager.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}

// SetEnabled toggles recording on the global manager.
func SetEnabled(enabled bool) {
	globalManager.enabled = enabled
}

// CounterTotal sums every series of the named counter family in the global
// registry. name is the fully qualified metric name.
func CounterTotal(name string) (float64, error) {
	families, err := customRegistry.Gather()
	if err != nil {
		return 0, fmt.Errorf("%w: gather: %w", ErrObserveFailed, err)
	}
	for _, f := range families {
		if f.GetName() != name {
			continue
		}
		var total float64
		for _, m := range f.GetMetric() {
			total += m.GetCounter().GetValue()
		}
		return total, nil
	}
	return 0, fmt.Errorf("%w: unknown metric %q", ErrObserveFailed, name)
}
