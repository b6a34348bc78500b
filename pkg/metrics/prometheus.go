// Package metrics provides Prometheus metrics for the liftboard service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Manager owns every collector exported by the service.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	constLabels      prometheus.Labels
	registry         prometheus.Registerer

	// Submissions
	submissionsAccepted  prometheus.Counter
	submissionsDuplicate prometheus.Counter
	submissionsRejected  *prometheus.CounterVec
	malformedRecords     *prometheus.CounterVec

	// Leaderboards and search
	leaderboardBuilds   *prometheus.CounterVec
	leaderboardLatency  *prometheus.HistogramVec
	leaderboardEntries  prometheus.Histogram
	searchQueries       prometheus.Counter
	searchResults       prometheus.Histogram
	pointRuleUpdates    prometheus.Counter
	trackedEvents       prometheus.Gauge
	catalogExercises    prometheus.Gauge
	storeLatency        *prometheus.HistogramVec
	storeErrors         *prometheus.CounterVec
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
	httpErrors          *prometheus.CounterVec

	// Queue and workers
	queueSize        prometheus.Gauge
	queueCapacity    prometheus.Gauge
	queueRejected    *prometheus.CounterVec
	workerCount      prometheus.Gauge
	workerProcessed  prometheus.Counter
	workerErrors     prometheus.Counter
	workerAttributed *prometheus.CounterVec
}

var globalManager *Manager //nolint:gochecknoglobals // singleton metrics manager

var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // keeps default Go collectors out

func init() { //nolint:gochecknoinits // global metrics setup
	globalManager = NewManager(WithPrometheusRegistry(customRegistry))
}

// NewManager creates a metrics manager and registers its collectors.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "liftboard",
		subsystem:        "core",
		histogramBuckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 25, 50, 100, 250, 500, 1000},
		registry:         prometheus.DefaultRegisterer,
	}
	for _, opt := range opts {
		opt(m)
	}
	m.initializeMetrics()
	return m
}

func (m *Manager) counter(name, help string) prometheus.Counter {
	return promauto.With(m.registry).NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help, ConstLabels: m.constLabels,
	})
}

func (m *Manager) counterVec(name, help string, labels ...string) *prometheus.CounterVec {
	return promauto.With(m.registry).NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help, ConstLabels: m.constLabels,
	}, labels)
}

func (m *Manager) gauge(name, help string) prometheus.Gauge {
	return promauto.With(m.registry).NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help, ConstLabels: m.constLabels,
	})
}

func (m *Manager) histogram(name, help string, buckets []float64) prometheus.Histogram {
	return promauto.With(m.registry).NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help, ConstLabels: m.constLabels,
		Buckets: buckets,
	})
}

func (m *Manager) histogramVec(name, help string, labels ...string) *prometheus.HistogramVec {
	return promauto.With(m.registry).NewHistogramVec(prometheus.HistogramOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help, ConstLabels: m.constLabels,
		Buckets: m.histogramBuckets,
	}, labels)
}

func (m *Manager) initializeMetrics() {
	m.submissionsAccepted = m.counter("submissions_accepted_total", "Workout submissions accepted for attribution")
	m.submissionsDuplicate = m.counter("submissions_duplicate_total", "Workout submissions dropped as duplicates")
	m.submissionsRejected = m.counterVec("submissions_rejected_total", "Workout submissions rejected by reason", "reason")
	m.malformedRecords = m.counterVec("malformed_records_total", "Workout records scored as zero because they are malformed", "reason")

	m.leaderboardBuilds = m.counterVec("leaderboard_builds_total", "Leaderboards computed by mode", "mode")
	m.leaderboardLatency = m.histogramVec("leaderboard_build_latency_milliseconds", "Leaderboard computation latency", "mode")
	m.leaderboardEntries = m.histogram("leaderboard_entries", "Number of entries per computed leaderboard",
		prometheus.ExponentialBuckets(1, 2, 12))
	m.searchQueries = m.counter("search_queries_total", "Exercise search queries served")
	m.searchResults = m.histogram("search_results", "Number of results returned per search",
		prometheus.ExponentialBuckets(1, 2, 10))
	m.pointRuleUpdates = m.counter("point_rule_updates_total", "Exercise point rule replacements")
	m.trackedEvents = m.gauge("events_tracked", "Number of events known to the store")
	m.catalogExercises = m.gauge("catalog_exercises", "Number of exercises in the search catalog")
	m.storeLatency = m.histogramVec("store_latency_milliseconds", "Repository operation latency", "op")
	m.storeErrors = m.counterVec("store_errors_total", "Repository operation errors", "op")

	m.httpRequests = m.counterVec("http_requests_total", "HTTP requests by endpoint and method", "endpoint", "method", "status_code")
	m.httpRequestDuration = m.histogramVec("http_request_duration_milliseconds", "HTTP request duration", "endpoint", "method", "status_code")
	m.httpErrors = m.counterVec("http_errors_total", "HTTP responses with an error status", "endpoint", "error_type")

	m.queueSize = m.gauge("queue_size", "Current attribution queue length")
	m.queueCapacity = m.gauge("queue_capacity", "Attribution queue capacity")
	m.queueRejected = m.counterVec("queue_rejected_total", "Attributions the queue refused", "reason")
	m.workerCount = m.gauge("worker_count", "Number of attribution workers")
	m.workerProcessed = m.counter("worker_processed_total", "Attributions processed by workers")
	m.workerErrors = m.counter("worker_errors_total", "Attributions that failed in a worker")
	m.workerAttributed = m.counterVec("worker_attributions_total", "Per-event attribution outcomes", "outcome")
}

// RecordSubmissionAccepted counts a submission handed to the queue.
func RecordSubmissionAccepted() { globalManager.submissionsAccepted.Inc() }

// RecordSubmissionDuplicate counts a submission dropped by the deduper.
func RecordSubmissionDuplicate() { globalManager.submissionsDuplicate.Inc() }

// RecordSubmissionRejected counts a refused submission.
func RecordSubmissionRejected(reason string) {
	globalManager.submissionsRejected.WithLabelValues(reason).Inc()
}

// RecordMalformedRecord counts a workout that scored zero because it is malformed.
func RecordMalformedRecord(reason string) {
	globalManager.malformedRecords.WithLabelValues(reason).Inc()
}

// RecordLeaderboardBuild records one leaderboard computation.
func RecordLeaderboardBuild(mode string, latencyMs float64, entries int) {
	globalManager.leaderboardBuilds.WithLabelValues(mode).Inc()
	globalManager.leaderboardLatency.WithLabelValues(mode).Observe(latencyMs)
	globalManager.leaderboardEntries.Observe(float64(entries))
}

// RecordSearch records one search query and its result count.
func RecordSearch(results int) {
	globalManager.searchQueries.Inc()
	globalManager.searchResults.Observe(float64(results))
}

// RecordPointRuleUpdate counts a rule replacement.
func RecordPointRuleUpdate() { globalManager.pointRuleUpdates.Inc() }

// UpdateTrackedEvents sets the number of known events.
func UpdateTrackedEvents(n int) { globalManager.trackedEvents.Set(float64(n)) }

// UpdateCatalogExercises sets the search catalog size.
func UpdateCatalogExercises(n int) { globalManager.catalogExercises.Set(float64(n)) }

// RecordStoreLatency observes a repository call.
func RecordStoreLatency(op string, latencyMs float64) {
	globalManager.storeLatency.WithLabelValues(op).Observe(latencyMs)
}

// RecordStoreError counts a failed repository call.
func RecordStoreError(op string) { globalManager.storeErrors.WithLabelValues(op).Inc() }

// RecordHTTPRequest records an HTTP request and its duration.
func RecordHTTPRequest(endpoint, method, statusCode string, durationMs float64) {
	globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
	globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(durationMs)
}

// RecordHTTPError records an error response.
func RecordHTTPError(endpoint, errorType string) {
	globalManager.httpErrors.WithLabelValues(endpoint, errorType).Inc()
}

// UpdateQueueSize sets the current queue length.
func UpdateQueueSize(size int) { globalManager.queueSize.Set(float64(size)) }

// UpdateQueueCapacity sets the queue capacity.
func UpdateQueueCapacity(capacity int) { globalManager.queueCapacity.Set(float64(capacity)) }

// RecordQueueRejected counts an enqueue the queue refused.
func RecordQueueRejected(reason string) { globalManager.queueRejected.WithLabelValues(reason).Inc() }

// UpdateWorkerCount sets the worker pool size.
func UpdateWorkerCount(count int) { globalManager.workerCount.Set(float64(count)) }

// RecordWorkerProcessed counts an attribution handled by a worker.
func RecordWorkerProcessed() { globalManager.workerProcessed.Inc() }

// RecordWorkerError counts a failed attribution.
func RecordWorkerError() { globalManager.workerErrors.Inc() }

// RecordAttribution counts a per-event outcome: stored, out_of_window, unknown_event, duplicate.
func RecordAttribution(outcome string) {
	globalManager.workerAttributed.WithLabelValues(outcome).Inc()
}

// GetRegistry returns the custom Prometheus registry used by our metrics.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}
