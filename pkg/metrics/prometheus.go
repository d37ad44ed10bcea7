// Package metrics provides Prometheus metrics for the wicket scoring service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Manager owns every wicket metric.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	registry         prometheus.Registerer

	// Ledger
	ballsRecorded     *prometheus.CounterVec
	ballsRejected     *prometheus.CounterVec
	ballsDuplicate    prometheus.Counter
	inningsFinalized  prometheus.Counter
	matchesCreated    prometheus.Counter
	matchesResolved   *prometheus.CounterVec
	activeMatches     prometheus.Gauge
	performanceBuilds prometheus.Histogram

	// Ratings
	ratingApplications *prometheus.CounterVec
	ratingDuplicates   prometheus.Counter
	ratingDeltas       prometheus.Counter
	ratedPlayers       prometheus.Gauge
	achievements       *prometheus.CounterVec

	// Budgets
	budgetDeductions prometheus.Counter
	budgetRejections *prometheus.CounterVec
	budgetSpent      prometheus.Counter

	// Store
	storeLatency *prometheus.HistogramVec

	// Completion queue and worker
	queueSize               prometheus.Gauge
	queueCapacity           prometheus.Gauge
	queueEnqueueRate        prometheus.Counter
	queueDequeueRate        prometheus.Counter
	queueEnqueueErrors      prometheus.Counter
	workerProcessingLatency prometheus.Histogram
	workerErrors            prometheus.Counter

	// HTTP
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	// Errors
	errorRateByComponent *prometheus.CounterVec
}

var globalManager *Manager //nolint:gochecknoglobals // singleton metrics manager

// Custom registry to avoid default Go metrics.
var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // metrics registry

func init() { //nolint:gochecknoinits // global metrics setup
	globalManager = NewManager(WithPrometheusRegistry(customRegistry))
}

// NewManager creates a manager and registers its metrics.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "wicket",
		subsystem:        "engine",
		histogramBuckets: prometheus.DefBuckets,
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
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help,
	})
}

func (m *Manager) counterVec(name, help string, labels ...string) *prometheus.CounterVec {
	return promauto.With(m.registry).NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help,
	}, labels)
}

func (m *Manager) gauge(name, help string) prometheus.Gauge {
	return promauto.With(m.registry).NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help,
	})
}

func (m *Manager) histogram(name, help string) prometheus.Histogram {
	return promauto.With(m.registry).NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help, Buckets: m.histogramBuckets,
	})
}

func (m *Manager) histogramVec(name, help string, labels ...string) *prometheus.HistogramVec {
	return promauto.With(m.registry).NewHistogramVec(prometheus.HistogramOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help, Buckets: m.histogramBuckets,
	}, labels)
}

func (m *Manager) initializeMetrics() {
	m.ballsRecorded = m.counterVec("balls_recorded_total", "Balls accepted into the ledger by outcome", "outcome")
	m.ballsRejected = m.counterVec("balls_rejected_total", "Balls rejected at ingest by reason", "reason")
	m.ballsDuplicate = m.counter("balls_duplicate_total", "Retried deliveries acknowledged without re-scoring")
	m.inningsFinalized = m.counter("innings_finalized_total", "Innings finalized")
	m.matchesCreated = m.counter("matches_created_total", "Matches created")
	m.matchesResolved = m.counterVec("matches_resolved_total", "Matches resolved by result kind", "result")
	m.activeMatches = m.gauge("active_matches", "Matches held in the ledger registry")
	m.performanceBuilds = m.histogram("performance_build_milliseconds", "Time to aggregate match performances")

	m.ratingApplications = m.counterVec("rating_applications_total", "Rating applications by cause kind", "cause")
	m.ratingDuplicates = m.counter("rating_duplicates_total", "Rating applications rejected as duplicates")
	m.ratingDeltas = m.counter("rating_deltas_total", "Rating deltas appended to history")
	m.ratedPlayers = m.gauge("rated_players", "Players with a rating record")
	m.achievements = m.counterVec("achievements_total", "Achievements awarded by kind", "kind")

	m.budgetDeductions = m.counter("budget_deductions_total", "Accepted budget deductions")
	m.budgetRejections = m.counterVec("budget_rejections_total", "Rejected budget deductions by reason", "reason")
	m.budgetSpent = m.counter("budget_spent_units_total", "Currency units deducted from team budgets")

	m.storeLatency = m.histogramVec("store_latency_milliseconds", "Store operation latency", "operation")

	m.queueSize = m.gauge("queue_size", "Completed matches waiting for the rating worker")
	m.queueCapacity = m.gauge("queue_capacity", "Completion queue capacity")
	m.queueEnqueueRate = m.counter("queue_enqueue_total", "Completed matches enqueued")
	m.queueDequeueRate = m.counter("queue_dequeue_total", "Completed matches dequeued")
	m.queueEnqueueErrors = m.counter("queue_enqueue_errors_total", "Completion events that could not be enqueued")
	m.workerProcessingLatency = m.histogram("worker_processing_latency_milliseconds", "Time to rate a completed match")
	m.workerErrors = m.counter("worker_errors_total", "Completion events the worker failed to apply")

	m.httpRequests = m.counterVec("http_requests_total", "HTTP requests by endpoint and method", "endpoint", "method", "status_code")
	m.httpRequestDuration = m.histogramVec("http_request_duration_milliseconds", "HTTP request duration in milliseconds",
		"endpoint", "method", "status_code")

	m.errorRateByComponent = m.counterVec("errors_by_component_total", "Errors by component", "component", "error_type")
}

// RecordBallRecorded counts an accepted ball.
func RecordBallRecorded(outcome string) {
	globalManager.ballsRecorded.WithLabelValues(outcome).Inc()
}

// RecordBallRejected counts a rejected ball.
func RecordBallRejected(reason string) {
	globalManager.ballsRejected.WithLabelValues(reason).Inc()
}

// RecordBallDuplicate counts a retried delivery id.
func RecordBallDuplicate() {
	globalManager.ballsDuplicate.Inc()
}

func RecordInningsFinalized() {
	globalManager.inningsFinalized.Inc()
}

func RecordMatchCreated() {
	globalManager.matchesCreated.Inc()
}

// RecordMatchResolved counts a resolution; result is "win" or "tie".
func RecordMatchResolved(result string) {
	globalManager.matchesResolved.WithLabelValues(result).Inc()
}

func UpdateActiveMatches(n int) {
	globalManager.activeMatches.Set(float64(n))
}

func RecordPerformanceBuild(latencyMs float64) {
	globalManager.performanceBuilds.Observe(latencyMs)
}

// RecordRatingApplication counts an applied cause and its deltas.
func RecordRatingApplication(cause string, deltas int) {
	globalManager.ratingApplications.WithLabelValues(cause).Inc()
	globalManager.ratingDeltas.Add(float64(deltas))
}

func RecordRatingDuplicate() {
	globalManager.ratingDuplicates.Inc()
}

func UpdateRatedPlayers(n int) {
	globalManager.ratedPlayers.Set(float64(n))
}

func RecordAchievement(kind string) {
	globalManager.achievements.WithLabelValues(kind).Inc()
}

// RecordBudgetDeduction counts an accepted deduction of amount units.
func RecordBudgetDeduction(amount int64) {
	globalManager.budgetDeductions.Inc()
	globalManager.budgetSpent.Add(float64(amount))
}

func RecordBudgetRejection(reason string) {
	globalManager.budgetRejections.WithLabelValues(reason).Inc()
}

func RecordStoreLatency(operation string, latencyMs float64) {
	globalManager.storeLatency.WithLabelValues(operation).Observe(latencyMs)
}

// UpdateQueueSize sets the current queue size.
func UpdateQueueSize(size int) {
	globalManager.queueSize.Set(float64(size))
}

// UpdateQueueCapacity sets the maximum queue capacity.
func UpdateQueueCapacity(capacity int) {
	globalManager.queueCapacity.Set(float64(capacity))
}

func RecordQueueEnqueue() {
	globalManager.queueEnqueueRate.Inc()
}

func RecordQueueDequeue() {
	globalManager.queueDequeueRate.Inc()
}

func RecordQueueEnqueueError() {
	globalManager.queueEnqueueErrors.Inc()
}

func RecordWorkerProcessingLatency(latencyMs float64) {
	globalManager.workerProcessingLatency.Observe(latencyMs)
}

func RecordWorkerError() {
	globalManager.workerErrors.Inc()
}

// RecordHTTPRequest records an HTTP request.
func RecordHTTPRequest(endpoint, method, statusCode string) {
	globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
}

// RecordHTTPRequestDuration records HTTP request duration.
func RecordHTTPRequestDuration(endpoint, method, statusCode string, duration float64) {
	globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(duration)
}

// RecordErrorByComponent records an error with component and type labels.
func RecordErrorByComponent(component, errorType string) {
	globalManager.errorRateByComponent.WithLabelValues(component, errorType).Inc()
}

// GetRegistry returns the custom Prometheus registry used by our metrics.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}
