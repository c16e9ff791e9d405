// Package metrics provides Prometheus metrics for the miya prediction pipeline.
package metrics

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// probabilityBuckets cover the winner probability, which is never below 0.5.
var probabilityBuckets = []float64{0.5, 0.55, 0.6, 0.65, 0.7, 0.75, 0.8, 0.85, 0.9, 0.95, 1.0} //nolint:gochecknoglobals // fixed bucket layout

// Manager owns every collector the pipeline reports.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	constLabels      map[string]string
	registry         prometheus.Registerer

	// Composite metric computation
	teamMetricsComputed prometheus.Counter
	teamMetricsFailed   *prometheus.CounterVec
	metricsLatency      prometheus.Histogram
	gameLogLoads        prometheus.Counter
	gameLogCacheHits    prometheus.Counter
	teamsTracked        prometheus.Gauge

	// Predictions
	predictions          prometheus.Counter
	predictionErrors     *prometheus.CounterVec
	closeGameAdjustments prometheus.Counter
	winnerProbability    prometheus.Histogram
	batchRows            prometheus.Gauge

	// Season data acquisition
	seasonFetchLatency prometheus.Histogram
	seasonFetchErrors  prometheus.Counter
	seasonRows         prometheus.Gauge

	// Queue
	queueCapacity      prometheus.Gauge
	queueSize          prometheus.Gauge
	queueEnqueued      prometheus.Counter
	queueEnqueueErrors *prometheus.CounterVec

	// Workers
	workerActiveCount prometheus.Gauge
	workerLatency     prometheus.Histogram
	workerErrors      prometheus.Counter

	errorsByComponent *prometheus.CounterVec
}

var globalManager *Manager //nolint:gochecknoglobals // intentional global for singleton metrics manager

// Custom registry to avoid default Go metrics.
var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // intentional global for metrics registry

func init() { //nolint:gochecknoinits // intentional init for global metrics setup
	globalManager = NewManager(WithPrometheusRegistry(customRegistry))
}

// NewManager creates a metrics manager. Without WithPrometheusRegistry the
// collectors land on the Prometheus default registerer.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "miya",
		subsystem:        "predictor",
		histogramBuckets: prometheus.DefBuckets,
		constLabels:      map[string]string{},
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

func (m *Manager) initializeMetrics() {
	m.teamMetricsComputed = m.counter("team_metrics_computed_total",
		"Teams whose WORTH/PRIME/ROAD/NERVE metrics were computed")
	m.teamMetricsFailed = m.counterVec("team_metrics_failed_total",
		"Teams whose composite metrics could not be computed", "reason")
	m.metricsLatency = m.histogram("team_metrics_latency_milliseconds",
		"Time to compute one team's composite metrics", m.histogramBuckets)
	m.gameLogLoads = m.counter("game_log_loads_total", "Game log files read from disk")
	m.gameLogCacheHits = m.counter("game_log_cache_hits_total", "Game log requests served from cache")
	m.teamsTracked = m.gauge("teams_tracked", "Teams with composite metrics available")

	m.predictions = m.counter("predictions_total", "Matchups predicted successfully")
	m.predictionErrors = m.counterVec("prediction_errors_total",
		"Matchups that could not be predicted", "reason")
	m.closeGameAdjustments = m.counter("close_game_adjustments_total",
		"Predictions that fell in the close-game band and were adjusted")
	m.winnerProbability = m.histogram("winner_probability",
		"Distribution of the reported winner probability", probabilityBuckets)
	m.batchRows = m.gauge("batch_rows", "Rows in the most recent batch results table")

	m.seasonFetchLatency = m.histogram("season_fetch_latency_milliseconds",
		"Season summary download latency", m.histogramBuckets)
	m.seasonFetchErrors = m.counter("season_fetch_errors_total", "Failed season summary downloads")
	m.seasonRows = m.gauge("season_rows", "Teams in the loaded season summary")

	m.queueCapacity = m.gauge("queue_capacity", "Capacity of the metric job queue")
	m.queueSize = m.gauge("queue_size", "Jobs waiting in the metric job queue")
	m.queueEnqueued = m.counter("queue_enqueued_total", "Jobs accepted by the metric job queue")
	m.queueEnqueueErrors = m.counterVec("queue_enqueue_errors_total",
		"Jobs rejected by the metric job queue", "reason")

	m.workerActiveCount = m.gauge("worker_active_count", "Metric workers started")
	m.workerLatency = m.histogram("worker_job_latency_milliseconds",
		"End-to-end latency of one metric job", m.histogramBuckets)
	m.workerErrors = m.counter("worker_errors_total", "Metric jobs that ended in an error")

	m.errorsByComponent = m.counterVec("errors_total",
		"Errors by component and error type", "component", "error_type")
}

// RecordTeamMetricsComputed counts a successful metric computation.
func RecordTeamMetricsComputed() { globalManager.teamMetricsComputed.Inc() }

// RecordTeamMetricsFailed counts a failed metric computation.
func RecordTeamMetricsFailed(reason string) {
	globalManager.teamMetricsFailed.WithLabelValues(reason).Inc()
}

// RecordMetricsLatency observes the time spent computing one team.
func RecordMetricsLatency(latencyMs float64) { globalManager.metricsLatency.Observe(latencyMs) }

// RecordGameLogLoad counts a game log read from disk.
func RecordGameLogLoad() { globalManager.gameLogLoads.Inc() }

// RecordGameLogCacheHit counts a game log served from cache.
func RecordGameLogCacheHit() { globalManager.gameLogCacheHits.Inc() }

// UpdateTeamsTracked sets the number of teams with metrics.
func UpdateTeamsTracked(count int) { globalManager.teamsTracked.Set(float64(count)) }

// RecordPrediction records a successful prediction and its winner probability.
func RecordPrediction(winnerProbability float64, closeGame bool) {
	globalManager.predictions.Inc()
	globalManager.winnerProbability.Observe(winnerProbability)
	if closeGame {
		globalManager.closeGameAdjustments.Inc()
	}
}

// RecordPredictionError counts a matchup that could not be predicted.
func RecordPredictionError(reason string) {
	globalManager.predictionErrors.WithLabelValues(reason).Inc()
}

// UpdateBatchRows sets the size of the latest batch table.
func UpdateBatchRows(count int) { globalManager.batchRows.Set(float64(count)) }

// RecordSeasonFetch observes a season download.
func RecordSeasonFetch(latencyMs float64, err error) {
	globalManager.seasonFetchLatency.Observe(latencyMs)
	if err != nil {
		globalManager.seasonFetchErrors.Inc()
	}
}

// UpdateSeasonRows sets the number of teams in the season table.
func UpdateSeasonRows(count int) { globalManager.seasonRows.Set(float64(count)) }

// UpdateQueueCapacity sets the queue capacity.
func UpdateQueueCapacity(capacity int) { globalManager.queueCapacity.Set(float64(capacity)) }

// UpdateQueueSize sets the current queue length.
func UpdateQueueSize(size int) { globalManager.queueSize.Set(float64(size)) }

// RecordQueueEnqueue counts an accepted job.
func RecordQueueEnqueue() { globalManager.queueEnqueued.Inc() }

// RecordQueueEnqueueError counts a rejected job.
func RecordQueueEnqueueError(reason string) {
	globalManager.queueEnqueueErrors.WithLabelValues(reason).Inc()
}

// UpdateWorkerActiveCount sets the number of running workers.
func UpdateWorkerActiveCount(count int) { globalManager.workerActiveCount.Set(float64(count)) }

// RecordWorkerLatency observes one job's latency.
func RecordWorkerLatency(latencyMs float64) { globalManager.workerLatency.Observe(latencyMs) }

// RecordWorkerError counts a failed job.
func RecordWorkerError() { globalManager.workerErrors.Inc() }

// RecordErrorByComponent records an error with component and type labels.
func RecordErrorByComponent(component, errorType string) {
	globalManager.errorsByComponent.WithLabelValues(component, errorType).Inc()
}

// GetRegistry returns the custom Prometheus registry used by our metrics.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}

// WriteTextfile dumps the registry in the text exposition format, the way the
// node_exporter textfile collector expects it.
func WriteTextfile(path string) error {
	if path == "" {
		return ErrNoPath
	}
	if err := prometheus.WriteToTextfile(path, customRegistry); err != nil {
		return fmt.Errorf("%w: %w", ErrWriteFailed, err)
	}
	return nil
}
