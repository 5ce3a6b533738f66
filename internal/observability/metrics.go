// Package observability provides Prometheus metrics for monitoring.
//
// Metrics live on a private registry so tests and repeated runs in one
// process never collide on the global default registerer. Every Record*
// method is safe on a nil *Metrics, which lets components take metrics as
// an optional dependency.
package observability

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// DefaultNamespace prefixes every metric name.
const DefaultNamespace = "yieldcurve"

// Metrics holds all Prometheus metrics for the application.
type Metrics struct {
	registry *prometheus.Registry

	// Fetch metrics
	FetchRequests       *prometheus.CounterVec
	FetchDuration       *prometheus.HistogramVec
	FetchRetries        prometheus.Counter
	ObservationsFetched *prometheus.CounterVec
	ObservationsDropped *prometheus.CounterVec

	// Store metrics
	RowsUpserted    *prometheus.CounterVec
	RowsLoaded      *prometheus.CounterVec
	DBQueryDuration *prometheus.HistogramVec
	DBQueryErrors   *prometheus.CounterVec

	// Pipeline metrics
	PipelineRunsTotal *prometheus.CounterVec
	PipelineDuration  *prometheus.HistogramVec
	ChartsRendered    *prometheus.CounterVec

	// Health metrics
	LastSuccessfulDownload prometheus.Gauge
}

// NewMetrics creates a new Metrics instance registered on its own registry.
func NewMetrics(namespace string) *Metrics {
	if namespace == "" {
		namespace = DefaultNamespace
	}

	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,

		FetchRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "fred",
			Name:      "requests_total",
			Help:      "Total number of FRED HTTP requests by status code",
		}, []string{"code"}),
		FetchDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "fred",
			Name:      "fetch_duration_seconds",
			Help:      "Series fetch duration in seconds, retries included",
			Buckets:   prometheus.DefBuckets,
		}, []string{"series_id"}),
		FetchRetries: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "fred",
			Name:      "retries_total",
			Help:      "Total number of retried FRED requests",
		}),
		ObservationsFetched: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "assembler",
			Name:      "observations_fetched_total",
			Help:      "Total number of raw observations received per series",
		}, []string{"series_id"}),
		ObservationsDropped: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "assembler",
			Name:      "observations_dropped_total",
			Help:      "Total number of observations excluded for a non-numeric value",
		}, []string{"series_id"}),

		RowsUpserted: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "store",
			Name:      "rows_upserted_total",
			Help:      "Total number of rows written by curve",
		}, []string{"curve"}),
		RowsLoaded: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "store",
			Name:      "rows_loaded_total",
			Help:      "Total number of rows read by curve",
		}, []string{"curve"}),
		DBQueryDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "database",
			Name:      "query_duration_seconds",
			Help:      "Database query duration in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"database", "operation"}),
		DBQueryErrors: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "database",
			Name:      "query_errors_total",
			Help:      "Total number of database query errors",
		}, []string{"database", "operation"}),

		PipelineRunsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "pipeline",
			Name:      "runs_total",
			Help:      "Total number of pipeline runs by status",
		}, []string{"phase", "status"}),
		PipelineDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "pipeline",
			Name:      "duration_seconds",
			Help:      "Pipeline execution duration in seconds",
			Buckets:   []float64{0.1, 0.5, 1, 5, 10, 30, 60, 120},
		}, []string{"phase"}),
		ChartsRendered: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "pipeline",
			Name:      "charts_rendered_total",
			Help:      "Total number of charts and exports written by kind",
		}, []string{"kind"}),

		LastSuccessfulDownload: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "health",
			Name:      "last_successful_download_timestamp",
			Help:      "Unix timestamp of last successful download",
		}),
	}
}

// Registry returns the registry backing these metrics.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// WriteTextfile writes all metrics to path in the text exposition format,
// for pickup by the node_exporter textfile collector.
func (m *Metrics) WriteTextfile(path string) error {
	if m == nil || path == "" {
		return nil
	}
	if err := prometheus.WriteToTextfile(path, m.registry); err != nil {
		return fmt.Errorf("write metrics textfile: %w", err)
	}
	return nil
}

// RecordFetchRequest records one HTTP round trip. code is "error" for transport failures.
func (m *Metrics) RecordFetchRequest(code string) {
	if m == nil {
		return
	}
	m.FetchRequests.WithLabelValues(code).Inc()
}

// RecordFetchRetry increments the retry counter.
func (m *Metrics) RecordFetchRetry() {
	if m == nil {
		return
	}
	m.FetchRetries.Inc()
}

// RecordFetch records a completed series fetch.
func (m *Metrics) RecordFetch(seriesID string, d time.Duration) {
	if m == nil {
		return
	}
	m.FetchDuration.WithLabelValues(seriesID).Observe(d.Seconds())
}

// RecordObservations records fetched and dropped observation counts for a series.
func (m *Metrics) RecordObservations(seriesID string, fetched, dropped int) {
	if m == nil {
		return
	}
	m.ObservationsFetched.WithLabelValues(seriesID).Add(float64(fetched))
	m.ObservationsDropped.WithLabelValues(seriesID).Add(float64(dropped))
}

// RecordDBQuery records database query metrics.
func (m *Metrics) RecordDBQuery(database, operation string, seconds float64, err error) {
	if m == nil {
		return
	}
	m.DBQueryDuration.WithLabelValues(database, operation).Observe(seconds)
	if err != nil {
		m.DBQueryErrors.WithLabelValues(database, operation).Inc()
	}
}

// RecordRows records rows written or read for a curve. operation is "upsert" or "load".
func (m *Metrics) RecordRows(operation, curve string, n int) {
	if m == nil {
		return
	}
	switch operation {
	case "upsert":
		m.RowsUpserted.WithLabelValues(curve).Add(float64(n))
	case "load":
		m.RowsLoaded.WithLabelValues(curve).Add(float64(n))
	}
}

// RecordPipelineRun records a pipeline run.
func (m *Metrics) RecordPipelineRun(phase, status string, durationSeconds float64) {
	if m == nil {
		return
	}
	m.PipelineRunsTotal.WithLabelValues(phase, status).Inc()
	m.PipelineDuration.WithLabelValues(phase).Observe(durationSeconds)
	if phase == "download" && status == "success" {
		m.LastSuccessfulDownload.SetToCurrentTime()
	}
}

// RecordChart counts a rendered chart or export.
func (m *Metrics) RecordChart(kind string) {
	if m == nil {
		return
	}
	m.ChartsRendered.WithLabelValues(kind).Inc()
}
