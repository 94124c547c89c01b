package prometheus

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/campusgpt/harvester/internal/core/domain"
	"github.com/campusgpt/harvester/internal/core/ports/driven"
)

// Ensure Metrics implements the interface.
var _ driven.Metrics = (*Metrics)(nil)

const namespace = "harvester"

// Metrics is a driven.Metrics backed by a Prometheus registry.
type Metrics struct {
	registry *prometheus.Registry
	path     string

	fetched        *prometheus.CounterVec
	fetchErrors    *prometheus.CounterVec
	parseErrors    *prometheus.CounterVec
	records        *prometheus.CounterVec
	filtered       *prometheus.CounterVec
	jobs           *prometheus.CounterVec
	jobDuration    *prometheus.HistogramVec
	corpusRecords  prometheus.Gauge
	corpusDupes    prometheus.Gauge
	lastMergeEpoch prometheus.Gauge
}

// New creates metrics registered on a fresh registry. path is the textfile
// written by Flush; empty disables writing.
func New(path string) *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		path:     path,
		fetched: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "documents_fetched_total",
			Help:      "Documents fetched, by job.",
		}, []string{"job"}),
		fetchErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "fetch_errors_total",
			Help:      "Per-document fetch failures, by job and kind.",
		}, []string{"job", "kind"}),
		parseErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "parse_errors_total",
			Help:      "Documents skipped as malformed, by job.",
		}, []string{"job"}),
		records: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "records_emitted_total",
			Help:      "Records kept in job outputs, by job.",
		}, []string{"job"}),
		filtered: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "records_filtered_total",
			Help:      "Records rejected by the quality filter, by stage and reason.",
		}, []string{"stage", "reason"}),
		jobs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "jobs_finished_total",
			Help:      "Jobs reaching a terminal state.",
		}, []string{"job", "state", "reason"}),
		jobDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "job_duration_seconds",
			Help:      "Wall-clock job duration.",
			Buckets:   []float64{1, 5, 15, 60, 300, 900, 1800, 3600},
		}, []string{"job"}),
		corpusRecords: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "corpus_records",
			Help:      "Records in the last combined corpus.",
		}),
		corpusDupes: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "corpus_duplicates",
			Help:      "Duplicates dropped by the last merge.",
		}),
		lastMergeEpoch: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_merge_timestamp_seconds",
			Help:      "Unix time of the last successful merge.",
		}),
	}

	m.registry.MustRegister(
		m.fetched,
		m.fetchErrors,
		m.parseErrors,
		m.records,
		m.filtered,
		m.jobs,
		m.jobDuration,
		m.corpusRecords,
		m.corpusDupes,
		m.lastMergeEpoch,
	)
	return m
}

// Registry exposes the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// DocumentFetched counts a fetched document.
func (m *Metrics) DocumentFetched(job string) {
	m.fetched.WithLabelValues(job).Inc()
}

// FetchFailed counts a fetch error.
func (m *Metrics) FetchFailed(job string, kind domain.FetchErrorKind) {
	m.fetchErrors.WithLabelValues(job, string(kind)).Inc()
}

// ParseFailed counts a skipped document.
func (m *Metrics) ParseFailed(job string) {
	m.parseErrors.WithLabelValues(job).Inc()
}

// RecordsEmitted counts kept records.
func (m *Metrics) RecordsEmitted(job string, n int) {
	if n <= 0 {
		return
	}
	m.records.WithLabelValues(job).Add(float64(n))
}

// RecordFiltered counts a rejected record.
func (m *Metrics) RecordFiltered(stage string, reason domain.FilterReason) {
	m.filtered.WithLabelValues(stage, string(reason)).Inc()
}

// JobFinished observes a job outcome.
func (m *Metrics) JobFinished(job string, state domain.JobState, reason domain.FailureReason, d time.Duration) {
	m.jobs.WithLabelValues(job, string(state), string(reason)).Inc()
	m.jobDuration.WithLabelValues(job).Observe(d.Seconds())
}

// Merged records the combined corpus size.
func (m *Metrics) Merged(records, duplicates int) {
	m.corpusRecords.Set(float64(records))
	m.corpusDupes.Set(float64(duplicates))
	m.lastMergeEpoch.SetToCurrentTime()
}

// Flush writes the registry to the metrics file, if configured.
func (m *Metrics) Flush() error {
	if m.path == "" {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(m.path), 0o755); err != nil {
		return fmt.Errorf("creating metrics directory: %w", err)
	}
	if err := prometheus.WriteToTextfile(m.path, m.registry); err != nil {
		return fmt.Errorf("writing metrics: %w", err)
	}
	return nil
}
