package services

import (
	"time"

	"github.com/campusgpt/harvester/internal/core/domain"
	"github.com/campusgpt/harvester/internal/core/ports/driven"
)

// Metric stages for RecordFiltered.
const (
	StageJob   = "job"
	StageMerge = "merge"
)

// jobObserver feeds pipeline counts into a job's stats and the metrics sink.
type jobObserver struct {
	stats   *domain.JobStats
	metrics driven.Metrics
}

func (o *jobObserver) Chunked(n int) {
	o.stats.AddChunked(n)
}

func (o *jobObserver) Rejected(_ *domain.Record, reason domain.FilterReason) {
	o.stats.AddFiltered(reason)
	o.metrics.RecordFiltered(StageJob, reason)
}

// nopMetrics discards everything.
type nopMetrics struct{}

func (nopMetrics) DocumentFetched(string)                                                  {}
func (nopMetrics) FetchFailed(string, domain.FetchErrorKind)                               {}
func (nopMetrics) ParseFailed(string)                                                      {}
func (nopMetrics) RecordsEmitted(string, int)                                              {}
func (nopMetrics) RecordFiltered(string, domain.FilterReason)                              {}
func (nopMetrics) JobFinished(string, domain.JobState, domain.FailureReason, time.Duration) {}
func (nopMetrics) Merged(int, int)                                                         {}
func (nopMetrics) Flush() error                                                            { return nil }
