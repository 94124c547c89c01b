package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/campusgpt/harvester/internal/core/domain"
	"github.com/campusgpt/harvester/internal/core/ports/driven"
	"github.com/campusgpt/harvester/internal/core/ports/driving"
	"github.com/campusgpt/harvester/internal/logger"
)

// Ensure Harvester implements the interface.
var _ driving.Ingestor = (*Harvester)(nil)

// Harvester runs harvest jobs concurrently and merges their outputs.
type Harvester struct {
	cfg       domain.Config
	factory   driven.ConnectorFactory
	registry  driven.NormaliserRegistry
	pipelines driven.PipelineFactory
	store     driven.RecordStore
	ledger    driven.RunLedger
	metrics   driven.Metrics
	merger    *Merger
	now       func() time.Time

	// Status tracking
	mu       sync.RWMutex
	statuses map[string]*jobStatus
}

type jobStatus struct {
	state   domain.JobState
	reason  domain.FailureReason
	started time.Time
	stats   *domain.JobStats
}

// HarvesterOption configures optional collaborators.
type HarvesterOption func(*Harvester)

// WithLedger records every run in l.
func WithLedger(l driven.RunLedger) HarvesterOption {
	return func(h *Harvester) { h.ledger = l }
}

// WithMetrics reports pipeline counters to m.
func WithMetrics(m driven.Metrics) HarvesterOption {
	return func(h *Harvester) { h.metrics = m }
}

// WithClock overrides the wall clock used for run timestamps.
func WithClock(now func() time.Time) HarvesterOption {
	return func(h *Harvester) { h.now = now }
}

// NewHarvester creates a harvester. The ledger and metrics are optional.
func NewHarvester(
	cfg domain.Config,
	factory driven.ConnectorFactory,
	registry driven.NormaliserRegistry,
	pipelines driven.PipelineFactory,
	store driven.RecordStore,
	opts ...HarvesterOption,
) *Harvester {
	h := &Harvester{
		cfg:       cfg,
		factory:   factory,
		registry:  registry,
		pipelines: pipelines,
		store:     store,
		metrics:   nopMetrics{},
		now:       time.Now,
		statuses:  make(map[string]*jobStatus),
	}
	for _, opt := range opts {
		opt(h)
	}
	h.merger = NewMerger(cfg, store, h.metrics)
	for _, name := range cfg.JobNames() {
		h.statuses[name] = &jobStatus{state: domain.JobPending, stats: domain.NewJobStats()}
	}
	return h
}

// Harvest runs the selected jobs concurrently, persists each succeeded
// job's output and merges the corpus.
func (h *Harvester) Harvest(ctx context.Context, opts driving.HarvestOptions) (*domain.RunSummary, error) {
	if opts.MergeOnly || h.cfg.MergeOnly {
		return h.Merge(ctx)
	}

	jobs, err := h.selectJobs(opts.Jobs)
	if err != nil {
		return nil, err
	}

	summary := &domain.RunSummary{RunID: uuid.NewString(), StartedAt: h.now().UTC()}
	logger.Section("Harvest " + summary.RunID)

	results := make([]domain.JobResult, len(jobs))
	var g errgroup.Group
	for i, job := range jobs {
		g.Go(func() error {
			results[i] = h.runJob(ctx, job)
			return nil
		})
	}
	_ = g.Wait()
	summary.Jobs = results

	outputs, err := h.mergeInputs(ctx, jobs, results)
	if err != nil {
		summary.EndedAt = h.now().UTC()
		h.finish(ctx, summary)
		return summary, err
	}

	summary.Merge, err = h.merger.Merge(ctx, outputs)
	summary.EndedAt = h.now().UTC()
	h.finish(ctx, summary)
	if err != nil {
		return summary, err
	}
	return summary, nil
}

// Merge rebuilds the corpus from the persisted outputs of every
// configured job. A job without output is reported failed(missing).
func (h *Harvester) Merge(ctx context.Context) (*domain.RunSummary, error) {
	if len(h.cfg.Jobs) == 0 {
		return nil, domain.ErrNoJobs
	}

	summary := &domain.RunSummary{RunID: uuid.NewString(), MergeOnly: true, StartedAt: h.now().UTC()}
	logger.Section("Merge " + summary.RunID)

	var outputs []JobOutput
	for _, job := range h.cfg.Jobs {
		started := h.now().UTC()
		res := domain.JobResult{Name: job.Name, Kind: job.Kind, StartedAt: started}

		records, err := h.store.LoadJobOutput(ctx, job.Name)
		res.EndedAt = h.now().UTC()
		switch {
		case errors.Is(err, domain.ErrNotFound):
			res.State, res.Reason, res.Err = domain.JobFailed, domain.FailureMissing, err
			logger.Warn("Job %s has no persisted output", job.Name)
		case err != nil:
			res.State, res.Reason, res.Err = domain.JobFailed, domain.FailureError, err
			logger.Warn("Job %s output unreadable: %v", job.Name, err)
		default:
			res.State = domain.JobSucceeded
			res.Stats = domain.JobStatsSnapshot{Records: len(records), FetchErrors: map[domain.FetchErrorKind]int{}, Filtered: domain.FilterCounts{}}
			outputs = append(outputs, JobOutput{Job: job.Name, Records: records})
		}
		h.setState(job.Name, res.State, res.Reason)
		summary.Jobs = append(summary.Jobs, res)
	}

	var err error
	summary.Merge, err = h.merger.Merge(ctx, outputs)
	summary.EndedAt = h.now().UTC()
	h.finish(ctx, summary)
	if err != nil {
		return summary, err
	}
	return summary, nil
}

// Status returns live progress for a job.
func (h *Harvester) Status(job string) driving.JobStatus {
	h.mu.RLock()
	defer h.mu.RUnlock()

	st, ok := h.statuses[job]
	if !ok {
		return driving.JobStatus{Job: job, State: domain.JobPending}
	}
	return st.snapshot(job)
}

// Statuses returns live progress for every configured job.
func (h *Harvester) Statuses() []driving.JobStatus {
	h.mu.RLock()
	defer h.mu.RUnlock()

	out := make([]driving.JobStatus, 0, len(h.cfg.Jobs))
	for _, job := range h.cfg.Jobs {
		out = append(out, h.statuses[job.Name].snapshot(job.Name))
	}
	return out
}

func (st *jobStatus) snapshot(job string) driving.JobStatus {
	snap := st.stats.Snapshot()
	return driving.JobStatus{
		Job:                job,
		State:              st.state,
		Reason:             st.reason,
		StartedAt:          st.started,
		DocumentsProcessed: snap.Fetched,
		ErrorCount:         snap.FetchErrorTotal() + snap.ParseErrors,
		Records:            snap.Records,
	}
}

func (h *Harvester) selectJobs(names []string) ([]domain.JobConfig, error) {
	if len(h.cfg.Jobs) == 0 {
		return nil, domain.ErrNoJobs
	}
	if len(names) == 0 {
		return h.cfg.Jobs, nil
	}
	jobs := make([]domain.JobConfig, 0, len(names))
	seen := make(map[string]bool, len(names))
	for _, name := range names {
		job, ok := h.cfg.Job(name)
		if !ok {
			return nil, fmt.Errorf("%w: unknown job %q", domain.ErrInvalidInput, name)
		}
		if !seen[name] {
			seen[name] = true
			jobs = append(jobs, job)
		}
	}
	return jobs, nil
}

// mergeInputs returns the outputs of jobs that succeeded in this run plus
// the persisted outputs of configured jobs that were not selected.
// Jobs that failed in this run contribute nothing.
func (h *Harvester) mergeInputs(ctx context.Context, ran []domain.JobConfig, results []domain.JobResult) ([]JobOutput, error) {
	var outputs []JobOutput
	selected := make(map[string]bool, len(ran))
	for i, job := range ran {
		selected[job.Name] = true
		if results[i].State == domain.JobSucceeded {
			outputs = append(outputs, JobOutput{Job: job.Name, Records: results[i].Records})
		}
	}

	for _, job := range h.cfg.Jobs {
		if selected[job.Name] {
			continue
		}
		records, err := h.store.LoadJobOutput(ctx, job.Name)
		switch {
		case errors.Is(err, domain.ErrNotFound):
			continue
		case err != nil:
			return nil, &domain.MergeError{Succeeded: jobNames(outputs), Err: fmt.Errorf("load %s: %w", job.Name, err)}
		}
		logger.Debug("Including persisted output of %s (%d records)", job.Name, len(records))
		outputs = append(outputs, JobOutput{Job: job.Name, Records: records})
	}
	return outputs, nil
}

func jobNames(outputs []JobOutput) []string {
	names := make([]string, len(outputs))
	for i, out := range outputs {
		names[i] = out.Job
	}
	return names
}

// finish records the run in the ledger and flushes metrics. Failures are
// logged, never returned.
func (h *Harvester) finish(ctx context.Context, summary *domain.RunSummary) {
	if h.ledger != nil {
		if err := h.ledger.RecordRun(ctx, summary); err != nil {
			logger.Warn("Failed to record run %s: %v", summary.RunID, err)
		}
	}
	if err := h.metrics.Flush(); err != nil {
		logger.Warn("Failed to flush metrics: %v", err)
	}
}

// startJob resets a job's live status for a new run.
func (h *Harvester) startJob(job string) *domain.JobStats {
	stats := domain.NewJobStats()
	h.mu.Lock()
	defer h.mu.Unlock()
	h.statuses[job] = &jobStatus{state: domain.JobRunning, started: h.now().UTC(), stats: stats}
	return stats
}

func (h *Harvester) setState(job string, state domain.JobState, reason domain.FailureReason) {
	h.mu.Lock()
	defer h.mu.Unlock()

	st, ok := h.statuses[job]
	if !ok {
		st = &jobStatus{stats: domain.NewJobStats()}
		h.statuses[job] = st
	}
	st.state = state
	st.reason = reason
}
