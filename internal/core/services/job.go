package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/campusgpt/harvester/internal/core/domain"
	"github.com/campusgpt/harvester/internal/core/ports/driven"
	"github.com/campusgpt/harvester/internal/logger"
)

// runJob drives one job to a terminal state. It never returns an error:
// failures are reported in the result.
func (h *Harvester) runJob(ctx context.Context, job domain.JobConfig) domain.JobResult {
	stats := h.startJob(job.Name)
	log := logger.Job(job.Name)
	budget := h.cfg.TimeoutFor(job)

	res := domain.JobResult{Name: job.Name, Kind: job.Kind, StartedAt: h.now().UTC()}
	fail := func(reason domain.FailureReason, err error) domain.JobResult {
		res.State, res.Reason, res.Err = domain.JobFailed, reason, err
		res.Records = nil
		return h.endJob(res, stats)
	}

	log.Info("Starting %s job (budget %s)", job.Kind, budget)

	jobCtx, cancel := context.WithTimeout(ctx, budget)
	defer cancel()

	if h.factory == nil {
		return fail(domain.FailureError, errors.New("create connector: connector factory not configured"))
	}
	connector, err := h.factory.Create(jobCtx, job)
	if err != nil {
		log.Error("Cannot start: %v", err)
		return fail(domain.FailureError, fmt.Errorf("create connector: %w", err))
	}
	defer connector.Close()

	pipeline, err := h.pipelines.NewPipeline(&jobObserver{stats: stats, metrics: h.metrics})
	if err != nil {
		return fail(domain.FailureError, fmt.Errorf("build pipeline: %w", err))
	}

	records, err := h.processDocuments(jobCtx, job.Name, connector, pipeline, stats)
	if err == nil {
		res.OutputPath, err = h.store.SaveJobOutput(jobCtx, job.Name, records)
		if err != nil {
			err = fmt.Errorf("save output: %w", err)
		}
	}

	switch {
	case errors.Is(jobCtx.Err(), context.DeadlineExceeded) && ctx.Err() == nil:
		log.Warn("Timed out after %s, discarding output", budget)
		return fail(domain.FailureTimeout, &domain.JobTimeoutError{Job: job.Name, Budget: budget})
	case err != nil:
		log.Error("Failed: %v", err)
		return fail(domain.FailureError, err)
	}

	res.State = domain.JobSucceeded
	res.Records = records
	return h.endJob(res, stats)
}

func (h *Harvester) endJob(res domain.JobResult, stats *domain.JobStats) domain.JobResult {
	res.EndedAt = h.now().UTC()
	res.Stats = stats.Snapshot()
	h.setState(res.Name, res.State, res.Reason)
	h.metrics.JobFinished(res.Name, res.State, res.Reason, res.Duration())

	if res.State == domain.JobSucceeded {
		logger.Job(res.Name).Info("Done: %d fetched, %d records in %s",
			res.Stats.Fetched, res.Stats.Records, res.Duration().Round(time.Millisecond))
	}
	return res
}

// processDocuments consumes the connector's streams, processing each
// document sequentially. Per-document failures are counted and skipped.
//
//nolint:gocognit // Orchestration function coordinating multiple async operations
func (h *Harvester) processDocuments(
	ctx context.Context,
	job string,
	connector driven.Connector,
	pipeline driven.PostProcessorPipeline,
	stats *domain.JobStats,
) ([]domain.Record, error) {
	log := logger.Job(job)
	docsCh, errsCh := connector.Harvest(ctx)

	var records []domain.Record
	for docsCh != nil || errsCh != nil {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()

		case err, ok := <-errsCh:
			if !ok {
				errsCh = nil
				continue
			}
			if kind, isFetch := domain.FetchKindOf(err); isFetch {
				stats.AddFetchError(kind)
				h.metrics.FetchFailed(job, kind)
				log.Debug("Fetch failed: %v", err)
				continue
			}
			return nil, fmt.Errorf("connector error: %w", err)

		case raw, ok := <-docsCh:
			if !ok {
				docsCh = nil
				continue
			}
			stats.AddFetched()
			h.metrics.DocumentFetched(job)

			log.Debug("Processing: %s", raw.URL)
			recs, err := h.processOneDocument(ctx, pipeline, &raw)
			if err != nil {
				if ctx.Err() != nil {
					return nil, ctx.Err()
				}
				stats.AddParseError()
				h.metrics.ParseFailed(job)
				log.Debug("Skipping %s: %v", raw.URL, err)
				continue
			}
			stats.AddParsed()
			stats.AddRecords(len(recs))
			h.metrics.RecordsEmitted(job, len(recs))
			records = append(records, recs...)
		}
	}

	// Connectors close their channels when ctx ends.
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return records, nil
}

// processOneDocument normalises a raw document and runs the record
// pipeline over it.
func (h *Harvester) processOneDocument(
	ctx context.Context,
	pipeline driven.PostProcessorPipeline,
	raw *domain.RawDocument,
) ([]domain.Record, error) {
	doc, err := h.registry.Normalise(ctx, raw)
	if err != nil {
		return nil, fmt.Errorf("normalise: %w", err)
	}
	if doc.Job == "" {
		doc.Job = raw.Job
	}

	records, err := pipeline.Process(ctx, doc)
	if err != nil {
		return nil, fmt.Errorf("post-process: %w", err)
	}
	return records, nil
}
