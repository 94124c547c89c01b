package sqlite

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/campusgpt/harvester/internal/core/domain"
	"github.com/campusgpt/harvester/internal/core/ports/driven"
)

// runLedger implements driven.RunLedger.
type runLedger struct {
	store *Store
}

var _ driven.RunLedger = (*runLedger)(nil)

// RecordRun persists a run and its job results in one transaction.
func (l *runLedger) RecordRun(ctx context.Context, summary *domain.RunSummary) error {
	if summary == nil || summary.RunID == "" {
		return domain.ErrInvalidInput
	}

	filtered, err := json.Marshal(summary.Merge.Filtered)
	if err != nil {
		return fmt.Errorf("marshalling filter counts: %w", err)
	}

	tx, err := l.store.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO runs (id, merge_only, started_at, ended_at, merge_input, merge_duplicates, merge_merged, merge_filtered, output_path)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			merge_only = excluded.merge_only,
			started_at = excluded.started_at,
			ended_at = excluded.ended_at,
			merge_input = excluded.merge_input,
			merge_duplicates = excluded.merge_duplicates,
			merge_merged = excluded.merge_merged,
			merge_filtered = excluded.merge_filtered,
			output_path = excluded.output_path
	`,
		summary.RunID,
		boolToInt(summary.MergeOnly),
		formatTime(summary.StartedAt),
		formatTime(summary.EndedAt),
		summary.Merge.Input,
		summary.Merge.Duplicates,
		summary.Merge.Merged,
		string(filtered),
		summary.Merge.OutputPath,
	)
	if err != nil {
		return fmt.Errorf("inserting run: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM job_results WHERE run_id = ?`, summary.RunID); err != nil {
		return fmt.Errorf("clearing job results: %w", err)
	}

	for _, job := range summary.Jobs {
		fetchErrs, err := json.Marshal(job.Stats.FetchErrors)
		if err != nil {
			return fmt.Errorf("marshalling fetch errors: %w", err)
		}
		jobFiltered, err := json.Marshal(job.Stats.Filtered)
		if err != nil {
			return fmt.Errorf("marshalling filter counts: %w", err)
		}
		errText := ""
		if job.Err != nil {
			errText = job.Err.Error()
		}

		_, err = tx.ExecContext(ctx, `
			INSERT INTO job_results (run_id, name, kind, state, reason, error, started_at, ended_at,
				fetched, fetch_errors, parsed, parse_errors, chunked, filtered, records, output_path)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		`,
			summary.RunID, job.Name, string(job.Kind), string(job.State), string(job.Reason), errText,
			formatTime(job.StartedAt), formatTime(job.EndedAt),
			job.Stats.Fetched, string(fetchErrs), job.Stats.Parsed, job.Stats.ParseErrors,
			job.Stats.Chunked, string(jobFiltered), job.Stats.Records, job.OutputPath,
		)
		if err != nil {
			return fmt.Errorf("inserting job result %s: %w", job.Name, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing run: %w", err)
	}
	return nil
}

// ListRuns returns the most recent runs, newest first.
func (l *runLedger) ListRuns(ctx context.Context, limit int) ([]domain.RunSummary, error) {
	if limit <= 0 {
		limit = 20
	}

	rows, err := l.store.db.QueryContext(ctx, `
		SELECT id, merge_only, started_at, ended_at, merge_input, merge_duplicates, merge_merged, merge_filtered, output_path
		FROM runs ORDER BY started_at DESC, id DESC LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("querying runs: %w", err)
	}
	defer rows.Close()

	var runs []domain.RunSummary //nolint:prealloc // size unknown from query
	for rows.Next() {
		var (
			run            domain.RunSummary
			mergeOnly      int
			started, ended string
			filtered       string
		)
		if err := rows.Scan(&run.RunID, &mergeOnly, &started, &ended,
			&run.Merge.Input, &run.Merge.Duplicates, &run.Merge.Merged, &filtered, &run.Merge.OutputPath); err != nil {
			return nil, fmt.Errorf("scanning run: %w", err)
		}
		run.MergeOnly = mergeOnly != 0
		run.StartedAt = parseTime(started)
		run.EndedAt = parseTime(ended)
		run.Merge.Filtered = make(domain.FilterCounts)
		if err := json.Unmarshal([]byte(filtered), &run.Merge.Filtered); err != nil {
			return nil, fmt.Errorf("unmarshalling filter counts: %w", err)
		}
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating runs: %w", err)
	}

	for i := range runs {
		jobs, err := l.jobResults(ctx, runs[i].RunID)
		if err != nil {
			return nil, err
		}
		runs[i].Jobs = jobs
	}
	return runs, nil
}

func (l *runLedger) jobResults(ctx context.Context, runID string) ([]domain.JobResult, error) {
	rows, err := l.store.db.QueryContext(ctx, `
		SELECT name, kind, state, reason, error, started_at, ended_at,
			fetched, fetch_errors, parsed, parse_errors, chunked, filtered, records, output_path
		FROM job_results WHERE run_id = ? ORDER BY name
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("querying job results: %w", err)
	}
	defer rows.Close()

	var jobs []domain.JobResult //nolint:prealloc // size unknown from query
	for rows.Next() {
		var (
			job                          domain.JobResult
			kind, state, reason, errText string
			started, ended               string
			fetchErrs, filtered          string
		)
		if err := rows.Scan(&job.Name, &kind, &state, &reason, &errText, &started, &ended,
			&job.Stats.Fetched, &fetchErrs, &job.Stats.Parsed, &job.Stats.ParseErrors,
			&job.Stats.Chunked, &filtered, &job.Stats.Records, &job.OutputPath); err != nil {
			return nil, fmt.Errorf("scanning job result: %w", err)
		}
		job.Kind = domain.JobKind(kind)
		job.State = domain.JobState(state)
		job.Reason = domain.FailureReason(reason)
		if errText != "" {
			job.Err = errors.New(errText)
		}
		job.StartedAt = parseTime(started)
		job.EndedAt = parseTime(ended)

		job.Stats.FetchErrors = make(map[domain.FetchErrorKind]int)
		if err := json.Unmarshal([]byte(fetchErrs), &job.Stats.FetchErrors); err != nil {
			return nil, fmt.Errorf("unmarshalling fetch errors: %w", err)
		}
		job.Stats.Filtered = make(domain.FilterCounts)
		if err := json.Unmarshal([]byte(filtered), &job.Stats.Filtered); err != nil {
			return nil, fmt.Errorf("unmarshalling filter counts: %w", err)
		}
		jobs = append(jobs, job)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating job results: %w", err)
	}
	return jobs, nil
}

// timeLayout is fixed-width so stored timestamps sort lexically.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(timeLayout)
}

func parseTime(s string) time.Time {
	if s == "" {
		return time.Time{}
	}
	t, err := time.Parse(timeLayout, s)
	if err != nil {
		return time.Time{}
	}
	return t
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
