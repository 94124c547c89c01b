package driving

import (
	"context"
	"time"

	"github.com/campusgpt/harvester/internal/core/domain"
)

// Ingestor runs harvest jobs and merges their outputs into the corpus.
type Ingestor interface {
	// Harvest runs the selected jobs concurrently and merges the outputs.
	// Job failures are reported in the summary. Errors are returned only
	// for an invalid selection (domain.ErrInvalidInput, domain.ErrNoJobs)
	// or a merge failure (*domain.MergeError).
	Harvest(ctx context.Context, opts HarvestOptions) (*domain.RunSummary, error)

	// Merge rebuilds the corpus from persisted job outputs without
	// fetching anything.
	Merge(ctx context.Context) (*domain.RunSummary, error)

	// Status returns live progress for a job.
	Status(job string) JobStatus

	// Statuses returns live progress for every configured job in
	// configuration order.
	Statuses() []JobStatus
}

// HarvestOptions selects what a harvest run does.
type HarvestOptions struct {
	// Jobs limits the run to the named jobs. Empty means all jobs.
	Jobs []string

	// MergeOnly skips harvesting and merges persisted outputs.
	MergeOnly bool
}

// JobStatus represents the current state of a harvest job.
type JobStatus struct {
	// Job identifies the harvest job.
	Job string

	// State is the lifecycle position.
	State domain.JobState

	// Reason qualifies a failed job.
	Reason domain.FailureReason

	// StartedAt is zero until the job runs.
	StartedAt time.Time

	// DocumentsProcessed is the count of documents fetched.
	DocumentsProcessed int

	// ErrorCount is the number of fetch and parse errors encountered.
	ErrorCount int

	// Records is the count of records kept so far.
	Records int
}

// Running reports whether the job is in progress.
func (s JobStatus) Running() bool {
	return s.State == domain.JobRunning
}

// RunHistory lists past runs.
type RunHistory interface {
	// ListRuns returns the most recent runs, newest first.
	ListRuns(ctx context.Context, limit int) ([]domain.RunSummary, error)
}
