package driven

import (
	"time"

	"github.com/campusgpt/harvester/internal/core/domain"
)

// Metrics receives pipeline counters.
type Metrics interface {
	// DocumentFetched counts a fetched document for a job.
	DocumentFetched(job string)

	// FetchFailed counts a per-document fetch error.
	FetchFailed(job string, kind domain.FetchErrorKind)

	// ParseFailed counts a skipped document.
	ParseFailed(job string)

	// RecordsEmitted counts records kept by a job.
	RecordsEmitted(job string, n int)

	// RecordFiltered counts a rejected record by stage ("job" or "merge").
	RecordFiltered(stage string, reason domain.FilterReason)

	// JobFinished observes a job's terminal state and duration.
	JobFinished(job string, state domain.JobState, reason domain.FailureReason, d time.Duration)

	// Merged records the size of the combined corpus.
	Merged(records, duplicates int)

	// Flush persists metrics, if the adapter supports it.
	Flush() error
}
