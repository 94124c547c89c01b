package domain

import (
	"sort"
	"sync"
	"time"
)

// JobState is a harvest job's lifecycle position.
// Transitions: pending -> running -> succeeded | failed.
type JobState string

const (
	JobPending   JobState = "pending"
	JobRunning   JobState = "running"
	JobSucceeded JobState = "succeeded"
	JobFailed    JobState = "failed"
)

// Terminal reports whether no further transitions are possible.
func (s JobState) Terminal() bool {
	return s == JobSucceeded || s == JobFailed
}

// CanTransition reports whether moving from s to next is legal.
func (s JobState) CanTransition(next JobState) bool {
	switch s {
	case JobPending:
		return next == JobRunning || next == JobFailed
	case JobRunning:
		return next == JobSucceeded || next == JobFailed
	}
	return false
}

// FailureReason qualifies a failed job.
type FailureReason string

const (
	// FailureNone is used for non-failed jobs.
	FailureNone FailureReason = ""

	// FailureError means the job could not run (bad connector, store error).
	FailureError FailureReason = "error"

	// FailureTimeout means the job exceeded its wall-clock budget.
	FailureTimeout FailureReason = "timeout"

	// FailureMissing means merge-only mode found no persisted output.
	FailureMissing FailureReason = "missing"
)

// FilterReason names why a record was rejected.
type FilterReason string

const (
	FilterLength      FilterReason = "length"
	FilterErrorPage   FilterReason = "error_page"
	FilterBoilerplate FilterReason = "boilerplate"
)

// FilterReasons lists every reason in report order.
var FilterReasons = []FilterReason{FilterLength, FilterErrorPage, FilterBoilerplate}

// FilterCounts tallies rejected records by reason.
type FilterCounts map[FilterReason]int

// Total returns the number of rejected records.
func (c FilterCounts) Total() int {
	n := 0
	for _, v := range c {
		n += v
	}
	return n
}

// Add merges other into c.
func (c FilterCounts) Add(other FilterCounts) {
	for k, v := range other {
		c[k] += v
	}
}

// JobStats counts a job's progress through the pipeline stages.
// It is safe for concurrent use.
type JobStats struct {
	mu sync.Mutex

	Fetched     int
	FetchErrors map[FetchErrorKind]int
	Parsed      int
	ParseErrors int
	Chunked     int
	Filtered    FilterCounts
	Records     int
}

// NewJobStats returns zeroed stats.
func NewJobStats() *JobStats {
	return &JobStats{
		FetchErrors: make(map[FetchErrorKind]int),
		Filtered:    make(FilterCounts),
	}
}

// AddFetched counts a successfully fetched document.
func (s *JobStats) AddFetched() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Fetched++
}

// AddFetchError counts a per-document fetch failure.
func (s *JobStats) AddFetchError(kind FetchErrorKind) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.FetchErrors[kind]++
}

// AddParsed counts a successfully parsed document.
func (s *JobStats) AddParsed() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Parsed++
}

// AddParseError counts a skipped document.
func (s *JobStats) AddParseError() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ParseErrors++
}

// AddChunked counts candidate records produced by the chunker.
func (s *JobStats) AddChunked(n int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Chunked += n
}

// AddFiltered counts a rejected record.
func (s *JobStats) AddFiltered(reason FilterReason) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Filtered[reason]++
}

// AddRecords counts records kept for output.
func (s *JobStats) AddRecords(n int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Records += n
}

// Snapshot returns a copy safe to read without locking.
func (s *JobStats) Snapshot() JobStatsSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	snap := JobStatsSnapshot{
		Fetched:     s.Fetched,
		FetchErrors: make(map[FetchErrorKind]int, len(s.FetchErrors)),
		Parsed:      s.Parsed,
		ParseErrors: s.ParseErrors,
		Chunked:     s.Chunked,
		Filtered:    make(FilterCounts, len(s.Filtered)),
		Records:     s.Records,
	}
	for k, v := range s.FetchErrors {
		snap.FetchErrors[k] = v
	}
	snap.Filtered.Add(s.Filtered)
	return snap
}

// JobStatsSnapshot is an immutable copy of JobStats.
type JobStatsSnapshot struct {
	Fetched     int
	FetchErrors map[FetchErrorKind]int
	Parsed      int
	ParseErrors int
	Chunked     int
	Filtered    FilterCounts
	Records     int
}

// FetchErrorTotal sums fetch failures across kinds.
func (s JobStatsSnapshot) FetchErrorTotal() int {
	n := 0
	for _, v := range s.FetchErrors {
		n += v
	}
	return n
}

// JobResult is a job's terminal outcome.
type JobResult struct {
	Name       string
	Kind       JobKind
	State      JobState
	Reason     FailureReason
	Err        error
	StartedAt  time.Time
	EndedAt    time.Time
	Stats      JobStatsSnapshot
	OutputPath string

	// Records is the job output; nil unless the job succeeded.
	Records []Record
}

// Duration returns the job's wall-clock time.
func (r *JobResult) Duration() time.Duration {
	if r.EndedAt.IsZero() || r.StartedAt.IsZero() {
		return 0
	}
	return r.EndedAt.Sub(r.StartedAt)
}

// MergeStats summarises a merge.
type MergeStats struct {
	Input      int
	Filtered   FilterCounts
	Duplicates int
	Merged     int
	OutputPath string
}

// RunSummary is the user-visible report of a harvest or merge run.
type RunSummary struct {
	RunID     string
	MergeOnly bool
	StartedAt time.Time
	EndedAt   time.Time
	Jobs      []JobResult
	Merge     MergeStats
}

// Succeeded returns the names of succeeded jobs, sorted.
func (s *RunSummary) Succeeded() []string {
	var names []string
	for _, j := range s.Jobs {
		if j.State == JobSucceeded {
			names = append(names, j.Name)
		}
	}
	sort.Strings(names)
	return names
}

// Failed returns the failed job results, sorted by name.
func (s *RunSummary) Failed() []JobResult {
	var failed []JobResult
	for _, j := range s.Jobs {
		if j.State == JobFailed {
			failed = append(failed, j)
		}
	}
	sort.Slice(failed, func(a, b int) bool { return failed[a].Name < failed[b].Name })
	return failed
}

// TotalFiltered combines per-job (local) and merge (global) rejections.
func (s *RunSummary) TotalFiltered() FilterCounts {
	total := make(FilterCounts)
	for _, j := range s.Jobs {
		total.Add(j.Stats.Filtered)
	}
	total.Add(s.Merge.Filtered)
	return total
}
