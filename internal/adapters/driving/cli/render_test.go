package cli

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/campusgpt/harvester/internal/core/domain"
	"github.com/campusgpt/harvester/internal/core/ports/driving"
)

func TestFormatFilterCounts(t *testing.T) {
	got := formatFilterCounts(domain.FilterCounts{domain.FilterBoilerplate: 2, domain.FilterLength: 1})
	assert.Equal(t, "length 1, error_page 0, boilerplate 2", got)
}

func TestFormatFetchErrors(t *testing.T) {
	tests := []struct {
		name string
		errs map[domain.FetchErrorKind]int
		want string
	}{
		{"none", nil, "0"},
		{"zero entries", map[domain.FetchErrorKind]int{domain.FetchNetwork: 0}, "0"},
		{"mixed", map[domain.FetchErrorKind]int{domain.FetchNotFound: 1, domain.FetchNetwork: 2}, "3 (network 2, not-found 1)"},
		{"disallowed", map[domain.FetchErrorKind]int{domain.FetchDisallowed: 4}, "4 (disallowed-domain 4)"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, formatFetchErrors(tt.errs))
		})
	}
}

func TestFormatDuration(t *testing.T) {
	tests := []struct {
		in   time.Duration
		want string
	}{
		{0, "-"},
		{-time.Second, "-"},
		{1500 * time.Microsecond, "2ms"},
		{61*time.Second + 400*time.Millisecond, "1m1s"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, formatDuration(tt.in))
	}
}

func TestProgressLine(t *testing.T) {
	line := progressLine([]driving.JobStatus{
		{Job: "a", State: domain.JobSucceeded, DocumentsProcessed: 10},
		{Job: "b", State: domain.JobRunning, DocumentsProcessed: 5, ErrorCount: 2},
		{Job: "c", State: domain.JobPending},
	})

	assert.Equal(t, "Harvesting... 1/3 jobs done, 1 running, 15 documents (2 errors)", line)
}

func TestRenderSummary_NoJobs(t *testing.T) {
	var buf bytes.Buffer
	renderSummary(&buf, &domain.RunSummary{RunID: "r", Merge: domain.MergeStats{Filtered: domain.FilterCounts{}}})

	out := buf.String()
	assert.Contains(t, out, "Run r")
	assert.NotContains(t, out, "JOB")
	assert.Contains(t, out, "merged 0")
}

func TestStateText(t *testing.T) {
	assert.Equal(t, "succeeded", stateText(domain.JobSucceeded, domain.FailureNone))
	assert.Equal(t, "failed (missing)", stateText(domain.JobFailed, domain.FailureMissing))
	assert.Equal(t, "failed", stateText(domain.JobFailed, domain.FailureNone))
}
