package driven

import (
	"context"

	"github.com/campusgpt/harvester/internal/core/domain"
)

// RunLedger records the history of runs and their job outcomes.
type RunLedger interface {
	// RecordRun persists a finished run summary.
	RecordRun(ctx context.Context, summary *domain.RunSummary) error

	// ListRuns returns the most recent runs, newest first.
	ListRuns(ctx context.Context, limit int) ([]domain.RunSummary, error)
}
