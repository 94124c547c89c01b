package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/campusgpt/harvester/internal/core/domain"
	"github.com/campusgpt/harvester/internal/core/ports/driven"
)

// Ensure RunLedger implements the interface.
var _ driven.RunLedger = (*RunLedger)(nil)

// RunLedger is an in-memory implementation of driven.RunLedger.
type RunLedger struct {
	mu   sync.RWMutex
	runs map[string]domain.RunSummary
}

// NewRunLedger creates a new in-memory run ledger.
func NewRunLedger() *RunLedger {
	return &RunLedger{runs: make(map[string]domain.RunSummary)}
}

// RecordRun stores or replaces a run.
func (l *RunLedger) RecordRun(_ context.Context, summary *domain.RunSummary) error {
	if summary == nil || summary.RunID == "" {
		return domain.ErrInvalidInput
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.runs[summary.RunID] = *summary
	return nil
}

// ListRuns returns the most recent runs, newest first.
func (l *RunLedger) ListRuns(_ context.Context, limit int) ([]domain.RunSummary, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	result := make([]domain.RunSummary, 0, len(l.runs))
	for id := range l.runs {
		result = append(result, l.runs[id])
	}
	sort.Slice(result, func(i, j int) bool {
		if !result[i].StartedAt.Equal(result[j].StartedAt) {
			return result[i].StartedAt.After(result[j].StartedAt)
		}
		return result[i].RunID > result[j].RunID
	})
	if limit > 0 && len(result) > limit {
		result = result[:limit]
	}
	return result, nil
}
