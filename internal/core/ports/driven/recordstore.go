package driven

import (
	"context"

	"github.com/campusgpt/harvester/internal/core/domain"
)

// RecordStore persists per-job outputs and the combined corpus.
// Every write replaces the previous version atomically; readers never
// observe a partial file.
type RecordStore interface {
	// SaveJobOutput replaces the persisted output of a job.
	SaveJobOutput(ctx context.Context, job string, records []domain.Record) (string, error)

	// LoadJobOutput reads a job's persisted output.
	// Returns domain.ErrNotFound if the job has never succeeded.
	LoadJobOutput(ctx context.Context, job string) ([]domain.Record, error)

	// SaveCorpus replaces the combined corpus.
	SaveCorpus(ctx context.Context, records []domain.Record) (string, error)

	// LoadCorpus reads the combined corpus.
	LoadCorpus(ctx context.Context) ([]domain.Record, error)
}
