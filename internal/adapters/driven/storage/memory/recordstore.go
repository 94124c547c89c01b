package memory

import (
	"context"
	"sync"

	"github.com/campusgpt/harvester/internal/core/domain"
	"github.com/campusgpt/harvester/internal/core/ports/driven"
)

// Ensure RecordStore implements the interface.
var _ driven.RecordStore = (*RecordStore)(nil)

// RecordStore is an in-memory implementation of driven.RecordStore.
type RecordStore struct {
	mu       sync.RWMutex
	jobs     map[string][]domain.Record
	corpus   []domain.Record
	saved    bool
	fallback driven.RecordStore
}

// NewRecordStore creates a new in-memory record store. Loads of outputs
// never saved here are served by fallback, which may be nil.
func NewRecordStore(fallback driven.RecordStore) *RecordStore {
	return &RecordStore{
		jobs:     make(map[string][]domain.Record),
		fallback: fallback,
	}
}

// SaveJobOutput stores a copy of a job's records.
func (s *RecordStore) SaveJobOutput(_ context.Context, job string, records []domain.Record) (string, error) {
	if job == "" {
		return "", domain.ErrInvalidInput
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.jobs[job] = append([]domain.Record{}, records...)
	return "memory:jobs/" + job, nil
}

// LoadJobOutput retrieves a job's records.
func (s *RecordStore) LoadJobOutput(ctx context.Context, job string) ([]domain.Record, error) {
	s.mu.RLock()
	records, ok := s.jobs[job]
	s.mu.RUnlock()
	if ok {
		return append([]domain.Record{}, records...), nil
	}
	if s.fallback != nil {
		return s.fallback.LoadJobOutput(ctx, job)
	}
	return nil, domain.ErrNotFound
}

// SaveCorpus stores a copy of the combined corpus.
func (s *RecordStore) SaveCorpus(_ context.Context, records []domain.Record) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.corpus = append([]domain.Record{}, records...)
	s.saved = true
	return "memory:corpus", nil
}

// LoadCorpus retrieves the combined corpus.
func (s *RecordStore) LoadCorpus(ctx context.Context) ([]domain.Record, error) {
	s.mu.RLock()
	corpus, saved := s.corpus, s.saved
	s.mu.RUnlock()
	if saved {
		return append([]domain.Record{}, corpus...), nil
	}
	if s.fallback != nil {
		return s.fallback.LoadCorpus(ctx)
	}
	return nil, domain.ErrNotFound
}

// Jobs returns the names of jobs saved in memory.
func (s *RecordStore) Jobs() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	names := make([]string, 0, len(s.jobs))
	for name := range s.jobs {
		names = append(names, name)
	}
	return names
}

