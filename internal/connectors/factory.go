package connectors

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/campusgpt/harvester/internal/connectors/pdf"
	"github.com/campusgpt/harvester/internal/connectors/web"
	"github.com/campusgpt/harvester/internal/core/domain"
	"github.com/campusgpt/harvester/internal/core/ports/driven"
)

// Ensure Factory implements the interface.
var _ driven.ConnectorFactory = (*Factory)(nil)

// Builder creates a Connector for one job.
type Builder func(ctx context.Context, job domain.JobConfig) (driven.Connector, error)

// Factory maps job kinds to connector builders.
type Factory struct {
	mu       sync.RWMutex
	builders map[domain.JobKind]Builder
}

// NewFactory creates a factory with the web and pdf connectors registered.
// cache may be nil.
func NewFactory(cfg domain.Config, cache driven.FetchCache, opts ...web.FetcherOption) *Factory {
	f := &Factory{builders: make(map[domain.JobKind]Builder)}

	f.Register(domain.JobWeb, func(_ context.Context, job domain.JobConfig) (driven.Connector, error) {
		return web.New(cfg, job, opts...)
	})
	f.Register(domain.JobPDF, func(_ context.Context, job domain.JobConfig) (driven.Connector, error) {
		remote, err := web.NewFetcher(job.Name, cfg, opts...)
		if err != nil {
			return nil, err
		}
		return pdf.New(cfg, job, remote, cache)
	})
	return f
}

// Register adds or replaces the builder for kind.
func (f *Factory) Register(kind domain.JobKind, b Builder) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.builders[kind] = b
}

// Create returns a connector for job.
// Returns ErrUnsupportedType if the job kind is unknown.
func (f *Factory) Create(ctx context.Context, job domain.JobConfig) (driven.Connector, error) {
	f.mu.RLock()
	b, ok := f.builders[job.Kind]
	f.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: job kind %q", domain.ErrUnsupportedType, job.Kind)
	}
	return b(ctx, job)
}

// SupportedKinds returns the registered job kinds, sorted.
func (f *Factory) SupportedKinds() []domain.JobKind {
	f.mu.RLock()
	defer f.mu.RUnlock()
	kinds := make([]domain.JobKind, 0, len(f.builders))
	for k := range f.builders {
		kinds = append(kinds, k)
	}
	sort.Slice(kinds, func(i, j int) bool { return kinds[i] < kinds[j] })
	return kinds
}
