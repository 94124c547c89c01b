package filter

import (
	"context"

	"github.com/campusgpt/harvester/internal/core/domain"
	"github.com/campusgpt/harvester/internal/core/ports/driven"
)

// Processor drops records failing the local checks.
// It implements the PostProcessor interface.
type Processor struct {
	rules    Rules
	observer driven.PipelineObserver
}

// New creates a local filter. obs may be nil.
func New(rules Rules, obs driven.PipelineObserver) *Processor {
	return &Processor{rules: rules, observer: obs}
}

// Name returns the processor name.
func (p *Processor) Name() string {
	return "filter"
}

// Process returns the records that pass, preserving order.
func (p *Processor) Process(_ context.Context, _ *domain.ParsedDocument, records []domain.Record) ([]domain.Record, error) {
	kept := records[:0]
	for i := range records {
		if reason := p.rules.Check(&records[i]); reason != "" {
			if p.observer != nil {
				p.observer.Rejected(&records[i], reason)
			}
			continue
		}
		kept = append(kept, records[i])
	}
	return kept, nil
}
