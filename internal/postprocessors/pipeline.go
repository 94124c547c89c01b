// Package postprocessors turns parsed documents into corpus records.
//
// The default pipeline runs chunker, enricher, filter and sequencer in that
// order. Each stage is a driven.PostProcessor built from the immutable
// domain.Config by a Registry.
package postprocessors

import (
	"context"
	"fmt"

	"github.com/campusgpt/harvester/internal/core/domain"
	"github.com/campusgpt/harvester/internal/core/ports/driven"
)

// Pipeline chains multiple PostProcessors and runs them in order.
// It implements the PostProcessorPipeline interface.
type Pipeline struct {
	processors []driven.PostProcessor
}

// NewPipeline creates a new processing pipeline with the given processors.
// Processors are executed in the order provided.
func NewPipeline(processors ...driven.PostProcessor) *Pipeline {
	return &Pipeline{
		processors: processors,
	}
}

// Process runs the document through all processors in order.
// The first processor receives nil records and should create them.
// Subsequent processors receive and may refine the records.
func (p *Pipeline) Process(ctx context.Context, doc *domain.ParsedDocument) ([]domain.Record, error) {
	if doc == nil {
		return nil, fmt.Errorf("document is nil")
	}

	var records []domain.Record

	for _, processor := range p.processors {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		var err error
		records, err = processor.Process(ctx, doc, records)
		if err != nil {
			return nil, fmt.Errorf("processor %s: %w", processor.Name(), err)
		}
	}

	return records, nil
}

// Add appends a processor to the pipeline.
func (p *Pipeline) Add(processor driven.PostProcessor) {
	p.processors = append(p.processors, processor)
}

// Len returns the number of processors in the pipeline.
func (p *Pipeline) Len() int {
	return len(p.processors)
}

// Names returns the processor names in execution order.
func (p *Pipeline) Names() []string {
	names := make([]string, len(p.processors))
	for i, proc := range p.processors {
		names[i] = proc.Name()
	}
	return names
}
