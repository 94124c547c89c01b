package driven

import (
	"context"

	"github.com/campusgpt/harvester/internal/core/domain"
)

// PostProcessor turns a parsed document into records or refines them.
// PostProcessors are chained in a pipeline (chunk, enrich, filter, sequence).
type PostProcessor interface {
	// Name returns the processor name for logging and configuration.
	Name() string

	// Process takes a document and returns records.
	// The chunker receives nil and creates records; later processors
	// receive the previous output and may annotate or drop records.
	Process(ctx context.Context, doc *domain.ParsedDocument, records []domain.Record) ([]domain.Record, error)
}

// PostProcessorPipeline chains multiple PostProcessors.
type PostProcessorPipeline interface {
	// Process runs the document through all processors in order.
	Process(ctx context.Context, doc *domain.ParsedDocument) ([]domain.Record, error)
}

// PipelineObserver receives per-stage counts while a document flows
// through the pipeline. Implementations must be safe for concurrent use.
type PipelineObserver interface {
	// Chunked reports the candidate records the chunker produced.
	Chunked(n int)

	// Rejected reports a record dropped by a filter.
	Rejected(record *domain.Record, reason domain.FilterReason)
}

// PipelineFactory builds the pipeline of one harvest job.
type PipelineFactory interface {
	// NewPipeline returns a pipeline reporting to obs (which may be nil).
	NewPipeline(obs PipelineObserver) (PostProcessorPipeline, error)
}
