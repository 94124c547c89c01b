// Package sequencer numbers the records of each document.
package sequencer

import (
	"context"

	"github.com/campusgpt/harvester/internal/core/domain"
)

// Processor assigns ChunkIndex and TotalChunks after filtering so that
// indexes are dense. It implements the PostProcessor interface.
type Processor struct{}

// New creates a sequencer.
func New() *Processor {
	return &Processor{}
}

// Name returns the processor name.
func (p *Processor) Name() string {
	return "sequencer"
}

// Process numbers records in place.
func (p *Processor) Process(_ context.Context, _ *domain.ParsedDocument, records []domain.Record) ([]domain.Record, error) {
	Sequence(records)
	return records, nil
}

// Sequence renumbers records per source document without reordering them:
// each document's records get indexes 0..n-1 in order of appearance and
// share TotalChunks = n.
func Sequence(records []domain.Record) {
	totals := make(map[string]int)
	for i := range records {
		totals[records[i].DocumentKey()]++
	}
	next := make(map[string]int, len(totals))
	for i := range records {
		key := records[i].DocumentKey()
		records[i].ChunkIndex = next[key]
		records[i].TotalChunks = totals[key]
		next[key]++
	}
}
