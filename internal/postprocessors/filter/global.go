package filter

import (
	"github.com/campusgpt/harvester/internal/core/domain"
)

// Global is the merge-time filter.
type Global struct {
	rules Rules
}

// NewGlobal creates a merge-time filter.
func NewGlobal(rules Rules) *Global {
	return &Global{rules: rules}
}

// Local re-applies the per-document checks, which may have changed since
// the job outputs were written.
func (g *Global) Local(records []domain.Record, counts domain.FilterCounts) []domain.Record {
	kept := make([]domain.Record, 0, len(records))
	for i := range records {
		if reason := g.rules.Check(&records[i]); reason != "" {
			counts[reason]++
			continue
		}
		kept = append(kept, records[i])
	}
	return kept
}

// Boilerplate drops every record whose normalised text occurs more than
// the threshold number of times across the input.
func (g *Global) Boilerplate(records []domain.Record, counts domain.FilterCounts) []domain.Record {
	freq := make(map[string]int, len(records))
	for i := range records {
		freq[Normalise(records[i].Text)]++
	}

	kept := make([]domain.Record, 0, len(records))
	for i := range records {
		if freq[Normalise(records[i].Text)] > g.rules.BoilerplateThreshold {
			counts[domain.FilterBoilerplate]++
			continue
		}
		kept = append(kept, records[i])
	}
	return kept
}
