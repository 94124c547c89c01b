package services

import (
	"context"
	"fmt"
	"sort"

	"github.com/campusgpt/harvester/internal/core/domain"
	"github.com/campusgpt/harvester/internal/core/ports/driven"
	"github.com/campusgpt/harvester/internal/logger"
	"github.com/campusgpt/harvester/internal/postprocessors/filter"
	"github.com/campusgpt/harvester/internal/postprocessors/sequencer"
)

// JobOutput is the record list of one succeeded job.
type JobOutput struct {
	Job     string
	Records []domain.Record
}

// Merger combines job outputs into the canonical corpus. It is the only
// writer of the corpus file.
type Merger struct {
	store   driven.RecordStore
	global  *filter.Global
	metrics driven.Metrics
}

// NewMerger creates a merger applying cfg's filter rules.
func NewMerger(cfg domain.Config, store driven.RecordStore, metrics driven.Metrics) *Merger {
	if metrics == nil {
		metrics = nopMetrics{}
	}
	return &Merger{
		store:   store,
		global:  filter.NewGlobal(filter.RulesFrom(cfg)),
		metrics: metrics,
	}
}

// Combine runs the merge steps in memory: concatenate outputs in job-name
// order, re-apply the local checks, deduplicate by record key keeping the
// latest capture, drop boilerplate, restore each document's page and chunk
// order, then renumber chunks.
func (m *Merger) Combine(outputs []JobOutput) ([]domain.Record, domain.MergeStats) {
	sorted := append([]JobOutput(nil), outputs...)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Job < sorted[j].Job })

	var all []domain.Record
	for _, out := range sorted {
		all = append(all, out.Records...)
	}

	stats := domain.MergeStats{Input: len(all), Filtered: make(domain.FilterCounts)}

	kept := m.global.Local(all, stats.Filtered)
	unique := Deduplicate(kept)
	stats.Duplicates = len(kept) - len(unique)
	merged := m.global.Boilerplate(unique, stats.Filtered)
	orderWithinDocuments(merged)
	sequencer.Sequence(merged)

	stats.Merged = len(merged)
	return merged, stats
}

// Merge combines outputs and writes the corpus. A write failure is
// returned as *domain.MergeError.
func (m *Merger) Merge(ctx context.Context, outputs []JobOutput) (domain.MergeStats, error) {
	records, stats := m.Combine(outputs)

	path, err := m.store.SaveCorpus(ctx, records)
	if err != nil {
		jobs := make([]string, len(outputs))
		for i, out := range outputs {
			jobs[i] = out.Job
		}
		return stats, &domain.MergeError{Succeeded: jobs, Err: fmt.Errorf("write corpus: %w", err)}
	}
	stats.OutputPath = path

	for reason, n := range stats.Filtered {
		for i := 0; i < n; i++ {
			m.metrics.RecordFiltered(StageMerge, reason)
		}
	}
	m.metrics.Merged(stats.Merged, stats.Duplicates)

	logger.Info("Merged %d records (%d duplicates, %d filtered) into %s",
		stats.Merged, stats.Duplicates, stats.Filtered.Total(), path)
	return stats, nil
}

// Deduplicate keeps one record per key: the one with the latest
// scraped_at, or the later occurrence on a tie. Survivors keep the
// position of their winning occurrence.
func Deduplicate(records []domain.Record) []domain.Record {
	winner := make(map[string]int, len(records))
	for i := range records {
		key := records[i].Key()
		prev, ok := winner[key]
		if !ok || !records[i].ScrapedAt.Before(records[prev].ScrapedAt) {
			winner[key] = i
		}
	}

	out := make([]domain.Record, 0, len(winner))
	for i := range records {
		if winner[records[i].Key()] == i {
			out = append(out, records[i])
		}
	}
	return out
}

// orderWithinDocuments sorts each document's records by page then chunk
// index. Records stay in the slots their document already occupies, so
// the relative order of different documents is unchanged. A winning
// duplicate from a later job therefore lands back at its chunk position.
func orderWithinDocuments(records []domain.Record) {
	slots := make(map[string][]int)
	var docs []string
	for i := range records {
		key := records[i].DocumentKey()
		if _, ok := slots[key]; !ok {
			docs = append(docs, key)
		}
		slots[key] = append(slots[key], i)
	}

	for _, key := range docs {
		idx := slots[key]
		if len(idx) < 2 {
			continue
		}
		group := make([]domain.Record, len(idx))
		for j, i := range idx {
			group[j] = records[i]
		}
		sort.SliceStable(group, func(a, b int) bool {
			if group[a].PDFPage != group[b].PDFPage {
				return group[a].PDFPage < group[b].PDFPage
			}
			return group[a].ChunkIndex < group[b].ChunkIndex
		})
		for j, i := range idx {
			records[i] = group[j]
		}
	}
}
