package memory

import (
	"context"
	"errors"
	"sort"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/campusgpt/harvester/internal/core/domain"
)

func TestRecordStore_SaveAndLoad(t *testing.T) {
	store := NewRecordStore(nil)
	ctx := context.Background()

	records := []domain.Record{{Text: "one", SourceURL: "https://a.edu/"}}
	_, err := store.SaveJobOutput(ctx, "site", records)
	require.NoError(t, err)

	// Mutating the caller's slice must not change the stored copy.
	records[0].Text = "changed"

	got, err := store.LoadJobOutput(ctx, "site")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "one", got[0].Text)
	assert.Equal(t, []string{"site"}, store.Jobs())
}

func TestRecordStore_Missing(t *testing.T) {
	store := NewRecordStore(nil)
	ctx := context.Background()

	_, err := store.LoadJobOutput(ctx, "nope")
	assert.True(t, errors.Is(err, domain.ErrNotFound))
	_, err = store.LoadCorpus(ctx)
	assert.True(t, errors.Is(err, domain.ErrNotFound))
	_, err = store.SaveJobOutput(ctx, "", nil)
	assert.True(t, errors.Is(err, domain.ErrInvalidInput))
}

func TestRecordStore_Fallback(t *testing.T) {
	ctx := context.Background()
	disk := NewRecordStore(nil)
	_, err := disk.SaveJobOutput(ctx, "catalog", []domain.Record{{Text: "persisted"}})
	require.NoError(t, err)
	_, err = disk.SaveCorpus(ctx, []domain.Record{{Text: "old corpus"}})
	require.NoError(t, err)

	store := NewRecordStore(disk)

	got, err := store.LoadJobOutput(ctx, "catalog")
	require.NoError(t, err)
	assert.Equal(t, "persisted", got[0].Text)

	corpus, err := store.LoadCorpus(ctx)
	require.NoError(t, err)
	assert.Equal(t, "old corpus", corpus[0].Text)

	_, err = store.SaveCorpus(ctx, []domain.Record{{Text: "new corpus"}})
	require.NoError(t, err)
	corpus, err = store.LoadCorpus(ctx)
	require.NoError(t, err)
	assert.Equal(t, "new corpus", corpus[0].Text)

	// The fallback is never written.
	corpus, err = disk.LoadCorpus(ctx)
	require.NoError(t, err)
	assert.Equal(t, "old corpus", corpus[0].Text)
	assert.Equal(t, []string{"catalog"}, disk.Jobs())
}

func TestRecordStore_Jobs(t *testing.T) {
	store := NewRecordStore(nil)
	ctx := context.Background()
	for _, name := range []string{"b", "a", "c"} {
		_, err := store.SaveJobOutput(ctx, name, nil)
		require.NoError(t, err)
	}
	jobs := store.Jobs()
	sort.Strings(jobs)
	assert.Equal(t, []string{"a", "b", "c"}, jobs)
}

func TestRunLedger(t *testing.T) {
	ledger := NewRunLedger()
	ctx := context.Background()
	t0 := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	require.NoError(t, ledger.RecordRun(ctx, &domain.RunSummary{RunID: "old", StartedAt: t0}))
	require.NoError(t, ledger.RecordRun(ctx, &domain.RunSummary{RunID: "new", StartedAt: t0.Add(time.Hour)}))
	require.NoError(t, ledger.RecordRun(ctx, &domain.RunSummary{RunID: "mid", StartedAt: t0.Add(time.Minute)}))

	runs, err := ledger.ListRuns(ctx, 2)
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, "new", runs[0].RunID)
	assert.Equal(t, "mid", runs[1].RunID)

	all, err := ledger.ListRuns(ctx, 0)
	require.NoError(t, err)
	assert.Len(t, all, 3)

	assert.True(t, errors.Is(ledger.RecordRun(ctx, &domain.RunSummary{}), domain.ErrInvalidInput))
}
