package jsonl

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/campusgpt/harvester/internal/core/domain"
)

func testRecords() []domain.Record {
	at := time.Date(2026, 2, 3, 4, 5, 6, 0, time.UTC)
	return []domain.Record{
		{
			Text:          "Apply by <March 1> & pay the fee.",
			Title:         "Admissions",
			SectionHeader: "Deadlines",
			SourceURL:     "https://www.example.edu/admissions",
			AnchorURL:     "https://www.example.edu/admissions#deadlines",
			AnchorID:      "deadlines",
			HeaderLevel:   2,
			SourceType:    domain.SourceWeb,
			Persona:       "prospective",
			ChunkIndex:    0,
			TotalChunks:   1,
			ScrapedAt:     at,
		},
		{
			Text:        "Refunds are prorated.",
			Title:       "Catalog",
			SourceURL:   "https://www.example.edu/catalog.pdf",
			AnchorURL:   "https://www.example.edu/catalog.pdf#page=4",
			AnchorID:    "page-4",
			PDFPage:     4,
			TotalPages:  10,
			SourceType:  domain.SourcePDF,
			Persona:     "all",
			FAQCategory: "refunds",
			ScrapedAt:   at,
			Priority:    "high",
		},
	}
}

func TestStore_JobOutputRoundTrip(t *testing.T) {
	dir := t.TempDir()
	store, err := NewStore(dir, "")
	require.NoError(t, err)

	ctx := context.Background()
	path, err := store.SaveJobOutput(ctx, "site", testRecords())
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "jobs", "site.jsonl"), path)

	got, err := store.LoadJobOutput(ctx, "site")
	require.NoError(t, err)
	assert.Equal(t, testRecords(), got)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimRight(string(data), "\n"), "\n")
	assert.Len(t, lines, 2)
	assert.Contains(t, lines[0], `"text":"Apply by <March 1> & pay the fee."`)
	assert.Contains(t, lines[1], `"pdf_page":4`)
	assert.NotContains(t, lines[0], `"pdf_page"`)
}

func TestStore_LoadMissingJob(t *testing.T) {
	store, err := NewStore(t.TempDir(), "")
	require.NoError(t, err)

	_, err = store.LoadJobOutput(context.Background(), "never-ran")
	assert.True(t, errors.Is(err, domain.ErrNotFound))

	_, err = store.LoadCorpus(context.Background())
	assert.True(t, errors.Is(err, domain.ErrNotFound))
}

func TestStore_SaveReplacesAndLeavesNoTemp(t *testing.T) {
	dir := t.TempDir()
	store, err := NewStore(dir, "corpus.jsonl")
	require.NoError(t, err)

	ctx := context.Background()
	_, err = store.SaveCorpus(ctx, testRecords())
	require.NoError(t, err)
	path, err := store.SaveCorpus(ctx, testRecords()[:1])
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "corpus.jsonl"), path)

	got, err := store.LoadCorpus(ctx)
	require.NoError(t, err)
	assert.Len(t, got, 1)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	for _, e := range entries {
		assert.False(t, strings.HasSuffix(e.Name(), ".tmp"), "leftover %s", e.Name())
	}
}

func TestStore_EmptyOutput(t *testing.T) {
	store, err := NewStore(t.TempDir(), "")
	require.NoError(t, err)

	ctx := context.Background()
	_, err = store.SaveJobOutput(ctx, "quiet", nil)
	require.NoError(t, err)

	got, err := store.LoadJobOutput(ctx, "quiet")
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestStore_IdenticalInputsIdenticalBytes(t *testing.T) {
	store, err := NewStore(t.TempDir(), "")
	require.NoError(t, err)

	ctx := context.Background()
	path, err := store.SaveCorpus(ctx, testRecords())
	require.NoError(t, err)
	first, err := os.ReadFile(path)
	require.NoError(t, err)

	_, err = store.SaveCorpus(ctx, testRecords())
	require.NoError(t, err)
	second, err := os.ReadFile(path)
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestStore_InvalidJobNames(t *testing.T) {
	store, err := NewStore(t.TempDir(), "")
	require.NoError(t, err)

	for _, name := range []string{"", ".", "..", "a/b", `a\b`} {
		t.Run(name, func(t *testing.T) {
			_, err := store.SaveJobOutput(context.Background(), name, nil)
			assert.True(t, errors.Is(err, domain.ErrInvalidInput))
		})
	}
}

func TestStore_CorpusWriteFailure(t *testing.T) {
	dir := t.TempDir()
	// A regular file where the output directory should be.
	blocker := filepath.Join(dir, "blocked")
	require.NoError(t, os.WriteFile(blocker, []byte("x"), 0o600))

	store, err := NewStore(filepath.Join(blocker, "out"), "")
	require.NoError(t, err)

	_, err = store.SaveCorpus(context.Background(), testRecords())
	assert.Error(t, err)
}

func TestStore_MalformedLine(t *testing.T) {
	dir := t.TempDir()
	store, err := NewStore(dir, "")
	require.NoError(t, err)

	require.NoError(t, os.MkdirAll(filepath.Join(dir, domain.JobsDir), 0o755))
	require.NoError(t, os.WriteFile(store.JobPath("bad"), []byte("{\"text\":\"ok\"}\nnot json\n"), 0o600))

	_, err = store.LoadJobOutput(context.Background(), "bad")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "line 2")
}

func TestNewStore_RequiresDir(t *testing.T) {
	_, err := NewStore("", "")
	assert.True(t, errors.Is(err, domain.ErrInvalidInput))
}
