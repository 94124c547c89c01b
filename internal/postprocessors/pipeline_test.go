package postprocessors

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/campusgpt/harvester/internal/core/domain"
	"github.com/campusgpt/harvester/internal/core/ports/driven"
)

// mockProcessor is a test processor that returns predefined records.
type mockProcessor struct {
	name    string
	records []domain.Record
	err     error
	calls   int
}

func (m *mockProcessor) Name() string {
	return m.name
}

func (m *mockProcessor) Process(_ context.Context, _ *domain.ParsedDocument, records []domain.Record) ([]domain.Record, error) {
	m.calls++
	if m.err != nil {
		return nil, m.err
	}
	if m.records != nil {
		return m.records, nil
	}
	return records, nil
}

type statsObserver struct {
	mu       sync.Mutex
	chunked  int
	rejected map[domain.FilterReason]int
}

func (o *statsObserver) Chunked(n int) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.chunked += n
}

func (o *statsObserver) Rejected(_ *domain.Record, reason domain.FilterReason) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.rejected == nil {
		o.rejected = make(map[domain.FilterReason]int)
	}
	o.rejected[reason]++
}

func TestPipeline_Process_NilDocument(t *testing.T) {
	_, err := NewPipeline().Process(context.Background(), nil)
	assert.Error(t, err)
}

func TestPipeline_Process_EmptyPipeline(t *testing.T) {
	records, err := NewPipeline().Process(context.Background(), &domain.ParsedDocument{})
	require.NoError(t, err)
	assert.Nil(t, records)
}

func TestPipeline_Process_ChainsInOrder(t *testing.T) {
	first := &mockProcessor{name: "first", records: []domain.Record{{Text: "a"}}}
	second := &mockProcessor{name: "second"}
	p := NewPipeline(first, second)

	records, err := p.Process(context.Background(), &domain.ParsedDocument{})
	require.NoError(t, err)
	assert.Equal(t, []domain.Record{{Text: "a"}}, records)
	assert.Equal(t, []string{"first", "second"}, p.Names())
	assert.Equal(t, 1, second.calls)
}

func TestPipeline_Process_ErrorStopsChain(t *testing.T) {
	failing := &mockProcessor{name: "failing", err: errors.New("boom")}
	after := &mockProcessor{name: "after"}
	p := NewPipeline(failing)
	p.Add(after)

	_, err := p.Process(context.Background(), &domain.ParsedDocument{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "processor failing")
	assert.Equal(t, 0, after.calls)
	assert.Equal(t, 2, p.Len())
}

func TestPipeline_Process_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewPipeline(&mockProcessor{name: "x"}).Process(ctx, &domain.ParsedDocument{})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestRegistry(t *testing.T) {
	r := NewRegistry()
	RegisterDefaults(r)

	assert.Equal(t, []string{"chunker", "enricher", "filter", "sequencer"}, r.Names())
	assert.True(t, r.Has("chunker"))
	assert.False(t, r.Has("embedder"))

	_, err := r.Build("embedder", Env{Config: domain.DefaultConfig()})
	assert.Error(t, err)

	proc, err := r.Build("enricher", Env{Config: domain.DefaultConfig()})
	require.NoError(t, err)
	assert.Equal(t, "enricher", proc.Name())
}

func TestFactory_UnknownStage(t *testing.T) {
	r := NewRegistry()
	f := NewFactoryWith(domain.DefaultConfig(), r, []string{"missing"})

	_, err := f.NewPipeline(nil)
	assert.Error(t, err)
}

func TestFactory_DefaultPipelineEndToEnd(t *testing.T) {
	cfg := domain.DefaultConfig()
	obs := &statsObserver{}
	pipeline, err := NewFactory(cfg).NewPipeline(obs)
	require.NoError(t, err)

	padding := strings.Repeat(" Applications are reviewed on a rolling basis by the admissions office.", 3)
	doc := &domain.ParsedDocument{
		URL:        "https://www.nku.edu/admissions/dates.html",
		Title:      "Important Dates",
		SourceType: domain.SourceWeb,
		Sections: []domain.Section{
			{HeaderText: "Deadlines", HeaderLevel: 2, HeaderID: "deadlines", Body: "Fall 2026: Aug 1." + padding},
			{HeaderText: "Oops", HeaderLevel: 2, HeaderID: "oops", Body: "Page not found." + padding},
			{HeaderText: "Costs", HeaderLevel: 2, HeaderID: "costs", Body: "Tuition: $11,000." + padding},
		},
	}

	records, err := pipeline.Process(context.Background(), doc)
	require.NoError(t, err)
	require.Len(t, records, 2)

	assert.True(t, strings.HasSuffix(records[0].AnchorURL, "#deadlines"))
	assert.True(t, strings.HasSuffix(records[1].AnchorURL, "#costs"))
	for i, rec := range records {
		assert.Equal(t, i, rec.ChunkIndex)
		assert.Equal(t, 2, rec.TotalChunks)
		assert.Equal(t, domain.PersonaProspective, rec.Persona)
	}

	assert.Equal(t, 3, obs.chunked)
	assert.Equal(t, 1, obs.rejected[domain.FilterErrorPage])
}

var _ driven.PostProcessorPipeline = (*Pipeline)(nil)
var _ driven.PipelineFactory = (*Factory)(nil)
