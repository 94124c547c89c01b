package filter

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/campusgpt/harvester/internal/core/domain"
)

type recordingObserver struct {
	reasons []domain.FilterReason
}

func (o *recordingObserver) Chunked(int) {}
func (o *recordingObserver) Rejected(_ *domain.Record, reason domain.FilterReason) {
	o.reasons = append(o.reasons, reason)
}

func testRules() Rules {
	cfg := domain.DefaultConfig()
	return RulesFrom(cfg)
}

func TestRules_CheckLengthBoundaries(t *testing.T) {
	r := testRules()

	tests := []struct {
		name string
		n    int
		want domain.FilterReason
	}{
		{"empty", 0, domain.FilterLength},
		{"one below min", 199, domain.FilterLength},
		{"exactly min", 200, ""},
		{"exactly max", 3000, ""},
		{"one above max", 3001, domain.FilterLength},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := &domain.Record{Text: strings.Repeat("é", tt.n)}
			assert.Equal(t, tt.want, r.Check(rec))
		})
	}
}

func TestRules_CheckErrorSignatures(t *testing.T) {
	r := testRules()
	r.MinLen = 1
	filler := strings.Repeat("Regular course content. ", 20)

	tests := []struct {
		name string
		rec  domain.Record
		want domain.FilterReason
	}{
		{"exact signature text", domain.Record{Text: "Page Not Found"}, domain.FilterErrorPage},
		{"signature in title", domain.Record{Title: "404 - Missing", Text: filler}, domain.FilterErrorPage},
		{"signature near start", domain.Record{Text: "Sorry,   the page you requested\ncould not be found. " + filler}, domain.FilterErrorPage},
		{"signature past window", domain.Record{Text: filler + "page not found"}, ""},
		{"clean", domain.Record{Title: "Housing", Text: filler}, ""},
		{"status code title", domain.Record{Title: "404 Not Found", Text: filler}, domain.FilterErrorPage},
		{"bare status code title", domain.Record{Title: "404", Text: filler}, domain.FilterErrorPage},
		{"status code text only", domain.Record{Text: "404"}, domain.FilterErrorPage},
		{"phone number", domain.Record{Text: "Call 859-572-5404 for advising. " + filler}, ""},
		{"course code in text", domain.Record{Text: "CSC 404 covers algorithm design. " + filler}, ""},
		{"course code in title", domain.Record{Title: "CSC 404: Algorithms", Text: filler}, ""},
		{"course code leads title", domain.Record{Title: "4040 Seminar", Text: filler}, ""},
		{"phrase inside word", domain.Record{Text: "Our noaccess denied-list policy. " + filler}, ""},
		{"phrase with punctuation", domain.Record{Text: "Error: access denied. " + filler}, domain.FilterErrorPage},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, r.Check(&tt.rec))
		})
	}
}

func TestProcessor_Process(t *testing.T) {
	obs := &recordingObserver{}
	p := New(testRules(), obs)
	assert.Equal(t, "filter", p.Name())

	good := strings.Repeat("Good content about tuition. ", 10)
	records := []domain.Record{
		{Text: good, ChunkIndex: 0},
		{Text: "short", ChunkIndex: 1},
		{Text: good, Title: "Page not found", ChunkIndex: 2},
		{Text: good, ChunkIndex: 3},
	}

	out, err := p.Process(context.Background(), &domain.ParsedDocument{}, records)
	require.NoError(t, err)
	require.Len(t, out, 2)
	assert.Equal(t, 0, out[0].ChunkIndex)
	assert.Equal(t, 3, out[1].ChunkIndex)
	assert.Equal(t, []domain.FilterReason{domain.FilterLength, domain.FilterErrorPage}, obs.reasons)
}

func TestGlobal_Boilerplate(t *testing.T) {
	g := NewGlobal(Rules{BoilerplateThreshold: 2})
	counts := make(domain.FilterCounts)

	records := []domain.Record{
		{Text: "Cookie banner text", SourceURL: "a"},
		{Text: "cookie   banner TEXT", SourceURL: "b"},
		{Text: "Cookie banner text", SourceURL: "c"},
		{Text: "Unique", SourceURL: "d"},
		{Text: "Twice", SourceURL: "e"},
		{Text: "Twice", SourceURL: "f"},
	}

	out := g.Boilerplate(records, counts)

	var urls []string
	for _, r := range out {
		urls = append(urls, r.SourceURL)
	}
	assert.Equal(t, []string{"d", "e", "f"}, urls)
	assert.Equal(t, 3, counts[domain.FilterBoilerplate])
}

func TestGlobal_Local(t *testing.T) {
	g := NewGlobal(testRules())
	counts := make(domain.FilterCounts)
	good := strings.Repeat("Admissions information. ", 12)

	out := g.Local([]domain.Record{
		{Text: good},
		{Text: "404"},
		{Text: strings.Repeat("a", 4000)},
	}, counts)

	require.Len(t, out, 1)
	assert.Equal(t, 2, counts[domain.FilterLength])
	assert.Equal(t, 2, counts.Total())
}
