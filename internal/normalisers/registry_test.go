package normalisers

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/campusgpt/harvester/internal/core/domain"
)

type stubNormaliser struct {
	name     string
	types    []string
	priority int
}

func (s *stubNormaliser) SupportedMIMETypes() []string { return s.types }
func (s *stubNormaliser) Priority() int                { return s.priority }
func (s *stubNormaliser) Normalise(_ context.Context, raw *domain.RawDocument) (*domain.ParsedDocument, error) {
	return &domain.ParsedDocument{URL: raw.URL, Title: s.name}, nil
}

func TestDetectMIMEType(t *testing.T) {
	tests := []struct {
		name string
		raw  domain.RawDocument
		want string
	}{
		{"declared with params", domain.RawDocument{MIMEType: "text/html; charset=utf-8"}, "text/html"},
		{"pdf magic wins", domain.RawDocument{MIMEType: "text/html", Content: []byte("%PDF-1.7\n")}, "application/pdf"},
		{"octet stream uses extension", domain.RawDocument{MIMEType: "application/octet-stream", URL: "https://x.edu/a/cat.PDF"}, "application/pdf"},
		{"no type uses extension", domain.RawDocument{URL: "/tmp/page.htm"}, "text/html"},
		{"unknown extension keeps declared", domain.RawDocument{MIMEType: "application/octet-stream", URL: "https://x.edu/a.bin"}, "application/octet-stream"},
		{"nothing known defaults to html", domain.RawDocument{URL: "https://x.edu/about"}, "text/html"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, DetectMIMEType(&tt.raw))
		})
	}
}

func TestRegistry_PrefersHigherPriority(t *testing.T) {
	r := NewRegistry()
	r.Register(&stubNormaliser{name: "low", types: []string{"text/html"}, priority: 10})
	r.Register(&stubNormaliser{name: "high", types: []string{"text/html"}, priority: 90})

	doc, err := r.Normalise(context.Background(), &domain.RawDocument{URL: "u", MIMEType: "text/html"})
	require.NoError(t, err)
	assert.Equal(t, "high", doc.Title)
}

func TestRegistry_Unsupported(t *testing.T) {
	r := NewRegistry()
	_, err := r.Normalise(context.Background(), &domain.RawDocument{URL: "u", MIMEType: "image/png"})
	assert.True(t, errors.Is(err, domain.ErrUnsupportedType))

	_, err = r.Normalise(context.Background(), nil)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestNewDefault(t *testing.T) {
	r, err := NewDefault(domain.DefaultConfig())
	require.NoError(t, err)
	assert.Equal(t, []string{"application/pdf", "application/xhtml+xml", "text/html"}, r.SupportedMIMETypes())

	doc, err := r.Normalise(context.Background(), &domain.RawDocument{
		URL:     "https://www.nku.edu/about.html",
		Content: []byte("<h2 id='mission'>Mission</h2><p>We educate.</p>"),
	})
	require.NoError(t, err)
	require.Len(t, doc.Sections, 1)
	assert.Equal(t, "mission", doc.Sections[0].HeaderID)
}

func TestNewDefault_BadPattern(t *testing.T) {
	cfg := domain.DefaultConfig()
	cfg.Rules.BoilerplatePatterns = []string{"("}
	_, err := NewDefault(cfg)
	assert.Error(t, err)
}
