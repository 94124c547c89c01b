package enricher

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/campusgpt/harvester/internal/core/domain"
)

func TestPersonaTagger_Tag(t *testing.T) {
	tagger := NewPersonaTagger(domain.DefaultRules().PersonaRules)

	tests := []struct {
		url  string
		want string
	}{
		{"https://www.nku.edu/financial-aid/grants.html", "financial"},
		{"https://www.nku.edu/faculty/handbook", "faculty"},
		{"https://www.nku.edu/admissions/dates.html", "prospective"},
		{"https://www.nku.edu/about", "all"},
		{"https://www.nku.edu/faculty-senate/minutes", "all"},
		{"https://inside.nku.edu/housing/rates", "faculty,housing"},
		{"https://inside.nku.edu/faculty", "faculty"},
		{"HTTPS://WWW.NKU.EDU/Housing", "housing"},
		{"://bad url", "all"},
	}

	for _, tt := range tests {
		t.Run(tt.url, func(t *testing.T) {
			assert.Equal(t, tt.want, tagger.Tag(tt.url))
		})
	}
}

func TestPersonaTagger_LongestMatchWinsWithinFacet(t *testing.T) {
	tagger := NewPersonaTagger([]domain.PersonaRule{
		{Facet: "audience", PathPrefix: "/students", Persona: domain.PersonaStudent},
		{Facet: "audience", PathPrefix: "/students/prospective", Persona: domain.PersonaProspective},
		{Facet: "topic", PathPrefix: "/students/prospective/aid", Persona: domain.PersonaFinancial},
	})

	assert.Equal(t, "student", tagger.Tag("https://x.edu/students/life"))
	assert.Equal(t, "prospective", tagger.Tag("https://x.edu/students/prospective/visit"))
	assert.Equal(t, "prospective,financial", tagger.Tag("https://x.edu/students/prospective/aid/loans"))
}

func TestSimilarity(t *testing.T) {
	assert.InDelta(t, 1.0, Similarity("campus map", "campus map"), 1e-9)
	assert.InDelta(t, 0.0, Similarity("abc", "xyz"), 1e-9)
	assert.InDelta(t, 1.0, Similarity("", ""), 1e-9)
	// difflib.SequenceMatcher(None, "abcd", "bcde").ratio() == 0.75
	assert.InDelta(t, 0.75, Similarity("abcd", "bcde"), 1e-9)
	assert.Greater(t, Similarity("registrars office", "registrar's office"), 0.85)
}

func TestFAQClassifier_Classify(t *testing.T) {
	c := NewFAQClassifier(domain.DefaultRules().FAQ, 0.85)

	tests := []struct {
		name   string
		url    string
		labels []string
		want   string
	}{
		{"header matches question", "https://www.nku.edu/about", []string{"About", "Campus Map"}, "campus_map"},
		{"near match above threshold", "https://www.nku.edu/about", []string{"Registrars Office"}, "registrar"},
		{"url under faq entry", "https://www.nku.edu/registrar/transcripts", []string{"Ordering"}, "registrar"},
		{"url sibling is not a prefix match", "https://www.nku.edu/registrar-archive", []string{"Ordering"}, ""},
		{"unrelated", "https://www.nku.edu/athletics", []string{"Basketball Schedule"}, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, c.Classify(tt.url, tt.labels...))
		})
	}
}

func TestProcessor_Process(t *testing.T) {
	p := New(domain.DefaultRules(), 0.85)
	assert.Equal(t, "enricher", p.Name())

	doc := &domain.ParsedDocument{URL: "https://www.nku.edu/financial-aid/index.html"}
	records := []domain.Record{
		{SourceURL: doc.URL, Title: "Aid", SectionHeader: "Financial Aid & Tuition"},
		{SourceURL: doc.URL, Title: "Aid", SectionHeader: "Work Study"},
	}

	out, err := p.Process(context.Background(), doc, records)
	require.NoError(t, err)
	require.Len(t, out, 2)
	assert.Equal(t, "financial", out[0].Persona)
	assert.Equal(t, "financial_aid", out[0].FAQCategory)
	assert.Equal(t, "financial", out[1].Persona)
	assert.Empty(t, out[1].FAQCategory)
}

func TestProcessor_HintsOverrideRules(t *testing.T) {
	p := New(domain.DefaultRules(), 0.85)
	doc := &domain.ParsedDocument{
		URL:   "https://www.nku.edu/catalog.pdf",
		Hints: domain.SourceHints{Persona: "student, prospective", FAQCategory: "academic_calendar"},
	}

	out, err := p.Process(context.Background(), doc, []domain.Record{{SourceURL: doc.URL}})
	require.NoError(t, err)
	assert.Equal(t, "student,prospective", out[0].Persona)
	assert.Equal(t, "academic_calendar", out[0].FAQCategory)
}
