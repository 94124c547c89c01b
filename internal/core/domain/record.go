package domain

import (
	"fmt"
	"strings"
	"time"
)

// SourceType identifies how a record's source document was harvested.
type SourceType string

const (
	// SourceWeb is an HTML page.
	SourceWeb SourceType = "web"

	// SourcePDF is a PDF document.
	SourcePDF SourceType = "pdf"
)

// Valid reports whether the source type is a known value.
func (t SourceType) Valid() bool {
	return t == SourceWeb || t == SourcePDF
}

// Persona tags from the fixed audience vocabulary.
const (
	PersonaStudent     = "student"
	PersonaFaculty     = "faculty"
	PersonaProspective = "prospective"
	PersonaFinancial   = "financial"
	PersonaHousing     = "housing"
	PersonaAll         = "all"
)

// Personas lists the full audience vocabulary in canonical order.
var Personas = []string{
	PersonaStudent,
	PersonaFaculty,
	PersonaProspective,
	PersonaFinancial,
	PersonaHousing,
	PersonaAll,
}

// IsPersona reports whether tag belongs to the audience vocabulary.
func IsPersona(tag string) bool {
	for _, p := range Personas {
		if p == tag {
			return true
		}
	}
	return false
}

// JoinPersonas joins persona tags with commas, dropping blanks and repeats.
// An empty input yields PersonaAll.
func JoinPersonas(tags []string) string {
	seen := make(map[string]bool, len(tags))
	out := make([]string, 0, len(tags))
	for _, tag := range tags {
		tag = strings.TrimSpace(tag)
		if tag == "" || seen[tag] {
			continue
		}
		seen[tag] = true
		out = append(out, tag)
	}
	if len(out) == 0 {
		return PersonaAll
	}
	return strings.Join(out, ",")
}

// SplitPersonas splits a comma-joined persona field.
func SplitPersonas(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// Record is one retrievable section of a source document.
// It is the unit the pipeline produces and the line format of every
// job output and of the combined corpus.
type Record struct {
	// Text is the cleaned content of the section.
	Text string `json:"text"`

	// Title is the document-level title.
	Title string `json:"title"`

	// SectionHeader is the nearest enclosing header text, or a synthetic label.
	SectionHeader string `json:"section_header"`

	// SourceURL is the canonical location of the source document.
	SourceURL string `json:"source_url"`

	// AnchorURL is SourceURL plus a locator fragment, or SourceURL alone.
	AnchorURL string `json:"anchor_url"`

	// AnchorID is the bare locator (header id or page-N).
	AnchorID string `json:"anchor_id"`

	// HeaderLevel is the heading depth (1-6) for web sections.
	HeaderLevel int `json:"header_level,omitempty"`

	// PDFPage is the 1-based page the section starts on.
	PDFPage int `json:"pdf_page,omitempty"`

	// TotalPages is the page count of the source PDF.
	TotalPages int `json:"total_pages,omitempty"`

	// SourceType is web or pdf.
	SourceType SourceType `json:"source_type"`

	// Persona is a comma-joined list of audience tags.
	Persona string `json:"persona"`

	// FAQCategory links to a known quick-answer topic.
	FAQCategory string `json:"faq_category,omitempty"`

	// ChunkIndex is the 0-based position among sibling records.
	ChunkIndex int `json:"chunk_index"`

	// TotalChunks is the number of sibling records of the document.
	TotalChunks int `json:"total_chunks"`

	// ScrapedAt is the capture timestamp.
	ScrapedAt time.Time `json:"scraped_at"`

	// Job names the harvest job that produced the record.
	Job string `json:"job,omitempty"`

	// Priority is the configured source priority, if any.
	Priority string `json:"priority,omitempty"`
}

// Key returns the record identity used for deduplication.
// Web records are keyed by (source_url, chunk_index); PDF records
// additionally carry the page.
func (r *Record) Key() string {
	if r.SourceType == SourcePDF {
		return fmt.Sprintf("pdf|%s|%d|%d", r.SourceURL, r.PDFPage, r.ChunkIndex)
	}
	return fmt.Sprintf("web|%s|%d", r.SourceURL, r.ChunkIndex)
}

// DocumentKey groups records belonging to the same source document.
func (r *Record) DocumentKey() string {
	return string(r.SourceType) + "|" + r.SourceURL
}

// AnchorFor builds an anchor URL from a source URL and a fragment.
// The source URL's own fragment, if any, is replaced.
func AnchorFor(sourceURL, fragment string) string {
	base := sourceURL
	if i := strings.IndexByte(base, '#'); i >= 0 {
		base = base[:i]
	}
	if fragment == "" {
		return base
	}
	return base + "#" + fragment
}

// PageAnchorID returns the anchor id for a PDF page.
func PageAnchorID(page int) string {
	return fmt.Sprintf("page-%d", page)
}

// PageFragment returns the URL fragment that opens a PDF at a page.
func PageFragment(page int) string {
	return fmt.Sprintf("page=%d", page)
}
