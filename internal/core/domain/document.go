package domain

import "time"

// ParsedDocument is the structural parser output: a document split into
// sections in document order.
type ParsedDocument struct {
	// Job names the harvest job that produced the document.
	Job string

	// URL is the canonical location of the source document.
	URL string

	// Title is the human-readable title.
	Title string

	// SourceType is web or pdf.
	SourceType SourceType

	// PageCount is the number of physical pages (PDF only).
	PageCount int

	// Sections are the structural nodes in document order.
	Sections []Section

	// FetchedAt is when the source bytes were captured.
	FetchedAt time.Time

	// Hints carries source-level metadata from the job configuration.
	Hints SourceHints
}

// Section is one structural node of a parsed document.
type Section struct {
	// HeaderText is the heading text, empty for headerless content.
	HeaderText string

	// HeaderLevel is the heading depth (1-6), 0 when there is no heading.
	HeaderLevel int

	// HeaderID is the heading's anchor id, empty when it has none.
	HeaderID string

	// Body is the section text after the heading.
	Body string

	// Page is the 1-based physical page (PDF only).
	Page int
}
