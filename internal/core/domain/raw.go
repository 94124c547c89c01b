package domain

import "time"

// RawDocument represents opaque bytes fetched by a connector.
// It is the connector's output before normalisation.
type RawDocument struct {
	// Job names the harvest job that requested the document.
	Job string

	// URL is the canonical location (http(s) URL or local path).
	URL string

	// MIMEType is the content type (e.g., "application/pdf").
	MIMEType string

	// Content is the raw bytes.
	Content []byte

	// FetchedAt is when the bytes were captured.
	FetchedAt time.Time

	// FromCache is true when the bytes came from the local fetch cache.
	FromCache bool

	// Hints carries source-level metadata configured for the document.
	Hints SourceHints
}

// SourceHints is metadata a job attaches to a document before parsing.
// Empty fields mean "derive it".
type SourceHints struct {
	// Key is the configured source key (PDF sources).
	Key string

	// Title overrides the extracted document title.
	Title string

	// Persona overrides URL-based persona rules.
	Persona string

	// FAQCategory forces an FAQ category.
	FAQCategory string

	// Priority is copied onto every record.
	Priority string
}
