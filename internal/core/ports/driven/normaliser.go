package driven

import (
	"context"

	"github.com/campusgpt/harvester/internal/core/domain"
)

// Normaliser transforms raw documents into structural sections.
// Each normaliser handles specific MIME types (e.g., HTML, PDF).
type Normaliser interface {
	// SupportedMIMETypes returns the MIME types this normaliser handles.
	SupportedMIMETypes() []string

	// Priority returns the selection priority (higher = preferred).
	Priority() int

	// Normalise splits a raw document into sections in document order.
	// Malformed input yields a *domain.ParseError.
	Normalise(ctx context.Context, raw *domain.RawDocument) (*domain.ParsedDocument, error)
}
