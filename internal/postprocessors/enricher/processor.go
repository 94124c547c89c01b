// Package enricher annotates records with audience personas and FAQ
// categories drawn from data-driven rule tables.
package enricher

import (
	"context"

	"github.com/campusgpt/harvester/internal/core/domain"
)

// Processor sets Persona and FAQCategory on every record.
// It implements the PostProcessor interface.
type Processor struct {
	personas *PersonaTagger
	faq      *FAQClassifier
}

// New creates an enricher from rule tables.
func New(rules domain.Rules, faqThreshold float64) *Processor {
	return &Processor{
		personas: NewPersonaTagger(rules.PersonaRules),
		faq:      NewFAQClassifier(rules.FAQ, faqThreshold),
	}
}

// Name returns the processor name.
func (p *Processor) Name() string {
	return "enricher"
}

// Process annotates records in place. Records are never dropped.
func (p *Processor) Process(_ context.Context, doc *domain.ParsedDocument, records []domain.Record) ([]domain.Record, error) {
	persona := p.personas.Tag(doc.URL)
	if doc.Hints.Persona != "" {
		persona = domain.JoinPersonas(domain.SplitPersonas(doc.Hints.Persona))
	}

	for i := range records {
		rec := &records[i]
		rec.Persona = persona
		if doc.Hints.FAQCategory != "" {
			rec.FAQCategory = doc.Hints.FAQCategory
			continue
		}
		rec.FAQCategory = p.faq.Classify(rec.SourceURL, rec.Title, rec.SectionHeader)
	}
	return records, nil
}
