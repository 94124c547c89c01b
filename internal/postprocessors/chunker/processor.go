// Package chunker turns parsed sections into candidate records.
//
// Web pages yield one record per heading block; short blocks are folded
// into their neighbours and oversize blocks are windowed. PDF pages are
// cleaned of recurring noise, concatenated and cut into overlapping
// fixed-size windows that prefer sentence boundaries.
package chunker

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/campusgpt/harvester/internal/core/domain"
	"github.com/campusgpt/harvester/internal/core/ports/driven"
)

// Processor splits parsed documents into records.
// It implements the PostProcessor interface.
type Processor struct {
	chunkSize     int
	overlap       int
	tolerance     int
	minSectionLen int
	minChunkLen   int
	maxChunkLen   int
	noise         []string
	noiseRe       []*regexp.Regexp
	observer      driven.PipelineObserver
}

// Option configures the chunker processor.
type Option func(*Processor)

// WithChunkSize sets the window size in runes.
func WithChunkSize(size int) Option {
	return func(p *Processor) {
		if size > 0 {
			p.chunkSize = size
		}
	}
}

// WithOverlap sets the overlap between consecutive windows in runes.
func WithOverlap(overlap int) Option {
	return func(p *Processor) {
		if overlap >= 0 {
			p.overlap = overlap
		}
	}
}

// WithSentenceTolerance sets how far before the window end a sentence
// boundary may be chosen.
func WithSentenceTolerance(n int) Option {
	return func(p *Processor) {
		if n >= 0 {
			p.tolerance = n
		}
	}
}

// WithMinSectionLen sets the body length at or below which a web section
// is folded into its neighbour.
func WithMinSectionLen(n int) Option {
	return func(p *Processor) {
		if n >= 0 {
			p.minSectionLen = n
		}
	}
}

// WithChunkBounds sets the record length band.
func WithChunkBounds(minLen, maxLen int) Option {
	return func(p *Processor) {
		if minLen > 0 && maxLen >= minLen {
			p.minChunkLen = minLen
			p.maxChunkLen = maxLen
		}
	}
}

// WithNoisePatterns sets the regular expressions removed from PDF pages.
func WithNoisePatterns(patterns []string) Option {
	return func(p *Processor) {
		p.noise = patterns
	}
}

// WithObserver reports the number of candidate records per document.
func WithObserver(obs driven.PipelineObserver) Option {
	return func(p *Processor) {
		p.observer = obs
	}
}

// New creates a chunker with the given options.
func New(opts ...Option) (*Processor, error) {
	p := &Processor{
		chunkSize:     domain.DefaultChunkSize,
		overlap:       domain.DefaultChunkOverlap,
		tolerance:     domain.DefaultSentenceTolerance,
		minSectionLen: domain.DefaultMinSectionLen,
		minChunkLen:   domain.DefaultMinChunkLen,
		maxChunkLen:   domain.DefaultMaxChunkLen,
	}

	for _, opt := range opts {
		opt(p)
	}

	// Ensure overlap doesn't exceed chunk size
	if p.overlap >= p.chunkSize {
		p.overlap = p.chunkSize / 4
	}

	for _, pattern := range p.noise {
		re, err := regexp.Compile(pattern)
		if err != nil {
			return nil, fmt.Errorf("noise pattern %q: %w", pattern, err)
		}
		p.noiseRe = append(p.noiseRe, re)
	}

	return p, nil
}

// Name returns the processor name.
func (p *Processor) Name() string {
	return "chunker"
}

// Process creates records from the document sections.
// Input records are ignored; this processor is the first stage.
func (p *Processor) Process(ctx context.Context, doc *domain.ParsedDocument, _ []domain.Record) ([]domain.Record, error) {
	var records []domain.Record
	switch doc.SourceType {
	case domain.SourcePDF:
		records = p.chunkPDF(doc)
	case domain.SourceWeb:
		records = p.chunkWeb(doc)
	default:
		return nil, fmt.Errorf("%w: source type %q", domain.ErrUnsupportedType, doc.SourceType)
	}

	if p.observer != nil {
		p.observer.Chunked(len(records))
	}
	return records, nil
}

// base fills the document-level fields shared by every record.
func base(doc *domain.ParsedDocument) domain.Record {
	source := domain.AnchorFor(doc.URL, "")
	return domain.Record{
		Title:      doc.Title,
		SourceURL:  source,
		AnchorURL:  source,
		SourceType: doc.SourceType,
		ScrapedAt:  doc.FetchedAt,
		Job:        doc.Job,
		Priority:   doc.Hints.Priority,
	}
}

// block is a web section after short-section folding.
type block struct {
	section domain.Section
	text    string
}

func (p *Processor) chunkWeb(doc *domain.ParsedDocument) []domain.Record {
	blocks := p.foldSections(doc.Sections)

	var records []domain.Record
	for _, b := range blocks {
		rec := base(doc)
		rec.SectionHeader = b.section.HeaderText
		if rec.SectionHeader == "" {
			rec.SectionHeader = doc.Title
		}
		rec.HeaderLevel = b.section.HeaderLevel
		if b.section.HeaderID != "" {
			rec.AnchorID = b.section.HeaderID
			rec.AnchorURL = domain.AnchorFor(doc.URL, b.section.HeaderID)
		}

		if utf8.RuneCountInString(b.text) <= p.maxChunkLen {
			rec.Text = b.text
			records = append(records, rec)
			continue
		}
		for _, w := range p.windows([]rune(b.text)) {
			sub := rec
			sub.Text = w.text
			records = append(records, sub)
		}
	}
	return records
}

// foldSections merges every section whose body is at most minSectionLen
// runes into the following section. A trailing short section joins the
// previous one instead.
func (p *Processor) foldSections(sections []domain.Section) []block {
	var (
		blocks []block
		carry  *block
	)
	for i, s := range sections {
		body := strings.TrimSpace(s.Body)
		header := strings.TrimSpace(s.HeaderText)
		if body == "" && header == "" {
			continue
		}
		text := joinNonEmpty("\n", header, body)
		if carry != nil {
			text = carry.text + "\n\n" + text
			carry = nil
		}
		b := block{section: s, text: text}
		if utf8.RuneCountInString(body) <= p.minSectionLen && hasContentAfter(sections, i) {
			carry = &b
			continue
		}
		if utf8.RuneCountInString(body) <= p.minSectionLen && len(blocks) > 0 {
			prev := &blocks[len(blocks)-1]
			prev.text = prev.text + "\n\n" + b.text
			continue
		}
		blocks = append(blocks, b)
	}
	return blocks
}

func hasContentAfter(sections []domain.Section, i int) bool {
	for _, s := range sections[i+1:] {
		if strings.TrimSpace(s.Body) != "" || strings.TrimSpace(s.HeaderText) != "" {
			return true
		}
	}
	return false
}

func (p *Processor) chunkPDF(doc *domain.ParsedDocument) []domain.Record {
	var (
		buf    strings.Builder
		starts []pageStart
		offset int
	)
	for _, s := range doc.Sections {
		text := p.cleanPage(s.Body)
		if text == "" {
			continue
		}
		if buf.Len() > 0 {
			buf.WriteString(pageSeparator)
			offset += utf8.RuneCountInString(pageSeparator)
		}
		starts = append(starts, pageStart{page: s.Page, offset: offset})
		buf.WriteString(text)
		offset += utf8.RuneCountInString(text)
	}
	if buf.Len() == 0 {
		return nil
	}

	windows := p.windows([]rune(buf.String()))
	records := make([]domain.Record, 0, len(windows))
	for _, w := range windows {
		page := pageAt(starts, w.start)
		rec := base(doc)
		rec.Text = w.text
		rec.SectionHeader = fmt.Sprintf("Page %d", page)
		rec.PDFPage = page
		rec.TotalPages = doc.PageCount
		rec.AnchorID = domain.PageAnchorID(page)
		rec.AnchorURL = domain.AnchorFor(doc.URL, domain.PageFragment(page))
		records = append(records, rec)
	}
	return records
}

const pageSeparator = "\n\n"

type pageStart struct {
	page   int
	offset int
}

// pageAt returns the page containing rune offset off.
func pageAt(starts []pageStart, off int) int {
	page := starts[0].page
	for _, s := range starts {
		if s.offset > off {
			break
		}
		page = s.page
	}
	return page
}

func joinNonEmpty(sep string, parts ...string) string {
	out := parts[:0:0]
	for _, part := range parts {
		if part != "" {
			out = append(out, part)
		}
	}
	return strings.Join(out, sep)
}
