package pdf

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/url"
	"path"
	"strings"

	"github.com/ledongthuc/pdf"

	"github.com/campusgpt/harvester/internal/core/domain"
	"github.com/campusgpt/harvester/internal/core/ports/driven"
	"github.com/campusgpt/harvester/internal/logger"
)

// Ensure Normaliser implements the interface.
var _ driven.Normaliser = (*Normaliser)(nil)

// maxTitleLen bounds the first-line title heuristic.
const maxTitleLen = 200

// Normaliser handles PDF documents.
type Normaliser struct {
	maxPages int
}

// New creates a PDF normaliser that reads at most maxPages pages
// (0 = no limit).
func New(maxPages int) *Normaliser {
	return &Normaliser{maxPages: maxPages}
}

// SupportedMIMETypes returns the MIME types this normaliser handles.
func (n *Normaliser) SupportedMIMETypes() []string {
	return []string{"application/pdf"}
}

// Priority returns the selection priority.
func (n *Normaliser) Priority() int {
	return 50
}

// Normalise extracts one section per page. Pages that cannot be read are
// skipped; the document fails only when no page could be read at all.
func (n *Normaliser) Normalise(ctx context.Context, raw *domain.RawDocument) (*domain.ParsedDocument, error) {
	if raw == nil {
		return nil, domain.ErrInvalidInput
	}

	reader, err := openReader(raw.Content)
	if err != nil {
		return nil, &domain.ParseError{URL: raw.URL, Err: err}
	}

	total := reader.NumPage()
	limit := total
	if n.maxPages > 0 && limit > n.maxPages {
		logger.Warn("pdf %s: reading first %d of %d pages", raw.URL, n.maxPages, total)
		limit = n.maxPages
	}

	doc := &domain.ParsedDocument{
		Job:        raw.Job,
		URL:        raw.URL,
		SourceType: domain.SourcePDF,
		PageCount:  total,
		FetchedAt:  raw.FetchedAt,
		Hints:      raw.Hints,
	}

	var (
		failed  int
		lastErr error
	)
	for i := 1; i <= limit; i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		text, err := pageText(reader, i)
		if err != nil {
			failed++
			lastErr = err
			logger.Warn("%v", &domain.ParseError{URL: raw.URL, Page: i, Err: err})
			continue
		}
		doc.Sections = append(doc.Sections, domain.Section{Body: text, Page: i})
	}
	if limit > 0 && failed == limit {
		return nil, &domain.ParseError{URL: raw.URL, Err: fmt.Errorf("no readable pages: %w", lastErr)}
	}

	doc.Title = strings.TrimSpace(raw.Hints.Title)
	if doc.Title == "" {
		doc.Title = extractTitle(firstText(doc.Sections), raw.URL)
	}
	return doc, nil
}

// openReader parses the PDF structure. The library panics on some
// malformed inputs; those become errors.
func openReader(content []byte) (r *pdf.Reader, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			r, err = nil, fmt.Errorf("malformed pdf: %v", rec)
		}
	}()
	if !bytes.HasPrefix(content, []byte("%PDF-")) {
		return nil, errors.New("not a pdf: missing %PDF- header")
	}
	return pdf.NewReader(bytes.NewReader(content), int64(len(content)))
}

// pageText returns the layout-ordered text of page num.
func pageText(r *pdf.Reader, num int) (text string, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			text, err = "", fmt.Errorf("unreadable page: %v", rec)
		}
	}()
	page := r.Page(num)
	if page.V.IsNull() {
		return "", errors.New("page missing from page tree")
	}
	return layoutText(page.Content().Text), nil
}

func firstText(sections []domain.Section) string {
	for _, s := range sections {
		if strings.TrimSpace(s.Body) != "" {
			return s.Body
		}
	}
	return ""
}

// extractTitle returns the first short non-empty line, or a title derived
// from the file name.
func extractTitle(content, uri string) string {
	for _, line := range strings.Split(content, "\n") {
		line = strings.TrimSpace(line)
		if line != "" && len(line) < maxTitleLen && strings.Trim(line, "\x00") != "" {
			return line
		}
	}

	name := uri
	if u, err := url.Parse(uri); err == nil && u.Path != "" {
		name = u.Path
	}
	name = path.Base(name)
	name = strings.TrimSuffix(name, path.Ext(name))
	name = strings.ReplaceAll(name, "_", " ")
	name = strings.ReplaceAll(name, "-", " ")
	return name
}
