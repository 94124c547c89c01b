package normalisers

import (
	"bytes"
	"context"
	"fmt"
	"mime"
	"net/url"
	"path"
	"sort"
	"strings"

	"github.com/campusgpt/harvester/internal/core/domain"
	"github.com/campusgpt/harvester/internal/core/ports/driven"
	"github.com/campusgpt/harvester/internal/normalisers/html"
	"github.com/campusgpt/harvester/internal/normalisers/pdf"
)

// Ensure Registry implements the interface.
var _ driven.NormaliserRegistry = (*Registry)(nil)

// extensionTypes maps URL extensions to MIME types when the origin sent
// none or a generic one.
var extensionTypes = map[string]string{
	".pdf":   "application/pdf",
	".html":  "text/html",
	".htm":   "text/html",
	".xhtml": "application/xhtml+xml",
	".aspx":  "text/html",
	".php":   "text/html",
}

// Registry selects a normaliser by MIME type.
type Registry struct {
	byType map[string][]driven.Normaliser
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{byType: make(map[string][]driven.Normaliser)}
}

// NewDefault returns a registry with the HTML and PDF normalisers
// configured from cfg.
func NewDefault(cfg domain.Config) (*Registry, error) {
	h, err := html.New(cfg.Rules.BoilerplatePatterns)
	if err != nil {
		return nil, err
	}
	r := NewRegistry()
	r.Register(h)
	r.Register(pdf.New(cfg.MaxPDFPages))
	return r, nil
}

// Register adds a normaliser for each of its MIME types. Higher priority
// normalisers are preferred.
func (r *Registry) Register(n driven.Normaliser) {
	for _, mt := range n.SupportedMIMETypes() {
		list := append(r.byType[mt], n)
		sort.SliceStable(list, func(a, b int) bool { return list[a].Priority() > list[b].Priority() })
		r.byType[mt] = list
	}
}

// SupportedMIMETypes returns all MIME types that can be normalised.
func (r *Registry) SupportedMIMETypes() []string {
	types := make([]string, 0, len(r.byType))
	for mt := range r.byType {
		types = append(types, mt)
	}
	sort.Strings(types)
	return types
}

// Normalise parses raw with the best matching normaliser.
func (r *Registry) Normalise(ctx context.Context, raw *domain.RawDocument) (*domain.ParsedDocument, error) {
	if raw == nil {
		return nil, domain.ErrInvalidInput
	}
	mt := DetectMIMEType(raw)
	list := r.byType[mt]
	if len(list) == 0 {
		return nil, fmt.Errorf("%w: %s (%s)", domain.ErrUnsupportedType, raw.URL, mt)
	}
	return list[0].Normalise(ctx, raw)
}

// DetectMIMEType returns the media type of raw: the declared type when it
// is specific, else content sniffing for PDFs, else the URL extension.
func DetectMIMEType(raw *domain.RawDocument) string {
	declared := ""
	if raw.MIMEType != "" {
		if mt, _, err := mime.ParseMediaType(raw.MIMEType); err == nil {
			declared = strings.ToLower(mt)
		}
	}
	if bytes.HasPrefix(bytes.TrimLeft(raw.Content, " \t\r\n"), []byte("%PDF-")) {
		return "application/pdf"
	}
	if declared != "" && declared != "application/octet-stream" && declared != "binary/octet-stream" {
		return declared
	}

	p := raw.URL
	if u, err := url.Parse(raw.URL); err == nil {
		p = u.Path
	}
	if mt, ok := extensionTypes[strings.ToLower(path.Ext(p))]; ok {
		return mt
	}
	if declared != "" {
		return declared
	}
	return "text/html"
}
