package html

import (
	"bytes"
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	md "github.com/JohannesKaufmann/html-to-markdown"
	"github.com/JohannesKaufmann/html-to-markdown/plugin"
	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"

	"github.com/campusgpt/harvester/internal/core/domain"
	"github.com/campusgpt/harvester/internal/core/ports/driven"
)

// Ensure Normaliser implements the interface.
var _ driven.Normaliser = (*Normaliser)(nil)

// Heading markers are private-use runes wrapped around the heading's
// ordinal. They survive markdown conversion untouched and tie each
// markdown heading line back to its DOM element.
const (
	markerOpen  = '\uE000'
	markerClose = '\uE001'
)

var (
	markerRe     = regexp.MustCompile(`\x{E000}(\d+)\x{E001}`)
	atxHeadingRe = regexp.MustCompile(`^(#{1,6})\s+(.*)$`)
	mdEscapeRe   = regexp.MustCompile(`\\([\\` + "`" + `*_{}\[\]()#+\-.!|>~])`)
	blankLinesRe = regexp.MustCompile(`\n{3,}`)
	fenceRe      = regexp.MustCompile("^(```|~~~)")
)

// heading is what the DOM knows about one heading element.
type heading struct {
	level int
	id    string
}

// Normaliser handles HTML documents.
type Normaliser struct {
	boilerplate []*regexp.Regexp
}

// New creates an HTML normaliser. Boilerplate patterns are removed from
// every section body.
func New(boilerplate []string) (*Normaliser, error) {
	n := &Normaliser{}
	for _, p := range boilerplate {
		re, err := regexp.Compile(p)
		if err != nil {
			return nil, fmt.Errorf("boilerplate pattern %q: %w", p, err)
		}
		n.boilerplate = append(n.boilerplate, re)
	}
	return n, nil
}

// SupportedMIMETypes returns the MIME types this normaliser handles.
func (n *Normaliser) SupportedMIMETypes() []string {
	return []string{"text/html", "application/xhtml+xml"}
}

// Priority returns the selection priority.
func (n *Normaliser) Priority() int {
	return 50
}

// Normalise splits an HTML page into heading sections.
func (n *Normaliser) Normalise(_ context.Context, raw *domain.RawDocument) (*domain.ParsedDocument, error) {
	if raw == nil {
		return nil, domain.ErrInvalidInput
	}

	root, err := html.Parse(bytes.NewReader(raw.Content))
	if err != nil {
		return nil, &domain.ParseError{URL: raw.URL, Err: err}
	}

	title := strings.TrimSpace(raw.Hints.Title)
	if title == "" {
		title = documentTitle(root, raw.URL)
	}

	content := mainContent(root)
	headings := markHeadings(content)

	conv := md.NewConverter(md.DomainFromURL(raw.URL), true, &md.Options{HeadingStyle: "atx"})
	conv.Use(plugin.GitHubFlavored())
	markdown := conv.Convert(goquery.NewDocumentFromNode(content).Selection)

	return &domain.ParsedDocument{
		Job:        raw.Job,
		URL:        raw.URL,
		Title:      title,
		SourceType: domain.SourceWeb,
		Sections:   n.split(markdown, headings),
		FetchedAt:  raw.FetchedAt,
		Hints:      raw.Hints,
	}, nil
}

// markHeadings prefixes every heading below root with a marker text node
// and returns the headings in document order.
func markHeadings(root *html.Node) []heading {
	var headings []heading
	var walk func(*html.Node)
	walk = func(node *html.Node) {
		if level := headingLevel(node); level > 0 {
			marker := &html.Node{
				Type: html.TextNode,
				Data: string(markerOpen) + strconv.Itoa(len(headings)) + string(markerClose),
			}
			headings = append(headings, heading{level: level, id: headingID(node)})
			node.InsertBefore(marker, node.FirstChild)
			return
		}
		for c := node.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(root)
	return headings
}

// split cuts markdown at heading lines. Content before the first heading
// becomes a section without header.
func (n *Normaliser) split(markdown string, headings []heading) []domain.Section {
	var (
		sections []domain.Section
		current  domain.Section
		body     []string
		inFence  bool
	)
	flush := func() {
		current.Body = n.cleanBody(strings.Join(body, "\n"))
		if current.Body != "" || current.HeaderText != "" {
			sections = append(sections, current)
		}
		body = body[:0]
	}

	for _, line := range strings.Split(markdown, "\n") {
		if fenceRe.MatchString(strings.TrimSpace(line)) {
			inFence = !inFence
		}
		m := atxHeadingRe.FindStringSubmatch(line)
		if inFence || m == nil {
			body = append(body, line)
			continue
		}

		flush()
		current = domain.Section{HeaderLevel: len(m[1])}
		text := m[2]
		if mm := markerRe.FindStringSubmatch(text); mm != nil {
			if idx, err := strconv.Atoi(mm[1]); err == nil && idx < len(headings) {
				current.HeaderLevel = headings[idx].level
				current.HeaderID = headings[idx].id
			}
		}
		current.HeaderText = cleanHeader(text)
	}
	flush()
	return sections
}

func cleanHeader(s string) string {
	s = markerRe.ReplaceAllString(s, "")
	s = mdEscapeRe.ReplaceAllString(s, "$1")
	s = strings.NewReplacer("**", "", "__", "").Replace(s)
	return strings.Join(strings.Fields(s), " ")
}

// cleanBody drops stray markers, markdown escapes, boilerplate and
// repeated lines.
func (n *Normaliser) cleanBody(s string) string {
	s = markerRe.ReplaceAllString(s, "")
	s = mdEscapeRe.ReplaceAllString(s, "$1")
	for _, re := range n.boilerplate {
		s = re.ReplaceAllString(s, "")
	}

	lines := strings.Split(s, "\n")
	kept := lines[:0]
	prev := ""
	for _, line := range lines {
		line = strings.TrimRight(line, " \t")
		trimmed := strings.TrimSpace(line)
		if trimmed != "" && trimmed == prev {
			continue
		}
		if trimmed != "" {
			prev = trimmed
		}
		kept = append(kept, line)
	}
	s = strings.Join(kept, "\n")
	s = blankLinesRe.ReplaceAllString(s, "\n\n")
	return strings.TrimSpace(s)
}
