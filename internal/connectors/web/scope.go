package web

import (
	"fmt"
	"net/url"
	"path"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// IgnoredExtensions are link targets the crawler never follows.
var IgnoredExtensions = []string{
	".pdf", ".jpg", ".jpeg", ".png", ".gif", ".svg", ".ico", ".webp",
	".zip", ".gz", ".tar", ".css", ".js", ".json", ".xml",
	".doc", ".docx", ".xls", ".xlsx", ".ppt", ".pptx",
	".mp3", ".mp4", ".mov", ".avi", ".woff", ".woff2", ".ttf",
}

// Scope decides which URLs a job may fetch. It is read-only after
// construction and shared by all workers.
type Scope struct {
	domains  []string
	excludes []string
}

// NewScope builds a scope from allowed domains and path exclusion globs.
// An empty domain list allows every host.
func NewScope(domains, excludes []string) (*Scope, error) {
	s := &Scope{}
	for _, d := range domains {
		d = strings.ToLower(strings.TrimSpace(strings.TrimPrefix(d, ".")))
		if d != "" {
			s.domains = append(s.domains, d)
		}
	}
	for _, pattern := range excludes {
		if !doublestar.ValidatePattern(pattern) {
			return nil, fmt.Errorf("invalid exclude pattern %q", pattern)
		}
		s.excludes = append(s.excludes, pattern)
	}
	return s, nil
}

// Check returns nil when u may be fetched, otherwise a reason.
func (s *Scope) Check(u *url.URL) error {
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("unsupported scheme %q", u.Scheme)
	}
	if !s.HostAllowed(u.Hostname()) {
		return fmt.Errorf("host %s not in allow-list", u.Hostname())
	}
	p := u.EscapedPath()
	if p == "" {
		p = "/"
	}
	for _, pattern := range s.excludes {
		if ok, _ := doublestar.Match(pattern, p); ok {
			return fmt.Errorf("path %s excluded by %q", p, pattern)
		}
	}
	return nil
}

// HostAllowed reports whether host equals or is a subdomain of an allowed
// domain.
func (s *Scope) HostAllowed(host string) bool {
	if len(s.domains) == 0 {
		return true
	}
	host = strings.ToLower(host)
	for _, d := range s.domains {
		if host == d || strings.HasSuffix(host, "."+d) {
			return true
		}
	}
	return false
}

// Crawlable reports whether a discovered link should be followed.
func (s *Scope) Crawlable(u *url.URL) bool {
	if s.Check(u) != nil {
		return false
	}
	ext := strings.ToLower(path.Ext(u.Path))
	for _, ignored := range IgnoredExtensions {
		if ext == ignored {
			return false
		}
	}
	return true
}
