package web

import (
	"bytes"
	"net/url"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// NormaliseURL canonicalises a URL for deduplication: lower-case scheme and
// host, no fragment, no default port, and "/" for an empty path.
func NormaliseURL(u *url.URL) *url.URL {
	out := *u
	out.Fragment = ""
	out.RawFragment = ""
	out.Scheme = strings.ToLower(out.Scheme)
	host := strings.ToLower(out.Host)
	switch {
	case out.Scheme == "http" && strings.HasSuffix(host, ":80"):
		host = strings.TrimSuffix(host, ":80")
	case out.Scheme == "https" && strings.HasSuffix(host, ":443"):
		host = strings.TrimSuffix(host, ":443")
	}
	out.Host = host
	if out.Path == "" {
		out.Path = "/"
	}
	return &out
}

// ParseURL parses and normalises an absolute http(s) URL.
func ParseURL(raw string) (*url.URL, error) {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return nil, err
	}
	return NormaliseURL(u), nil
}

// ExtractLinks returns the distinct absolute links of an HTML page in
// document order, resolved against base.
func ExtractLinks(base *url.URL, body []byte) []*url.URL {
	root, err := html.Parse(bytes.NewReader(body))
	if err != nil {
		return nil
	}

	// <base href> overrides the document URL
	if b := findBase(root); b != "" {
		if ref, err := base.Parse(b); err == nil {
			base = ref
		}
	}

	var links []*url.URL
	seen := make(map[string]bool)
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && n.DataAtom == atom.A {
			if href := attr(n, "href"); href != "" && !skipHref(href) {
				if ref, err := base.Parse(href); err == nil {
					u := NormaliseURL(ref)
					if key := u.String(); !seen[key] {
						seen[key] = true
						links = append(links, u)
					}
				}
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(root)
	return links
}

func skipHref(href string) bool {
	href = strings.ToLower(strings.TrimSpace(href))
	for _, prefix := range []string{"#", "mailto:", "tel:", "javascript:", "data:"} {
		if strings.HasPrefix(href, prefix) {
			return true
		}
	}
	return false
}

func findBase(n *html.Node) string {
	if n.Type == html.ElementNode && n.DataAtom == atom.Base {
		return attr(n, "href")
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if href := findBase(c); href != "" {
			return href
		}
	}
	return ""
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return strings.TrimSpace(a.Val)
		}
	}
	return ""
}
