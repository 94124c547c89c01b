package html

import (
	"net/url"
	"path"
	"strings"

	"golang.org/x/net/html"
)

// Elements that never carry page content.
var (
	scriptTags = []string{"script", "style", "noscript", "template", "iframe", "object", "embed", "svg"}
	chromeTags = []string{
		"nav", "header", "footer", "aside", "form", "input", "button", "select",
	}
	chromeClasses = []string{
		"nav", "navbar", "navigation", "sidebar", "menu", "toc",
		"table-of-contents", "footer", "header", "ad", "advertisement",
		"social", "share", "comments", "related", "breadcrumb", "breadcrumbs",
		"skip-link", "cookie-banner", "alert-banner",
	}
	mainSelectors = []string{"main", "article", "[role=main]"}
)

// mainContent returns the node holding the page's primary content with
// chrome removed. The tree is modified in place.
func mainContent(doc *html.Node) *html.Node {
	for _, selector := range mainSelectors {
		if node := findElement(doc, selector); node != nil {
			removeElements(node, scriptTags)
			removeElements(node, []string{"nav", "form", "button"})
			return node
		}
	}

	removeElements(doc, scriptTags)
	removeElements(doc, chromeTags)
	removeByClass(doc, chromeClasses)

	if body := findElement(doc, "body"); body != nil {
		return body
	}
	return doc
}

// findElement finds the first element matching a simple selector.
func findElement(n *html.Node, selector string) *html.Node {
	var result *html.Node
	var find func(*html.Node)
	find = func(node *html.Node) {
		if result != nil {
			return
		}
		if node.Type == html.ElementNode && matchesSelector(node, selector) {
			result = node
			return
		}
		for c := node.FirstChild; c != nil; c = c.NextSibling {
			find(c)
		}
	}
	find(n)
	return result
}

// matchesSelector checks if a node matches a tag or [attr=value] selector.
func matchesSelector(n *html.Node, selector string) bool {
	if strings.HasPrefix(selector, "[") && strings.HasSuffix(selector, "]") {
		key, val, ok := strings.Cut(strings.Trim(selector, "[]"), "=")
		return ok && attr(n, key) == val
	}
	return n.Data == selector
}

// removeElements removes all elements with the given tag names.
func removeElements(n *html.Node, tags []string) {
	set := make(map[string]bool, len(tags))
	for _, tag := range tags {
		set[tag] = true
	}
	remove(n, func(node *html.Node) bool {
		return set[node.Data]
	})
}

// removeByClass removes elements that have any of the given class names.
func removeByClass(n *html.Node, classes []string) {
	set := make(map[string]bool, len(classes))
	for _, class := range classes {
		set[strings.ToLower(class)] = true
	}
	remove(n, func(node *html.Node) bool {
		for _, c := range strings.Fields(strings.ToLower(attr(node, "class"))) {
			if set[c] {
				return true
			}
		}
		return false
	})
}

func remove(n *html.Node, match func(*html.Node) bool) {
	var doomed []*html.Node
	var collect func(*html.Node)
	collect = func(node *html.Node) {
		if node.Type == html.ElementNode && match(node) {
			doomed = append(doomed, node)
			return
		}
		for c := node.FirstChild; c != nil; c = c.NextSibling {
			collect(c)
		}
	}
	collect(n)

	for _, node := range doomed {
		if node.Parent != nil {
			node.Parent.RemoveChild(node)
		}
	}
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

// textContent concatenates the text below n with collapsed whitespace.
func textContent(n *html.Node) string {
	var sb strings.Builder
	var walk func(*html.Node)
	walk = func(node *html.Node) {
		if node.Type == html.TextNode {
			sb.WriteString(node.Data)
			sb.WriteByte(' ')
		}
		for c := node.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return strings.Join(strings.Fields(sb.String()), " ")
}

// documentTitle returns the <title> text, else the first h1, else a title
// derived from the URL path.
func documentTitle(doc *html.Node, rawURL string) string {
	if t := findElement(doc, "title"); t != nil {
		if s := textContent(t); s != "" {
			return s
		}
	}
	if h1 := findElement(doc, "h1"); h1 != nil {
		if s := textContent(h1); s != "" {
			return s
		}
	}
	return titleFromURL(rawURL)
}

func titleFromURL(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return rawURL
	}
	name := path.Base(strings.TrimSuffix(u.Path, "/"))
	if name == "." || name == "/" || name == "" {
		return u.Hostname()
	}
	name = strings.TrimSuffix(name, path.Ext(name))
	name = strings.NewReplacer("_", " ", "-", " ").Replace(name)
	return name
}

// headingLevel returns 1-6 for h1..h6 elements and 0 otherwise.
func headingLevel(n *html.Node) int {
	if n.Type != html.ElementNode || len(n.Data) != 2 || n.Data[0] != 'h' {
		return 0
	}
	if l := int(n.Data[1] - '0'); l >= 1 && l <= 6 {
		return l
	}
	return 0
}

// headingID returns the heading's id, or the id/name of the first anchor
// inside it.
func headingID(n *html.Node) string {
	if id := strings.TrimSpace(attr(n, "id")); id != "" {
		return id
	}
	var found string
	var walk func(*html.Node)
	walk = func(node *html.Node) {
		if found != "" {
			return
		}
		if node.Type == html.ElementNode && node.Data == "a" {
			if id := strings.TrimSpace(attr(node, "id")); id != "" {
				found = id
				return
			}
			if name := strings.TrimSpace(attr(node, "name")); name != "" {
				found = name
				return
			}
		}
		for c := node.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		walk(c)
	}
	return found
}
