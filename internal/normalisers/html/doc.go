// Package html provides a Normaliser implementation for HTML pages.
//
// Pages are reduced to their main content, rendered to markdown with
// ATX headings, and split at every heading into sections. Each heading
// keeps its anchor id (the heading's own id, or that of an anchor inside
// it) so records can deep-link into the page.
package html
