// Package file reads documents from the local filesystem.
package file

import (
	"net/url"
	"strings"
)

// ResolvePath converts a file URI to a local path for opening.
// Handles file:// URIs and bare paths.
func ResolvePath(uri string) string {
	if strings.HasPrefix(uri, "file://") {
		if u, err := url.Parse(uri); err == nil && u.Path != "" {
			return u.Path
		}
		return strings.TrimPrefix(uri, "file://")
	}
	// Bare paths pass through unchanged
	return uri
}

// IsLocal reports whether uri names a local file rather than a web URL.
func IsLocal(uri string) bool {
	return !strings.HasPrefix(uri, "http://") && !strings.HasPrefix(uri, "https://")
}
