package web

import (
	"fmt"
	"time"
)

// RateLimitError reports a 429 response from the origin.
type RateLimitError struct {
	URL     string
	ResetAt time.Time
}

func (e *RateLimitError) Error() string {
	return fmt.Sprintf("web: rate limited by %s until %s", e.URL, e.ResetAt.Format(time.RFC3339))
}

// StatusError is a non-2xx HTTP response.
type StatusError struct {
	StatusCode int
	URL        string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("web: HTTP %d (URL: %s)", e.StatusCode, e.URL)
}

// IsNotFound reports whether the status means the document is gone.
func (e *StatusError) IsNotFound() bool {
	return e.StatusCode == 404 || e.StatusCode == 410
}
