package driven

import (
	"context"
	"time"
)

// CachedFetch is a stored copy of fetched bytes together with the time
// they were originally captured.
type CachedFetch struct {
	Data      []byte
	FetchedAt time.Time
}

// FetchCache stores local copies of binary sources keyed by URL so that
// repeated processing does not re-download them.
type FetchCache interface {
	// Get returns the cached entry for url. ok is false on a miss.
	Get(ctx context.Context, url string) (entry CachedFetch, ok bool, err error)

	// Put stores entry for url.
	Put(ctx context.Context, url string, entry CachedFetch) error

	// Close releases resources.
	Close() error
}
