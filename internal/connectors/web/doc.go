// Package web fetches HTML pages over HTTP and crawls links from seed URLs.
//
// A Fetcher enforces the domain allow-list, path exclusions, the byte
// ceiling and the politeness limiter. A Crawler owns the BFS frontier and
// dispatches fetches to a bounded worker pool.
package web
