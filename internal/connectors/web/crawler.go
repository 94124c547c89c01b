package web

import (
	"context"
	"net/url"
	"strings"

	"github.com/panjf2000/ants/v2"

	"github.com/campusgpt/harvester/internal/core/domain"
	"github.com/campusgpt/harvester/internal/core/ports/driven"
	"github.com/campusgpt/harvester/internal/logger"
)

// Crawler walks links breadth-first from seed URLs. A single coordinator
// goroutine owns the frontier; fetches run on a bounded worker pool.
type Crawler struct {
	fetcher  driven.Fetcher
	scope    *Scope
	workers  int
	maxPages int
	maxDepth int
	log      *logger.Scoped
}

// CrawlerConfig bounds a crawl.
type CrawlerConfig struct {
	Job      string
	Workers  int
	MaxPages int
	// MaxDepth is the link distance from a seed, 0 for unlimited.
	MaxDepth int
}

// NewCrawler creates a crawler that fetches through f and follows links
// inside scope.
func NewCrawler(f driven.Fetcher, scope *Scope, cfg CrawlerConfig) *Crawler {
	if cfg.Workers < 1 {
		cfg.Workers = 1
	}
	return &Crawler{
		fetcher:  f,
		scope:    scope,
		workers:  cfg.Workers,
		maxPages: cfg.MaxPages,
		maxDepth: cfg.MaxDepth,
		log:      logger.Job(cfg.Job),
	}
}

type frontierItem struct {
	url   string
	depth int
}

type fetchResult struct {
	item frontierItem
	doc  *domain.RawDocument
	err  error
}

// Crawl fetches pages starting at seeds and sends each document and each
// per-document error to the given channels. It returns when the frontier
// is exhausted, max pages is reached, or ctx is done. The returned error is
// non-nil only when the crawl could not start.
func (c *Crawler) Crawl(ctx context.Context, seeds []string, docs chan<- domain.RawDocument, errs chan<- error) error {
	pool, err := ants.NewPool(c.workers)
	if err != nil {
		return err
	}
	defer pool.Release()

	seen := make(map[string]bool)
	var queue []frontierItem
	for _, seed := range seeds {
		u, err := ParseURL(seed)
		if err != nil || u.Host == "" {
			c.log.Warn("skipping invalid seed %q", seed)
			continue
		}
		key := u.String()
		if seen[key] {
			continue
		}
		seen[key] = true
		queue = append(queue, frontierItem{url: key})
	}

	// Capacity equals the pool size so workers never block on send.
	results := make(chan fetchResult, c.workers)
	inflight, dispatched := 0, 0

	for {
		for len(queue) > 0 && inflight < c.workers && (c.maxPages <= 0 || dispatched < c.maxPages) {
			item := queue[0]
			queue = queue[1:]
			if err := pool.Submit(func() {
				doc, err := c.fetcher.Fetch(ctx, item.url)
				results <- fetchResult{item: item, doc: doc, err: err}
			}); err != nil {
				c.log.Warn("submit %s: %v", item.url, err)
				continue
			}
			inflight++
			dispatched++
		}

		if inflight == 0 {
			c.log.Debug("crawl finished: %d pages dispatched", dispatched)
			return nil
		}

		var res fetchResult
		select {
		case <-ctx.Done():
			return nil
		case res = <-results:
		}
		inflight--

		if res.err != nil {
			if ctx.Err() != nil {
				return nil
			}
			if !send(ctx, errs, res.err) {
				return nil
			}
			continue
		}

		// Redirect targets count as seen
		seen[res.doc.URL] = true

		if c.maxDepth <= 0 || res.item.depth < c.maxDepth {
			for _, link := range c.links(res.doc) {
				key := link.String()
				if seen[key] {
					continue
				}
				seen[key] = true
				queue = append(queue, frontierItem{url: key, depth: res.item.depth + 1})
			}
		}

		if !send(ctx, docs, *res.doc) {
			return nil
		}
	}
}

func (c *Crawler) links(doc *domain.RawDocument) []*url.URL {
	if doc.MIMEType != "" && !strings.Contains(doc.MIMEType, "html") {
		return nil
	}
	base, err := url.Parse(doc.URL)
	if err != nil {
		return nil
	}
	var out []*url.URL
	for _, link := range ExtractLinks(base, doc.Content) {
		if c.scope.Crawlable(link) {
			out = append(out, link)
		}
	}
	return out
}

func send[T any](ctx context.Context, ch chan<- T, v T) bool {
	select {
	case <-ctx.Done():
		return false
	case ch <- v:
		return true
	}
}
