package web

import (
	"context"
	"fmt"
	"net/url"
	"sync"

	"github.com/campusgpt/harvester/internal/core/domain"
	"github.com/campusgpt/harvester/internal/core/ports/driven"
)

// Ensure Connector implements the interface.
var _ driven.Connector = (*Connector)(nil)

// Connector crawls a web job's seeds.
type Connector struct {
	job     domain.JobConfig
	seeds   []string
	crawler *Crawler
	mu      sync.Mutex
	closed  bool
}

// New creates a web connector. When no domains are allow-listed the seed
// hosts become the allow-list. Invalid seeds fail the job.
func New(cfg domain.Config, job domain.JobConfig, opts ...FetcherOption) (*Connector, error) {
	if len(job.Seeds) == 0 {
		return nil, fmt.Errorf("%w: web job %q has no seeds", domain.ErrInvalidInput, job.Name)
	}
	seeds := make([]string, 0, len(job.Seeds))
	var hosts []string
	for _, seed := range job.Seeds {
		u, err := url.Parse(seed)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			return nil, fmt.Errorf("%w: invalid seed %q", domain.ErrInvalidInput, seed)
		}
		seeds = append(seeds, seed)
		hosts = append(hosts, u.Hostname())
	}
	if len(cfg.AllowedDomains) == 0 {
		cfg.AllowedDomains = hosts
	}

	fetcher, err := NewFetcher(job.Name, cfg, opts...)
	if err != nil {
		return nil, err
	}
	for _, seed := range seeds {
		u, _ := ParseURL(seed)
		if err := fetcher.Scope().Check(u); err != nil {
			return nil, fmt.Errorf("%w: seed %q: %v", domain.ErrInvalidInput, seed, err)
		}
	}

	return &Connector{
		job:   job,
		seeds: seeds,
		crawler: NewCrawler(fetcher, fetcher.Scope(), CrawlerConfig{
			Job:      job.Name,
			Workers:  cfg.WorkersFor(job),
			MaxPages: cfg.MaxPagesFor(job),
			MaxDepth: cfg.MaxDepthFor(job),
		}),
	}, nil
}

// Kind returns the job kind.
func (c *Connector) Kind() domain.JobKind {
	return domain.JobWeb
}

// Job returns the job name.
func (c *Connector) Job() string {
	return c.job.Name
}

// Harvest crawls from the seeds, streaming fetched pages and per-page
// fetch errors. Both channels close when the crawl ends.
func (c *Connector) Harvest(ctx context.Context) (<-chan domain.RawDocument, <-chan error) {
	docsChan := make(chan domain.RawDocument)
	errsChan := make(chan error, 1)

	go func() {
		defer close(docsChan)
		defer close(errsChan)

		c.mu.Lock()
		if c.closed {
			c.mu.Unlock()
			errsChan <- domain.ErrConnectorClosed
			return
		}
		c.mu.Unlock()

		if err := c.crawler.Crawl(ctx, c.seeds, docsChan, errsChan); err != nil {
			send[error](ctx, errsChan, fmt.Errorf("crawl: %w", err))
		}
	}()

	return docsChan, errsChan
}

// Close releases resources.
func (c *Connector) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	return nil
}
