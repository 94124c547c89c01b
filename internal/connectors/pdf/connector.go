// Package pdf downloads a job's configured PDF sources through the fetch
// cache.
package pdf

import (
	"context"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/campusgpt/harvester/internal/connectors/file"
	"github.com/campusgpt/harvester/internal/core/domain"
	"github.com/campusgpt/harvester/internal/core/ports/driven"
	"github.com/campusgpt/harvester/internal/logger"
)

// Ensure Connector implements the interface.
var _ driven.Connector = (*Connector)(nil)

// Connector fetches a list of PDF sources concurrently and emits them in
// configuration order.
type Connector struct {
	job     domain.JobConfig
	workers int
	remote  driven.Fetcher
	local   driven.Fetcher
	cache   driven.FetchCache
	now     func() time.Time
	log     *logger.Scoped
	mu      sync.Mutex
	closed  bool
}

// New creates a pdf connector. remote fetches http(s) sources; cache may
// be nil.
func New(cfg domain.Config, job domain.JobConfig, remote driven.Fetcher, cache driven.FetchCache) (*Connector, error) {
	if len(job.Sources) == 0 {
		return nil, fmt.Errorf("%w: pdf job %q has no sources", domain.ErrInvalidInput, job.Name)
	}
	for _, src := range job.Sources {
		if src.URL == "" {
			return nil, fmt.Errorf("%w: pdf source %q has no url", domain.ErrInvalidInput, src.Key)
		}
		if !file.IsLocal(src.URL) && remote == nil {
			return nil, fmt.Errorf("%w: no remote fetcher for %s", domain.ErrInvalidInput, src.URL)
		}
	}
	return &Connector{
		job:     job,
		workers: cfg.WorkersFor(job),
		remote:  remote,
		local:   file.NewFetcher(job.Name, cfg.MaxBytes),
		cache:   cache,
		now:     time.Now,
		log:     logger.Job(job.Name),
	}, nil
}

// Kind returns the job kind.
func (c *Connector) Kind() domain.JobKind {
	return domain.JobPDF
}

// Job returns the job name.
func (c *Connector) Job() string {
	return c.job.Name
}

type outcome struct {
	doc *domain.RawDocument
	err error
}

// Harvest fetches every source, at most workers at a time, and streams
// the documents in source order.
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

		sources := c.job.Sources
		slots := make([]chan outcome, len(sources))
		for i := range slots {
			slots[i] = make(chan outcome, 1)
		}

		var g errgroup.Group
		g.SetLimit(c.workers)
		go func() {
			for i, src := range sources {
				g.Go(func() error {
					doc, err := c.fetch(ctx, src)
					slots[i] <- outcome{doc: doc, err: err}
					return nil
				})
			}
			_ = g.Wait()
		}()

		for i := range sources {
			var out outcome
			select {
			case <-ctx.Done():
				return
			case out = <-slots[i]:
			}
			if out.err != nil {
				if ctx.Err() != nil {
					return
				}
				select {
				case <-ctx.Done():
					return
				case errsChan <- out.err:
				}
				continue
			}
			select {
			case <-ctx.Done():
				return
			case docsChan <- *out.doc:
			}
		}
	}()

	return docsChan, errsChan
}

func (c *Connector) fetch(ctx context.Context, src domain.PDFSource) (*domain.RawDocument, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	hints := domain.SourceHints{
		Key:         src.Key,
		Title:       src.Title,
		Persona:     src.Persona,
		FAQCategory: src.FAQCategory,
		Priority:    src.Priority,
	}

	if file.IsLocal(src.URL) {
		doc, err := c.local.Fetch(ctx, src.URL)
		if err != nil {
			return nil, err
		}
		doc.Hints = hints
		return doc, nil
	}

	if c.cache != nil {
		entry, ok, err := c.cache.Get(ctx, src.URL)
		switch {
		case err != nil:
			c.log.Warn("cache read %s: %v", src.URL, err)
		case ok:
			c.log.Debug("cache hit %s", src.URL)
			fetchedAt := entry.FetchedAt
			if fetchedAt.IsZero() {
				fetchedAt = c.now()
			}
			return &domain.RawDocument{
				Job:       c.job.Name,
				URL:       src.URL,
				MIMEType:  "application/pdf",
				Content:   entry.Data,
				FetchedAt: fetchedAt.UTC(),
				FromCache: true,
				Hints:     hints,
			}, nil
		}
	}

	doc, err := c.remote.Fetch(ctx, src.URL)
	if err != nil {
		return nil, err
	}
	doc.Job = c.job.Name
	doc.Hints = hints
	if c.cache != nil {
		entry := driven.CachedFetch{Data: doc.Content, FetchedAt: doc.FetchedAt}
		if err := c.cache.Put(ctx, src.URL, entry); err != nil {
			c.log.Warn("cache write %s: %v", src.URL, err)
		}
	}
	return doc, nil
}

// Close releases resources.
func (c *Connector) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	return nil
}
