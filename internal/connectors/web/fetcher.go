package web

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/campusgpt/harvester/internal/core/domain"
	"github.com/campusgpt/harvester/internal/core/ports/driven"
)

// Ensure Fetcher implements the interface.
var _ driven.Fetcher = (*Fetcher)(nil)

// Fetcher retrieves single documents over HTTP.
type Fetcher struct {
	job      string
	client   *http.Client
	scope    *Scope
	limiter  *RateLimiter
	maxBytes int64
	agents   []string
	next     atomic.Uint64
	now      func() time.Time
}

// FetcherOption configures a Fetcher.
type FetcherOption func(*Fetcher)

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(c *http.Client) FetcherOption {
	return func(f *Fetcher) { f.client = c }
}

// WithRateLimiter shares a limiter between fetchers.
func WithRateLimiter(l *RateLimiter) FetcherOption {
	return func(f *Fetcher) { f.limiter = l }
}

// WithClock overrides the capture timestamp source.
func WithClock(now func() time.Time) FetcherOption {
	return func(f *Fetcher) { f.now = now }
}

// NewFetcher creates a fetcher for job from the pipeline configuration.
func NewFetcher(job string, cfg domain.Config, opts ...FetcherOption) (*Fetcher, error) {
	scope, err := NewScope(cfg.AllowedDomains, cfg.ExcludePaths)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrInvalidConfig, err)
	}
	f := &Fetcher{
		job:      job,
		scope:    scope,
		maxBytes: cfg.MaxBytes,
		agents:   cfg.UserAgents,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(f)
	}
	if f.client == nil {
		f.client = &http.Client{Timeout: cfg.RequestTimeout}
	}
	if f.limiter == nil {
		f.limiter = NewRateLimiter(cfg.RequestsPerSecond, cfg.JitterMin, cfg.JitterMax)
	}
	if f.maxBytes <= 0 {
		f.maxBytes = domain.DefaultMaxBytes
	}
	return f, nil
}

// Scope returns the fetcher's URL scope.
func (f *Fetcher) Scope() *Scope {
	return f.scope
}

// Fetch downloads rawURL. Failures are returned as *domain.FetchError.
func (f *Fetcher) Fetch(ctx context.Context, rawURL string) (*domain.RawDocument, error) {
	u, err := ParseURL(rawURL)
	if err != nil {
		return nil, &domain.FetchError{Kind: domain.FetchNetwork, URL: rawURL, Err: err}
	}
	target := u.String()
	if err := f.scope.Check(u); err != nil {
		return nil, &domain.FetchError{Kind: domain.FetchDisallowed, URL: target, Err: err}
	}

	if err := f.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, &domain.FetchError{Kind: domain.FetchNetwork, URL: target, Err: err}
	}
	if ua := f.userAgent(); ua != "" {
		req.Header.Set("User-Agent", ua)
	}
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/pdf;q=0.9,*/*;q=0.8")

	resp, err := f.client.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, &domain.FetchError{Kind: domain.FetchNetwork, URL: target, Err: err}
	}
	defer func() { _ = resp.Body.Close() }()

	// Redirects may leave the allow-list
	final := NormaliseURL(resp.Request.URL)
	if err := f.scope.Check(final); err != nil {
		return nil, &domain.FetchError{Kind: domain.FetchDisallowed, URL: final.String(), Err: err}
	}

	if err := f.limiter.CheckRateLimit(resp); err != nil {
		return nil, &domain.FetchError{Kind: domain.FetchNetwork, URL: target, Err: err}
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		statusErr := &StatusError{StatusCode: resp.StatusCode, URL: target}
		kind := domain.FetchNetwork
		if statusErr.IsNotFound() {
			kind = domain.FetchNotFound
		}
		return nil, &domain.FetchError{Kind: kind, URL: target, Err: statusErr}
	}

	body, err := ReadLimited(resp.Body, f.maxBytes)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, &domain.FetchError{Kind: domain.FetchNetwork, URL: target, Err: err}
	}

	return &domain.RawDocument{
		Job:       f.job,
		URL:       final.String(),
		MIMEType:  mediaType(resp.Header.Get("Content-Type")),
		Content:   body,
		FetchedAt: f.now().UTC(),
	}, nil
}

func (f *Fetcher) userAgent() string {
	if len(f.agents) == 0 {
		return ""
	}
	i := f.next.Add(1) - 1
	return f.agents[i%uint64(len(f.agents))]
}

// ReadLimited reads r fully, failing with domain.ErrContentTooLarge when it
// holds more than limit bytes.
func ReadLimited(r io.Reader, limit int64) ([]byte, error) {
	body, err := io.ReadAll(io.LimitReader(r, limit+1))
	if err != nil {
		return nil, err
	}
	if int64(len(body)) > limit {
		return nil, fmt.Errorf("%w: more than %d bytes", domain.ErrContentTooLarge, limit)
	}
	return body, nil
}

func mediaType(contentType string) string {
	if contentType == "" {
		return ""
	}
	mt, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return ""
	}
	return mt
}

// IsFetchError reports whether err is a per-document failure rather than a
// cancellation.
func IsFetchError(err error) bool {
	var fe *domain.FetchError
	return errors.As(err, &fe)
}
