package web

import (
	"context"
	"math/rand/v2"
	"net/http"
	"strconv"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// HeaderRetryAfter is the retry-after header (seconds or HTTP date).
const HeaderRetryAfter = "Retry-After"

// DefaultRetryAfter is the pause applied to a 429 without a usable header.
const DefaultRetryAfter = 30 * time.Second

// RateLimiter combines a token bucket with a random politeness delay.
// One limiter is shared by every fetch worker of a job.
type RateLimiter struct {
	mu          sync.Mutex
	bucket      *rate.Limiter
	pausedUntil time.Time
	jitterMin   time.Duration
	jitterMax   time.Duration
}

// NewRateLimiter creates a limiter allowing rps requests per second, each
// preceded by a delay drawn from [jitterMin, jitterMax]. A non-positive rps
// disables the token bucket.
func NewRateLimiter(rps float64, jitterMin, jitterMax time.Duration) *RateLimiter {
	limit := rate.Inf
	if rps > 0 {
		limit = rate.Limit(rps)
	}
	if jitterMax < jitterMin {
		jitterMax = jitterMin
	}
	return &RateLimiter{
		bucket:    rate.NewLimiter(limit, 1),
		jitterMin: jitterMin,
		jitterMax: jitterMax,
	}
}

// Wait blocks until it's safe to make a request.
func (r *RateLimiter) Wait(ctx context.Context) error {
	// 1. Honour a server-requested pause
	r.mu.Lock()
	pausedUntil := r.pausedUntil
	r.mu.Unlock()
	if err := sleep(ctx, time.Until(pausedUntil)); err != nil {
		return err
	}

	// 2. Token bucket
	if err := r.bucket.Wait(ctx); err != nil {
		return err
	}

	// 3. Politeness jitter
	return sleep(ctx, r.jitter())
}

func (r *RateLimiter) jitter() time.Duration {
	span := r.jitterMax - r.jitterMin
	if span <= 0 {
		return r.jitterMin
	}
	return r.jitterMin + rand.N(span+1)
}

// CheckRateLimit inspects a response. A 429 pauses the limiter until the
// Retry-After deadline and returns a RateLimitError; other responses
// return nil.
func (r *RateLimiter) CheckRateLimit(resp *http.Response) error {
	if resp == nil || resp.StatusCode != http.StatusTooManyRequests {
		return nil
	}

	resetAt := time.Now().Add(parseRetryAfter(resp.Header.Get(HeaderRetryAfter)))

	r.mu.Lock()
	if resetAt.After(r.pausedUntil) {
		r.pausedUntil = resetAt
	}
	r.mu.Unlock()

	return &RateLimitError{URL: resp.Request.URL.String(), ResetAt: resetAt}
}

// PausedUntil returns the end of the current server-requested pause.
func (r *RateLimiter) PausedUntil() time.Time {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.pausedUntil
}

func parseRetryAfter(v string) time.Duration {
	if v == "" {
		return DefaultRetryAfter
	}
	if seconds, err := strconv.Atoi(v); err == nil && seconds >= 0 {
		return time.Duration(seconds) * time.Second
	}
	if at, err := http.ParseTime(v); err == nil {
		if d := time.Until(at); d > 0 {
			return d
		}
		return 0
	}
	return DefaultRetryAfter
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
