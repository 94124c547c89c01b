package web

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/campusgpt/harvester/internal/core/domain"
)

func testConfig(allowed ...string) domain.Config {
	cfg := domain.DefaultConfig()
	cfg.AllowedDomains = allowed
	cfg.RequestsPerSecond = 0
	cfg.JitterMin = 0
	cfg.JitterMax = 0
	cfg.RequestTimeout = 5 * time.Second
	cfg.Workers = 2
	return cfg
}

// site serves a small linked set of pages.
func site(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	page := func(body string) http.HandlerFunc {
		return func(w http.ResponseWriter, _ *http.Request) {
			w.Header().Set("Content-Type", "text/html; charset=utf-8")
			_, _ = fmt.Fprint(w, body)
		}
	}
	mux.HandleFunc("/{$}", page(`<html><body>
		<a href="/admissions">Admissions</a>
		<a href="/registrar#hours">Registrar</a>
		<a href="/catalog.pdf">Catalog</a>
		<a href="/admin/secret">Admin</a>
		<a href="https://elsewhere.example.com/">Away</a>
		<a href="mailto:info@example.com">Mail</a>
	</body></html>`))
	mux.HandleFunc("/admissions", page(`<html><body><a href="/admissions/deadlines">Deadlines</a><a href="/">Home</a></body></html>`))
	mux.HandleFunc("/admissions/deadlines", page(`<html><body><a href="/deep">Deep</a></body></html>`))
	mux.HandleFunc("/registrar", page(`<html><body>Registrar</body></html>`))
	mux.HandleFunc("/deep", page(`<html><body>Deep</body></html>`))
	mux.HandleFunc("/admin/secret", page(`<html><body>Secret</body></html>`))
	mux.HandleFunc("/gone", func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusGone) })
	mux.HandleFunc("/broken", func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusInternalServerError) })
	mux.HandleFunc("/big", func(w http.ResponseWriter, _ *http.Request) { _, _ = fmt.Fprint(w, strings.Repeat("x", 2048)) })
	mux.HandleFunc("/slow-down", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set(HeaderRetryAfter, "120")
		w.WriteHeader(http.StatusTooManyRequests)
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func hostOf(t *testing.T, raw string) string {
	t.Helper()
	u, err := url.Parse(raw)
	require.NoError(t, err)
	return u.Hostname()
}

func TestFetcher_Fetch(t *testing.T) {
	srv := site(t)
	cfg := testConfig(hostOf(t, srv.URL))
	cfg.MaxBytes = 1024
	cfg.ExcludePaths = []string{"/admin/**"}

	tests := []struct {
		name     string
		path     string
		wantKind domain.FetchErrorKind
	}{
		{name: "ok", path: "/registrar"},
		{name: "gone is not-found", path: "/gone", wantKind: domain.FetchNotFound},
		{name: "missing is not-found", path: "/nope", wantKind: domain.FetchNotFound},
		{name: "server error is network", path: "/broken", wantKind: domain.FetchNetwork},
		{name: "oversize body is network", path: "/big", wantKind: domain.FetchNetwork},
		{name: "excluded path is disallowed", path: "/admin/secret", wantKind: domain.FetchDisallowed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f, err := NewFetcher("web", cfg)
			require.NoError(t, err)

			doc, err := f.Fetch(context.Background(), srv.URL+tt.path)
			if tt.wantKind == "" {
				require.NoError(t, err)
				assert.Equal(t, "web", doc.Job)
				assert.Equal(t, "text/html", doc.MIMEType)
				assert.Contains(t, string(doc.Content), "Registrar")
				assert.False(t, doc.FetchedAt.IsZero())
				return
			}
			require.Error(t, err)
			kind, ok := domain.FetchKindOf(err)
			require.True(t, ok, "expected FetchError, got %v", err)
			assert.Equal(t, tt.wantKind, kind)
		})
	}
}

func TestFetcher_OversizeIsContentTooLarge(t *testing.T) {
	srv := site(t)
	cfg := testConfig(hostOf(t, srv.URL))
	cfg.MaxBytes = 1024

	f, err := NewFetcher("web", cfg)
	require.NoError(t, err)

	_, err = f.Fetch(context.Background(), srv.URL+"/big")
	assert.ErrorIs(t, err, domain.ErrContentTooLarge)
}

func TestFetcher_DisallowedDomainSkipsNetwork(t *testing.T) {
	var hits int
	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) { hits++ }))
	defer srv.Close()

	f, err := NewFetcher("web", testConfig("nku.edu"))
	require.NoError(t, err)

	_, err = f.Fetch(context.Background(), srv.URL+"/")
	assert.ErrorIs(t, err, domain.ErrDisallowed)
	assert.Zero(t, hits)
}

func TestFetcher_RotatesUserAgents(t *testing.T) {
	var mu sync.Mutex
	var agents []string
	srv := httptest.NewServer(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
		mu.Lock()
		agents = append(agents, r.UserAgent())
		mu.Unlock()
	}))
	defer srv.Close()

	cfg := testConfig(hostOf(t, srv.URL))
	cfg.UserAgents = []string{"ua-one", "ua-two"}
	f, err := NewFetcher("web", cfg)
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		_, err := f.Fetch(context.Background(), srv.URL+"/")
		require.NoError(t, err)
	}
	assert.Equal(t, []string{"ua-one", "ua-two", "ua-one"}, agents)
}

func TestFetcher_TooManyRequestsPausesLimiter(t *testing.T) {
	srv := site(t)
	limiter := NewRateLimiter(0, 0, 0)
	f, err := NewFetcher("web", testConfig(hostOf(t, srv.URL)), WithRateLimiter(limiter))
	require.NoError(t, err)

	_, err = f.Fetch(context.Background(), srv.URL+"/slow-down")
	var rl *RateLimitError
	require.ErrorAs(t, err, &rl)
	kind, _ := domain.FetchKindOf(err)
	assert.Equal(t, domain.FetchNetwork, kind)
	assert.WithinDuration(t, time.Now().Add(120*time.Second), limiter.PausedUntil(), 5*time.Second)

	// The next request waits for the pause and gives up with the context.
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err = f.Fetch(ctx, srv.URL+"/registrar")
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestParseRetryAfter(t *testing.T) {
	assert.Equal(t, 7*time.Second, parseRetryAfter("7"))
	assert.Equal(t, DefaultRetryAfter, parseRetryAfter(""))
	assert.Equal(t, DefaultRetryAfter, parseRetryAfter("soon"))
	past := time.Now().Add(-time.Hour).UTC().Format(http.TimeFormat)
	assert.Equal(t, time.Duration(0), parseRetryAfter(past))
}

func TestScope(t *testing.T) {
	s, err := NewScope([]string{"nku.edu"}, []string{"/admin/**", "/**/*.aspx"})
	require.NoError(t, err)

	tests := []struct {
		raw       string
		allowed   bool
		crawlable bool
	}{
		{raw: "https://nku.edu/admissions", allowed: true, crawlable: true},
		{raw: "https://www.nku.edu/", allowed: true, crawlable: true},
		{raw: "https://inside.nku.edu/faculty", allowed: true, crawlable: true},
		{raw: "https://notnku.edu/", allowed: false},
		{raw: "https://nku.edu.evil.com/", allowed: false},
		{raw: "ftp://nku.edu/file", allowed: false},
		{raw: "https://nku.edu/admin/users", allowed: false},
		{raw: "https://nku.edu/forms/apply.aspx", allowed: false},
		{raw: "https://nku.edu/catalog.pdf", allowed: true, crawlable: false},
		{raw: "https://nku.edu/logo.PNG", allowed: true, crawlable: false},
	}
	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			u, err := url.Parse(tt.raw)
			require.NoError(t, err)
			assert.Equal(t, tt.allowed, s.Check(u) == nil)
			assert.Equal(t, tt.crawlable, s.Crawlable(u))
		})
	}

	_, err = NewScope(nil, []string{"[unclosed"})
	assert.Error(t, err)
}

func TestExtractLinks(t *testing.T) {
	base, _ := url.Parse("https://www.nku.edu/academics/index.html")
	body := []byte(`<html><body>
		<a href="calendar.html#spring">Calendar</a>
		<a href="/registrar">Registrar</a>
		<a href="HTTPS://WWW.NKU.EDU:443/registrar">Again</a>
		<a href="#top">Top</a>
		<a href="javascript:void(0)">JS</a>
		<a>No href</a>
	</body></html>`)

	var got []string
	for _, u := range ExtractLinks(base, body) {
		got = append(got, u.String())
	}
	assert.Equal(t, []string{
		"https://www.nku.edu/academics/calendar.html",
		"https://www.nku.edu/registrar",
	}, got)
}

func TestExtractLinks_BaseHref(t *testing.T) {
	base, _ := url.Parse("https://www.nku.edu/a/b")
	body := []byte(`<html><head><base href="https://www.nku.edu/root/"></head><body><a href="page">P</a></body></html>`)

	links := ExtractLinks(base, body)
	require.Len(t, links, 1)
	assert.Equal(t, "https://www.nku.edu/root/page", links[0].String())
}

func collect(t *testing.T, c *Connector) ([]string, []error) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	docs, errs := c.Harvest(ctx)
	var urls []string
	var fetchErrs []error
	for docs != nil || errs != nil {
		select {
		case doc, ok := <-docs:
			if !ok {
				docs = nil
				continue
			}
			u, err := url.Parse(doc.URL)
			require.NoError(t, err)
			urls = append(urls, u.Path)
		case err, ok := <-errs:
			if !ok {
				errs = nil
				continue
			}
			fetchErrs = append(fetchErrs, err)
		}
	}
	sort.Strings(urls)
	return urls, fetchErrs
}

func TestConnector_CrawlsWithinScope(t *testing.T) {
	srv := site(t)
	cfg := testConfig()
	cfg.ExcludePaths = []string{"/admin/**"}

	c, err := New(cfg, domain.JobConfig{Name: "web", Kind: domain.JobWeb, Seeds: []string{srv.URL + "/"}})
	require.NoError(t, err)
	defer c.Close()

	urls, errs := collect(t, c)
	assert.Empty(t, errs)
	assert.Equal(t, []string{"/", "/admissions", "/admissions/deadlines", "/deep", "/registrar"}, urls)
}

func TestConnector_MaxDepth(t *testing.T) {
	srv := site(t)
	c, err := New(testConfig(), domain.JobConfig{Name: "web", Kind: domain.JobWeb, Seeds: []string{srv.URL + "/"}, MaxDepth: 1})
	require.NoError(t, err)

	urls, _ := collect(t, c)
	assert.Equal(t, []string{"/", "/admin/secret", "/admissions", "/registrar"}, urls)
}

func TestConnector_MaxPages(t *testing.T) {
	srv := site(t)
	c, err := New(testConfig(), domain.JobConfig{Name: "web", Kind: domain.JobWeb, Seeds: []string{srv.URL + "/"}, MaxPages: 2})
	require.NoError(t, err)

	urls, _ := collect(t, c)
	assert.Len(t, urls, 2)
}

func TestConnector_ReportsFetchErrors(t *testing.T) {
	srv := site(t)
	c, err := New(testConfig(), domain.JobConfig{Name: "web", Kind: domain.JobWeb, Seeds: []string{srv.URL + "/registrar", srv.URL + "/gone"}})
	require.NoError(t, err)

	urls, errs := collect(t, c)
	assert.Equal(t, []string{"/registrar"}, urls)
	require.Len(t, errs, 1)
	assert.True(t, errors.Is(errs[0], domain.ErrNotFound))
}

func TestNew_InvalidSeeds(t *testing.T) {
	tests := []struct {
		name  string
		seeds []string
	}{
		{name: "none", seeds: nil},
		{name: "relative", seeds: []string{"/admissions"}},
		{name: "bad scheme", seeds: []string{"ftp://nku.edu/"}},
		{name: "outside allow-list", seeds: []string{"https://example.com/"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(testConfig("nku.edu"), domain.JobConfig{Name: "web", Kind: domain.JobWeb, Seeds: tt.seeds})
			assert.ErrorIs(t, err, domain.ErrInvalidInput)
		})
	}
}

func TestConnector_Closed(t *testing.T) {
	c, err := New(testConfig(), domain.JobConfig{Name: "web", Kind: domain.JobWeb, Seeds: []string{"https://nku.edu/"}})
	require.NoError(t, err)
	require.NoError(t, c.Close())

	_, errs := collect(t, c)
	require.Len(t, errs, 1)
	assert.ErrorIs(t, errs[0], domain.ErrConnectorClosed)
	assert.Equal(t, domain.JobWeb, c.Kind())
	assert.Equal(t, "web", c.Job())
}
