package file

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"mime"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/campusgpt/harvester/internal/connectors/web"
	"github.com/campusgpt/harvester/internal/core/domain"
	"github.com/campusgpt/harvester/internal/core/ports/driven"
)

// Ensure Fetcher implements the interface.
var _ driven.Fetcher = (*Fetcher)(nil)

// Fetcher reads local files with a byte ceiling.
type Fetcher struct {
	job      string
	maxBytes int64
}

// NewFetcher creates a local file fetcher.
func NewFetcher(job string, maxBytes int64) *Fetcher {
	if maxBytes <= 0 {
		maxBytes = domain.DefaultMaxBytes
	}
	return &Fetcher{job: job, maxBytes: maxBytes}
}

// Fetch reads the file named by uri. A missing file is a not-found fetch
// error.
func (f *Fetcher) Fetch(ctx context.Context, uri string) (*domain.RawDocument, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	path := ResolvePath(uri)

	info, err := os.Stat(path)
	if err != nil {
		kind := domain.FetchNetwork
		if errors.Is(err, fs.ErrNotExist) {
			kind = domain.FetchNotFound
		}
		return nil, &domain.FetchError{Kind: kind, URL: uri, Err: err}
	}
	if info.IsDir() {
		return nil, &domain.FetchError{Kind: domain.FetchNotFound, URL: uri, Err: fmt.Errorf("%s is a directory", path)}
	}
	if info.Size() > f.maxBytes {
		return nil, &domain.FetchError{
			Kind: domain.FetchNetwork,
			URL:  uri,
			Err:  fmt.Errorf("%w: %d bytes", domain.ErrContentTooLarge, info.Size()),
		}
	}

	fh, err := os.Open(path)
	if err != nil {
		return nil, &domain.FetchError{Kind: domain.FetchNetwork, URL: uri, Err: err}
	}
	defer func() { _ = fh.Close() }()

	// The file may grow between Stat and Read
	content, err := web.ReadLimited(fh, f.maxBytes)
	if err != nil {
		return nil, &domain.FetchError{Kind: domain.FetchNetwork, URL: uri, Err: err}
	}

	return &domain.RawDocument{
		Job:       f.job,
		URL:       uri,
		MIMEType:  mimeFromExt(path),
		Content:   content,
		FetchedAt: info.ModTime().UTC().Truncate(time.Second),
	}, nil
}

func mimeFromExt(path string) string {
	mt := mime.TypeByExtension(strings.ToLower(filepath.Ext(path)))
	if mt == "" {
		return ""
	}
	mt, _, _ = mime.ParseMediaType(mt)
	return mt
}
