package driven

import (
	"context"

	"github.com/campusgpt/harvester/internal/core/domain"
)

// Connector streams the raw documents of one harvest job.
// Each job kind (web crawl, pdf list) has its own implementation.
type Connector interface {
	// Kind returns the job kind the connector serves.
	Kind() domain.JobKind

	// Job returns the configured job name.
	Job() string

	// Harvest starts fetching and returns channels for documents and
	// per-document errors. Both channels are closed when the connector is
	// done or ctx is cancelled. A *domain.FetchError concerns one document
	// and never ends the harvest; any other error means the connector could
	// not run.
	Harvest(ctx context.Context) (<-chan domain.RawDocument, <-chan error)

	// Close releases resources.
	Close() error
}

// ConnectorFactory creates connectors from job configuration.
type ConnectorFactory interface {
	// Create builds the connector for a job.
	Create(ctx context.Context, job domain.JobConfig) (Connector, error)
}

// Fetcher retrieves the raw bytes behind a URL or local path.
type Fetcher interface {
	// Fetch returns the document or a *domain.FetchError.
	Fetch(ctx context.Context, url string) (*domain.RawDocument, error)
}
