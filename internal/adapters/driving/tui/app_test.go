package tui

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/campusgpt/harvester/internal/core/domain"
	"github.com/campusgpt/harvester/internal/core/ports/driving"
)

// stubIngestor reports fixed statuses.
type stubIngestor struct {
	statuses []driving.JobStatus
}

func (s *stubIngestor) Harvest(context.Context, driving.HarvestOptions) (*domain.RunSummary, error) {
	return nil, errors.New("not used")
}

func (s *stubIngestor) Merge(context.Context) (*domain.RunSummary, error) {
	return nil, errors.New("not used")
}

func (s *stubIngestor) Status(job string) driving.JobStatus {
	return driving.JobStatus{Job: job}
}

func (s *stubIngestor) Statuses() []driving.JobStatus {
	return s.statuses
}

func TestRun_ReturnsHarvestResult(t *testing.T) {
	ing := &stubIngestor{statuses: []driving.JobStatus{{Job: "site", State: domain.JobSucceeded}}}
	want := &domain.RunSummary{RunID: "run-1"}

	var out bytes.Buffer
	got, err := Run(context.Background(), ing, func(context.Context) (*domain.RunSummary, error) {
		time.Sleep(20 * time.Millisecond)
		return want, nil
	}, strings.NewReader(""), &out)

	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestRun_PropagatesError(t *testing.T) {
	ing := &stubIngestor{}
	boom := &domain.MergeError{Err: errors.New("read-only")}

	var out bytes.Buffer
	_, err := Run(context.Background(), ing, func(context.Context) (*domain.RunSummary, error) {
		return nil, boom
	}, strings.NewReader(""), &out)

	assert.ErrorIs(t, err, boom)
}

func TestRun_ParentCancelStopsHarvest(t *testing.T) {
	ing := &stubIngestor{}
	ctx, cancel := context.WithCancel(context.Background())

	var out bytes.Buffer
	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()
	_, err := Run(ctx, ing, func(ctx context.Context) (*domain.RunSummary, error) {
		<-ctx.Done()
		return nil, ctx.Err()
	}, strings.NewReader(""), &out)

	assert.ErrorIs(t, err, context.Canceled)
}
