package cli

import (
	"bytes"
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/campusgpt/harvester/internal/core/domain"
	"github.com/campusgpt/harvester/internal/core/ports/driving"
)

// mockIngestor implements driving.Ingestor for testing.
type mockIngestor struct {
	mu         sync.Mutex
	summary    *domain.RunSummary
	err        error
	delay      time.Duration
	statuses   []driving.JobStatus
	harvestOpt driving.HarvestOptions
	harvests   int
	merges     int
}

func (m *mockIngestor) Harvest(ctx context.Context, opts driving.HarvestOptions) (*domain.RunSummary, error) {
	m.mu.Lock()
	m.harvestOpt = opts
	m.harvests++
	m.mu.Unlock()
	if m.delay > 0 {
		select {
		case <-time.After(m.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	return m.summary, m.err
}

func (m *mockIngestor) Merge(_ context.Context) (*domain.RunSummary, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.merges++
	return m.summary, m.err
}

func (m *mockIngestor) Status(job string) driving.JobStatus {
	return driving.JobStatus{Job: job, State: domain.JobPending}
}

func (m *mockIngestor) Statuses() []driving.JobStatus {
	return m.statuses
}

// mockHistory implements driving.RunHistory.
type mockHistory struct {
	runs  []domain.RunSummary
	limit int
}

func (h *mockHistory) ListRuns(_ context.Context, limit int) ([]domain.RunSummary, error) {
	h.limit = limit
	return h.runs, nil
}

// testWiring records what the commands asked for.
type testWiring struct {
	cfg        domain.Config
	cfgErr     error
	ingestor   *mockIngestor
	history    *mockHistory
	gotCfg     domain.Config
	gotOpts    IngestorOptions
	written    string
	closed     int
	loadedFrom string
}

func (w *testWiring) wiring() *Wiring {
	return &Wiring{
		LoadConfig: func(path string) (domain.Config, error) {
			w.loadedFrom = path
			return w.cfg, w.cfgErr
		},
		MarshalConfig: func(cfg domain.Config) ([]byte, error) {
			return []byte("output_dir = \"" + cfg.OutputDir + "\"\n"), nil
		},
		WriteConfig: func(path string, cfg domain.Config) error {
			if len(cfg.Jobs) == 0 {
				return errors.New("no jobs")
			}
			w.written = path
			return nil
		},
		NewIngestor: func(cfg domain.Config, opts IngestorOptions) (driving.Ingestor, func() error, error) {
			w.gotCfg = cfg
			w.gotOpts = opts
			return w.ingestor, func() error { w.closed++; return nil }, nil
		},
		OpenHistory: func(domain.Config) (driving.RunHistory, func() error, error) {
			return w.history, nil, nil
		},
	}
}

func setupWiring(t *testing.T, w *testWiring) {
	t.Helper()
	if w.ingestor == nil {
		w.ingestor = &mockIngestor{}
	}
	if w.history == nil {
		w.history = &mockHistory{}
	}
	old := wiring
	SetWiring(w.wiring())
	t.Cleanup(func() { wiring = old })
}

// execute runs the root command with fresh flag values.
func execute(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	resetFlags(rootCmd)

	stdout := new(bytes.Buffer)
	stderr := new(bytes.Buffer)
	rootCmd.SetOut(stdout)
	rootCmd.SetErr(stderr)
	rootCmd.SetArgs(args)
	defer func() {
		rootCmd.SetArgs(nil)
		rootCmd.SetOut(nil)
		rootCmd.SetErr(nil)
	}()

	err := rootCmd.Execute()
	return stdout.String(), stderr.String(), err
}

func resetFlags(cmd *cobra.Command) {
	reset := func(f *pflag.Flag) {
		if sv, ok := f.Value.(pflag.SliceValue); ok {
			_ = sv.Replace(nil)
		} else {
			_ = f.Value.Set(f.DefValue)
		}
		f.Changed = false
	}
	cmd.Flags().VisitAll(reset)
	cmd.PersistentFlags().VisitAll(reset)
	for _, sub := range cmd.Commands() {
		resetFlags(sub)
	}
}

func testSummary() *domain.RunSummary {
	t0 := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	return &domain.RunSummary{
		RunID:     "run-42",
		StartedAt: t0,
		EndedAt:   t0.Add(90 * time.Second),
		Jobs: []domain.JobResult{
			{
				Name:      "site",
				Kind:      domain.JobWeb,
				State:     domain.JobSucceeded,
				StartedAt: t0,
				EndedAt:   t0.Add(time.Minute),
				Stats: domain.JobStatsSnapshot{
					Fetched:     12,
					FetchErrors: map[domain.FetchErrorKind]int{domain.FetchNotFound: 2},
					Parsed:      12,
					Chunked:     40,
					Filtered:    domain.FilterCounts{domain.FilterLength: 3},
					Records:     37,
				},
			},
			{
				Name:   "slow",
				Kind:   domain.JobPDF,
				State:  domain.JobFailed,
				Reason: domain.FailureTimeout,
				Err:    &domain.JobTimeoutError{Job: "slow", Budget: time.Minute},
			},
		},
		Merge: domain.MergeStats{
			Input:      37,
			Filtered:   domain.FilterCounts{domain.FilterBoilerplate: 4},
			Duplicates: 1,
			Merged:     32,
			OutputPath: "data/combined_corpus.jsonl",
		},
	}
}
