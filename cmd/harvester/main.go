// Command harvester builds a retrieval corpus from university web pages and
// PDF documents.
package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/campusgpt/harvester/internal/adapters/driven/cache/badger"
	"github.com/campusgpt/harvester/internal/adapters/driven/config/file"
	"github.com/campusgpt/harvester/internal/adapters/driven/metrics/prometheus"
	"github.com/campusgpt/harvester/internal/adapters/driven/storage/jsonl"
	"github.com/campusgpt/harvester/internal/adapters/driven/storage/memory"
	"github.com/campusgpt/harvester/internal/adapters/driven/storage/sqlite"
	"github.com/campusgpt/harvester/internal/adapters/driving/cli"
	"github.com/campusgpt/harvester/internal/connectors"
	"github.com/campusgpt/harvester/internal/core/domain"
	"github.com/campusgpt/harvester/internal/core/ports/driven"
	"github.com/campusgpt/harvester/internal/core/ports/driving"
	"github.com/campusgpt/harvester/internal/core/services"
	"github.com/campusgpt/harvester/internal/normalisers"
	"github.com/campusgpt/harvester/internal/postprocessors"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

func main() {
	cli.SetVersion(version)
	cli.SetWiring(&cli.Wiring{
		LoadConfig:    file.Load,
		MarshalConfig: file.Marshal,
		WriteConfig:   file.Write,
		NewIngestor:   newIngestor,
		OpenHistory:   openHistory,
	})

	if err := cli.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

// newIngestor assembles the harvest service and its adapters.
func newIngestor(cfg domain.Config, opts cli.IngestorOptions) (driving.Ingestor, func() error, error) {
	var closers []func() error
	closeAll := func() error {
		var errs []error
		for i := len(closers) - 1; i >= 0; i-- {
			errs = append(errs, closers[i]())
		}
		return errors.Join(errs...)
	}

	cacheDir := cfg.CacheDirOrDefault()
	if opts.DryRun {
		cacheDir = ""
	}
	cache, err := badger.Open(cacheDir, cfg.CacheTTL)
	if err != nil {
		return nil, nil, err
	}
	closers = append(closers, cache.Close)

	registry, err := normalisers.NewDefault(cfg)
	if err != nil {
		_ = closeAll()
		return nil, nil, fmt.Errorf("building parsers: %w", err)
	}

	diskStore, err := jsonl.NewStore(cfg.OutputDir, cfg.CorpusFile)
	if err != nil {
		_ = closeAll()
		return nil, nil, err
	}

	var (
		store       driven.RecordStore = diskStore
		ledger      driven.RunLedger
		metricsFile = cfg.MetricsFile
	)
	if opts.DryRun {
		store = memory.NewRecordStore(diskStore)
		ledger = memory.NewRunLedger()
		metricsFile = ""
	} else {
		db, err := sqlite.NewStore(cfg.LedgerDirOrDefault())
		if err != nil {
			_ = closeAll()
			return nil, nil, fmt.Errorf("opening run ledger: %w", err)
		}
		closers = append(closers, db.Close)
		ledger = db.RunLedger()
	}

	harvester := services.NewHarvester(
		cfg,
		connectors.NewFactory(cfg, cache),
		registry,
		postprocessors.NewFactory(cfg),
		store,
		services.WithLedger(ledger),
		services.WithMetrics(prometheus.New(metricsFile)),
	)
	return harvester, closeAll, nil
}

// openHistory opens the run ledger for reading.
func openHistory(cfg domain.Config) (driving.RunHistory, func() error, error) {
	db, err := sqlite.NewStore(cfg.LedgerDirOrDefault())
	if err != nil {
		return nil, nil, err
	}
	return db.RunLedger(), db.Close, nil
}
