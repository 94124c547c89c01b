// Package cli provides the harvester command-line interface.
package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/campusgpt/harvester/internal/core/domain"
	"github.com/campusgpt/harvester/internal/core/ports/driving"
	"github.com/campusgpt/harvester/internal/logger"
)

// DefaultConfigPath is used when --config is not given.
const DefaultConfigPath = "harvester.toml"

// IngestorOptions tunes how the harvest service is assembled.
type IngestorOptions struct {
	// DryRun keeps outputs in memory and skips the ledger and metrics file.
	DryRun bool
}

// Wiring connects the commands to the composition root.
type Wiring struct {
	// LoadConfig reads and validates a configuration file.
	LoadConfig func(path string) (domain.Config, error)

	// MarshalConfig renders a configuration as TOML.
	MarshalConfig func(cfg domain.Config) ([]byte, error)

	// WriteConfig creates a new configuration file.
	WriteConfig func(path string, cfg domain.Config) error

	// NewIngestor assembles the harvest service. The returned func
	// releases its resources.
	NewIngestor func(cfg domain.Config, opts IngestorOptions) (driving.Ingestor, func() error, error)

	// OpenHistory opens the run ledger.
	OpenHistory func(cfg domain.Config) (driving.RunHistory, func() error, error)
}

var (
	version    = "dev"
	configPath string
	verbose    bool
	wiring     *Wiring
)

var rootCmd = &cobra.Command{
	Use:   "harvester",
	Short: "Harvest university web pages and PDFs into a retrieval corpus",
	Long: `Harvester crawls the configured web sites and PDF sources, splits each
document into sections, tags them with audience and FAQ metadata, filters
low-value text and merges every job's output into one JSON Lines corpus.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(_ *cobra.Command, _ []string) {
		logger.SetVerbose(verbose)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", DefaultConfigPath, "configuration file")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
}

// SetWiring sets the services the commands use.
func SetWiring(w *Wiring) {
	wiring = w
}

// SetVersion sets the version reported by the version command.
func SetVersion(v string) {
	if v != "" {
		version = v
	}
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

// loadConfig loads the file named by --config.
func loadConfig() (domain.Config, error) {
	if wiring == nil || wiring.LoadConfig == nil {
		return domain.Config{}, errors.New("configuration loader not configured")
	}
	cfg, err := wiring.LoadConfig(configPath)
	if err != nil {
		return domain.Config{}, fmt.Errorf("loading %s: %w", configPath, err)
	}
	return cfg, nil
}

// newIngestor builds the harvest service for cfg.
func newIngestor(cfg domain.Config, opts IngestorOptions) (driving.Ingestor, func() error, error) {
	if wiring == nil || wiring.NewIngestor == nil {
		return nil, nil, errors.New("harvest service not configured")
	}
	ing, closeFn, err := wiring.NewIngestor(cfg, opts)
	if err != nil {
		return nil, nil, err
	}
	if closeFn == nil {
		closeFn = func() error { return nil }
	}
	return ing, closeFn, nil
}

// closeQuietly releases resources, logging failures.
func closeQuietly(closeFn func() error) {
	if err := closeFn(); err != nil {
		logger.Warn("closing resources: %v", err)
	}
}
