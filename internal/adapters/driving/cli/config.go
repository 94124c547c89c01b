package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/campusgpt/harvester/internal/core/domain"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Inspect or create the configuration file",
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the effective configuration",
	Long: `Prints the configuration after defaults are applied, as TOML.
Rule tables are not included.`,
	RunE: runConfigShow,
}

var configInitCmd = &cobra.Command{
	Use:   "init [path]",
	Short: "Write a starter configuration file",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runConfigInit,
}

func init() {
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configInitCmd)
	rootCmd.AddCommand(configCmd)
}

func runConfigShow(cmd *cobra.Command, _ []string) error {
	if wiring == nil || wiring.MarshalConfig == nil {
		return errors.New("configuration encoder not configured")
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	data, err := wiring.MarshalConfig(cfg)
	if err != nil {
		return fmt.Errorf("encoding configuration: %w", err)
	}
	cmd.Print(string(data))
	return nil
}

func runConfigInit(cmd *cobra.Command, args []string) error {
	if wiring == nil || wiring.WriteConfig == nil {
		return errors.New("configuration writer not configured")
	}

	path := configPath
	if len(args) > 0 {
		path = args[0]
	}

	if err := wiring.WriteConfig(path, starterConfig()); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	cmd.Printf("Wrote %s\n", path)
	return nil
}

// starterConfig is the default configuration with one example job of
// each kind.
func starterConfig() domain.Config {
	cfg := domain.DefaultConfig()
	cfg.AllowedDomains = []string{"example.edu"}
	cfg.Jobs = []domain.JobConfig{
		{
			Name:  "main-site",
			Kind:  domain.JobWeb,
			Seeds: []string{"https://www.example.edu/"},
		},
		{
			Name: "catalogs",
			Kind: domain.JobPDF,
			Sources: []domain.PDFSource{{
				Key:      "catalog",
				URL:      "https://www.example.edu/catalog.pdf",
				Title:    "Academic Catalog",
				Priority: "high",
			}},
		},
	}
	return cfg
}
