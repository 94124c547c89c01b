package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
)

var historyLimit int

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List past harvest and merge runs",
	RunE:  runHistory,
}

func init() {
	historyCmd.Flags().IntVarP(&historyLimit, "limit", "n", 10, "number of runs to show")
	rootCmd.AddCommand(historyCmd)
}

func runHistory(cmd *cobra.Command, _ []string) error {
	if wiring == nil || wiring.OpenHistory == nil {
		return errors.New("run ledger not configured")
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	history, closeFn, err := wiring.OpenHistory(cfg)
	if err != nil {
		return fmt.Errorf("opening run ledger: %w", err)
	}
	if closeFn != nil {
		defer closeQuietly(closeFn)
	}

	runs, err := history.ListRuns(cmd.Context(), historyLimit)
	if err != nil {
		return fmt.Errorf("listing runs: %w", err)
	}
	renderHistory(cmd.OutOrStdout(), runs)
	return nil
}
