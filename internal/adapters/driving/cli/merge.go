package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/campusgpt/harvester/internal/logger"
)

var mergeWatch bool

var mergeCmd = &cobra.Command{
	Use:   "merge",
	Short: "Rebuild the corpus from persisted job outputs",
	Long: `Merges the persisted output of every configured job into the combined
corpus without fetching anything. A job with no output is reported as
failed (missing).

With --watch the merge is repeated whenever a job output, the rules file or
the configuration file changes.`,
	RunE: runMerge,
}

func init() {
	mergeCmd.Flags().BoolVarP(&mergeWatch, "watch", "w", false, "re-merge when job outputs or rules change")
	rootCmd.AddCommand(mergeCmd)
}

func runMerge(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := mergeOnce(ctx, cmd); err != nil {
		if !mergeWatch {
			return err
		}
		logger.Error("%v", err)
	}
	if !mergeWatch {
		return nil
	}

	targets := newWatchTargets(cfg, configPath)
	cmd.PrintErrf("Watching %s for changes...\n", targets.jobsDir)
	return watch(ctx, targets, watchDebounce, func() {
		if err := mergeOnce(ctx, cmd); err != nil {
			logger.Error("%v", err)
		}
	})
}

// mergeOnce reloads the configuration and merges. Reloading picks up
// rule and job changes made since the last merge.
func mergeOnce(ctx context.Context, cmd *cobra.Command) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	ing, closeFn, err := newIngestor(cfg, IngestorOptions{})
	if err != nil {
		return err
	}
	defer closeQuietly(closeFn)

	summary, err := ing.Merge(ctx)
	if summary != nil {
		renderSummary(cmd.OutOrStdout(), summary)
	}
	if err != nil {
		return fmt.Errorf("merge failed: %w", err)
	}
	return nil
}
