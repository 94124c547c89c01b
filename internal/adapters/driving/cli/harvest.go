package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/campusgpt/harvester/internal/adapters/driving/tui"
	"github.com/campusgpt/harvester/internal/core/domain"
	"github.com/campusgpt/harvester/internal/core/ports/driving"
)

var (
	harvestJobs      []string
	harvestMergeOnly bool
	harvestProgress  bool
	harvestTimeout   time.Duration
	harvestDryRun    bool
)

// progressInterval is how often the plain progress line is refreshed.
var progressInterval = 500 * time.Millisecond

var harvestCmd = &cobra.Command{
	Use:   "harvest",
	Short: "Run harvest jobs and merge the corpus",
	Long: `Runs the configured harvest jobs concurrently, writes each succeeded job's
output and merges all outputs into the combined corpus.

A failed job is reported in the summary and does not stop the others. Jobs
not selected with --job keep their previous output in the merge.`,
	RunE: runHarvest,
}

func init() {
	harvestCmd.Flags().StringSliceVarP(&harvestJobs, "job", "j", nil, "run only the named jobs (repeatable)")
	harvestCmd.Flags().BoolVar(&harvestMergeOnly, "merge-only", false, "skip harvesting and merge persisted job outputs")
	harvestCmd.Flags().BoolVar(&harvestProgress, "progress", false, "show live job progress")
	harvestCmd.Flags().DurationVar(&harvestTimeout, "timeout", 0, "default per-job time budget (overrides job_timeout)")
	harvestCmd.Flags().BoolVar(&harvestDryRun, "dry-run", false, "run without writing outputs, ledger or metrics")
	rootCmd.AddCommand(harvestCmd)
}

func runHarvest(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if harvestTimeout > 0 {
		cfg.JobTimeout = harvestTimeout
	}
	if harvestMergeOnly {
		cfg.MergeOnly = true
	}

	ing, closeFn, err := newIngestor(cfg, IngestorOptions{DryRun: harvestDryRun})
	if err != nil {
		return err
	}
	defer closeQuietly(closeFn)

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	opts := driving.HarvestOptions{Jobs: harvestJobs, MergeOnly: harvestMergeOnly}
	run := func(ctx context.Context) (*domain.RunSummary, error) {
		return ing.Harvest(ctx, opts)
	}

	var summary *domain.RunSummary
	switch {
	case harvestProgress && isTerminal(cmd.OutOrStdout()):
		summary, err = tui.Run(ctx, ing, run, cmd.InOrStdin(), cmd.OutOrStdout())
	case harvestProgress:
		summary, err = harvestWithProgress(ctx, cmd.ErrOrStderr(), ing, run)
	default:
		summary, err = run(ctx)
	}

	if summary != nil {
		renderSummary(cmd.OutOrStdout(), summary)
	}
	if err != nil {
		return fmt.Errorf("harvest failed: %w", err)
	}
	return nil
}

// harvestWithProgress runs the harvest while printing a progress line.
func harvestWithProgress(
	ctx context.Context,
	w io.Writer,
	ing driving.Ingestor,
	run tui.HarvestFunc,
) (*domain.RunSummary, error) {
	type result struct {
		summary *domain.RunSummary
		err     error
	}
	done := make(chan result, 1)
	go func() {
		s, err := run(ctx)
		done <- result{summary: s, err: err}
	}()

	ticker := time.NewTicker(progressInterval)
	defer ticker.Stop()

	last := ""
	for {
		select {
		case res := <-done:
			if last != "" {
				fmt.Fprintln(w)
			}
			return res.summary, res.err
		case <-ticker.C:
			if line := progressLine(ing.Statuses()); line != last {
				fmt.Fprintf(w, "\r%s", line)
				last = line
			}
		}
	}
}

// progressLine summarises job statuses on one line.
func progressLine(statuses []driving.JobStatus) string {
	var running, finished, docs, errs int
	for _, st := range statuses {
		switch {
		case st.Running():
			running++
		case st.State.Terminal():
			finished++
		}
		docs += st.DocumentsProcessed
		errs += st.ErrorCount
	}
	return fmt.Sprintf("Harvesting... %d/%d jobs done, %d running, %d documents (%d errors)",
		finished, len(statuses), running, docs, errs)
}

// isTerminal reports whether w is an interactive terminal.
func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}
