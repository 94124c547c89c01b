package cli

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/campusgpt/harvester/internal/adapters/driving/tui/styles"
	"github.com/campusgpt/harvester/internal/core/domain"
)

var outputStyles = styles.DefaultStyles()

const stateColumn = 1

// renderSummary writes a run report.
func renderSummary(w io.Writer, s *domain.RunSummary) {
	st := outputStyles

	mode := "harvest"
	if s.MergeOnly {
		mode = "merge"
	}
	fmt.Fprintf(w, "%s %s\n", st.Title.Render("Run "+s.RunID),
		st.Muted.Render(fmt.Sprintf("(%s, %s)", mode, formatDuration(s.EndedAt.Sub(s.StartedAt)))))

	if len(s.Jobs) > 0 {
		fmt.Fprintln(w, jobTable(s.Jobs))
	}

	for _, job := range s.Failed() {
		msg := string(job.Reason)
		if job.Err != nil {
			msg = job.Err.Error()
		}
		fmt.Fprintf(w, "%s %s: %s\n", st.Error.Render("✗"), job.Name, msg)
	}

	m := s.Merge
	fmt.Fprintf(w, "%s input %d, filtered %d, duplicates %d, merged %d",
		st.Subtitle.Render("Merge:"), m.Input, m.Filtered.Total(), m.Duplicates, m.Merged)
	if m.OutputPath != "" {
		fmt.Fprintf(w, " -> %s", m.OutputPath)
	}
	fmt.Fprintln(w)
	fmt.Fprintf(w, "%s %s\n", st.Subtitle.Render("Filtered:"), formatFilterCounts(s.TotalFiltered()))
}

func jobTable(jobs []domain.JobResult) string {
	rows := make([][]string, 0, len(jobs))
	states := make([]domain.JobState, 0, len(jobs))
	for _, j := range jobs {
		rows = append(rows, []string{
			j.Name,
			stateText(j.State, j.Reason),
			strconv.Itoa(j.Stats.Fetched),
			formatFetchErrors(j.Stats.FetchErrors),
			strconv.Itoa(j.Stats.ParseErrors),
			strconv.Itoa(j.Stats.Parsed),
			strconv.Itoa(j.Stats.Chunked),
			strconv.Itoa(j.Stats.Filtered.Total()),
			strconv.Itoa(j.Stats.Records),
			formatDuration(j.Duration()),
		})
		states = append(states, j.State)
	}

	return table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(outputStyles.Muted).
		Headers("JOB", "STATE", "FETCHED", "FETCH ERR", "PARSE ERR", "PARSED", "CHUNKED", "FILTERED", "RECORDS", "TIME").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			base := lipgloss.NewStyle().Padding(0, 1)
			switch {
			case row == table.HeaderRow:
				return outputStyles.Header.Padding(0, 1)
			case col == stateColumn && row >= 0 && row < len(states):
				return outputStyles.ForState(states[row]).Padding(0, 1)
			}
			return base
		}).
		String()
}

// renderHistory writes the run ledger as a table.
func renderHistory(w io.Writer, runs []domain.RunSummary) {
	if len(runs) == 0 {
		fmt.Fprintln(w, outputStyles.Muted.Render("No runs recorded."))
		return
	}

	rows := make([][]string, 0, len(runs))
	for i := range runs {
		r := &runs[i]
		mode := "harvest"
		if r.MergeOnly {
			mode = "merge"
		}
		rows = append(rows, []string{
			r.RunID,
			r.StartedAt.Local().Format("2006-01-02 15:04:05"),
			mode,
			fmt.Sprintf("%d/%d", len(r.Succeeded()), len(r.Jobs)),
			strings.Join(failedNames(r), ","),
			strconv.Itoa(r.Merge.Merged),
			strconv.Itoa(r.Merge.Duplicates),
			formatDuration(r.EndedAt.Sub(r.StartedAt)),
		})
	}

	t := table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(outputStyles.Muted).
		Headers("RUN", "STARTED", "MODE", "OK", "FAILED", "MERGED", "DUPLICATES", "TIME").
		Rows(rows...).
		StyleFunc(func(row, _ int) lipgloss.Style {
			if row == table.HeaderRow {
				return outputStyles.Header.Padding(0, 1)
			}
			return lipgloss.NewStyle().Padding(0, 1)
		})
	fmt.Fprintln(w, t.String())
}

func failedNames(r *domain.RunSummary) []string {
	failed := r.Failed()
	names := make([]string, 0, len(failed))
	for _, j := range failed {
		names = append(names, j.Name)
	}
	return names
}

func stateText(state domain.JobState, reason domain.FailureReason) string {
	if state == domain.JobFailed && reason != domain.FailureNone {
		return fmt.Sprintf("%s (%s)", state, reason)
	}
	return string(state)
}

// formatFilterCounts lists every reason in report order.
func formatFilterCounts(c domain.FilterCounts) string {
	parts := make([]string, 0, len(domain.FilterReasons))
	for _, r := range domain.FilterReasons {
		parts = append(parts, fmt.Sprintf("%s %d", r, c[r]))
	}
	return strings.Join(parts, ", ")
}

// formatFetchErrors renders a total with a per-kind breakdown.
func formatFetchErrors(errs map[domain.FetchErrorKind]int) string {
	total := 0
	var parts []string
	for _, kind := range []domain.FetchErrorKind{domain.FetchNetwork, domain.FetchDisallowed, domain.FetchNotFound} {
		if n := errs[kind]; n > 0 {
			total += n
			parts = append(parts, fmt.Sprintf("%s %d", kind, n))
		}
	}
	if total == 0 {
		return "0"
	}
	return fmt.Sprintf("%d (%s)", total, strings.Join(parts, ", "))
}

func formatDuration(d time.Duration) string {
	if d <= 0 {
		return "-"
	}
	if d < time.Second {
		return d.Round(time.Millisecond).String()
	}
	return d.Round(time.Second).String()
}
