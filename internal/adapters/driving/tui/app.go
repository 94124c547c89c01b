// Package tui renders live harvest progress in the terminal.
package tui

import (
	"context"
	"io"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/campusgpt/harvester/internal/adapters/driving/tui/messages"
	"github.com/campusgpt/harvester/internal/adapters/driving/tui/views/progress"
	"github.com/campusgpt/harvester/internal/core/domain"
	"github.com/campusgpt/harvester/internal/core/ports/driving"
)

// HarvestFunc performs the run whose progress is shown.
type HarvestFunc func(ctx context.Context) (*domain.RunSummary, error)

type result struct {
	summary *domain.RunSummary
	err     error
}

// Run executes harvest while rendering job progress polled from ingestor.
// Quitting the view cancels the run; Run always waits for harvest to return.
func Run(ctx context.Context, ingestor driving.Ingestor, harvest HarvestFunc, in io.Reader, out io.Writer) (*domain.RunSummary, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	model := progress.New(ingestor.Statuses, 0, nil, nil)
	opts := []tea.ProgramOption{tea.WithContext(ctx), tea.WithOutput(out)}
	if in != nil {
		opts = append(opts, tea.WithInput(in))
	}
	p := tea.NewProgram(model, opts...)

	done := make(chan result, 1)
	go func() {
		summary, err := harvest(ctx)
		done <- result{summary: summary, err: err}
		p.Send(messages.HarvestDone{Summary: summary, Err: err})
	}()

	if _, err := p.Run(); err != nil && !model.Done() {
		// The view failed or was killed; stop the run.
		cancel()
	}
	if model.Cancelled() {
		cancel()
	}

	res := <-done
	return res.summary, res.err
}
