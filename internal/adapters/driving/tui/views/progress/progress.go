// Package progress provides the live job progress view.
package progress

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/campusgpt/harvester/internal/adapters/driving/tui/components/status"
	"github.com/campusgpt/harvester/internal/adapters/driving/tui/keymap"
	"github.com/campusgpt/harvester/internal/adapters/driving/tui/messages"
	"github.com/campusgpt/harvester/internal/adapters/driving/tui/styles"
	"github.com/campusgpt/harvester/internal/core/domain"
	"github.com/campusgpt/harvester/internal/core/ports/driving"
)

// DefaultInterval is how often job statuses are polled.
const DefaultInterval = 250 * time.Millisecond

// PollFunc returns the current status of every job.
type PollFunc func() []driving.JobStatus

// Model renders one row per job and a status bar.
type Model struct {
	styles   *styles.Styles
	keymap   *keymap.KeyMap
	spinner  spinner.Model
	bar      *status.Bar
	poll     PollFunc
	interval time.Duration
	now      func() time.Time

	statuses  []driving.JobStatus
	details   bool
	done      bool
	cancelled bool
	err       error
}

// New creates the view. A zero interval uses DefaultInterval.
func New(poll PollFunc, interval time.Duration, s *styles.Styles, km *keymap.KeyMap) *Model {
	if s == nil {
		s = styles.DefaultStyles()
	}
	if km == nil {
		km = keymap.DefaultKeyMap()
	}
	if interval <= 0 {
		interval = DefaultInterval
	}

	m := &Model{
		styles:   s,
		keymap:   km,
		spinner:  spinner.New(spinner.WithSpinner(spinner.Dot), spinner.WithStyle(s.Subtitle)),
		bar:      status.NewBar(s, km),
		poll:     poll,
		interval: interval,
		now:      time.Now,
		details:  true,
	}
	m.setStatuses(poll())
	return m
}

// Init starts the spinner and the poll loop.
func (m *Model) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.pollCmd())
}

func (m *Model) pollCmd() tea.Cmd {
	return tea.Tick(m.interval, func(time.Time) tea.Msg {
		return messages.StatusesPolled{Statuses: m.poll()}
	})
}

// Update handles messages.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch {
		case keymap.Matches(msg.String(), m.keymap.Quit):
			m.cancelled = true
			m.bar.SetState(status.StateCancelling)
			return m, tea.Quit
		case keymap.Matches(msg.String(), m.keymap.Details):
			m.details = !m.details
		}
		return m, nil

	case tea.WindowSizeMsg:
		m.bar.SetWidth(msg.Width)
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case messages.StatusesPolled:
		m.setStatuses(msg.Statuses)
		if m.done {
			return m, nil
		}
		return m, m.pollCmd()

	case messages.HarvestDone:
		m.done = true
		m.err = msg.Err
		m.setStatuses(m.poll())
		if msg.Err != nil {
			m.bar.SetState(status.StateError)
			m.bar.SetMessage(msg.Err.Error())
		} else {
			m.bar.SetState(status.StateDone)
		}
		return m, tea.Quit
	}
	return m, nil
}

func (m *Model) setStatuses(statuses []driving.JobStatus) {
	m.statuses = statuses
	m.bar.SetStatuses(statuses)
}

// View renders the job table.
func (m *Model) View() string {
	var b strings.Builder
	b.WriteString(m.styles.Title.Render("Harvesting"))
	b.WriteString("\n\n")

	width := 0
	for _, st := range m.statuses {
		width = max(width, len(st.Job))
	}

	for _, st := range m.statuses {
		icon := styles.StateIcon(st.State)
		if st.Running() && !m.done {
			icon = m.spinner.View()
		}
		line := fmt.Sprintf("%s %-*s  %s", icon, width, st.Job, m.styles.ForState(st.State).Render(stateLabel(st)))
		if m.details {
			line += m.styles.Muted.Render(fmt.Sprintf("  %d docs  %d errors  %d records%s",
				st.DocumentsProcessed, st.ErrorCount, st.Records, m.elapsed(st)))
		}
		b.WriteString(line)
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(m.bar.View())
	b.WriteString("\n")
	return b.String()
}

func (m *Model) elapsed(st driving.JobStatus) string {
	if !st.Running() || st.StartedAt.IsZero() {
		return ""
	}
	return "  " + m.now().Sub(st.StartedAt).Truncate(time.Second).String()
}

func stateLabel(st driving.JobStatus) string {
	if st.State == domain.JobFailed && st.Reason != domain.FailureNone {
		return fmt.Sprintf("%s (%s)", st.State, st.Reason)
	}
	return string(st.State)
}

// Cancelled reports whether the user quit before the harvest finished.
func (m *Model) Cancelled() bool {
	return m.cancelled && !m.done
}

// Done reports whether the harvest finished.
func (m *Model) Done() bool {
	return m.done
}

// Statuses returns the last polled statuses.
func (m *Model) Statuses() []driving.JobStatus {
	return m.statuses
}
