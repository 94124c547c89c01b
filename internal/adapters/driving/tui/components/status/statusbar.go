// Package status provides the status bar shown under the progress view.
package status

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/campusgpt/harvester/internal/adapters/driving/tui/keymap"
	"github.com/campusgpt/harvester/internal/adapters/driving/tui/styles"
	"github.com/campusgpt/harvester/internal/core/domain"
	"github.com/campusgpt/harvester/internal/core/ports/driving"
)

// State represents the run state for display.
type State string

const (
	StateRunning    State = "running"
	StateCancelling State = "cancelling"
	StateDone       State = "done"
	StateError      State = "error"
)

// Bar displays job totals and keybinding hints.
type Bar struct {
	styles  *styles.Styles
	keymap  *keymap.KeyMap
	state   State
	message string
	counts  map[domain.JobState]int
	width   int
}

// NewBar creates a new status bar component.
func NewBar(s *styles.Styles, km *keymap.KeyMap) *Bar {
	if s == nil {
		s = styles.DefaultStyles()
	}
	if km == nil {
		km = keymap.DefaultKeyMap()
	}

	return &Bar{
		styles: s,
		keymap: km,
		state:  StateRunning,
		counts: make(map[domain.JobState]int),
		width:  80,
	}
}

// Init initialises the status bar.
func (s *Bar) Init() tea.Cmd {
	return nil
}

// View renders the status bar.
func (s *Bar) View() string {
	left := s.renderLeft()
	right := s.renderRight()

	padding := s.width - lipgloss.Width(left) - lipgloss.Width(right)
	if padding < 1 {
		padding = 1
	}

	return s.styles.StatusBar.Width(s.width).Render(
		left + strings.Repeat(" ", padding) + right,
	)
}

// renderLeft renders the state and job totals.
func (s *Bar) renderLeft() string {
	totals := fmt.Sprintf("%d running, %d succeeded, %d failed, %d pending",
		s.counts[domain.JobRunning], s.counts[domain.JobSucceeded],
		s.counts[domain.JobFailed], s.counts[domain.JobPending])

	switch s.state {
	case StateCancelling:
		return s.styles.Warning.Render("Cancelling... ") + s.styles.Muted.Render(totals)
	case StateError:
		if s.message != "" {
			return s.styles.Error.Render(fmt.Sprintf("Error: %s", s.message))
		}
		return s.styles.Error.Render("Error")
	case StateDone:
		return s.styles.Success.Render("Done ") + s.styles.Muted.Render(totals)
	}
	return s.styles.Normal.Render(totals)
}

// renderRight renders keybinding hints.
func (s *Bar) renderRight() string {
	bindings := s.keymap.ShortHelp()
	hints := make([]string, 0, len(bindings))
	for _, b := range bindings {
		h := b.Help()
		hints = append(hints, fmt.Sprintf("%s: %s", h.Key, h.Desc))
	}
	return s.styles.Muted.Render(strings.Join(hints, " | "))
}

// SetStatuses recomputes the per-state totals.
func (s *Bar) SetStatuses(statuses []driving.JobStatus) {
	s.counts = make(map[domain.JobState]int, 4)
	for _, st := range statuses {
		s.counts[st.State]++
	}
}

// Count returns the number of jobs in state.
func (s *Bar) Count(state domain.JobState) int {
	return s.counts[state]
}

// SetState sets the current state.
func (s *Bar) SetState(state State) {
	s.state = state
}

// State returns the current state.
func (s *Bar) State() State {
	return s.state
}

// SetMessage sets a custom message.
func (s *Bar) SetMessage(message string) {
	s.message = message
}

// SetWidth sets the status bar width.
func (s *Bar) SetWidth(width int) {
	s.width = width
}

// Width returns the current width.
func (s *Bar) Width() int {
	return s.width
}
