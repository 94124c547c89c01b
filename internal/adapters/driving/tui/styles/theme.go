// Package styles provides colour themes and styling for terminal output.
package styles

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/campusgpt/harvester/internal/core/domain"
)

// Theme is the colour palette shared by the run summary, the history
// table and the progress view.
type Theme struct {
	Accent lipgloss.Color // titles
	Active lipgloss.Color // running jobs, section labels
	Text   lipgloss.Color
	Dim    lipgloss.Color // pending jobs, hints, table headers
	Ok     lipgloss.Color
	Warn   lipgloss.Color
	Fail   lipgloss.Color
	Bar    lipgloss.Color // status bar background
}

// DefaultTheme returns the default colour theme.
func DefaultTheme() *Theme {
	return &Theme{
		Accent: lipgloss.Color("#2563EB"),
		Active: lipgloss.Color("#0EA5E9"),
		Text:   lipgloss.Color("#E5E7EB"),
		Dim:    lipgloss.Color("#6B7280"),
		Ok:     lipgloss.Color("#22C55E"),
		Warn:   lipgloss.Color("#EAB308"),
		Fail:   lipgloss.Color("#EF4444"),
		Bar:    lipgloss.Color("#1F2937"),
	}
}

// Styles contains pre-configured lipgloss styles.
type Styles struct {
	theme *Theme

	Title     lipgloss.Style
	Subtitle  lipgloss.Style
	Header    lipgloss.Style
	Normal    lipgloss.Style
	Muted     lipgloss.Style
	Error     lipgloss.Style
	Success   lipgloss.Style
	Warning   lipgloss.Style
	StatusBar lipgloss.Style
}

// NewStyles creates styles from a theme. A nil theme uses DefaultTheme.
func NewStyles(theme *Theme) *Styles {
	if theme == nil {
		theme = DefaultTheme()
	}
	fg := func(c lipgloss.Color) lipgloss.Style {
		return lipgloss.NewStyle().Foreground(c)
	}

	return &Styles{
		theme:     theme,
		Title:     fg(theme.Accent).Bold(true),
		Subtitle:  fg(theme.Active).Bold(true),
		Header:    fg(theme.Dim).Bold(true),
		Normal:    fg(theme.Text),
		Muted:     fg(theme.Dim),
		Error:     fg(theme.Fail),
		Success:   fg(theme.Ok),
		Warning:   fg(theme.Warn),
		StatusBar: fg(theme.Dim).Background(theme.Bar).Padding(0, 1),
	}
}

// DefaultStyles returns styles with the default theme.
func DefaultStyles() *Styles {
	return NewStyles(DefaultTheme())
}

// Theme returns the theme used by these styles.
func (s *Styles) Theme() *Theme {
	return s.theme
}

// ForState returns the style for a job state.
func (s *Styles) ForState(state domain.JobState) lipgloss.Style {
	switch state {
	case domain.JobSucceeded:
		return s.Success
	case domain.JobFailed:
		return s.Error
	case domain.JobRunning:
		return s.Subtitle
	}
	return s.Muted
}

// StateIcon returns a one-cell marker for a job state.
func StateIcon(state domain.JobState) string {
	switch state {
	case domain.JobSucceeded:
		return "✓"
	case domain.JobFailed:
		return "✗"
	case domain.JobRunning:
		return "•"
	}
	return "·"
}
