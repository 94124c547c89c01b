package styles

import (
	"testing"

	"github.com/charmbracelet/lipgloss"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/campusgpt/harvester/internal/core/domain"
)

func TestDefaultTheme_StateColoursAreDistinct(t *testing.T) {
	theme := DefaultTheme()

	seen := make(map[lipgloss.Color]bool)
	for _, c := range []lipgloss.Color{theme.Active, theme.Dim, theme.Ok, theme.Fail} {
		require.NotEmpty(t, string(c))
		assert.False(t, seen[c], "duplicate colour: %s", c)
		seen[c] = true
	}
}

func TestNewStyles(t *testing.T) {
	theme := DefaultTheme()
	assert.Same(t, theme, NewStyles(theme).Theme())

	fallback := NewStyles(nil)
	require.NotNil(t, fallback.Theme())
	assert.Equal(t, DefaultTheme().Accent, fallback.Title.GetForeground())
	assert.True(t, fallback.Title.GetBold())
	assert.Equal(t, DefaultTheme().Bar, fallback.StatusBar.GetBackground())
}

func TestForState(t *testing.T) {
	s := DefaultStyles()
	theme := s.Theme()

	tests := []struct {
		state domain.JobState
		want  lipgloss.TerminalColor
	}{
		{domain.JobSucceeded, theme.Ok},
		{domain.JobFailed, theme.Fail},
		{domain.JobRunning, theme.Active},
		{domain.JobPending, theme.Dim},
	}

	for _, tt := range tests {
		t.Run(string(tt.state), func(t *testing.T) {
			assert.Equal(t, tt.want, s.ForState(tt.state).GetForeground())
		})
	}
}

func TestStateIcon(t *testing.T) {
	assert.Equal(t, "✓", StateIcon(domain.JobSucceeded))
	assert.Equal(t, "✗", StateIcon(domain.JobFailed))
	assert.Equal(t, "•", StateIcon(domain.JobRunning))
	assert.Equal(t, "·", StateIcon(domain.JobPending))
}
