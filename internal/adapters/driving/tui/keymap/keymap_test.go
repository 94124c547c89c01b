package keymap

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultKeyMap(t *testing.T) {
	km := DefaultKeyMap()

	require.NotNil(t, km)
}

func TestDefaultKeyMap_Bindings(t *testing.T) {
	km := DefaultKeyMap()

	tests := []struct {
		name    string
		keyStr  string
		binding string
		want    bool
	}{
		{"q quits", "q", "quit", true},
		{"ctrl+c quits", "ctrl+c", "quit", true},
		{"d toggles details", "d", "details", true},
		{"x does nothing", "x", "quit", false},
		{"q is not details", "q", "details", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := km.Quit
			if tt.binding == "details" {
				b = km.Details
			}
			assert.Equal(t, tt.want, Matches(tt.keyStr, b))
		})
	}
}

func TestShortHelp(t *testing.T) {
	km := DefaultKeyMap()

	help := km.ShortHelp()
	require.Len(t, help, 2)
	assert.Equal(t, "d", help[0].Help().Key)
	assert.Equal(t, "quit", help[1].Help().Desc)
}
