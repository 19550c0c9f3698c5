package components

import (
	"strings"
	"testing"

	tea "charm.land/bubbletea/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMenu_SkipsDisabled(t *testing.T) {
	m := NewMenu([]MenuItem{
		{Label: "Off", Disabled: true},
		{Label: "A"},
		{Label: "Gone", Disabled: true},
		{Label: "B"},
	})
	assert.Equal(t, 1, m.Selected)

	m, _ = m.Update(tea.KeyPressMsg{Code: tea.KeyDown})
	assert.Equal(t, 3, m.Selected)

	m, _ = m.Update(tea.KeyPressMsg{Code: tea.KeyDown})
	assert.Equal(t, 3, m.Selected)

	m, _ = m.Update(tea.KeyPressMsg{Code: 'k', Text: "k"})
	assert.Equal(t, 1, m.Selected)
}

func TestMenu_ChooseRunsAction(t *testing.T) {
	chosen := ""
	m := NewMenu([]MenuItem{
		{Label: "A", Action: func() tea.Cmd { chosen = "A"; return nil }},
		{Label: "B", Action: func() tea.Cmd { chosen = "B"; return nil }},
	})
	m, _ = m.Update(tea.KeyPressMsg{Code: tea.KeyDown})
	m.Update(tea.KeyPressMsg{Code: tea.KeyEnter})
	assert.Equal(t, "B", chosen)
	assert.Contains(t, m.View(), "▸ B")
}

func TestMenu_ViewRowsInOrder(t *testing.T) {
	m := NewMenu([]MenuItem{
		{Label: "Continue"},
		{Label: "Home"},
		{Label: "Later", Disabled: true},
	})
	lines := strings.Split(strings.TrimRight(m.View(), "\n"), "\n")
	require.Len(t, lines, 3)
	assert.Contains(t, lines[0], "▸ Continue")
	assert.Contains(t, lines[1], "Home")
	assert.NotContains(t, lines[1], "▸")
	assert.Contains(t, lines[2], "Later")
}

func TestProgressBar_View(t *testing.T) {
	bar := ProgressBar{Label: "Asia 1/4", Percent: 0.5, Width: 40}
	v := bar.View()
	require.NotEmpty(t, v)
	assert.True(t, strings.Contains(v, "50%"))
	assert.Contains(t, v, "Asia 1/4")
}
