package menu

import (
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func press(t *testing.T, m Model, msgs ...tea.KeyMsg) (Model, tea.Cmd) {
	t.Helper()
	var cmd tea.Cmd
	for _, msg := range msgs {
		var next tea.Model
		next, cmd = m.Update(msg)
		m = next.(Model)
	}
	return m, cmd
}

func runes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

var (
	enter = tea.KeyMsg{Type: tea.KeyEnter}
	down  = tea.KeyMsg{Type: tea.KeyDown}
	up    = tea.KeyMsg{Type: tea.KeyUp}
	esc   = tea.KeyMsg{Type: tea.KeyEsc}
)

func isQuit(t *testing.T, cmd tea.Cmd) bool {
	t.Helper()
	if cmd == nil {
		return false
	}
	_, ok := cmd().(tea.QuitMsg)
	return ok
}

func TestMenu_DetectByArrowKeys(t *testing.T) {
	m, cmd := press(t, New("", ""), down, enter)

	assert.True(t, isQuit(t, cmd))
	assert.Equal(t, Choice{Action: ActionDetect}, m.Choice())
}

func TestMenu_CursorWraps(t *testing.T) {
	m, _ := press(t, New("", ""), up)
	assert.Equal(t, 2, m.cursor)

	m, _ = press(t, m, down)
	assert.Equal(t, 0, m.cursor)
}

func TestMenu_NumberShortcuts(t *testing.T) {
	tests := []struct {
		key  string
		want Action
	}{
		{key: "2", want: ActionDetect},
		{key: "3", want: ActionQuit},
		{key: "q", want: ActionQuit},
	}

	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			m, cmd := press(t, New("", ""), runes(tt.key))
			assert.True(t, isQuit(t, cmd))
			assert.Equal(t, tt.want, m.Choice().Action)
		})
	}
}

func TestMenu_TrainPromptsForLabel(t *testing.T) {
	m, _ := press(t, New("", ""), runes("1"))
	require.Equal(t, stageLabel, m.stage)
	require.False(t, m.done)
	assert.Contains(t, m.View(), "Name the gesture")

	m, cmd := press(t, m, runes("  fist "), enter)
	assert.True(t, isQuit(t, cmd))
	assert.Equal(t, Choice{Action: ActionTrain, Label: "fist"}, m.Choice())
}

func TestMenu_EmptyLabelRejected(t *testing.T) {
	m, cmd := press(t, New("", ""), enter, runes("   "), enter)

	assert.False(t, isQuit(t, cmd))
	assert.Equal(t, stageLabel, m.stage)
	assert.Contains(t, m.View(), "Label cannot be empty")
	assert.Equal(t, ActionQuit, m.Choice().Action, "nothing is chosen yet")
}

func TestMenu_EscReturnsToMenu(t *testing.T) {
	m, _ := press(t, New("", ""), enter, runes("wave"), esc)
	assert.Equal(t, stageMenu, m.stage)

	m, _ = press(t, m, enter)
	assert.Equal(t, stageLabel, m.stage)
	assert.Empty(t, m.input.Value(), "label prompt starts empty")
}

func TestMenu_CtrlCQuitsFromAnyStage(t *testing.T) {
	for _, prefix := range [][]tea.KeyMsg{nil, {enter, runes("fi")}} {
		msgs := append(prefix, tea.KeyMsg{Type: tea.KeyCtrlC})
		m, cmd := press(t, New("", ""), msgs...)
		assert.True(t, isQuit(t, cmd))
		assert.Equal(t, Choice{Action: ActionQuit}, m.Choice())
	}
}

func TestMenu_View(t *testing.T) {
	m := New("3 examples: fist (2), palm (1)", "Saved 2 examples")
	view := m.View()

	assert.Contains(t, view, "3 examples: fist (2), palm (1)")
	assert.Contains(t, view, "1. Train a gesture")
	assert.Contains(t, view, "2. Detect gestures")
	assert.Contains(t, view, "3. Quit")
	assert.Contains(t, view, "Saved 2 examples")

	m, _ = press(t, m, runes("3"))
	assert.Empty(t, m.View())
}
