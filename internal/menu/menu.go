// Package menu is the terminal main menu: Train, Detect or Quit, and the
// label prompt for training.
package menu

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// Action is what the user picked.
type Action int

const (
	ActionQuit Action = iota
	ActionTrain
	ActionDetect
)

// String returns the menu text for a.
func (a Action) String() string {
	switch a {
	case ActionTrain:
		return "Train a gesture"
	case ActionDetect:
		return "Detect gestures"
	default:
		return "Quit"
	}
}

// Choice is the result of one pass through the menu. Label is set only for
// ActionTrain and is never empty.
type Choice struct {
	Action Action
	Label  string
}

var items = []Action{ActionTrain, ActionDetect, ActionQuit}

type stage int

const (
	stageMenu stage = iota
	stageLabel
)

var (
	titleStyle     = lipgloss.NewStyle().Bold(true)
	summaryStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	cursorStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("11")).Bold(true)
	statusStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	errorStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	promptBoxStyle = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
)

// Model is the Bubble Tea model for the menu.
type Model struct {
	summary string
	status  string
	invalid string
	cursor  int
	stage   stage
	input   textinput.Model
	choice  Choice
	done    bool
}

// New creates a menu showing summary under the title and status at the bottom.
func New(summary, status string) Model {
	ti := textinput.New()
	ti.Prompt = "Label: "
	ti.Placeholder = "e.g. fist"
	ti.CharLimit = 64
	return Model{summary: summary, status: status, input: ti}
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd { return nil }

// Update handles key events.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	key, ok := msg.(tea.KeyMsg)
	if !ok {
		if m.stage == stageLabel {
			var cmd tea.Cmd
			m.input, cmd = m.input.Update(msg)
			return m, cmd
		}
		return m, nil
	}

	if key.Type == tea.KeyCtrlC || key.Type == tea.KeyCtrlD {
		return m.finish(Choice{Action: ActionQuit})
	}

	if m.stage == stageLabel {
		return m.updateLabel(key)
	}
	return m.updateMenu(key)
}

func (m Model) updateMenu(key tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch key.String() {
	case "up", "k":
		m.cursor = (m.cursor - 1 + len(items)) % len(items)
	case "down", "j":
		m.cursor = (m.cursor + 1) % len(items)
	case "1", "2", "3":
		m.cursor = int(key.String()[0] - '1')
		return m.selectItem()
	case "q", "esc":
		return m.finish(Choice{Action: ActionQuit})
	case "enter":
		return m.selectItem()
	}
	return m, nil
}

func (m Model) selectItem() (tea.Model, tea.Cmd) {
	action := items[m.cursor]
	if action != ActionTrain {
		return m.finish(Choice{Action: action})
	}
	m.stage = stageLabel
	m.invalid = ""
	m.input.SetValue("")
	return m, m.input.Focus()
}

func (m Model) updateLabel(key tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch key.Type {
	case tea.KeyEsc:
		m.stage = stageMenu
		m.input.Blur()
		return m, nil
	case tea.KeyEnter:
		label := strings.TrimSpace(m.input.Value())
		if label == "" {
			m.invalid = "Label cannot be empty"
			return m, nil
		}
		return m.finish(Choice{Action: ActionTrain, Label: label})
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(key)
	m.invalid = ""
	return m, cmd
}

func (m Model) finish(c Choice) (tea.Model, tea.Cmd) {
	m.choice = c
	m.done = true
	return m, tea.Quit
}

// Choice returns the selection. It is ActionQuit until the user confirms.
func (m Model) Choice() Choice {
	if !m.done {
		return Choice{Action: ActionQuit}
	}
	return m.choice
}

// View renders the menu.
func (m Model) View() string {
	if m.done {
		return ""
	}

	var b strings.Builder
	b.WriteString(titleStyle.Render("mudra - hand gesture recognition"))
	b.WriteString("\n")
	if m.summary != "" {
		b.WriteString(summaryStyle.Render(m.summary))
		b.WriteString("\n")
	}
	b.WriteString("\n")

	if m.stage == stageLabel {
		b.WriteString("Name the gesture to train (esc to go back)\n")
		b.WriteString(promptBoxStyle.Render(m.input.View()))
		b.WriteString("\n")
		if m.invalid != "" {
			b.WriteString(errorStyle.Render(m.invalid))
			b.WriteString("\n")
		}
		return b.String()
	}

	for i, action := range items {
		line := fmt.Sprintf("%d. %s", i+1, action)
		if i == m.cursor {
			b.WriteString(cursorStyle.Render("> " + line))
		} else {
			b.WriteString("  " + line)
		}
		b.WriteString("\n")
	}
	if m.status != "" {
		b.WriteString("\n")
		b.WriteString(statusStyle.Render(m.status))
		b.WriteString("\n")
	}
	return b.String()
}

// Run shows the menu until the user picks an action.
func Run(summary, status string) (Choice, error) {
	final, err := tea.NewProgram(New(summary, status)).Run()
	if err != nil {
		return Choice{}, fmt.Errorf("menu: %w", err)
	}
	return final.(Model).Choice(), nil
}
