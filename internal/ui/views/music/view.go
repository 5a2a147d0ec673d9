package music

import (
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"focusmate/internal/ui/theme"
)

// StartMsg asks to begin the session with the selected music.
type StartMsg struct{ Music string }

// BackMsg asks to return to setup.
type BackMsg struct{}

var labels = map[string]string{
	"lofi":       "Lo-fi beats",
	"classical":  "Classical",
	"ambient":    "Ambient",
	"nature":     "Nature sounds",
	"whitenoise": "White noise",
	"piano":      "Piano",
	"none":       "No music",
}

type Model struct {
	options []string
	cursor  int
	summary string
}

func New() Model {
	return Model{}
}

func (m *Model) SetOptions(options []string) {
	m.options = options
	if m.cursor >= len(options) {
		m.cursor = 0
	}
}

// SetSummary sets the one-line recap of the chosen configuration.
func (m *Model) SetSummary(s string) { m.summary = s }

func (m Model) Selected() string {
	if len(m.options) == 0 {
		return ""
	}
	return m.options[m.cursor]
}

func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	key, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}
	switch key.String() {
	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}
	case "down", "j":
		if m.cursor < len(m.options)-1 {
			m.cursor++
		}
	case "enter":
		choice := m.Selected()
		if choice == "" {
			return m, nil
		}
		return m, func() tea.Msg { return StartMsg{Music: choice} }
	case "esc", "backspace":
		return m, func() tea.Msg { return BackMsg{} }
	}
	return m, nil
}

func (m Model) View() string {
	var sb strings.Builder
	sb.WriteString(theme.Title.Render("Pick your soundtrack") + "\n")
	if m.summary != "" {
		sb.WriteString(theme.Muted.Render(m.summary) + "\n")
	}
	sb.WriteString("\n")
	for i, opt := range m.options {
		label := labels[opt]
		if label == "" {
			label = opt
		}
		if i == m.cursor {
			sb.WriteString(theme.Selected.Render("▸ "+label) + "\n")
			continue
		}
		sb.WriteString("  " + label + "\n")
	}
	sb.WriteString("\n" + theme.Muted.Render("enter start session  esc back"))
	return theme.PaneActive.Render(sb.String())
}
