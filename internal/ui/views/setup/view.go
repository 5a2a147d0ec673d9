package setup

import (
	"fmt"
	"slices"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	focusdto "focusmate/internal/modules/focus/dto"
	"focusmate/internal/ui/theme"
)

// FieldChangedMsg asks for one configuration field to be set.
type FieldChangedMsg struct {
	Key   string
	Value string
}

// AdvanceMsg asks to move on to music selection.
type AdvanceMsg struct{}

type Model struct {
	fields []focusdto.FieldView
	cursor int
	width  int
	height int
}

func New() Model {
	return Model{}
}

// SetFields replaces the rendered fields, keeping the cursor in range.
func (m *Model) SetFields(fields []focusdto.FieldView) {
	m.fields = fields
	if m.cursor >= len(fields) {
		m.cursor = max(len(fields)-1, 0)
	}
}

func (m Model) Cursor() int { return m.cursor }

func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
	case tea.KeyMsg:
		switch msg.String() {
		case "up", "k":
			if m.cursor > 0 {
				m.cursor--
			}
		case "down", "j", "tab":
			if m.cursor < len(m.fields)-1 {
				m.cursor++
			}
		case "left", "h":
			return m, m.cycle(-1)
		case "right", "l", " ":
			return m, m.cycle(1)
		case "enter":
			return m, func() tea.Msg { return AdvanceMsg{} }
		}
	}
	return m, nil
}

// cycle moves the selected field to its previous or next option. An unset
// field starts at the first option.
func (m Model) cycle(step int) tea.Cmd {
	if len(m.fields) == 0 {
		return nil
	}
	f := m.fields[m.cursor]
	if len(f.Options) == 0 {
		return nil
	}
	idx := slices.Index(f.Options, f.Value)
	switch {
	case idx < 0:
		idx = 0
	default:
		idx = (idx + step + len(f.Options)) % len(f.Options)
	}
	key, value := f.Key, f.Options[idx]
	return func() tea.Msg { return FieldChangedMsg{Key: key, Value: value} }
}

func (m Model) View() string {
	var sb strings.Builder
	sb.WriteString(theme.Title.Render("Plan your focus session") + "\n\n")
	for i, f := range m.fields {
		value := f.Value
		if value == "" {
			value = theme.Muted.Render("choose…")
		}
		label := fmt.Sprintf("%-16s", f.Label)
		line := "  " + label + " ‹ " + value + " ›"
		if i == m.cursor {
			line = theme.Selected.Render("▸ "+label) + " ‹ " + theme.Hot.Render(value) + " ›"
		}
		sb.WriteString(line + "\n")
	}
	sb.WriteString("\n" + theme.Muted.Render("↑/↓ field  ←/→ change  enter continue"))

	w := m.width
	if w <= 0 {
		w = 60
	}
	return lipgloss.NewStyle().Width(w).Render(theme.PaneActive.Render(sb.String()))
}
