package components

import (
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"focusmate/internal/ui/theme"
)

// ConfirmAcceptMsg is emitted when the user answers yes.
type ConfirmAcceptMsg struct{ ID string }

// ConfirmCancelMsg is emitted when the user answers no or presses esc.
type ConfirmCancelMsg struct{ ID string }

var confirmStyle = lipgloss.NewStyle().
	BorderStyle(lipgloss.RoundedBorder()).
	BorderForeground(theme.Peach).
	Background(theme.Mantle).
	Foreground(theme.Text).
	Padding(0, 1)

// Confirm is a yes/no overlay. While visible it consumes every key.
type Confirm struct {
	id      string
	prompt  string
	visible bool
	width   int
}

func NewConfirm() Confirm {
	return Confirm{}
}

func (c Confirm) Visible() bool { return c.visible }

// Open shows prompt; the answer message carries id.
func (c *Confirm) Open(id, prompt string) {
	c.id = id
	c.prompt = prompt
	c.visible = true
}

func (c *Confirm) SetWidth(w int) { c.width = w }

func (c Confirm) Update(msg tea.Msg) (Confirm, tea.Cmd) {
	if !c.visible {
		return c, nil
	}
	key, ok := msg.(tea.KeyMsg)
	if !ok {
		return c, nil
	}
	id := c.id
	switch key.String() {
	case "y", "Y", "enter":
		c.visible = false
		return c, func() tea.Msg { return ConfirmAcceptMsg{ID: id} }
	case "n", "N", "esc":
		c.visible = false
		return c, func() tea.Msg { return ConfirmCancelMsg{ID: id} }
	}
	return c, nil
}

func (c Confirm) View() string {
	if !c.visible {
		return ""
	}
	body := theme.Hot.Render(c.prompt) + "\n" + theme.Muted.Render("y: yes   n: no")
	w := c.width
	if w < 20 {
		w = 40
	}
	return confirmStyle.Width(w - 2).Render(body)
}
