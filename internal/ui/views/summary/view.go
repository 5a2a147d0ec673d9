package summary

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	focusdto "focusmate/internal/modules/focus/dto"
	"focusmate/internal/ui/theme"
)

// ResetMsg asks for a fresh session setup.
type ResetMsg struct{}

// Model renders the screen shown after a session ends: a recap of the run
// for regular exits, or the notes screen after a help request.
type Model struct {
	run     *focusdto.RunOutput
	history []focusdto.RunOutput
	notes   bool
}

func New() Model {
	return Model{}
}

func (m *Model) SetRun(run *focusdto.RunOutput) { m.run = run }

func (m *Model) SetHistory(runs []focusdto.RunOutput) { m.history = runs }

// SetNotes switches to the notes screen shown after a help request.
func (m *Model) SetNotes(notes bool) { m.notes = notes }

func (m Model) Notes() bool { return m.notes }

func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	key, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}
	switch key.String() {
	case "enter", "r", "n":
		return m, func() tea.Msg { return ResetMsg{} }
	}
	return m, nil
}

func (m Model) View() string {
	var sb strings.Builder
	if m.notes {
		sb.WriteString(theme.Title.Render("Help is on the way") + "\n\n")
		sb.WriteString("Your session was paused and a tutor request was sent.\n")
		sb.WriteString("Jot down what you were stuck on while you wait.\n")
	} else {
		sb.WriteString(theme.Title.Render("Session summary") + "\n\n")
	}

	if m.run != nil {
		r := m.run
		sb.WriteString(fmt.Sprintf("\nOutcome      %s\n", outcomeLabel(r.Outcome)))
		sb.WriteString(fmt.Sprintf("Focused for  %s of %d min\n", r.EndedAt.Sub(r.StartedAt).Round(time.Second), r.DurationMinutes))
		sb.WriteString(fmt.Sprintf("Pauses       %d\n", r.Pauses))
		sb.WriteString(fmt.Sprintf("Frames sent  %d\n", r.FramesSent))
		sb.WriteString(fmt.Sprintf("Suggestions  %d\n", r.SuggestionsReceived))
	}

	if len(m.history) > 0 {
		sb.WriteString("\n" + theme.Title.Render("Recent sessions") + "\n")
		for _, r := range m.history {
			sb.WriteString(fmt.Sprintf("%s  %-10s %s\n",
				theme.Muted.Render(r.StartedAt.Local().Format("Jan 02 15:04")), outcomeLabel(r.Outcome), r.ConfigSummary))
		}
	}
	sb.WriteString("\n" + theme.Muted.Render("enter new session  q quit"))
	return theme.Pane.Render(sb.String())
}

func outcomeLabel(outcome string) string {
	switch outcome {
	case "completed":
		return theme.Good.Render("completed")
	case "help":
		return theme.Warn.Render("help")
	default:
		return theme.Muted.Render(outcome)
	}
}
