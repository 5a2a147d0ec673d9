package session

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	focusdto "focusmate/internal/modules/focus/dto"
	"focusmate/internal/ui/components"
	"focusmate/internal/ui/theme"
)

type TogglePauseMsg struct{}

type EndMsg struct{}

type HelpMsg struct{}

type DismissMsg struct{}

const confirmEnd = "end-session"

type Model struct {
	view    focusdto.SessionView
	bar     progress.Model
	confirm components.Confirm
	width   int
}

func New() Model {
	return Model{
		bar:     progress.New(progress.WithGradient(string(theme.Sapphire), string(theme.Lavender)), progress.WithoutPercentage()),
		confirm: components.NewConfirm(),
	}
}

func (m *Model) SetView(v focusdto.SessionView) { m.view = v }

// Confirming reports whether the end dialog is open.
func (m Model) Confirming() bool { return m.confirm.Visible() }

func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.bar.Width = max(msg.Width-8, 10)
		m.confirm.SetWidth(min(msg.Width-4, 48))
		return m, nil
	case components.ConfirmAcceptMsg:
		if msg.ID == confirmEnd {
			return m, func() tea.Msg { return EndMsg{} }
		}
		return m, nil
	}

	if m.confirm.Visible() {
		var cmd tea.Cmd
		m.confirm, cmd = m.confirm.Update(msg)
		return m, cmd
	}
	key, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}
	switch key.String() {
	case " ", "p":
		return m, func() tea.Msg { return TogglePauseMsg{} }
	case "e":
		m.confirm.Open(confirmEnd, "End the session early?")
	case "h":
		return m, func() tea.Msg { return HelpMsg{} }
	case "x":
		if m.view.Suggestion != "" {
			return m, func() tea.Msg { return DismissMsg{} }
		}
	}
	return m, nil
}

func (m Model) View() string {
	v := m.view
	var sb strings.Builder

	header := theme.Title.Render(fmt.Sprintf("%s · %s", v.Config.Subject, v.Config.StudyMode))
	if v.Config.MusicChoice != "" && v.Config.MusicChoice != "none" {
		header += theme.Muted.Render("  ♪ " + v.Config.MusicChoice)
	}
	sb.WriteString(header + "\n\n")

	clock := theme.Clock.Render(v.Clock)
	if v.Paused {
		clock += " " + theme.Warn.Render("PAUSED")
	}
	sb.WriteString(clock + "\n")
	sb.WriteString(m.bar.ViewAs(v.Progress) + "\n\n")

	camera := theme.Good.Render("camera on")
	if !v.CameraActive {
		camera = theme.Muted.Render("camera off")
	}
	remote := theme.Good.Render("connected")
	if v.RemoteSessionID == "" {
		remote = theme.Muted.Render("offline")
	}
	sb.WriteString(camera + theme.Muted.Render(" · ") + remote + "\n\n")

	sb.WriteString(fmt.Sprintf("Focus     %s\n", theme.FocusStyle(v.FocusPercent).Render(fmt.Sprintf("%d%%", v.FocusPercent))))
	sb.WriteString(fmt.Sprintf("Emotion   %s\n", v.Emotion))
	sb.WriteString(fmt.Sprintf("Posture   %s\n", v.Posture))

	if v.Suggestion != "" {
		sb.WriteString("\n" + theme.Hot.Render("💡 "+v.Suggestion) + theme.Muted.Render("  (x dismiss)") + "\n")
	}

	pauseLabel := "pause"
	if v.Paused {
		pauseLabel = "resume"
	}
	sb.WriteString("\n" + theme.Muted.Render(fmt.Sprintf("space %s  h ask for help  e end", pauseLabel)))

	body := theme.PaneActive.Render(sb.String())
	if m.confirm.Visible() {
		return lipgloss.JoinVertical(lipgloss.Left, body, m.confirm.View())
	}
	return body
}
