package app

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	focusdto "focusmate/internal/modules/focus/dto"
	focusin "focusmate/internal/modules/focus/port/in"
	"focusmate/internal/ui/theme"
	musicview "focusmate/internal/ui/views/music"
	sessionview "focusmate/internal/ui/views/session"
	setupview "focusmate/internal/ui/views/setup"
	summaryview "focusmate/internal/ui/views/summary"
)

// ─── ports ───────────────────────────────────────────────────────────────────

type sessionPort interface {
	Mount(ctx context.Context, host focusin.Host) error
	SetField(field, value string) error
	Advance() error
	Back() error
	Start(ctx context.Context, music string) error
	TogglePause(ctx context.Context) error
	End(ctx context.Context) error
	RequestHelp(ctx context.Context) error
	DismissSuggestion()
	Reset() error
	View() focusdto.SessionView
	History(ctx context.Context, limit int) ([]focusdto.RunOutput, error)
}

const (
	alertTTL     = 4 * time.Second
	historyLimit = 5
)

type mountedMsg struct {
	view focusdto.SessionView
	err  error
}

// ─── key bindings ─────────────────────────────────────────────────────────────

type keyMap struct {
	Move   key.Binding
	Change key.Binding
	Enter  key.Binding
	Back   key.Binding
	Pause  key.Binding
	Ask    key.Binding
	End    key.Binding
	Help   key.Binding
	Quit   key.Binding
}

func defaultKeys() keyMap {
	return keyMap{
		Move:   key.NewBinding(key.WithKeys("up", "down"), key.WithHelp("↑/↓", "move")),
		Change: key.NewBinding(key.WithKeys("left", "right"), key.WithHelp("←/→", "change value")),
		Enter:  key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "continue")),
		Back:   key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "back")),
		Pause:  key.NewBinding(key.WithKeys(" ", "p"), key.WithHelp("space", "pause/resume")),
		Ask:    key.NewBinding(key.WithKeys("h"), key.WithHelp("h", "request help")),
		End:    key.NewBinding(key.WithKeys("e"), key.WithHelp("e", "end session")),
		Help:   key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "help")),
		Quit:   key.NewBinding(key.WithKeys("ctrl+c", "q"), key.WithHelp("q", "quit")),
	}
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Enter, k.Help, k.Quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Move, k.Change, k.Enter, k.Back},
		{k.Pause, k.Ask, k.End},
		{k.Help, k.Quit},
	}
}

// ─── model ───────────────────────────────────────────────────────────────────

// Model is the root Bubble Tea model. It routes input to the screen matching
// the session phase and renders snapshots pushed through the host. Every call
// into the session runs inside a tea.Cmd, never from Update itself, because
// the host delivers callbacks back through the program's message loop.
type Model struct {
	session sessionPort
	host    focusin.Host

	setupView   setupview.Model
	musicView   musicview.Model
	sessionView sessionview.Model
	summaryView summaryview.Model

	view     focusdto.SessionView
	keys     keyMap
	help     help.Model
	showHelp bool
	status   string
	alertSeq int
	width    int
	height   int
}

func NewModel(session sessionPort, host focusin.Host) Model {
	return Model{
		session:     session,
		host:        host,
		setupView:   setupview.New(),
		musicView:   musicview.New(),
		sessionView: sessionview.New(),
		summaryView: summaryview.New(),
		keys:        defaultKeys(),
		help:        help.New(),
		status:      "ready",
	}
}

func (m Model) Init() tea.Cmd {
	return m.mountCmd()
}

// ─── update ───────────────────────────────────────────────────────────────────

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = m.width
		m.propagateSize()
		return m, nil

	case mountedMsg:
		if msg.err != nil {
			m.status = "mount: " + msg.err.Error()
			return m, nil
		}
		m.applyView(msg.view)
		return m, nil

	case ViewChangedMsg:
		m.applyView(msg.View)
		return m, nil

	case AlertMsg:
		return m, m.alert(msg.Text)

	case clearAlertMsg:
		if msg.seq == m.alertSeq {
			m.status = ""
		}
		return m, nil

	case BackMsg:
		m.summaryView.SetNotes(false)
		return m, m.loadHistoryCmd()

	case NotesMsg:
		m.summaryView.SetNotes(true)
		return m, m.loadHistoryCmd()

	case historyLoadedMsg:
		if msg.err != nil {
			m.status = "history: " + msg.err.Error()
			return m, nil
		}
		m.summaryView.SetHistory(msg.runs)
		return m, nil

	case actionResultMsg:
		if msg.err != nil {
			return m, m.alert(msg.action + ": " + msg.err.Error())
		}
		return m, nil

	case setupview.FieldChangedMsg:
		field, value := msg.Key, msg.Value
		return m, m.actionCmd("set "+field, func() error { return m.session.SetField(field, value) })

	case setupview.AdvanceMsg:
		return m, m.actionCmd("continue", m.session.Advance)

	case musicview.BackMsg:
		return m, m.actionCmd("back", m.session.Back)

	case musicview.StartMsg:
		music := msg.Music
		m.status = "starting session…"
		return m, m.actionCmd("start", func() error {
			return m.session.Start(context.Background(), music)
		})

	case sessionview.TogglePauseMsg:
		return m, m.actionCmd("pause", func() error {
			return m.session.TogglePause(context.Background())
		})

	case sessionview.EndMsg:
		return m, m.actionCmd("end", func() error {
			return m.session.End(context.Background())
		})

	case sessionview.HelpMsg:
		return m, m.actionCmd("help", func() error {
			return m.session.RequestHelp(context.Background())
		})

	case sessionview.DismissMsg:
		return m, m.actionCmd("dismiss", func() error {
			m.session.DismissSuggestion()
			return nil
		})

	case summaryview.ResetMsg:
		return m, m.actionCmd("reset", m.session.Reset)

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return m, tea.Quit
		}
		if m.showHelp {
			if msg.String() == "?" || msg.String() == "esc" {
				m.showHelp = false
			}
			return m, nil
		}
		if !m.sessionView.Confirming() {
			switch msg.String() {
			case "q":
				if m.phase() != "active" {
					return m, tea.Quit
				}
			case "?":
				m.showHelp = true
				return m, nil
			}
		}
	}

	// Route everything else to the screen for the current phase.
	var cmd tea.Cmd
	switch m.phase() {
	case "music":
		m.musicView, cmd = m.musicView.Update(msg)
	case "active":
		m.sessionView, cmd = m.sessionView.Update(msg)
	case "ended":
		m.summaryView, cmd = m.summaryView.Update(msg)
	default:
		m.setupView, cmd = m.setupView.Update(msg)
	}
	return m, cmd
}

// ─── view ────────────────────────────────────────────────────────────────────

func (m Model) View() string {
	header := m.renderHeader()
	statusBar := m.renderStatusBar()
	contentH := m.height - lipgloss.Height(header) - lipgloss.Height(statusBar)
	if contentH < 1 {
		contentH = 1
	}

	var content string
	if m.showHelp {
		content = lipgloss.NewStyle().Width(m.width).Height(contentH).Render(m.help.View(m.keys))
	} else {
		content = m.activeView()
	}
	return lipgloss.JoinVertical(lipgloss.Left, header, content, statusBar)
}

func (m Model) activeView() string {
	switch m.phase() {
	case "music":
		return m.musicView.View()
	case "active":
		return m.sessionView.View()
	case "ended":
		return m.summaryView.View()
	}
	return m.setupView.View()
}

func (m Model) renderHeader() string {
	steps := []string{"setup", "music", "active", "ended"}
	labels := []string{"Setup", "Music", "Focus", "Summary"}
	parts := make([]string, len(steps))
	for i, step := range steps {
		if step == m.phase() || (step == "setup" && m.phase() == "") {
			parts[i] = theme.Hot.Render(" " + labels[i] + " ")
		} else {
			parts[i] = theme.Muted.Render(" " + labels[i] + " ")
		}
	}
	bar := "focusmate  " + strings.Join(parts, theme.Muted.Render(" › "))
	return lipgloss.NewStyle().Background(theme.Mantle).Width(m.width).Render(bar) + "\n"
}

func (m Model) renderStatusBar() string {
	left := m.status
	if m.phase() == "active" {
		left = theme.Hot.Render("● "+m.view.Clock) + "  " + left
	}
	right := theme.Muted.Render("?:help  q:quit")
	gap := m.width - lipgloss.Width(left) - lipgloss.Width(right)
	if gap < 1 {
		gap = 1
	}
	bar := left + strings.Repeat(" ", gap) + right
	return "\n" + lipgloss.NewStyle().Background(theme.Mantle).Width(m.width).Render(bar)
}

// ─── helpers ─────────────────────────────────────────────────────────────────

func (m Model) phase() string { return m.view.Phase }

func (m *Model) applyView(v focusdto.SessionView) {
	m.view = v
	m.setupView.SetFields(v.Fields)
	m.musicView.SetOptions(v.MusicOptions)
	m.musicView.SetSummary(configSummary(v.Config))
	m.sessionView.SetView(v)
	m.summaryView.SetRun(v.LastRun)
}

// alert shows text in the status bar until a newer alert replaces it or
// alertTTL passes.
func (m *Model) alert(text string) tea.Cmd {
	m.alertSeq++
	m.status = text
	seq := m.alertSeq
	return tea.Tick(alertTTL, func(time.Time) tea.Msg { return clearAlertMsg{seq: seq} })
}

func (m *Model) propagateSize() {
	sz := tea.WindowSizeMsg{Width: m.width, Height: m.height - 3}
	m.setupView, _ = m.setupView.Update(sz)
	m.sessionView, _ = m.sessionView.Update(sz)
}

func configSummary(c focusdto.ConfigView) string {
	if c.Subject == "" {
		return ""
	}
	return fmt.Sprintf("%d min · %s · %s · %s difficulty", c.DurationMinutes, c.Subject, c.StudyMode, c.Difficulty)
}

// ─── async commands ───────────────────────────────────────────────────────────

func (m Model) mountCmd() tea.Cmd {
	return func() tea.Msg {
		if err := m.session.Mount(context.Background(), m.host); err != nil {
			return mountedMsg{err: err}
		}
		return mountedMsg{view: m.session.View()}
	}
}

func (m Model) actionCmd(action string, fn func() error) tea.Cmd {
	return func() tea.Msg {
		return actionResultMsg{action: action, err: fn()}
	}
}

func (m Model) loadHistoryCmd() tea.Cmd {
	return func() tea.Msg {
		runs, err := m.session.History(context.Background(), historyLimit)
		return historyLoadedMsg{runs: runs, err: err}
	}
}
