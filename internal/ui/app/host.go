package app

import (
	"sync"

	tea "github.com/charmbracelet/bubbletea"

	focusdto "focusmate/internal/modules/focus/dto"
)

// ProgramHost forwards session callbacks into a running Bubble Tea program.
// Callbacks that arrive before Attach or after the program exits are dropped.
type ProgramHost struct {
	mu      sync.Mutex
	program *tea.Program
}

func NewProgramHost() *ProgramHost {
	return &ProgramHost{}
}

func (h *ProgramHost) Attach(p *tea.Program) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.program = p
}

func (h *ProgramHost) send(msg tea.Msg) {
	h.mu.Lock()
	p := h.program
	h.mu.Unlock()
	if p != nil {
		p.Send(msg)
	}
}

func (h *ProgramHost) Alert(message string) { h.send(AlertMsg{Text: message}) }

func (h *ProgramHost) Back() { h.send(BackMsg{}) }

func (h *ProgramHost) NavigateToNotes() { h.send(NotesMsg{}) }

func (h *ProgramHost) Changed(view focusdto.SessionView) { h.send(ViewChangedMsg{View: view}) }
