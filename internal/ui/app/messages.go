package app

import (
	focusdto "focusmate/internal/modules/focus/dto"
)

// ViewChangedMsg carries a fresh session snapshot from the controller.
type ViewChangedMsg struct{ View focusdto.SessionView }

// AlertMsg is a transient message for the status bar.
type AlertMsg struct{ Text string }

// BackMsg is sent when a session finishes or is ended.
type BackMsg struct{}

// NotesMsg is sent when a session ends with a help request.
type NotesMsg struct{}

type clearAlertMsg struct{ seq int }

type actionResultMsg struct {
	action string
	err    error
}

type historyLoadedMsg struct {
	runs []focusdto.RunOutput
	err  error
}
