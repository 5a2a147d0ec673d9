package in

import (
	"context"

	"focusmate/internal/modules/focus/dto"
)

// Usecase drives one focus session. Methods that take user input return
// validation and illegal-transition errors; remote and device failures are
// reported through Host and logs instead.
type Usecase interface {
	Mount(ctx context.Context, host Host) error
	Unmount()

	SetField(field, value string) error
	Advance() error
	Back() error
	ChooseMusic(choice string) error
	Begin(ctx context.Context) error
	TogglePause(ctx context.Context) error
	End(ctx context.Context) error
	RequestHelp(ctx context.Context) error
	DismissSuggestion()
	Reset() error

	View() dto.SessionView
	History(ctx context.Context, input dto.HistoryInput) ([]dto.RunOutput, error)
	Health(ctx context.Context) (dto.HealthOutput, error)
}

// Host is the surface the session is mounted in.
type Host interface {
	Alert(message string)
	// Back leaves the session after it completes or is ended.
	Back()
	// NavigateToNotes leaves the session after a help request.
	NavigateToNotes()
	// Changed is called after every state change, outside any lock.
	Changed(view dto.SessionView)
}
