package in

import (
	"context"

	"focusmate/internal/modules/focus/dto"
	focusin "focusmate/internal/modules/focus/port/in"
)

type TUIHandler struct {
	usecase focusin.Usecase
}

func NewTUIHandler(usecase focusin.Usecase) TUIHandler {
	return TUIHandler{usecase: usecase}
}

func (h TUIHandler) Mount(ctx context.Context, host focusin.Host) error {
	return h.usecase.Mount(ctx, host)
}

func (h TUIHandler) Unmount() { h.usecase.Unmount() }

func (h TUIHandler) SetField(field, value string) error {
	return h.usecase.SetField(field, value)
}

func (h TUIHandler) Advance() error { return h.usecase.Advance() }

func (h TUIHandler) Back() error { return h.usecase.Back() }

// Start records the music choice and begins the session.
func (h TUIHandler) Start(ctx context.Context, music string) error {
	if err := h.usecase.ChooseMusic(music); err != nil {
		return err
	}
	return h.usecase.Begin(ctx)
}

func (h TUIHandler) TogglePause(ctx context.Context) error {
	return h.usecase.TogglePause(ctx)
}

func (h TUIHandler) End(ctx context.Context) error { return h.usecase.End(ctx) }

func (h TUIHandler) RequestHelp(ctx context.Context) error {
	return h.usecase.RequestHelp(ctx)
}

func (h TUIHandler) DismissSuggestion() { h.usecase.DismissSuggestion() }

func (h TUIHandler) Reset() error { return h.usecase.Reset() }

func (h TUIHandler) View() dto.SessionView { return h.usecase.View() }

func (h TUIHandler) History(ctx context.Context, limit int) ([]dto.RunOutput, error) {
	return h.usecase.History(ctx, dto.HistoryInput{Limit: limit})
}
