package in

import (
	"context"
	"fmt"
	"sync"

	"focusmate/internal/modules/focus/dto"
	focusin "focusmate/internal/modules/focus/port/in"
)

type CLIHandler struct {
	usecase focusin.Usecase
}

func NewCLIHandler(usecase focusin.Usecase) CLIHandler {
	return CLIHandler{usecase: usecase}
}

// RunInput configures one headless session. Fields maps setup field keys
// to values; unset keys keep their defaults.
type RunInput struct {
	Fields map[string]string
	Music  string
}

// Run drives a whole session without a UI and blocks until it ends. When
// ctx is cancelled first the session is ended explicitly.
func (h CLIHandler) Run(ctx context.Context, input RunInput, host focusin.Host) (dto.SessionView, error) {
	done := newHeadlessHost(host)
	if err := h.usecase.Mount(ctx, done); err != nil {
		return dto.SessionView{}, fmt.Errorf("mount session: %w", err)
	}
	defer h.usecase.Unmount()

	for _, key := range []string{"duration", "subject", "study_mode", "difficulty", "break_preference", "distraction_sensitivity"} {
		value, ok := input.Fields[key]
		if !ok || value == "" {
			continue
		}
		if err := h.usecase.SetField(key, value); err != nil {
			return dto.SessionView{}, err
		}
	}
	if err := h.usecase.Advance(); err != nil {
		return dto.SessionView{}, err
	}
	if err := h.usecase.ChooseMusic(input.Music); err != nil {
		return dto.SessionView{}, err
	}
	if err := h.usecase.Begin(ctx); err != nil {
		return dto.SessionView{}, err
	}

	select {
	case <-done.finished:
	case <-ctx.Done():
		if err := h.usecase.End(context.WithoutCancel(ctx)); err != nil {
			return h.usecase.View(), err
		}
	}
	return h.usecase.View(), nil
}

func (h CLIHandler) History(ctx context.Context, limit int) ([]dto.RunOutput, error) {
	return h.usecase.History(ctx, dto.HistoryInput{Limit: limit})
}

func (h CLIHandler) Health(ctx context.Context) (dto.HealthOutput, error) {
	return h.usecase.Health(ctx)
}

// headlessHost forwards to an optional inner host and signals when the
// session leaves the active phase.
type headlessHost struct {
	inner    focusin.Host
	once     sync.Once
	finished chan struct{}
}

func newHeadlessHost(inner focusin.Host) *headlessHost {
	return &headlessHost{inner: inner, finished: make(chan struct{})}
}

func (h *headlessHost) finish() {
	h.once.Do(func() { close(h.finished) })
}

func (h *headlessHost) Alert(message string) {
	if h.inner != nil {
		h.inner.Alert(message)
	}
}

func (h *headlessHost) Back() {
	if h.inner != nil {
		h.inner.Back()
	}
	h.finish()
}

func (h *headlessHost) NavigateToNotes() {
	if h.inner != nil {
		h.inner.NavigateToNotes()
	}
	h.finish()
}

func (h *headlessHost) Changed(view dto.SessionView) {
	if h.inner != nil {
		h.inner.Changed(view)
	}
}
