package usecase

import (
	"context"
	"fmt"
	"strings"

	"focusmate/internal/modules/focus/domain"
	"focusmate/internal/modules/focus/dto"
	focusin "focusmate/internal/modules/focus/port/in"
	focusout "focusmate/internal/modules/focus/port/out"
	"focusmate/internal/modules/focus/service"
	apperrors "focusmate/internal/platform/errors"
)

const defaultHistoryLimit = 20

type Interactor struct {
	ctrl    *service.Controller
	api     focusout.SessionAPI
	journal focusout.Journal
}

func NewInteractor(ctrl *service.Controller, api focusout.SessionAPI, journal focusout.Journal) focusin.Usecase {
	return &Interactor{ctrl: ctrl, api: api, journal: journal}
}

func (i *Interactor) Mount(ctx context.Context, host focusin.Host) error {
	return i.ctrl.Mount(ctx, host)
}

func (i *Interactor) Unmount() {
	i.ctrl.Unmount()
}

func (i *Interactor) SetField(field, value string) error {
	f, err := parseField(field)
	if err != nil {
		return err
	}
	return i.ctrl.SetField(f, value)
}

func (i *Interactor) Advance() error {
	return i.ctrl.Advance()
}

func (i *Interactor) Back() error {
	return i.ctrl.Back()
}

func (i *Interactor) ChooseMusic(choice string) error {
	return i.ctrl.ChooseMusic(strings.ToLower(strings.TrimSpace(choice)))
}

func (i *Interactor) Begin(ctx context.Context) error {
	return i.ctrl.Begin(ctx)
}

func (i *Interactor) TogglePause(ctx context.Context) error {
	return i.ctrl.TogglePause(ctx)
}

func (i *Interactor) End(ctx context.Context) error {
	return i.ctrl.End(ctx)
}

func (i *Interactor) RequestHelp(ctx context.Context) error {
	return i.ctrl.RequestHelp(ctx)
}

func (i *Interactor) DismissSuggestion() {
	i.ctrl.DismissSuggestion()
}

func (i *Interactor) Reset() error {
	return i.ctrl.Reset()
}

func (i *Interactor) View() dto.SessionView {
	return i.ctrl.View()
}

func (i *Interactor) History(ctx context.Context, input dto.HistoryInput) ([]dto.RunOutput, error) {
	if input.Limit < 0 {
		return nil, fmt.Errorf("%w: limit must be non-negative", apperrors.ErrInvalidInput)
	}
	if i.journal == nil {
		return nil, nil
	}
	limit := input.Limit
	if limit == 0 {
		limit = defaultHistoryLimit
	}
	runs, err := i.journal.List(ctx, limit)
	if err != nil {
		return nil, err
	}
	out := make([]dto.RunOutput, 0, len(runs))
	for _, run := range runs {
		out = append(out, service.RunToOutput(run))
	}
	return out, nil
}

func (i *Interactor) Health(ctx context.Context) (dto.HealthOutput, error) {
	if i.api == nil {
		return dto.HealthOutput{}, fmt.Errorf("%w: session api is not configured", apperrors.ErrRemote)
	}
	return i.api.Health(ctx)
}

func parseField(raw string) (domain.Field, error) {
	key := strings.ReplaceAll(strings.ToLower(strings.TrimSpace(raw)), "-", "_")
	switch f := domain.Field(key); f {
	case domain.FieldDuration, domain.FieldSubject, domain.FieldStudyMode, domain.FieldDifficulty,
		domain.FieldBreakPreference, domain.FieldDistractionSensitivity, domain.FieldMusicChoice:
		return f, nil
	}
	return "", fmt.Errorf("%w: unknown field %q", apperrors.ErrInvalidInput, raw)
}
