package service_test

import (
	"errors"
	"testing"

	"focusmate/internal/modules/focus/domain"
	"focusmate/internal/modules/focus/service"
	apperrors "focusmate/internal/platform/errors"
)

func TestCollectorMergesFieldsAndFreezes(t *testing.T) {
	t.Parallel()
	c := service.NewCollector()
	if err := c.CheckAdvance(); !errors.Is(err, apperrors.ErrMissingRequiredFields) {
		t.Fatalf("expected missing fields, got %v", err)
	}
	if err := c.Set(domain.FieldSubject, "business"); err != nil {
		t.Fatalf("set subject: %v", err)
	}
	if err := c.Set(domain.FieldDifficulty, "impossible"); !errors.Is(err, apperrors.ErrInvalidInput) {
		t.Fatalf("expected invalid difficulty, got %v", err)
	}
	if c.Draft().Difficulty != "medium" {
		t.Fatalf("rejected value must not change the draft")
	}
	if err := c.Set(domain.FieldStudyMode, "writing"); err != nil {
		t.Fatalf("set mode: %v", err)
	}
	if err := c.CheckAdvance(); err != nil {
		t.Fatalf("advance: %v", err)
	}
	if _, err := c.Freeze(); !errors.Is(err, apperrors.ErrMusicNotChosen) {
		t.Fatalf("expected music required, got %v", err)
	}
	if err := c.ChooseMusic("piano"); err != nil {
		t.Fatalf("choose music: %v", err)
	}
	cfg, err := c.Freeze()
	if err != nil {
		t.Fatalf("freeze: %v", err)
	}
	if cfg.Subject != "business" || cfg.StudyMode != "writing" || cfg.MusicChoice != "piano" || cfg.DurationMinutes != 25 {
		t.Fatalf("unexpected frozen config %+v", cfg)
	}

	c.Reset()
	if c.Draft() != domain.DefaultConfig() {
		t.Fatalf("reset must restore defaults, got %+v", c.Draft())
	}
}
