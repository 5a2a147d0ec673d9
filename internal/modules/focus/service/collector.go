package service

import (
	"focusmate/internal/modules/focus/domain"
)

// Collector accumulates the draft configuration across the setup and music
// screens. It is not safe for concurrent use; the Controller guards it.
type Collector struct {
	draft domain.SessionConfig
}

func NewCollector() *Collector {
	return &Collector{draft: domain.DefaultConfig()}
}

// Set merges a single field into the draft.
func (c *Collector) Set(field domain.Field, value string) error {
	next, err := c.draft.With(field, value)
	if err != nil {
		return err
	}
	c.draft = next
	return nil
}

// CheckAdvance reports whether the setup screen can be left.
func (c *Collector) CheckAdvance() error {
	return c.draft.ReadyForMusic()
}

func (c *Collector) ChooseMusic(choice string) error {
	return c.Set(domain.FieldMusicChoice, choice)
}

// Freeze returns the configuration a session starts with.
func (c *Collector) Freeze() (domain.SessionConfig, error) {
	if err := c.draft.ReadyToBegin(); err != nil {
		return domain.SessionConfig{}, err
	}
	return c.draft, nil
}

func (c *Collector) Draft() domain.SessionConfig {
	return c.draft
}

func (c *Collector) Reset() {
	c.draft = domain.DefaultConfig()
}
