package domain

import (
	"fmt"

	apperrors "focusmate/internal/platform/errors"
)

type Phase string

const (
	PhaseSetup  Phase = "setup"
	PhaseMusic  Phase = "music"
	PhaseActive Phase = "active"
	PhaseEnded  Phase = "ended"
)

type Trigger string

const (
	TriggerAdvance  Trigger = "advance"
	TriggerBack     Trigger = "back"
	TriggerBegin    Trigger = "begin"
	TriggerComplete Trigger = "complete"
	TriggerEnd      Trigger = "end"
	TriggerHelp     Trigger = "help"
	TriggerReset    Trigger = "reset"
)

type edge struct {
	from    Phase
	trigger Trigger
}

var transitions = map[edge]Phase{
	{PhaseSetup, TriggerAdvance}:   PhaseMusic,
	{PhaseMusic, TriggerBack}:      PhaseSetup,
	{PhaseMusic, TriggerBegin}:     PhaseActive,
	{PhaseActive, TriggerComplete}: PhaseEnded,
	{PhaseActive, TriggerEnd}:      PhaseEnded,
	{PhaseActive, TriggerHelp}:     PhaseEnded,
	{PhaseEnded, TriggerReset}:     PhaseSetup,
}

// Next returns the phase reached by firing t in p. Pairs missing from the
// table are rejected with ErrIllegalTransition.
func (p Phase) Next(t Trigger) (Phase, error) {
	to, ok := transitions[edge{p, t}]
	if !ok {
		return p, fmt.Errorf("%w: %s from %s", apperrors.ErrIllegalTransition, t, p)
	}
	return to, nil
}

// Terminal reports whether t ends an active session.
func (t Trigger) Terminal() bool {
	switch t {
	case TriggerComplete, TriggerEnd, TriggerHelp:
		return true
	default:
		return false
	}
}

// Outcome maps a terminal trigger to the journal outcome.
func (t Trigger) Outcome() Outcome {
	switch t {
	case TriggerComplete:
		return OutcomeCompleted
	case TriggerHelp:
		return OutcomeHelp
	default:
		return OutcomeEnded
	}
}
