package domain

import (
	"fmt"
	"time"
)

// Handle is the client-side state of the current focus session.
type Handle struct {
	RemoteSessionID  string
	Phase            Phase
	Paused           bool
	RemainingSeconds int
	TotalSeconds     int
	CameraActive     bool
}

func NewHandle() Handle {
	return Handle{Phase: PhaseSetup}
}

// Progress is the elapsed fraction of the session in [0,1].
func (h Handle) Progress() float64 {
	if h.TotalSeconds <= 0 {
		return 0
	}
	p := float64(h.TotalSeconds-h.RemainingSeconds) / float64(h.TotalSeconds)
	return clamp01(p)
}

// FormatClock renders seconds as MM:SS.
func FormatClock(seconds int) string {
	if seconds < 0 {
		seconds = 0
	}
	return fmt.Sprintf("%02d:%02d", seconds/60, seconds%60)
}

type Outcome string

const (
	OutcomeCompleted Outcome = "completed"
	OutcomeEnded     Outcome = "ended"
	OutcomeHelp      Outcome = "help"
)

// Run is the local journal record of one active session.
type Run struct {
	ID                  string
	RemoteSessionID     string
	ConfigSummary       string
	Subject             string
	DurationMinutes     int
	StartedAt           time.Time
	EndedAt             time.Time
	Outcome             Outcome
	Pauses              int
	FramesSent          int
	SuggestionsReceived int
}

func (r Run) Elapsed() time.Duration {
	if r.EndedAt.Before(r.StartedAt) {
		return 0
	}
	return r.EndedAt.Sub(r.StartedAt)
}
