package domain

import (
	"math"
	"time"
)

const (
	DefaultEmotion = "neutral"
	DefaultPosture = "unknown"
)

type AnalysisSnapshot struct {
	Emotion          string
	Posture          string
	DistractionLevel float64
}

func DefaultAnalysis() AnalysisSnapshot {
	return AnalysisSnapshot{Emotion: DefaultEmotion, Posture: DefaultPosture}
}

// SnapshotFrom builds the snapshot for one analysis event. Fields the event
// omits take their defaults instead of keeping earlier values.
func SnapshotFrom(emotion, posture *string, distraction *float64) AnalysisSnapshot {
	next := DefaultAnalysis()
	if emotion != nil && *emotion != "" {
		next.Emotion = *emotion
	}
	if posture != nil && *posture != "" {
		next.Posture = *posture
	}
	if distraction != nil {
		next.DistractionLevel = clamp01(*distraction)
	}
	return next
}

func (a AnalysisSnapshot) FocusPercent() int {
	return int(math.Round((1 - clamp01(a.DistractionLevel)) * 100))
}

func clamp01(v float64) float64 {
	if math.IsNaN(v) || v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

type Suggestion struct {
	Text      string
	ExpiresAt time.Time
}

func (s Suggestion) Live() bool {
	return s.Text != ""
}
