package dto

import "time"

type CreateSessionInput struct {
	UserID                 string `json:"user_id"`
	Duration               int    `json:"duration"`
	Subject                string `json:"subject"`
	StudyMode              string `json:"study_mode"`
	Difficulty             string `json:"difficulty"`
	BreakPreference        string `json:"break_preference"`
	DistractionSensitivity string `json:"distraction_sensitivity"`
	MusicChoice            string `json:"music_choice"`
}

type CreateSessionOutput struct {
	SessionID string
}

type HealthOutput struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

type FrameEvent struct {
	SessionID string `json:"session_id"`
	Frame     string `json:"frame"`
	Timestamp string `json:"timestamp"`
}

type HelpRequestEvent struct {
	SessionID string `json:"session_id"`
	Timestamp string `json:"timestamp"`
}

// AnalysisEvent carries optional fields; nil means the server omitted it.
type AnalysisEvent struct {
	Emotion          *string  `json:"emotion,omitempty"`
	Posture          *string  `json:"posture,omitempty"`
	DistractionLevel *float64 `json:"distraction_level,omitempty"`
	Suggestion       *string  `json:"suggestion,omitempty"`
}

type ErrorEvent struct {
	Error string `json:"error"`
}

type HelpResponseEvent struct {
	Message string `json:"message"`
}

type ConnectionEvent struct {
	Status string `json:"status"`
}

type CameraConstraints struct {
	Device string
	Width  int
	Height int
}

// SessionView is a read-only copy of the controller state for rendering.
type SessionView struct {
	Phase            string
	Paused           bool
	RemainingSeconds int
	TotalSeconds     int
	Clock            string
	Progress         float64
	RemoteSessionID  string
	CameraActive     bool
	Mounted          bool

	Config       ConfigView
	Fields       []FieldView
	MusicOptions []string

	Emotion          string
	Posture          string
	DistractionLevel float64
	FocusPercent     int
	Suggestion       string

	LastRun *RunOutput
}

type ConfigView struct {
	DurationMinutes        int
	Subject                string
	StudyMode              string
	Difficulty             string
	BreakPreference        string
	DistractionSensitivity string
	MusicChoice            string
}

// FieldView describes one editable setup field and its allowed values.
type FieldView struct {
	Key     string
	Label   string
	Value   string
	Options []string
}

type RunOutput struct {
	ID                  string
	RemoteSessionID     string
	ConfigSummary       string
	Subject             string
	DurationMinutes     int
	StartedAt           time.Time
	EndedAt             time.Time
	Outcome             string
	Pauses              int
	FramesSent          int
	SuggestionsReceived int
}

type HistoryInput struct {
	Limit int
}
