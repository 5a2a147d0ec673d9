package domain

import (
	"fmt"
	"slices"
	"strconv"
	"strings"

	apperrors "focusmate/internal/platform/errors"
)

type Field string

const (
	FieldDuration               Field = "duration"
	FieldSubject                Field = "subject"
	FieldStudyMode              Field = "study_mode"
	FieldDifficulty             Field = "difficulty"
	FieldBreakPreference        Field = "break_preference"
	FieldDistractionSensitivity Field = "distraction_sensitivity"
	FieldMusicChoice            Field = "music_choice"
)

var (
	Durations     = []int{15, 25, 45, 60, 90}
	Subjects      = []string{"mathematics", "science", "history", "language", "computer-science", "business", "arts", "other"}
	StudyModes    = []string{"reading", "practice", "review", "writing"}
	Difficulties  = []string{"easy", "medium", "hard"}
	BreakOptions  = []string{"yes", "no"}
	Sensitivities = []string{"low", "medium", "high"}
	MusicChoices  = []string{"lofi", "classical", "ambient", "nature", "whitenoise", "piano", "none"}
)

// SetupFields lists the fields edited on the setup screen, in display order.
var SetupFields = []Field{
	FieldDuration,
	FieldSubject,
	FieldStudyMode,
	FieldDifficulty,
	FieldBreakPreference,
	FieldDistractionSensitivity,
}

var fieldLabels = map[Field]string{
	FieldDuration:               "Duration (min)",
	FieldSubject:                "Subject",
	FieldStudyMode:              "Study mode",
	FieldDifficulty:             "Difficulty",
	FieldBreakPreference:        "Breaks",
	FieldDistractionSensitivity: "Sensitivity",
	FieldMusicChoice:            "Music",
}

func (f Field) Label() string {
	if l, ok := fieldLabels[f]; ok {
		return l
	}
	return string(f)
}

// Options returns the allowed values for f, durations rendered as strings.
func Options(f Field) []string {
	switch f {
	case FieldDuration:
		out := make([]string, 0, len(Durations))
		for _, d := range Durations {
			out = append(out, strconv.Itoa(d))
		}
		return out
	case FieldSubject:
		return Subjects
	case FieldStudyMode:
		return StudyModes
	case FieldDifficulty:
		return Difficulties
	case FieldBreakPreference:
		return BreakOptions
	case FieldDistractionSensitivity:
		return Sensitivities
	case FieldMusicChoice:
		return MusicChoices
	default:
		return nil
	}
}

type SessionConfig struct {
	DurationMinutes        int
	Subject                string
	StudyMode              string
	Difficulty             string
	BreakPreference        string
	DistractionSensitivity string
	MusicChoice            string
}

func DefaultConfig() SessionConfig {
	return SessionConfig{
		DurationMinutes:        25,
		Difficulty:             "medium",
		BreakPreference:        "yes",
		DistractionSensitivity: "medium",
	}
}

// With returns a copy of c with one field replaced. Only value is checked;
// other fields keep whatever they held.
func (c SessionConfig) With(f Field, value string) (SessionConfig, error) {
	value = strings.TrimSpace(value)
	if !slices.Contains(Options(f), value) {
		if Options(f) == nil {
			return c, fmt.Errorf("%w: unknown field %q", apperrors.ErrInvalidInput, f)
		}
		return c, fmt.Errorf("%w: %q is not a valid %s", apperrors.ErrInvalidInput, value, f)
	}
	switch f {
	case FieldDuration:
		c.DurationMinutes, _ = strconv.Atoi(value)
	case FieldSubject:
		c.Subject = value
	case FieldStudyMode:
		c.StudyMode = value
	case FieldDifficulty:
		c.Difficulty = value
	case FieldBreakPreference:
		c.BreakPreference = value
	case FieldDistractionSensitivity:
		c.DistractionSensitivity = value
	case FieldMusicChoice:
		c.MusicChoice = value
	}
	return c, nil
}

// Get returns the current value of f as a string; unset fields are "".
func (c SessionConfig) Get(f Field) string {
	switch f {
	case FieldDuration:
		if c.DurationMinutes == 0 {
			return ""
		}
		return strconv.Itoa(c.DurationMinutes)
	case FieldSubject:
		return c.Subject
	case FieldStudyMode:
		return c.StudyMode
	case FieldDifficulty:
		return c.Difficulty
	case FieldBreakPreference:
		return c.BreakPreference
	case FieldDistractionSensitivity:
		return c.DistractionSensitivity
	case FieldMusicChoice:
		return c.MusicChoice
	default:
		return ""
	}
}

func (c SessionConfig) ReadyForMusic() error {
	if c.Subject == "" || c.StudyMode == "" {
		return apperrors.ErrMissingRequiredFields
	}
	return nil
}

func (c SessionConfig) ReadyToBegin() error {
	if err := c.ReadyForMusic(); err != nil {
		return err
	}
	if c.MusicChoice == "" {
		return apperrors.ErrMusicNotChosen
	}
	return nil
}

func (c SessionConfig) TotalSeconds() int {
	return c.DurationMinutes * 60
}

// Summary is the one-line description stored with a run.
func (c SessionConfig) Summary() string {
	return fmt.Sprintf("%dm %s/%s %s music=%s", c.DurationMinutes, c.Subject, c.StudyMode, c.Difficulty, c.MusicChoice)
}
