package apperrors

import "errors"

var (
	ErrInvalidInput          = errors.New("invalid input")
	ErrMissingRequiredFields = errors.New("subject and study mode are required")
	ErrMusicNotChosen        = errors.New("music choice is required")
	ErrIllegalTransition     = errors.New("illegal phase transition")
	ErrNotActive             = errors.New("no active session")
	ErrNotMounted            = errors.New("session controller is not mounted")
	ErrCameraUnavailable     = errors.New("camera unavailable")
	ErrRemote                = errors.New("remote call failed")
)
