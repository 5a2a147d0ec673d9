package service

import (
	"context"
	"sync"

	focusout "focusmate/internal/modules/focus/port/out"
	"focusmate/internal/platform/schedule"
)

const (
	slotCountdown  = "countdown"
	slotWarmup     = "warmup"
	slotCapture    = "capture"
	slotSuggestion = "suggestion"
)

// scope owns the timers, camera stream and in-flight device calls of one
// active session. Close is the only teardown path and runs at most once;
// anything handed to a closed scope is stopped or released on the spot.
type scope struct {
	ctx    context.Context
	cancel context.CancelFunc

	mu     sync.Mutex
	closed bool
	slots  map[string]schedule.Handle
	stream focusout.Stream
}

func newScope(parent context.Context) *scope {
	ctx, cancel := context.WithCancel(parent)
	return &scope{ctx: ctx, cancel: cancel, slots: map[string]schedule.Handle{}}
}

// context is cancelled by Close, which aborts captures still running.
func (s *scope) context() context.Context { return s.ctx }

// set stores h under name, stopping whatever the slot held before.
func (s *scope) set(name string, h schedule.Handle) bool {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		schedule.Stop(h)
		return false
	}
	prev := s.slots[name]
	s.slots[name] = h
	s.mu.Unlock()
	schedule.Stop(prev)
	return true
}

func (s *scope) stop(name string) {
	s.mu.Lock()
	h := s.slots[name]
	delete(s.slots, name)
	s.mu.Unlock()
	schedule.Stop(h)
}

// attach hands the camera stream to the scope. It returns false when the
// scope is already closed; the caller then still owns the stream.
func (s *scope) attach(stream focusout.Stream) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return false
	}
	s.stream = stream
	return true
}

func (s *scope) currentStream() focusout.Stream {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stream
}

// Close stops every timer and releases the stream. It reports whether this
// call performed the teardown.
func (s *scope) Close() (bool, error) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return false, nil
	}
	s.closed = true
	slots := s.slots
	stream := s.stream
	s.slots = nil
	s.stream = nil
	s.mu.Unlock()

	s.cancel()
	for _, h := range slots {
		h.Stop()
	}
	if stream != nil {
		return true, stream.Release()
	}
	return true, nil
}
