package schedule

import (
	"sync"
	"time"
)

// Manual is a virtual-time Scheduler for tests. Nothing fires until Advance
// is called; due callbacks then run on the calling goroutine in due-time
// order, ties broken by registration order.
type Manual struct {
	mu     sync.Mutex
	now    time.Duration
	seq    int
	timers []*manualTimer
}

type manualTimer struct {
	m       *Manual
	id      int
	due     time.Duration
	every   time.Duration
	fn      func()
	stopped bool
}

func NewManual() *Manual {
	return &Manual{}
}

func (m *Manual) After(d time.Duration, fn func()) Handle {
	return m.add(d, 0, fn)
}

func (m *Manual) Every(d time.Duration, fn func()) Handle {
	return m.add(d, d, fn)
}

func (m *Manual) add(d, every time.Duration, fn func()) *manualTimer {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.seq++
	t := &manualTimer{m: m, id: m.seq, due: m.now + d, every: every, fn: fn}
	m.timers = append(m.timers, t)
	return t
}

func (t *manualTimer) Stop() {
	t.m.mu.Lock()
	defer t.m.mu.Unlock()
	t.stopped = true
}

// Advance moves virtual time forward by d, firing every callback that
// becomes due on the way, including ones scheduled by earlier callbacks.
func (m *Manual) Advance(d time.Duration) {
	m.mu.Lock()
	target := m.now + d
	m.mu.Unlock()
	for {
		m.mu.Lock()
		next := m.nextDueLocked(target)
		if next == nil {
			m.now = target
			m.compactLocked()
			m.mu.Unlock()
			return
		}
		m.now = next.due
		if next.every > 0 {
			next.due += next.every
		} else {
			next.stopped = true
		}
		fn := next.fn
		m.mu.Unlock()
		fn()
	}
}

// Now returns the virtual time elapsed since the Manual was created.
func (m *Manual) Now() time.Duration {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.now
}

// Pending reports how many callbacks are still scheduled.
func (m *Manual) Pending() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, t := range m.timers {
		if !t.stopped {
			n++
		}
	}
	return n
}

func (m *Manual) nextDueLocked(target time.Duration) *manualTimer {
	var next *manualTimer
	for _, t := range m.timers {
		if t.stopped || t.due > target {
			continue
		}
		if next == nil || t.due < next.due || (t.due == next.due && t.id < next.id) {
			next = t
		}
	}
	return next
}

func (m *Manual) compactLocked() {
	live := m.timers[:0]
	for _, t := range m.timers {
		if !t.stopped {
			live = append(live, t)
		}
	}
	m.timers = live
}
