// Package schedule provides cancellable one-shot and repeating callbacks.
//
// Every handle returned by a Scheduler can be stopped any number of times;
// stopping an already fired or stopped handle is a no-op.
package schedule

import (
	"sync"
	"time"
)

type Handle interface {
	Stop()
}

type Scheduler interface {
	// After runs fn once, d from now.
	After(d time.Duration, fn func()) Handle
	// Every runs fn every d, first at d from now.
	Every(d time.Duration, fn func()) Handle
}

// System schedules on wall-clock time. Callbacks run on their own goroutines.
type System struct{}

func (System) After(d time.Duration, fn func()) Handle {
	return timerHandle{t: time.AfterFunc(d, fn)}
}

func (System) Every(d time.Duration, fn func()) Handle {
	h := &tickerHandle{done: make(chan struct{})}
	ticker := time.NewTicker(d)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-h.done:
				return
			case <-ticker.C:
				select {
				case <-h.done:
					return
				default:
				}
				fn()
			}
		}
	}()
	return h
}

type timerHandle struct {
	t *time.Timer
}

func (h timerHandle) Stop() {
	h.t.Stop()
}

type tickerHandle struct {
	done chan struct{}
	once sync.Once
}

func (h *tickerHandle) Stop() {
	h.once.Do(func() { close(h.done) })
}

// Stop stops h when it is non-nil.
func Stop(h Handle) {
	if h != nil {
		h.Stop()
	}
}
