package service

import (
	"time"

	"focusmate/internal/modules/focus/domain"
)

func (c *Controller) startCountdownLocked() {
	if c.scope == nil {
		return
	}
	gen := c.gen
	c.scope.set(slotCountdown, c.deps.Scheduler.Every(time.Second, func() { c.tick(gen) }))
}

// tick decrements the remaining time once. At one second or less it lands
// on zero and completes the session instead of going negative.
func (c *Controller) tick(gen uint64) {
	c.mu.Lock()
	if c.gen != gen || c.handle.Phase != domain.PhaseActive || c.handle.Paused {
		c.mu.Unlock()
		return
	}
	if c.handle.RemainingSeconds <= 1 {
		c.handle.RemainingSeconds = 0
		eff, err := c.transitionLocked(domain.TriggerComplete)
		bg := c.bg
		c.mu.Unlock()
		if err != nil {
			return
		}
		c.log.Info("session complete", "session_id", eff.remoteID)
		c.apply(bg, eff)
		return
	}
	c.handle.RemainingSeconds--
	view, host := c.viewLocked(), c.host
	c.mu.Unlock()
	notify(host, view)
}
