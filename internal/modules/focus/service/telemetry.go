package service

import (
	"focusmate/internal/modules/focus/domain"
	"focusmate/internal/modules/focus/dto"
)

// maybeStartCaptureLocked arms the frame loop once the remote session and
// the camera are both ready: one capture after the warm-up, then one per
// interval. The ticker is armed before the first capture runs so a slow
// camera does not shift the cadence.
func (c *Controller) maybeStartCaptureLocked() {
	if c.capturing || c.scope == nil || c.handle.Phase != domain.PhaseActive {
		return
	}
	if c.handle.RemoteSessionID == "" || !c.handle.CameraActive {
		return
	}
	c.capturing = true
	gen, sc := c.gen, c.scope
	sc.set(slotWarmup, c.deps.Scheduler.After(c.opts.FrameWarmup, func() {
		sc.set(slotCapture, c.deps.Scheduler.Every(c.opts.FrameInterval, func() { c.capture(gen) }))
		c.capture(gen)
	}))
}

// capture sends one frame. Frames that are not ready yet are skipped.
func (c *Controller) capture(gen uint64) {
	c.mu.Lock()
	if c.gen != gen || c.handle.Phase != domain.PhaseActive || c.scope == nil {
		c.mu.Unlock()
		return
	}
	stream := c.scope.currentStream()
	sessionID := c.handle.RemoteSessionID
	ctx := c.scope.context()
	up := c.channelUp
	c.mu.Unlock()
	if stream == nil || c.deps.Encoder == nil || c.deps.Channel == nil || !up {
		return
	}

	img, err := stream.Frame(ctx)
	if err != nil {
		c.log.Debug("read frame", "session_id", sessionID, "error", err)
		return
	}
	if img == nil || img.Bounds().Empty() {
		return
	}
	frame, err := c.deps.Encoder.Encode(img)
	if err != nil {
		c.log.Warn("encode frame", "session_id", sessionID, "error", err)
		return
	}
	event := dto.FrameEvent{SessionID: sessionID, Frame: frame, Timestamp: c.timestamp()}
	if err := c.deps.Channel.SendFrame(ctx, event); err != nil {
		c.log.Warn("send frame", "session_id", sessionID, "error", err)
		return
	}

	c.mu.Lock()
	if c.gen == gen && c.run != nil {
		c.run.FramesSent++
	}
	c.mu.Unlock()
}

func (c *Controller) onAnalysis(event dto.AnalysisEvent) {
	c.mu.Lock()
	if c.handle.Phase != domain.PhaseActive || c.scope == nil {
		c.mu.Unlock()
		return
	}
	c.analysis = domain.SnapshotFrom(event.Emotion, event.Posture, event.DistractionLevel)
	if event.Suggestion != nil && *event.Suggestion != "" {
		c.showSuggestionLocked(*event.Suggestion)
	}
	view, host := c.viewLocked(), c.host
	c.mu.Unlock()
	notify(host, view)
}

// showSuggestionLocked replaces the live suggestion. Its expiry supersedes
// any pending one.
func (c *Controller) showSuggestionLocked(text string) {
	c.suggestSeq++
	seq := c.suggestSeq
	c.suggestion = domain.Suggestion{Text: text, ExpiresAt: c.deps.Clock.Now().Add(c.opts.SuggestionTTL)}
	if c.run != nil {
		c.run.SuggestionsReceived++
	}
	c.scope.set(slotSuggestion, c.deps.Scheduler.After(c.opts.SuggestionTTL, func() { c.expireSuggestion(seq) }))
}

func (c *Controller) expireSuggestion(seq uint64) {
	c.mu.Lock()
	if seq != c.suggestSeq || !c.suggestion.Live() {
		c.mu.Unlock()
		return
	}
	c.suggestion = domain.Suggestion{}
	view, host := c.viewLocked(), c.host
	c.mu.Unlock()
	notify(host, view)
}

func (c *Controller) DismissSuggestion() {
	c.mu.Lock()
	if !c.suggestion.Live() {
		c.mu.Unlock()
		return
	}
	c.suggestSeq++
	c.suggestion = domain.Suggestion{}
	if c.scope != nil {
		c.scope.stop(slotSuggestion)
	}
	view, host := c.viewLocked(), c.host
	c.mu.Unlock()
	notify(host, view)
}

func (c *Controller) onAnalysisError(event dto.ErrorEvent) {
	c.log.Warn("analysis error", "error", event.Error)
}

func (c *Controller) onHelpResponse(event dto.HelpResponseEvent) {
	c.log.Info("help response", "message", event.Message)
}

func (c *Controller) onConnection(event dto.ConnectionEvent) {
	c.log.Debug("realtime channel", "status", event.Status)
}
