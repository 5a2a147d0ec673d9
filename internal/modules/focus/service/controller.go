package service

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"focusmate/internal/modules/focus/domain"
	"focusmate/internal/modules/focus/dto"
	focusin "focusmate/internal/modules/focus/port/in"
	focusout "focusmate/internal/modules/focus/port/out"
	"focusmate/internal/platform/clock"
	apperrors "focusmate/internal/platform/errors"
	"focusmate/internal/platform/id"
	"focusmate/internal/platform/schedule"
)

const (
	completeMessage = "Session complete! Great work!"
	cameraMessage   = "Unable to access camera. Please check permissions."
)

type Deps struct {
	API       focusout.SessionAPI
	Channel   focusout.Channel
	Camera    focusout.Camera
	Encoder   focusout.FrameEncoder
	Journal   focusout.Journal
	Scheduler schedule.Scheduler
	Clock     clock.Clock
	IDs       id.Generator
	Logger    *slog.Logger
}

type Options struct {
	UserID        string
	Camera        dto.CameraConstraints
	FrameWarmup   time.Duration
	FrameInterval time.Duration
	SuggestionTTL time.Duration
}

func DefaultOptions() Options {
	return Options{
		UserID:        "user123",
		FrameWarmup:   2 * time.Second,
		FrameInterval: 3 * time.Second,
		SuggestionTTL: 10 * time.Second,
	}
}

// Controller owns the session handle. All transitions go through fire; a
// single mutex guards state and no I/O happens while it is held.
type Controller struct {
	deps Deps
	opts Options
	log  *slog.Logger

	mu        sync.Mutex
	bg        context.Context
	host      focusin.Host
	mounted   bool
	channelUp bool

	collector  *Collector
	handle     domain.Handle
	config     domain.SessionConfig
	analysis   domain.AnalysisSnapshot
	suggestion domain.Suggestion
	suggestSeq uint64
	scope      *scope
	capturing  bool
	gen        uint64
	run        *domain.Run
	lastRun    *domain.Run
}

func NewController(deps Deps, opts Options) *Controller {
	if deps.Scheduler == nil {
		deps.Scheduler = schedule.System{}
	}
	if deps.Clock == nil {
		deps.Clock = clock.SystemClock{}
	}
	if deps.IDs == nil {
		deps.IDs = id.Prefixed{Prefix: "run-", Base: id.RandomHex{}}
	}
	logger := deps.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Controller{
		deps:      deps,
		opts:      opts,
		log:       logger.With("component", "focus"),
		bg:        context.Background(),
		collector: NewCollector(),
		handle:    domain.NewHandle(),
		analysis:  domain.DefaultAnalysis(),
	}
}

// Mount attaches host and connects the real-time channel. A channel that
// fails to connect leaves the session usable without analysis.
func (c *Controller) Mount(ctx context.Context, host focusin.Host) error {
	c.mu.Lock()
	if c.mounted {
		c.host = host
		c.mu.Unlock()
		return nil
	}
	c.mounted = true
	c.host = host
	c.bg = context.WithoutCancel(ctx)
	c.mu.Unlock()

	if c.deps.Channel == nil {
		return nil
	}
	err := c.deps.Channel.Connect(ctx, focusout.ChannelHandlers{
		OnAnalysis:     c.onAnalysis,
		OnError:        c.onAnalysisError,
		OnHelpResponse: c.onHelpResponse,
		OnConnection:   c.onConnection,
	})
	if err != nil {
		c.log.Warn("connect realtime channel", "error", err)
		return nil
	}
	c.mu.Lock()
	c.channelUp = c.mounted
	c.mu.Unlock()
	return nil
}

// Unmount ends an active session through the regular end path, then
// disconnects the channel and resets all state. Host callbacks are not
// invoked for the teardown itself.
func (c *Controller) Unmount() {
	c.mu.Lock()
	if !c.mounted {
		c.mu.Unlock()
		return
	}
	var eff *effects
	if c.handle.Phase == domain.PhaseActive {
		eff, _ = c.transitionLocked(domain.TriggerEnd)
		eff.host = nil
	}
	c.mounted = false
	c.host = nil
	wasUp := c.channelUp
	c.channelUp = false
	bg := c.bg
	c.mu.Unlock()

	c.apply(bg, eff)
	if wasUp && c.deps.Channel != nil {
		if err := c.deps.Channel.Close(); err != nil {
			c.log.Warn("close realtime channel", "error", err)
		}
	}

	c.mu.Lock()
	c.resetLocked()
	c.mu.Unlock()
}

func (c *Controller) SetField(field domain.Field, value string) error {
	c.mu.Lock()
	if c.handle.Phase != domain.PhaseSetup {
		c.mu.Unlock()
		return fmt.Errorf("%w: configuration is only editable during setup", apperrors.ErrInvalidInput)
	}
	if err := c.collector.Set(field, value); err != nil {
		c.mu.Unlock()
		return err
	}
	view, host := c.viewLocked(), c.host
	c.mu.Unlock()
	notify(host, view)
	return nil
}

func (c *Controller) Advance() error {
	return c.fire(context.Background(), domain.TriggerAdvance)
}

func (c *Controller) Back() error {
	return c.fire(context.Background(), domain.TriggerBack)
}

func (c *Controller) ChooseMusic(choice string) error {
	c.mu.Lock()
	if c.handle.Phase != domain.PhaseMusic {
		c.mu.Unlock()
		return fmt.Errorf("%w: music is chosen after setup", apperrors.ErrInvalidInput)
	}
	if err := c.collector.ChooseMusic(choice); err != nil {
		c.mu.Unlock()
		return err
	}
	view, host := c.viewLocked(), c.host
	c.mu.Unlock()
	notify(host, view)
	return nil
}

// Begin starts the active phase. The countdown starts immediately; camera
// acquisition and the remote create call then run in parallel and Begin
// returns once both have resolved. Their failures degrade the session
// rather than failing Begin.
func (c *Controller) Begin(ctx context.Context) error {
	c.mu.Lock()
	if !c.mounted {
		c.mu.Unlock()
		return apperrors.ErrNotMounted
	}
	c.mu.Unlock()
	if err := c.fire(ctx, domain.TriggerBegin); err != nil {
		return err
	}

	c.mu.Lock()
	gen := c.gen
	cfg := c.config
	c.mu.Unlock()

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		c.acquireCamera(ctx, gen)
	}()
	go func() {
		defer wg.Done()
		c.createRemote(ctx, gen, cfg)
	}()
	wg.Wait()
	return nil
}

func (c *Controller) TogglePause(ctx context.Context) error {
	c.mu.Lock()
	if c.handle.Phase != domain.PhaseActive {
		c.mu.Unlock()
		return apperrors.ErrNotActive
	}
	c.handle.Paused = !c.handle.Paused
	paused := c.handle.Paused
	if paused {
		c.scope.stop(slotCountdown)
		if c.run != nil {
			c.run.Pauses++
		}
	} else {
		c.startCountdownLocked()
	}
	remoteID := c.handle.RemoteSessionID
	view, host := c.viewLocked(), c.host
	c.mu.Unlock()
	notify(host, view)

	if remoteID == "" || c.deps.API == nil {
		return nil
	}
	var err error
	if paused {
		err = c.deps.API.Pause(ctx, remoteID)
	} else {
		err = c.deps.API.Resume(ctx, remoteID)
	}
	if err != nil {
		c.log.Warn("sync pause state", "session_id", remoteID, "paused", paused, "error", err)
	}
	return nil
}

func (c *Controller) End(ctx context.Context) error {
	return c.fire(ctx, domain.TriggerEnd)
}

func (c *Controller) RequestHelp(ctx context.Context) error {
	return c.fire(ctx, domain.TriggerHelp)
}

func (c *Controller) Reset() error {
	return c.fire(context.Background(), domain.TriggerReset)
}

func (c *Controller) View() dto.SessionView {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.viewLocked()
}

// effects collects everything a transition must do once the lock is gone.
type effects struct {
	trigger     domain.Trigger
	host        focusin.Host
	view        dto.SessionView
	scope       *scope
	remoteID    string
	pauseRemote bool
	sendHelp    bool
	run         *domain.Run
}

func (c *Controller) fire(ctx context.Context, trigger domain.Trigger) error {
	c.mu.Lock()
	eff, err := c.transitionLocked(trigger)
	c.mu.Unlock()
	if err != nil {
		return err
	}
	c.apply(ctx, eff)
	return nil
}

// transitionLocked validates trigger against the transition table and
// applies the in-memory part of its side effects.
func (c *Controller) transitionLocked(trigger domain.Trigger) (*effects, error) {
	next, err := c.handle.Phase.Next(trigger)
	if err != nil {
		return nil, err
	}
	eff := &effects{trigger: trigger, host: c.host}

	switch trigger {
	case domain.TriggerAdvance:
		if err := c.collector.CheckAdvance(); err != nil {
			return nil, err
		}
	case domain.TriggerBegin:
		cfg, err := c.collector.Freeze()
		if err != nil {
			return nil, err
		}
		c.beginLocked(cfg)
	case domain.TriggerComplete, domain.TriggerEnd, domain.TriggerHelp:
		if trigger == domain.TriggerHelp {
			eff.pauseRemote = !c.handle.Paused
			eff.sendHelp = c.channelUp
			c.handle.Paused = true
		}
		eff.scope = c.scope
		eff.remoteID = c.handle.RemoteSessionID
		c.scope = nil
		c.capturing = false
		c.handle.CameraActive = false
		c.suggestion = domain.Suggestion{}
		c.gen++
		if c.run != nil {
			finished := *c.run
			finished.EndedAt = c.deps.Clock.Now()
			finished.Outcome = trigger.Outcome()
			eff.run = &finished
			c.lastRun = &finished
			c.run = nil
		}
	case domain.TriggerReset:
		c.resetLocked()
	}

	c.handle.Phase = next
	c.log.Debug("transition", "trigger", string(trigger), "phase", string(next))
	eff.view = c.viewLocked()
	return eff, nil
}

func (c *Controller) beginLocked(cfg domain.SessionConfig) {
	c.config = cfg
	c.gen++
	c.handle = domain.Handle{
		Phase:            domain.PhaseActive,
		RemainingSeconds: cfg.TotalSeconds(),
		TotalSeconds:     cfg.TotalSeconds(),
	}
	c.analysis = domain.DefaultAnalysis()
	c.suggestion = domain.Suggestion{}
	c.capturing = false
	c.scope = newScope(c.bg)
	c.run = &domain.Run{
		ID:              c.deps.IDs.New(),
		ConfigSummary:   cfg.Summary(),
		Subject:         cfg.Subject,
		DurationMinutes: cfg.DurationMinutes,
		StartedAt:       c.deps.Clock.Now(),
	}
	c.lastRun = nil
	c.startCountdownLocked()
}

func (c *Controller) resetLocked() {
	c.collector.Reset()
	c.config = domain.SessionConfig{}
	c.handle = domain.NewHandle()
	c.analysis = domain.DefaultAnalysis()
	c.suggestion = domain.Suggestion{}
	c.capturing = false
	c.lastRun = nil
}

// apply performs the I/O part of a transition in a fixed order: remote
// pause, local teardown, help request, remote end, journal, host.
func (c *Controller) apply(ctx context.Context, eff *effects) {
	if eff == nil {
		return
	}
	if !eff.trigger.Terminal() {
		notify(eff.host, eff.view)
		return
	}

	if eff.pauseRemote && eff.remoteID != "" && c.deps.API != nil {
		if err := c.deps.API.Pause(ctx, eff.remoteID); err != nil {
			c.log.Warn("pause before help", "session_id", eff.remoteID, "error", err)
		}
	}
	if eff.scope != nil {
		if _, err := eff.scope.Close(); err != nil {
			c.log.Warn("release camera", "error", err)
		}
	}
	if eff.sendHelp && c.deps.Channel != nil {
		event := dto.HelpRequestEvent{SessionID: eff.remoteID, Timestamp: c.timestamp()}
		if err := c.deps.Channel.RequestHelp(ctx, event); err != nil {
			c.log.Warn("send help request", "session_id", eff.remoteID, "error", err)
		}
	}
	if eff.remoteID != "" && c.deps.API != nil {
		completed := eff.trigger == domain.TriggerComplete
		if err := c.deps.API.End(ctx, eff.remoteID, completed); err != nil {
			c.log.Warn("end remote session", "session_id", eff.remoteID, "completed", completed, "error", err)
		}
	}
	if eff.run != nil && c.deps.Journal != nil {
		eff.run.RemoteSessionID = eff.remoteID
		if err := c.deps.Journal.Save(ctx, *eff.run); err != nil {
			c.log.Warn("save run", "run_id", eff.run.ID, "error", err)
		}
	}

	if eff.host == nil {
		return
	}
	if eff.trigger == domain.TriggerComplete {
		eff.host.Alert(completeMessage)
	}
	eff.host.Changed(eff.view)
	if eff.trigger == domain.TriggerHelp {
		eff.host.NavigateToNotes()
		return
	}
	eff.host.Back()
}

// acquireCamera resolves the camera for session generation gen. A stream
// that arrives after that session ended is released at once.
func (c *Controller) acquireCamera(ctx context.Context, gen uint64) {
	if c.deps.Camera == nil {
		return
	}
	stream, err := c.deps.Camera.Acquire(ctx, c.opts.Camera)

	c.mu.Lock()
	current := c.gen == gen && c.handle.Phase == domain.PhaseActive
	if !current {
		c.mu.Unlock()
		if err == nil && stream != nil {
			c.log.Debug("late camera released")
			if relErr := stream.Release(); relErr != nil {
				c.log.Warn("release late camera", "error", relErr)
			}
		}
		return
	}
	if err != nil || stream == nil {
		host := c.host
		c.mu.Unlock()
		if err == nil {
			err = apperrors.ErrCameraUnavailable
		}
		c.log.Warn("acquire camera", "error", err)
		if host != nil {
			host.Alert(cameraMessage)
		}
		return
	}
	if !c.scope.attach(stream) {
		c.mu.Unlock()
		_ = stream.Release()
		return
	}
	c.handle.CameraActive = true
	c.maybeStartCaptureLocked()
	view, host := c.viewLocked(), c.host
	c.mu.Unlock()
	notify(host, view)
}

// createRemote opens the remote session. A session created after the local
// one already ended is closed again as not completed.
func (c *Controller) createRemote(ctx context.Context, gen uint64, cfg domain.SessionConfig) {
	if c.deps.API == nil {
		return
	}
	out, err := c.deps.API.Create(ctx, dto.CreateSessionInput{
		UserID:                 c.opts.UserID,
		Duration:               cfg.DurationMinutes,
		Subject:                cfg.Subject,
		StudyMode:              cfg.StudyMode,
		Difficulty:             cfg.Difficulty,
		BreakPreference:        cfg.BreakPreference,
		DistractionSensitivity: cfg.DistractionSensitivity,
		MusicChoice:            cfg.MusicChoice,
	})
	if err != nil {
		c.log.Warn("create remote session", "error", err)
		return
	}

	c.mu.Lock()
	if c.gen != gen || c.handle.Phase != domain.PhaseActive {
		bg := c.bg
		c.mu.Unlock()
		c.log.Debug("late remote session ended", "session_id", out.SessionID)
		if endErr := c.deps.API.End(bg, out.SessionID, false); endErr != nil {
			c.log.Warn("end late remote session", "session_id", out.SessionID, "error", endErr)
		}
		return
	}
	c.handle.RemoteSessionID = out.SessionID
	if c.run != nil {
		c.run.RemoteSessionID = out.SessionID
	}
	c.log.Info("session started", "session_id", out.SessionID)
	c.maybeStartCaptureLocked()
	view, host := c.viewLocked(), c.host
	c.mu.Unlock()
	notify(host, view)
}

func (c *Controller) viewLocked() dto.SessionView {
	draft := c.collector.Draft()
	if c.handle.Phase == domain.PhaseActive || c.handle.Phase == domain.PhaseEnded {
		draft = c.config
	}
	view := dto.SessionView{
		Phase:            string(c.handle.Phase),
		Paused:           c.handle.Paused,
		RemainingSeconds: c.handle.RemainingSeconds,
		TotalSeconds:     c.handle.TotalSeconds,
		Clock:            domain.FormatClock(c.handle.RemainingSeconds),
		Progress:         c.handle.Progress(),
		RemoteSessionID:  c.handle.RemoteSessionID,
		CameraActive:     c.handle.CameraActive,
		Mounted:          c.mounted,
		Config: dto.ConfigView{
			DurationMinutes:        draft.DurationMinutes,
			Subject:                draft.Subject,
			StudyMode:              draft.StudyMode,
			Difficulty:             draft.Difficulty,
			BreakPreference:        draft.BreakPreference,
			DistractionSensitivity: draft.DistractionSensitivity,
			MusicChoice:            draft.MusicChoice,
		},
		Fields:           fieldViews(draft),
		MusicOptions:     domain.Options(domain.FieldMusicChoice),
		Emotion:          c.analysis.Emotion,
		Posture:          c.analysis.Posture,
		DistractionLevel: c.analysis.DistractionLevel,
		FocusPercent:     c.analysis.FocusPercent(),
		Suggestion:       c.suggestion.Text,
	}
	if c.lastRun != nil {
		out := RunToOutput(*c.lastRun)
		view.LastRun = &out
	}
	return view
}

func fieldViews(cfg domain.SessionConfig) []dto.FieldView {
	out := make([]dto.FieldView, 0, len(domain.SetupFields))
	for _, f := range domain.SetupFields {
		out = append(out, dto.FieldView{
			Key:     string(f),
			Label:   f.Label(),
			Value:   cfg.Get(f),
			Options: domain.Options(f),
		})
	}
	return out
}

func (c *Controller) timestamp() string {
	return c.deps.Clock.Now().Format(time.RFC3339Nano)
}

func notify(host focusin.Host, view dto.SessionView) {
	if host != nil {
		host.Changed(view)
	}
}

func RunToOutput(r domain.Run) dto.RunOutput {
	return dto.RunOutput{
		ID:                  r.ID,
		RemoteSessionID:     r.RemoteSessionID,
		ConfigSummary:       r.ConfigSummary,
		Subject:             r.Subject,
		DurationMinutes:     r.DurationMinutes,
		StartedAt:           r.StartedAt,
		EndedAt:             r.EndedAt,
		Outcome:             string(r.Outcome),
		Pauses:              r.Pauses,
		FramesSent:          r.FramesSent,
		SuggestionsReceived: r.SuggestionsReceived,
	}
}
