package service_test

import (
	"context"
	"errors"
	"image"
	"slices"
	"strconv"
	"strings"
	"testing"
	"time"

	"focusmate/internal/modules/focus/domain"
	"focusmate/internal/modules/focus/dto"
	apperrors "focusmate/internal/platform/errors"
)

func TestAdvanceRequiresSubjectAndStudyMode(t *testing.T) {
	t.Parallel()
	h := newHarness(t)
	if err := h.ctrl.Advance(); !errors.Is(err, apperrors.ErrMissingRequiredFields) {
		t.Fatalf("expected missing fields, got %v", err)
	}
	if err := h.ctrl.SetField(domain.FieldSubject, "history"); err != nil {
		t.Fatalf("set subject: %v", err)
	}
	if err := h.ctrl.Advance(); !errors.Is(err, apperrors.ErrMissingRequiredFields) {
		t.Fatalf("expected missing study mode, got %v", err)
	}
	if got := h.ctrl.View().Phase; got != "setup" {
		t.Fatalf("failed advance must stay in setup, got %s", got)
	}
	if err := h.ctrl.SetField(domain.FieldStudyMode, "review"); err != nil {
		t.Fatalf("set mode: %v", err)
	}
	if err := h.ctrl.Advance(); err != nil {
		t.Fatalf("advance: %v", err)
	}
	view := h.ctrl.View()
	if view.Phase != "music" || view.Config.Subject != "history" || view.Config.DurationMinutes != 25 {
		t.Fatalf("unexpected view after advance %+v", view)
	}
	if err := h.ctrl.Begin(context.Background()); !errors.Is(err, apperrors.ErrMusicNotChosen) {
		t.Fatalf("begin without music must fail, got %v", err)
	}
	if err := h.ctrl.Back(); err != nil {
		t.Fatalf("back: %v", err)
	}
	if view := h.ctrl.View(); view.Phase != "setup" || view.Config.StudyMode != "review" {
		t.Fatalf("back must keep the draft, got %+v", view)
	}
}

func TestBeginSetsRemainingForEveryDuration(t *testing.T) {
	t.Parallel()
	for _, minutes := range domain.Durations {
		h := newHarness(t)
		h.begin(t, strconv.Itoa(minutes))
		view := h.ctrl.View()
		if view.Phase != "active" || view.RemainingSeconds != minutes*60 || view.TotalSeconds != minutes*60 {
			t.Fatalf("duration %d: unexpected view %+v", minutes, view)
		}
		if err := h.ctrl.SetField(domain.FieldDuration, "15"); err == nil {
			t.Fatalf("config must be frozen while active")
		}
	}
}

func TestCountdownCompletesExactlyOnce(t *testing.T) {
	t.Parallel()
	h := newHarness(t)
	h.begin(t, "15")

	h.sched.Advance(899 * time.Second)
	if view := h.ctrl.View(); view.Phase != "active" || view.RemainingSeconds != 1 {
		t.Fatalf("expected 1s left, got %+v", view)
	}
	h.sched.Advance(time.Second)
	view := h.ctrl.View()
	if view.Phase != "ended" || view.RemainingSeconds != 0 {
		t.Fatalf("expected ended at zero, got %+v", view)
	}
	h.sched.Advance(time.Minute)

	if n := h.api.count("end:sess-1:true"); n != 1 {
		t.Fatalf("expected one completed end call, got %v", h.api.Calls())
	}
	alerts, back, notes := h.host.snapshot()
	if len(alerts) != 1 || alerts[0] != "Session complete! Great work!" || back != 1 || notes != 0 {
		t.Fatalf("unexpected host calls alerts=%v back=%d notes=%d", alerts, back, notes)
	}
	if h.stream.releases() != 1 {
		t.Fatalf("expected camera released once, got %d", h.stream.releases())
	}
	if h.sched.Pending() != 0 {
		t.Fatalf("expected no timers left, got %d", h.sched.Pending())
	}
	runs, _ := h.journal.List(context.Background(), 10)
	if len(runs) != 1 || runs[0].Outcome != domain.OutcomeCompleted || runs[0].RemoteSessionID != "sess-1" {
		t.Fatalf("unexpected journal %+v", runs)
	}
	if view.LastRun == nil || view.LastRun.Outcome != "completed" {
		t.Fatalf("expected last run in view, got %+v", view.LastRun)
	}
}

func TestTeardownTwiceEndsRemoteOnce(t *testing.T) {
	t.Parallel()
	h := newHarness(t)
	h.begin(t, "25")
	h.sched.Advance(4 * time.Second)

	if err := h.ctrl.End(context.Background()); err != nil {
		t.Fatalf("end: %v", err)
	}
	if err := h.ctrl.End(context.Background()); !errors.Is(err, apperrors.ErrIllegalTransition) {
		t.Fatalf("second end must be illegal, got %v", err)
	}
	h.ctrl.Unmount()
	h.ctrl.Unmount()

	if n := h.api.count("end:sess-1:false"); n != 1 {
		t.Fatalf("expected exactly one end call, got %v", h.api.Calls())
	}
	if h.stream.releases() != 1 {
		t.Fatalf("expected one camera release, got %d", h.stream.releases())
	}
	_, back, _ := h.host.snapshot()
	if back != 1 {
		t.Fatalf("expected one Back, got %d", back)
	}
	if h.channel.closed != 1 {
		t.Fatalf("expected channel closed once, got %d", h.channel.closed)
	}
}

func TestUnmountEndsActiveSession(t *testing.T) {
	t.Parallel()
	h := newHarness(t)
	h.begin(t, "45")
	h.ctrl.Unmount()

	if n := h.api.count("end:sess-1:false"); n != 1 {
		t.Fatalf("unmount must end the remote session once, got %v", h.api.Calls())
	}
	if h.stream.releases() != 1 || h.sched.Pending() != 0 {
		t.Fatalf("unmount must release camera and timers (releases=%d pending=%d)", h.stream.releases(), h.sched.Pending())
	}
	if view := h.ctrl.View(); view.Phase != "setup" || view.RemoteSessionID != "" || view.Mounted {
		t.Fatalf("expected reset handle, got %+v", view)
	}
	if _, back, _ := h.host.snapshot(); back != 0 {
		t.Fatalf("unmount must not navigate, got %d Back calls", back)
	}
	if err := h.ctrl.Begin(context.Background()); !errors.Is(err, apperrors.ErrNotMounted) {
		t.Fatalf("begin after unmount must fail, got %v", err)
	}
}

func TestDoubleTogglePreservesRemaining(t *testing.T) {
	t.Parallel()
	h := newHarness(t)
	h.begin(t, "25")
	h.sched.Advance(10 * time.Second)

	if err := h.ctrl.TogglePause(context.Background()); err != nil {
		t.Fatalf("pause: %v", err)
	}
	paused := h.ctrl.View()
	if !paused.Paused || paused.RemainingSeconds != 1490 {
		t.Fatalf("unexpected paused view %+v", paused)
	}
	framesBefore := h.channel.frameCount()
	h.sched.Advance(30 * time.Second)
	if got := h.ctrl.View().RemainingSeconds; got != 1490 {
		t.Fatalf("countdown must be suspended while paused, got %d", got)
	}
	if h.channel.frameCount() <= framesBefore {
		t.Fatalf("capture must continue while paused")
	}
	if err := h.ctrl.TogglePause(context.Background()); err != nil {
		t.Fatalf("resume: %v", err)
	}
	if view := h.ctrl.View(); view.Paused || view.RemainingSeconds != 1490 {
		t.Fatalf("double toggle must restore state, got %+v", view)
	}
	h.sched.Advance(time.Second)
	if got := h.ctrl.View().RemainingSeconds; got != 1489 {
		t.Fatalf("countdown must resume from preserved value, got %d", got)
	}
	calls := h.api.Calls()
	if !slices.Contains(calls, "pause:sess-1") || !slices.Contains(calls, "resume:sess-1") {
		t.Fatalf("expected remote pause and resume, got %v", calls)
	}
	if err := h.ctrl.End(context.Background()); err != nil {
		t.Fatalf("end: %v", err)
	}
	if err := h.ctrl.TogglePause(context.Background()); !errors.Is(err, apperrors.ErrNotActive) {
		t.Fatalf("toggle after end must fail, got %v", err)
	}
	runs, _ := h.journal.List(context.Background(), 10)
	if len(runs) != 1 || runs[0].Pauses != 1 || runs[0].Outcome != domain.OutcomeEnded {
		t.Fatalf("unexpected run %+v", runs)
	}
}

func TestScenarioFramesAfterWarmup(t *testing.T) {
	t.Parallel()
	h := newHarness(t)
	h.begin(t, "25")
	if got := h.ctrl.View().RemainingSeconds; got != 1500 {
		t.Fatalf("expected 1500s, got %d", got)
	}
	h.sched.Advance(9 * time.Second)

	want := []time.Duration{2 * time.Second, 5 * time.Second, 8 * time.Second}
	if !slices.Equal(h.channel.sentAt, want) {
		t.Fatalf("expected frames at %v, got %v", want, h.channel.sentAt)
	}
	frame := h.channel.frames[0]
	if frame.SessionID != "sess-1" || !strings.HasPrefix(frame.Frame, "data:image/jpeg;base64,") || frame.Timestamp == "" {
		t.Fatalf("unexpected frame event %+v", frame)
	}
	if h.api.created.MusicChoice != "lofi" || h.api.created.Duration != 25 || h.api.created.UserID != "user123" {
		t.Fatalf("unexpected create input %+v", h.api.created)
	}
}

func TestFrameCadenceIgnoresCaptureTime(t *testing.T) {
	t.Parallel()
	h := newHarness(t)
	var starts []time.Duration
	h.stream.onFrame = func(context.Context) {
		starts = append(starts, h.sched.Now())
		// each capture takes a full second of virtual time
		h.sched.Advance(time.Second)
	}
	h.begin(t, "25")
	h.sched.Advance(9 * time.Second)

	want := []time.Duration{2 * time.Second, 5 * time.Second, 8 * time.Second}
	if !slices.Equal(starts, want) {
		t.Fatalf("expected captures to start at %v, got %v", want, starts)
	}
	if h.channel.frameCount() != 3 {
		t.Fatalf("expected 3 frames, got %d", h.channel.frameCount())
	}
}

func TestTeardownCancelsRunningCapture(t *testing.T) {
	t.Parallel()
	h := newHarness(t)
	started := make(chan struct{})
	aborted := make(chan error, 1)
	h.stream.onFrame = func(ctx context.Context) {
		close(started)
		<-ctx.Done()
		aborted <- ctx.Err()
	}
	h.begin(t, "25")

	advanced := make(chan struct{})
	go func() {
		h.sched.Advance(2 * time.Second)
		close(advanced)
	}()
	<-started
	if err := h.ctrl.End(context.Background()); err != nil {
		t.Fatalf("end: %v", err)
	}
	select {
	case err := <-aborted:
		if !errors.Is(err, context.Canceled) {
			t.Fatalf("expected canceled capture, got %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("capture still running after teardown")
	}
	<-advanced
	if h.channel.frameCount() != 0 {
		t.Fatalf("aborted capture must not send a frame, got %d", h.channel.frameCount())
	}
}

func TestZeroSizeFramesAreSkipped(t *testing.T) {
	t.Parallel()
	h := newHarness(t)
	h.stream.img = image.NewRGBA(image.Rectangle{})
	h.begin(t, "25")
	h.sched.Advance(6 * time.Second)
	if h.channel.frameCount() != 0 {
		t.Fatalf("empty frames must not be sent")
	}
	h.stream.mu.Lock()
	h.stream.img = image.NewRGBA(image.Rect(0, 0, 2, 2))
	h.stream.mu.Unlock()
	h.sched.Advance(2 * time.Second)
	if h.channel.frameCount() != 1 {
		t.Fatalf("expected capture to continue after skipped frames, got %d", h.channel.frameCount())
	}
}

func TestOversizeFramesAreDropped(t *testing.T) {
	t.Parallel()
	h := newHarness(t)
	h.encoder.fail(errors.New("encode jpeg: 300000 bytes exceeds limit 262144"))
	h.begin(t, "25")

	h.sched.Advance(6 * time.Second)
	if h.channel.frameCount() != 0 {
		t.Fatalf("frames over the size bound must not be sent, got %d", h.channel.frameCount())
	}
	h.encoder.fail(nil)
	h.sched.Advance(3 * time.Second)
	if h.channel.frameCount() != 1 {
		t.Fatalf("capture loop should keep running after a dropped frame, got %d", h.channel.frameCount())
	}
	if got := h.ctrl.View().RemainingSeconds; got != 1500-9 {
		t.Fatalf("countdown should be unaffected, got %d", got)
	}
}

func TestCameraPermissionErrorDegrades(t *testing.T) {
	t.Parallel()
	h := newHarness(t)
	h.camera.err = apperrors.ErrCameraUnavailable
	h.begin(t, "25")
	h.sched.Advance(10 * time.Second)

	alerts, _, _ := h.host.snapshot()
	if len(alerts) != 1 || !strings.Contains(alerts[0], "camera") {
		t.Fatalf("expected camera alert, got %v", alerts)
	}
	view := h.ctrl.View()
	if view.CameraActive || view.Phase != "active" || view.RemainingSeconds != 1490 {
		t.Fatalf("session must continue without camera, got %+v", view)
	}
	if h.channel.frameCount() != 0 {
		t.Fatalf("no frames expected without camera")
	}
}

func TestCreateFailureDisablesRemoteCalls(t *testing.T) {
	t.Parallel()
	h := newHarness(t)
	h.api.createErr = apperrors.ErrRemote
	h.begin(t, "25")
	h.sched.Advance(10 * time.Second)
	if err := h.ctrl.TogglePause(context.Background()); err != nil {
		t.Fatalf("pause: %v", err)
	}
	if err := h.ctrl.End(context.Background()); err != nil {
		t.Fatalf("end: %v", err)
	}
	if calls := h.api.Calls(); !slices.Equal(calls, []string{"create"}) {
		t.Fatalf("expected only the failed create, got %v", calls)
	}
	if h.channel.frameCount() != 0 {
		t.Fatalf("frames require a remote session")
	}
	if h.stream.releases() != 1 {
		t.Fatalf("camera must still be released")
	}
}

func TestHelpMidSession(t *testing.T) {
	t.Parallel()
	h := newHarness(t)
	h.begin(t, "25")
	h.sched.Advance(5 * time.Second)

	if err := h.ctrl.RequestHelp(context.Background()); err != nil {
		t.Fatalf("help: %v", err)
	}
	view := h.ctrl.View()
	if !view.Paused || view.Phase != "ended" || view.CameraActive {
		t.Fatalf("unexpected view after help %+v", view)
	}
	want := []string{"create", "pause:sess-1", "end:sess-1:false"}
	if calls := h.api.Calls(); !slices.Equal(calls, want) {
		t.Fatalf("expected %v, got %v", want, calls)
	}
	if h.stream.releases() != 1 {
		t.Fatalf("expected camera released")
	}
	if len(h.channel.help) != 1 || h.channel.help[0].SessionID != "sess-1" {
		t.Fatalf("expected one help request, got %+v", h.channel.help)
	}
	_, back, notes := h.host.snapshot()
	if notes != 1 || back != 0 {
		t.Fatalf("expected NavigateToNotes only, got back=%d notes=%d", back, notes)
	}
	runs, _ := h.journal.List(context.Background(), 10)
	if len(runs) != 1 || runs[0].Outcome != domain.OutcomeHelp || runs[0].FramesSent != 2 {
		t.Fatalf("unexpected run %+v", runs)
	}
}

func TestHelpWhilePausedSkipsSecondPause(t *testing.T) {
	t.Parallel()
	h := newHarness(t)
	h.begin(t, "25")
	if err := h.ctrl.TogglePause(context.Background()); err != nil {
		t.Fatalf("pause: %v", err)
	}
	if err := h.ctrl.RequestHelp(context.Background()); err != nil {
		t.Fatalf("help: %v", err)
	}
	if n := h.api.count("pause:sess-1"); n != 1 {
		t.Fatalf("expected a single pause call, got %v", h.api.Calls())
	}
}

func TestSuggestionExpiresUnlessSuperseded(t *testing.T) {
	t.Parallel()
	h := newHarness(t)
	h.begin(t, "25")
	first, second := "Sit up straight", "Take a breath"
	level := 0.4

	h.channel.emit(dto.AnalysisEvent{Suggestion: &first, DistractionLevel: &level})
	view := h.ctrl.View()
	if view.Suggestion != first || view.FocusPercent != 60 || view.Emotion != "neutral" {
		t.Fatalf("unexpected view %+v", view)
	}
	h.sched.Advance(5 * time.Second)
	h.channel.emit(dto.AnalysisEvent{Suggestion: &second})
	if view := h.ctrl.View(); view.Suggestion != second || view.DistractionLevel != 0 {
		t.Fatalf("expected superseding suggestion and reset analysis, got %+v", view)
	}
	h.sched.Advance(5 * time.Second)
	if got := h.ctrl.View().Suggestion; got != second {
		t.Fatalf("first expiry must not clear the newer suggestion, got %q", got)
	}
	h.sched.Advance(5 * time.Second)
	if got := h.ctrl.View().Suggestion; got != "" {
		t.Fatalf("expected suggestion expired at t+10s, got %q", got)
	}
}

func TestDismissSuggestion(t *testing.T) {
	t.Parallel()
	h := newHarness(t)
	h.begin(t, "25")
	text := "Look away from the screen"
	h.channel.emit(dto.AnalysisEvent{Suggestion: &text})
	h.ctrl.DismissSuggestion()
	if got := h.ctrl.View().Suggestion; got != "" {
		t.Fatalf("expected dismissed suggestion, got %q", got)
	}
	h.sched.Advance(11 * time.Second)
	if h.ctrl.View().Suggestion != "" {
		t.Fatalf("dismissed suggestion reappeared")
	}
}

func TestLateCameraIsReleased(t *testing.T) {
	t.Parallel()
	h := newHarness(t)
	h.camera.gate = make(chan struct{})
	h.camera.started = make(chan struct{})
	h.configure(t, "25", "none")

	done := make(chan error, 1)
	go func() { done <- h.ctrl.Begin(context.Background()) }()
	<-h.camera.started
	if err := h.ctrl.End(context.Background()); err != nil {
		t.Fatalf("end: %v", err)
	}
	close(h.camera.gate)
	if err := <-done; err != nil {
		t.Fatalf("begin: %v", err)
	}
	if h.stream.releases() != 1 {
		t.Fatalf("late camera must be released, got %d", h.stream.releases())
	}
	if h.ctrl.View().CameraActive {
		t.Fatalf("late camera must not mark the session active")
	}
}

func TestLateRemoteSessionIsEnded(t *testing.T) {
	t.Parallel()
	h := newHarness(t)
	h.api.gate = make(chan struct{})
	h.api.started = make(chan struct{})
	h.configure(t, "25", "classical")

	done := make(chan error, 1)
	go func() { done <- h.ctrl.Begin(context.Background()) }()
	<-h.api.started
	if err := h.ctrl.End(context.Background()); err != nil {
		t.Fatalf("end: %v", err)
	}
	close(h.api.gate)
	if err := <-done; err != nil {
		t.Fatalf("begin: %v", err)
	}
	if calls := h.api.Calls(); !slices.Equal(calls, []string{"create", "end:sess-1:false"}) {
		t.Fatalf("late session must be ended once, got %v", calls)
	}
	if h.ctrl.View().RemoteSessionID != "" {
		t.Fatalf("late session id must not be adopted")
	}
}

func TestResetStartsFreshDraft(t *testing.T) {
	t.Parallel()
	h := newHarness(t)
	if err := h.ctrl.Reset(); !errors.Is(err, apperrors.ErrIllegalTransition) {
		t.Fatalf("reset from setup must be illegal, got %v", err)
	}
	h.begin(t, "60")
	if err := h.ctrl.End(context.Background()); err != nil {
		t.Fatalf("end: %v", err)
	}
	if err := h.ctrl.Reset(); err != nil {
		t.Fatalf("reset: %v", err)
	}
	view := h.ctrl.View()
	if view.Phase != "setup" || view.Config.Subject != "" || view.Config.DurationMinutes != 25 || view.LastRun != nil {
		t.Fatalf("expected fresh draft, got %+v", view)
	}
}
