package service_test

import (
	"context"
	"fmt"
	"image"
	"sync"
	"testing"
	"time"

	"focusmate/internal/modules/focus/domain"
	"focusmate/internal/modules/focus/dto"
	focusout "focusmate/internal/modules/focus/port/out"
	"focusmate/internal/modules/focus/service"
	"focusmate/internal/platform/clock"
	"focusmate/internal/platform/schedule"
)

type fakeAPI struct {
	mu        sync.Mutex
	calls     []string
	createErr error
	gate      chan struct{}
	started   chan struct{}
	created   dto.CreateSessionInput
}

func (f *fakeAPI) record(call string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, call)
}

func (f *fakeAPI) Create(_ context.Context, input dto.CreateSessionInput) (dto.CreateSessionOutput, error) {
	if f.started != nil {
		close(f.started)
	}
	if f.gate != nil {
		<-f.gate
	}
	f.mu.Lock()
	f.created = input
	f.mu.Unlock()
	f.record("create")
	if f.createErr != nil {
		return dto.CreateSessionOutput{}, f.createErr
	}
	return dto.CreateSessionOutput{SessionID: "sess-1"}, nil
}

func (f *fakeAPI) Pause(_ context.Context, id string) error {
	f.record("pause:" + id)
	return nil
}

func (f *fakeAPI) Resume(_ context.Context, id string) error {
	f.record("resume:" + id)
	return nil
}

func (f *fakeAPI) End(_ context.Context, id string, completed bool) error {
	f.record(fmt.Sprintf("end:%s:%t", id, completed))
	return nil
}

func (f *fakeAPI) Health(context.Context) (dto.HealthOutput, error) {
	return dto.HealthOutput{Status: "healthy"}, nil
}

func (f *fakeAPI) Calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

func (f *fakeAPI) count(call string) int {
	n := 0
	for _, c := range f.Calls() {
		if c == call {
			n++
		}
	}
	return n
}

type fakeChannel struct {
	mu       sync.Mutex
	now      func() time.Duration
	handlers focusout.ChannelHandlers
	frames   []dto.FrameEvent
	sentAt   []time.Duration
	help     []dto.HelpRequestEvent
	closed   int
}

func (f *fakeChannel) Connect(_ context.Context, handlers focusout.ChannelHandlers) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.handlers = handlers
	return nil
}

func (f *fakeChannel) SendFrame(_ context.Context, event dto.FrameEvent) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.frames = append(f.frames, event)
	if f.now != nil {
		f.sentAt = append(f.sentAt, f.now())
	}
	return nil
}

func (f *fakeChannel) RequestHelp(_ context.Context, event dto.HelpRequestEvent) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.help = append(f.help, event)
	return nil
}

func (f *fakeChannel) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed++
	return nil
}

func (f *fakeChannel) emit(event dto.AnalysisEvent) {
	f.mu.Lock()
	h := f.handlers.OnAnalysis
	f.mu.Unlock()
	h(event)
}

func (f *fakeChannel) frameCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.frames)
}

type fakeStream struct {
	mu       sync.Mutex
	img      image.Image
	released int
	// onFrame runs at the start of every Frame call, outside the lock.
	onFrame func(ctx context.Context)
}

func (s *fakeStream) Frame(ctx context.Context) (image.Image, error) {
	if s.onFrame != nil {
		s.onFrame(ctx)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.img, nil
}

func (s *fakeStream) Release() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.released++
	return nil
}

func (s *fakeStream) releases() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.released
}

type fakeCamera struct {
	stream  *fakeStream
	err     error
	gate    chan struct{}
	started chan struct{}
}

func (f *fakeCamera) Acquire(context.Context, dto.CameraConstraints) (focusout.Stream, error) {
	if f.started != nil {
		close(f.started)
	}
	if f.gate != nil {
		<-f.gate
	}
	if f.err != nil {
		return nil, f.err
	}
	return f.stream, nil
}

type fakeEncoder struct {
	mu  sync.Mutex
	err error
}

func (f *fakeEncoder) Encode(image.Image) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return "", f.err
	}
	return "data:image/jpeg;base64,AAAA", nil
}

func (f *fakeEncoder) fail(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.err = err
}

type fakeJournal struct {
	mu   sync.Mutex
	runs []domain.Run
}

func (f *fakeJournal) Save(_ context.Context, run domain.Run) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.runs = append(f.runs, run)
	return nil
}

func (f *fakeJournal) List(context.Context, int) ([]domain.Run, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]domain.Run(nil), f.runs...), nil
}

type fakeHost struct {
	mu      sync.Mutex
	alerts  []string
	back    int
	notes   int
	changes int
	last    dto.SessionView
}

func (h *fakeHost) Alert(message string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.alerts = append(h.alerts, message)
}

func (h *fakeHost) Back() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.back++
}

func (h *fakeHost) NavigateToNotes() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.notes++
}

func (h *fakeHost) Changed(view dto.SessionView) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.changes++
	h.last = view
}

func (h *fakeHost) snapshot() (alerts []string, back, notes int) {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]string(nil), h.alerts...), h.back, h.notes
}

type harness struct {
	sched   *schedule.Manual
	api     *fakeAPI
	channel *fakeChannel
	camera  *fakeCamera
	stream  *fakeStream
	encoder *fakeEncoder
	journal *fakeJournal
	host    *fakeHost
	ctrl    *service.Controller
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	sched := schedule.NewManual()
	stream := &fakeStream{img: image.NewRGBA(image.Rect(0, 0, 8, 6))}
	h := &harness{
		sched:   sched,
		api:     &fakeAPI{},
		channel: &fakeChannel{now: sched.Now},
		camera:  &fakeCamera{stream: stream},
		stream:  stream,
		encoder: &fakeEncoder{},
		journal: &fakeJournal{},
		host:    &fakeHost{},
	}
	h.ctrl = service.NewController(service.Deps{
		API:       h.api,
		Channel:   h.channel,
		Camera:    h.camera,
		Encoder:   h.encoder,
		Journal:   h.journal,
		Scheduler: sched,
		Clock:     clock.Fixed(time.Date(2026, 10, 18, 9, 0, 0, 0, time.UTC)),
	}, service.DefaultOptions())
	if err := h.ctrl.Mount(context.Background(), h.host); err != nil {
		t.Fatalf("mount: %v", err)
	}
	return h
}

// configure walks setup and music without beginning.
func (h *harness) configure(t *testing.T, duration, music string) {
	t.Helper()
	for field, value := range map[domain.Field]string{
		domain.FieldDuration:  duration,
		domain.FieldSubject:   "mathematics",
		domain.FieldStudyMode: "practice",
	} {
		if err := h.ctrl.SetField(field, value); err != nil {
			t.Fatalf("set %s: %v", field, err)
		}
	}
	if err := h.ctrl.Advance(); err != nil {
		t.Fatalf("advance: %v", err)
	}
	if err := h.ctrl.ChooseMusic(music); err != nil {
		t.Fatalf("choose music: %v", err)
	}
}

func (h *harness) begin(t *testing.T, duration string) {
	t.Helper()
	h.configure(t, duration, "lofi")
	if err := h.ctrl.Begin(context.Background()); err != nil {
		t.Fatalf("begin: %v", err)
	}
}
