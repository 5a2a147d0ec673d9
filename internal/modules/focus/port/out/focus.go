package out

import (
	"context"
	"image"

	"focusmate/internal/modules/focus/domain"
	"focusmate/internal/modules/focus/dto"
)

type SessionAPI interface {
	Create(ctx context.Context, input dto.CreateSessionInput) (dto.CreateSessionOutput, error)
	Pause(ctx context.Context, sessionID string) error
	Resume(ctx context.Context, sessionID string) error
	End(ctx context.Context, sessionID string, completed bool) error
	Health(ctx context.Context) (dto.HealthOutput, error)
}

// ChannelHandlers receive inbound events. Nil handlers are skipped.
type ChannelHandlers struct {
	OnAnalysis     func(dto.AnalysisEvent)
	OnError        func(dto.ErrorEvent)
	OnHelpResponse func(dto.HelpResponseEvent)
	OnConnection   func(dto.ConnectionEvent)
}

type Channel interface {
	Connect(ctx context.Context, handlers ChannelHandlers) error
	SendFrame(ctx context.Context, event dto.FrameEvent) error
	RequestHelp(ctx context.Context, event dto.HelpRequestEvent) error
	Close() error
}

type Camera interface {
	Acquire(ctx context.Context, constraints dto.CameraConstraints) (Stream, error)
}

type Stream interface {
	// Frame returns the current frame, or nil when none is ready yet.
	Frame(ctx context.Context) (image.Image, error)
	Release() error
}

type FrameEncoder interface {
	// Encode returns a data URL for img.
	Encode(img image.Image) (string, error)
}

type Journal interface {
	Save(ctx context.Context, run domain.Run) error
	List(ctx context.Context, limit int) ([]domain.Run, error)
}
