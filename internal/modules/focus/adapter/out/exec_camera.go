package out

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"os"
	"os/exec"
	"strconv"
	"strings"
	"sync"

	"focusmate/internal/modules/focus/dto"
	focusout "focusmate/internal/modules/focus/port/out"
	apperrors "focusmate/internal/platform/errors"
)

// DefaultCameraCommand grabs a single MJPEG frame from a V4L2 device.
var DefaultCameraCommand = []string{
	"ffmpeg", "-loglevel", "error",
	"-f", "v4l2", "-video_size", "{width}x{height}", "-i", "{device}",
	"-frames:v", "1", "-f", "image2pipe", "-vcodec", "mjpeg", "-",
}

var errStreamReleased = errors.New("camera stream released")

// ExecCamera captures frames by running an external command that writes one
// JPEG or PNG image to stdout per invocation.
type ExecCamera struct {
	command []string
}

func NewExecCamera(command []string) focusout.Camera {
	if len(command) == 0 {
		command = DefaultCameraCommand
	}
	return &ExecCamera{command: command}
}

func (c *ExecCamera) Acquire(_ context.Context, constraints dto.CameraConstraints) (focusout.Stream, error) {
	if constraints.Device != "" {
		f, err := os.OpenFile(constraints.Device, os.O_RDONLY, 0)
		if err != nil {
			return nil, fmt.Errorf("%w: open %s: %v", apperrors.ErrCameraUnavailable, constraints.Device, err)
		}
		_ = f.Close()
	}
	argv := expandCommand(c.command, constraints)
	if _, err := exec.LookPath(argv[0]); err != nil {
		return nil, fmt.Errorf("%w: capture command %q: %v", apperrors.ErrCameraUnavailable, argv[0], err)
	}
	return &execStream{argv: argv}, nil
}

func expandCommand(command []string, constraints dto.CameraConstraints) []string {
	r := strings.NewReplacer(
		"{device}", constraints.Device,
		"{width}", strconv.Itoa(constraints.Width),
		"{height}", strconv.Itoa(constraints.Height),
	)
	argv := make([]string, len(command))
	for i, arg := range command {
		argv[i] = r.Replace(arg)
	}
	return argv
}

type execStream struct {
	argv []string

	mu       sync.Mutex
	released bool
}

func (s *execStream) Frame(ctx context.Context) (image.Image, error) {
	s.mu.Lock()
	released := s.released
	s.mu.Unlock()
	if released {
		return nil, errStreamReleased
	}

	var stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, s.argv[0], s.argv[1:]...)
	cmd.Stderr = &stderr
	out, err := cmd.Output()
	if err != nil {
		return nil, fmt.Errorf("run capture command: %w: %s", err, strings.TrimSpace(stderr.String()))
	}
	if len(out) == 0 {
		return nil, nil
	}
	img, _, err := image.Decode(bytes.NewReader(out))
	if err != nil {
		return nil, fmt.Errorf("decode frame: %w", err)
	}
	return img, nil
}

func (s *execStream) Release() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.released = true
	return nil
}
