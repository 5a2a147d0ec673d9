package out

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"focusmate/internal/modules/focus/dto"
	focusout "focusmate/internal/modules/focus/port/out"
	apperrors "focusmate/internal/platform/errors"
)

const maxResponseBytes = 1 << 20

type HTTPSessionAPI struct {
	baseURL string
	client  *http.Client
}

func NewHTTPSessionAPI(baseURL string, timeout time.Duration) focusout.SessionAPI {
	return &HTTPSessionAPI{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: timeout},
	}
}

type lifecycleResponse struct {
	Success   bool   `json:"success"`
	SessionID string `json:"session_id"`
	Error     string `json:"error"`
}

type sessionRef struct {
	SessionID string `json:"session_id"`
}

type endRequest struct {
	SessionID string `json:"session_id"`
	Completed bool   `json:"completed"`
}

func (a *HTTPSessionAPI) Create(ctx context.Context, input dto.CreateSessionInput) (dto.CreateSessionOutput, error) {
	var resp lifecycleResponse
	if err := a.post(ctx, "/api/session/start", input, &resp); err != nil {
		return dto.CreateSessionOutput{}, fmt.Errorf("start session: %w", err)
	}
	if resp.SessionID == "" {
		return dto.CreateSessionOutput{}, fmt.Errorf("start session: %w: empty session id", apperrors.ErrRemote)
	}
	return dto.CreateSessionOutput{SessionID: resp.SessionID}, nil
}

func (a *HTTPSessionAPI) Pause(ctx context.Context, sessionID string) error {
	if err := a.post(ctx, "/api/session/pause", sessionRef{SessionID: sessionID}, &lifecycleResponse{}); err != nil {
		return fmt.Errorf("pause session: %w", err)
	}
	return nil
}

func (a *HTTPSessionAPI) Resume(ctx context.Context, sessionID string) error {
	if err := a.post(ctx, "/api/session/resume", sessionRef{SessionID: sessionID}, &lifecycleResponse{}); err != nil {
		return fmt.Errorf("resume session: %w", err)
	}
	return nil
}

func (a *HTTPSessionAPI) End(ctx context.Context, sessionID string, completed bool) error {
	if err := a.post(ctx, "/api/session/end", endRequest{SessionID: sessionID, Completed: completed}, &lifecycleResponse{}); err != nil {
		return fmt.Errorf("end session: %w", err)
	}
	return nil
}

func (a *HTTPSessionAPI) Health(ctx context.Context) (dto.HealthOutput, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, a.baseURL+"/api/health", nil)
	if err != nil {
		return dto.HealthOutput{}, fmt.Errorf("create health request: %w", err)
	}
	var out dto.HealthOutput
	if err := a.do(req, &out); err != nil {
		return dto.HealthOutput{}, fmt.Errorf("check health: %w", err)
	}
	return out, nil
}

// post sends body as JSON and decodes a lifecycle response. success=false
// is reported as ErrRemote with the server's message.
func (a *HTTPSessionAPI) post(ctx context.Context, path string, body any, out *lifecycleResponse) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if err := a.do(req, out); err != nil {
		return err
	}
	if !out.Success {
		msg := out.Error
		if msg == "" {
			msg = "request rejected"
		}
		return fmt.Errorf("%w: %s", apperrors.ErrRemote, msg)
	}
	return nil
}

func (a *HTTPSessionAPI) do(req *http.Request, out any) error {
	resp, err := a.client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", apperrors.ErrRemote, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return fmt.Errorf("%w: read response: %v", apperrors.ErrRemote, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("%w: status %d: %s", apperrors.ErrRemote, resp.StatusCode, strings.TrimSpace(string(body)))
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("%w: decode response: %v", apperrors.ErrRemote, err)
	}
	return nil
}
