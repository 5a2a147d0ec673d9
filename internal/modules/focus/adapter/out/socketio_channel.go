package out

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"focusmate/internal/modules/focus/dto"
	focusout "focusmate/internal/modules/focus/port/out"
	apperrors "focusmate/internal/platform/errors"
)

const (
	EventVideoFrame         = "video_frame"
	EventRequestHelp        = "request_help"
	EventAnalysisResult     = "analysis_result"
	EventAnalysisError      = "analysis_error"
	EventHelpResponse       = "help_response"
	EventConnectionResponse = "connection_response"

	writeTimeout     = 5 * time.Second
	handshakeTimeout = 10 * time.Second
)

// Engine.IO v4 packet types.
const (
	eioOpen    = '0'
	eioClose   = '1'
	eioPing    = '2'
	eioPong    = '3'
	eioMessage = '4'
)

// Socket.IO v5 packet types, carried inside Engine.IO messages.
const (
	sioConnect      = '0'
	sioDisconnect   = '1'
	sioEvent        = '2'
	sioConnectError = '4'
)

// openPacket is the Engine.IO handshake sent by the server.
type openPacket struct {
	SID          string `json:"sid"`
	PingInterval int    `json:"pingInterval"`
	PingTimeout  int    `json:"pingTimeout"`
}

// SocketIOChannel speaks Socket.IO on the default namespace over the
// Engine.IO websocket transport. Writes are serialized; a single goroutine
// reads and answers pings.
type SocketIOChannel struct {
	endpoint string
	dialErr  error
	dialer   *websocket.Dialer
	log      *slog.Logger

	writeMu sync.Mutex
	mu      sync.Mutex
	conn    *websocket.Conn
	done    chan struct{}
}

// NewSocketIOChannel targets serverURL. A URL without a path uses the
// default /socket.io/ endpoint.
func NewSocketIOChannel(serverURL string, logger *slog.Logger) *SocketIOChannel {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	endpoint, err := socketIOEndpoint(serverURL)
	return &SocketIOChannel{
		endpoint: endpoint,
		dialErr:  err,
		dialer:   &websocket.Dialer{HandshakeTimeout: handshakeTimeout},
		log:      logger.With("component", "realtime"),
	}
}

var _ focusout.Channel = (*SocketIOChannel)(nil)

func socketIOEndpoint(raw string) (string, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return "", fmt.Errorf("parse realtime url: %w", err)
	}
	switch u.Scheme {
	case "http":
		u.Scheme = "ws"
	case "https":
		u.Scheme = "wss"
	}
	if u.Path == "" || u.Path == "/" {
		u.Path = "/socket.io/"
	}
	q := u.Query()
	q.Set("EIO", "4")
	q.Set("transport", "websocket")
	u.RawQuery = q.Encode()
	return u.String(), nil
}

// Connect dials the server, completes the Engine.IO open and the namespace
// connect, then starts the read loop. Events that arrive during the
// handshake are delivered once the loop runs.
func (c *SocketIOChannel) Connect(ctx context.Context, handlers focusout.ChannelHandlers) error {
	if c.dialErr != nil {
		return fmt.Errorf("%w: %v", apperrors.ErrRemote, c.dialErr)
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.conn != nil {
		return nil
	}
	conn, _, err := c.dialer.DialContext(ctx, c.endpoint, nil)
	if err != nil {
		return fmt.Errorf("%w: dial %s: %v", apperrors.ErrRemote, c.endpoint, err)
	}
	open, pending, err := c.handshake(ctx, conn)
	if err != nil {
		_ = conn.Close()
		return fmt.Errorf("%w: socket.io handshake: %v", apperrors.ErrRemote, err)
	}
	c.log.Debug("realtime connected", "sid", open.SID)

	idle := time.Duration(open.PingInterval+open.PingTimeout) * time.Millisecond
	c.conn = conn
	c.done = make(chan struct{})
	go c.readLoop(conn, c.done, idle, pending, handlers)
	return nil
}

func (c *SocketIOChannel) handshake(ctx context.Context, conn *websocket.Conn) (openPacket, [][]byte, error) {
	deadline := time.Now().Add(handshakeTimeout)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}
	_ = conn.SetReadDeadline(deadline)
	defer func() { _ = conn.SetReadDeadline(time.Time{}) }()

	var open openPacket
	_, msg, err := conn.ReadMessage()
	if err != nil {
		return open, nil, fmt.Errorf("read open packet: %w", err)
	}
	if len(msg) == 0 || msg[0] != eioOpen {
		return open, nil, fmt.Errorf("unexpected first packet %q", msg)
	}
	if err := json.Unmarshal(msg[1:], &open); err != nil {
		return open, nil, fmt.Errorf("decode open packet: %w", err)
	}
	if err := c.write(ctx, conn, []byte{eioMessage, sioConnect}); err != nil {
		return open, nil, err
	}

	var pending [][]byte
	for {
		_, msg, err := conn.ReadMessage()
		if err != nil {
			return open, nil, fmt.Errorf("await namespace connect: %w", err)
		}
		switch {
		case len(msg) == 1 && msg[0] == eioPing:
			if err := c.write(ctx, conn, []byte{eioPong}); err != nil {
				return open, nil, err
			}
		case len(msg) >= 2 && msg[0] == eioMessage && msg[1] == sioConnect:
			return open, pending, nil
		case len(msg) >= 2 && msg[0] == eioMessage && msg[1] == sioConnectError:
			return open, nil, fmt.Errorf("namespace refused: %s", msg[2:])
		case len(msg) >= 2 && msg[0] == eioMessage && msg[1] == sioEvent:
			pending = append(pending, msg)
		}
	}
}

func (c *SocketIOChannel) readLoop(conn *websocket.Conn, done chan struct{}, idle time.Duration, pending [][]byte, handlers focusout.ChannelHandlers) {
	defer close(done)
	for _, msg := range pending {
		c.handleEvent(msg[2:], handlers)
	}
	for {
		if idle > 0 {
			_ = conn.SetReadDeadline(time.Now().Add(idle))
		}
		_, msg, err := conn.ReadMessage()
		if err != nil {
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure) && !errors.Is(err, websocket.ErrCloseSent) {
				c.log.Debug("read loop stopped", "error", err)
			}
			return
		}
		if len(msg) == 0 {
			continue
		}
		switch msg[0] {
		case eioPing:
			if err := c.write(context.Background(), conn, []byte{eioPong}); err != nil {
				c.log.Debug("answer ping", "error", err)
				return
			}
		case eioClose:
			return
		case eioMessage:
			if len(msg) < 2 {
				continue
			}
			switch msg[1] {
			case sioEvent:
				c.handleEvent(msg[2:], handlers)
			case sioDisconnect:
				c.log.Info("realtime namespace disconnected by server")
				return
			}
		}
	}
}

func (c *SocketIOChannel) handleEvent(body []byte, handlers focusout.ChannelHandlers) {
	name, data, err := decodeEvent(body)
	if err != nil {
		c.log.Warn("decode event packet", "error", err)
		return
	}
	if err := dispatch(name, data, handlers); err != nil {
		c.log.Warn("decode event", "event", name, "error", err)
	}
}

// decodeEvent parses the body of an event packet: an optional namespace,
// an optional ack id, then a JSON array of name and arguments.
func decodeEvent(body []byte) (string, json.RawMessage, error) {
	if len(body) > 0 && body[0] == '/' {
		i := bytes.IndexByte(body, ',')
		if i < 0 {
			return "", nil, fmt.Errorf("namespace without payload")
		}
		body = body[i+1:]
	}
	body = bytes.TrimLeft(body, "0123456789")

	var args []json.RawMessage
	if err := json.Unmarshal(body, &args); err != nil {
		return "", nil, err
	}
	if len(args) == 0 {
		return "", nil, fmt.Errorf("empty event")
	}
	var name string
	if err := json.Unmarshal(args[0], &name); err != nil {
		return "", nil, fmt.Errorf("event name: %w", err)
	}
	if len(args) == 1 {
		return name, nil, nil
	}
	return name, args[1], nil
}

func encodeEvent(name string, data any) ([]byte, error) {
	payload, err := json.Marshal([]any{name, data})
	if err != nil {
		return nil, err
	}
	return append([]byte{eioMessage, sioEvent}, payload...), nil
}

func dispatch(name string, data json.RawMessage, handlers focusout.ChannelHandlers) error {
	switch name {
	case EventAnalysisResult:
		return deliver(data, handlers.OnAnalysis)
	case EventAnalysisError:
		return deliver(data, handlers.OnError)
	case EventHelpResponse:
		return deliver(data, handlers.OnHelpResponse)
	case EventConnectionResponse:
		return deliver(data, handlers.OnConnection)
	default:
		return nil
	}
}

func deliver[T any](data json.RawMessage, fn func(T)) error {
	if fn == nil {
		return nil
	}
	var event T
	if len(data) > 0 && !bytes.Equal(data, []byte("null")) {
		if err := json.Unmarshal(data, &event); err != nil {
			return err
		}
	}
	fn(event)
	return nil
}

func (c *SocketIOChannel) SendFrame(ctx context.Context, event dto.FrameEvent) error {
	return c.emit(ctx, EventVideoFrame, event)
}

func (c *SocketIOChannel) RequestHelp(ctx context.Context, event dto.HelpRequestEvent) error {
	return c.emit(ctx, EventRequestHelp, event)
}

func (c *SocketIOChannel) emit(ctx context.Context, name string, data any) error {
	packet, err := encodeEvent(name, data)
	if err != nil {
		return fmt.Errorf("marshal %s: %w", name, err)
	}
	c.mu.Lock()
	conn := c.conn
	c.mu.Unlock()
	if conn == nil {
		return fmt.Errorf("%w: channel is not connected", apperrors.ErrRemote)
	}
	if err := c.write(ctx, conn, packet); err != nil {
		return fmt.Errorf("%w: write %s: %v", apperrors.ErrRemote, name, err)
	}
	return nil
}

func (c *SocketIOChannel) write(ctx context.Context, conn *websocket.Conn, packet []byte) error {
	deadline := time.Now().Add(writeTimeout)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	_ = conn.SetWriteDeadline(deadline)
	if err := conn.WriteMessage(websocket.TextMessage, packet); err != nil {
		return fmt.Errorf("write packet: %w", err)
	}
	return nil
}

// Close leaves the namespace, sends a close frame and waits for the read
// loop to exit.
func (c *SocketIOChannel) Close() error {
	c.mu.Lock()
	conn, done := c.conn, c.done
	c.conn, c.done = nil, nil
	c.mu.Unlock()
	if conn == nil {
		return nil
	}

	_ = c.write(context.Background(), conn, []byte{eioMessage, sioDisconnect})
	c.writeMu.Lock()
	msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
	_ = conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(time.Second))
	c.writeMu.Unlock()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
	}
	if err := conn.Close(); err != nil && !errors.Is(err, websocket.ErrCloseSent) {
		return fmt.Errorf("close websocket: %w", err)
	}
	return nil
}
