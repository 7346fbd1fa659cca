package voicecore

import (
	"context"
	"encoding/base64"
	"fmt"
	"net/url"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	"github.com/kithai-ai/voicecore/pkg/core"
	"github.com/kithai-ai/voicecore/pkg/core/types"
	liveproto "github.com/kithai-ai/voicecore/pkg/live/protocol"
)

const defaultConnectTimeout = 15 * time.Second

// Transport is the live gateway connection as the coordinator sees it.
type Transport interface {
	// Events yields decoded server events until the session ends.
	Events() <-chan types.TransportEvent

	// PushConfig applies a full session configuration, replacing any
	// previously pushed one.
	PushConfig(ctx context.Context, cfg *types.SessionConfig) error

	// SendToolResponse returns a tool invocation result.
	SendToolResponse(id, name string, response map[string]any, scheduling types.SchedulingMode) error

	// Close shuts the connection down and waits for the read loop.
	Close() error

	// Err blocks until the session ends and returns its terminal
	// error, if any.
	Err() error
}

// LiveSession is a websocket connection to the live voice gateway.
type LiveSession struct {
	conn *websocket.Conn

	events chan types.TransportEvent
	done   chan struct{}

	seq atomic.Int64

	writeMu   sync.Mutex
	closeOnce sync.Once
	closed    atomic.Bool

	errMu sync.Mutex
	err   error
}

// Dial opens a live session. The URL may use http(s) or ws(s) schemes.
func Dial(ctx context.Context, rawURL string, opts ...DialOption) (*LiveSession, error) {
	cfg := dialConfig{
		connectTimeout: defaultConnectTimeout,
		eventBuffer:    256,
	}
	for _, opt := range opts {
		opt(&cfg)
	}

	wsURL, err := websocketURL(rawURL)
	if err != nil {
		return nil, err
	}

	dialCtx := ctx
	var cancel context.CancelFunc
	if _, hasDeadline := ctx.Deadline(); !hasDeadline {
		dialCtx, cancel = context.WithTimeout(ctx, cfg.connectTimeout)
		defer cancel()
	}

	conn, resp, err := websocket.DefaultDialer.DialContext(dialCtx, wsURL, cfg.headers)
	if err != nil {
		if resp != nil {
			return nil, &TransportError{Op: "dial", URL: wsURL, Err: fmt.Errorf("websocket upgrade refused (status %d): %w", resp.StatusCode, err)}
		}
		return nil, &TransportError{Op: "dial", URL: wsURL, Err: err}
	}

	hello := liveproto.ClientHello{
		Type:            "hello",
		ProtocolVersion: liveproto.ProtocolVersion1,
		AudioIn: liveproto.AudioFormat{
			Encoding:     "pcm_s16le",
			SampleRateHz: liveproto.InputSampleRateHz,
			Channels:     1,
		},
		AudioOut: liveproto.AudioFormat{
			Encoding:     "pcm_s16le",
			SampleRateHz: liveproto.OutputSampleRateHz,
			Channels:     1,
		},
	}
	if err := conn.WriteJSON(hello); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("send hello: %w", err)
	}

	s := &LiveSession{
		conn:   conn,
		events: make(chan types.TransportEvent, cfg.eventBuffer),
		done:   make(chan struct{}),
	}
	go s.readLoop()
	return s, nil
}

// Events yields decoded server events.
func (s *LiveSession) Events() <-chan types.TransportEvent {
	if s == nil {
		return nil
	}
	return s.events
}

// PushConfig sends a configure frame carrying the full session config.
func (s *LiveSession) PushConfig(_ context.Context, cfg *types.SessionConfig) error {
	if cfg == nil {
		return fmt.Errorf("config must not be nil")
	}
	return s.sendJSON(liveproto.ClientConfigure{
		Type:   "configure",
		Config: liveproto.ConfigFromSession(cfg),
	})
}

// SendAudioFrame sends one block of input audio.
func (s *LiveSession) SendAudioFrame(pcm []byte) error {
	return s.sendJSON(liveproto.ClientAudioFrame{
		Type:    "audio_frame",
		Seq:     s.seq.Add(1),
		DataB64: base64.StdEncoding.EncodeToString(pcm),
	})
}

// SendToolResponse returns a tool invocation result to the gateway.
func (s *LiveSession) SendToolResponse(id, name string, response map[string]any, scheduling types.SchedulingMode) error {
	return s.sendJSON(liveproto.ClientToolResponse{
		Type:       "tool_response",
		ID:         strings.TrimSpace(id),
		Name:       name,
		Response:   response,
		Scheduling: string(scheduling),
	})
}

// Interrupt requests a turn interruption.
func (s *LiveSession) Interrupt() error {
	return s.sendJSON(liveproto.ClientControl{Type: "control", Op: "interrupt"})
}

// EndSession requests a graceful shutdown.
func (s *LiveSession) EndSession() error {
	return s.sendJSON(liveproto.ClientControl{Type: "control", Op: "end_session"})
}

func (s *LiveSession) sendJSON(v any) error {
	if s == nil {
		return fmt.Errorf("session must not be nil")
	}
	if s.closed.Load() {
		return fmt.Errorf("live session is closed")
	}
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	return s.conn.WriteJSON(v)
}

// Close closes the websocket session and waits for the read loop.
func (s *LiveSession) Close() error {
	if s == nil {
		return nil
	}
	s.closeOnce.Do(func() {
		s.closed.Store(true)
		s.writeMu.Lock()
		_ = s.conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(2*time.Second))
		s.writeMu.Unlock()
		_ = s.conn.Close()
	})
	<-s.done
	return nil
}

// Err returns the terminal session error (if any).
func (s *LiveSession) Err() error {
	if s == nil {
		return nil
	}
	<-s.done
	s.errMu.Lock()
	defer s.errMu.Unlock()
	return s.err
}

func (s *LiveSession) setErr(err error) {
	if err == nil {
		return
	}
	s.errMu.Lock()
	defer s.errMu.Unlock()
	if s.err == nil {
		s.err = err
	}
}

func (s *LiveSession) readLoop() {
	defer close(s.done)
	defer close(s.events)

	for {
		messageType, data, err := s.conn.ReadMessage()
		if err != nil {
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				return
			}
			s.setErr(err)
			return
		}
		if messageType != websocket.TextMessage {
			continue
		}

		frame, frameErr := liveproto.DecodeServerMessage(data)
		if frameErr != nil {
			s.setErr(frameErr)
			return
		}
		if frame == nil {
			continue
		}

		event := eventFromFrame(frame)
		if event == nil {
			continue
		}
		s.emit(event)
		if errEvent, ok := event.(types.SessionErrorEvent); ok {
			s.setErr(core.NewTransportError(strings.TrimSpace(errEvent.Message)))
		}
	}
}

func (s *LiveSession) emit(event types.TransportEvent) {
	select {
	case s.events <- event:
	default:
		// Avoid deadlocking the read loop if the consumer stalls.
	}
}

func eventFromFrame(frame any) types.TransportEvent {
	switch f := frame.(type) {
	case liveproto.ServerInputTranscription:
		return types.InputTranscriptionEvent{Text: f.Text, IsFinal: f.IsFinal}
	case liveproto.ServerOutputTranscription:
		return types.OutputTranscriptionEvent{Text: f.Text, IsFinal: f.IsFinal}
	case liveproto.ServerContent:
		return types.ContentEvent{Text: f.Text, Grounding: f.Grounding}
	case liveproto.ServerToolCall:
		return types.ToolCallEvent{ID: f.ID, Name: f.Name, Args: f.Args}
	case liveproto.ServerTurnComplete:
		return types.TurnCompleteEvent{}
	case liveproto.ServerError:
		return types.SessionErrorEvent{Message: f.Message, Code: f.Code}
	default:
		return nil
	}
}

func websocketURL(raw string) (string, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return "", core.NewValidationError("invalid gateway URL")
	}
	switch strings.ToLower(strings.TrimSpace(u.Scheme)) {
	case "http":
		u.Scheme = "ws"
	case "https":
		u.Scheme = "wss"
	case "ws", "wss":
		// already websocket scheme.
	default:
		return "", core.NewValidationError("gateway URL must use http(s) or ws(s)")
	}
	return u.String(), nil
}
