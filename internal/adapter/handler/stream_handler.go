package handler

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"time"

	"github.com/johnquangdev/meeting-scribe/internal/domain/entities"
	"github.com/johnquangdev/meeting-scribe/internal/usecase/stream"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

const (
	wsWriteTimeout = 10 * time.Second
	wsPongTimeout  = 60 * time.Second
	wsPingInterval = 30 * time.Second
)

// Inbound control message. Audio may arrive either as binary frames or
// as base64 inside an "audio_chunk" message.
type streamCommand struct {
	Type      string    `json:"type"`
	MeetingID string    `json:"meeting_id,omitempty"`
	Title     string    `json:"title,omitempty"`
	Data      string    `json:"data,omitempty"`
	Timestamp time.Time `json:"timestamp,omitempty"`
}

// Outbound frame written to the websocket.
type streamEvent struct {
	Event   string      `json:"event"`
	Payload interface{} `json:"payload,omitempty"`
}

// StreamHandler owns the websocket ingestion endpoint. One connection
// drives at most one live session.
type StreamHandler struct {
	registry *stream.Registry
	broker   *stream.Broker
	upgrader websocket.Upgrader
	logger   *zap.Logger
}

func NewStreamHandler(registry *stream.Registry, broker *stream.Broker, logger *zap.Logger) *StreamHandler {
	return &StreamHandler{
		registry: registry,
		broker:   broker,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  64 * 1024,
			WriteBufferSize: 16 * 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
		logger: logger,
	}
}

// Handle upgrades the connection and runs the session protocol until the
// client disconnects or stops the session.
func (h *StreamHandler) Handle(c echo.Context) error {
	conn, err := h.upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		if h.logger != nil {
			h.logger.Warn("⚠️ WebSocket upgrade failed", zap.Error(err))
		}
		return nil
	}

	connectionID := uuid.New().String()
	if h.logger != nil {
		h.logger.Info("🔌 WebSocket connected", zap.String("connection_id", connectionID))
	}

	session := newWSSession(h, conn, connectionID)
	session.run(c.Request().Context())
	return nil
}

// wsSession is the per-connection state. outbound is the single writer
// channel; gorilla connections allow only one concurrent writer.
type wsSession struct {
	h            *StreamHandler
	conn         *websocket.Conn
	connectionID string
	sessionID    uuid.UUID
	started      bool
	stopped      bool
	outbound     chan streamEvent
	unsubscribe  func()
	done         chan struct{}
}

func newWSSession(h *StreamHandler, conn *websocket.Conn, connectionID string) *wsSession {
	return &wsSession{
		h:            h,
		conn:         conn,
		connectionID: connectionID,
		outbound:     make(chan streamEvent, 64),
		done:         make(chan struct{}),
	}
}

func (s *wsSession) run(ctx context.Context) {
	go s.writeLoop()
	s.readLoop(ctx)

	close(s.done)
	if s.unsubscribe != nil {
		s.unsubscribe()
	}
	_ = s.conn.Close()

	// Connection gone without an explicit stop: keep the session alive
	// for the sweeper to reclaim instead of discarding buffered audio.
	if s.started && !s.stopped {
		s.h.registry.Disconnect(s.sessionID)
	}
}

func (s *wsSession) readLoop(ctx context.Context) {
	s.conn.SetReadDeadline(time.Now().Add(wsPongTimeout))
	s.conn.SetPongHandler(func(string) error {
		return s.conn.SetReadDeadline(time.Now().Add(wsPongTimeout))
	})

	for {
		msgType, data, err := s.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				if s.h.logger != nil {
					s.h.logger.Warn("⚠️ WebSocket read error",
						zap.String("connection_id", s.connectionID),
						zap.Error(err))
				}
			}
			return
		}
		s.conn.SetReadDeadline(time.Now().Add(wsPongTimeout))

		switch msgType {
		case websocket.BinaryMessage:
			s.handleAudio(ctx, data, time.Now(), false)
		case websocket.TextMessage:
			if done := s.handleCommand(ctx, data); done {
				return
			}
		}
	}
}

// handleCommand returns true when the connection should close.
func (s *wsSession) handleCommand(ctx context.Context, data []byte) bool {
	var cmd streamCommand
	if err := json.Unmarshal(data, &cmd); err != nil {
		s.sendError("invalid_message", "malformed command")
		return false
	}

	switch cmd.Type {
	case "start":
		s.handleStart(ctx, cmd)
	case "audio_chunk":
		audio, err := base64.StdEncoding.DecodeString(cmd.Data)
		if err != nil {
			s.sendError("invalid_message", "audio data is not valid base64")
			return false
		}
		ts := cmd.Timestamp
		if ts.IsZero() {
			ts = time.Now()
		}
		s.handleAudio(ctx, audio, ts, false)
	case "flush":
		s.handleAudio(ctx, nil, time.Now(), true)
	case "stop":
		s.handleStop(ctx)
	case "status":
		s.handleStatus()
	default:
		s.sendError("invalid_message", "unknown command type: "+cmd.Type)
	}
	return false
}

func (s *wsSession) handleStart(ctx context.Context, cmd streamCommand) {
	if s.started {
		s.sendError("session_exists", "session already started on this connection")
		return
	}

	meetingID := uuid.New()
	if cmd.MeetingID != "" {
		parsed, err := uuid.Parse(cmd.MeetingID)
		if err != nil {
			s.sendError("invalid_message", "meeting_id is not a valid UUID")
			return
		}
		meetingID = parsed
	}

	session, err := s.h.registry.Start(ctx, s.connectionID, meetingID, cmd.Title)
	if err != nil {
		s.sendError("session_start_failed", err.Error())
		return
	}

	s.sessionID = session.ID
	s.started = true
	if s.h.broker != nil {
		ch, cancel := s.h.broker.Subscribe(session.ID)
		s.unsubscribe = cancel
		go s.forwardEvents(ch)
	}

	s.send(streamEvent{Event: "session_started", Payload: map[string]interface{}{
		"session_id":   session.ID,
		"meeting_id":   session.MeetingID,
		"chunk_window": s.h.registry.ChunkWindow().Seconds(),
	}})
}

func (s *wsSession) handleAudio(ctx context.Context, data []byte, ts time.Time, forced bool) {
	if !s.started {
		s.sendError("no_session", "send start before audio")
		return
	}
	if err := s.h.registry.Append(ctx, s.sessionID, data, ts, forced); err != nil {
		if stream.IsNotFound(err) {
			s.sendError("session_not_found", "session no longer exists")
			return
		}
		s.sendError("append_failed", err.Error())
	}
}

func (s *wsSession) handleStop(ctx context.Context) {
	if !s.started {
		s.sendError("no_session", "no session to stop")
		return
	}
	if err := s.h.registry.Stop(ctx, s.sessionID); err != nil {
		s.sendError("stop_failed", err.Error())
		return
	}
	s.stopped = true
	s.send(streamEvent{Event: "session_stopping", Payload: map[string]interface{}{
		"session_id": s.sessionID,
	}})
}

func (s *wsSession) handleStatus() {
	if !s.started {
		s.sendError("no_session", "no session on this connection")
		return
	}
	snapshot, err := s.h.registry.Status(s.sessionID)
	if err != nil {
		s.sendError("status_failed", err.Error())
		return
	}
	s.send(streamEvent{Event: "status", Payload: snapshot})
}

func (s *wsSession) forwardEvents(ch <-chan stream.Event) {
	for {
		select {
		case ev, ok := <-ch:
			if !ok {
				return
			}
			s.send(streamEvent{Event: ev.Event, Payload: ev.Payload})
		case <-s.done:
			return
		}
	}
}

func (s *wsSession) send(ev streamEvent) {
	select {
	case s.outbound <- ev:
	case <-s.done:
	default:
		if s.h.logger != nil {
			s.h.logger.Warn("⚠️ Outbound buffer full, dropping event",
				zap.String("connection_id", s.connectionID),
				zap.String("event", ev.Event))
		}
	}
}

func (s *wsSession) sendError(kind, message string) {
	s.send(streamEvent{Event: entities.EventError, Payload: map[string]string{
		"kind":    kind,
		"message": message,
	}})
}

func (s *wsSession) writeLoop() {
	ticker := time.NewTicker(wsPingInterval)
	defer ticker.Stop()

	for {
		select {
		case ev := <-s.outbound:
			s.conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout))
			if err := s.conn.WriteJSON(ev); err != nil {
				return
			}
		case <-ticker.C:
			s.conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout))
			if err := s.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-s.done:
			return
		}
	}
}
