package ws

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/leapstack-labs/dbbridge/pkg/protocol"
)

const writeWait = 10 * time.Second

// session is one websocket client. It owns a protocol connection of its
// own and processes frames in arrival order.
type session struct {
	id     string
	conn   *websocket.Conn
	router *protocol.Router
	logger *slog.Logger

	readLimit  int64
	pingPeriod time.Duration
}

func newSession(conn *websocket.Conn, logger *slog.Logger, readLimit int64, pingPeriod time.Duration) *session {
	id := uuid.NewString()
	return &session{
		id:         id,
		conn:       conn,
		router:     protocol.NewRouter(),
		logger:     logger.With("session", id),
		readLimit:  readLimit,
		pingPeriod: pingPeriod,
	}
}

// pongWait is how long the session waits for any frame or pong.
func (s *session) pongWait() time.Duration {
	return s.pingPeriod * 10 / 9
}

// run reads frames until the client goes away or ctx ends.
func (s *session) run(ctx context.Context) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	if s.readLimit > 0 {
		s.conn.SetReadLimit(s.readLimit)
	}
	if s.pingPeriod > 0 {
		_ = s.conn.SetReadDeadline(time.Now().Add(s.pongWait()))
		s.conn.SetPongHandler(func(string) error {
			return s.conn.SetReadDeadline(time.Now().Add(s.pongWait()))
		})
		go s.keepalive(ctx)
	}

	go func() {
		<-ctx.Done()
		_ = s.conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseGoingAway, ""), time.Now().Add(writeWait))
		_ = s.conn.Close()
	}()

	for {
		_, data, err := s.conn.ReadMessage()
		if err != nil {
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) &&
				!errors.Is(err, websocket.ErrCloseSent) && ctx.Err() == nil {
				s.logger.Debug("websocket read ended", "error", err)
			}
			return
		}
		if s.pingPeriod > 0 {
			_ = s.conn.SetReadDeadline(time.Now().Add(s.pongWait()))
		}
		if err := s.handle(ctx, data); err != nil {
			s.logger.Debug("websocket write failed", "error", err)
			return
		}
	}
}

func (s *session) handle(ctx context.Context, data []byte) error {
	var req Request
	if err := json.Unmarshal(data, &req); err != nil || req.Method == "" {
		return s.write(Response{ID: req.ID, Error: protocol.NewInvalidRequestError()})
	}

	start := time.Now()
	res, err := s.router.Call(ctx, req.Method, req.Params)
	if err != nil {
		s.logger.Error("command failed", "method", req.Method, "error", err)
	} else {
		s.logger.Debug("command handled", "method", req.Method, "duration", time.Since(start))
	}
	return s.write(newResponse(req.ID, res, err))
}

func (s *session) write(resp Response) error {
	_ = s.conn.SetWriteDeadline(time.Now().Add(writeWait))
	return s.conn.WriteJSON(resp)
}

// keepalive pings the client every pingPeriod.
func (s *session) keepalive(ctx context.Context) {
	ticker := time.NewTicker(s.pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := s.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				return
			}
		}
	}
}
