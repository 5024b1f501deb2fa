package controller

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/goccy/go-json"
	"github.com/gorilla/websocket"
	"github.com/sharetube/watchparty/internal/metrics"
	"github.com/sharetube/watchparty/internal/repository/broker"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 512 * 1024
	sendBufferSize = 256
)

type Output struct {
	Type    string `json:"type"`
	Payload any    `json:"payload"`
}

// session is one websocket connection. Writes go through send and are
// performed by writePump only.
type session struct {
	id     string
	conn   *websocket.Conn
	send   chan []byte
	done   chan struct{}
	once   sync.Once
	logger *slog.Logger
}

var _ broker.Subscriber = (*session)(nil)

func newSession(id string, conn *websocket.Conn, logger *slog.Logger) *session {
	return &session{
		id:     id,
		conn:   conn,
		send:   make(chan []byte, sendBufferSize),
		done:   make(chan struct{}),
		logger: logger,
	}
}

func (s *session) ID() string {
	return s.id
}

func (s *session) Deliver(msg *broker.Message) {
	data, err := json.Marshal(&Output{Type: msg.Type, Payload: msg.Payload})
	if err != nil {
		s.logger.Error("failed to encode message", "error", err, "type", msg.Type, "connection_id", s.id)
		return
	}

	s.enqueue(data)
}

func (s *session) write(msgType string, payload any) error {
	data, err := json.Marshal(&Output{Type: msgType, Payload: payload})
	if err != nil {
		return err
	}

	s.enqueue(data)
	return nil
}

// enqueue never blocks. A client that cannot keep up is disconnected rather
// than being sent a stream with holes in it.
func (s *session) enqueue(data []byte) {
	select {
	case <-s.done:
		return
	default:
	}

	select {
	case s.send <- data:
	default:
		metrics.DroppedMessages.Inc()
		s.logger.Warn("send buffer full, closing session", "connection_id", s.id)
		s.Close()
	}
}

func (s *session) Close() {
	s.once.Do(func() {
		close(s.done)
	})
}

func (s *session) readPump(ctx context.Context, handle func(data []byte)) {
	defer s.Close()

	s.conn.SetReadLimit(maxMessageSize)
	s.conn.SetReadDeadline(time.Now().Add(pongWait))
	s.conn.SetPongHandler(func(string) error {
		return s.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, data, err := s.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseAbnormalClosure) {
				s.logger.WarnContext(ctx, "websocket read failed", "error", err)
			}
			return
		}

		s.conn.SetReadDeadline(time.Now().Add(pongWait))
		handle(data)
	}
}

func (s *session) writePump(ctx context.Context) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		s.conn.Close()
	}()

	for {
		select {
		case data := <-s.send:
			s.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := s.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				s.logger.DebugContext(ctx, "websocket write failed", "error", err)
				s.Close()
				return
			}
		case <-ticker.C:
			s.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := s.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				s.Close()
				return
			}
		case <-s.done:
			s.conn.SetWriteDeadline(time.Now().Add(writeWait))
			s.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			return
		}
	}
}
