package server

import (
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/websocket"

	"github.com/haskel/hostwatch/internal/metrics"
)

const (
	wsWriteWait  = 10 * time.Second
	wsPongWait   = 60 * time.Second
	wsPingPeriod = wsPongWait * 9 / 10
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 8192,
	// Origin policy is enforced by the CORS middleware.
	CheckOrigin: func(r *http.Request) bool { return true },
}

type StreamMessage struct {
	Type      string            `json:"type"`
	Data      *metrics.Snapshot `json:"data,omitempty"`
	Message   string            `json:"message,omitempty"`
	Timestamp time.Time         `json:"timestamp"`
}

// handleWebSocket streams every published snapshot. Until the first one
// exists the client gets an info message each push interval. A text "ping"
// from the client is answered with "pong".
func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("websocket upgrade failed", "remote", r.RemoteAddr, "error", err)
		return
	}
	defer conn.Close()

	s.logger.Info("websocket connected", "remote", r.RemoteAddr)
	defer s.logger.Info("websocket disconnected", "remote", r.RemoteAddr)

	updates := s.state.Subscribe()
	defer s.state.Unsubscribe(updates)

	incoming := make(chan string, 4)
	closed := make(chan struct{})
	go s.readPump(conn, incoming, closed)

	push := time.NewTicker(s.pushInterval)
	defer push.Stop()
	ping := time.NewTicker(wsPingPeriod)
	defer ping.Stop()

	if !s.sendCurrent(conn) {
		return
	}

	for {
		select {
		case <-closed:
			return
		case <-updates:
			if !s.sendCurrent(conn) {
				return
			}
		case <-push.C:
			if s.state.Current() == nil && !s.sendCurrent(conn) {
				return
			}
		case text := <-incoming:
			if strings.EqualFold(strings.TrimSpace(text), "ping") {
				if !s.write(conn, websocket.TextMessage, []byte("pong")) {
					return
				}
			}
		case <-ping.C:
			if !s.write(conn, websocket.PingMessage, nil) {
				return
			}
		}
	}
}

// readPump owns all reads on conn. It closes closed when the peer goes away.
func (s *Server) readPump(conn *websocket.Conn, incoming chan<- string, closed chan<- struct{}) {
	defer close(closed)

	conn.SetReadLimit(4096)
	_ = conn.SetReadDeadline(time.Now().Add(wsPongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(wsPongWait))
	})

	for {
		mt, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				s.logger.Debug("websocket read failed", "error", err)
			}
			return
		}
		_ = conn.SetReadDeadline(time.Now().Add(wsPongWait))
		if mt != websocket.TextMessage {
			continue
		}
		select {
		case incoming <- string(data):
		default:
		}
	}
}

func (s *Server) sendCurrent(conn *websocket.Conn) bool {
	msg := StreamMessage{Timestamp: time.Now().UTC()}
	if snap := s.state.Current(); snap != nil {
		msg.Type = "metrics"
		msg.Data = snap
	} else {
		msg.Type = "info"
		msg.Message = "No metrics available yet"
	}

	_ = conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
	if err := conn.WriteJSON(msg); err != nil {
		s.logger.Debug("websocket write failed", "error", err)
		return false
	}
	return true
}

func (s *Server) write(conn *websocket.Conn, messageType int, data []byte) bool {
	_ = conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
	if err := conn.WriteMessage(messageType, data); err != nil {
		s.logger.Debug("websocket write failed", "error", err)
		return false
	}
	return true
}
