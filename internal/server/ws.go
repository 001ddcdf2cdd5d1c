package server

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/ayusman/gestureos/internal/app"
)

const (
	// clientBuffer is how many messages a slow client may lag behind
	// before updates to it are dropped.
	clientBuffer = 16
	writeWait    = 5 * time.Second
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow local connections
	},
}

type streamClient struct {
	conn *websocket.Conn
	send chan []byte
}

// EventStream pushes controller updates to websocket clients as JSON.
type EventStream struct {
	snapshot func() app.Status
	logger   *slog.Logger

	mu      sync.RWMutex
	clients map[*streamClient]struct{}
}

// NewEventStream creates an EventStream. When snapshot is non-nil each new
// client first receives the current status.
func NewEventStream(snapshot func() app.Status, logger *slog.Logger) *EventStream {
	if logger == nil {
		logger = slog.Default()
	}
	return &EventStream{
		snapshot: snapshot,
		logger:   logger.With("component", "events_ws"),
		clients:  make(map[*streamClient]struct{}),
	}
}

// Publish sends u to every connected client. It never blocks; a client
// whose buffer is full misses the update.
func (s *EventStream) Publish(u app.Update) {
	msg, err := json.Marshal(u)
	if err != nil {
		s.logger.Error("failed to encode update", "err", err)
		return
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	for c := range s.clients {
		select {
		case c.send <- msg:
		default:
			s.logger.Warn("dropping update for slow client", "kind", u.Kind)
		}
	}
}

// Clients returns the number of connected clients.
func (s *EventStream) Clients() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.clients)
}

// ServeHTTP upgrades the request and streams updates until the client
// disconnects.
func (s *EventStream) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("websocket upgrade failed", "err", err)
		return
	}

	c := &streamClient{conn: conn, send: make(chan []byte, clientBuffer)}
	if s.snapshot != nil {
		st := s.snapshot()
		if msg, err := json.Marshal(app.Update{Kind: app.UpdateStatus, Status: &st}); err == nil {
			c.send <- msg
		}
	}

	s.mu.Lock()
	s.clients[c] = struct{}{}
	s.mu.Unlock()

	done := make(chan struct{})
	go s.writeLoop(c, done)

	// Reads only detect the disconnect.
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}

	s.mu.Lock()
	delete(s.clients, c)
	s.mu.Unlock()
	close(c.send)
	<-done
	conn.Close()
}

func (s *EventStream) writeLoop(c *streamClient, done chan<- struct{}) {
	defer close(done)
	for msg := range c.send {
		c.conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
			s.logger.Debug("websocket write failed", "err", err)
			c.conn.Close()
			// The read loop sees the closed conn and closes send.
			for range c.send {
			}
			return
		}
	}
}

// Close disconnects every client.
func (s *EventStream) Close() {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for c := range s.clients {
		c.conn.Close()
	}
}
