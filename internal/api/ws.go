package api

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/terra-clan/problem-browser/internal/models"
	"github.com/terra-clan/problem-browser/internal/session"
)

const (
	viewChannelBuffer = 16
	wsWriteTimeout    = 10 * time.Second
	wsPingInterval    = 30 * time.Second
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 4096,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// ViewMessage is pushed to websocket subscribers
type ViewMessage struct {
	Type string       `json:"type"` // view | closed
	View *models.View `json:"view,omitempty"`
}

// viewClient is a single websocket connection following one session
type viewClient struct {
	ch        chan models.View
	sessionID string
}

// Hub fans session views out to websocket connections
type Hub struct {
	mu      sync.RWMutex
	clients map[*viewClient]struct{}
}

// NewHub creates an empty hub
func NewHub() *Hub {
	return &Hub{
		clients: make(map[*viewClient]struct{}),
	}
}

func (h *Hub) register(sessionID string) *viewClient {
	c := &viewClient{
		ch:        make(chan models.View, viewChannelBuffer),
		sessionID: sessionID,
	}
	h.mu.Lock()
	h.clients[c] = struct{}{}
	h.mu.Unlock()
	return c
}

func (h *Hub) unregister(c *viewClient) {
	h.mu.Lock()
	if _, ok := h.clients[c]; ok {
		delete(h.clients, c)
		close(c.ch)
	}
	h.mu.Unlock()
}

// Send queues a view for every connection of its session. Slow
// connections miss intermediate views.
func (h *Hub) Send(view models.View) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for c := range h.clients {
		if c.sessionID != view.SessionID {
			continue
		}
		select {
		case c.ch <- view:
		default:
		}
	}
}

// CloseSession disconnects every connection of a session
func (h *Hub) CloseSession(sessionID string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for c := range h.clients {
		if c.sessionID == sessionID {
			delete(h.clients, c)
			close(c.ch)
		}
	}
}

// ClientCount returns the number of connections following a session
func (h *Hub) ClientCount(sessionID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	n := 0
	for c := range h.clients {
		if c.sessionID == sessionID {
			n++
		}
	}
	return n
}

// pushAll recomputes and pushes the view of every session with a listener
func (s *Server) pushAll() {
	s.sessions.Each(func(sess *session.Session) {
		if s.hub.ClientCount(sess.ID()) > 0 {
			s.hub.Send(sess.View())
		}
	})
}

// pushSession pushes one session's view, or disconnects its listeners if
// the session is gone
func (s *Server) pushSession(id string) {
	if s.hub.ClientCount(id) == 0 {
		return
	}
	sess, err := s.sessions.Get(id)
	if err != nil {
		s.hub.CloseSession(id)
		return
	}
	s.hub.Send(sess.View())
}

func (s *Server) handleViewWS(w http.ResponseWriter, r *http.Request) {
	sess := SessionFromContext(r.Context())

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Error("failed to upgrade to websocket", "error", err)
		return
	}
	defer conn.Close()

	c := s.hub.register(sess.ID())
	defer s.hub.unregister(c)

	slog.Info("view websocket connected", "session_id", sess.ID())

	view := sess.View()
	if err := sendViewMessage(conn, ViewMessage{Type: "view", View: &view}); err != nil {
		return
	}

	// Clients only receive; reads detect the close.
	closed := make(chan struct{})
	go func() {
		defer close(closed)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
					slog.Debug("websocket read error", "error", err)
				}
				return
			}
		}
	}()

	ticker := time.NewTicker(wsPingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-closed:
			slog.Info("view websocket disconnected", "session_id", sess.ID())
			return
		case v, ok := <-c.ch:
			if !ok {
				sendViewMessage(conn, ViewMessage{Type: "closed"})
				slog.Info("view websocket closed by server", "session_id", sess.ID())
				return
			}
			if err := sendViewMessage(conn, ViewMessage{Type: "view", View: &v}); err != nil {
				return
			}
		case <-ticker.C:
			conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func sendViewMessage(conn *websocket.Conn, msg ViewMessage) error {
	data, err := json.Marshal(msg)
	if err != nil {
		slog.Error("failed to marshal view message", "error", err)
		return err
	}
	conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout))
	if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
		slog.Debug("failed to send view message", "error", err)
		return err
	}
	return nil
}
