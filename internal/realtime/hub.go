package realtime

import (
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/charlesng35/campushub/pkg/logger"
	"github.com/charlesng35/campushub/pkg/metrics"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 4096

	sendBufferSize = 64
)

// Event is a JSON payload pushed to a connected user. Payloads are hints to
// re-fetch, not authoritative state: delivery is best-effort and unordered
// relative to the persisted record.
type Event struct {
	Event string `json:"event"`
	Data  any    `json:"data,omitempty"`
}

// Hub is the session registry mapping user ids to their live WebSocket
// sessions. It owns the connect/disconnect lifecycle; callers hand it fully
// authenticated users only.
type Hub struct {
	mu       sync.RWMutex
	sessions map[string]map[*session]struct{}
	upgrader websocket.Upgrader
	log      *zap.Logger
}

// NewHub constructs an empty session registry.
func NewHub() *Hub {
	return &Hub{
		sessions: make(map[string]map[*session]struct{}),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				if origin == "" {
					return true
				}
				originHost := hostWithoutPort(origin)
				requestHost := hostWithoutPort(r.Host)
				return originHost == requestHost || isLoopback(originHost)
			},
		},
		log: logger.WithModule("realtime"),
	}
}

// Serve upgrades the HTTP connection to a WebSocket and registers the session
// for the supplied user. It blocks until the connection closes.
func (h *Hub) Serve(userID string, w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warn("upgrade failed", zap.Error(err))
		return
	}

	s := &session{
		hub:    h,
		socket: conn,
		userID: userID,
		send:   make(chan Event, sendBufferSize),
	}

	h.connect(s)

	go s.writeLoop()
	s.readLoop()
}

// Send delivers an event to every live session for the user. Delivery is
// fire-and-forget: offline users and backpressured sessions are dropped.
func (h *Hub) Send(userID string, event Event) {
	if userID == "" {
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	targets := h.sessions[userID]
	if len(targets) == 0 {
		metrics.PushDropped.Inc()
		return
	}

	for s := range targets {
		select {
		case s.send <- event:
			metrics.PushDelivered.Inc()
		default:
			metrics.PushDropped.Inc()
			h.log.Debug("dropping backpressured session", zap.String("user_id", userID))
		}
	}
}

// SendToUsers delivers an event to each of the supplied user ids.
func (h *Hub) SendToUsers(userIDs []string, event Event) {
	for _, userID := range userIDs {
		h.Send(userID, event)
	}
}

// Connected reports how many live sessions the user currently has.
func (h *Hub) Connected(userID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.sessions[userID])
}

// Sessions reports the total number of live sessions across all users.
func (h *Hub) Sessions() int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	total := 0
	for _, sessions := range h.sessions {
		total += len(sessions)
	}
	return total
}

func (h *Hub) connect(s *session) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.sessions[s.userID] == nil {
		h.sessions[s.userID] = make(map[*session]struct{})
	}
	h.sessions[s.userID][s] = struct{}{}
}

func (h *Hub) disconnect(s *session) {
	h.mu.Lock()
	defer h.mu.Unlock()

	sessions := h.sessions[s.userID]
	if sessions == nil {
		return
	}
	delete(sessions, s)
	if len(sessions) == 0 {
		delete(h.sessions, s.userID)
	}
}

type session struct {
	hub    *Hub
	socket *websocket.Conn
	userID string
	send   chan Event
	once   sync.Once
}

func (s *session) readLoop() {
	defer s.close()

	s.socket.SetReadLimit(maxMessageSize)
	_ = s.socket.SetReadDeadline(time.Now().Add(pongWait))
	s.socket.SetPongHandler(func(string) error {
		_ = s.socket.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	// Clients only listen; inbound frames are drained to keep control
	// handlers running.
	for {
		if _, _, err := s.socket.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				s.hub.log.Debug("unexpected close", zap.String("user_id", s.userID), zap.Error(err))
			}
			return
		}
	}
}

func (s *session) writeLoop() {
	defer s.close()

	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case event, ok := <-s.send:
			_ = s.socket.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = s.socket.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := s.socket.WriteJSON(event); err != nil {
				return
			}
		case <-ticker.C:
			_ = s.socket.SetWriteDeadline(time.Now().Add(writeWait))
			if err := s.socket.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (s *session) close() {
	s.once.Do(func() {
		s.hub.disconnect(s)
		close(s.send)
		_ = s.socket.Close()
	})
}

func hostWithoutPort(host string) string {
	host = strings.TrimSpace(host)
	if host == "" {
		return ""
	}

	if strings.HasPrefix(host, "http://") || strings.HasPrefix(host, "https://") {
		parsed, err := http.NewRequest(http.MethodGet, host, nil)
		if err == nil {
			return hostWithoutPort(parsed.URL.Host)
		}
	}

	if h, _, err := net.SplitHostPort(host); err == nil {
		return h
	}
	return host
}

func isLoopback(host string) bool {
	ip := net.ParseIP(host)
	if ip != nil {
		return ip.IsLoopback()
	}
	return strings.EqualFold(host, "localhost")
}
