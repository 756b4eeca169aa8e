package web

import (
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/colonyops/buildsched/internal/core/eventbus"
	"github.com/colonyops/buildsched/internal/core/logging"
)

const (
	writeWait   = 5 * time.Second
	clientQueue = 64
)

// Message is one bus event as sent over the websocket.
type Message struct {
	Type      eventbus.Event `json:"type"`
	ProjectID string         `json:"project_id,omitempty"`
	Payload   any            `json:"payload"`
}

// Hub fans bus events out to websocket clients. A client that passes
// ?project=<id> only receives events of that project plus notices.
type Hub struct {
	upgrader websocket.Upgrader
	log      zerolog.Logger

	mu      sync.RWMutex
	clients map[*client]struct{}
	closed  bool
}

type client struct {
	conn    *websocket.Conn
	project string
	send    chan Message
	once    sync.Once
}

// NewHub creates a Hub and subscribes it to every event on bus.
func NewHub(bus *eventbus.EventBus) *Hub {
	h := &Hub{
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		log:     logging.Component("ws-hub"),
		clients: make(map[*client]struct{}),
	}
	bus.SubscribeAll(h.broadcast)
	return h
}

// ServeWS upgrades the request and streams events until the client leaves.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Debug().Err(err).Msg("websocket upgrade failed")
		return
	}

	c := &client{
		conn:    conn,
		project: r.URL.Query().Get("project"),
		send:    make(chan Message, clientQueue),
	}

	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		_ = conn.Close()
		return
	}
	h.clients[c] = struct{}{}
	h.mu.Unlock()

	h.log.Debug().Str("project", c.project).Msg("websocket client connected")

	go h.writeLoop(c)
	h.readLoop(c)
}

// Clients returns the number of connected clients.
func (h *Hub) Clients() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Close disconnects every client. Later connections are refused.
func (h *Hub) Close() {
	h.mu.Lock()
	h.closed = true
	clients := make([]*client, 0, len(h.clients))
	for c := range h.clients {
		clients = append(clients, c)
		delete(h.clients, c)
	}
	h.mu.Unlock()

	for _, c := range clients {
		c.stop()
	}
}

func (h *Hub) broadcast(event eventbus.Event, payload any) {
	msg := Message{Type: event, ProjectID: projectOf(payload), Payload: payload}

	h.mu.RLock()
	var slow []*client
	for c := range h.clients {
		if c.project != "" && msg.ProjectID != "" && c.project != msg.ProjectID {
			continue
		}
		select {
		case c.send <- msg:
		default:
			slow = append(slow, c)
		}
	}
	h.mu.RUnlock()

	for _, c := range slow {
		h.log.Warn().Str("project", c.project).Msg("websocket client too slow, disconnecting")
		h.remove(c)
	}
}

func (h *Hub) remove(c *client) {
	h.mu.Lock()
	delete(h.clients, c)
	h.mu.Unlock()
	c.stop()
}

// readLoop discards inbound frames; it exists to notice the client leaving.
func (h *Hub) readLoop(c *client) {
	defer h.remove(c)
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (h *Hub) writeLoop(c *client) {
	defer func() { _ = c.conn.Close() }()
	for msg := range c.send {
		_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := c.conn.WriteJSON(msg); err != nil {
			h.log.Debug().Err(err).Msg("websocket write failed")
			return
		}
	}
	_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
	_ = c.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
}

func (c *client) stop() {
	c.once.Do(func() { close(c.send) })
}

func projectOf(payload any) string {
	switch p := payload.(type) {
	case eventbus.OrderChangedPayload:
		return p.ProjectID
	case eventbus.ScheduleLoadFailedPayload:
		return p.ProjectID
	case eventbus.ScheduleLoadedPayload:
		return p.ProjectID
	case eventbus.ScheduleRolledBackPayload:
		return p.ProjectID
	case eventbus.TaskAppliedPayload:
		return p.ProjectID
	case eventbus.TaskPersistFailedPayload:
		return p.ProjectID
	case eventbus.TaskPersistedPayload:
		return p.ProjectID
	default:
		return ""
	}
}
