package ws

import (
	"context"
	"encoding/json"
	"log"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"chat-relay/internal/models"
	"chat-relay/internal/observability"
)

// Conn is the subset of *websocket.Conn the hub needs. Tests inject
// recording fakes through it.
type Conn interface {
	WriteMessage(messageType int, data []byte) error
	Close() error
}

// client pairs a connection with its metadata and a write lock.
// gorilla/websocket allows only one concurrent writer per connection,
// and frames arrive from broadcasts and per-connection error replies
// on different goroutines.
type client struct {
	conn Conn
	info ConnInfo   // guarded by the hub mutex
	wmu  sync.Mutex // serializes writes to conn
}

func (c *client) write(payload []byte) error {
	c.wmu.Lock()
	defer c.wmu.Unlock()
	return c.conn.WriteMessage(websocket.TextMessage, payload)
}

// Hub maintains the live websocket connections, partitioned by session.
type Hub struct {
	sessions map[string]map[*client]bool
	clients  map[Conn]*client
	unscoped bool
	mu       sync.RWMutex
}

// NewHub creates an empty hub. With unscoped set, Broadcast targets
// every live connection regardless of session (the legacy widget
// behavior); otherwise it targets only the addressed session.
func NewHub(unscoped bool) *Hub {
	return &Hub{
		sessions: make(map[string]map[*client]bool),
		clients:  make(map[Conn]*client),
		unscoped: unscoped,
	}
}

// Register adds a connection under info.SessionID and greets it with a
// system frame.
func (h *Hub) Register(conn Conn, info ConnInfo) {
	cl := &client{conn: conn, info: info}

	h.mu.Lock()
	if _, ok := h.sessions[info.SessionID]; !ok {
		h.sessions[info.SessionID] = make(map[*client]bool)
	}
	h.sessions[info.SessionID][cl] = true
	h.clients[conn] = cl
	h.mu.Unlock()

	payload, err := json.Marshal(models.SystemFrame("connected to chat relay"))
	if err != nil {
		return
	}
	if err := cl.write(payload); err != nil {
		log.Printf("websocket greeting write error: %v", err)
	}
}

// Unregister removes a connection. It is idempotent.
func (h *Hub) Unregister(conn Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()

	cl, ok := h.clients[conn]
	if !ok {
		return
	}
	delete(h.clients, conn)
	if clients, ok := h.sessions[cl.info.SessionID]; ok {
		delete(clients, cl)
		if len(clients) == 0 {
			delete(h.sessions, cl.info.SessionID)
		}
	}
}

// Rebind moves a connection to another session partition. The client
// addresses a session on every frame, so the hub follows the last one
// seen.
func (h *Hub) Rebind(conn Conn, sessionID string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	cl, ok := h.clients[conn]
	if !ok || cl.info.SessionID == sessionID {
		return
	}

	if clients, ok := h.sessions[cl.info.SessionID]; ok {
		delete(clients, cl)
		if len(clients) == 0 {
			delete(h.sessions, cl.info.SessionID)
		}
	}
	cl.info.SessionID = sessionID
	if _, ok := h.sessions[sessionID]; !ok {
		h.sessions[sessionID] = make(map[*client]bool)
	}
	h.sessions[sessionID][cl] = true
}

// Broadcast sends the wire message to the session's connections, or to
// all connections in unscoped mode.
func (h *Hub) Broadcast(sessionID string, wire models.WireMessage) {
	if h.unscoped {
		h.BroadcastAll(wire)
		return
	}

	h.mu.RLock()
	clients := make([]*client, 0, len(h.sessions[sessionID]))
	for cl := range h.sessions[sessionID] {
		clients = append(clients, cl)
	}
	h.mu.RUnlock()

	h.fanOut(clients, wire)
}

// BroadcastAll sends the wire message to every live connection. Used
// for process-wide announcements.
func (h *Hub) BroadcastAll(wire models.WireMessage) {
	h.mu.RLock()
	clients := make([]*client, 0, len(h.clients))
	for _, cl := range h.clients {
		clients = append(clients, cl)
	}
	h.mu.RUnlock()

	h.fanOut(clients, wire)
}

// SendTo writes a frame to a single connection, serialized with any
// concurrent broadcast to it. Error replies go through here so they
// reach only the originating connection.
func (h *Hub) SendTo(conn Conn, wire models.WireMessage) error {
	payload, err := json.Marshal(wire)
	if err != nil {
		return err
	}

	h.mu.RLock()
	cl, ok := h.clients[conn]
	h.mu.RUnlock()
	if !ok {
		// Not registered, so no other goroutine writes to it.
		return conn.WriteMessage(websocket.TextMessage, payload)
	}
	return cl.write(payload)
}

// fanOut writes to each connection; a failed write tears that
// connection down and the loop continues.
func (h *Hub) fanOut(clients []*client, wire models.WireMessage) {
	payload, err := json.Marshal(wire)
	if err != nil {
		log.Printf("wire message marshal error: %v", err)
		return
	}

	for _, cl := range clients {
		if err := cl.write(payload); err != nil {
			log.Printf("websocket write error: %v", err)
			cl.conn.Close()
			h.publishWSError(cl, err)
			h.Unregister(cl.conn)
		}
	}
}

func (h *Hub) publishWSError(cl *client, err error) {
	h.mu.RLock()
	info := cl.info
	h.mu.RUnlock()

	headers := observability.BuildHeaders(info.RequestID, info.TraceID)
	_ = observability.PublishEvent(context.Background(), observability.WSEventRoutingKey,
		observability.NewWSEvent("ws_error", map[string]interface{}{
			"ws": map[string]interface{}{
				"event":       "ws_error",
				"conn_id":     info.ConnID,
				"session_id":  info.SessionID,
				"duration_ms": time.Since(info.ConnectedAt).Milliseconds(),
				"reason":      err.Error(),
			},
			"identity": map[string]interface{}{
				"ip": info.IP,
			},
		}), headers)
	observability.IncWSEvent("ws_error")
}
