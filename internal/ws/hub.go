// Package ws pushes the authoritative record to connected dashboard
// sessions so every open page converges after a confirmed mutation.
package ws

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/MrSnakeDoc/switchboard/internal/domain"
	"github.com/MrSnakeDoc/switchboard/internal/logger"
	"github.com/MrSnakeDoc/switchboard/internal/store"
)

const writeTimeout = 5 * time.Second

// Event is one broadcast state snapshot.
type Event struct {
	ID        string          `json:"id"`
	Services  map[string]bool `json:"services"` // key -> active bit
	UpdatedAt string          `json:"updated_at"`
}

// NewEvent builds a broadcast event from the authoritative record.
func NewEvent(state domain.ServiceState) Event {
	services := make(map[string]bool, 4)
	for key, flag := range state.Flags() {
		services[string(key)] = flag.Active()
	}
	return Event{
		ID:        uuid.NewString(),
		Services:  services,
		UpdatedAt: state.UpdatedAt.Format(store.TimeLayout),
	}
}

// client wraps a connection with its write lock. gorilla/websocket
// permits at most one concurrent writer per connection, and mutation
// handlers broadcast from their own goroutines.
type client struct {
	conn *websocket.Conn
	wmu  sync.Mutex
}

func (c *client) write(ev Event) error {
	c.wmu.Lock()
	defer c.wmu.Unlock()
	_ = c.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	return c.conn.WriteJSON(ev)
}

// Hub tracks connected clients and fans events out to them.
type Hub struct {
	mu     sync.Mutex
	conns  map[*websocket.Conn]*client
	logger logger.Logger
}

func NewHub(log logger.Logger) *Hub {
	return &Hub{
		conns:  make(map[*websocket.Conn]*client),
		logger: log,
	}
}

// Add registers a connection and starts its read pump; the pump only
// drains control frames and unregisters the connection when it drops.
func (h *Hub) Add(conn *websocket.Conn) {
	h.mu.Lock()
	h.conns[conn] = &client{conn: conn}
	count := len(h.conns)
	h.mu.Unlock()

	h.logger.Debug("ws client connected", logger.Int("clients", count))

	go func() {
		defer h.remove(conn)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()
}

// Broadcast sends the event to every connection, dropping the ones
// that fail to accept it in time.
func (h *Hub) Broadcast(ev Event) {
	h.mu.Lock()
	clients := make([]*client, 0, len(h.conns))
	for _, c := range h.conns {
		clients = append(clients, c)
	}
	h.mu.Unlock()

	for _, c := range clients {
		if err := c.write(ev); err != nil {
			h.logger.Debug("ws write failed, dropping client", logger.Error(err))
			h.remove(c.conn)
		}
	}
}

// Count returns the number of connected clients.
func (h *Hub) Count() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.conns)
}

// Close drops every connection.
func (h *Hub) Close() {
	h.mu.Lock()
	conns := make([]*websocket.Conn, 0, len(h.conns))
	for c := range h.conns {
		conns = append(conns, c)
	}
	h.conns = make(map[*websocket.Conn]*client)
	h.mu.Unlock()

	for _, c := range conns {
		_ = c.Close()
	}
}

func (h *Hub) remove(conn *websocket.Conn) {
	h.mu.Lock()
	_, present := h.conns[conn]
	delete(h.conns, conn)
	h.mu.Unlock()

	if present {
		_ = conn.Close()
		h.logger.Debug("ws client disconnected")
	}
}
