package notification

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

var ErrRecipientOffline = errors.New("recipient offline")

const writeWait = 10 * time.Second

type client struct {
	conn *websocket.Conn
	mu   sync.Mutex
}

func (c *client) write(messageType int, data []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
	return c.conn.WriteMessage(messageType, data)
}

func (c *client) writeJSON(v interface{}) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
	return c.conn.WriteJSON(v)
}

// Hub keeps one live socket per user and pushes events to it.
type Hub struct {
	clients map[int64]*client
	mutex   sync.RWMutex
}

func NewHub() *Hub {
	return &Hub{clients: make(map[int64]*client)}
}

func (h *Hub) Register(userID int64, conn *websocket.Conn) {
	h.mutex.Lock()
	defer h.mutex.Unlock()

	if old, exists := h.clients[userID]; exists && old.conn != conn {
		_ = old.conn.Close()
	}
	h.clients[userID] = &client{conn: conn}
}

// Unregister drops conn for userID. A newer socket registered by the same
// user is left alone.
func (h *Hub) Unregister(userID int64, conn *websocket.Conn) {
	h.mutex.Lock()
	defer h.mutex.Unlock()

	if c, exists := h.clients[userID]; exists && c.conn == conn {
		_ = c.conn.Close()
		delete(h.clients, userID)
	}
}

// OnlineCount is the number of users with a live socket.
func (h *Hub) OnlineCount() int {
	h.mutex.RLock()
	defer h.mutex.RUnlock()

	return len(h.clients)
}

func (h *Hub) Name() string { return "websocket" }

// Send pushes ev to the recipient when connected. Offline recipients still
// find the event in their inbox.
func (h *Hub) Send(_ context.Context, ev Event) error {
	h.mutex.RLock()
	c, exists := h.clients[ev.RecipientID]
	h.mutex.RUnlock()

	if !exists {
		return nil
	}

	msg := map[string]interface{}{
		"type":           ev.Type,
		"title":          ev.Title(),
		"message":        ev.Message(),
		"reservation_id": ev.ReservationID,
		"group_id":       ev.GroupID,
		"occurred_at":    ev.OccurredAt,
	}
	if err := c.writeJSON(msg); err != nil {
		h.Unregister(ev.RecipientID, c.conn)
		return err
	}
	return nil
}

func (h *Hub) ping(userID int64, conn *websocket.Conn) error {
	h.mutex.RLock()
	c, exists := h.clients[userID]
	h.mutex.RUnlock()

	if !exists || c.conn != conn {
		return ErrRecipientOffline
	}
	return c.write(websocket.PingMessage, nil)
}

func (h *Hub) Close() {
	h.mutex.Lock()
	defer h.mutex.Unlock()

	for userID, c := range h.clients {
		_ = c.conn.Close()
		delete(h.clients, userID)
	}
}
