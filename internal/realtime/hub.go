package realtime

import (
	"context"
	"sync"
	"time"

	"github.com/coin-ledger/internal/logging"
	"github.com/coin-ledger/internal/models"
	"github.com/gorilla/websocket"
)

const writeWait = 5 * time.Second

type client struct {
	conn   *websocket.Conn
	userID string
	mu     sync.Mutex
}

func (c *client) writeJSON(v any) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
	return c.conn.WriteJSON(v)
}

// Hub tracks websocket clients by user and delivers alert notifications to
// the owning user's connections
type Hub struct {
	mu      sync.RWMutex
	clients map[*websocket.Conn]*client
}

// NewHub creates an empty hub
func NewHub() *Hub {
	return &Hub{clients: make(map[*websocket.Conn]*client)}
}

// AddClient registers conn as a connection of userID
func (h *Hub) AddClient(conn *websocket.Conn, userID string) {
	h.mu.Lock()
	h.clients[conn] = &client{conn: conn, userID: userID}
	h.mu.Unlock()
}

// RemoveClient unregisters conn and closes it. Unknown connections are ignored.
func (h *Hub) RemoveClient(conn *websocket.Conn) {
	h.mu.Lock()
	_, ok := h.clients[conn]
	delete(h.clients, conn)
	h.mu.Unlock()
	if ok {
		_ = conn.Close()
	}
}

// Count returns the number of connected clients
func (h *Hub) Count() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// SendAlert writes n to every connection of n.UserID and returns how many
// received it. Connections that fail to write are dropped.
func (h *Hub) SendAlert(n *models.AlertNotification) int {
	h.mu.RLock()
	targets := make([]*client, 0, len(h.clients))
	for _, c := range h.clients {
		if c.userID == n.UserID {
			targets = append(targets, c)
		}
	}
	h.mu.RUnlock()

	delivered := 0
	for _, c := range targets {
		if err := c.writeJSON(n); err != nil {
			h.RemoveClient(c.conn)
			continue
		}
		delivered++
	}
	return delivered
}

// Relay forwards notifications to SendAlert until the channel closes or ctx
// is done
func (h *Hub) Relay(ctx context.Context, notifications <-chan *models.AlertNotification) {
	log := logging.FromContext(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case n, ok := <-notifications:
			if !ok {
				return
			}
			delivered := h.SendAlert(n)
			log.WithFields(map[string]interface{}{
				"alert_id":  n.AlertID,
				"user_id":   n.UserID,
				"delivered": delivered,
			}).Debug("alert relayed")
		}
	}
}

// Close disconnects every client
func (h *Hub) Close() {
	h.mu.Lock()
	clients := h.clients
	h.clients = make(map[*websocket.Conn]*client)
	h.mu.Unlock()

	for conn := range clients {
		_ = conn.Close()
	}
}
