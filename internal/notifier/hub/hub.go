// Package hub fans push messages out to connected WebSocket clients.
// Alerts are delivered only to the addressed user's connections;
// measurement updates are broadcast to everyone.
package hub

import (
	"log/slog"
	"sync"
)

// Hub tracks active clients. Clients register with the user id they
// authenticated as; anonymous dashboard connections register with an empty
// user id and only receive broadcasts.
type Hub struct {
	logger *slog.Logger

	mu      sync.RWMutex
	clients map[*Client]struct{}
}

// New creates an empty hub.
func New(logger *slog.Logger) *Hub {
	return &Hub{
		logger:  logger,
		clients: make(map[*Client]struct{}),
	}
}

func (h *Hub) register(c *Client) {
	h.mu.Lock()
	h.clients[c] = struct{}{}
	total := len(h.clients)
	h.mu.Unlock()
	h.logger.Info("websocket client connected", "user_id", c.userID, "total_clients", total)
}

func (h *Hub) unregister(c *Client) {
	h.mu.Lock()
	if _, ok := h.clients[c]; ok {
		delete(h.clients, c)
		close(c.send)
	}
	total := len(h.clients)
	h.mu.Unlock()
	h.logger.Info("websocket client disconnected", "user_id", c.userID, "total_clients", total)
}

// SendToUser queues payload on every connection belonging to userID. Slow
// clients are dropped rather than blocking delivery to the rest.
func (h *Hub) SendToUser(userID string, payload []byte) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for c := range h.clients {
		if c.userID != userID {
			continue
		}
		c.trySend(payload)
	}
}

// Broadcast queues payload on every connection.
func (h *Hub) Broadcast(payload []byte) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for c := range h.clients {
		c.trySend(payload)
	}
}
