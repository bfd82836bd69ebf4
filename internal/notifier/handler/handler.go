package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"

	"wattgrid/internal/notifier/hub"
)

// Handler upgrades dashboard connections onto the hub.
type Handler struct {
	hub      *hub.Hub
	logger   *slog.Logger
	upgrader websocket.Upgrader
}

// New creates the notifier HTTP handler.
func New(h *hub.Hub, logger *slog.Logger) *Handler {
	return &Handler{
		hub:    h,
		logger: logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// The dashboard is served from another origin in every
			// deployment; auth happens via the userId binding.
			CheckOrigin: func(*http.Request) bool { return true },
		},
	}
}

// Register mounts the WebSocket route.
func (h *Handler) Register(r chi.Router) {
	r.Get("/ws", h.handleConnect)
}

// handleConnect upgrades the connection. A userId query parameter binds the
// connection for alert delivery; without one the client only receives
// broadcasts.
func (h *Handler) handleConnect(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Error("websocket upgrade failed", "error", err)
		return
	}
	hub.NewClient(h.hub, conn, r.URL.Query().Get("userId"))
}
