package handlers

import (
	"log/slog"
	"net/http"

	"github.com/gorilla/websocket"

	"whatsapp-crm/config"
	"whatsapp-crm/pkg/auth"
	"whatsapp-crm/pkg/hub"
)

type WSHandler struct {
	hub      *hub.Hub
	upgrader websocket.Upgrader
	logger   *slog.Logger
}

func NewWSHandler(h *hub.Hub, cfg *config.Config, logger *slog.Logger) *WSHandler {
	return &WSHandler{
		hub: h,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  cfg.WebSocket.ReadBufferSize,
			WriteBufferSize: cfg.WebSocket.WriteBufferSize,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
		logger: logger,
	}
}

// HandleWS upgrades a dashboard connection. Auth travels in the token query
// parameter because browser websocket clients cannot set headers; inbox_id
// scopes the subscription, empty means all inboxes.
func (h *WSHandler) HandleWS(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("token")
	claims, err := auth.ValidateJWT(token)
	if err != nil {
		h.logger.Warn("Websocket auth rejected", "error", err)
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Error("Websocket upgrade failed", "error", err)
		return
	}

	client := &hub.Client{
		Hub:     h.hub,
		UserID:  claims.UserID,
		InboxID: r.URL.Query().Get("inbox_id"),
		Conn:    conn,
		Send:    make(chan []byte, 256),
	}
	h.hub.Register <- client

	go client.WritePump()
	go client.ReadPump()
}
