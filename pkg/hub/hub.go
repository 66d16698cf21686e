package hub

import (
	"log/slog"
	"sync"
	"time"

	"whatsapp-crm/pkg/store"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	maxMessageSize = 64 * 1024
)

// Hub fans live CRM events out to connected dashboard websockets. Clients
// subscribe to one inbox (or all of them); events arrive over the Redis
// sync channel so every instance sees writes made by any instance.
type Hub struct {
	Storage *store.Store

	// Clients by inbox subscription; the "" inbox receives everything.
	Inboxes map[string]map[*Client]bool

	Register   chan *Client
	Unregister chan *Client
	Events     chan store.SyncEvent

	logger *slog.Logger
	mu     sync.RWMutex
}

func NewHub(s *store.Store, logger *slog.Logger) *Hub {
	return &Hub{
		Storage:    s,
		Inboxes:    make(map[string]map[*Client]bool),
		Register:   make(chan *Client),
		Unregister: make(chan *Client),
		Events:     make(chan store.SyncEvent, 64),
		logger:     logger,
	}
}

func (h *Hub) Run() {
	h.logger.Info("WebSocket hub started")
	for {
		select {
		case client := <-h.Register:
			h.handleRegister(client)

		case client := <-h.Unregister:
			h.handleUnregister(client)

		case event := <-h.Events:
			h.broadcast(event)
		}
	}
}

func (h *Hub) handleRegister(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.Inboxes[client.InboxID] == nil {
		h.Inboxes[client.InboxID] = make(map[*Client]bool)
	}
	h.Inboxes[client.InboxID][client] = true
	h.logger.Info("Dashboard client connected", "user", client.UserID, "inbox", client.InboxID)
}

func (h *Hub) handleUnregister(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if clients, ok := h.Inboxes[client.InboxID]; ok {
		if clients[client] {
			delete(clients, client)
			close(client.Send)
		}
		if len(clients) == 0 {
			delete(h.Inboxes, client.InboxID)
		}
	}
	h.logger.Info("Dashboard client disconnected", "user", client.UserID, "inbox", client.InboxID)
}

func (h *Hub) broadcast(event store.SyncEvent) {
	payload := marshalEvent(event)
	if payload == nil {
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	targets := []string{""}
	if event.InboxID != "" {
		targets = append(targets, event.InboxID)
	}
	for _, inbox := range targets {
		for client := range h.Inboxes[inbox] {
			select {
			case client.Send <- payload:
			default:
				// Slow consumer; drop it.
				close(client.Send)
				delete(h.Inboxes[inbox], client)
			}
		}
	}
}
