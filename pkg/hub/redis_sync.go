package hub

import (
	"encoding/json"

	"whatsapp-crm/pkg/store"
)

// ListenToRedis subscribes to the sync channel and feeds events into the
// hub's event loop. Runs for the lifetime of the process.
func (h *Hub) ListenToRedis() {
	pubsub := h.Storage.RDB.Subscribe(h.Storage.Ctx, store.SyncChannel())
	defer pubsub.Close()

	ch := pubsub.Channel()
	h.logger.Info("Listening for Redis pub/sub events", "channel", store.SyncChannel())

	for msg := range ch {
		var event store.SyncEvent
		if err := json.Unmarshal([]byte(msg.Payload), &event); err != nil {
			h.logger.Warn("Discarding malformed sync event", "error", err)
			continue
		}
		h.Events <- event
	}
}

func marshalEvent(event store.SyncEvent) []byte {
	data, err := json.Marshal(event)
	if err != nil {
		return nil
	}
	return data
}
