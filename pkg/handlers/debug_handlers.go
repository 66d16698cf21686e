package handlers

import (
	"log/slog"
	"net/http"

	"whatsapp-crm/pkg/models"
	"whatsapp-crm/pkg/store"
)

type DebugHandler struct {
	store  *store.Store
	logger *slog.Logger
}

func NewDebugHandler(s *store.Store, logger *slog.Logger) *DebugHandler {
	return &DebugHandler{store: s, logger: logger}
}

// Smoke godoc
// @Summary  End-to-end store roundtrip check
// @Tags     admin
// @Produce  json
// @Security BearerAuth
// @Router   /api/debug/smoke [get]
func (h *DebugHandler) Smoke(w http.ResponseWriter, r *http.Request) {
	if err := h.store.SmokeTest(); err != nil {
		h.logger.Error("Smoke test failed", "error", err)
		writeError(w, http.StatusInternalServerError, CodeServerError)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"ok": true})
}

// PeekKey godoc
// @Summary  Type-aware dump of one storage key
// @Tags     admin
// @Produce  json
// @Param    key  path  string  true  "Full key, e.g. contact:549111234567"
// @Security BearerAuth
// @Router   /api/debug/kv/peek/{key} [get]
func (h *DebugHandler) PeekKey(w http.ResponseWriter, r *http.Request) {
	key := r.PathValue("key")
	if key == "" {
		writeError(w, http.StatusBadRequest, CodeInvalidRequest)
		return
	}

	dump, err := h.store.PeekKey(key)
	if err != nil {
		h.logger.Error("Key peek failed", "error", err, "key", key)
		writeError(w, http.StatusInternalServerError, CodeServerError)
		return
	}
	if dump.Type == "none" {
		writeError(w, http.StatusNotFound, CodeNotFound)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"ok": true, "dump": dump})
}

// RepairMessages rewrites every message list, dropping entries that are not
// valid JSON. Registered on GET and POST; both perform the repair.
//
// RepairMessages godoc
// @Summary  Drop corrupted entries from all message lists
// @Tags     admin
// @Produce  json
// @Security BearerAuth
// @Router   /api/debug/repair-messages [post]
func (h *DebugHandler) RepairMessages(w http.ResponseWriter, r *http.Request) {
	reports, err := h.store.RepairMessages()
	if err != nil {
		h.logger.Error("Message repair failed", "error", err)
		writeError(w, http.StatusInternalServerError, CodeServerError)
		return
	}

	removed := 0
	for _, rep := range reports {
		removed += rep.Removed
	}
	h.logger.Info("Message repair finished", "lists", len(reports), "removed", removed)

	writeJSON(w, http.StatusOK, map[string]any{"ok": true, "removed": removed, "reports": reports})
}

// ClearContacts wipes every stored contact, message, purchase and index
// entry. Requires confirm=1.
//
// ClearContacts godoc
// @Summary  Delete all CRM data
// @Tags     admin
// @Produce  json
// @Param    confirm  query  int  true  "Must be 1"
// @Security BearerAuth
// @Router   /api/debug/clear-contacts [post]
func (h *DebugHandler) ClearContacts(w http.ResponseWriter, r *http.Request) {
	if r.URL.Query().Get("confirm") != "1" {
		writeError(w, http.StatusBadRequest, CodeInvalidRequest)
		return
	}

	deleted, err := h.store.PurgeContacts()
	if err != nil {
		h.logger.Error("Contact purge failed", "error", err, "deleted_so_far", deleted)
		writeError(w, http.StatusInternalServerError, CodeServerError)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"ok": true, "deleted": deleted})
}

// DemoInbox returns the fixed demo conversation snapshot used by the
// dashboard walkthrough. It carries no server state; the demo contact is
// rendered client-side.
//
// DemoInbox godoc
// @Summary  Demo inbox snapshot
// @Tags     admin
// @Produce  json
// @Security BearerAuth
// @Router   /api/debug/demo-inbox [get]
func (h *DebugHandler) DemoInbox(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"ok": true,
		"contact": map[string]any{
			"wa_id":    "demo",
			"name":     "Demo",
			"inbox_id": "ventas",
		},
		"messages": []*models.Message{},
	})
}
