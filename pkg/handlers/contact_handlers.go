package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"whatsapp-crm/pkg/models"
	"whatsapp-crm/pkg/store"
)

type ContactHandler struct {
	store  *store.Store
	logger *slog.Logger
}

func NewContactHandler(s *store.Store, logger *slog.Logger) *ContactHandler {
	return &ContactHandler{store: s, logger: logger}
}

const listPageSize = 100

// ListContacts godoc
// @Summary  List contacts, newest activity first
// @Tags     contacts
// @Produce  json
// @Param    cursor    query  int     false  "Index offset into the recency index"
// @Param    limit     query  int     false  "Page size (max 200)"
// @Param    inbox_id  query  string  false  "Only contacts assigned to this inbox"
// @Param    since     query  int     false  "Only contacts active at or after this epoch-millis"
// @Security BearerAuth
// @Router   /api/contacts [get]
func (h *ContactHandler) ListContacts(w http.ResponseWriter, r *http.Request) {
	cursor := queryInt(r, "cursor", 0, 0, 1<<30)
	limit := queryInt(r, "limit", 50, 1, 200)
	inboxID := r.URL.Query().Get("inbox_id")
	var since int64
	if v := r.URL.Query().Get("since"); v != "" {
		since, _ = strconv.ParseInt(v, 10, 64)
	}

	// Unfiltered pages map straight onto the index. Filtered listings walk
	// index pages and fill the response page manually.
	if inboxID == "" && since == 0 {
		contacts, next, err := h.store.ListContacts(cursor, limit)
		if err != nil {
			h.logger.Error("Contact listing failed", "error", err)
			writeError(w, http.StatusInternalServerError, CodeServerError)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"ok":         true,
			"contacts":   contacts,
			"nextCursor": next,
		})
		return
	}

	matched := make([]*models.Contact, 0, limit)
	var nextCursor *int
	pos := cursor
	for {
		page, next, err := h.store.ListContacts(pos, listPageSize)
		if err != nil {
			h.logger.Error("Contact listing failed", "error", err)
			writeError(w, http.StatusInternalServerError, CodeServerError)
			return
		}
		stop := false
		for i, c := range page {
			if since > 0 && c.LastMessageAt < since {
				// Index is recency-ordered, nothing further can match.
				stop = true
				break
			}
			if inboxID != "" && c.InboxID != inboxID {
				continue
			}
			matched = append(matched, c)
			if len(matched) == limit {
				after := pos + i + 1
				nextCursor = &after
				stop = true
				break
			}
		}
		if stop || next == nil {
			break
		}
		pos = *next
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"ok":         true,
		"contacts":   matched,
		"nextCursor": nextCursor,
	})
}

// ExportContacts streams every stored contact id, normalized, for campaign
// tooling.
//
// ExportContacts godoc
// @Summary  Export all contact ids
// @Tags     contacts
// @Produce  json
// @Security BearerAuth
// @Router   /api/contacts/export [get]
func (h *ContactHandler) ExportContacts(w http.ResponseWriter, r *http.Request) {
	const pageSize = 200

	ids := make([]string, 0, pageSize)
	cursor := 0
	for {
		page, next, err := h.store.ListContacts(cursor, pageSize)
		if err != nil {
			h.logger.Error("Contact export failed", "error", err)
			writeError(w, http.StatusInternalServerError, CodeServerError)
			return
		}
		for _, c := range page {
			if id := store.NormalizeID(c.WaID); id != "" {
				ids = append(ids, id)
			}
		}
		if next == nil {
			break
		}
		cursor = *next
	}

	writeJSON(w, http.StatusOK, map[string]any{"ok": true, "total": len(ids), "numbers": ids})
}

// GetContact godoc
// @Summary  One contact with a page of its conversation
// @Tags     contacts
// @Produce  json
// @Param    waId      path   string  true   "Contact id"
// @Param    offset    query  int     false  "Page offset into the stored list"
// @Param    limit     query  int     false  "Page size (default 100, max 200)"
// @Param    inbox_id  query  string  false  "Only messages for this inbox"
// @Security BearerAuth
// @Router   /api/contacts/{waId} [get]
func (h *ContactHandler) GetContact(w http.ResponseWriter, r *http.Request) {
	waID := store.NormalizeID(r.PathValue("waId"))
	if waID == "" {
		writeError(w, http.StatusBadRequest, CodeMissingWaID)
		return
	}
	offset := queryInt(r, "offset", 0, 0, 1<<30)
	limit := queryInt(r, "limit", 100, 1, 200)
	inboxID := r.URL.Query().Get("inbox_id")

	contact, messages, next, err := h.store.GetContactWithMessages(waID, offset, &limit, inboxID)
	if err != nil {
		h.logger.Error("Contact fetch failed", "error", err, "wa_id", waID)
		writeError(w, http.StatusInternalServerError, CodeServerError)
		return
	}
	if contact == nil {
		writeError(w, http.StatusNotFound, CodeContactNotFound)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"ok":         true,
		"contact":    contact,
		"messages":   messages,
		"nextOffset": next,
	})
}

// GetMessages godoc
// @Summary  A conversation page, oldest first
// @Tags     contacts
// @Produce  json
// @Param    waId    path   string  true   "Contact id"
// @Param    offset  query  int     false  "Page offset into the stored list"
// @Param    limit   query  int     false  "Page size (default 50, max 200)"
// @Security BearerAuth
// @Router   /api/contacts/{waId}/messages [get]
func (h *ContactHandler) GetMessages(w http.ResponseWriter, r *http.Request) {
	waID := store.NormalizeID(r.PathValue("waId"))
	if waID == "" {
		writeError(w, http.StatusBadRequest, CodeMissingWaID)
		return
	}
	offset := queryInt(r, "offset", 0, 0, 1<<30)
	limit := queryInt(r, "limit", 50, 1, 200)

	messages, next, err := h.store.GetConversation(waID, offset, &limit)
	if err != nil {
		h.logger.Error("Conversation fetch failed", "error", err, "wa_id", waID)
		writeError(w, http.StatusInternalServerError, CodeServerError)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"ok":         true,
		"messages":   messages,
		"nextOffset": next,
	})
}

// DeleteContact removes a contact and everything keyed to it. A GET without
// confirm=1 only previews the keys that would go.
//
// DeleteContact godoc
// @Summary  Delete a contact and its messages, purchases and index entry
// @Tags     contacts
// @Produce  json
// @Param    waId     path   string  true   "Contact id"
// @Param    confirm  query  int     false  "Pass 1 on GET to actually delete"
// @Security BearerAuth
// @Router   /api/contacts/{waId}/delete [post]
func (h *ContactHandler) DeleteContact(w http.ResponseWriter, r *http.Request) {
	setCORS(w)
	if r.Method == http.MethodOptions {
		w.WriteHeader(http.StatusNoContent)
		return
	}

	waID := store.NormalizeID(r.PathValue("waId"))
	if waID == "" {
		writeError(w, http.StatusBadRequest, CodeMissingWaID)
		return
	}

	if r.Method == http.MethodGet && r.URL.Query().Get("confirm") != "1" {
		keys := h.store.DeleteKeysPreview(waID)
		writeJSON(w, http.StatusOK, map[string]any{"ok": true, "preview": true, "keys": keys})
		return
	}

	report, err := h.store.DeleteContact(waID)
	if err != nil {
		h.logger.Error("Contact delete failed", "error", err, "wa_id", waID)
		writeError(w, http.StatusInternalServerError, CodeServerError)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"ok":               true,
		"deletedKeys":      report.Keys,
		"removedFromIndex": report.RemovedFromIndex,
	})
}

// InspectContact is an attribution debugging view: the stored contact plus
// the click id that the resolution heuristic would pick right now.
//
// InspectContact godoc
// @Summary  Attribution debug view for a contact
// @Tags     contacts
// @Produce  json
// @Param    waId  path  string  true  "Contact id"
// @Security BearerAuth
// @Router   /api/contacts/{waId}/inspect [get]
func (h *ContactHandler) InspectContact(w http.ResponseWriter, r *http.Request) {
	waID := store.NormalizeID(r.PathValue("waId"))
	if waID == "" {
		writeError(w, http.StatusBadRequest, CodeMissingWaID)
		return
	}

	contact, err := h.store.GetContact(waID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, CodeServerError)
		return
	}

	limit := 20
	offset := 0
	messages, _, err := h.store.GetConversation(waID, offset, &limit)
	if err != nil {
		h.logger.Warn("Inspect: conversation read failed", "error", err, "wa_id", waID)
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"ok":           true,
		"contact":      contact,
		"messages":     messages,
		"resolvedClid": h.store.ResolveClid(waID),
	})
}

// AssignInbox godoc
// @Summary  Move a contact to another inbox
// @Tags     contacts
// @Accept   json
// @Produce  json
// @Security BearerAuth
// @Router   /api/contacts/assign-inbox [post]
func (h *ContactHandler) AssignInbox(w http.ResponseWriter, r *http.Request) {
	var req struct {
		WaID    string `json:"waId"`
		InboxID string `json:"inboxNumber"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, CodeInvalidRequest)
		return
	}

	waID := store.NormalizeID(req.WaID)
	if waID == "" {
		writeError(w, http.StatusBadRequest, CodeMissingWaID)
		return
	}
	inboxID := strings.TrimSpace(req.InboxID)
	if inboxID == "" {
		writeError(w, http.StatusBadRequest, CodeInvalidRequest)
		return
	}

	if err := h.store.SetContactFields(waID, map[string]string{models.FieldInboxID: inboxID}); err != nil {
		h.logger.Error("Inbox assignment failed", "error", err, "wa_id", waID)
		writeError(w, http.StatusInternalServerError, CodeServerError)
		return
	}

	h.logger.Info("Contact moved to inbox", "wa_id", waID, "inbox", inboxID)
	writeJSON(w, http.StatusOK, map[string]any{"ok": true})
}
