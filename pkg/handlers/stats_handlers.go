package handlers

import (
	"log/slog"
	"net/http"
	"strings"
	"time"

	"whatsapp-crm/pkg/store"
)

type StatsHandler struct {
	store  *store.Store
	logger *slog.Logger
}

func NewStatsHandler(s *store.Store, logger *slog.Logger) *StatsHandler {
	return &StatsHandler{store: s, logger: logger}
}

// ContactsToday godoc
// @Summary  New-contact counts for today and yesterday
// @Tags     stats
// @Produce  json
// @Param    inbox_id  query  string  false  "Comma-separated inbox filter"
// @Security BearerAuth
// @Router   /api/stats/contacts-today [get]
func (h *StatsHandler) ContactsToday(w http.ResponseWriter, r *http.Request) {
	var inboxIDs []string
	if raw := strings.TrimSpace(r.URL.Query().Get("inbox_id")); raw != "" {
		for _, id := range strings.Split(raw, ",") {
			if id = strings.TrimSpace(id); id != "" {
				inboxIDs = append(inboxIDs, id)
			}
		}
	}

	stats, err := h.store.ContactsToday(inboxIDs)
	if err != nil {
		h.logger.Error("Daily contact stats failed", "error", err)
		writeError(w, http.StatusInternalServerError, CodeServerError)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"ok": true, "stats": stats})
}

// ContactsRange godoc
// @Summary  Contacts active inside a date range
// @Tags     stats
// @Produce  json
// @Param    from  query  string  true  "Start day, YYYY-MM-DD"
// @Param    to    query  string  true  "End day inclusive, YYYY-MM-DD"
// @Security BearerAuth
// @Router   /api/stats/contacts-range [get]
func (h *StatsHandler) ContactsRange(w http.ResponseWriter, r *http.Request) {
	fromRaw := r.URL.Query().Get("from")
	toRaw := r.URL.Query().Get("to")
	from, err1 := time.Parse("2006-01-02", fromRaw)
	to, err2 := time.Parse("2006-01-02", toRaw)
	if err1 != nil || err2 != nil || to.Before(from) {
		writeError(w, http.StatusBadRequest, CodeInvalidRequest)
		return
	}
	// End of day inclusive.
	to = to.Add(24*time.Hour - time.Millisecond)

	stats, err := h.store.ContactsRange(from, to)
	if err != nil {
		h.logger.Error("Contact range stats failed", "error", err)
		writeError(w, http.StatusInternalServerError, CodeServerError)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"ok": true, "stats": stats})
}

// Purchases serves the purchase dashboard numbers. Without parameters it
// returns totals plus today/yesterday; with from/to days it counts purchases
// inside the range.
//
// Purchases godoc
// @Summary  Purchase conversion stats
// @Tags     stats
// @Produce  json
// @Param    from  query  string  false  "Start day, YYYY-MM-DD"
// @Param    to    query  string  false  "End day inclusive, YYYY-MM-DD"
// @Security BearerAuth
// @Router   /api/stats/purchases [get]
func (h *StatsHandler) Purchases(w http.ResponseWriter, r *http.Request) {
	fromDay := r.URL.Query().Get("from")
	toDay := r.URL.Query().Get("to")

	if fromDay != "" || toDay != "" {
		if _, err := time.Parse("2006-01-02", fromDay); err != nil {
			writeError(w, http.StatusBadRequest, CodeInvalidRequest)
			return
		}
		if _, err := time.Parse("2006-01-02", toDay); err != nil {
			writeError(w, http.StatusBadRequest, CodeInvalidRequest)
			return
		}
		count, err := h.store.PurchasesInRange(fromDay, toDay)
		if err != nil {
			h.logger.Error("Purchase range stats failed", "error", err)
			writeError(w, http.StatusInternalServerError, CodeServerError)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"ok": true, "enRango": count})
		return
	}

	stats, err := h.store.PurchasesToday()
	if err != nil {
		h.logger.Error("Purchase stats failed", "error", err)
		writeError(w, http.StatusInternalServerError, CodeServerError)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"ok": true, "stats": stats})
}
