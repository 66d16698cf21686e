package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"whatsapp-crm/pkg/models"
	"whatsapp-crm/pkg/notify"
	"whatsapp-crm/pkg/store"
)

type PurchaseHandler struct {
	store  *store.Store
	zapier *notify.Zapier
	logger *slog.Logger
}

func NewPurchaseHandler(s *store.Store, z *notify.Zapier, logger *slog.Logger) *PurchaseHandler {
	return &PurchaseHandler{store: s, zapier: z, logger: logger}
}

// CreatePurchase godoc
// @Summary  Record a purchase event for a contact
// @Tags     purchases
// @Accept   json
// @Produce  json
// @Param    waId  path  string  true  "Contact id"
// @Router   /api/{waId}/events/purchase [post]
func (h *PurchaseHandler) CreatePurchase(w http.ResponseWriter, r *http.Request) {
	setCORS(w)
	if r.Method == http.MethodOptions {
		w.WriteHeader(http.StatusNoContent)
		return
	}

	var req models.PurchaseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, CodeInvalidRequest)
		return
	}

	rawID := r.PathValue("waId")
	if rawID == "" || rawID == "-" {
		rawID = req.WaID
	}
	if rawID == "" {
		rawID = req.From
	}
	waID := store.NormalizeID(rawID)

	var amount float64
	if req.Amount != nil {
		amount = *req.Amount
	}

	purchase, err := h.store.CreatePurchase(waID, amount, req.Currency, req.Source, req.Meta)
	if err != nil {
		switch {
		case errors.Is(err, store.ErrMissingWaID):
			writeError(w, http.StatusBadRequest, CodeMissingWaID)
		case errors.Is(err, store.ErrInvalidAmount):
			writeError(w, http.StatusBadRequest, CodeInvalidAmount)
		default:
			h.logger.Error("Purchase write failed", "error", err, "wa_id", waID)
			writeError(w, http.StatusInternalServerError, CodeServerError)
		}
		return
	}

	if h.zapier.Configured() {
		go h.notifyPurchase(waID, purchase)
	}

	writeJSON(w, http.StatusOK, map[string]any{"ok": true, "purchase": purchase})
}

func (h *PurchaseHandler) notifyPurchase(waID string, p *models.Purchase) {
	payload := map[string]any{
		"event":     "purchase",
		"wa_id":     waID,
		"amount":    p.Amount,
		"currency":  p.Currency,
		"source":    p.Source,
		"createdAt": p.CreatedAt,
	}
	if contact, err := h.store.GetContact(waID); err == nil && contact != nil {
		payload["name"] = contact.Name
		payload["customer_code"] = contact.CustomerCode
	}
	h.zapier.Send(payload)
}

// Ping godoc
// @Summary  Liveness check for the purchase endpoint
// @Tags     purchases
// @Produce  json
// @Router   /api/{waId}/events/purchase [get]
func (h *PurchaseHandler) Ping(w http.ResponseWriter, r *http.Request) {
	setCORS(w)
	writeJSON(w, http.StatusOK, map[string]any{"ok": true, "service": "purchases"})
}

// ListPurchases godoc
// @Summary  Purchases for one contact, newest first
// @Tags     purchases
// @Produce  json
// @Param    waId   path   string  true   "Contact id"
// @Param    limit  query  int     false  "Max entries (default 50, max 500)"
// @Security BearerAuth
// @Router   /api/contacts/{waId}/purchases [get]
func (h *PurchaseHandler) ListPurchases(w http.ResponseWriter, r *http.Request) {
	waID := store.NormalizeID(r.PathValue("waId"))
	if waID == "" {
		writeError(w, http.StatusBadRequest, CodeMissingWaID)
		return
	}
	limit := queryInt(r, "limit", 50, 1, 500)

	purchases, err := h.store.ListPurchases(waID, limit)
	if err != nil {
		h.logger.Error("Purchase listing failed", "error", err, "wa_id", waID)
		writeError(w, http.StatusInternalServerError, CodeServerError)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"ok": true, "purchases": purchases})
}

// PurchasesBulk answers, for a batch of contact ids, which of them have at
// least one purchase. The dashboard uses it to badge the contact list.
//
// PurchasesBulk godoc
// @Summary  Which of these contacts have purchases
// @Tags     purchases
// @Accept   json
// @Produce  json
// @Security BearerAuth
// @Router   /api/purchases-bulk [post]
func (h *PurchaseHandler) PurchasesBulk(w http.ResponseWriter, r *http.Request) {
	var req struct {
		WaIDs []string `json:"waIds"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, CodeInvalidRequest)
		return
	}
	if len(req.WaIDs) == 0 {
		writeJSON(w, http.StatusOK, map[string]any{"ok": true, "result": map[string]bool{}})
		return
	}
	if len(req.WaIDs) > 500 {
		req.WaIDs = req.WaIDs[:500]
	}

	// Per-id lookup failures already degrade to false in the store.
	result := h.store.PurchasesBulk(req.WaIDs)
	writeJSON(w, http.StatusOK, map[string]any{"ok": true, "result": result})
}
