package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"whatsapp-crm/config"
	"whatsapp-crm/pkg/models"
	"whatsapp-crm/pkg/store"
	"whatsapp-crm/pkg/twilio"
)

type SendHandler struct {
	store  *store.Store
	cfg    *config.Config
	tw     *twilio.Client
	logger *slog.Logger
}

func NewSendHandler(s *store.Store, cfg *config.Config, tw *twilio.Client, logger *slog.Logger) *SendHandler {
	return &SendHandler{store: s, cfg: cfg, tw: tw, logger: logger}
}

// SendMessage godoc
// @Summary  Send an outbound message through an inbox
// @Tags     sending
// @Accept   json
// @Produce  json
// @Security BearerAuth
// @Router   /api/send [post]
func (h *SendHandler) SendMessage(w http.ResponseWriter, r *http.Request) {
	var req models.SendRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, CodeInvalidRequest)
		return
	}

	waID := store.NormalizeID(req.To)
	if waID == "" {
		writeError(w, http.StatusBadRequest, CodeMissingWaID)
		return
	}
	if req.Text == "" && req.MediaURL == "" {
		writeError(w, http.StatusBadRequest, CodeInvalidRequest)
		return
	}

	inboxID := req.InboxID
	if inboxID == "" {
		inboxID = "ventas"
	}
	acct, ok := h.cfg.Twilio.Inboxes[inboxID]
	if !ok || acct.SID == "" || acct.Token == "" {
		writeError(w, http.StatusServiceUnavailable, CodeMissingConfig)
		return
	}

	sid, err := h.tw.SendMessage(acct, waID, req.Text, req.MediaURL)
	if err != nil {
		h.logger.Error("Outbound send failed", "error", err, "wa_id", waID, "inbox", inboxID)
		writeError(w, http.StatusBadGateway, CodeServerError)
		return
	}

	now := time.Now().UnixMilli()
	lastText := req.Text
	if lastText == "" {
		lastText = "[media]"
	}
	msg := &models.Message{
		ID:        sid,
		From:      acct.From,
		To:        twilio.NormalizeAddress(waID),
		Text:      req.Text,
		Timestamp: now,
		Direction: models.DirectionOut,
		InboxID:   inboxID,
		MediaURL:  req.MediaURL,
		MediaType: twilio.GuessMediaType(req.MediaURL),
	}

	if err := h.store.SaveMessage(waID, msg, map[string]string{models.FieldInboxID: inboxID}, sid); err != nil {
		// Provider accepted the message; report success but flag the gap.
		h.logger.Error("Outbound message sent but not stored", "error", err, "wa_id", waID, "sid", sid)
	}

	writeJSON(w, http.StatusOK, map[string]any{"ok": true, "sid": sid})
}

// SendTemplate fans a pre-approved template out to a batch of numbers using
// one of the broadcast accounts. Per-number failures do not abort the batch.
//
// SendTemplate godoc
// @Summary  Broadcast a template to a list of numbers
// @Tags     sending
// @Accept   json
// @Produce  json
// @Security BearerAuth
// @Router   /api/send-template [post]
func (h *SendHandler) SendTemplate(w http.ResponseWriter, r *http.Request) {
	var req models.SendTemplateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, CodeInvalidRequest)
		return
	}
	if len(req.ToNumbers) == 0 || req.ContentSid == "" {
		writeError(w, http.StatusBadRequest, CodeInvalidRequest)
		return
	}

	accountKey := req.AccountKey
	if accountKey == "" {
		accountKey = "difusionA"
	}
	acct, ok := h.cfg.Twilio.Broadcast[accountKey]
	if !ok || acct.SID == "" || acct.Token == "" {
		writeError(w, http.StatusServiceUnavailable, CodeMissingConfig)
		return
	}

	from := acct.NumberVentas
	if req.InboxID == "soporte" {
		from = acct.NumberSoporte
	}
	if from == "" {
		writeError(w, http.StatusServiceUnavailable, CodeMissingConfig)
		return
	}

	results := make([]models.SendTemplateResult, len(req.ToNumbers))
	var wg sync.WaitGroup
	for i, raw := range req.ToNumbers {
		wg.Add(1)
		go func(i int, raw string) {
			defer wg.Done()
			to := store.NormalizeID(raw)
			if to == "" {
				results[i] = models.SendTemplateResult{To: raw, Error: "invalid number"}
				return
			}
			sid, err := h.tw.SendTemplate(acct, from, to, req.ContentSid, req.Variables)
			if err != nil {
				results[i] = models.SendTemplateResult{To: to, Error: err.Error()}
				return
			}
			results[i] = models.SendTemplateResult{To: to, OK: true, Sid: sid}
		}(i, raw)
	}
	wg.Wait()

	sent := 0
	for _, res := range results {
		if res.OK {
			sent++
		}
	}
	h.logger.Info("Template batch finished", "account", accountKey, "total", len(results), "sent", sent)

	writeJSON(w, http.StatusOK, map[string]any{
		"ok":      true,
		"sent":    sent,
		"total":   len(results),
		"results": results,
	})
}

// SenderStatus godoc
// @Summary  Provider-side connectivity of an inbox sender
// @Tags     sending
// @Produce  json
// @Param    inbox_id  query  string  false  "Inbox to check (default ventas)"
// @Security BearerAuth
// @Router   /api/sender-status [get]
func (h *SendHandler) SenderStatus(w http.ResponseWriter, r *http.Request) {
	inboxID := strings.TrimSpace(r.URL.Query().Get("inbox_id"))
	if inboxID == "" {
		inboxID = "ventas"
	}
	acct, ok := h.cfg.Twilio.Inboxes[inboxID]
	if !ok || acct.SID == "" || acct.Token == "" {
		writeError(w, http.StatusServiceUnavailable, CodeMissingConfig)
		return
	}

	status, err := h.tw.GetSenderStatus(acct)
	if err != nil {
		h.logger.Error("Sender status check failed", "error", err, "inbox", inboxID)
		writeError(w, http.StatusBadGateway, CodeServerError)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"ok": true, "inbox": inboxID, "status": status})
}
