package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"whatsapp-crm/config"
	"whatsapp-crm/pkg/media"
	"whatsapp-crm/pkg/models"
	"whatsapp-crm/pkg/notify"
	"whatsapp-crm/pkg/store"
	"whatsapp-crm/pkg/twilio"
)

type WebhookHandler struct {
	store    *store.Store
	cfg      *config.Config
	tw       *twilio.Client
	uploader *media.Uploader
	zapier   *notify.Zapier
	logger   *slog.Logger
}

func NewWebhookHandler(s *store.Store, cfg *config.Config, tw *twilio.Client, up *media.Uploader, z *notify.Zapier, logger *slog.Logger) *WebhookHandler {
	return &WebhookHandler{store: s, cfg: cfg, tw: tw, uploader: up, zapier: z, logger: logger}
}

func pick(v string) string {
	if s := strings.TrimSpace(v); s != "" {
		return s
	}
	return ""
}

// clidFromForm checks the referral parameter variants the provider sends,
// canonical name first.
func clidFromForm(get func(string) string) string {
	for _, key := range []string{"ReferralCtwaClid", "ReferralCtwClid", "ctwa_clid", "ctw_clid", "clid"} {
		if v := pick(get(key)); v != "" {
			return v
		}
	}
	return ""
}

// inboxForReceiver maps the receiving number to its inbox id, defaulting to
// ventas.
func (h *WebhookHandler) inboxForReceiver(to string) string {
	for inboxID, acct := range h.cfg.Twilio.Inboxes {
		number := strings.TrimPrefix(acct.From, "whatsapp:")
		if number != "" && strings.Contains(to, number) {
			return inboxID
		}
	}
	return "ventas"
}

// TwilioInbound godoc
// @Summary  Inbound message webhook (form-urlencoded)
// @Tags     webhooks
// @Accept   x-www-form-urlencoded
// @Success  204
// @Router   /api/webhook/twilio [post]
func (h *WebhookHandler) TwilioInbound(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		h.logger.Warn("Inbound webhook: malformed form", "error", err)
		writeError(w, http.StatusBadRequest, CodeInvalidRequest)
		return
	}
	get := r.PostForm.Get

	from := get("From")
	to := get("To")
	body := get("Body")
	customerCode := store.ExtractCustomerCode(body)
	inboxID := h.inboxForReceiver(to)

	sourceURL := pick(get("ReferralSourceUrl"))
	refIDs := store.ParseReferralIDs(sourceURL)

	numMedia, _ := strconv.Atoi(get("NumMedia"))
	var mediaURL, mediaContentType string
	if numMedia > 0 {
		mediaURL = get("MediaUrl0")
		mediaContentType = get("MediaContentType0")
	}

	waIDRaw := get("WaId")
	if waIDRaw == "" {
		waIDRaw = from
	}
	waID := store.NormalizeID(waIDRaw)
	if waID == "" {
		writeError(w, http.StatusBadRequest, CodeMissingWaID)
		return
	}

	messageSid := get("MessageSid")
	if messageSid == "" {
		messageSid = get("SmsMessageSid")
	}

	profileName := pick(get("ProfileName"))
	sourceTypeRef := pick(get("ReferralSourceType"))
	clid := clidFromForm(get)

	existing, contactErr := h.store.GetContact(waID)
	if contactErr != nil {
		h.logger.Warn("Inbound webhook: contact read failed", "error", contactErr, "wa_id", waID)
		existing = nil
	}

	now := time.Now().UnixMilli()
	lastText := body
	if lastText == "" && mediaURL != "" {
		lastText = "[media]"
	}

	patch := map[string]string{
		models.FieldWaID:          waID,
		models.FieldLastText:      lastText,
		models.FieldLastMessageAt: strconv.FormatInt(now, 10),
		models.FieldInboxID:       inboxID,
	}
	if profileName != "" {
		patch[models.FieldName] = profileName
	}
	if sourceURL != "" {
		patch[models.FieldSourceURL] = sourceURL
	}
	if refIDs.CampaignID != "" {
		patch[models.FieldCampaignID] = refIDs.CampaignID
	}
	if refIDs.AdsetID != "" {
		patch[models.FieldAdsetID] = refIDs.AdsetID
	}
	if refIDs.AdID != "" {
		patch[models.FieldAdID] = refIDs.AdID
	}
	if customerCode != "" {
		patch[models.FieldCustomerCode] = customerCode
	}
	if clid != "" {
		patch[models.FieldCtwaClid] = clid
	}
	switch {
	case clid != "":
		// A click id always means ad; safe to set even if the read failed.
		patch[models.FieldSourceType] = models.SourceTypeAd
	case contactErr == nil:
		if st := store.ClassifySource(existing, clid); st != "" {
			patch[models.FieldSourceType] = st
		}
	default:
		// Could not read the contact; leave the stored source untouched so a
		// transient failure never downgrades an ad contact to organic.
	}

	// Re-host inbound media so conversation views do not depend on the
	// provider's authenticated, expiring URLs.
	uploadedURL, uploadedType := h.rehostMedia(inboxID, mediaURL, mediaContentType)

	msg := &models.Message{
		ID:        messageSid,
		From:      from,
		To:        to,
		Text:      body,
		Timestamp: now,
		Direction: models.DirectionIn,
		InboxID:   inboxID,
		MediaURL:  uploadedURL,
		MediaType: uploadedType,
	}
	if msg.ID == "" {
		msg.ID = uuid.New().String()
	}

	if err := h.store.SaveMessage(waID, msg, patch, messageSid); err != nil {
		h.logger.Error("Inbound webhook: save failed", "error", err, "wa_id", waID)
		writeError(w, http.StatusInternalServerError, CodeServerError)
		return
	}

	finalCustomerCode := customerCode
	if finalCustomerCode == "" && existing != nil {
		finalCustomerCode = existing.CustomerCode
	}
	if h.zapier.Configured() && (existing != nil || finalCustomerCode != "") {
		sourceType := patch[models.FieldSourceType]
		if sourceType == "" && existing != nil {
			sourceType = existing.SourceType
		}
		go h.zapier.Send(map[string]any{
			"wa_id":         waID,
			"name":          profileName,
			"from":          from,
			"to":            to,
			"message":       body,
			"timestamp":     now,
			"source_type":   sourceType,
			"source_url":    sourceURL,
			"campaign_id":   refIDs.CampaignID,
			"adset_id":      refIDs.AdsetID,
			"ad_id":         refIDs.AdID,
			"ctwa_clid":     clid,
			"customer_code": finalCustomerCode,
			"inbox_id":      inboxID,
		})
	}

	metaSourceType := sourceTypeRef
	if clid != "" {
		metaSourceType = models.SourceTypeAd
	} else if metaSourceType == "" && existing != nil {
		metaSourceType = existing.SourceType
	}
	if err := h.store.SetMessageMeta(msg.ID, &models.MessageMeta{
		CtwaClid:   clid,
		SourceType: metaSourceType,
		SourceURL:  sourceURL,
		CampaignID: refIDs.CampaignID,
		AdsetID:    refIDs.AdsetID,
		AdID:       refIDs.AdID,
	}); err != nil {
		h.logger.Warn("Inbound webhook: meta write failed", "error", err, "message_id", msg.ID)
	}

	w.WriteHeader(http.StatusNoContent)
}

// rehostMedia downloads the provider attachment and uploads it to the media
// store. Any failure falls back to the provider URL so the message is never
// lost over a hosting problem.
func (h *WebhookHandler) rehostMedia(inboxID, mediaURL, contentType string) (string, string) {
	if mediaURL == "" || contentType == "" {
		return "", ""
	}

	isPdf := strings.Contains(strings.ToLower(contentType), "pdf")
	kind := models.MediaTypeImage
	if isPdf {
		kind = models.MediaTypePDF
	}

	acct, ok := h.cfg.Twilio.Inboxes[inboxID]
	if !ok || acct.SID == "" || acct.Token == "" {
		h.logger.Warn("No provider credentials for inbox, keeping provider URL", "inbox", inboxID)
		return mediaURL, kind
	}
	if !h.uploader.Configured() {
		h.logger.Warn("Media store not configured, keeping provider URL", "inbox", inboxID)
		return mediaURL, kind
	}

	data, err := h.tw.FetchMedia(acct, mediaURL)
	if err != nil {
		h.logger.Warn("Failed to fetch inbound media", "error", err, "inbox", inboxID)
		return mediaURL, kind
	}

	result, err := h.uploader.UploadSigned(data, contentType, isPdf)
	if err != nil {
		h.logger.Warn("Failed to re-host inbound media", "error", err, "inbox", inboxID)
		return mediaURL, kind
	}

	h.logger.Info("Inbound media re-hosted", "kind", result.Kind)
	return result.URL, result.Kind
}

// ZapierInbound handles the reward-automation callback: a customer code
// arrives and the matching contact gets tagged.
//
// ZapierInbound godoc
// @Summary  Reward webhook: tag contact by customer code
// @Tags     webhooks
// @Accept   json
// @Produce  json
// @Router   /api/webhook/zapier [post]
func (h *WebhookHandler) ZapierInbound(w http.ResponseWriter, r *http.Request) {
	var req struct {
		CustomerCode string `json:"customer_code"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, CodeInvalidRequest)
		return
	}

	code := strings.ToUpper(strings.TrimSpace(req.CustomerCode))
	if len(code) != 8 {
		writeError(w, http.StatusBadRequest, CodeInvalidCustomerCode)
		return
	}

	contact, err := h.store.FindContactByCustomerCode(code)
	if err != nil {
		h.logger.Error("Reward webhook: lookup failed", "error", err, "customer_code", code)
		writeError(w, http.StatusInternalServerError, CodeServerError)
		return
	}
	if contact == nil {
		writeError(w, http.StatusNotFound, CodeContactNotFound)
		return
	}

	if err := h.store.SetContactFields(contact.WaID, map[string]string{models.FieldTag: "Tracked"}); err != nil {
		writeError(w, http.StatusInternalServerError, CodeServerError)
		return
	}

	h.logger.Info("Contact tagged from reward webhook", "wa_id", contact.WaID, "customer_code", code)
	writeJSON(w, http.StatusOK, map[string]any{"ok": true, "contact": contact.WaID})
}
