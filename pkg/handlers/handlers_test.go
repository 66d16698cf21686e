package handlers

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"

	"whatsapp-crm/config"
	"whatsapp-crm/pkg/auth"
	"whatsapp-crm/pkg/media"
	"whatsapp-crm/pkg/models"
	"whatsapp-crm/pkg/notify"
	"whatsapp-crm/pkg/store"
	"whatsapp-crm/pkg/twilio"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestStore(t *testing.T) *store.Store {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })
	return store.New(context.Background(), rdb, testLogger())
}

func testConfig() *config.Config {
	return &config.Config{
		Dashboard: config.DashboardConfig{User: "admin", Password: "secret"},
		JWT:       config.JWTConfig{Secret: "test-secret", Expiration: time.Hour},
		Twilio: config.TwilioConfig{
			Inboxes: map[string]config.InboxAccount{
				"ventas":  {From: "whatsapp:+5491150000001"},
				"soporte": {From: "whatsapp:+5491150000002"},
			},
		},
	}
}

func newWebhookHandler(t *testing.T, s *store.Store) *WebhookHandler {
	t.Helper()
	logger := testLogger()
	cfg := testConfig()
	return NewWebhookHandler(s, cfg, twilio.NewClient(logger),
		media.NewUploader(config.CloudinaryConfig{}, logger),
		notify.NewZapier("", logger), logger)
}

func inboundForm(overrides map[string]string) url.Values {
	form := url.Values{}
	form.Set("MessageSid", "SM100")
	form.Set("From", "whatsapp:+5491155550000")
	form.Set("To", "whatsapp:+5491150000001")
	form.Set("WaId", "5491155550000")
	form.Set("Body", "hola")
	form.Set("ProfileName", "Ana")
	for k, v := range overrides {
		form.Set(k, v)
	}
	return form
}

func postForm(t *testing.T, h http.HandlerFunc, form url.Values) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/api/webhook/twilio", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()
	h(rec, req)
	return rec
}

func TestTwilioInboundCreatesContactAndMessage(t *testing.T) {
	s := newTestStore(t)
	h := newWebhookHandler(t, s)

	rec := postForm(t, h.TwilioInbound, inboundForm(nil))
	if rec.Code != http.StatusNoContent {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}

	c, err := s.GetContact("5491155550000")
	if err != nil || c == nil {
		t.Fatalf("contact not stored: %v / %v", c, err)
	}
	if c.Name != "Ana" || c.LastText != "hola" {
		t.Errorf("contact = %+v", c)
	}
	if c.InboxID != "ventas" {
		t.Errorf("InboxID = %q, want inbox resolved from receiving number", c.InboxID)
	}
	if c.SourceType != models.SourceTypeOrganic {
		t.Errorf("SourceType = %q, want organic without ad referral", c.SourceType)
	}

	msgs, _, err := s.GetConversation("5491155550000", 0, nil)
	if err != nil || len(msgs) != 1 {
		t.Fatalf("messages = %v / %v", msgs, err)
	}
	if msgs[0].ID != "SM100" || msgs[0].Direction != models.DirectionIn {
		t.Errorf("message = %+v", msgs[0])
	}
}

func TestTwilioInboundRedelivery(t *testing.T) {
	s := newTestStore(t)
	h := newWebhookHandler(t, s)

	for i := 0; i < 2; i++ {
		rec := postForm(t, h.TwilioInbound, inboundForm(nil))
		if rec.Code != http.StatusNoContent {
			t.Fatalf("delivery %d: status %d", i, rec.Code)
		}
	}

	msgs, _, _ := s.GetConversation("5491155550000", 0, nil)
	if len(msgs) != 1 {
		t.Errorf("stored %d messages after redelivery, want 1", len(msgs))
	}
}

func TestTwilioInboundAdReferral(t *testing.T) {
	s := newTestStore(t)
	h := newWebhookHandler(t, s)

	form := inboundForm(map[string]string{
		"ReferralCtwaClid":   "click-abc",
		"ReferralSourceUrl":  "https://fb.me/ad?campaign_id=c1&adset_id=s1&ad_id=a1",
		"ReferralSourceType": "ad",
	})
	if rec := postForm(t, h.TwilioInbound, form); rec.Code != http.StatusNoContent {
		t.Fatalf("status = %d", rec.Code)
	}

	c, _ := s.GetContact("5491155550000")
	if c == nil {
		t.Fatal("contact missing")
	}
	if c.SourceType != models.SourceTypeAd || c.CtwaClid != "click-abc" {
		t.Errorf("attribution = source %q clid %q", c.SourceType, c.CtwaClid)
	}
	if c.CampaignID != "c1" || c.AdsetID != "s1" || c.AdID != "a1" {
		t.Errorf("referral ids = %q %q %q", c.CampaignID, c.AdsetID, c.AdID)
	}

	meta, err := s.GetMessageMeta("SM100")
	if err != nil {
		t.Fatalf("GetMessageMeta: %v", err)
	}
	if meta["ctwa_clid"] != "click-abc" || meta["source_type"] != models.SourceTypeAd {
		t.Errorf("message meta = %v", meta)
	}
}

func TestTwilioInboundAdContactStaysAd(t *testing.T) {
	s := newTestStore(t)
	h := newWebhookHandler(t, s)

	// First contact arrives from an ad.
	form := inboundForm(map[string]string{"ReferralCtwaClid": "click-abc"})
	postForm(t, h.TwilioInbound, form)

	// Later organic message must not downgrade the classification.
	form = inboundForm(map[string]string{"MessageSid": "SM101", "Body": "otra consulta"})
	postForm(t, h.TwilioInbound, form)

	c, _ := s.GetContact("5491155550000")
	if c == nil || c.SourceType != models.SourceTypeAd {
		t.Errorf("contact downgraded: %+v", c)
	}
}

// failFirstHGetAll makes the first HGETALL return an error and lets every
// later command through, simulating a transient read failure.
type failFirstHGetAll struct {
	tripped bool
}

func (f *failFirstHGetAll) BeforeProcess(ctx context.Context, cmd redis.Cmder) (context.Context, error) {
	if !f.tripped && cmd.Name() == "hgetall" {
		f.tripped = true
		return ctx, errors.New("connection reset by peer")
	}
	return ctx, nil
}

func (f *failFirstHGetAll) AfterProcess(ctx context.Context, cmd redis.Cmder) error { return nil }

func (f *failFirstHGetAll) BeforeProcessPipeline(ctx context.Context, cmds []redis.Cmder) (context.Context, error) {
	return ctx, nil
}

func (f *failFirstHGetAll) AfterProcessPipeline(ctx context.Context, cmds []redis.Cmder) error {
	return nil
}

func TestTwilioInboundReadFailureKeepsAdSource(t *testing.T) {
	s := newTestStore(t)
	h := newWebhookHandler(t, s)

	// Contact already attributed to an ad.
	form := inboundForm(map[string]string{"ReferralCtwaClid": "click-abc"})
	postForm(t, h.TwilioInbound, form)

	// Next message arrives with no referral while the contact read fails.
	s.RDB.AddHook(&failFirstHGetAll{})
	form = inboundForm(map[string]string{"MessageSid": "SM102", "Body": "hola de nuevo"})
	if rec := postForm(t, h.TwilioInbound, form); rec.Code != http.StatusNoContent {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}

	c, err := s.GetContact("5491155550000")
	if err != nil || c == nil {
		t.Fatalf("contact read back: %v / %v", c, err)
	}
	if c.SourceType != models.SourceTypeAd {
		t.Errorf("SourceType = %q, want ad preserved across a failed read", c.SourceType)
	}
}

func TestTwilioInboundCustomerCode(t *testing.T) {
	s := newTestStore(t)
	h := newWebhookHandler(t, s)

	form := inboundForm(map[string]string{"Body": "Mi código de bonus es: AB12CD34"})
	postForm(t, h.TwilioInbound, form)

	c, _ := s.GetContact("5491155550000")
	if c == nil || c.CustomerCode != "AB12CD34" {
		t.Errorf("customer code not captured: %+v", c)
	}
}

func TestTwilioInboundSoporteInbox(t *testing.T) {
	s := newTestStore(t)
	h := newWebhookHandler(t, s)

	form := inboundForm(map[string]string{"To": "whatsapp:+5491150000002"})
	postForm(t, h.TwilioInbound, form)

	c, _ := s.GetContact("5491155550000")
	if c == nil || c.InboxID != "soporte" {
		t.Errorf("inbox = %+v", c)
	}
}

func TestTwilioInboundMissingID(t *testing.T) {
	s := newTestStore(t)
	h := newWebhookHandler(t, s)

	form := inboundForm(map[string]string{"WaId": "", "From": "not-a-number"})
	rec := postForm(t, h.TwilioInbound, form)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400 for unusable sender id", rec.Code)
	}
}

func TestZapierInboundTagsContact(t *testing.T) {
	s := newTestStore(t)
	h := newWebhookHandler(t, s)

	if _, err := s.UpsertContact("111", map[string]string{models.FieldCustomerCode: "AB12CD34"}); err != nil {
		t.Fatalf("seed: %v", err)
	}

	req := httptest.NewRequest(http.MethodPost, "/api/webhook/zapier", strings.NewReader(`{"customer_code":"ab12cd34"}`))
	rec := httptest.NewRecorder()
	h.ZapierInbound(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}

	c, _ := s.GetContact("111")
	if c == nil || c.Tag != "Tracked" {
		t.Errorf("contact not tagged: %+v", c)
	}
}

func TestZapierInboundErrors(t *testing.T) {
	s := newTestStore(t)
	h := newWebhookHandler(t, s)

	req := httptest.NewRequest(http.MethodPost, "/api/webhook/zapier", strings.NewReader(`{"customer_code":"short"}`))
	rec := httptest.NewRecorder()
	h.ZapierInbound(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("short code: status %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), CodeInvalidCustomerCode) {
		t.Errorf("short code: body %s", rec.Body.String())
	}

	req = httptest.NewRequest(http.MethodPost, "/api/webhook/zapier", strings.NewReader(`{"customer_code":"ZZ99ZZ99"}`))
	rec = httptest.NewRecorder()
	h.ZapierInbound(rec, req)
	if rec.Code != http.StatusNotFound {
		t.Errorf("unknown code: status %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), CodeContactNotFound) {
		t.Errorf("unknown code: body %s", rec.Body.String())
	}
}

func TestLogin(t *testing.T) {
	auth.InitJWT("test-secret", time.Hour)
	h := NewAuthHandler(testConfig(), testLogger())

	req := httptest.NewRequest(http.MethodPost, "/api/auth/login", strings.NewReader(`{"username":"admin","password":"secret"}`))
	rec := httptest.NewRecorder()
	h.Login(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	if !strings.Contains(rec.Body.String(), `"token"`) {
		t.Errorf("body = %s", rec.Body.String())
	}

	req = httptest.NewRequest(http.MethodPost, "/api/auth/login", strings.NewReader(`{"username":"admin","password":"wrong"}`))
	rec = httptest.NewRecorder()
	h.Login(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("bad password: status %d", rec.Code)
	}
}
