package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"whatsapp-crm/pkg/notify"
	"whatsapp-crm/pkg/store"
)

func newPurchaseHandler(t *testing.T) (*PurchaseHandler, *store.Store) {
	t.Helper()
	s := newTestStore(t)
	return NewPurchaseHandler(s, notify.NewZapier("", testLogger()), testLogger()), s
}

func postPurchase(t *testing.T, h *PurchaseHandler, waID, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/api/"+waID+"/events/purchase", strings.NewReader(body))
	req.SetPathValue("waId", waID)
	rec := httptest.NewRecorder()
	h.CreatePurchase(rec, req)
	return rec
}

func TestCreatePurchaseEndpoint(t *testing.T) {
	h, s := newPurchaseHandler(t)

	rec := postPurchase(t, h, "5491155550000", `{"amount": 2500}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	if rec.Header().Get("Access-Control-Allow-Origin") != "*" {
		t.Error("purchase endpoint must answer cross-origin callers")
	}

	purchases, err := s.ListPurchases("5491155550000", 10)
	if err != nil || len(purchases) != 1 {
		t.Fatalf("purchases = %v / %v", purchases, err)
	}
	if purchases[0].Amount != 2500 || purchases[0].Currency != "ARS" {
		t.Errorf("purchase = %+v", purchases[0])
	}
}

func TestCreatePurchaseEndpointIDFromBody(t *testing.T) {
	h, s := newPurchaseHandler(t)

	rec := postPurchase(t, h, "-", `{"waId": "whatsapp:+5491155550000", "amount": 100}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}

	has, _ := s.HasPurchases("5491155550000")
	if !has {
		t.Error("purchase not stored under the body id")
	}
}

func TestCreatePurchaseEndpointErrors(t *testing.T) {
	h, _ := newPurchaseHandler(t)

	cases := []struct {
		name     string
		waID     string
		body     string
		status   int
		wantCode string
	}{
		{"negative amount", "111", `{"amount": -5}`, http.StatusBadRequest, CodeInvalidAmount},
		{"zero amount", "111", `{"amount": 0}`, http.StatusBadRequest, CodeInvalidAmount},
		{"missing amount", "111", `{}`, http.StatusBadRequest, CodeInvalidAmount},
		{"missing id", "-", `{"amount": 10}`, http.StatusBadRequest, CodeMissingWaID},
		{"malformed body", "111", `{not json`, http.StatusBadRequest, CodeInvalidRequest},
	}
	for _, c := range cases {
		rec := postPurchase(t, h, c.waID, c.body)
		if rec.Code != c.status {
			t.Errorf("%s: status = %d, want %d", c.name, rec.Code, c.status)
		}
		var resp errorResponse
		if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
			t.Errorf("%s: bad error body %s", c.name, rec.Body.String())
			continue
		}
		if resp.OK || resp.Error != c.wantCode {
			t.Errorf("%s: error = %+v, want code %s", c.name, resp, c.wantCode)
		}
	}
}

func TestPurchasesBulkEndpoint(t *testing.T) {
	h, s := newPurchaseHandler(t)

	if _, err := s.CreatePurchase("111", 50, "", "", nil); err != nil {
		t.Fatalf("seed: %v", err)
	}

	req := httptest.NewRequest(http.MethodPost, "/api/purchases-bulk", strings.NewReader(`{"waIds":["111","222"]}`))
	rec := httptest.NewRecorder()
	h.PurchasesBulk(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}

	var resp struct {
		OK     bool            `json:"ok"`
		Result map[string]bool `json:"result"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("body: %v", err)
	}
	if !resp.Result["111"] || resp.Result["222"] {
		t.Errorf("result = %v", resp.Result)
	}
}
