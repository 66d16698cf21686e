package store

import (
	"errors"
	"math"
	"testing"

	"whatsapp-crm/pkg/models"
)

func TestCreatePurchaseDefaults(t *testing.T) {
	s := newTestStore(t)

	p, err := s.CreatePurchase("whatsapp:+549111234567", 1500, "", "", map[string]any{"plan": "gold"})
	if err != nil {
		t.Fatalf("CreatePurchase: %v", err)
	}
	if p.ID == "" {
		t.Error("purchase id must be assigned")
	}
	if p.WaID != "549111234567" {
		t.Errorf("WaID = %q, want normalized", p.WaID)
	}
	if p.Currency != "ARS" {
		t.Errorf("Currency = %q, want ARS default", p.Currency)
	}
	if p.Source != "manual" {
		t.Errorf("Source = %q, want manual default", p.Source)
	}
	if p.CapiStatus != models.PurchaseStatusPending {
		t.Errorf("CapiStatus = %q, want pending", p.CapiStatus)
	}
	if p.CreatedAt == "" {
		t.Error("CreatedAt must be set")
	}
}

func TestCreatePurchaseRejectsInvalidAmounts(t *testing.T) {
	s := newTestStore(t)

	for _, amount := range []float64{-5, 0, math.NaN(), math.Inf(1), math.Inf(-1)} {
		if _, err := s.CreatePurchase("111", amount, "", "", nil); !errors.Is(err, ErrInvalidAmount) {
			t.Errorf("amount %v: err = %v, want ErrInvalidAmount", amount, err)
		}
	}

	has, err := s.HasPurchases("111")
	if err != nil {
		t.Fatalf("HasPurchases: %v", err)
	}
	if has {
		t.Error("rejected purchases must not be stored")
	}
}

func TestCreatePurchaseRejectsMissingID(t *testing.T) {
	s := newTestStore(t)

	if _, err := s.CreatePurchase("", 10, "", "", nil); !errors.Is(err, ErrMissingWaID) {
		t.Errorf("empty id: err = %v, want ErrMissingWaID", err)
	}
	if _, err := s.CreatePurchase("abc", 10, "", "", nil); !errors.Is(err, ErrMissingWaID) {
		t.Errorf("non-numeric id: err = %v, want ErrMissingWaID", err)
	}
}

func TestListPurchasesNewestFirstAndRawPreserved(t *testing.T) {
	s := newTestStore(t)

	if _, err := s.CreatePurchase("111", 100, "", "", nil); err != nil {
		t.Fatalf("first purchase: %v", err)
	}
	if _, err := s.CreatePurchase("111", 200, "", "", nil); err != nil {
		t.Fatalf("second purchase: %v", err)
	}
	// Corrupt slot at the head.
	if err := s.RDB.LPush(s.Ctx, purchasesKey("111"), "!!not json!!").Err(); err != nil {
		t.Fatalf("inject: %v", err)
	}

	purchases, err := s.ListPurchases("111", 10)
	if err != nil {
		t.Fatalf("ListPurchases: %v", err)
	}
	if len(purchases) != 3 {
		t.Fatalf("got %d entries, want 3 with raw slot kept", len(purchases))
	}
	if purchases[0].Raw != "!!not json!!" {
		t.Errorf("corrupt slot = %+v, want preserved as Raw", purchases[0])
	}
	if purchases[1].Amount != 200 || purchases[2].Amount != 100 {
		t.Errorf("order = [%v %v], want newest first", purchases[1].Amount, purchases[2].Amount)
	}
}

func TestUpdatePurchaseStatus(t *testing.T) {
	s := newTestStore(t)

	p, err := s.CreatePurchase("111", 100, "", "", nil)
	if err != nil {
		t.Fatalf("CreatePurchase: %v", err)
	}

	lastErr := "pixel rejected"
	if err := s.UpdatePurchaseStatus("111", p.ID, models.PurchaseStatusError, &lastErr, "click-1"); err != nil {
		t.Fatalf("UpdatePurchaseStatus: %v", err)
	}

	purchases, err := s.ListPurchases("111", 10)
	if err != nil {
		t.Fatalf("ListPurchases: %v", err)
	}
	got := purchases[0]
	if got.CapiStatus != models.PurchaseStatusError {
		t.Errorf("CapiStatus = %q", got.CapiStatus)
	}
	if got.CapiLastError == nil || *got.CapiLastError != lastErr {
		t.Errorf("CapiLastError = %v", got.CapiLastError)
	}
	if got.CtwaClid != "click-1" {
		t.Errorf("CtwaClid = %q", got.CtwaClid)
	}

	if err := s.UpdatePurchaseStatus("111", "missing-id", models.PurchaseStatusOK, nil, ""); !errors.Is(err, ErrNotFound) {
		t.Errorf("unknown purchase: err = %v, want ErrNotFound", err)
	}
}

func TestPurchasesBulk(t *testing.T) {
	s := newTestStore(t)

	if _, err := s.CreatePurchase("111", 100, "", "", nil); err != nil {
		t.Fatalf("CreatePurchase: %v", err)
	}

	result := s.PurchasesBulk([]string{"whatsapp:+111", "222", "not-a-number"})
	if !result["111"] {
		t.Error("contact 111 must report purchases")
	}
	if result["222"] {
		t.Error("contact 222 must not report purchases")
	}
	if result["not-a-number"] {
		t.Error("unparseable id must report false")
	}
}
