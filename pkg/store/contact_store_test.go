package store

import (
	"fmt"
	"testing"

	"github.com/go-redis/redis/v8"

	"whatsapp-crm/pkg/models"
)

func TestUpsertContactCreatesWithDefaults(t *testing.T) {
	s := newTestStore(t)

	c, err := s.UpsertContact("whatsapp:+549111234567", map[string]string{
		models.FieldName: "Ana",
	})
	if err != nil {
		t.Fatalf("UpsertContact: %v", err)
	}
	if c.WaID != "549111234567" {
		t.Errorf("WaID = %q, want normalized id", c.WaID)
	}
	if c.LastMessageAt != 0 {
		t.Errorf("LastMessageAt = %d, want 0 default", c.LastMessageAt)
	}
	if c.Name != "Ana" {
		t.Errorf("Name = %q", c.Name)
	}
}

func TestUpsertContactMergePreservesAbsentFields(t *testing.T) {
	s := newTestStore(t)

	if _, err := s.UpsertContact("111", map[string]string{
		models.FieldName:     "Ana",
		models.FieldCtwaClid: "click-1",
	}); err != nil {
		t.Fatalf("first upsert: %v", err)
	}
	if _, err := s.UpsertContact("111", map[string]string{
		models.FieldLastText: "hola",
	}); err != nil {
		t.Fatalf("second upsert: %v", err)
	}

	c, err := s.GetContact("111")
	if err != nil {
		t.Fatalf("GetContact: %v", err)
	}
	if c == nil {
		t.Fatal("contact missing after upsert")
	}
	if c.Name != "Ana" || c.CtwaClid != "click-1" {
		t.Errorf("absent fields not preserved: name=%q clid=%q", c.Name, c.CtwaClid)
	}
	if c.LastText != "hola" {
		t.Errorf("LastText = %q, want patched value", c.LastText)
	}
}

func TestUpsertContactUpdatesIndexScore(t *testing.T) {
	s := newTestStore(t)

	if _, err := s.UpsertContact("111", map[string]string{models.FieldLastMessageAt: "1000"}); err != nil {
		t.Fatalf("upsert 111: %v", err)
	}
	if _, err := s.UpsertContact("222", map[string]string{models.FieldLastMessageAt: "2000"}); err != nil {
		t.Fatalf("upsert 222: %v", err)
	}
	if _, err := s.UpsertContact("111", map[string]string{models.FieldLastMessageAt: "3000"}); err != nil {
		t.Fatalf("re-upsert 111: %v", err)
	}

	contacts, _, err := s.ListContacts(0, 10)
	if err != nil {
		t.Fatalf("ListContacts: %v", err)
	}
	if len(contacts) != 2 {
		t.Fatalf("got %d contacts, want 2", len(contacts))
	}
	if contacts[0].WaID != "111" || contacts[1].WaID != "222" {
		t.Errorf("order = [%s %s], want most recent first", contacts[0].WaID, contacts[1].WaID)
	}
}

func TestGetContactMissing(t *testing.T) {
	s := newTestStore(t)

	c, err := s.GetContact("999")
	if err != nil {
		t.Fatalf("GetContact: %v", err)
	}
	if c != nil {
		t.Errorf("got %+v, want nil for missing contact", c)
	}
}

func TestListContactsPagination(t *testing.T) {
	s := newTestStore(t)

	for i := 0; i < 5; i++ {
		id := fmt.Sprintf("10%d", i)
		ts := fmt.Sprintf("%d", 1000+i)
		if _, err := s.UpsertContact(id, map[string]string{models.FieldLastMessageAt: ts}); err != nil {
			t.Fatalf("seed %s: %v", id, err)
		}
	}

	page1, next, err := s.ListContacts(0, 2)
	if err != nil {
		t.Fatalf("page 1: %v", err)
	}
	if len(page1) != 2 || next == nil || *next != 2 {
		t.Fatalf("page 1 = %d items, next %v", len(page1), next)
	}
	if page1[0].WaID != "104" {
		t.Errorf("page 1 head = %s, want newest", page1[0].WaID)
	}

	page2, next, err := s.ListContacts(*next, 2)
	if err != nil {
		t.Fatalf("page 2: %v", err)
	}
	if len(page2) != 2 || next == nil {
		t.Fatalf("page 2 = %d items, next %v", len(page2), next)
	}

	page3, next, err := s.ListContacts(*next, 2)
	if err != nil {
		t.Fatalf("page 3: %v", err)
	}
	if len(page3) != 1 {
		t.Fatalf("page 3 = %d items, want 1", len(page3))
	}
	if next != nil {
		t.Errorf("short page must terminate the cursor, got %d", *next)
	}
}

func TestSetContactFieldsDoesNotTouchIndex(t *testing.T) {
	s := newTestStore(t)

	if _, err := s.UpsertContact("111", map[string]string{models.FieldLastMessageAt: "5000"}); err != nil {
		t.Fatalf("upsert: %v", err)
	}
	if err := s.SetContactFields("111", map[string]string{models.FieldTag: "Tracked"}); err != nil {
		t.Fatalf("SetContactFields: %v", err)
	}

	c, err := s.GetContact("111")
	if err != nil || c == nil {
		t.Fatalf("GetContact: %v / %v", c, err)
	}
	if c.Tag != "Tracked" {
		t.Errorf("Tag = %q", c.Tag)
	}
	if c.LastMessageAt != 5000 {
		t.Errorf("LastMessageAt = %d, must be untouched", c.LastMessageAt)
	}
}

func TestDeleteContactRemovesAllKeys(t *testing.T) {
	s := newTestStore(t)

	if _, err := s.UpsertContact("111", map[string]string{models.FieldLastMessageAt: "1"}); err != nil {
		t.Fatalf("upsert: %v", err)
	}
	if _, err := s.AppendMessage("111", &models.Message{ID: "m1", Text: "hi", Timestamp: 1}, ""); err != nil {
		t.Fatalf("append: %v", err)
	}
	if _, err := s.CreatePurchase("111", 10, "", "", nil); err != nil {
		t.Fatalf("purchase: %v", err)
	}

	report, err := s.DeleteContact("whatsapp:111")
	if err != nil {
		t.Fatalf("DeleteContact: %v", err)
	}
	if len(report.RemovedFromIndex) != 1 {
		t.Errorf("RemovedFromIndex = %v", report.RemovedFromIndex)
	}

	if c, _ := s.GetContact("111"); c != nil {
		t.Error("contact hash survived delete")
	}
	msgs, _, _ := s.GetConversation("111", 0, nil)
	if len(msgs) != 0 {
		t.Errorf("%d messages survived delete", len(msgs))
	}
	has, _ := s.HasPurchases("111")
	if has {
		t.Error("purchases survived delete")
	}
	contacts, _, _ := s.ListContacts(0, 10)
	if len(contacts) != 0 {
		t.Errorf("%d index entries survived delete", len(contacts))
	}
}

func TestDeleteContactHistoricalVariant(t *testing.T) {
	s := newTestStore(t)

	// Older writers stored the formatted number as the index member and key
	// suffix; deleting by the digit-only id must still find and remove it.
	if err := s.RDB.ZAdd(s.Ctx, idxContacts, &redis.Z{Score: 1000, Member: "+549111234"}).Err(); err != nil {
		t.Fatalf("seed index: %v", err)
	}
	if err := s.RDB.HSet(s.Ctx, contactKey("+549111234"), map[string]interface{}{
		models.FieldWaID: "+549111234",
		models.FieldName: "Ana",
	}).Err(); err != nil {
		t.Fatalf("seed hash: %v", err)
	}
	if err := s.RDB.RPush(s.Ctx, messagesKey("+549111234"), `{"id":"m1"}`).Err(); err != nil {
		t.Fatalf("seed messages: %v", err)
	}
	if err := s.RDB.RPush(s.Ctx, purchasesKey("549111234"), `{"amount":10}`).Err(); err != nil {
		t.Fatalf("seed purchases: %v", err)
	}

	report, err := s.DeleteContact("549111234")
	if err != nil {
		t.Fatalf("DeleteContact: %v", err)
	}
	if len(report.RemovedFromIndex) != 1 || report.RemovedFromIndex[0] != "+549111234" {
		t.Errorf("RemovedFromIndex = %v, want the stored variant", report.RemovedFromIndex)
	}

	for _, variant := range []string{"+549111234", "549111234"} {
		for _, key := range []string{contactKey(variant), messagesKey(variant), purchasesKey(variant)} {
			n, err := s.RDB.Exists(s.Ctx, key).Result()
			if err != nil {
				t.Fatalf("EXISTS %s: %v", key, err)
			}
			if n != 0 {
				t.Errorf("key %s survived delete", key)
			}
		}
	}
	contacts, _, _ := s.ListContacts(0, 10)
	if len(contacts) != 0 {
		t.Errorf("%d index entries survived delete", len(contacts))
	}
}

func TestDeleteContactMissingIsIdempotent(t *testing.T) {
	s := newTestStore(t)

	report, err := s.DeleteContact("404404")
	if err != nil {
		t.Fatalf("DeleteContact: %v", err)
	}
	if len(report.RemovedFromIndex) != 0 {
		t.Errorf("RemovedFromIndex = %v, want empty", report.RemovedFromIndex)
	}
}

func TestFindContactByCustomerCode(t *testing.T) {
	s := newTestStore(t)

	if _, err := s.UpsertContact("111", map[string]string{models.FieldCustomerCode: "AB12CD34"}); err != nil {
		t.Fatalf("upsert: %v", err)
	}

	c, err := s.FindContactByCustomerCode("ab12cd34")
	if err != nil {
		t.Fatalf("FindContactByCustomerCode: %v", err)
	}
	if c == nil || c.WaID != "111" {
		t.Fatalf("got %+v, want contact 111", c)
	}

	c, err = s.FindContactByCustomerCode("ZZZZZZZZ")
	if err != nil {
		t.Fatalf("FindContactByCustomerCode: %v", err)
	}
	if c != nil {
		t.Errorf("got %+v for unknown code, want nil", c)
	}
}
