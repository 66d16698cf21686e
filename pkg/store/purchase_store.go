package store

import (
	"encoding/json"
	"errors"
	"math"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"

	"whatsapp-crm/pkg/models"
)

var (
	ErrInvalidAmount = errors.New("invalid amount")
	ErrMissingWaID   = errors.New("missing wa_id")
	ErrNotFound      = errors.New("not found")
)

// CreatePurchase validates and appends a new pending purchase to the
// contact's list.
func (s *Store) CreatePurchase(waID string, amount float64, currency, source string, meta map[string]any) (*models.Purchase, error) {
	id := NormalizeID(waID)
	if id == "" {
		return nil, ErrMissingWaID
	}
	if math.IsNaN(amount) || math.IsInf(amount, 0) || amount <= 0 {
		return nil, ErrInvalidAmount
	}

	if currency == "" {
		currency = "ARS"
	}
	if source == "" {
		source = "manual"
	}

	p := &models.Purchase{
		ID:         uuid.New().String(),
		WaID:       id,
		Amount:     amount,
		Currency:   currency,
		Source:     source,
		CreatedAt:  time.Now().UTC().Format(time.RFC3339),
		Meta:       meta,
		CapiStatus: models.PurchaseStatusPending,
	}

	data, err := json.Marshal(p)
	if err != nil {
		return nil, err
	}
	if err := s.RDB.LPush(s.Ctx, purchasesKey(id), data).Err(); err != nil {
		s.logger.Error("Failed to save purchase", "error", err, "wa_id", id, "purchase_id", p.ID)
		return nil, err
	}

	s.logger.Info("Purchase recorded", "wa_id", id, "purchase_id", p.ID, "amount", amount, "currency", currency)
	return p, nil
}

// ListPurchases returns up to limit purchases, most recent first. Entries
// that fail to parse are preserved as raw/opaque slots instead of being
// dropped: purchases must remain visible for audit even when malformed.
func (s *Store) ListPurchases(waID string, limit int) ([]*models.Purchase, error) {
	id := NormalizeID(waID)

	stop := int64(-1)
	if limit > 0 {
		stop = int64(limit - 1)
	}
	raw, err := s.RDB.LRange(s.Ctx, purchasesKey(id), 0, stop).Result()
	if err != nil {
		s.logger.Error("Failed to read purchases", "error", err, "wa_id", id)
		return nil, err
	}

	out := make([]*models.Purchase, 0, len(raw))
	for _, r := range raw {
		var p models.Purchase
		if err := json.Unmarshal([]byte(r), &p); err != nil || p.ID == "" {
			out = append(out, &models.Purchase{Raw: r})
			continue
		}
		out = append(out, &p)
	}
	return out, nil
}

// UpdatePurchaseStatus locates the purchase by id and rewrites that single
// list slot in place. The list has no per-element key lookup, so this is a
// find-by-id-then-LSET-by-position operation. Intended to be applied at
// most once per purchase, after the downstream reporting attempt.
func (s *Store) UpdatePurchaseStatus(waID, purchaseID, status string, lastError *string, clid string) error {
	id := NormalizeID(waID)
	key := purchasesKey(id)

	raw, err := s.RDB.LRange(s.Ctx, key, 0, -1).Result()
	if err != nil {
		s.logger.Error("Failed to read purchases for update", "error", err, "wa_id", id)
		return err
	}

	for i, r := range raw {
		var p models.Purchase
		if err := json.Unmarshal([]byte(r), &p); err != nil || p.ID != purchaseID {
			continue
		}

		p.CapiStatus = status
		p.CapiLastError = lastError
		if clid != "" {
			p.CtwaClid = clid
		}

		data, err := json.Marshal(&p)
		if err != nil {
			return err
		}
		if err := s.RDB.LSet(s.Ctx, key, int64(i), data).Err(); err != nil {
			s.logger.Error("Failed to rewrite purchase slot", "error", err, "wa_id", id, "purchase_id", purchaseID, "index", i)
			return err
		}
		s.logger.Info("Purchase status updated", "wa_id", id, "purchase_id", purchaseID, "status", status)
		return nil
	}
	return ErrNotFound
}

// HasPurchases probes the head of the list; knowing one exists is enough.
func (s *Store) HasPurchases(waID string) (bool, error) {
	id := NormalizeID(waID)
	err := s.RDB.LIndex(s.Ctx, purchasesKey(id), 0).Err()
	if err == nil {
		return true, nil
	}
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	return false, err
}

// PurchasesBulk answers "does this contact have any purchase" for a batch
// of ids. Per-id failures report false rather than failing the batch.
func (s *Store) PurchasesBulk(waIDs []string) map[string]bool {
	result := make(map[string]bool, len(waIDs))
	for _, rawID := range waIDs {
		id := NormalizeID(rawID)
		if id == "" {
			result[rawID] = false
			continue
		}
		has, err := s.HasPurchases(id)
		if err != nil {
			s.logger.Warn("Purchase probe failed", "error", err, "wa_id", id)
			has = false
		}
		result[id] = has
	}
	return result
}
