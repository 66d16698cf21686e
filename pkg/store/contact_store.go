package store

import (
	"strconv"
	"strings"

	"github.com/go-redis/redis/v8"

	"whatsapp-crm/pkg/models"
)

// UpsertContact merges patch over the stored hash (flat key overwrite,
// absent keys preserved) and rewrites the hash together with the recency
// index entry in a single MULTI/EXEC, so a concurrent reader never sees one
// without the other. Returns the merged record.
func (s *Store) UpsertContact(waID string, patch map[string]string) (*models.Contact, error) {
	id := NormalizeID(waID)
	key := contactKey(id)

	prev, err := s.RDB.HGetAll(s.Ctx, key).Result()
	if err != nil {
		s.logger.Error("Failed to read contact for upsert", "error", err, "wa_id", id)
		return nil, err
	}

	merged := map[string]string{
		models.FieldWaID:          id,
		models.FieldLastMessageAt: "0",
		models.FieldLastText:      "",
	}
	for k, v := range prev {
		merged[k] = v
	}
	for k, v := range patch {
		merged[k] = v
	}
	merged[models.FieldWaID] = id

	score, _ := strconv.ParseInt(merged[models.FieldLastMessageAt], 10, 64)

	fields := make(map[string]interface{}, len(merged))
	for k, v := range merged {
		fields[k] = v
	}

	_, err = s.RDB.TxPipelined(s.Ctx, func(pipe redis.Pipeliner) error {
		pipe.HSet(s.Ctx, key, fields)
		pipe.ZAdd(s.Ctx, idxContacts, &redis.Z{Score: float64(score), Member: id})
		return nil
	})
	if err != nil {
		s.logger.Error("Failed to upsert contact", "error", err, "wa_id", id)
		return nil, err
	}

	s.logger.Debug("Contact upserted", "wa_id", id, "last_message_at", score)
	return models.ContactFromFields(merged), nil
}

// GetContact returns the stored record, or nil when no hash exists.
func (s *Store) GetContact(waID string) (*models.Contact, error) {
	id := NormalizeID(waID)
	fields, err := s.RDB.HGetAll(s.Ctx, contactKey(id)).Result()
	if err != nil {
		s.logger.Error("Failed to get contact", "error", err, "wa_id", id)
		return nil, err
	}
	if len(fields) == 0 {
		return nil, nil
	}
	return models.ContactFromFields(fields), nil
}

// SetContactFields writes individual hash fields without touching the
// recency index. Only for score-neutral fields (inbox assignment, tags);
// anything involving lastMessageAt must go through UpsertContact.
func (s *Store) SetContactFields(waID string, fields map[string]string) error {
	id := NormalizeID(waID)
	args := make(map[string]interface{}, len(fields))
	for k, v := range fields {
		args[k] = v
	}
	if err := s.RDB.HSet(s.Ctx, contactKey(id), args).Err(); err != nil {
		s.logger.Error("Failed to set contact fields", "error", err, "wa_id", id)
		return err
	}
	return nil
}

// ListContacts pages the recency index, most recently active first. The
// cursor is an offset into the index; nextCursor is nil once a page comes
// back short. A contact whose hash cannot be fetched is skipped rather than
// failing the listing.
func (s *Store) ListContacts(cursor, limit int) ([]*models.Contact, *int, error) {
	members, err := s.RDB.ZRevRange(s.Ctx, idxContacts, int64(cursor), int64(cursor+limit-1)).Result()
	if err != nil {
		s.logger.Error("Failed to read contacts index", "error", err, "cursor", cursor)
		return nil, nil, err
	}

	out := make([]*models.Contact, 0, len(members))
	for _, member := range members {
		// Index members are the stored key suffixes; historical entries may
		// predate normalization, so they are used as-is here.
		fields, err := s.RDB.HGetAll(s.Ctx, contactKey(member)).Result()
		if err != nil {
			s.logger.Warn("Skipping contact with unreadable hash", "error", err, "member", member)
			continue
		}
		if len(fields) == 0 {
			continue
		}
		out = append(out, models.ContactFromFields(fields))
	}

	var next *int
	if len(members) == limit {
		n := cursor + limit
		next = &n
	}
	return out, next, nil
}

// DeleteReport describes what a contact delete touched.
type DeleteReport struct {
	Keys             []string `json:"keys"`
	RemovedFromIndex []string `json:"removedFromIndex"`
}

// DeleteKeysPreview lists the keys a delete would remove, resolving the
// stored (possibly non-normalized) index variant first.
func (s *Store) DeleteKeysPreview(waID string) []string {
	idNum := NormalizeID(waID)
	stored := s.resolveStoredWaID(idNum)
	if stored == "" {
		return nil
	}
	return deleteKeySet(stored, idNum)
}

// DeleteContact removes the contact hash, message list and purchase list
// for every stored variant whose digit-stripped form equals the target id,
// plus all matching index entries. Idempotent: deleting a contact that does
// not exist succeeds with an empty report.
func (s *Store) DeleteContact(waID string) (*DeleteReport, error) {
	idNum := NormalizeID(waID)
	stored := s.resolveStoredWaID(idNum)
	if stored == "" {
		return &DeleteReport{}, nil
	}

	keys := deleteKeySet(stored, idNum)
	for _, k := range keys {
		if err := s.RDB.Del(s.Ctx, k).Err(); err != nil {
			s.logger.Warn("Failed to delete key", "error", err, "key", k)
		}
	}

	members, err := s.RDB.ZRange(s.Ctx, idxContacts, 0, -1).Result()
	if err != nil {
		s.logger.Warn("Failed to read index for delete", "error", err, "wa_id", idNum)
		members = nil
	}
	var toRemove []string
	for _, m := range members {
		if NormalizeID(m) == idNum {
			toRemove = append(toRemove, m)
		}
	}
	if len(toRemove) > 0 {
		args := make([]interface{}, len(toRemove))
		for i, m := range toRemove {
			args[i] = m
		}
		if err := s.RDB.ZRem(s.Ctx, idxContacts, args...).Err(); err != nil {
			s.logger.Warn("Failed to remove index entries", "error", err, "wa_id", idNum)
		}
	}

	s.logger.Info("Contact deleted", "wa_id", idNum, "keys", len(keys), "index_entries", len(toRemove))
	return &DeleteReport{Keys: keys, RemovedFromIndex: toRemove}, nil
}

// resolveStoredWaID finds the index member that numerically matches the
// target id; older data may have been written under a formatted variant
// such as "+549111234".
func (s *Store) resolveStoredWaID(idNum string) string {
	if idNum == "" {
		return ""
	}
	members, err := s.RDB.ZRange(s.Ctx, idxContacts, 0, -1).Result()
	if err != nil {
		s.logger.Warn("Failed to scan index for stored variant", "error", err, "wa_id", idNum)
		return idNum
	}
	for _, m := range members {
		if NormalizeID(m) == idNum {
			return m
		}
	}
	return idNum
}

func deleteKeySet(stored, idNum string) []string {
	keys := []string{
		contactKey(stored),
		messagesKey(stored),
		purchasesKey(stored),
	}
	if stored != idNum {
		keys = append(keys,
			contactKey(idNum),
			messagesKey(idNum),
			purchasesKey(idNum),
		)
	}
	return keys
}

// FindContactByCustomerCode scans contact hashes for a case-insensitive
// customer_code match. Scan cost is acceptable: codes arrive from a
// low-volume reward webhook.
func (s *Store) FindContactByCustomerCode(code string) (*models.Contact, error) {
	want := strings.ToUpper(strings.TrimSpace(code))
	if want == "" {
		return nil, nil
	}

	keys, err := s.RDB.Keys(s.Ctx, "contact:*").Result()
	if err != nil {
		s.logger.Error("Failed to list contact keys", "error", err)
		return nil, err
	}

	for _, key := range keys {
		fields, err := s.RDB.HGetAll(s.Ctx, key).Result()
		if err != nil {
			s.logger.Warn("Skipping unreadable contact", "error", err, "key", key)
			continue
		}
		if strings.ToUpper(fields[models.FieldCustomerCode]) == want {
			return models.ContactFromFields(fields), nil
		}
	}
	return nil, nil
}
