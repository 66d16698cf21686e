package store

import (
	"encoding/json"
	"sort"
	"strconv"

	"whatsapp-crm/pkg/models"
)

// AppendMessage prepends the serialized message to the contact's list.
// When a dedupe key is supplied it is first added to the global dedupe set
// with a single atomic SADD; if the key was already present the append is a
// silent no-op and false is returned. This guards against the provider's
// at-least-once webhook delivery. The contact record is NOT touched here;
// callers pair this with UpsertContact (see SaveMessage).
func (s *Store) AppendMessage(waID string, msg *models.Message, dedupeKey string) (bool, error) {
	id := NormalizeID(waID)

	if dedupeKey != "" {
		added, err := s.RDB.SAdd(s.Ctx, dedupeSet, dedupeKey).Result()
		if err != nil {
			s.logger.Error("Failed to check message dedupe", "error", err, "dedupe_key", dedupeKey)
			return false, err
		}
		if added == 0 {
			s.logger.Debug("Duplicate message delivery ignored", "wa_id", id, "dedupe_key", dedupeKey)
			return false, nil
		}
	}

	data, err := json.Marshal(msg)
	if err != nil {
		return false, err
	}
	if err := s.RDB.LPush(s.Ctx, messagesKey(id), data).Err(); err != nil {
		s.logger.Error("Failed to append message", "error", err, "wa_id", id, "message_id", msg.ID)
		return false, err
	}

	s.logger.Debug("Message appended", "wa_id", id, "message_id", msg.ID, "direction", msg.Direction)
	return true, nil
}

// SaveMessage is the composite "record inbound/outbound event" path: append
// the message, then upsert the contact with the derived recency fields plus
// whatever the caller merged in. The two writes are intentionally separate
// calls with no cross-key atomicity; keeping them behind this single entry
// point minimizes the race window.
func (s *Store) SaveMessage(rawID string, msg *models.Message, contactPatch map[string]string, dedupeKey string) error {
	waID := NormalizeID(rawID)

	appended, err := s.AppendMessage(waID, msg, dedupeKey)
	if err != nil {
		return err
	}
	if !appended {
		return nil
	}

	inboxID := msg.InboxID
	if inboxID == "" {
		if msg.Direction == models.DirectionIn {
			inboxID = msg.To
		} else {
			inboxID = "ventas"
		}
	}

	patch := map[string]string{
		models.FieldWaID:          waID,
		models.FieldLastMessageAt: strconv.FormatInt(msg.Timestamp, 10),
		models.FieldLastText:      msg.Text,
		models.FieldInboxID:       inboxID,
	}
	for k, v := range contactPatch {
		patch[k] = v
	}

	if _, err := s.UpsertContact(waID, patch); err != nil {
		return err
	}

	if payload, err := json.Marshal(msg); err == nil {
		s.PublishEvent(SyncEvent{
			Type:    EventTypeMessage,
			InboxID: inboxID,
			WaID:    waID,
			Payload: payload,
		})
	}
	return nil
}

// wireMessage detects structurally invalid entries: a message needs an id,
// a timestamp and a present (possibly empty) text field.
type wireMessage struct {
	ID        string  `json:"id"`
	From      string  `json:"from"`
	To        string  `json:"to"`
	Text      *string `json:"text"`
	Timestamp int64   `json:"timestamp"`
	Direction string  `json:"direction"`
	InboxID   string  `json:"inbox_id"`
	MediaURL  string  `json:"media_url"`
	MediaType string  `json:"media_type"`
}

func parseMessage(raw string) (*models.Message, bool) {
	var w wireMessage
	if err := json.Unmarshal([]byte(raw), &w); err != nil {
		return nil, false
	}
	if w.ID == "" || w.Timestamp == 0 || w.Text == nil {
		return nil, false
	}
	return &models.Message{
		ID:        w.ID,
		From:      w.From,
		To:        w.To,
		Text:      *w.Text,
		Timestamp: w.Timestamp,
		Direction: w.Direction,
		InboxID:   w.InboxID,
		MediaURL:  w.MediaURL,
		MediaType: w.MediaType,
	}, true
}

// GetConversation reads a page of the contact's message list. A nil limit
// returns the whole history. Entries that fail to parse are silently
// dropped, and the page is re-sorted ascending by timestamp before return.
//
// nextOffset advances by the raw page length in storage order, before the
// parse filter, so a page with corrupt entries can return fewer than limit
// messages while still advertising a continuation. Documented behavior.
//
// A storage read failure degrades to an empty result: this is a CRM
// convenience view, not a ledger of record.
func (s *Store) GetConversation(waID string, offset int, limit *int) ([]*models.Message, *int, error) {
	id := NormalizeID(waID)

	var raw []string
	var err error
	if limit == nil {
		raw, err = s.RDB.LRange(s.Ctx, messagesKey(id), 0, -1).Result()
	} else {
		raw, err = s.RDB.LRange(s.Ctx, messagesKey(id), int64(offset), int64(offset+*limit-1)).Result()
	}
	if err != nil {
		s.logger.Warn("Failed to read conversation, returning empty", "error", err, "wa_id", id)
		return []*models.Message{}, nil, nil
	}

	parsed := make([]*models.Message, 0, len(raw))
	for _, r := range raw {
		if m, ok := parseMessage(r); ok {
			parsed = append(parsed, m)
		}
	}

	sort.SliceStable(parsed, func(i, j int) bool {
		return parsed[i].Timestamp < parsed[j].Timestamp
	})

	var next *int
	if limit != nil && len(raw) == *limit {
		n := offset + *limit
		next = &n
	}
	return parsed, next, nil
}

// GetContactWithMessages serves the conversation view: contact plus one
// message page, optionally filtered by inbox. The filter runs after
// pagination, so a filtered page can come back short even when more
// matching messages exist further down the list. Documented limitation.
func (s *Store) GetContactWithMessages(waID string, offset int, limit *int, inboxID string) (*models.Contact, []*models.Message, *int, error) {
	contact, err := s.GetContact(waID)
	if err != nil {
		return nil, nil, nil, err
	}
	if contact == nil {
		return nil, nil, nil, nil
	}

	messages, next, err := s.GetConversation(waID, offset, limit)
	if err != nil {
		return nil, nil, nil, err
	}

	if inboxID != "" {
		filtered := messages[:0]
		for _, m := range messages {
			if m.InboxID == inboxID {
				filtered = append(filtered, m)
			}
		}
		messages = filtered
	}
	return contact, messages, next, nil
}

// SetMessageMeta attaches attribution fields to a specific message.
func (s *Store) SetMessageMeta(messageID string, meta *models.MessageMeta) error {
	args := make(map[string]interface{})
	for k, v := range meta.Fields() {
		args[k] = v
	}
	if err := s.RDB.HSet(s.Ctx, messageMetaKey(messageID), args).Err(); err != nil {
		s.logger.Warn("Failed to save message meta", "error", err, "message_id", messageID)
		return err
	}
	return nil
}

func (s *Store) GetMessageMeta(messageID string) (map[string]string, error) {
	return s.RDB.HGetAll(s.Ctx, messageMetaKey(messageID)).Result()
}

// RepairReport summarizes one list rewritten by RepairMessages.
type RepairReport struct {
	Key     string `json:"key"`
	Total   int    `json:"total"`
	Kept    int    `json:"kept"`
	Removed int    `json:"removed"`
}

// RepairMessages is the reconciliation sweep over every message list: valid
// JSON entries are kept in order, garbage is dropped, and each list is
// rewritten. Per-key failures skip and continue.
func (s *Store) RepairMessages() ([]RepairReport, error) {
	keys, err := s.RDB.Keys(s.Ctx, "messages:*").Result()
	if err != nil {
		return nil, err
	}

	var report []RepairReport
	for _, key := range keys {
		items, err := s.RDB.LRange(s.Ctx, key, 0, -1).Result()
		if err != nil {
			s.logger.Warn("Skipping unreadable message list", "error", err, "key", key)
			continue
		}

		var keep []interface{}
		for _, it := range items {
			if json.Valid([]byte(it)) {
				keep = append(keep, it)
			}
		}

		if err := s.RDB.Del(s.Ctx, key).Err(); err != nil {
			s.logger.Warn("Failed to reset message list", "error", err, "key", key)
			continue
		}
		if len(keep) > 0 {
			if err := s.RDB.RPush(s.Ctx, key, keep...).Err(); err != nil {
				s.logger.Error("Failed to rewrite message list", "error", err, "key", key)
				continue
			}
		}
		report = append(report, RepairReport{
			Key:     key,
			Total:   len(items),
			Kept:    len(keep),
			Removed: len(items) - len(keep),
		})
	}
	return report, nil
}
