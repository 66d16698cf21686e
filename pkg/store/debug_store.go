package store

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// KeyDump is a type-aware view of one key, for the admin peek endpoint.
type KeyDump struct {
	Key    string            `json:"key"`
	Type   string            `json:"type"`
	TTL    string            `json:"ttl,omitempty"`
	Value  string            `json:"value,omitempty"`
	Hash   map[string]string `json:"hash,omitempty"`
	List   []string          `json:"list,omitempty"`
	Set    []string          `json:"set,omitempty"`
	ZSet   []string          `json:"zset,omitempty"`
	Length int64             `json:"length"`
}

// PeekKey inspects a single key regardless of its type. Missing keys come
// back with Type "none".
func (s *Store) PeekKey(key string) (*KeyDump, error) {
	keyType, err := s.RDB.Type(s.Ctx, key).Result()
	if err != nil {
		return nil, err
	}

	dump := &KeyDump{Key: key, Type: keyType}
	if ttl, err := s.RDB.TTL(s.Ctx, key).Result(); err == nil && ttl > 0 {
		dump.TTL = ttl.String()
	}

	switch keyType {
	case "string":
		dump.Value, err = s.RDB.Get(s.Ctx, key).Result()
		dump.Length = int64(len(dump.Value))
	case "hash":
		dump.Hash, err = s.RDB.HGetAll(s.Ctx, key).Result()
		dump.Length = int64(len(dump.Hash))
	case "list":
		dump.Length, _ = s.RDB.LLen(s.Ctx, key).Result()
		dump.List, err = s.RDB.LRange(s.Ctx, key, 0, 49).Result()
	case "set":
		dump.Length, _ = s.RDB.SCard(s.Ctx, key).Result()
		dump.Set, err = s.RDB.SRandMemberN(s.Ctx, key, 50).Result()
	case "zset":
		dump.Length, _ = s.RDB.ZCard(s.Ctx, key).Result()
		dump.ZSet, err = s.RDB.ZRevRange(s.Ctx, key, 0, 49).Result()
	case "none":
		return dump, nil
	}
	if err != nil {
		return nil, err
	}
	return dump, nil
}

// SmokeTest writes, reads back and deletes a throwaway key to prove the
// store is reachable end to end.
func (s *Store) SmokeTest() error {
	key := fmt.Sprintf("smoke:%s", uuid.New().String())
	want := time.Now().UTC().Format(time.RFC3339Nano)

	if err := s.RDB.Set(s.Ctx, key, want, time.Minute).Err(); err != nil {
		return fmt.Errorf("smoke set: %w", err)
	}
	got, err := s.RDB.Get(s.Ctx, key).Result()
	if err != nil {
		return fmt.Errorf("smoke get: %w", err)
	}
	if got != want {
		return fmt.Errorf("smoke roundtrip mismatch: wrote %q, read %q", want, got)
	}
	return s.RDB.Del(s.Ctx, key).Err()
}

// PurgeContacts deletes every CRM key: contacts, messages, purchases,
// message metadata, the recency index and the dedupe set. Destructive,
// admin-only.
func (s *Store) PurgeContacts() (int, error) {
	deleted := 0
	for _, pattern := range []string{"contact:*", "messages:*", "purchases:*", "message_meta:*"} {
		keys, err := s.RDB.Keys(s.Ctx, pattern).Result()
		if err != nil {
			return deleted, err
		}
		for _, key := range keys {
			if err := s.RDB.Del(s.Ctx, key).Err(); err != nil {
				return deleted, err
			}
			deleted++
		}
	}
	for _, key := range []string{idxContacts, dedupeSet} {
		n, err := s.RDB.Del(s.Ctx, key).Result()
		if err != nil {
			return deleted, err
		}
		deleted += int(n)
	}
	s.logger.Warn("Purged all contact data", "keys", deleted)
	return deleted, nil
}
