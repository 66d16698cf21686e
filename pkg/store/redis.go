package store

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/go-redis/redis/v8"
)

// Key layout. Shared with pre-existing data; must not change.
const (
	idxContacts = "idx:contacts"
	dedupeSet   = "dedupe:msg"
	syncChannel = "crm_sync"
)

func contactKey(waID string) string {
	return fmt.Sprintf("contact:%s", waID)
}

func messagesKey(waID string) string {
	return fmt.Sprintf("messages:%s", waID)
}

func purchasesKey(waID string) string {
	return fmt.Sprintf("purchases:%s", waID)
}

func messageMetaKey(messageID string) string {
	return fmt.Sprintf("message_meta:%s", messageID)
}

// NormalizeID strips everything that is not a digit, so a leading "+" and
// any "whatsapp:" provider prefix are removed. Every repository lookup
// applies this before key construction.
func NormalizeID(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

type Store struct {
	RDB    *redis.Client
	Ctx    context.Context
	logger *slog.Logger
}

// New wraps an already-configured Redis client. Used by tests and by
// NewStore below.
func New(ctx context.Context, rdb *redis.Client, logger *slog.Logger) *Store {
	return &Store{RDB: rdb, Ctx: ctx, logger: logger}
}

// NewStore connects to Redis from a redis:// or rediss:// URL and verifies
// the connection before returning.
func NewStore(ctx context.Context, redisURL string, logger *slog.Logger) (*Store, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}

	// Connection pool settings
	opt.PoolSize = 100
	opt.MinIdleConns = 10
	opt.MaxRetries = 3
	opt.DialTimeout = 5 * time.Second
	opt.ReadTimeout = 3 * time.Second
	opt.WriteTimeout = 3 * time.Second
	opt.PoolTimeout = 4 * time.Second

	rdb := redis.NewClient(opt)
	if err := rdb.Ping(ctx).Err(); err != nil {
		logger.Error("Redis connection failed", "error", err)
		return nil, err
	}

	logger.Info("Redis connected successfully", "db", opt.DB)
	return New(ctx, rdb, logger), nil
}

func (s *Store) Close() error {
	s.logger.Info("Closing store connection")
	return s.RDB.Close()
}

// SyncEvent is what the save path publishes for connected dashboards.
type SyncEvent struct {
	Type    string          `json:"type"`
	InboxID string          `json:"inbox_id"`
	WaID    string          `json:"wa_id"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

const EventTypeMessage = "message"

// PublishEvent is best-effort: a dashboard missing a live update is not a
// reason to fail the write that produced it.
func (s *Store) PublishEvent(ev SyncEvent) {
	data, err := json.Marshal(ev)
	if err != nil {
		s.logger.Warn("Failed to marshal sync event", "error", err)
		return
	}
	if err := s.RDB.Publish(s.Ctx, syncChannel, data).Err(); err != nil {
		s.logger.Warn("Failed to publish sync event", "error", err, "type", ev.Type)
	}
}

// SyncChannel returns the pub/sub channel name the hub listens on.
func SyncChannel() string { return syncChannel }
