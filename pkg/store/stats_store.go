package store

import (
	"encoding/json"
	"time"

	"whatsapp-crm/pkg/models"
)

// Dashboard day bucketing happens in the business's local timezone.
var statsLocation = loadStatsLocation()

func loadStatsLocation() *time.Location {
	loc, err := time.LoadLocation("America/Argentina/Buenos_Aires")
	if err != nil {
		return time.FixedZone("-03", -3*60*60)
	}
	return loc
}

// localDay formats an epoch-millis timestamp as a stable YYYY-MM-DD day
// string. Timestamps that look like seconds are promoted to millis first.
func localDay(ts int64) string {
	if ts < 1e12 {
		ts *= 1000
	}
	return time.UnixMilli(ts).In(statsLocation).Format("2006-01-02")
}

// ContactStats are the per-inbox activity counters for the dashboard.
type ContactStats struct {
	Total     int `json:"total"`
	Today     int `json:"hoy"`
	Yesterday int `json:"ayer"`
}

// ContactsToday counts contacts whose last activity falls on today or
// yesterday, restricted to the given inboxes (all inboxes when empty). The
// whole index is walked page by page; per-contact failures skip.
func (s *Store) ContactsToday(inboxIDs []string) (*ContactStats, error) {
	want := make(map[string]bool, len(inboxIDs))
	for _, id := range inboxIDs {
		want[id] = true
	}

	now := time.Now().UnixMilli()
	today := localDay(now)
	yesterday := localDay(now - 24*time.Hour.Milliseconds())

	stats := &ContactStats{}
	cursor := 0
	const pageSize = 100
	for {
		contacts, next, err := s.ListContacts(cursor, pageSize)
		if err != nil {
			return nil, err
		}
		for _, c := range contacts {
			if len(want) > 0 && !want[c.InboxID] {
				continue
			}
			stats.Total++
			if c.LastMessageAt == 0 {
				continue
			}
			switch localDay(c.LastMessageAt) {
			case today:
				stats.Today++
			case yesterday:
				stats.Yesterday++
			}
		}
		if next == nil {
			break
		}
		cursor = *next
	}
	return stats, nil
}

// RangeStats counts contacts whose last activity falls inside [from, to].
type RangeStats struct {
	Total   int `json:"total"`
	InRange int `json:"enRango"`
}

// ContactsRange scans every contact hash; the range endpoints are compared
// against lastMessageAt in epoch millis. Per-key failures skip.
func (s *Store) ContactsRange(from, to time.Time) (*RangeStats, error) {
	keys, err := s.RDB.Keys(s.Ctx, "contact:*").Result()
	if err != nil {
		return nil, err
	}

	stats := &RangeStats{}
	for _, key := range keys {
		fields, err := s.RDB.HGetAll(s.Ctx, key).Result()
		if err != nil || len(fields) == 0 {
			continue
		}
		stats.Total++

		var ts int64
		if raw, ok := fields[models.FieldLastMessageAt]; ok {
			var v json.Number = json.Number(raw)
			if n, err := v.Int64(); err == nil {
				ts = n
			}
		}
		if ts == 0 {
			continue
		}
		if ts < 1e12 {
			ts *= 1000
		}
		if ts >= from.UnixMilli() && ts <= to.UnixMilli() {
			stats.InRange++
		}
	}
	return stats, nil
}

// PurchaseStats are the top-up counters for the dashboard.
type PurchaseStats struct {
	TotalContacts int     `json:"total"`
	WithPurchases int     `json:"conCargas"`
	Conversion    float64 `json:"conversion"`
	Today         int     `json:"hoy"`
	Yesterday     int     `json:"ayer"`
}

// purchaseTimestamp digs a usable epoch-millis timestamp out of a stored
// purchase entry, tolerating both the createdAt ISO string and a legacy
// numeric ts field.
func purchaseTimestamp(raw string) (int64, bool) {
	var p struct {
		CreatedAt string      `json:"createdAt"`
		TS        json.Number `json:"ts"`
	}
	if err := json.Unmarshal([]byte(raw), &p); err != nil {
		return 0, false
	}
	if p.CreatedAt != "" {
		if t, err := time.Parse(time.RFC3339, p.CreatedAt); err == nil {
			return t.UnixMilli(), true
		}
	}
	if n, err := p.TS.Int64(); err == nil && n != 0 {
		if n < 1e12 {
			n *= 1000
		}
		return n, true
	}
	return 0, false
}

// PurchasesToday walks every purchase list and buckets events by local day.
// The head of each list (up to 100 entries) is enough for daily counters.
func (s *Store) PurchasesToday() (*PurchaseStats, error) {
	keys, err := s.RDB.Keys(s.Ctx, "purchases:*").Result()
	if err != nil {
		return nil, err
	}

	now := time.Now().UnixMilli()
	today := localDay(now)
	yesterday := localDay(now - 24*time.Hour.Milliseconds())

	stats := &PurchaseStats{}
	for _, key := range keys {
		list, err := s.RDB.LRange(s.Ctx, key, 0, 100).Result()
		if err != nil || len(list) == 0 {
			continue
		}
		hasAny := false
		for _, raw := range list {
			ts, ok := purchaseTimestamp(raw)
			if !ok {
				continue
			}
			switch localDay(ts) {
			case today:
				stats.Today++
			case yesterday:
				stats.Yesterday++
			}
			hasAny = true
		}
		if hasAny {
			stats.WithPurchases++
		}
	}

	total, err := s.RDB.ZCard(s.Ctx, idxContacts).Result()
	if err != nil {
		s.logger.Warn("Failed to count contacts index", "error", err)
	}
	stats.TotalContacts = int(total)
	if stats.TotalContacts > 0 {
		stats.Conversion = float64(stats.WithPurchases) / float64(stats.TotalContacts)
	}
	return stats, nil
}

// PurchasesInRange counts purchase events whose local day falls in the
// inclusive [from, to] range of YYYY-MM-DD day strings.
func (s *Store) PurchasesInRange(fromDay, toDay string) (int, error) {
	keys, err := s.RDB.Keys(s.Ctx, "purchases:*").Result()
	if err != nil {
		return 0, err
	}

	count := 0
	for _, key := range keys {
		list, err := s.RDB.LRange(s.Ctx, key, 0, 100).Result()
		if err != nil {
			continue
		}
		for _, raw := range list {
			ts, ok := purchaseTimestamp(raw)
			if !ok {
				continue
			}
			day := localDay(ts)
			if day >= fromDay && day <= toDay {
				count++
			}
		}
	}
	return count, nil
}
