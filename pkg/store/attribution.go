package store

import (
	"encoding/json"
	"net/url"
	"regexp"
	"strings"

	"whatsapp-crm/pkg/models"
)

// clidScanWindow bounds how far back in a contact's message history the
// resolver looks for a click id.
const clidScanWindow = 10

// clidPreference is the exact-name order when several aliases are present
// at once: the canonical name wins over the short alias, which wins over
// the click-through alias.
var clidPreference = []string{"ctwa_clid", "clid", "ctw_clid"}

// ClidCandidate is one key/value pair that looks like an ad click id.
type ClidCandidate struct {
	Key   string `json:"key"`
	Value string `json:"val"`
}

// ClidSource is an ordered key/value pair fed to PickClid. Order matters:
// when no exact-preference alias matches, the first candidate found wins.
type ClidSource struct {
	Key   string
	Value string
}

func isClidKey(k string) bool {
	kl := strings.ToLower(k)
	return strings.Contains(kl, "ctwa_clid") ||
		kl == "clid" ||
		strings.Contains(kl, "ctw_clid") ||
		strings.Contains(kl, "wa_click_id") ||
		strings.Contains(kl, "wa_ad_click") ||
		strings.Contains(kl, "whatsapp_click_id")
}

func validClid(v string) bool {
	return strings.TrimSpace(v) != ""
}

// PickClid searches a bag of candidate key/value sources for an ad click
// identifier, case-insensitively. Exact-preference aliases win in order;
// otherwise the first matching candidate is returned. Nil when nothing
// valid is present.
func PickClid(sources []ClidSource) *ClidCandidate {
	var candidates []ClidCandidate
	for _, src := range sources {
		if !validClid(src.Value) {
			continue
		}
		if isClidKey(src.Key) {
			candidates = append(candidates, ClidCandidate{Key: src.Key, Value: src.Value})
		}
	}
	for _, pref := range clidPreference {
		for _, c := range candidates {
			if strings.ToLower(c.Key) == pref {
				out := c
				return &out
			}
		}
	}
	if len(candidates) > 0 {
		out := candidates[0]
		return &out
	}
	return nil
}

// ResolveClid looks for a click id on the contact record first, then in the
// most recent messages (bounded window, most-recent-first), stopping at the
// first valid candidate.
func (s *Store) ResolveClid(waID string) string {
	id := NormalizeID(waID)

	contact, err := s.GetContact(id)
	if err != nil {
		s.logger.Warn("Clid resolution: contact read failed", "error", err, "wa_id", id)
	}
	if contact != nil {
		pool := []ClidSource{{Key: "ctwa_clid", Value: contact.CtwaClid}}
		for k, v := range contact.Extra {
			pool = append(pool, ClidSource{Key: k, Value: v})
		}
		if c := PickClid(pool); c != nil {
			return c.Value
		}
	}

	raw, err := s.RDB.LRange(s.Ctx, messagesKey(id), 0, clidScanWindow-1).Result()
	if err != nil {
		s.logger.Warn("Clid resolution: message scan failed", "error", err, "wa_id", id)
		return ""
	}
	for _, r := range raw {
		var m map[string]any
		if err := json.Unmarshal([]byte(r), &m); err != nil {
			continue
		}
		var pool []ClidSource
		for k, v := range m {
			if sv, ok := v.(string); ok {
				pool = append(pool, ClidSource{Key: k, Value: sv})
			}
		}
		if meta, ok := m["meta"].(map[string]any); ok {
			for k, v := range meta {
				if sv, ok := v.(string); ok {
					pool = append(pool, ClidSource{Key: k, Value: sv})
				}
			}
		}
		if c := PickClid(pool); c != nil {
			return c.Value
		}
	}
	return ""
}

// ClassifySource decides the contact's traffic source for this event. A
// resolved click id always means "ad". With no click id, an unseen or
// never-classified contact is "organic". Once a contact is "ad" it never
// downgrades; the empty return means "leave the stored value alone".
func ClassifySource(existing *models.Contact, clid string) string {
	if validClid(clid) {
		return models.SourceTypeAd
	}
	wasAd := existing != nil && (existing.SourceType == models.SourceTypeAd || existing.CtwaClid != "")
	if wasAd {
		return ""
	}
	if existing == nil || existing.SourceType == "" {
		return models.SourceTypeOrganic
	}
	return ""
}

var (
	customerCodeES  = regexp.MustCompile(`CÓDIGO DE BONUS\s*ES[:\s]*([A-Z0-9]{8})`)
	customerCodeEN  = regexp.MustCompile(`MY CODE IS[:\s]*([A-Z0-9]{8})`)
	customerCodeAny = regexp.MustCompile(`\b([A-Z0-9]{8})\b`)
)

// ExtractCustomerCode pulls an 8-character alphanumeric bonus code out of a
// message body: the Spanish phrasing first, then the English one, then any
// bare 8-character token.
func ExtractCustomerCode(body string) string {
	if body == "" {
		return ""
	}
	upper := strings.ToUpper(body)
	for _, re := range []*regexp.Regexp{customerCodeES, customerCodeEN, customerCodeAny} {
		if m := re.FindStringSubmatch(upper); len(m) > 1 {
			return m[1]
		}
	}
	return ""
}

// ReferralIDs are the ad identifiers carried in a referral source URL.
type ReferralIDs struct {
	CampaignID string
	AdsetID    string
	AdID       string
}

// ParseReferralIDs extracts campaign/adset/ad ids from the referral source
// URL query string. A malformed URL yields empty ids.
func ParseReferralIDs(rawURL string) ReferralIDs {
	var out ReferralIDs
	if rawURL == "" {
		return out
	}
	u, err := url.Parse(rawURL)
	if err != nil {
		return out
	}
	q := u.Query()
	out.CampaignID = strings.TrimSpace(q.Get("campaign_id"))
	out.AdsetID = strings.TrimSpace(q.Get("adset_id"))
	out.AdID = strings.TrimSpace(q.Get("ad_id"))
	return out
}
