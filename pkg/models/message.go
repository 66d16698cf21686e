package models

const (
	DirectionIn  = "in"
	DirectionOut = "out"
)

const (
	MediaTypeImage = "image"
	MediaTypePDF   = "pdf"
)

// Message is one inbound or outbound communication event. Messages are
// immutable once written; the per-contact list stores them serialized as
// JSON, most-recent-first.
type Message struct {
	ID        string `json:"id"`
	From      string `json:"from"`
	To        string `json:"to"`
	Text      string `json:"text"`
	Timestamp int64  `json:"timestamp"`
	Direction string `json:"direction"`
	InboxID   string `json:"inbox_id"`
	MediaURL  string `json:"media_url,omitempty"`
	MediaType string `json:"media_type,omitempty"`
}

// MessageMeta is the attribution hash attached post-hoc to a message under
// message_meta:{message_id}.
type MessageMeta struct {
	CtwaClid   string `json:"ctwa_clid"`
	SourceType string `json:"source_type"`
	SourceURL  string `json:"source_url"`
	CampaignID string `json:"campaign_id"`
	AdsetID    string `json:"adset_id"`
	AdID       string `json:"ad_id"`
}

func (m *MessageMeta) Fields() map[string]string {
	return map[string]string{
		"ctwa_clid":   m.CtwaClid,
		"source_type": m.SourceType,
		"source_url":  m.SourceURL,
		"campaign_id": m.CampaignID,
		"adset_id":    m.AdsetID,
		"ad_id":       m.AdID,
	}
}

type SendRequest struct {
	To       string `json:"to"`
	Text     string `json:"text"`
	InboxID  string `json:"inbox_id"`
	MediaURL string `json:"media_url,omitempty"`
}

type SendTemplateRequest struct {
	ToNumbers  []string          `json:"toNumbers"`
	InboxID    string            `json:"inbox_id"`
	ContentSid string            `json:"content_sid"`
	Variables  map[string]string `json:"variables,omitempty"`
	AccountKey string            `json:"accountKey,omitempty"`
}

type SendTemplateResult struct {
	To    string `json:"to"`
	OK    bool   `json:"ok"`
	Sid   string `json:"sid,omitempty"`
	Error string `json:"error,omitempty"`
}
