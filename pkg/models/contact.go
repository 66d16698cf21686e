package models

import "strconv"

// Hash field names for contact:{id} records. The layout is shared with
// pre-existing data, so these strings must not change.
const (
	FieldWaID          = "wa_id"
	FieldName          = "name"
	FieldLastMessageAt = "lastMessageAt"
	FieldLastText      = "lastText"
	FieldInboxID       = "inbox_id"
	FieldCtwaClid      = "ctwa_clid"
	FieldSourceType    = "source_type"
	FieldSourceURL     = "source_url"
	FieldCampaignID    = "campaign_id"
	FieldAdsetID       = "adset_id"
	FieldAdID          = "ad_id"
	FieldCustomerCode  = "customer_code"
	FieldTag           = "tag"
)

const (
	SourceTypeAd      = "ad"
	SourceTypeOrganic = "organic"
)

// Contact is one end-user phone identity tracked by the CRM.
type Contact struct {
	WaID          string `json:"wa_id"`
	Name          string `json:"name,omitempty"`
	LastMessageAt int64  `json:"lastMessageAt"`
	LastText      string `json:"lastText"`
	InboxID       string `json:"inbox_id,omitempty"`
	CtwaClid      string `json:"ctwa_clid,omitempty"`
	SourceType    string `json:"source_type,omitempty"`
	SourceURL     string `json:"source_url,omitempty"`
	CampaignID    string `json:"campaign_id,omitempty"`
	AdsetID       string `json:"adset_id,omitempty"`
	AdID          string `json:"ad_id,omitempty"`
	CustomerCode  string `json:"customer_code,omitempty"`
	Tag           string `json:"tag,omitempty"`

	// Extra holds hash fields merged in by call sites the struct does not
	// model. Kept so unknown fields survive a read-merge-write cycle.
	Extra map[string]string `json:"extra,omitempty"`
}

// ContactFromFields builds a Contact from a raw hash read.
func ContactFromFields(fields map[string]string) *Contact {
	c := &Contact{}
	for k, v := range fields {
		switch k {
		case FieldWaID:
			c.WaID = v
		case FieldName:
			c.Name = v
		case FieldLastMessageAt:
			c.LastMessageAt, _ = strconv.ParseInt(v, 10, 64)
		case FieldLastText:
			c.LastText = v
		case FieldInboxID:
			c.InboxID = v
		case FieldCtwaClid:
			c.CtwaClid = v
		case FieldSourceType:
			c.SourceType = v
		case FieldSourceURL:
			c.SourceURL = v
		case FieldCampaignID:
			c.CampaignID = v
		case FieldAdsetID:
			c.AdsetID = v
		case FieldAdID:
			c.AdID = v
		case FieldCustomerCode:
			c.CustomerCode = v
		case FieldTag:
			c.Tag = v
		default:
			if c.Extra == nil {
				c.Extra = make(map[string]string)
			}
			c.Extra[k] = v
		}
	}
	return c
}

// Fields flattens the contact back to hash fields.
func (c *Contact) Fields() map[string]string {
	out := map[string]string{
		FieldWaID:          c.WaID,
		FieldLastMessageAt: strconv.FormatInt(c.LastMessageAt, 10),
		FieldLastText:      c.LastText,
	}
	set := func(k, v string) {
		if v != "" {
			out[k] = v
		}
	}
	set(FieldName, c.Name)
	set(FieldInboxID, c.InboxID)
	set(FieldCtwaClid, c.CtwaClid)
	set(FieldSourceType, c.SourceType)
	set(FieldSourceURL, c.SourceURL)
	set(FieldCampaignID, c.CampaignID)
	set(FieldAdsetID, c.AdsetID)
	set(FieldAdID, c.AdID)
	set(FieldCustomerCode, c.CustomerCode)
	set(FieldTag, c.Tag)
	for k, v := range c.Extra {
		out[k] = v
	}
	return out
}
