package models

const (
	PurchaseStatusPending = "pending"
	PurchaseStatusOK      = "ok"
	PurchaseStatusError   = "error"
)

// Purchase is one recorded conversion event, stored serialized in the
// purchases:{id} list, most-recent-first. Created once; the reporting
// status fields may be rewritten in place after a downstream attempt.
type Purchase struct {
	ID            string         `json:"id,omitempty"`
	WaID          string         `json:"waId,omitempty"`
	Amount        float64        `json:"amount,omitempty"`
	Currency      string         `json:"currency,omitempty"`
	Source        string         `json:"source,omitempty"`
	CreatedAt     string         `json:"createdAt,omitempty"`
	Meta          map[string]any `json:"meta,omitempty"`
	CapiStatus    string         `json:"capiStatus,omitempty"`
	CapiLastError *string        `json:"capiLastError,omitempty"`
	CtwaClid      string         `json:"ctwa_clid,omitempty"`

	// Raw preserves an entry that could not be parsed. Purchases are
	// financial records; a malformed slot stays visible instead of being
	// dropped.
	Raw string `json:"_raw,omitempty"`
}

type PurchaseRequest struct {
	WaID     string         `json:"waId,omitempty"`
	From     string         `json:"from,omitempty"`
	Amount   *float64       `json:"amount,omitempty"`
	Currency string         `json:"currency,omitempty"`
	Source   string         `json:"source,omitempty"`
	Meta     map[string]any `json:"meta,omitempty"`
}
