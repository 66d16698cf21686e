package notify

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"time"
)

// Zapier posts CRM events to an outbound automation webhook. Every call is
// best-effort: a missing URL or a failed delivery degrades to a warning and
// never fails the write that triggered it.
type Zapier struct {
	url    string
	http   *http.Client
	logger *slog.Logger
}

func NewZapier(webhookURL string, logger *slog.Logger) *Zapier {
	return &Zapier{
		url:    webhookURL,
		http:   &http.Client{Timeout: 10 * time.Second},
		logger: logger,
	}
}

func (z *Zapier) Configured() bool { return z.url != "" }

// Send posts the payload. Callers typically run this in a goroutine.
func (z *Zapier) Send(payload map[string]any) {
	if z.url == "" {
		z.logger.Warn("ZAPIER_WEBHOOK_URL is not defined, skipping notification")
		return
	}

	body, err := json.Marshal(payload)
	if err != nil {
		z.logger.Warn("Failed to marshal webhook payload", "error", err)
		return
	}

	resp, err := z.http.Post(z.url, "application/json", bytes.NewReader(body))
	if err != nil {
		z.logger.Warn("Webhook delivery failed", "error", err)
		return
	}
	defer resp.Body.Close()

	respText, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
	z.logger.Debug("Webhook delivered", "status", resp.StatusCode, "response", string(respText))
}
