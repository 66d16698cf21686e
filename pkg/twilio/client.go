package twilio

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	"whatsapp-crm/config"
)

const (
	apiBase       = "https://api.twilio.com/2010-04-01"
	messagingBase = "https://messaging.twilio.com/v2"
)

// Client talks to the Twilio REST API. Credentials are passed per call
// because each inbox and each broadcast account uses its own pair.
type Client struct {
	http   *http.Client
	logger *slog.Logger
}

func NewClient(logger *slog.Logger) *Client {
	return &Client{
		http:   &http.Client{Timeout: 30 * time.Second},
		logger: logger,
	}
}

func basicAuth(sid, token string) string {
	return "Basic " + base64.StdEncoding.EncodeToString([]byte(sid+":"+token))
}

// NormalizeAddress turns a bare phone number into the whatsapp:+NNN wire
// format Twilio expects.
func NormalizeAddress(to string) string {
	out := strings.Join(strings.Fields(to), "")
	if strings.HasPrefix(out, "whatsapp:") {
		return out
	}
	if !strings.HasPrefix(out, "+") {
		out = "+" + out
	}
	return "whatsapp:" + out
}

var imageExt = regexp.MustCompile(`(?i)\.(jpg|jpeg|png|gif|webp)$`)

// GuessMediaType infers the stored media kind from a URL.
func GuessMediaType(mediaURL string) string {
	if strings.HasSuffix(strings.ToLower(mediaURL), ".pdf") {
		return "pdf"
	}
	if imageExt.MatchString(mediaURL) {
		return "image"
	}
	return ""
}

type messageResponse struct {
	Sid     string `json:"sid"`
	Message string `json:"message"`
	Code    int    `json:"code"`
}

func (c *Client) postMessage(sid, token string, form url.Values) (string, error) {
	endpoint := fmt.Sprintf("%s/Accounts/%s/Messages.json", apiBase, sid)
	req, err := http.NewRequest(http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return "", err
	}
	req.Header.Set("Authorization", basicAuth(sid, token))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.http.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	var tw messageResponse
	if err := json.NewDecoder(resp.Body).Decode(&tw); err != nil {
		return "", fmt.Errorf("decode twilio response: %w", err)
	}
	if resp.StatusCode >= 400 {
		c.logger.Error("Twilio rejected message", "status", resp.StatusCode, "code", tw.Code, "message", tw.Message)
		return "", fmt.Errorf("twilio: %s (code %d)", tw.Message, tw.Code)
	}
	return tw.Sid, nil
}

// SendMessage sends a freeform message (text and/or media) from the inbox's
// sender number. Returns the provider message SID.
func (c *Client) SendMessage(acct config.InboxAccount, to, body, mediaURL string) (string, error) {
	form := url.Values{}
	form.Set("From", acct.From)
	form.Set("To", to)

	hasText := strings.TrimSpace(body) != ""
	if mediaURL != "" {
		form.Set("MediaUrl", mediaURL)
		if hasText {
			form.Set("Body", strings.TrimSpace(body))
		} else {
			// Twilio rejects an empty caption.
			form.Set("Body", " ")
		}
	} else {
		if !hasText {
			body = " "
		}
		form.Set("Body", body)
	}

	c.logger.Info("Sending message", "from", acct.From, "to", to, "has_media", mediaURL != "")
	return c.postMessage(acct.SID, acct.Token, form)
}

// SendTemplate sends an approved content template from a broadcast account.
func (c *Client) SendTemplate(acct config.BroadcastAccount, from, to, contentSid string, variables map[string]string) (string, error) {
	vars, err := json.Marshal(variables)
	if err != nil {
		return "", err
	}
	if variables == nil {
		vars = []byte("{}")
	}

	form := url.Values{}
	form.Set("From", "whatsapp:"+from)
	form.Set("To", "whatsapp:"+to)
	form.Set("ContentSid", contentSid)
	form.Set("ContentVariables", string(vars))

	return c.postMessage(acct.SID, acct.Token, form)
}

// SenderStatus is the health view of an inbox's WhatsApp sender.
type SenderStatus struct {
	Number         string `json:"number"`
	Status         string `json:"status"`
	QualityRating  string `json:"quality_rating,omitempty"`
	MessagingLimit string `json:"messaging_limit,omitempty"`
	Total          int    `json:"total"`
	OnlineCount    int    `json:"onlineCount"`
}

type senderListResponse struct {
	Senders []senderEntry `json:"senders"`
	Items   []senderEntry `json:"items"`
}

type senderEntry struct {
	Sid        string `json:"sid"`
	Status     string `json:"status"`
	Properties struct {
		QualityRating  string `json:"quality_rating"`
		MessagingLimit string `json:"messaging_limit"`
	} `json:"properties"`
}

// GetSenderStatus fetches the inbox's WhatsApp channel senders and reports
// the first ONLINE one (or the first listed when none are online).
func (c *Client) GetSenderStatus(acct config.InboxAccount) (*SenderStatus, error) {
	req, err := http.NewRequest(http.MethodGet, messagingBase+"/Channels/Senders?Channel=whatsapp", nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", basicAuth(acct.SID, acct.Token))

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var data senderListResponse
	if err := json.NewDecoder(resp.Body).Decode(&data); err != nil {
		return nil, err
	}

	items := data.Senders
	if len(items) == 0 {
		items = data.Items
	}

	status := &SenderStatus{
		Number: strings.TrimPrefix(acct.From, "whatsapp:"),
		Total:  len(items),
	}

	var selected *senderEntry
	for i := range items {
		if strings.EqualFold(items[i].Status, "ONLINE") {
			status.OnlineCount++
			if selected == nil {
				selected = &items[i]
			}
		}
	}
	if selected == nil && len(items) > 0 {
		selected = &items[0]
	}
	if selected != nil {
		status.Status = strings.ToLower(selected.Status)
		status.QualityRating = selected.Properties.QualityRating
		status.MessagingLimit = selected.Properties.MessagingLimit
	}
	return status, nil
}

// FetchMedia downloads an inbound media attachment; Twilio media URLs need
// the account's basic auth.
func (c *Client) FetchMedia(acct config.InboxAccount, mediaURL string) ([]byte, error) {
	req, err := http.NewRequest(http.MethodGet, mediaURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", basicAuth(acct.SID, acct.Token))

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("twilio media returned %d", resp.StatusCode)
	}
	return io.ReadAll(resp.Body)
}
