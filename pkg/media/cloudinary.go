package media

import (
	"crypto/sha1"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"whatsapp-crm/config"
)

// Uploader pushes files to Cloudinary. Two paths exist: the browser-upload
// style unsigned preset upload, and a signed upload used when re-hosting
// inbound provider media.
type Uploader struct {
	cfg    config.CloudinaryConfig
	http   *http.Client
	logger *slog.Logger
}

func NewUploader(cfg config.CloudinaryConfig, logger *slog.Logger) *Uploader {
	return &Uploader{
		cfg:    cfg,
		http:   &http.Client{Timeout: 60 * time.Second},
		logger: logger,
	}
}

// Configured reports whether enough credentials exist for signed uploads.
func (u *Uploader) Configured() bool {
	return u.cfg.CloudName != "" && u.cfg.APIKey != "" && u.cfg.APISecret != ""
}

// PresetConfigured reports whether unsigned preset uploads can be used.
func (u *Uploader) PresetConfigured() bool {
	return u.cfg.CloudName != "" && u.cfg.UploadPreset != ""
}

// UploadResult is the hosted file location plus its coarse kind.
type UploadResult struct {
	URL  string `json:"url"`
	Kind string `json:"kind"`
}

func IsPDF(contentType, filename string) bool {
	return strings.Contains(strings.ToLower(contentType), "pdf") ||
		strings.HasSuffix(strings.ToLower(filename), ".pdf")
}

var unsafeName = regexp.MustCompile(`[\\/]`)

type cloudinaryResponse struct {
	SecureURL string `json:"secure_url"`
	Error     struct {
		Message string `json:"message"`
	} `json:"error"`
}

func (u *Uploader) post(endpoint string, params url.Values) (string, error) {
	resp, err := u.http.PostForm(endpoint, params)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	var out cloudinaryResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", err
	}
	if resp.StatusCode >= 400 || out.SecureURL == "" {
		msg := out.Error.Message
		if msg == "" {
			msg = fmt.Sprintf("status %d", resp.StatusCode)
		}
		return "", fmt.Errorf("cloudinary upload failed: %s", msg)
	}
	return out.SecureURL, nil
}

func dataURI(contentType string, data []byte) string {
	return "data:" + contentType + ";base64," + base64.StdEncoding.EncodeToString(data)
}

// UploadPreset performs an unsigned upload with the configured preset, the
// same path the dashboard upload form uses. PDFs go to the raw endpoint.
func (u *Uploader) UploadPreset(data []byte, filename, contentType string) (*UploadResult, error) {
	isPdf := IsPDF(contentType, filename)

	resource := "auto"
	if isPdf {
		resource = "raw"
	}
	endpoint := fmt.Sprintf("https://api.cloudinary.com/v1_1/%s/%s/upload", u.cfg.CloudName, resource)

	clean := unsafeName.ReplaceAllString(filename, "_")
	params := url.Values{}
	params.Set("file", dataURI(contentType, data))
	params.Set("upload_preset", u.cfg.UploadPreset)
	if isPdf {
		params.Set("resource_type", "raw")
		params.Set("public_id", strings.TrimSuffix(clean, ".pdf"))
	} else {
		params.Set("public_id", clean)
	}

	secureURL, err := u.post(endpoint, params)
	if err != nil {
		return nil, err
	}

	kind := "image"
	if isPdf {
		kind = "pdf"
	}
	u.logger.Info("File uploaded", "kind", kind, "filename", filename)
	return &UploadResult{URL: secureURL, Kind: kind}, nil
}

// signature builds the Cloudinary request signature: the sorted params
// joined as a query string, concatenated with the API secret, SHA-1 hashed.
func (u *Uploader) signature(params map[string]string) string {
	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+"="+params[k])
	}
	sum := sha1.Sum([]byte(strings.Join(parts, "&") + u.cfg.APISecret))
	return fmt.Sprintf("%x", sum)
}

// UploadSigned re-hosts inbound provider media under the whatsapp folder
// with a random public id, using authenticated (signed) upload.
func (u *Uploader) UploadSigned(data []byte, contentType string, isPdf bool) (*UploadResult, error) {
	resource := "image"
	if isPdf {
		resource = "raw"
	}
	endpoint := fmt.Sprintf("https://api.cloudinary.com/v1_1/%s/%s/upload", u.cfg.CloudName, resource)

	publicID := uuid.New().String()
	if isPdf {
		publicID += ".pdf"
	}
	timestamp := fmt.Sprintf("%d", time.Now().Unix())

	signed := map[string]string{
		"folder":    "whatsapp",
		"public_id": publicID,
		"timestamp": timestamp,
	}

	params := url.Values{}
	params.Set("file", dataURI(contentType, data))
	params.Set("api_key", u.cfg.APIKey)
	params.Set("signature", u.signature(signed))
	for k, v := range signed {
		params.Set(k, v)
	}

	secureURL, err := u.post(endpoint, params)
	if err != nil {
		return nil, err
	}

	kind := "image"
	if isPdf {
		kind = "pdf"
	}
	return &UploadResult{URL: secureURL, Kind: kind}, nil
}
