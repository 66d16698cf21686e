package handlers

import (
	"io"
	"log/slog"
	"net/http"

	"whatsapp-crm/pkg/media"
)

const maxUploadBytes = 15 << 20

type UploadHandler struct {
	uploader *media.Uploader
	logger   *slog.Logger
}

func NewUploadHandler(up *media.Uploader, logger *slog.Logger) *UploadHandler {
	return &UploadHandler{uploader: up, logger: logger}
}

// Upload godoc
// @Summary  Upload a dashboard attachment, returns a hosted URL
// @Tags     media
// @Accept   multipart/form-data
// @Produce  json
// @Param    file  formData  file  true  "Image or PDF"
// @Security BearerAuth
// @Router   /api/upload [post]
func (h *UploadHandler) Upload(w http.ResponseWriter, r *http.Request) {
	if !h.uploader.PresetConfigured() {
		writeError(w, http.StatusServiceUnavailable, CodeMissingConfig)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		writeError(w, http.StatusBadRequest, CodeInvalidRequest)
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, CodeInvalidRequest)
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		writeError(w, http.StatusBadRequest, CodeInvalidRequest)
		return
	}

	result, err := h.uploader.UploadPreset(data, header.Filename, header.Header.Get("Content-Type"))
	if err != nil {
		h.logger.Error("Attachment upload failed", "error", err, "filename", header.Filename)
		writeError(w, http.StatusBadGateway, CodeServerError)
		return
	}

	h.logger.Info("Attachment uploaded", "filename", header.Filename, "kind", result.Kind)
	writeJSON(w, http.StatusOK, map[string]any{"ok": true, "url": result.URL, "kind": result.Kind})
}
