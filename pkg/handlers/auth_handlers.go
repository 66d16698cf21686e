package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"whatsapp-crm/config"
	"whatsapp-crm/pkg/auth"
	"whatsapp-crm/pkg/models"
)

type AuthHandler struct {
	cfg    *config.Config
	logger *slog.Logger
}

func NewAuthHandler(cfg *config.Config, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{cfg: cfg, logger: logger}
}

// Login godoc
// @Summary  Dashboard login
// @Tags     auth
// @Accept   json
// @Produce  json
// @Param    credentials  body  models.AuthRequest  true  "dashboard credentials"
// @Success  200  {object}  models.AuthResponse
// @Router   /api/auth/login [post]
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req models.AuthRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.Warn("Login: invalid request body", "error", err)
		writeError(w, http.StatusBadRequest, CodeInvalidRequest)
		return
	}

	if h.cfg.Dashboard.Password == "" {
		h.logger.Warn("Login attempted with no dashboard password configured")
		writeError(w, http.StatusServiceUnavailable, CodeMissingConfig)
		return
	}

	if req.Username != h.cfg.Dashboard.User || req.Password != h.cfg.Dashboard.Password {
		h.logger.Warn("Login: invalid credentials", "username", req.Username)
		writeError(w, http.StatusUnauthorized, CodeInvalidCredentials)
		return
	}

	token, expiresAt, err := auth.GenerateJWT(req.Username)
	if err != nil {
		h.logger.Error("Login: failed to generate token", "error", err)
		writeError(w, http.StatusInternalServerError, CodeServerError)
		return
	}

	h.logger.Info("Dashboard login", "username", req.Username, "expires_at", expiresAt)
	writeJSON(w, http.StatusOK, models.AuthResponse{OK: true, Token: token, ExpiresAt: expiresAt})
}
