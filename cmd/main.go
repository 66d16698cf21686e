package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"

	"whatsapp-crm/config"
	"whatsapp-crm/pkg/auth"
	"whatsapp-crm/pkg/hub"
	"whatsapp-crm/pkg/media"
	"whatsapp-crm/pkg/notify"
	"whatsapp-crm/pkg/routes"
	"whatsapp-crm/pkg/store"
	"whatsapp-crm/pkg/twilio"

	_ "whatsapp-crm/docs"
)

// @title        WhatsApp CRM API
// @version      1.0
// @description  Contact, conversation and purchase tracking over a WhatsApp
// @description  business number, with ad-click attribution.
// @BasePath     /
// @securityDefinitions.apikey BearerAuth
// @in   header
// @name Authorization
func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Load configuration
	cfg := config.Load()

	logger.Info("Starting CRM server", "port", cfg.Server.Port, "env", cfg.Server.Env)

	// 1. Initialize storage
	storage, err := store.NewStore(ctx, cfg.Redis.URL, logger)
	if err != nil {
		logger.Error("Failed to connect to storage", "error", err)
		os.Exit(1)
	}
	defer storage.Close()

	// 2. Initialize JWT authentication
	auth.InitJWT(cfg.JWT.Secret, cfg.JWT.Expiration)

	// 3. Initialize WebSocket hub
	wsHub := hub.NewHub(storage, logger)
	go wsHub.Run()
	go wsHub.ListenToRedis()

	// 4. Outbound integrations
	tw := twilio.NewClient(logger)
	uploader := media.NewUploader(cfg.Cloudinary, logger)
	zapier := notify.NewZapier(cfg.Zapier.WebhookURL, logger)

	// 5. HTTP router and server
	router := routes.NewRouter(cfg, storage, wsHub, tw, uploader, zapier, logger)

	server := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	logger.Info("Server is ready to accept connections", "addr", server.Addr)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error("Server failed", "error", err)
		os.Exit(1)
	}
}
