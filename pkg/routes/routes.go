package routes

import (
	"log/slog"
	"net/http"

	httpSwagger "github.com/swaggo/http-swagger"

	"whatsapp-crm/config"
	"whatsapp-crm/pkg/auth"
	"whatsapp-crm/pkg/handlers"
	"whatsapp-crm/pkg/hub"
	"whatsapp-crm/pkg/media"
	"whatsapp-crm/pkg/notify"
	"whatsapp-crm/pkg/store"
	"whatsapp-crm/pkg/twilio"
)

func NewRouter(cfg *config.Config, s *store.Store, h *hub.Hub, tw *twilio.Client, up *media.Uploader, z *notify.Zapier, logger *slog.Logger) *http.ServeMux {
	mux := http.NewServeMux()

	// Create handlers
	authHandler := handlers.NewAuthHandler(cfg, logger)
	webhookHandler := handlers.NewWebhookHandler(s, cfg, tw, up, z, logger)
	contactHandler := handlers.NewContactHandler(s, logger)
	purchaseHandler := handlers.NewPurchaseHandler(s, z, logger)
	sendHandler := handlers.NewSendHandler(s, cfg, tw, logger)
	statsHandler := handlers.NewStatsHandler(s, logger)
	uploadHandler := handlers.NewUploadHandler(up, logger)
	debugHandler := handlers.NewDebugHandler(s, logger)
	wsHandler := handlers.NewWSHandler(h, cfg, logger)

	// Public endpoints (no auth: provider webhooks, login, purchase pixel)
	mux.HandleFunc("POST /api/auth/login", authHandler.Login)
	mux.HandleFunc("POST /api/webhook/twilio", webhookHandler.TwilioInbound)
	mux.HandleFunc("POST /api/webhook/zapier", webhookHandler.ZapierInbound)
	mux.HandleFunc("POST /api/{waId}/events/purchase", purchaseHandler.CreatePurchase)
	mux.HandleFunc("OPTIONS /api/{waId}/events/purchase", purchaseHandler.CreatePurchase)
	mux.HandleFunc("GET /api/{waId}/events/purchase", purchaseHandler.Ping)

	// WebSocket endpoint (token travels in the query string)
	mux.HandleFunc("/ws", wsHandler.HandleWS)

	// API docs
	mux.Handle("/swagger/", httpSwagger.WrapHandler)

	// API endpoints with authentication middleware
	apiRouter := http.NewServeMux()

	// Contact endpoints
	apiRouter.HandleFunc("GET /api/contacts", contactHandler.ListContacts)
	apiRouter.HandleFunc("GET /api/contacts/export", contactHandler.ExportContacts)
	apiRouter.HandleFunc("POST /api/contacts/assign-inbox", contactHandler.AssignInbox)
	apiRouter.HandleFunc("GET /api/contacts/{waId}", contactHandler.GetContact)
	apiRouter.HandleFunc("GET /api/contacts/{waId}/messages", contactHandler.GetMessages)
	apiRouter.HandleFunc("GET /api/contacts/{waId}/inspect", contactHandler.InspectContact)
	apiRouter.HandleFunc("GET /api/contacts/{waId}/delete", contactHandler.DeleteContact)
	apiRouter.HandleFunc("POST /api/contacts/{waId}/delete", contactHandler.DeleteContact)
	apiRouter.HandleFunc("OPTIONS /api/contacts/{waId}/delete", contactHandler.DeleteContact)

	// Purchase endpoints
	apiRouter.HandleFunc("GET /api/contacts/{waId}/purchases", purchaseHandler.ListPurchases)
	apiRouter.HandleFunc("POST /api/purchases-bulk", purchaseHandler.PurchasesBulk)

	// Sending endpoints
	apiRouter.HandleFunc("POST /api/send", sendHandler.SendMessage)
	apiRouter.HandleFunc("POST /api/send-template", sendHandler.SendTemplate)
	apiRouter.HandleFunc("GET /api/sender-status", sendHandler.SenderStatus)

	// Stats endpoints
	apiRouter.HandleFunc("GET /api/stats/contacts-today", statsHandler.ContactsToday)
	apiRouter.HandleFunc("GET /api/stats/contacts-range", statsHandler.ContactsRange)
	apiRouter.HandleFunc("GET /api/stats/purchases", statsHandler.Purchases)

	// Media upload
	apiRouter.HandleFunc("POST /api/upload", uploadHandler.Upload)

	// Admin endpoints
	apiRouter.HandleFunc("GET /api/debug/smoke", debugHandler.Smoke)
	apiRouter.HandleFunc("GET /api/debug/kv/peek/{key}", debugHandler.PeekKey)
	apiRouter.HandleFunc("GET /api/debug/repair-messages", debugHandler.RepairMessages)
	apiRouter.HandleFunc("POST /api/debug/repair-messages", debugHandler.RepairMessages)
	apiRouter.HandleFunc("POST /api/debug/clear-contacts", debugHandler.ClearContacts)
	apiRouter.HandleFunc("GET /api/debug/demo-inbox", debugHandler.DemoInbox)

	// Apply authentication middleware to API routes
	mux.Handle("/api/", auth.AuthMiddleware(apiRouter))

	return mux
}
