package rest

import (
	"log/slog"
	"net/http"

	"github.com/CameronXie/order-desk/internal/api/rest/handlers"
	"github.com/CameronXie/order-desk/internal/api/rest/middlewares"
)

// RouterConfig holds the handlers and middlewares mounted by NewMuxWithHandlers.
type RouterConfig struct {
	HealthHandler        http.Handler
	MetricsHandler       http.Handler
	NotificationsHandler http.Handler

	ListOrdersHandler    http.Handler
	ActionHandler        http.Handler
	EditSizeHandler      http.Handler
	UploadPreviewHandler http.Handler
	UploadSubmitHandler  http.Handler
	ExportHandler        http.Handler
	DashboardHandler     http.Handler
	ListJournalHandler   http.Handler
	GetJournalHandler    http.Handler
	RegistryHandler      *handlers.RegistryHandler

	// ActionPolicy guards batch actions, EditPolicy guards size corrections.
	ActionPolicy middlewares.Middleware
	EditPolicy   middlewares.Middleware

	Logger *slog.Logger
}

// NewMuxWithHandlers initializes a new HTTP handler with routes defined by the given RouterConfig,
// wrapped in request id, access log and panic recovery middlewares.
func NewMuxWithHandlers(cfg *RouterConfig) http.Handler {
	router := http.NewServeMux()

	router.Handle("GET /health", cfg.HealthHandler)
	if cfg.MetricsHandler != nil {
		router.Handle("GET /metrics", cfg.MetricsHandler)
	}
	if cfg.NotificationsHandler != nil {
		router.Handle("GET /ws/notifications", cfg.NotificationsHandler)
	}

	router.Handle("GET /api/v1/orders/{view}", cfg.ListOrdersHandler)
	router.Handle("POST /api/v1/orders/{view}/actions/{action}", cfg.ActionPolicy.Handle(cfg.ActionHandler))
	router.Handle("POST /api/v1/orders/{id}/size", cfg.EditPolicy.Handle(cfg.EditSizeHandler))

	router.Handle("POST /api/v1/uploads/preview", cfg.UploadPreviewHandler)
	router.Handle("POST /api/v1/uploads", cfg.UploadSubmitHandler)
	router.Handle("GET /api/v1/exports/{view}", cfg.ExportHandler)
	router.Handle("GET /api/v1/dashboard", cfg.DashboardHandler)

	router.Handle("GET /api/v1/journal", cfg.ListJournalHandler)
	router.Handle("GET /api/v1/journal/{id}", cfg.GetJournalHandler)

	if cfg.RegistryHandler != nil {
		router.HandleFunc("POST /api/v1/registry", cfg.RegistryHandler.Add)
		router.HandleFunc("GET /api/v1/registry/{order_id}", cfg.RegistryHandler.Get)
		router.HandleFunc("PUT /api/v1/registry/{order_id}", cfg.RegistryHandler.Update)
	}

	return middlewares.Chain(
		router,
		middlewares.RequestID(),
		middlewares.AccessLog(cfg.Logger),
		middlewares.Recovery(cfg.Logger),
	)
}
