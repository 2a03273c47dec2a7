package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/CameronXie/order-desk/internal/api/rest"
	"github.com/CameronXie/order-desk/internal/api/rest/handlers"
	"github.com/CameronXie/order-desk/internal/api/rest/middlewares"
	"github.com/CameronXie/order-desk/internal/metrics"
	"github.com/CameronXie/order-desk/internal/notify"
	"github.com/CameronXie/order-desk/internal/shopify"
)

const shutdownTimeout = 15 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the order console API",
	Args:  cobra.NoArgs,
	RunE:  serve,
}

func serve(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	hub := notify.NewHub(logger, cfg.Server.AllowedOrigins...)
	notifier := notify.Multi{notify.NewLogNotifier(logger), hub}
	views := handlers.NewViews()

	a, err := newApp(ctx, cfg, logger, notifier, views.Refresher(notifier, logger))
	if err != nil {
		return err
	}
	defer a.Close()

	policy, err := newEnforcer(&cfg.Policy, logger)
	if err != nil {
		return err
	}

	router := &rest.RouterConfig{
		HealthHandler:        handlers.HealthHandler(),
		MetricsHandler:       metrics.Handler(a.registry),
		NotificationsHandler: hub,
		ListOrdersHandler: handlers.NewListOrdersHandler(
			a.orders, views, a.clock, cfg.View.PageSize, cfg.View.StaleAfterDays, logger,
		),
		ActionHandler:        handlers.NewActionHandler(a.orders, a.dispatcher, views, logger),
		EditSizeHandler:      handlers.NewEditSizeHandler(a.orders, notifier, logger),
		UploadPreviewHandler: handlers.NewUploadPreviewHandler(a.ingest, logger),
		UploadSubmitHandler:  handlers.NewUploadSubmitHandler(a.ingest, logger),
		ExportHandler:        handlers.NewExportHandler(a.orders, a.export, logger),
		DashboardHandler:     handlers.NewDashboardHandler(a.dashboard, logger),
		ListJournalHandler:   handlers.NewListJournalHandler(a.journal, logger),
		GetJournalHandler:    handlers.NewGetJournalHandler(a.journal, logger),
		ActionPolicy:         middlewares.NewViewPolicyMiddleware(policy, middlewares.PathAction, logger),
		EditPolicy:           middlewares.NewViewPolicyMiddleware(policy, middlewares.FixedAction("pending", "edit"), logger),
		Logger:               logger,
	}
	if cfg.API.RegistryURL != "" {
		registry := shopify.NewRegistryClient(
			cfg.API.RegistryURL,
			shopify.WithHTTPClient(&http.Client{Timeout: cfg.API.Timeout}),
			shopify.WithMetrics(a.metrics),
		)
		router.RegistryHandler = handlers.NewRegistryHandler(registry, logger)
	}

	server := &http.Server{
		Addr:         cfg.Server.Addr,
		Handler:      rest.NewMuxWithHandlers(router),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("starting server", "addr", cfg.Server.Addr, "policy_engine", cfg.Policy.Engine)
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}
