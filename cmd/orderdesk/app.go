package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/CameronXie/order-desk/internal/batch"
	"github.com/CameronXie/order-desk/internal/catalog"
	"github.com/CameronXie/order-desk/internal/clock"
	"github.com/CameronXie/order-desk/internal/config"
	"github.com/CameronXie/order-desk/internal/dashboard"
	"github.com/CameronXie/order-desk/internal/export"
	"github.com/CameronXie/order-desk/internal/ingest"
	"github.com/CameronXie/order-desk/internal/journal"
	"github.com/CameronXie/order-desk/internal/journal/memory"
	"github.com/CameronXie/order-desk/internal/journal/postgres"
	"github.com/CameronXie/order-desk/internal/metrics"
	"github.com/CameronXie/order-desk/internal/notify"
	"github.com/CameronXie/order-desk/internal/shopify"
)

// app holds the services shared by every command.
type app struct {
	clock    clock.Clock
	registry *prometheus.Registry
	metrics  *metrics.Collectors

	orders   *shopify.Client
	catalog  *catalog.Service
	journal  journal.Repository
	notifier notify.Notifier

	dispatcher *batch.Dispatcher
	ingest     *ingest.Service
	export     *export.Service
	dashboard  *dashboard.Service

	closers []func()
}

// newApp wires the services from cfg. Notifications go to notifier, and the
// dispatcher calls refresher after successful runs when it is set.
func newApp(
	ctx context.Context,
	cfg *config.Config,
	logger *slog.Logger,
	notifier notify.Notifier,
	refresher batch.Refresher,
) (*app, error) {
	a := &app{
		clock:    clock.NewSystem(),
		registry: prometheus.NewRegistry(),
		notifier: notifier,
	}
	a.metrics = metrics.New(a.registry)

	httpClient := &http.Client{Timeout: cfg.API.Timeout}
	a.orders = shopify.NewClient(cfg.API.BaseURL, shopify.WithHTTPClient(httpClient), shopify.WithMetrics(a.metrics))

	repo, err := a.newJournal(ctx, cfg, logger)
	if err != nil {
		a.Close()
		return nil, err
	}
	a.journal = repo

	cat, err := a.newCatalog(ctx, cfg, httpClient, logger)
	if err != nil {
		a.Close()
		return nil, err
	}
	a.catalog = cat

	dispatcherOpts := []batch.Option{
		batch.WithNotifier(notifier),
		batch.WithJournal(a.journal),
		batch.WithMetrics(a.metrics),
		batch.WithMaxInFlight(cfg.Batch.MaxInFlight),
		batch.WithLogger(logger),
	}
	if refresher != nil {
		dispatcherOpts = append(dispatcherOpts, batch.WithRefresher(refresher, cfg.Batch.RefetchDelay))
	}
	a.dispatcher = batch.NewDispatcher(a.orders, dispatcherOpts...)
	a.closers = append(a.closers, a.dispatcher.Close)

	a.ingest = ingest.NewService(
		a.orders,
		a.dispatcher,
		ingest.WithClock(a.clock),
		ingest.WithJournal(a.journal),
		ingest.WithNotifier(notifier),
		ingest.WithMetrics(a.metrics),
		ingest.WithLogger(logger),
	)

	exportOpts := []export.Option{
		export.WithNotifier(notifier),
		export.WithClock(a.clock),
		export.WithLogger(logger),
	}
	if a.catalog != nil {
		exportOpts = append(exportOpts, export.WithCatalog(a.catalog))
	}
	a.export = export.NewService(exportOpts...)

	a.dashboard = dashboard.NewService(a.orders, dashboard.WithLogger(logger))

	return a, nil
}

func (a *app) newJournal(ctx context.Context, cfg *config.Config, logger *slog.Logger) (journal.Repository, error) {
	if cfg.Journal.PostgresDSN == "" {
		logger.Info("keeping the action journal in memory")
		return memory.NewRepository(), nil
	}

	pool, err := pgxpool.New(ctx, cfg.Journal.PostgresDSN)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to journal database: %w", err)
	}
	a.closers = append(a.closers, pool.Close)

	repo := postgres.NewRepository(pool)
	if err := repo.EnsureSchema(ctx); err != nil {
		return nil, err
	}

	logger.Info("recording the action journal in postgres")
	return repo, nil
}

func (a *app) newCatalog(
	ctx context.Context,
	cfg *config.Config,
	httpClient *http.Client,
	logger *slog.Logger,
) (*catalog.Service, error) {
	if cfg.API.CatalogURL == "" {
		logger.Warn("no catalog configured, picklists fall back to defaults")
		return nil, nil
	}

	var cache catalog.Cache = catalog.NewMemoryCache(a.clock)
	if cfg.Cache.RedisAddr != "" {
		redis, err := catalog.NewRedisCache(ctx, catalog.RedisConfig{
			Addr:     cfg.Cache.RedisAddr,
			Password: cfg.Cache.RedisPassword,
			DB:       cfg.Cache.RedisDB,
		})
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, func() { _ = redis.Close() })
		cache = redis
	}

	source := shopify.NewCatalogClient(cfg.API.CatalogURL, shopify.WithHTTPClient(httpClient), shopify.WithMetrics(a.metrics))
	return catalog.NewService(source, catalog.WithCache(cache, cfg.Cache.TTL), catalog.WithLogger(logger)), nil
}

// Close releases every connection in reverse order of creation.
func (a *app) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	a.closers = nil
}
