package main

import (
	"context"
	"net/http"
	"os"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/multierr"

	"github.com/packlane/packlane-backend/api/routes"
	"github.com/packlane/packlane-backend/internal/bundle"
	"github.com/packlane/packlane-backend/internal/cartgateway"
	"github.com/packlane/packlane-backend/internal/catalog"
	"github.com/packlane/packlane-backend/internal/packs"
	"github.com/packlane/packlane-backend/pkg/config"
	"github.com/packlane/packlane-backend/pkg/db"
	"github.com/packlane/packlane-backend/pkg/logger"
	"github.com/packlane/packlane-backend/pkg/metrics"
	"github.com/packlane/packlane-backend/pkg/migrate"
	"github.com/packlane/packlane-backend/pkg/outbox"
	"github.com/packlane/packlane-backend/pkg/redis"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	dbClient, err := db.New(context.Background(), cfg.DB, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap database", err)
		os.Exit(1)
	}

	if err := migrate.MaybeRunDev(context.Background(), cfg, logg, dbClient); err != nil {
		logg.Error(context.Background(), "failed to run dev migrations", err)
		os.Exit(1)
	}

	redisClient, err := redis.New(context.Background(), cfg.Redis, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap redis", err)
		os.Exit(1)
	}

	closeClients := func() {
		err := multierr.Combine(redisClient.Close(), dbClient.Close())
		if err != nil {
			logg.Error(context.Background(), "error closing clients", err)
		}
	}
	defer closeClients()

	tiers, err := bundle.ParseTiers(cfg.Bundle.Tiers)
	if err != nil {
		logg.Error(context.Background(), "invalid discount tier table", err)
		os.Exit(1)
	}

	catalogService, err := catalog.NewService(catalog.NewRepository(dbClient.DB()))
	if err != nil {
		logg.Error(context.Background(), "failed to create catalog service", err)
		os.Exit(1)
	}

	snapshots, err := packs.NewSnapshotStore(redisClient, cfg.Session.SnapshotTTL)
	if err != nil {
		logg.Error(context.Background(), "failed to create snapshot store", err)
		os.Exit(1)
	}

	submitLock, err := packs.NewSubmitLock(redisClient, cfg.CartService.SubmitLockTTL)
	if err != nil {
		logg.Error(context.Background(), "failed to create submit lock", err)
		os.Exit(1)
	}

	cartClient, err := cartgateway.NewClient(cfg.CartService)
	if err != nil {
		logg.Error(context.Background(), "failed to create cart gateway", err)
		os.Exit(1)
	}

	registry := prometheus.NewRegistry()
	packMetrics := metrics.NewPackMetrics(registry)

	packsService, err := packs.NewService(
		cfg.Session,
		tiers,
		catalogService,
		snapshots,
		submitLock,
		cartClient,
		dbClient,
		packs.NewRepository(dbClient.DB()),
		outbox.NewService(outbox.NewRepository(dbClient.DB()), logg),
		packMetrics,
		logg,
	)
	if err != nil {
		logg.Error(context.Background(), "failed to create packs service", err)
		os.Exit(1)
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	ctx := logg.WithFields(context.Background(), map[string]any{
		"env":  cfg.App.Env,
		"addr": addr,
	})
	logg.Info(ctx, "starting api server")

	server := &http.Server{
		Addr:    addr,
		Handler: routes.NewRouter(cfg, logg, dbClient, redisClient, registry, catalogService, packsService),
	}

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logg.Error(ctx, "api server stopped unexpectedly", err)
		os.Exit(1)
	}
}
