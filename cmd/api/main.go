package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/angelmondragon/paintref-backend/api/routes"
	"github.com/angelmondragon/paintref-backend/internal/catalog"
	"github.com/angelmondragon/paintref-backend/pkg/config"
	"github.com/angelmondragon/paintref-backend/pkg/db"
	"github.com/angelmondragon/paintref-backend/pkg/instance"
	"github.com/angelmondragon/paintref-backend/pkg/logger"
	"github.com/angelmondragon/paintref-backend/pkg/metrics"
	"github.com/angelmondragon/paintref-backend/pkg/migrate"
	"github.com/angelmondragon/paintref-backend/pkg/pubsub"
	"github.com/angelmondragon/paintref-backend/pkg/push"
	"github.com/angelmondragon/paintref-backend/pkg/redis"
)

const shutdownTimeout = 30 * time.Second

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
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	if err := migrate.MaybeRunDev(context.Background(), cfg, logg, dbClient); err != nil {
		logg.Error(context.Background(), "failed to run dev migrations", err)
		os.Exit(1)
	}

	redisClient, err := redis.New(context.Background(), cfg.Redis, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap redis", err)
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

	sender, closeSender, err := newPushSender(context.Background(), cfg, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap push sender", err)
		os.Exit(1)
	}
	defer closeSender()

	cat, err := catalog.New(catalog.Params{
		Config:  cfg.Catalog,
		Push:    cfg.Push,
		DB:      dbClient,
		Cache:   redisClient,
		Sender:  sender,
		Metrics: metrics.NewCatalogMetrics(prometheus.DefaultRegisterer),
		Logger:  logg,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to wire catalog services", err)
		os.Exit(1)
	}

	port := cfg.Catalog.OpsPort
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	ctx := logg.WithFields(context.Background(), map[string]any{
		"env":          cfg.App.Env,
		"addr":         addr,
		"push_enabled": cfg.FeatureFlags.PushEnabled,
		"instance":     instance.GetID(),
	})
	logg.Info(ctx, "starting api server")

	server := &http.Server{
		Addr:              addr,
		Handler:           routes.NewRouter(cfg, logg, dbClient, redisClient, promhttp.Handler()),
		ReadHeaderTimeout: 10 * time.Second,
	}

	sigCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	serveErr := make(chan error, 1)
	go func() {
		serveErr <- server.ListenAndServe()
	}()

	select {
	case err := <-serveErr:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logg.Error(ctx, "api server stopped unexpectedly", err)
			os.Exit(1)
		}
	case <-sigCtx.Done():
		logg.Info(ctx, "shutdown signal received")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logg.Error(ctx, "api server shutdown failed", err)
	}
	if err := cat.Shutdown(shutdownCtx); err != nil {
		logg.Error(ctx, "pending notifications abandoned", err)
	}
	logg.Info(ctx, "api server stopped")
}

// newPushSender publishes through Pub/Sub when push is enabled and logs
// deliveries otherwise.
func newPushSender(ctx context.Context, cfg *config.Config, logg *logger.Logger) (push.Sender, func(), error) {
	if !cfg.FeatureFlags.PushEnabled {
		return push.NewLogSender(logg), func() {}, nil
	}
	client, err := pubsub.NewClient(ctx, cfg.GCP, cfg.PubSub, logg)
	if err != nil {
		return nil, nil, err
	}
	sender, err := push.NewPubSubSender(client.PushPublisher(), logg)
	if err != nil {
		_ = client.Close()
		return nil, nil, err
	}
	return sender, func() {
		if err := client.Close(); err != nil {
			logg.Error(context.Background(), "error closing pubsub", err)
		}
	}, nil
}
