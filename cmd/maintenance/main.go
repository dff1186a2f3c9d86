package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/angelmondragon/paintref-backend/internal/catalog"
	"github.com/angelmondragon/paintref-backend/internal/maintenance"
	"github.com/angelmondragon/paintref-backend/pkg/config"
	"github.com/angelmondragon/paintref-backend/pkg/db"
	"github.com/angelmondragon/paintref-backend/pkg/instance"
	"github.com/angelmondragon/paintref-backend/pkg/logger"
	"github.com/angelmondragon/paintref-backend/pkg/metrics"
	"github.com/angelmondragon/paintref-backend/pkg/migrate"
	"github.com/angelmondragon/paintref-backend/pkg/push"
	"github.com/angelmondragon/paintref-backend/pkg/redis"
)

const runLockTTL = 2 * time.Hour

func main() {
	jobsFlag := flag.String("jobs", "", "comma-separated jobs to run (default: all)")
	loop := flag.Bool("loop", false, "keep running on the configured interval instead of exiting after one pass")
	interval := flag.Duration("interval", 0, "interval between passes with -loop (default 24h)")
	flag.Parse()

	logg := logger.New(logger.Options{ServiceName: "maintenance"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "maintenance",
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

	cat, err := catalog.New(catalog.Params{
		Config: cfg.Catalog,
		Push:   cfg.Push,
		DB:     dbClient,
		Cache:  redisClient,
		Sender: push.NewLogSender(logg),
		Logger: logg,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to wire catalog services", err)
		os.Exit(1)
	}

	backfill, err := maintenance.NewBackfillNameLowerJob(cat.Paints, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create backfill job", err)
		os.Exit(1)
	}
	classify, err := maintenance.NewClassifyCategoriesJob(cat.Paints, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create classify job", err)
		os.Exit(1)
	}

	registry, unknown := maintenance.NewRegistry(backfill, classify).Select(splitJobs(*jobsFlag)...)
	if len(unknown) > 0 {
		logg.Error(context.Background(), "unknown maintenance jobs", fmt.Errorf("%s", strings.Join(unknown, ", ")))
		os.Exit(1)
	}

	locker, err := redis.NewLocker(redisClient, runLockTTL, 0)
	if err != nil {
		logg.Error(context.Background(), "failed to create maintenance locker", err)
		os.Exit(1)
	}
	lock, err := maintenance.NewRunLock(locker, envOrLocal(cfg.App.Env))
	if err != nil {
		logg.Error(context.Background(), "failed to create maintenance lock", err)
		os.Exit(1)
	}

	service, err := maintenance.NewService(maintenance.ServiceParams{
		Logger:   logg,
		Registry: registry,
		Lock:     lock,
		Metrics:  metrics.NewJobMetrics(prometheus.DefaultRegisterer),
		Interval: *interval,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create maintenance service", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx = logg.WithFields(ctx, map[string]any{
		"env":      cfg.App.Env,
		"loop":     *loop,
		"instance": instance.GetID(),
	})
	logg.Info(ctx, "starting maintenance")

	if !*loop {
		if err := service.RunOnce(ctx); err != nil {
			logg.Error(ctx, "maintenance pass failed", err)
			os.Exit(1)
		}
		logg.Info(ctx, "maintenance pass complete")
		return
	}

	if err := service.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logg.Error(ctx, "maintenance stopped unexpectedly", err)
		os.Exit(1)
	}
	logg.Info(ctx, "maintenance shutting down gracefully")
}

func splitJobs(raw string) []string {
	var out []string
	for _, name := range strings.Split(raw, ",") {
		if name = strings.TrimSpace(name); name != "" {
			out = append(out, name)
		}
	}
	return out
}

func envOrLocal(env string) string {
	if env == "" {
		return "local"
	}
	return env
}
