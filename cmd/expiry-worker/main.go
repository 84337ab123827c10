package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/merchkit/quotes-backend/internal/cron"
	"github.com/merchkit/quotes-backend/internal/quotes"
	"github.com/merchkit/quotes-backend/pkg/config"
	"github.com/merchkit/quotes-backend/pkg/db"
	"github.com/merchkit/quotes-backend/pkg/logger"
	"github.com/merchkit/quotes-backend/pkg/metrics"
	"github.com/merchkit/quotes-backend/pkg/redis"
)

const lockKeyFormat = "mk:expiry-worker:lock:%s"

func main() {
	logg := logger.New(logger.Options{ServiceName: "expiry-worker"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	cfg.Service.Kind = "expiry-worker"

	logg = logger.New(logger.Options{
		ServiceName: "expiry-worker",
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

	jobMetrics := metrics.NewJobMetrics(prometheus.DefaultRegisterer)
	lock, err := cron.NewRedisLock(redisClient, lockKey(cfg.App.Env), cfg.Cron.LockTTL)
	if err != nil {
		logg.Error(context.Background(), "failed to create worker lock", err)
		os.Exit(1)
	}

	scanJob, err := cron.NewExpiryScanJob(cron.ExpiryScanJobParams{
		Logger:      logg,
		Reader:      quotes.NewRepository(dbClient.DB()),
		Metrics:     jobMetrics,
		WarningDays: cfg.Quotes.ExpiryWarningDays,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create expiry scan job", err)
		os.Exit(1)
	}

	service, err := cron.NewService(cron.ServiceParams{
		Logger:   logg,
		Registry: cron.NewRegistry(scanJob),
		Lock:     lock,
		Metrics:  jobMetrics,
		Interval: cfg.Cron.Interval,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create worker service", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	ctx = logg.WithFields(ctx, map[string]any{
		"env":         cfg.App.Env,
		"serviceKind": cfg.Service.Kind,
	})
	logg.Info(ctx, "starting expiry worker")

	if err := service.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logg.Error(ctx, "expiry worker stopped unexpectedly", err)
		os.Exit(1)
	}

	logg.Info(ctx, "expiry worker shutting down gracefully")
}

func lockKey(env string) string {
	if env == "" {
		env = "local"
	}
	return fmt.Sprintf(lockKeyFormat, env)
}
