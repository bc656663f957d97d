package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/dmarquess/localdrop-backend/internal/agents"
	"github.com/dmarquess/localdrop-backend/internal/commissions"
	"github.com/dmarquess/localdrop-backend/internal/cron"
	"github.com/dmarquess/localdrop-backend/internal/notifications"
	"github.com/dmarquess/localdrop-backend/internal/orders"
	"github.com/dmarquess/localdrop-backend/pkg/config"
	"github.com/dmarquess/localdrop-backend/pkg/db"
	"github.com/dmarquess/localdrop-backend/pkg/logger"
	"github.com/dmarquess/localdrop-backend/pkg/metrics"
	"github.com/dmarquess/localdrop-backend/pkg/migrate"
	"github.com/dmarquess/localdrop-backend/pkg/pubsub"
	"github.com/dmarquess/localdrop-backend/pkg/redis"
)

func main() {
	ctx := context.Background()
	logg := logger.New(logger.Options{ServiceName: "cron-worker"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(ctx, ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	requireResource(ctx, logg, "config", err)

	logg = logger.New(logger.Options{
		ServiceName: "cron-worker",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	dbClient, err := db.New(ctx, cfg.DB, logg)
	requireResource(ctx, logg, "database", err)
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(ctx, "error closing database", err)
		}
	}()

	if err := migrate.MaybeRunDev(ctx, cfg, logg, dbClient); err != nil {
		logg.Error(ctx, "failed to run dev migrations", err)
		os.Exit(1)
	}

	redisClient, err := redis.New(ctx, cfg.Redis, logg)
	requireResource(ctx, logg, "redis", err)
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(ctx, "error closing redis", err)
		}
	}()

	pubsubClient, err := pubsub.NewClient(ctx, cfg.GCP, cfg.PubSub, logg)
	requireResource(ctx, logg, "pubsub", err)
	defer pubsubClient.Close()

	publisher, err := notifications.NewPublisher(pubsubClient.OrderEventsPublisher(), logg)
	requireResource(ctx, logg, "order event publisher", err)

	ordersRepo := orders.NewRepository(dbClient.DB())
	agentsRepo := agents.NewRepository(dbClient.DB())
	commissionsRepo := commissions.NewRepository(dbClient.DB())
	notificationsRepo := notifications.NewRepository(dbClient.DB())

	ordersSvc, err := orders.NewService(ordersRepo, agentsRepo, commissionsRepo, dbClient, publisher, logg)
	requireResource(ctx, logg, "orders service", err)

	commissionsSvc, err := commissions.NewService(commissionsRepo, ordersRepo, logg)
	requireResource(ctx, logg, "commissions service", err)

	notificationsSvc, err := notifications.NewService(notificationsRepo)
	requireResource(ctx, logg, "notifications service", err)

	autoAssignJob, err := cron.NewAutoAssignJob(cron.AutoAssignJobParams{
		Logger: logg,
		Orders: ordersSvc,
	})
	requireResource(ctx, logg, "auto-assign job", err)

	recalcJob, err := cron.NewCommissionRecalcJob(cron.CommissionRecalcJobParams{
		Logger:      logg,
		Commissions: commissionsSvc,
	})
	requireResource(ctx, logg, "commission recalc job", err)

	cleanupJob, err := cron.NewNotificationCleanupJob(cron.NotificationCleanupJobParams{
		Logger:        logg,
		Notifications: notificationsSvc,
		Retention:     cfg.Dispatch.NotificationRetention,
	})
	requireResource(ctx, logg, "notification cleanup job", err)

	lock, err := cron.NewRedisLock(redisClient, cfg.Cron.LockKey, cfg.Cron.LockTTL)
	requireResource(ctx, logg, "cron lock", err)

	metricsCollector := metrics.NewCronJobMetrics(prometheus.DefaultRegisterer)
	service, err := cron.NewService(cron.ServiceParams{
		Logger:   logg,
		Registry: cron.NewRegistry(autoAssignJob, recalcJob, cleanupJob),
		Lock:     lock,
		Metrics:  metricsCollector,
		Interval: cfg.Cron.Interval,
	})
	requireResource(ctx, logg, "cron service", err)

	go serveMetrics(ctx, logg, cfg.Cron.MetricsPort)

	runCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	runCtx = logg.WithFields(runCtx, map[string]any{
		"env":      cfg.App.Env,
		"interval": cfg.Cron.Interval.String(),
	})
	logg.Info(runCtx, "starting cron worker")

	if err := service.Run(runCtx); err != nil && !errors.Is(err, context.Canceled) {
		logg.Error(runCtx, "cron worker stopped unexpectedly", err)
		os.Exit(1)
	}

	logg.Info(runCtx, "cron worker shutting down gracefully")
}

func serveMetrics(ctx context.Context, logg *logger.Logger, port string) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	if err := http.ListenAndServe(":"+port, mux); err != nil && err != http.ErrServerClosed {
		logg.Error(ctx, "metrics server stopped unexpectedly", err)
	}
}

func requireResource(ctx context.Context, logg *logger.Logger, resource string, err error) {
	if err == nil {
		return
	}
	logg.Error(ctx, fmt.Sprintf("resource not working: %s", resource), err)
	os.Exit(1)
}
