package main

import (
	"context"
	"fmt"
	"net/http"
	"os"

	"github.com/joho/godotenv"

	"github.com/dmarquess/localdrop-backend/api/routes"
	"github.com/dmarquess/localdrop-backend/internal/agents"
	"github.com/dmarquess/localdrop-backend/internal/commissions"
	"github.com/dmarquess/localdrop-backend/internal/notifications"
	"github.com/dmarquess/localdrop-backend/internal/orders"
	"github.com/dmarquess/localdrop-backend/pkg/config"
	"github.com/dmarquess/localdrop-backend/pkg/db"
	"github.com/dmarquess/localdrop-backend/pkg/logger"
	"github.com/dmarquess/localdrop-backend/pkg/migrate"
	"github.com/dmarquess/localdrop-backend/pkg/pubsub"
	"github.com/dmarquess/localdrop-backend/pkg/redis"
)

func main() {
	ctx := context.Background()
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(ctx, ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	requireResource(ctx, logg, "config", err)

	logg = logger.New(logger.Options{
		ServiceName: "api",
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

	agentsSvc, err := agents.NewService(agentsRepo)
	requireResource(ctx, logg, "agents service", err)

	notificationsSvc, err := notifications.NewService(notificationsRepo)
	requireResource(ctx, logg, "notifications service", err)

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	runCtx := logg.WithFields(ctx, map[string]any{
		"env":  cfg.App.Env,
		"addr": addr,
	})
	logg.Info(runCtx, "starting api server")

	server := &http.Server{
		Addr: addr,
		Handler: routes.NewRouter(cfg, logg, routes.Deps{
			DB:           dbClient,
			Redis:        redisClient,
			Orders:       ordersSvc,
			Commissions:  commissionsSvc,
			Agents:       agentsSvc,
			Notification: notificationsSvc,
		}),
	}

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logg.Error(runCtx, "api server stopped unexpectedly", err)
		os.Exit(1)
	}
}

func requireResource(ctx context.Context, logg *logger.Logger, resource string, err error) {
	if err == nil {
		return
	}
	logg.Error(ctx, fmt.Sprintf("resource not working: %s", resource), err)
	os.Exit(1)
}
