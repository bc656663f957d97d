package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/dmarquess/localdrop-backend/api/controllers"
	"github.com/dmarquess/localdrop-backend/api/middleware"
	"github.com/dmarquess/localdrop-backend/internal/agents"
	"github.com/dmarquess/localdrop-backend/internal/commissions"
	"github.com/dmarquess/localdrop-backend/internal/notifications"
	"github.com/dmarquess/localdrop-backend/internal/orders"
	"github.com/dmarquess/localdrop-backend/pkg/config"
	"github.com/dmarquess/localdrop-backend/pkg/enums"
	"github.com/dmarquess/localdrop-backend/pkg/logger"
	"github.com/dmarquess/localdrop-backend/pkg/redis"
)

// Deps bundles everything the HTTP surface needs.
type Deps struct {
	DB           controllers.Pinger
	Redis        *redis.Client
	Orders       orders.Service
	Commissions  commissions.Service
	Agents       agents.Service
	Notification notifications.Service
}

func NewRouter(cfg *config.Config, logg *logger.Logger, deps Deps) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(),
	)

	var idemStore redis.IdempotencyStore
	if deps.Redis != nil {
		idemStore = deps.Redis
	}

	healthDeps := map[string]controllers.Pinger{}
	if deps.DB != nil {
		healthDeps["database"] = deps.DB
	}
	if deps.Redis != nil {
		healthDeps["redis"] = deps.Redis
	}

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, healthDeps))
	})

	r.Post("/api/agent/v1/login", controllers.AgentLogin(deps.Agents, cfg.JWT, logg))

	r.Route("/api/admin/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, logg))
		r.Use(middleware.RequireRole(string(enums.ActorRoleAdmin), logg))
		r.Use(middleware.Idempotency(idemStore, logg))

		r.Route("/orders", func(r chi.Router) {
			r.Post("/auto-assign", controllers.AdminAutoAssignOrders(deps.Orders, logg))
			r.Get("/{orderId}", controllers.AdminOrderDetail(deps.Orders, logg))
			r.Post("/{orderId}/assign", controllers.AdminAssignOrder(deps.Orders, logg))
		})

		r.Route("/commissions", func(r chi.Router) {
			r.Get("/", controllers.AdminListCommissions(deps.Commissions, logg))
			r.Post("/recalculate", controllers.AdminRecalculateCommissions(deps.Commissions, logg))
			r.Patch("/{commissionId}", controllers.AdminUpdateCommissionPaidStatus(deps.Commissions, logg))
		})

		r.Route("/agents", func(r chi.Router) {
			r.Get("/", controllers.AdminListAgents(deps.Agents, logg))
			r.Post("/", controllers.AdminCreateAgent(deps.Agents, logg))
			r.Patch("/{agentId}/availability", controllers.AdminSetAgentAvailability(deps.Agents, logg))
		})

		if !cfg.App.IsProd() {
			r.Get("/debug/error", controllers.DebugErrorDump(logg))
		}
	})

	r.Route("/api/agent/v1/orders", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, logg))
		r.Use(middleware.RequireRole(string(enums.ActorRoleAgent), logg))
		r.Use(middleware.Idempotency(idemStore, logg))

		r.Get("/", controllers.AgentListOrders(deps.Orders, logg))
		r.Post("/{orderId}/pickup", controllers.AgentPickupOrder(deps.Orders, logg))
		r.Post("/{orderId}/complete", controllers.AgentCompleteOrder(deps.Orders, logg))
	})

	r.Route("/api/v1/notifications", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, logg))
		r.Use(middleware.Idempotency(idemStore, logg))

		r.Get("/", controllers.ListNotifications(deps.Notification, logg))
		r.Post("/{notificationId}/read", controllers.MarkNotificationRead(deps.Notification, logg))
		r.Post("/read-all", controllers.MarkAllNotificationsRead(deps.Notification, logg))
	})

	return r
}
