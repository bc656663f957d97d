package routes

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/dmarquess/localdrop-backend/internal/agents"
	"github.com/dmarquess/localdrop-backend/internal/commissions"
	"github.com/dmarquess/localdrop-backend/internal/notifications"
	"github.com/dmarquess/localdrop-backend/internal/orders"
	pkgAuth "github.com/dmarquess/localdrop-backend/pkg/auth"
	"github.com/dmarquess/localdrop-backend/pkg/config"
	"github.com/dmarquess/localdrop-backend/pkg/db/models"
	"github.com/dmarquess/localdrop-backend/pkg/enums"
	"github.com/dmarquess/localdrop-backend/pkg/logger"
	"github.com/dmarquess/localdrop-backend/pkg/pagination"
)

type stubPinger struct{}

func (stubPinger) Ping(context.Context) error { return nil }

type stubOrdersService struct{}

func (stubOrdersService) Get(_ context.Context, orderID uuid.UUID) (*models.Order, error) {
	return &models.Order{ID: orderID}, nil
}

func (stubOrdersService) ListByAgent(context.Context, uuid.UUID, orders.ListFilters) ([]models.Order, error) {
	return []models.Order{}, nil
}

func (stubOrdersService) Assign(_ context.Context, input orders.AssignInput) (*models.Order, error) {
	return &models.Order{ID: input.OrderID, Status: enums.OrderStatusReady}, nil
}

func (stubOrdersService) AutoAssign(context.Context) (*orders.AutoAssignResult, error) {
	return &orders.AutoAssignResult{}, nil
}

func (stubOrdersService) Pickup(_ context.Context, input orders.PickupInput) (*models.Order, error) {
	return &models.Order{ID: input.OrderID}, nil
}

func (stubOrdersService) CompleteWithCode(_ context.Context, input orders.CompleteInput) (*orders.CompleteResult, error) {
	return &orders.CompleteResult{Order: &models.Order{ID: input.OrderID}}, nil
}

type stubCommissionsService struct{}

func (stubCommissionsService) RecalculateAll(context.Context) (*commissions.RecalculateResult, error) {
	return &commissions.RecalculateResult{}, nil
}

func (stubCommissionsService) List(context.Context, commissions.ListFilters) ([]models.Commission, error) {
	return []models.Commission{}, nil
}

func (stubCommissionsService) UpdatePaidStatus(_ context.Context, input commissions.UpdatePaidStatusInput) (*models.Commission, error) {
	return &models.Commission{ID: input.CommissionID}, nil
}

type stubAgentsService struct{}

func (stubAgentsService) Create(_ context.Context, input agents.CreateInput) (*models.DeliveryAgent, error) {
	return &models.DeliveryAgent{ID: uuid.New(), Name: input.Name}, nil
}

func (stubAgentsService) Get(_ context.Context, id uuid.UUID) (*models.DeliveryAgent, error) {
	return &models.DeliveryAgent{ID: id}, nil
}

func (stubAgentsService) List(context.Context) ([]models.DeliveryAgent, error) {
	return []models.DeliveryAgent{}, nil
}

func (stubAgentsService) SetAvailability(_ context.Context, id uuid.UUID, available bool) (*models.DeliveryAgent, error) {
	return &models.DeliveryAgent{ID: id, Available: available}, nil
}

func (stubAgentsService) FindByLoginCode(context.Context, string) (*models.DeliveryAgent, error) {
	return &models.DeliveryAgent{ID: uuid.New()}, nil
}

type stubNotificationsService struct{}

func (stubNotificationsService) List(context.Context, uuid.UUID, pagination.Params) (*notifications.ListResult, error) {
	return &notifications.ListResult{}, nil
}

func (stubNotificationsService) MarkRead(context.Context, uuid.UUID, uuid.UUID) error {
	return nil
}

func (stubNotificationsService) MarkAllRead(context.Context, uuid.UUID) (int64, error) {
	return 0, nil
}

func (stubNotificationsService) DeleteOlderThan(context.Context, time.Duration) (int64, error) {
	return 0, nil
}

func testConfig(env string) *config.Config {
	return &config.Config{
		App: config.AppConfig{Env: env, Port: "0"},
		JWT: config.JWTConfig{Secret: "router-secret", Issuer: "localdrop", ExpirationMinutes: 15},
	}
}

func newTestRouter(t *testing.T, env string) http.Handler {
	t.Helper()
	cfg := testConfig(env)
	logg := logger.New(logger.Options{ServiceName: "router-test", Output: io.Discard})
	return NewRouter(cfg, logg, Deps{
		DB:           stubPinger{},
		Orders:       stubOrdersService{},
		Commissions:  stubCommissionsService{},
		Agents:       stubAgentsService{},
		Notification: stubNotificationsService{},
	})
}

func mintToken(t *testing.T, role enums.ActorRole) string {
	t.Helper()
	token, err := pkgAuth.MintAccessToken(testConfig("test").JWT, time.Now(), pkgAuth.AccessTokenPayload{
		ActorID: uuid.New(),
		Role:    role,
	})
	if err != nil {
		t.Fatalf("mint token: %v", err)
	}
	return token
}

func TestRouterHealthEndpointsArePublic(t *testing.T) {
	router := newTestRouter(t, "test")

	for _, path := range []string{"/health/live", "/health/ready"} {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		resp := httptest.NewRecorder()
		router.ServeHTTP(resp, req)
		if resp.Code != http.StatusOK {
			t.Fatalf("%s: expected 200 got %d", path, resp.Code)
		}
	}
}

func TestRouterAdminRoutesRequireAuth(t *testing.T) {
	router := newTestRouter(t, "test")

	req := httptest.NewRequest(http.MethodGet, "/api/admin/v1/commissions", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 got %d", resp.Code)
	}
}

func TestRouterAdminRoutesRejectAgentRole(t *testing.T) {
	router := newTestRouter(t, "test")

	req := httptest.NewRequest(http.MethodGet, "/api/admin/v1/commissions", nil)
	req.Header.Set("Authorization", "Bearer "+mintToken(t, enums.ActorRoleAgent))
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusForbidden {
		t.Fatalf("expected 403 got %d", resp.Code)
	}
}

func TestRouterAdminRoutesAcceptAdminRole(t *testing.T) {
	router := newTestRouter(t, "test")

	req := httptest.NewRequest(http.MethodGet, "/api/admin/v1/commissions", nil)
	req.Header.Set("Authorization", "Bearer "+mintToken(t, enums.ActorRoleAdmin))
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d: %s", resp.Code, resp.Body.String())
	}
}

func TestRouterAgentOrderRoutesRequireAgentRole(t *testing.T) {
	router := newTestRouter(t, "test")

	req := httptest.NewRequest(http.MethodGet, "/api/agent/v1/orders", nil)
	req.Header.Set("Authorization", "Bearer "+mintToken(t, enums.ActorRoleAdmin))
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusForbidden {
		t.Fatalf("expected 403 got %d", resp.Code)
	}

	req = httptest.NewRequest(http.MethodGet, "/api/agent/v1/orders", nil)
	req.Header.Set("Authorization", "Bearer "+mintToken(t, enums.ActorRoleAgent))
	resp = httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d: %s", resp.Code, resp.Body.String())
	}
}

func TestRouterDebugEndpointHiddenInProd(t *testing.T) {
	prodRouter := newTestRouter(t, "prod")

	req := httptest.NewRequest(http.MethodGet, "/api/admin/v1/debug/error", nil)
	req.Header.Set("Authorization", "Bearer "+mintToken(t, enums.ActorRoleAdmin))
	resp := httptest.NewRecorder()
	prodRouter.ServeHTTP(resp, req)
	if resp.Code == http.StatusOK {
		t.Fatal("debug endpoint must not be mounted in prod")
	}

	devRouter := newTestRouter(t, "dev")
	resp = httptest.NewRecorder()
	devRouter.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 in dev got %d", resp.Code)
	}
}

func TestRouterAgentLoginIsPublic(t *testing.T) {
	router := newTestRouter(t, "test")

	req := httptest.NewRequest(http.MethodPost, "/api/agent/v1/login", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	// No body: validation failure, but the route is reachable unauthenticated.
	if resp.Code == http.StatusUnauthorized || resp.Code == http.StatusNotFound {
		t.Fatalf("login should be reachable without auth, got %d", resp.Code)
	}
}
