package controllers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"

	"github.com/dmarquess/localdrop-backend/internal/agents"
	"github.com/dmarquess/localdrop-backend/pkg/db/models"
	pkgerrors "github.com/dmarquess/localdrop-backend/pkg/errors"
)

type testAgentsService struct {
	createFn          func(ctx context.Context, input agents.CreateInput) (*models.DeliveryAgent, error)
	listFn            func(ctx context.Context) ([]models.DeliveryAgent, error)
	setAvailabilityFn func(ctx context.Context, id uuid.UUID, available bool) (*models.DeliveryAgent, error)
	findByLoginFn     func(ctx context.Context, loginCode string) (*models.DeliveryAgent, error)
}

func (s *testAgentsService) Create(ctx context.Context, input agents.CreateInput) (*models.DeliveryAgent, error) {
	if s.createFn != nil {
		return s.createFn(ctx, input)
	}
	return &models.DeliveryAgent{ID: uuid.New(), Name: input.Name}, nil
}

func (s *testAgentsService) Get(ctx context.Context, id uuid.UUID) (*models.DeliveryAgent, error) {
	return &models.DeliveryAgent{ID: id}, nil
}

func (s *testAgentsService) List(ctx context.Context) ([]models.DeliveryAgent, error) {
	if s.listFn != nil {
		return s.listFn(ctx)
	}
	return nil, nil
}

func (s *testAgentsService) SetAvailability(ctx context.Context, id uuid.UUID, available bool) (*models.DeliveryAgent, error) {
	if s.setAvailabilityFn != nil {
		return s.setAvailabilityFn(ctx, id, available)
	}
	return &models.DeliveryAgent{ID: id, Available: available}, nil
}

func (s *testAgentsService) FindByLoginCode(ctx context.Context, loginCode string) (*models.DeliveryAgent, error) {
	if s.findByLoginFn != nil {
		return s.findByLoginFn(ctx, loginCode)
	}
	return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "unknown login code")
}

func TestAdminCreateAgentReturns201(t *testing.T) {
	svc := &testAgentsService{
		createFn: func(_ context.Context, input agents.CreateInput) (*models.DeliveryAgent, error) {
			if input.Name != "Dana Reyes" {
				t.Fatalf("unexpected name %q", input.Name)
			}
			return &models.DeliveryAgent{ID: uuid.New(), Name: input.Name, LoginCode: "428190"}, nil
		},
	}

	body := `{"name":"Dana Reyes","phone":"+15550100233"}`
	req := httptest.NewRequest(http.MethodPost, "/api/admin/v1/agents", strings.NewReader(body))
	resp := httptest.NewRecorder()
	AdminCreateAgent(svc, testLogger())(resp, req)

	if resp.Code != http.StatusCreated {
		t.Fatalf("expected 201 got %d: %s", resp.Code, resp.Body.String())
	}
	var agent models.DeliveryAgent
	decodeEnvelope(t, resp, &agent)
	if agent.LoginCode != "428190" {
		t.Fatalf("expected login code in creation response, got %+v", agent)
	}
}

func TestAdminCreateAgentValidatesBody(t *testing.T) {
	svc := &testAgentsService{
		createFn: func(context.Context, agents.CreateInput) (*models.DeliveryAgent, error) {
			t.Fatal("service must not be called")
			return nil, nil
		},
	}

	req := httptest.NewRequest(http.MethodPost, "/api/admin/v1/agents", strings.NewReader(`{"name":"D"}`))
	resp := httptest.NewRecorder()
	AdminCreateAgent(svc, testLogger())(resp, req)

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
}

func TestAdminSetAgentAvailability(t *testing.T) {
	agentID := uuid.New()
	var gotAvailable bool
	svc := &testAgentsService{
		setAvailabilityFn: func(_ context.Context, id uuid.UUID, available bool) (*models.DeliveryAgent, error) {
			if id != agentID {
				t.Fatalf("unexpected agent %s", id)
			}
			gotAvailable = available
			return &models.DeliveryAgent{ID: id, Available: available}, nil
		},
	}

	req := httptest.NewRequest(http.MethodPatch, "/x", strings.NewReader(`{"available":false}`))
	req = withRouteParam(req, "agentId", agentID.String())
	resp := httptest.NewRecorder()
	AdminSetAgentAvailability(svc, testLogger())(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("unexpected status %d: %s", resp.Code, resp.Body.String())
	}
	if gotAvailable {
		t.Fatal("expected availability false forwarded")
	}
}
