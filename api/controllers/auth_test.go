package controllers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"

	pkgAuth "github.com/dmarquess/localdrop-backend/pkg/auth"
	"github.com/dmarquess/localdrop-backend/pkg/config"
	"github.com/dmarquess/localdrop-backend/pkg/db/models"
	"github.com/dmarquess/localdrop-backend/pkg/enums"
	pkgerrors "github.com/dmarquess/localdrop-backend/pkg/errors"
)

func testJWTConfig() config.JWTConfig {
	return config.JWTConfig{Secret: "test-secret", Issuer: "localdrop", ExpirationMinutes: 30}
}

func TestAgentLoginReturnsToken(t *testing.T) {
	agentID := uuid.New()
	svc := &testAgentsService{
		findByLoginFn: func(_ context.Context, code string) (*models.DeliveryAgent, error) {
			if code != "428190" {
				t.Fatalf("unexpected login code %q", code)
			}
			return &models.DeliveryAgent{ID: agentID, Name: "Dana Reyes"}, nil
		},
	}

	req := httptest.NewRequest(http.MethodPost, "/api/agent/v1/login", strings.NewReader(`{"login_code":"428190"}`))
	resp := httptest.NewRecorder()
	AgentLogin(svc, testJWTConfig(), testLogger())(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("unexpected status %d: %s", resp.Code, resp.Body.String())
	}
	var data struct {
		AccessToken string `json:"access_token"`
		TokenType   string `json:"token_type"`
	}
	decodeEnvelope(t, resp, &data)
	if data.TokenType != "Bearer" {
		t.Fatalf("unexpected token type %q", data.TokenType)
	}

	claims, err := pkgAuth.ParseAccessToken(testJWTConfig(), data.AccessToken)
	if err != nil {
		t.Fatalf("minted token did not parse: %v", err)
	}
	if claims.ActorID != agentID {
		t.Fatalf("expected actor %s got %s", agentID, claims.ActorID)
	}
	if claims.Role != enums.ActorRoleAgent {
		t.Fatalf("expected agent role got %s", claims.Role)
	}
}

func TestAgentLoginRejectsUnknownCode(t *testing.T) {
	svc := &testAgentsService{
		findByLoginFn: func(context.Context, string) (*models.DeliveryAgent, error) {
			return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "unknown login code")
		},
	}

	req := httptest.NewRequest(http.MethodPost, "/api/agent/v1/login", strings.NewReader(`{"login_code":"000000"}`))
	resp := httptest.NewRecorder()
	AgentLogin(svc, testJWTConfig(), testLogger())(resp, req)

	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 got %d", resp.Code)
	}
}

func TestAgentLoginValidatesCodeShape(t *testing.T) {
	svc := &testAgentsService{
		findByLoginFn: func(context.Context, string) (*models.DeliveryAgent, error) {
			t.Fatal("service must not be called")
			return nil, nil
		},
	}

	req := httptest.NewRequest(http.MethodPost, "/api/agent/v1/login", strings.NewReader(`{"login_code":"12ab"}`))
	resp := httptest.NewRecorder()
	AgentLogin(svc, testJWTConfig(), testLogger())(resp, req)

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
}
