package controllers

import (
	"net/http"
	"time"

	"github.com/dmarquess/localdrop-backend/api/responses"
	"github.com/dmarquess/localdrop-backend/api/validators"
	"github.com/dmarquess/localdrop-backend/internal/agents"
	pkgAuth "github.com/dmarquess/localdrop-backend/pkg/auth"
	"github.com/dmarquess/localdrop-backend/pkg/config"
	"github.com/dmarquess/localdrop-backend/pkg/enums"
	pkgerrors "github.com/dmarquess/localdrop-backend/pkg/errors"
	"github.com/dmarquess/localdrop-backend/pkg/logger"
)

type agentLoginRequest struct {
	LoginCode string `json:"login_code" validate:"required,len=6,numeric"`
}

// AgentLogin exchanges a courier's login code for a bearer token.
func AgentLogin(svc agents.Service, jwtCfg config.JWTConfig, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "agents service unavailable"))
			return
		}

		var req agentLoginRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		agent, err := svc.FindByLoginCode(r.Context(), req.LoginCode)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		token, err := pkgAuth.MintAccessToken(jwtCfg, time.Now(), pkgAuth.AccessTokenPayload{
			ActorID: agent.ID,
			Role:    enums.ActorRoleAgent,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "mint access token"))
			return
		}

		responses.WriteSuccess(w, map[string]any{
			"access_token": token,
			"token_type":   "Bearer",
			"expires_in":   jwtCfg.ExpirationMinutes * 60,
			"agent":        agent,
		})
	}
}
