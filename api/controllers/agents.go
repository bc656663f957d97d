package controllers

import (
	"net/http"

	"github.com/dmarquess/localdrop-backend/api/responses"
	"github.com/dmarquess/localdrop-backend/api/validators"
	"github.com/dmarquess/localdrop-backend/internal/agents"
	pkgerrors "github.com/dmarquess/localdrop-backend/pkg/errors"
	"github.com/dmarquess/localdrop-backend/pkg/logger"
)

type createAgentRequest struct {
	Name  string `json:"name" validate:"required,min=2,max=120"`
	Phone string `json:"phone" validate:"required,min=7,max=20"`
}

type agentAvailabilityRequest struct {
	Available *bool `json:"available" validate:"required"`
}

// AdminCreateAgent registers a courier and returns the generated login code.
func AdminCreateAgent(svc agents.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "agents service unavailable"))
			return
		}

		var req createAgentRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		agent, err := svc.Create(r.Context(), agents.CreateInput{
			Name:  validators.SanitizeString(req.Name, 120),
			Phone: validators.SanitizeString(req.Phone, 20),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, agent)
	}
}

func AdminListAgents(svc agents.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "agents service unavailable"))
			return
		}

		list, err := svc.List(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, list)
	}
}

// AdminSetAgentAvailability toggles whether a courier receives assignments.
func AdminSetAgentAvailability(svc agents.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "agents service unavailable"))
			return
		}

		agentID, err := pathUUID(r, "agentId", "agent id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var req agentAvailabilityRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		agent, err := svc.SetAvailability(r.Context(), agentID, *req.Available)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, agent)
	}
}
