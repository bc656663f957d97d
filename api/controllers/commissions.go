package controllers

import (
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/dmarquess/localdrop-backend/api/responses"
	"github.com/dmarquess/localdrop-backend/api/validators"
	"github.com/dmarquess/localdrop-backend/internal/commissions"
	"github.com/dmarquess/localdrop-backend/pkg/enums"
	pkgerrors "github.com/dmarquess/localdrop-backend/pkg/errors"
	"github.com/dmarquess/localdrop-backend/pkg/logger"
)

type commissionPaidStatusRequest struct {
	PaidStatus string `json:"paid_status" validate:"required,oneof=paid unpaid"`
}

// AdminRecalculateCommissions recomputes every delivered order's commission.
func AdminRecalculateCommissions(svc commissions.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "commissions service unavailable"))
			return
		}

		result, err := svc.RecalculateAll(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]any{
			"ok":        true,
			"processed": result.Processed,
			"failed":    result.Failed,
		})
	}
}

// AdminListCommissions lists commissions, unpaid first, optionally filtered
// by agent or paid status.
func AdminListCommissions(svc commissions.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "commissions service unavailable"))
			return
		}

		var filters commissions.ListFilters
		if raw := strings.TrimSpace(r.URL.Query().Get("agent_id")); raw != "" {
			agentID, err := uuid.Parse(raw)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid agent_id filter"))
				return
			}
			filters.AgentID = &agentID
		}
		if raw := strings.TrimSpace(r.URL.Query().Get("paid_status")); raw != "" {
			status, err := enums.ParseCommissionPaidStatus(raw)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid paid_status filter"))
				return
			}
			filters.PaidStatus = &status
		}

		list, err := svc.List(r.Context(), filters)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, list)
	}
}

// AdminUpdateCommissionPaidStatus marks a commission paid or unpaid.
func AdminUpdateCommissionPaidStatus(svc commissions.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "commissions service unavailable"))
			return
		}

		commissionID, err := pathUUID(r, "commissionId", "commission id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var req commissionPaidStatusRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		status, err := enums.ParseCommissionPaidStatus(req.PaidStatus)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid paid status"))
			return
		}

		commission, err := svc.UpdatePaidStatus(r.Context(), commissions.UpdatePaidStatusInput{
			CommissionID: commissionID,
			PaidStatus:   status,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, commission)
	}
}
