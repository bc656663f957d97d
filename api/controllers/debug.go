package controllers

import (
	"errors"
	"net/http"

	"github.com/dmarquess/localdrop-backend/api/responses"
	pkgerrors "github.com/dmarquess/localdrop-backend/pkg/errors"
	"github.com/dmarquess/localdrop-backend/pkg/logger"
)

// DebugErrorDump exercises the error chain end to end and returns the dump,
// so operators can verify wrapping and log enrichment in non-prod
// environments.
func DebugErrorDump(logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		cause := errors.New("synthetic root cause")
		err := pkgerrors.Wrap(pkgerrors.CodeDependency, cause, "downstream call failed")
		wrapped := pkgerrors.Wrap(pkgerrors.CodeInternal, err, "debug error chain").
			WithDetails(map[string]any{"step": "debug"})

		if logg != nil {
			logg.Error(r.Context(), "debug.error_dump", wrapped)
		}
		responses.WriteSuccess(w, pkgerrors.Dump(wrapped))
	}
}
