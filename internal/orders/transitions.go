package orders

import (
	"crypto/subtle"
	"fmt"

	"github.com/google/uuid"

	"github.com/dmarquess/localdrop-backend/pkg/db/models"
	"github.com/dmarquess/localdrop-backend/pkg/enums"
	pkgerrors "github.com/dmarquess/localdrop-backend/pkg/errors"
)

// Lifecycle guards. Transitions run accepted -> ready -> picked_up ->
// delivered and never regress; each guard validates the persisted state
// before the conditional write re-checks it at the store.

// canAssign rejects orders that already carry an agent or have moved past
// the accepted state.
func canAssign(order *models.Order) error {
	if order.AgentID != nil {
		return pkgerrors.New(pkgerrors.CodeConflict, "order already assigned")
	}
	if order.Status != enums.OrderStatusAccepted {
		return pkgerrors.New(pkgerrors.CodeStateConflict,
			fmt.Sprintf("order is %s, expected accepted", order.Status))
	}
	return nil
}

// canPickup requires the calling agent to own the order and the order to be
// waiting in ready.
func canPickup(order *models.Order, agentID uuid.UUID) error {
	if order.AgentID == nil || *order.AgentID != agentID {
		return pkgerrors.New(pkgerrors.CodeForbidden, "order assigned to a different agent")
	}
	if order.Status != enums.OrderStatusReady {
		return pkgerrors.New(pkgerrors.CodeStateConflict,
			fmt.Sprintf("order is %s, expected ready", order.Status))
	}
	return nil
}

// canComplete requires ownership, an in-flight order, and an exact match on
// the one-time delivery code. A mismatch leaves the order untouched; there is
// no attempt counter or lockout.
func canComplete(order *models.Order, agentID uuid.UUID, submittedCode string) error {
	if order.AgentID == nil || *order.AgentID != agentID {
		return pkgerrors.New(pkgerrors.CodeForbidden, "order assigned to a different agent")
	}
	if order.Status != enums.OrderStatusPickedUp {
		return pkgerrors.New(pkgerrors.CodeStateConflict,
			fmt.Sprintf("order is %s, expected picked_up", order.Status))
	}
	if subtle.ConstantTimeCompare([]byte(order.DeliveryCode), []byte(submittedCode)) != 1 {
		return pkgerrors.New(pkgerrors.CodeInvalidCode, "delivery code does not match")
	}
	return nil
}
