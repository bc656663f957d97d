package orders

import (
	"github.com/google/uuid"

	"github.com/dmarquess/localdrop-backend/pkg/db/models"
)

// AssignInput captures a manual assignment request.
type AssignInput struct {
	OrderID     uuid.UUID
	AgentID     uuid.UUID
	AgentName   string
	ActorUserID uuid.UUID
}

// PickupInput captures an agent picking up an order at the shop.
type PickupInput struct {
	OrderID uuid.UUID
	AgentID uuid.UUID
}

// CompleteInput captures an OTP-verified delivery completion.
type CompleteInput struct {
	OrderID       uuid.UUID
	AgentID       uuid.UUID
	SubmittedCode string
}

// CompleteResult carries the outcome of a completed delivery: the terminal
// order and the commission written in the same unit of work.
type CompleteResult struct {
	Order      *models.Order
	Commission *models.Commission
}

// AutoAssignResult reports a batch assignment pass.
type AutoAssignResult struct {
	Assigned int
	Skipped  int
}
