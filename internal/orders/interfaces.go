package orders

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/dmarquess/localdrop-backend/pkg/db/models"
	"github.com/dmarquess/localdrop-backend/pkg/enums"
)

// ListFilters narrows an agent's order listing.
type ListFilters struct {
	Status *enums.OrderStatus
}

// Repository defines persistence operations for orders and their timeline.
// The conditional mutations re-check the expected state at write time and
// report whether the row was actually updated, so concurrent callers cannot
// both win the same transition.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	FindByID(ctx context.Context, id uuid.UUID) (*models.Order, error)
	ListUnassignedAccepted(ctx context.Context) ([]models.Order, error)
	ListByAgent(ctx context.Context, agentID uuid.UUID, filters ListFilters) ([]models.Order, error)
	FindDeliveredAssigned(ctx context.Context) ([]models.Order, error)
	AssignAgent(ctx context.Context, orderID, agentID uuid.UUID, agentName string) (bool, error)
	MarkPickedUp(ctx context.Context, orderID, agentID uuid.UUID) (bool, error)
	MarkDelivered(ctx context.Context, orderID, agentID uuid.UUID) (bool, error)
	AppendEvent(ctx context.Context, event *models.OrderEvent) error
}
