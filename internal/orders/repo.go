package orders

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/dmarquess/localdrop-backend/pkg/db/models"
	"github.com/dmarquess/localdrop-backend/pkg/enums"
)

type repository struct {
	db *gorm.DB
}

// NewRepository builds an orders repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	var order models.Order
	err := r.db.WithContext(ctx).
		Preload("Events", func(db *gorm.DB) *gorm.DB {
			return db.Order("created_at ASC")
		}).
		Where("id = ?", id).
		First(&order).Error
	if err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *repository) ListUnassignedAccepted(ctx context.Context) ([]models.Order, error) {
	var orders []models.Order
	err := r.db.WithContext(ctx).
		Where("status = ? AND agent_id IS NULL", enums.OrderStatusAccepted).
		Order("created_at ASC").
		Find(&orders).Error
	if err != nil {
		return nil, err
	}
	return orders, nil
}

func (r *repository) ListByAgent(ctx context.Context, agentID uuid.UUID, filters ListFilters) ([]models.Order, error) {
	query := r.db.WithContext(ctx).
		Where("agent_id = ?", agentID)
	if filters.Status != nil {
		query = query.Where("status = ?", *filters.Status)
	}

	var orders []models.Order
	err := query.
		Order("created_at DESC").
		Find(&orders).Error
	if err != nil {
		return nil, err
	}
	return orders, nil
}

func (r *repository) FindDeliveredAssigned(ctx context.Context) ([]models.Order, error) {
	var orders []models.Order
	err := r.db.WithContext(ctx).
		Where("status = ? AND agent_id IS NOT NULL", enums.OrderStatusDelivered).
		Order("created_at ASC").
		Find(&orders).Error
	if err != nil {
		return nil, err
	}
	return orders, nil
}

// AssignAgent performs the conditional assignment write. The predicate
// re-checks accepted/unassigned at the store so two concurrent assigns on the
// same order cannot both succeed; the boolean reports whether this call won.
func (r *repository) AssignAgent(ctx context.Context, orderID, agentID uuid.UUID, agentName string) (bool, error) {
	result := r.db.WithContext(ctx).
		Model(&models.Order{}).
		Where("id = ? AND status = ? AND agent_id IS NULL", orderID, enums.OrderStatusAccepted).
		Updates(map[string]any{
			"status":     enums.OrderStatusReady,
			"agent_id":   agentID,
			"agent_name": agentName,
		})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

func (r *repository) MarkPickedUp(ctx context.Context, orderID, agentID uuid.UUID) (bool, error) {
	result := r.db.WithContext(ctx).
		Model(&models.Order{}).
		Where("id = ? AND status = ? AND agent_id = ?", orderID, enums.OrderStatusReady, agentID).
		Update("status", enums.OrderStatusPickedUp)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

func (r *repository) MarkDelivered(ctx context.Context, orderID, agentID uuid.UUID) (bool, error) {
	result := r.db.WithContext(ctx).
		Model(&models.Order{}).
		Where("id = ? AND status = ? AND agent_id = ?", orderID, enums.OrderStatusPickedUp, agentID).
		Updates(map[string]any{
			"status":       enums.OrderStatusDelivered,
			"delivered_at": time.Now().UTC(),
		})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

func (r *repository) AppendEvent(ctx context.Context, event *models.OrderEvent) error {
	return r.db.WithContext(ctx).Create(event).Error
}
