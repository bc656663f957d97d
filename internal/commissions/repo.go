package commissions

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/dmarquess/localdrop-backend/pkg/db/models"
	"github.com/dmarquess/localdrop-backend/pkg/enums"
)

// ListFilters narrows commission listing.
type ListFilters struct {
	AgentID    *uuid.UUID
	PaidStatus *enums.CommissionPaidStatus
}

// Repository defines persistence operations for commission rows.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	UpsertAmount(ctx context.Context, commission *models.Commission) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.Commission, error)
	FindByOrder(ctx context.Context, orderID uuid.UUID) (*models.Commission, error)
	List(ctx context.Context, filters ListFilters) ([]models.Commission, error)
	UpdatePaidStatus(ctx context.Context, id uuid.UUID, updates map[string]any) error
}

type repository struct {
	db *gorm.DB
}

// NewRepository builds a commissions repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

// UpsertAmount inserts the commission or, when a row for the order already
// exists, updates the amount only. PaidStatus and PaidAt are written on
// insert and never overwritten, so re-running a recalculation cannot reset
// an agent that was already paid.
func (r *repository) UpsertAmount(ctx context.Context, commission *models.Commission) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "order_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"amount", "updated_at"}),
		}).
		Create(commission).Error
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Commission, error) {
	var commission models.Commission
	err := r.db.WithContext(ctx).
		Where("id = ?", id).
		First(&commission).Error
	if err != nil {
		return nil, err
	}
	return &commission, nil
}

func (r *repository) FindByOrder(ctx context.Context, orderID uuid.UUID) (*models.Commission, error) {
	var commission models.Commission
	err := r.db.WithContext(ctx).
		Where("order_id = ?", orderID).
		First(&commission).Error
	if err != nil {
		return nil, err
	}
	return &commission, nil
}

func (r *repository) List(ctx context.Context, filters ListFilters) ([]models.Commission, error) {
	query := r.db.WithContext(ctx).Model(&models.Commission{})
	if filters.AgentID != nil {
		query = query.Where("agent_id = ?", *filters.AgentID)
	}
	if filters.PaidStatus != nil {
		query = query.Where("paid_status = ?", *filters.PaidStatus)
	}

	var commissions []models.Commission
	err := query.
		Order("paid_status ASC").
		Order("created_at DESC").
		Find(&commissions).Error
	if err != nil {
		return nil, err
	}
	return commissions, nil
}

func (r *repository) UpdatePaidStatus(ctx context.Context, id uuid.UUID, updates map[string]any) error {
	result := r.db.WithContext(ctx).
		Model(&models.Commission{}).
		Where("id = ?", id).
		Updates(updates)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
