package agents

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/dmarquess/localdrop-backend/pkg/db/models"
)

// Repository defines persistence operations for delivery agents.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, agent *models.DeliveryAgent) (*models.DeliveryAgent, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.DeliveryAgent, error)
	FindByLoginCode(ctx context.Context, loginCode string) (*models.DeliveryAgent, error)
	List(ctx context.Context) ([]models.DeliveryAgent, error)
	ListAvailable(ctx context.Context) ([]models.DeliveryAgent, error)
	SetAvailability(ctx context.Context, id uuid.UUID, available bool) (int64, error)
	IncrementCommissionTotal(ctx context.Context, id uuid.UUID, amount int) error
}

type repository struct {
	db *gorm.DB
}

// NewRepository builds an agents repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, agent *models.DeliveryAgent) (*models.DeliveryAgent, error) {
	if err := r.db.WithContext(ctx).Create(agent).Error; err != nil {
		return nil, err
	}
	return agent, nil
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*models.DeliveryAgent, error) {
	var agent models.DeliveryAgent
	err := r.db.WithContext(ctx).
		Where("id = ?", id).
		First(&agent).Error
	if err != nil {
		return nil, err
	}
	return &agent, nil
}

func (r *repository) FindByLoginCode(ctx context.Context, loginCode string) (*models.DeliveryAgent, error) {
	var agent models.DeliveryAgent
	err := r.db.WithContext(ctx).
		Where("login_code = ?", loginCode).
		First(&agent).Error
	if err != nil {
		return nil, err
	}
	return &agent, nil
}

func (r *repository) List(ctx context.Context) ([]models.DeliveryAgent, error) {
	var agents []models.DeliveryAgent
	err := r.db.WithContext(ctx).
		Order("created_at ASC").
		Find(&agents).Error
	if err != nil {
		return nil, err
	}
	return agents, nil
}

// ListAvailable returns agents eligible for auto-assignment in a stable
// order; round-robin pairing depends on the ordering being deterministic.
func (r *repository) ListAvailable(ctx context.Context) ([]models.DeliveryAgent, error) {
	var agents []models.DeliveryAgent
	err := r.db.WithContext(ctx).
		Where("available = ?", true).
		Order("created_at ASC").
		Find(&agents).Error
	if err != nil {
		return nil, err
	}
	return agents, nil
}

func (r *repository) SetAvailability(ctx context.Context, id uuid.UUID, available bool) (int64, error) {
	result := r.db.WithContext(ctx).
		Model(&models.DeliveryAgent{}).
		Where("id = ?", id).
		Update("available", available)
	return result.RowsAffected, result.Error
}

func (r *repository) IncrementCommissionTotal(ctx context.Context, id uuid.UUID, amount int) error {
	result := r.db.WithContext(ctx).
		Model(&models.DeliveryAgent{}).
		Where("id = ?", id).
		Update("commission_total", gorm.Expr("commission_total + ?", amount))
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
