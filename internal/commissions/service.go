package commissions

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/multierr"
	"gorm.io/gorm"

	"github.com/dmarquess/localdrop-backend/pkg/db/models"
	"github.com/dmarquess/localdrop-backend/pkg/enums"
	pkgerrors "github.com/dmarquess/localdrop-backend/pkg/errors"
	"github.com/dmarquess/localdrop-backend/pkg/logger"
)

// deliveredOrdersFinder yields the orders eligible for recalculation:
// delivered with an assigned agent.
type deliveredOrdersFinder interface {
	FindDeliveredAssigned(ctx context.Context) ([]models.Order, error)
}

// UpdatePaidStatusInput captures a paid-status change for one commission.
type UpdatePaidStatusInput struct {
	CommissionID uuid.UUID
	PaidStatus   enums.CommissionPaidStatus
}

// RecalculateResult reports a recalculate-all pass.
type RecalculateResult struct {
	Processed int
	Failed    int
}

// Service defines commission-level operations.
type Service interface {
	RecalculateAll(ctx context.Context) (*RecalculateResult, error)
	List(ctx context.Context, filters ListFilters) ([]models.Commission, error)
	UpdatePaidStatus(ctx context.Context, input UpdatePaidStatusInput) (*models.Commission, error)
}

type service struct {
	repo   Repository
	orders deliveredOrdersFinder
	logg   *logger.Logger
}

// NewService builds a commissions service with the required dependencies.
func NewService(repo Repository, orders deliveredOrdersFinder, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("commissions repository required")
	}
	if orders == nil {
		return nil, fmt.Errorf("orders finder required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{repo: repo, orders: orders, logg: logg}, nil
}

// RecalculateAll recomputes the commission amount for every delivered order
// with an assigned agent and upserts the row keyed by order id. Per-order
// failures are logged and skipped; the pass reports how many succeeded.
func (s *service) RecalculateAll(ctx context.Context) (*RecalculateResult, error) {
	orders, err := s.orders.FindDeliveredAssigned(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "listing delivered orders")
	}

	result := &RecalculateResult{}
	var failures error
	for _, order := range orders {
		if order.AgentID == nil {
			continue
		}
		commission := &models.Commission{
			AgentID:    *order.AgentID,
			OrderID:    order.ID,
			Amount:     CalculateAmount(order.ShopLocation, order.BuyerLocation),
			PaidStatus: enums.CommissionUnpaid,
		}
		if err := s.repo.UpsertAmount(ctx, commission); err != nil {
			result.Failed++
			failures = multierr.Append(failures, fmt.Errorf("order %s: %w", order.ID, err))
			s.logg.Error(s.logg.WithOrderID(ctx, order.ID.String()), "commission upsert failed", err)
			continue
		}
		result.Processed++
	}

	if failures != nil {
		s.logg.Warn(ctx, fmt.Sprintf("recalculate finished with %d failures", result.Failed))
	}
	return result, nil
}

func (s *service) List(ctx context.Context, filters ListFilters) ([]models.Commission, error) {
	commissions, err := s.repo.List(ctx, filters)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "listing commissions")
	}
	return commissions, nil
}

func (s *service) UpdatePaidStatus(ctx context.Context, input UpdatePaidStatusInput) (*models.Commission, error) {
	if input.CommissionID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "commission id required")
	}
	if !input.PaidStatus.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid paid status")
	}

	updates := map[string]any{"paid_status": input.PaidStatus}
	if input.PaidStatus == enums.CommissionPaid {
		updates["paid_at"] = time.Now().UTC()
	} else {
		updates["paid_at"] = nil
	}

	if err := s.repo.UpdatePaidStatus(ctx, input.CommissionID, updates); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "commission not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "updating commission")
	}

	commission, err := s.repo.FindByID(ctx, input.CommissionID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "loading commission")
	}
	return commission, nil
}
