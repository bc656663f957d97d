package cron

import (
	"context"
	"fmt"

	"github.com/dmarquess/localdrop-backend/internal/orders"
	"github.com/dmarquess/localdrop-backend/pkg/logger"
)

type autoAssigner interface {
	AutoAssign(ctx context.Context) (*orders.AutoAssignResult, error)
}

// AutoAssignJobParams configure the auto-assign job.
type AutoAssignJobParams struct {
	Logger *logger.Logger
	Orders autoAssigner
}

// NewAutoAssignJob pairs waiting orders with available agents on each cron
// cycle, using the same batch path the admin endpoint triggers.
func NewAutoAssignJob(params AutoAssignJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Orders == nil {
		return nil, fmt.Errorf("orders service required")
	}
	return &autoAssignJob{logg: params.Logger, orders: params.Orders}, nil
}

type autoAssignJob struct {
	logg   *logger.Logger
	orders autoAssigner
}

func (j *autoAssignJob) Name() string { return "order-auto-assign" }

func (j *autoAssignJob) Run(ctx context.Context) error {
	result, err := j.orders.AutoAssign(ctx)
	if err != nil {
		return fmt.Errorf("auto-assign: %w", err)
	}
	logCtx := j.logg.WithFields(ctx, map[string]any{
		"assigned": result.Assigned,
		"skipped":  result.Skipped,
	})
	j.logg.Info(logCtx, "auto-assign pass complete")
	return nil
}
