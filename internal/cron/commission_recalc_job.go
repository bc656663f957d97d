package cron

import (
	"context"
	"fmt"

	"github.com/dmarquess/localdrop-backend/internal/commissions"
	"github.com/dmarquess/localdrop-backend/pkg/logger"
)

type commissionRecalculator interface {
	RecalculateAll(ctx context.Context) (*commissions.RecalculateResult, error)
}

// CommissionRecalcJobParams configure the recalculation job.
type CommissionRecalcJobParams struct {
	Logger      *logger.Logger
	Commissions commissionRecalculator
}

// NewCommissionRecalcJob re-derives commission amounts for delivered orders.
func NewCommissionRecalcJob(params CommissionRecalcJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Commissions == nil {
		return nil, fmt.Errorf("commissions service required")
	}
	return &commissionRecalcJob{logg: params.Logger, commissions: params.Commissions}, nil
}

type commissionRecalcJob struct {
	logg        *logger.Logger
	commissions commissionRecalculator
}

func (j *commissionRecalcJob) Name() string { return "commission-recalc" }

func (j *commissionRecalcJob) Run(ctx context.Context) error {
	result, err := j.commissions.RecalculateAll(ctx)
	if err != nil {
		return fmt.Errorf("commission recalc: %w", err)
	}
	logCtx := j.logg.WithFields(ctx, map[string]any{
		"processed": result.Processed,
		"failed":    result.Failed,
	})
	j.logg.Info(logCtx, "commission recalc complete")
	if result.Failed > 0 {
		return fmt.Errorf("commission recalc: %d orders failed", result.Failed)
	}
	return nil
}
