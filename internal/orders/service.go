package orders

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/dmarquess/localdrop-backend/internal/agents"
	"github.com/dmarquess/localdrop-backend/internal/commissions"
	"github.com/dmarquess/localdrop-backend/internal/notifications"
	"github.com/dmarquess/localdrop-backend/pkg/db/models"
	"github.com/dmarquess/localdrop-backend/pkg/enums"
	pkgerrors "github.com/dmarquess/localdrop-backend/pkg/errors"
	"github.com/dmarquess/localdrop-backend/pkg/logger"
	"github.com/dmarquess/localdrop-backend/pkg/types"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

const (
	actionAssigned  = "assigned"
	actionPickedUp  = "picked_up"
	actionDelivered = "delivered"
)

// Service defines order lifecycle operations.
type Service interface {
	Get(ctx context.Context, orderID uuid.UUID) (*models.Order, error)
	ListByAgent(ctx context.Context, agentID uuid.UUID, filters ListFilters) ([]models.Order, error)
	Assign(ctx context.Context, input AssignInput) (*models.Order, error)
	AutoAssign(ctx context.Context) (*AutoAssignResult, error)
	Pickup(ctx context.Context, input PickupInput) (*models.Order, error)
	CompleteWithCode(ctx context.Context, input CompleteInput) (*CompleteResult, error)
}

type service struct {
	repo        Repository
	agents      agents.Repository
	commissions commissions.Repository
	tx          txRunner
	publisher   notifications.OrderEventPublisher
	logg        *logger.Logger
}

// NewService builds an orders service with the required dependencies.
func NewService(
	repo Repository,
	agentsRepo agents.Repository,
	commissionsRepo commissions.Repository,
	tx txRunner,
	publisher notifications.OrderEventPublisher,
	logg *logger.Logger,
) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	if agentsRepo == nil {
		return nil, fmt.Errorf("agents repository required")
	}
	if commissionsRepo == nil {
		return nil, fmt.Errorf("commissions repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if publisher == nil {
		return nil, fmt.Errorf("order event publisher required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{
		repo:        repo,
		agents:      agentsRepo,
		commissions: commissionsRepo,
		tx:          tx,
		publisher:   publisher,
		logg:        logg,
	}, nil
}

func (s *service) Get(ctx context.Context, orderID uuid.UUID) (*models.Order, error) {
	if orderID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id required")
	}
	order, err := s.repo.FindByID(ctx, orderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "loading order")
	}
	return order, nil
}

func (s *service) ListByAgent(ctx context.Context, agentID uuid.UUID, filters ListFilters) ([]models.Order, error) {
	if agentID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "agent identity missing")
	}
	orders, err := s.repo.ListByAgent(ctx, agentID, filters)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "listing orders")
	}
	return orders, nil
}

// Assign performs a manual assignment. The guard runs twice: once against the
// loaded row for precise error taxonomy, and again inside the conditional
// update so a concurrent assign on the same order cannot also win.
func (s *service) Assign(ctx context.Context, input AssignInput) (*models.Order, error) {
	if input.OrderID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id required")
	}
	if input.AgentID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "agent id required")
	}

	var assigned *models.Order
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		order, err := repo.FindByID(ctx, input.OrderID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "loading order")
		}
		if err := canAssign(order); err != nil {
			return err
		}

		agent, err := s.agents.WithTx(tx).FindByID(ctx, input.AgentID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "agent not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "loading agent")
		}
		agentName := input.AgentName
		if agentName == "" {
			agentName = agent.Name
		}

		won, err := repo.AssignAgent(ctx, order.ID, agent.ID, agentName)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "assigning order")
		}
		if !won {
			return pkgerrors.New(pkgerrors.CodeConflict, "order was assigned concurrently")
		}

		event := &models.OrderEvent{
			OrderID:     order.ID,
			Status:      enums.OrderStatusReady,
			Action:      actionAssigned,
			Description: fmt.Sprintf("Order assigned to %s", agentName),
			ActorRole:   enums.ActorRoleAdmin,
			ActorID:     actorIDPtr(input.ActorUserID),
			Metadata:    eventMetadata(map[string]any{"agent_id": agent.ID.String(), "trigger": "manual"}),
		}
		if err := repo.AppendEvent(ctx, event); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "appending timeline entry")
		}

		assigned, err = repo.FindByID(ctx, order.ID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reloading order")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.publishEvent(ctx, enums.NotificationTypeOrderAssigned, assigned)
	return assigned, nil
}

// AutoAssign pairs accepted, unassigned orders with available agents by
// strict round-robin. Each pairing carries its own conditional update;
// per-order failures are logged and skipped so partial success is a normal
// outcome. Zero available agents assigns nothing and is not an error.
func (s *service) AutoAssign(ctx context.Context) (*AutoAssignResult, error) {
	pending, err := s.repo.ListUnassignedAccepted(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "listing unassigned orders")
	}
	available, err := s.agents.ListAvailable(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "listing available agents")
	}

	result := &AutoAssignResult{}
	for _, pairing := range roundRobinPairings(pending, available) {
		logCtx := s.logg.WithOrderID(ctx, pairing.Order.ID.String())

		won, err := s.repo.AssignAgent(ctx, pairing.Order.ID, pairing.Agent.ID, pairing.Agent.Name)
		if err != nil {
			result.Skipped++
			s.logg.Error(logCtx, "auto-assign update failed", err)
			continue
		}
		if !won {
			result.Skipped++
			s.logg.Info(logCtx, "order no longer assignable, skipping")
			continue
		}

		event := &models.OrderEvent{
			OrderID:     pairing.Order.ID,
			Status:      enums.OrderStatusReady,
			Action:      actionAssigned,
			Description: fmt.Sprintf("Order auto-assigned to %s", pairing.Agent.Name),
			ActorRole:   enums.ActorRoleSystem,
			Metadata:    eventMetadata(map[string]any{"agent_id": pairing.Agent.ID.String(), "trigger": "auto"}),
		}
		if err := s.repo.AppendEvent(ctx, event); err != nil {
			s.logg.Error(logCtx, "auto-assign timeline append failed", err)
		}

		result.Assigned++

		agentID := pairing.Agent.ID
		order := pairing.Order
		order.AgentID = &agentID
		order.AgentName = &pairing.Agent.Name
		order.Status = enums.OrderStatusReady
		s.publishEvent(ctx, enums.NotificationTypeOrderAssigned, &order)
	}
	return result, nil
}

func (s *service) Pickup(ctx context.Context, input PickupInput) (*models.Order, error) {
	if input.OrderID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id required")
	}
	if input.AgentID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "agent identity missing")
	}

	var picked *models.Order
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		order, err := repo.FindByID(ctx, input.OrderID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "loading order")
		}
		if err := canPickup(order, input.AgentID); err != nil {
			return err
		}

		won, err := repo.MarkPickedUp(ctx, order.ID, input.AgentID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "updating order")
		}
		if !won {
			return pkgerrors.New(pkgerrors.CodeConflict, "order changed concurrently")
		}

		event := &models.OrderEvent{
			OrderID:     order.ID,
			Status:      enums.OrderStatusPickedUp,
			Action:      actionPickedUp,
			Description: "Order picked up at the shop",
			ActorRole:   enums.ActorRoleAgent,
			ActorID:     actorIDPtr(input.AgentID),
		}
		if err := repo.AppendEvent(ctx, event); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "appending timeline entry")
		}

		picked, err = repo.FindByID(ctx, order.ID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reloading order")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.publishEvent(ctx, enums.NotificationTypeOrderPickedUp, picked)
	return picked, nil
}

// CompleteWithCode finishes a delivery in one unit of work: the terminal
// status write, the timeline entry, the commission upsert, and the agent's
// running total all commit or roll back together.
func (s *service) CompleteWithCode(ctx context.Context, input CompleteInput) (*CompleteResult, error) {
	if input.OrderID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id required")
	}
	if input.AgentID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "agent identity missing")
	}
	if input.SubmittedCode == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "delivery code required")
	}

	result := &CompleteResult{}
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		order, err := repo.FindByID(ctx, input.OrderID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "loading order")
		}
		if err := canComplete(order, input.AgentID, input.SubmittedCode); err != nil {
			return err
		}

		won, err := repo.MarkDelivered(ctx, order.ID, input.AgentID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "updating order")
		}
		if !won {
			return pkgerrors.New(pkgerrors.CodeConflict, "order changed concurrently")
		}

		event := &models.OrderEvent{
			OrderID:     order.ID,
			Status:      enums.OrderStatusDelivered,
			Action:      actionDelivered,
			Description: "Order delivered, code verified",
			ActorRole:   enums.ActorRoleAgent,
			ActorID:     actorIDPtr(input.AgentID),
		}
		if err := repo.AppendEvent(ctx, event); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "appending timeline entry")
		}

		amount := commissions.CalculateAmount(order.ShopLocation, order.BuyerLocation)
		commission := &models.Commission{
			AgentID:    input.AgentID,
			OrderID:    order.ID,
			Amount:     amount,
			PaidStatus: enums.CommissionUnpaid,
		}
		if err := s.commissions.WithTx(tx).UpsertAmount(ctx, commission); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "writing commission")
		}
		if err := s.agents.WithTx(tx).IncrementCommissionTotal(ctx, input.AgentID, amount); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "updating agent total")
		}

		result.Commission = commission
		result.Order, err = repo.FindByID(ctx, order.ID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reloading order")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.publishEvent(ctx, enums.NotificationTypeOrderDelivered, result.Order)
	return result, nil
}

// publishEvent broadcasts a lifecycle change; best-effort, never fails the
// caller.
func (s *service) publishEvent(ctx context.Context, eventType enums.NotificationType, order *models.Order) {
	if order == nil || order.AgentID == nil {
		return
	}
	agentName := ""
	if order.AgentName != nil {
		agentName = *order.AgentName
	}
	s.publisher.PublishOrderEvent(ctx, notifications.OrderEventMessage{
		EventID:    uuid.New(),
		Type:       eventType,
		OrderID:    order.ID,
		AgentID:    *order.AgentID,
		AgentName:  agentName,
		Status:     order.Status,
		OccurredAt: time.Now().UTC(),
	})
}

func actorIDPtr(id uuid.UUID) *uuid.UUID {
	if id == uuid.Nil {
		return nil
	}
	return &id
}

func eventMetadata(fields map[string]any) *types.JSONMap {
	if len(fields) == 0 {
		return nil
	}
	meta := types.JSONMap(fields)
	return &meta
}
