package notifications

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/dmarquess/localdrop-backend/pkg/db/models"
	pkgerrors "github.com/dmarquess/localdrop-backend/pkg/errors"
	"github.com/dmarquess/localdrop-backend/pkg/pagination"
)

// ListResult is one page of notifications plus the cursor for the next page.
type ListResult struct {
	Items      []models.Notification `json:"items"`
	NextCursor string                `json:"next_cursor,omitempty"`
}

// Service defines recipient-facing notification operations.
type Service interface {
	List(ctx context.Context, recipientID uuid.UUID, params pagination.Params) (*ListResult, error)
	MarkRead(ctx context.Context, id, recipientID uuid.UUID) error
	MarkAllRead(ctx context.Context, recipientID uuid.UUID) (int64, error)
	DeleteOlderThan(ctx context.Context, retention time.Duration) (int64, error)
}

type service struct {
	repo Repository
}

// NewService builds a notifications service.
func NewService(repo Repository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("notifications repository required")
	}
	return &service{repo: repo}, nil
}

func (s *service) List(ctx context.Context, recipientID uuid.UUID, params pagination.Params) (*ListResult, error) {
	if recipientID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "recipient identity missing")
	}

	cursor, err := pagination.ParseCursor(params.Cursor)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
	}
	limit := pagination.NormalizeLimit(params.Limit)

	notifications, err := s.repo.ListByRecipient(ctx, recipientID, cursor, pagination.LimitWithBuffer(params.Limit))
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "listing notifications")
	}

	result := &ListResult{Items: notifications}
	if len(notifications) > limit {
		result.Items = notifications[:limit]
		last := result.Items[limit-1]
		result.NextCursor = pagination.EncodeCursor(pagination.Cursor{
			CreatedAt: last.CreatedAt,
			ID:        last.ID,
		})
	}
	return result, nil
}

func (s *service) MarkRead(ctx context.Context, id, recipientID uuid.UUID) error {
	if recipientID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeUnauthorized, "recipient identity missing")
	}
	if id == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "notification id required")
	}
	affected, err := s.repo.MarkRead(ctx, id, recipientID)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "marking notification read")
	}
	if affected == 0 {
		return pkgerrors.New(pkgerrors.CodeNotFound, "notification not found")
	}
	return nil
}

func (s *service) MarkAllRead(ctx context.Context, recipientID uuid.UUID) (int64, error) {
	if recipientID == uuid.Nil {
		return 0, pkgerrors.New(pkgerrors.CodeUnauthorized, "recipient identity missing")
	}
	affected, err := s.repo.MarkAllRead(ctx, recipientID)
	if err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "marking notifications read")
	}
	return affected, nil
}

func (s *service) DeleteOlderThan(ctx context.Context, retention time.Duration) (int64, error) {
	if retention <= 0 {
		return 0, pkgerrors.New(pkgerrors.CodeValidation, "retention must be positive")
	}
	cutoff := time.Now().UTC().Add(-retention)
	deleted, err := s.repo.DeleteOlderThan(ctx, cutoff)
	if err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "deleting stale notifications")
	}
	return deleted, nil
}
