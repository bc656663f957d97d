package notifications

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/dmarquess/localdrop-backend/pkg/db/models"
	pkgerrors "github.com/dmarquess/localdrop-backend/pkg/errors"
	"github.com/dmarquess/localdrop-backend/pkg/pagination"
)

type recordingRepo struct {
	stubNotificationRepo
	listRows       []models.Notification
	markReadRows   int64
	markAllRows    int64
	deletedCutoff  time.Time
	deletedRows    int64
	lastListLimit  int
	lastCursor     *pagination.Cursor
	lastRecipient  uuid.UUID
	lastMarkReadID uuid.UUID
}

func (r *recordingRepo) WithTx(tx *gorm.DB) Repository { return r }

func (r *recordingRepo) ListByRecipient(ctx context.Context, recipientID uuid.UUID, cursor *pagination.Cursor, limit int) ([]models.Notification, error) {
	r.lastRecipient = recipientID
	r.lastCursor = cursor
	r.lastListLimit = limit
	return r.listRows, nil
}

func (r *recordingRepo) MarkRead(ctx context.Context, id, recipientID uuid.UUID) (int64, error) {
	r.lastMarkReadID = id
	return r.markReadRows, nil
}

func (r *recordingRepo) MarkAllRead(ctx context.Context, recipientID uuid.UUID) (int64, error) {
	return r.markAllRows, nil
}

func (r *recordingRepo) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	r.deletedCutoff = cutoff
	return r.deletedRows, nil
}

func TestListRequiresRecipient(t *testing.T) {
	svc, err := NewService(&recordingRepo{})
	require.NoError(t, err)

	_, err = svc.List(context.Background(), uuid.Nil, pagination.Params{})
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeUnauthorized, typed.Code())
}

func TestListScopesToRecipient(t *testing.T) {
	repo := &recordingRepo{listRows: []models.Notification{{ID: uuid.New()}}}
	svc, err := NewService(repo)
	require.NoError(t, err)

	recipient := uuid.New()
	result, err := svc.List(context.Background(), recipient, pagination.Params{})
	require.NoError(t, err)
	assert.Len(t, result.Items, 1)
	assert.Empty(t, result.NextCursor)
	assert.Equal(t, recipient, repo.lastRecipient)
	assert.Equal(t, pagination.DefaultLimit+1, repo.lastListLimit)
}

func TestListPaginatesWithCursor(t *testing.T) {
	rows := make([]models.Notification, 3)
	base := time.Now().UTC()
	for i := range rows {
		rows[i] = models.Notification{ID: uuid.New(), CreatedAt: base.Add(-time.Duration(i) * time.Minute)}
	}
	repo := &recordingRepo{listRows: rows}
	svc, err := NewService(repo)
	require.NoError(t, err)

	result, err := svc.List(context.Background(), uuid.New(), pagination.Params{Limit: 2})
	require.NoError(t, err)
	assert.Len(t, result.Items, 2)
	require.NotEmpty(t, result.NextCursor)

	cursor, err := pagination.ParseCursor(result.NextCursor)
	require.NoError(t, err)
	assert.Equal(t, rows[1].ID, cursor.ID)

	_, err = svc.List(context.Background(), uuid.New(), pagination.Params{Cursor: "not-base64!"})
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeValidation, typed.Code())
}

func TestMarkReadNotFound(t *testing.T) {
	repo := &recordingRepo{markReadRows: 0}
	svc, err := NewService(repo)
	require.NoError(t, err)

	err = svc.MarkRead(context.Background(), uuid.New(), uuid.New())
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeNotFound, typed.Code())
}

func TestMarkAllReadReturnsCount(t *testing.T) {
	repo := &recordingRepo{markAllRows: 3}
	svc, err := NewService(repo)
	require.NoError(t, err)

	affected, err := svc.MarkAllRead(context.Background(), uuid.New())
	require.NoError(t, err)
	assert.Equal(t, int64(3), affected)
}

func TestDeleteOlderThanUsesRetentionCutoff(t *testing.T) {
	repo := &recordingRepo{deletedRows: 7}
	svc, err := NewService(repo)
	require.NoError(t, err)

	deleted, err := svc.DeleteOlderThan(context.Background(), 30*24*time.Hour)
	require.NoError(t, err)
	assert.Equal(t, int64(7), deleted)
	assert.WithinDuration(t, time.Now().UTC().Add(-30*24*time.Hour), repo.deletedCutoff, time.Minute)

	_, err = svc.DeleteOlderThan(context.Background(), 0)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeValidation, typed.Code())
}
