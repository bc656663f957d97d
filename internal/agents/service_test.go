package agents

import (
	"context"
	"errors"
	"regexp"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/dmarquess/localdrop-backend/pkg/db/models"
	pkgerrors "github.com/dmarquess/localdrop-backend/pkg/errors"
)

type stubAgentRepo struct {
	created          []*models.DeliveryAgent
	createErrs       []error
	findResult       *models.DeliveryAgent
	findErr          error
	listRows         []models.DeliveryAgent
	availableRows    []models.DeliveryAgent
	availabilityRows int64
	incrementErr     error
}

func (s *stubAgentRepo) WithTx(tx *gorm.DB) Repository { return s }

func (s *stubAgentRepo) Create(ctx context.Context, agent *models.DeliveryAgent) (*models.DeliveryAgent, error) {
	if len(s.createErrs) > 0 {
		err := s.createErrs[0]
		s.createErrs = s.createErrs[1:]
		if err != nil {
			return nil, err
		}
	}
	agent.ID = uuid.New()
	s.created = append(s.created, agent)
	return agent, nil
}

func (s *stubAgentRepo) FindByID(ctx context.Context, id uuid.UUID) (*models.DeliveryAgent, error) {
	if s.findErr != nil {
		return nil, s.findErr
	}
	if s.findResult == nil {
		return nil, gorm.ErrRecordNotFound
	}
	return s.findResult, nil
}

func (s *stubAgentRepo) FindByLoginCode(ctx context.Context, loginCode string) (*models.DeliveryAgent, error) {
	return s.FindByID(ctx, uuid.Nil)
}

func (s *stubAgentRepo) List(ctx context.Context) ([]models.DeliveryAgent, error) {
	return s.listRows, nil
}

func (s *stubAgentRepo) ListAvailable(ctx context.Context) ([]models.DeliveryAgent, error) {
	return s.availableRows, nil
}

func (s *stubAgentRepo) SetAvailability(ctx context.Context, id uuid.UUID, available bool) (int64, error) {
	return s.availabilityRows, nil
}

func (s *stubAgentRepo) IncrementCommissionTotal(ctx context.Context, id uuid.UUID, amount int) error {
	return s.incrementErr
}

func TestCreateGeneratesLoginCode(t *testing.T) {
	repo := &stubAgentRepo{}
	svc, err := NewService(repo)
	require.NoError(t, err)

	agent, err := svc.Create(context.Background(), CreateInput{Name: "Dana", Phone: "5550001"})
	require.NoError(t, err)
	assert.True(t, agent.Available)
	assert.Regexp(t, regexp.MustCompile(`^\d{6}$`), agent.LoginCode)
}

func TestCreateRegeneratesCodeOnCollision(t *testing.T) {
	collision := errors.New(`duplicate key value violates unique constraint "idx_delivery_agents_login_code"`)
	repo := &stubAgentRepo{createErrs: []error{collision, collision}}
	svc, err := NewService(repo)
	require.NoError(t, err)

	agent, err := svc.Create(context.Background(), CreateInput{Name: "Dana", Phone: "5550001"})
	require.NoError(t, err)
	require.Len(t, repo.created, 1)
	assert.NotEmpty(t, agent.LoginCode)
}

func TestCreateSurfacesNonCollisionErrors(t *testing.T) {
	repo := &stubAgentRepo{createErrs: []error{errors.New("connection refused")}}
	svc, err := NewService(repo)
	require.NoError(t, err)

	_, err = svc.Create(context.Background(), CreateInput{Name: "Dana", Phone: "5550001"})
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeDependency, typed.Code())
}

func TestCreateValidation(t *testing.T) {
	svc, err := NewService(&stubAgentRepo{})
	require.NoError(t, err)

	_, err = svc.Create(context.Background(), CreateInput{Name: " ", Phone: "5550001"})
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeValidation, typed.Code())

	_, err = svc.Create(context.Background(), CreateInput{Name: "Dana", Phone: ""})
	typed = pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeValidation, typed.Code())
}

func TestSetAvailabilityNotFound(t *testing.T) {
	repo := &stubAgentRepo{availabilityRows: 0}
	svc, err := NewService(repo)
	require.NoError(t, err)

	_, err = svc.SetAvailability(context.Background(), uuid.New(), false)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeNotFound, typed.Code())
}

func TestFindByLoginCodeUnknown(t *testing.T) {
	svc, err := NewService(&stubAgentRepo{})
	require.NoError(t, err)

	_, err = svc.FindByLoginCode(context.Background(), "123456")
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeUnauthorized, typed.Code())
}
