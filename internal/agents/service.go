package agents

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/dmarquess/localdrop-backend/pkg/db"
	"github.com/dmarquess/localdrop-backend/pkg/db/models"
	pkgerrors "github.com/dmarquess/localdrop-backend/pkg/errors"
)

const (
	loginCodeDigits        = 6
	loginCodeCreateRetries = 5
	loginCodeConstraint    = "idx_delivery_agents_login_code"
)

// CreateInput captures the fields required to register a courier.
type CreateInput struct {
	Name  string
	Phone string
}

// Service defines delivery-agent operations.
type Service interface {
	Create(ctx context.Context, input CreateInput) (*models.DeliveryAgent, error)
	Get(ctx context.Context, id uuid.UUID) (*models.DeliveryAgent, error)
	List(ctx context.Context) ([]models.DeliveryAgent, error)
	SetAvailability(ctx context.Context, id uuid.UUID, available bool) (*models.DeliveryAgent, error)
	FindByLoginCode(ctx context.Context, loginCode string) (*models.DeliveryAgent, error)
}

type service struct {
	repo Repository
}

// NewService builds an agents service.
func NewService(repo Repository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("agents repository required")
	}
	return &service{repo: repo}, nil
}

// Create registers a courier with a freshly generated login code. The code is
// unique among agents; a collision with an existing row regenerates and
// retries.
func (s *service) Create(ctx context.Context, input CreateInput) (*models.DeliveryAgent, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "agent name required")
	}
	phone := strings.TrimSpace(input.Phone)
	if phone == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "agent phone required")
	}

	var lastErr error
	for attempt := 0; attempt < loginCodeCreateRetries; attempt++ {
		code, err := generateLoginCode()
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "generating login code")
		}
		agent := &models.DeliveryAgent{
			Name:      name,
			Phone:     phone,
			Available: true,
			LoginCode: code,
		}
		created, err := s.repo.Create(ctx, agent)
		if err == nil {
			return created, nil
		}
		if !db.IsUniqueViolation(err, loginCodeConstraint) {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "creating agent")
		}
		lastErr = err
	}
	return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, lastErr, "login code collisions exhausted retries")
}

func (s *service) Get(ctx context.Context, id uuid.UUID) (*models.DeliveryAgent, error) {
	if id == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "agent id required")
	}
	agent, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "agent not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "loading agent")
	}
	return agent, nil
}

func (s *service) List(ctx context.Context) ([]models.DeliveryAgent, error) {
	agents, err := s.repo.List(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "listing agents")
	}
	return agents, nil
}

func (s *service) SetAvailability(ctx context.Context, id uuid.UUID, available bool) (*models.DeliveryAgent, error) {
	if id == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "agent id required")
	}
	affected, err := s.repo.SetAvailability(ctx, id, available)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "updating availability")
	}
	if affected == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "agent not found")
	}
	return s.Get(ctx, id)
}

func (s *service) FindByLoginCode(ctx context.Context, loginCode string) (*models.DeliveryAgent, error) {
	code := strings.TrimSpace(loginCode)
	if code == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "login code required")
	}
	agent, err := s.repo.FindByLoginCode(ctx, code)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "unknown login code")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "looking up login code")
	}
	return agent, nil
}

func generateLoginCode() (string, error) {
	max := big.NewInt(1)
	for i := 0; i < loginCodeDigits; i++ {
		max.Mul(max, big.NewInt(10))
	}
	n, err := rand.Int(rand.Reader, max)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%0*d", loginCodeDigits, n), nil
}
