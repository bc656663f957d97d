package orders

import (
	"context"
	"errors"
	"io"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
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

type assignCall struct {
	orderID uuid.UUID
	agentID uuid.UUID
}

type stubOrderRepo struct {
	orders        map[uuid.UUID]*models.Order
	unassigned    []models.Order
	delivered     []models.Order
	byAgent       []models.Order
	events        []*models.OrderEvent
	assignCalls   []assignCall
	assignWins    bool
	assignErrOn   map[uuid.UUID]error
	pickupWins    bool
	deliveredWins bool
	appendErr     error
}

func newStubOrderRepo() *stubOrderRepo {
	return &stubOrderRepo{
		orders:        map[uuid.UUID]*models.Order{},
		assignWins:    true,
		pickupWins:    true,
		deliveredWins: true,
	}
}

func (s *stubOrderRepo) WithTx(tx *gorm.DB) Repository { return s }

func (s *stubOrderRepo) FindByID(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	order, ok := s.orders[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	copied := *order
	return &copied, nil
}

func (s *stubOrderRepo) ListUnassignedAccepted(ctx context.Context) ([]models.Order, error) {
	return s.unassigned, nil
}

func (s *stubOrderRepo) ListByAgent(ctx context.Context, agentID uuid.UUID, filters ListFilters) ([]models.Order, error) {
	return s.byAgent, nil
}

func (s *stubOrderRepo) FindDeliveredAssigned(ctx context.Context) ([]models.Order, error) {
	return s.delivered, nil
}

func (s *stubOrderRepo) AssignAgent(ctx context.Context, orderID, agentID uuid.UUID, agentName string) (bool, error) {
	if err, ok := s.assignErrOn[orderID]; ok {
		return false, err
	}
	s.assignCalls = append(s.assignCalls, assignCall{orderID: orderID, agentID: agentID})
	if !s.assignWins {
		return false, nil
	}
	if order, ok := s.orders[orderID]; ok {
		order.Status = enums.OrderStatusReady
		order.AgentID = &agentID
		order.AgentName = &agentName
	}
	return true, nil
}

func (s *stubOrderRepo) MarkPickedUp(ctx context.Context, orderID, agentID uuid.UUID) (bool, error) {
	if !s.pickupWins {
		return false, nil
	}
	if order, ok := s.orders[orderID]; ok {
		order.Status = enums.OrderStatusPickedUp
	}
	return true, nil
}

func (s *stubOrderRepo) MarkDelivered(ctx context.Context, orderID, agentID uuid.UUID) (bool, error) {
	if !s.deliveredWins {
		return false, nil
	}
	if order, ok := s.orders[orderID]; ok {
		order.Status = enums.OrderStatusDelivered
	}
	return true, nil
}

func (s *stubOrderRepo) AppendEvent(ctx context.Context, event *models.OrderEvent) error {
	if s.appendErr != nil {
		return s.appendErr
	}
	s.events = append(s.events, event)
	return nil
}

type stubAgentsRepo struct {
	agents     map[uuid.UUID]*models.DeliveryAgent
	available  []models.DeliveryAgent
	increments map[uuid.UUID]int
	incErr     error
}

func newStubAgentsRepo() *stubAgentsRepo {
	return &stubAgentsRepo{
		agents:     map[uuid.UUID]*models.DeliveryAgent{},
		increments: map[uuid.UUID]int{},
	}
}

func (s *stubAgentsRepo) WithTx(tx *gorm.DB) agents.Repository { return s }

func (s *stubAgentsRepo) Create(ctx context.Context, agent *models.DeliveryAgent) (*models.DeliveryAgent, error) {
	return agent, nil
}

func (s *stubAgentsRepo) FindByID(ctx context.Context, id uuid.UUID) (*models.DeliveryAgent, error) {
	agent, ok := s.agents[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return agent, nil
}

func (s *stubAgentsRepo) FindByLoginCode(ctx context.Context, loginCode string) (*models.DeliveryAgent, error) {
	return nil, gorm.ErrRecordNotFound
}

func (s *stubAgentsRepo) List(ctx context.Context) ([]models.DeliveryAgent, error) {
	return nil, nil
}

func (s *stubAgentsRepo) ListAvailable(ctx context.Context) ([]models.DeliveryAgent, error) {
	return s.available, nil
}

func (s *stubAgentsRepo) SetAvailability(ctx context.Context, id uuid.UUID, available bool) (int64, error) {
	return 1, nil
}

func (s *stubAgentsRepo) IncrementCommissionTotal(ctx context.Context, id uuid.UUID, amount int) error {
	if s.incErr != nil {
		return s.incErr
	}
	s.increments[id] += amount
	return nil
}

type stubCommissionsRepo struct {
	upserted  []*models.Commission
	upsertErr error
}

func (s *stubCommissionsRepo) WithTx(tx *gorm.DB) commissions.Repository { return s }

func (s *stubCommissionsRepo) UpsertAmount(ctx context.Context, commission *models.Commission) error {
	if s.upsertErr != nil {
		return s.upsertErr
	}
	s.upserted = append(s.upserted, commission)
	return nil
}

func (s *stubCommissionsRepo) FindByID(ctx context.Context, id uuid.UUID) (*models.Commission, error) {
	return nil, gorm.ErrRecordNotFound
}

func (s *stubCommissionsRepo) FindByOrder(ctx context.Context, orderID uuid.UUID) (*models.Commission, error) {
	return nil, gorm.ErrRecordNotFound
}

func (s *stubCommissionsRepo) List(ctx context.Context, filters commissions.ListFilters) ([]models.Commission, error) {
	return nil, nil
}

func (s *stubCommissionsRepo) UpdatePaidStatus(ctx context.Context, id uuid.UUID, updates map[string]any) error {
	return nil
}

type stubTxRunner struct{}

func (stubTxRunner) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return fn(nil)
}

type capturePublisher struct {
	events []notifications.OrderEventMessage
}

func (c *capturePublisher) PublishOrderEvent(ctx context.Context, msg notifications.OrderEventMessage) {
	c.events = append(c.events, msg)
}

type serviceFixture struct {
	svc         Service
	repo        *stubOrderRepo
	agents      *stubAgentsRepo
	commissions *stubCommissionsRepo
	publisher   *capturePublisher
}

func newServiceFixture(t *testing.T) *serviceFixture {
	t.Helper()
	repo := newStubOrderRepo()
	agentsRepo := newStubAgentsRepo()
	commissionsRepo := &stubCommissionsRepo{}
	publisher := &capturePublisher{}
	logg := logger.New(logger.Options{ServiceName: "test", Output: io.Discard})

	svc, err := NewService(repo, agentsRepo, commissionsRepo, stubTxRunner{}, publisher, logg)
	require.NoError(t, err)

	return &serviceFixture{
		svc:         svc,
		repo:        repo,
		agents:      agentsRepo,
		commissions: commissionsRepo,
		publisher:   publisher,
	}
}

func (f *serviceFixture) seedOrder(order *models.Order) *models.Order {
	if order.ID == uuid.Nil {
		order.ID = uuid.New()
	}
	f.repo.orders[order.ID] = order
	return order
}

func (f *serviceFixture) seedAgent(name string) *models.DeliveryAgent {
	agent := &models.DeliveryAgent{ID: uuid.New(), Name: name, Available: true}
	f.agents.agents[agent.ID] = agent
	return agent
}

func acceptedOrder() *models.Order {
	return &models.Order{
		Status:        enums.OrderStatusAccepted,
		ShopLocation:  types.GeographyPoint{Lat: 0, Lng: 0},
		BuyerLocation: types.GeographyPoint{Lat: 0, Lng: 0},
		DeliveryCode:  "482913",
	}
}

func TestAssignHappyPath(t *testing.T) {
	f := newServiceFixture(t)
	order := f.seedOrder(acceptedOrder())
	agent := f.seedAgent("Dana")

	assigned, err := f.svc.Assign(context.Background(), AssignInput{
		OrderID:     order.ID,
		AgentID:     agent.ID,
		ActorUserID: uuid.New(),
	})
	require.NoError(t, err)
	assert.Equal(t, enums.OrderStatusReady, assigned.Status)
	require.NotNil(t, assigned.AgentID)
	assert.Equal(t, agent.ID, *assigned.AgentID)

	require.Len(t, f.repo.events, 1)
	assert.Equal(t, actionAssigned, f.repo.events[0].Action)
	assert.Equal(t, enums.ActorRoleAdmin, f.repo.events[0].ActorRole)

	require.Len(t, f.publisher.events, 1)
	assert.Equal(t, enums.NotificationTypeOrderAssigned, f.publisher.events[0].Type)
}

func TestAssignConflictWhenAlreadyAssigned(t *testing.T) {
	f := newServiceFixture(t)
	existing := uuid.New()
	order := acceptedOrder()
	order.Status = enums.OrderStatusReady
	order.AgentID = &existing
	seeded := f.seedOrder(order)
	agent := f.seedAgent("Dana")

	_, err := f.svc.Assign(context.Background(), AssignInput{OrderID: seeded.ID, AgentID: agent.ID})
	assertCode(t, err, pkgerrors.CodeConflict)
	assert.Empty(t, f.publisher.events)
}

func TestAssignNotFound(t *testing.T) {
	f := newServiceFixture(t)
	agent := f.seedAgent("Dana")

	_, err := f.svc.Assign(context.Background(), AssignInput{OrderID: uuid.New(), AgentID: agent.ID})
	assertCode(t, err, pkgerrors.CodeNotFound)

	order := f.seedOrder(acceptedOrder())
	_, err = f.svc.Assign(context.Background(), AssignInput{OrderID: order.ID, AgentID: uuid.New()})
	assertCode(t, err, pkgerrors.CodeNotFound)
}

func TestAssignLosesConditionalWrite(t *testing.T) {
	f := newServiceFixture(t)
	order := f.seedOrder(acceptedOrder())
	agent := f.seedAgent("Dana")
	f.repo.assignWins = false

	_, err := f.svc.Assign(context.Background(), AssignInput{OrderID: order.ID, AgentID: agent.ID})
	assertCode(t, err, pkgerrors.CodeConflict)
}

func TestAutoAssignRoundRobin(t *testing.T) {
	f := newServiceFixture(t)
	agentA := f.seedAgent("A")
	agentB := f.seedAgent("B")
	f.agents.available = []models.DeliveryAgent{*agentA, *agentB}

	var seeded []*models.Order
	for i := 0; i < 5; i++ {
		seeded = append(seeded, f.seedOrder(acceptedOrder()))
	}
	for _, order := range seeded {
		f.repo.unassigned = append(f.repo.unassigned, *order)
	}

	result, err := f.svc.AutoAssign(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 5, result.Assigned)
	assert.Equal(t, 0, result.Skipped)

	require.Len(t, f.repo.assignCalls, 5)
	expected := []uuid.UUID{agentA.ID, agentB.ID, agentA.ID, agentB.ID, agentA.ID}
	for i, call := range f.repo.assignCalls {
		assert.Equal(t, seeded[i].ID, call.orderID)
		assert.Equal(t, expected[i], call.agentID, "order %d", i)
	}

	assert.Len(t, f.publisher.events, 5)
	assert.Len(t, f.repo.events, 5)
	assert.Equal(t, enums.ActorRoleSystem, f.repo.events[0].ActorRole)
}

func TestAutoAssignZeroAgentsIsSuccess(t *testing.T) {
	f := newServiceFixture(t)
	f.repo.unassigned = []models.Order{*f.seedOrder(acceptedOrder())}

	result, err := f.svc.AutoAssign(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, result.Assigned)
	assert.Empty(t, f.repo.assignCalls)
}

func TestAutoAssignSkipsFailedOrders(t *testing.T) {
	f := newServiceFixture(t)
	agent := f.seedAgent("A")
	f.agents.available = []models.DeliveryAgent{*agent}

	bad := f.seedOrder(acceptedOrder())
	good := f.seedOrder(acceptedOrder())
	f.repo.unassigned = []models.Order{*bad, *good}
	f.repo.assignErrOn = map[uuid.UUID]error{bad.ID: errors.New("write failed")}

	result, err := f.svc.AutoAssign(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, result.Assigned)
	assert.Equal(t, 1, result.Skipped)
}

func TestPickupHappyPath(t *testing.T) {
	f := newServiceFixture(t)
	agent := f.seedAgent("Dana")
	order := acceptedOrder()
	order.Status = enums.OrderStatusReady
	order.AgentID = &agent.ID
	seeded := f.seedOrder(order)

	picked, err := f.svc.Pickup(context.Background(), PickupInput{OrderID: seeded.ID, AgentID: agent.ID})
	require.NoError(t, err)
	assert.Equal(t, enums.OrderStatusPickedUp, picked.Status)

	require.Len(t, f.publisher.events, 1)
	assert.Equal(t, enums.NotificationTypeOrderPickedUp, f.publisher.events[0].Type)
}

func TestPickupForbiddenForOtherAgent(t *testing.T) {
	f := newServiceFixture(t)
	owner := uuid.New()
	order := acceptedOrder()
	order.Status = enums.OrderStatusReady
	order.AgentID = &owner
	seeded := f.seedOrder(order)

	_, err := f.svc.Pickup(context.Background(), PickupInput{OrderID: seeded.ID, AgentID: uuid.New()})
	assertCode(t, err, pkgerrors.CodeForbidden)
}

func TestPickupRejectsWrongState(t *testing.T) {
	f := newServiceFixture(t)
	agent := f.seedAgent("Dana")

	for _, status := range []enums.OrderStatus{
		enums.OrderStatusAccepted,
		enums.OrderStatusPickedUp,
		enums.OrderStatusDelivered,
	} {
		order := acceptedOrder()
		order.Status = status
		order.AgentID = &agent.ID
		seeded := f.seedOrder(order)

		_, err := f.svc.Pickup(context.Background(), PickupInput{OrderID: seeded.ID, AgentID: agent.ID})
		assertCode(t, err, pkgerrors.CodeStateConflict)
	}
}

func TestCompleteWithCodeHappyPath(t *testing.T) {
	f := newServiceFixture(t)
	agent := f.seedAgent("Dana")
	order := acceptedOrder()
	order.Status = enums.OrderStatusPickedUp
	order.AgentID = &agent.ID
	order.BuyerLocation = types.GeographyPoint{Lat: 0, Lng: 0.05} // ~5.56 km
	seeded := f.seedOrder(order)

	result, err := f.svc.CompleteWithCode(context.Background(), CompleteInput{
		OrderID:       seeded.ID,
		AgentID:       agent.ID,
		SubmittedCode: "482913",
	})
	require.NoError(t, err)
	assert.Equal(t, enums.OrderStatusDelivered, result.Order.Status)
	require.NotNil(t, result.Commission)
	assert.Equal(t, 10, result.Commission.Amount)
	assert.Equal(t, enums.CommissionUnpaid, result.Commission.PaidStatus)

	require.Len(t, f.commissions.upserted, 1)
	assert.Equal(t, 10, f.agents.increments[agent.ID])

	require.Len(t, f.publisher.events, 1)
	assert.Equal(t, enums.NotificationTypeOrderDelivered, f.publisher.events[0].Type)
}

func TestCompleteWithCodeInvalidCodeLeavesOrderUntouched(t *testing.T) {
	f := newServiceFixture(t)
	agent := f.seedAgent("Dana")
	order := acceptedOrder()
	order.Status = enums.OrderStatusPickedUp
	order.AgentID = &agent.ID
	seeded := f.seedOrder(order)

	_, err := f.svc.CompleteWithCode(context.Background(), CompleteInput{
		OrderID:       seeded.ID,
		AgentID:       agent.ID,
		SubmittedCode: "999999",
	})
	assertCode(t, err, pkgerrors.CodeInvalidCode)

	stored := f.repo.orders[seeded.ID]
	assert.Equal(t, enums.OrderStatusPickedUp, stored.Status)
	assert.Empty(t, f.commissions.upserted)
	assert.Empty(t, f.publisher.events)
}

func TestCompleteWithCodeForbidden(t *testing.T) {
	f := newServiceFixture(t)
	owner := uuid.New()
	order := acceptedOrder()
	order.Status = enums.OrderStatusPickedUp
	order.AgentID = &owner
	seeded := f.seedOrder(order)

	_, err := f.svc.CompleteWithCode(context.Background(), CompleteInput{
		OrderID:       seeded.ID,
		AgentID:       uuid.New(),
		SubmittedCode: "482913",
	})
	assertCode(t, err, pkgerrors.CodeForbidden)
}

func TestCompleteWithCodeCommissionFailureAborts(t *testing.T) {
	f := newServiceFixture(t)
	agent := f.seedAgent("Dana")
	order := acceptedOrder()
	order.Status = enums.OrderStatusPickedUp
	order.AgentID = &agent.ID
	seeded := f.seedOrder(order)
	f.commissions.upsertErr = errors.New("insert failed")

	_, err := f.svc.CompleteWithCode(context.Background(), CompleteInput{
		OrderID:       seeded.ID,
		AgentID:       agent.ID,
		SubmittedCode: "482913",
	})
	assertCode(t, err, pkgerrors.CodeDependency)
	assert.Empty(t, f.publisher.events, "no event published when the unit of work fails")
	assert.Zero(t, f.agents.increments[agent.ID])
}
