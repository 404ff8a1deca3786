package api

import (
	"context"

	"parlayz/models"
	"parlayz/service"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
)

type MockUserService struct {
	mock.Mock
}

func (m *MockUserService) Register(ctx context.Context, username string) (*models.User, error) {
	args := m.Called(ctx, username)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserService) GetByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserService) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	args := m.Called(ctx, username)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserService) GetHistory(ctx context.Context, userID uuid.UUID, limit int) ([]*models.BalanceHistory, error) {
	args := m.Called(ctx, userID, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.BalanceHistory), args.Error(1)
}

func (m *MockUserService) SetAdmin(ctx context.Context, username string, isAdmin bool) (*models.User, error) {
	args := m.Called(ctx, username, isAdmin)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

type MockPoolService struct {
	mock.Mock
}

func (m *MockPoolService) CreateEvent(ctx context.Context, actor models.Actor, params service.CreateEventParams) (*models.EventDetail, error) {
	args := m.Called(ctx, actor, params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.EventDetail), args.Error(1)
}

func (m *MockPoolService) GetEvent(ctx context.Context, eventID uuid.UUID) (*models.EventDetail, error) {
	args := m.Called(ctx, eventID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.EventDetail), args.Error(1)
}

func (m *MockPoolService) ListEvents(ctx context.Context, status *models.EventStatus, limit int) ([]*models.Event, error) {
	args := m.Called(ctx, status, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Event), args.Error(1)
}

func (m *MockPoolService) JoinEvent(ctx context.Context, actor models.Actor, eventID uuid.UUID, outcome string, stake decimal.Decimal) (*models.Entry, error) {
	args := m.Called(ctx, actor, eventID, outcome, stake)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Entry), args.Error(1)
}

func (m *MockPoolService) LockEvent(ctx context.Context, actor models.Actor, eventID uuid.UUID) (*models.Event, error) {
	args := m.Called(ctx, actor, eventID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Event), args.Error(1)
}

type MockMiniPoolService struct {
	mock.Mock
}

func (m *MockMiniPoolService) CreateMiniPool(ctx context.Context, actor models.Actor, eventID uuid.UUID, name string, minStake *decimal.Decimal) (*models.MiniPool, error) {
	args := m.Called(ctx, actor, eventID, name, minStake)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.MiniPool), args.Error(1)
}

func (m *MockMiniPoolService) JoinMiniPool(ctx context.Context, actor models.Actor, miniPoolID uuid.UUID, outcome string, stake decimal.Decimal) (*models.MiniPoolEntry, error) {
	args := m.Called(ctx, actor, miniPoolID, outcome, stake)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.MiniPoolEntry), args.Error(1)
}

func (m *MockMiniPoolService) GetMiniPool(ctx context.Context, miniPoolID uuid.UUID) (*models.MiniPoolDetail, error) {
	args := m.Called(ctx, miniPoolID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.MiniPoolDetail), args.Error(1)
}

type MockOfferService struct {
	mock.Mock
}

func (m *MockOfferService) CreateOffer(ctx context.Context, actor models.Actor, params service.CreateOfferParams) (*models.P2POffer, error) {
	args := m.Called(ctx, actor, params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.P2POffer), args.Error(1)
}

func (m *MockOfferService) MatchOffer(ctx context.Context, actor models.Actor, offerID uuid.UUID, stake decimal.Decimal, takerOutcome *string) (*models.P2POffer, error) {
	args := m.Called(ctx, actor, offerID, stake, takerOutcome)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.P2POffer), args.Error(1)
}

func (m *MockOfferService) CancelOffer(ctx context.Context, actor models.Actor, offerID uuid.UUID) (*models.P2POffer, error) {
	args := m.Called(ctx, actor, offerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.P2POffer), args.Error(1)
}

func (m *MockOfferService) ListOffers(ctx context.Context, eventID uuid.UUID, status *models.OfferStatus) ([]*models.P2POffer, error) {
	args := m.Called(ctx, eventID, status)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.P2POffer), args.Error(1)
}

type MockSettlementService struct {
	mock.Mock
}

func (m *MockSettlementService) SettleEvent(ctx context.Context, actor models.Actor, eventID uuid.UUID, winningOutcome string) (*models.SettlementResult, error) {
	args := m.Called(ctx, actor, eventID, winningOutcome)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.SettlementResult), args.Error(1)
}

type fakePinger struct {
	err error
}

func (p fakePinger) Ping(ctx context.Context) error {
	return p.err
}
