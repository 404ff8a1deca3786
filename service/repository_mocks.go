package service

import (
	"context"

	"parlayz/events"
	"parlayz/models"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
)

// MockUserRepository is a mock implementation of UserRepository
type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserRepository) GetByIDForUpdate(ctx context.Context, id uuid.UUID) (*models.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserRepository) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	args := m.Called(ctx, username)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserRepository) LockUsers(ctx context.Context, ids []uuid.UUID) error {
	args := m.Called(ctx, ids)
	return args.Error(0)
}

func (m *MockUserRepository) Create(ctx context.Context, user *models.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *MockUserRepository) DeductBalance(ctx context.Context, id uuid.UUID, amount decimal.Decimal) (decimal.Decimal, error) {
	args := m.Called(ctx, id, amount)
	return args.Get(0).(decimal.Decimal), args.Error(1)
}

func (m *MockUserRepository) AddBalance(ctx context.Context, id uuid.UUID, amount decimal.Decimal) (decimal.Decimal, error) {
	args := m.Called(ctx, id, amount)
	return args.Get(0).(decimal.Decimal), args.Error(1)
}

func (m *MockUserRepository) SetAdmin(ctx context.Context, id uuid.UUID, isAdmin bool) error {
	args := m.Called(ctx, id, isAdmin)
	return args.Error(0)
}

// MockBalanceHistoryRepository is a mock implementation of BalanceHistoryRepository
type MockBalanceHistoryRepository struct {
	mock.Mock
}

func (m *MockBalanceHistoryRepository) Record(ctx context.Context, history *models.BalanceHistory) error {
	args := m.Called(ctx, history)
	return args.Error(0)
}

func (m *MockBalanceHistoryRepository) GetByUser(ctx context.Context, userID uuid.UUID, limit int) ([]*models.BalanceHistory, error) {
	args := m.Called(ctx, userID, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.BalanceHistory), args.Error(1)
}

// MockEventRepository is a mock implementation of EventRepository
type MockEventRepository struct {
	mock.Mock
}

func (m *MockEventRepository) Create(ctx context.Context, event *models.Event) error {
	args := m.Called(ctx, event)
	return args.Error(0)
}

func (m *MockEventRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Event, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Event), args.Error(1)
}

func (m *MockEventRepository) GetByIDForUpdate(ctx context.Context, id uuid.UUID) (*models.Event, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Event), args.Error(1)
}

func (m *MockEventRepository) List(ctx context.Context, status *models.EventStatus, limit int) ([]*models.Event, error) {
	args := m.Called(ctx, status, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Event), args.Error(1)
}

func (m *MockEventRepository) Update(ctx context.Context, event *models.Event) error {
	args := m.Called(ctx, event)
	return args.Error(0)
}

// MockEntryRepository is a mock implementation of EntryRepository
type MockEntryRepository struct {
	mock.Mock
}

func (m *MockEntryRepository) Create(ctx context.Context, entry *models.Entry) error {
	args := m.Called(ctx, entry)
	return args.Error(0)
}

func (m *MockEntryRepository) GetByEventAndUser(ctx context.Context, eventID, userID uuid.UUID) (*models.Entry, error) {
	args := m.Called(ctx, eventID, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Entry), args.Error(1)
}

func (m *MockEntryRepository) CountByEvent(ctx context.Context, eventID uuid.UUID) (int, error) {
	args := m.Called(ctx, eventID)
	return args.Int(0), args.Error(1)
}

func (m *MockEntryRepository) ListByEvent(ctx context.Context, eventID uuid.UUID) ([]*models.Entry, error) {
	args := m.Called(ctx, eventID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Entry), args.Error(1)
}

func (m *MockEntryRepository) UpdateSettlement(ctx context.Context, entries []*models.Entry) error {
	args := m.Called(ctx, entries)
	return args.Error(0)
}

// MockMiniPoolRepository is a mock implementation of MiniPoolRepository
type MockMiniPoolRepository struct {
	mock.Mock
}

func (m *MockMiniPoolRepository) Create(ctx context.Context, miniPool *models.MiniPool) error {
	args := m.Called(ctx, miniPool)
	return args.Error(0)
}

func (m *MockMiniPoolRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.MiniPool, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.MiniPool), args.Error(1)
}

func (m *MockMiniPoolRepository) GetByIDForUpdate(ctx context.Context, id uuid.UUID) (*models.MiniPool, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.MiniPool), args.Error(1)
}

func (m *MockMiniPoolRepository) ListByEvent(ctx context.Context, eventID uuid.UUID) ([]*models.MiniPool, error) {
	args := m.Called(ctx, eventID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.MiniPool), args.Error(1)
}

func (m *MockMiniPoolRepository) Update(ctx context.Context, miniPool *models.MiniPool) error {
	args := m.Called(ctx, miniPool)
	return args.Error(0)
}

func (m *MockMiniPoolRepository) CreateEntry(ctx context.Context, entry *models.MiniPoolEntry) error {
	args := m.Called(ctx, entry)
	return args.Error(0)
}

func (m *MockMiniPoolRepository) GetEntry(ctx context.Context, miniPoolID, userID uuid.UUID) (*models.MiniPoolEntry, error) {
	args := m.Called(ctx, miniPoolID, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.MiniPoolEntry), args.Error(1)
}

func (m *MockMiniPoolRepository) ListEntries(ctx context.Context, miniPoolID uuid.UUID) ([]*models.MiniPoolEntry, error) {
	args := m.Called(ctx, miniPoolID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.MiniPoolEntry), args.Error(1)
}

func (m *MockMiniPoolRepository) UpdateEntrySettlement(ctx context.Context, entries []*models.MiniPoolEntry) error {
	args := m.Called(ctx, entries)
	return args.Error(0)
}

// MockOfferRepository is a mock implementation of OfferRepository
type MockOfferRepository struct {
	mock.Mock
}

func (m *MockOfferRepository) Create(ctx context.Context, offer *models.P2POffer) error {
	args := m.Called(ctx, offer)
	return args.Error(0)
}

func (m *MockOfferRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.P2POffer, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.P2POffer), args.Error(1)
}

func (m *MockOfferRepository) GetByIDForUpdate(ctx context.Context, id uuid.UUID) (*models.P2POffer, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.P2POffer), args.Error(1)
}

func (m *MockOfferRepository) ListByEvent(ctx context.Context, eventID uuid.UUID, status *models.OfferStatus) ([]*models.P2POffer, error) {
	args := m.Called(ctx, eventID, status)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.P2POffer), args.Error(1)
}

func (m *MockOfferRepository) Update(ctx context.Context, offer *models.P2POffer) error {
	args := m.Called(ctx, offer)
	return args.Error(0)
}

// MockEventPublisher is a mock implementation of EventPublisher
type MockEventPublisher struct {
	mock.Mock
}

func (m *MockEventPublisher) Publish(event events.Event) {
	m.Called(event)
}

// MockUnitOfWork is a mock implementation of UnitOfWork. Repositories are
// injected with the Set methods and returned without recording calls.
type MockUnitOfWork struct {
	mock.Mock

	userRepo           UserRepository
	balanceHistoryRepo BalanceHistoryRepository
	eventRepo          EventRepository
	entryRepo          EntryRepository
	miniPoolRepo       MiniPoolRepository
	offerRepo          OfferRepository
	eventBus           EventPublisher
}

// SetRepositories wires the ledger repositories and the event publisher
func (m *MockUnitOfWork) SetRepositories(userRepo UserRepository, balanceHistoryRepo BalanceHistoryRepository, eventBus EventPublisher) {
	m.userRepo = userRepo
	m.balanceHistoryRepo = balanceHistoryRepo
	m.eventBus = eventBus
}

// SetWagerRepositories wires the event, entry, mini-pool and offer repositories
func (m *MockUnitOfWork) SetWagerRepositories(eventRepo EventRepository, entryRepo EntryRepository, miniPoolRepo MiniPoolRepository, offerRepo OfferRepository) {
	m.eventRepo = eventRepo
	m.entryRepo = entryRepo
	m.miniPoolRepo = miniPoolRepo
	m.offerRepo = offerRepo
}

func (m *MockUnitOfWork) Begin(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *MockUnitOfWork) Commit() error {
	args := m.Called()
	return args.Error(0)
}

func (m *MockUnitOfWork) Rollback() error {
	args := m.Called()
	return args.Error(0)
}

func (m *MockUnitOfWork) UserRepository() UserRepository                     { return m.userRepo }
func (m *MockUnitOfWork) BalanceHistoryRepository() BalanceHistoryRepository { return m.balanceHistoryRepo }
func (m *MockUnitOfWork) EventRepository() EventRepository                   { return m.eventRepo }
func (m *MockUnitOfWork) EntryRepository() EntryRepository                   { return m.entryRepo }
func (m *MockUnitOfWork) MiniPoolRepository() MiniPoolRepository             { return m.miniPoolRepo }
func (m *MockUnitOfWork) OfferRepository() OfferRepository                   { return m.offerRepo }
func (m *MockUnitOfWork) EventBus() EventPublisher                           { return m.eventBus }

// MockUnitOfWorkFactory is a mock implementation of UnitOfWorkFactory
type MockUnitOfWorkFactory struct {
	mock.Mock
}

func (m *MockUnitOfWorkFactory) Create() UnitOfWork {
	args := m.Called()
	return args.Get(0).(UnitOfWork)
}
