package service

import (
	"testing"

	"parlayz/models"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
)

// Test utilities

type testMocks struct {
	factory        *MockUnitOfWorkFactory
	uow            *MockUnitOfWork
	userRepo       *MockUserRepository
	historyRepo    *MockBalanceHistoryRepository
	eventRepo      *MockEventRepository
	entryRepo      *MockEntryRepository
	miniPoolRepo   *MockMiniPoolRepository
	offerRepo      *MockOfferRepository
	eventPublisher *MockEventPublisher
}

func newTestMocks() *testMocks {
	m := &testMocks{
		factory:        new(MockUnitOfWorkFactory),
		uow:            new(MockUnitOfWork),
		userRepo:       new(MockUserRepository),
		historyRepo:    new(MockBalanceHistoryRepository),
		eventRepo:      new(MockEventRepository),
		entryRepo:      new(MockEntryRepository),
		miniPoolRepo:   new(MockMiniPoolRepository),
		offerRepo:      new(MockOfferRepository),
		eventPublisher: new(MockEventPublisher),
	}
	m.uow.SetRepositories(m.userRepo, m.historyRepo, m.eventPublisher)
	m.uow.SetWagerRepositories(m.eventRepo, m.entryRepo, m.miniPoolRepo, m.offerRepo)
	m.factory.On("Create").Return(m.uow)
	m.eventPublisher.On("Publish", mock.Anything).Return()
	return m
}

func (m *testMocks) assertExpectations(t *testing.T) {
	assertAllMockExpectations(t, m.factory, m.uow, m.userRepo, m.historyRepo, m.eventRepo, m.entryRepo, m.miniPoolRepo, m.offerRepo)
}

func money(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

// decimalEq matches a decimal argument by value rather than representation
func decimalEq(s string) interface{} {
	want := money(s)
	return mock.MatchedBy(func(d decimal.Decimal) bool {
		return d.Equal(want)
	})
}

func adminActor() models.Actor {
	return models.Actor{UserID: uuid.New(), IsAdmin: true}
}

func userActor(id uuid.UUID) models.Actor {
	return models.Actor{UserID: id}
}

func createTestUser(balance string) *models.User {
	return &models.User{
		ID:       uuid.New(),
		Username: "testuser",
		Balance:  money(balance),
	}
}

func createTestEvent(status models.EventStatus, outcomes ...string) *models.Event {
	if len(outcomes) == 0 {
		outcomes = []string{"yes", "no"}
	}
	return &models.Event{
		ID:        uuid.New(),
		CreatorID: uuid.New(),
		Title:     "Will it rain tomorrow?",
		EventType: models.EventTypePool,
		Outcomes:  outcomes,
		Status:    status,
	}
}

func createTestEntry(eventID, userID uuid.UUID, outcome, stake string) *models.Entry {
	return &models.Entry{
		ID:            uuid.New(),
		EventID:       eventID,
		UserID:        userID,
		ChosenOutcome: outcome,
		StakeAmount:   money(stake),
	}
}

func createTestOffer(eventID, creatorID uuid.UUID, outcome, stake, minMatch string) *models.P2POffer {
	return &models.P2POffer{
		ID:             uuid.New(),
		EventID:        eventID,
		CreatorID:      creatorID,
		CreatorOutcome: outcome,
		StakeAmount:    money(stake),
		MinMatchAmount: money(minMatch),
		Status:         models.OfferStatusOpen,
	}
}

// Mock helper functions

func setupBasicTransactionMocks(mockUoW *MockUnitOfWork) {
	mockUoW.On("Begin", mock.Anything).Return(nil)
	mockUoW.On("Commit").Return(nil)
	mockUoW.On("Rollback").Return(nil)
}

// setupRollbackOnlyMocks is for paths that fail before commit
func setupRollbackOnlyMocks(mockUoW *MockUnitOfWork) {
	mockUoW.On("Begin", mock.Anything).Return(nil)
	mockUoW.On("Rollback").Return(nil)
}

// setupDebitMocks expects a successful ledger debit of amount from user
func setupDebitMocks(m *testMocks, user *models.User, amount string, txType models.TransactionType) {
	after := user.Balance.Sub(money(amount))
	m.userRepo.On("GetByIDForUpdate", mock.Anything, user.ID).Return(user, nil).Once()
	m.userRepo.On("DeductBalance", mock.Anything, user.ID, decimalEq(amount)).Return(after, nil).Once()
	m.historyRepo.On("Record", mock.Anything, mock.MatchedBy(func(h *models.BalanceHistory) bool {
		return h.UserID == user.ID &&
			h.TransactionType == txType &&
			h.ChangeAmount.Equal(money(amount).Neg()) &&
			h.BalanceAfter.Equal(after)
	})).Return(nil).Once()
}

// setupCreditMocks expects a successful ledger credit of amount to userID
func setupCreditMocks(m *testMocks, userID uuid.UUID, amount string, balanceAfter string, txType models.TransactionType) {
	m.userRepo.On("AddBalance", mock.Anything, userID, decimalEq(amount)).Return(money(balanceAfter), nil).Once()
	m.historyRepo.On("Record", mock.Anything, mock.MatchedBy(func(h *models.BalanceHistory) bool {
		return h.UserID == userID &&
			h.TransactionType == txType &&
			h.ChangeAmount.Equal(money(amount))
	})).Return(nil).Once()
}

func assertAllMockExpectations(t *testing.T, mocks ...interface{}) {
	for _, m := range mocks {
		if mockObj, ok := m.(interface{ AssertExpectations(mock.TestingT) bool }); ok {
			mockObj.AssertExpectations(t)
		}
	}
}
