package service

import (
	"context"
	"fmt"
	"testing"

	"parlayz/models"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func createTestPoolService() (PoolService, *testMocks) {
	m := newTestMocks()
	return NewPoolService(m.factory, NewAdminAccessPolicy()), m
}

func TestPoolService_CreateEvent(t *testing.T) {
	ctx := context.Background()

	t.Run("admin creates an open pool", func(t *testing.T) {
		svc, m := createTestPoolService()
		setupBasicTransactionMocks(m.uow)
		actor := adminActor()

		m.userRepo.On("GetByID", mock.Anything, actor.UserID).Return(&models.User{ID: actor.UserID}, nil)
		m.eventRepo.On("Create", mock.Anything, mock.MatchedBy(func(e *models.Event) bool {
			return e.Status == models.EventStatusOpen &&
				e.EventType == models.EventTypePool &&
				e.CreatorID == actor.UserID &&
				len(e.Outcomes) == 2
		})).Return(nil)

		detail, err := svc.CreateEvent(ctx, actor, CreateEventParams{
			Title:    "Will it rain?",
			Outcomes: []string{" yes ", "no"},
		})

		require.NoError(t, err)
		assert.Equal(t, []string{"yes", "no"}, detail.Event.Outcomes)
		assert.Empty(t, detail.Entries)
		m.assertExpectations(t)
	})

	t.Run("non-admin is rejected before any write", func(t *testing.T) {
		svc, m := createTestPoolService()

		_, err := svc.CreateEvent(ctx, userActor(uuid.New()), CreateEventParams{
			Title:    "Will it rain?",
			Outcomes: []string{"yes", "no"},
		})

		assert.ErrorIs(t, err, ErrNotAuthorized)
		m.factory.AssertNotCalled(t, "Create")
	})

	t.Run("1v1 is capped at two entries", func(t *testing.T) {
		svc, m := createTestPoolService()
		setupBasicTransactionMocks(m.uow)
		actor := adminActor()

		m.userRepo.On("GetByID", mock.Anything, actor.UserID).Return(&models.User{ID: actor.UserID}, nil)
		m.eventRepo.On("Create", mock.Anything, mock.Anything).Return(nil)

		detail, err := svc.CreateEvent(ctx, actor, CreateEventParams{
			Title:     "Chess match",
			EventType: models.EventTypeOneVsOne,
			Outcomes:  []string{"white", "black"},
		})

		require.NoError(t, err)
		require.NotNil(t, detail.Event.MaxEntries)
		assert.Equal(t, 2, *detail.Event.MaxEntries)
	})

	t.Run("creator joins on creation", func(t *testing.T) {
		svc, m := createTestPoolService()
		setupBasicTransactionMocks(m.uow)
		creator := createTestUser("1000")
		actor := models.Actor{UserID: creator.ID, IsAdmin: true}
		stake := money("100")
		outcome := "yes"

		m.userRepo.On("GetByID", mock.Anything, creator.ID).Return(creator, nil)
		m.eventRepo.On("Create", mock.Anything, mock.Anything).Return(nil)
		m.entryRepo.On("GetByEventAndUser", mock.Anything, mock.Anything, creator.ID).Return(nil, nil)
		setupDebitMocks(m, creator, "100", models.TransactionTypeEntryStake)
		m.entryRepo.On("Create", mock.Anything, mock.MatchedBy(func(e *models.Entry) bool {
			return e.UserID == creator.ID && e.ChosenOutcome == "yes" && e.StakeAmount.Equal(stake)
		})).Return(nil)

		detail, err := svc.CreateEvent(ctx, actor, CreateEventParams{
			Title:          "Will it rain?",
			Outcomes:       []string{"yes", "no"},
			StakeAmount:    &stake,
			CreatorOutcome: &outcome,
		})

		require.NoError(t, err)
		require.Len(t, detail.Entries, 1)
		m.assertExpectations(t)
	})

	t.Run("validation errors", func(t *testing.T) {
		zero := decimal.Zero
		one := 1
		tests := []struct {
			name   string
			params CreateEventParams
			err    error
		}{
			{"missing title", CreateEventParams{Outcomes: []string{"a", "b"}}, ErrInvalidInput},
			{"single outcome", CreateEventParams{Title: "t", Outcomes: []string{"a"}}, ErrInvalidOutcome},
			{"duplicate outcomes", CreateEventParams{Title: "t", Outcomes: []string{"Yes", "yes"}}, ErrInvalidOutcome},
			{"zero fixed stake", CreateEventParams{Title: "t", Outcomes: []string{"a", "b"}, StakeAmount: &zero}, ErrInvalidStake},
			{"capacity below two", CreateEventParams{Title: "t", Outcomes: []string{"a", "b"}, MaxEntries: &one}, ErrInvalidInput},
			{"unknown type", CreateEventParams{Title: "t", Outcomes: []string{"a", "b"}, EventType: "bracket"}, ErrInvalidInput},
		}
		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				svc, m := createTestPoolService()
				_, err := svc.CreateEvent(ctx, adminActor(), tt.params)
				assert.ErrorIs(t, err, tt.err)
				m.factory.AssertNotCalled(t, "Create")
			})
		}
	})
}

func TestPoolService_JoinEvent(t *testing.T) {
	ctx := context.Background()

	t.Run("successful join debits the stake", func(t *testing.T) {
		svc, m := createTestPoolService()
		setupBasicTransactionMocks(m.uow)
		user := createTestUser("1000")
		event := createTestEvent(models.EventStatusOpen)

		m.eventRepo.On("GetByIDForUpdate", mock.Anything, event.ID).Return(event, nil)
		m.entryRepo.On("GetByEventAndUser", mock.Anything, event.ID, user.ID).Return(nil, nil)
		setupDebitMocks(m, user, "150", models.TransactionTypeEntryStake)
		m.entryRepo.On("Create", mock.Anything, mock.MatchedBy(func(e *models.Entry) bool {
			return e.EventID == event.ID && e.UserID == user.ID && e.ChosenOutcome == "yes"
		})).Return(nil)

		entry, err := svc.JoinEvent(ctx, userActor(user.ID), event.ID, "yes", money("150"))

		require.NoError(t, err)
		assert.True(t, entry.StakeAmount.Equal(money("150")))
		m.assertExpectations(t)
	})

	t.Run("event not open", func(t *testing.T) {
		for _, status := range []models.EventStatus{models.EventStatusLocked, models.EventStatusSettled} {
			svc, m := createTestPoolService()
			setupRollbackOnlyMocks(m.uow)
			event := createTestEvent(status)

			m.eventRepo.On("GetByIDForUpdate", mock.Anything, event.ID).Return(event, nil)

			_, err := svc.JoinEvent(ctx, userActor(uuid.New()), event.ID, "yes", money("10"))

			assert.ErrorIs(t, err, ErrEventNotOpen)
			m.userRepo.AssertNotCalled(t, "DeductBalance", mock.Anything, mock.Anything, mock.Anything)
		}
	})

	t.Run("duplicate entry", func(t *testing.T) {
		svc, m := createTestPoolService()
		setupRollbackOnlyMocks(m.uow)
		userID := uuid.New()
		event := createTestEvent(models.EventStatusOpen)

		m.eventRepo.On("GetByIDForUpdate", mock.Anything, event.ID).Return(event, nil)
		m.entryRepo.On("GetByEventAndUser", mock.Anything, event.ID, userID).Return(createTestEntry(event.ID, userID, "no", "10"), nil)

		_, err := svc.JoinEvent(ctx, userActor(userID), event.ID, "yes", money("10"))

		assert.ErrorIs(t, err, ErrDuplicateEntry)
		m.userRepo.AssertNotCalled(t, "GetByIDForUpdate", mock.Anything, mock.Anything)
	})

	t.Run("concurrent duplicate caught by unique index", func(t *testing.T) {
		svc, m := createTestPoolService()
		setupRollbackOnlyMocks(m.uow)
		user := createTestUser("100")
		event := createTestEvent(models.EventStatusOpen)

		m.eventRepo.On("GetByIDForUpdate", mock.Anything, event.ID).Return(event, nil)
		m.entryRepo.On("GetByEventAndUser", mock.Anything, event.ID, user.ID).Return(nil, nil)
		setupDebitMocks(m, user, "10", models.TransactionTypeEntryStake)
		m.entryRepo.On("Create", mock.Anything, mock.Anything).Return(fmt.Errorf("insert: %w", ErrUniqueViolation))

		_, err := svc.JoinEvent(ctx, userActor(user.ID), event.ID, "yes", money("10"))

		assert.ErrorIs(t, err, ErrDuplicateEntry)
		m.uow.AssertNotCalled(t, "Commit")
	})

	t.Run("insufficient funds", func(t *testing.T) {
		svc, m := createTestPoolService()
		setupRollbackOnlyMocks(m.uow)
		user := createTestUser("50")
		event := createTestEvent(models.EventStatusOpen)

		m.eventRepo.On("GetByIDForUpdate", mock.Anything, event.ID).Return(event, nil)
		m.entryRepo.On("GetByEventAndUser", mock.Anything, event.ID, user.ID).Return(nil, nil)
		m.userRepo.On("GetByIDForUpdate", mock.Anything, user.ID).Return(user, nil)

		_, err := svc.JoinEvent(ctx, userActor(user.ID), event.ID, "yes", money("50.01"))

		assert.ErrorIs(t, err, ErrInsufficientFunds)
		m.entryRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	})

	t.Run("fixed stake must match", func(t *testing.T) {
		svc, m := createTestPoolService()
		setupRollbackOnlyMocks(m.uow)
		event := createTestEvent(models.EventStatusOpen)
		fixed := money("100")
		event.StakeAmount = &fixed

		m.eventRepo.On("GetByIDForUpdate", mock.Anything, event.ID).Return(event, nil)

		_, err := svc.JoinEvent(ctx, userActor(uuid.New()), event.ID, "yes", money("99.99"))

		assert.ErrorIs(t, err, ErrInvalidStake)
	})

	t.Run("unknown outcome", func(t *testing.T) {
		svc, m := createTestPoolService()
		setupRollbackOnlyMocks(m.uow)
		event := createTestEvent(models.EventStatusOpen)

		m.eventRepo.On("GetByIDForUpdate", mock.Anything, event.ID).Return(event, nil)

		_, err := svc.JoinEvent(ctx, userActor(uuid.New()), event.ID, "maybe", money("10"))

		assert.ErrorIs(t, err, ErrInvalidOutcome)
	})

	t.Run("full 1v1", func(t *testing.T) {
		svc, m := createTestPoolService()
		setupRollbackOnlyMocks(m.uow)
		userID := uuid.New()
		event := createTestEvent(models.EventStatusOpen)
		event.EventType = models.EventTypeOneVsOne
		limit := models.OneVsOneMaxEntries
		event.MaxEntries = &limit

		m.eventRepo.On("GetByIDForUpdate", mock.Anything, event.ID).Return(event, nil)
		m.entryRepo.On("GetByEventAndUser", mock.Anything, event.ID, userID).Return(nil, nil)
		m.entryRepo.On("CountByEvent", mock.Anything, event.ID).Return(2, nil)

		_, err := svc.JoinEvent(ctx, userActor(userID), event.ID, "yes", money("10"))

		assert.ErrorIs(t, err, ErrEventFull)
	})

	t.Run("invalid stake is rejected up front", func(t *testing.T) {
		svc, m := createTestPoolService()
		for _, stake := range []string{"0", "-1", "0.001"} {
			_, err := svc.JoinEvent(ctx, userActor(uuid.New()), uuid.New(), "yes", money(stake))
			assert.ErrorIs(t, err, ErrInvalidStake, stake)
		}
		m.factory.AssertNotCalled(t, "Create")
	})

	t.Run("unknown event", func(t *testing.T) {
		svc, m := createTestPoolService()
		setupRollbackOnlyMocks(m.uow)
		eventID := uuid.New()

		m.eventRepo.On("GetByIDForUpdate", mock.Anything, eventID).Return(nil, nil)

		_, err := svc.JoinEvent(ctx, userActor(uuid.New()), eventID, "yes", money("10"))

		assert.ErrorIs(t, err, ErrNotFound)
	})
}

func TestPoolService_LockEvent(t *testing.T) {
	ctx := context.Background()

	t.Run("open event locks", func(t *testing.T) {
		svc, m := createTestPoolService()
		setupBasicTransactionMocks(m.uow)
		event := createTestEvent(models.EventStatusOpen)

		m.eventRepo.On("GetByIDForUpdate", mock.Anything, event.ID).Return(event, nil)
		m.eventRepo.On("Update", mock.Anything, mock.MatchedBy(func(e *models.Event) bool {
			return e.Status == models.EventStatusLocked && e.LockedAt != nil
		})).Return(nil)

		locked, err := svc.LockEvent(ctx, adminActor(), event.ID)

		require.NoError(t, err)
		assert.True(t, locked.IsLocked())
		m.assertExpectations(t)
	})

	t.Run("non-admin", func(t *testing.T) {
		svc, m := createTestPoolService()

		_, err := svc.LockEvent(ctx, userActor(uuid.New()), uuid.New())

		assert.ErrorIs(t, err, ErrNotAuthorized)
		m.factory.AssertNotCalled(t, "Create")
	})

	t.Run("already locked", func(t *testing.T) {
		svc, m := createTestPoolService()
		setupRollbackOnlyMocks(m.uow)
		event := createTestEvent(models.EventStatusLocked)

		m.eventRepo.On("GetByIDForUpdate", mock.Anything, event.ID).Return(event, nil)

		_, err := svc.LockEvent(ctx, adminActor(), event.ID)

		assert.ErrorIs(t, err, ErrInvalidTransition)
		m.eventRepo.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
	})

	t.Run("settled", func(t *testing.T) {
		svc, m := createTestPoolService()
		setupRollbackOnlyMocks(m.uow)
		event := createTestEvent(models.EventStatusSettled)

		m.eventRepo.On("GetByIDForUpdate", mock.Anything, event.ID).Return(event, nil)

		_, err := svc.LockEvent(ctx, adminActor(), event.ID)

		assert.ErrorIs(t, err, ErrAlreadySettled)
	})
}

func TestPoolService_ListEvents(t *testing.T) {
	ctx := context.Background()
	svc, m := createTestPoolService()
	setupRollbackOnlyMocks(m.uow)
	status := models.EventStatusOpen

	m.eventRepo.On("List", mock.Anything, &status, maxEventListSize).Return([]*models.Event{createTestEvent(status)}, nil)

	list, err := svc.ListEvents(ctx, &status, 1000)

	require.NoError(t, err)
	assert.Len(t, list, 1)
	m.eventRepo.AssertExpectations(t)
}
