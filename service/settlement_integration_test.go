package service_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"parlayz/events"
	"parlayz/models"
	"parlayz/repository"
	"parlayz/repository/testutil"
	"parlayz/service"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type integrationEnv struct {
	db         *testutil.TestDatabase
	bus        *events.Bus
	users      service.UserService
	pools      service.PoolService
	miniPools  service.MiniPoolService
	offers     service.OfferService
	settlement service.SettlementService
	admin      models.Actor
}

func setupIntegration(t *testing.T) *integrationEnv {
	testDB := testutil.SetupTestDatabase(t)
	bus := events.NewBus()
	uowFactory := repository.NewUnitOfWorkFactory(testDB.DB, bus)
	policy := service.NewAdminAccessPolicy()

	env := &integrationEnv{
		db:         testDB,
		bus:        bus,
		users:      service.NewUserService(uowFactory, decimal.NewFromInt(1000)),
		pools:      service.NewPoolService(uowFactory, policy),
		miniPools:  service.NewMiniPoolService(uowFactory, decimal.NewFromInt(200)),
		offers:     service.NewOfferService(uowFactory),
		settlement: service.NewSettlementService(uowFactory, policy),
	}

	admin := env.register(t, "admin")
	_, err := env.users.SetAdmin(context.Background(), "admin", true)
	require.NoError(t, err)
	env.admin = models.Actor{UserID: admin.UserID, IsAdmin: true}
	return env
}

func (e *integrationEnv) register(t *testing.T, username string) models.Actor {
	t.Helper()
	user, err := e.users.Register(context.Background(), username)
	require.NoError(t, err)
	return models.Actor{UserID: user.ID}
}

func (e *integrationEnv) balance(t *testing.T, actor models.Actor) decimal.Decimal {
	t.Helper()
	user, err := e.users.GetByID(context.Background(), actor.UserID)
	require.NoError(t, err)
	return user.Balance
}

func (e *integrationEnv) createEvent(t *testing.T, outcomes ...string) *models.Event {
	t.Helper()
	detail, err := e.pools.CreateEvent(context.Background(), e.admin, service.CreateEventParams{
		Title:    "Integration event",
		Outcomes: outcomes,
	})
	require.NoError(t, err)
	return detail.Event
}

func TestSettlement_EqualSplitScenario(t *testing.T) {
	env := setupIntegration(t)
	ctx := context.Background()

	a := env.register(t, "a")
	b := env.register(t, "b")
	c := env.register(t, "c")
	event := env.createEvent(t, "yes", "no")

	for _, p := range []struct {
		actor   models.Actor
		outcome string
	}{{a, "yes"}, {b, "no"}, {c, "yes"}} {
		_, err := env.pools.JoinEvent(ctx, p.actor, event.ID, p.outcome, decimal.NewFromInt(100))
		require.NoError(t, err)
	}

	totalBefore := testutil.SumBalances(t, env.db.DB)

	_, err := env.pools.LockEvent(ctx, env.admin, event.ID)
	require.NoError(t, err)

	result, err := env.settlement.SettleEvent(ctx, env.admin, event.ID, "yes")
	require.NoError(t, err)
	assert.True(t, result.MainPool.TotalPot.Equal(decimal.NewFromInt(300)))

	assert.True(t, env.balance(t, a).Equal(decimal.NewFromInt(1050)))
	assert.True(t, env.balance(t, b).Equal(decimal.NewFromInt(900)))
	assert.True(t, env.balance(t, c).Equal(decimal.NewFromInt(1050)))

	// the 300 held in escrow is back in user balances
	totalAfter := testutil.SumBalances(t, env.db.DB)
	assert.True(t, totalAfter.Equal(totalBefore.Add(decimal.NewFromInt(300))))

	t.Run("second settlement is rejected and pays nothing", func(t *testing.T) {
		_, err := env.settlement.SettleEvent(ctx, env.admin, event.ID, "no")
		assert.ErrorIs(t, err, service.ErrAlreadySettled)
		assert.True(t, testutil.SumBalances(t, env.db.DB).Equal(totalAfter))
	})

	t.Run("ledger journals every change", func(t *testing.T) {
		history, err := env.users.GetHistory(ctx, a.UserID, 10)
		require.NoError(t, err)
		require.Len(t, history, 3)
		assert.Equal(t, models.TransactionTypeEntryPayout, history[0].TransactionType)
		assert.True(t, history[0].ChangeAmount.Equal(decimal.NewFromInt(150)))
	})
}

func TestSettlement_P2PScenario(t *testing.T) {
	env := setupIntegration(t)
	ctx := context.Background()

	maker := env.register(t, "maker")
	taker := env.register(t, "taker")
	event := env.createEvent(t, "yes", "no")

	offer, err := env.offers.CreateOffer(ctx, maker, service.CreateOfferParams{
		EventID: event.ID,
		Outcome: "yes",
		Stake:   decimal.NewFromInt(500),
	})
	require.NoError(t, err)
	assert.True(t, env.balance(t, maker).Equal(decimal.NewFromInt(500)))

	_, err = env.offers.MatchOffer(ctx, maker, offer.ID, decimal.NewFromInt(500), nil)
	assert.ErrorIs(t, err, service.ErrSelfMatch)

	_, err = env.offers.MatchOffer(ctx, taker, offer.ID, decimal.NewFromInt(499), nil)
	assert.ErrorIs(t, err, service.ErrBelowMinimumMatch)

	matched, err := env.offers.MatchOffer(ctx, taker, offer.ID, decimal.NewFromInt(500), nil)
	require.NoError(t, err)
	assert.Equal(t, "no", *matched.TakerOutcome)

	_, err = env.pools.LockEvent(ctx, env.admin, event.ID)
	require.NoError(t, err)
	_, err = env.settlement.SettleEvent(ctx, env.admin, event.ID, "no")
	require.NoError(t, err)

	assert.True(t, env.balance(t, maker).Equal(decimal.NewFromInt(500)))
	assert.True(t, env.balance(t, taker).Equal(decimal.NewFromInt(1500)))

	offers, err := env.offers.ListOffers(ctx, event.ID, nil)
	require.NoError(t, err)
	require.Len(t, offers, 1)
	assert.Equal(t, models.OfferStatusSettled, offers[0].Status)
	assert.Equal(t, taker.UserID, *offers[0].WinnerID)
}

func TestSettlement_MiniPoolIndependentPot(t *testing.T) {
	env := setupIntegration(t)
	ctx := context.Background()

	a := env.register(t, "a")
	b := env.register(t, "b")
	event := env.createEvent(t, "yes", "no")

	_, err := env.pools.JoinEvent(ctx, a, event.ID, "no", decimal.NewFromInt(100))
	require.NoError(t, err)

	miniPool, err := env.miniPools.CreateMiniPool(ctx, a, event.ID, "side bet", nil)
	require.NoError(t, err)

	_, err = env.miniPools.JoinMiniPool(ctx, a, miniPool.ID, "yes", decimal.NewFromInt(199))
	assert.ErrorIs(t, err, service.ErrInvalidStake)

	_, err = env.miniPools.JoinMiniPool(ctx, a, miniPool.ID, "yes", decimal.NewFromInt(200))
	require.NoError(t, err)
	_, err = env.miniPools.JoinMiniPool(ctx, b, miniPool.ID, "no", decimal.NewFromInt(300))
	require.NoError(t, err)

	_, err = env.pools.LockEvent(ctx, env.admin, event.ID)
	require.NoError(t, err)

	_, err = env.miniPools.JoinMiniPool(ctx, b, miniPool.ID, "no", decimal.NewFromInt(300))
	assert.ErrorIs(t, err, service.ErrEventNotOpen)

	result, err := env.settlement.SettleEvent(ctx, env.admin, event.ID, "yes")
	require.NoError(t, err)

	// main pool has no winner so a's 100 stays in the house
	assert.Equal(t, 0, result.MainPool.WinnerCount)
	require.Len(t, result.MiniPools, 1)
	assert.True(t, result.MiniPools[0].TotalPot.Equal(decimal.NewFromInt(500)))
	assert.True(t, env.balance(t, a).Equal(decimal.NewFromInt(1200)))
	assert.True(t, env.balance(t, b).Equal(decimal.NewFromInt(700)))
}

func TestOffer_ConcurrentMatchHasOneWinner(t *testing.T) {
	env := setupIntegration(t)
	ctx := context.Background()

	maker := env.register(t, "maker")
	event := env.createEvent(t, "yes", "no")
	offer, err := env.offers.CreateOffer(ctx, maker, service.CreateOfferParams{
		EventID: event.ID,
		Outcome: "yes",
		Stake:   decimal.NewFromInt(100),
	})
	require.NoError(t, err)

	const takers = 8
	actors := make([]models.Actor, takers)
	for i := range actors {
		actors[i] = env.register(t, "taker-"+uuid.NewString()[:8])
	}

	var wg sync.WaitGroup
	errs := make([]error, takers)
	for i := range actors {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = env.offers.MatchOffer(ctx, actors[i], offer.ID, decimal.NewFromInt(100), nil)
		}(i)
	}
	wg.Wait()

	successes := 0
	for _, err := range errs {
		if err == nil {
			successes++
			continue
		}
		assert.True(t, errors.Is(err, service.ErrOfferNotOpen), "unexpected error: %v", err)
	}
	assert.Equal(t, 1, successes)

	debited := 0
	for _, a := range actors {
		if env.balance(t, a).Equal(decimal.NewFromInt(900)) {
			debited++
		}
	}
	assert.Equal(t, 1, debited)
}

func TestLedger_ConcurrentJoinsNeverOverdraw(t *testing.T) {
	env := setupIntegration(t)
	ctx := context.Background()

	user := env.register(t, "spender")
	const attempts = 6
	eventIDs := make([]uuid.UUID, attempts)
	for i := range eventIDs {
		eventIDs[i] = env.createEvent(t, "yes", "no").ID
	}

	// each stake is 300 so at most three of six can be funded from 1000
	var wg sync.WaitGroup
	errs := make([]error, attempts)
	for i := range eventIDs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = env.pools.JoinEvent(ctx, user, eventIDs[i], "yes", decimal.NewFromInt(300))
		}(i)
	}
	wg.Wait()

	joined := 0
	for _, err := range errs {
		if err == nil {
			joined++
			continue
		}
		assert.ErrorIs(t, err, service.ErrInsufficientFunds)
	}
	assert.Equal(t, 3, joined)
	assert.True(t, env.balance(t, user).Equal(decimal.NewFromInt(100)))
}

func TestSettlement_OpenOfferRefunded(t *testing.T) {
	env := setupIntegration(t)
	ctx := context.Background()

	maker := env.register(t, "maker")
	event := env.createEvent(t, "yes", "no")
	_, err := env.offers.CreateOffer(ctx, maker, service.CreateOfferParams{
		EventID: event.ID,
		Outcome: "no",
		Stake:   decimal.RequireFromString("123.45"),
	})
	require.NoError(t, err)

	_, err = env.pools.LockEvent(ctx, env.admin, event.ID)
	require.NoError(t, err)
	_, err = env.settlement.SettleEvent(ctx, env.admin, event.ID, "yes")
	require.NoError(t, err)

	assert.True(t, env.balance(t, maker).Equal(decimal.NewFromInt(1000)))
}
