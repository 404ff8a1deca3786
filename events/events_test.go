package events

import (
	"context"
	"sync"
	"testing"
	"time"

	"parlayz/models"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTransactionalBus_FlushDeliversInOrder(t *testing.T) {
	mainBus := NewBus()
	txBus := NewTransactionalBus(mainBus)

	received := make(chan BalanceChangeEvent, 2)
	mainBus.Subscribe(EventTypeBalanceChange, func(ctx context.Context, event Event) {
		received <- event.(BalanceChangeEvent)
	})

	userID := uuid.New()
	txBus.Publish(BalanceChangeEvent{
		UserID:          userID,
		OldBalance:      decimal.NewFromInt(1000),
		NewBalance:      decimal.NewFromInt(900),
		ChangeAmount:    decimal.NewFromInt(-100),
		TransactionType: models.TransactionTypeEntryStake,
	})
	assert.Equal(t, 1, txBus.Pending())

	require.NoError(t, txBus.Flush(context.Background()))
	mainBus.Wait()
	assert.Equal(t, 0, txBus.Pending())

	select {
	case ev := <-received:
		assert.Equal(t, userID, ev.UserID)
		assert.True(t, ev.ChangeAmount.Equal(decimal.NewFromInt(-100)))
		assert.Equal(t, models.TransactionTypeEntryStake, ev.TransactionType)
	case <-time.After(2 * time.Second):
		t.Fatal("event was not delivered")
	}
}

func TestTransactionalBus_DiscardDropsEvents(t *testing.T) {
	mainBus := NewBus()
	txBus := NewTransactionalBus(mainBus)

	var mu sync.Mutex
	calls := 0
	mainBus.Subscribe(EventTypeEventStateChange, func(ctx context.Context, event Event) {
		mu.Lock()
		calls++
		mu.Unlock()
	})

	txBus.Publish(EventStateChangeEvent{EventID: uuid.New(), NewState: models.EventStatusLocked})
	txBus.Discard()
	require.NoError(t, txBus.Flush(context.Background()))
	mainBus.Wait()

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, 0, calls)
}

func TestBus_SubscribeAllAndPanicIsolation(t *testing.T) {
	bus := NewBus()

	var mu sync.Mutex
	seen := make(map[EventType]int)
	bus.Subscribe(EventTypeUserCreated, func(ctx context.Context, event Event) {
		panic("boom")
	})
	bus.SubscribeAll(func(ctx context.Context, event Event) {
		mu.Lock()
		seen[event.Type()]++
		mu.Unlock()
	})

	ctx := context.Background()
	bus.Emit(ctx, UserCreatedEvent{UserID: uuid.New(), Username: "alice"})
	bus.Emit(ctx, OfferStateChangeEvent{OfferID: uuid.New(), NewState: models.OfferStatusMatched})
	bus.Emit(ctx, EventSettledEvent{EventID: uuid.New(), WinningOutcome: "Yes"})
	bus.Wait()

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, 1, seen[EventTypeUserCreated])
	assert.Equal(t, 1, seen[EventTypeOfferStateChange])
	assert.Equal(t, 1, seen[EventTypeEventSettled])
}

func TestEventTypes(t *testing.T) {
	tests := []struct {
		event Event
		want  string
	}{
		{BalanceChangeEvent{}, "balance_change"},
		{UserCreatedEvent{}, "user_created"},
		{EventStateChangeEvent{}, "event_state_change"},
		{EntryCreatedEvent{}, "entry_created"},
		{OfferStateChangeEvent{}, "offer_state_change"},
		{EventSettledEvent{}, "event_settled"},
	}

	require.Len(t, AllEventTypes, len(tests))
	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			assert.Equal(t, tt.want, string(tt.event.Type()))
			assert.Contains(t, AllEventTypes, tt.event.Type())
		})
	}
}
