package events

import (
	"context"
	"sync"

	"parlayz/models"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"
)

// EventType represents different types of domain events
type EventType string

const (
	EventTypeBalanceChange    EventType = "balance_change"
	EventTypeUserCreated      EventType = "user_created"
	EventTypeEventStateChange EventType = "event_state_change"
	EventTypeEntryCreated     EventType = "entry_created"
	EventTypeOfferStateChange EventType = "offer_state_change"
	EventTypeEventSettled     EventType = "event_settled"
)

// AllEventTypes lists every domain event type, for subscribers that forward everything
var AllEventTypes = []EventType{
	EventTypeBalanceChange,
	EventTypeUserCreated,
	EventTypeEventStateChange,
	EventTypeEntryCreated,
	EventTypeOfferStateChange,
	EventTypeEventSettled,
}

// Event is the base interface for all domain events
type Event interface {
	Type() EventType
}

// BalanceChangeEvent represents a ledger debit or credit
type BalanceChangeEvent struct {
	UserID          uuid.UUID              `json:"user_id"`
	OldBalance      decimal.Decimal        `json:"old_balance"`
	NewBalance      decimal.Decimal        `json:"new_balance"`
	TransactionType models.TransactionType `json:"transaction_type"`
	ChangeAmount    decimal.Decimal        `json:"change_amount"`
}

func (e BalanceChangeEvent) Type() EventType {
	return EventTypeBalanceChange
}

// UserCreatedEvent represents a new account
type UserCreatedEvent struct {
	UserID         uuid.UUID       `json:"user_id"`
	Username       string          `json:"username"`
	InitialBalance decimal.Decimal `json:"initial_balance"`
}

func (e UserCreatedEvent) Type() EventType {
	return EventTypeUserCreated
}

// EventStateChangeEvent represents an event moving through open, locked and settled
type EventStateChangeEvent struct {
	EventID  uuid.UUID          `json:"event_id"`
	OldState models.EventStatus `json:"old_state,omitempty"`
	NewState models.EventStatus `json:"new_state"`
}

func (e EventStateChangeEvent) Type() EventType {
	return EventTypeEventStateChange
}

// EntryCreatedEvent represents a stake committed to an event or mini-pool
type EntryCreatedEvent struct {
	EntryID    uuid.UUID       `json:"entry_id"`
	EventID    uuid.UUID       `json:"event_id"`
	MiniPoolID *uuid.UUID      `json:"mini_pool_id,omitempty"`
	UserID     uuid.UUID       `json:"user_id"`
	Outcome    string          `json:"outcome"`
	Stake      decimal.Decimal `json:"stake"`
}

func (e EntryCreatedEvent) Type() EventType {
	return EventTypeEntryCreated
}

// OfferStateChangeEvent represents a P2P offer transition
type OfferStateChangeEvent struct {
	OfferID  uuid.UUID          `json:"offer_id"`
	EventID  uuid.UUID          `json:"event_id"`
	OldState models.OfferStatus `json:"old_state,omitempty"`
	NewState models.OfferStatus `json:"new_state"`
}

func (e OfferStateChangeEvent) Type() EventType {
	return EventTypeOfferStateChange
}

// EventSettledEvent summarizes a completed settlement
type EventSettledEvent struct {
	EventID        uuid.UUID       `json:"event_id"`
	WinningOutcome string          `json:"winning_outcome"`
	TotalPaid      decimal.Decimal `json:"total_paid"`
	WinnerCount    int             `json:"winner_count"`
}

func (e EventSettledEvent) Type() EventType {
	return EventTypeEventSettled
}

// Handler is a function that handles events
type Handler func(ctx context.Context, event Event)

// Bus manages event subscriptions and dispatching
type Bus struct {
	mu       sync.RWMutex
	handlers map[EventType][]Handler
	wg       sync.WaitGroup
}

// NewBus creates a new event bus
func NewBus() *Bus {
	return &Bus{
		handlers: make(map[EventType][]Handler),
	}
}

// Subscribe adds a handler for a specific event type
func (b *Bus) Subscribe(eventType EventType, handler Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.handlers[eventType] = append(b.handlers[eventType], handler)

	log.WithFields(log.Fields{
		"eventType":    eventType,
		"handlerCount": len(b.handlers[eventType]),
	}).Debug("Subscribed handler to event type")
}

// SubscribeAll adds a handler for every known event type
func (b *Bus) SubscribeAll(handler Handler) {
	for _, eventType := range AllEventTypes {
		b.Subscribe(eventType, handler)
	}
}

// Emit dispatches an event to its handlers asynchronously. A panicking
// handler is logged and does not affect the others.
func (b *Bus) Emit(ctx context.Context, event Event) {
	b.mu.RLock()
	handlers := make([]Handler, len(b.handlers[event.Type()]))
	copy(handlers, b.handlers[event.Type()])
	b.mu.RUnlock()

	log.WithFields(log.Fields{
		"eventType":    event.Type(),
		"handlerCount": len(handlers),
	}).Debug("Emitting event")

	for i, handler := range handlers {
		b.wg.Add(1)
		go func(h Handler, handlerIndex int) {
			defer b.wg.Done()
			defer func() {
				if r := recover(); r != nil {
					log.WithFields(log.Fields{
						"eventType":    event.Type(),
						"handlerIndex": handlerIndex,
						"panic":        r,
					}).Error("Event handler panicked")
				}
			}()
			h(ctx, event)
		}(handler, i)
	}
}

// Wait blocks until every handler started so far has returned
func (b *Bus) Wait() {
	b.wg.Wait()
}

// TransactionalBus holds events raised inside a unit of work until the
// transaction commits. Nothing reaches the real bus on rollback.
type TransactionalBus struct {
	real    *Bus
	pending []Event
}

func NewTransactionalBus(real *Bus) *TransactionalBus {
	return &TransactionalBus{real: real}
}

func (b *TransactionalBus) Publish(e Event) {
	b.pending = append(b.pending, e)
}

// Pending returns the number of events waiting for Flush
func (b *TransactionalBus) Pending() int {
	return len(b.pending)
}

// Flush emits pending events in order. Called after a successful commit.
func (b *TransactionalBus) Flush(ctx context.Context) error {
	log.WithField("pendingEventCount", len(b.pending)).Debug("Flushing transactional bus")

	// Handlers outlive the request context
	eventCtx := context.WithoutCancel(ctx)
	for _, ev := range b.pending {
		b.real.Emit(eventCtx, ev)
	}
	b.pending = nil
	return nil
}

// Discard drops pending events. Called after rollback.
func (b *TransactionalBus) Discard() {
	b.pending = nil
}
