package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"parlayz/events"
	"parlayz/models"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"
)

const (
	defaultEventListSize = 50
	maxEventListSize     = 200
)

// poolService implements the PoolService interface
type poolService struct {
	uowFactory UnitOfWorkFactory
	policy     AccessPolicy
}

// NewPoolService creates a new pool service
func NewPoolService(uowFactory UnitOfWorkFactory, policy AccessPolicy) PoolService {
	return &poolService{
		uowFactory: uowFactory,
		policy:     policy,
	}
}

// CreateEvent opens a new event, optionally entering the creator on one outcome
func (s *poolService) CreateEvent(ctx context.Context, actor models.Actor, params CreateEventParams) (*models.EventDetail, error) {
	if err := authorize(s.policy, actor, ActionCreateEvent); err != nil {
		return nil, err
	}

	event, err := newEventFromParams(actor.UserID, params)
	if err != nil {
		return nil, err
	}

	var creatorStake decimal.Decimal
	if params.CreatorOutcome != nil {
		switch {
		case event.HasFixedStake():
			creatorStake = *event.StakeAmount
		case params.CreatorStake != nil:
			creatorStake = *params.CreatorStake
		default:
			return nil, fmt.Errorf("%w: creator stake is required for a variable-stake event", ErrInvalidStake)
		}
	}

	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	creator, err := uow.UserRepository().GetByID(ctx, actor.UserID)
	if err != nil {
		return nil, fmt.Errorf("failed to get creator: %w", err)
	}
	if creator == nil {
		return nil, fmt.Errorf("%w: user %s", ErrNotFound, actor.UserID)
	}

	if err := uow.EventRepository().Create(ctx, event); err != nil {
		return nil, fmt.Errorf("failed to create event: %w", err)
	}
	uow.EventBus().Publish(events.EventStateChangeEvent{
		EventID:  event.ID,
		NewState: models.EventStatusOpen,
	})

	detail := &models.EventDetail{Event: event, Entries: []*models.Entry{}}
	if params.CreatorOutcome != nil {
		entry, err := enterEvent(ctx, uow, event, actor.UserID, strings.TrimSpace(*params.CreatorOutcome), creatorStake)
		if err != nil {
			return nil, err
		}
		detail.Entries = append(detail.Entries, entry)
	}

	if err := uow.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	log.WithFields(log.Fields{
		"eventID":   event.ID,
		"creatorID": actor.UserID,
		"eventType": event.EventType,
		"outcomes":  event.Outcomes,
	}).Info("Created event")

	return detail, nil
}

// newEventFromParams validates creation input and builds an open event
func newEventFromParams(creatorID uuid.UUID, params CreateEventParams) (*models.Event, error) {
	title := strings.TrimSpace(params.Title)
	if title == "" {
		return nil, fmt.Errorf("%w: title is required", ErrInvalidInput)
	}

	outcomes, ok := models.NormalizeOutcomes(params.Outcomes)
	if !ok {
		return nil, fmt.Errorf("%w: at least two distinct non-empty outcomes are required", ErrInvalidOutcome)
	}

	eventType := params.EventType
	if eventType == "" {
		eventType = models.EventTypePool
	}

	maxEntries := params.MaxEntries
	switch eventType {
	case models.EventTypePool:
		if maxEntries != nil && *maxEntries < 2 {
			return nil, fmt.Errorf("%w: max entries must be at least 2", ErrInvalidInput)
		}
	case models.EventTypeOneVsOne:
		if maxEntries != nil && *maxEntries != models.OneVsOneMaxEntries {
			return nil, fmt.Errorf("%w: a 1v1 event takes exactly %d entries", ErrInvalidInput, models.OneVsOneMaxEntries)
		}
		limit := models.OneVsOneMaxEntries
		maxEntries = &limit
	default:
		return nil, fmt.Errorf("%w: unknown event type %q", ErrInvalidInput, eventType)
	}

	if params.StakeAmount != nil {
		if !params.StakeAmount.IsPositive() || !models.IsMoney(*params.StakeAmount) {
			return nil, fmt.Errorf("%w: fixed stake must be a positive amount in cents", ErrInvalidStake)
		}
	}

	return &models.Event{
		ID:          uuid.New(),
		CreatorID:   creatorID,
		Title:       title,
		Description: strings.TrimSpace(params.Description),
		StakeAmount: params.StakeAmount,
		EventType:   eventType,
		Outcomes:    outcomes,
		Status:      models.EventStatusOpen,
		MaxEntries:  maxEntries,
	}, nil
}

// GetEvent returns an event with its entries, mini-pools and offers
func (s *poolService) GetEvent(ctx context.Context, eventID uuid.UUID) (*models.EventDetail, error) {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	event, err := uow.EventRepository().GetByID(ctx, eventID)
	if err != nil {
		return nil, fmt.Errorf("failed to get event: %w", err)
	}
	if event == nil {
		return nil, fmt.Errorf("%w: event %s", ErrNotFound, eventID)
	}

	entries, err := uow.EntryRepository().ListByEvent(ctx, eventID)
	if err != nil {
		return nil, fmt.Errorf("failed to list entries: %w", err)
	}
	miniPools, err := uow.MiniPoolRepository().ListByEvent(ctx, eventID)
	if err != nil {
		return nil, fmt.Errorf("failed to list mini-pools: %w", err)
	}
	offers, err := uow.OfferRepository().ListByEvent(ctx, eventID, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to list offers: %w", err)
	}

	return &models.EventDetail{
		Event:     event,
		Entries:   entries,
		MiniPools: miniPools,
		Offers:    offers,
	}, nil
}

// ListEvents returns events newest first
func (s *poolService) ListEvents(ctx context.Context, status *models.EventStatus, limit int) ([]*models.Event, error) {
	if limit <= 0 {
		limit = defaultEventListSize
	}
	if limit > maxEventListSize {
		limit = maxEventListSize
	}

	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	list, err := uow.EventRepository().List(ctx, status, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list events: %w", err)
	}
	return list, nil
}

// JoinEvent debits the stake and records the user's entry
func (s *poolService) JoinEvent(ctx context.Context, actor models.Actor, eventID uuid.UUID, outcome string, stake decimal.Decimal) (*models.Entry, error) {
	if !stake.IsPositive() || !models.IsMoney(stake) {
		return nil, fmt.Errorf("%w: stake must be a positive amount in cents", ErrInvalidStake)
	}

	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	event, err := uow.EventRepository().GetByIDForUpdate(ctx, eventID)
	if err != nil {
		return nil, fmt.Errorf("failed to get event: %w", err)
	}
	if event == nil {
		return nil, fmt.Errorf("%w: event %s", ErrNotFound, eventID)
	}

	entry, err := enterEvent(ctx, uow, event, actor.UserID, strings.TrimSpace(outcome), stake)
	if err != nil {
		return nil, err
	}

	if err := uow.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	log.WithFields(log.Fields{
		"eventID": eventID,
		"userID":  actor.UserID,
		"outcome": entry.ChosenOutcome,
		"stake":   stake.StringFixed(models.MoneyScale),
	}).Info("User joined event")

	return entry, nil
}

// enterEvent checks entry preconditions against a locked event row, then
// debits the stake and inserts the entry.
func enterEvent(ctx context.Context, uow UnitOfWork, event *models.Event, userID uuid.UUID, outcome string, stake decimal.Decimal) (*models.Entry, error) {
	if !event.IsOpen() {
		return nil, fmt.Errorf("%w: event %s is %s", ErrEventNotOpen, event.ID, event.Status)
	}
	if !event.HasOutcome(outcome) {
		return nil, fmt.Errorf("%w: %q is not an outcome of this event", ErrInvalidOutcome, outcome)
	}
	if event.HasFixedStake() && !stake.Equal(*event.StakeAmount) {
		return nil, fmt.Errorf("%w: this event requires a stake of exactly %s", ErrInvalidStake, event.StakeAmount.StringFixed(models.MoneyScale))
	}

	existing, err := uow.EntryRepository().GetByEventAndUser(ctx, event.ID, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to check existing entry: %w", err)
	}
	if existing != nil {
		return nil, fmt.Errorf("%w: user %s already joined event %s", ErrDuplicateEntry, userID, event.ID)
	}

	if event.MaxEntries != nil {
		count, err := uow.EntryRepository().CountByEvent(ctx, event.ID)
		if err != nil {
			return nil, fmt.Errorf("failed to count entries: %w", err)
		}
		if event.IsFull(count) {
			return nil, fmt.Errorf("%w: event %s allows %d entries", ErrEventFull, event.ID, *event.MaxEntries)
		}
	}

	entry := &models.Entry{
		ID:            uuid.New(),
		EventID:       event.ID,
		UserID:        userID,
		ChosenOutcome: outcome,
		StakeAmount:   stake,
	}

	relatedID, relatedType := relatedRef(entry.ID, models.RelatedTypeEntry)
	if _, err := Debit(ctx, uow, LedgerEntry{
		UserID:          userID,
		Amount:          stake,
		TransactionType: models.TransactionTypeEntryStake,
		RelatedID:       relatedID,
		RelatedType:     relatedType,
		Metadata: map[string]any{
			"event_id": event.ID.String(),
			"outcome":  outcome,
		},
	}); err != nil {
		return nil, err
	}

	if err := uow.EntryRepository().Create(ctx, entry); err != nil {
		if errors.Is(err, ErrUniqueViolation) {
			return nil, fmt.Errorf("%w: user %s already joined event %s", ErrDuplicateEntry, userID, event.ID)
		}
		return nil, fmt.Errorf("failed to create entry: %w", err)
	}

	uow.EventBus().Publish(events.EntryCreatedEvent{
		EntryID: entry.ID,
		EventID: event.ID,
		UserID:  userID,
		Outcome: outcome,
		Stake:   stake,
	})
	return entry, nil
}

// LockEvent stops an open event from accepting entries and offers
func (s *poolService) LockEvent(ctx context.Context, actor models.Actor, eventID uuid.UUID) (*models.Event, error) {
	if err := authorize(s.policy, actor, ActionLockEvent); err != nil {
		return nil, err
	}

	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	event, err := uow.EventRepository().GetByIDForUpdate(ctx, eventID)
	if err != nil {
		return nil, fmt.Errorf("failed to get event: %w", err)
	}
	if event == nil {
		return nil, fmt.Errorf("%w: event %s", ErrNotFound, eventID)
	}
	if event.IsSettled() {
		return nil, fmt.Errorf("%w: event %s", ErrAlreadySettled, eventID)
	}
	if !event.IsOpen() {
		return nil, fmt.Errorf("%w: cannot lock event in status %s", ErrInvalidTransition, event.Status)
	}

	now := time.Now().UTC()
	event.Status = models.EventStatusLocked
	event.LockedAt = &now
	if err := uow.EventRepository().Update(ctx, event); err != nil {
		return nil, fmt.Errorf("failed to update event: %w", err)
	}

	uow.EventBus().Publish(events.EventStateChangeEvent{
		EventID:  event.ID,
		OldState: models.EventStatusOpen,
		NewState: models.EventStatusLocked,
	})

	if err := uow.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	log.WithFields(log.Fields{
		"eventID": eventID,
		"adminID": actor.UserID,
	}).Info("Locked event")

	return event, nil
}
