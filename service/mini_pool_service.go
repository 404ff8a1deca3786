package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"parlayz/events"
	"parlayz/models"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"
)

// miniPoolService implements the MiniPoolService interface
type miniPoolService struct {
	uowFactory      UnitOfWorkFactory
	defaultMinStake decimal.Decimal
}

// NewMiniPoolService creates a new mini-pool service
func NewMiniPoolService(uowFactory UnitOfWorkFactory, defaultMinStake decimal.Decimal) MiniPoolService {
	return &miniPoolService{
		uowFactory:      uowFactory,
		defaultMinStake: defaultMinStake,
	}
}

// CreateMiniPool attaches a side pool to an open event
func (s *miniPoolService) CreateMiniPool(ctx context.Context, actor models.Actor, eventID uuid.UUID, name string, minStake *decimal.Decimal) (*models.MiniPool, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("%w: mini-pool name is required", ErrInvalidInput)
	}

	stake := s.defaultMinStake
	if minStake != nil {
		stake = *minStake
	}
	if !stake.IsPositive() || !models.IsMoney(stake) {
		return nil, fmt.Errorf("%w: minimum stake must be a positive amount in cents", ErrInvalidStake)
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
	if !event.IsOpen() {
		return nil, fmt.Errorf("%w: event %s is %s", ErrEventNotOpen, eventID, event.Status)
	}

	creator, err := uow.UserRepository().GetByID(ctx, actor.UserID)
	if err != nil {
		return nil, fmt.Errorf("failed to get creator: %w", err)
	}
	if creator == nil {
		return nil, fmt.Errorf("%w: user %s", ErrNotFound, actor.UserID)
	}

	miniPool := &models.MiniPool{
		ID:        uuid.New(),
		EventID:   eventID,
		CreatorID: actor.UserID,
		Name:      name,
		MinStake:  stake,
		Status:    models.MiniPoolStatusOpen,
	}
	if err := uow.MiniPoolRepository().Create(ctx, miniPool); err != nil {
		return nil, fmt.Errorf("failed to create mini-pool: %w", err)
	}

	if err := uow.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	log.WithFields(log.Fields{
		"miniPoolID": miniPool.ID,
		"eventID":    eventID,
		"creatorID":  actor.UserID,
		"minStake":   stake.StringFixed(models.MoneyScale),
	}).Info("Created mini-pool")

	return miniPool, nil
}

// JoinMiniPool debits the stake and records the user's mini-pool entry. The
// parent event row is locked so the entry cannot land after the event locks.
func (s *miniPoolService) JoinMiniPool(ctx context.Context, actor models.Actor, miniPoolID uuid.UUID, outcome string, stake decimal.Decimal) (*models.MiniPoolEntry, error) {
	if !stake.IsPositive() || !models.IsMoney(stake) {
		return nil, fmt.Errorf("%w: stake must be a positive amount in cents", ErrInvalidStake)
	}
	outcome = strings.TrimSpace(outcome)

	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	miniPool, err := uow.MiniPoolRepository().GetByID(ctx, miniPoolID)
	if err != nil {
		return nil, fmt.Errorf("failed to get mini-pool: %w", err)
	}
	if miniPool == nil {
		return nil, fmt.Errorf("%w: mini-pool %s", ErrNotFound, miniPoolID)
	}

	event, err := uow.EventRepository().GetByIDForUpdate(ctx, miniPool.EventID)
	if err != nil {
		return nil, fmt.Errorf("failed to get event: %w", err)
	}
	if event == nil {
		return nil, fmt.Errorf("%w: event %s", ErrNotFound, miniPool.EventID)
	}

	miniPool, err = uow.MiniPoolRepository().GetByIDForUpdate(ctx, miniPoolID)
	if err != nil {
		return nil, fmt.Errorf("failed to lock mini-pool: %w", err)
	}
	if miniPool == nil {
		return nil, fmt.Errorf("%w: mini-pool %s", ErrNotFound, miniPoolID)
	}

	if !event.IsOpen() || !miniPool.IsOpen() {
		return nil, fmt.Errorf("%w: mini-pool %s no longer accepts entries", ErrEventNotOpen, miniPoolID)
	}
	if !event.HasOutcome(outcome) {
		return nil, fmt.Errorf("%w: %q is not an outcome of this event", ErrInvalidOutcome, outcome)
	}
	if stake.LessThan(miniPool.MinStake) {
		return nil, fmt.Errorf("%w: minimum stake is %s", ErrInvalidStake, miniPool.MinStake.StringFixed(models.MoneyScale))
	}

	existing, err := uow.MiniPoolRepository().GetEntry(ctx, miniPoolID, actor.UserID)
	if err != nil {
		return nil, fmt.Errorf("failed to check existing entry: %w", err)
	}
	if existing != nil {
		return nil, fmt.Errorf("%w: user %s already joined mini-pool %s", ErrDuplicateEntry, actor.UserID, miniPoolID)
	}

	entry := &models.MiniPoolEntry{
		ID:            uuid.New(),
		MiniPoolID:    miniPoolID,
		UserID:        actor.UserID,
		ChosenOutcome: outcome,
		StakeAmount:   stake,
	}

	relatedID, relatedType := relatedRef(miniPoolID, models.RelatedTypeMiniPool)
	if _, err := Debit(ctx, uow, LedgerEntry{
		UserID:          actor.UserID,
		Amount:          stake,
		TransactionType: models.TransactionTypeMiniPoolStake,
		RelatedID:       relatedID,
		RelatedType:     relatedType,
		Metadata: map[string]any{
			"event_id": event.ID.String(),
			"entry_id": entry.ID.String(),
			"outcome":  outcome,
		},
	}); err != nil {
		return nil, err
	}

	if err := uow.MiniPoolRepository().CreateEntry(ctx, entry); err != nil {
		if errors.Is(err, ErrUniqueViolation) {
			return nil, fmt.Errorf("%w: user %s already joined mini-pool %s", ErrDuplicateEntry, actor.UserID, miniPoolID)
		}
		return nil, fmt.Errorf("failed to create mini-pool entry: %w", err)
	}

	uow.EventBus().Publish(events.EntryCreatedEvent{
		EntryID:    entry.ID,
		EventID:    event.ID,
		MiniPoolID: &miniPoolID,
		UserID:     actor.UserID,
		Outcome:    outcome,
		Stake:      stake,
	})

	if err := uow.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	log.WithFields(log.Fields{
		"miniPoolID": miniPoolID,
		"userID":     actor.UserID,
		"outcome":    outcome,
		"stake":      stake.StringFixed(models.MoneyScale),
	}).Info("User joined mini-pool")

	return entry, nil
}

// GetMiniPool returns a mini-pool with its entries
func (s *miniPoolService) GetMiniPool(ctx context.Context, miniPoolID uuid.UUID) (*models.MiniPoolDetail, error) {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	miniPool, err := uow.MiniPoolRepository().GetByID(ctx, miniPoolID)
	if err != nil {
		return nil, fmt.Errorf("failed to get mini-pool: %w", err)
	}
	if miniPool == nil {
		return nil, fmt.Errorf("%w: mini-pool %s", ErrNotFound, miniPoolID)
	}

	entries, err := uow.MiniPoolRepository().ListEntries(ctx, miniPoolID)
	if err != nil {
		return nil, fmt.Errorf("failed to list mini-pool entries: %w", err)
	}

	return &models.MiniPoolDetail{MiniPool: miniPool, Entries: entries}, nil
}
