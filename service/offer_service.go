package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"parlayz/events"
	"parlayz/models"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"
)

// offerService implements the OfferService interface
type offerService struct {
	uowFactory UnitOfWorkFactory
}

// NewOfferService creates a new P2P offer service
func NewOfferService(uowFactory UnitOfWorkFactory) OfferService {
	return &offerService{uowFactory: uowFactory}
}

// CreateOffer escrows the creator's stake and posts an open offer
func (s *offerService) CreateOffer(ctx context.Context, actor models.Actor, params CreateOfferParams) (*models.P2POffer, error) {
	if !params.Stake.IsPositive() || !models.IsMoney(params.Stake) {
		return nil, fmt.Errorf("%w: stake must be a positive amount in cents", ErrInvalidStake)
	}
	minMatch := params.Stake
	if params.MinMatchAmount != nil {
		minMatch = *params.MinMatchAmount
	}
	if !minMatch.IsPositive() || !models.IsMoney(minMatch) || minMatch.GreaterThan(params.Stake) {
		return nil, fmt.Errorf("%w: minimum match must be positive and at most the stake", ErrInvalidStake)
	}
	outcome := strings.TrimSpace(params.Outcome)

	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	event, err := uow.EventRepository().GetByIDForUpdate(ctx, params.EventID)
	if err != nil {
		return nil, fmt.Errorf("failed to get event: %w", err)
	}
	if event == nil {
		return nil, fmt.Errorf("%w: event %s", ErrNotFound, params.EventID)
	}
	if !event.IsOpen() {
		return nil, fmt.Errorf("%w: event %s is %s", ErrEventNotOpen, event.ID, event.Status)
	}
	if !event.HasOutcome(outcome) {
		return nil, fmt.Errorf("%w: %q is not an outcome of this event", ErrInvalidOutcome, outcome)
	}

	offer := &models.P2POffer{
		ID:             uuid.New(),
		EventID:        event.ID,
		CreatorID:      actor.UserID,
		CreatorOutcome: outcome,
		StakeAmount:    params.Stake,
		MinMatchAmount: minMatch,
		Status:         models.OfferStatusOpen,
	}

	relatedID, relatedType := relatedRef(offer.ID, models.RelatedTypeOffer)
	if _, err := Debit(ctx, uow, LedgerEntry{
		UserID:          actor.UserID,
		Amount:          params.Stake,
		TransactionType: models.TransactionTypeOfferStake,
		RelatedID:       relatedID,
		RelatedType:     relatedType,
		Metadata: map[string]any{
			"event_id": event.ID.String(),
			"outcome":  outcome,
		},
	}); err != nil {
		return nil, err
	}

	if err := uow.OfferRepository().Create(ctx, offer); err != nil {
		return nil, fmt.Errorf("failed to create offer: %w", err)
	}

	uow.EventBus().Publish(events.OfferStateChangeEvent{
		OfferID:  offer.ID,
		EventID:  event.ID,
		NewState: models.OfferStatusOpen,
	})

	if err := uow.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	log.WithFields(log.Fields{
		"offerID":   offer.ID,
		"eventID":   event.ID,
		"creatorID": actor.UserID,
		"outcome":   outcome,
		"stake":     params.Stake.StringFixed(models.MoneyScale),
	}).Info("Created P2P offer")

	return offer, nil
}

// MatchOffer escrows the taker's stake and pairs them with the creator. The
// event row and then the offer row are locked, so of two concurrent matchers
// the second observes the offer as matched and gets ErrOfferNotOpen.
func (s *offerService) MatchOffer(ctx context.Context, actor models.Actor, offerID uuid.UUID, stake decimal.Decimal, takerOutcome *string) (*models.P2POffer, error) {
	if !models.IsMoney(stake) {
		return nil, fmt.Errorf("%w: stake must be an amount in cents", ErrInvalidStake)
	}

	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	offer, event, err := lockOffer(ctx, uow, offerID)
	if err != nil {
		return nil, err
	}

	if !offer.IsOpen() {
		return nil, fmt.Errorf("%w: offer %s is %s", ErrOfferNotOpen, offerID, offer.Status)
	}
	if offer.CreatorID == actor.UserID {
		return nil, fmt.Errorf("%w: offer %s", ErrSelfMatch, offerID)
	}
	if stake.LessThan(offer.MinMatchAmount) {
		return nil, fmt.Errorf("%w: minimum is %s", ErrBelowMinimumMatch, offer.MinMatchAmount.StringFixed(models.MoneyScale))
	}
	if !event.IsOpen() {
		return nil, fmt.Errorf("%w: event %s is %s", ErrEventNotOpen, event.ID, event.Status)
	}

	side, err := resolveTakerOutcome(event, offer, takerOutcome)
	if err != nil {
		return nil, err
	}

	relatedID, relatedType := relatedRef(offer.ID, models.RelatedTypeOffer)
	if _, err := Debit(ctx, uow, LedgerEntry{
		UserID:          actor.UserID,
		Amount:          stake,
		TransactionType: models.TransactionTypeOfferMatchStake,
		RelatedID:       relatedID,
		RelatedType:     relatedType,
		Metadata: map[string]any{
			"event_id": event.ID.String(),
			"outcome":  side,
		},
	}); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	takerID := actor.UserID
	offer.TakerID = &takerID
	offer.TakerOutcome = &side
	offer.TakerStake = &stake
	offer.MatchedAt = &now
	offer.Status = models.OfferStatusMatched
	if err := uow.OfferRepository().Update(ctx, offer); err != nil {
		return nil, fmt.Errorf("failed to update offer: %w", err)
	}

	uow.EventBus().Publish(events.OfferStateChangeEvent{
		OfferID:  offer.ID,
		EventID:  event.ID,
		OldState: models.OfferStatusOpen,
		NewState: models.OfferStatusMatched,
	})

	if err := uow.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	log.WithFields(log.Fields{
		"offerID": offer.ID,
		"takerID": actor.UserID,
		"outcome": side,
		"stake":   stake.StringFixed(models.MoneyScale),
		"pot":     offer.Pot().StringFixed(models.MoneyScale),
	}).Info("Matched P2P offer")

	return offer, nil
}

// resolveTakerOutcome picks the taker's side. Without an explicit choice the
// event must be binary and the taker backs the other outcome.
func resolveTakerOutcome(event *models.Event, offer *models.P2POffer, requested *string) (string, error) {
	if requested == nil || strings.TrimSpace(*requested) == "" {
		side, ok := event.OppositeOutcome(offer.CreatorOutcome)
		if !ok {
			return "", fmt.Errorf("%w: choose a side, event has %d outcomes", ErrInvalidOutcome, len(event.Outcomes))
		}
		return side, nil
	}

	side := strings.TrimSpace(*requested)
	if !event.HasOutcome(side) {
		return "", fmt.Errorf("%w: %q is not an outcome of this event", ErrInvalidOutcome, side)
	}
	if side == offer.CreatorOutcome {
		return "", fmt.Errorf("%w: taker must back a different outcome than the creator", ErrInvalidOutcome)
	}
	return side, nil
}

// CancelOffer refunds the creator and withdraws an unmatched offer
func (s *offerService) CancelOffer(ctx context.Context, actor models.Actor, offerID uuid.UUID) (*models.P2POffer, error) {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	offer, event, err := lockOffer(ctx, uow, offerID)
	if err != nil {
		return nil, err
	}
	if offer.CreatorID != actor.UserID {
		return nil, fmt.Errorf("%w: only the creator can cancel offer %s", ErrNotAuthorized, offerID)
	}
	if !offer.IsOpen() {
		return nil, fmt.Errorf("%w: offer %s is %s", ErrOfferNotOpen, offerID, offer.Status)
	}

	if err := refundOpenOffer(ctx, uow, offer, "cancelled"); err != nil {
		return nil, err
	}

	if err := uow.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	log.WithFields(log.Fields{
		"offerID": offerID,
		"eventID": event.ID,
		"userID":  actor.UserID,
	}).Info("Cancelled P2P offer")

	return offer, nil
}

// ListOffers returns an event's offers oldest first
func (s *offerService) ListOffers(ctx context.Context, eventID uuid.UUID, status *models.OfferStatus) ([]*models.P2POffer, error) {
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

	offers, err := uow.OfferRepository().ListByEvent(ctx, eventID, status)
	if err != nil {
		return nil, fmt.Errorf("failed to list offers: %w", err)
	}
	return offers, nil
}

// lockOffer locks the offer's event and then the offer itself
func lockOffer(ctx context.Context, uow UnitOfWork, offerID uuid.UUID) (*models.P2POffer, *models.Event, error) {
	offer, err := uow.OfferRepository().GetByID(ctx, offerID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to get offer: %w", err)
	}
	if offer == nil {
		return nil, nil, fmt.Errorf("%w: offer %s", ErrNotFound, offerID)
	}

	event, err := uow.EventRepository().GetByIDForUpdate(ctx, offer.EventID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to get event: %w", err)
	}
	if event == nil {
		return nil, nil, fmt.Errorf("%w: event %s", ErrNotFound, offer.EventID)
	}

	offer, err = uow.OfferRepository().GetByIDForUpdate(ctx, offerID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to lock offer: %w", err)
	}
	if offer == nil {
		return nil, nil, fmt.Errorf("%w: offer %s", ErrNotFound, offerID)
	}
	return offer, event, nil
}

// refundOpenOffer credits the creator's stake back and marks the offer cancelled
func refundOpenOffer(ctx context.Context, uow UnitOfWork, offer *models.P2POffer, reason string) error {
	relatedID, relatedType := relatedRef(offer.ID, models.RelatedTypeOffer)
	if _, err := Credit(ctx, uow, LedgerEntry{
		UserID:          offer.CreatorID,
		Amount:          offer.StakeAmount,
		TransactionType: models.TransactionTypeOfferRefund,
		RelatedID:       relatedID,
		RelatedType:     relatedType,
		Metadata: map[string]any{
			"event_id": offer.EventID.String(),
			"reason":   reason,
		},
	}); err != nil {
		return err
	}

	offer.Status = models.OfferStatusCancelled
	if err := uow.OfferRepository().Update(ctx, offer); err != nil {
		return fmt.Errorf("failed to update offer: %w", err)
	}

	uow.EventBus().Publish(events.OfferStateChangeEvent{
		OfferID:  offer.ID,
		EventID:  offer.EventID,
		OldState: models.OfferStatusOpen,
		NewState: models.OfferStatusCancelled,
	})
	return nil
}
