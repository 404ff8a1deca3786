package service

import (
	"bytes"
	"context"
	"fmt"
	"slices"
	"strings"
	"time"

	"parlayz/events"
	"parlayz/models"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"
)

// settlementService implements the SettlementService interface
type settlementService struct {
	uowFactory UnitOfWorkFactory
	policy     AccessPolicy
}

// NewSettlementService creates a new settlement service
func NewSettlementService(uowFactory UnitOfWorkFactory, policy AccessPolicy) SettlementService {
	return &settlementService{
		uowFactory: uowFactory,
		policy:     policy,
	}
}

// SettleEvent pays out the main pool, every mini-pool and every P2P offer of
// a locked event, then marks it settled. Everything commits together or not
// at all, and the status check shares the transaction with the status write,
// so an event is paid at most once.
func (s *settlementService) SettleEvent(ctx context.Context, actor models.Actor, eventID uuid.UUID, winningOutcome string) (*models.SettlementResult, error) {
	if err := authorize(s.policy, actor, ActionSettleEvent); err != nil {
		return nil, err
	}
	winningOutcome = strings.TrimSpace(winningOutcome)

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
	if !event.IsLocked() {
		return nil, fmt.Errorf("%w: event must be locked before settlement, status is %s", ErrInvalidTransition, event.Status)
	}
	if !event.HasOutcome(winningOutcome) {
		return nil, fmt.Errorf("%w: %q is not an outcome of this event", ErrInvalidOutcome, winningOutcome)
	}

	entries, err := uow.EntryRepository().ListByEvent(ctx, eventID)
	if err != nil {
		return nil, fmt.Errorf("failed to list entries: %w", err)
	}
	allMiniPools, err := uow.MiniPoolRepository().ListByEvent(ctx, eventID)
	if err != nil {
		return nil, fmt.Errorf("failed to list mini-pools: %w", err)
	}
	var miniPools []miniPot
	for _, miniPool := range allMiniPools {
		if !miniPool.IsOpen() {
			continue
		}
		miniEntries, err := uow.MiniPoolRepository().ListEntries(ctx, miniPool.ID)
		if err != nil {
			return nil, fmt.Errorf("failed to list mini-pool entries: %w", err)
		}
		miniPools = append(miniPools, miniPot{pool: miniPool, entries: miniEntries})
	}
	offers, err := uow.OfferRepository().ListByEvent(ctx, eventID, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to list offers: %w", err)
	}

	if err := uow.UserRepository().LockUsers(ctx, participantIDs(entries, miniPools, offers)); err != nil {
		return nil, err
	}

	result := &models.SettlementResult{Event: event}

	mainPool, err := settleMainPool(ctx, uow, event, entries, winningOutcome)
	if err != nil {
		return nil, err
	}
	result.MainPool = mainPool

	for _, mp := range miniPools {
		potResult, err := settleMiniPool(ctx, uow, event, mp, winningOutcome)
		if err != nil {
			return nil, err
		}
		result.MiniPools = append(result.MiniPools, potResult)
	}

	for _, offer := range offers {
		offerResult, settled, err := settleOffer(ctx, uow, offer, winningOutcome)
		if err != nil {
			return nil, err
		}
		if settled {
			result.Offers = append(result.Offers, offerResult)
		}
	}

	now := time.Now().UTC()
	event.Status = models.EventStatusSettled
	event.WinningOutcome = &winningOutcome
	event.SettledAt = &now
	if err := uow.EventRepository().Update(ctx, event); err != nil {
		return nil, fmt.Errorf("failed to update event: %w", err)
	}

	winnerCount := result.MainPool.WinnerCount
	for _, mp := range result.MiniPools {
		winnerCount += mp.WinnerCount
	}
	totalPaid := result.TotalPaid()

	uow.EventBus().Publish(events.EventStateChangeEvent{
		EventID:  event.ID,
		OldState: models.EventStatusLocked,
		NewState: models.EventStatusSettled,
	})
	uow.EventBus().Publish(events.EventSettledEvent{
		EventID:        event.ID,
		WinningOutcome: winningOutcome,
		TotalPaid:      totalPaid,
		WinnerCount:    winnerCount,
	})

	if err := uow.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	log.WithFields(log.Fields{
		"eventID":        eventID,
		"adminID":        actor.UserID,
		"winningOutcome": winningOutcome,
		"mainPot":        result.MainPool.TotalPot.StringFixed(models.MoneyScale),
		"miniPools":      len(result.MiniPools),
		"offers":         len(result.Offers),
		"totalPaid":      totalPaid.StringFixed(models.MoneyScale),
	}).Info("Settled event")

	return result, nil
}

// miniPot is an open mini-pool with its entries
type miniPot struct {
	pool    *models.MiniPool
	entries []*models.MiniPoolEntry
}

// participantIDs returns every user who may be credited, deduplicated and
// sorted by id
func participantIDs(entries []*models.Entry, miniPools []miniPot, offers []*models.P2POffer) []uuid.UUID {
	seen := make(map[uuid.UUID]struct{})
	for _, e := range entries {
		seen[e.UserID] = struct{}{}
	}
	for _, mp := range miniPools {
		for _, e := range mp.entries {
			seen[e.UserID] = struct{}{}
		}
	}
	for _, o := range offers {
		seen[o.CreatorID] = struct{}{}
		if o.TakerID != nil {
			seen[*o.TakerID] = struct{}{}
		}
	}

	ids := make([]uuid.UUID, 0, len(seen))
	for id := range seen {
		ids = append(ids, id)
	}
	slices.SortFunc(ids, func(a, b uuid.UUID) int {
		return bytes.Compare(a[:], b[:])
	})
	return ids
}

// settleMainPool pays the event's own entries
func settleMainPool(ctx context.Context, uow UnitOfWork, event *models.Event, entries []*models.Entry, winningOutcome string) (models.PotResult, error) {
	stakes := make([]Stake, len(entries))
	for i, e := range entries {
		stakes[i] = Stake{ID: e.ID, UserID: e.UserID, Outcome: e.ChosenOutcome, Amount: e.StakeAmount}
	}

	potResult, payouts, err := applyPayouts(ctx, uow, event.ID, stakes, winningOutcome, models.TransactionTypeEntryPayout, models.RelatedTypeEntry, event.ID)
	if err != nil {
		return models.PotResult{}, err
	}

	for i, entry := range entries {
		amount := payouts[i].Amount
		entry.IsWinner = payouts[i].IsWinner
		entry.PayoutAmount = &amount
	}
	if len(entries) > 0 {
		if err := uow.EntryRepository().UpdateSettlement(ctx, entries); err != nil {
			return models.PotResult{}, fmt.Errorf("failed to update entries: %w", err)
		}
	}
	return potResult, nil
}

// settleMiniPool pays a mini-pool from its own pot and closes it
func settleMiniPool(ctx context.Context, uow UnitOfWork, event *models.Event, mp miniPot, winningOutcome string) (models.PotResult, error) {
	miniPool, entries := mp.pool, mp.entries

	stakes := make([]Stake, len(entries))
	for i, e := range entries {
		stakes[i] = Stake{ID: e.ID, UserID: e.UserID, Outcome: e.ChosenOutcome, Amount: e.StakeAmount}
	}

	potResult, payouts, err := applyPayouts(ctx, uow, miniPool.ID, stakes, winningOutcome, models.TransactionTypeMiniPoolPayout, models.RelatedTypeMiniPool, event.ID)
	if err != nil {
		return models.PotResult{}, err
	}

	for i, entry := range entries {
		amount := payouts[i].Amount
		entry.IsWinner = payouts[i].IsWinner
		entry.PayoutAmount = &amount
	}
	if len(entries) > 0 {
		if err := uow.MiniPoolRepository().UpdateEntrySettlement(ctx, entries); err != nil {
			return models.PotResult{}, fmt.Errorf("failed to update mini-pool entries: %w", err)
		}
	}

	now := time.Now().UTC()
	miniPool.Status = models.MiniPoolStatusSettled
	miniPool.SettledAt = &now
	if err := uow.MiniPoolRepository().Update(ctx, miniPool); err != nil {
		return models.PotResult{}, fmt.Errorf("failed to update mini-pool: %w", err)
	}
	return potResult, nil
}

// applyPayouts computes a pot's split and credits each winner
func applyPayouts(ctx context.Context, uow UnitOfWork, potID uuid.UUID, stakes []Stake, winningOutcome string, txType models.TransactionType, relatedType models.RelatedType, eventID uuid.UUID) (models.PotResult, []Payout, error) {
	total, payouts := ComputePayouts(stakes, winningOutcome)

	potResult := models.PotResult{
		PotID:    potID,
		TotalPot: total,
		Payouts:  make(map[uuid.UUID]decimal.Decimal),
	}

	for _, p := range payouts {
		if !p.IsWinner {
			potResult.LoserCount++
			continue
		}
		potResult.WinnerCount++
		potResult.Payouts[p.UserID] = p.Amount

		relatedID, related := relatedRef(p.StakeID, relatedType)
		if _, err := Credit(ctx, uow, LedgerEntry{
			UserID:          p.UserID,
			Amount:          p.Amount,
			TransactionType: txType,
			RelatedID:       relatedID,
			RelatedType:     related,
			Metadata: map[string]any{
				"event_id":        eventID.String(),
				"pot_id":          potID.String(),
				"winning_outcome": winningOutcome,
				"total_pot":       total.StringFixed(models.MoneyScale),
			},
		}); err != nil {
			return models.PotResult{}, nil, fmt.Errorf("failed to credit winner %s: %w", p.UserID, err)
		}
	}

	return potResult, payouts, nil
}

// settleOffer resolves one offer. Matched offers pay the whole pot to the
// side that won, or refund both parties when neither side won. Open offers
// are refunded to the creator. Offers already closed are skipped.
func settleOffer(ctx context.Context, uow UnitOfWork, offer *models.P2POffer, winningOutcome string) (models.OfferResult, bool, error) {
	switch offer.Status {
	case models.OfferStatusOpen:
		if err := refundOpenOffer(ctx, uow, offer, "unmatched_at_settlement"); err != nil {
			return models.OfferResult{}, false, err
		}
		return models.OfferResult{
			OfferID:  offer.ID,
			Status:   offer.Status,
			Pot:      offer.StakeAmount,
			Refunded: true,
		}, true, nil

	case models.OfferStatusMatched:
	default:
		return models.OfferResult{}, false, nil
	}

	result := models.OfferResult{OfferID: offer.ID, Pot: offer.Pot()}
	relatedID, relatedType := relatedRef(offer.ID, models.RelatedTypeOffer)
	metadata := map[string]any{
		"event_id":        offer.EventID.String(),
		"winning_outcome": winningOutcome,
	}

	if winner, ok := OfferWinner(offer, winningOutcome); ok {
		if _, err := Credit(ctx, uow, LedgerEntry{
			UserID:          winner,
			Amount:          offer.Pot(),
			TransactionType: models.TransactionTypeOfferPayout,
			RelatedID:       relatedID,
			RelatedType:     relatedType,
			Metadata:        metadata,
		}); err != nil {
			return models.OfferResult{}, false, fmt.Errorf("failed to pay offer winner: %w", err)
		}
		offer.WinnerID = &winner
		result.WinnerID = &winner
	} else {
		refunds := []struct {
			userID uuid.UUID
			amount decimal.Decimal
		}{
			{offer.CreatorID, offer.StakeAmount},
			{*offer.TakerID, *offer.TakerStake},
		}
		for _, r := range refunds {
			if _, err := Credit(ctx, uow, LedgerEntry{
				UserID:          r.userID,
				Amount:          r.amount,
				TransactionType: models.TransactionTypeOfferRefund,
				RelatedID:       relatedID,
				RelatedType:     relatedType,
				Metadata:        metadata,
			}); err != nil {
				return models.OfferResult{}, false, fmt.Errorf("failed to refund offer party: %w", err)
			}
		}
		result.Refunded = true
	}

	now := time.Now().UTC()
	offer.Status = models.OfferStatusSettled
	offer.SettledAt = &now
	if err := uow.OfferRepository().Update(ctx, offer); err != nil {
		return models.OfferResult{}, false, fmt.Errorf("failed to update offer: %w", err)
	}
	result.Status = offer.Status

	uow.EventBus().Publish(events.OfferStateChangeEvent{
		OfferID:  offer.ID,
		EventID:  offer.EventID,
		OldState: models.OfferStatusMatched,
		NewState: models.OfferStatusSettled,
	})
	return result, true, nil
}
