package service

import (
	"context"
	"fmt"

	"parlayz/events"
	"parlayz/models"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// LedgerEntry describes one balance change
type LedgerEntry struct {
	UserID          uuid.UUID
	Amount          decimal.Decimal
	TransactionType models.TransactionType
	RelatedID       *uuid.UUID
	RelatedType     *models.RelatedType
	Metadata        map[string]any
}

// Debit removes amount from a user's balance inside uow. The user row is
// locked first so concurrent debits of the same user serialize.
func Debit(ctx context.Context, uow UnitOfWork, entry LedgerEntry) (*models.BalanceHistory, error) {
	if !entry.Amount.IsPositive() || !models.IsMoney(entry.Amount) {
		return nil, fmt.Errorf("%w: debit of %s", ErrInvalidAmount, entry.Amount)
	}

	user, err := uow.UserRepository().GetByIDForUpdate(ctx, entry.UserID)
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	if user == nil {
		return nil, fmt.Errorf("%w: user %s", ErrNotFound, entry.UserID)
	}
	if user.Balance.LessThan(entry.Amount) {
		return nil, fmt.Errorf("%w: balance %s, required %s", ErrInsufficientFunds, user.Balance.StringFixed(models.MoneyScale), entry.Amount.StringFixed(models.MoneyScale))
	}

	after, err := uow.UserRepository().DeductBalance(ctx, entry.UserID, entry.Amount)
	if err != nil {
		return nil, fmt.Errorf("failed to deduct balance: %w", err)
	}

	history := &models.BalanceHistory{
		UserID:              entry.UserID,
		BalanceBefore:       user.Balance,
		BalanceAfter:        after,
		ChangeAmount:        entry.Amount.Neg(),
		TransactionType:     entry.TransactionType,
		TransactionMetadata: entry.Metadata,
		RelatedID:           entry.RelatedID,
		RelatedType:         entry.RelatedType,
	}
	if err := RecordBalanceChange(ctx, uow, history); err != nil {
		return nil, err
	}
	return history, nil
}

// Credit adds amount to a user's balance inside uow. A zero credit is a no-op
// and returns nil history.
func Credit(ctx context.Context, uow UnitOfWork, entry LedgerEntry) (*models.BalanceHistory, error) {
	if entry.Amount.IsNegative() || !models.IsMoney(entry.Amount) {
		return nil, fmt.Errorf("%w: credit of %s", ErrInvalidAmount, entry.Amount)
	}
	if entry.Amount.IsZero() {
		return nil, nil
	}

	after, err := uow.UserRepository().AddBalance(ctx, entry.UserID, entry.Amount)
	if err != nil {
		return nil, fmt.Errorf("failed to add balance: %w", err)
	}

	history := &models.BalanceHistory{
		UserID:              entry.UserID,
		BalanceBefore:       after.Sub(entry.Amount),
		BalanceAfter:        after,
		ChangeAmount:        entry.Amount,
		TransactionType:     entry.TransactionType,
		TransactionMetadata: entry.Metadata,
		RelatedID:           entry.RelatedID,
		RelatedType:         entry.RelatedType,
	}
	if err := RecordBalanceChange(ctx, uow, history); err != nil {
		return nil, err
	}
	return history, nil
}

// RecordBalanceChange journals a balance change and queues the matching
// domain event on the unit of work.
func RecordBalanceChange(ctx context.Context, uow UnitOfWork, history *models.BalanceHistory) error {
	if err := uow.BalanceHistoryRepository().Record(ctx, history); err != nil {
		return fmt.Errorf("failed to record balance history: %w", err)
	}

	uow.EventBus().Publish(events.BalanceChangeEvent{
		UserID:          history.UserID,
		OldBalance:      history.BalanceBefore,
		NewBalance:      history.BalanceAfter,
		TransactionType: history.TransactionType,
		ChangeAmount:    history.ChangeAmount,
	})

	if history.TransactionType == models.TransactionTypeInitial {
		if username, ok := history.TransactionMetadata["username"].(string); ok {
			uow.EventBus().Publish(events.UserCreatedEvent{
				UserID:         history.UserID,
				Username:       username,
				InitialBalance: history.BalanceAfter,
			})
		}
	}

	return nil
}

func relatedRef(id uuid.UUID, relatedType models.RelatedType) (*uuid.UUID, *models.RelatedType) {
	return &id, &relatedType
}
