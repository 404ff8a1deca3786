package service

import (
	"parlayz/models"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Stake is one position in a pot, independent of whether it belongs to the
// main pool or a mini-pool.
type Stake struct {
	ID      uuid.UUID
	UserID  uuid.UUID
	Outcome string
	Amount  decimal.Decimal
}

// Payout is the settlement result for one Stake
type Payout struct {
	StakeID  uuid.UUID
	UserID   uuid.UUID
	IsWinner bool
	Amount   decimal.Decimal
}

// ComputePayouts splits the pot equally among stakes on winningOutcome.
// stakes must be in entry order; leftover cents go one each to the earliest
// winners so the payouts always sum to the pot. With no winners nothing is
// paid. The returned payouts are in the same order as stakes.
func ComputePayouts(stakes []Stake, winningOutcome string) (decimal.Decimal, []Payout) {
	total := decimal.Zero
	winners := 0
	for _, s := range stakes {
		total = total.Add(s.Amount)
		if s.Outcome == winningOutcome {
			winners++
		}
	}

	payouts := make([]Payout, len(stakes))
	shares := SplitEvenly(total, winners)
	next := 0
	for i, s := range stakes {
		payouts[i] = Payout{StakeID: s.ID, UserID: s.UserID, Amount: decimal.Zero}
		if s.Outcome == winningOutcome {
			payouts[i].IsWinner = true
			payouts[i].Amount = shares[next]
			next++
		}
	}
	return total, payouts
}

// SplitEvenly divides total into n cent-exact shares. Every share is
// floor(total/n) and the first total mod n shares get one extra cent.
func SplitEvenly(total decimal.Decimal, n int) []decimal.Decimal {
	if n <= 0 {
		return nil
	}

	cents := total.Shift(models.MoneyScale).Truncate(0)
	quotient, remainder := cents.QuoRem(decimal.NewFromInt(int64(n)), 0)
	extra := remainder.IntPart()

	shares := make([]decimal.Decimal, n)
	for i := range shares {
		share := quotient
		if int64(i) < extra {
			share = share.Add(decimal.NewFromInt(1))
		}
		shares[i] = share.Shift(-models.MoneyScale)
	}
	return shares
}

// OfferWinner decides who collects a matched offer's pot. ok is false when
// the winning outcome backs neither side, in which case both stakes are refunded.
func OfferWinner(offer *models.P2POffer, winningOutcome string) (winner uuid.UUID, ok bool) {
	if offer.CreatorOutcome == winningOutcome {
		return offer.CreatorID, true
	}
	if offer.TakerID != nil && offer.TakerOutcome != nil && *offer.TakerOutcome == winningOutcome {
		return *offer.TakerID, true
	}
	return uuid.Nil, false
}
