package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// OfferStatus represents the lifecycle state of a P2P offer
type OfferStatus string

const (
	OfferStatusOpen      OfferStatus = "open"
	OfferStatusMatched   OfferStatus = "matched"
	OfferStatusSettled   OfferStatus = "settled"
	OfferStatusCancelled OfferStatus = "cancelled"
)

// P2POffer is a one-to-one challenge: the creator backs one outcome and a
// single taker backs another.
type P2POffer struct {
	ID             uuid.UUID        `db:"id" json:"id"`
	EventID        uuid.UUID        `db:"event_id" json:"event_id"`
	CreatorID      uuid.UUID        `db:"creator_id" json:"creator_id"`
	CreatorOutcome string           `db:"creator_outcome" json:"creator_outcome"`
	StakeAmount    decimal.Decimal  `db:"stake_amount" json:"stake_amount"`
	MinMatchAmount decimal.Decimal  `db:"min_match_amount" json:"min_match_amount"`
	Status         OfferStatus      `db:"status" json:"status"`
	TakerID        *uuid.UUID       `db:"taker_id" json:"taker_id,omitempty"`
	TakerOutcome   *string          `db:"taker_outcome" json:"taker_outcome,omitempty"`
	TakerStake     *decimal.Decimal `db:"taker_stake" json:"taker_stake,omitempty"`
	WinnerID       *uuid.UUID       `db:"winner_id" json:"winner_id,omitempty"`
	MatchedAt      *time.Time       `db:"matched_at" json:"matched_at,omitempty"`
	SettledAt      *time.Time       `db:"settled_at" json:"settled_at,omitempty"`
	CreatedAt      time.Time        `db:"created_at" json:"created_at"`
}

// IsOpen checks if the offer can still be matched or cancelled
func (o *P2POffer) IsOpen() bool {
	return o.Status == OfferStatusOpen
}

// IsMatched checks if the offer has a taker and is awaiting settlement
func (o *P2POffer) IsMatched() bool {
	return o.Status == OfferStatusMatched
}

// Pot returns the total escrowed for the offer: the creator's stake plus the
// taker's stake once matched.
func (o *P2POffer) Pot() decimal.Decimal {
	if o.TakerStake == nil {
		return o.StakeAmount
	}
	return o.StakeAmount.Add(*o.TakerStake)
}
