package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Entry is a user's committed stake on one outcome of an event
type Entry struct {
	ID            uuid.UUID        `db:"id" json:"id"`
	EventID       uuid.UUID        `db:"event_id" json:"event_id"`
	UserID        uuid.UUID        `db:"user_id" json:"user_id"`
	ChosenOutcome string           `db:"chosen_outcome" json:"chosen_outcome"`
	StakeAmount   decimal.Decimal  `db:"stake_amount" json:"stake_amount"`
	IsWinner      bool             `db:"is_winner" json:"is_winner"`
	PayoutAmount  *decimal.Decimal `db:"payout_amount" json:"payout_amount,omitempty"`
	CreatedAt     time.Time        `db:"created_at" json:"created_at"`
}
