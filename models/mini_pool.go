package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// MiniPoolStatus represents the lifecycle state of a mini-pool
type MiniPoolStatus string

const (
	MiniPoolStatusOpen    MiniPoolStatus = "open"
	MiniPoolStatusSettled MiniPoolStatus = "settled"
)

// MiniPool is a private side pool attached to a parent event. It shares the
// parent's outcomes and settles against the parent's winning outcome, but its
// pot is independent of the main pool.
type MiniPool struct {
	ID        uuid.UUID       `db:"id" json:"id"`
	EventID   uuid.UUID       `db:"event_id" json:"event_id"`
	CreatorID uuid.UUID       `db:"creator_id" json:"creator_id"`
	Name      string          `db:"name" json:"name"`
	MinStake  decimal.Decimal `db:"min_stake" json:"min_stake"`
	Status    MiniPoolStatus  `db:"status" json:"status"`
	CreatedAt time.Time       `db:"created_at" json:"created_at"`
	SettledAt *time.Time      `db:"settled_at" json:"settled_at,omitempty"`
}

// MiniPoolEntry is a user's stake inside a mini-pool
type MiniPoolEntry struct {
	ID            uuid.UUID        `db:"id" json:"id"`
	MiniPoolID    uuid.UUID        `db:"mini_pool_id" json:"mini_pool_id"`
	UserID        uuid.UUID        `db:"user_id" json:"user_id"`
	ChosenOutcome string           `db:"chosen_outcome" json:"chosen_outcome"`
	StakeAmount   decimal.Decimal  `db:"stake_amount" json:"stake_amount"`
	IsWinner      bool             `db:"is_winner" json:"is_winner"`
	PayoutAmount  *decimal.Decimal `db:"payout_amount" json:"payout_amount,omitempty"`
	CreatedAt     time.Time        `db:"created_at" json:"created_at"`
}

// MiniPoolDetail combines a mini-pool with its entries
type MiniPoolDetail struct {
	MiniPool *MiniPool        `json:"mini_pool"`
	Entries  []*MiniPoolEntry `json:"entries"`
}

// IsOpen checks if the mini-pool still accepts entries
func (m *MiniPool) IsOpen() bool {
	return m.Status == MiniPoolStatusOpen
}
