package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// EventStatus represents the lifecycle state of an event
type EventStatus string

const (
	EventStatusOpen    EventStatus = "open"
	EventStatusLocked  EventStatus = "locked"
	EventStatusSettled EventStatus = "settled"
)

// EventType distinguishes shared pools from head-to-head events
type EventType string

const (
	EventTypePool     EventType = "pool"
	EventTypeOneVsOne EventType = "1v1"
)

// OneVsOneMaxEntries is the fixed capacity of a head-to-head event.
const OneVsOneMaxEntries = 2

// Event is a question with a closed set of outcomes that users stake on
type Event struct {
	ID             uuid.UUID        `db:"id" json:"id"`
	CreatorID      uuid.UUID        `db:"creator_id" json:"creator_id"`
	Title          string           `db:"title" json:"title"`
	Description    string           `db:"description" json:"description"`
	StakeAmount    *decimal.Decimal `db:"stake_amount" json:"stake_amount,omitempty"`
	EventType      EventType        `db:"event_type" json:"event_type"`
	Outcomes       []string         `db:"outcomes" json:"outcomes"`
	Status         EventStatus      `db:"status" json:"status"`
	MaxEntries     *int             `db:"max_entries" json:"max_entries,omitempty"`
	WinningOutcome *string          `db:"winning_outcome" json:"winning_outcome,omitempty"`
	LockedAt       *time.Time       `db:"locked_at" json:"locked_at,omitempty"`
	SettledAt      *time.Time       `db:"settled_at" json:"settled_at,omitempty"`
	CreatedAt      time.Time        `db:"created_at" json:"created_at"`
}

// EventDetail combines an event with everything staked against it
type EventDetail struct {
	Event     *Event      `json:"event"`
	Entries   []*Entry    `json:"entries"`
	MiniPools []*MiniPool `json:"mini_pools"`
	Offers    []*P2POffer `json:"offers"`
}

// IsOpen checks if the event still accepts entries and offers
func (e *Event) IsOpen() bool {
	return e.Status == EventStatusOpen
}

// IsLocked checks if the event is waiting for its outcome
func (e *Event) IsLocked() bool {
	return e.Status == EventStatusLocked
}

// IsSettled checks if the event has been paid out
func (e *Event) IsSettled() bool {
	return e.Status == EventStatusSettled
}

// HasFixedStake reports whether every entry must stake exactly StakeAmount
func (e *Event) HasFixedStake() bool {
	return e.StakeAmount != nil
}

// HasOutcome checks whether outcome is one of the event's outcomes
func (e *Event) HasOutcome(outcome string) bool {
	for _, o := range e.Outcomes {
		if o == outcome {
			return true
		}
	}
	return false
}

// OppositeOutcome returns the other outcome of a two-outcome event. It
// returns false when the event is not binary or outcome is unknown.
func (e *Event) OppositeOutcome(outcome string) (string, bool) {
	if len(e.Outcomes) != 2 || !e.HasOutcome(outcome) {
		return "", false
	}
	if e.Outcomes[0] == outcome {
		return e.Outcomes[1], true
	}
	return e.Outcomes[0], true
}

// IsFull reports whether the event has reached its entry capacity
func (e *Event) IsFull(entryCount int) bool {
	return e.MaxEntries != nil && entryCount >= *e.MaxEntries
}

// NormalizeOutcomes trims outcome labels and reports whether they form a
// valid outcome set: at least two non-empty labels, unique ignoring case.
func NormalizeOutcomes(outcomes []string) ([]string, bool) {
	seen := make(map[string]struct{}, len(outcomes))
	normalized := make([]string, 0, len(outcomes))
	for _, o := range outcomes {
		o = strings.TrimSpace(o)
		if o == "" {
			return nil, false
		}
		key := strings.ToLower(o)
		if _, dup := seen[key]; dup {
			return nil, false
		}
		seen[key] = struct{}{}
		normalized = append(normalized, o)
	}
	return normalized, len(normalized) >= 2
}
