package service

import (
	"context"

	"parlayz/events"
	"parlayz/models"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// UserRepository defines the interface for user data access
type UserRepository interface {
	// GetByID retrieves a user by ID, returning nil if absent
	GetByID(ctx context.Context, id uuid.UUID) (*models.User, error)

	// GetByIDForUpdate retrieves a user and locks the row until the transaction ends
	GetByIDForUpdate(ctx context.Context, id uuid.UUID) (*models.User, error)

	// GetByUsername retrieves a user by case-insensitive username
	GetByUsername(ctx context.Context, username string) (*models.User, error)

	// LockUsers row-locks the given users in ascending id order
	LockUsers(ctx context.Context, ids []uuid.UUID) error

	// Create inserts a new user
	Create(ctx context.Context, user *models.User) error

	// DeductBalance subtracts amount and returns the new balance. It fails with
	// ErrInsufficientFunds instead of letting the balance go negative.
	DeductBalance(ctx context.Context, id uuid.UUID, amount decimal.Decimal) (decimal.Decimal, error)

	// AddBalance adds amount and returns the new balance
	AddBalance(ctx context.Context, id uuid.UUID, amount decimal.Decimal) (decimal.Decimal, error)

	// SetAdmin grants or revokes the administrator capability
	SetAdmin(ctx context.Context, id uuid.UUID, isAdmin bool) error
}

// BalanceHistoryRepository defines the interface for the ledger journal
type BalanceHistoryRepository interface {
	// Record creates a new balance history entry
	Record(ctx context.Context, history *models.BalanceHistory) error

	// GetByUser returns the most recent balance history for a user
	GetByUser(ctx context.Context, userID uuid.UUID, limit int) ([]*models.BalanceHistory, error)
}

// EventRepository defines the interface for event data access
type EventRepository interface {
	Create(ctx context.Context, event *models.Event) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Event, error)

	// GetByIDForUpdate locks the event row. Every transition that depends on
	// the event status takes this lock first.
	GetByIDForUpdate(ctx context.Context, id uuid.UUID) (*models.Event, error)

	// List returns events newest first, optionally filtered by status
	List(ctx context.Context, status *models.EventStatus, limit int) ([]*models.Event, error)

	// Update persists status, winning outcome and timestamps
	Update(ctx context.Context, event *models.Event) error
}

// EntryRepository defines the interface for main pool entries
type EntryRepository interface {
	Create(ctx context.Context, entry *models.Entry) error
	GetByEventAndUser(ctx context.Context, eventID, userID uuid.UUID) (*models.Entry, error)
	CountByEvent(ctx context.Context, eventID uuid.UUID) (int, error)

	// ListByEvent returns entries ordered by creation time then ID
	ListByEvent(ctx context.Context, eventID uuid.UUID) ([]*models.Entry, error)

	// UpdateSettlement persists is_winner and payout_amount
	UpdateSettlement(ctx context.Context, entries []*models.Entry) error
}

// MiniPoolRepository defines the interface for mini-pools and their entries
type MiniPoolRepository interface {
	Create(ctx context.Context, miniPool *models.MiniPool) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.MiniPool, error)
	GetByIDForUpdate(ctx context.Context, id uuid.UUID) (*models.MiniPool, error)
	ListByEvent(ctx context.Context, eventID uuid.UUID) ([]*models.MiniPool, error)
	Update(ctx context.Context, miniPool *models.MiniPool) error

	CreateEntry(ctx context.Context, entry *models.MiniPoolEntry) error
	GetEntry(ctx context.Context, miniPoolID, userID uuid.UUID) (*models.MiniPoolEntry, error)

	// ListEntries returns entries ordered by creation time then ID
	ListEntries(ctx context.Context, miniPoolID uuid.UUID) ([]*models.MiniPoolEntry, error)
	UpdateEntrySettlement(ctx context.Context, entries []*models.MiniPoolEntry) error
}

// OfferRepository defines the interface for P2P offers
type OfferRepository interface {
	Create(ctx context.Context, offer *models.P2POffer) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.P2POffer, error)
	GetByIDForUpdate(ctx context.Context, id uuid.UUID) (*models.P2POffer, error)

	// ListByEvent returns offers oldest first, optionally filtered by status
	ListByEvent(ctx context.Context, eventID uuid.UUID, status *models.OfferStatus) ([]*models.P2POffer, error)
	Update(ctx context.Context, offer *models.P2POffer) error
}

// EventPublisher publishes domain events
type EventPublisher interface {
	Publish(event events.Event)
}

// UnitOfWork scopes repositories to one database transaction. Events
// published through EventBus are delivered only after Commit.
type UnitOfWork interface {
	Begin(ctx context.Context) error
	Commit() error
	Rollback() error

	UserRepository() UserRepository
	BalanceHistoryRepository() BalanceHistoryRepository
	EventRepository() EventRepository
	EntryRepository() EntryRepository
	MiniPoolRepository() MiniPoolRepository
	OfferRepository() OfferRepository
	EventBus() EventPublisher
}

// UnitOfWorkFactory creates units of work
type UnitOfWorkFactory interface {
	Create() UnitOfWork
}

// UserService defines account operations
type UserService interface {
	// Register creates an account funded with the starting balance
	Register(ctx context.Context, username string) (*models.User, error)
	GetByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	GetByUsername(ctx context.Context, username string) (*models.User, error)
	GetHistory(ctx context.Context, userID uuid.UUID, limit int) ([]*models.BalanceHistory, error)

	// SetAdmin grants or revokes the administrator capability
	SetAdmin(ctx context.Context, username string, isAdmin bool) (*models.User, error)
}

// CreateEventParams holds the inputs for creating an event
type CreateEventParams struct {
	Title       string
	Description string
	EventType   models.EventType
	Outcomes    []string
	StakeAmount *decimal.Decimal
	MaxEntries  *int

	// CreatorOutcome joins the creator on this outcome in the same transaction
	CreatorOutcome *string
	CreatorStake   *decimal.Decimal
}

// PoolService defines event lifecycle operations
type PoolService interface {
	CreateEvent(ctx context.Context, actor models.Actor, params CreateEventParams) (*models.EventDetail, error)
	GetEvent(ctx context.Context, eventID uuid.UUID) (*models.EventDetail, error)
	ListEvents(ctx context.Context, status *models.EventStatus, limit int) ([]*models.Event, error)
	JoinEvent(ctx context.Context, actor models.Actor, eventID uuid.UUID, outcome string, stake decimal.Decimal) (*models.Entry, error)
	LockEvent(ctx context.Context, actor models.Actor, eventID uuid.UUID) (*models.Event, error)
}

// MiniPoolService defines mini-pool operations
type MiniPoolService interface {
	// CreateMiniPool attaches a side pool to an open event. A nil minStake uses the configured default.
	CreateMiniPool(ctx context.Context, actor models.Actor, eventID uuid.UUID, name string, minStake *decimal.Decimal) (*models.MiniPool, error)
	JoinMiniPool(ctx context.Context, actor models.Actor, miniPoolID uuid.UUID, outcome string, stake decimal.Decimal) (*models.MiniPoolEntry, error)
	GetMiniPool(ctx context.Context, miniPoolID uuid.UUID) (*models.MiniPoolDetail, error)
}

// CreateOfferParams holds the inputs for posting a P2P offer
type CreateOfferParams struct {
	EventID uuid.UUID
	Outcome string
	Stake   decimal.Decimal

	// MinMatchAmount defaults to Stake
	MinMatchAmount *decimal.Decimal
}

// OfferService defines P2P offer operations
type OfferService interface {
	CreateOffer(ctx context.Context, actor models.Actor, params CreateOfferParams) (*models.P2POffer, error)

	// MatchOffer takes the opposing side of an open offer. takerOutcome may be
	// nil on two-outcome events, where the opposite of the creator's side is used.
	MatchOffer(ctx context.Context, actor models.Actor, offerID uuid.UUID, stake decimal.Decimal, takerOutcome *string) (*models.P2POffer, error)

	// CancelOffer withdraws an unmatched offer and refunds its stake
	CancelOffer(ctx context.Context, actor models.Actor, offerID uuid.UUID) (*models.P2POffer, error)
	ListOffers(ctx context.Context, eventID uuid.UUID, status *models.OfferStatus) ([]*models.P2POffer, error)
}

// SettlementService defines the settlement operation
type SettlementService interface {
	SettleEvent(ctx context.Context, actor models.Actor, eventID uuid.UUID, winningOutcome string) (*models.SettlementResult, error)
}
