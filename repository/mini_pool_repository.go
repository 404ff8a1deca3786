package repository

import (
	"context"
	"errors"
	"fmt"

	"parlayz/database"
	"parlayz/models"
	"parlayz/service"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// MiniPoolRepository implements the MiniPoolRepository interface
type MiniPoolRepository struct {
	q queryable
}

// NewMiniPoolRepository creates a new mini-pool repository
func NewMiniPoolRepository(db *database.DB) *MiniPoolRepository {
	return &MiniPoolRepository{q: db.Pool}
}

// newMiniPoolRepositoryWithTx creates a new mini-pool repository with a transaction
func newMiniPoolRepositoryWithTx(tx queryable) *MiniPoolRepository {
	return &MiniPoolRepository{q: tx}
}

const miniPoolColumns = `id, event_id, creator_id, name, min_stake, status, created_at, settled_at`

const miniPoolEntryColumns = `id, mini_pool_id, user_id, chosen_outcome, stake_amount, is_winner, payout_amount, created_at`

func scanMiniPool(row pgx.Row) (*models.MiniPool, error) {
	var mp models.MiniPool
	err := row.Scan(
		&mp.ID,
		&mp.EventID,
		&mp.CreatorID,
		&mp.Name,
		&mp.MinStake,
		&mp.Status,
		&mp.CreatedAt,
		&mp.SettledAt,
	)
	if err != nil {
		return nil, err
	}
	return &mp, nil
}

func scanMiniPoolEntry(row pgx.Row) (*models.MiniPoolEntry, error) {
	var entry models.MiniPoolEntry
	err := row.Scan(
		&entry.ID,
		&entry.MiniPoolID,
		&entry.UserID,
		&entry.ChosenOutcome,
		&entry.StakeAmount,
		&entry.IsWinner,
		&entry.PayoutAmount,
		&entry.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &entry, nil
}

// Create inserts a new mini-pool
func (r *MiniPoolRepository) Create(ctx context.Context, miniPool *models.MiniPool) error {
	query := `
		INSERT INTO mini_pools (id, event_id, creator_id, name, min_stake, status)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING created_at
	`

	err := r.q.QueryRow(ctx, query,
		miniPool.ID,
		miniPool.EventID,
		miniPool.CreatorID,
		miniPool.Name,
		miniPool.MinStake,
		miniPool.Status,
	).Scan(&miniPool.CreatedAt)
	if err != nil {
		return wrapWriteError(err, "failed to create mini-pool")
	}
	return nil
}

// GetByID retrieves a mini-pool by ID
func (r *MiniPoolRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.MiniPool, error) {
	query := `SELECT ` + miniPoolColumns + ` FROM mini_pools WHERE id = $1`

	mp, err := scanMiniPool(r.q.QueryRow(ctx, query, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get mini-pool %s: %w", id, err)
	}
	return mp, nil
}

// GetByIDForUpdate retrieves a mini-pool and holds a row lock until the transaction ends
func (r *MiniPoolRepository) GetByIDForUpdate(ctx context.Context, id uuid.UUID) (*models.MiniPool, error) {
	query := `SELECT ` + miniPoolColumns + ` FROM mini_pools WHERE id = $1 FOR UPDATE`

	mp, err := scanMiniPool(r.q.QueryRow(ctx, query, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to lock mini-pool %s: %w", id, err)
	}
	return mp, nil
}

// ListByEvent returns an event's mini-pools oldest first
func (r *MiniPoolRepository) ListByEvent(ctx context.Context, eventID uuid.UUID) ([]*models.MiniPool, error) {
	query := `SELECT ` + miniPoolColumns + ` FROM mini_pools WHERE event_id = $1 ORDER BY created_at, id`

	rows, err := r.q.Query(ctx, query, eventID)
	if err != nil {
		return nil, fmt.Errorf("failed to list mini-pools for event %s: %w", eventID, err)
	}
	defer rows.Close()

	list := []*models.MiniPool{}
	for rows.Next() {
		mp, err := scanMiniPool(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan mini-pool: %w", err)
		}
		list = append(list, mp)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate mini-pools: %w", err)
	}
	return list, nil
}

// Update persists status and settled_at
func (r *MiniPoolRepository) Update(ctx context.Context, miniPool *models.MiniPool) error {
	query := `UPDATE mini_pools SET status = $1, settled_at = $2 WHERE id = $3`

	result, err := r.q.Exec(ctx, query, miniPool.Status, miniPool.SettledAt, miniPool.ID)
	if err != nil {
		return fmt.Errorf("failed to update mini-pool %s: %w", miniPool.ID, err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("%w: mini-pool %s", service.ErrNotFound, miniPool.ID)
	}
	return nil
}

// CreateEntry inserts a new mini-pool entry
func (r *MiniPoolRepository) CreateEntry(ctx context.Context, entry *models.MiniPoolEntry) error {
	query := `
		INSERT INTO mini_pool_entries (id, mini_pool_id, user_id, chosen_outcome, stake_amount)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING created_at
	`

	err := r.q.QueryRow(ctx, query,
		entry.ID,
		entry.MiniPoolID,
		entry.UserID,
		entry.ChosenOutcome,
		entry.StakeAmount,
	).Scan(&entry.CreatedAt)
	if err != nil {
		return wrapWriteError(err, "failed to create mini-pool entry for user %s", entry.UserID)
	}
	return nil
}

// GetEntry returns the user's entry in a mini-pool, or nil
func (r *MiniPoolRepository) GetEntry(ctx context.Context, miniPoolID, userID uuid.UUID) (*models.MiniPoolEntry, error) {
	query := `SELECT ` + miniPoolEntryColumns + ` FROM mini_pool_entries WHERE mini_pool_id = $1 AND user_id = $2`

	entry, err := scanMiniPoolEntry(r.q.QueryRow(ctx, query, miniPoolID, userID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get mini-pool entry: %w", err)
	}
	return entry, nil
}

// ListEntries returns entries ordered by creation time then ID
func (r *MiniPoolRepository) ListEntries(ctx context.Context, miniPoolID uuid.UUID) ([]*models.MiniPoolEntry, error) {
	query := `SELECT ` + miniPoolEntryColumns + ` FROM mini_pool_entries WHERE mini_pool_id = $1 ORDER BY created_at, id`

	rows, err := r.q.Query(ctx, query, miniPoolID)
	if err != nil {
		return nil, fmt.Errorf("failed to list mini-pool entries for %s: %w", miniPoolID, err)
	}
	defer rows.Close()

	entries := []*models.MiniPoolEntry{}
	for rows.Next() {
		entry, err := scanMiniPoolEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan mini-pool entry: %w", err)
		}
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate mini-pool entries: %w", err)
	}
	return entries, nil
}

// UpdateEntrySettlement persists is_winner and payout_amount for each entry
func (r *MiniPoolRepository) UpdateEntrySettlement(ctx context.Context, entries []*models.MiniPoolEntry) error {
	query := `UPDATE mini_pool_entries SET is_winner = $1, payout_amount = $2 WHERE id = $3`

	for _, entry := range entries {
		if _, err := r.q.Exec(ctx, query, entry.IsWinner, entry.PayoutAmount, entry.ID); err != nil {
			return fmt.Errorf("failed to update mini-pool entry %s: %w", entry.ID, err)
		}
	}
	return nil
}
