package repository

import (
	"context"
	"errors"
	"fmt"

	"parlayz/database"
	"parlayz/models"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// EntryRepository implements the EntryRepository interface
type EntryRepository struct {
	q queryable
}

// NewEntryRepository creates a new entry repository
func NewEntryRepository(db *database.DB) *EntryRepository {
	return &EntryRepository{q: db.Pool}
}

// newEntryRepositoryWithTx creates a new entry repository with a transaction
func newEntryRepositoryWithTx(tx queryable) *EntryRepository {
	return &EntryRepository{q: tx}
}

const entryColumns = `id, event_id, user_id, chosen_outcome, stake_amount, is_winner, payout_amount, created_at`

func scanEntry(row pgx.Row) (*models.Entry, error) {
	var entry models.Entry
	err := row.Scan(
		&entry.ID,
		&entry.EventID,
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

// Create inserts a new entry
func (r *EntryRepository) Create(ctx context.Context, entry *models.Entry) error {
	query := `
		INSERT INTO entries (id, event_id, user_id, chosen_outcome, stake_amount)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING created_at
	`

	err := r.q.QueryRow(ctx, query,
		entry.ID,
		entry.EventID,
		entry.UserID,
		entry.ChosenOutcome,
		entry.StakeAmount,
	).Scan(&entry.CreatedAt)
	if err != nil {
		return wrapWriteError(err, "failed to create entry for user %s", entry.UserID)
	}
	return nil
}

// GetByEventAndUser returns the user's entry in an event, or nil
func (r *EntryRepository) GetByEventAndUser(ctx context.Context, eventID, userID uuid.UUID) (*models.Entry, error) {
	query := `SELECT ` + entryColumns + ` FROM entries WHERE event_id = $1 AND user_id = $2`

	entry, err := scanEntry(r.q.QueryRow(ctx, query, eventID, userID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get entry: %w", err)
	}
	return entry, nil
}

// CountByEvent returns the number of entries in an event
func (r *EntryRepository) CountByEvent(ctx context.Context, eventID uuid.UUID) (int, error) {
	var count int
	err := r.q.QueryRow(ctx, `SELECT COUNT(*) FROM entries WHERE event_id = $1`, eventID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count entries for event %s: %w", eventID, err)
	}
	return count, nil
}

// ListByEvent returns entries ordered by creation time then ID
func (r *EntryRepository) ListByEvent(ctx context.Context, eventID uuid.UUID) ([]*models.Entry, error) {
	query := `SELECT ` + entryColumns + ` FROM entries WHERE event_id = $1 ORDER BY created_at, id`

	rows, err := r.q.Query(ctx, query, eventID)
	if err != nil {
		return nil, fmt.Errorf("failed to list entries for event %s: %w", eventID, err)
	}
	defer rows.Close()

	entries := []*models.Entry{}
	for rows.Next() {
		entry, err := scanEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan entry: %w", err)
		}
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate entries: %w", err)
	}
	return entries, nil
}

// UpdateSettlement persists is_winner and payout_amount for each entry
func (r *EntryRepository) UpdateSettlement(ctx context.Context, entries []*models.Entry) error {
	query := `UPDATE entries SET is_winner = $1, payout_amount = $2 WHERE id = $3`

	for _, entry := range entries {
		if _, err := r.q.Exec(ctx, query, entry.IsWinner, entry.PayoutAmount, entry.ID); err != nil {
			return fmt.Errorf("failed to update entry %s: %w", entry.ID, err)
		}
	}
	return nil
}
