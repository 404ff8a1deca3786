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

// EventRepository implements the EventRepository interface
type EventRepository struct {
	q queryable
}

// NewEventRepository creates a new event repository
func NewEventRepository(db *database.DB) *EventRepository {
	return &EventRepository{q: db.Pool}
}

// newEventRepositoryWithTx creates a new event repository with a transaction
func newEventRepositoryWithTx(tx queryable) *EventRepository {
	return &EventRepository{q: tx}
}

const eventColumns = `
	id, creator_id, title, description, stake_amount, event_type, outcomes,
	status, max_entries, winning_outcome, locked_at, settled_at, created_at`

func scanEvent(row pgx.Row) (*models.Event, error) {
	var event models.Event
	err := row.Scan(
		&event.ID,
		&event.CreatorID,
		&event.Title,
		&event.Description,
		&event.StakeAmount,
		&event.EventType,
		&event.Outcomes,
		&event.Status,
		&event.MaxEntries,
		&event.WinningOutcome,
		&event.LockedAt,
		&event.SettledAt,
		&event.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &event, nil
}

// Create inserts a new event
func (r *EventRepository) Create(ctx context.Context, event *models.Event) error {
	query := `
		INSERT INTO events (id, creator_id, title, description, stake_amount, event_type, outcomes, status, max_entries)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING created_at
	`

	err := r.q.QueryRow(ctx, query,
		event.ID,
		event.CreatorID,
		event.Title,
		event.Description,
		event.StakeAmount,
		event.EventType,
		event.Outcomes,
		event.Status,
		event.MaxEntries,
	).Scan(&event.CreatedAt)
	if err != nil {
		return wrapWriteError(err, "failed to create event")
	}
	return nil
}

// GetByID retrieves an event by ID
func (r *EventRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Event, error) {
	query := `SELECT ` + eventColumns + ` FROM events WHERE id = $1`

	event, err := scanEvent(r.q.QueryRow(ctx, query, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get event %s: %w", id, err)
	}
	return event, nil
}

// GetByIDForUpdate retrieves an event and holds a row lock until the transaction ends
func (r *EventRepository) GetByIDForUpdate(ctx context.Context, id uuid.UUID) (*models.Event, error) {
	query := `SELECT ` + eventColumns + ` FROM events WHERE id = $1 FOR UPDATE`

	event, err := scanEvent(r.q.QueryRow(ctx, query, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to lock event %s: %w", id, err)
	}
	return event, nil
}

// List returns events newest first, optionally filtered by status
func (r *EventRepository) List(ctx context.Context, status *models.EventStatus, limit int) ([]*models.Event, error) {
	query := `
		SELECT ` + eventColumns + `
		FROM events
		WHERE ($1::text IS NULL OR status = $1)
		ORDER BY created_at DESC, id
		LIMIT $2
	`

	rows, err := r.q.Query(ctx, query, status, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list events: %w", err)
	}
	defer rows.Close()

	list := []*models.Event{}
	for rows.Next() {
		event, err := scanEvent(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan event: %w", err)
		}
		list = append(list, event)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate events: %w", err)
	}
	return list, nil
}

// Update persists status, winning outcome and timestamps
func (r *EventRepository) Update(ctx context.Context, event *models.Event) error {
	query := `
		UPDATE events
		SET status = $1, winning_outcome = $2, locked_at = $3, settled_at = $4
		WHERE id = $5
	`

	result, err := r.q.Exec(ctx, query,
		event.Status,
		event.WinningOutcome,
		event.LockedAt,
		event.SettledAt,
		event.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update event %s: %w", event.ID, err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("%w: event %s", service.ErrNotFound, event.ID)
	}
	return nil
}
