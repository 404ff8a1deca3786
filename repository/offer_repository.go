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

// OfferRepository implements the OfferRepository interface
type OfferRepository struct {
	q queryable
}

// NewOfferRepository creates a new P2P offer repository
func NewOfferRepository(db *database.DB) *OfferRepository {
	return &OfferRepository{q: db.Pool}
}

// newOfferRepositoryWithTx creates a new P2P offer repository with a transaction
func newOfferRepositoryWithTx(tx queryable) *OfferRepository {
	return &OfferRepository{q: tx}
}

const offerColumns = `
	id, event_id, creator_id, creator_outcome, stake_amount, min_match_amount, status,
	taker_id, taker_outcome, taker_stake, winner_id, matched_at, settled_at, created_at`

func scanOffer(row pgx.Row) (*models.P2POffer, error) {
	var offer models.P2POffer
	err := row.Scan(
		&offer.ID,
		&offer.EventID,
		&offer.CreatorID,
		&offer.CreatorOutcome,
		&offer.StakeAmount,
		&offer.MinMatchAmount,
		&offer.Status,
		&offer.TakerID,
		&offer.TakerOutcome,
		&offer.TakerStake,
		&offer.WinnerID,
		&offer.MatchedAt,
		&offer.SettledAt,
		&offer.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &offer, nil
}

// Create inserts a new offer
func (r *OfferRepository) Create(ctx context.Context, offer *models.P2POffer) error {
	query := `
		INSERT INTO p2p_offers (id, event_id, creator_id, creator_outcome, stake_amount, min_match_amount, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING created_at
	`

	err := r.q.QueryRow(ctx, query,
		offer.ID,
		offer.EventID,
		offer.CreatorID,
		offer.CreatorOutcome,
		offer.StakeAmount,
		offer.MinMatchAmount,
		offer.Status,
	).Scan(&offer.CreatedAt)
	if err != nil {
		return wrapWriteError(err, "failed to create offer")
	}
	return nil
}

// GetByID retrieves an offer by ID
func (r *OfferRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.P2POffer, error) {
	query := `SELECT ` + offerColumns + ` FROM p2p_offers WHERE id = $1`

	offer, err := scanOffer(r.q.QueryRow(ctx, query, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get offer %s: %w", id, err)
	}
	return offer, nil
}

// GetByIDForUpdate retrieves an offer and holds a row lock until the transaction ends
func (r *OfferRepository) GetByIDForUpdate(ctx context.Context, id uuid.UUID) (*models.P2POffer, error) {
	query := `SELECT ` + offerColumns + ` FROM p2p_offers WHERE id = $1 FOR UPDATE`

	offer, err := scanOffer(r.q.QueryRow(ctx, query, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to lock offer %s: %w", id, err)
	}
	return offer, nil
}

// ListByEvent returns offers oldest first, optionally filtered by status
func (r *OfferRepository) ListByEvent(ctx context.Context, eventID uuid.UUID, status *models.OfferStatus) ([]*models.P2POffer, error) {
	query := `
		SELECT ` + offerColumns + `
		FROM p2p_offers
		WHERE event_id = $1 AND ($2::text IS NULL OR status = $2)
		ORDER BY created_at, id
	`

	rows, err := r.q.Query(ctx, query, eventID, status)
	if err != nil {
		return nil, fmt.Errorf("failed to list offers for event %s: %w", eventID, err)
	}
	defer rows.Close()

	offers := []*models.P2POffer{}
	for rows.Next() {
		offer, err := scanOffer(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan offer: %w", err)
		}
		offers = append(offers, offer)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate offers: %w", err)
	}
	return offers, nil
}

// Update persists the offer's mutable state
func (r *OfferRepository) Update(ctx context.Context, offer *models.P2POffer) error {
	query := `
		UPDATE p2p_offers
		SET status = $1, taker_id = $2, taker_outcome = $3, taker_stake = $4,
		    winner_id = $5, matched_at = $6, settled_at = $7
		WHERE id = $8
	`

	result, err := r.q.Exec(ctx, query,
		offer.Status,
		offer.TakerID,
		offer.TakerOutcome,
		offer.TakerStake,
		offer.WinnerID,
		offer.MatchedAt,
		offer.SettledAt,
		offer.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update offer %s: %w", offer.ID, err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("%w: offer %s", service.ErrNotFound, offer.ID)
	}
	return nil
}
