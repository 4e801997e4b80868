package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"signup-server/internal/capacity"
	"signup-server/internal/model"
)

// SignupRepository handles persistence for signups.
type SignupRepository struct {
	db DB
}

// NewSignupRepository constructs a SignupRepository.
func NewSignupRepository(db *pgxpool.Pool) *SignupRepository {
	return &SignupRepository{db: db}
}

// CreateSignupParams carries a validated signup into the store. Empty
// optional fields are stored as NULL. TokenHash is the sha256 hex digest of
// the cancellation token; the plaintext never reaches this layer.
type CreateSignupParams struct {
	EventID    string
	PositionID string
	Name       string
	Email      string
	Phone      string
	TokenHash  string
}

// Create performs a concurrency-safe signup inside a transaction.
//
// Two concurrent attempts at the last open slot must not both succeed, so
// the transaction first takes a row-level lock on the event with
// SELECT ... FOR UPDATE. Every other signup attempt for the same event
// blocks on that lock until this transaction commits or rolls back, which
// serialises the whole check-then-insert span: occupancy counts, the
// capacity decision, the duplicate-contact checks, and the insert all
// observe a consistent snapshot.
func (r *SignupRepository) Create(ctx context.Context, p CreateSignupParams) (*model.Signup, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	// Rollback is a no-op once the transaction has committed. Every return
	// path must release the event row lock below, so the rollback is
	// unconditional.
	defer func() { _ = tx.Rollback(ctx) }()

	// Lock the event row for the duration of the attempt.
	var eventCapacity *int
	err = tx.QueryRow(ctx,
		`SELECT capacity FROM events WHERE id = $1 FOR UPDATE`, p.EventID,
	).Scan(&eventCapacity)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("lock event row: %w", err)
	}

	positions, err := positionsForEvent(ctx, tx, p.EventID)
	if err != nil {
		return nil, err
	}
	var eventCount int
	err = tx.QueryRow(ctx,
		`SELECT COUNT(*) FROM signups WHERE event_id = $1`, p.EventID,
	).Scan(&eventCount)
	if err != nil {
		return nil, fmt.Errorf("count signups: %w", err)
	}

	if err = capacity.Evaluate(eventCapacity, eventCount, positions, p.PositionID); err != nil {
		return nil, err
	}

	// Contact uniqueness is per event and checked here, under the same
	// lock, rather than by a storage constraint.
	if p.Email != "" {
		var exists bool
		err = tx.QueryRow(ctx,
			`SELECT EXISTS (SELECT 1 FROM signups WHERE event_id = $1 AND email = $2)`,
			p.EventID, p.Email,
		).Scan(&exists)
		if err != nil {
			return nil, fmt.Errorf("check duplicate email: %w", err)
		}
		if exists {
			return nil, ErrDuplicateEmail
		}
	}
	if p.Phone != "" {
		var exists bool
		err = tx.QueryRow(ctx,
			`SELECT EXISTS (SELECT 1 FROM signups WHERE event_id = $1 AND phone = $2)`,
			p.EventID, p.Phone,
		).Scan(&exists)
		if err != nil {
			return nil, fmt.Errorf("check duplicate phone: %w", err)
		}
		if exists {
			return nil, ErrDuplicatePhone
		}
	}

	s := &model.Signup{
		ID:              uuid.New().String(),
		EventID:         p.EventID,
		Name:            p.Name,
		CancelTokenHash: p.TokenHash,
		CreatedAt:       time.Now().UTC(),
	}
	if p.PositionID != "" {
		s.PositionID = &p.PositionID
	}
	if p.Email != "" {
		s.Email = &p.Email
	}
	if p.Phone != "" {
		s.Phone = &p.Phone
	}

	_, err = tx.Exec(ctx,
		`INSERT INTO signups (id, event_id, position_id, name, email, phone, cancel_token_hash, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		s.ID, s.EventID, s.PositionID, s.Name, s.Email, s.Phone, s.CancelTokenHash, s.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("insert signup: %w", err)
	}

	if err = tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit transaction: %w", err)
	}
	return s, nil
}

// GetByEvent returns one signup scoped to its event, or ErrNotFound.
func (r *SignupRepository) GetByEvent(ctx context.Context, eventID, signupID string) (*model.Signup, error) {
	var s model.Signup
	err := r.db.QueryRow(ctx,
		`SELECT id, event_id, position_id, name, email, phone, cancel_token_hash, created_at
		 FROM signups WHERE id = $1 AND event_id = $2`,
		signupID, eventID,
	).Scan(&s.ID, &s.EventID, &s.PositionID, &s.Name, &s.Email, &s.Phone, &s.CancelTokenHash, &s.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get signup: %w", err)
	}
	return &s, nil
}

// Delete removes a signup row. A repeat delete reports ErrNotFound.
func (r *SignupRepository) Delete(ctx context.Context, id string) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM signups WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete signup: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// ListByEvent returns the admin roster for an event, with the position name
// joined in, ordered by signup time.
func (r *SignupRepository) ListByEvent(ctx context.Context, eventID string) ([]model.Signup, error) {
	rows, err := r.db.Query(ctx,
		`SELECT s.id, s.event_id, s.position_id, p.name, s.name, s.email, s.phone, s.created_at
		 FROM signups s
		 LEFT JOIN positions p ON p.id = s.position_id
		 WHERE s.event_id = $1
		 ORDER BY s.created_at ASC`,
		eventID,
	)
	if err != nil {
		return nil, fmt.Errorf("list signups: %w", err)
	}
	defer rows.Close()

	var signups []model.Signup
	for rows.Next() {
		var s model.Signup
		if err := rows.Scan(&s.ID, &s.EventID, &s.PositionID, &s.PositionName,
			&s.Name, &s.Email, &s.Phone, &s.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan signup: %w", err)
		}
		signups = append(signups, s)
	}
	return signups, rows.Err()
}
