package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"signup-server/internal/model"
)

// PositionRepository handles persistence for positions.
type PositionRepository struct {
	db DB
}

// NewPositionRepository constructs a PositionRepository.
func NewPositionRepository(db *pgxpool.Pool) *PositionRepository {
	return &PositionRepository{db: db}
}

// positionsForEvent returns an event's positions with live signup counts,
// ordered by creation time. Works on the pool or inside a transaction.
func positionsForEvent(ctx context.Context, q querier, eventID string) ([]model.Position, error) {
	rows, err := q.Query(ctx,
		`SELECT p.id, p.event_id, p.name, p.capacity, p.created_at,
			(SELECT COUNT(*) FROM signups s WHERE s.position_id = p.id) AS count
		 FROM positions p WHERE p.event_id = $1
		 ORDER BY p.created_at ASC, p.id ASC`,
		eventID,
	)
	if err != nil {
		return nil, fmt.Errorf("list positions: %w", err)
	}
	defer rows.Close()

	positions := []model.Position{}
	for rows.Next() {
		var p model.Position
		if err := rows.Scan(&p.ID, &p.EventID, &p.Name, &p.Capacity, &p.CreatedAt, &p.Count); err != nil {
			return nil, fmt.Errorf("scan position: %w", err)
		}
		positions = append(positions, p)
	}
	return positions, rows.Err()
}

// Create inserts a new position under an event, or ErrNotFound when the
// event does not exist.
func (r *PositionRepository) Create(ctx context.Context, eventID string, req model.CreatePositionRequest) (*model.Position, error) {
	var exists bool
	err := r.db.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM events WHERE id = $1)`, eventID,
	).Scan(&exists)
	if err != nil {
		return nil, fmt.Errorf("check event: %w", err)
	}
	if !exists {
		return nil, ErrNotFound
	}

	pos := &model.Position{
		ID:        uuid.New().String(),
		EventID:   eventID,
		Name:      req.Name,
		Capacity:  req.Capacity,
		CreatedAt: time.Now().UTC(),
	}
	_, err = r.db.Exec(ctx,
		`INSERT INTO positions (id, event_id, name, capacity, created_at)
		 VALUES ($1, $2, $3, $4, $5)`,
		pos.ID, pos.EventID, pos.Name, pos.Capacity, pos.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("insert position: %w", err)
	}
	return pos, nil
}

// ListByEvent returns the event's positions with live counts.
func (r *PositionRepository) ListByEvent(ctx context.Context, eventID string) ([]model.Position, error) {
	return positionsForEvent(ctx, r.db, eventID)
}

// Update applies a merge patch to a position: nil fields keep stored values.
func (r *PositionRepository) Update(ctx context.Context, id string, req model.UpdatePositionRequest) (*model.Position, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	// No-op after commit; releases the row lock on every error path.
	defer func() { _ = tx.Rollback(ctx) }()

	var p model.Position
	err = tx.QueryRow(ctx,
		`SELECT id, event_id, name, capacity, created_at
		 FROM positions WHERE id = $1 FOR UPDATE`, id,
	).Scan(&p.ID, &p.EventID, &p.Name, &p.Capacity, &p.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("lock position row: %w", err)
	}

	if req.Name != nil {
		p.Name = *req.Name
	}
	if req.Capacity != nil {
		p.Capacity = *req.Capacity
	}

	_, err = tx.Exec(ctx,
		`UPDATE positions SET name=$1, capacity=$2 WHERE id=$3`,
		p.Name, p.Capacity, p.ID,
	)
	if err != nil {
		return nil, fmt.Errorf("update position: %w", err)
	}
	if err = tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit transaction: %w", err)
	}

	err = r.db.QueryRow(ctx,
		`SELECT COUNT(*) FROM signups WHERE position_id = $1`, p.ID,
	).Scan(&p.Count)
	if err != nil {
		return nil, fmt.Errorf("count position signups: %w", err)
	}
	return &p, nil
}

// Delete removes a position. Its signups survive: the schema sets their
// position reference to NULL, and they are never re-linked afterwards.
func (r *PositionRepository) Delete(ctx context.Context, id string) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM positions WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete position: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
