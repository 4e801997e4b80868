// Package service implements business logic, validation, and orchestration
// between HTTP handlers and the repository layer.
package service

import (
	"context"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"signup-server/internal/capacity"
	"signup-server/internal/model"
	"signup-server/internal/repository"
)

// EventStore is the persistence surface the service needs for events.
type EventStore interface {
	Create(ctx context.Context, req model.CreateEventRequest) (*model.Event, error)
	List(ctx context.Context) ([]model.Event, error)
	GetByID(ctx context.Context, id string) (*model.Event, error)
	Update(ctx context.Context, id string, req model.UpdateEventRequest) (*model.Event, error)
	Delete(ctx context.Context, id string) error
}

// PositionStore is the persistence surface the service needs for positions.
type PositionStore interface {
	Create(ctx context.Context, eventID string, req model.CreatePositionRequest) (*model.Position, error)
	ListByEvent(ctx context.Context, eventID string) ([]model.Position, error)
	Update(ctx context.Context, id string, req model.UpdatePositionRequest) (*model.Position, error)
	Delete(ctx context.Context, id string) error
}

// SignupStore is the persistence surface the service needs for signups.
// Create must execute the whole check-then-insert span under isolation
// equivalent to a serialisable transaction per attempt.
type SignupStore interface {
	Create(ctx context.Context, p repository.CreateSignupParams) (*model.Signup, error)
	GetByEvent(ctx context.Context, eventID, signupID string) (*model.Signup, error)
	Delete(ctx context.Context, id string) error
	ListByEvent(ctx context.Context, eventID string) ([]model.Signup, error)
}

// ValidationError marks caller-fixable input problems. Handlers map it to a
// 400 response; unrecognised errors are treated as internal failures.
type ValidationError string

func (e ValidationError) Error() string { return string(e) }

func validationf(format string, args ...any) error {
	return ValidationError(fmt.Sprintf(format, args...))
}

// Service orchestrates all signup-server business operations.
type Service struct {
	events    EventStore
	positions PositionStore
	signups   SignupStore
}

// New constructs a Service with its dependencies.
func New(events EventStore, positions PositionStore, signups SignupStore) *Service {
	return &Service{events: events, positions: positions, signups: signups}
}

// HashToken returns the hex sha256 digest stored in place of a raw
// cancellation token.
func HashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}

// ─── Public reads ─────────────────────────────────────────────────────────────

// ListEvents returns all events ordered by start time, with occupancy counts.
func (s *Service) ListEvents(ctx context.Context) ([]model.Event, error) {
	return s.events.List(ctx)
}

// GetEvent returns a single event by ID.
func (s *Service) GetEvent(ctx context.Context, id string) (*model.Event, error) {
	if id == "" {
		return nil, validationf("event id is required")
	}
	return s.events.GetByID(ctx, id)
}

// ─── Signup / cancellation ────────────────────────────────────────────────────

// Signup validates the request, delegates the capacity-checked insert to the
// store, and returns the signup id with the one-time cancellation token.
// Only the token's hash is persisted.
func (s *Service) Signup(ctx context.Context, eventID string, req model.SignupRequest) (*model.SignupResult, error) {
	if eventID == "" {
		return nil, validationf("event id is required")
	}
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		return nil, validationf("name is required")
	}
	email := strings.TrimSpace(strings.ToLower(req.Email))
	if email != "" && !isValidEmail(email) {
		return nil, validationf("email is not a valid email address")
	}
	phone := strings.TrimSpace(req.Phone)

	token := uuid.New().String()
	created, err := s.signups.Create(ctx, repository.CreateSignupParams{
		EventID:    eventID,
		PositionID: strings.TrimSpace(req.PositionID),
		Name:       req.Name,
		Email:      email,
		Phone:      phone,
		TokenHash:  HashToken(token),
	})
	if err != nil {
		// Surface domain errors directly so handlers can set correct HTTP status.
		if errors.Is(err, repository.ErrNotFound) ||
			errors.Is(err, repository.ErrDuplicateEmail) ||
			errors.Is(err, repository.ErrDuplicatePhone) ||
			errors.Is(err, capacity.ErrEventFull) ||
			errors.Is(err, capacity.ErrPositionFull) ||
			errors.Is(err, capacity.ErrPositionRequired) {
			return nil, err
		}
		return nil, fmt.Errorf("sign up for event: %w", err)
	}
	return &model.SignupResult{SignupID: created.ID, CancelToken: token}, nil
}

// Cancel deletes a signup when the supplied token hashes to the stored
// digest. A second cancel with a spent token reports ErrNotFound, never a
// silent success.
func (s *Service) Cancel(ctx context.Context, eventID, signupID, token string) error {
	if token == "" {
		return validationf("token is required")
	}
	signup, err := s.signups.GetByEvent(ctx, eventID, signupID)
	if err != nil {
		return err
	}
	supplied := HashToken(token)
	if subtle.ConstantTimeCompare([]byte(supplied), []byte(signup.CancelTokenHash)) != 1 {
		return repository.ErrInvalidToken
	}
	return s.signups.Delete(ctx, signup.ID)
}

// ─── Admin: events ────────────────────────────────────────────────────────────

const maxCapacity = 100_000

// CreateEvent validates the request and delegates to the store. A zero or
// omitted capacity means unlimited.
func (s *Service) CreateEvent(ctx context.Context, req model.CreateEventRequest) (*model.Event, error) {
	req.Title = strings.TrimSpace(req.Title)
	if req.Title == "" {
		return nil, validationf("title is required")
	}
	if req.StartsAt.IsZero() {
		return nil, validationf("starts_at is required")
	}
	if req.Capacity != nil {
		if *req.Capacity < 0 {
			return nil, validationf("capacity cannot be negative")
		}
		if *req.Capacity > maxCapacity {
			return nil, validationf("capacity cannot exceed %d", maxCapacity)
		}
		if *req.Capacity == 0 {
			req.Capacity = nil
		}
	}
	return s.events.Create(ctx, req)
}

// UpdateEvent applies a merge patch: omitted fields keep their stored values.
func (s *Service) UpdateEvent(ctx context.Context, id string, req model.UpdateEventRequest) (*model.Event, error) {
	if req.Title != nil {
		trimmed := strings.TrimSpace(*req.Title)
		if trimmed == "" {
			return nil, validationf("title cannot be empty")
		}
		req.Title = &trimmed
	}
	if req.Capacity != nil && *req.Capacity > maxCapacity {
		return nil, validationf("capacity cannot exceed %d", maxCapacity)
	}
	return s.events.Update(ctx, id, req)
}

// DeleteEvent removes an event along with its positions and signups.
func (s *Service) DeleteEvent(ctx context.Context, id string) error {
	return s.events.Delete(ctx, id)
}

// ─── Admin: positions ─────────────────────────────────────────────────────────

// CreatePosition adds a capacity-limited position to an event.
func (s *Service) CreatePosition(ctx context.Context, eventID string, req model.CreatePositionRequest) (*model.Position, error) {
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		return nil, validationf("position name is required")
	}
	if req.Capacity <= 0 {
		return nil, validationf("position capacity must be a positive integer")
	}
	if req.Capacity > maxCapacity {
		return nil, validationf("position capacity cannot exceed %d", maxCapacity)
	}
	return s.positions.Create(ctx, eventID, req)
}

// ListPositions returns the event's positions with live counts.
func (s *Service) ListPositions(ctx context.Context, eventID string) ([]model.Position, error) {
	if _, err := s.events.GetByID(ctx, eventID); err != nil {
		return nil, err
	}
	return s.positions.ListByEvent(ctx, eventID)
}

// UpdatePosition applies a merge patch to a position.
func (s *Service) UpdatePosition(ctx context.Context, id string, req model.UpdatePositionRequest) (*model.Position, error) {
	if req.Name != nil {
		trimmed := strings.TrimSpace(*req.Name)
		if trimmed == "" {
			return nil, validationf("position name cannot be empty")
		}
		req.Name = &trimmed
	}
	if req.Capacity != nil && *req.Capacity <= 0 {
		return nil, validationf("position capacity must be a positive integer")
	}
	return s.positions.Update(ctx, id, req)
}

// DeletePosition removes a position; its signups survive unassigned.
func (s *Service) DeletePosition(ctx context.Context, id string) error {
	return s.positions.Delete(ctx, id)
}

// ─── Admin: roster ────────────────────────────────────────────────────────────

// ListSignups returns the admin roster for an event, contact fields included.
func (s *Service) ListSignups(ctx context.Context, eventID string) ([]model.Signup, error) {
	if _, err := s.events.GetByID(ctx, eventID); err != nil {
		return nil, err
	}
	return s.signups.ListByEvent(ctx, eventID)
}

// isValidEmail does a basic structural check (no external deps). It requires
// a dotted domain, so bare hosts like "a@b" are rejected even though RFC 5321
// allows them.
func isValidEmail(email string) bool {
	parts := strings.Split(email, "@")
	if len(parts) != 2 {
		return false
	}
	return len(parts[0]) > 0 && strings.Contains(parts[1], ".")
}
