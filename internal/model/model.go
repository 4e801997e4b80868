// Package model defines the core domain types for the event signup server.
package model

import "time"

// Event is a scheduled occurrence that accepts signups. A nil Capacity means
// unlimited. When an event owns one or more positions its own capacity is
// ignored and admission is governed per position.
type Event struct {
	ID          string     `json:"id"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Location    string     `json:"location"`
	StartsAt    time.Time  `json:"starts_at"`
	EndsAt      *time.Time `json:"ends_at,omitempty"`
	Capacity    *int       `json:"capacity"`
	CreatedAt   time.Time  `json:"created_at"`

	// Count is the live number of signups for the event.
	Count     int        `json:"count"`
	Positions []Position `json:"positions"`
}

// Position is a named, independently capacity-limited slot within an event.
type Position struct {
	ID        string    `json:"id"`
	EventID   string    `json:"event_id"`
	Name      string    `json:"name"`
	Capacity  int       `json:"capacity"`
	CreatedAt time.Time `json:"created_at"`

	// Count is the live number of signups holding this position.
	Count int `json:"count"`
}

// IsFull returns true when no slots remain on the position.
func (p *Position) IsFull() bool {
	return p.Count >= p.Capacity
}

// Signup is a recorded attendance against an event and optionally a position.
// Only the sha256 digest of the cancellation token is ever stored; the
// plaintext exists once, in the response to the signup call.
type Signup struct {
	ID         string  `json:"id"`
	EventID    string  `json:"event_id"`
	PositionID *string `json:"position_id,omitempty"`
	Name       string  `json:"name"`
	Email      *string `json:"email,omitempty"`
	Phone      *string `json:"phone,omitempty"`

	// PositionName is populated on the admin roster view only.
	PositionName *string `json:"position,omitempty"`

	CancelTokenHash string    `json:"-"`
	CreatedAt       time.Time `json:"created_at"`
}

// CreateEventRequest is the payload for creating a new event.
type CreateEventRequest struct {
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Location    string     `json:"location"`
	StartsAt    time.Time  `json:"starts_at"`
	EndsAt      *time.Time `json:"ends_at"`
	Capacity    *int       `json:"capacity"`
}

// UpdateEventRequest is a merge-patch payload: nil fields keep the stored
// value. A capacity of zero clears the ceiling back to unlimited.
type UpdateEventRequest struct {
	Title       *string    `json:"title"`
	Description *string    `json:"description"`
	Location    *string    `json:"location"`
	StartsAt    *time.Time `json:"starts_at"`
	EndsAt      *time.Time `json:"ends_at"`
	Capacity    *int       `json:"capacity"`
}

// CreatePositionRequest is the payload for adding a position to an event.
type CreatePositionRequest struct {
	Name     string `json:"name"`
	Capacity int    `json:"capacity"`
}

// UpdatePositionRequest is a merge-patch payload for a position.
type UpdatePositionRequest struct {
	Name     *string `json:"name"`
	Capacity *int    `json:"capacity"`
}

// SignupRequest is the public payload for signing up to an event.
type SignupRequest struct {
	Name       string `json:"name"`
	Email      string `json:"email"`
	Phone      string `json:"phone"`
	PositionID string `json:"position_id"`
}

// SignupResult carries the one-time cancellation token back to the caller.
type SignupResult struct {
	SignupID    string `json:"signup_id"`
	CancelToken string `json:"cancel_token"`
}

// LoginRequest is the admin login payload.
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// ErrorResponse is a standard JSON error envelope.
type ErrorResponse struct {
	Error string `json:"error"`
}
