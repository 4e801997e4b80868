// Package repository implements all database queries for the signup server.
// It uses pgx directly (no ORM) for transparency and performance.
//
// The concurrency-sensitive path is signup creation: see SignupRepository.Create,
// which holds a row-level lock on the event across the capacity check and the
// insert so the last open slot cannot be handed out twice.
package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// ErrNotFound is returned when a requested resource does not exist.
var ErrNotFound = errors.New("not found")

// ErrDuplicateEmail is returned when the same email signs up twice for one event.
var ErrDuplicateEmail = errors.New("this email is already signed up for this event")

// ErrDuplicatePhone is returned when the same phone signs up twice for one event.
var ErrDuplicatePhone = errors.New("this phone number is already signed up for this event")

// ErrInvalidToken is returned when a cancellation token does not match the
// stored hash.
var ErrInvalidToken = errors.New("invalid cancellation token")

// querier is satisfied by both *pgxpool.Pool and pgx.Tx, so the shared query
// helpers work inside and outside transactions.
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// DB is the pool surface the repositories hold. *pgxpool.Pool satisfies it;
// tests substitute a scripted implementation to drive transaction behaviour.
type DB interface {
	querier
	Begin(ctx context.Context) (pgx.Tx, error)
}
