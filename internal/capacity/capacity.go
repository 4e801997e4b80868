// Package capacity decides whether an event can admit one more signup.
//
// The rules: an event that owns positions is governed per position and a
// valid position must be named; an event without positions is governed by
// its own capacity, where nil means unlimited.
package capacity

import (
	"errors"

	"signup-server/internal/model"
)

// ErrEventFull is returned when an event has no remaining capacity.
var ErrEventFull = errors.New("event is full")

// ErrPositionFull is returned when the requested position has no remaining slots.
var ErrPositionFull = errors.New("that position is full")

// ErrPositionRequired is returned when the request names no position, or a
// position that does not belong to the event.
var ErrPositionRequired = errors.New("a valid position is required")

// Evaluate returns nil when one more signup may be admitted, or the
// admission error otherwise. positions must be the event's own positions
// with live counts; eventCount is the event's live signup total.
func Evaluate(eventCapacity *int, eventCount int, positions []model.Position, positionID string) error {
	if len(positions) > 0 {
		for i := range positions {
			if positions[i].ID != positionID {
				continue
			}
			if positions[i].IsFull() {
				return ErrPositionFull
			}
			return nil
		}
		return ErrPositionRequired
	}

	// No positions: a stray position id is rejected rather than stored.
	if positionID != "" {
		return ErrPositionRequired
	}
	if eventCapacity != nil && eventCount >= *eventCapacity {
		return ErrEventFull
	}
	return nil
}
