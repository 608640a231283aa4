package domain

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidRequest  = errors.New("invalid request")
	ErrInvalidState    = errors.New("invalid state")
	ErrNotFound        = errors.New("not found")
	ErrForbidden       = errors.New("forbidden")
	ErrUnavailable     = errors.New("unavailable")
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrRequestInProgress is returned when the same idempotency key is still being processed.
	ErrRequestInProgress = errors.New("request with this idempotency key is in progress")
	// ErrIdempotencyKeyReused is returned when a key comes back with a different booking.
	ErrIdempotencyKeyReused = errors.New("idempotency key was already used for a different booking")

	// ErrDuplicateReference is reported by stores when a reference number is taken.
	ErrDuplicateReference = errors.New("duplicate reference number")
)

// RequestError carries a user-facing validation message. It matches ErrInvalidRequest.
type RequestError struct{ Reason string }

func (e *RequestError) Error() string        { return e.Reason }
func (e *RequestError) Is(target error) bool { return target == ErrInvalidRequest }

var (
	ErrMissingFields    = &RequestError{Reason: "missing required fields"}
	ErrStartInPast      = &RequestError{Reason: "start date cannot be in the past"}
	ErrEndBeforeStart   = &RequestError{Reason: "end date must be after start date"}
	ErrInvalidQuantity  = &RequestError{Reason: "invalid room quantity"}
	ErrMissingRoomPrice = &RequestError{Reason: "room type has no price for the active season"}
)

// StateError reports an illegal status transition and names the current status.
type StateError struct {
	Action  string
	Current ReservationStatus
}

func (e *StateError) Error() string {
	return fmt.Sprintf("reservation cannot be %s in status %s", e.Action, e.Current)
}

func (e *StateError) Is(target error) bool { return target == ErrInvalidState }
