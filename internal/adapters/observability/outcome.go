package observability

import (
	"errors"

	"hotel_booking/internal/domain"
)

// Outcome maps an error to a low-cardinality metric label.
func Outcome(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, domain.ErrInvalidRequest), errors.Is(err, domain.ErrInvalidArgument):
		return "invalid"
	case errors.Is(err, domain.ErrNotFound):
		return "not_found"
	case errors.Is(err, domain.ErrForbidden):
		return "forbidden"
	case errors.Is(err, domain.ErrInvalidState), errors.Is(err, domain.ErrRequestInProgress),
		errors.Is(err, domain.ErrIdempotencyKeyReused):
		return "conflict"
	default:
		return "error"
	}
}
