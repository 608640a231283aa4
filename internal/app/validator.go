package app

import (
	"time"

	"hotel_booking/internal/domain"
)

// ValidateReservation checks a candidate booking. Rules run in order and the
// first failure is returned; today is compared by calendar date only.
func ValidateReservation(req domain.CreateReservationRequest, today time.Time) error {
	if req.HotelID == 0 || len(req.Rooms) == 0 || req.CheckIn.IsZero() || req.CheckOut.IsZero() {
		return domain.ErrMissingFields
	}
	for _, line := range req.Rooms {
		if line.RoomTypeID == 0 {
			return domain.ErrMissingFields
		}
	}

	checkIn := domain.DateOnly(req.CheckIn)
	if checkIn.Before(domain.DateOnly(today)) {
		return domain.ErrStartInPast
	}

	if !domain.DateOnly(req.CheckOut).After(checkIn) {
		return domain.ErrEndBeforeStart
	}

	for _, line := range req.Rooms {
		if line.Quantity <= 0 {
			return domain.ErrInvalidQuantity
		}
	}
	return nil
}
