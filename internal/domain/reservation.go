package domain

import "time"

type ReservationStatus string

const (
	StatusPendingAdminValidation ReservationStatus = "pending_admin_validation"
	StatusConfirmed              ReservationStatus = "confirmed"
	StatusCancelledByClient      ReservationStatus = "cancelled_by_client"
	StatusCompleted              ReservationStatus = "completed"
)

var transitions = map[ReservationStatus][]ReservationStatus{
	StatusPendingAdminValidation: {StatusConfirmed, StatusCancelledByClient},
	StatusConfirmed:              {StatusCancelledByClient, StatusCompleted},
	StatusCancelledByClient:      {},
	StatusCompleted:              {},
}

func (s ReservationStatus) IsValid() bool {
	_, ok := transitions[s]
	return ok
}

func (s ReservationStatus) CanTransitionTo(target ReservationStatus) bool {
	for _, t := range transitions[s] {
		if t == target {
			return true
		}
	}
	return false
}

func (s ReservationStatus) IsTerminal() bool {
	return len(transitions[s]) == 0
}

func (s ReservationStatus) String() string { return string(s) }

type RoomLine struct {
	RoomTypeID int64 `json:"roomTypeId"`
	Quantity   int   `json:"quantity"`
}

type Reservation struct {
	ID              int64
	ReferenceNumber string
	UserID          int64
	HotelID         int64
	Rooms           []RoomLine
	CheckIn         time.Time
	CheckOut        time.Time
	SpecialRequests *string
	BookingSource   string
	Status          ReservationStatus
	TotalAmount     float64
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// Nights counts whole days between check-in and check-out, ignoring time of day.
func (r Reservation) Nights() int {
	return NightsBetween(r.CheckIn, r.CheckOut)
}

func NightsBetween(checkIn, checkOut time.Time) int {
	in := DateOnly(checkIn)
	out := DateOnly(checkOut)
	return int(out.Sub(in).Hours() / 24)
}

// DateOnly truncates t to midnight UTC of its calendar date.
func DateOnly(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// CreateReservationRequest is a candidate booking before validation.
type CreateReservationRequest struct {
	UserID          int64
	HotelID         int64
	Rooms           []RoomLine
	CheckIn         time.Time
	CheckOut        time.Time
	SpecialRequests *string
	BookingSource   string
	IdempotencyKey  string // optional
}

type CreateResult struct {
	Reservation Reservation
	Message     string
	Replayed    bool
}

type TransitionResult struct {
	Reservation Reservation
	Message     string
}
