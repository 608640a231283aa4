// Package booking sequences the user-facing reservation workflow: pick a
// hotel, fill the booking form, submit it and manage past reservations.
// It holds presentation state only. Pricing and persistence happen behind the
// Catalog and Reservations interfaces.
package booking

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	"hotel_booking/internal/app"
	"hotel_booking/internal/domain"
)

type Catalog interface {
	ListHotels(ctx context.Context, city string) ([]domain.HotelSummary, error)
	GetHotel(ctx context.Context, id int64) (domain.HotelDetail, error)
}

type Reservations interface {
	CreateReservation(ctx context.Context, req domain.CreateReservationRequest) (domain.CreateResult, error)
	ListReservations(ctx context.Context) ([]domain.Reservation, error)
	CancelReservation(ctx context.Context, id int64) (domain.TransitionResult, error)
}

var ErrNoHotelSelected = errors.New("no hotel selected")

// Form is the booking form for the selected hotel.
type Form struct {
	RoomTypeID      int64
	Quantity        int
	CheckIn         time.Time
	CheckOut        time.Time
	SpecialRequests string

	// submissionKey stays the same until the form is reset or its booking
	// changes, so a manual resubmission of the same form does not book twice.
	submissionKey string
	submitted     string
}

type Confirmation struct {
	ReferenceNumber string
	TotalAmount     float64
	Message         string
}

// FieldError is a local validation failure tied to one form field.
// Error returns the validator message unchanged.
type FieldError struct {
	Field string
	Err   error
}

func (e *FieldError) Error() string { return e.Err.Error() }
func (e *FieldError) Unwrap() error { return e.Err }

type Flow struct {
	catalog      Catalog
	reservations Reservations
	clock        domain.Clock
	source       string

	Hotels       []domain.HotelSummary
	Selected     *domain.HotelDetail
	Form         Form
	Confirmation *Confirmation
	Reservations []domain.Reservation
	// LastError is the text of the most recent failure, shown to the user as is.
	LastError string
}

// NewFlow builds a flow; source tags every reservation it submits.
func NewFlow(c Catalog, r Reservations, clock domain.Clock, source string) *Flow {
	if source == "" {
		source = "web"
	}
	f := &Flow{catalog: c, reservations: r, clock: clock, source: source}
	f.ResetForm()
	return f
}

func (f *Flow) LoadHotels(ctx context.Context, city string) error {
	hs, err := f.catalog.ListHotels(ctx, strings.TrimSpace(city))
	if err != nil {
		return f.fail(err)
	}
	f.Hotels = hs
	f.LastError = ""
	return nil
}

// SelectHotel loads the hotel's room types with their current price and
// starts a fresh form preselecting the first bookable room type.
func (f *Flow) SelectHotel(ctx context.Context, id int64) error {
	h, err := f.catalog.GetHotel(ctx, id)
	if err != nil {
		return f.fail(err)
	}
	f.Selected = &h
	f.ResetForm()
	for _, rt := range h.RoomTypes {
		if rt.CurrentPrice != nil {
			f.Form.RoomTypeID = rt.ID
			break
		}
	}
	f.LastError = ""
	return nil
}

// RoomTypes lists the selected hotel's room types, nil when none is selected.
func (f *Flow) RoomTypes() []domain.RoomTypeView {
	if f.Selected == nil {
		return nil
	}
	return f.Selected.RoomTypes
}

func (f *Flow) ResetForm() {
	f.Form = Form{Quantity: 1, submissionKey: uuid.NewString()}
}

// Submit validates the form locally and, when it passes, creates the
// reservation. A failed submission keeps the form as it is and is never retried.
func (f *Flow) Submit(ctx context.Context) (Confirmation, error) {
	if f.Selected == nil {
		return Confirmation{}, f.fail(&FieldError{Field: "hotelId", Err: ErrNoHotelSelected})
	}
	req := f.request()
	if err := app.ValidateReservation(req, f.clock.Now()); err != nil {
		return Confirmation{}, f.fail(&FieldError{Field: fieldOf(req, err), Err: err})
	}

	if fp := app.Fingerprint(req); fp != f.Form.submitted {
		if f.Form.submitted != "" {
			f.Form.submissionKey = uuid.NewString()
			req.IdempotencyKey = f.Form.submissionKey
		}
		f.Form.submitted = fp
	}

	res, err := f.reservations.CreateReservation(ctx, req)
	if err != nil {
		return Confirmation{}, f.fail(err)
	}
	c := Confirmation{
		ReferenceNumber: res.Reservation.ReferenceNumber,
		TotalAmount:     res.Reservation.TotalAmount,
		Message:         res.Message,
	}
	f.Confirmation = &c
	if f.Reservations != nil && !res.Replayed {
		f.Reservations = append([]domain.Reservation{res.Reservation}, f.Reservations...)
	}
	f.LastError = ""
	f.ResetForm()
	return c, nil
}

func (f *Flow) request() domain.CreateReservationRequest {
	req := domain.CreateReservationRequest{
		HotelID:        f.Selected.ID,
		CheckIn:        f.Form.CheckIn,
		CheckOut:       f.Form.CheckOut,
		BookingSource:  f.source,
		IdempotencyKey: f.Form.submissionKey,
	}
	if f.Form.RoomTypeID != 0 || f.Form.Quantity != 0 {
		req.Rooms = []domain.RoomLine{{RoomTypeID: f.Form.RoomTypeID, Quantity: f.Form.Quantity}}
	}
	if s := strings.TrimSpace(f.Form.SpecialRequests); s != "" {
		req.SpecialRequests = &s
	}
	return req
}

// fieldOf names the form field a validator error refers to.
func fieldOf(req domain.CreateReservationRequest, err error) string {
	switch {
	case errors.Is(err, domain.ErrStartInPast):
		return "checkInDate"
	case errors.Is(err, domain.ErrEndBeforeStart):
		return "checkOutDate"
	case errors.Is(err, domain.ErrInvalidQuantity):
		return "quantity"
	}
	switch {
	case req.HotelID == 0:
		return "hotelId"
	case len(req.Rooms) == 0 || req.Rooms[0].RoomTypeID == 0:
		return "roomTypeId"
	case req.CheckIn.IsZero():
		return "checkInDate"
	case req.CheckOut.IsZero():
		return "checkOutDate"
	}
	return ""
}

// LoadReservations refreshes the caller's reservations, newest first.
func (f *Flow) LoadReservations(ctx context.Context) error {
	rs, err := f.reservations.ListReservations(ctx)
	if err != nil {
		return f.fail(err)
	}
	if rs == nil {
		rs = []domain.Reservation{}
	}
	f.Reservations = rs
	f.LastError = ""
	return nil
}

// Cancel cancels one reservation and updates it in the loaded list.
func (f *Flow) Cancel(ctx context.Context, id int64) (string, error) {
	res, err := f.reservations.CancelReservation(ctx, id)
	if err != nil {
		return "", f.fail(err)
	}
	for i := range f.Reservations {
		if f.Reservations[i].ID == id {
			f.Reservations[i] = res.Reservation
		}
	}
	f.LastError = ""
	return res.Message, nil
}

func (f *Flow) fail(err error) error {
	f.LastError = err.Error()
	return err
}
