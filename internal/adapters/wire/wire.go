// Package wire holds the JSON shapes of the REST API, shared by the server
// and the client.
package wire

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"hotel_booking/internal/domain"
)

const DateLayout = "2006-01-02"

// ID accepts both 12 and "12" on input and always writes a number.
type ID int64

func (id *ID) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		*id = 0
		return nil
	}
	s := strings.Trim(string(b), `"`)
	if s == "" {
		*id = 0
		return nil
	}
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return fmt.Errorf("invalid id %s", b)
	}
	*id = ID(n)
	return nil
}

type RoomLine struct {
	RoomTypeID ID  `json:"roomTypeId"`
	Quantity   int `json:"quantity"`
}

type CreateReservationRequest struct {
	HotelID         ID         `json:"hotelId"`
	Rooms           []RoomLine `json:"rooms"`
	CheckInDate     string     `json:"checkInDate"`
	CheckOutDate    string     `json:"checkOutDate"`
	SpecialRequests *string    `json:"specialRequests,omitempty"`
	BookingSource   string     `json:"bookingSource,omitempty"`
}

// ToDomain converts the body. Empty dates stay zero so the validator reports
// them as missing fields.
func (c CreateReservationRequest) ToDomain(userID int64) (domain.CreateReservationRequest, error) {
	in, err := parseDate(c.CheckInDate)
	if err != nil {
		return domain.CreateReservationRequest{}, err
	}
	out, err := parseDate(c.CheckOutDate)
	if err != nil {
		return domain.CreateReservationRequest{}, err
	}
	rooms := make([]domain.RoomLine, 0, len(c.Rooms))
	for _, l := range c.Rooms {
		rooms = append(rooms, domain.RoomLine{RoomTypeID: int64(l.RoomTypeID), Quantity: l.Quantity})
	}
	return domain.CreateReservationRequest{
		UserID:          userID,
		HotelID:         int64(c.HotelID),
		Rooms:           rooms,
		CheckIn:         in,
		CheckOut:        out,
		SpecialRequests: c.SpecialRequests,
		BookingSource:   c.BookingSource,
	}, nil
}

func NewCreateReservationRequest(r domain.CreateReservationRequest) CreateReservationRequest {
	out := CreateReservationRequest{
		HotelID:         ID(r.HotelID),
		CheckInDate:     formatDate(r.CheckIn),
		CheckOutDate:    formatDate(r.CheckOut),
		SpecialRequests: r.SpecialRequests,
		BookingSource:   r.BookingSource,
	}
	for _, l := range r.Rooms {
		out.Rooms = append(out.Rooms, RoomLine{RoomTypeID: ID(l.RoomTypeID), Quantity: l.Quantity})
	}
	return out
}

type Reservation struct {
	ID              ID         `json:"id"`
	ReferenceNumber string     `json:"referenceNumber"`
	UserID          ID         `json:"userId"`
	HotelID         ID         `json:"hotelId"`
	Rooms           []RoomLine `json:"rooms"`
	CheckInDate     string     `json:"checkInDate"`
	CheckOutDate    string     `json:"checkOutDate"`
	SpecialRequests *string    `json:"specialRequests,omitempty"`
	BookingSource   string     `json:"bookingSource"`
	Status          string     `json:"status"`
	TotalAmount     float64    `json:"totalAmount"`
	CreatedAt       time.Time  `json:"createdAt"`
	UpdatedAt       time.Time  `json:"updatedAt"`
}

func NewReservation(r domain.Reservation) Reservation {
	out := Reservation{
		ID:              ID(r.ID),
		ReferenceNumber: r.ReferenceNumber,
		UserID:          ID(r.UserID),
		HotelID:         ID(r.HotelID),
		Rooms:           make([]RoomLine, 0, len(r.Rooms)),
		CheckInDate:     formatDate(r.CheckIn),
		CheckOutDate:    formatDate(r.CheckOut),
		SpecialRequests: r.SpecialRequests,
		BookingSource:   r.BookingSource,
		Status:          string(r.Status),
		TotalAmount:     r.TotalAmount,
		CreatedAt:       r.CreatedAt,
		UpdatedAt:       r.UpdatedAt,
	}
	for _, l := range r.Rooms {
		out.Rooms = append(out.Rooms, RoomLine{RoomTypeID: ID(l.RoomTypeID), Quantity: l.Quantity})
	}
	return out
}

func NewReservations(rs []domain.Reservation) []Reservation {
	out := make([]Reservation, 0, len(rs))
	for _, r := range rs {
		out = append(out, NewReservation(r))
	}
	return out
}

func (r Reservation) ToDomain() (domain.Reservation, error) {
	in, err := parseDate(r.CheckInDate)
	if err != nil {
		return domain.Reservation{}, err
	}
	out, err := parseDate(r.CheckOutDate)
	if err != nil {
		return domain.Reservation{}, err
	}
	status := domain.ReservationStatus(r.Status)
	if r.Status != "" && !status.IsValid() {
		return domain.Reservation{}, fmt.Errorf("unknown reservation status %q", r.Status)
	}
	rooms := make([]domain.RoomLine, 0, len(r.Rooms))
	for _, l := range r.Rooms {
		rooms = append(rooms, domain.RoomLine{RoomTypeID: int64(l.RoomTypeID), Quantity: l.Quantity})
	}
	return domain.Reservation{
		ID:              int64(r.ID),
		ReferenceNumber: r.ReferenceNumber,
		UserID:          int64(r.UserID),
		HotelID:         int64(r.HotelID),
		Rooms:           rooms,
		CheckIn:         in,
		CheckOut:        out,
		SpecialRequests: r.SpecialRequests,
		BookingSource:   r.BookingSource,
		Status:          status,
		TotalAmount:     r.TotalAmount,
		CreatedAt:       r.CreatedAt,
		UpdatedAt:       r.UpdatedAt,
	}, nil
}

// ReservationResponse is returned by create and by every transition.
type ReservationResponse struct {
	Message     string      `json:"message"`
	Reservation Reservation `json:"reservation"`
}

// DecodeReservationResponse accepts the nested shape above as well as a flat
// one where the reservation fields sit next to message and the id may be
// named reservationId.
func DecodeReservationResponse(body []byte) (string, Reservation, error) {
	var nested struct {
		Message     string          `json:"message"`
		Reservation json.RawMessage `json:"reservation"`
	}
	if err := json.Unmarshal(body, &nested); err != nil {
		return "", Reservation{}, fmt.Errorf("decode reservation response: %w", err)
	}
	raw := nested.Reservation
	if len(raw) == 0 || bytes.Equal(bytes.TrimSpace(raw), []byte("null")) {
		raw = body
	}
	var flat struct {
		Reservation
		ReservationID ID `json:"reservationId"`
	}
	if err := json.Unmarshal(raw, &flat); err != nil {
		return "", Reservation{}, fmt.Errorf("decode reservation: %w", err)
	}
	if flat.ID == 0 {
		flat.ID = flat.ReservationID
	}
	return nested.Message, flat.Reservation, nil
}

type Notification struct {
	ID        ID        `json:"id"`
	UserID    ID        `json:"userId"`
	Message   string    `json:"message"`
	Category  string    `json:"category"`
	Link      *string   `json:"link,omitempty"`
	Read      bool      `json:"read"`
	CreatedAt time.Time `json:"createdAt"`
}

func NewNotification(n domain.Notification) Notification {
	return Notification{
		ID:        ID(n.ID),
		UserID:    ID(n.UserID),
		Message:   n.Message,
		Category:  string(n.Category),
		Link:      n.Link,
		Read:      n.Read,
		CreatedAt: n.CreatedAt,
	}
}

func NewNotifications(ns []domain.Notification) []Notification {
	out := make([]Notification, 0, len(ns))
	for _, n := range ns {
		out = append(out, NewNotification(n))
	}
	return out
}

type UnreadCount struct {
	Count int `json:"count"`
}

// Problem is an RFC 7807 error body.
type Problem struct {
	Type   string `json:"type"`
	Title  string `json:"title"`
	Status int    `json:"status"`
	Detail string `json:"detail,omitempty"`
}

func parseDate(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	if t, err := time.Parse(DateLayout, s); err == nil {
		return t, nil
	}
	// full timestamps are accepted; only their calendar date counts
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return domain.DateOnly(t), nil
	}
	return time.Time{}, &domain.RequestError{Reason: fmt.Sprintf("invalid date %q, expected YYYY-MM-DD", s)}
}

func formatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(DateLayout)
}
