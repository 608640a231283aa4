package domain

import (
	"context"
	"time"
)

type HotelRepository interface {
	// Write paths
	UpsertHotel(ctx context.Context, h Hotel) error

	// Read paths
	GetHotel(ctx context.Context, id int64) (Hotel, error)
	ListHotels(ctx context.Context, f HotelFilter) ([]Hotel, error)
}

type ReservationRepository interface {
	Create(ctx context.Context, r Reservation) (Reservation, error)
	GetByID(ctx context.Context, id int64) (Reservation, error)
	ListByUser(ctx context.Context, userID int64) ([]Reservation, error)
	// UpdateStatus moves the record from one status to another; it fails with
	// ErrInvalidState when the stored status no longer equals from.
	UpdateStatus(ctx context.Context, id int64, from, to ReservationStatus, at time.Time) (Reservation, error)
}

type NotificationRepository interface {
	Create(ctx context.Context, n Notification) (Notification, error)
	ListByUser(ctx context.Context, userID int64) ([]Notification, error)
	MarkRead(ctx context.Context, id, userID int64) (Notification, error)
	CountUnread(ctx context.Context, userID int64) (int, error)
}

type Cache interface {
	Get(ctx context.Context, key string, dst any) (bool, error)
	Set(ctx context.Context, key string, v any, ttlSec int) error
	Del(ctx context.Context, key string) error
}

// IdempotencyStore remembers which reservation a (user, key) pair produced and
// the fingerprint of the request that claimed it.
type IdempotencyStore interface {
	// Begin claims the key. When the key was already completed it returns the
	// reservation id with claimed=false; ErrRequestInProgress when still pending.
	// A key held under another fingerprint fails with ErrIdempotencyKeyReused.
	Begin(ctx context.Context, userID int64, key, fingerprint string) (existingID int64, claimed bool, err error)
	Complete(ctx context.Context, userID int64, key, fingerprint string, reservationID int64) error
	Release(ctx context.Context, userID int64, key string) error
}

// Notifier is the fire-and-forget side channel used by the lifecycle manager.
// Implementations must not report failures to the caller.
type Notifier interface {
	Notify(ctx context.Context, d NotificationDraft)
}

type Clock interface {
	Now() time.Time
}
