package domain

import "time"

type NotificationCategory string

const (
	CategoryReservationPending   NotificationCategory = "reservation_pending"
	CategoryReservationConfirmed NotificationCategory = "reservation_confirmed"
	CategoryReservationCancelled NotificationCategory = "reservation_cancelled"
	CategoryReservationCompleted NotificationCategory = "reservation_completed"
)

type Notification struct {
	ID        int64
	UserID    int64
	Message   string
	Category  NotificationCategory
	Link      *string
	Read      bool
	CreatedAt time.Time
}

// NotificationDraft is what a lifecycle event hands to the side channel.
type NotificationDraft struct {
	UserID   int64
	Message  string
	Category NotificationCategory
	Link     *string
}
