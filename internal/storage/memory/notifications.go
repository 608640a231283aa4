package memory

import (
	"context"
	"sort"
	"sync"

	"hotel_booking/internal/domain"
)

type NotificationRepo struct {
	mu     sync.RWMutex
	nextID int64
	byID   map[int64]domain.Notification
}

func NewNotificationRepo() *NotificationRepo {
	return &NotificationRepo{byID: map[int64]domain.Notification{}}
}

func (r *NotificationRepo) Create(_ context.Context, n domain.Notification) (domain.Notification, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	n.ID = r.nextID
	n.Read = false
	r.byID[n.ID] = n
	return n, nil
}

func (r *NotificationRepo) ListByUser(_ context.Context, userID int64) ([]domain.Notification, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]domain.Notification, 0)
	for _, n := range r.byID {
		if n.UserID == userID {
			out = append(out, n)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID > out[j].ID
	})
	return out, nil
}

// MarkRead answers ErrNotFound for notifications the user does not own.
func (r *NotificationRepo) MarkRead(_ context.Context, id, userID int64) (domain.Notification, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	n, ok := r.byID[id]
	if !ok || n.UserID != userID {
		return domain.Notification{}, domain.ErrNotFound
	}
	n.Read = true
	r.byID[id] = n
	return n, nil
}

func (r *NotificationRepo) CountUnread(_ context.Context, userID int64) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c := 0
	for _, n := range r.byID {
		if n.UserID == userID && !n.Read {
			c++
		}
	}
	return c, nil
}
