package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"hotel_booking/internal/domain"
)

type ReservationRepo struct {
	mu     sync.RWMutex
	nextID int64
	byID   map[int64]domain.Reservation
	byRef  map[string]int64
}

func NewReservationRepo() *ReservationRepo {
	return &ReservationRepo{byID: map[int64]domain.Reservation{}, byRef: map[string]int64{}}
}

func (r *ReservationRepo) Create(_ context.Context, res domain.Reservation) (domain.Reservation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, taken := r.byRef[res.ReferenceNumber]; taken {
		return domain.Reservation{}, fmt.Errorf("%w: %s", domain.ErrDuplicateReference, res.ReferenceNumber)
	}
	r.nextID++
	res.ID = r.nextID
	res.Rooms = append([]domain.RoomLine(nil), res.Rooms...)
	r.byID[res.ID] = res
	r.byRef[res.ReferenceNumber] = res.ID
	return cloneReservation(res), nil
}

func (r *ReservationRepo) GetByID(_ context.Context, id int64) (domain.Reservation, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	res, ok := r.byID[id]
	if !ok {
		return domain.Reservation{}, domain.ErrNotFound
	}
	return cloneReservation(res), nil
}

// ListByUser returns newest first; ties broken by id descending.
func (r *ReservationRepo) ListByUser(_ context.Context, userID int64) ([]domain.Reservation, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]domain.Reservation, 0)
	for _, res := range r.byID {
		if res.UserID == userID {
			out = append(out, cloneReservation(res))
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

func (r *ReservationRepo) UpdateStatus(_ context.Context, id int64, from, to domain.ReservationStatus, at time.Time) (domain.Reservation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	res, ok := r.byID[id]
	if !ok {
		return domain.Reservation{}, domain.ErrNotFound
	}
	if res.Status != from {
		return domain.Reservation{}, &domain.StateError{Action: string(to), Current: res.Status}
	}
	res.Status = to
	res.UpdatedAt = at
	r.byID[id] = res
	return cloneReservation(res), nil
}

func cloneReservation(res domain.Reservation) domain.Reservation {
	res.Rooms = append([]domain.RoomLine(nil), res.Rooms...)
	return res
}
