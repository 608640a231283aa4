package app_test

import (
	"context"
	"errors"
	"sync"
	"time"

	"hotel_booking/internal/domain"
)

func ptr[T any](v T) *T { return &v }

func day(s string) time.Time {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return t
}

func sampleHotel() domain.Hotel {
	return domain.Hotel{
		ID:       1,
		Name:     "Riad Atlas",
		Address:  "12 Derb Sidi",
		City:     "Marrakech",
		Category: "4*",
		Images:   []string{"a.jpg", "b.jpg"},
		RoomTypes: []domain.RoomType{
			{ID: 1, Label: "Double", Prices: map[string]float64{"standard": 100, "high": 150}, Available: 4},
			{ID: 2, Label: "Suite", Prices: map[string]float64{"standard": 250}, Available: 1},
			{ID: 3, Label: "Closed", Prices: map[string]float64{}, Available: 0},
		},
	}
}

// recordingNotifier captures drafts synchronously.
type recordingNotifier struct {
	mu     sync.Mutex
	drafts []domain.NotificationDraft
}

func (n *recordingNotifier) Notify(_ context.Context, d domain.NotificationDraft) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.drafts = append(n.drafts, d)
}

func (n *recordingNotifier) all() []domain.NotificationDraft {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]domain.NotificationDraft(nil), n.drafts...)
}

// failingEmitter fails every emission.
type failingEmitter struct {
	mu    sync.Mutex
	calls int
}

func (f *failingEmitter) Emit(context.Context, int64, string, domain.NotificationCategory, *string) (domain.Notification, error) {
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()
	return domain.Notification{}, errors.New("notification store down")
}

func (f *failingEmitter) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}
