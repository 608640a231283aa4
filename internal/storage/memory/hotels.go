// Package memory holds mutex-guarded in-process stores used by the memory
// mode of the API and by tests.
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"

	"hotel_booking/internal/domain"
)

type HotelRepo struct {
	mu     sync.RWMutex
	hotels map[int64]domain.Hotel
}

func NewHotelRepo(seed ...domain.Hotel) *HotelRepo {
	r := &HotelRepo{hotels: make(map[int64]domain.Hotel, len(seed))}
	for _, h := range seed {
		r.hotels[h.ID] = cloneHotel(h)
	}
	return r
}

func (r *HotelRepo) UpsertHotel(_ context.Context, h domain.Hotel) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.hotels[h.ID] = cloneHotel(h)
	return nil
}

func (r *HotelRepo) GetHotel(_ context.Context, id int64) (domain.Hotel, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	h, ok := r.hotels[id]
	if !ok {
		return domain.Hotel{}, domain.ErrNotFound
	}
	return cloneHotel(h), nil
}

// ListHotels returns hotels ordered by id; the city filter is case-insensitive.
func (r *HotelRepo) ListHotels(_ context.Context, f domain.HotelFilter) ([]domain.Hotel, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]domain.Hotel, 0, len(r.hotels))
	for _, h := range r.hotels {
		if f.City != nil && *f.City != "" && !strings.EqualFold(h.City, *f.City) {
			continue
		}
		out = append(out, cloneHotel(h))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func cloneHotel(h domain.Hotel) domain.Hotel {
	h.Images = append([]string(nil), h.Images...)
	rts := make([]domain.RoomType, len(h.RoomTypes))
	for i, rt := range h.RoomTypes {
		prices := make(map[string]float64, len(rt.Prices))
		for k, v := range rt.Prices {
			prices[k] = v
		}
		rt.Prices = prices
		rts[i] = rt
	}
	h.RoomTypes = rts
	return h
}
