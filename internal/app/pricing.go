package app

import (
	"time"

	"hotel_booking/internal/domain"
)

// SeasonPolicy maps a calendar date to a season name. Implementations must be
// pure so callers can pin the date in tests.
type SeasonPolicy interface {
	SeasonAt(t time.Time) string
}

// FixedSeason always answers the same season.
type FixedSeason string

func (f FixedSeason) SeasonAt(time.Time) string {
	if f == "" {
		return domain.StandardSeason
	}
	return string(f)
}

// MonthlySeasons resolves the season from the month of the date.
type MonthlySeasons struct {
	ByMonth map[time.Month]string
	Default string
}

func (m MonthlySeasons) SeasonAt(t time.Time) string {
	if s, ok := m.ByMonth[t.Month()]; ok && s != "" {
		return s
	}
	if m.Default == "" {
		return domain.StandardSeason
	}
	return m.Default
}

// startingPrice is the minimum nightly rate across room types for the season.
func startingPrice(h domain.Hotel, season string) *float64 {
	var best *float64
	for _, rt := range h.RoomTypes {
		p, ok := rt.RateFor(season)
		if !ok {
			continue
		}
		if best == nil || p < *best {
			v := p
			best = &v
		}
	}
	return best
}

func summarize(h domain.Hotel, season string) domain.HotelSummary {
	return domain.HotelSummary{
		ID:            h.ID,
		Name:          h.Name,
		City:          h.City,
		Category:      h.Category,
		StartingPrice: startingPrice(h, season),
		Thumbnail:     h.Thumbnail(),
		Season:        season,
	}
}

func detail(h domain.Hotel, season string) domain.HotelDetail {
	out := domain.HotelDetail{
		ID:        h.ID,
		Name:      h.Name,
		Address:   h.Address,
		City:      h.City,
		Category:  h.Category,
		Images:    append([]string(nil), h.Images...),
		Season:    season,
		RoomTypes: make([]domain.RoomTypeView, 0, len(h.RoomTypes)),
	}
	for _, rt := range h.RoomTypes {
		prices := make(map[string]float64, len(rt.Prices))
		for k, v := range rt.Prices {
			prices[k] = v
		}
		v := domain.RoomTypeView{ID: rt.ID, Label: rt.Label, Prices: prices, Available: rt.Available}
		if p, ok := rt.RateFor(season); ok {
			v.CurrentPrice = &p
		}
		out.RoomTypes = append(out.RoomTypes, v)
	}
	return out
}

// quote computes the total for the requested room lines. Nights must already be >= 1.
func quote(h domain.Hotel, rooms []domain.RoomLine, season string, nights int) (float64, error) {
	var total float64
	for _, line := range rooms {
		rt, ok := h.RoomType(line.RoomTypeID)
		if !ok {
			return 0, domain.ErrNotFound
		}
		rate, ok := rt.RateFor(season)
		if !ok {
			return 0, domain.ErrMissingRoomPrice
		}
		total += rate * float64(line.Quantity) * float64(nights)
	}
	return total, nil
}
