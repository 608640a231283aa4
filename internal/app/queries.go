package app

import (
	"context"
	"fmt"
	"strings"
	"time"

	"hotel_booking/internal/domain"
)

// QueryService is the availability lookup: hotel listing and detail, priced
// for the season active at the clock's current date.
type QueryService struct {
	repo     domain.HotelRepository
	cache    domain.Cache
	cacheTTL time.Duration
	seasons  SeasonPolicy
	clock    domain.Clock
}

func NewQueryService(r domain.HotelRepository, c domain.Cache, ttl time.Duration, seasons SeasonPolicy, clock domain.Clock) *QueryService {
	return &QueryService{repo: r, cache: c, cacheTTL: ttl, seasons: seasons, clock: clock}
}

func (s *QueryService) ActiveSeason() string {
	return s.seasons.SeasonAt(s.clock.Now())
}

func (s *QueryService) ListHotels(ctx context.Context, f domain.HotelFilter) ([]domain.HotelSummary, error) {
	season := s.ActiveSeason()
	key := hotelListKey(f, season)
	var out []domain.HotelSummary
	if s.cache != nil {
		if ok, _ := s.cache.Get(ctx, key, &out); ok {
			return out, nil
		}
	}

	hs, err := s.repo.ListHotels(ctx, f)
	if err != nil {
		return nil, fmt.Errorf("list hotels: %w", err)
	}
	out = make([]domain.HotelSummary, 0, len(hs))
	for _, h := range hs {
		out = append(out, summarize(h, season))
	}
	if s.cache != nil {
		_ = s.cache.Set(ctx, key, out, int(s.cacheTTL.Seconds()))
	}
	return out, nil
}

func (s *QueryService) GetHotelDetail(ctx context.Context, id int64) (domain.HotelDetail, error) {
	season := s.ActiveSeason()
	key := hotelKey(id, season)
	var hd domain.HotelDetail
	if s.cache != nil {
		if ok, _ := s.cache.Get(ctx, key, &hd); ok {
			return hd, nil
		}
	}
	h, err := s.repo.GetHotel(ctx, id)
	if err != nil {
		return domain.HotelDetail{}, err
	}
	hd = detail(h, season)
	if s.cache != nil {
		_ = s.cache.Set(ctx, key, hd, int(s.cacheTTL.Seconds()))
	}
	return hd, nil
}

func hotelKey(id int64, season string) string {
	return fmt.Sprintf("hotel:%d:%s", id, season)
}

func hotelListKey(f domain.HotelFilter, season string) string {
	city := "*"
	if f.City != nil && *f.City != "" {
		city = strings.ToLower(*f.City)
	}
	return fmt.Sprintf("hotels:%s:%s", city, season)
}
