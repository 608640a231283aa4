package app

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"hotel_booking/internal/domain"
)

// CatalogService writes hotel reference data and keeps the read cache honest.
type CatalogService struct {
	repo    domain.HotelRepository
	cache   domain.Cache
	seasons []string
}

// NewCatalogService takes every season name the pricing policy can produce so
// cached entries for all of them can be evicted.
func NewCatalogService(r domain.HotelRepository, cache domain.Cache, seasons []string) *CatalogService {
	if len(seasons) == 0 {
		seasons = []string{domain.StandardSeason}
	}
	return &CatalogService{repo: r, cache: cache, seasons: seasons}
}

func (s *CatalogService) ImportHotel(ctx context.Context, h domain.Hotel) error {
	if h.ID <= 0 {
		return fmt.Errorf("%w: hotel id must be positive", domain.ErrInvalidArgument)
	}
	if strings.TrimSpace(h.Name) == "" {
		return fmt.Errorf("%w: hotel %d has no name", domain.ErrInvalidArgument, h.ID)
	}
	seen := make(map[int64]bool, len(h.RoomTypes))
	for _, rt := range h.RoomTypes {
		if rt.ID <= 0 || seen[rt.ID] {
			return fmt.Errorf("%w: hotel %d has invalid or duplicate room type id %d", domain.ErrInvalidArgument, h.ID, rt.ID)
		}
		if rt.Available < 0 {
			return fmt.Errorf("%w: room type %d has negative availability", domain.ErrInvalidArgument, rt.ID)
		}
		seen[rt.ID] = true
	}

	cities := []string{h.City}
	if s.cache != nil {
		prev, err := s.repo.GetHotel(ctx, h.ID)
		switch {
		case err == nil:
			cities = append(cities, prev.City)
		case !errors.Is(err, domain.ErrNotFound):
			return fmt.Errorf("load hotel %d: %w", h.ID, err)
		}
	}

	if err := s.repo.UpsertHotel(ctx, h); err != nil {
		return fmt.Errorf("upsert hotel %d: %w", h.ID, err)
	}

	// Hotel change affects every season, the global listing and the listing
	// of both the old and the new city.
	if s.cache != nil {
		s.invalidateHotel(ctx, h.ID, cities)
	}
	return nil
}

// ImportAll imports hotels one by one and reports every rejected hotel.
func (s *CatalogService) ImportAll(ctx context.Context, hotels []domain.Hotel) error {
	var errs []error
	for _, h := range hotels {
		if err := s.ImportHotel(ctx, h); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (s *CatalogService) invalidateHotel(ctx context.Context, id int64, cities []string) {
	for _, season := range s.seasons {
		_ = s.cache.Del(ctx, hotelKey(id, season))
		_ = s.cache.Del(ctx, hotelListKey(domain.HotelFilter{}, season))
		for _, c := range cities {
			city := strings.ToLower(c)
			if city != "" {
				_ = s.cache.Del(ctx, hotelListKey(domain.HotelFilter{City: &city}, season))
			}
		}
	}
}
