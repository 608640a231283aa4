package app_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"hotel_booking/internal/app"
	"hotel_booking/internal/domain"
	"hotel_booking/internal/shared"
	"hotel_booking/internal/storage/memory"
)

// ---- fakes ----

type fakeCache struct {
	store map[string]any
	dels  []string
}

func (c *fakeCache) Get(ctx context.Context, key string, dst any) (bool, error) {
	if c.store == nil {
		return false, nil
	}
	v, ok := c.store[key]
	if !ok {
		return false, nil
	}
	switch d := dst.(type) {
	case *domain.HotelDetail:
		*d = v.(domain.HotelDetail)
	case *[]domain.HotelSummary:
		*d = v.([]domain.HotelSummary)
	}
	return true, nil
}
func (c *fakeCache) Set(ctx context.Context, key string, v any, ttlSec int) error {
	if c.store == nil {
		c.store = map[string]any{}
	}
	c.store[key] = v
	return nil
}
func (c *fakeCache) Del(ctx context.Context, key string) error {
	c.dels = append(c.dels, key)
	delete(c.store, key)
	return nil
}

// ---- tests ----

func TestGetHotelDetail_CacheMissThenHit(t *testing.T) {
	repo := memory.NewHotelRepo(sampleHotel())
	cache := &fakeCache{}
	clock := shared.NewFixedClock(day("2025-05-20"))
	q := app.NewQueryService(repo, cache, 10*time.Minute, app.FixedSeason(""), clock)

	// Miss (first time, populates cache)
	h, err := q.GetHotelDetail(context.Background(), 1)
	if err != nil {
		t.Fatalf("err: %v", err)
	}
	if h.ID != 1 || h.Season != "standard" || len(h.RoomTypes) != 3 {
		t.Fatalf("unexpected hotel: %+v", h)
	}
	if h.RoomTypes[0].CurrentPrice == nil || *h.RoomTypes[0].CurrentPrice != 100 {
		t.Fatalf("unexpected current price: %+v", h.RoomTypes[0])
	}
	if h.RoomTypes[2].CurrentPrice != nil {
		t.Fatalf("room type without a rate must have no current price")
	}

	// Mutate repo to ensure second read indeed comes from cache
	changed := sampleHotel()
	changed.Name = "SHOULD NOT SEE THIS"
	_ = repo.UpsertHotel(context.Background(), changed)

	h2, err := q.GetHotelDetail(context.Background(), 1)
	if err != nil {
		t.Fatalf("err: %v", err)
	}
	if h2.Name != "Riad Atlas" {
		t.Fatalf("expected cached name, got %s", h2.Name)
	}
}

func TestGetHotelDetail_NotFound(t *testing.T) {
	q := app.NewQueryService(memory.NewHotelRepo(), nil, time.Minute, app.FixedSeason(""), shared.RealClock{})
	if _, err := q.GetHotelDetail(context.Background(), 9); err != domain.ErrNotFound {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestListHotels_SeasonalStartingPrice(t *testing.T) {
	other := domain.Hotel{ID: 2, Name: "Sea View", City: "Agadir"}
	repo := memory.NewHotelRepo(sampleHotel(), other)
	seasons := app.MonthlySeasons{ByMonth: map[time.Month]string{time.July: "high"}}
	clock := shared.NewFixedClock(day("2025-07-10"))
	q := app.NewQueryService(repo, nil, time.Minute, seasons, clock)

	out, err := q.ListHotels(context.Background(), domain.HotelFilter{})
	if err != nil {
		t.Fatalf("err: %v", err)
	}
	if len(out) != 2 {
		t.Fatalf("expected 2 hotels, got %d", len(out))
	}
	// high: Double 150, Suite falls back to standard 250
	if out[0].StartingPrice == nil || *out[0].StartingPrice != 150 || out[0].Season != "high" {
		t.Fatalf("unexpected summary: %+v", out[0])
	}
	if out[0].Thumbnail != "a.jpg" {
		t.Fatalf("unexpected thumbnail %q", out[0].Thumbnail)
	}
	if out[1].StartingPrice != nil {
		t.Fatalf("hotel without rooms must have no starting price")
	}

	clock.Set(day("2025-09-01"))
	out, _ = q.ListHotels(context.Background(), domain.HotelFilter{City: ptr("MARRAKECH")})
	if len(out) != 1 || *out[0].StartingPrice != 100 {
		t.Fatalf("unexpected filtered result: %+v", out)
	}
}

func TestImportHotel_InvalidatesCache(t *testing.T) {
	repo := memory.NewHotelRepo()
	cache := &fakeCache{}
	clock := shared.NewFixedClock(day("2025-05-20"))
	q := app.NewQueryService(repo, cache, time.Minute, app.FixedSeason(""), clock)
	c := app.NewCatalogService(repo, cache, []string{"standard", "high"})
	ctx := context.Background()

	if err := c.ImportHotel(ctx, sampleHotel()); err != nil {
		t.Fatalf("import: %v", err)
	}
	if _, err := q.GetHotelDetail(ctx, 1); err != nil {
		t.Fatalf("detail: %v", err)
	}

	updated := sampleHotel()
	updated.Name = "Riad Atlas & Spa"
	if err := c.ImportHotel(ctx, updated); err != nil {
		t.Fatalf("import: %v", err)
	}
	h, _ := q.GetHotelDetail(ctx, 1)
	if h.Name != "Riad Atlas & Spa" {
		t.Fatalf("stale cache entry served: %s", h.Name)
	}
	want := map[string]bool{"hotel:1:high": false, "hotels:*:high": false, "hotels:marrakech:standard": false}
	for _, k := range cache.dels {
		if _, ok := want[k]; ok {
			want[k] = true
		}
	}
	for k, seen := range want {
		if !seen {
			t.Errorf("expected %s to be evicted", k)
		}
	}
}

func TestImportHotel_MovedHotelEvictsOldCity(t *testing.T) {
	repo := memory.NewHotelRepo()
	cache := &fakeCache{}
	clock := shared.NewFixedClock(day("2025-05-20"))
	q := app.NewQueryService(repo, cache, time.Minute, app.FixedSeason(""), clock)
	c := app.NewCatalogService(repo, cache, []string{"standard"})
	ctx := context.Background()

	if err := c.ImportHotel(ctx, sampleHotel()); err != nil {
		t.Fatalf("import: %v", err)
	}
	if out, _ := q.ListHotels(ctx, domain.HotelFilter{City: ptr("Marrakech")}); len(out) != 1 {
		t.Fatalf("expected one hotel in Marrakech, got %d", len(out))
	}

	moved := sampleHotel()
	moved.City = "Fes"
	if err := c.ImportHotel(ctx, moved); err != nil {
		t.Fatalf("import: %v", err)
	}
	if out, _ := q.ListHotels(ctx, domain.HotelFilter{City: ptr("Marrakech")}); len(out) != 0 {
		t.Fatalf("moved hotel still listed under its old city: %+v", out)
	}
	if out, _ := q.ListHotels(ctx, domain.HotelFilter{City: ptr("Fes")}); len(out) != 1 {
		t.Fatalf("expected one hotel in Fes, got %d", len(out))
	}
}

func TestImportAll_ValidatesEachHotel(t *testing.T) {
	repo := memory.NewHotelRepo()
	c := app.NewCatalogService(repo, nil, nil)
	ctx := context.Background()

	bad := domain.Hotel{ID: 2, Name: "x", RoomTypes: []domain.RoomType{{ID: 1, Available: -1}}}
	err := c.ImportAll(ctx, []domain.Hotel{sampleHotel(), bad})
	if !errors.Is(err, domain.ErrInvalidArgument) {
		t.Fatalf("expected invalid argument, got %v", err)
	}
	if _, err := repo.GetHotel(ctx, 1); err != nil {
		t.Fatalf("valid hotel not imported: %v", err)
	}
	if _, err := repo.GetHotel(ctx, 2); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("rejected hotel was stored: %v", err)
	}
}

func TestImportHotel_Rejects(t *testing.T) {
	c := app.NewCatalogService(memory.NewHotelRepo(), nil, nil)
	bad := []domain.Hotel{
		{ID: 0, Name: "x"},
		{ID: 1, Name: " "},
		{ID: 1, Name: "x", RoomTypes: []domain.RoomType{{ID: 1}, {ID: 1}}},
		{ID: 1, Name: "x", RoomTypes: []domain.RoomType{{ID: 1, Available: -1}}},
	}
	for i, h := range bad {
		if err := c.ImportHotel(context.Background(), h); err == nil {
			t.Errorf("case %d: expected error", i)
		}
	}
}
