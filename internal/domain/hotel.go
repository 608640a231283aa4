package domain

// StandardSeason is the price-table key every room type is expected to carry.
const StandardSeason = "standard"

type Hotel struct {
	ID        int64
	Name      string
	Address   string
	City      string
	Category  string
	RoomTypes []RoomType
	Images    []string
}

type RoomType struct {
	ID        int64
	Label     string             // e.g. "Suite"
	Prices    map[string]float64 // season -> nightly rate
	Available int
}

// RateFor returns the nightly rate for season, falling back to the standard rate.
func (rt RoomType) RateFor(season string) (float64, bool) {
	if p, ok := rt.Prices[season]; ok {
		return p, true
	}
	p, ok := rt.Prices[StandardSeason]
	return p, ok
}

// RoomType looks up a room type by id within the hotel.
func (h Hotel) RoomType(id int64) (RoomType, bool) {
	for _, rt := range h.RoomTypes {
		if rt.ID == id {
			return rt, true
		}
	}
	return RoomType{}, false
}

func (h Hotel) Thumbnail() string {
	if len(h.Images) == 0 {
		return ""
	}
	return h.Images[0]
}

// Read models

type HotelFilter struct {
	City *string
}

type HotelSummary struct {
	ID            int64    `json:"id"`
	Name          string   `json:"name"`
	City          string   `json:"city"`
	Category      string   `json:"category"`
	StartingPrice *float64 `json:"startingPrice,omitempty"` // nil when no room type has a rate
	Thumbnail     string   `json:"thumbnail,omitempty"`
	Season        string   `json:"season"`
}

type RoomTypeView struct {
	ID           int64              `json:"id"`
	Label        string             `json:"label"`
	Prices       map[string]float64 `json:"prices"`
	Available    int                `json:"available"`
	CurrentPrice *float64           `json:"currentPrice,omitempty"`
}

type HotelDetail struct {
	ID        int64          `json:"id"`
	Name      string         `json:"name"`
	Address   string         `json:"address"`
	City      string         `json:"city"`
	Category  string         `json:"category"`
	Images    []string       `json:"images"`
	Season    string         `json:"season"`
	RoomTypes []RoomTypeView `json:"roomTypes"`
}
