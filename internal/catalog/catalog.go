// Package catalog loads hotel reference data and the season calendar from a
// TOML file.
package catalog

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	"hotel_booking/internal/app"
	"hotel_booking/internal/domain"
)

type File struct {
	Calendar Calendar `toml:"calendar"`
	Hotels   []Hotel  `toml:"hotel"`
}

type Calendar struct {
	Default string   `toml:"default"`
	Seasons []Season `toml:"season"`
}

type Season struct {
	Name   string `toml:"name"`
	Months []int  `toml:"months"`
}

type Hotel struct {
	ID        int64      `toml:"id"`
	Name      string     `toml:"name"`
	Address   string     `toml:"address"`
	City      string     `toml:"city"`
	Category  string     `toml:"category"`
	Images    []string   `toml:"images"`
	RoomTypes []RoomType `toml:"room_type"`
}

type RoomType struct {
	ID        int64              `toml:"id"`
	Label     string             `toml:"label"`
	Available int                `toml:"available"`
	Prices    map[string]float64 `toml:"prices"`
}

func Load(path string) (File, error) {
	var f File
	md, err := toml.DecodeFile(path, &f)
	if err != nil {
		return File{}, fmt.Errorf("decode catalog %s: %w", path, err)
	}
	if undec := md.Undecoded(); len(undec) > 0 {
		keys := make([]string, 0, len(undec))
		for _, k := range undec {
			keys = append(keys, k.String())
		}
		return File{}, fmt.Errorf("%w: unknown catalog keys: %s", domain.ErrInvalidArgument, strings.Join(keys, ", "))
	}
	if err := f.validate(); err != nil {
		return File{}, err
	}
	return f, nil
}

func (f File) validate() error {
	seen := map[time.Month]string{}
	for _, s := range f.Calendar.Seasons {
		if s.Name == "" {
			return fmt.Errorf("%w: season without a name", domain.ErrInvalidArgument)
		}
		for _, m := range s.Months {
			if m < 1 || m > 12 {
				return fmt.Errorf("%w: season %q has month %d", domain.ErrInvalidArgument, s.Name, m)
			}
			if prev, ok := seen[time.Month(m)]; ok {
				return fmt.Errorf("%w: month %d in both %q and %q", domain.ErrInvalidArgument, m, prev, s.Name)
			}
			seen[time.Month(m)] = s.Name
		}
	}
	ids := map[int64]bool{}
	var errs []error
	for _, h := range f.Hotels {
		if ids[h.ID] {
			errs = append(errs, fmt.Errorf("%w: duplicate hotel id %d", domain.ErrInvalidArgument, h.ID))
		}
		ids[h.ID] = true
		for _, rt := range h.RoomTypes {
			if _, ok := rt.Prices[domain.StandardSeason]; !ok {
				errs = append(errs, fmt.Errorf("%w: hotel %d room type %d has no %s price",
					domain.ErrInvalidArgument, h.ID, rt.ID, domain.StandardSeason))
			}
		}
	}
	return errors.Join(errs...)
}

// DomainHotels converts the file's hotels, ordered by id.
func (f File) DomainHotels() []domain.Hotel {
	out := make([]domain.Hotel, 0, len(f.Hotels))
	for _, h := range f.Hotels {
		dh := domain.Hotel{
			ID:       h.ID,
			Name:     h.Name,
			Address:  h.Address,
			City:     h.City,
			Category: h.Category,
			Images:   append([]string(nil), h.Images...),
		}
		for _, rt := range h.RoomTypes {
			prices := make(map[string]float64, len(rt.Prices))
			for k, v := range rt.Prices {
				prices[k] = v
			}
			dh.RoomTypes = append(dh.RoomTypes, domain.RoomType{
				ID: rt.ID, Label: rt.Label, Prices: prices, Available: rt.Available,
			})
		}
		out = append(out, dh)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (f File) SeasonPolicy() app.SeasonPolicy {
	if len(f.Calendar.Seasons) == 0 {
		return app.FixedSeason(f.Calendar.Default)
	}
	byMonth := make(map[time.Month]string, 12)
	for _, s := range f.Calendar.Seasons {
		for _, m := range s.Months {
			byMonth[time.Month(m)] = s.Name
		}
	}
	return app.MonthlySeasons{ByMonth: byMonth, Default: f.Calendar.Default}
}

// SeasonNames lists every season the calendar can yield, standard included.
func (f File) SeasonNames() []string {
	set := map[string]bool{domain.StandardSeason: true}
	if f.Calendar.Default != "" {
		set[f.Calendar.Default] = true
	}
	for _, s := range f.Calendar.Seasons {
		set[s.Name] = true
	}
	out := make([]string, 0, len(set))
	for s := range set {
		out = append(out, s)
	}
	sort.Strings(out)
	return out
}
