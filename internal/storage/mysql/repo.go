package mysql

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/Masterminds/squirrel"

	"hotel_booking/internal/domain"
)

func valStr(p *string) any {
	if p == nil {
		return nil
	}
	return *p
}

// HotelRepo stores the hotel catalog: hotels, room types and seasonal prices.
type HotelRepo struct{ db *sql.DB }

func NewHotelRepo(db *sql.DB) *HotelRepo { return &HotelRepo{db: db} }

func (r *HotelRepo) UpsertHotel(ctx context.Context, h domain.Hotel) (err error) {
	imgs, err := json.Marshal(h.Images)
	if err != nil {
		return fmt.Errorf("marshal images: %w", err)
	}
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if _, err = tx.ExecContext(ctx, upsertHotelSQL, h.ID, h.Name, h.Address, h.City, h.Category, string(imgs)); err != nil {
		return fmt.Errorf("%w: upsert hotel: %v", ErrExecQuery, err)
	}
	if _, err = tx.ExecContext(ctx, deleteRoomTypesSQL, h.ID); err != nil {
		return fmt.Errorf("%w: delete room types: %v", ErrExecQuery, err)
	}
	for _, rt := range h.RoomTypes {
		if _, err = tx.ExecContext(ctx, insertRoomTypeSQL, h.ID, rt.ID, rt.Label, rt.Available); err != nil {
			return fmt.Errorf("%w: insert room type %d: %v", ErrExecQuery, rt.ID, err)
		}
		for season, price := range rt.Prices {
			if _, err = tx.ExecContext(ctx, insertPriceSQL, h.ID, rt.ID, season, price); err != nil {
				return fmt.Errorf("%w: insert price %d/%s: %v", ErrExecQuery, rt.ID, season, err)
			}
		}
	}
	return tx.Commit()
}

func (r *HotelRepo) GetHotel(ctx context.Context, id int64) (domain.Hotel, error) {
	row := r.db.QueryRowContext(ctx, getHotelSQL, id)
	h, err := scanHotel(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Hotel{}, domain.ErrNotFound
		}
		return domain.Hotel{}, fmt.Errorf("%w: hotel %d: %v", ErrScanRow, id, err)
	}
	byHotel, err := r.roomTypes(ctx, []int64{id})
	if err != nil {
		return domain.Hotel{}, err
	}
	h.RoomTypes = byHotel[id]
	return h, nil
}

func (r *HotelRepo) ListHotels(ctx context.Context, f domain.HotelFilter) ([]domain.Hotel, error) {
	b := squirrel.Select("id", "name", "address", "city", "category", "images").
		From("hotels").
		OrderBy("id")
	if f.City != nil && *f.City != "" {
		b = b.Where("LOWER(city) = LOWER(?)", *f.City)
	}
	query, args, err := b.ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: list hotels: %v", ErrBuildQuery, err)
	}
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: list hotels: %v", ErrExecQuery, err)
	}
	defer rows.Close()

	var out []domain.Hotel
	var ids []int64
	for rows.Next() {
		h, err := scanHotel(rows)
		if err != nil {
			return nil, fmt.Errorf("%w: list hotels: %v", ErrScanRow, err)
		}
		out = append(out, h)
		ids = append(ids, h.ID)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return out, nil
	}

	byHotel, err := r.roomTypes(ctx, ids)
	if err != nil {
		return nil, err
	}
	for i := range out {
		out[i].RoomTypes = byHotel[out[i].ID]
	}
	return out, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanHotel(s rowScanner) (domain.Hotel, error) {
	var h domain.Hotel
	var images []byte
	if err := s.Scan(&h.ID, &h.Name, &h.Address, &h.City, &h.Category, &images); err != nil {
		return domain.Hotel{}, err
	}
	if len(images) > 0 {
		if err := json.Unmarshal(images, &h.Images); err != nil {
			return domain.Hotel{}, fmt.Errorf("hotel %d images: %w", h.ID, err)
		}
	}
	return h, nil
}

// roomTypes loads room types with their price tables, grouped by hotel id.
func (r *HotelRepo) roomTypes(ctx context.Context, hotelIDs []int64) (map[int64][]domain.RoomType, error) {
	query, args, err := squirrel.Select("rt.hotel_id", "rt.id", "rt.label", "rt.available", "p.season", "p.price").
		From("room_types rt").
		LeftJoin("room_type_prices p ON p.hotel_id = rt.hotel_id AND p.room_type_id = rt.id").
		Where(squirrel.Eq{"rt.hotel_id": hotelIDs}).
		OrderBy("rt.hotel_id", "rt.id").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: room types: %v", ErrBuildQuery, err)
	}
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: room types: %v", ErrExecQuery, err)
	}
	defer rows.Close()

	out := make(map[int64][]domain.RoomType, len(hotelIDs))
	for rows.Next() {
		var (
			hotelID int64
			rt      domain.RoomType
			season  sql.NullString
			price   sql.NullFloat64
		)
		if err := rows.Scan(&hotelID, &rt.ID, &rt.Label, &rt.Available, &season, &price); err != nil {
			return nil, fmt.Errorf("%w: room types: %v", ErrScanRow, err)
		}
		list := out[hotelID]
		// rows are ordered, so a repeated room type is always the last one
		if n := len(list); n == 0 || list[n-1].ID != rt.ID {
			rt.Prices = map[string]float64{}
			list = append(list, rt)
		}
		if season.Valid && price.Valid {
			list[len(list)-1].Prices[season.String] = price.Float64
		}
		out[hotelID] = list
	}
	return out, rows.Err()
}
