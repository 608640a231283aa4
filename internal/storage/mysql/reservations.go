package mysql

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Masterminds/squirrel"
	mysqldrv "github.com/go-sql-driver/mysql"

	"hotel_booking/internal/domain"
)

var reservationColumns = []string{
	"id",
	"reference_number",
	"user_id",
	"hotel_id",
	"rooms",
	"check_in",
	"check_out",
	"special_requests",
	"booking_source",
	"status",
	"total_amount",
	"created_at",
	"updated_at",
}

type ReservationRepo struct{ db *sql.DB }

func NewReservationRepo(db *sql.DB) *ReservationRepo { return &ReservationRepo{db: db} }

func (r *ReservationRepo) Create(ctx context.Context, res domain.Reservation) (domain.Reservation, error) {
	rooms, err := json.Marshal(res.Rooms)
	if err != nil {
		return domain.Reservation{}, fmt.Errorf("marshal rooms: %w", err)
	}
	query, args, err := squirrel.Insert("reservations").
		Columns(reservationColumns[1:]...).
		Values(
			res.ReferenceNumber,
			res.UserID,
			res.HotelID,
			string(rooms),
			res.CheckIn,
			res.CheckOut,
			valStr(res.SpecialRequests),
			res.BookingSource,
			string(res.Status),
			res.TotalAmount,
			res.CreatedAt,
			res.UpdatedAt,
		).
		ToSql()
	if err != nil {
		return domain.Reservation{}, fmt.Errorf("%w: Create: %v", ErrBuildQuery, err)
	}
	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		if isDuplicateKey(err, "uq_reservations_reference") {
			return domain.Reservation{}, fmt.Errorf("%w: %s", domain.ErrDuplicateReference, res.ReferenceNumber)
		}
		return domain.Reservation{}, fmt.Errorf("%w: Create: %v", ErrExecQuery, err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return domain.Reservation{}, fmt.Errorf("%w: Create - last insert id: %v", ErrExecQuery, err)
	}
	res.ID = id
	return res, nil
}

func (r *ReservationRepo) GetByID(ctx context.Context, id int64) (domain.Reservation, error) {
	query, args, err := squirrel.Select(reservationColumns...).
		From("reservations").
		Where(squirrel.Eq{"id": id}).
		ToSql()
	if err != nil {
		return domain.Reservation{}, fmt.Errorf("%w: GetByID: %v", ErrBuildQuery, err)
	}
	res, err := scanReservation(r.db.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Reservation{}, domain.ErrNotFound
	}
	if err != nil {
		return domain.Reservation{}, fmt.Errorf("%w: GetByID: %v", ErrScanRow, err)
	}
	return res, nil
}

func (r *ReservationRepo) ListByUser(ctx context.Context, userID int64) ([]domain.Reservation, error) {
	query, args, err := squirrel.Select(reservationColumns...).
		From("reservations").
		Where(squirrel.Eq{"user_id": userID}).
		OrderBy("created_at DESC", "id DESC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: ListByUser: %v", ErrBuildQuery, err)
	}
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: ListByUser: %v", ErrExecQuery, err)
	}
	defer rows.Close()

	out := make([]domain.Reservation, 0)
	for rows.Next() {
		res, err := scanReservation(rows)
		if err != nil {
			return nil, fmt.Errorf("%w: ListByUser: %v", ErrScanRow, err)
		}
		out = append(out, res)
	}
	return out, rows.Err()
}

// UpdateStatus is a compare-and-set on the status column.
func (r *ReservationRepo) UpdateStatus(ctx context.Context, id int64, from, to domain.ReservationStatus, at time.Time) (domain.Reservation, error) {
	query, args, err := squirrel.Update("reservations").
		Set("status", string(to)).
		Set("updated_at", at).
		Where(squirrel.Eq{"id": id, "status": string(from)}).
		ToSql()
	if err != nil {
		return domain.Reservation{}, fmt.Errorf("%w: UpdateStatus: %v", ErrBuildQuery, err)
	}
	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return domain.Reservation{}, fmt.Errorf("%w: UpdateStatus: %v", ErrExecQuery, err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return domain.Reservation{}, fmt.Errorf("%w: UpdateStatus - rows affected: %v", ErrExecQuery, err)
	}

	cur, err := r.GetByID(ctx, id)
	if err != nil {
		return domain.Reservation{}, err
	}
	if n == 0 {
		return domain.Reservation{}, &domain.StateError{Action: string(to), Current: cur.Status}
	}
	return cur, nil
}

func scanReservation(s rowScanner) (domain.Reservation, error) {
	var (
		res     domain.Reservation
		rooms   []byte
		special sql.NullString
		status  string
	)
	if err := s.Scan(
		&res.ID,
		&res.ReferenceNumber,
		&res.UserID,
		&res.HotelID,
		&rooms,
		&res.CheckIn,
		&res.CheckOut,
		&special,
		&res.BookingSource,
		&status,
		&res.TotalAmount,
		&res.CreatedAt,
		&res.UpdatedAt,
	); err != nil {
		return domain.Reservation{}, err
	}
	if err := json.Unmarshal(rooms, &res.Rooms); err != nil {
		return domain.Reservation{}, fmt.Errorf("decode rooms of reservation %d: %w", res.ID, err)
	}
	if special.Valid {
		s := special.String
		res.SpecialRequests = &s
	}
	res.Status = domain.ReservationStatus(status)
	return res, nil
}

// erDupEntry is the MySQL server error number for a unique key violation.
const erDupEntry = 1062

func isDuplicateKey(err error, key string) bool {
	var me *mysqldrv.MySQLError
	return errors.As(err, &me) && me.Number == erDupEntry && strings.Contains(me.Message, key)
}
