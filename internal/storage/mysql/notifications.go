package mysql

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/Masterminds/squirrel"

	"hotel_booking/internal/domain"
)

var notificationColumns = []string{"id", "user_id", "message", "category", "link", "is_read", "created_at"}

type NotificationRepo struct{ db *sql.DB }

func NewNotificationRepo(db *sql.DB) *NotificationRepo { return &NotificationRepo{db: db} }

func (r *NotificationRepo) Create(ctx context.Context, n domain.Notification) (domain.Notification, error) {
	query, args, err := squirrel.Insert("notifications").
		Columns(notificationColumns[1:]...).
		Values(n.UserID, n.Message, string(n.Category), valStr(n.Link), false, n.CreatedAt).
		ToSql()
	if err != nil {
		return domain.Notification{}, fmt.Errorf("%w: Create notification: %v", ErrBuildQuery, err)
	}
	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return domain.Notification{}, fmt.Errorf("%w: Create notification: %v", ErrExecQuery, err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return domain.Notification{}, fmt.Errorf("%w: Create notification - last insert id: %v", ErrExecQuery, err)
	}
	n.ID = id
	n.Read = false
	return n, nil
}

func (r *NotificationRepo) ListByUser(ctx context.Context, userID int64) ([]domain.Notification, error) {
	query, args, err := squirrel.Select(notificationColumns...).
		From("notifications").
		Where(squirrel.Eq{"user_id": userID}).
		OrderBy("created_at DESC", "id DESC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: list notifications: %v", ErrBuildQuery, err)
	}
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: list notifications: %v", ErrExecQuery, err)
	}
	defer rows.Close()

	out := make([]domain.Notification, 0)
	for rows.Next() {
		n, err := scanNotification(rows)
		if err != nil {
			return nil, fmt.Errorf("%w: list notifications: %v", ErrScanRow, err)
		}
		out = append(out, n)
	}
	return out, rows.Err()
}

// MarkRead is scoped to the owner; unknown or foreign ids are ErrNotFound.
func (r *NotificationRepo) MarkRead(ctx context.Context, id, userID int64) (domain.Notification, error) {
	query, args, err := squirrel.Update("notifications").
		Set("is_read", true).
		Where(squirrel.Eq{"id": id, "user_id": userID}).
		ToSql()
	if err != nil {
		return domain.Notification{}, fmt.Errorf("%w: mark read: %v", ErrBuildQuery, err)
	}
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return domain.Notification{}, fmt.Errorf("%w: mark read: %v", ErrExecQuery, err)
	}

	// MySQL reports 0 affected rows for an already-read row, so re-read instead.
	query, args, err = squirrel.Select(notificationColumns...).
		From("notifications").
		Where(squirrel.Eq{"id": id, "user_id": userID}).
		ToSql()
	if err != nil {
		return domain.Notification{}, fmt.Errorf("%w: mark read: %v", ErrBuildQuery, err)
	}
	n, err := scanNotification(r.db.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Notification{}, domain.ErrNotFound
	}
	if err != nil {
		return domain.Notification{}, fmt.Errorf("%w: mark read: %v", ErrScanRow, err)
	}
	return n, nil
}

func (r *NotificationRepo) CountUnread(ctx context.Context, userID int64) (int, error) {
	query, args, err := squirrel.Select("COUNT(*)").
		From("notifications").
		Where(squirrel.Eq{"user_id": userID, "is_read": false}).
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("%w: count unread: %v", ErrBuildQuery, err)
	}
	var n int
	if err := r.db.QueryRowContext(ctx, query, args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("%w: count unread: %v", ErrScanRow, err)
	}
	return n, nil
}

func scanNotification(s rowScanner) (domain.Notification, error) {
	var (
		n        domain.Notification
		category string
		link     sql.NullString
	)
	if err := s.Scan(&n.ID, &n.UserID, &n.Message, &category, &link, &n.Read, &n.CreatedAt); err != nil {
		return domain.Notification{}, err
	}
	n.Category = domain.NotificationCategory(category)
	if link.Valid {
		l := link.String
		n.Link = &l
	}
	return n, nil
}
