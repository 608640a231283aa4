package app

import (
	"context"
	"fmt"
	"strings"

	"hotel_booking/internal/domain"
)

type NotificationService struct {
	repo  domain.NotificationRepository
	clock domain.Clock
}

func NewNotificationService(r domain.NotificationRepository, clock domain.Clock) *NotificationService {
	return &NotificationService{repo: r, clock: clock}
}

// Emit stores a new unread notification for the user.
func (s *NotificationService) Emit(ctx context.Context, userID int64, message string, category domain.NotificationCategory, link *string) (domain.Notification, error) {
	if userID <= 0 {
		return domain.Notification{}, fmt.Errorf("%w: user id is required", domain.ErrInvalidArgument)
	}
	if strings.TrimSpace(message) == "" {
		return domain.Notification{}, fmt.Errorf("%w: message is required", domain.ErrInvalidArgument)
	}
	n, err := s.repo.Create(ctx, domain.Notification{
		UserID:    userID,
		Message:   message,
		Category:  category,
		Link:      link,
		CreatedAt: s.clock.Now().UTC(),
	})
	if err != nil {
		return domain.Notification{}, fmt.Errorf("%w: store notification: %v", domain.ErrUnavailable, err)
	}
	return n, nil
}

func (s *NotificationService) ListForUser(ctx context.Context, userID int64) ([]domain.Notification, error) {
	if userID <= 0 {
		return nil, fmt.Errorf("%w: user id is required", domain.ErrInvalidArgument)
	}
	return s.repo.ListByUser(ctx, userID)
}

// MarkRead flips the read flag. Marking an already read notification is a no-op.
func (s *NotificationService) MarkRead(ctx context.Context, id, userID int64) (domain.Notification, error) {
	if userID <= 0 {
		return domain.Notification{}, fmt.Errorf("%w: user id is required", domain.ErrInvalidArgument)
	}
	return s.repo.MarkRead(ctx, id, userID)
}

// UnreadCount is always computed from storage, never cached.
func (s *NotificationService) UnreadCount(ctx context.Context, userID int64) (int, error) {
	if userID <= 0 {
		return 0, fmt.Errorf("%w: user id is required", domain.ErrInvalidArgument)
	}
	return s.repo.CountUnread(ctx, userID)
}
