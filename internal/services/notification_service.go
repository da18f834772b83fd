package services

import (
	"context"
	"database/sql"
	"errors"

	"bazaar/internal/domain"
	"bazaar/internal/repos"
)

type NotificationService struct {
	Notes *repos.NotificationRepo
}

func NewNotificationService(notes *repos.NotificationRepo) *NotificationService {
	return &NotificationService{Notes: notes}
}

// List returns the user's notifications, newest first.
func (s *NotificationService) List(ctx context.Context, userID int64, unreadOnly bool) ([]domain.Notification, error) {
	if unreadOnly {
		return s.Notes.ListUnread(ctx, userID)
	}
	return s.Notes.ListByUser(ctx, userID)
}

func (s *NotificationService) UnreadCount(ctx context.Context, userID int64) (int, error) {
	return s.Notes.UnreadCount(ctx, userID)
}

// MarkRead marks one of the user's notifications as read. Notifications of
// other users are reported as ErrNotFound.
func (s *NotificationService) MarkRead(ctx context.Context, userID, id int64) error {
	err := s.Notes.MarkRead(ctx, id, userID)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	return err
}

func (s *NotificationService) MarkAllRead(ctx context.Context, userID int64) error {
	return s.Notes.MarkAllRead(ctx, userID)
}
