package repos

import (
	"context"
	"database/sql"

	"github.com/jmoiron/sqlx"

	"bazaar/internal/domain"
)

type NotificationRepo struct{ db *sqlx.DB }

func NewNotificationRepo(db *sqlx.DB) *NotificationRepo { return &NotificationRepo{db: db} }

const notificationCols = `id, user_id, order_id, message, link, is_read, created_at`

func (r *NotificationRepo) ListByUser(ctx context.Context, userID int64) ([]domain.Notification, error) {
	var out []domain.Notification
	err := r.db.SelectContext(ctx, &out, `
	  SELECT `+notificationCols+` FROM notifications
	  WHERE user_id = ?
	  ORDER BY created_at DESC, id DESC
	`, userID)
	return out, err
}

func (r *NotificationRepo) ListUnread(ctx context.Context, userID int64) ([]domain.Notification, error) {
	var out []domain.Notification
	err := r.db.SelectContext(ctx, &out, `
	  SELECT `+notificationCols+` FROM notifications
	  WHERE user_id = ? AND is_read = 0
	  ORDER BY created_at DESC, id DESC
	`, userID)
	return out, err
}

func (r *NotificationRepo) ListByOrder(ctx context.Context, orderID int64) ([]domain.Notification, error) {
	var out []domain.Notification
	err := r.db.SelectContext(ctx, &out, `
	  SELECT `+notificationCols+` FROM notifications WHERE order_id = ? ORDER BY id
	`, orderID)
	return out, err
}

func (r *NotificationRepo) UnreadCount(ctx context.Context, userID int64) (int, error) {
	var n int
	err := r.db.GetContext(ctx, &n, `SELECT COUNT(*) FROM notifications WHERE user_id = ? AND is_read = 0`, userID)
	return n, err
}

// MarkRead flags a notification as read when it belongs to userID.
// A notification of another user is reported as sql.ErrNoRows.
func (r *NotificationRepo) MarkRead(ctx context.Context, id, userID int64) error {
	res, err := r.db.ExecContext(ctx, `
	  UPDATE notifications SET is_read = 1 WHERE id = ? AND user_id = ?
	`, id, userID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

func (r *NotificationRepo) MarkAllRead(ctx context.Context, userID int64) error {
	_, err := r.db.ExecContext(ctx, `UPDATE notifications SET is_read = 1 WHERE user_id = ? AND is_read = 0`, userID)
	return err
}
