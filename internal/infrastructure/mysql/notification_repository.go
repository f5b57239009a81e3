package mysql

import (
	"context"
	"database/sql"

	"auction-marketplace/internal/domain"
)

type MySQLNotificationRepository struct {
	db *sql.DB
}

func NewMySQLNotificationRepository(db *sql.DB) *MySQLNotificationRepository {
	return &MySQLNotificationRepository{db: db}
}

func (r *MySQLNotificationRepository) SaveNotification(ctx context.Context, n *domain.Notification) error {
	_, err := r.db.ExecContext(ctx, `
        INSERT INTO notifications (id, user_id, kind, message, is_read, created_at)
        VALUES (?, ?, ?, ?, ?, ?)
    `, n.ID, n.UserID, string(n.Kind), n.Message, n.Read, n.CreatedAt)
	return wrapStorageErr(err)
}

func (r *MySQLNotificationRepository) ListNotifications(ctx context.Context, userID string, unreadOnly bool) ([]*domain.Notification, error) {
	query := `
        SELECT id, user_id, kind, message, is_read, created_at
        FROM notifications
        WHERE user_id = ?
    `
	if unreadOnly {
		query += ` AND is_read = FALSE`
	}
	query += ` ORDER BY created_at DESC`

	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, wrapStorageErr(err)
	}
	defer rows.Close()

	var notifications []*domain.Notification
	for rows.Next() {
		var n domain.Notification
		var kind string

		err := rows.Scan(&n.ID, &n.UserID, &kind, &n.Message, &n.Read, &n.CreatedAt)
		if err != nil {
			return nil, wrapStorageErr(err)
		}
		n.Kind = domain.NotificationKind(kind)
		notifications = append(notifications, &n)
	}
	return notifications, wrapStorageErr(rows.Err())
}

func (r *MySQLNotificationRepository) MarkRead(ctx context.Context, userID, notificationID string) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE notifications SET is_read = TRUE WHERE id = ? AND user_id = ?`,
		notificationID, userID)
	if err != nil {
		return wrapStorageErr(err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return wrapStorageErr(err)
	}
	if affected == 0 {
		return domain.ErrNotFound
	}
	return nil
}
