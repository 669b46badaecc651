package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/skillswap/skillswap-hub/internal/domain/notification"
	"github.com/skillswap/skillswap-hub/internal/domain/shared"
)

// NotificationRepository implements notification.Repository for PostgreSQL.
type NotificationRepository struct {
	conn *Connection
}

// NewNotificationRepository creates a new NotificationRepository.
func NewNotificationRepository(conn *Connection) *NotificationRepository {
	return &NotificationRepository{conn: conn}
}

const notificationColumns = `id, user_id, type, swap_request_id, title, body, data, read_at, created_at`

// Save inserts or replaces a notification.
func (r *NotificationRepository) Save(ctx context.Context, n *notification.Notification) error {
	data, err := json.Marshal(n.Data)
	if err != nil {
		return fmt.Errorf("failed to marshal notification data: %w", err)
	}

	var requestID *string
	if n.SwapRequestID != "" {
		requestID = &n.SwapRequestID
	}

	query := `INSERT INTO notifications (` + notificationColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (id) DO UPDATE SET read_at = EXCLUDED.read_at`

	_, err = r.conn.Exec(ctx, query,
		n.ID,
		string(n.UserID),
		string(n.Type),
		requestID,
		n.Title,
		n.Body,
		data,
		n.ReadAt,
		n.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to save notification: %w", err)
	}
	return nil
}

// GetByID returns a notification or shared.ErrNotificationNotFound.
func (r *NotificationRepository) GetByID(ctx context.Context, id string) (*notification.Notification, error) {
	query := `SELECT ` + notificationColumns + ` FROM notifications WHERE id = $1`

	n, err := scanNotification(r.conn.QueryRow(ctx, query, id))
	if err != nil {
		if IsNoRows(err) {
			return nil, shared.ErrNotificationNotFound
		}
		return nil, fmt.Errorf("failed to get notification: %w", err)
	}
	return n, nil
}

// ListByUser returns the user's notifications, newest first.
func (r *NotificationRepository) ListByUser(ctx context.Context, userID shared.UserID, opts notification.ListOptions) ([]*notification.Notification, error) {
	query := `SELECT ` + notificationColumns + ` FROM notifications
		WHERE user_id = $1 AND ($2::boolean IS FALSE OR read_at IS NULL)
		ORDER BY created_at DESC, id
		LIMIT $3 OFFSET $4`

	rows, err := r.conn.Query(ctx, query,
		string(userID),
		opts.UnreadOnly,
		opts.Pagination.Limit(),
		opts.Pagination.Offset(),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list notifications: %w", err)
	}
	defer rows.Close()

	out := make([]*notification.Notification, 0)
	for rows.Next() {
		n, err := scanNotification(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan notification: %w", err)
		}
		out = append(out, n)
	}
	return out, rows.Err()
}

// CountUnread counts notifications without a read mark.
func (r *NotificationRepository) CountUnread(ctx context.Context, userID shared.UserID) (int, error) {
	var n int
	err := r.conn.QueryRow(ctx,
		`SELECT count(*) FROM notifications WHERE user_id = $1 AND read_at IS NULL`,
		string(userID),
	).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("failed to count unread notifications: %w", err)
	}
	return n, nil
}

// MarkRead marks the given notifications of the user, or all of them when
// ids is empty. Ids of other users are ignored.
func (r *NotificationRepository) MarkRead(ctx context.Context, userID shared.UserID, ids []string, at time.Time) (int, error) {
	query := `UPDATE notifications SET read_at = $2
		WHERE user_id = $1 AND read_at IS NULL`
	args := []interface{}{string(userID), at}

	if len(ids) > 0 {
		query += ` AND id = ANY($3)`
		args = append(args, ids)
	}

	result, err := r.conn.Exec(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("failed to mark notifications read: %w", err)
	}
	return int(result.RowsAffected()), nil
}

// PurgeRead deletes read notifications created before the given time.
func (r *NotificationRepository) PurgeRead(ctx context.Context, before time.Time) (int64, error) {
	result, err := r.conn.Exec(ctx,
		`DELETE FROM notifications WHERE read_at IS NOT NULL AND created_at < $1`,
		before,
	)
	if err != nil {
		return 0, fmt.Errorf("failed to purge notifications: %w", err)
	}
	return result.RowsAffected(), nil
}

func scanNotification(row rowScanner) (*notification.Notification, error) {
	var (
		n             notification.Notification
		userID, ntype string
		requestID     *string
		data          []byte
	)

	err := row.Scan(
		&n.ID,
		&userID,
		&ntype,
		&requestID,
		&n.Title,
		&n.Body,
		&data,
		&n.ReadAt,
		&n.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	n.UserID = shared.UserID(userID)
	n.Type = notification.Type(ntype)
	if requestID != nil {
		n.SwapRequestID = *requestID
	}
	if len(data) > 0 {
		if err := json.Unmarshal(data, &n.Data); err != nil {
			return nil, fmt.Errorf("failed to unmarshal notification data: %w", err)
		}
	}
	return &n, nil
}
