package database

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/staffboard/staffboard/internal/domain"
)

const notificationColumns = `id, recipient_id, type, title, body, payload, priority, is_read, read_at, related_id, created_at`

// NotificationRepo implements domain.NotificationRepository backed by PostgreSQL.
type NotificationRepo struct {
	pool *pgxpool.Pool
}

func NewNotificationRepo(pool *pgxpool.Pool) *NotificationRepo {
	return &NotificationRepo{pool: pool}
}

func scanNotification(row pgx.Row) (*domain.Notification, error) {
	var n domain.Notification
	err := row.Scan(
		&n.ID, &n.RecipientID, &n.Type, &n.Title, &n.Body, &n.Payload,
		&n.Priority, &n.IsRead, &n.ReadAt, &n.RelatedID, &n.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrNotificationNotFound
	}
	if err != nil {
		return nil, err
	}
	return &n, nil
}

// CreateBatch bulk-inserts the notifications with COPY and returns the
// row count actually written. Callers must pre-assign IDs and CreatedAt.
func (r *NotificationRepo) CreateBatch(ctx context.Context, notifications []domain.Notification) (int, error) {
	if len(notifications) == 0 {
		return 0, nil
	}

	rows := make([][]any, len(notifications))
	for i, n := range notifications {
		rows[i] = []any{
			n.ID, n.RecipientID, string(n.Type), n.Title, n.Body, n.Payload,
			string(n.Priority), n.IsRead, n.ReadAt, n.RelatedID, n.CreatedAt,
		}
	}

	copied, err := r.pool.CopyFrom(ctx,
		pgx.Identifier{"notifications"},
		[]string{"id", "recipient_id", "type", "title", "body", "payload", "priority", "is_read", "read_at", "related_id", "created_at"},
		pgx.CopyFromRows(rows),
	)
	if err != nil {
		return int(copied), fmt.Errorf("failed to batch insert notifications: %w", err)
	}
	return int(copied), nil
}

func (r *NotificationRepo) ListForRecipient(ctx context.Context, recipientID uuid.UUID, limit int) ([]domain.Notification, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+notificationColumns+` FROM notifications
		 WHERE recipient_id = $1
		 ORDER BY created_at DESC
		 LIMIT $2`,
		recipientID, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list notifications: %w", err)
	}
	defer rows.Close()

	var notifications []domain.Notification
	for rows.Next() {
		var n domain.Notification
		if err := rows.Scan(
			&n.ID, &n.RecipientID, &n.Type, &n.Title, &n.Body, &n.Payload,
			&n.Priority, &n.IsRead, &n.ReadAt, &n.RelatedID, &n.CreatedAt,
		); err != nil {
			return nil, err
		}
		notifications = append(notifications, n)
	}
	return notifications, rows.Err()
}

func (r *NotificationRepo) UnreadCount(ctx context.Context, recipientID uuid.UUID) (int, error) {
	var count int
	err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM notifications WHERE recipient_id = $1 AND NOT is_read`,
		recipientID,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count unread notifications: %w", err)
	}
	return count, nil
}

// MarkRead flips is_read on the unread→read transition. Re-marking an
// already-read notification returns it unchanged with its original
// read_at, so the operation is idempotent.
func (r *NotificationRepo) MarkRead(ctx context.Context, notificationID, recipientID uuid.UUID) (*domain.Notification, error) {
	n, err := scanNotification(r.pool.QueryRow(ctx, `
		UPDATE notifications SET is_read = TRUE, read_at = NOW()
		WHERE id = $1 AND recipient_id = $2 AND NOT is_read
		RETURNING `+notificationColumns,
		notificationID, recipientID,
	))
	if errors.Is(err, domain.ErrNotificationNotFound) {
		// Either already read or genuinely missing; re-fetch to tell apart.
		return scanNotification(r.pool.QueryRow(ctx,
			`SELECT `+notificationColumns+` FROM notifications WHERE id = $1 AND recipient_id = $2`,
			notificationID, recipientID,
		))
	}
	return n, err
}

func (r *NotificationRepo) MarkAllRead(ctx context.Context, recipientID uuid.UUID) (int, error) {
	tag, err := r.pool.Exec(ctx,
		`UPDATE notifications SET is_read = TRUE, read_at = NOW()
		 WHERE recipient_id = $1 AND NOT is_read`,
		recipientID,
	)
	if err != nil {
		return 0, fmt.Errorf("failed to mark all read: %w", err)
	}
	return int(tag.RowsAffected()), nil
}

func (r *NotificationRepo) PurgeRead(ctx context.Context, olderThan time.Time) (int64, error) {
	tag, err := r.pool.Exec(ctx,
		`DELETE FROM notifications WHERE is_read AND created_at < $1`,
		olderThan,
	)
	if err != nil {
		return 0, fmt.Errorf("failed to purge notifications: %w", err)
	}
	return tag.RowsAffected(), nil
}
