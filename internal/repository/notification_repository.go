package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/complykit/request-service/internal/domain"
)

// NotificationRepository persists in-app notifications.
type NotificationRepository interface {
	Create(ctx context.Context, notification *domain.Notification) error
	ListByRecipient(ctx context.Context, recipientID string, unreadOnly bool, limit, offset int) ([]domain.Notification, error)
	MarkRead(ctx context.Context, id string) error
}

type notificationRepository struct {
	pool *pgxpool.Pool
}

// NewNotificationRepository instantiates repository.
func NewNotificationRepository(pool *pgxpool.Pool) NotificationRepository {
	return &notificationRepository{pool: pool}
}

func (r *notificationRepository) Create(ctx context.Context, notification *domain.Notification) error {
	const query = `
        INSERT INTO notifications (dataspace, recipient_user_id, actor_user_id, request_id, verb, description, unread)
        VALUES ($1,$2,$3,$4,$5,$6,$7)
        RETURNING id, created_at`
	return r.pool.QueryRow(ctx, query,
		notification.Dataspace,
		notification.RecipientID,
		notification.ActorID,
		notification.RequestID,
		notification.Verb,
		notification.Description,
		notification.Unread,
	).Scan(&notification.ID, &notification.CreatedAt)
}

func (r *notificationRepository) ListByRecipient(ctx context.Context, recipientID string, unreadOnly bool, limit, offset int) ([]domain.Notification, error) {
	if limit <= 0 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	query := `
        SELECT id, dataspace, recipient_user_id, actor_user_id, request_id, verb, description, unread, created_at
        FROM notifications WHERE recipient_user_id=$1`
	if unreadOnly {
		query += ` AND unread=TRUE`
	}
	query += ` ORDER BY created_at DESC LIMIT $2 OFFSET $3`

	rows, err := r.pool.Query(ctx, query, recipientID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.Notification
	for rows.Next() {
		var n domain.Notification
		if err := rows.Scan(
			&n.ID,
			&n.Dataspace,
			&n.RecipientID,
			&n.ActorID,
			&n.RequestID,
			&n.Verb,
			&n.Description,
			&n.Unread,
			&n.CreatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, n)
	}
	return result, rows.Err()
}

func (r *notificationRepository) MarkRead(ctx context.Context, id string) error {
	const query = `UPDATE notifications SET unread=FALSE WHERE id=$1`
	_, err := r.pool.Exec(ctx, query, id)
	return err
}
