package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/complykit/request-service/internal/domain"
)

// RequestEventRepository persists the append-only audit log.
type RequestEventRepository interface {
	Create(ctx context.Context, event *domain.RequestEvent) error
	ListByRequest(ctx context.Context, requestID string, limit, offset int) ([]domain.RequestEvent, error)
}

type requestEventRepository struct {
	pool *pgxpool.Pool
}

// NewRequestEventRepository instantiates repository.
func NewRequestEventRepository(pool *pgxpool.Pool) RequestEventRepository {
	return &requestEventRepository{pool: pool}
}

func (r *requestEventRepository) Create(ctx context.Context, event *domain.RequestEvent) error {
	const query = `
        INSERT INTO request_events (request_id, actor_user_id, kind, text)
        VALUES ($1,$2,$3,$4)
        RETURNING id, created_at`
	return r.pool.QueryRow(ctx, query,
		event.RequestID,
		event.ActorID,
		event.Kind,
		event.Text,
	).Scan(&event.ID, &event.CreatedAt)
}

func (r *requestEventRepository) ListByRequest(ctx context.Context, requestID string, limit, offset int) ([]domain.RequestEvent, error) {
	if limit <= 0 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}
	const query = `
        SELECT id, request_id, actor_user_id, kind, text, created_at
        FROM request_events WHERE request_id=$1
        ORDER BY created_at ASC LIMIT $2 OFFSET $3`
	rows, err := r.pool.Query(ctx, query, requestID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.RequestEvent
	for rows.Next() {
		var event domain.RequestEvent
		if err := rows.Scan(
			&event.ID,
			&event.RequestID,
			&event.ActorID,
			&event.Kind,
			&event.Text,
			&event.CreatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, event)
	}
	return result, rows.Err()
}
