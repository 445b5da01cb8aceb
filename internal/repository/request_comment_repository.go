package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/complykit/request-service/internal/domain"
)

// RequestCommentRepository persists request discussion.
type RequestCommentRepository interface {
	Create(ctx context.Context, comment *domain.RequestComment) error
	ListByRequest(ctx context.Context, requestID string) ([]domain.RequestComment, error)
}

type requestCommentRepository struct {
	pool *pgxpool.Pool
}

// NewRequestCommentRepository instantiates repository.
func NewRequestCommentRepository(pool *pgxpool.Pool) RequestCommentRepository {
	return &requestCommentRepository{pool: pool}
}

func (r *requestCommentRepository) Create(ctx context.Context, comment *domain.RequestComment) error {
	const query = `
        INSERT INTO request_comments (request_id, author_user_id, text)
        VALUES ($1,$2,$3)
        RETURNING id, created_at`
	return r.pool.QueryRow(ctx, query,
		comment.RequestID,
		comment.AuthorID,
		comment.Text,
	).Scan(&comment.ID, &comment.CreatedAt)
}

func (r *requestCommentRepository) ListByRequest(ctx context.Context, requestID string) ([]domain.RequestComment, error) {
	const query = `
        SELECT id, request_id, author_user_id, text, created_at
        FROM request_comments WHERE request_id=$1
        ORDER BY created_at ASC`
	rows, err := r.pool.Query(ctx, query, requestID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.RequestComment
	for rows.Next() {
		var comment domain.RequestComment
		if err := rows.Scan(
			&comment.ID,
			&comment.RequestID,
			&comment.AuthorID,
			&comment.Text,
			&comment.CreatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, comment)
	}
	return result, rows.Err()
}
