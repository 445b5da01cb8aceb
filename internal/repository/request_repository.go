package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/complykit/request-service/internal/domain"
)

// RequestFilter captures listing parameters.
type RequestFilter struct {
	Dataspace   *string
	RequesterID *string
	AssigneeID  *string
	TemplateID  *string
	Statuses    []domain.RequestStatus
	SearchTerm  *string
	CreatedFrom *time.Time
	CreatedTo   *time.Time
	Limit       int
	Offset      int
}

// RequestRepository encapsulates request persistence.
type RequestRepository interface {
	Create(ctx context.Context, request *domain.Request) error
	Update(ctx context.Context, request *domain.Request) error
	GetByID(ctx context.Context, id string) (*domain.Request, error)
	ListWithFilter(ctx context.Context, filter RequestFilter) ([]domain.Request, error)
}

type requestRepository struct {
	pool *pgxpool.Pool
}

// NewRequestRepository instantiates repository.
func NewRequestRepository(pool *pgxpool.Pool) RequestRepository {
	return &requestRepository{pool: pool}
}

func (r *requestRepository) Create(ctx context.Context, request *domain.Request) error {
	const query = `
        INSERT INTO requests (dataspace, template_id, requester_user_id, assignee_user_id, title, notes,
            status, priority, answers, content_type, content_id, product_context, cc_emails)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13)
        RETURNING id, created_at, updated_at`
	contentType, contentID := contentColumns(request.ContentObject)
	return r.pool.QueryRow(ctx, query,
		request.Dataspace,
		request.TemplateID,
		request.RequesterID,
		request.AssigneeID,
		request.Title,
		request.Notes,
		request.Status,
		request.Priority,
		request.Answers,
		contentType,
		contentID,
		request.ProductContext,
		request.CCEmails,
	).Scan(&request.ID, &request.CreatedAt, &request.UpdatedAt)
}

func (r *requestRepository) Update(ctx context.Context, request *domain.Request) error {
	const query = `
        UPDATE requests SET assignee_user_id=$1, title=$2, notes=$3, status=$4, priority=$5,
            answers=$6, content_type=$7, content_id=$8, product_context=$9, cc_emails=$10,
            closed_at=$11, updated_at=NOW()
        WHERE id=$12`
	contentType, contentID := contentColumns(request.ContentObject)
	cmd, err := r.pool.Exec(ctx, query,
		request.AssigneeID,
		request.Title,
		request.Notes,
		request.Status,
		request.Priority,
		request.Answers,
		contentType,
		contentID,
		request.ProductContext,
		request.CCEmails,
		request.ClosedAt,
		request.ID,
	)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *requestRepository) GetByID(ctx context.Context, id string) (*domain.Request, error) {
	const query = `
        SELECT id, dataspace, template_id, requester_user_id, assignee_user_id, title, notes,
               status, priority, answers, content_type, content_id, product_context, cc_emails,
               created_at, updated_at, closed_at
        FROM requests WHERE id=$1`
	var (
		request     domain.Request
		contentType *string
		contentID   *string
	)
	if err := r.pool.QueryRow(ctx, query, id).Scan(
		&request.ID,
		&request.Dataspace,
		&request.TemplateID,
		&request.RequesterID,
		&request.AssigneeID,
		&request.Title,
		&request.Notes,
		&request.Status,
		&request.Priority,
		&request.Answers,
		&contentType,
		&contentID,
		&request.ProductContext,
		&request.CCEmails,
		&request.CreatedAt,
		&request.UpdatedAt,
		&request.ClosedAt,
	); err != nil {
		return nil, err
	}
	request.ContentObject = contentObjectFromColumns(contentType, contentID)
	return &request, nil
}

func (r *requestRepository) ListWithFilter(ctx context.Context, filter RequestFilter) ([]domain.Request, error) {
	base := `SELECT id, dataspace, template_id, requester_user_id, assignee_user_id, title, notes,
                    status, priority, answers, content_type, content_id, product_context, cc_emails,
                    created_at, updated_at, closed_at
             FROM requests`
	clauses := []string{"1=1"}
	args := []any{}

	if filter.Dataspace != nil {
		args = append(args, *filter.Dataspace)
		clauses = append(clauses, fmt.Sprintf("dataspace=$%d", len(args)))
	}
	if filter.RequesterID != nil {
		args = append(args, *filter.RequesterID)
		clauses = append(clauses, fmt.Sprintf("requester_user_id=$%d", len(args)))
	}
	if filter.AssigneeID != nil {
		args = append(args, *filter.AssigneeID)
		clauses = append(clauses, fmt.Sprintf("assignee_user_id=$%d", len(args)))
	}
	if filter.TemplateID != nil {
		args = append(args, *filter.TemplateID)
		clauses = append(clauses, fmt.Sprintf("template_id=$%d", len(args)))
	}
	if len(filter.Statuses) > 0 {
		placeholders := make([]string, len(filter.Statuses))
		for i, status := range filter.Statuses {
			args = append(args, status)
			placeholders[i] = fmt.Sprintf("$%d", len(args))
		}
		clauses = append(clauses, fmt.Sprintf("status IN (%s)", strings.Join(placeholders, ",")))
	}
	if filter.CreatedFrom != nil {
		args = append(args, *filter.CreatedFrom)
		clauses = append(clauses, fmt.Sprintf("created_at >= $%d", len(args)))
	}
	if filter.CreatedTo != nil {
		args = append(args, *filter.CreatedTo)
		clauses = append(clauses, fmt.Sprintf("created_at <= $%d", len(args)))
	}
	if filter.SearchTerm != nil && strings.TrimSpace(*filter.SearchTerm) != "" {
		search := "%" + strings.ToLower(strings.TrimSpace(*filter.SearchTerm)) + "%"
		args = append(args, search)
		placeholder := fmt.Sprintf("$%d", len(args))
		clauses = append(clauses, fmt.Sprintf("(LOWER(title) LIKE %s OR LOWER(notes) LIKE %s)", placeholder, placeholder))
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = 20
	}
	offset := filter.Offset
	if offset < 0 {
		offset = 0
	}

	query := fmt.Sprintf(`%s WHERE %s ORDER BY updated_at DESC LIMIT %d OFFSET %d`,
		base, strings.Join(clauses, " AND "), limit, offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanRequests(rows)
}

func scanRequests(rows pgx.Rows) ([]domain.Request, error) {
	var result []domain.Request
	for rows.Next() {
		var (
			request     domain.Request
			contentType *string
			contentID   *string
		)
		if err := rows.Scan(
			&request.ID,
			&request.Dataspace,
			&request.TemplateID,
			&request.RequesterID,
			&request.AssigneeID,
			&request.Title,
			&request.Notes,
			&request.Status,
			&request.Priority,
			&request.Answers,
			&contentType,
			&contentID,
			&request.ProductContext,
			&request.CCEmails,
			&request.CreatedAt,
			&request.UpdatedAt,
			&request.ClosedAt,
		); err != nil {
			return nil, err
		}
		request.ContentObject = contentObjectFromColumns(contentType, contentID)
		result = append(result, request)
	}
	return result, rows.Err()
}

func contentColumns(obj *domain.ContentObject) (contentType, contentID *string) {
	if obj == nil {
		return nil, nil
	}
	return &obj.Type, &obj.ID
}

func contentObjectFromColumns(contentType, contentID *string) *domain.ContentObject {
	if contentType == nil || contentID == nil {
		return nil
	}
	return &domain.ContentObject{Type: *contentType, ID: *contentID}
}
