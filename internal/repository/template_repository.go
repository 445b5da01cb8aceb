package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/complykit/request-service/internal/domain"
)

// TemplateRepository persists request templates and their question schema.
type TemplateRepository interface {
	Create(ctx context.Context, template *domain.RequestTemplate) error
	GetByID(ctx context.Context, id string) (*domain.RequestTemplate, error)
	ListByDataspace(ctx context.Context, dataspace string) ([]domain.RequestTemplate, error)
}

type templateRepository struct {
	pool *pgxpool.Pool
}

// NewTemplateRepository instantiates repository.
func NewTemplateRepository(pool *pgxpool.Pool) TemplateRepository {
	return &templateRepository{pool: pool}
}

func (r *templateRepository) Create(ctx context.Context, template *domain.RequestTemplate) error {
	const insertTemplate = `
        INSERT INTO request_templates (dataspace, name, description, issue_tracker_id)
        VALUES ($1,$2,$3,$4)
        RETURNING id, created_at, updated_at`
	if err := r.pool.QueryRow(ctx, insertTemplate,
		template.Dataspace,
		template.Name,
		template.Description,
		template.IssueTrackerID,
	).Scan(&template.ID, &template.CreatedAt, &template.UpdatedAt); err != nil {
		return err
	}

	const insertQuestion = `
        INSERT INTO template_questions (template_id, label, input_type, required, position)
        VALUES ($1,$2,$3,$4,$5)
        RETURNING id, created_at`
	for i := range template.Questions {
		q := &template.Questions[i]
		q.TemplateID = template.ID
		if err := r.pool.QueryRow(ctx, insertQuestion,
			q.TemplateID,
			q.Label,
			q.InputType,
			q.Required,
			q.Position,
		).Scan(&q.ID, &q.CreatedAt); err != nil {
			return err
		}
	}
	return nil
}

func (r *templateRepository) GetByID(ctx context.Context, id string) (*domain.RequestTemplate, error) {
	const query = `
        SELECT id, dataspace, name, description, issue_tracker_id, created_at, updated_at
        FROM request_templates WHERE id=$1`
	var template domain.RequestTemplate
	if err := r.pool.QueryRow(ctx, query, id).Scan(
		&template.ID,
		&template.Dataspace,
		&template.Name,
		&template.Description,
		&template.IssueTrackerID,
		&template.CreatedAt,
		&template.UpdatedAt,
	); err != nil {
		return nil, err
	}
	questions, err := r.questionsForTemplate(ctx, template.ID)
	if err != nil {
		return nil, err
	}
	template.Questions = questions
	return &template, nil
}

func (r *templateRepository) ListByDataspace(ctx context.Context, dataspace string) ([]domain.RequestTemplate, error) {
	const query = `
        SELECT id, dataspace, name, description, issue_tracker_id, created_at, updated_at
        FROM request_templates WHERE dataspace=$1 ORDER BY name ASC`
	rows, err := r.pool.Query(ctx, query, dataspace)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.RequestTemplate
	for rows.Next() {
		var template domain.RequestTemplate
		if err := rows.Scan(
			&template.ID,
			&template.Dataspace,
			&template.Name,
			&template.Description,
			&template.IssueTrackerID,
			&template.CreatedAt,
			&template.UpdatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, template)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	for i := range result {
		questions, err := r.questionsForTemplate(ctx, result[i].ID)
		if err != nil {
			return nil, err
		}
		result[i].Questions = questions
	}
	return result, nil
}

func (r *templateRepository) questionsForTemplate(ctx context.Context, templateID string) ([]domain.Question, error) {
	const query = `
        SELECT id, template_id, label, input_type, required, position, created_at
        FROM template_questions WHERE template_id=$1 ORDER BY position ASC`
	rows, err := r.pool.Query(ctx, query, templateID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var questions []domain.Question
	for rows.Next() {
		var q domain.Question
		if err := rows.Scan(
			&q.ID,
			&q.TemplateID,
			&q.Label,
			&q.InputType,
			&q.Required,
			&q.Position,
			&q.CreatedAt,
		); err != nil {
			return nil, err
		}
		questions = append(questions, q)
	}
	return questions, rows.Err()
}
