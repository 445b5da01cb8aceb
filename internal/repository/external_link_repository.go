package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/complykit/request-service/internal/domain"
)

// ErrLinkExists reports a second link creation for the same request. The
// requests→links one-to-one is enforced by a database unique constraint so
// concurrent duplicate submissions surface as a conflict instead of two
// remote issues pointing at one request.
var ErrLinkExists = errors.New("request already has an external issue link")

const uniqueViolationCode = "23505"

// ExternalLinkRepository persists request→remote-issue links.
type ExternalLinkRepository interface {
	Create(ctx context.Context, link *domain.ExternalIssueLink) error
	GetByRequest(ctx context.Context, requestID string) (*domain.ExternalIssueLink, error)
	UpdateTrackerRef(ctx context.Context, id string, trackerRef int64) error
}

type externalLinkRepository struct {
	pool *pgxpool.Pool
}

// NewExternalLinkRepository instantiates repository.
func NewExternalLinkRepository(pool *pgxpool.Pool) ExternalLinkRepository {
	return &externalLinkRepository{pool: pool}
}

func (r *externalLinkRepository) Create(ctx context.Context, link *domain.ExternalIssueLink) error {
	const query = `
        INSERT INTO external_issue_links (dataspace, request_id, platform, repo, issue_id, base_url, tracker_ref)
        VALUES ($1,$2,$3,$4,$5,$6,$7)
        RETURNING id, created_at`
	err := r.pool.QueryRow(ctx, query,
		link.Dataspace,
		link.RequestID,
		link.Platform,
		link.Repo,
		link.IssueID,
		link.BaseURL,
		link.TrackerRef,
	).Scan(&link.ID, &link.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolationCode {
			return ErrLinkExists
		}
		return err
	}
	return nil
}

func (r *externalLinkRepository) GetByRequest(ctx context.Context, requestID string) (*domain.ExternalIssueLink, error) {
	const query = `
        SELECT id, dataspace, request_id, platform, repo, issue_id, base_url, tracker_ref, created_at
        FROM external_issue_links WHERE request_id=$1`
	var link domain.ExternalIssueLink
	if err := r.pool.QueryRow(ctx, query, requestID).Scan(
		&link.ID,
		&link.Dataspace,
		&link.RequestID,
		&link.Platform,
		&link.Repo,
		&link.IssueID,
		&link.BaseURL,
		&link.TrackerRef,
		&link.CreatedAt,
	); err != nil {
		return nil, err
	}
	return &link, nil
}

// UpdateTrackerRef stores a resolved tracker id on the link. The rest of the
// link is immutable once created.
func (r *externalLinkRepository) UpdateTrackerRef(ctx context.Context, id string, trackerRef int64) error {
	const query = `UPDATE external_issue_links SET tracker_ref=$1 WHERE id=$2`
	cmd, err := r.pool.Exec(ctx, query, trackerRef, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}
