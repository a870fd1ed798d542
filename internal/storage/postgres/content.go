package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"content_publisher/internal/domain"
)

var contentColumns = []string{
	"id", "campaign_id", "title", "body", "target_url", "anchor_text",
	"status", "published_at", "updated_at",
}

type contentRow struct {
	ID          string     `db:"id"`
	CampaignID  string     `db:"campaign_id"`
	Title       string     `db:"title"`
	Body        string     `db:"body"`
	TargetURL   string     `db:"target_url"`
	AnchorText  string     `db:"anchor_text"`
	Status      string     `db:"status"`
	PublishedAt *time.Time `db:"published_at"`
	UpdatedAt   time.Time  `db:"updated_at"`
}

func (r contentRow) toDomain() (domain.ContentArtifact, error) {
	status := domain.ContentStatus(r.Status)
	switch status {
	case domain.ContentDraft, domain.ContentPublished, domain.ContentFailed:
	default:
		return domain.ContentArtifact{}, fmt.Errorf("decode artifact %s: unknown status %q", r.ID, r.Status)
	}

	return domain.ContentArtifact{
		ID:          r.ID,
		CampaignID:  r.CampaignID,
		Title:       r.Title,
		Body:        r.Body,
		TargetURL:   r.TargetURL,
		AnchorText:  r.AnchorText,
		Status:      status,
		PublishedAt: r.PublishedAt,
		UpdatedAt:   r.UpdatedAt,
	}, nil
}

type ContentStore struct {
	db *sqlx.DB
}

func NewContentStore(db *sqlx.DB) *ContentStore {
	return &ContentStore{db: db}
}

func (s *ContentStore) Get(ctx context.Context, id string) (*domain.ContentArtifact, error) {
	query, args, err := psql.Select(contentColumns...).
		From("content_artifacts").
		Where(sq.Eq{"id": id}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	return s.getOne(ctx, query, args...)
}

// GetByCampaign returns the most recently updated artifact of the campaign.
func (s *ContentStore) GetByCampaign(ctx context.Context, campaignID string) (*domain.ContentArtifact, error) {
	query, args, err := psql.Select(contentColumns...).
		From("content_artifacts").
		Where(sq.Eq{"campaign_id": campaignID}).
		OrderBy("updated_at DESC", "id").
		Limit(1).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	return s.getOne(ctx, query, args...)
}

func (s *ContentStore) getOne(ctx context.Context, query string, args ...any) (*domain.ContentArtifact, error) {
	var row contentRow
	err := sqlx.GetContext(ctx, GetExecutor(ctx, s.db), &row, query, args...)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrArtifactNotFound
	}
	if err != nil {
		return nil, err
	}

	artifact, err := row.toDomain()
	if err != nil {
		return nil, err
	}
	return &artifact, nil
}

func (s *ContentStore) List(ctx context.Context, filter domain.ContentFilter) ([]domain.ContentArtifact, error) {
	q := psql.Select(contentColumns...).
		From("content_artifacts").
		OrderBy("id")

	if filter.CampaignID != "" {
		q = q.Where(sq.Eq{"campaign_id": filter.CampaignID})
	}
	if len(filter.Statuses) > 0 {
		statuses := make([]string, len(filter.Statuses))
		for i, st := range filter.Statuses {
			statuses[i] = string(st)
		}
		q = q.Where("status = ANY(?)", pq.Array(statuses))
	}
	if filter.Limit > 0 {
		q = q.Limit(uint64(filter.Limit))
	}
	if filter.Offset > 0 {
		q = q.Offset(uint64(filter.Offset))
	}

	query, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var rows []contentRow
	if err := sqlx.SelectContext(ctx, GetExecutor(ctx, s.db), &rows, query, args...); err != nil {
		return nil, err
	}

	artifacts := make([]domain.ContentArtifact, 0, len(rows))
	for _, r := range rows {
		a, err := r.toDomain()
		if err != nil {
			return nil, err
		}
		artifacts = append(artifacts, a)
	}

	return artifacts, nil
}

func (s *ContentStore) Create(ctx context.Context, artifact *domain.ContentArtifact) error {
	if err := artifact.Validate(); err != nil {
		return err
	}
	status := artifact.Status
	if status == "" {
		status = domain.ContentDraft
	}

	query := `
		INSERT INTO content_artifacts (
			id, campaign_id, title, body, target_url, anchor_text, status, published_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING updated_at`

	var updatedAt time.Time
	err := GetExecutor(ctx, s.db).QueryRowxContext(ctx, query,
		artifact.ID,
		artifact.CampaignID,
		artifact.Title,
		artifact.Body,
		artifact.TargetURL,
		artifact.AnchorText,
		string(status),
		artifact.PublishedAt,
	).Scan(&updatedAt)
	if err != nil {
		return err
	}

	artifact.Status = status
	artifact.UpdatedAt = updatedAt
	return nil
}

// UpdateContent writes an adjusted title and body. The first overwritten
// body is kept in original_body.
func (s *ContentStore) UpdateContent(ctx context.Context, id, title, body string) error {
	query := `
		UPDATE content_artifacts SET
			original_body = COALESCE(original_body, body),
			title = $2,
			body = $3,
			updated_at = NOW()
		WHERE id = $1`

	res, err := GetExecutor(ctx, s.db).ExecContext(ctx, query, id, title, body)
	if err != nil {
		return err
	}
	return expectAffected(res, domain.ErrArtifactNotFound)
}

func (s *ContentStore) UpdateStatus(ctx context.Context, id string, status domain.ContentStatus, publishedAt *time.Time) error {
	query := `
		UPDATE content_artifacts SET
			status = $2,
			published_at = COALESCE($3::timestamptz, published_at),
			updated_at = NOW()
		WHERE id = $1`

	res, err := GetExecutor(ctx, s.db).ExecContext(ctx, query, id, string(status), publishedAt)
	if err != nil {
		return err
	}
	return expectAffected(res, domain.ErrArtifactNotFound)
}

func expectAffected(res sql.Result, notFound error) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return notFound
	}
	return nil
}
