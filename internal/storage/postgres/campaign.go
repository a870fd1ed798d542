package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"content_publisher/internal/domain"
)

type campaignRow struct {
	ID          string     `db:"id"`
	Keyword     string     `db:"keyword"`
	AnchorText  string     `db:"anchor_text"`
	TargetURL   string     `db:"target_url"`
	Status      string     `db:"status"`
	CreatedAt   time.Time  `db:"created_at"`
	CompletedAt *time.Time `db:"completed_at"`
}

func (r campaignRow) toDomain() (domain.Campaign, error) {
	status := domain.CampaignStatus(r.Status)
	switch status {
	case domain.CampaignPending, domain.CampaignPublishing, domain.CampaignCompleted:
	default:
		return domain.Campaign{}, fmt.Errorf("decode campaign %s: unknown status %q", r.ID, r.Status)
	}

	return domain.Campaign{
		ID:          r.ID,
		Keyword:     r.Keyword,
		AnchorText:  r.AnchorText,
		TargetURL:   r.TargetURL,
		Status:      status,
		CreatedAt:   r.CreatedAt,
		CompletedAt: r.CompletedAt,
	}, nil
}

type CampaignStore struct {
	db *sqlx.DB
}

func NewCampaignStore(db *sqlx.DB) *CampaignStore {
	return &CampaignStore{db: db}
}

func (s *CampaignStore) Get(ctx context.Context, id string) (*domain.Campaign, error) {
	query := `
		SELECT id, keyword, anchor_text, target_url, status, created_at, completed_at
		FROM campaigns
		WHERE id = $1`

	var row campaignRow
	err := sqlx.GetContext(ctx, GetExecutor(ctx, s.db), &row, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrCampaignNotFound
	}
	if err != nil {
		return nil, err
	}

	campaign, err := row.toDomain()
	if err != nil {
		return nil, err
	}
	return &campaign, nil
}

func (s *CampaignStore) Create(ctx context.Context, campaign *domain.Campaign) error {
	status := campaign.Status
	if status == "" {
		status = domain.CampaignPending
	}

	query := `
		INSERT INTO campaigns (id, keyword, anchor_text, target_url, status)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING created_at`

	err := GetExecutor(ctx, s.db).QueryRowxContext(ctx, query,
		campaign.ID,
		campaign.Keyword,
		campaign.AnchorText,
		campaign.TargetURL,
		string(status),
	).Scan(&campaign.CreatedAt)
	if err != nil {
		return err
	}

	campaign.Status = status
	return nil
}

// UpdateStatus clears completed_at unless the new status is completed.
func (s *CampaignStore) UpdateStatus(ctx context.Context, id string, status domain.CampaignStatus) error {
	res, err := GetExecutor(ctx, s.db).ExecContext(ctx,
		`UPDATE campaigns SET
			status = $2::text,
			completed_at = CASE WHEN $2::text = 'completed' THEN completed_at END
		WHERE id = $1`,
		id, string(status),
	)
	if err != nil {
		return err
	}
	return expectAffected(res, domain.ErrCampaignNotFound)
}

// MarkCompleted keeps the first completion time on repeated calls.
func (s *CampaignStore) MarkCompleted(ctx context.Context, id string, at time.Time) error {
	query := `
		UPDATE campaigns SET
			status = 'completed',
			completed_at = COALESCE(completed_at, $2)
		WHERE id = $1`

	res, err := GetExecutor(ctx, s.db).ExecContext(ctx, query, id, at)
	if err != nil {
		return err
	}
	return expectAffected(res, domain.ErrCampaignNotFound)
}
