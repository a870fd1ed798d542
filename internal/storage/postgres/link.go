package postgres

import (
	"context"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/jmoiron/sqlx"

	"content_publisher/internal/domain"
)

type linkRow struct {
	ID          int64     `db:"id"`
	CampaignID  string    `db:"campaign_id"`
	Platform    string    `db:"platform"`
	URL         string    `db:"url"`
	Title       string    `db:"title"`
	Status      string    `db:"status"`
	PublishedAt time.Time `db:"published_at"`
}

func (r linkRow) toDomain() (domain.PublishedLinkRecord, error) {
	status := domain.LinkStatus(r.Status)
	if !status.Valid() {
		return domain.PublishedLinkRecord{}, fmt.Errorf("decode link record %d: unknown status %q", r.ID, r.Status)
	}

	return domain.PublishedLinkRecord{
		ID:          r.ID,
		CampaignID:  r.CampaignID,
		Platform:    r.Platform,
		URL:         r.URL,
		Title:       r.Title,
		Status:      status,
		PublishedAt: r.PublishedAt,
	}, nil
}

type LinkStore struct {
	db *sqlx.DB
}

func NewLinkStore(db *sqlx.DB) *LinkStore {
	return &LinkStore{db: db}
}

func (s *LinkStore) ListByCampaign(ctx context.Context, campaignID string) ([]domain.PublishedLinkRecord, error) {
	query, args, err := psql.
		Select("id", "campaign_id", "platform", "url", "title", "status", "published_at").
		From("published_links").
		Where(sq.Eq{"campaign_id": campaignID}).
		OrderBy("published_at", "id").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var rows []linkRow
	if err := sqlx.SelectContext(ctx, GetExecutor(ctx, s.db), &rows, query, args...); err != nil {
		return nil, err
	}

	records := make([]domain.PublishedLinkRecord, 0, len(rows))
	for _, r := range rows {
		rec, err := r.toDomain()
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}

	return records, nil
}

func (s *LinkStore) Insert(ctx context.Context, record *domain.PublishedLinkRecord) (int64, error) {
	if !record.Status.Valid() {
		return 0, fmt.Errorf("insert link record: unknown status %q", record.Status)
	}

	publishedAt := record.PublishedAt
	if publishedAt.IsZero() {
		publishedAt = time.Now()
	}

	query := `
		INSERT INTO published_links (campaign_id, platform, url, title, status, published_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id`

	var id int64
	err := GetExecutor(ctx, s.db).QueryRowxContext(ctx, query,
		record.CampaignID,
		record.Platform,
		record.URL,
		record.Title,
		string(record.Status),
		publishedAt,
	).Scan(&id)
	if err != nil {
		return 0, err
	}

	return id, nil
}
