//go:build integration

package postgres

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/stretchr/testify/suite"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"content_publisher/internal/domain"
	"content_publisher/internal/platform"
	"content_publisher/testdata/utils"
)

type PostgresIntegrationSuite struct {
	suite.Suite
	ctx       context.Context
	container *postgres.PostgresContainer
	db        *sqlx.DB
}

func (s *PostgresIntegrationSuite) SetupSuite() {
	s.ctx = context.Background()

	migrationsPath, err := filepath.Abs("../../../migrations")
	s.Require().NoError(err)

	container, err := postgres.Run(s.ctx,
		"postgres:16-alpine",
		postgres.WithDatabase("test_db"),
		postgres.WithUsername("test"),
		postgres.WithPassword("test"),
		postgres.WithInitScripts(
			filepath.Join(migrationsPath, "001_create_campaigns.up.sql"),
			filepath.Join(migrationsPath, "002_create_content_artifacts.up.sql"),
			filepath.Join(migrationsPath, "003_create_published_links.up.sql"),
		),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second),
		),
	)
	s.Require().NoError(err)
	s.container = container

	connStr, err := container.ConnectionString(s.ctx, "sslmode=disable")
	s.Require().NoError(err)

	db, err := Open(s.ctx, connStr)
	s.Require().NoError(err)
	s.db = db
}

func (s *PostgresIntegrationSuite) TearDownSuite() {
	if s.db != nil {
		s.db.Close()
	}
	if s.container != nil {
		_ = s.container.Terminate(s.ctx)
	}
}

func (s *PostgresIntegrationSuite) SetupTest() {
	_, _ = s.db.ExecContext(s.ctx, "DELETE FROM published_links")
	_, _ = s.db.ExecContext(s.ctx, "DELETE FROM content_artifacts")
	_, _ = s.db.ExecContext(s.ctx, "DELETE FROM campaigns")
}

func TestPostgresIntegrationSuite(t *testing.T) {
	suite.Run(t, new(PostgresIntegrationSuite))
}

func (s *PostgresIntegrationSuite) createCampaign(id string) {
	err := NewCampaignStore(s.db).Create(s.ctx, &domain.Campaign{
		ID:         id,
		Keyword:    "indoor herbs",
		AnchorText: "herb kits",
		TargetURL:  "https://example.com/herbs",
	})
	s.Require().NoError(err)
}

func (s *PostgresIntegrationSuite) TestCampaignStore_CreateAndGet() {
	s.createCampaign("c-1")

	got, err := NewCampaignStore(s.db).Get(s.ctx, "c-1")
	s.Require().NoError(err)
	s.Equal("indoor herbs", got.Keyword)
	s.Equal(domain.CampaignPending, got.Status)
	s.Nil(got.CompletedAt)
	s.False(got.CreatedAt.IsZero())
}

func (s *PostgresIntegrationSuite) TestCampaignStore_GetMissing() {
	_, err := NewCampaignStore(s.db).Get(s.ctx, "nope")
	s.ErrorIs(err, domain.ErrCampaignNotFound)
}

func (s *PostgresIntegrationSuite) TestCampaignStore_MarkCompletedKeepsFirstTime() {
	s.createCampaign("c-1")
	store := NewCampaignStore(s.db)
	first := time.Now().Add(-time.Hour).Truncate(time.Microsecond)

	s.Require().NoError(store.MarkCompleted(s.ctx, "c-1", first))
	s.Require().NoError(store.MarkCompleted(s.ctx, "c-1", time.Now()))

	got, err := store.Get(s.ctx, "c-1")
	s.Require().NoError(err)
	s.Equal(domain.CampaignCompleted, got.Status)
	s.Require().NotNil(got.CompletedAt)
	s.True(first.Equal(*got.CompletedAt))
}

func (s *PostgresIntegrationSuite) TestCampaignStore_ReopenClearsCompletedAt() {
	s.createCampaign("c-1")
	store := NewCampaignStore(s.db)
	first := time.Now().Add(-time.Hour).Truncate(time.Microsecond)

	s.Require().NoError(store.MarkCompleted(s.ctx, "c-1", first))
	s.Require().NoError(store.UpdateStatus(s.ctx, "c-1", domain.CampaignPublishing))

	got, err := store.Get(s.ctx, "c-1")
	s.Require().NoError(err)
	s.Equal(domain.CampaignPublishing, got.Status)
	s.Nil(got.CompletedAt)

	second := time.Now().Truncate(time.Microsecond)
	s.Require().NoError(store.MarkCompleted(s.ctx, "c-1", second))

	got, err = store.Get(s.ctx, "c-1")
	s.Require().NoError(err)
	s.Require().NotNil(got.CompletedAt)
	s.True(second.Equal(*got.CompletedAt))
}

func (s *PostgresIntegrationSuite) TestContentStore_CreateGetAndUpdate() {
	s.createCampaign("c-1")
	store := NewContentStore(s.db)

	artifact := &domain.ContentArtifact{
		ID:         "a-1",
		CampaignID: "c-1",
		Title:      "draft",
		Body:       "**Broken** <div></div>",
		TargetURL:  "https://example.com/herbs",
	}
	s.Require().NoError(store.Create(s.ctx, artifact))
	s.Equal(domain.ContentDraft, artifact.Status)

	s.Require().NoError(store.UpdateContent(s.ctx, "a-1", "Fixed", "<p><strong>Broken</strong></p>"))
	s.Require().NoError(store.UpdateContent(s.ctx, "a-1", "Fixed Again", "<p>second</p>"))

	got, err := store.Get(s.ctx, "a-1")
	s.Require().NoError(err)
	s.Equal("Fixed Again", got.Title)
	s.Equal("<p>second</p>", got.Body)

	var original string
	s.Require().NoError(s.db.GetContext(s.ctx, &original, "SELECT original_body FROM content_artifacts WHERE id = $1", "a-1"))
	s.Equal("**Broken** <div></div>", original)
}

func (s *PostgresIntegrationSuite) TestContentStore_UpdateMissing() {
	err := NewContentStore(s.db).UpdateContent(s.ctx, "nope", "t", "b")
	s.ErrorIs(err, domain.ErrArtifactNotFound)
}

func (s *PostgresIntegrationSuite) TestContentStore_UpdateStatus() {
	s.createCampaign("c-1")
	store := NewContentStore(s.db)
	s.Require().NoError(store.Create(s.ctx, &domain.ContentArtifact{ID: "a-1", CampaignID: "c-1"}))

	at := time.Now().Truncate(time.Microsecond)
	s.Require().NoError(store.UpdateStatus(s.ctx, "a-1", domain.ContentPublished, utils.Ptr(at)))
	s.Require().NoError(store.UpdateStatus(s.ctx, "a-1", domain.ContentPublished, nil))

	got, err := store.GetByCampaign(s.ctx, "c-1")
	s.Require().NoError(err)
	s.Equal(domain.ContentPublished, got.Status)
	s.Require().NotNil(got.PublishedAt)
	s.True(at.Equal(*got.PublishedAt))
}

func (s *PostgresIntegrationSuite) TestContentStore_GetByCampaignMissing() {
	s.createCampaign("c-1")
	_, err := NewContentStore(s.db).GetByCampaign(s.ctx, "c-1")
	s.ErrorIs(err, domain.ErrArtifactNotFound)
}

func (s *PostgresIntegrationSuite) TestContentStore_ListFilterAndPaging() {
	s.createCampaign("c-1")
	s.createCampaign("c-2")
	store := NewContentStore(s.db)

	for _, a := range []domain.ContentArtifact{
		{ID: "a-1", CampaignID: "c-1"},
		{ID: "a-2", CampaignID: "c-1", Status: domain.ContentPublished},
		{ID: "a-3", CampaignID: "c-1"},
		{ID: "b-1", CampaignID: "c-2"},
	} {
		s.Require().NoError(store.Create(s.ctx, &a))
	}

	page, err := store.List(s.ctx, domain.ContentFilter{CampaignID: "c-1", Limit: 2})
	s.Require().NoError(err)
	s.Equal([]string{"a-1", "a-2"}, ids(page))

	page, err = store.List(s.ctx, domain.ContentFilter{CampaignID: "c-1", Limit: 2, Offset: 2})
	s.Require().NoError(err)
	s.Equal([]string{"a-3"}, ids(page))

	drafts, err := store.List(s.ctx, domain.ContentFilter{Statuses: []domain.ContentStatus{domain.ContentDraft}})
	s.Require().NoError(err)
	s.Equal([]string{"a-1", "a-3", "b-1"}, ids(drafts))
}

func ids(artifacts []domain.ContentArtifact) []string {
	out := make([]string, len(artifacts))
	for i, a := range artifacts {
		out[i] = a.ID
	}
	return out
}

func (s *PostgresIntegrationSuite) TestLinkStore_InsertAndEvaluate() {
	s.createCampaign("c-1")
	store := NewLinkStore(s.db)

	for _, rec := range []domain.PublishedLinkRecord{
		{CampaignID: "c-1", Platform: "Telegra.ph", URL: "https://telegra.ph/a", Status: domain.LinkActive},
		{CampaignID: "c-1", Platform: "write.as", Status: domain.LinkFailed},
	} {
		id, err := store.Insert(s.ctx, &rec)
		s.Require().NoError(err)
		s.Greater(id, int64(0))
	}

	records, err := store.ListByCampaign(s.ctx, "c-1")
	s.Require().NoError(err)
	s.Len(records, 2)

	registry := platform.NewRegistry([]domain.PlatformDescriptor{
		{ID: "telegraph", Active: true, Priority: 1},
		{ID: "writeas", Active: true, Priority: 2},
	})
	report := registry.Evaluate("c-1", records)
	s.Equal([]string{"telegraph"}, report.Satisfied)
	s.Equal([]string{"writeas"}, report.Missing)
}

func (s *PostgresIntegrationSuite) TestLinkStore_InsertRejectsUnknownStatus() {
	s.createCampaign("c-1")
	_, err := NewLinkStore(s.db).Insert(s.ctx, &domain.PublishedLinkRecord{CampaignID: "c-1", Platform: "x", Status: "pending"})
	s.Error(err)
}

func (s *PostgresIntegrationSuite) TestTransactionManager_RollsBack() {
	s.createCampaign("c-1")
	tm := NewTransactionManager(s.db)
	links := NewLinkStore(s.db)

	err := tm.WithTransaction(s.ctx, func(txCtx context.Context) error {
		if _, err := links.Insert(txCtx, &domain.PublishedLinkRecord{CampaignID: "c-1", Platform: "telegraph", Status: domain.LinkActive}); err != nil {
			return err
		}
		return errors.New("abort")
	})
	s.Error(err)

	records, err := links.ListByCampaign(s.ctx, "c-1")
	s.Require().NoError(err)
	s.Empty(records)
}
