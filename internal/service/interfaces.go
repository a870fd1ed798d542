package service

//go:generate mockgen -source=interfaces.go -destination=mocks/mocks.go -package=mocks

import (
	"context"
	"time"

	"content_publisher/internal/domain"
)

type ContentStore interface {
	Get(ctx context.Context, id string) (*domain.ContentArtifact, error)
	GetByCampaign(ctx context.Context, campaignID string) (*domain.ContentArtifact, error)
	List(ctx context.Context, filter domain.ContentFilter) ([]domain.ContentArtifact, error)
	Create(ctx context.Context, artifact *domain.ContentArtifact) error
	UpdateContent(ctx context.Context, id, title, body string) error
	UpdateStatus(ctx context.Context, id string, status domain.ContentStatus, publishedAt *time.Time) error
}

type LinkStore interface {
	ListByCampaign(ctx context.Context, campaignID string) ([]domain.PublishedLinkRecord, error)
	Insert(ctx context.Context, record *domain.PublishedLinkRecord) (int64, error)
}

type CampaignStore interface {
	Get(ctx context.Context, id string) (*domain.Campaign, error)
	UpdateStatus(ctx context.Context, id string, status domain.CampaignStatus) error
	MarkCompleted(ctx context.Context, id string, at time.Time) error
}

type TransactionManager interface {
	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

type EventPublisher interface {
	PublishCampaignCompleted(ctx context.Context, report domain.CompletionReport) error
	PublishContentAdjusted(ctx context.Context, result domain.AdjustmentResult) error
	Close() error
}

// Catalog is the read side of the platform registry.
type Catalog interface {
	ListActive() []domain.PlatformDescriptor
	Canonicalize(raw string) string
}

// Destination publishes one post to an external platform and returns its URL.
type Destination interface {
	ID() string
	Publish(ctx context.Context, title, body string) (string, error)
}

type Generator interface {
	Generate(ctx context.Context, campaign domain.Campaign) (*domain.ContentArtifact, error)
}

type Adjuster interface {
	Adjust(artifact domain.ContentArtifact) domain.AdjustmentResult
}
