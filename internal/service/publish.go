package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"content_publisher/internal/domain"
	"content_publisher/internal/platform"
)

var ErrUnknownDestination = errors.New("unknown destination")

// PublishOutcome describes one publish step. Record is nil when the campaign
// was already complete and nothing was published.
type PublishOutcome struct {
	Record     *domain.PublishedLinkRecord
	Completion domain.CompletionReport
}

type PublishService struct {
	catalog      Catalog
	destinations map[string]Destination
	contents     ContentStore
	links        LinkStore
	campaigns    CampaignStore
	txManager    TransactionManager
	tracker      *CompletionTracker
	adjuster     Adjuster
	generator    Generator
	logger       *slog.Logger
	now          func() time.Time
}

func NewPublishService(
	catalog Catalog,
	destinations []Destination,
	contents ContentStore,
	links LinkStore,
	campaigns CampaignStore,
	txManager TransactionManager,
	tracker *CompletionTracker,
	adjuster Adjuster,
	generator Generator,
	logger *slog.Logger,
) *PublishService {
	byID := make(map[string]Destination, len(destinations))
	for _, d := range destinations {
		byID[catalog.Canonicalize(d.ID())] = d
	}

	return &PublishService{
		catalog:      catalog,
		destinations: byID,
		contents:     contents,
		links:        links,
		campaigns:    campaigns,
		txManager:    txManager,
		tracker:      tracker,
		adjuster:     adjuster,
		generator:    generator,
		logger:       logger.With("component", "publish"),
		now:          time.Now,
	}
}

// PublishNext publishes the campaign's artifact to the missing platform with
// the fewest attempts so far. Every attempt is recorded, failed ones with
// status failed, and completion is re-evaluated afterwards.
func (s *PublishService) PublishNext(ctx context.Context, campaignID string) (*PublishOutcome, error) {
	report, err := s.tracker.Sync(ctx, campaignID)
	if err != nil {
		return nil, fmt.Errorf("evaluate campaign: %w", err)
	}
	if report.Completed() {
		return &PublishOutcome{Completion: report}, nil
	}

	campaign, err := s.campaigns.Get(ctx, campaignID)
	if err != nil {
		return nil, fmt.Errorf("get campaign: %w", err)
	}

	artifact, err := s.loadArtifact(ctx, campaign)
	if err != nil {
		return nil, err
	}

	target, err := s.choosePlatform(ctx, campaignID, report.Missing)
	if err != nil {
		return nil, err
	}

	dest, ok := s.destinations[s.catalog.Canonicalize(target.ID)]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownDestination, target.ID)
	}

	if campaign.Status == domain.CampaignPending {
		if err := s.campaigns.UpdateStatus(ctx, campaignID, domain.CampaignPublishing); err != nil {
			return nil, fmt.Errorf("update campaign status: %w", err)
		}
	}

	adjusted := s.adjuster.Adjust(*artifact)

	logger := s.logger.With("campaign_id", campaignID, "platform", target.ID)
	logger.Info("publishing", "title", adjusted.AdjustedTitle)

	url, publishErr := dest.Publish(ctx, adjusted.AdjustedTitle, adjusted.AdjustedContent)

	record := &domain.PublishedLinkRecord{
		CampaignID:  campaignID,
		Platform:    target.ID,
		URL:         url,
		Title:       adjusted.AdjustedTitle,
		Status:      domain.LinkActive,
		PublishedAt: s.now(),
	}
	if publishErr != nil {
		record.Status = domain.LinkFailed
		logger.Error("publish failed", "error", publishErr)
	}

	err = s.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
		id, err := s.links.Insert(txCtx, record)
		if err != nil {
			return fmt.Errorf("insert link record: %w", err)
		}
		record.ID = id

		if record.Status != domain.LinkActive {
			return nil
		}
		publishedAt := record.PublishedAt
		if err := s.contents.UpdateStatus(txCtx, artifact.ID, domain.ContentPublished, &publishedAt); err != nil {
			return fmt.Errorf("update artifact status: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	completion, err := s.tracker.Sync(ctx, campaignID)
	outcome := &PublishOutcome{Record: record, Completion: completion}
	if publishErr != nil {
		return outcome, fmt.Errorf("publish to %s: %w", target.ID, publishErr)
	}
	if err != nil {
		return outcome, fmt.Errorf("sync completion: %w", err)
	}

	logger.Info("published", "url", url, "state", completion.State)

	return outcome, nil
}

// PublishAll attempts each missing platform at most once and stops early
// when the campaign completes.
func (s *PublishService) PublishAll(ctx context.Context, campaignID string) (domain.CompletionReport, error) {
	var errs []error
	attempts := len(s.catalog.ListActive())

	var last domain.CompletionReport
	for i := 0; i < attempts; i++ {
		if err := ctx.Err(); err != nil {
			errs = append(errs, err)
			break
		}

		outcome, err := s.PublishNext(ctx, campaignID)
		if outcome != nil {
			last = outcome.Completion
		}
		if err != nil {
			errs = append(errs, err)
			if outcome == nil {
				break
			}
		}
		if last.Completed() {
			break
		}
	}

	if attempts == 0 {
		return s.tracker.Sync(ctx, campaignID)
	}

	return last, errors.Join(errs...)
}

func (s *PublishService) loadArtifact(ctx context.Context, campaign *domain.Campaign) (*domain.ContentArtifact, error) {
	artifact, err := s.contents.GetByCampaign(ctx, campaign.ID)
	if err == nil {
		return artifact, nil
	}
	if !errors.Is(err, domain.ErrArtifactNotFound) || s.generator == nil {
		return nil, fmt.Errorf("get artifact: %w", err)
	}

	artifact, err = s.generator.Generate(ctx, *campaign)
	if err != nil {
		return nil, fmt.Errorf("generate artifact: %w", err)
	}
	if err := s.contents.Create(ctx, artifact); err != nil {
		return nil, fmt.Errorf("create artifact: %w", err)
	}

	s.logger.Info("generated artifact", "campaign_id", campaign.ID, "artifact_id", artifact.ID)

	return artifact, nil
}

func (s *PublishService) choosePlatform(ctx context.Context, campaignID string, missing []string) (domain.PlatformDescriptor, error) {
	wanted := make(map[string]struct{}, len(missing))
	for _, id := range missing {
		wanted[id] = struct{}{}
	}

	var candidates []domain.PlatformDescriptor
	for _, p := range s.catalog.ListActive() {
		if _, ok := wanted[p.ID]; ok {
			candidates = append(candidates, p)
		}
	}

	records, err := s.links.ListByCampaign(ctx, campaignID)
	if err != nil {
		return domain.PlatformDescriptor{}, fmt.Errorf("list link records: %w", err)
	}

	return platform.NextPlatform(candidates, records, s.catalog.Canonicalize)
}
