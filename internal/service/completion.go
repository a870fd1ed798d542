package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"content_publisher/internal/domain"
	"content_publisher/internal/platform"
)

// CompletionTracker derives campaign completion from stored link records.
// The campaign status column is only a cache of the last positive result.
type CompletionTracker struct {
	catalog   Catalog
	links     LinkStore
	campaigns CampaignStore
	publisher EventPublisher
	logger    *slog.Logger
	now       func() time.Time
}

func NewCompletionTracker(
	catalog Catalog,
	links LinkStore,
	campaigns CampaignStore,
	publisher EventPublisher,
	logger *slog.Logger,
) *CompletionTracker {
	return &CompletionTracker{
		catalog:   catalog,
		links:     links,
		campaigns: campaigns,
		publisher: publisher,
		logger:    logger.With("component", "completion"),
		now:       time.Now,
	}
}

// Evaluate never reports completed when the link records cannot be read.
func (t *CompletionTracker) Evaluate(ctx context.Context, campaignID string) domain.CompletionReport {
	records, err := t.links.ListByCampaign(ctx, campaignID)
	if err != nil {
		t.logger.Error("failed to load link records",
			"campaign_id", campaignID,
			"error", err,
		)
		return domain.CompletionReport{
			CampaignID: campaignID,
			State:      domain.StateIncomplete,
			Err:        fmt.Errorf("list link records: %w", err),
		}
	}

	report := platform.Evaluate(campaignID, t.catalog.ListActive(), records, t.catalog.Canonicalize)

	t.logger.Debug("campaign evaluated",
		"campaign_id", campaignID,
		"state", report.State,
		"satisfied", report.Satisfied,
		"missing", report.Missing,
	)

	return report
}

// Sync evaluates the campaign and brings the stored status in line with it.
// A completed campaign that lost coverage, for example after a platform was
// activated, is reopened as publishing. The completion event is emitted on
// every transition into completed.
func (t *CompletionTracker) Sync(ctx context.Context, campaignID string) (domain.CompletionReport, error) {
	report := t.Evaluate(ctx, campaignID)
	if report.Err != nil {
		return report, report.Err
	}

	campaign, err := t.campaigns.Get(ctx, campaignID)
	if err != nil {
		return report, fmt.Errorf("get campaign: %w", err)
	}

	if !report.Completed() {
		if campaign.Status != domain.CampaignCompleted {
			return report, nil
		}
		if err := t.campaigns.UpdateStatus(ctx, campaignID, domain.CampaignPublishing); err != nil {
			return report, fmt.Errorf("reopen campaign: %w", err)
		}
		t.logger.Info("campaign reopened",
			"campaign_id", campaignID,
			"missing", report.Missing,
		)
		return report, nil
	}
	if campaign.Status == domain.CampaignCompleted {
		return report, nil
	}

	if err := t.campaigns.MarkCompleted(ctx, campaignID, t.now()); err != nil {
		return report, fmt.Errorf("mark campaign completed: %w", err)
	}

	t.logger.Info("campaign completed",
		"campaign_id", campaignID,
		"platforms", len(report.Satisfied),
	)

	if t.publisher != nil {
		if err := t.publisher.PublishCampaignCompleted(ctx, report); err != nil {
			t.logger.Warn("failed to publish completion event",
				"campaign_id", campaignID,
				"error", err,
			)
		}
	}

	return report, nil
}
