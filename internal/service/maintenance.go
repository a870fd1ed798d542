package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"content_publisher/internal/config"
	"content_publisher/internal/domain"
)

const defaultPageSize = 100

// MaintenanceJob pages through stored artifacts and runs the orchestrator
// over each page.
type MaintenanceJob struct {
	contents     ContentStore
	orchestrator *BatchOrchestrator
	logger       *slog.Logger
	pageSize     int
	maxPages     int
	statuses     []domain.ContentStatus
}

func NewMaintenanceJob(
	contents ContentStore,
	orchestrator *BatchOrchestrator,
	logger *slog.Logger,
	batch config.BatchConfig,
	maintenance config.MaintenanceConfig,
) *MaintenanceJob {
	pageSize := batch.PageSize
	if pageSize <= 0 {
		pageSize = defaultPageSize
	}

	return &MaintenanceJob{
		contents:     contents,
		orchestrator: orchestrator,
		logger:       logger.With("component", "maintenance"),
		pageSize:     pageSize,
		maxPages:     maintenance.MaxPages,
		statuses:     []domain.ContentStatus{domain.ContentDraft, domain.ContentPublished},
	}
}

func (j *MaintenanceJob) Run(ctx context.Context) (*domain.BatchReport, error) {
	startTime := time.Now()
	total := &domain.BatchReport{}

	for page := 0; j.maxPages <= 0 || page < j.maxPages; page++ {
		artifacts, err := j.contents.List(ctx, domain.ContentFilter{
			Statuses: j.statuses,
			Limit:    j.pageSize,
			Offset:   page * j.pageSize,
		})
		if err != nil {
			return total, fmt.Errorf("list artifacts: %w", err)
		}
		if len(artifacts) == 0 {
			break
		}

		report, err := j.orchestrator.Run(ctx, artifacts)
		if report != nil {
			merge(total, report)
		}
		if err != nil {
			return total, fmt.Errorf("run page %d: %w", page, err)
		}

		if len(artifacts) < j.pageSize {
			break
		}
	}

	total.Duration = time.Since(startTime)

	j.logger.Info("maintenance completed",
		"total", total.Total,
		"adjusted", total.Adjusted,
		"failed", total.Failed,
		"duration", total.Duration,
	)

	return total, nil
}

func merge(dst, src *domain.BatchReport) {
	dst.Total += src.Total
	dst.Processed += src.Processed
	dst.Adjusted += src.Adjusted
	dst.Skipped += src.Skipped
	dst.Failed += src.Failed
	dst.Results = append(dst.Results, src.Results...)
}
