package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"content_publisher/internal/config"
	"content_publisher/internal/domain"
	"content_publisher/internal/quality"
)

var ErrInvalidConcurrency = errors.New("concurrency must be positive")

// BatchOrchestrator runs the adjuster over many artifacts in fixed-size
// chunks. Results keep the input order. Adjusting the same artifact ID from
// two concurrent runs is not guarded against.
type BatchOrchestrator struct {
	adjuster  Adjuster
	contents  ContentStore
	publisher EventPublisher
	logger    *slog.Logger
	config    config.BatchConfig
}

func NewBatchOrchestrator(
	adjuster Adjuster,
	contents ContentStore,
	publisher EventPublisher,
	logger *slog.Logger,
	cfg config.BatchConfig,
) *BatchOrchestrator {
	return &BatchOrchestrator{
		adjuster:  adjuster,
		contents:  contents,
		publisher: publisher,
		logger:    logger.With("component", "batch"),
		config:    cfg,
	}
}

func (o *BatchOrchestrator) Run(ctx context.Context, artifacts []domain.ContentArtifact) (*domain.BatchReport, error) {
	if o.config.Concurrency <= 0 {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidConcurrency, o.config.Concurrency)
	}

	startTime := time.Now()
	o.logger.Info("starting batch",
		"total", len(artifacts),
		"concurrency", o.config.Concurrency,
		"persist", o.config.Persist,
	)

	report := &domain.BatchReport{Total: len(artifacts)}
	results := make([]domain.BatchItemResult, len(artifacts))

	done := 0
	var runErr error
	for start := 0; start < len(artifacts); start += o.config.Concurrency {
		if start > 0 {
			if err := o.pause(ctx); err != nil {
				runErr = fmt.Errorf("batch interrupted: %w", err)
				break
			}
		} else if err := ctx.Err(); err != nil {
			runErr = fmt.Errorf("batch interrupted: %w", err)
			break
		}

		end := min(start+o.config.Concurrency, len(artifacts))

		var g errgroup.Group
		for i := start; i < end; i++ {
			g.Go(func() error {
				results[i] = o.processItem(ctx, artifacts[i])
				return nil
			})
		}
		_ = g.Wait()

		done = end
	}

	report.Results = results[:done]
	for _, item := range report.Results {
		report.Processed++
		switch {
		case item.Err != nil:
			report.Failed++
		case item.Skipped:
			report.Skipped++
		case item.Result.WasAdjusted:
			report.Adjusted++
		}
	}
	report.Duration = time.Since(startTime)

	o.logger.Info("batch completed",
		"processed", report.Processed,
		"adjusted", report.Adjusted,
		"skipped", report.Skipped,
		"failed", report.Failed,
		"duration", report.Duration,
	)

	return report, runErr
}

func (o *BatchOrchestrator) pause(ctx context.Context) error {
	if o.config.ChunkDelay <= 0 {
		return ctx.Err()
	}

	timer := time.NewTimer(o.config.ChunkDelay)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func (o *BatchOrchestrator) processItem(ctx context.Context, artifact domain.ContentArtifact) (item domain.BatchItemResult) {
	item.ArtifactID = artifact.ID

	defer func() {
		if r := recover(); r != nil {
			item.Err = fmt.Errorf("adjust artifact %s: panic: %v", artifact.ID, r)
			o.logger.Error("adjustment panicked", "artifact_id", artifact.ID, "panic", r)
		}
	}()

	if err := artifact.Validate(); err != nil {
		item.Err = err
		return item
	}

	if o.config.SkipHighQuality {
		metrics := quality.Analyze(artifact.Body, artifact.TargetURL)
		if quality.IsHighQuality(metrics) {
			item.Skipped = true
			item.Result = domain.AdjustmentResult{
				ArtifactID:      artifact.ID,
				AdjustedContent: artifact.Body,
				AdjustedTitle:   artifact.Title,
				QualityScore:    domain.ScoreDelta{Before: metrics.Score, After: metrics.Score},
				Issues:          metrics.Issues,
			}
			return item
		}
	}

	item.Result = o.adjuster.Adjust(artifact)
	if !o.config.Persist || !item.Result.WasAdjusted {
		return item
	}

	if err := o.contents.UpdateContent(ctx, artifact.ID, item.Result.AdjustedTitle, item.Result.AdjustedContent); err != nil {
		item.Err = fmt.Errorf("persist artifact %s: %w", artifact.ID, err)
		o.logger.Error("failed to persist adjustment",
			"artifact_id", artifact.ID,
			"error", err,
		)
		return item
	}

	if o.publisher != nil {
		if err := o.publisher.PublishContentAdjusted(ctx, item.Result); err != nil {
			o.logger.Warn("failed to publish adjustment event",
				"artifact_id", artifact.ID,
				"error", err,
			)
		}
	}

	return item
}
