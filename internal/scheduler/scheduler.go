package scheduler

import (
	"context"
	"log/slog"
	"time"

	"content_publisher/internal/domain"
)

// Job is one unit of periodic maintenance.
type Job interface {
	Run(ctx context.Context) (*domain.BatchReport, error)
}

type Scheduler struct {
	job      Job
	interval time.Duration
	timeout  time.Duration
	logger   *slog.Logger
}

func NewScheduler(job Job, interval, timeout time.Duration, logger *slog.Logger) *Scheduler {
	if timeout <= 0 {
		timeout = 5 * time.Minute
	}
	return &Scheduler{
		job:      job,
		interval: interval,
		timeout:  timeout,
		logger:   logger.With("component", "scheduler"),
	}
}

// Start runs the job immediately and then on every tick until ctx is done.
func (s *Scheduler) Start(ctx context.Context) error {
	s.logger.Info("scheduler started", "interval", s.interval)

	s.runJob(ctx)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("scheduler stopped")
			return ctx.Err()
		case <-ticker.C:
			s.runJob(ctx)
		}
	}
}

func (s *Scheduler) runJob(ctx context.Context) {
	jobCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	report, err := s.job.Run(jobCtx)
	if err != nil {
		s.logger.Error("maintenance run failed", "error", err)
	}
	if report == nil {
		return
	}

	level := slog.LevelInfo
	if report.Failed > 0 {
		level = slog.LevelWarn
	}
	s.logger.Log(ctx, level, "maintenance run finished",
		"processed", report.Processed,
		"adjusted", report.Adjusted,
		"failed", report.Failed,
	)
}
