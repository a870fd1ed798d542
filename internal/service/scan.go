package service

import (
	"context"
	"fmt"

	"content_publisher/internal/domain"
	"content_publisher/internal/quality"
)

// Scan analyzes artifacts matching the filter without modifying them.
func Scan(ctx context.Context, contents ContentStore, filter domain.ContentFilter) (*domain.ScanReport, error) {
	artifacts, err := contents.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("list artifacts: %w", err)
	}

	return ScanArtifacts(artifacts), nil
}

func ScanArtifacts(artifacts []domain.ContentArtifact) *domain.ScanReport {
	report := &domain.ScanReport{
		Total: len(artifacts),
		Bands: make(map[domain.QualityBand]int),
	}

	for _, a := range artifacts {
		m := quality.Analyze(a.Body, a.TargetURL)
		report.Bands[m.Band()]++
		if m.HasMalformedPatterns {
			report.Malformed++
		}
		if quality.NeedsAdjustment(m) {
			report.NeedsAdjustment = append(report.NeedsAdjustment, a.ID)
		}
		if quality.HighPriority(m) {
			report.HighPriority = append(report.HighPriority, a.ID)
		}
	}

	return report
}
