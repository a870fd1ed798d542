package main

import (
	"fmt"
	"io"
	"sort"
	"time"

	"github.com/spf13/cobra"

	"content_publisher/internal/adjust"
	"content_publisher/internal/config"
	"content_publisher/internal/domain"
	"content_publisher/internal/service"
)

var adjuster = adjust.Adjuster{}

var adjustFlags struct {
	campaignID  string
	statuses    []string
	limit       int
	offset      int
	concurrency int
	persist     bool
	skipHigh    bool
	scan        bool
}

var adjustCmd = &cobra.Command{
	Use:   "adjust",
	Short: "Score stored content and repair what needs it",
	Args:  cobra.NoArgs,
	RunE:  runAdjust,
}

func init() {
	f := adjustCmd.Flags()
	f.StringVar(&adjustFlags.campaignID, "campaign", "", "only artifacts of this campaign")
	f.StringSliceVar(&adjustFlags.statuses, "status", nil, "only artifacts with these statuses (draft, published, failed)")
	f.IntVar(&adjustFlags.limit, "limit", 0, "maximum number of artifacts (default batch.page_size)")
	f.IntVar(&adjustFlags.offset, "offset", 0, "number of artifacts to skip")
	f.IntVar(&adjustFlags.concurrency, "concurrency", 0, "artifacts adjusted in parallel (default batch.concurrency)")
	f.BoolVar(&adjustFlags.persist, "persist", false, "write adjusted content back to the store")
	f.BoolVar(&adjustFlags.skipHigh, "skip-high-quality", false, "leave high quality artifacts untouched")
	f.BoolVar(&adjustFlags.scan, "scan", false, "only report quality, change nothing")
}

func runAdjust(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	batch := adjustBatchConfig(cfg.Batch)

	a, err := newApp(ctx, cfg, batch.Persist && !adjustFlags.scan)
	if err != nil {
		return err
	}
	defer a.Close()

	filter := domain.ContentFilter{
		CampaignID: adjustFlags.campaignID,
		Limit:      adjustFlags.limit,
		Offset:     adjustFlags.offset,
	}
	if filter.Limit == 0 {
		filter.Limit = a.cfg.Batch.PageSize
	}
	for _, s := range adjustFlags.statuses {
		filter.Statuses = append(filter.Statuses, domain.ContentStatus(s))
	}

	out := cmd.OutOrStdout()

	if adjustFlags.scan {
		report, err := service.Scan(ctx, a.contents, filter)
		if err != nil {
			return err
		}
		printScan(out, report)
		return nil
	}

	artifacts, err := a.contents.List(ctx, filter)
	if err != nil {
		return fmt.Errorf("list artifacts: %w", err)
	}

	report, err := a.orchestrator(batch).Run(ctx, artifacts)
	if report != nil {
		printBatch(out, report)
	}
	return err
}

// adjustBatchConfig applies command line overrides to the configured batch
// settings.
func adjustBatchConfig(batch config.BatchConfig) config.BatchConfig {
	batch.Persist = batch.Persist || adjustFlags.persist
	batch.SkipHighQuality = batch.SkipHighQuality || adjustFlags.skipHigh
	if adjustFlags.concurrency != 0 {
		batch.Concurrency = adjustFlags.concurrency
	}
	return batch
}

func printScan(w io.Writer, r *domain.ScanReport) {
	fmt.Fprintf(w, "Scanned %d artifacts\n", r.Total)
	for _, band := range []domain.QualityBand{domain.BandExcellent, domain.BandGood, domain.BandPoor, domain.BandCritical} {
		fmt.Fprintf(w, "  %-10s %d\n", band, r.Bands[band])
	}
	fmt.Fprintf(w, "Malformed markup: %d\n", r.Malformed)
	fmt.Fprintf(w, "Needs adjustment: %d\n", len(r.NeedsAdjustment))
	for _, id := range r.HighPriority {
		fmt.Fprintf(w, "  high priority: %s\n", id)
	}
}

func printBatch(w io.Writer, r *domain.BatchReport) {
	fmt.Fprintf(w, "Processed %d/%d: %d adjusted, %d skipped, %d failed (%s)\n",
		r.Processed, r.Total, r.Adjusted, r.Skipped, r.Failed, r.Duration.Round(time.Millisecond))

	for _, item := range r.Results {
		switch {
		case item.Err != nil:
			fmt.Fprintf(w, "  %s: error: %v\n", item.ArtifactID, item.Err)
		case item.Result.WasAdjusted:
			notes := append([]string(nil), item.Result.Adjustments...)
			sort.Strings(notes)
			fmt.Fprintf(w, "  %s: %d -> %d %v\n", item.ArtifactID,
				item.Result.QualityScore.Before, item.Result.QualityScore.After, notes)
		}
	}
}
