package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"content_publisher/internal/domain"
)

var statusFlags struct {
	sync bool
}

var statusCmd = &cobra.Command{
	Use:   "status <campaign-id>",
	Short: "Show which active platforms a campaign has been published to",
	Args:  cobra.ExactArgs(1),
	RunE:  runStatus,
}

func init() {
	statusCmd.Flags().BoolVar(&statusFlags.sync, "sync", false, "mark the campaign completed when it is")
}

func runStatus(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	a, err := newApp(ctx, cfg, statusFlags.sync)
	if err != nil {
		return err
	}
	defer a.Close()

	tracker := a.tracker()
	var report domain.CompletionReport
	if statusFlags.sync {
		report, err = tracker.Sync(ctx, args[0])
		if err != nil {
			return err
		}
	} else {
		report = tracker.Evaluate(ctx, args[0])
		if report.Err != nil {
			return report.Err
		}
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Campaign %s: %s\n", report.CampaignID, report.State)
	if len(report.Satisfied) > 0 {
		fmt.Fprintf(out, "  published: %s\n", strings.Join(report.Satisfied, ", "))
	}
	if len(report.Missing) > 0 {
		fmt.Fprintf(out, "  missing:   %s\n", strings.Join(report.Missing, ", "))
	}
	return nil
}
