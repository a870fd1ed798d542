package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"content_publisher/internal/generator"
	"content_publisher/internal/service"
)

var publishFlags struct {
	all bool
}

var publishCmd = &cobra.Command{
	Use:   "publish <campaign-id>",
	Short: "Publish campaign content to the next missing platform",
	Args:  cobra.ExactArgs(1),
	RunE:  runPublish,
}

func init() {
	publishCmd.Flags().BoolVar(&publishFlags.all, "all", false, "try every missing platform once")
}

func runPublish(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	a, err := newApp(ctx, cfg, true)
	if err != nil {
		return err
	}
	defer a.Close()

	svc := service.NewPublishService(
		a.registry,
		a.destinations(),
		a.contents,
		a.links,
		a.campaigns,
		a.txManager,
		a.tracker(),
		adjuster,
		generator.NewTemplate(),
		a.logger,
	)

	out := cmd.OutOrStdout()
	campaignID := args[0]

	if publishFlags.all {
		report, err := svc.PublishAll(ctx, campaignID)
		fmt.Fprintf(out, "Campaign %s: %s (missing: %v)\n", campaignID, report.State, report.Missing)
		return err
	}

	outcome, err := svc.PublishNext(ctx, campaignID)
	if outcome != nil {
		if outcome.Record != nil {
			fmt.Fprintf(out, "%s: %s %s\n", outcome.Record.Platform, outcome.Record.Status, outcome.Record.URL)
		}
		fmt.Fprintf(out, "Campaign %s: %s\n", campaignID, outcome.Completion.State)
	}
	return err
}
