// publisher runs the content publishing core: periodic content maintenance,
// batch adjustment, per-platform publishing and campaign completion.
//
// Usage:
//
//	publisher serve [--config=config.yaml]
//	publisher adjust [--campaign=<id>] [--status=draft] [--persist] [--scan]
//	publisher status <campaign-id>
//	publisher publish <campaign-id> [--all]
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
