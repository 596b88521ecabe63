package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"trendwatch/internal/cli"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "trendwatch",
		Short: "trendwatch - persistence and deduplication for trending news",
		Long: `trendwatch stores ranked news snapshots in monthly SQLite shards,
classifies items by importance, and notifies important stories at most once
across all sources.`,
	}

	rootCmd.AddCommand(cli.IngestCmd())
	rootCmd.AddCommand(cli.AnalyzeCmd())
	rootCmd.AddCommand(cli.PushUnpushedCmd())
	rootCmd.AddCommand(cli.SweepCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
