package cli

import (
	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"trendwatch/internal/retention"
	"trendwatch/internal/types"
)

// SweepCmd returns the sweep command: delete shards and snapshot artifacts
// older than the retention window.
func SweepCmd() *cobra.Command {
	var (
		configPath string
		verbose    bool
		days       int
	)

	cmd := &cobra.Command{
		Use:   "sweep",
		Short: "Remove data older than the retention window",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(configPath, verbose)
			if err != nil {
				return err
			}
			defer a.close()

			retentionDays := a.cfg.Storage.RetentionDays
			if cmd.Flags().Changed("days") {
				retentionDays = days
			}
			if retentionDays <= 0 {
				color.Yellow("retention disabled, nothing to do")
				return nil
			}

			sweeper := retention.NewSweeper(a.pool, retentionDays, types.SystemClock{}, a.logger)
			removed, err := sweeper.Sweep(a.cfg.Storage.DataDir)
			if err != nil {
				return err
			}
			color.Green("removed %d expired artifacts", removed)
			return nil
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "", "config file path")
	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "verbose logging")
	cmd.Flags().IntVar(&days, "days", 0, "override retention window in days")
	return cmd
}
