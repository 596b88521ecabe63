package cli

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"trendwatch/internal/ai"
	"trendwatch/internal/importance"
	"trendwatch/internal/types"
)

// AnalyzeCmd returns the analyze command: classify unlabeled items and notify
// important stories.
func AnalyzeCmd() *cobra.Command {
	var (
		configPath string
		verbose    bool
		date       string
		kind       string
	)

	cmd := &cobra.Command{
		Use:   "analyze",
		Short: "Classify unlabeled items and push important stories",
		Long: `Run one annotation pass over a shard: select items without an importance
label, classify them in batches, then notify stories whose label is in the
configured push levels and that were never pushed before.

Examples:
  trendwatch analyze                      # today's news shard
  trendwatch analyze --date 2025-03-01    # a specific month
  trendwatch analyze --kind feed`,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(configPath, verbose)
			if err != nil {
				return err
			}
			defer a.close()

			shard, err := a.pool.Acquire(date, types.StoreKind(kind))
			if err != nil {
				return err
			}

			classifier, err := ai.NewClient(&ai.Config{
				APIKey:             a.cfg.AI.APIKey,
				Model:              a.cfg.AI.Model,
				MaxConcurrentCalls: a.cfg.AI.MaxConcurrentCalls,
				Logger:             a.logger,
			})
			if err != nil {
				return fmt.Errorf("failed to create classifier: %w", err)
			}

			gate := importance.NewGate(shard, date, classifier, a.dispatcher(),
				a.cfg.Analysis, types.SystemClock{}, a.logger)
			if a.cfg.Storage.EnableTXT {
				gate.SetReportWriter(a.router)
			}
			stats, err := gate.Run(cmd.Context())
			if err != nil {
				return err
			}

			color.Green("classified %d/%d items (%d failed), pushed %d stories",
				stats.Classified, stats.Selected, stats.Failed, stats.Pushed)
			return nil
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "", "config file path")
	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "verbose logging")
	cmd.Flags().StringVar(&date, "date", "", "shard date (YYYY-MM-DD, default today)")
	cmd.Flags().StringVar(&kind, "kind", string(types.KindNews), "store kind (news or feed)")
	return cmd
}
