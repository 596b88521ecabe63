package cli

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"trendwatch/internal/importance"
	"trendwatch/internal/types"
)

// PushUnpushedCmd returns the push-unpushed command: deliver stories that
// were labeled important but never notified, typically after an earlier run's
// delivery failed.
func PushUnpushedCmd() *cobra.Command {
	var (
		configPath string
		verbose    bool
		date       string
		kind       string
	)

	cmd := &cobra.Command{
		Use:   "push-unpushed",
		Short: "Notify important stories that were never pushed",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(configPath, verbose)
			if err != nil {
				return err
			}
			defer a.close()

			dispatcher := a.dispatcher()
			if !dispatcher.HasChannels() {
				return fmt.Errorf("no notification channels configured")
			}

			shard, err := a.pool.Acquire(date, types.StoreKind(kind))
			if err != nil {
				return err
			}

			gate := importance.NewGate(shard, date, nil, dispatcher,
				a.cfg.Analysis, types.SystemClock{}, a.logger)
			n, err := gate.PushPending(cmd.Context())
			if err != nil {
				return err
			}
			if n == 0 {
				fmt.Println("nothing to push")
				return nil
			}
			color.Green("pushed %d stories", n)
			return nil
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "", "config file path")
	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "verbose logging")
	cmd.Flags().StringVar(&date, "date", "", "shard date (YYYY-MM-DD, default today)")
	cmd.Flags().StringVar(&kind, "kind", string(types.KindNews), "store kind (news or feed)")
	return cmd
}
