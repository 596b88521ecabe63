package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"trendwatch/internal/types"
)

// IngestCmd returns the ingest command. It reads a snapshot JSON document
// from a file (or stdin) and merges it into the matching monthly shard.
func IngestCmd() *cobra.Command {
	var (
		configPath string
		verbose    bool
	)

	cmd := &cobra.Command{
		Use:   "ingest [snapshot.json]",
		Short: "Merge a crawl snapshot into storage",
		Long: `Merge one crawl cycle's snapshot into the monthly shard for its date.

The snapshot is read from the given file, or from stdin when no file is
given. Each source's ranked list is merged in its own transaction; new items
are inserted, returning items extend their rank timeline.

Examples:
  trendwatch ingest snapshot.json
  crawler --emit-json | trendwatch ingest`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var input io.Reader = os.Stdin
			if len(args) == 1 {
				f, err := os.Open(args[0])
				if err != nil {
					return fmt.Errorf("failed to open snapshot: %w", err)
				}
				defer f.Close()
				input = f
			}

			var snap types.Snapshot
			if err := json.NewDecoder(input).Decode(&snap); err != nil {
				return fmt.Errorf("failed to decode snapshot: %w", err)
			}

			a, err := newApp(configPath, verbose)
			if err != nil {
				return err
			}
			defer a.close()

			shard, err := a.pool.Acquire(snap.Date, snap.Kind)
			if err != nil {
				return err
			}
			stats, err := shard.SaveSnapshot(cmd.Context(), &snap, a.cfg.Storage.OffListCycles)
			if err != nil {
				return err
			}

			if a.cfg.Storage.EnableTXT {
				if path, err := a.router.WriteTXTSnapshot(&snap); err != nil {
					color.Yellow("txt snapshot failed: %v", err)
				} else if verbose {
					fmt.Printf("txt snapshot: %s\n", path)
				}
			}

			color.Green("merged %d items (%d new, %d updated, %d unchanged, %d off-list)",
				stats.Total(), stats.New, stats.Updated, stats.Unchanged, stats.OffList)
			return nil
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "", "config file path")
	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "verbose logging")
	return cmd
}
