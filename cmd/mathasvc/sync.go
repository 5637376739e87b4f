package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/sodematha/mathasvc/internal/app"
)

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Download every stotra that is not yet available offline",
	Long: `Sync downloads all cloud stotras that are missing from the cache,
a few at a time (download.workers). Items that fail are reported and
do not stop the run. A Discord webhook, when configured, receives the
summary.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd, func(ctx context.Context, a *app.App) error {
			stats, err := a.Sync(ctx)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "downloaded %d, already present %d, bundled %d, failed %d\n",
				stats.Downloaded, stats.AlreadyPresent, stats.BundledItems, stats.Failed)
			fmt.Fprintf(out, "coverage %.1f%%, %s on disk\n", stats.CoveragePercent(), humanize.Bytes(uint64(stats.BytesOnDisk)))
			if stats.Failed > 0 {
				return fmt.Errorf("failed: %s", strings.Join(stats.FailedIDs, ", "))
			}
			return nil
		})
	},
}

var reconcileCmd = &cobra.Command{
	Use:   "reconcile",
	Short: "Match the download ledger against the cache directory",
	Long: `Reconcile adopts audio files that are in the cache directory but
missing from the ledger, and reports ledger entries whose file is gone.
With --prune those stale entries are deleted.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		prune, _ := cmd.Flags().GetBool("prune")
		return withApp(cmd, func(ctx context.Context, a *app.App) error {
			report, err := a.Downloads.Reconcile(ctx, prune)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "adopted: %s\n", list(report.Adopted))
			fmt.Fprintf(out, "stale:   %s\n", list(report.Stale))
			fmt.Fprintf(out, "pruned:  %s\n", list(report.Pruned))
			fmt.Fprintf(out, "ignored: %s\n", list(report.Ignored))
			return nil
		})
	},
}

func list(s []string) string {
	if len(s) == 0 {
		return "-"
	}
	return strings.Join(s, ", ")
}

func init() {
	reconcileCmd.Flags().Bool("prune", false, "delete ledger entries whose file is missing")
	rootCmd.AddCommand(syncCmd, reconcileCmd)
}
