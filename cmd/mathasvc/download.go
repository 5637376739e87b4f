package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/sodematha/mathasvc/internal/app"
	"github.com/sodematha/mathasvc/internal/domain"
)

var downloadCmd = &cobra.Command{
	Use:   "download <id>",
	Short: "Download a stotra for offline playback",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd, func(ctx context.Context, a *app.App) error {
			out := cmd.OutOrStdout()
			last := -1
			path, err := a.Downloads.Download(ctx, args[0], func(p int) {
				if p/10 != last/10 || p == 100 {
					fmt.Fprintf(out, "\r%s: %3d%%", args[0], p)
				}
				last = p
			})
			if last >= 0 {
				fmt.Fprintln(out)
			}
			if errors.Is(err, domain.ErrBundled) {
				fmt.Fprintf(out, "%s is bundled with the app\n", args[0])
				return nil
			}
			if err != nil {
				return err
			}
			fmt.Fprintln(out, path)
			return nil
		})
	},
}

var statusCmd = &cobra.Command{
	Use:   "status <id>",
	Short: "Show the download state of a stotra",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd, func(ctx context.Context, a *app.App) error {
			state, err := a.Downloads.State(ctx, args[0])
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), state.Kind)
			return nil
		})
	},
}

var pathCmd = &cobra.Command{
	Use:   "path <id>",
	Short: "Print the recorded local path of a stotra",
	Long: `Print the path recorded for a downloaded stotra. The path is read
from the download ledger and is not checked against the disk; use
"status" for that.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd, func(ctx context.Context, a *app.App) error {
			path, ok, err := a.Downloads.LocalPath(ctx, args[0])
			if err != nil {
				return err
			}
			if !ok {
				return fmt.Errorf("%s has no download record", args[0])
			}
			fmt.Fprintln(cmd.OutOrStdout(), path)
			return nil
		})
	},
}

var deleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete a downloaded stotra",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd, func(ctx context.Context, a *app.App) error {
			return a.Downloads.Delete(ctx, args[0])
		})
	},
}

var clearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Delete every downloaded stotra",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd, func(ctx context.Context, a *app.App) error {
			return a.Downloads.ClearAll(ctx)
		})
	},
}

var sizeCmd = &cobra.Command{
	Use:   "size",
	Short: "Print the disk space used by downloads",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd, func(ctx context.Context, a *app.App) error {
			n, err := a.Downloads.TotalSize(ctx)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s (%s)\n", humanize.Bytes(uint64(n)), a.Downloads.Dir())
			return nil
		})
	},
}

func init() {
	rootCmd.AddCommand(downloadCmd, statusCmd, pathCmd, deleteCmd, clearCmd, sizeCmd)
}
