package main

import (
	"context"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/sodematha/mathasvc/internal/app"
	"github.com/sodematha/mathasvc/internal/domain"
)

var stotraCmd = &cobra.Command{
	Use:   "stotra",
	Short: "Browse the stotra catalog",
}

var stotraListCmd = &cobra.Command{
	Use:   "list",
	Short: "List stotras, featured first",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		category, _ := cmd.Flags().GetString("category")
		return withApp(cmd, func(ctx context.Context, a *app.App) error {
			items, err := a.Catalog.All(ctx, domain.StotraCategory(category))
			if err != nil {
				return err
			}
			return printStotras(ctx, cmd.OutOrStdout(), a, items)
		})
	},
}

var stotraSearchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Search titles, authors and subcategories",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd, func(ctx context.Context, a *app.App) error {
			items, err := a.Catalog.Search(ctx, args[0])
			if err != nil {
				return err
			}
			return printStotras(ctx, cmd.OutOrStdout(), a, items)
		})
	},
}

var stotraShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Show a stotra with its verses",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd, func(ctx context.Context, a *app.App) error {
			s, err := a.Catalog.Get(ctx, args[0])
			if err != nil {
				return err
			}
			state, err := a.Downloads.State(ctx, s.ID)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%s\n%s\n%s\n\n", s.Title, s.TitleKannada, s.TitleSanskrit)
			fmt.Fprintf(out, "Author:   %s\n", s.Author)
			fmt.Fprintf(out, "Category: %s", s.Category)
			if s.Subcategory != "" {
				fmt.Fprintf(out, " / %s", s.Subcategory)
			}
			fmt.Fprintf(out, "\nDuration: %s\nAudio:    %s\n", s.Duration, state.Kind)
			if s.Description != "" {
				fmt.Fprintf(out, "\n%s\n", s.Description)
			}
			if s.Benefits != "" {
				fmt.Fprintf(out, "\nBenefits: %s\n", s.Benefits)
			}
			for _, v := range s.Verses {
				fmt.Fprintf(out, "\n%d.\n%s\n%s\n%s\n", v.Number, v.Kannada, v.Sanskrit, v.English)
			}
			return nil
		})
	},
}

func printStotras(ctx context.Context, w io.Writer, a *app.App, items []domain.Stotra) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tTITLE\tAUTHOR\tDURATION\tAUDIO")
	for _, s := range items {
		state, err := a.Downloads.State(ctx, s.ID)
		if err != nil {
			return err
		}
		title := s.Title
		if s.Featured {
			title = "* " + title
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", s.ID, title, s.Author, s.Duration, state.Kind)
	}
	return tw.Flush()
}

func init() {
	stotraListCmd.Flags().String("category", "", "only list this category (stotra or song)")
	stotraCmd.AddCommand(stotraListCmd, stotraSearchCmd, stotraShowCmd)
	rootCmd.AddCommand(stotraCmd)
}
