package main

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/sodematha/mathasvc/internal/app"
	"github.com/sodematha/mathasvc/internal/domain"
)

var panchangaCmd = &cobra.Command{
	Use:   "panchanga",
	Short: "Show the panchanga for a day or a month",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		dateStr, _ := cmd.Flags().GetString("date")
		monthStr, _ := cmd.Flags().GetString("month")

		return withApp(cmd, func(ctx context.Context, a *app.App) error {
			out := cmd.OutOrStdout()
			if monthStr != "" {
				m, err := time.ParseInLocation("2006-01", monthStr, app.MathaTime)
				if err != nil {
					return fmt.Errorf("invalid --month %q, want YYYY-MM", monthStr)
				}
				for _, p := range a.Panchanga.ForMonth(m.Year(), m.Month()) {
					fmt.Fprintf(out, "%s  %s  %s  %s  %s\n", p.Date.Format("Mon 02"), p.Vasara, p.Paksha, p.Tithi, p.Nakshatra)
				}
				return nil
			}

			day := time.Now().In(app.MathaTime)
			if dateStr != "" {
				d, err := time.ParseInLocation("2006-01-02", dateStr, app.MathaTime)
				if err != nil {
					return fmt.Errorf("invalid --date %q, want YYYY-MM-DD", dateStr)
				}
				day = d
			}
			printPanchanga(out, a.Panchanga.ForDate(day))
			for _, e := range a.Panchanga.Events(day, day) {
				fmt.Fprintf(out, "\n%s (%s) %s\n", e.Title, e.Type, e.Description)
			}
			return nil
		})
	},
}

var eventsCmd = &cobra.Command{
	Use:   "events",
	Short: "List festivals and observances",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		days, _ := cmd.Flags().GetInt("days")
		fromStr, _ := cmd.Flags().GetString("from")

		return withApp(cmd, func(ctx context.Context, a *app.App) error {
			from := time.Now().In(app.MathaTime)
			if fromStr != "" {
				d, err := time.ParseInLocation("2006-01-02", fromStr, app.MathaTime)
				if err != nil {
					return fmt.Errorf("invalid --from %q, want YYYY-MM-DD", fromStr)
				}
				from = d
			}
			to := from.AddDate(0, 0, days)

			out := cmd.OutOrStdout()
			for _, e := range a.Panchanga.Events(from, to) {
				fmt.Fprintf(out, "%s  %-9s %s", e.Date.Format("2006-01-02"), e.Type, e.Title)
				if e.Location != "" {
					fmt.Fprintf(out, " @ %s", e.Location)
				}
				fmt.Fprintln(out)
			}
			return nil
		})
	},
}

func printPanchanga(w io.Writer, p domain.Panchanga) {
	fmt.Fprintf(w, "%s\n", p.Date.Format("Monday, 02 January 2006"))
	fmt.Fprintf(w, "%s, %s, %s, %s\n", p.Samvatsara, p.Ayana, p.Rutu, p.Masa)
	fmt.Fprintf(w, "Paksha:    %s\n", p.Paksha)
	fmt.Fprintf(w, "Tithi:     %s\n", p.Tithi)
	fmt.Fprintf(w, "Vasara:    %s\n", p.Vasara)
	fmt.Fprintf(w, "Nakshatra: %s\n", p.Nakshatra)
	fmt.Fprintf(w, "Yoga:      %s\n", p.Yoga)
	fmt.Fprintf(w, "Karana:    %s\n", p.Karana)
	fmt.Fprintf(w, "Sunrise:   %s  Sunset: %s\n", p.SunriseTime, p.SunsetTime)
}

func init() {
	panchangaCmd.Flags().String("date", "", "day to show (YYYY-MM-DD, default today)")
	panchangaCmd.Flags().String("month", "", "month to list (YYYY-MM)")
	eventsCmd.Flags().String("from", "", "first day (YYYY-MM-DD, default today)")
	eventsCmd.Flags().Int("days", 90, "number of days to look ahead")
	rootCmd.AddCommand(panchangaCmd, eventsCmd)
}
