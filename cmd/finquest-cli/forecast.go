package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"finquest/internal/core"
	"finquest/internal/services"
	"finquest/internal/sources"
)

func newForecastCmd() *cobra.Command {
	var (
		date    string
		asJSON  bool
		input   string
		useLive bool
	)
	cmd := &cobra.Command{
		Use:   "forecast",
		Short: "Project month-end spending per category",
		Long:  "Run the forecast against the stored snapshot, the live source (--live) or a transactions file (--input).",
		RunE: func(cmd *cobra.Command, args []string) error {
			var today time.Time
			if date != "" {
				var err error
				if today, err = time.Parse(time.DateOnly, date); err != nil {
					return fmt.Errorf("--date must be YYYY-MM-DD: %w", err)
				}
			}

			s, err := openSession(cmd.Context())
			if err != nil {
				return err
			}
			defer s.Close()

			forecast := s.app.Forecast
			if input != "" {
				raws, err := readTransactionsFile(input)
				if err != nil {
					return err
				}
				forecast = services.NewForecastService(services.ForecastConfig{
					Snapshot:    sources.Static(core.SourceFile, raws),
					Budgets:     s.result.Backend,
					Taxonomy:    s.app.Taxonomy,
					MonthToDate: s.cfg.ForecastMonthToDate,
				}, s.logger)
			}

			report, err := forecast.Forecast(cmd.Context(), services.ForecastRequest{Today: today, UseLive: useLive})
			if err != nil {
				return err
			}
			if today.IsZero() {
				today = time.Now()
			}

			out := cmd.OutOrStdout()
			if asJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(report)
			}
			renderReport(out, report, today)
			return nil
		},
	}
	cmd.Flags().StringVar(&date, "date", "", "Forecast as of this day (YYYY-MM-DD), default today")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the report as JSON")
	cmd.Flags().StringVar(&input, "input", "", "Read transactions from a JSON file instead of the backend")
	cmd.Flags().BoolVar(&useLive, "live", false, "Use the live Plaid source")
	return cmd
}

// readTransactionsFile accepts {"transactions": [...]} or a bare array.
func readTransactionsFile(path string) ([]core.RawTransaction, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	var doc struct {
		Transactions []core.RawTransaction `json:"transactions"`
	}
	if err := json.Unmarshal(data, &doc); err == nil && doc.Transactions != nil {
		return doc.Transactions, nil
	}
	var raws []core.RawTransaction
	if err := json.Unmarshal(data, &raws); err != nil {
		return nil, fmt.Errorf("%s: expected a transactions array or object: %w", path, err)
	}
	return raws, nil
}

var (
	red    = color.New(color.FgRed, color.Bold).SprintFunc()
	green  = color.New(color.FgGreen).SprintFunc()
	yellow = color.New(color.FgYellow).SprintFunc()
	bold   = color.New(color.Bold).SprintFunc()
)

func renderReport(w io.Writer, report core.Report, today time.Time) {
	fmt.Fprintf(w, "%s %s (day %d)\n\n", bold("Forecast for"), today.Format("January 2006"), today.Day())

	if len(report.Forecast) == 0 {
		fmt.Fprintln(w, "  No spending recorded this month.")
	} else {
		fmt.Fprintf(w, "  %-15s %12s %12s %12s  %s\n", "CATEGORY", "SPENT", "BUDGET", "PROJECTED", "STATUS")
		for _, e := range report.Forecast {
			status := green(e.Status)
			if e.Status == core.StatusOverBudget {
				status = red(e.Status)
			}
			fmt.Fprintf(w, "  %-15s %12s %12s %12s  %s\n",
				e.Category, money(e.Spent.StringFixed(2)), money(e.Budget.StringFixed(2)), money(e.Projected.StringFixed(2)), status)
		}
	}

	fmt.Fprintf(w, "\n%s\n", bold("Tips"))
	for _, tip := range report.Recommendations {
		fmt.Fprintf(w, "  - %s\n", tip)
	}
	if n := len(report.Dropped); n > 0 {
		fmt.Fprintf(w, "\n%s\n", yellow(strconv.Itoa(n)+" transaction record(s) skipped"))
	}
}

func money(s string) string {
	return "$" + s
}
