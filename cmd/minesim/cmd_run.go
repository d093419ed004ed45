package main

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/aristath/minesim/internal/modules/decisions"
	"github.com/aristath/minesim/internal/modules/scenarios"
	"github.com/aristath/minesim/internal/utils"
	"github.com/spf13/cobra"
)

func newRunCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Simulate one decision vector",
		Long: `Draw the environments and replay one set of decisions against them.

Prints, for every year, how many trials are foreclosed or distressed and the
median cash balance.

Examples:
  minesim run                                  # keep everything, never explore
  minesim run --sell-year 2 --funding 3        # sell in year 2, fund level 3 every year
  minesim run --levels 0,5,5,0,0 --close-year 5`,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := loadCommon(cmd)
			if err != nil {
				return err
			}
			vector, err := vectorFromFlags(cmd)
			if err != nil {
				return err
			}

			res, err := c.service.Run(context.Background(), scenarios.RunRequest{
				Trials:     c.trials,
				Years:      c.years,
				Seed:       c.seed,
				Params:     c.params,
				Vector:     vector,
				ReportYear: c.reportYear,
			})
			if err != nil {
				return err
			}

			if c.jsonOut {
				return writeJSON(cmd.OutOrStdout(), map[string]interface{}{
					"trial_count": res.Trials,
					"year_count":  res.Years,
					"seed":        res.Seed,
					"decisions":   res.Vector,
					"label":       res.Label,
					"discovered":  res.Discovered,
					"per_year":    res.PerYear,
					"report":      res.Report,
					"elapsed_ms":  res.Elapsed.Milliseconds(),
				})
			}
			printRun(cmd.OutOrStdout(), res)
			return nil
		},
	}

	cmd.Flags().Int("sell-year", 0, "Year to sell the leased asset (0 = never)")
	cmd.Flags().Int("funding", 0, "Exploration funding level used every year")
	cmd.Flags().String("levels", "", "Per-year funding levels, comma separated (overrides --funding)")
	cmd.Flags().Int("close-year", 0, "Year to close a discovered mine (0 = never)")

	return cmd
}

func vectorFromFlags(cmd *cobra.Command) (decisions.Vector, error) {
	var v decisions.Vector
	v.SellYear, _ = cmd.Flags().GetInt("sell-year")
	v.Level, _ = cmd.Flags().GetInt("funding")
	v.CloseYear, _ = cmd.Flags().GetInt("close-year")

	raw, _ := cmd.Flags().GetString("levels")
	levels, err := utils.ParseIntCSV(raw)
	if err != nil {
		return decisions.Vector{}, fmt.Errorf("invalid --levels: %w", err)
	}
	v.Levels = levels
	return v, nil
}

func printRun(w io.Writer, res *scenarios.RunResult) {
	fmt.Fprintf(w, "Scenario: %s\n", res.Label)
	fmt.Fprintf(w, "Trials: %d  Years: %d  Seed: %d  Elapsed: %s\n", res.Trials, res.Years, res.Seed, res.Elapsed.Round(time.Millisecond))
	if res.Discovered > 0 {
		fmt.Fprintf(w, "Second mine found in %d trials (%.1f%%)\n", res.Discovered,
			100*float64(res.Discovered)/float64(res.Trials))
	}
	fmt.Fprintln(w)

	fmt.Fprintf(w, "%-6s %11s %11s %15s %15s %15s\n", "YEAR", "FORECLOSED", "DISTRESSED", "P10 CASH", "MEDIAN CASH", "P90 CASH")
	for _, s := range res.PerYear {
		fmt.Fprintf(w, "%-6d %11d %11d %15.0f %15.0f %15.0f\n",
			s.Year, s.Foreclosed, s.Distressed, s.P10, s.Median, s.P90)
	}
}
