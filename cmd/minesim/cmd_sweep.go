package main

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/aristath/minesim/internal/database"
	"github.com/aristath/minesim/internal/modules/runs"
	"github.com/aristath/minesim/internal/modules/scenarios"
	"github.com/aristath/minesim/internal/modules/scenarios/progress"
	"github.com/spf13/cobra"
)

func newSweepCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sweep",
		Short: "Rank every sell year against every funding level",
		Long: `Replay the full grid of decisions (never sell or sell in any year, crossed
with every constant funding level) against one set of drawn environments.

Rows are ranked by the fewest foreclosed trials in the report year, then by the
highest median cash.

Examples:
  minesim sweep                         # 36 rows for the default 5-year case
  minesim sweep --trials 100000 --top 5
  minesim sweep --archive --json`,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := loadCommon(cmd)
			if err != nil {
				return err
			}
			top, _ := cmd.Flags().GetInt("top")
			archive, _ := cmd.Flags().GetBool("archive")

			res, err := c.service.Sweep(context.Background(), scenarios.SweepRequest{
				Trials:     c.trials,
				Years:      c.years,
				Seed:       c.seed,
				Params:     c.params,
				ReportYear: c.reportYear,
				Progress: func(u progress.Update) {
					c.log.Debug().
						Int("current", u.Current).
						Int("total", u.Total).
						Msg("Sweep progress")
				},
			})
			if err != nil {
				return err
			}

			runID := ""
			if archive {
				if runID, err = archiveSweep(c, res); err != nil {
					return err
				}
			}

			rows := res.Ranked()
			if top > 0 && top < len(rows) {
				rows = rows[:top]
			}

			if c.jsonOut {
				out := map[string]interface{}{
					"trial_count": res.Trials,
					"year_count":  res.Years,
					"seed":        res.Seed,
					"report_year": res.ReportYear,
					"rows":        rows,
					"elapsed_ms":  res.Elapsed.Milliseconds(),
				}
				if runID != "" {
					out["run_id"] = runID
				}
				return writeJSON(cmd.OutOrStdout(), out)
			}
			printSweep(cmd.OutOrStdout(), res, rows)
			if runID != "" {
				fmt.Fprintf(cmd.OutOrStdout(), "\nArchived as %s\n", runID)
			}
			return nil
		},
	}

	cmd.Flags().Int("top", 0, "Show only the best N rows (0 = all)")
	cmd.Flags().Bool("archive", false, "Store the summary in the archive database")

	return cmd
}

func archiveSweep(c *common, res *scenarios.SweepResult) (string, error) {
	db, err := database.New(database.Config{
		Path:    c.cfg.ArchivePath(),
		Profile: database.ProfileArchive,
		Name:    "archive",
	})
	if err != nil {
		return "", err
	}
	defer db.Close()

	if err := db.Migrate(); err != nil {
		return "", err
	}
	return runs.NewRepository(db.Conn(), c.log).ArchiveSweep(res, c.params)
}

func printSweep(w io.Writer, res *scenarios.SweepResult, rows []scenarios.SweepRow) {
	fmt.Fprintf(w, "Trials: %d  Years: %d  Seed: %d  Report year: %d  Elapsed: %s\n\n",
		res.Trials, res.Years, res.Seed, res.ReportYear, res.Elapsed.Round(time.Millisecond))

	fmt.Fprintf(w, "%-4s %-28s %11s %9s %15s %15s\n", "RANK", "DECISIONS", "FORECLOSED", "SHARE", "MEDIAN CASH", "P10 CASH")
	for i, row := range rows {
		fmt.Fprintf(w, "%-4d %-28s %11d %8.2f%% %15.0f %15.0f\n",
			i+1, row.Label, row.Summary.Foreclosed, 100*row.Summary.ForeclosedFraction,
			row.Summary.Median, row.Summary.P10)
	}
}
