package runs

import (
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/aristath/minesim/internal/database"
	"github.com/aristath/minesim/internal/modules/scenarios"
	"github.com/aristath/minesim/internal/utils"
	"github.com/rs/zerolog"
)

// DefaultListLimit is used when List is called with a non-positive limit
const DefaultListLimit = 50

// ErrRunNotFound is returned by Get for an unknown id
var ErrRunNotFound = errors.New("run not found")

// Repository handles archive.db operations
type Repository struct {
	db  *sql.DB
	log zerolog.Logger
}

// NewRepository creates a runs repository over archive.db
func NewRepository(db *sql.DB, log zerolog.Logger) *Repository {
	return &Repository{
		db:  db,
		log: log.With().Str("repository", "runs").Logger(),
	}
}

// Save writes a run and its rows in one transaction
func (r *Repository) Save(run *Run) error {
	if run == nil || run.ID == "" {
		return fmt.Errorf("run has no id")
	}
	done := utils.MeasureDBQuery("runs.save", r.log)

	err := database.WithTransaction(r.db, func(tx *sql.Tx) error {
		_, err := tx.Exec(`
			INSERT INTO runs (id, created_at, kind, trial_count, year_count, seed, report_year, elapsed_ms, params_json)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		`, run.ID, run.CreatedAt.Unix(), run.Kind, run.Trials, run.Years, int64(run.Seed),
			run.ReportYear, run.ElapsedMS, run.ParamsJSON)
		if err != nil {
			return fmt.Errorf("failed to insert run %s: %w", run.ID, err)
		}

		stmt, err := tx.Prepare(`
			INSERT INTO run_summaries (
				run_id, position, label, sell_year, funding_level, funding_levels, close_year,
				foreclosed, foreclosed_fraction, median_cash, mean_cash, std_dev_cash, p10_cash, p90_cash
			) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		`)
		if err != nil {
			return fmt.Errorf("failed to prepare summary insert: %w", err)
		}
		defer stmt.Close()

		for _, row := range run.Rows {
			_, err := stmt.Exec(run.ID, row.Position, row.Label, row.SellYear, row.FundingLevel,
				joinInts(row.FundingLevels), row.CloseYear, row.Foreclosed, row.ForeclosedFraction,
				row.MedianCash, row.MeanCash, row.StdDevCash, row.P10Cash, row.P90Cash)
			if err != nil {
				return fmt.Errorf("failed to insert summary %d of run %s: %w", row.Position, run.ID, err)
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	done(int64(len(run.Rows) + 1))
	r.log.Info().
		Str("run_id", run.ID).
		Int("rows", len(run.Rows)).
		Msg("Archived sweep")
	return nil
}

// List returns the newest runs first, without rows
func (r *Repository) List(limit int) ([]Run, error) {
	if limit <= 0 {
		limit = DefaultListLimit
	}
	done := utils.MeasureDBQuery("runs.list", r.log)

	rows, err := r.db.Query(`
		SELECT id, created_at, kind, trial_count, year_count, seed, report_year, elapsed_ms, params_json
		FROM runs
		ORDER BY created_at DESC, id
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	defer rows.Close()

	var out []Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating runs: %w", err)
	}

	done(int64(len(out)))
	return out, nil
}

// Get returns a run with its rows in ranked order
func (r *Repository) Get(id string) (*Run, error) {
	done := utils.MeasureDBQuery("runs.get", r.log)

	row := r.db.QueryRow(`
		SELECT id, created_at, kind, trial_count, year_count, seed, report_year, elapsed_ms, params_json
		FROM runs
		WHERE id = ?
	`, id)
	run, err := scanRun(row)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("%w: %s", ErrRunNotFound, id)
	}
	if err != nil {
		return nil, err
	}

	rows, err := r.db.Query(`
		SELECT position, label, sell_year, funding_level, funding_levels, close_year,
			foreclosed, foreclosed_fraction, median_cash, mean_cash, std_dev_cash, p10_cash, p90_cash
		FROM run_summaries
		WHERE run_id = ?
		ORDER BY position
	`, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get summaries of run %s: %w", id, err)
	}
	defer rows.Close()

	for rows.Next() {
		var s Row
		var levels string
		if err := rows.Scan(&s.Position, &s.Label, &s.SellYear, &s.FundingLevel, &levels, &s.CloseYear,
			&s.Foreclosed, &s.ForeclosedFraction, &s.MedianCash, &s.MeanCash, &s.StdDevCash,
			&s.P10Cash, &s.P90Cash); err != nil {
			return nil, fmt.Errorf("failed to scan summary of run %s: %w", id, err)
		}
		if s.FundingLevels, err = utils.ParseIntCSV(levels); err != nil {
			return nil, fmt.Errorf("run %s position %d funding levels: %w", id, s.Position, err)
		}
		run.Rows = append(run.Rows, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating summaries of run %s: %w", id, err)
	}

	done(int64(len(run.Rows) + 1))
	return run, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(s scanner) (*Run, error) {
	var run Run
	var createdAt, seed int64
	err := s.Scan(&run.ID, &createdAt, &run.Kind, &run.Trials, &run.Years, &seed,
		&run.ReportYear, &run.ElapsedMS, &run.ParamsJSON)
	if err == sql.ErrNoRows {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan run: %w", err)
	}
	run.CreatedAt = time.Unix(createdAt, 0).UTC()
	run.Seed = uint64(seed)
	return &run, nil
}

func joinInts(xs []int) string {
	parts := make([]string, len(xs))
	for i, x := range xs {
		parts[i] = strconv.Itoa(x)
	}
	return strings.Join(parts, ",")
}

// ArchiveSweep converts and saves a sweep, returning the new run id
func (r *Repository) ArchiveSweep(res *scenarios.SweepResult, params *scenarios.Params) (string, error) {
	run, err := FromSweep(res, params)
	if err != nil {
		return "", err
	}
	if err := r.Save(run); err != nil {
		return "", err
	}
	return run.ID, nil
}
