// Package runs archives completed sweep summaries in SQLite so past rankings can be
// listed and compared. Nothing in the simulation reads the archive back.
package runs

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/aristath/minesim/internal/modules/scenarios"
	"github.com/google/uuid"
)

// KindSweep marks a run created from a scenario sweep
const KindSweep = "sweep"

// Run is one archived sweep
type Run struct {
	ID         string    `json:"id" msgpack:"id"`
	CreatedAt  time.Time `json:"created_at" msgpack:"created_at"`
	Kind       string    `json:"kind" msgpack:"kind"`
	Trials     int       `json:"trial_count" msgpack:"trial_count"`
	Years      int       `json:"year_count" msgpack:"year_count"`
	Seed       uint64    `json:"seed" msgpack:"seed"`
	ReportYear int       `json:"report_year" msgpack:"report_year"`
	ElapsedMS  int64     `json:"elapsed_ms" msgpack:"elapsed_ms"`
	ParamsJSON string    `json:"params,omitempty" msgpack:"params"`
	// Rows is empty when the run comes from List
	Rows []Row `json:"rows,omitempty" msgpack:"rows"`
}

// Row is one ranked decision vector of an archived sweep
type Row struct {
	Position           int     `json:"position" msgpack:"position"`
	Label              string  `json:"label" msgpack:"label"`
	SellYear           int     `json:"sell_year" msgpack:"sell_year"`
	FundingLevel       int     `json:"funding_level" msgpack:"funding_level"`
	FundingLevels      []int   `json:"funding_levels,omitempty" msgpack:"funding_levels"`
	CloseYear          int     `json:"close_year" msgpack:"close_year"`
	Foreclosed         int     `json:"foreclosed" msgpack:"foreclosed"`
	ForeclosedFraction float64 `json:"foreclosed_fraction" msgpack:"foreclosed_fraction"`
	MedianCash         float64 `json:"median_cash" msgpack:"median_cash"`
	MeanCash           float64 `json:"mean_cash" msgpack:"mean_cash"`
	StdDevCash         float64 `json:"std_dev_cash" msgpack:"std_dev_cash"`
	P10Cash            float64 `json:"p10_cash" msgpack:"p10_cash"`
	P90Cash            float64 `json:"p90_cash" msgpack:"p90_cash"`
}

// FromSweep converts a sweep result into a new run with rows in ranked order.
// A nil params is archived as an empty object.
func FromSweep(res *scenarios.SweepResult, params *scenarios.Params) (*Run, error) {
	if res == nil {
		return nil, fmt.Errorf("sweep result is nil")
	}

	paramsJSON := "{}"
	if params != nil {
		b, err := json.Marshal(params)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal params: %w", err)
		}
		paramsJSON = string(b)
	}

	run := &Run{
		ID:         uuid.New().String(),
		CreatedAt:  time.Now().UTC().Truncate(time.Second),
		Kind:       KindSweep,
		Trials:     res.Trials,
		Years:      res.Years,
		Seed:       res.Seed,
		ReportYear: res.ReportYear,
		ElapsedMS:  res.Elapsed.Milliseconds(),
		ParamsJSON: paramsJSON,
	}

	for i, r := range res.Ranked() {
		run.Rows = append(run.Rows, Row{
			Position:           i + 1,
			Label:              r.Label,
			SellYear:           r.Vector.SellYear,
			FundingLevel:       r.Vector.Level,
			FundingLevels:      append([]int(nil), r.Vector.Levels...),
			CloseYear:          r.Vector.CloseYear,
			Foreclosed:         r.Summary.Foreclosed,
			ForeclosedFraction: r.Summary.ForeclosedFraction,
			MedianCash:         r.Summary.Median,
			MeanCash:           r.Summary.Mean,
			StdDevCash:         r.Summary.StdDev,
			P10Cash:            r.Summary.P10,
			P90Cash:            r.Summary.P90,
		})
	}
	return run, nil
}
