package scenarios

import (
	"context"
	"time"

	"github.com/aristath/minesim/internal/modules/cash_flows"
	"github.com/aristath/minesim/internal/modules/decisions"
	"github.com/aristath/minesim/internal/modules/position"
)

// RunRequest asks for one scenario. Actions, when given, replace Vector.
type RunRequest struct {
	Trials     int                `json:"trial_count"`
	Years      int                `json:"year_count"`
	Seed       uint64             `json:"seed"`
	Params     *Params            `json:"params,omitempty"`
	Vector     decisions.Vector   `json:"decisions"`
	Actions    []decisions.Action `json:"actions,omitempty"`
	ReportYear int                `json:"report_year,omitempty"`
}

// RunResult holds every table of one scenario
type RunResult struct {
	Trials     int
	Years      int
	Seed       uint64
	Vector     decisions.Vector
	Label      string
	Tables     *cash_flows.Result
	Position   *position.Grid
	Discovered int
	Sold       bool
	PerYear    []Summary // index 0 is year 1
	Report     Summary
	Elapsed    time.Duration
}

// Run draws the environments and replays one decision vector against them
func (s *Service) Run(ctx context.Context, req RunRequest) (*RunResult, error) {
	if err := checkContext(ctx); err != nil {
		return nil, err
	}
	start := time.Now()
	params := paramsOrDefault(req.Params)

	size := runSize{trials: req.Trials, years: req.Years, seed: req.Seed, reportYear: req.ReportYear}
	report, err := s.validate(size, params)
	if err != nil {
		return nil, err
	}
	vector, err := vectorFrom(req.Vector, req.Actions, req.Years, params)
	if err != nil {
		return nil, err
	}

	w, err := s.prepare(size, params, report)
	if err != nil {
		return nil, err
	}
	out, err := s.replay(w, vector)
	if err != nil {
		return nil, err
	}

	discovered := 0
	for _, y := range out.schedule.FoundYear {
		if y > 0 {
			discovered++
		}
	}

	res := &RunResult{
		Trials:     req.Trials,
		Years:      req.Years,
		Seed:       req.Seed,
		Vector:     vector,
		Label:      vector.Label(),
		Tables:     out.tables,
		Position:   out.grid,
		Discovered: discovered,
		Sold:       vector.SellYear > 0,
		PerYear:    SummarizeYears(out.tables.Cash, out.grid),
		Elapsed:    time.Since(start),
	}
	res.Report = res.PerYear[w.reportYear-1]

	s.log.Info().
		Int("trials", req.Trials).
		Int("years", req.Years).
		Uint64("seed", req.Seed).
		Str("decisions", res.Label).
		Int("report_year", w.reportYear).
		Int("foreclosed", res.Report.Foreclosed).
		Float64("median_cash", res.Report.Median).
		Dur("elapsed", res.Elapsed).
		Msg("Scenario run complete")

	return res, nil
}
