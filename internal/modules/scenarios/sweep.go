package scenarios

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/aristath/minesim/internal/evaluation/workers"
	"github.com/aristath/minesim/internal/modules/cash_flows"
	"github.com/aristath/minesim/internal/modules/decisions"
	"github.com/aristath/minesim/internal/modules/scenarios/progress"
)

// PhaseSweep is the progress phase reported while vectors are evaluated
const PhaseSweep = "scenario_sweep"

// DefaultSweepMemory bounds the tables of concurrently replayed vectors when the service
// config leaves it unset
const DefaultSweepMemory int64 = 2 << 30

// scheduleTables is the number of trials × years tables in a cash_flows.Schedule
const scheduleTables = 4

// sweepConcurrency returns how many vectors fit in budget bytes at once, between 1 and
// workers. A replay holds its schedule and result tables, one shifted copy of each
// redrawn prospect variable and a byte-per-cell position grid.
func sweepConcurrency(workers, trials, years, shifted int, budget int64) int {
	cells := int64(trials) * int64(years)
	perReplay := cells*8*int64(scheduleTables+len(cash_flows.TableNames)+shifted) + cells
	if perReplay <= 0 {
		return workers
	}
	n := budget / perReplay
	if n < 1 {
		return 1
	}
	if n > int64(workers) {
		return workers
	}
	return int(n)
}

// SweepRequest asks for many vectors over one drawn world. An empty Vectors list sweeps
// the full sell year × funding level grid, or sell years alone without a prospect.
type SweepRequest struct {
	Trials     int                `json:"trial_count"`
	Years      int                `json:"year_count"`
	Seed       uint64             `json:"seed"`
	Params     *Params            `json:"params,omitempty"`
	Vectors    []decisions.Vector `json:"vectors,omitempty"`
	ReportYear int                `json:"report_year,omitempty"`

	Progress progress.DetailedCallback `json:"-"`
}

// SweepRow is the report-year summary of one vector
type SweepRow struct {
	Vector  decisions.Vector `json:"decisions" msgpack:"decisions"`
	Label   string           `json:"label" msgpack:"label"`
	Summary Summary          `json:"summary" msgpack:"summary"`
}

// SweepResult holds one row per requested vector, in request order
type SweepResult struct {
	Trials     int           `json:"trial_count" msgpack:"trial_count"`
	Years      int           `json:"year_count" msgpack:"year_count"`
	Seed       uint64        `json:"seed" msgpack:"seed"`
	ReportYear int           `json:"report_year" msgpack:"report_year"`
	Rows       []SweepRow    `json:"rows" msgpack:"rows"`
	Elapsed    time.Duration `json:"elapsed_ns" msgpack:"elapsed_ns"`
}

// Ranked returns the rows ordered by fewest foreclosures, then highest median cash
func (r *SweepResult) Ranked() []SweepRow {
	rows := append([]SweepRow(nil), r.Rows...)
	sort.SliceStable(rows, func(i, j int) bool {
		if rows[i].Summary.Foreclosed != rows[j].Summary.Foreclosed {
			return rows[i].Summary.Foreclosed < rows[j].Summary.Foreclosed
		}
		return rows[i].Summary.Median > rows[j].Summary.Median
	})
	return rows
}

// Grid enumerates every sell year (never, 1..years) against every constant funding
// level 0..maxLevel, sell year major.
func Grid(years, maxLevel int) []decisions.Vector {
	if years < 0 || maxLevel < 0 {
		return nil
	}
	out := make([]decisions.Vector, 0, (years+1)*(maxLevel+1))
	for sell := 0; sell <= years; sell++ {
		for level := 0; level <= maxLevel; level++ {
			out = append(out, decisions.Vector{SellYear: sell, Level: level})
		}
	}
	return out
}

// sweepItem carries one vector's row or its failure out of the pool
type sweepItem struct {
	row SweepRow
	err error
}

// Sweep replays every vector against the same environments and summarises the report year.
// Vectors run in parallel; a validation error or a cancelled context fails the whole sweep.
func (s *Service) Sweep(ctx context.Context, req SweepRequest) (*SweepResult, error) {
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

	vectors := req.Vectors
	if len(vectors) == 0 {
		vectors = Grid(req.Years, params.MaxSweepLevel())
	}
	for i, v := range vectors {
		if err := params.CheckVector(v, req.Years); err != nil {
			return nil, fmt.Errorf("vector %d: %w", i, err)
		}
	}

	w, err := s.prepare(size, params, report)
	if err != nil {
		return nil, err
	}

	concurrency := sweepConcurrency(s.pool.Size(), req.Trials, req.Years, len(w.ownCurve), s.sweepMemory)
	pool := s.pool
	if concurrency < pool.Size() {
		// Trials inside each replay still use the full pool
		pool = workers.NewWorkerPool(concurrency)
	}

	tracker := progress.NewTracker(PhaseSweep, len(vectors), req.Progress)
	items := workers.Evaluate(pool, len(vectors), func(i int) sweepItem {
		if err := checkContext(ctx); err != nil {
			return sweepItem{err: err}
		}
		out, err := s.replay(w, vectors[i])
		if err != nil {
			return sweepItem{err: err}
		}
		return sweepItem{row: SweepRow{
			Vector:  vectors[i],
			Label:   vectors[i].Label(),
			Summary: Summarize(out.tables.Cash, out.grid, report),
		}}
	}, tracker)

	if err := checkContext(ctx); err != nil {
		return nil, err
	}
	rows := make([]SweepRow, len(items))
	for i, item := range items {
		if item.err != nil {
			return nil, fmt.Errorf("vector %d (%s): %w", i, vectors[i].Label(), item.err)
		}
		rows[i] = item.row
	}

	res := &SweepResult{
		Trials:     req.Trials,
		Years:      req.Years,
		Seed:       req.Seed,
		ReportYear: report,
		Rows:       rows,
		Elapsed:    time.Since(start),
	}

	best := res.Ranked()[0]
	s.log.Info().
		Int("trials", req.Trials).
		Int("years", req.Years).
		Int("vectors", len(rows)).
		Int("concurrency", concurrency).
		Int("report_year", report).
		Str("best", best.Label).
		Int("best_foreclosed", best.Summary.Foreclosed).
		Dur("elapsed", res.Elapsed).
		Msg("Scenario sweep complete")

	return res, nil
}
