// Package scenarios runs complete simulations: it draws the environments once, replays
// one or many decision vectors against them and summarises the resulting cash positions.
package scenarios

import (
	"context"
	"fmt"

	"github.com/aristath/minesim/internal/domain"
	"github.com/aristath/minesim/internal/evaluation/workers"
	"github.com/aristath/minesim/internal/modules/cash_flows"
	"github.com/aristath/minesim/internal/modules/decisions"
	"github.com/aristath/minesim/internal/modules/dualasset"
	"github.com/aristath/minesim/internal/modules/environment"
	"github.com/aristath/minesim/internal/modules/position"
	"github.com/aristath/minesim/internal/utils"
	"github.com/rs/zerolog"
)

// DefaultMaxTrials caps the trial count when the service config leaves it unset
const DefaultMaxTrials = 1_000_000

// Config sizes the service
type Config struct {
	Workers   int // 0 means one per logical CPU
	MaxTrials int // largest accepted trial count
	// SweepMemory bounds, in bytes, the tables of the vectors a sweep replays at once.
	// 0 means DefaultSweepMemory.
	SweepMemory int64
}

// Service is the batch-run and sweep entry point
type Service struct {
	pool        *workers.WorkerPool
	evaluator   *cash_flows.Evaluator
	maxTrials   int
	sweepMemory int64
	log         zerolog.Logger
}

// NewService creates a scenario service
func NewService(cfg Config, log zerolog.Logger) *Service {
	pool := workers.NewWorkerPool(cfg.Workers)
	maxTrials := cfg.MaxTrials
	if maxTrials <= 0 {
		maxTrials = DefaultMaxTrials
	}
	sweepMemory := cfg.SweepMemory
	if sweepMemory <= 0 {
		sweepMemory = DefaultSweepMemory
	}
	return &Service{
		pool:        pool,
		evaluator:   cash_flows.NewEvaluator(pool, log),
		maxTrials:   maxTrials,
		sweepMemory: sweepMemory,
		log:         log.With().Str("component", "scenario_service").Logger(),
	}
}

// Workers returns the worker pool size
func (s *Service) Workers() int {
	return s.pool.Size()
}

// MaxTrials returns the largest accepted trial count
func (s *Service) MaxTrials() int {
	return s.maxTrials
}

// world is one drawn set of environments shared by every vector of a run or sweep
type world struct {
	params     Params
	asset1     *environment.Environment
	asset2     *environment.Environment
	ownCurve   []string
	draws      *environment.Table
	replayer   *decisions.Replayer
	reportYear int
}

// runSize is the part of a request that shapes the world
type runSize struct {
	trials     int
	years      int
	seed       uint64
	reportYear int
}

// validate checks run size and parameters before anything is drawn
func (s *Service) validate(size runSize, params Params) (int, error) {
	if size.trials < 1 || size.years < 1 {
		return 0, fmt.Errorf("%w: trial_count and year_count must be >= 1, got %d and %d",
			domain.ErrInvalidParameters, size.trials, size.years)
	}
	if size.trials > s.maxTrials {
		return 0, fmt.Errorf("%w: trial_count %d exceeds the limit of %d",
			domain.ErrInvalidParameters, size.trials, s.maxTrials)
	}
	report := size.reportYear
	if report == 0 {
		report = size.years
	}
	if report < 1 || report > size.years {
		return 0, fmt.Errorf("%w: report year %d outside 1..%d", domain.ErrInvalidParameters, report, size.years)
	}
	if err := params.Validate(); err != nil {
		return 0, err
	}
	if err := params.Constants.Validate(size.years); err != nil {
		return 0, err
	}
	return report, nil
}

// prepare draws both environments and the exploration draws. size and params must
// have passed validate; report is the resolved report year.
func (s *Service) prepare(size runSize, params Params, report int) (*world, error) {
	timer := utils.NewTimer("environment_generation", s.log)
	gen := environment.NewGenerator(size.seed, s.pool, s.log)

	asset1, err := gen.GenerateSet(domain.AssetPrimary, params.Variables, size.trials, size.years)
	if err != nil {
		return nil, err
	}

	w := &world{
		params:     params,
		asset1:     asset1,
		replayer:   decisions.NewReplayer(params.Constants, s.log),
		reportYear: report,
	}

	if len(params.Prospect) > 0 {
		builder := dualasset.NewBuilder(gen, domain.AssetProspect, s.log)
		if err := builder.SetAll(params.Prospect); err != nil {
			return nil, err
		}
		if w.asset2, err = builder.Build(asset1, params.Variables); err != nil {
			return nil, err
		}
		w.ownCurve = builder.OwnCurve()
	}

	if w.draws, err = decisions.DrawSuccess(gen, size.trials, size.years); err != nil {
		return nil, err
	}

	timer.StopWithContext(map[string]interface{}{
		"trials": size.trials,
		"years":  size.years,
		"seed":   size.seed,
	})
	return w, nil
}

// outcome is one vector replayed against a world
type outcome struct {
	schedule *cash_flows.Schedule
	tables   *cash_flows.Result
	grid     *position.Grid
}

// replay evaluates one vector
func (s *Service) replay(w *world, v decisions.Vector) (*outcome, error) {
	schedule, err := w.replayer.Schedule(v, w.draws)
	if err != nil {
		return nil, err
	}

	asset2 := w.asset2
	if asset2 != nil && schedule.Discovered() && len(w.ownCurve) > 0 {
		asset2, err = dualasset.ShiftEnvironment(asset2, schedule.ProductionStart(), w.ownCurve...)
		if err != nil {
			return nil, err
		}
	}

	tables, err := s.evaluator.Evaluate(cash_flows.Inputs{
		Asset1:   w.asset1,
		Asset2:   asset2,
		Schedule: schedule,
		Terms:    w.params.Terms,
	})
	if err != nil {
		return nil, err
	}

	grid, err := position.Classify(tables.Cash, w.params.ForeclosureThreshold)
	if err != nil {
		return nil, err
	}
	return &outcome{schedule: schedule, tables: tables, grid: grid}, nil
}

// vectorFrom prefers parsed actions over an explicit vector
func vectorFrom(v decisions.Vector, actions []decisions.Action, years int, params Params) (decisions.Vector, error) {
	if len(actions) > 0 {
		parsed, err := decisions.Parse(actions, years, params.Constants.MaxLevel())
		if err != nil {
			return decisions.Vector{}, err
		}
		v = parsed
	}
	return v, params.CheckVector(v, years)
}

func paramsOrDefault(p *Params) Params {
	if p == nil {
		return DefaultParams()
	}
	return *p
}

func checkContext(ctx context.Context) error {
	if ctx == nil {
		return nil
	}
	return ctx.Err()
}
