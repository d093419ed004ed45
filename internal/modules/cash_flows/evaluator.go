package cash_flows

import (
	"fmt"
	"time"

	"github.com/aristath/minesim/internal/domain"
	"github.com/aristath/minesim/internal/evaluation/workers"
	"github.com/aristath/minesim/internal/modules/environment"
	"github.com/rs/zerolog"
	"gonum.org/v1/gonum/floats"
)

// evaluateChunkSize is the number of trials one worker job evaluates
const evaluateChunkSize = 1024

// ProspectVariables are the variables a discovered mine needs. Production is expected to
// be time-shifted already so its own year 1 falls on the first producing year.
var ProspectVariables = []string{
	environment.VarGoldPrice,
	environment.VarProduction,
	environment.VarEquipmentCost,
}

// Inputs bundles one evaluation. Asset2 may be nil when the schedule discovers nothing.
// A nil Schedule means the do-nothing baseline.
type Inputs struct {
	Asset1   *environment.Environment
	Asset2   *environment.Environment
	Schedule *Schedule
	Terms    Terms
}

// Evaluator turns environments and a decision schedule into cash-flow tables
type Evaluator struct {
	pool *workers.WorkerPool
	log  zerolog.Logger
}

// NewEvaluator creates an evaluator running trial chunks on pool
func NewEvaluator(pool *workers.WorkerPool, log zerolog.Logger) *Evaluator {
	if pool == nil {
		pool = workers.NewWorkerPool(0)
	}
	return &Evaluator{
		pool: pool,
		log:  log.With().Str("component", "cash_flow_evaluator").Logger(),
	}
}

// Evaluate computes every output table. Validation runs first; after it passes the
// computation cannot fail.
//
// Per trial and year, in increasing year order:
//
//	revenue   = production × price × (1 − selling cost rate), plus the found mine while active
//	cost      = equipment + reputation while owned + found-mine equipment while active + search
//	financing = −cash(t−1) × rate(t) when cash(t−1) < 0
//	profit    = revenue − cost + lease income while owned − financing + sale proceeds
//	cash(t)   = cash(t−1) + profit(t), cash(0) = 0
func (e *Evaluator) Evaluate(in Inputs) (*Result, error) {
	start := time.Now()

	if in.Asset1 == nil {
		return nil, fmt.Errorf("%w: no producing-asset environment", domain.ErrInvalidEnvironment)
	}
	if err := in.Terms.Validate(); err != nil {
		return nil, err
	}
	if err := in.Asset1.Require(environment.RequiredVariables...); err != nil {
		return nil, err
	}
	trials, years := in.Asset1.Trials(), in.Asset1.Years()

	schedule := in.Schedule
	if schedule == nil {
		var err error
		if schedule, err = NewSchedule(trials, years); err != nil {
			return nil, err
		}
	}
	if err := schedule.Validate(trials, years); err != nil {
		return nil, err
	}

	if in.Asset2 != nil {
		if err := in.Asset1.AlignedWith(in.Asset2); err != nil {
			return nil, err
		}
		if err := in.Asset2.Require(ProspectVariables...); err != nil {
			return nil, err
		}
	} else if schedule.Discovered() {
		return nil, fmt.Errorf("%w: schedule discovers a second mine but no second-asset environment was given",
			domain.ErrInvalidEnvironment)
	}

	src := bindSources(in.Asset1, in.Asset2, schedule)
	res := newResult(trials, years)

	e.pool.ForEachChunk(trials, evaluateChunkSize, func(c workers.Chunk) {
		scratch := make([]float64, years)
		for i := c.Lo; i < c.Hi; i++ {
			evaluateTrial(i, src, res, in.Terms, scratch)
		}
	})

	e.log.Debug().
		Int("trials", trials).
		Int("years", years).
		Bool("second_asset", in.Asset2 != nil).
		Dur("elapsed", time.Since(start)).
		Msg("Cash flows evaluated")

	return res, nil
}

// sources holds the tables read during evaluation
type sources struct {
	price, production, equipment, lease, days, rate *environment.Table
	price2, production2, equipment2                 *environment.Table
	owned, sale, search, active                     *environment.Table
}

func bindSources(a1, a2 *environment.Environment, s *Schedule) sources {
	get := func(env *environment.Environment, name string) *environment.Table {
		t, _ := env.Var(name)
		return t
	}
	src := sources{
		price:      get(a1, environment.VarGoldPrice),
		production: get(a1, environment.VarProduction),
		equipment:  get(a1, environment.VarEquipmentCost),
		lease:      get(a1, environment.VarLeaseProfit),
		days:       get(a1, environment.VarReputationDays),
		rate:       get(a1, environment.VarInterestRate),
		owned:      s.Owned,
		sale:       s.SaleProceeds,
		search:     s.SearchCost,
		active:     s.Active,
	}
	if a2 != nil {
		src.price2 = get(a2, environment.VarGoldPrice)
		src.production2 = get(a2, environment.VarProduction)
		src.equipment2 = get(a2, environment.VarEquipmentCost)
	}
	return src
}

// evaluateTrial fills row i of every result table. scratch is a years-long buffer owned
// by the calling worker.
func evaluateTrial(i int, src sources, res *Result, terms Terms, scratch []float64) {
	owned := src.owned.Row(i)
	active := src.active.Row(i)
	keep := 1 - terms.SellingCostRate

	revenue := res.Revenue.Row(i)
	floats.MulTo(revenue, src.production.Row(i), src.price.Row(i))
	floats.Scale(keep, revenue)

	lease := res.LeaseIncome.Row(i)
	floats.MulTo(lease, src.lease.Row(i), owned)

	cost := res.Cost.Row(i)
	equipment := src.equipment.Row(i)
	days := src.days.Row(i)
	for t := range cost {
		cost[t] = equipment[t] + owned[t]*terms.ReputationCost(days[t])
	}

	if src.production2 != nil {
		floats.MulTo(scratch, src.production2.Row(i), src.price2.Row(i))
		floats.Scale(keep, scratch)
		floats.Mul(scratch, active)
		floats.Add(revenue, scratch)

		floats.MulTo(scratch, src.equipment2.Row(i), active)
		floats.Add(cost, scratch)
	}
	floats.Add(cost, src.search.Row(i))

	rate := src.rate.Row(i)
	sale := src.sale.Row(i)
	financing := res.Financing.Row(i)
	profit := res.Profit.Row(i)
	cash := res.Cash.Row(i)

	prev := 0.0
	for t := range cash {
		financing[t] = 0
		if prev < 0 {
			financing[t] = -prev * rate[t]
		}
		profit[t] = revenue[t] - cost[t] + lease[t] - financing[t] + sale[t]
		cash[t] = prev + profit[t]
		prev = cash[t]
	}
}
