package cash_flows

import (
	"testing"

	"github.com/aristath/minesim/internal/domain"
	"github.com/aristath/minesim/internal/evaluation/workers"
	"github.com/aristath/minesim/internal/modules/environment"
	"github.com/aristath/minesim/internal/modules/pert"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testTerms = Terms{SellingCostRate: 0.1, ReputationFixed: 100, ReputationRate: 10}

func row(vals ...float64) [][]float64 { return [][]float64{vals} }

func put(t *testing.T, env *environment.Environment, name string, rows [][]float64) {
	t.Helper()
	table, err := environment.TableFromRows(rows)
	require.NoError(t, err)
	require.NoError(t, env.Put(name, table))
}

// oneTrial builds a single-trial, three-year producing asset with hand-picked values
func oneTrial(t *testing.T, production float64) *environment.Environment {
	t.Helper()
	env, err := environment.New(1, 3)
	require.NoError(t, err)
	put(t, env, environment.VarGoldPrice, row(100, 100, 100))
	put(t, env, environment.VarProduction, row(production, production, production))
	put(t, env, environment.VarEquipmentCost, row(2000, 2000, 2000))
	put(t, env, environment.VarLeaseProfit, row(50, 50, 50))
	put(t, env, environment.VarReputationDays, row(1, 1, 1))
	put(t, env, environment.VarInterestRate, row(0.1, 0.1, 0.1))
	return env
}

func newTestEvaluator() *Evaluator {
	return NewEvaluator(workers.NewWorkerPool(2), zerolog.Nop())
}

func TestEvaluate_Baseline(t *testing.T) {
	res, err := newTestEvaluator().Evaluate(Inputs{Asset1: oneTrial(t, 10), Terms: testTerms})
	require.NoError(t, err)

	assert.Equal(t, []float64{900, 900, 900}, res.Revenue.Row(0))
	assert.Equal(t, []float64{2110, 2110, 2110}, res.Cost.Row(0))
	assert.Equal(t, []float64{50, 50, 50}, res.LeaseIncome.Row(0))
	assert.InDeltaSlice(t, []float64{0, 116, 243.6}, res.Financing.Row(0), 1e-9)
	assert.InDeltaSlice(t, []float64{-1160, -1276, -1403.6}, res.Profit.Row(0), 1e-9)
	assert.InDeltaSlice(t, []float64{-1160, -2436, -3839.6}, res.Cash.Row(0), 1e-9)
}

func TestEvaluate_NoCreditOnPositiveCash(t *testing.T) {
	res, err := newTestEvaluator().Evaluate(Inputs{Asset1: oneTrial(t, 100), Terms: testTerms})
	require.NoError(t, err)

	// 100 × 100 × 0.9 − 2110 + 50 = 6940 per year
	assert.Equal(t, []float64{0, 0, 0}, res.Financing.Row(0))
	assert.InDeltaSlice(t, []float64{6940, 13880, 20820}, res.Cash.Row(0), 1e-9)
}

func TestEvaluate_SaleInYearTwo(t *testing.T) {
	schedule, err := NewSchedule(1, 3)
	require.NoError(t, err)
	schedule.SaleYear[0] = 2
	schedule.Owned.Set(0, 1, 0)
	schedule.Owned.Set(0, 2, 0)
	schedule.SaleProceeds.Set(0, 1, 1000)

	res, err := newTestEvaluator().Evaluate(Inputs{Asset1: oneTrial(t, 10), Schedule: schedule, Terms: testTerms})
	require.NoError(t, err)

	assert.Equal(t, []float64{50, 0, 0}, res.LeaseIncome.Row(0))
	assert.Equal(t, []float64{2110, 2000, 2000}, res.Cost.Row(0))
	assert.InDeltaSlice(t, []float64{-1160, -216, -1237.6}, res.Profit.Row(0), 1e-9)
	assert.InDeltaSlice(t, []float64{-1160, -1376, -2613.6}, res.Cash.Row(0), 1e-9)
}

func TestEvaluate_DiscoveredMine(t *testing.T) {
	asset1 := oneTrial(t, 100)

	asset2, err := environment.New(1, 3)
	require.NoError(t, err)
	price, _ := asset1.Var(environment.VarGoldPrice)
	require.NoError(t, asset2.Put(environment.VarGoldPrice, price))
	put(t, asset2, environment.VarProduction, row(0, 20, 20))
	put(t, asset2, environment.VarEquipmentCost, row(1000, 1000, 1000))

	schedule, err := NewSchedule(1, 3)
	require.NoError(t, err)
	schedule.FoundYear[0] = 1
	schedule.SearchCost.Set(0, 0, 300)
	schedule.Active.Set(0, 1, 1)
	schedule.Active.Set(0, 2, 1)
	assert.Equal(t, []int{2}, schedule.ProductionStart())

	res, err := newTestEvaluator().Evaluate(Inputs{Asset1: asset1, Asset2: asset2, Schedule: schedule, Terms: testTerms})
	require.NoError(t, err)

	assert.Equal(t, []float64{9000, 10800, 10800}, res.Revenue.Row(0))
	assert.Equal(t, []float64{2410, 3110, 3110}, res.Cost.Row(0))
	assert.InDeltaSlice(t, []float64{6640, 7740, 7740}, res.Profit.Row(0), 1e-9)
}

func TestEvaluate_ClosedMineStopsContributing(t *testing.T) {
	asset1 := oneTrial(t, 100)
	asset2, err := environment.New(1, 3)
	require.NoError(t, err)
	put(t, asset2, environment.VarGoldPrice, row(100, 100, 100))
	put(t, asset2, environment.VarProduction, row(0, 20, 20))
	put(t, asset2, environment.VarEquipmentCost, row(1000, 1000, 1000))

	schedule, err := NewSchedule(1, 3)
	require.NoError(t, err)
	schedule.FoundYear[0] = 1
	schedule.ClosedYear[0] = 3
	schedule.Active.Set(0, 1, 1)

	res, err := newTestEvaluator().Evaluate(Inputs{Asset1: asset1, Asset2: asset2, Schedule: schedule, Terms: testTerms})
	require.NoError(t, err)
	assert.Equal(t, []float64{9000, 10800, 9000}, res.Revenue.Row(0))
	assert.Equal(t, []float64{2110, 3110, 2110}, res.Cost.Row(0))
}

func TestEvaluate_NegativeProductionPropagates(t *testing.T) {
	res, err := newTestEvaluator().Evaluate(Inputs{Asset1: oneTrial(t, -5), Terms: testTerms})
	require.NoError(t, err)
	assert.Equal(t, []float64{-450, -450, -450}, res.Revenue.Row(0))
}

func TestEvaluate_Errors(t *testing.T) {
	ev := newTestEvaluator()

	_, err := ev.Evaluate(Inputs{Terms: testTerms})
	assert.ErrorIs(t, err, domain.ErrInvalidEnvironment)

	missing, err := environment.New(1, 3)
	require.NoError(t, err)
	put(t, missing, environment.VarGoldPrice, row(1, 2, 3))
	_, err = ev.Evaluate(Inputs{Asset1: missing, Terms: testTerms})
	assert.ErrorIs(t, err, domain.ErrInvalidEnvironment)

	misaligned, err := environment.New(2, 3)
	require.NoError(t, err)
	_, err = ev.Evaluate(Inputs{Asset1: oneTrial(t, 10), Asset2: misaligned, Terms: testTerms})
	assert.ErrorIs(t, err, domain.ErrInvalidEnvironment)

	wrongShape, err := NewSchedule(1, 4)
	require.NoError(t, err)
	_, err = ev.Evaluate(Inputs{Asset1: oneTrial(t, 10), Schedule: wrongShape, Terms: testTerms})
	assert.ErrorIs(t, err, domain.ErrInvalidDecision)

	found, err := NewSchedule(1, 3)
	require.NoError(t, err)
	found.FoundYear[0] = 2
	_, err = ev.Evaluate(Inputs{Asset1: oneTrial(t, 10), Schedule: found, Terms: testTerms})
	assert.ErrorIs(t, err, domain.ErrInvalidEnvironment)

	_, err = ev.Evaluate(Inputs{Asset1: oneTrial(t, 10), Terms: Terms{SellingCostRate: 1.5}})
	assert.ErrorIs(t, err, domain.ErrInvalidParameters)
}

func TestEvaluate_IndependentOfWorkerCount(t *testing.T) {
	specs := []environment.VariableSpec{
		{Name: environment.VarGoldPrice, Kind: environment.Additive,
			Init: pert.Params{Min: 1600, Max: 1800, Mode: 1700}, Delta: &pert.Params{Min: -100, Max: 500, Mode: 100}},
		{Name: environment.VarProduction, Kind: environment.FixedBase,
			Init: pert.Params{Min: 2000, Max: 9000, Mode: 5000}, Delta: &pert.Params{Min: 0.6, Max: 1.2, Mode: 0.95}},
		{Name: environment.VarEquipmentCost, Kind: environment.Independent, Init: pert.Params{Min: 4e6, Max: 9e6, Mode: 6e6}},
		{Name: environment.VarLeaseProfit, Kind: environment.Independent, Init: pert.Params{Min: 2e5, Max: 2.5e6, Mode: 1.2e6}},
		{Name: environment.VarReputationDays, Kind: environment.Independent, Init: pert.Params{Min: 5, Max: 60, Mode: 20}},
		{Name: environment.VarInterestRate, Kind: environment.Autoregressive,
			Init: pert.Params{Min: 0.04, Max: 0.12, Mode: 0.06}, Delta: &pert.Params{Min: 0.8, Max: 1.3, Mode: 1}},
	}
	gen := environment.NewGenerator(5, workers.NewWorkerPool(4), zerolog.Nop())
	env, err := gen.GenerateSet(domain.AssetPrimary, specs, 3000, 5)
	require.NoError(t, err)

	terms := Terms{SellingCostRate: 0.05, ReputationFixed: 200_000, ReputationRate: 10_000}
	a, err := NewEvaluator(workers.NewWorkerPool(1), zerolog.Nop()).Evaluate(Inputs{Asset1: env, Terms: terms})
	require.NoError(t, err)
	b, err := NewEvaluator(workers.NewWorkerPool(8), zerolog.Nop()).Evaluate(Inputs{Asset1: env, Terms: terms})
	require.NoError(t, err)

	for _, name := range TableNames {
		ta, _ := a.Table(name)
		tb, _ := b.Table(name)
		assert.True(t, ta.Equal(tb), name)
	}
	assert.Len(t, a.Records(), len(TableNames)*3000*5)
}
