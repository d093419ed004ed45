package environment

import (
	"math"
	"testing"

	"github.com/aristath/minesim/internal/domain"
	"github.com/aristath/minesim/internal/evaluation/workers"
	"github.com/aristath/minesim/internal/modules/pert"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/stat"
)

func newTestGenerator(seed uint64, numWorkers int) *Generator {
	return NewGenerator(seed, workers.NewWorkerPool(numWorkers), zerolog.Nop())
}

func deltaOf(p pert.Params) *pert.Params { return &p }

func TestGenerate_IndependentColumnsUncorrelated(t *testing.T) {
	g := newTestGenerator(1, 4)
	spec := VariableSpec{
		Name: VarEquipmentCost,
		Kind: Independent,
		Init: pert.Params{Min: 4e6, Max: 9e6, Mode: 6e6},
	}

	table, err := g.Generate(spec, "primary/equipment_cost", 50_000, 4)
	require.NoError(t, err)

	for a := 0; a < 4; a++ {
		for b := a + 1; b < 4; b++ {
			corr := stat.Correlation(table.Column(a), table.Column(b), nil)
			assert.InDelta(t, 0, corr, 0.03, "years %d and %d", a+1, b+1)
		}
		assert.InDelta(t, spec.Init.Mean(), stat.Mean(table.Column(a), nil), 0.01*spec.Init.Range())
	}
}

func TestGenerate_AutoregressiveChainsOnPreviousYear(t *testing.T) {
	g := newTestGenerator(2, 3)
	delta := pert.Params{Min: 0.8, Max: 1.3, Mode: 1.0}
	spec := VariableSpec{
		Name:  VarInterestRate,
		Kind:  Autoregressive,
		Init:  pert.Params{Min: 0.04, Max: 0.12, Mode: 0.06},
		Delta: &delta,
	}

	table, err := g.Generate(spec, "primary/interest_rate", 5_000, 6)
	require.NoError(t, err)

	for i := 0; i < table.Trials(); i++ {
		row := table.Row(i)
		require.GreaterOrEqual(t, row[0], spec.Init.Min)
		require.LessOrEqual(t, row[0], spec.Init.Max)
		for y := 1; y < len(row); y++ {
			factor := row[y] / row[y-1]
			require.GreaterOrEqual(t, factor, delta.Min-1e-12, "trial %d year %d", i, y+1)
			require.LessOrEqual(t, factor, delta.Max+1e-12, "trial %d year %d", i, y+1)
		}
	}

	// Chaining makes consecutive years strongly correlated.
	assert.Greater(t, stat.Correlation(table.Column(1), table.Column(2), nil), 0.5)
}

func TestGenerate_FixedBaseDerivesFromYearOne(t *testing.T) {
	g := newTestGenerator(3, 2)
	delta := pert.Params{Min: 0.5, Max: 1.5, Mode: 1.0}
	spec := VariableSpec{
		Name:  VarProduction,
		Kind:  FixedBase,
		Init:  pert.Params{Min: 2000, Max: 9000, Mode: 5000},
		Delta: &delta,
	}

	table, err := g.Generate(spec, "primary/production", 40_000, 4)
	require.NoError(t, err)

	trials := table.Trials()
	ratio2 := make([]float64, trials)
	ratio3 := make([]float64, trials)
	ratio4 := make([]float64, trials)
	for i := 0; i < trials; i++ {
		row := table.Row(i)
		ratio2[i] = row[1] / row[0]
		ratio3[i] = row[2] / row[0]
		ratio4[i] = row[3] / row[0]
		// A chained factor product could reach 2.25; fixed base never leaves the delta support.
		for _, r := range []float64{ratio2[i], ratio3[i], ratio4[i]} {
			require.GreaterOrEqual(t, r, delta.Min-1e-12)
			require.LessOrEqual(t, r, delta.Max+1e-12)
		}
	}

	// Year 3 and year 4 multipliers do not depend on the year-2 outcome.
	assert.InDelta(t, 0, stat.Correlation(ratio2, ratio3, nil), 0.03)
	assert.InDelta(t, 0, stat.Correlation(ratio2, ratio4, nil), 0.03)
	assert.InDelta(t, 0, stat.Correlation(ratio3, ratio4, nil), 0.03)

	// Split by year-2 outcome: the year-3 and year-4 multiplier distributions match.
	var lowY3, highY3, lowY4, highY4 []float64
	for i := range ratio2 {
		if ratio2[i] < delta.Mean() {
			lowY3 = append(lowY3, ratio3[i])
			lowY4 = append(lowY4, ratio4[i])
		} else {
			highY3 = append(highY3, ratio3[i])
			highY4 = append(highY4, ratio4[i])
		}
	}
	require.NotEmpty(t, lowY3)
	require.NotEmpty(t, highY3)
	assert.InDelta(t, stat.Mean(lowY3, nil), stat.Mean(highY3, nil), 0.01)
	assert.InDelta(t, stat.Mean(lowY4, nil), stat.Mean(highY4, nil), 0.01)
	assert.InDelta(t, stat.StdDev(lowY3, nil), stat.StdDev(highY3, nil), 0.01)
}

func TestGenerate_AdditiveChainAndNegativeValuesPreserved(t *testing.T) {
	g := newTestGenerator(4, 4)
	delta := pert.Params{Min: -100, Max: 500, Mode: 100}
	spec := VariableSpec{
		Name:  VarGoldPrice,
		Kind:  Additive,
		Init:  pert.Params{Min: 1600, Max: 1800, Mode: 1700},
		Delta: &delta,
	}

	table, err := g.Generate(spec, "primary/gold_price", 10_000, 5)
	require.NoError(t, err)

	for i := 0; i < table.Trials(); i++ {
		row := table.Row(i)
		for y := 1; y < len(row); y++ {
			step := row[y] - row[y-1]
			require.GreaterOrEqual(t, step, delta.Min-1e-9)
			require.LessOrEqual(t, step, delta.Max+1e-9)
		}
	}
	// Mean drifts by the delta mean every year.
	assert.InDelta(t, 1700+4*delta.Mean(), stat.Mean(table.Column(4), nil), 10)

	negative := VariableSpec{
		Name:  "drift",
		Kind:  Additive,
		Init:  pert.Params{Min: -1, Max: 1, Mode: 0},
		Delta: deltaOf(pert.Params{Min: -5, Max: -1, Mode: -2}),
	}
	neg, err := g.Generate(negative, "primary/drift", 100, 3)
	require.NoError(t, err)
	for i := 0; i < neg.Trials(); i++ {
		assert.Less(t, neg.At(i, 2), 0.0, "values are not clamped at zero")
	}
}

func TestGenerate_Deterministic(t *testing.T) {
	delta := pert.Params{Min: 0.6, Max: 1.2, Mode: 0.95}
	spec := VariableSpec{
		Name:  VarProduction,
		Kind:  FixedBase,
		Init:  pert.Params{Min: 2000, Max: 9000, Mode: 5000},
		Delta: &delta,
	}

	a, err := newTestGenerator(99, 1).Generate(spec, "primary/production", 5_000, 5)
	require.NoError(t, err)
	b, err := newTestGenerator(99, 8).Generate(spec, "primary/production", 5_000, 5)
	require.NoError(t, err)
	assert.True(t, a.Equal(b), "same seed must give bit-identical tables for any worker count")

	c, err := newTestGenerator(100, 8).Generate(spec, "primary/production", 5_000, 5)
	require.NoError(t, err)
	assert.False(t, a.Equal(c), "different seeds must differ")

	d, err := newTestGenerator(99, 8).Generate(spec, "prospect/production", 5_000, 5)
	require.NoError(t, err)
	assert.False(t, a.Equal(d), "different stream labels must differ")
}

func TestGenerate_ChunkBoundariesIndependent(t *testing.T) {
	spec := VariableSpec{Name: "x", Kind: Independent, Init: pert.Params{Min: 0, Max: 1, Mode: 0.5}}
	g := newTestGenerator(5, 4).WithChunkSize(16)

	table, err := g.Generate(spec, "primary/x", 64, 1)
	require.NoError(t, err)

	// Rows at the same offset of different chunks come from different substreams.
	assert.NotEqual(t, table.At(0, 0), table.At(16, 0))
	assert.NotEqual(t, table.At(0, 0), table.At(32, 0))
}

func TestGenerate_Errors(t *testing.T) {
	g := newTestGenerator(1, 1)

	tests := []struct {
		name   string
		spec   VariableSpec
		trials int
		years  int
	}{
		{"chained without delta", VariableSpec{Name: "x", Kind: Autoregressive, Init: pert.Params{Min: 0, Max: 1, Mode: 0.5}}, 10, 2},
		{"bad init", VariableSpec{Name: "x", Kind: Independent, Init: pert.Params{Min: 1, Max: 0, Mode: 0.5}}, 10, 2},
		{"bad delta", VariableSpec{Name: "x", Kind: FixedBase, Init: pert.Params{Min: 0, Max: 1, Mode: 0.5}, Delta: deltaOf(pert.Params{Min: 1, Max: 1, Mode: 1})}, 10, 2},
		{"unknown kind", VariableSpec{Name: "x", Kind: Kind(42), Init: pert.Params{Min: 0, Max: 1, Mode: 0.5}}, 10, 2},
		{"no name", VariableSpec{Kind: Independent, Init: pert.Params{Min: 0, Max: 1, Mode: 0.5}}, 10, 2},
		{"zero trials", VariableSpec{Name: "x", Kind: Independent, Init: pert.Params{Min: 0, Max: 1, Mode: 0.5}}, 0, 2},
		{"zero years", VariableSpec{Name: "x", Kind: Independent, Init: pert.Params{Min: 0, Max: 1, Mode: 0.5}}, 10, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			table, err := g.Generate(tt.spec, "primary/x", tt.trials, tt.years)
			assert.Nil(t, table)
			assert.ErrorIs(t, err, domain.ErrInvalidParameters)
		})
	}
}

func TestGenerateSet(t *testing.T) {
	g := newTestGenerator(7, 2)
	specs := []VariableSpec{
		{Name: "a", Kind: Independent, Init: pert.Params{Min: 0, Max: 1, Mode: 0.5}},
		{Name: "b", Kind: Independent, Init: pert.Params{Min: 0, Max: 1, Mode: 0.5}},
	}

	env, err := g.GenerateSet(domain.AssetPrimary, specs, 100, 3)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, env.Names())

	a, err := env.Var("a")
	require.NoError(t, err)
	b, err := env.Var("b")
	require.NoError(t, err)
	assert.False(t, a.Equal(b), "variables with identical parameters still get independent streams")

	_, err = g.GenerateSet(domain.AssetPrimary, append(specs, specs[0]), 100, 3)
	assert.ErrorIs(t, err, domain.ErrInvalidParameters)

	bad := append([]VariableSpec{}, specs...)
	bad[1].Init = pert.Params{Min: 2, Max: 1, Mode: 1}
	_, err = g.GenerateSet(domain.AssetPrimary, bad, 100, 3)
	assert.ErrorIs(t, err, domain.ErrInvalidParameters)
}

func TestUniforms(t *testing.T) {
	g := newTestGenerator(8, 3)
	u, err := g.Uniforms("search/success", 20_000, 3)
	require.NoError(t, err)

	for i := 0; i < u.Trials(); i++ {
		for _, v := range u.Row(i) {
			require.GreaterOrEqual(t, v, 0.0)
			require.Less(t, v, 1.0)
		}
	}
	assert.InDelta(t, 0.5, stat.Mean(u.Column(0), nil), 0.01)
	assert.InDelta(t, 1.0/12, stat.Variance(u.Column(2), nil), 0.005)

	again, err := newTestGenerator(8, 1).Uniforms("search/success", 20_000, 3)
	require.NoError(t, err)
	assert.True(t, u.Equal(again))
	assert.False(t, math.IsNaN(u.At(0, 0)))
}
