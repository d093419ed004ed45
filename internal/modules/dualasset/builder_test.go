package dualasset

import (
	"testing"

	"github.com/aristath/minesim/internal/domain"
	"github.com/aristath/minesim/internal/evaluation/workers"
	"github.com/aristath/minesim/internal/modules/environment"
	"github.com/aristath/minesim/internal/modules/pert"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/stat"
)

func testSpecs() []environment.VariableSpec {
	return []environment.VariableSpec{
		{Name: environment.VarGoldPrice, Kind: environment.Additive,
			Init:  pert.Params{Min: 1600, Max: 1800, Mode: 1700},
			Delta: &pert.Params{Min: -100, Max: 500, Mode: 100}},
		{Name: environment.VarProduction, Kind: environment.FixedBase,
			Init:  pert.Params{Min: 2000, Max: 9000, Mode: 5000},
			Delta: &pert.Params{Min: 0.6, Max: 1.2, Mode: 0.95}},
		{Name: environment.VarEquipmentCost, Kind: environment.Independent,
			Init: pert.Params{Min: 4e6, Max: 9e6, Mode: 6e6}},
	}
}

func setup(t *testing.T, trials int) (*environment.Generator, *environment.Environment) {
	t.Helper()
	gen := environment.NewGenerator(11, workers.NewWorkerPool(2), zerolog.Nop())
	asset1, err := gen.GenerateSet(domain.AssetPrimary, testSpecs(), trials, 5)
	require.NoError(t, err)
	return gen, asset1
}

func TestBuilder_Build(t *testing.T) {
	gen, asset1 := setup(t, 20_000)

	b := NewBuilder(gen, domain.AssetProspect, zerolog.Nop()).
		Set(environment.VarGoldPrice, SharedPolicy()).
		Set(environment.VarProduction, RedrawPolicy()).
		Set(environment.VarEquipmentCost, DerivedPolicy("", Scale(0.5)))

	asset2, err := b.Build(asset1, testSpecs())
	require.NoError(t, err)
	require.NoError(t, asset2.AlignedWith(asset1))

	price1, _ := asset1.Var(environment.VarGoldPrice)
	price2, _ := asset2.Var(environment.VarGoldPrice)
	assert.Same(t, price1, price2, "shared tables are the same table")

	prod1, _ := asset1.Var(environment.VarProduction)
	prod2, _ := asset2.Var(environment.VarProduction)
	assert.False(t, prod1.Equal(prod2))
	assert.InDelta(t, 0, stat.Correlation(prod1.Column(0), prod2.Column(0), nil), 0.03)
	assert.InDelta(t, stat.Mean(prod1.Column(0), nil), stat.Mean(prod2.Column(0), nil), 50)

	eq1, _ := asset1.Var(environment.VarEquipmentCost)
	eq2, _ := asset2.Var(environment.VarEquipmentCost)
	for i := 0; i < 100; i++ {
		for j := 0; j < 5; j++ {
			assert.Equal(t, eq1.At(i, j)/2, eq2.At(i, j))
		}
	}

	assert.Equal(t, []string{environment.VarProduction}, b.OwnCurve())

	p, ok := b.Policy(environment.VarProduction)
	require.True(t, ok)
	assert.Equal(t, Redraw, p.Kind)
	_, ok = b.Policy(environment.VarReputationDays)
	assert.False(t, ok)
}

func TestBuilder_Build_Errors(t *testing.T) {
	gen, asset1 := setup(t, 50)

	tests := []struct {
		name   string
		policy Policy
		target string
		want   error
	}{
		{"shared missing", SharedPolicy(), environment.VarInterestRate, domain.ErrInvalidEnvironment},
		{"redraw without spec", RedrawPolicy(), environment.VarLeaseProfit, domain.ErrInvalidParameters},
		{"derived without fn", Policy{Kind: Derived}, environment.VarEquipmentCost, domain.ErrInvalidParameters},
		{"derived missing source", DerivedPolicy("nope", Scale(2)), environment.VarEquipmentCost, domain.ErrInvalidEnvironment},
		{"unknown kind", Policy{Kind: PolicyKind(7)}, environment.VarGoldPrice, domain.ErrInvalidParameters},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := NewBuilder(gen, domain.AssetProspect, zerolog.Nop()).Set(tt.target, tt.policy)
			env, err := b.Build(asset1, testSpecs())
			assert.Nil(t, env)
			assert.ErrorIs(t, err, tt.want)
		})
	}

	_, err := NewBuilder(gen, domain.AssetProspect, zerolog.Nop()).Build(nil, nil)
	assert.ErrorIs(t, err, domain.ErrInvalidEnvironment)
}

func TestPolicySpec_Resolve(t *testing.T) {
	p, err := PolicySpec{Name: "equipment_cost", Policy: "derived", Factor: 0.5}.Resolve()
	require.NoError(t, err)
	assert.Equal(t, Derived, p.Kind)
	assert.Equal(t, "equipment_cost", p.From)
	assert.Equal(t, 3.0, p.Fn(6))

	p, err = PolicySpec{Name: "gold_price", Policy: "Shared"}.Resolve()
	require.NoError(t, err)
	assert.Equal(t, Shared, p.Kind)

	_, err = PolicySpec{Name: "x", Policy: "mirror"}.Resolve()
	assert.ErrorIs(t, err, domain.ErrInvalidParameters)
	_, err = PolicySpec{Policy: "redraw"}.Resolve()
	assert.ErrorIs(t, err, domain.ErrInvalidParameters)
}

func TestShift(t *testing.T) {
	table, err := environment.TableFromRows([][]float64{
		{1, 2, 3, 4},
		{1, 2, 3, 4},
		{1, 2, 3, 4},
		{1, 2, 3, 4},
		{1, 2, 3, 4},
	})
	require.NoError(t, err)

	shifted, err := Shift(table, []int{0, 1, 3, 4, 5})
	require.NoError(t, err)
	assert.Equal(t, [][]float64{
		{0, 0, 0, 0},
		{1, 2, 3, 4},
		{0, 0, 1, 2},
		{0, 0, 0, 1},
		{0, 0, 0, 0},
	}, shifted.Rows())
	assert.Equal(t, []float64{1, 2, 3, 4}, table.Row(2), "source untouched")

	_, err = Shift(table, []int{1, 2})
	assert.ErrorIs(t, err, domain.ErrInvalidEnvironment)
	_, err = Shift(table, []int{0, 0, -1, 0, 0})
	assert.ErrorIs(t, err, domain.ErrInvalidDecision)
}

func TestShiftEnvironment(t *testing.T) {
	env, err := environment.New(2, 3)
	require.NoError(t, err)
	price, _ := environment.TableFromRows([][]float64{{10, 11, 12}, {20, 21, 22}})
	prod, _ := environment.TableFromRows([][]float64{{1, 2, 3}, {4, 5, 6}})
	require.NoError(t, env.Put("price", price))
	require.NoError(t, env.Put("production", prod))

	out, err := ShiftEnvironment(env, []int{2, 0}, "production")
	require.NoError(t, err)

	gotPrice, _ := out.Var("price")
	assert.Same(t, price, gotPrice)
	gotProd, _ := out.Var("production")
	assert.Equal(t, [][]float64{{0, 1, 2}, {0, 0, 0}}, gotProd.Rows())

	_, err = ShiftEnvironment(env, []int{1, 1}, "missing")
	assert.ErrorIs(t, err, domain.ErrInvalidEnvironment)
}
