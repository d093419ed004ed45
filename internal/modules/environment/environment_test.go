package environment

import (
	"encoding/json"
	"testing"

	"github.com/aristath/minesim/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnvironment_PutAndVar(t *testing.T) {
	env, err := New(2, 3)
	require.NoError(t, err)

	table, err := TableFromRows([][]float64{{1, 2, 3}, {4, 5, 6}})
	require.NoError(t, err)
	require.NoError(t, env.Put(VarGoldPrice, table))

	got, err := env.Var(VarGoldPrice)
	require.NoError(t, err)
	assert.Same(t, table, got)

	_, err = env.Var(VarProduction)
	assert.ErrorIs(t, err, domain.ErrInvalidEnvironment)

	wrong, err := TableFromRows([][]float64{{1, 2}, {3, 4}})
	require.NoError(t, err)
	assert.ErrorIs(t, env.Put(VarProduction, wrong), domain.ErrInvalidEnvironment)
	assert.ErrorIs(t, env.Put(VarProduction, nil), domain.ErrInvalidEnvironment)

	assert.ErrorIs(t, env.Require(VarGoldPrice, VarProduction), domain.ErrInvalidEnvironment)
	assert.NoError(t, env.Require(VarGoldPrice))
}

func TestEnvironment_New_Invalid(t *testing.T) {
	_, err := New(0, 5)
	assert.ErrorIs(t, err, domain.ErrInvalidParameters)
	_, err = New(5, 0)
	assert.ErrorIs(t, err, domain.ErrInvalidParameters)
}

func TestEnvironment_AlignedWith(t *testing.T) {
	a, _ := New(10, 5)
	b, _ := New(10, 5)
	c, _ := New(11, 5)
	d, _ := New(10, 4)

	assert.NoError(t, a.AlignedWith(b))
	assert.NoError(t, a.AlignedWith(nil))
	assert.ErrorIs(t, a.AlignedWith(c), domain.ErrInvalidEnvironment)
	assert.ErrorIs(t, a.AlignedWith(d), domain.ErrInvalidEnvironment)
}

func TestTable_RecordsAndApply(t *testing.T) {
	table, err := TableFromRows([][]float64{{1, -2}, {3, 4}})
	require.NoError(t, err)

	records := table.Records("cash")
	require.Len(t, records, 4)
	assert.Equal(t, Record{Quantity: "cash", Trial: 0, Year: 1, Value: 1}, records[0])
	assert.Equal(t, Record{Quantity: "cash", Trial: 1, Year: 2, Value: 4}, records[3])

	half := table.Apply(func(v float64) float64 { return v / 2 })
	assert.Equal(t, [][]float64{{0.5, -1}, {1.5, 2}}, half.Rows())
	assert.Equal(t, -2.0, table.At(0, 1), "Apply leaves the source untouched")

	clone := table.Clone()
	clone.Set(0, 0, 100)
	assert.Equal(t, 1.0, table.At(0, 0))
	assert.False(t, clone.Equal(table))
	assert.True(t, table.SameShape(clone))

	assert.Equal(t, []float64{-2, 4}, table.Column(1))
}

func TestTableFromRows_Ragged(t *testing.T) {
	_, err := TableFromRows([][]float64{{1, 2}, {3}})
	assert.ErrorIs(t, err, domain.ErrInvalidEnvironment)

	_, err = TableFromRows(nil)
	assert.ErrorIs(t, err, domain.ErrInvalidParameters)
}

func TestKind_TextRoundTrip(t *testing.T) {
	for _, k := range []Kind{Independent, Autoregressive, FixedBase, Additive} {
		text, err := k.MarshalText()
		require.NoError(t, err)

		var parsed Kind
		require.NoError(t, parsed.UnmarshalText(text))
		assert.Equal(t, k, parsed)
	}

	var k Kind
	assert.ErrorIs(t, k.UnmarshalText([]byte("brownian")), domain.ErrInvalidParameters)

	_, err := Kind(9).MarshalText()
	assert.ErrorIs(t, err, domain.ErrInvalidParameters)
}

func TestVariableSpec_JSON(t *testing.T) {
	raw := `{"name":"gold_price","kind":"additive","init":{"min":1600,"max":1800,"mode":1700},"delta":{"min":-100,"max":500,"mode":100}}`

	var spec VariableSpec
	require.NoError(t, json.Unmarshal([]byte(raw), &spec))
	assert.Equal(t, Additive, spec.Kind)
	require.NotNil(t, spec.Delta)
	assert.Equal(t, 500.0, spec.Delta.Max)
	assert.NoError(t, spec.Validate())
}
