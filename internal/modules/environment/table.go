package environment

import (
	"fmt"

	"github.com/aristath/minesim/internal/domain"
	"gonum.org/v1/gonum/mat"
)

// Table is a trials × years matrix of one quantity.
// Row i is trial i, column j is simulation year j+1.
type Table struct {
	data *mat.Dense
}

// NewTable allocates a zeroed table
func NewTable(trials, years int) (*Table, error) {
	if trials < 1 || years < 1 {
		return nil, fmt.Errorf("%w: table needs at least one trial and one year, got %d×%d",
			domain.ErrInvalidParameters, trials, years)
	}
	return &Table{data: mat.NewDense(trials, years, nil)}, nil
}

// mustTable allocates a table whose dimensions have already been validated
func mustTable(trials, years int) *Table {
	return &Table{data: mat.NewDense(trials, years, nil)}
}

// TableFromRows builds a table from row slices, mainly for tests and fixtures
func TableFromRows(rows [][]float64) (*Table, error) {
	if len(rows) == 0 || len(rows[0]) == 0 {
		return nil, fmt.Errorf("%w: empty table", domain.ErrInvalidParameters)
	}
	years := len(rows[0])
	t := mustTable(len(rows), years)
	for i, row := range rows {
		if len(row) != years {
			return nil, fmt.Errorf("%w: row %d has %d years, want %d",
				domain.ErrInvalidEnvironment, i, len(row), years)
		}
		t.data.SetRow(i, row)
	}
	return t, nil
}

// Dims returns (trials, years)
func (t *Table) Dims() (int, int) {
	return t.data.Dims()
}

// Trials returns the row count
func (t *Table) Trials() int {
	r, _ := t.data.Dims()
	return r
}

// Years returns the column count
func (t *Table) Years() int {
	_, c := t.data.Dims()
	return c
}

// At returns the value for trial i in column j (year j+1)
func (t *Table) At(i, j int) float64 {
	return t.data.At(i, j)
}

// Set stores v for trial i in column j
func (t *Table) Set(i, j int, v float64) {
	t.data.Set(i, j, v)
}

// Row returns the backing slice of trial i. Writes go straight into the table.
func (t *Table) Row(i int) []float64 {
	return t.data.RawRowView(i)
}

// Column returns a copy of column j
func (t *Table) Column(j int) []float64 {
	return mat.Col(nil, j, t.data)
}

// Clone returns a deep copy
func (t *Table) Clone() *Table {
	return &Table{data: mat.DenseCopyOf(t.data)}
}

// Equal reports whether both tables have the same shape and bit-identical values
func (t *Table) Equal(o *Table) bool {
	if t == nil || o == nil {
		return t == o
	}
	return mat.Equal(t.data, o.data)
}

// SameShape reports whether both tables have identical dimensions
func (t *Table) SameShape(o *Table) bool {
	r1, c1 := t.Dims()
	r2, c2 := o.Dims()
	return r1 == r2 && c1 == c2
}

// Apply returns a new table holding fn applied to every cell
func (t *Table) Apply(fn func(v float64) float64) *Table {
	out := mustTable(t.Dims())
	out.data.Apply(func(_, _ int, v float64) float64 { return fn(v) }, t.data)
	return out
}

// Record is one cell in long form, with the year as a 1-based ordinal
type Record struct {
	Quantity string  `json:"quantity" msgpack:"quantity"`
	Trial    int     `json:"trial" msgpack:"trial"`
	Year     int     `json:"year" msgpack:"year"`
	Value    float64 `json:"value" msgpack:"value"`
}

// Records flattens the table in trial-major order
func (t *Table) Records(quantity string) []Record {
	trials, years := t.Dims()
	out := make([]Record, 0, trials*years)
	for i := 0; i < trials; i++ {
		row := t.Row(i)
		for j, v := range row {
			out = append(out, Record{Quantity: quantity, Trial: i, Year: j + 1, Value: v})
		}
	}
	return out
}

// Rows returns a copy of the table as row slices
func (t *Table) Rows() [][]float64 {
	trials := t.Trials()
	out := make([][]float64, trials)
	for i := range out {
		out[i] = append([]float64(nil), t.Row(i)...)
	}
	return out
}
