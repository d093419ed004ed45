// Package position classifies cumulative cash into Healthy, Distressed or Foreclosed per
// trial per year. Foreclosure is absorbing: once a trial is foreclosed it stays foreclosed,
// whatever its cash does afterwards.
package position

import (
	"fmt"
	"math"

	"github.com/aristath/minesim/internal/domain"
	"github.com/aristath/minesim/internal/modules/environment"
)

// Category is a financial position, ordered by severity
type Category uint8

const (
	Healthy Category = iota
	Distressed
	Foreclosed
)

var categoryNames = [...]string{"healthy", "distressed", "foreclosed"}

func (c Category) String() string {
	if int(c) < len(categoryNames) {
		return categoryNames[c]
	}
	return fmt.Sprintf("category(%d)", c)
}

// MarshalText implements encoding.TextMarshaler
func (c Category) MarshalText() ([]byte, error) {
	if int(c) >= len(categoryNames) {
		return nil, fmt.Errorf("unknown category %d", c)
	}
	return []byte(c.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler
func (c *Category) UnmarshalText(text []byte) error {
	for i, name := range categoryNames {
		if name == string(text) {
			*c = Category(i)
			return nil
		}
	}
	return fmt.Errorf("unknown category %q", text)
}

// Categories lists every category in severity order
var Categories = []Category{Healthy, Distressed, Foreclosed}

// Grid holds one category per trial per year
type Grid struct {
	trials int
	years  int
	cells  []Category
}

// ValidateThreshold checks the foreclosure threshold is finite and not above zero
func ValidateThreshold(threshold float64) error {
	if math.IsNaN(threshold) || math.IsInf(threshold, 0) || threshold > 0 {
		return fmt.Errorf("%w: foreclosure threshold must be finite and <= 0, got %g",
			domain.ErrInvalidParameters, threshold)
	}
	return nil
}

// Categorize maps one cash value, ignoring history
func Categorize(cash, threshold float64) Category {
	switch {
	case cash >= 0:
		return Healthy
	case cash >= threshold:
		return Distressed
	default:
		return Foreclosed
	}
}

// Classify categorises every cell of cash and then applies the absorbing pass
func Classify(cash *environment.Table, threshold float64) (*Grid, error) {
	if cash == nil {
		return nil, fmt.Errorf("%w: no cash table", domain.ErrInvalidEnvironment)
	}
	if err := ValidateThreshold(threshold); err != nil {
		return nil, err
	}
	trials, years := cash.Dims()
	g := &Grid{trials: trials, years: years, cells: make([]Category, trials*years)}
	for i := 0; i < trials; i++ {
		row := cash.Row(i)
		for j, v := range row {
			g.cells[i*years+j] = Categorize(v, threshold)
		}
	}
	g.Absorb()
	return g, nil
}

// Absorb forces Foreclosed on every year after a trial's first foreclosure. Running it
// again changes nothing.
func (g *Grid) Absorb() {
	for i := 0; i < g.trials; i++ {
		row := g.Row(i)
		for j := range row {
			if row[j] != Foreclosed {
				continue
			}
			for k := j + 1; k < len(row); k++ {
				row[k] = Foreclosed
			}
			break
		}
	}
}

// Dims returns (trials, years)
func (g *Grid) Dims() (int, int) { return g.trials, g.years }

// At returns the category of trial i in column j (year j+1)
func (g *Grid) At(i, j int) Category { return g.cells[i*g.years+j] }

// Set overwrites one cell; call Absorb afterwards to restore the absorbing invariant
func (g *Grid) Set(i, j int, c Category) { g.cells[i*g.years+j] = c }

// Row returns the backing slice of trial i
func (g *Grid) Row(i int) []Category {
	return g.cells[i*g.years : (i+1)*g.years]
}

// Clone returns a deep copy
func (g *Grid) Clone() *Grid {
	return &Grid{trials: g.trials, years: g.years, cells: append([]Category(nil), g.cells...)}
}

// Equal reports whether both grids hold the same categories
func (g *Grid) Equal(o *Grid) bool {
	if g.trials != o.trials || g.years != o.years {
		return false
	}
	for i := range g.cells {
		if g.cells[i] != o.cells[i] {
			return false
		}
	}
	return true
}

// CountAt counts the trials in category c in a 1-based year
func (g *Grid) CountAt(year int, c Category) int {
	if year < 1 || year > g.years {
		return 0
	}
	n := 0
	for i := 0; i < g.trials; i++ {
		if g.cells[i*g.years+year-1] == c {
			n++
		}
	}
	return n
}

// Counts returns the per-category count for every 1-based year; index 0 is year 1
func (g *Grid) Counts() []map[Category]int {
	out := make([]map[Category]int, g.years)
	for j := range out {
		out[j] = make(map[Category]int, len(Categories))
		for _, c := range Categories {
			out[j][c] = 0
		}
	}
	for i := 0; i < g.trials; i++ {
		for j, c := range g.Row(i) {
			out[j][c]++
		}
	}
	return out
}

// Records flattens the grid into long-form rows with 1-based years
func (g *Grid) Records() []Record {
	out := make([]Record, 0, len(g.cells))
	for i := 0; i < g.trials; i++ {
		for j, c := range g.Row(i) {
			out = append(out, Record{Trial: i, Year: j + 1, Category: c})
		}
	}
	return out
}

// Record is one classified cell
type Record struct {
	Trial    int      `json:"trial" msgpack:"trial"`
	Year     int      `json:"year" msgpack:"year"`
	Category Category `json:"category" msgpack:"category"`
}
