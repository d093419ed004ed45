package scenarios

import (
	"math"
	"sort"

	"github.com/aristath/minesim/internal/modules/environment"
	"github.com/aristath/minesim/internal/modules/position"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// Summary describes the cash distribution and foreclosures in one year
type Summary struct {
	Year               int     `json:"year" msgpack:"year"`
	Foreclosed         int     `json:"foreclosed" msgpack:"foreclosed"`
	Distressed         int     `json:"distressed" msgpack:"distressed"`
	Healthy            int     `json:"healthy" msgpack:"healthy"`
	ForeclosedFraction float64 `json:"foreclosed_fraction" msgpack:"foreclosed_fraction"`
	Median             float64 `json:"median_cash" msgpack:"median_cash"`
	Mean               float64 `json:"mean_cash" msgpack:"mean_cash"`
	StdDev             float64 `json:"std_dev_cash" msgpack:"std_dev_cash"`
	P10                float64 `json:"p10_cash" msgpack:"p10_cash"`
	P90                float64 `json:"p90_cash" msgpack:"p90_cash"`
	Min                float64 `json:"min_cash" msgpack:"min_cash"`
	Max                float64 `json:"max_cash" msgpack:"max_cash"`
}

// Summarize computes the summary of a 1-based year
func Summarize(cash *environment.Table, grid *position.Grid, year int) Summary {
	counts := map[position.Category]int{
		position.Foreclosed: grid.CountAt(year, position.Foreclosed),
		position.Distressed: grid.CountAt(year, position.Distressed),
		position.Healthy:    grid.CountAt(year, position.Healthy),
	}
	return summarize(cash.Column(year-1), counts, year)
}

// SummarizeYears summarises every year of a run from a single pass over the grid
func SummarizeYears(cash *environment.Table, grid *position.Grid) []Summary {
	counts := grid.Counts()
	out := make([]Summary, cash.Years())
	for j := range out {
		out[j] = summarize(cash.Column(j), counts[j], j+1)
	}
	return out
}

func summarize(col []float64, counts map[position.Category]int, year int) Summary {
	sorted := append([]float64(nil), col...)
	sort.Float64s(sorted)

	mean, std := stat.MeanStdDev(col, nil)
	if len(col) < 2 || math.IsNaN(std) {
		std = 0
	}

	fraction := 0.0
	if len(col) > 0 {
		fraction = float64(counts[position.Foreclosed]) / float64(len(col))
	}

	return Summary{
		Year:               year,
		Foreclosed:         counts[position.Foreclosed],
		Distressed:         counts[position.Distressed],
		Healthy:            counts[position.Healthy],
		ForeclosedFraction: fraction,
		Median:             stat.Quantile(0.5, stat.Empirical, sorted, nil),
		Mean:               mean,
		StdDev:             std,
		P10:                stat.Quantile(0.1, stat.Empirical, sorted, nil),
		P90:                stat.Quantile(0.9, stat.Empirical, sorted, nil),
		Min:                floats.Min(col),
		Max:                floats.Max(col),
	}
}
