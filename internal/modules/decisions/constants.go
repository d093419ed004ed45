package decisions

import (
	"fmt"
	"math"

	"github.com/aristath/minesim/internal/domain"
)

// Constants are the caller-owned lookup tables decisions are priced with
type Constants struct {
	// SalePrice is the leased asset's sale price by 1-based year (index 0 is year 1)
	SalePrice []float64 `json:"sale_price" yaml:"sale_price" msgpack:"sale_price"`
	// SearchCost is the yearly exploration spend by funding level
	SearchCost []float64 `json:"search_cost" yaml:"search_cost" msgpack:"search_cost"`
	// SuccessProbability is the yearly discovery probability by funding level
	SuccessProbability []float64 `json:"success_probability" yaml:"success_probability" msgpack:"success_probability"`
}

// MaxLevel returns the highest funding level
func (c Constants) MaxLevel() int {
	return len(c.SearchCost) - 1
}

// Validate checks the tables cover years and agree on the funding levels. Level 0 is
// unfunded exploration and must never succeed.
func (c Constants) Validate(years int) error {
	if len(c.SalePrice) < years {
		return fmt.Errorf("%w: sale price schedule covers %d of %d years",
			domain.ErrInvalidParameters, len(c.SalePrice), years)
	}
	if len(c.SearchCost) == 0 {
		return fmt.Errorf("%w: empty search cost table", domain.ErrInvalidParameters)
	}
	if len(c.SearchCost) != len(c.SuccessProbability) {
		return fmt.Errorf("%w: %d search costs but %d success probabilities",
			domain.ErrInvalidParameters, len(c.SearchCost), len(c.SuccessProbability))
	}
	for _, v := range append(append([]float64{}, c.SalePrice...), c.SearchCost...) {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("%w: non-finite price or cost", domain.ErrInvalidParameters)
		}
	}
	for level, p := range c.SuccessProbability {
		if math.IsNaN(p) || p < 0 || p > 1 {
			return fmt.Errorf("%w: level %d success probability %g outside [0, 1]", domain.ErrInvalidParameters, level, p)
		}
	}
	if c.SuccessProbability[0] != 0 {
		return fmt.Errorf("%w: unfunded exploration must have zero success probability", domain.ErrInvalidParameters)
	}
	return nil
}
