// Package cash_flows computes per-trial, per-year revenue, cost, financing and cumulative
// cash for a producing mine, its leased asset and an optionally discovered second mine.
package cash_flows

import (
	"fmt"
	"math"

	"github.com/aristath/minesim/internal/domain"
)

// Terms holds the caller-supplied commercial constants that are not random
type Terms struct {
	// SellingCostRate is the share of gross revenue lost to refining and transport
	SellingCostRate float64 `json:"selling_cost_rate" yaml:"selling_cost_rate" msgpack:"selling_cost_rate"`
	// ReputationFixed is the yearly fixed reputation-management cost while the leased asset is owned
	ReputationFixed float64 `json:"reputation_fixed" yaml:"reputation_fixed" msgpack:"reputation_fixed"`
	// ReputationRate is the cost per variable reputation-management day
	ReputationRate float64 `json:"reputation_rate" yaml:"reputation_rate" msgpack:"reputation_rate"`
}

// Validate checks the constants are finite and the selling cost rate is a fraction
func (t Terms) Validate() error {
	for _, v := range []float64{t.SellingCostRate, t.ReputationFixed, t.ReputationRate} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("%w: terms must be finite, got %+v", domain.ErrInvalidParameters, t)
		}
	}
	if t.SellingCostRate < 0 || t.SellingCostRate > 1 {
		return fmt.Errorf("%w: selling cost rate %g outside [0, 1]", domain.ErrInvalidParameters, t.SellingCostRate)
	}
	return nil
}

// ReputationCost returns the reputation-management cost for a number of variable days
func (t Terms) ReputationCost(days float64) float64 {
	return t.ReputationFixed + t.ReputationRate*days
}
