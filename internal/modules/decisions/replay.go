package decisions

import (
	"fmt"

	"github.com/aristath/minesim/internal/domain"
	"github.com/aristath/minesim/internal/modules/cash_flows"
	"github.com/aristath/minesim/internal/modules/environment"
	"github.com/rs/zerolog"
)

// SuccessStream labels the uniform draws that decide exploration success
var SuccessStream = domain.AssetSearch.StreamLabel("success")

// DrawSuccess draws one U[0,1) per trial and year on the exploration stream. The table
// does not depend on any decision, so every vector replayed against it shares the same
// random numbers.
func DrawSuccess(gen *environment.Generator, trials, years int) (*environment.Table, error) {
	return gen.Uniforms(SuccessStream, trials, years)
}

// Replayer resolves vectors into cash-flow schedules
type Replayer struct {
	constants Constants
	log       zerolog.Logger
}

// NewReplayer creates a replayer pricing decisions with constants
func NewReplayer(constants Constants, log zerolog.Logger) *Replayer {
	return &Replayer{
		constants: constants,
		log:       log.With().Str("component", "decision_replay").Logger(),
	}
}

// Constants returns the lookup tables in use
func (r *Replayer) Constants() Constants {
	return r.constants
}

// Schedule computes each trial's transition years first and then writes the masks.
//
// Leased asset: owned until the start of SellYear, proceeds credited in SellYear.
// Exploration: every searching year pays the level's cost and succeeds when the trial's
// draw for that year falls below the level's probability. Search stops once found, and
// the found mine produces from the following year until CloseYear.
func (r *Replayer) Schedule(v Vector, draws *environment.Table) (*cash_flows.Schedule, error) {
	if draws == nil {
		return nil, fmt.Errorf("%w: no exploration draws", domain.ErrInvalidEnvironment)
	}
	trials, years := draws.Dims()
	if err := r.constants.Validate(years); err != nil {
		return nil, err
	}
	if err := v.Validate(years, r.constants.MaxLevel()); err != nil {
		return nil, err
	}

	s, err := cash_flows.NewSchedule(trials, years)
	if err != nil {
		return nil, err
	}

	discovered := 0
	for i := 0; i < trials; i++ {
		if v.SellYear > 0 {
			s.SaleYear[i] = v.SellYear
			s.SaleProceeds.Set(i, v.SellYear-1, r.constants.SalePrice[v.SellYear-1])
			owned := s.Owned.Row(i)
			for t := v.SellYear - 1; t < years; t++ {
				owned[t] = 0
			}
		}

		found := r.search(i, v, draws, s.SearchCost.Row(i))
		if found == 0 {
			continue
		}
		discovered++
		s.FoundYear[i] = found
		if v.CloseYear > 0 {
			s.ClosedYear[i] = v.CloseYear
		}
		active := s.Active.Row(i)
		for y := found + 1; y <= years; y++ {
			if v.CloseYear > 0 && y >= v.CloseYear {
				break
			}
			active[y-1] = 1
		}
	}

	r.log.Debug().
		Str("vector", v.Label()).
		Int("discovered", discovered).
		Msg("Decision schedule built")

	return s, nil
}

// search writes the yearly spend for trial i and returns the discovery year, 0 if none
func (r *Replayer) search(i int, v Vector, draws *environment.Table, cost []float64) int {
	u := draws.Row(i)
	for y := 1; y <= len(u); y++ {
		level := v.LevelAt(y)
		cost[y-1] = r.constants.SearchCost[level]
		if u[y-1] < r.constants.SuccessProbability[level] {
			return y
		}
	}
	return 0
}
