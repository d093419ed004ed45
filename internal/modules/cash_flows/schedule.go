package cash_flows

import (
	"fmt"

	"github.com/aristath/minesim/internal/domain"
	"github.com/aristath/minesim/internal/modules/environment"
)

// Schedule is the per-trial outcome of the operator's one-time decisions, resolved into
// transition years and year masks before any cash is computed. Mask cells are 1 while
// the condition holds and 0 otherwise.
type Schedule struct {
	// SaleYear is the 1-based year the leased asset is sold, 0 if never
	SaleYear []int
	// FoundYear is the 1-based year exploration succeeds, 0 if never
	FoundYear []int
	// ClosedYear is the 1-based year a found mine closes, 0 if never
	ClosedYear []int

	// Owned masks the years the leased asset is held
	Owned *environment.Table
	// SaleProceeds holds the sale credit in the sale year
	SaleProceeds *environment.Table
	// SearchCost holds the exploration spend of each searching year
	SearchCost *environment.Table
	// Active masks the years the discovered mine produces
	Active *environment.Table
}

// NewSchedule returns the do-nothing schedule: leased asset owned throughout, no sale,
// no exploration spend and nothing discovered.
func NewSchedule(trials, years int) (*Schedule, error) {
	owned, err := environment.NewTable(trials, years)
	if err != nil {
		return nil, err
	}
	owned = owned.Apply(func(float64) float64 { return 1 })
	return &Schedule{
		SaleYear:     make([]int, trials),
		FoundYear:    make([]int, trials),
		ClosedYear:   make([]int, trials),
		Owned:        owned,
		SaleProceeds: mustZero(trials, years),
		SearchCost:   mustZero(trials, years),
		Active:       mustZero(trials, years),
	}, nil
}

func mustZero(trials, years int) *environment.Table {
	t, _ := environment.NewTable(trials, years)
	return t
}

// Validate checks the schedule matches a trials × years run
func (s *Schedule) Validate(trials, years int) error {
	for name, n := range map[string]int{
		"sale years":   len(s.SaleYear),
		"found years":  len(s.FoundYear),
		"closed years": len(s.ClosedYear),
	} {
		if n != trials {
			return fmt.Errorf("%w: schedule has %d %s for %d trials", domain.ErrInvalidDecision, n, name, trials)
		}
	}
	for name, t := range map[string]*environment.Table{
		"owned":         s.Owned,
		"sale proceeds": s.SaleProceeds,
		"search cost":   s.SearchCost,
		"active":        s.Active,
	} {
		if t == nil {
			return fmt.Errorf("%w: schedule has no %s table", domain.ErrInvalidDecision, name)
		}
		if r, c := t.Dims(); r != trials || c != years {
			return fmt.Errorf("%w: schedule %s table is %d×%d, run is %d×%d",
				domain.ErrInvalidDecision, name, r, c, trials, years)
		}
	}
	return nil
}

// Discovered reports whether any trial finds the second mine
func (s *Schedule) Discovered() bool {
	for _, y := range s.FoundYear {
		if y > 0 {
			return true
		}
	}
	return false
}

// ProductionStart returns, per trial, the global year the discovered mine's own year 1
// falls on: the year after discovery, or 0 when nothing is found.
func (s *Schedule) ProductionStart() []int {
	start := make([]int, len(s.FoundYear))
	for i, y := range s.FoundYear {
		if y > 0 {
			start[i] = y + 1
		}
	}
	return start
}
