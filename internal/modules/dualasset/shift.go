package dualasset

import (
	"fmt"

	"github.com/aristath/minesim/internal/domain"
	"github.com/aristath/minesim/internal/modules/environment"
)

// Shift moves each trial's curve so that its own year 1 lands on global year start[i].
// start is 1-based; 0 means the asset never starts and the row is all zeros. Years before
// the start are zero, and a start past the horizon leaves the row empty.
func Shift(t *environment.Table, start []int) (*environment.Table, error) {
	trials, years := t.Dims()
	if len(start) != trials {
		return nil, fmt.Errorf("%w: %d start years for %d trials",
			domain.ErrInvalidEnvironment, len(start), trials)
	}
	for i, k := range start {
		if k < 0 {
			return nil, fmt.Errorf("%w: trial %d has negative start year %d", domain.ErrInvalidDecision, i, k)
		}
	}

	out, err := environment.NewTable(trials, years)
	if err != nil {
		return nil, err
	}
	for i, k := range start {
		if k == 0 || k > years {
			continue
		}
		copy(out.Row(i)[k-1:], t.Row(i)[:years-k+1])
	}
	return out, nil
}

// ShiftEnvironment returns a copy of env in which the named variables are shifted by
// start and every other table is kept by reference.
func ShiftEnvironment(env *environment.Environment, start []int, names ...string) (*environment.Environment, error) {
	out, err := environment.New(env.Trials(), env.Years())
	if err != nil {
		return nil, err
	}
	shift := make(map[string]bool, len(names))
	for _, name := range names {
		if err := env.Require(name); err != nil {
			return nil, err
		}
		shift[name] = true
	}

	for _, name := range env.Names() {
		table, _ := env.Var(name)
		if shift[name] {
			if table, err = Shift(table, start); err != nil {
				return nil, err
			}
		}
		if err := out.Put(name, table); err != nil {
			return nil, err
		}
	}
	return out, nil
}
