// Package environment generates the per-trial, per-year tables of uncontrollable inputs
// (prices, production, costs, rates) that the cash-flow model consumes.
package environment

import (
	"fmt"
	"sort"

	"github.com/aristath/minesim/internal/domain"
)

// Environment is a named set of tables sharing one trials × years shape.
// Row alignment across tables is what carries cross-variable correlation.
type Environment struct {
	trials int
	years  int
	vars   map[string]*Table
}

// New creates an empty environment of the given shape
func New(trials, years int) (*Environment, error) {
	if trials < 1 || years < 1 {
		return nil, fmt.Errorf("%w: environment needs trial_count >= 1 and year_count >= 1, got %d and %d",
			domain.ErrInvalidParameters, trials, years)
	}
	return &Environment{
		trials: trials,
		years:  years,
		vars:   make(map[string]*Table),
	}, nil
}

// Trials returns the trial count
func (e *Environment) Trials() int { return e.trials }

// Years returns the year count
func (e *Environment) Years() int { return e.years }

// Put stores a table under name; the table must match the environment shape
func (e *Environment) Put(name string, t *Table) error {
	if t == nil {
		return fmt.Errorf("%w: nil table for %s", domain.ErrInvalidEnvironment, name)
	}
	trials, years := t.Dims()
	if trials != e.trials || years != e.years {
		return fmt.Errorf("%w: table %s is %d×%d, environment is %d×%d",
			domain.ErrInvalidEnvironment, name, trials, years, e.trials, e.years)
	}
	e.vars[name] = t
	return nil
}

// Var returns the table for name
func (e *Environment) Var(name string) (*Table, error) {
	t, ok := e.vars[name]
	if !ok {
		return nil, fmt.Errorf("%w: missing variable %s", domain.ErrInvalidEnvironment, name)
	}
	return t, nil
}

// Has reports whether name is present
func (e *Environment) Has(name string) bool {
	_, ok := e.vars[name]
	return ok
}

// Names returns the variable names in sorted order
func (e *Environment) Names() []string {
	names := make([]string, 0, len(e.vars))
	for name := range e.vars {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Require fails with ErrInvalidEnvironment if any of names is missing
func (e *Environment) Require(names ...string) error {
	for _, name := range names {
		if !e.Has(name) {
			return fmt.Errorf("%w: missing variable %s", domain.ErrInvalidEnvironment, name)
		}
	}
	return nil
}

// AlignedWith reports an error unless both environments share trial and year counts
func (e *Environment) AlignedWith(o *Environment) error {
	if o == nil {
		return nil
	}
	if e.trials != o.trials {
		return fmt.Errorf("%w: trial counts differ (%d vs %d)", domain.ErrInvalidEnvironment, e.trials, o.trials)
	}
	if e.years != o.years {
		return fmt.Errorf("%w: year counts differ (%d vs %d)", domain.ErrInvalidEnvironment, e.years, o.years)
	}
	return nil
}
