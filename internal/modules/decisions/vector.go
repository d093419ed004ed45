// Package decisions turns an operator's one-time choices into per-trial transition years
// and masks that the cash-flow evaluator consumes.
package decisions

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/aristath/minesim/internal/domain"
)

// ActionKind names an operator action
type ActionKind string

const (
	// ActionSell sells the leased asset at the start of Year
	ActionSell ActionKind = "sell"
	// ActionExplore funds exploration at Level, in Year or in every year when Year is 0
	ActionExplore ActionKind = "explore"
	// ActionClose closes a discovered mine from Year on
	ActionClose ActionKind = "close"
)

// Action is one configured decision
type Action struct {
	Kind  ActionKind `json:"kind" yaml:"kind" msgpack:"kind"`
	Year  int        `json:"year,omitempty" yaml:"year,omitempty" msgpack:"year"`
	Level int        `json:"level,omitempty" yaml:"level,omitempty" msgpack:"level"`
}

// Vector is the full set of choices for one scenario. Years are 1-based and 0 means never.
type Vector struct {
	SellYear int `json:"sell_year" yaml:"sell_year" msgpack:"sell_year"`
	// Level is the exploration funding level used in every year without an override
	Level int `json:"level" yaml:"level" msgpack:"level"`
	// Levels optionally overrides the level per year; index 0 is year 1
	Levels    []int `json:"levels,omitempty" yaml:"levels,omitempty" msgpack:"levels"`
	CloseYear int   `json:"close_year,omitempty" yaml:"close_year,omitempty" msgpack:"close_year"`
}

// Baseline keeps the leased asset and never funds exploration
func Baseline() Vector {
	return Vector{}
}

// LevelAt returns the funding level of a 1-based year
func (v Vector) LevelAt(year int) int {
	if year >= 1 && year <= len(v.Levels) {
		return v.Levels[year-1]
	}
	return v.Level
}

// Funds reports whether any year in 1..years pays for exploration
func (v Vector) Funds(years int) bool {
	for y := 1; y <= years; y++ {
		if v.LevelAt(y) > 0 {
			return true
		}
	}
	return false
}

// Validate checks years against the horizon and levels against the funding table
func (v Vector) Validate(years, maxLevel int) error {
	if v.SellYear < 0 || v.SellYear > years {
		return fmt.Errorf("%w: sell year %d outside 0..%d", domain.ErrInvalidDecision, v.SellYear, years)
	}
	if v.CloseYear < 0 || v.CloseYear > years {
		return fmt.Errorf("%w: close year %d outside 0..%d", domain.ErrInvalidDecision, v.CloseYear, years)
	}
	if len(v.Levels) > years {
		return fmt.Errorf("%w: %d per-year funding levels for %d years", domain.ErrInvalidDecision, len(v.Levels), years)
	}
	if v.Level < 0 || v.Level > maxLevel {
		return fmt.Errorf("%w: funding level %d outside 0..%d", domain.ErrInvalidDecision, v.Level, maxLevel)
	}
	for i, l := range v.Levels {
		if l < 0 || l > maxLevel {
			return fmt.Errorf("%w: year %d funding level %d outside 0..%d", domain.ErrInvalidDecision, i+1, l, maxLevel)
		}
	}
	return nil
}

// Label renders the vector for reports, e.g. "sell=2 explore=3" or "sell=never explore=0,1,1"
func (v Vector) Label() string {
	var b strings.Builder
	b.WriteString("sell=")
	if v.SellYear == 0 {
		b.WriteString("never")
	} else {
		b.WriteString(strconv.Itoa(v.SellYear))
	}
	b.WriteString(" explore=")
	if len(v.Levels) == 0 {
		b.WriteString(strconv.Itoa(v.Level))
	} else {
		for i, l := range v.Levels {
			if i > 0 {
				b.WriteByte(',')
			}
			b.WriteString(strconv.Itoa(l))
		}
	}
	if v.CloseYear > 0 {
		b.WriteString(" close=")
		b.WriteString(strconv.Itoa(v.CloseYear))
	}
	return b.String()
}

// Parse folds actions into a vector. Each of sell and close may appear once; explore with
// year 0 sets the default level and explore with a year overrides that year.
func Parse(actions []Action, years, maxLevel int) (Vector, error) {
	var v Vector
	var perYear map[int]int
	sold, closed := false, false

	for _, a := range actions {
		switch a.Kind {
		case ActionSell:
			if sold {
				return Vector{}, fmt.Errorf("%w: leased asset sold twice", domain.ErrInvalidDecision)
			}
			if a.Year < 1 || a.Year > years {
				return Vector{}, fmt.Errorf("%w: sell year %d outside 1..%d", domain.ErrInvalidDecision, a.Year, years)
			}
			sold = true
			v.SellYear = a.Year
		case ActionExplore:
			if a.Level < 0 || a.Level > maxLevel {
				return Vector{}, fmt.Errorf("%w: funding level %d outside 0..%d", domain.ErrInvalidDecision, a.Level, maxLevel)
			}
			if a.Year == 0 {
				v.Level = a.Level
				continue
			}
			if a.Year < 0 || a.Year > years {
				return Vector{}, fmt.Errorf("%w: explore year %d outside 1..%d", domain.ErrInvalidDecision, a.Year, years)
			}
			if perYear == nil {
				perYear = make(map[int]int)
			}
			perYear[a.Year] = a.Level
		case ActionClose:
			if closed {
				return Vector{}, fmt.Errorf("%w: mine closed twice", domain.ErrInvalidDecision)
			}
			if a.Year < 1 || a.Year > years {
				return Vector{}, fmt.Errorf("%w: close year %d outside 1..%d", domain.ErrInvalidDecision, a.Year, years)
			}
			closed = true
			v.CloseYear = a.Year
		default:
			return Vector{}, fmt.Errorf("%w: unknown action %q", domain.ErrInvalidDecision, a.Kind)
		}
	}

	if perYear != nil {
		v.Levels = make([]int, years)
		for y := 1; y <= years; y++ {
			if l, ok := perYear[y]; ok {
				v.Levels[y-1] = l
			} else {
				v.Levels[y-1] = v.Level
			}
		}
	}
	return v, nil
}
