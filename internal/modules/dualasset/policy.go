package dualasset

import (
	"fmt"
	"math"
	"strings"

	"github.com/aristath/minesim/internal/domain"
)

// PolicyKind says where a second-asset variable comes from
type PolicyKind int

const (
	// Shared reuses the first asset's table by reference
	Shared PolicyKind = iota
	// Redraw samples the same PERT spec again on the second asset's own stream
	Redraw
	// Derived maps a first-asset table cell by cell through a scalar function
	Derived
)

var policyNames = map[PolicyKind]string{
	Shared:  "shared",
	Redraw:  "redraw",
	Derived: "derived",
}

func (k PolicyKind) String() string {
	if name, ok := policyNames[k]; ok {
		return name
	}
	return fmt.Sprintf("policy(%d)", int(k))
}

// Policy resolves one second-asset variable
type Policy struct {
	Kind PolicyKind
	// From names the first-asset variable a Derived policy reads. Empty means the same name.
	From string
	Fn   func(v float64) float64
}

// SharedPolicy copies the first asset's table
func SharedPolicy() Policy { return Policy{Kind: Shared} }

// RedrawPolicy samples a fresh independent table
func RedrawPolicy() Policy { return Policy{Kind: Redraw} }

// DerivedPolicy applies fn to the first asset's from table
func DerivedPolicy(from string, fn func(v float64) float64) Policy {
	return Policy{Kind: Derived, From: from, Fn: fn}
}

// Scale returns a function multiplying by factor
func Scale(factor float64) func(v float64) float64 {
	return func(v float64) float64 { return v * factor }
}

// PolicySpec is the configuration form of a Policy. Derived policies scale the
// source table by Factor.
type PolicySpec struct {
	Name   string  `json:"name" yaml:"name"`
	Policy string  `json:"policy" yaml:"policy"`
	From   string  `json:"from,omitempty" yaml:"from,omitempty"`
	Factor float64 `json:"factor,omitempty" yaml:"factor,omitempty"`
}

// Resolve turns the spec into a Policy
func (s PolicySpec) Resolve() (Policy, error) {
	if s.Name == "" {
		return Policy{}, fmt.Errorf("%w: asset policy without a variable name", domain.ErrInvalidParameters)
	}
	switch strings.ToLower(s.Policy) {
	case "shared":
		return SharedPolicy(), nil
	case "redraw":
		return RedrawPolicy(), nil
	case "derived":
		if math.IsNaN(s.Factor) || math.IsInf(s.Factor, 0) {
			return Policy{}, fmt.Errorf("%w: derived policy for %s has non-finite factor",
				domain.ErrInvalidParameters, s.Name)
		}
		from := s.From
		if from == "" {
			from = s.Name
		}
		return DerivedPolicy(from, Scale(s.Factor)), nil
	default:
		return Policy{}, fmt.Errorf("%w: unknown asset policy %q for %s",
			domain.ErrInvalidParameters, s.Policy, s.Name)
	}
}
