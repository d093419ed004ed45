// Package pert provides bounded three-point (minimum / maximum / most likely) random variates.
//
// The distribution is the classic Beta-PERT: a Beta distribution rescaled to [min, max] whose
// shape parameters put the mean at (min + 4*mode + max) / 6.
package pert

import (
	"fmt"
	"math"
	"math/rand/v2"

	"github.com/aristath/minesim/internal/domain"
	"gonum.org/v1/gonum/stat/distuv"
)

// lambda is the weight given to the mode in the PERT mean
const lambda = 4.0

// Params is a three-point estimate
type Params struct {
	Min  float64 `json:"min" yaml:"min" msgpack:"min"`
	Max  float64 `json:"max" yaml:"max" msgpack:"max"`
	Mode float64 `json:"mode" yaml:"mode" msgpack:"mode"`
}

// Validate checks min <= mode <= max with a non-degenerate range
func (p Params) Validate() error {
	for _, v := range []float64{p.Min, p.Max, p.Mode} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("%w: pert values must be finite, got %+v", domain.ErrInvalidParameters, p)
		}
	}
	if p.Min == p.Max {
		return fmt.Errorf("%w: pert min and max are both %g", domain.ErrInvalidParameters, p.Min)
	}
	if p.Min > p.Mode || p.Mode > p.Max {
		return fmt.Errorf("%w: pert requires min <= mode <= max, got min=%g mode=%g max=%g",
			domain.ErrInvalidParameters, p.Min, p.Mode, p.Max)
	}
	return nil
}

// Mean returns the three-point weighted mean (min + 4*mode + max) / 6
func (p Params) Mean() float64 {
	return (p.Min + lambda*p.Mode + p.Max) / (lambda + 2)
}

// Range returns max - min
func (p Params) Range() float64 {
	return p.Max - p.Min
}

// Distribution draws PERT variates from a caller-owned random source.
// A Distribution is not safe for concurrent use because its source is not.
type Distribution struct {
	params Params
	beta   distuv.Beta
}

// New validates p and binds it to src
func New(p Params, src rand.Source) (*Distribution, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	span := p.Range()
	return &Distribution{
		params: p,
		beta: distuv.Beta{
			Alpha: 1 + lambda*(p.Mode-p.Min)/span,
			Beta:  1 + lambda*(p.Max-p.Mode)/span,
			Src:   src,
		},
	}, nil
}

// Params returns the three-point estimate backing the distribution
func (d *Distribution) Params() Params {
	return d.params
}

// Rand draws one variate in [min, max]
func (d *Distribution) Rand() float64 {
	x := d.params.Min + d.params.Range()*d.beta.Rand()
	// Guard against rounding just outside the support.
	if x < d.params.Min {
		return d.params.Min
	}
	if x > d.params.Max {
		return d.params.Max
	}
	return x
}

// Fill overwrites dst with fresh variates
func (d *Distribution) Fill(dst []float64) {
	for i := range dst {
		dst[i] = d.Rand()
	}
}

// Mean returns the analytic mean, equal to Params.Mean
func (d *Distribution) Mean() float64 {
	return d.params.Min + d.params.Range()*d.beta.Mean()
}

// Variance returns the analytic variance
func (d *Distribution) Variance() float64 {
	span := d.params.Range()
	return span * span * d.beta.Variance()
}

// Sample draws n variates from p using src.
func Sample(src rand.Source, p Params, n int) ([]float64, error) {
	if n < 0 {
		return nil, fmt.Errorf("%w: sample size must be non-negative, got %d", domain.ErrInvalidParameters, n)
	}
	d, err := New(p, src)
	if err != nil {
		return nil, err
	}
	out := make([]float64, n)
	d.Fill(out)
	return out, nil
}
