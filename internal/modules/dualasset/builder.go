// Package dualasset builds the environment of a second asset from the first one.
//
// Every variable of the second asset has an explicit policy: share the first asset's
// table, redraw it from the same PERT spec on an independent stream, or derive it from a
// first-asset table. Row alignment is kept, so trial i of both environments describes the
// same world.
package dualasset

import (
	"fmt"
	"sort"

	"github.com/aristath/minesim/internal/domain"
	"github.com/aristath/minesim/internal/modules/environment"
	"github.com/rs/zerolog"
)

// Builder resolves a policy map into a second-asset environment
type Builder struct {
	gen      *environment.Generator
	asset    domain.Asset
	policies map[string]Policy
	log      zerolog.Logger
}

// NewBuilder creates a builder drawing redrawn variables for asset from gen
func NewBuilder(gen *environment.Generator, asset domain.Asset, log zerolog.Logger) *Builder {
	return &Builder{
		gen:      gen,
		asset:    asset,
		policies: make(map[string]Policy),
		log:      log.With().Str("component", "dualasset_builder").Str("asset", string(asset)).Logger(),
	}
}

// Set assigns the policy for a variable, replacing any earlier one
func (b *Builder) Set(name string, p Policy) *Builder {
	b.policies[name] = p
	return b
}

// SetAll resolves and assigns configuration policy specs
func (b *Builder) SetAll(specs []PolicySpec) error {
	for _, s := range specs {
		p, err := s.Resolve()
		if err != nil {
			return err
		}
		b.Set(s.Name, p)
	}
	return nil
}

// Policy returns the policy for name
func (b *Builder) Policy(name string) (Policy, bool) {
	p, ok := b.policies[name]
	return p, ok
}

// Names returns the configured variable names in sorted order
func (b *Builder) Names() []string {
	names := make([]string, 0, len(b.policies))
	for name := range b.policies {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// OwnCurve lists the redrawn variables. These follow the second asset's own year 1 and
// are the ones to time-shift once discovery years are known.
func (b *Builder) OwnCurve() []string {
	var names []string
	for _, name := range b.Names() {
		if b.policies[name].Kind == Redraw {
			names = append(names, name)
		}
	}
	return names
}

// Build resolves every policy against asset1. specs supplies the PERT specs of redrawn
// variables, looked up by name. Everything is validated before any draw.
func (b *Builder) Build(asset1 *environment.Environment, specs []environment.VariableSpec) (*environment.Environment, error) {
	if asset1 == nil {
		return nil, fmt.Errorf("%w: no first-asset environment", domain.ErrInvalidEnvironment)
	}
	byName := make(map[string]environment.VariableSpec, len(specs))
	for _, s := range specs {
		byName[s.Name] = s
	}

	names := b.Names()
	for _, name := range names {
		if err := b.check(name, asset1, byName); err != nil {
			return nil, err
		}
	}

	env, err := environment.New(asset1.Trials(), asset1.Years())
	if err != nil {
		return nil, err
	}
	for _, name := range names {
		table, err := b.resolve(name, asset1, byName)
		if err != nil {
			return nil, err
		}
		if err := env.Put(name, table); err != nil {
			return nil, err
		}
	}

	b.log.Debug().
		Int("variables", len(names)).
		Strs("redrawn", b.OwnCurve()).
		Msg("Second asset environment built")
	return env, nil
}

func (b *Builder) check(name string, asset1 *environment.Environment, specs map[string]environment.VariableSpec) error {
	p := b.policies[name]
	switch p.Kind {
	case Shared:
		return asset1.Require(name)
	case Redraw:
		spec, ok := specs[name]
		if !ok {
			return fmt.Errorf("%w: no spec to redraw %s", domain.ErrInvalidParameters, name)
		}
		return spec.Validate()
	case Derived:
		if p.Fn == nil {
			return fmt.Errorf("%w: derived policy for %s has no function", domain.ErrInvalidParameters, name)
		}
		return asset1.Require(p.source(name))
	default:
		return fmt.Errorf("%w: unknown policy %d for %s", domain.ErrInvalidParameters, int(p.Kind), name)
	}
}

func (b *Builder) resolve(name string, asset1 *environment.Environment, specs map[string]environment.VariableSpec) (*environment.Table, error) {
	p := b.policies[name]
	switch p.Kind {
	case Shared:
		return asset1.Var(name)
	case Redraw:
		return b.gen.Generate(specs[name], b.asset.StreamLabel(name), asset1.Trials(), asset1.Years())
	default:
		src, err := asset1.Var(p.source(name))
		if err != nil {
			return nil, err
		}
		return src.Apply(p.Fn), nil
	}
}

func (p Policy) source(name string) string {
	if p.From == "" {
		return name
	}
	return p.From
}
