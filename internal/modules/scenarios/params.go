package scenarios

import (
	"fmt"
	"os"

	"github.com/aristath/minesim/internal/domain"
	"github.com/aristath/minesim/internal/modules/cash_flows"
	"github.com/aristath/minesim/internal/modules/decisions"
	"github.com/aristath/minesim/internal/modules/dualasset"
	"github.com/aristath/minesim/internal/modules/environment"
	"github.com/aristath/minesim/internal/modules/pert"
	"github.com/aristath/minesim/internal/modules/position"
	"gopkg.in/yaml.v3"
)

// Params is everything a scenario needs apart from run size, seed and decisions
type Params struct {
	// Variables are the producing mine's random inputs
	Variables []environment.VariableSpec `json:"variables" yaml:"variables"`
	// Prospect says how the discoverable mine's variables relate to the producing mine
	Prospect             []dualasset.PolicySpec `json:"prospect" yaml:"prospect"`
	Terms                cash_flows.Terms       `json:"terms" yaml:"terms"`
	Constants            decisions.Constants    `json:"constants" yaml:"constants"`
	ForeclosureThreshold float64                `json:"foreclosure_threshold" yaml:"foreclosure_threshold"`
}

func span(lo, hi, mode float64) pert.Params {
	return pert.Params{Min: lo, Max: hi, Mode: mode}
}

func spanPtr(lo, hi, mode float64) *pert.Params {
	p := span(lo, hi, mode)
	return &p
}

// DefaultParams returns the gold mine case: one producing mine with a leased asset and
// an exploration programme that may find a second, smaller-cost mine.
func DefaultParams() Params {
	return Params{
		Variables: []environment.VariableSpec{
			{Name: environment.VarGoldPrice, Kind: environment.Additive,
				Init: span(1600, 1800, 1700), Delta: spanPtr(-100, 500, 100)},
			{Name: environment.VarProduction, Kind: environment.FixedBase,
				Init: span(2000, 9000, 5000), Delta: spanPtr(0.6, 1.2, 0.95)},
			{Name: environment.VarEquipmentCost, Kind: environment.Independent,
				Init: span(4_000_000, 9_000_000, 6_000_000)},
			{Name: environment.VarLeaseProfit, Kind: environment.Independent,
				Init: span(200_000, 2_500_000, 1_200_000)},
			{Name: environment.VarReputationDays, Kind: environment.Independent,
				Init: span(5, 60, 20)},
			{Name: environment.VarInterestRate, Kind: environment.Autoregressive,
				Init: span(0.04, 0.12, 0.06), Delta: spanPtr(0.8, 1.3, 1.0)},
		},
		Prospect: []dualasset.PolicySpec{
			{Name: environment.VarGoldPrice, Policy: "shared"},
			{Name: environment.VarInterestRate, Policy: "shared"},
			{Name: environment.VarProduction, Policy: "redraw"},
			{Name: environment.VarEquipmentCost, Policy: "derived", Factor: 0.5},
		},
		Terms: cash_flows.Terms{
			SellingCostRate: 0.05,
			ReputationFixed: 200_000,
			ReputationRate:  10_000,
		},
		Constants: decisions.Constants{
			SalePrice:          []float64{1_500_000, 1_400_000, 1_300_000, 1_200_000, 1_100_000},
			SearchCost:         []float64{0, 250_000, 500_000, 750_000, 1_000_000, 1_250_000},
			SuccessProbability: []float64{0, 0.05, 0.10, 0.15, 0.20, 0.25},
		},
		ForeclosureThreshold: -4_000_000,
	}
}

// LoadParams reads a YAML parameter file. Sections left out of the file keep their
// DefaultParams values.
func LoadParams(path string) (Params, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Params{}, fmt.Errorf("failed to read params file: %w", err)
	}
	return ParseParams(data)
}

// ParseParams decodes YAML (or JSON, which YAML accepts) over DefaultParams
func ParseParams(data []byte) (Params, error) {
	p := DefaultParams()
	var file struct {
		Variables            []environment.VariableSpec `yaml:"variables"`
		Prospect             []dualasset.PolicySpec     `yaml:"prospect"`
		Terms                *cash_flows.Terms          `yaml:"terms"`
		Constants            *decisions.Constants       `yaml:"constants"`
		ForeclosureThreshold *float64                   `yaml:"foreclosure_threshold"`
	}
	if err := yaml.Unmarshal(data, &file); err != nil {
		return Params{}, fmt.Errorf("%w: params file: %v", domain.ErrInvalidParameters, err)
	}
	if file.Variables != nil {
		p.Variables = file.Variables
	}
	if file.Prospect != nil {
		p.Prospect = file.Prospect
	}
	if file.Terms != nil {
		p.Terms = *file.Terms
	}
	if file.Constants != nil {
		p.Constants = *file.Constants
	}
	if file.ForeclosureThreshold != nil {
		p.ForeclosureThreshold = *file.ForeclosureThreshold
	}
	return p, p.Validate()
}

// Validate checks everything that does not depend on the run's year count
func (p Params) Validate() error {
	seen := make(map[string]bool, len(p.Variables))
	for _, v := range p.Variables {
		if err := v.Validate(); err != nil {
			return err
		}
		if seen[v.Name] {
			return fmt.Errorf("%w: variable %s specified twice", domain.ErrInvalidParameters, v.Name)
		}
		seen[v.Name] = true
	}
	for _, name := range environment.RequiredVariables {
		if !seen[name] {
			return fmt.Errorf("%w: missing variable %s", domain.ErrInvalidEnvironment, name)
		}
	}
	if err := p.validateProspect(seen); err != nil {
		return err
	}
	if err := p.Terms.Validate(); err != nil {
		return err
	}
	return position.ValidateThreshold(p.ForeclosureThreshold)
}

// HasProspect reports whether a discoverable second mine is configured
func (p Params) HasProspect() bool {
	return len(p.Prospect) > 0
}

// validateProspect checks that every prospect policy reads a producing-mine variable and
// that the policies cover everything a discovered mine contributes. variables holds the
// producing mine's variable names.
func (p Params) validateProspect(variables map[string]bool) error {
	if !p.HasProspect() {
		return nil
	}
	named := make(map[string]bool, len(p.Prospect))
	for _, s := range p.Prospect {
		policy, err := s.Resolve()
		if err != nil {
			return err
		}
		if named[s.Name] {
			return fmt.Errorf("%w: prospect variable %s specified twice", domain.ErrInvalidParameters, s.Name)
		}
		named[s.Name] = true

		source := s.Name
		if policy.Kind == dualasset.Derived && policy.From != "" {
			source = policy.From
		}
		if !variables[source] {
			return fmt.Errorf("%w: prospect %s reads %s, which the producing mine does not define",
				domain.ErrInvalidEnvironment, s.Name, source)
		}
	}
	for _, name := range cash_flows.ProspectVariables {
		if !named[name] {
			return fmt.Errorf("%w: prospect does not define %s", domain.ErrInvalidEnvironment, name)
		}
	}
	return nil
}

// CheckVector validates v against the horizon and the funding table. Funded exploration
// needs a prospect to discover, whatever the draws turn out to be.
func (p Params) CheckVector(v decisions.Vector, years int) error {
	if err := v.Validate(years, p.Constants.MaxLevel()); err != nil {
		return err
	}
	if v.Funds(years) && !p.HasProspect() {
		return fmt.Errorf("%w: %s funds exploration but no prospect is configured",
			domain.ErrInvalidDecision, v.Label())
	}
	return nil
}

// MaxSweepLevel is the highest funding level the default sweep grid covers: the funding
// table's maximum, or 0 when there is no prospect to find.
func (p Params) MaxSweepLevel() int {
	if !p.HasProspect() {
		return 0
	}
	return p.Constants.MaxLevel()
}
