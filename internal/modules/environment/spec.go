package environment

import (
	"fmt"

	"github.com/aristath/minesim/internal/domain"
	"github.com/aristath/minesim/internal/modules/pert"
)

// Variable names used by the cash-flow model
const (
	VarGoldPrice      = "gold_price"      // price per ounce
	VarProduction     = "production"      // ounces produced per year
	VarEquipmentCost  = "equipment_cost"  // equipment and labour cost per year
	VarLeaseProfit    = "lease_profit"    // profit from the leased asset per year
	VarReputationDays = "reputation_days" // variable reputation management days per year
	VarInterestRate   = "interest_rate"   // annual rate charged on negative cash
)

// RequiredVariables lists the variables every producing asset needs
var RequiredVariables = []string{
	VarGoldPrice,
	VarProduction,
	VarEquipmentCost,
	VarLeaseProfit,
	VarReputationDays,
	VarInterestRate,
}

// VariableSpec describes how one variable evolves across years
type VariableSpec struct {
	Name  string       `json:"name" yaml:"name"`
	Kind  Kind         `json:"kind" yaml:"kind"`
	Init  pert.Params  `json:"init" yaml:"init"`
	Delta *pert.Params `json:"delta,omitempty" yaml:"delta,omitempty"`
}

// Validate checks the PERT triples and that chained kinds carry delta parameters
func (s VariableSpec) Validate() error {
	if s.Name == "" {
		return fmt.Errorf("%w: variable without a name", domain.ErrInvalidParameters)
	}
	if _, ok := kindNames[s.Kind]; !ok {
		return fmt.Errorf("%w: variable %s has unknown kind %d", domain.ErrInvalidParameters, s.Name, int(s.Kind))
	}
	if err := s.Init.Validate(); err != nil {
		return fmt.Errorf("variable %s init: %w", s.Name, err)
	}
	if !s.Kind.Chained() {
		return nil
	}
	if s.Delta == nil {
		return fmt.Errorf("%w: variable %s is %s but has no delta parameters",
			domain.ErrInvalidParameters, s.Name, s.Kind)
	}
	if err := s.Delta.Validate(); err != nil {
		return fmt.Errorf("variable %s delta: %w", s.Name, err)
	}
	return nil
}
