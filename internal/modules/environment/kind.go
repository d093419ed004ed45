package environment

import (
	"fmt"

	"github.com/aristath/minesim/internal/domain"
)

// Kind is the temporal dependency rule of a variable
type Kind int

const (
	// Independent redraws every year from the init parameters
	Independent Kind = iota
	// Autoregressive multiplies the previous year by a fresh delta factor
	Autoregressive
	// FixedBase multiplies the year-1 value by a fresh delta factor
	FixedBase
	// Additive adds a fresh delta amount to the previous year
	Additive
)

var kindNames = map[Kind]string{
	Independent:    "independent",
	Autoregressive: "autoregressive",
	FixedBase:      "fixed_base",
	Additive:       "additive",
}

// String returns the configuration name of the kind
func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// Chained reports whether later years depend on earlier years
func (k Kind) Chained() bool {
	return k != Independent
}

// ParseKind maps a configuration name to a Kind
func ParseKind(s string) (Kind, error) {
	for k, name := range kindNames {
		if name == s {
			return k, nil
		}
	}
	return 0, fmt.Errorf("%w: unknown dependency kind %q", domain.ErrInvalidParameters, s)
}

// MarshalText implements encoding.TextMarshaler
func (k Kind) MarshalText() ([]byte, error) {
	if _, ok := kindNames[k]; !ok {
		return nil, fmt.Errorf("%w: unknown dependency kind %d", domain.ErrInvalidParameters, int(k))
	}
	return []byte(k.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler
func (k *Kind) UnmarshalText(text []byte) error {
	parsed, err := ParseKind(string(text))
	if err != nil {
		return err
	}
	*k = parsed
	return nil
}
