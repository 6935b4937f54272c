package parser

import "github.com/toyz/mockable/internal/errors"

// DuplicatePolicy decides what happens when an interface declares a method name twice
type DuplicatePolicy int

const (
	// DuplicateReject fails extraction with a DuplicateMethodError
	DuplicateReject DuplicatePolicy = iota
	// DuplicateLastWins keeps the later declaration in the earlier one's position
	DuplicateLastWins
)

// String returns the configuration spelling of the policy
func (d DuplicatePolicy) String() string {
	if d == DuplicateLastWins {
		return "last-wins"
	}
	return "reject"
}

// ParseDuplicatePolicy converts a configuration value into a DuplicatePolicy
func ParseDuplicatePolicy(s string) (DuplicatePolicy, error) {
	switch s {
	case "", "reject":
		return DuplicateReject, nil
	case "last-wins":
		return DuplicateLastWins, nil
	default:
		return DuplicateReject, errors.NewConfigError("duplicate_methods", s, "reject", "last-wins")
	}
}

// errorInterfaceName is the predeclared interface whose method set is expanded inline
const errorInterfaceName = "error"

// comparableName is the predeclared constraint interface
const comparableName = "comparable"
