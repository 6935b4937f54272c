package registry

import (
	"fmt"
	"go/token"

	"github.com/toyz/mockable/internal/annotations"
	"github.com/toyz/mockable/internal/errors"
	"github.com/toyz/mockable/internal/generator"
)

// LocalConfig is the inline configuration of a single mockable directive
type LocalConfig struct {
	MockName  string
	NameLoc   annotations.SourceLocation // zero when the name was derived
	Overrides map[string]*annotations.Expression
	Order     []string // override method names in first-seen order
}

// ParseLocalConfig interprets the arguments of a mockable directive. A bare
// argument names the mock; at most one is allowed. Every name = expr argument
// overrides that method, the last one winning.
func ParseLocalConfig(args []annotations.Arg, ifaceName, prefix string) (*LocalConfig, error) {
	cfg := &LocalConfig{Overrides: make(map[string]*annotations.Expression)}

	for _, arg := range args {
		if arg.IsBare() {
			if cfg.MockName != "" {
				return nil, errors.NewDuplicateMockNameError(cfg.MockName, arg.Name, arg.Loc)
			}
			if !token.IsIdentifier(arg.Name) {
				return nil, errors.NewArgumentParseError("mockable",
					fmt.Sprintf("mock name '%s' is not a valid identifier", arg.Name), arg.Loc)
			}
			cfg.MockName = arg.Name
			cfg.NameLoc = arg.Loc
			continue
		}

		if !token.IsIdentifier(arg.Name) {
			return nil, errors.NewArgumentParseError("mockable",
				fmt.Sprintf("'%s' is not a method name", arg.Name), arg.Loc)
		}
		if _, seen := cfg.Overrides[arg.Name]; !seen {
			cfg.Order = append(cfg.Order, arg.Name)
		}
		cfg.Overrides[arg.Name] = arg.Value
	}

	if cfg.MockName == "" {
		cfg.MockName = generator.DefaultMockName(prefix, ifaceName)
	}
	return cfg, nil
}
