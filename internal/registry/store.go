package registry

import (
	stderrors "errors"
	"fmt"
	"sort"
	"strings"

	"github.com/armon/go-radix"

	"github.com/toyz/mockable/internal/annotations"
	"github.com/toyz/mockable/internal/errors"
	"github.com/toyz/mockable/internal/generator"
	"github.com/toyz/mockable/internal/models"
	"github.com/toyz/mockable/internal/utils"
)

// keySeparator joins owner and method in override keys
const keySeparator = "::"

// OverrideKey identifies one return override
type OverrideKey struct {
	Owner  string
	Method string
}

// String returns the key in owner::method form
func (k OverrideKey) String() string {
	return k.Owner + keySeparator + k.Method
}

type override struct {
	expr     *annotations.Expression
	consumed bool
}

// Store is the caller-owned global configuration store. Interfaces and
// overrides live in separate maps, each behind its own lenient lock.
type Store struct {
	interfaces *utils.BaseRegistry[string, *models.InterfaceDescriptor]

	overridesMu *utils.LenientMutex
	overrides   *radix.Tree
}

// StoreOption configures a Store
type StoreOption func(*Store)

// WithRecoveryMode sets the lock recovery mode for both maps
func WithRecoveryMode(mode utils.RecoveryMode) StoreOption {
	return func(s *Store) {
		s.interfaces.SetRecoveryMode(mode)
		s.overridesMu.SetMode(mode)
	}
}

// NewStore creates an empty store
func NewStore(opts ...StoreOption) *Store {
	s := &Store{
		interfaces:  utils.NewBaseRegistry[string, *models.InterfaceDescriptor]("interface", "interface name", "interface descriptor"),
		overridesMu: utils.NewLenientMutex(utils.RecoveryBestEffort),
		overrides:   radix.New(),
	}
	s.interfaces.SetValidator(utils.ChainValidators(
		utils.NotEmptyKeyValidator[*models.InterfaceDescriptor]("interface name"),
		utils.NotNilValueValidator[string, models.InterfaceDescriptor]("interface descriptor"),
	))
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// RegisterInterface inserts or overwrites the descriptor stored under name
func (s *Store) RegisterInterface(name string, desc *models.InterfaceDescriptor) error {
	return s.interfaces.Register(name, desc)
}

// Interface returns the descriptor registered under name
func (s *Store) Interface(name string) (*models.InterfaceDescriptor, bool) {
	return s.interfaces.Get(name)
}

// Interfaces returns the registered interface names in sorted order
func (s *Store) Interfaces() []string {
	names := s.interfaces.List()
	sort.Strings(names)
	return names
}

// SetReturnValue inserts or overwrites the override for (owner, method).
// A later call for the same key replaces the earlier expression.
func (s *Store) SetReturnValue(owner, method string, expr *annotations.Expression) error {
	if owner == "" || method == "" {
		return errors.NewArgumentParseError("returns", "owner and method names are required", exprLoc(expr))
	}
	if !expr.Parsed() {
		return errors.NewArgumentParseError("returns",
			fmt.Sprintf("override %s.%s has no parsed expression", owner, method), exprLoc(expr))
	}

	key := OverrideKey{Owner: owner, Method: method}.String()
	return s.overridesMu.Write(func() error {
		s.overrides.Insert(key, &override{expr: expr})
		return nil
	})
}

// Overrides returns the method overrides recorded for owner
func (s *Store) Overrides(owner string) (map[string]*annotations.Expression, error) {
	out := make(map[string]*annotations.Expression)
	err := s.overridesMu.Read(func() error {
		s.overrides.WalkPrefix(owner+keySeparator, func(key string, v interface{}) bool {
			out[strings.TrimPrefix(key, owner+keySeparator)] = v.(*override).expr
			return false
		})
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// GenerateMock synthesizes the methods of iface for owner using the overrides
// recorded under owner. The owner's unqualified name becomes the mock name.
// It fails with a LookupError when iface has not been registered.
func (s *Store) GenerateMock(owner, iface string) (*models.MockTypeDescriptor, error) {
	desc, err := s.lookup(iface)
	if err != nil {
		return nil, err
	}

	overrides := make(map[string]*annotations.Expression)
	prefix := owner + keySeparator
	err = s.overridesMu.Write(func() error {
		s.overrides.WalkPrefix(prefix, func(key string, v interface{}) bool {
			method := strings.TrimPrefix(key, prefix)
			if _, ok := desc.Method(method); !ok {
				return false
			}
			o := v.(*override)
			o.consumed = true
			overrides[method] = o.expr
			return false
		})
		return nil
	})
	if err != nil {
		return nil, err
	}

	_, name := models.SplitQualifiedName(owner)
	mock := generator.Synthesize(desc, overrides, name)
	mock.DeclareType = false
	return mock, nil
}

// UnusedOverrides lists the overrides no GenerateMock call consumed, sorted by key
func (s *Store) UnusedOverrides() ([]OverrideKey, error) {
	var keys []OverrideKey
	err := s.overridesMu.Read(func() error {
		s.overrides.Walk(func(key string, v interface{}) bool {
			if v.(*override).consumed {
				return false
			}
			i := strings.LastIndex(key, keySeparator)
			keys = append(keys, OverrideKey{Owner: key[:i], Method: key[i+len(keySeparator):]})
			return false
		})
		return nil
	})
	if err != nil {
		return nil, err
	}
	return keys, nil
}

// OverrideLocation returns where the override for key was written. The
// location is empty when the key is unknown or the lock refuses the read.
func (s *Store) OverrideLocation(key OverrideKey) annotations.SourceLocation {
	var loc annotations.SourceLocation
	_ = s.overridesMu.Read(func() error {
		if v, ok := s.overrides.Get(key.String()); ok {
			loc = v.(*override).expr.Loc
		}
		return nil
	})
	return loc
}

// Poisoned reports whether either map's lock has been poisoned
func (s *Store) Poisoned() bool {
	return s.interfaces.Poisoned() || s.overridesMu.Poisoned()
}

func (s *Store) lookup(name string) (*models.InterfaceDescriptor, error) {
	desc, err := s.interfaces.GetOrError(name)
	if err == nil {
		return desc, nil
	}
	if stderrors.Is(err, errors.ErrPoisoned) {
		return nil, err
	}
	return nil, errors.NewLookupError(name)
}

func exprLoc(expr *annotations.Expression) annotations.SourceLocation {
	if expr == nil {
		return annotations.SourceLocation{}
	}
	return expr.Loc
}
