package utils

import (
	"fmt"
)

// RegistryValidator is a function that validates a key-value pair before registration
type RegistryValidator[K comparable, V any] func(key K, value V, existing map[K]V) error

// BaseRegistry provides a generic, thread-safe registry implementation
// with built-in validation support that can be extended by specific registry types.
// Writes commit only after validation succeeds, so a panicking validator leaves
// the previous contents intact.
type BaseRegistry[K comparable, V any] struct {
	mu              *LenientMutex
	items           map[K]V
	validator       RegistryValidator[K, V]
	registryName    string
	keyDescriptor   string // e.g., "interface name"
	valueDescriptor string // e.g., "descriptor"
}

// NewBaseRegistry creates a new base registry with the specified configuration
func NewBaseRegistry[K comparable, V any](registryName, keyDesc, valueDesc string) *BaseRegistry[K, V] {
	return &BaseRegistry[K, V]{
		mu:              NewLenientMutex(RecoveryBestEffort),
		items:           make(map[K]V),
		registryName:    registryName,
		keyDescriptor:   keyDesc,
		valueDescriptor: valueDesc,
	}
}

// SetValidator sets the validation function for this registry
func (r *BaseRegistry[K, V]) SetValidator(validator RegistryValidator[K, V]) {
	_ = r.mu.Write(func() error {
		r.validator = validator
		return nil
	})
}

// SetRecoveryMode sets how the registry behaves after a panic during an operation
func (r *BaseRegistry[K, V]) SetRecoveryMode(mode RecoveryMode) {
	r.mu.SetMode(mode)
}

// Poisoned reports whether an operation on the registry has panicked
func (r *BaseRegistry[K, V]) Poisoned() bool {
	return r.mu.Poisoned()
}

// Register adds or replaces an item in the registry with validation
func (r *BaseRegistry[K, V]) Register(key K, value V) error {
	return r.RegisterWithCustomValidator(key, value, nil)
}

// RegisterWithCustomValidator registers an item with a one-time custom validator
func (r *BaseRegistry[K, V]) RegisterWithCustomValidator(key K, value V, customValidator RegistryValidator[K, V]) error {
	return r.mu.Write(func() error {
		if customValidator != nil {
			if err := customValidator(key, value, r.items); err != nil {
				return fmt.Errorf("%s registry: %w", r.registryName, err)
			}
		}

		if r.validator != nil {
			if err := r.validator(key, value, r.items); err != nil {
				return fmt.Errorf("%s registry: %w", r.registryName, err)
			}
		}

		r.items[key] = value
		return nil
	})
}

// Get retrieves an item from the registry
func (r *BaseRegistry[K, V]) Get(key K) (V, bool) {
	var (
		value  V
		exists bool
	)
	_ = r.mu.Read(func() error {
		value, exists = r.items[key]
		return nil
	})
	return value, exists
}

// GetOrError retrieves an item or returns an error if not found
func (r *BaseRegistry[K, V]) GetOrError(key K) (V, error) {
	var value V
	err := r.mu.Read(func() error {
		v, exists := r.items[key]
		if !exists {
			return fmt.Errorf("%s '%v' is not registered", r.keyDescriptor, key)
		}
		value = v
		return nil
	})
	return value, err
}

// List returns all keys in the registry
func (r *BaseRegistry[K, V]) List() []K {
	var keys []K
	_ = r.mu.Read(func() error {
		keys = make([]K, 0, len(r.items))
		for key := range r.items {
			keys = append(keys, key)
		}
		return nil
	})
	return keys
}

// Common validators for reuse across different registry types

// NotEmptyKeyValidator validates that a string key is not empty
func NotEmptyKeyValidator[V any](keyDesc string) RegistryValidator[string, V] {
	return func(key string, value V, existing map[string]V) error {
		if key == "" {
			return fmt.Errorf("%s cannot be empty", keyDesc)
		}
		return nil
	}
}

// NotNilValueValidator validates that a pointer value is not nil
func NotNilValueValidator[K comparable, V any](valueDesc string) RegistryValidator[K, *V] {
	return func(key K, value *V, existing map[K]*V) error {
		if value == nil {
			return fmt.Errorf("%s cannot be nil", valueDesc)
		}
		return nil
	}
}

// ChainValidators combines multiple validators into one
func ChainValidators[K comparable, V any](validators ...RegistryValidator[K, V]) RegistryValidator[K, V] {
	return func(key K, value V, existing map[K]V) error {
		for _, validator := range validators {
			if validator != nil {
				if err := validator(key, value, existing); err != nil {
					return err
				}
			}
		}
		return nil
	}
}
