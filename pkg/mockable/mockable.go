// Package mockable is the runtime support imported by generated mocks.
package mockable

import (
	"errors"
	"fmt"
)

// ErrUnimplemented is wrapped by every panic raised from an unconfigured mock method
var ErrUnimplemented = errors.New("mockable: method not configured")

// UnimplementedError identifies the mock method that was called without a configured return value
type UnimplementedError struct {
	Mock   string
	Method string
}

// Error implements the error interface
func (e *UnimplementedError) Error() string {
	return fmt.Sprintf("mockable: %s.%s called but no return value is configured", e.Mock, e.Method)
}

// Unwrap returns ErrUnimplemented
func (e *UnimplementedError) Unwrap() error {
	return ErrUnimplemented
}

// Unimplemented builds the value generated mocks panic with
func Unimplemented(mock, method string) error {
	return &UnimplementedError{Mock: mock, Method: method}
}

// IsUnimplemented reports whether a recovered panic value came from an unconfigured mock method
func IsUnimplemented(recovered any) bool {
	err, ok := recovered.(error)
	return ok && errors.Is(err, ErrUnimplemented)
}

// Recover calls fn and returns the UnimplementedError it panicked with, or nil.
// Other panics are re-raised.
func Recover(fn func()) (unimplemented *UnimplementedError) {
	defer func() {
		r := recover()
		if r == nil {
			return
		}
		if err, ok := r.(error); ok && errors.As(err, &unimplemented) {
			return
		}
		panic(r)
	}()
	fn()
	return nil
}
