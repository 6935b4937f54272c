package models

import (
	"github.com/toyz/mockable/internal/annotations"
)

// MockMethod is one generated method
type MockMethod struct {
	Method       MethodDescriptor
	Body         *annotations.Expression // configured return expression, nil when unconfigured
	Unconfigured bool                    // body is the canonical unimplemented failure
	VoidErr      error                   // set when the method has no results and cannot be mocked
	ArityErr     error                   // set when Body returns the wrong number of values
}

// MockTypeDescriptor describes a mock immediately before emission
type MockTypeDescriptor struct {
	Name        string               // mock type name
	Interface   *InterfaceDescriptor // interface being implemented
	TypeParams  []Parameter          // receiver type parameters
	Methods     []MockMethod         // one per interface method, same order
	DeclareType bool                 // emit "type Name struct{}"; false when implementing an existing type
	Imports     []ImportSpec         // imports needed by override expressions
	Loc         annotations.SourceLocation
}

// Diagnostics returns the per-method errors collected during synthesis
func (m *MockTypeDescriptor) Diagnostics() []error {
	var errs []error
	for _, method := range m.Methods {
		if method.VoidErr != nil {
			errs = append(errs, method.VoidErr)
		}
		if method.ArityErr != nil {
			errs = append(errs, method.ArityErr)
		}
	}
	return errs
}

// MethodNames returns the generated method names in order
func (m *MockTypeDescriptor) MethodNames() []string {
	names := make([]string, len(m.Methods))
	for i, method := range m.Methods {
		names[i] = method.Method.Name
	}
	return names
}
