package models

import (
	"strings"

	"github.com/toyz/mockable/internal/annotations"
)

// Parameter represents a parameter, result, or type parameter
type Parameter struct {
	Name     string // parameter name, empty for unnamed
	Type     string // type expression source text; for variadics the element type
	Variadic bool   // whether the parameter is ...Type
}

// MethodDescriptor represents one method signature of an interface
type MethodDescriptor struct {
	Name    string                     // method name
	Params  []Parameter                // parameters in declaration order
	Results []Parameter                // results in declaration order, empty when the method returns nothing
	Loc     annotations.SourceLocation // where the method is declared
}

// HasResults reports whether the method returns a value
func (m MethodDescriptor) HasResults() bool {
	return len(m.Results) > 0
}

// ImportSpec is an import from the file that declared an interface or directive
type ImportSpec struct {
	Name string // explicit import name, empty when implied by the path
	Path string // import path
}

// InterfaceDescriptor represents an extracted interface declaration
type InterfaceDescriptor struct {
	Name        string                     // interface name
	PackageName string                     // declaring package name
	ImportPath  string                     // declaring package import path
	TypeParams  []Parameter                // type parameters, in order
	Methods     []MethodDescriptor         // methods in extraction order
	Imports     []ImportSpec               // imports of the declaring file
	Loc         annotations.SourceLocation // where the interface is declared
}

// QualifiedName returns the registry key for the interface
func (i *InterfaceDescriptor) QualifiedName() string {
	return QualifyName(i.ImportPath, i.Name)
}

// Method looks up a method by name
func (i *InterfaceDescriptor) Method(name string) (MethodDescriptor, bool) {
	for _, m := range i.Methods {
		if m.Name == name {
			return m, true
		}
	}
	return MethodDescriptor{}, false
}

// IsGeneric reports whether the interface declares type parameters
func (i *InterfaceDescriptor) IsGeneric() bool {
	return len(i.TypeParams) > 0
}

// QualifyName joins an import path and a declared name into a registry key
func QualifyName(importPath, name string) string {
	if importPath == "" {
		return name
	}
	return importPath + "." + name
}

// SplitQualifiedName is the inverse of QualifyName
func SplitQualifiedName(qualified string) (importPath, name string) {
	idx := strings.LastIndex(qualified, ".")
	if idx < 0 {
		return "", qualified
	}
	return qualified[:idx], qualified[idx+1:]
}
