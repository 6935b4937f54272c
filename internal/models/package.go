package models

import (
	"go/ast"

	"github.com/toyz/mockable/internal/annotations"
)

// DirectiveTarget is a directive together with the type declaration it annotates
type DirectiveTarget struct {
	Directive   *annotations.Directive
	TypeName    string       // annotated type
	TypeParams  []Parameter  // annotated type's type parameters
	IsInterface bool         // whether the annotated type is an interface
	FilePath    string       // file containing the declaration
	Imports     []ImportSpec // imports of that file
}

// PackageMetadata represents all directives found in a package
type PackageMetadata struct {
	PackageName  string                          // name of the Go package
	PackagePath  string                          // file system path to the package
	ImportPath   string                          // import path of the package
	Directives   []DirectiveTarget               // directives in file then source order
	Interfaces   map[string]*InterfaceDescriptor // interfaces marked mockable, by name
	Declarations map[string]bool                 // every top level name declared in the package
	TypeMethods  map[string]map[string]bool      // methods already declared, by receiver type
	Files        map[string]*ast.File            // parsed files, by path
	Errors       []error                         // directive and extraction errors, each fatal to its declaration
	Warnings     []error                         // non fatal findings
}

// MockableTargets returns the directives that mark interfaces as mockable
func (p *PackageMetadata) MockableTargets() []DirectiveTarget {
	var out []DirectiveTarget
	for _, d := range p.Directives {
		if d.Directive.Kind == annotations.MockableDirective {
			out = append(out, d)
		}
	}
	return out
}

// GeneratedFile represents a generated source file for one package
type GeneratedFile struct {
	PackageName string   // name of the package
	FilePath    string   // path where the file should be written
	Content     []byte   // formatted Go source
	Mocks       []string // names of the mocks in the file
}
