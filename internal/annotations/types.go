package annotations

import (
	"fmt"
	"go/ast"
	"go/token"

	"github.com/toyz/mockable/internal/errors"
)

// DirectivePrefix starts every directive comment
const DirectivePrefix = "//mock::"

// DirectiveKind represents the type of directive
type DirectiveKind int

const (
	// MockableDirective marks an interface for mocking and optionally carries local overrides
	MockableDirective DirectiveKind = iota
	// ReturnsDirective records return overrides for the annotated type
	ReturnsDirective
	// GenerateDirective implements an interface on the annotated type
	GenerateDirective
)

// String returns the string representation of the directive kind
func (k DirectiveKind) String() string {
	switch k {
	case MockableDirective:
		return "mockable"
	case ReturnsDirective:
		return "returns"
	case GenerateDirective:
		return "generate"
	default:
		return "unknown"
	}
}

// ParseDirectiveKind converts string to DirectiveKind
func ParseDirectiveKind(s string) (DirectiveKind, error) {
	switch s {
	case "mockable":
		return MockableDirective, nil
	case "returns":
		return ReturnsDirective, nil
	case "generate":
		return GenerateDirective, nil
	default:
		return 0, fmt.Errorf("unknown directive: %s", s)
	}
}

// SourceLocation is shared with the errors package so locations flow into diagnostics unchanged
type SourceLocation = errors.SourceLocation

// Expression is a return override parsed once when its directive is read.
// Exactly one of Node and Tuple is set. Both belong to Fset; consumers must
// not reparse Text.
type Expression struct {
	Text  string
	Node  ast.Expr
	Tuple []ast.Expr
	Fset  *token.FileSet
	Loc   SourceLocation
}

// Parsed reports whether the expression carries a syntax tree
func (e *Expression) Parsed() bool {
	return e != nil && e.Fset != nil && (e.Node != nil || len(e.Tuple) > 0)
}

// Exprs returns the returned values in order
func (e *Expression) Exprs() []ast.Expr {
	if e.Node != nil {
		return []ast.Expr{e.Node}
	}
	return e.Tuple
}

// String returns the expression source text
func (e *Expression) String() string {
	if e == nil {
		return ""
	}
	return e.Text
}

// Arg is one comma separated directive argument, either a bare name or name = expression
type Arg struct {
	Name  string
	Value *Expression
	Loc   SourceLocation
}

// IsBare reports whether the argument has no value
func (a Arg) IsBare() bool {
	return a.Value == nil
}

// Directive represents a fully parsed directive comment
type Directive struct {
	Kind DirectiveKind
	Args []Arg
	Loc  SourceLocation
	Raw  string
}

// BareArgs returns the arguments without a value, in source order
func (d *Directive) BareArgs() []Arg {
	var out []Arg
	for _, a := range d.Args {
		if a.IsBare() {
			out = append(out, a)
		}
	}
	return out
}

// ValueArgs returns the name = expression arguments, in source order
func (d *Directive) ValueArgs() []Arg {
	var out []Arg
	for _, a := range d.Args {
		if !a.IsBare() {
			out = append(out, a)
		}
	}
	return out
}
