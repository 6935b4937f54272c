package parser

import (
	"fmt"
	"go/ast"
	"go/token"
	"go/types"
	"path"
	"strings"

	"github.com/toyz/mockable/internal/annotations"
	"github.com/toyz/mockable/internal/errors"
	"github.com/toyz/mockable/internal/models"
)

// InterfaceLookup resolves a same-package interface declaration by name
type InterfaceLookup func(name string) (*ast.TypeSpec, *ast.File, bool)

// Extractor turns interface declarations into InterfaceDescriptors
type Extractor struct {
	fset       *token.FileSet
	policy     DuplicatePolicy
	lookup     InterfaceLookup
	onWarn     func(error)
	loader     PackageLoader
	dir        string
	visited    map[string]bool
	importPath string
	imports    []models.ImportSpec
}

// NewExtractor creates an extractor. With a nil lookup every embedded
// interface other than error and any is reported as an error.
func NewExtractor(fset *token.FileSet, policy DuplicatePolicy, lookup InterfaceLookup, onWarn func(error)) *Extractor {
	if onWarn == nil {
		onWarn = func(error) {}
	}
	return &Extractor{
		fset:   fset,
		policy: policy,
		lookup: lookup,
		onWarn: onWarn,
	}
}

// SetPackageLoader enables expansion of interfaces embedded from other
// packages. Their import paths are resolved from dir.
func (e *Extractor) SetPackageLoader(loader PackageLoader, dir string) {
	e.loader = loader
	e.dir = dir
}

// Extract builds the descriptor for an interface type spec declared in file
func (e *Extractor) Extract(spec *ast.TypeSpec, file *ast.File, importPath string) (*models.InterfaceDescriptor, error) {
	iface, ok := spec.Type.(*ast.InterfaceType)
	if !ok {
		return nil, errors.NewArgumentParseError("mockable",
			fmt.Sprintf("%s is not an interface", spec.Name.Name), e.location(spec.Pos()))
	}

	e.visited = map[string]bool{spec.Name.Name: true}
	e.importPath = importPath
	e.imports = FileImports(file)

	desc := &models.InterfaceDescriptor{
		Name:        spec.Name.Name,
		PackageName: file.Name.Name,
		ImportPath:  importPath,
		TypeParams:  e.fieldList(spec.TypeParams),
		Loc:         e.location(spec.Name.Pos()),
	}

	methods, err := e.collect(spec.Name.Name, iface, file)
	if err != nil {
		return nil, err
	}
	desc.Methods = methods
	desc.Imports = e.imports
	return desc, nil
}

func (e *Extractor) collect(ifaceName string, iface *ast.InterfaceType, file *ast.File) ([]models.MethodDescriptor, error) {
	var methods []models.MethodDescriptor
	index := make(map[string]int)

	add := func(m models.MethodDescriptor, embedded bool) error {
		pos, exists := index[m.Name]
		if !exists {
			index[m.Name] = len(methods)
			methods = append(methods, m)
			return nil
		}
		if embedded && sameSignature(methods[pos], m) {
			return nil
		}
		if e.policy == DuplicateLastWins {
			e.onWarn(errors.Newf(errors.DuplicateMethodErrorCode,
				"method %s of %s is declared again; the later declaration is used", m.Name, ifaceName).
				WithLocation(m.Loc))
			methods[pos] = m
			return nil
		}
		return errors.NewDuplicateMethodError(ifaceName, m.Name, m.Loc)
	}

	if iface.Methods == nil {
		return methods, nil
	}

	for _, field := range iface.Methods.List {
		var embedded []models.MethodDescriptor
		var err error

		switch t := field.Type.(type) {
		case *ast.FuncType:
			for _, name := range field.Names {
				if err := add(e.method(name.Name, name.Pos(), t), false); err != nil {
					return nil, err
				}
			}
			continue
		case *ast.Ident:
			embedded, err = e.embedded(t)
		case *ast.SelectorExpr:
			embedded, err = e.foreign(t, file)
		case *ast.IndexExpr, *ast.IndexListExpr:
			err = errors.Newf(errors.GenerationErrorCode,
				"embedded generic interface %s cannot be expanded", types.ExprString(t)).
				WithLocation(e.location(t.Pos()))
		default:
			e.onWarn(errors.Newf(errors.GenerationErrorCode,
				"type set element %s of %s carries no methods and is ignored", types.ExprString(t), ifaceName).
				WithLocation(e.location(t.Pos())))
		}
		if err != nil {
			return nil, err
		}
		for _, m := range embedded {
			if err := add(m, true); err != nil {
				return nil, err
			}
		}
	}

	return methods, nil
}

func (e *Extractor) embedded(ident *ast.Ident) ([]models.MethodDescriptor, error) {
	if ident.Name == errorInterfaceName && e.lookupMiss(ident.Name) {
		return []models.MethodDescriptor{{
			Name:    "Error",
			Results: []models.Parameter{{Type: "string"}},
			Loc:     e.location(ident.Pos()),
		}}, nil
	}

	if types.Universe.Lookup(ident.Name) != nil && e.lookupMiss(ident.Name) {
		if ident.Name == comparableName {
			e.onWarn(errors.Newf(errors.GenerationErrorCode,
				"embedded %s carries no methods and is ignored", comparableName).
				WithLocation(e.location(ident.Pos())))
		}
		return nil, nil
	}

	if e.lookup == nil {
		return nil, errors.Newf(errors.GenerationErrorCode, "embedded interface %s cannot be expanded", ident.Name).
			WithLocation(e.location(ident.Pos()))
	}

	spec, specFile, ok := e.lookup(ident.Name)
	if !ok {
		lerr := errors.NewLookupError(ident.Name)
		lerr.WithLocation(e.location(ident.Pos()))
		return nil, lerr
	}
	if e.visited[ident.Name] {
		return nil, errors.Newf(errors.GenerationErrorCode, "interface %s embeds itself", ident.Name).
			WithLocation(e.location(ident.Pos()))
	}
	iface, ok := spec.Type.(*ast.InterfaceType)
	if !ok {
		return nil, errors.Newf(errors.GenerationErrorCode, "embedded type %s is not an interface", ident.Name).
			WithLocation(e.location(ident.Pos()))
	}

	e.visited[ident.Name] = true
	defer delete(e.visited, ident.Name)
	return e.collect(ident.Name, iface, specFile)
}

// foreign expands an interface embedded from another package, such as
// io.Reader, using the type information of that package
func (e *Extractor) foreign(sel *ast.SelectorExpr, file *ast.File) ([]models.MethodDescriptor, error) {
	name := types.ExprString(sel)
	loc := e.location(sel.Pos())

	alias, ok := sel.X.(*ast.Ident)
	if !ok {
		return nil, errors.Newf(errors.GenerationErrorCode, "embedded interface %s cannot be expanded", name).
			WithLocation(loc)
	}
	if e.loader == nil {
		return nil, errors.Newf(errors.GenerationErrorCode,
			"embedded interface %s is declared in another package and no package loader is configured", name).
			WithLocation(loc)
	}

	pkg, err := e.importedPackage(alias.Name, file)
	if err != nil {
		return nil, errors.Wrapf(errors.LookupErrorCode, err, "embedded interface %s: %v", name, err).WithLocation(loc)
	}
	var obj *types.TypeName
	if pkg != nil {
		obj, _ = pkg.Scope().Lookup(sel.Sel.Name).(*types.TypeName)
	}
	if obj == nil || !obj.Exported() {
		lerr := errors.NewLookupError(name)
		lerr.WithLocation(loc)
		return nil, lerr
	}

	iface, ok := obj.Type().Underlying().(*types.Interface)
	if !ok {
		return nil, errors.Newf(errors.GenerationErrorCode, "embedded type %s is not an interface", name).
			WithLocation(loc)
	}
	if !iface.IsMethodSet() {
		e.onWarn(errors.Newf(errors.GenerationErrorCode,
			"type set of embedded interface %s is ignored; only its methods are kept", name).WithLocation(loc))
	}

	methods := make([]models.MethodDescriptor, 0, iface.NumMethods())
	for i := 0; i < iface.NumMethods(); i++ {
		fn := iface.Method(i)
		if !fn.Exported() {
			return nil, errors.Newf(errors.GenerationErrorCode,
				"embedded interface %s has the unexported method %s and cannot be implemented outside %s",
				name, fn.Name(), pkg.Path()).WithLocation(loc)
		}
		sig := fn.Type().(*types.Signature)
		methods = append(methods, models.MethodDescriptor{
			Name:    fn.Name(),
			Params:  e.tuple(sig.Params(), sig.Variadic()),
			Results: e.tuple(sig.Results(), false),
			Loc:     loc,
		})
	}
	return methods, nil
}

// importedPackage finds the package file refers to as alias. A nil package
// and nil error mean no import matches.
func (e *Extractor) importedPackage(alias string, file *ast.File) (*types.Package, error) {
	imports := FileImports(file)
	for _, imp := range imports {
		if imp.Name == alias {
			return e.loader.Load(e.dir, imp.Path)
		}
	}

	// unnamed imports are referred to by package name, which usually matches
	// the last path element
	var rest []models.ImportSpec
	for _, imp := range imports {
		if imp.Name != "" {
			continue
		}
		if path.Base(imp.Path) != alias {
			rest = append(rest, imp)
			continue
		}
		pkg, err := e.loader.Load(e.dir, imp.Path)
		if err != nil {
			return nil, err
		}
		if pkg.Name() == alias {
			return pkg, nil
		}
	}
	for _, imp := range rest {
		pkg, err := e.loader.Load(e.dir, imp.Path)
		if err != nil {
			continue
		}
		if pkg.Name() == alias {
			return pkg, nil
		}
	}
	return nil, nil
}

func (e *Extractor) tuple(t *types.Tuple, variadic bool) []models.Parameter {
	if t.Len() == 0 {
		return nil
	}
	params := make([]models.Parameter, 0, t.Len())
	for i := 0; i < t.Len(); i++ {
		v := t.At(i)
		typ := v.Type()
		p := models.Parameter{Name: v.Name()}
		if slice, ok := typ.(*types.Slice); ok && variadic && i == t.Len()-1 {
			typ = slice.Elem()
			p.Variadic = true
		}
		p.Type = types.TypeString(typ, e.qualify)
		params = append(params, p)
	}
	return params
}

// qualify names pkg the way the interface's file imports it, adding an import
// when the file does not
func (e *Extractor) qualify(pkg *types.Package) string {
	if pkg.Path() == e.importPath {
		return ""
	}
	taken := make(map[string]bool)
	for _, imp := range e.imports {
		if imp.Name == "_" || imp.Name == "." {
			continue
		}
		if imp.Path == pkg.Path() {
			if imp.Name != "" {
				return imp.Name
			}
			return pkg.Name()
		}
		if imp.Name != "" {
			taken[imp.Name] = true
		} else {
			taken[path.Base(imp.Path)] = true
		}
	}

	name := pkg.Name()
	for i := 2; taken[name]; i++ {
		name = fmt.Sprintf("%s%d", pkg.Name(), i)
	}
	imp := models.ImportSpec{Path: pkg.Path()}
	if name != path.Base(pkg.Path()) {
		imp.Name = name
	}
	e.imports = append(e.imports, imp)
	return name
}

func (e *Extractor) lookupMiss(name string) bool {
	if e.lookup == nil {
		return true
	}
	_, _, found := e.lookup(name)
	return !found
}

func (e *Extractor) method(name string, pos token.Pos, fn *ast.FuncType) models.MethodDescriptor {
	return models.MethodDescriptor{
		Name:    name,
		Params:  e.fieldList(fn.Params),
		Results: e.fieldList(fn.Results),
		Loc:     e.location(pos),
	}
}

// fieldList flattens grouped fields so "a, b int" becomes two parameters
func (e *Extractor) fieldList(list *ast.FieldList) []models.Parameter {
	if list == nil {
		return nil
	}
	var params []models.Parameter
	for _, field := range list.List {
		typ := field.Type
		variadic := false
		if ellipsis, ok := typ.(*ast.Ellipsis); ok {
			typ = ellipsis.Elt
			variadic = true
		}
		text := types.ExprString(typ)

		if len(field.Names) == 0 {
			params = append(params, models.Parameter{Type: text, Variadic: variadic})
			continue
		}
		for _, name := range field.Names {
			params = append(params, models.Parameter{Name: name.Name, Type: text, Variadic: variadic})
		}
	}
	return params
}

func (e *Extractor) location(pos token.Pos) annotations.SourceLocation {
	return Location(e.fset, pos)
}

// Location converts a token position into a SourceLocation
func Location(fset *token.FileSet, pos token.Pos) annotations.SourceLocation {
	if fset == nil || !pos.IsValid() {
		return annotations.SourceLocation{}
	}
	p := fset.Position(pos)
	return annotations.SourceLocation{File: p.Filename, Line: p.Line, Column: p.Column}
}

// FileImports lists the imports of a file in declaration order
func FileImports(file *ast.File) []models.ImportSpec {
	imports := make([]models.ImportSpec, 0, len(file.Imports))
	for _, spec := range file.Imports {
		imp := models.ImportSpec{Path: strings.Trim(spec.Path.Value, "\"`")}
		if spec.Name != nil {
			imp.Name = spec.Name.Name
		}
		imports = append(imports, imp)
	}
	return imports
}

func sameSignature(a, b models.MethodDescriptor) bool {
	return signature(a.Params) == signature(b.Params) && signature(a.Results) == signature(b.Results)
}

func signature(params []models.Parameter) string {
	var b strings.Builder
	for _, p := range params {
		if p.Variadic {
			b.WriteString("...")
		}
		b.WriteString(p.Type)
		b.WriteString(";")
	}
	return b.String()
}
