package generator

import (
	"bytes"
	"fmt"
	"go/parser"
	"go/token"
	"go/types"
	"path"
	"strconv"

	"github.com/dave/dst"
	"github.com/dave/dst/decorator"
	"github.com/dave/dst/dstutil"

	"github.com/toyz/mockable/internal/annotations"
	"github.com/toyz/mockable/internal/models"
)

// RuntimeImportPath is the package generated mocks call for the unimplemented failure
const RuntimeImportPath = "github.com/toyz/mockable/pkg/mockable"

// VoidMarker is the undeclared identifier emitted in the body of a method that
// cannot be mocked, so the generated file fails to compile at that method
const VoidMarker = "mockableVoidReturnUnsupported"

// FileSpec describes one generated file
type FileSpec struct {
	PackageName  string
	ImportPath   string
	Mocks        []*models.MockTypeDescriptor
	Declarations map[string]bool // package level names already declared by the package
}

// fileBuilder accumulates the dst declarations and imports for one file
type fileBuilder struct {
	spec        FileSpec
	runtime     bool
	imports     []models.ImportSpec
	importPaths map[string]bool
	runtimeName string
}

func newFileBuilder(spec FileSpec, runtime bool) *fileBuilder {
	return &fileBuilder{
		spec:        spec,
		runtime:     runtime,
		importPaths: make(map[string]bool),
		runtimeName: "mockable",
	}
}

func (b *fileBuilder) addImport(imp models.ImportSpec) {
	if imp.Name == "_" || imp.Name == "." || imp.Path == b.spec.ImportPath || b.importPaths[imp.Path] {
		return
	}
	b.importPaths[imp.Path] = true
	b.imports = append(b.imports, imp)
}

// build renders the file body without the generated-code header
func (b *fileBuilder) build() ([]byte, error) {
	var decls []dst.Decl

	b.runtimeName = b.runtimeAlias()

	for _, mock := range b.spec.Mocks {
		mockDecls, err := b.mockDecls(mock)
		if err != nil {
			return nil, fmt.Errorf("mock %s: %w", mock.Name, err)
		}
		decls = append(decls, mockDecls...)
	}

	if len(b.imports) > 0 {
		importDecl := &dst.GenDecl{Tok: token.IMPORT, Lparen: true, Rparen: true}
		for _, imp := range b.imports {
			spec := &dst.ImportSpec{
				Path: &dst.BasicLit{Kind: token.STRING, Value: strconv.Quote(imp.Path)},
			}
			if imp.Name != "" {
				spec.Name = dst.NewIdent(imp.Name)
			}
			spec.Decs.Before = dst.NewLine
			spec.Decs.After = dst.NewLine
			importDecl.Specs = append(importDecl.Specs, spec)
		}
		decls = append([]dst.Decl{importDecl}, decls...)
	}

	for _, decl := range decls {
		decl.Decorations().Before = dst.EmptyLine
		decl.Decorations().After = dst.EmptyLine
	}

	file := &dst.File{
		Name:  dst.NewIdent(b.spec.PackageName),
		Decls: decls,
	}

	var buf bytes.Buffer
	if err := decorator.Fprint(&buf, file); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (b *fileBuilder) mockDecls(mock *models.MockTypeDescriptor) ([]dst.Decl, error) {
	iface := mock.Interface
	q := b.qualifier(iface)

	for _, imps := range [][]models.ImportSpec{iface.Imports, mock.Imports} {
		for _, imp := range imps {
			if imp.Path == RuntimeImportPath {
				imp = b.runtimeImport()
			}
			b.addImport(imp)
		}
	}

	var decls []dst.Decl

	if mock.DeclareType {
		typeSpec := &dst.TypeSpec{
			Name: dst.NewIdent(mock.Name),
			Type: &dst.StructType{Fields: &dst.FieldList{Opening: true, Closing: true}},
		}
		if len(mock.TypeParams) > 0 {
			fields, err := b.fieldList(mock.TypeParams, q, setOf(paramNames(iface.TypeParams)))
			if err != nil {
				return nil, err
			}
			typeSpec.TypeParams = fields
		}
		typeDecl := &dst.GenDecl{Tok: token.TYPE, Specs: []dst.Spec{typeSpec}}
		typeDecl.Decs.Start.Append(fmt.Sprintf("// %s is a fixed-return implementation of %s.", mock.Name, iface.Name))
		decls = append(decls, typeDecl)
	}

	typeParamNames := paramNames(mock.TypeParams)
	ifaceTypeParams := paramNames(iface.TypeParams)

	for _, method := range mock.Methods {
		fn, err := b.method(mock, method, q, ifaceTypeParams, typeParamNames)
		if err != nil {
			return nil, fmt.Errorf("method %s: %w", method.Method.Name, err)
		}
		decls = append(decls, fn)
	}

	if len(mock.TypeParams) == 0 && len(iface.TypeParams) == 0 {
		decls = append(decls, b.assertion(mock))
	}

	return decls, nil
}

// runtimeAlias picks the name the runtime package is imported under so that no
// other name visible in a generated method body shadows it
func (b *fileBuilder) runtimeAlias() string {
	taken := make(map[string]bool)
	for name := range b.spec.Declarations {
		taken[name] = true
	}
	for _, mock := range b.spec.Mocks {
		taken[mock.Name] = true
		for _, imps := range [][]models.ImportSpec{mock.Interface.Imports, mock.Imports} {
			for _, imp := range imps {
				if imp.Path != RuntimeImportPath {
					taken[importName(imp)] = true
				}
			}
		}
		if b.isForeign(mock.Interface) {
			taken[mock.Interface.PackageName] = true
		}
		for _, tp := range mock.TypeParams {
			taken[tp.Name] = true
		}
		for _, method := range mock.Methods {
			for _, p := range nameParams(method.Method.Params) {
				taken[p.Name] = true
			}
		}
	}

	name := "mockable"
	for i := 1; taken[name]; i++ {
		name = "mockableruntime"
		if i > 1 {
			name = fmt.Sprintf("mockableruntime%d", i)
		}
	}
	return name
}

func (b *fileBuilder) runtimeImport() models.ImportSpec {
	imp := models.ImportSpec{Path: RuntimeImportPath}
	if b.runtimeName != "mockable" {
		imp.Name = b.runtimeName
	}
	return imp
}

func (b *fileBuilder) isForeign(iface *models.InterfaceDescriptor) bool {
	return iface.ImportPath != "" && iface.ImportPath != b.spec.ImportPath
}

// qualifier returns the package name used to reference iface's package, or "" when local
func (b *fileBuilder) qualifier(iface *models.InterfaceDescriptor) string {
	if !b.isForeign(iface) {
		return ""
	}
	imp := models.ImportSpec{Path: iface.ImportPath}
	if path.Base(iface.ImportPath) != iface.PackageName {
		imp.Name = iface.PackageName
	}
	b.addImport(imp)
	return iface.PackageName
}

func (b *fileBuilder) receiver(mock *models.MockTypeDescriptor, typeParams []string, taken map[string]bool) *dst.FieldList {
	name := "m"
	for _, candidate := range []string{"m", "mock", "mk", "recv"} {
		if !taken[candidate] {
			name = candidate
			break
		}
	}

	var typ dst.Expr = dst.NewIdent(mock.Name)
	switch len(typeParams) {
	case 0:
	case 1:
		typ = &dst.IndexExpr{X: typ, Index: dst.NewIdent(typeParams[0])}
	default:
		indices := make([]dst.Expr, len(typeParams))
		for i, tp := range typeParams {
			indices[i] = dst.NewIdent(tp)
		}
		typ = &dst.IndexListExpr{X: typ, Indices: indices}
	}

	return &dst.FieldList{
		Opening: true,
		List:    []*dst.Field{{Names: []*dst.Ident{dst.NewIdent(name)}, Type: &dst.StarExpr{X: typ}}},
		Closing: true,
	}
}

func (b *fileBuilder) method(mock *models.MockTypeDescriptor, method models.MockMethod, q string, ifaceTypeParams, typeParams []string) (*dst.FuncDecl, error) {
	md := method.Method

	locals := setOf(ifaceTypeParams)
	named := renameShadowing(nameParams(md.Params), q)

	params, err := b.fieldList(named, q, locals)
	if err != nil {
		return nil, err
	}
	if params == nil {
		params = &dst.FieldList{Opening: true, Closing: true}
	}

	results, err := b.fieldList(stripNames(md.Results), q, locals)
	if err != nil {
		return nil, err
	}

	taken := setOf(paramNames(named))
	for _, tp := range typeParams {
		taken[tp] = true
	}
	taken[q] = true
	taken[b.runtimeName] = true

	body, err := b.body(mock, method)
	if err != nil {
		return nil, err
	}
	for _, stmt := range body.List {
		stmt.Decorations().Before = dst.NewLine
		stmt.Decorations().After = dst.NewLine
	}

	return &dst.FuncDecl{
		Recv: b.receiver(mock, typeParams, taken),
		Name: dst.NewIdent(md.Name),
		Type: &dst.FuncType{Func: true, Params: params, Results: results},
		Body: body,
	}, nil
}

func (b *fileBuilder) body(mock *models.MockTypeDescriptor, method models.MockMethod) (*dst.BlockStmt, error) {
	switch {
	case method.VoidErr != nil:
		stmt := &dst.AssignStmt{
			Lhs: []dst.Expr{dst.NewIdent("_")},
			Tok: token.ASSIGN,
			Rhs: []dst.Expr{dst.NewIdent(VoidMarker)},
		}
		stmt.Decs.Start.Append(fmt.Sprintf("// %s has no return value and cannot be mocked.", method.Method.Name))
		return &dst.BlockStmt{List: []dst.Stmt{stmt}}, nil

	case method.Body != nil:
		results, err := decorateExpression(method.Body)
		if err != nil {
			return nil, err
		}
		return &dst.BlockStmt{List: []dst.Stmt{&dst.ReturnStmt{Results: results}}}, nil

	default:
		return &dst.BlockStmt{List: []dst.Stmt{&dst.ExprStmt{X: b.unimplemented(mock.Name, method.Method.Name)}}}, nil
	}
}

// unimplemented builds the canonical failure expression for an unconfigured method
func (b *fileBuilder) unimplemented(mockName, methodName string) dst.Expr {
	if !b.runtime {
		msg := fmt.Sprintf("mockable: %s.%s is not configured", mockName, methodName)
		return &dst.CallExpr{
			Fun:  dst.NewIdent("panic"),
			Args: []dst.Expr{&dst.BasicLit{Kind: token.STRING, Value: strconv.Quote(msg)}},
		}
	}

	b.addImport(b.runtimeImport())

	return &dst.CallExpr{
		Fun: dst.NewIdent("panic"),
		Args: []dst.Expr{&dst.CallExpr{
			Fun: &dst.SelectorExpr{X: dst.NewIdent(b.runtimeName), Sel: dst.NewIdent("Unimplemented")},
			Args: []dst.Expr{
				&dst.BasicLit{Kind: token.STRING, Value: strconv.Quote(mockName)},
				&dst.BasicLit{Kind: token.STRING, Value: strconv.Quote(methodName)},
			},
		}},
	}
}

// assertion builds "var _ Iface = (*Mock)(nil)"
func (b *fileBuilder) assertion(mock *models.MockTypeDescriptor) dst.Decl {
	var ifaceRef dst.Expr = dst.NewIdent(mock.Interface.Name)
	if q := b.qualifier(mock.Interface); q != "" {
		ifaceRef = &dst.SelectorExpr{X: dst.NewIdent(q), Sel: dst.NewIdent(mock.Interface.Name)}
	}

	return &dst.GenDecl{
		Tok: token.VAR,
		Specs: []dst.Spec{&dst.ValueSpec{
			Names: []*dst.Ident{dst.NewIdent("_")},
			Type:  ifaceRef,
			Values: []dst.Expr{&dst.CallExpr{
				Fun:  &dst.ParenExpr{X: &dst.StarExpr{X: dst.NewIdent(mock.Name)}},
				Args: []dst.Expr{dst.NewIdent("nil")},
			}},
		}},
	}
}

func (b *fileBuilder) fieldList(params []models.Parameter, q string, locals map[string]bool) (*dst.FieldList, error) {
	if len(params) == 0 {
		return nil, nil
	}
	list := &dst.FieldList{Opening: true, Closing: true}
	for _, p := range params {
		typ, err := typeExpr(p.Type, q, locals)
		if err != nil {
			return nil, err
		}
		if p.Variadic {
			typ = &dst.Ellipsis{Elt: typ}
		}
		field := &dst.Field{Type: typ}
		if p.Name != "" {
			field.Names = []*dst.Ident{dst.NewIdent(p.Name)}
		}
		list.List = append(list.List, field)
	}
	return list, nil
}

// typeExpr parses type source text and, when q is set, qualifies every
// package level identifier with q
func typeExpr(text, q string, locals map[string]bool) (dst.Expr, error) {
	fset := token.NewFileSet()
	node, err := parser.ParseExprFrom(fset, "", text, 0)
	if err != nil {
		return nil, fmt.Errorf("invalid type %q: %w", text, err)
	}
	decorated, err := decorator.Decorate(fset, node)
	if err != nil {
		return nil, err
	}
	expr := decorated.(dst.Expr)
	if q == "" {
		return expr, nil
	}

	result := dstutil.Apply(expr, func(c *dstutil.Cursor) bool {
		switch n := c.Node().(type) {
		case *dst.SelectorExpr:
			// already qualified
			return false
		case *dst.Ident:
			// field and method names inside struct and interface literals are not types
			if c.Name() == "Names" {
				return true
			}
			if locals[n.Name] || n.Name == "_" || types.Universe.Lookup(n.Name) != nil {
				return true
			}
			c.Replace(&dst.SelectorExpr{X: dst.NewIdent(q), Sel: dst.NewIdent(n.Name)})
		}
		return true
	}, nil)

	return result.(dst.Expr), nil
}

func decorateExpression(expr *annotations.Expression) ([]dst.Expr, error) {
	if !expr.Parsed() {
		return nil, fmt.Errorf("expression %q was not parsed", expr.Text)
	}
	var out []dst.Expr
	for _, node := range expr.Exprs() {
		decorated, err := decorator.Decorate(expr.Fset, node)
		if err != nil {
			return nil, fmt.Errorf("expression %q: %w", expr.Text, err)
		}
		out = append(out, decorated.(dst.Expr))
	}
	return out, nil
}

func paramNames(params []models.Parameter) []string {
	names := make([]string, 0, len(params))
	for _, p := range params {
		names = append(names, p.Name)
	}
	return names
}

func stripNames(params []models.Parameter) []models.Parameter {
	out := make([]models.Parameter, len(params))
	for i, p := range params {
		out[i] = models.Parameter{Type: p.Type, Variadic: p.Variadic}
	}
	return out
}

func setOf(names []string) map[string]bool {
	set := make(map[string]bool, len(names))
	for _, n := range names {
		set[n] = true
	}
	return set
}

// renameShadowing renames parameters called q so the body can still reach
// the package q refers to
func renameShadowing(params []models.Parameter, q string) []models.Parameter {
	if q == "" {
		return params
	}
	taken := setOf(paramNames(params))
	for i := range params {
		if params[i].Name != q {
			continue
		}
		name := fmt.Sprintf("p%d", i)
		for taken[name] {
			name += "_"
		}
		taken[name] = true
		params[i].Name = name
	}
	return params
}

func importName(imp models.ImportSpec) string {
	if imp.Name != "" {
		return imp.Name
	}
	return path.Base(imp.Path)
}

// nameParams gives unnamed parameters the names p0, p1, ... so override
// expressions can refer to them
func nameParams(params []models.Parameter) []models.Parameter {
	out := make([]models.Parameter, len(params))
	for i, p := range params {
		if p.Name == "" {
			p.Name = fmt.Sprintf("p%d", i)
		}
		out[i] = p
	}
	return out
}
