package driver

import (
	stderrors "errors"
	"fmt"
	"path"
	"sort"
	"strings"

	"github.com/toyz/mockable/internal/annotations"
	"github.com/toyz/mockable/internal/errors"
	"github.com/toyz/mockable/internal/generator"
	"github.com/toyz/mockable/internal/models"
	"github.com/toyz/mockable/internal/registry"
)

// UnusedPolicy decides what happens to overrides no mock consumed
type UnusedPolicy int

const (
	UnusedWarn UnusedPolicy = iota
	UnusedIgnore
	UnusedError
)

// String returns the configuration spelling of the policy
func (p UnusedPolicy) String() string {
	switch p {
	case UnusedIgnore:
		return "ignore"
	case UnusedError:
		return "error"
	default:
		return "warn"
	}
}

// ParseUnusedPolicy converts a configuration value into an UnusedPolicy
func ParseUnusedPolicy(s string) (UnusedPolicy, error) {
	switch s {
	case "", "warn":
		return UnusedWarn, nil
	case "ignore":
		return UnusedIgnore, nil
	case "error":
		return UnusedError, nil
	default:
		return UnusedWarn, errors.NewConfigError("unused_overrides", s, "warn", "ignore", "error")
	}
}

// Options tunes the driver
type Options struct {
	MockPrefix      string       // prepended to interface names for derived mock names
	AlwaysLocal     bool         // synthesize a local mock for every mockable interface
	UnusedOverrides UnusedPolicy // handling of overrides nothing consumed
}

// Output is the result of one mockable or generate declaration
type Output struct {
	Mock        *models.MockTypeDescriptor
	Diagnostics Diagnostics
}

// Result is the outcome of Run
type Result struct {
	Files       []*models.GeneratedFile
	Diagnostics Diagnostics
}

// Driver runs directives against a caller-owned Store and renders the mocks
type Driver struct {
	store     *registry.Store
	generator *generator.Generator
	opts      Options
}

// New creates a driver. A nil store or generator is replaced with a fresh default.
func New(store *registry.Store, gen *generator.Generator, opts Options) *Driver {
	if store == nil {
		store = registry.NewStore()
	}
	if gen == nil {
		gen = generator.NewGenerator()
	}
	if opts.MockPrefix == "" {
		opts.MockPrefix = generator.DefaultMockPrefix
	}
	return &Driver{store: store, generator: gen, opts: opts}
}

// Store returns the configuration store the driver writes to
func (d *Driver) Store() *registry.Store {
	return d.store
}

// Mockable handles a mockable interface declaration. The interface is always
// registered. When args are present, or AlwaysLocal is set, a mock is also
// synthesized from the inline configuration; otherwise Output.Mock is nil.
func (d *Driver) Mockable(iface *models.InterfaceDescriptor, args []annotations.Arg) (*Output, error) {
	if err := d.store.RegisterInterface(iface.QualifiedName(), iface); err != nil {
		return nil, err
	}
	if len(args) == 0 && !d.opts.AlwaysLocal {
		return &Output{}, nil
	}
	return d.local(iface, args)
}

func (d *Driver) local(iface *models.InterfaceDescriptor, args []annotations.Arg) (*Output, error) {
	cfg, err := registry.ParseLocalConfig(args, iface.Name, d.opts.MockPrefix)
	if err != nil {
		return nil, err
	}

	out := &Output{}
	for _, method := range cfg.Order {
		if _, ok := iface.Method(method); !ok {
			uerr := errors.NewUnusedOverrideError(cfg.MockName, method, cfg.Overrides[method].Loc)
			if diag, report := d.unused(uerr); report {
				out.Diagnostics = append(out.Diagnostics, diag)
			}
		}
	}

	out.Mock = generator.Synthesize(iface, cfg.Overrides, cfg.MockName)
	if !cfg.NameLoc.IsEmpty() {
		out.Mock.Loc = cfg.NameLoc
	}
	out.Diagnostics = append(out.Diagnostics, mockDiagnostics(out.Mock)...)
	return out, nil
}

// Returns records the overrides of a returns directive for owner
func (d *Driver) Returns(owner string, args []annotations.Arg) error {
	for _, arg := range args {
		if arg.IsBare() {
			return errors.NewArgumentParseError("returns",
				fmt.Sprintf("'%s' needs a value, e.g. %s = expr", arg.Name, arg.Name), arg.Loc)
		}
		if err := d.store.SetReturnValue(owner, arg.Name, arg.Value); err != nil {
			return err
		}
	}
	return nil
}

// Generate implements iface on the existing type owner using the overrides
// recorded for owner. typeParams are the owner's type parameters.
func (d *Driver) Generate(owner string, typeParams []models.Parameter, iface string) (*Output, error) {
	if desc, ok := d.store.Interface(iface); ok && desc.IsGeneric() {
		return nil, errors.NewArgumentParseError("generate",
			fmt.Sprintf("generic interface %s cannot be implemented on an existing type", iface), desc.Loc)
	}

	mock, err := d.store.GenerateMock(owner, iface)
	if err != nil {
		return nil, err
	}
	mock.TypeParams = typeParams
	return &Output{Mock: mock, Diagnostics: mockDiagnostics(mock)}, nil
}

// Render emits the given mocks as one file of package pkgName
func (d *Driver) Render(pkgName, importPath string, mocks ...*models.MockTypeDescriptor) ([]byte, error) {
	return d.generator.Render(generator.FileSpec{PackageName: pkgName, ImportPath: importPath, Mocks: mocks})
}

// Run processes every directive of pkgs. Interfaces and overrides are all
// recorded first so directive order across files and packages does not
// matter; mocks are then built in package, file and source order.
func (d *Driver) Run(pkgs []*models.PackageMetadata) *Result {
	result := &Result{}

	sorted := append([]*models.PackageMetadata(nil), pkgs...)
	sort.SliceStable(sorted, func(i, j int) bool { return packageKey(sorted[i]) < packageKey(sorted[j]) })

	for _, pkg := range sorted {
		for _, err := range pkg.Errors {
			result.Diagnostics = append(result.Diagnostics, NewDiagnostic(SeverityError, err))
		}
		for _, err := range pkg.Warnings {
			result.Diagnostics = append(result.Diagnostics, NewDiagnostic(SeverityWarning, err))
		}
	}

	for _, pkg := range sorted {
		d.register(pkg, result)
	}

	for _, pkg := range sorted {
		mocks := d.build(pkg, result)
		if len(mocks) == 0 {
			continue
		}
		file, err := d.generator.GenerateFile(generator.FileSpec{
			PackageName:  pkg.PackageName,
			ImportPath:   pkg.ImportPath,
			Mocks:        mocks,
			Declarations: pkg.Declarations,
		}, pkg.PackagePath)
		if err != nil {
			result.Diagnostics = append(result.Diagnostics,
				NewDiagnostic(SeverityError, errors.WrapGenerateError("mocks for package "+pkg.PackageName, err)))
			continue
		}
		result.Files = append(result.Files, file)
	}

	unused, err := d.store.UnusedOverrides()
	if err != nil {
		result.Diagnostics = append(result.Diagnostics, NewDiagnostic(SeverityError, err))
	}
	for _, key := range unused {
		uerr := errors.NewUnusedOverrideError(key.Owner, key.Method, d.store.OverrideLocation(key))
		if diag, report := d.unused(uerr); report {
			result.Diagnostics = append(result.Diagnostics, diag)
		}
	}

	return result
}

func (d *Driver) register(pkg *models.PackageMetadata, result *Result) {
	names := make([]string, 0, len(pkg.Interfaces))
	for name := range pkg.Interfaces {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		iface := pkg.Interfaces[name]
		if err := d.store.RegisterInterface(iface.QualifiedName(), iface); err != nil {
			result.Diagnostics = append(result.Diagnostics, NewDiagnostic(SeverityError, err))
		}
	}

	for _, target := range pkg.Directives {
		if target.Directive.Kind != annotations.ReturnsDirective {
			continue
		}
		owner := models.QualifyName(pkg.ImportPath, target.TypeName)
		if err := d.Returns(owner, target.Directive.Args); err != nil {
			result.Diagnostics = append(result.Diagnostics, NewDiagnostic(SeverityError, err))
		}
	}
}

func (d *Driver) build(pkg *models.PackageMetadata, result *Result) []*models.MockTypeDescriptor {
	var mocks []*models.MockTypeDescriptor
	names := make(map[string]bool)
	ownerMethods := make(map[string]map[string]string)

	report := func(severity Severity, err error) {
		result.Diagnostics = append(result.Diagnostics, NewDiagnostic(severity, err))
	}

	for _, target := range pkg.Directives {
		switch target.Directive.Kind {
		case annotations.MockableDirective:
			iface, ok := pkg.Interfaces[target.TypeName]
			if !ok {
				// extraction failed and was already reported
				continue
			}
			if len(target.Directive.Args) == 0 && !d.opts.AlwaysLocal {
				continue
			}

			out, err := d.local(iface, target.Directive.Args)
			if err != nil {
				report(SeverityError, err)
				continue
			}
			result.Diagnostics = append(result.Diagnostics, out.Diagnostics...)

			if pkg.Declarations[out.Mock.Name] || names[out.Mock.Name] {
				report(SeverityError, errors.NewMockNameConflictError(out.Mock.Name, pkg.PackageName, out.Mock.Loc))
				continue
			}
			names[out.Mock.Name] = true
			mocks = append(mocks, out.Mock)

		case annotations.GenerateDirective:
			arg := target.Directive.Args[0]
			owner := models.QualifyName(pkg.ImportPath, target.TypeName)

			ifaceKey, err := d.resolve(pkg, target, arg.Name)
			if err != nil {
				report(SeverityError, withLocation(err, arg.Loc))
				continue
			}

			out, err := d.Generate(owner, target.TypeParams, ifaceKey)
			if err != nil {
				report(SeverityError, withLocation(err, arg.Loc))
				continue
			}

			if err := checkMethods(target, out.Mock, pkg.TypeMethods[target.TypeName], ownerMethods, arg.Loc); err != nil {
				report(SeverityError, err)
				continue
			}

			out.Mock.Imports = target.Imports
			out.Mock.Loc = arg.Loc
			result.Diagnostics = append(result.Diagnostics, out.Diagnostics...)
			mocks = append(mocks, out.Mock)
		}
	}

	return mocks
}

// resolve turns a generate argument into a registry key. Bare names refer to
// the current package; alias.Name is resolved through the file's imports.
func (d *Driver) resolve(pkg *models.PackageMetadata, target models.DirectiveTarget, name string) (string, error) {
	alias, ifaceName, qualified := strings.Cut(name, ".")
	if !qualified {
		return models.QualifyName(pkg.ImportPath, name), nil
	}

	for _, imp := range target.Imports {
		if imp.Name == alias || (imp.Name == "" && path.Base(imp.Path) == alias) {
			return models.QualifyName(imp.Path, ifaceName), nil
		}
	}

	// the package name may differ from the last path element, e.g. gopkg.in/yaml.v3
	for _, imp := range target.Imports {
		if imp.Name != "" {
			continue
		}
		key := models.QualifyName(imp.Path, ifaceName)
		if desc, ok := d.store.Interface(key); ok && desc.PackageName == alias {
			return key, nil
		}
	}

	lerr := errors.NewLookupError(name)
	lerr.WithSuggestion(fmt.Sprintf("Import the package that declares %s and mark the interface with //mock::mockable", name))
	return "", lerr
}

// checkMethods rejects generated methods that the owner already declares or
// that another generate directive on the same owner already produced
func checkMethods(target models.DirectiveTarget, mock *models.MockTypeDescriptor, declared map[string]bool, seen map[string]map[string]string, loc annotations.SourceLocation) error {
	if seen[target.TypeName] == nil {
		seen[target.TypeName] = make(map[string]string)
	}
	for _, name := range mock.MethodNames() {
		if declared[name] {
			return errors.Newf(errors.GenerationErrorCode,
				"%s already declares method %s required by %s", target.TypeName, name, mock.Interface.Name).
				WithLocation(loc)
		}
		if other, ok := seen[target.TypeName][name]; ok {
			return errors.Newf(errors.GenerationErrorCode,
				"%s: method %s is required by both %s and %s", target.TypeName, name, other, mock.Interface.Name).
				WithLocation(loc)
		}
	}
	for _, name := range mock.MethodNames() {
		seen[target.TypeName][name] = mock.Interface.Name
	}
	return nil
}

func (d *Driver) unused(err *errors.UnusedOverrideError) (Diagnostic, bool) {
	switch d.opts.UnusedOverrides {
	case UnusedIgnore:
		return Diagnostic{}, false
	case UnusedError:
		return NewDiagnostic(SeverityError, err), true
	default:
		return NewDiagnostic(SeverityWarning, err), true
	}
}

// withLocation attaches loc to a LookupError that has no position of its own
func withLocation(err error, loc annotations.SourceLocation) error {
	var lerr *errors.LookupError
	if stderrors.As(err, &lerr) && lerr.Location().IsEmpty() {
		lerr.WithLocation(loc)
	}
	return err
}

func mockDiagnostics(mock *models.MockTypeDescriptor) Diagnostics {
	var out Diagnostics
	for _, err := range mock.Diagnostics() {
		out = append(out, NewDiagnostic(SeverityError, err))
	}
	return out
}

func packageKey(pkg *models.PackageMetadata) string {
	if pkg.ImportPath != "" {
		return pkg.ImportPath
	}
	return pkg.PackagePath
}
