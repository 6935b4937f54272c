package driver

import (
	stderrors "errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/toyz/mockable/internal/errors"
	"github.com/toyz/mockable/internal/generator"
	"github.com/toyz/mockable/internal/models"
	"github.com/toyz/mockable/internal/parser"
	"github.com/toyz/mockable/internal/registry"
)

func parse(t *testing.T, filename, importPath, source string) *models.PackageMetadata {
	t.Helper()
	pkg, err := parser.NewParser().ParseSource(filename, source, importPath)
	require.NoError(t, err)
	return pkg
}

func run(t *testing.T, opts Options, pkgs ...*models.PackageMetadata) *Result {
	t.Helper()
	return New(registry.NewStore(), generator.NewGenerator(), opts).Run(pkgs)
}

func singleFile(t *testing.T, result *Result) string {
	t.Helper()
	require.Len(t, result.Files, 1, "diagnostics: %v", result.Diagnostics)
	return string(result.Files[0].Content)
}

func TestRun_ScenarioFooLocalOverride(t *testing.T) {
	pkg := parse(t, "foo/foo.go", "example.com/foo", `package foo

//mock::mockable Foo = 1
type Foo interface {
	Foo() int32
}
`)
	result := run(t, Options{}, pkg)

	assert.Empty(t, result.Diagnostics)
	out := singleFile(t, result)
	assert.Equal(t, "foo/mockable_autogen.go", result.Files[0].FilePath)
	assert.Equal(t, []string{"MockFoo"}, result.Files[0].Mocks)
	assert.Contains(t, out, "type MockFoo struct{}")
	assert.Contains(t, out, "func (m *MockFoo) Foo() int32 {\n\treturn 1\n}")
	assert.Contains(t, out, "var _ Foo = (*MockFoo)(nil)")
}

func TestRun_ScenarioCalcPartialOverride(t *testing.T) {
	pkg := parse(t, "calc/calc.go", "example.com/calc", `package calc

//mock::mockable Add = 42
type Calc interface {
	Add(a, b int32) int32
	ID() int32
}
`)
	result := run(t, Options{}, pkg)

	assert.Empty(t, result.Diagnostics)
	out := singleFile(t, result)
	assert.Contains(t, out, "func (m *MockCalc) Add(a int32, b int32) int32 {\n\treturn 42\n}")
	assert.Contains(t, out, `panic(mockable.Unimplemented("MockCalc", "ID"))`)
	assert.Contains(t, out, `"github.com/toyz/mockable/pkg/mockable"`)
}

func TestRun_ScenarioVoidMethod(t *testing.T) {
	pkg := parse(t, "empty/empty.go", "example.com/empty", `package empty

//mock::mockable
type Empty interface {
	Noop()
	Count() int
}
`)
	result := run(t, Options{AlwaysLocal: true}, pkg)

	voids := result.Diagnostics.ByCode(errors.VoidReturnUnsupportedErrorCode)
	require.Len(t, voids, 1)
	assert.Equal(t, SeverityError, voids[0].Severity)
	assert.Equal(t, "empty/empty.go", voids[0].Loc.File)
	assert.Equal(t, 5, voids[0].Loc.Line)
	assert.Equal(t, 2, voids[0].Loc.Column)
	assert.True(t, stderrors.Is(voids[0].Err, errors.ErrVoidReturnUnsupported))
	assert.True(t, result.Diagnostics.HasErrors())

	out := singleFile(t, result)
	assert.Contains(t, out, "type MockEmpty struct{}")
	assert.Contains(t, out, "func (m *MockEmpty) Noop() {")
	assert.Contains(t, out, generator.VoidMarker)
	assert.Contains(t, out, "func (m *MockEmpty) Count() int {")
}

func TestRun_MockableWithoutArgsOnlyRegisters(t *testing.T) {
	pkg := parse(t, "calc/calc.go", "example.com/calc", `package calc

//mock::mockable
type Calc interface {
	ID() int32
}
`)
	d := New(nil, nil, Options{})
	result := d.Run([]*models.PackageMetadata{pkg})

	assert.Empty(t, result.Files)
	assert.Empty(t, result.Diagnostics)
	assert.Equal(t, []string{"example.com/calc.Calc"}, d.Store().Interfaces())
}

func TestRun_GlobalGenerateOnExistingType(t *testing.T) {
	pkg := parse(t, "calc/calc.go", "example.com/calc", `package calc

//mock::returns Add = a + b
//mock::generate Calc
type Fake struct{}

//mock::mockable
type Calc interface {
	Add(a, b int32) int32
	ID() int32
}
`)
	result := run(t, Options{}, pkg)

	assert.Empty(t, result.Diagnostics)
	out := singleFile(t, result)
	assert.NotContains(t, out, "type Fake")
	assert.Contains(t, out, "func (m *Fake) Add(a int32, b int32) int32 {\n\treturn a + b\n}")
	assert.Contains(t, out, `panic(mockable.Unimplemented("Fake", "ID"))`)
	assert.Contains(t, out, "var _ Calc = (*Fake)(nil)")
}

func TestRun_GenerateAcrossPackages(t *testing.T) {
	store := parse(t, "store/store.go", "example.com/store", `package store

type Item struct{}

//mock::mockable
type Store interface {
	Get(key string) (*Item, error)
}
`)
	consumer := parse(t, "consumer/fake.go", "example.com/consumer", `package consumer

import st "example.com/store"

var _ st.Item

//mock::returns Get = (nil, nil)
//mock::generate st.Store
type FakeStore struct{}
`)

	result := run(t, Options{}, consumer, store)

	require.Empty(t, result.Diagnostics)
	out := singleFile(t, result)
	assert.Equal(t, "consumer/mockable_autogen.go", result.Files[0].FilePath)
	assert.Contains(t, out, "func (m *FakeStore) Get(key string) (*store.Item, error) {\n\treturn nil, nil\n}")
	assert.Contains(t, out, "var _ store.Store = (*FakeStore)(nil)")
}

func TestRun_GenerateUnknownInterface(t *testing.T) {
	pkg := parse(t, "calc/calc.go", "example.com/calc", `package calc

//mock::generate Missing
type Fake struct{}
`)
	result := run(t, Options{}, pkg)

	assert.Empty(t, result.Files)
	lookups := result.Diagnostics.ByCode(errors.LookupErrorCode)
	require.Len(t, lookups, 1)
	assert.Equal(t, 3, lookups[0].Loc.Line)
	assert.True(t, stderrors.Is(lookups[0].Err, errors.ErrLookup))
}

func TestRun_GenerateUnknownAlias(t *testing.T) {
	pkg := parse(t, "calc/calc.go", "example.com/calc", `package calc

//mock::generate nowhere.Reader
type Fake struct{}
`)
	result := run(t, Options{}, pkg)
	assert.Len(t, result.Diagnostics.ByCode(errors.LookupErrorCode), 1)
}

func TestRun_DuplicateMockName(t *testing.T) {
	pkg := parse(t, "foo/foo.go", "example.com/foo", `package foo

//mock::mockable Alpha, Beta
type Foo interface {
	Foo() int32
}
`)
	result := run(t, Options{}, pkg)

	assert.Empty(t, result.Files)
	dups := result.Diagnostics.ByCode(errors.DuplicateMockNameErrorCode)
	require.Len(t, dups, 1)
	assert.Equal(t, 3, dups[0].Loc.Line)
}

func TestRun_MockNameConflict(t *testing.T) {
	pkg := parse(t, "foo/foo.go", "example.com/foo", `package foo

type MockFoo struct{}

//mock::mockable Foo = 1
type Foo interface {
	Foo() int32
}
`)
	result := run(t, Options{}, pkg)

	assert.Empty(t, result.Files)
	assert.Len(t, result.Diagnostics.ByCode(errors.MockNameConflictErrorCode), 1)
}

func TestRun_GenerateRejectsExistingMethod(t *testing.T) {
	pkg := parse(t, "calc/calc.go", "example.com/calc", `package calc

//mock::generate Calc
type Fake struct{}

func (f *Fake) ID() int32 { return 0 }

//mock::mockable
type Calc interface {
	ID() int32
}
`)
	result := run(t, Options{}, pkg)

	assert.Empty(t, result.Files)
	assert.Len(t, result.Diagnostics.ByCode(errors.GenerationErrorCode), 1)
}

func TestRun_GenerateRejectsOverlappingInterfaces(t *testing.T) {
	pkg := parse(t, "calc/calc.go", "example.com/calc", `package calc

//mock::generate A
//mock::generate B
type Fake struct{}

//mock::mockable
type A interface {
	ID() int32
}

//mock::mockable
type B interface {
	ID() int32
}
`)
	result := run(t, Options{}, pkg)

	assert.Len(t, result.Diagnostics.ByCode(errors.GenerationErrorCode), 1)
	out := singleFile(t, result)
	assert.Contains(t, out, "var _ A = (*Fake)(nil)")
	assert.NotContains(t, out, "var _ B")
}

func TestRun_UnusedOverrides(t *testing.T) {
	source := `package calc

//mock::returns Missing = 1
type Fake struct{}
`
	tests := []struct {
		policy   UnusedPolicy
		count    int
		severity Severity
	}{
		{UnusedWarn, 1, SeverityWarning},
		{UnusedError, 1, SeverityError},
		{UnusedIgnore, 0, SeverityWarning},
	}

	for _, tt := range tests {
		t.Run(tt.policy.String(), func(t *testing.T) {
			result := run(t, Options{UnusedOverrides: tt.policy}, parse(t, "calc/calc.go", "example.com/calc", source))

			unused := result.Diagnostics.ByCode(errors.UnusedOverrideErrorCode)
			require.Len(t, unused, tt.count)
			if tt.count > 0 {
				assert.Equal(t, tt.severity, unused[0].Severity)
				assert.Equal(t, 3, unused[0].Loc.Line)
			}
		})
	}
}

func TestRun_LocalUnusedOverride(t *testing.T) {
	pkg := parse(t, "foo/foo.go", "example.com/foo", `package foo

//mock::mockable Foo = 1, Bar = 2
type Foo interface {
	Foo() int32
}
`)
	result := run(t, Options{}, pkg)

	unused := result.Diagnostics.ByCode(errors.UnusedOverrideErrorCode)
	require.Len(t, unused, 1)
	assert.Equal(t, SeverityWarning, unused[0].Severity)
	assert.Len(t, result.Files, 1)
}

func TestRun_EmbeddedStandardLibraryInterface(t *testing.T) {
	pkg := parse(t, "sized/sized.go", "example.com/sized", `package sized

import "io"

//mock::mockable Read = (0, io.EOF), Size = 3
type Sized interface {
	io.Reader
	Size() int
}
`)
	require.Empty(t, pkg.Errors)
	result := run(t, Options{}, pkg)

	assert.Empty(t, result.Diagnostics)
	out := singleFile(t, result)
	assert.Contains(t, out, "func (m *MockSized) Read(p []byte) (int, error) {\n\treturn 0, io.EOF\n}")
	assert.Contains(t, out, "func (m *MockSized) Size() int {\n\treturn 3\n}")
	assert.Contains(t, out, `"io"`)
	assert.Contains(t, out, "var _ Sized = (*MockSized)(nil)")
}

func TestRun_EmbeddedUnknownPackageIsAnError(t *testing.T) {
	pkg := parse(t, "sized/sized.go", "example.com/sized", `package sized

//mock::mockable Size = 3
type Sized interface {
	nope.Reader
	Size() int
}
`)
	result := run(t, Options{}, pkg)

	assert.True(t, result.Diagnostics.HasErrors())
	assert.Empty(t, result.Files)
	lookups := result.Diagnostics.ByCode(errors.LookupErrorCode)
	require.Len(t, lookups, 1)
	assert.Equal(t, 5, lookups[0].Loc.Line)
}

func TestRun_OverrideArityMismatch(t *testing.T) {
	pkg := parse(t, "finder/finder.go", "example.com/finder", `package finder

//mock::mockable Find = 7
type Finder interface {
	Find(k string) (int, error)
}
`)
	result := run(t, Options{}, pkg)

	assert.True(t, result.Diagnostics.HasErrors())
	arity := result.Diagnostics.ByCode(errors.ReturnArityErrorCode)
	require.Len(t, arity, 1)
	assert.Equal(t, SeverityError, arity[0].Severity)
	assert.Equal(t, 3, arity[0].Loc.Line)
}

func TestRun_ParseErrorsBecomeDiagnostics(t *testing.T) {
	pkg := parse(t, "foo/foo.go", "example.com/foo", `package foo

//mock::mockable Foo = 1 +
type Foo interface {
	Foo() int32
}
`)
	result := run(t, Options{}, pkg)

	assert.Empty(t, result.Files)
	parseErrs := result.Diagnostics.ByCode(errors.ExpressionParseErrorCode)
	require.Len(t, parseErrs, 1)
	assert.Equal(t, 3, parseErrs[0].Loc.Line)
}

func TestRun_Idempotent(t *testing.T) {
	source := `package calc

//mock::returns Add = 42
//mock::generate Calc
type Fake struct{}

//mock::mockable Stub, ID = 7
type Calc interface {
	Add(a, b int32) int32
	ID() int32
}
`
	first := run(t, Options{}, parse(t, "calc/calc.go", "example.com/calc", source))
	second := run(t, Options{}, parse(t, "calc/calc.go", "example.com/calc", source))
	assert.Equal(t, singleFile(t, first), singleFile(t, second))

	d := New(nil, nil, Options{})
	pkg := parse(t, "calc/calc.go", "example.com/calc", source)
	again1 := d.Run([]*models.PackageMetadata{pkg})
	again2 := d.Run([]*models.PackageMetadata{pkg})
	assert.Equal(t, singleFile(t, again1), singleFile(t, again2))
	assert.Equal(t, singleFile(t, first), singleFile(t, again1))
}

func TestDriver_GenerateBeforeRegistration(t *testing.T) {
	d := New(nil, nil, Options{})
	iface := parse(t, "calc/calc.go", "example.com/calc", `package calc

//mock::mockable
type Calc interface {
	ID() int32
}
`).Interfaces["Calc"]
	require.NotNil(t, iface)

	_, err := d.Generate("example.com/calc.Fake", nil, "example.com/calc.Calc")
	require.Error(t, err)
	assert.True(t, stderrors.Is(err, errors.ErrLookup))

	out, err := d.Mockable(iface, nil)
	require.NoError(t, err)
	assert.Nil(t, out.Mock)

	out, err = d.Generate("example.com/calc.Fake", nil, "example.com/calc.Calc")
	require.NoError(t, err)
	assert.Equal(t, "Fake", out.Mock.Name)

	src, err := d.Render("calc", "example.com/calc", out.Mock)
	require.NoError(t, err)
	assert.Contains(t, string(src), "var _ Calc = (*Fake)(nil)")
}

func TestDriver_ReturnsRejectsBareArguments(t *testing.T) {
	d := New(nil, nil, Options{})
	pkg := parse(t, "calc/calc.go", "example.com/calc", `package calc

//mock::mockable Foo
type Calc interface {
	ID() int32
}
`)
	err := d.Returns("example.com/calc.Fake", pkg.Directives[0].Directive.Args)
	assert.True(t, stderrors.Is(err, errors.ErrArgumentParse))
}

func TestDriver_GenerateRejectsGenericInterface(t *testing.T) {
	d := New(nil, nil, Options{})
	iface := parse(t, "box/box.go", "example.com/box", `package box

//mock::mockable
type Box[T any] interface {
	Get() T
}
`).Interfaces["Box"]
	require.NotNil(t, iface)
	_, err := d.Mockable(iface, nil)
	require.NoError(t, err)

	_, err = d.Generate("example.com/box.Fake", nil, "example.com/box.Box")
	assert.True(t, stderrors.Is(err, errors.ErrArgumentParse))
}

func TestParseUnusedPolicy(t *testing.T) {
	for _, s := range []string{"warn", "ignore", "error"} {
		p, err := ParseUnusedPolicy(s)
		require.NoError(t, err)
		assert.Equal(t, s, p.String())
	}
	p, err := ParseUnusedPolicy("")
	require.NoError(t, err)
	assert.Equal(t, UnusedWarn, p)

	_, err = ParseUnusedPolicy("loud")
	assert.Error(t, err)
}
