package generator

import (
	stderrors "errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/toyz/mockable/internal/annotations"
	"github.com/toyz/mockable/internal/errors"
	"github.com/toyz/mockable/internal/models"
)

func mustExpr(t require.TestingT, text string) *annotations.Expression {
	e, err := annotations.ParseExpression(text, annotations.SourceLocation{File: "calc.go", Line: 3, Column: 1})
	require.NoError(t, err)
	return e
}

func int32Result() []models.Parameter {
	return []models.Parameter{{Type: "int32"}}
}

func TestDefaultMockName(t *testing.T) {
	assert.Equal(t, "MockFoo", DefaultMockName("", "Foo"))
	assert.Equal(t, "MockFoo", DefaultMockName(DefaultMockPrefix, "Foo"))
	assert.Equal(t, "FakeFoo", DefaultMockName("Fake", "Foo"))
}

func TestSynthesize_ConfiguredAndUnconfigured(t *testing.T) {
	iface := &models.InterfaceDescriptor{
		Name: "Calc",
		Methods: []models.MethodDescriptor{
			{Name: "Add", Params: []models.Parameter{{Name: "a", Type: "int32"}, {Name: "b", Type: "int32"}}, Results: int32Result()},
			{Name: "ID", Results: int32Result()},
		},
	}

	mock := Synthesize(iface, map[string]*annotations.Expression{"Add": mustExpr(t, "42")}, "MockCalc")

	assert.Equal(t, "MockCalc", mock.Name)
	assert.True(t, mock.DeclareType)
	assert.Same(t, iface, mock.Interface)
	require.Len(t, mock.Methods, 2)

	assert.Equal(t, "42", mock.Methods[0].Body.Text)
	assert.False(t, mock.Methods[0].Unconfigured)
	assert.Nil(t, mock.Methods[1].Body)
	assert.True(t, mock.Methods[1].Unconfigured)
	assert.Empty(t, mock.Diagnostics())
}

func TestSynthesize_VoidMethodIsReportedNotDropped(t *testing.T) {
	iface := &models.InterfaceDescriptor{
		Name: "Empty",
		Methods: []models.MethodDescriptor{
			{Name: "Noop", Loc: annotations.SourceLocation{File: "empty.go", Line: 5, Column: 2}},
			{Name: "Count", Results: []models.Parameter{{Type: "int"}}},
		},
	}

	mock := Synthesize(iface, map[string]*annotations.Expression{"Noop": mustExpr(t, "1")}, "MockEmpty")

	assert.Equal(t, []string{"Noop", "Count"}, mock.MethodNames())
	require.NotNil(t, mock.Methods[0].VoidErr)
	assert.Nil(t, mock.Methods[0].Body, "void methods never take an override")
	assert.True(t, mock.Methods[1].Unconfigured)

	diags := mock.Diagnostics()
	require.Len(t, diags, 1)
	assert.True(t, stderrors.Is(diags[0], errors.ErrVoidReturnUnsupported))

	var verr *errors.VoidReturnUnsupportedError
	require.ErrorAs(t, diags[0], &verr)
	assert.Equal(t, "Noop", verr.Method)
	assert.Equal(t, 5, verr.Location().Line)
}

func TestSynthesize_OrderFollowsInterface(t *testing.T) {
	iface := &models.InterfaceDescriptor{
		Name: "Ordered",
		Methods: []models.MethodDescriptor{
			{Name: "C", Results: int32Result()},
			{Name: "A", Results: int32Result()},
			{Name: "B", Results: int32Result()},
		},
	}
	overrides := map[string]*annotations.Expression{
		"B": mustExpr(t, "2"),
		"A": mustExpr(t, "1"),
	}

	mock := Synthesize(iface, overrides, "MockOrdered")
	assert.Equal(t, []string{"C", "A", "B"}, mock.MethodNames())
}

func TestSynthesize_ReturnArity(t *testing.T) {
	pair := []models.Parameter{{Type: "int"}, {Type: "error"}}
	tests := []struct {
		name  string
		expr  string
		fails bool
	}{
		{"tuple matches", "(7, nil)", false},
		{"call may return a tuple", "lookup(\"k\")", false},
		{"parenthesized call", "(lookup(\"k\"))", false},
		{"single literal", "7", true},
		{"tuple too long", "(7, nil, nil)", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			iface := &models.InterfaceDescriptor{
				Name:    "Finder",
				Methods: []models.MethodDescriptor{{Name: "Find", Results: pair}},
			}
			mock := Synthesize(iface, map[string]*annotations.Expression{"Find": mustExpr(t, tt.expr)}, "MockFinder")

			if !tt.fails {
				assert.NoError(t, mock.Methods[0].ArityErr)
				assert.Empty(t, mock.Diagnostics())
				return
			}
			diags := mock.Diagnostics()
			require.Len(t, diags, 1)
			assert.True(t, stderrors.Is(diags[0], errors.ErrReturnArity))

			var aerr *errors.ReturnArityError
			require.ErrorAs(t, diags[0], &aerr)
			assert.Equal(t, 2, aerr.Want)
			assert.Equal(t, 3, aerr.Location().Line)
		})
	}
}

func TestSynthesize_TupleForSingleResult(t *testing.T) {
	iface := &models.InterfaceDescriptor{
		Name:    "Calc",
		Methods: []models.MethodDescriptor{{Name: "ID", Results: int32Result()}},
	}
	mock := Synthesize(iface, map[string]*annotations.Expression{"ID": mustExpr(t, "(1, 2)")}, "MockCalc")

	var aerr *errors.ReturnArityError
	require.ErrorAs(t, mock.Methods[0].ArityErr, &aerr)
	assert.Equal(t, 1, aerr.Want)
	assert.Equal(t, 2, aerr.Got)
}
