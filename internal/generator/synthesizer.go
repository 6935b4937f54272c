package generator

import (
	"go/ast"

	"golang.org/x/tools/go/ast/astutil"

	"github.com/toyz/mockable/internal/annotations"
	"github.com/toyz/mockable/internal/errors"
	"github.com/toyz/mockable/internal/models"
)

// DefaultMockPrefix is prepended to the interface name when no mock name is given
const DefaultMockPrefix = "Mock"

// DefaultMockName derives the mock type name for an interface
func DefaultMockName(prefix, iface string) string {
	if prefix == "" {
		prefix = DefaultMockPrefix
	}
	return prefix + iface
}

// Synthesize builds the mock for iface. Every interface method gets exactly one
// mock method, in extraction order. Methods without results carry a
// VoidReturnUnsupportedError instead of a body; the rest return their override
// or fall back to the unimplemented failure. An override whose value count
// does not match the results carries a ReturnArityError.
func Synthesize(iface *models.InterfaceDescriptor, overrides map[string]*annotations.Expression, mockName string) *models.MockTypeDescriptor {
	mock := &models.MockTypeDescriptor{
		Name:        mockName,
		Interface:   iface,
		TypeParams:  iface.TypeParams,
		Methods:     make([]models.MockMethod, 0, len(iface.Methods)),
		DeclareType: true,
		Loc:         iface.Loc,
	}

	for _, method := range iface.Methods {
		mm := models.MockMethod{Method: method}
		switch expr, ok := overrides[method.Name]; {
		case !method.HasResults():
			mm.VoidErr = errors.NewVoidReturnUnsupportedError(mockName, method.Name, method.Loc)
		case ok && expr != nil:
			mm.Body = expr
			mm.ArityErr = checkArity(mockName, method, expr)
		default:
			mm.Unconfigured = true
		}
		mock.Methods = append(mock.Methods, mm)
	}

	return mock
}

// checkArity accepts one value per result. A single call expression may stand
// for several results since it can return a tuple.
func checkArity(mockName string, method models.MethodDescriptor, expr *annotations.Expression) error {
	want, got := len(method.Results), len(expr.Exprs())
	if got == want {
		return nil
	}
	if got == 1 && want > 1 {
		if _, isCall := astutil.Unparen(expr.Exprs()[0]).(*ast.CallExpr); isCall {
			return nil
		}
	}
	return errors.NewReturnArityError(mockName, method.Name, want, got, expr.Loc)
}
