package errors

import "fmt"

type codeSentinel ErrorCode

func (c codeSentinel) Error() string {
	return ErrorCode(c).String()
}

// Sentinels for use with errors.Is. Any BaseError carrying the matching code
// compares equal.
var (
	ErrLookup                = codeSentinel(LookupErrorCode)
	ErrDuplicateMockName     = codeSentinel(DuplicateMockNameErrorCode)
	ErrVoidReturnUnsupported = codeSentinel(VoidReturnUnsupportedErrorCode)
	ErrExpressionParse       = codeSentinel(ExpressionParseErrorCode)
	ErrArgumentParse         = codeSentinel(ArgumentParseErrorCode)
	ErrDuplicateMethod       = codeSentinel(DuplicateMethodErrorCode)
	ErrMockNameConflict      = codeSentinel(MockNameConflictErrorCode)
	ErrReturnArity           = codeSentinel(ReturnArityErrorCode)
	ErrUnusedOverride        = codeSentinel(UnusedOverrideErrorCode)
	ErrPoisoned              = codeSentinel(PoisonedErrorCode)
	ErrGeneration            = codeSentinel(GenerationErrorCode)
	ErrFileSystem            = codeSentinel(FileSystemErrorCode)
	ErrConfig                = codeSentinel(ConfigErrorCode)
)

// LookupError is returned when a mock references an interface that was never registered
type LookupError struct {
	*BaseError
	Interface string
}

// NewLookupError creates a new lookup error
func NewLookupError(iface string) *LookupError {
	return &LookupError{
		BaseError: New(LookupErrorCode, fmt.Sprintf("interface '%s' not found", iface)).
			WithContext("interface", iface).
			WithSuggestions(
				fmt.Sprintf("Add a //mock::mockable directive to interface %s", iface),
				"Check that the package declaring the interface is part of the scanned directories",
			),
		Interface: iface,
	}
}

// DuplicateMockNameError is returned when more than one bare mock name is supplied
type DuplicateMockNameError struct {
	*BaseError
	First  string
	Second string
}

// NewDuplicateMockNameError creates a new duplicate mock name error
func NewDuplicateMockNameError(first, second string, loc SourceLocation) *DuplicateMockNameError {
	return &DuplicateMockNameError{
		BaseError: New(DuplicateMockNameErrorCode,
			fmt.Sprintf("duplicate mock name '%s': mock is already named '%s'", second, first)).
			WithLocation(loc).
			WithSuggestion("Supply at most one bare name; use 'method = expr' for return overrides"),
		First:  first,
		Second: second,
	}
}

// VoidReturnUnsupportedError is reported for interface methods without results
type VoidReturnUnsupportedError struct {
	*BaseError
	Mock   string
	Method string
}

// NewVoidReturnUnsupportedError creates a new void return error
func NewVoidReturnUnsupportedError(mock, method string, loc SourceLocation) *VoidReturnUnsupportedError {
	return &VoidReturnUnsupportedError{
		BaseError: New(VoidReturnUnsupportedErrorCode,
			fmt.Sprintf("method '%s' of %s has no return value and cannot be mocked", method, mock)).
			WithLocation(loc).
			WithContext("mock", mock).
			WithContext("method", method).
			WithSuggestion("Give the method a result (for example an error) or hand-write this mock"),
		Mock:   mock,
		Method: method,
	}
}

// ExpressionParseError is returned when a return override is not a valid Go expression
type ExpressionParseError struct {
	*BaseError
	Expr string
}

// NewExpressionParseError creates a new expression parse error
func NewExpressionParseError(expr string, loc SourceLocation, cause error) *ExpressionParseError {
	return &ExpressionParseError{
		BaseError: Wrap(ExpressionParseErrorCode,
			fmt.Sprintf("invalid return expression '%s'", expr), cause).
			WithLocation(loc).
			WithSuggestion("Return overrides must be a single Go expression, e.g. Foo = 1"),
		Expr: expr,
	}
}

// ArgumentParseError is returned for malformed directive arguments
type ArgumentParseError struct {
	*BaseError
	Directive string
}

// NewArgumentParseError creates a new argument parse error
func NewArgumentParseError(directive, message string, loc SourceLocation) *ArgumentParseError {
	return &ArgumentParseError{
		BaseError: New(ArgumentParseErrorCode, fmt.Sprintf("%s: %s", directive, message)).
			WithLocation(loc).
			WithContext("directive", directive),
		Directive: directive,
	}
}

// DuplicateMethodError is returned when an interface declares the same method twice
type DuplicateMethodError struct {
	*BaseError
	Interface string
	Method    string
}

// NewDuplicateMethodError creates a new duplicate method error
func NewDuplicateMethodError(iface, method string, loc SourceLocation) *DuplicateMethodError {
	return &DuplicateMethodError{
		BaseError: New(DuplicateMethodErrorCode,
			fmt.Sprintf("interface '%s' declares method '%s' more than once", iface, method)).
			WithLocation(loc).
			WithSuggestion("Set duplicate_methods: last-wins to keep the last declaration"),
		Interface: iface,
		Method:    method,
	}
}

// ReturnArityError is reported when an override returns a different number of
// values than the method declares
type ReturnArityError struct {
	*BaseError
	Mock   string
	Method string
	Want   int
	Got    int
}

// NewReturnArityError creates a new return arity error
func NewReturnArityError(mock, method string, want, got int, loc SourceLocation) *ReturnArityError {
	return &ReturnArityError{
		BaseError: New(ReturnArityErrorCode,
			fmt.Sprintf("override for %s.%s gives %d value(s), method returns %d", mock, method, got, want)).
			WithLocation(loc).
			WithContext("mock", mock).
			WithContext("method", method).
			WithSuggestion("Write one value per result as a tuple, e.g. Find = (7, nil)"),
		Mock:   mock,
		Method: method,
		Want:   want,
		Got:    got,
	}
}

// MockNameConflictError is returned when a generated mock would redeclare an existing name
type MockNameConflictError struct {
	*BaseError
	Name string
}

// NewMockNameConflictError creates a new mock name conflict error
func NewMockNameConflictError(name, pkg string, loc SourceLocation) *MockNameConflictError {
	return &MockNameConflictError{
		BaseError: New(MockNameConflictErrorCode,
			fmt.Sprintf("mock name '%s' is already declared in package %s", name, pkg)).
			WithLocation(loc).
			WithSuggestion("Pass an explicit mock name, e.g. //mock::mockable OtherName"),
		Name: name,
	}
}

// UnusedOverrideError is reported for return overrides that no mock consumed
type UnusedOverrideError struct {
	*BaseError
	Owner  string
	Method string
}

// NewUnusedOverrideError creates a new unused override error
func NewUnusedOverrideError(owner, method string, loc SourceLocation) *UnusedOverrideError {
	return &UnusedOverrideError{
		BaseError: New(UnusedOverrideErrorCode,
			fmt.Sprintf("return override for %s.%s is never used", owner, method)).
			WithLocation(loc),
		Owner:  owner,
		Method: method,
	}
}
