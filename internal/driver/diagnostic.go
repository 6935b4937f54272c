package driver

import (
	stderrors "errors"
	"fmt"

	"github.com/toyz/mockable/internal/errors"
)

// Severity classifies a diagnostic
type Severity int

const (
	SeverityWarning Severity = iota
	SeverityError
)

// String returns the label printed before the message
func (s Severity) String() string {
	if s == SeverityError {
		return "error"
	}
	return "warning"
}

// Diagnostic is one finding attached to a source span
type Diagnostic struct {
	Severity Severity
	Loc      errors.SourceLocation
	Code     errors.ErrorCode
	Message  string
	Err      error
}

// String renders the diagnostic as file:line:col: severity: message
func (d Diagnostic) String() string {
	if d.Loc.IsEmpty() {
		return fmt.Sprintf("%s: %s", d.Severity, d.Message)
	}
	return fmt.Sprintf("%s: %s: %s", d.Loc, d.Severity, d.Message)
}

// NewDiagnostic converts err into a diagnostic, taking the code, location
// and message from the first MockableError in its chain
func NewDiagnostic(severity Severity, err error) Diagnostic {
	d := Diagnostic{Severity: severity, Code: errors.UnknownErrorCode, Message: err.Error(), Err: err}

	var me errors.MockableError
	if stderrors.As(err, &me) {
		d.Code = me.ErrorCode()
		d.Loc = me.Location()
		if detail, ok := me.(interface{ Detail() string }); ok {
			d.Message = detail.Detail()
		}
	}
	return d
}

// Diagnostics is an ordered list of findings
type Diagnostics []Diagnostic

// HasErrors reports whether any diagnostic is an error
func (ds Diagnostics) HasErrors() bool {
	for _, d := range ds {
		if d.Severity == SeverityError {
			return true
		}
	}
	return false
}

// Errors returns the error diagnostics
func (ds Diagnostics) Errors() Diagnostics {
	return ds.filter(SeverityError)
}

// Warnings returns the warning diagnostics
func (ds Diagnostics) Warnings() Diagnostics {
	return ds.filter(SeverityWarning)
}

// ByCode returns the diagnostics carrying code
func (ds Diagnostics) ByCode(code errors.ErrorCode) Diagnostics {
	var out Diagnostics
	for _, d := range ds {
		if d.Code == code {
			out = append(out, d)
		}
	}
	return out
}

func (ds Diagnostics) filter(severity Severity) Diagnostics {
	var out Diagnostics
	for _, d := range ds {
		if d.Severity == severity {
			out = append(out, d)
		}
	}
	return out
}
