package cli

import (
	stderrors "errors"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/fatih/color"

	"github.com/toyz/mockable/internal/driver"
	"github.com/toyz/mockable/internal/errors"
	"github.com/toyz/mockable/internal/utils"
)

// DiagnosticReporter prints driver diagnostics in compiler style:
//
//	path/file.go:12:3: error: unknown interface 'Reader'
//	    hint: Import the package that declares Reader
type DiagnosticReporter struct {
	verbose bool
	out     io.Writer
	system  *utils.DiagnosticSystem
}

// NewDiagnosticReporter creates a reporter writing to stderr
func NewDiagnosticReporter(verbose bool) *DiagnosticReporter {
	return NewDiagnosticReporterTo(verbose, os.Stderr, utils.NewDiagnosticSystem(utils.DiagnosticInfo))
}

// NewDiagnosticReporterTo creates a reporter writing to out. system provides
// colorization and may be nil.
func NewDiagnosticReporterTo(verbose bool, out io.Writer, system *utils.DiagnosticSystem) *DiagnosticReporter {
	return &DiagnosticReporter{verbose: verbose, out: out, system: system}
}

// Report prints every diagnostic, errors and warnings in the order given
func (r *DiagnosticReporter) Report(diags driver.Diagnostics) {
	for _, d := range diags {
		r.ReportDiagnostic(d)
	}
}

// ReportDiagnostic prints one diagnostic with its suggestions
func (r *DiagnosticReporter) ReportDiagnostic(d driver.Diagnostic) {
	label := d.Severity.String()
	attr := color.FgYellow
	if d.Severity == driver.SeverityError {
		attr = color.FgRed
	}
	label = r.colorize(label, attr)

	if d.Loc.IsEmpty() {
		fmt.Fprintf(r.out, "%s: %s\n", label, d.Message)
	} else {
		fmt.Fprintf(r.out, "%s: %s: %s\n", d.Loc, label, d.Message)
	}

	var me errors.MockableError
	if d.Err == nil || !stderrors.As(d.Err, &me) {
		return
	}
	for _, hint := range me.Suggestions() {
		fmt.Fprintf(r.out, "    %s %s\n", r.colorize("hint:", color.FgCyan), hint)
	}

	if !r.verbose {
		return
	}
	fmt.Fprintf(r.out, "    code: %s\n", d.Code)
	if cause := me.Unwrap(); cause != nil {
		fmt.Fprintf(r.out, "    cause: %s\n", cause)
	}
	if ctx := me.Context(); len(ctx) > 0 {
		fmt.Fprintf(r.out, "    context: %s\n", formatContext(ctx))
	}
}

// ReportError prints a failure that has no source position
func (r *DiagnosticReporter) ReportError(err error) {
	r.ReportDiagnostic(driver.NewDiagnostic(driver.SeverityError, err))
}

func (r *DiagnosticReporter) colorize(s string, attrs ...color.Attribute) string {
	if r.system == nil {
		return s
	}
	return r.system.Colorize(s, attrs...)
}

func formatContext(ctx map[string]interface{}) string {
	keys := make([]string, 0, len(ctx))
	for k := range ctx {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s=%v", k, ctx[k]))
	}
	return strings.Join(parts, " ")
}
