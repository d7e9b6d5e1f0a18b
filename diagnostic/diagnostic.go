// Package diagnostic collects compiler errors and warnings so a whole
// compilation unit can be reported at once instead of stopping at the
// first failure.
package diagnostic

import (
	"errors"
	"fmt"
	"strings"
)

// Severity represents the severity level of a diagnostic message
type Severity int

const (
	Error Severity = iota
	Warning
)

func (s Severity) String() string {
	switch s {
	case Error:
		return "error"
	case Warning:
		return "warning"
	default:
		return "unknown"
	}
}

// Diagnostic is a single message tied to a source location.
type Diagnostic struct {
	Severity Severity
	Message  string
	Line     int
	Column   int
	Err      error // underlying error, if the diagnostic was built from one
}

// Diagnostics is an ordered bag of diagnostics for one compilation unit.
type Diagnostics struct {
	items []Diagnostic
}

func New() *Diagnostics {
	return &Diagnostics{items: make([]Diagnostic, 0)}
}

func (d *Diagnostics) Errorf(line, col int, format string, args ...any) {
	d.items = append(d.items, Diagnostic{
		Severity: Error,
		Message:  fmt.Sprintf(format, args...),
		Line:     line,
		Column:   col,
	})
}

func (d *Diagnostics) Warningf(line, col int, format string, args ...any) {
	d.items = append(d.items, Diagnostic{
		Severity: Warning,
		Message:  fmt.Sprintf(format, args...),
		Line:     line,
		Column:   col,
	})
}

// Add records err as an error diagnostic. The message is the error text
// without its position prefix; the position is taken from line and col.
func (d *Diagnostics) Add(line, col int, err error) {
	msg := err.Error()
	var pe interface{ Message() string }
	if errors.As(err, &pe) {
		msg = pe.Message()
	}
	d.items = append(d.items, Diagnostic{
		Severity: Error,
		Message:  msg,
		Line:     line,
		Column:   col,
		Err:      err,
	})
}

func (d *Diagnostics) HasErrors() bool {
	return d.ErrorCount() > 0
}

func (d *Diagnostics) ErrorCount() int {
	count := 0
	for _, item := range d.items {
		if item.Severity == Error {
			count++
		}
	}
	return count
}

// All returns all diagnostics in the order they were recorded.
func (d *Diagnostics) All() []Diagnostic {
	return d.items
}

// Err folds every error diagnostic into a single error, or returns nil.
func (d *Diagnostics) Err() error {
	var errs []error
	for _, item := range d.items {
		if item.Severity != Error {
			continue
		}
		if item.Err != nil {
			errs = append(errs, item.Err)
			continue
		}
		errs = append(errs, fmt.Errorf("%d:%d: %s", item.Line, item.Column, item.Message))
	}
	return errors.Join(errs...)
}

// Format renders the diagnostics one per line:
//
//	error[blink.py:3:10]: name 'x' is not defined
func (d *Diagnostics) Format(filename string) string {
	var sb strings.Builder
	for i, item := range d.items {
		if i > 0 {
			sb.WriteByte('\n')
		}
		fmt.Fprintf(&sb, "%s[%s:%d:%d]: %s", item.Severity, filename, item.Line, item.Column, item.Message)
	}
	return sb.String()
}
