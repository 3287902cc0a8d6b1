// Package diag provides structured diagnostics reported by the resolver.
package diag

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"go.uber.org/multierr"

	"github.com/mazrean/bindgraph/internal/model"
)

// ErrHandled signals that the failure was already reported as diagnostics and
// the caller should stop without reporting it again.
var ErrHandled = errors.New("resolution failed, see diagnostics")

// Severity of a diagnostic.
type Severity int

const (
	SeverityInfo Severity = iota
	SeverityWarning
	SeverityError
)

func (s Severity) String() string {
	switch s {
	case SeverityInfo:
		return "info"
	case SeverityWarning:
		return "warning"
	case SeverityError:
		return "error"
	}
	return fmt.Sprintf("severity(%d)", int(s))
}

// ParseSeverity parses the names produced by String.
func ParseSeverity(s string) (Severity, error) {
	switch strings.ToLower(s) {
	case "info":
		return SeverityInfo, nil
	case "warning", "warn":
		return SeverityWarning, nil
	case "error":
		return SeverityError, nil
	}
	return SeverityError, fmt.Errorf("unknown severity %q", s)
}

// Code is a stable diagnostic identifier.
type Code string

const (
	CodeInvalidMetadata   Code = "BG001"
	CodeUnresolved        Code = "BG002"
	CodeCycle             Code = "BG003"
	CodeLifetime          Code = "BG004"
	CodeMaxIterations     Code = "BG005"
	CodeBindingOverridden Code = "BG006"
	CodeCannotConstruct   Code = "BG007"
)

// Diagnostic is one reported problem.
type Diagnostic struct {
	Severity  Severity
	Code      Code
	Message   string
	Locations []model.Location
}

func (d Diagnostic) Error() string {
	return d.String()
}

func (d Diagnostic) String() string {
	var b strings.Builder
	if len(d.Locations) > 0 {
		b.WriteString(d.Locations[0].String())
		b.WriteString(": ")
	}
	fmt.Fprintf(&b, "%s %s: %s", d.Severity, d.Code, d.Message)
	return b.String()
}

// Diagnostics is an ordered diagnostic list.
type Diagnostics []Diagnostic

// Add appends a diagnostic, dropping exact duplicates.
func (ds *Diagnostics) Add(d Diagnostic) {
	for _, e := range *ds {
		if e.Code == d.Code && e.Message == d.Message && e.Severity == d.Severity {
			return
		}
	}
	*ds = append(*ds, d)
}

func (ds *Diagnostics) Errorf(code Code, locs []model.Location, format string, args ...any) {
	ds.Add(Diagnostic{Severity: SeverityError, Code: code, Message: fmt.Sprintf(format, args...), Locations: compact(locs)})
}

func (ds *Diagnostics) Warnf(code Code, locs []model.Location, format string, args ...any) {
	ds.Add(Diagnostic{Severity: SeverityWarning, Code: code, Message: fmt.Sprintf(format, args...), Locations: compact(locs)})
}

// HasErrors reports whether any diagnostic has error severity.
func (ds Diagnostics) HasErrors() bool {
	return slices.ContainsFunc(ds, func(d Diagnostic) bool {
		return d.Severity == SeverityError
	})
}

// Filter returns the diagnostics with the given code.
func (ds Diagnostics) Filter(code Code) Diagnostics {
	var out Diagnostics
	for _, d := range ds {
		if d.Code == code {
			out = append(out, d)
		}
	}
	return out
}

// Err combines the error-severity diagnostics into one error, nil if there
// are none.
func (ds Diagnostics) Err() error {
	var err error
	for _, d := range ds {
		if d.Severity == SeverityError {
			err = multierr.Append(err, d)
		}
	}
	return err
}

func compact(locs []model.Location) []model.Location {
	out := make([]model.Location, 0, len(locs))
	for _, l := range locs {
		if l.IsZero() || slices.Contains(out, l) {
			continue
		}
		out = append(out, l)
	}
	return out
}
