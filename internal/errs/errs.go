// Package errs defines the error taxonomy shared by the standardization
// pipeline and the linkage engine.
package errs

import (
	"errors"
	"fmt"
	"strings"
)

// SourceFormatError means a raw file could not be used at all: it is missing,
// undecodable, or lacks expected columns. No partial table is produced for the
// source.
type SourceFormatError struct {
	Source  string
	Path    string
	Missing []string
	Err     error
}

func (e *SourceFormatError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "source %s: bad raw file %s", e.Source, e.Path)
	if len(e.Missing) > 0 {
		fmt.Fprintf(&b, ": missing columns %s", strings.Join(e.Missing, ", "))
	}
	if e.Err != nil {
		fmt.Fprintf(&b, ": %v", e.Err)
	}
	return b.String()
}

func (e *SourceFormatError) Unwrap() error { return e.Err }

// RowValidationError describes one dropped row. It is never fatal. Line is
// the 1-based data row within File; File is empty when the row's file is
// unknown.
type RowValidationError struct {
	Source string
	File   string
	Line   int
	Reason string
}

func (e *RowValidationError) Error() string {
	if e.File != "" {
		return fmt.Sprintf("source %s: %s row %d dropped: %s", e.Source, e.File, e.Line, e.Reason)
	}
	return fmt.Sprintf("source %s: row %d dropped: %s", e.Source, e.Line, e.Reason)
}

// ConfigurationError reports a request for something that is not registered
// or configured, such as an unknown state or table type.
type ConfigurationError struct {
	Kind string
	Name string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("%s %q is not configured", e.Kind, e.Name)
}

// ConvergenceWarning is returned alongside linkage results when EM stopped at
// the iteration limit before reaching the tolerance.
type ConvergenceWarning struct {
	Table      string
	Iterations int
	Delta      float64
	Tolerance  float64
}

func (e *ConvergenceWarning) Error() string {
	return fmt.Sprintf("linkage %s: EM did not converge after %d iterations (delta %.6g > %.6g)",
		e.Table, e.Iterations, e.Delta, e.Tolerance)
}

// AggregateError carries every per-source failure of an orchestrator run.
type AggregateError struct {
	Errors []error
}

func (e *AggregateError) Error() string {
	msgs := make([]string, len(e.Errors))
	for i, err := range e.Errors {
		msgs[i] = err.Error()
	}
	return fmt.Sprintf("%d source(s) failed: %s", len(e.Errors), strings.Join(msgs, "; "))
}

func (e *AggregateError) Unwrap() []error { return e.Errors }

// Aggregate returns nil for no errors, the error itself for one, and an
// *AggregateError otherwise.
func Aggregate(list []error) error {
	switch len(list) {
	case 0:
		return nil
	case 1:
		return list[0]
	}
	return &AggregateError{Errors: append([]error(nil), list...)}
}

// IsConfiguration reports whether err wraps a *ConfigurationError.
func IsConfiguration(err error) bool {
	var ce *ConfigurationError
	return errors.As(err, &ce)
}
