// Package confstruct provides type-safe configuration loading from pluggable sources.
package confstruct

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors for use with errors.Is.
var (
	ErrMissingField    = errors.New("required field not found")
	ErrCoercion        = errors.New("cannot coerce value")
	ErrValidation      = errors.New("validation failed")
	ErrUnknownField    = errors.New("unknown key")
	ErrUnsupportedType = errors.New("unsupported type")
	ErrSchema          = errors.New("invalid schema")
)

// FieldError wraps a per-field failure with the field's lookup key.
type FieldError struct {
	Field string
	Err   error
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("confstruct: %s: %v", e.Field, e.Err)
}

func (e *FieldError) Unwrap() error { return e.Err }

// AggregateError collects every field failure from a single load, so one
// failed load reports all problems at once instead of only the first.
type AggregateError struct {
	Errors []*FieldError
}

func (e *AggregateError) Error() string {
	if len(e.Errors) == 1 {
		return e.Errors[0].Error()
	}
	var b strings.Builder
	fmt.Fprintf(&b, "confstruct: %d fields failed", len(e.Errors))
	for _, fe := range e.Errors {
		fmt.Fprintf(&b, "\n\t%s: %v", fe.Field, fe.Err)
	}
	return b.String()
}

// Unwrap exposes the individual field errors to errors.Is and errors.As.
func (e *AggregateError) Unwrap() []error {
	errs := make([]error, len(e.Errors))
	for i, fe := range e.Errors {
		errs[i] = fe
	}
	return errs
}
