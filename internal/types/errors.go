package types

import (
	"errors"
	"fmt"
)

// Error carries an outcome code plus human-readable detail.
// Detail is for diagnostics only; programmatic handling keys off Code.
type Error struct {
	Code   Code
	Detail string
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Detail == "" {
		return e.Code.String()
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Detail)
}

// E constructs an Error with formatted detail.
func E(code Code, format string, args ...any) *Error {
	return &Error{Code: code, Detail: fmt.Sprintf(format, args...)}
}

// CodeOf extracts the outcome code from an error chain.
// Returns CodeAllClear for nil and CodeUnsupportedVerb for foreign errors,
// so a lost code never masquerades as success.
func CodeOf(err error) Code {
	if err == nil {
		return CodeAllClear
	}
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return CodeUnsupportedVerb
}
