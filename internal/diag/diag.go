// Package diag defines the error and warning types used across the compiler.
//
// Every fatal condition produced by the pipeline is an *Error carrying the
// source position it relates to, formatted the usual compiler way as
// "file:line:col: message". The position may be nil for errors with no
// attributable location, such as a flattening failure discovered across the
// whole model. The typed wrappers unwrap to *Error, so errors.As works both
// on the concrete kind and on the base type.
package diag

import (
	"errors"
	"fmt"

	"github.com/hashicorp/hcl/v2"
)

// Error is the base error type for all fatal compiler errors.
type Error struct {
	Msg string
	Pos *hcl.Range
}

func (e *Error) Error() string {
	if e.Pos != nil {
		return fmt.Sprintf("%s:%d:%d: %s", e.Pos.Filename, e.Pos.Start.Line, e.Pos.Start.Column, e.Msg)
	}
	return e.Msg
}

// Errorf creates a new Error with a formatted message and optional position.
func Errorf(pos *hcl.Range, format string, args ...any) *Error {
	return &Error{Msg: fmt.Sprintf(format, args...), Pos: pos}
}

// WithPos attaches a position to err if it is or wraps a positionless
// *Error. Errors that already carry a position are returned unchanged, as
// are errors of other types. This mirrors how coarse context (a target, an
// AST node) decorates errors raised deeper in the pipeline.
func WithPos(err error, pos *hcl.Range) error {
	var e *Error
	if errors.As(err, &e) && e.Pos == nil {
		e.Pos = pos
	}
	return err
}

// ParseError is a structural error reported by the front-end and passed
// through the pipeline unchanged.
type ParseError struct {
	Err Error
}

// NewParseError wraps a front-end diagnostic message with its subject range.
func NewParseError(msg string, pos *hcl.Range) *ParseError {
	return &ParseError{Err: Error{Msg: msg, Pos: pos}}
}

func (e *ParseError) Error() string { return e.Err.Error() }
func (e *ParseError) Unwrap() error { return &e.Err }

// SelfReferenceError reports a variable whose definition cycles back to
// itself, directly or through other variables.
type SelfReferenceError struct {
	Err     Error
	VarName string
}

// NewSelfReferenceError creates an error for the variable on which the
// cycle was detected.
func NewSelfReferenceError(name string, pos *hcl.Range) *SelfReferenceError {
	return &SelfReferenceError{
		Err:     Error{Msg: fmt.Sprintf("variable %q is defined recursively, references itself", name), Pos: pos},
		VarName: name,
	}
}

func (e *SelfReferenceError) Error() string { return e.Err.Error() }
func (e *SelfReferenceError) Unwrap() error { return &e.Err }

// UnresolvedReferenceError reports a reference to a variable that does not
// exist in any enclosing scope.
type UnresolvedReferenceError struct {
	Err     Error
	VarName string
}

// NewUnresolvedReferenceError creates an error for an unresolvable name.
func NewUnresolvedReferenceError(name string, pos *hcl.Range) *UnresolvedReferenceError {
	return &UnresolvedReferenceError{
		Err:     Error{Msg: fmt.Sprintf("unknown variable %q", name), Pos: pos},
		VarName: name,
	}
}

func (e *UnresolvedReferenceError) Error() string { return e.Err.Error() }
func (e *UnresolvedReferenceError) Unwrap() error { return &e.Err }

// FlattenError reports that the conditional model could not be expanded
// into concrete configurations, e.g. because an option has neither a
// default value nor a finite value list.
type FlattenError struct {
	Err Error
}

// NewFlattenError creates a flattening failure with a formatted message.
func NewFlattenError(pos *hcl.Range, format string, args ...any) *FlattenError {
	return &FlattenError{Err: Error{Msg: fmt.Sprintf(format, args...), Pos: pos}}
}

func (e *FlattenError) Error() string { return e.Err.Error() }
func (e *FlattenError) Unwrap() error { return &e.Err }
