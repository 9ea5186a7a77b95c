package errors

import (
	stderrors "errors"
	"fmt"
	"io"
	"runtime/debug"
	"strings"

	"golang.org/x/xerrors"
)

// StrataError is the interface implemented by all language-level errors raised
// while evaluating operators. They propagate to the embedding interpreter untouched.
type StrataError interface {
	error // Embed the standard error interface
	Pos() Position
	Kind() string // "TypeError", "RangeError"
	// Message returns the specific error message without position info.
	Message() string
	Unwrap() error // For error wrapping support (errors.Is/As)
}

// --- Concrete Error Types ---

// TypeError is raised for operands of the wrong kind, e.g. mixing BigInt and Number,
// a Symbol in numeric context or an object that cannot be converted to a primitive.
type TypeError struct {
	Position
	Msg   string
	Cause error // Underlying cause, if any
}

func (e *TypeError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("TypeError at %d:%d: %s", e.Line, e.Column, e.Msg)
	}
	return "TypeError: " + e.Msg
}
func (e *TypeError) Pos() Position   { return e.Position }
func (e *TypeError) Kind() string    { return "TypeError" }
func (e *TypeError) Message() string { return e.Msg }
func (e *TypeError) Unwrap() error   { return e.Cause }
func (e *TypeError) CausedBy(cause error) *TypeError {
	e.Cause = cause
	return e
}

// RangeError is raised when a value is outside the allowed range: BigInt division by zero,
// negative BigInt exponents, or results exceeding the configured size limits.
type RangeError struct {
	Position
	Msg   string
	Cause error // Underlying cause, if any
}

func (e *RangeError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("RangeError at %d:%d: %s", e.Line, e.Column, e.Msg)
	}
	return "RangeError: " + e.Msg
}
func (e *RangeError) Pos() Position   { return e.Position }
func (e *RangeError) Kind() string    { return "RangeError" }
func (e *RangeError) Message() string { return e.Msg }
func (e *RangeError) Unwrap() error   { return e.Cause }
func (e *RangeError) CausedBy(cause error) *RangeError {
	e.Cause = cause
	return e
}

// SyntaxError is reported for malformed expression files.
type SyntaxError struct {
	Position
	Msg string
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("SyntaxError at %s: %s", e.Position, e.Msg)
}
func (e *SyntaxError) Pos() Position   { return e.Position }
func (e *SyntaxError) Kind() string    { return "SyntaxError" }
func (e *SyntaxError) Message() string { return e.Msg }
func (e *SyntaxError) Unwrap() error   { return nil }

// --- Helpers for creating errors ---

func NewSyntaxError(pos Position, format string, args ...any) *SyntaxError {
	return &SyntaxError{Position: pos, Msg: fmt.Sprintf(format, args...)}
}

func NewTypeError(format string, args ...any) *TypeError {
	return &TypeError{Msg: fmt.Sprintf(format, args...)}
}

func NewRangeError(format string, args ...any) *RangeError {
	return &RangeError{Msg: fmt.Sprintf(format, args...)}
}

// IsTypeError reports whether err is, or wraps, a *TypeError.
func IsTypeError(err error) bool {
	var te *TypeError
	return stderrors.As(err, &te)
}

// IsRangeError reports whether err is, or wraps, a *RangeError.
func IsRangeError(err error) bool {
	var re *RangeError
	return stderrors.As(err, &re)
}

// At stamps pos onto err when err is a StrataError without a position yet.
// Errors coming from user callbacks are returned unchanged.
func At(err error, pos Position) error {
	if !pos.IsValid() {
		return err
	}
	switch e := err.(type) {
	case *TypeError:
		if !e.Position.IsValid() {
			e.Position = pos
		}
	case *RangeError:
		if !e.Position.IsValid() {
			e.Position = pos
		}
	}
	return err
}

// --- Internal errors ---

// InternalError is an implementation error, e.g. an unreachable code path.
// It must never be caught by the embedding interpreter as a language error.
type InternalError interface {
	error
	IsInternalError()
}

// UnreachableError is an internal error which should have never occurred
// due to a programming error in the engine.
type UnreachableError struct {
	Stack []byte
}

var _ InternalError = UnreachableError{}

func (e UnreachableError) Error() string {
	return fmt.Sprintf("unreachable\n%s", e.Stack)
}

func (e UnreachableError) IsInternalError() {}

func NewUnreachableError() *UnreachableError {
	return &UnreachableError{Stack: debug.Stack()}
}

// UnexpectedError wraps an implementation error.
type UnexpectedError struct {
	Err error
}

var _ InternalError = UnexpectedError{}

func NewUnexpectedError(message string, arg ...any) UnexpectedError {
	return UnexpectedError{
		Err: xerrors.Errorf(message, arg...),
	}
}

func (e UnexpectedError) Unwrap() error {
	return e.Err
}

func (e UnexpectedError) Error() string {
	return fmt.Sprintf("internal error: %s", e.Err.Error())
}

func (e UnexpectedError) IsInternalError() {}

// --- Error Reporting ---

// DisplayErrors prints a list of errors to w in a user-friendly format,
// including the source line and position marker when a position is known.
func DisplayErrors(w io.Writer, errs []error) {
	for _, err := range errs {
		var se StrataError
		if !stderrors.As(err, &se) {
			fmt.Fprintf(w, "Error: %s\n\n", err)
			continue
		}

		pos := se.Pos()
		if !pos.IsValid() || pos.Source == nil {
			fmt.Fprintf(w, "%s: %s\n\n", se.Kind(), se.Message())
			continue
		}

		// Format: <Kind> at <file>:<Line>:<Column>: <Message>
		fmt.Fprintf(w, "%s at %s: %s\n", se.Kind(), pos, se.Message())

		sourceLine := pos.Source.Line(pos.Line)
		fmt.Fprintf(w, "  %s\n", strings.TrimRight(sourceLine, "\t "))

		col := pos.Column - 1
		if col < 0 {
			col = 0
		}
		fmt.Fprintf(w, "  %s^\n\n", strings.Repeat(" ", col))
	}
}
