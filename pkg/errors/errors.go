// Package errors provides structured error types for tileview.
//
// Errors carry a machine-readable [Code] so the CLI can tell bad input
// (a snapshot that fails to decode, an unreadable directory) from
// internal failures, and print a short user-facing message for either.
//
// # Error Codes
//
// Codes follow a hierarchical naming convention:
//   - INVALID_*: input validation failures
//   - *_NOT_FOUND / NO_*: missing resources
//   - RENDER_* / INTERNAL_*: failures while producing output
//
// # Usage
//
//	err := errors.New(errors.ErrCodeInvalidSnapshot, "duplicate tile key %s", key)
//	if errors.Is(err, errors.ErrCodeInvalidSnapshot) {
//	    // report and stop before rendering
//	}
//
//	err := errors.Wrap(errors.ErrCodeFileNotFound, origErr, "open %s", path)
package errors

import (
	"errors"
	"fmt"
)

// Code represents a machine-readable error code.
type Code string

// Error codes for different error categories.
const (
	// Input validation errors
	ErrCodeInvalidInput    Code = "INVALID_INPUT"
	ErrCodeInvalidSnapshot Code = "INVALID_SNAPSHOT"
	ErrCodeInvalidConfig   Code = "INVALID_CONFIG"
	ErrCodeInvalidPath     Code = "INVALID_PATH"

	// Resource not found errors
	ErrCodeFileNotFound Code = "FILE_NOT_FOUND"
	ErrCodeNoSnapshots  Code = "NO_SNAPSHOTS"

	// Output errors
	ErrCodeRenderFailed Code = "RENDER_FAILED"
	ErrCodeInternal     Code = "INTERNAL_ERROR"
)

// Error is a structured error with a code and optional cause.
type Error struct {
	Code    Code   // Machine-readable error code
	Message string // Human-readable message
	Cause   error  // Underlying error (optional)
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause for errors.Is/As compatibility.
func (e *Error) Unwrap() error {
	return e.Cause
}

// New creates a new Error with the given code and formatted message.
func New(code Code, format string, args ...any) *Error {
	return &Error{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
	}
}

// Wrap creates a new Error wrapping an existing error.
func Wrap(code Code, cause error, format string, args ...any) *Error {
	return &Error{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
		Cause:   cause,
	}
}

// coder is implemented by error types whose code is fixed by the type.
type coder interface {
	Code() Code
}

// Is reports whether the first coded error in err's chain has code.
func Is(err error, code Code) bool {
	return err != nil && GetCode(err) == code
}

// GetCode returns the code of the first coded error in err's chain: an
// *Error, or a type with a Code() method such as *SnapshotError. It
// returns "" when there is none.
func GetCode(err error) Code {
	for ; err != nil; err = errors.Unwrap(err) {
		switch e := err.(type) {
		case *Error:
			return e.Code
		case coder:
			return e.Code()
		}
	}
	return ""
}

// UserMessage returns a user-friendly message for the error.
// For *Error types, returns the message without the code prefix.
// For other errors, returns the error string as-is.
func UserMessage(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Message
	}
	return err.Error()
}

// SnapshotError locates a decoding failure inside a capture.
type SnapshotError struct {
	File  string // source file, if known
	Slice int    // slice index, or -1 when the failure is outside a slice
	Err   error
}

// Error implements the error interface.
func (e *SnapshotError) Error() string {
	loc := e.File
	if loc == "" {
		loc = "<input>"
	}
	if e.Slice >= 0 {
		return fmt.Sprintf("%s: slice %d: %v", loc, e.Slice, e.Err)
	}
	return fmt.Sprintf("%s: %v", loc, e.Err)
}

// Unwrap returns the wrapped error.
func (e *SnapshotError) Unwrap() error { return e.Err }

// Code returns the error code for this error type.
func (e *SnapshotError) Code() Code {
	return ErrCodeInvalidSnapshot
}
