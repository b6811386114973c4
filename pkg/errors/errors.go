// Package errors provides structured error types for blockfmt.
//
// This package defines error codes and types that enable:
//   - Consistent error handling across the CLI, the HTTP API and the library
//   - Machine-readable error codes for programmatic handling
//   - User-friendly error messages
//   - Error wrapping with context preservation
//
// # Error Codes
//
// Error codes follow a hierarchical naming convention:
//   - INVALID_*: Input validation failures (block trees, fixtures, config, ranges)
//   - FORMATTING_*: Solver failures
//   - MODEL_*: Failures reported by the text model receiving edits
//   - INTERNAL_*: Unexpected internal errors
//
// # Formatting Errors
//
// The three failure kinds of a formatting call have dedicated types that
// carry structured context: [InvalidBlockTreeError], [FormattingDivergedError]
// and [ModelMutationError]. They report their code through [Is] and [GetCode]
// like plain [Error] values:
//
//	if errors.Is(err, errors.ErrCodeFormattingDiverged) {
//	    // raise the pass limit or report the constraint graph
//	}
//
// # Usage
//
//	err := errors.New(errors.ErrCodeInvalidInput, "offset %d out of range", off)
//
//	// Wrap existing errors
//	err := errors.Wrap(errors.ErrCodeInvalidConfig, origErr, "load %s", path)
package errors

import (
	"errors"
	"fmt"
	"strings"
)

// Code represents a machine-readable error code.
type Code string

// Error codes for different error categories.
const (
	// Input validation errors
	ErrCodeInvalidInput     Code = "INVALID_INPUT"
	ErrCodeInvalidBlockTree Code = "INVALID_BLOCK_TREE"
	ErrCodeInvalidFixture   Code = "INVALID_FIXTURE"
	ErrCodeInvalidConfig    Code = "INVALID_CONFIG"
	ErrCodeInvalidRange     Code = "INVALID_RANGE"

	// Formatting errors
	ErrCodeFormattingDiverged Code = "FORMATTING_DIVERGED"
	ErrCodeModelMutation      Code = "MODEL_MUTATION"
	ErrCodeCanceled           Code = "CANCELED"

	// Resource not found errors
	ErrCodeNotFound     Code = "NOT_FOUND"
	ErrCodeFileNotFound Code = "FILE_NOT_FOUND"

	// Internal errors
	ErrCodeInternal    Code = "INTERNAL_ERROR"
	ErrCodeUnsupported Code = "UNSUPPORTED"
)

// coder is implemented by the typed errors of this package.
type coder interface {
	Code() Code
}

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

// Is reports whether err has the given error code.
// It checks the outermost coded error in the chain, which may be an *Error
// or one of the typed formatting errors.
func Is(err error, code Code) bool {
	return GetCode(err) == code
}

// GetCode extracts the error code from an error, if available.
// Returns empty string if no error in the chain carries a code.
func GetCode(err error) Code {
	for err != nil {
		if e, ok := err.(*Error); ok {
			return e.Code
		}
		if c, ok := err.(coder); ok {
			return c.Code()
		}
		err = errors.Unwrap(err)
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

// Canceled wraps a context error with ErrCodeCanceled.
// Returns nil if err is nil.
func Canceled(err error) error {
	if err == nil {
		return nil
	}
	return Wrap(ErrCodeCanceled, err, "formatting canceled")
}

// =============================================================================
// Formatting Errors
// =============================================================================

// InvalidBlockTreeError reports a block tree whose ranges overlap, are out of
// order, do not nest within their parent, or leave non-whitespace text
// between tokens. It is detected before any edit is applied.
type InvalidBlockTreeError struct {
	Problems []string
	Cause    error // aggregated problems, one error per entry
}

// Error implements the error interface.
func (e *InvalidBlockTreeError) Error() string {
	if len(e.Problems) == 1 {
		return "invalid block tree: " + e.Problems[0]
	}
	return fmt.Sprintf("invalid block tree: %d problems: %s", len(e.Problems), strings.Join(e.Problems, "; "))
}

// Unwrap returns the aggregated problems.
func (e *InvalidBlockTreeError) Unwrap() error { return e.Cause }

// Code returns ErrCodeInvalidBlockTree.
func (e *InvalidBlockTreeError) Code() Code { return ErrCodeInvalidBlockTree }

// FormattingDivergedError reports that the solver did not reach a fixed point
// within the configured limit. No edits are applied when it is returned.
type FormattingDivergedError struct {
	Passes int    // Passes run before giving up
	Limit  int    // Configured pass limit
	Reason string // What exceeded the limit
}

// Error implements the error interface.
func (e *FormattingDivergedError) Error() string {
	return fmt.Sprintf("formatting did not converge after %d passes (limit %d): %s", e.Passes, e.Limit, e.Reason)
}

// Code returns ErrCodeFormattingDiverged.
func (e *FormattingDivergedError) Code() Code { return ErrCodeFormattingDiverged }

// ModelMutationError reports that the text model rejected a replacement.
// Edits applied before the failing one remain in place.
type ModelMutationError struct {
	Start, End int   // Range passed to the model, in current coordinates
	Applied    int   // Edits applied before the failure
	Cause      error // Error returned by the model
}

// Error implements the error interface.
func (e *ModelMutationError) Error() string {
	return fmt.Sprintf("replace whitespace [%d,%d) rejected after %d edits: %v", e.Start, e.End, e.Applied, e.Cause)
}

// Unwrap returns the model's error.
func (e *ModelMutationError) Unwrap() error { return e.Cause }

// Code returns ErrCodeModelMutation.
func (e *ModelMutationError) Code() Code { return ErrCodeModelMutation }
