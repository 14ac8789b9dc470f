// Package errors provides structured error types for buildorder.
//
// Every failure that leaves a resolver is an [*Error] carrying a
// machine-readable [Code], a human-readable message and, for resolution
// failures, the chain of node IDs that led from the requested root to the
// node that could not be resolved. The CLI and the HTTP API both render
// these errors, so callers never have to parse message text.
//
// # Error Codes
//
//   - CYCLE_DETECTED: a cycle was found while strict cycle mode was on
//   - UNRESOLVED_DEPENDENCY: a required node has no matching provider
//   - AMBIGUOUS_PROVIDER: several providers match and the policy forbids guessing
//   - UNKNOWN_NODE, NOT_FOUND: a requested ID does not exist
//   - INVALID_*: input validation failures
//   - INTERNAL_ERROR: unexpected failures
//
// # Usage
//
//	err := errors.New(errors.ErrCodeUnknownNode, "unknown root %q", id)
//	if errors.Is(err, errors.ErrCodeUnknownNode) {
//	    // Handle missing root
//	}
//
//	// Resolution failures carry their chain
//	err := errors.Unresolved([]string{"x_1.0.0", "y_1.0.0"}, "Z", "no provider for bundle %s", "Z")
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
	// Resolution failures
	ErrCodeCycleDetected        Code = "CYCLE_DETECTED"
	ErrCodeUnresolvedDependency Code = "UNRESOLVED_DEPENDENCY"
	ErrCodeAmbiguousProvider    Code = "AMBIGUOUS_PROVIDER"
	ErrCodeNoTargetPlatform     Code = "NO_TARGET_PLATFORM"

	// Input validation errors
	ErrCodeInvalidInput     Code = "INVALID_INPUT"
	ErrCodeInvalidWorkspace Code = "INVALID_WORKSPACE"
	ErrCodeInvalidVersion   Code = "INVALID_VERSION"
	ErrCodeInvalidPath      Code = "INVALID_PATH"

	// Resource not found errors
	ErrCodeUnknownNode Code = "UNKNOWN_NODE"
	ErrCodeNotFound    Code = "NOT_FOUND"

	// Internal errors
	ErrCodeInternal Code = "INTERNAL_ERROR"
)

// Error is a structured error with a code, an optional failure chain and an
// optional cause.
type Error struct {
	Code    Code   // Machine-readable error code
	Message string // Human-readable message
	Cause   error  // Underlying error (optional)

	// Chain lists node IDs from the requested root to the failing node.
	// For cycles it lists the nodes of the cycle in traversal order.
	Chain []string
	// Subject names the requirement or node the failure is about, such as
	// the missing bundle name. Empty when the chain says it all.
	Subject string
}

// Error implements the error interface.
func (e *Error) Error() string {
	msg := fmt.Sprintf("%s: %s", e.Code, e.Message)
	if len(e.Chain) > 0 {
		msg += " (" + strings.Join(e.Chain, " -> ") + ")"
	}
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	return msg
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

// WithChain returns the error with a copy of chain attached.
func (e *Error) WithChain(chain []string) *Error {
	e.Chain = append([]string(nil), chain...)
	return e
}

// Unresolved builds an UNRESOLVED_DEPENDENCY error for the missing subject
// reached through chain.
func Unresolved(chain []string, subject string, format string, args ...any) *Error {
	e := New(ErrCodeUnresolvedDependency, format, args...).WithChain(chain)
	e.Subject = subject
	return e
}

// Cycle builds a CYCLE_DETECTED error for the given cycle.
func Cycle(cycle []string) *Error {
	return New(ErrCodeCycleDetected, "cyclic reference between %d nodes", len(cycle)).WithChain(cycle)
}

// Is reports whether err has the given error code.
// It unwraps the error chain looking for an *Error with a matching code.
func Is(err error, code Code) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Code == code
	}
	return false
}

// GetCode extracts the error code from an error, if available.
// Returns empty string if the error is not an *Error.
func GetCode(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

// GetChain returns the failure chain of the outermost *Error, or nil.
func GetChain(err error) []string {
	var e *Error
	if errors.As(err, &e) {
		return e.Chain
	}
	return nil
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

// Summary renders a one-line description naming the code, the message and
// the chain, suitable for terminal output.
func Summary(err error) string {
	var e *Error
	if !errors.As(err, &e) {
		return err.Error()
	}
	var b strings.Builder
	b.WriteString(strings.ToLower(strings.ReplaceAll(string(e.Code), "_", " ")))
	b.WriteString(": ")
	b.WriteString(e.Message)
	if len(e.Chain) > 0 {
		b.WriteString("\n  via ")
		b.WriteString(strings.Join(e.Chain, " -> "))
	}
	return b.String()
}
