// Package domainerrors carries error codes from services out to transports
// and event handlers. Stores return sentinel errors for infrastructure
// facts; services translate those into coded domain errors so callers can
// branch on the code without string matching.
package domainerrors

import (
	"errors"
	"fmt"
)

// Code classifies a domain error for transport mapping and handler policy.
type Code string

const (
	// CodeInvalidInput marks validation failures. These are rejected
	// synchronously and never enter a saga.
	CodeInvalidInput Code = "invalid_input"

	// CodeNotFound marks operations referencing an absent entity.
	CodeNotFound Code = "not_found"

	// CodeConflict marks uniqueness violations (duplicate username,
	// duplicate measurement). Event handlers treat redelivered conflicts as
	// idempotent no-ops; direct callers get a synchronous reject.
	CodeConflict Code = "conflict"

	// CodeUnauthorized marks failed authentication.
	CodeUnauthorized Code = "unauthorized"

	// CodePending marks operations against a saga still in flight, such as
	// logging in before provisioning completed.
	CodePending Code = "pending"

	// CodeUnavailable marks propagation failures talking to the broker or a
	// backing store.
	CodeUnavailable Code = "unavailable"

	// CodeInternal marks unexpected failures.
	CodeInternal Code = "internal"
)

// Error is a coded domain error. It wraps an optional cause.
type Error struct {
	Code    Code
	Message string
	cause   error
}

func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error { return e.cause }

// New creates a coded error without a cause.
func New(code Code, message string) error {
	return &Error{Code: code, Message: message}
}

// Newf creates a coded error with a formatted message.
func Newf(code Code, format string, args ...any) error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// Wrap attaches a code and message to an underlying error. A nil cause
// returns nil so call sites can wrap unconditionally.
func Wrap(cause error, code Code, message string) error {
	if cause == nil {
		return nil
	}
	return &Error{Code: code, Message: message, cause: cause}
}

// HasCode reports whether err carries the given code anywhere in its chain.
func HasCode(err error, code Code) bool {
	var domainErr *Error
	if errors.As(err, &domainErr) {
		return domainErr.Code == code
	}
	return false
}

// CodeOf returns the code of err, or CodeInternal when err is not a domain
// error.
func CodeOf(err error) Code {
	var domainErr *Error
	if errors.As(err, &domainErr) {
		return domainErr.Code
	}
	return CodeInternal
}
