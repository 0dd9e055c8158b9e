// Package errors provides structured error types for the mod fetcher.
//
// Error codes follow a hierarchical naming convention:
//   - INVALID_*: Input validation failures
//   - *_NOT_FOUND / NO_*: Resource absent in the registry (recoverable, collected)
//   - NETWORK_*: Transport failures (fatal, never collected)
//   - CONTRACT_*: Programming-contract violations (fatal)
//
// # Usage
//
//	err := errors.New(errors.ErrCodeInvalidSlug, "invalid mod slug: %s", slug)
//	if errors.Is(err, errors.ErrCodeInvalidSlug) {
//	    // Handle validation error
//	}
//
//	// Wrap existing errors
//	err := errors.Wrap(errors.ErrCodeNetwork, origErr, "failed to fetch %s", url)
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
	ErrCodeInvalidSlug   Code = "INVALID_SLUG"
	ErrCodeInvalidConfig Code = "INVALID_CONFIG"

	// Not-found class errors. These are domain errors: they are collected
	// per phase and may be pruned when only optional edges require the target.
	ErrCodeModNotFound       Code = "MOD_NOT_FOUND"
	ErrCodeNoMatchingVersion Code = "NO_MATCHING_VERSION"
	ErrCodeNoFile            Code = "NO_FILE"
	ErrCodeSideUnsupported   Code = "SIDE_UNSUPPORTED"

	// Structural conflicts detected after the graph is frozen.
	ErrCodeIncompatible Code = "INCOMPATIBLE"

	// Download integrity failures.
	ErrCodeIntegrityMismatch Code = "INTEGRITY_MISMATCH"

	// Fatal errors. These abort the run instead of being collected.
	ErrCodeNetwork  Code = "NETWORK_ERROR"
	ErrCodeContract Code = "CONTRACT_VIOLATION"
)

// Error is a structured error with a code, an optional target reference,
// and an optional cause.
type Error struct {
	Code    Code   // Machine-readable error code
	Message string // Human-readable message
	Ref     string // Registry id of the target the error is about (optional)
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

// NewRef creates a new Error carrying the registry id of the offending target.
// The resolver uses Ref to match not-found errors against graph nodes when
// deciding whether an optional-only chain can be pruned.
func NewRef(code Code, ref, format string, args ...any) *Error {
	return &Error{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
		Ref:     ref,
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

// GetRef extracts the target reference from an error, if available.
func GetRef(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Ref
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

// IsNotFound reports whether err is any of the not-found class codes
// that participate in optional-chain pruning.
func IsNotFound(err error) bool {
	switch GetCode(err) {
	case ErrCodeModNotFound, ErrCodeNoMatchingVersion, ErrCodeNoFile, ErrCodeSideUnsupported:
		return true
	}
	return false
}

// IsFatal reports whether err must abort the run instead of being collected.
// Transport failures and contract violations are fatal; everything carrying a
// domain code is recoverable, and unknown errors are treated as fatal.
func IsFatal(err error) bool {
	if err == nil {
		return false
	}
	switch GetCode(err) {
	case ErrCodeNetwork, ErrCodeContract, "":
		return true
	}
	return false
}
