// Package errors provides structured error types for meshgraph.
//
// This package defines error codes and types that enable:
//   - Consistent error handling across the CLI, the editor session and the HTTP API
//   - Machine-readable error codes for programmatic handling
//   - User-friendly error messages
//   - Error wrapping with context preservation
//
// # Error Codes
//
// The import failures are the ones callers branch on most often:
//   - MALFORMED_DOCUMENT: the top-level "services" mapping is missing or not an object
//   - MALFORMED_METHOD: a method lacks latency_distribution or error_rate
//   - INVALID_FILE_CONTENT: the input is not parseable JSON at all
//
// All three are fatal for the import: no partial graph is ever produced.
// UNRESOLVED_CALL is only reported by the linter; import keeps such calls
// on the node and silently skips the edge.
//
// # Usage
//
//	err := errors.New(errors.ErrCodeMalformedMethod, "method %s: missing error_rate", name)
//	if errors.Is(err, errors.ErrCodeMalformedMethod) {
//	    // Handle validation error
//	}
//
//	// Wrap existing errors
//	err := errors.Wrap(errors.ErrCodeInvalidFileContent, origErr, "decode %s", path)
package errors

import (
	"errors"
	"fmt"
)

// Code represents a machine-readable error code.
type Code string

// Error codes for different error categories.
const (
	// Import failures
	ErrCodeMalformedDocument  Code = "MALFORMED_DOCUMENT"
	ErrCodeMalformedMethod    Code = "MALFORMED_METHOD"
	ErrCodeInvalidFileContent Code = "INVALID_FILE_CONTENT"

	// Lint findings
	ErrCodeUnresolvedCall Code = "UNRESOLVED_CALL"
	ErrCodeInvalidSpec    Code = "INVALID_SPEC"

	// Input validation errors
	ErrCodeInvalidInput  Code = "INVALID_INPUT"
	ErrCodeInvalidName   Code = "INVALID_NAME"
	ErrCodeInvalidFormat Code = "INVALID_FORMAT"
	ErrCodeInvalidPath   Code = "INVALID_PATH"

	// Resource errors
	ErrCodeNotFound         Code = "NOT_FOUND"
	ErrCodeNodeNotFound     Code = "NODE_NOT_FOUND"
	ErrCodeDocumentNotFound Code = "DOCUMENT_NOT_FOUND"
	ErrCodeConflict         Code = "CONFLICT"

	// Backend and internal errors
	ErrCodeStorage  Code = "STORAGE"
	ErrCodeInternal Code = "INTERNAL_ERROR"
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

// IsImportFailure reports whether err is one of the fatal import codes.
// The editor uses it to decide whether a load attempt should be shown to
// the user as a rejected file.
func IsImportFailure(err error) bool {
	switch GetCode(err) {
	case ErrCodeMalformedDocument, ErrCodeMalformedMethod, ErrCodeInvalidFileContent:
		return true
	}
	return false
}

// Detail returns the message and cause chain without the code prefix, for
// responses that carry the code separately.
func Detail(err error) string {
	var e *Error
	if !errors.As(err, &e) {
		return err.Error()
	}
	if e.Cause != nil {
		return e.Message + ": " + e.Cause.Error()
	}
	return e.Message
}
