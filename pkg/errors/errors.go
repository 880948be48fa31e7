// Package errors defines the structured error taxonomy shared by the kataru
// session core. Every failure carries a machine-readable Code; callers match
// on codes with the standard library errors.Is against the exported sentinels.
package errors

import (
	"errors"
	"fmt"
)

// Code is a machine-readable error code.
type Code string

const (
	CodeUnknown         Code = "UNKNOWN"
	CodeNotInitialized  Code = "NOT_INITIALIZED"
	CodeUnknownVariable Code = "UNKNOWN_VARIABLE"
	CodeUnknownPassage  Code = "UNKNOWN_PASSAGE"
	CodeSnapshotMissing Code = "SNAPSHOT_NOT_FOUND"
	CodePersistence     Code = "PERSISTENCE_ERROR"
	CodeNavigation      Code = "NAVIGATION_ERROR"
)

// Sentinels for errors.Is matching. They compare by Code only.
var (
	ErrNotInitialized   = &Error{Code: CodeNotInitialized, Message: "session was not initialized"}
	ErrUnknownVariable  = &Error{Code: CodeUnknownVariable, Message: "unknown variable"}
	ErrUnknownPassage   = &Error{Code: CodeUnknownPassage, Message: "unknown passage"}
	ErrSnapshotNotFound = &Error{Code: CodeSnapshotMissing, Message: "snapshot not found"}
	ErrPersistence      = &Error{Code: CodePersistence, Message: "persistence error"}
	ErrNavigation       = &Error{Code: CodeNavigation, Message: "navigation error"}
)

// Error is the session error type.
type Error struct {
	Code    Code   // Machine-readable error code
	Message string // Human-readable description
	Key     string // Variable, passage, snapshot label or path the error is about
	Cause   error  // Wrapped underlying error
}

// Error implements the error interface.
func (e *Error) Error() string {
	msg := e.Message
	if e.Key != "" {
		msg = fmt.Sprintf("%s %q", msg, e.Key)
	}
	if e.Cause != nil {
		msg = msg + ": " + e.Cause.Error()
	}
	return msg
}

// Unwrap returns the underlying cause for error chain traversal.
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is reports whether target matches this error by code.
func (e *Error) Is(target error) bool {
	if t, ok := target.(*Error); ok {
		return e.Code == t.Code
	}
	return false
}

// New creates an error about key.
func New(code Code, message, key string) *Error {
	return &Error{Code: code, Message: message, Key: key}
}

// Newf creates an error with a formatted message and no key.
func Newf(code Code, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// Wrap creates an error about key that wraps an underlying cause.
func Wrap(code Code, message, key string, cause error) *Error {
	return &Error{Code: code, Message: message, Key: key, Cause: cause}
}

// UnknownVariable reports a variable that is not declared in any visible scope.
func UnknownVariable(key string) *Error {
	return New(CodeUnknownVariable, "unknown variable", key)
}

// UnknownPassage reports a passage that does not exist in the loaded story.
func UnknownPassage(passage string) *Error {
	return New(CodeUnknownPassage, "unknown passage", passage)
}

// SnapshotNotFound reports a snapshot label with no stored snapshot.
func SnapshotNotFound(label string) *Error {
	return New(CodeSnapshotMissing, "snapshot not found", label)
}

// CodeOf returns the Code of the first *Error in err's chain, CodeUnknown for
// any other non-nil error, and "" for nil.
func CodeOf(err error) Code {
	if err == nil {
		return ""
	}
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return CodeUnknown
}
