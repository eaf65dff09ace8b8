// Package errors provides the structured error system for gridstore with
// error codes, categories, and context.
package errors

import (
	"fmt"
	"strings"
	"time"
)

// ErrorCode identifies a class of failure in gridstore operations.
type ErrorCode string

const (
	// Configuration errors
	ErrCodeInvalidConfig ErrorCode = "INVALID_CONFIG"
	ErrCodeMissingConfig ErrorCode = "MISSING_CONFIG"
	ErrCodeInvalidLayout ErrorCode = "INVALID_LAYOUT"
	ErrCodeAmbiguousPath ErrorCode = "AMBIGUOUS_PATH"

	// Resource errors. RESOURCE_MISSING means the path or cell does not
	// exist; RESOURCE_UNAVAILABLE means it exists but cannot be opened.
	ErrCodeResourceMissing     ErrorCode = "RESOURCE_MISSING"
	ErrCodeResourceUnavailable ErrorCode = "RESOURCE_UNAVAILABLE"
	ErrCodeResourceClosed      ErrorCode = "RESOURCE_CLOSED"

	// Data errors
	ErrCodeReadFailure  ErrorCode = "READ_FAILURE"
	ErrCodeWriteFailure ErrorCode = "WRITE_FAILURE"
	ErrCodeInvalidData  ErrorCode = "INVALID_DATA"
	ErrCodeNotSupported ErrorCode = "NOT_SUPPORTED"

	// Lookup results. NOT_FOUND is a legitimate negative answer from a
	// spatial query, not a fault of the storage layer.
	ErrCodeNotFound      ErrorCode = "NOT_FOUND"
	ErrCodeFieldNotFound ErrorCode = "FIELD_NOT_FOUND"

	// Internal errors
	ErrCodeInternalError ErrorCode = "INTERNAL_ERROR"
)

// ErrorCategory groups error codes by the subsystem they originate from.
type ErrorCategory string

const (
	CategoryConfiguration ErrorCategory = "configuration"
	CategoryResource      ErrorCategory = "resource"
	CategoryData          ErrorCategory = "data"
	CategoryLookup        ErrorCategory = "lookup"
	CategoryInternal      ErrorCategory = "internal"
)

// Error is the structured error type returned by all gridstore packages.
type Error struct {
	Code     ErrorCode     `json:"code"`
	Category ErrorCategory `json:"category"`
	Message  string        `json:"message"`

	// Context carries operation-specific key/value pairs such as the
	// resolved path, cell id, or reference timestamp.
	Context   map[string]string `json:"context,omitempty"`
	Cause     error             `json:"-"`
	Timestamp time.Time         `json:"timestamp"`

	Component string `json:"component,omitempty"`
	Operation string `json:"operation,omitempty"`
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Component != "" {
		if e.Operation != "" {
			return fmt.Sprintf("[%s:%s] %s: %s", e.Component, e.Operation, e.Code, e.Message)
		}
		return fmt.Sprintf("[%s] %s: %s", e.Component, e.Code, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause for errors.Is/errors.As chains.
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is reports whether target is a gridstore error with the same code.
func (e *Error) Is(target error) bool {
	if other, ok := target.(*Error); ok {
		return e.Code == other.Code
	}
	return false
}

// String returns a detailed representation for logging.
func (e *Error) String() string {
	parts := []string{
		fmt.Sprintf("Code=%s", e.Code),
		fmt.Sprintf("Category=%s", e.Category),
		fmt.Sprintf("Message=%q", e.Message),
	}
	if e.Component != "" {
		parts = append(parts, fmt.Sprintf("Component=%s", e.Component))
	}
	if e.Operation != "" {
		parts = append(parts, fmt.Sprintf("Operation=%s", e.Operation))
	}
	for k, v := range e.Context {
		parts = append(parts, fmt.Sprintf("%s=%q", k, v))
	}
	if e.Cause != nil {
		parts = append(parts, fmt.Sprintf("Cause=%q", e.Cause.Error()))
	}
	return fmt.Sprintf("Error{%s}", strings.Join(parts, ", "))
}

// New creates a structured error with the given code and message.
func New(code ErrorCode, message string) *Error {
	return &Error{
		Code:      code,
		Category:  CategoryOf(code),
		Message:   message,
		Timestamp: time.Now(),
	}
}

// Newf creates a structured error with a formatted message.
func Newf(code ErrorCode, format string, args ...interface{}) *Error {
	return New(code, fmt.Sprintf(format, args...))
}

// Wrap creates a structured error with an underlying cause.
func Wrap(code ErrorCode, message string, cause error) *Error {
	e := New(code, message)
	e.Cause = cause
	return e
}

// CategoryOf determines the category for an error code.
func CategoryOf(code ErrorCode) ErrorCategory {
	s := string(code)
	switch {
	case strings.HasPrefix(s, "INVALID_CONFIG") || strings.HasPrefix(s, "MISSING_CONFIG") ||
		strings.HasPrefix(s, "INVALID_LAYOUT") || strings.HasPrefix(s, "AMBIGUOUS_"):
		return CategoryConfiguration
	case strings.HasPrefix(s, "RESOURCE_"):
		return CategoryResource
	case strings.HasPrefix(s, "READ_") || strings.HasPrefix(s, "WRITE_") ||
		strings.HasPrefix(s, "INVALID_DATA") || strings.HasPrefix(s, "NOT_SUPPORTED"):
		return CategoryData
	case strings.HasSuffix(s, "NOT_FOUND"):
		return CategoryLookup
	default:
		return CategoryInternal
	}
}

// WithContext adds a key/value pair to the error context.
func (e *Error) WithContext(key, value string) *Error {
	if e.Context == nil {
		e.Context = make(map[string]string)
	}
	e.Context[key] = value
	return e
}

// WithComponent sets the component that produced the error.
func (e *Error) WithComponent(component string) *Error {
	e.Component = component
	return e
}

// WithOperation sets the operation during which the error occurred.
func (e *Error) WithOperation(operation string) *Error {
	e.Operation = operation
	return e
}

// WithCause sets the underlying cause.
func (e *Error) WithCause(cause error) *Error {
	e.Cause = cause
	return e
}

// WithPath records the resolved file path in the error context.
func (e *Error) WithPath(path string) *Error {
	return e.WithContext("path", path)
}

// Code extracts the error code from err, walking the cause chain.
// Returns ErrCodeInternalError for nil-safe non-gridstore errors.
func Code(err error) ErrorCode {
	for err != nil {
		if ge, ok := err.(*Error); ok {
			return ge.Code
		}
		u, ok := err.(interface{ Unwrap() error })
		if !ok {
			break
		}
		err = u.Unwrap()
	}
	return ErrCodeInternalError
}

// IsCode reports whether err carries the given code anywhere in its chain.
func IsCode(err error, code ErrorCode) bool {
	for err != nil {
		if ge, ok := err.(*Error); ok && ge.Code == code {
			return true
		}
		u, ok := err.(interface{ Unwrap() error })
		if !ok {
			return false
		}
		err = u.Unwrap()
	}
	return false
}

// IsMissing reports whether err means the underlying file or cell does not
// exist, as opposed to existing but being unreadable.
func IsMissing(err error) bool {
	return IsCode(err, ErrCodeResourceMissing)
}

// IsUnavailable reports whether err means the resource could not be opened
// for any reason, missing or otherwise.
func IsUnavailable(err error) bool {
	return IsCode(err, ErrCodeResourceMissing) || IsCode(err, ErrCodeResourceUnavailable)
}

// IsNotFound reports whether err is a negative lookup result.
func IsNotFound(err error) bool {
	return IsCode(err, ErrCodeNotFound) || IsCode(err, ErrCodeFieldNotFound)
}

// IsReadFailure reports whether err means the resource was opened but its
// content could not be decoded.
func IsReadFailure(err error) bool {
	return IsCode(err, ErrCodeReadFailure)
}
