package errors

import (
	"errors"
	"fmt"
	"time"
)

// Error types for the completion pipeline. All of them except
// ErrorTypeConfig and ErrorTypeInternal are non-fatal: hosts turn them into
// an empty completion list.
type ErrorType string

const (
	// Pipeline outcomes
	ErrorTypeNotInMagentoProject     ErrorType = "not_in_magento_project"
	ErrorTypeUnresolvedClass         ErrorType = "unresolved_class"
	ErrorTypePathNotFound            ErrorType = "path_not_found"
	ErrorTypeMalformedSource         ErrorType = "malformed_source"
	ErrorTypeExternalToolUnavailable ErrorType = "external_tool_unavailable"

	// Configuration errors
	ErrorTypeConfig ErrorType = "config"

	// Internal errors
	ErrorTypeInternal ErrorType = "internal"
)

// Sentinels for errors.Is comparisons
var (
	ErrNotInMagentoProject     = &EngineError{Type: ErrorTypeNotInMagentoProject}
	ErrUnresolvedClass         = &EngineError{Type: ErrorTypeUnresolvedClass}
	ErrPathNotFound            = &EngineError{Type: ErrorTypePathNotFound}
	ErrMalformedSource         = &EngineError{Type: ErrorTypeMalformedSource}
	ErrExternalToolUnavailable = &EngineError{Type: ErrorTypeExternalToolUnavailable}
)

// EngineError carries the reason a completion or lookup produced nothing
type EngineError struct {
	Type       ErrorType
	Operation  string
	Subject    string // class name, path or token text the operation was about
	Underlying error
	Timestamp  time.Time
}

// New creates an engine error with context
func New(errType ErrorType, op, subject string, err error) *EngineError {
	return &EngineError{
		Type:       errType,
		Operation:  op,
		Subject:    subject,
		Underlying: err,
		Timestamp:  time.Now(),
	}
}

// Error implements the error interface
func (e *EngineError) Error() string {
	msg := string(e.Type)
	if e.Operation != "" {
		msg = fmt.Sprintf("%s: %s", e.Operation, msg)
	}
	if e.Subject != "" {
		msg = fmt.Sprintf("%s (%s)", msg, e.Subject)
	}
	if e.Underlying != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Underlying)
	}
	return msg
}

// Unwrap returns the underlying error for errors.Is/As
func (e *EngineError) Unwrap() error {
	return e.Underlying
}

// Is matches any EngineError of the same type, so sentinels compare by kind
func (e *EngineError) Is(target error) bool {
	var t *EngineError
	if !errors.As(target, &t) {
		return false
	}
	return t.Type == e.Type
}

// IsFatal reports whether the host should surface the error rather than
// silently return an empty result
func (e *EngineError) IsFatal() bool {
	return e.Type == ErrorTypeConfig || e.Type == ErrorTypeInternal
}

// IsType checks if err is an EngineError of the given type
func IsType(err error, errType ErrorType) bool {
	var ee *EngineError
	if errors.As(err, &ee) {
		return ee.Type == errType
	}
	return false
}

// TypeOf returns the ErrorType of err, or ErrorTypeInternal for foreign errors
func TypeOf(err error) ErrorType {
	var ee *EngineError
	if errors.As(err, &ee) {
		return ee.Type
	}
	return ErrorTypeInternal
}

// ConfigError represents a configuration error
type ConfigError struct {
	Field      string
	Value      string
	Underlying error
	Timestamp  time.Time
}

// NewConfigError creates a new config error
func NewConfigError(field, value string, err error) *ConfigError {
	return &ConfigError{
		Field:      field,
		Value:      value,
		Underlying: err,
		Timestamp:  time.Now(),
	}
}

// Error implements the error interface
func (e *ConfigError) Error() string {
	return fmt.Sprintf("config error for field %s (value %s): %v", e.Field, e.Value, e.Underlying)
}

// Unwrap returns the underlying error
func (e *ConfigError) Unwrap() error {
	return e.Underlying
}

// MultiError represents multiple errors
type MultiError struct {
	Errors []error
}

// NewMultiError creates a new multi-error
func NewMultiError(errs []error) *MultiError {
	filtered := make([]error, 0, len(errs))
	for _, err := range errs {
		if err != nil {
			filtered = append(filtered, err)
		}
	}
	return &MultiError{Errors: filtered}
}

// Error implements the error interface
func (e *MultiError) Error() string {
	if len(e.Errors) == 0 {
		return "no errors"
	}
	if len(e.Errors) == 1 {
		return e.Errors[0].Error()
	}
	return fmt.Sprintf("%d errors: %v", len(e.Errors), e.Errors)
}

// Unwrap returns all errors
func (e *MultiError) Unwrap() []error {
	return e.Errors
}
