package types

import (
	"errors"
	"fmt"
)

// ErrorCode is a namespaced code carried by every PlannerError.
type ErrorCode string

// Configuration error codes
const (
	CONFIG_LOAD_FAILED       ErrorCode = "CONFIG_LOAD_FAILED"
	CONFIG_PARSE_FAILED      ErrorCode = "CONFIG_PARSE_FAILED"
	CONFIG_VALIDATION_FAILED ErrorCode = "CONFIG_VALIDATION_FAILED"
	CONFIG_NOT_FOUND         ErrorCode = "CONFIG_NOT_FOUND"
)

// Database error codes
const (
	DB_OPEN_FAILED      ErrorCode = "DB_OPEN_FAILED"
	DB_MIGRATION_FAILED ErrorCode = "DB_MIGRATION_FAILED"
	DB_QUERY_FAILED     ErrorCode = "DB_QUERY_FAILED"
)

// Planning error codes
const (
	// NOT_FOUND is never returned by the core; the core reports a missing entity
	// as a nil result. Adapters use it to build their own not-found responses.
	NOT_FOUND ErrorCode = "NOT_FOUND"

	// VALIDATION_FAILED means an input or merged entity was rejected before any write.
	VALIDATION_FAILED ErrorCode = "VALIDATION_FAILED"

	// INTEGRITY_FAULT means a row read back from the store is not a valid entity.
	INTEGRITY_FAULT ErrorCode = "INTEGRITY_FAULT"
)

// PlannerError is a structured error with a code, a message and an optional cause.
type PlannerError struct {
	Code      ErrorCode
	Message   string
	Retryable bool
	Cause     error
}

// Error formats the error as "[CODE] message" or "[CODE] message: cause".
func (e *PlannerError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause.
func (e *PlannerError) Unwrap() error {
	return e.Cause
}

// Is matches any PlannerError carrying the same code.
func (e *PlannerError) Is(target error) bool {
	var other *PlannerError
	if errors.As(target, &other) {
		return e.Code == other.Code
	}
	return false
}

// NewError creates a PlannerError without a cause.
func NewError(code ErrorCode, message string) *PlannerError {
	return &PlannerError{Code: code, Message: message}
}

// WrapError creates a PlannerError wrapping cause.
func WrapError(code ErrorCode, message string, cause error) *PlannerError {
	return &PlannerError{Code: code, Message: message, Cause: cause}
}

// NewNotFoundError builds the adapter-facing not-found error for an entity kind.
func NewNotFoundError(kind string, id ID) *PlannerError {
	return NewError(NOT_FOUND, fmt.Sprintf("%s not found: %s", kind, id))
}

// NewValidationError builds a VALIDATION_FAILED error.
func NewValidationError(message string, cause error) *PlannerError {
	return WrapError(VALIDATION_FAILED, message, cause)
}

// NewIntegrityError builds an INTEGRITY_FAULT error for a row of table.
func NewIntegrityError(table string, id string, cause error) *PlannerError {
	return WrapError(INTEGRITY_FAULT, fmt.Sprintf("invalid row in %s (id=%s)", table, id), cause)
}

// Code extracts the code of the first PlannerError in err's chain.
func Code(err error) (ErrorCode, bool) {
	var pe *PlannerError
	if errors.As(err, &pe) {
		return pe.Code, true
	}
	return "", false
}

// HasCode reports whether err's chain contains a PlannerError with code.
func HasCode(err error, code ErrorCode) bool {
	return errors.Is(err, &PlannerError{Code: code})
}

// IsNotFound reports whether err is a NOT_FOUND error.
func IsNotFound(err error) bool { return HasCode(err, NOT_FOUND) }

// IsValidationError reports whether err is a VALIDATION_FAILED error.
func IsValidationError(err error) bool { return HasCode(err, VALIDATION_FAILED) }

// IsIntegrityError reports whether err is an INTEGRITY_FAULT error.
func IsIntegrityError(err error) bool { return HasCode(err, INTEGRITY_FAULT) }
