package observability

import (
	"errors"
	"fmt"
)

// ObservabilityErrorCode represents error codes specific to observability operations.
type ObservabilityErrorCode string

const (
	// ErrExporterConnection indicates failure to set up an exporter.
	ErrExporterConnection ObservabilityErrorCode = "OBSERVABILITY_EXPORTER_CONNECTION"

	// ErrMetricsRegistration indicates failure to create a metric instrument.
	ErrMetricsRegistration ObservabilityErrorCode = "OBSERVABILITY_METRICS_REGISTRATION"

	// ErrLoggerSetup indicates the log output could not be opened.
	ErrLoggerSetup ObservabilityErrorCode = "OBSERVABILITY_LOGGER_SETUP"

	// ErrShutdownTimeout indicates a timeout occurred during graceful shutdown.
	ErrShutdownTimeout ObservabilityErrorCode = "OBSERVABILITY_SHUTDOWN_TIMEOUT"
)

// ObservabilityError is a structured error for observability setup and
// teardown, shaped like types.PlannerError.
type ObservabilityError struct {
	Code      ObservabilityErrorCode
	Message   string
	Retryable bool
	Cause     error
}

// Error returns "[CODE] message" or "[CODE] message: cause".
func (e *ObservabilityError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause.
func (e *ObservabilityError) Unwrap() error {
	return e.Cause
}

// Is matches another ObservabilityError with the same Code.
func (e *ObservabilityError) Is(target error) bool {
	var obsErr *ObservabilityError
	if errors.As(target, &obsErr) {
		return e.Code == obsErr.Code
	}
	return false
}

// NewObservabilityError creates a new non-retryable ObservabilityError.
func NewObservabilityError(code ObservabilityErrorCode, message string) *ObservabilityError {
	return &ObservabilityError{Code: code, Message: message}
}

// WrapObservabilityError creates a new ObservabilityError that wraps an existing error.
func WrapObservabilityError(code ObservabilityErrorCode, message string, cause error) *ObservabilityError {
	return &ObservabilityError{Code: code, Message: message, Cause: cause}
}

// NewExporterConnectionError creates an error for exporter connection failures.
// It is retryable since network issues are often transient.
func NewExporterConnectionError(endpoint string, cause error) *ObservabilityError {
	return &ObservabilityError{
		Code:      ErrExporterConnection,
		Message:   fmt.Sprintf("failed to connect to exporter at %s", endpoint),
		Retryable: true,
		Cause:     cause,
	}
}
