package internal

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jonit-dev/vibe-planner-mcp-sub000/internal/types"
)

// Exit code constants for the CLI
const (
	// ExitSuccess indicates successful execution
	ExitSuccess = 0
	// ExitError indicates a general error
	ExitError = 1
	// ExitValidation indicates the input or the resulting entity was rejected
	ExitValidation = 2
	// ExitNotFound indicates the requested plan, phase or task does not exist
	ExitNotFound = 3
	// ExitCancelled indicates the operation was cancelled
	ExitCancelled = 4
	// ExitConfigError indicates a configuration error
	ExitConfigError = 10
	// ExitDatabaseError indicates a database error
	ExitDatabaseError = 12
)

// CLIError represents a CLI-specific error with an exit code
type CLIError struct {
	Code    int
	Message string
	Cause   error
}

// Error implements the error interface
func (e *CLIError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

// Unwrap returns the underlying cause error
func (e *CLIError) Unwrap() error {
	return e.Cause
}

// WrapError creates a new CLIError wrapping an existing error
func WrapError(code int, message string, err error) *CLIError {
	return &CLIError{
		Code:    code,
		Message: message,
		Cause:   err,
	}
}

// NewCLIError creates a new CLIError with the given code and message
func NewCLIError(code int, message string) *CLIError {
	return &CLIError{
		Code:    code,
		Message: message,
	}
}

// NotFound reports a missing entity of kind.
func NotFound(kind string, id types.ID) *CLIError {
	return WrapError(ExitNotFound, fmt.Sprintf("%s not found", kind), types.NewNotFoundError(kind, id))
}

// HandleError prints err to the command's error output and returns the exit
// code for it.
func HandleError(cmd *cobra.Command, err error) int {
	if err == nil {
		return ExitSuccess
	}

	if errors.Is(err, context.Canceled) {
		cmd.PrintErrln("Operation cancelled")
		return ExitCancelled
	}

	var cliErr *CLIError
	if errors.As(err, &cliErr) {
		cmd.PrintErrln("Error:", cliErr.Message)
		if cliErr.Cause != nil && verbose(cmd) {
			cmd.PrintErrln("Cause:", cliErr.Cause)
		}
		return cliErr.Code
	}

	cmd.PrintErrln("Error:", err)
	return ExitCodeFor(err)
}

// ExitCodeFor maps a planner error code to an exit code.
func ExitCodeFor(err error) int {
	code, ok := types.Code(err)
	if !ok {
		return ExitError
	}

	switch {
	case code == types.NOT_FOUND:
		return ExitNotFound
	case code == types.VALIDATION_FAILED:
		return ExitValidation
	case strings.HasPrefix(string(code), "CONFIG_"):
		return ExitConfigError
	case strings.HasPrefix(string(code), "DB_"), code == types.INTEGRITY_FAULT:
		return ExitDatabaseError
	default:
		return ExitError
	}
}

func verbose(cmd *cobra.Command) bool {
	flag := cmd.Flag("verbose")
	return flag != nil && flag.Changed
}

// IsVerbose checks if verbose mode is enabled via environment variable or flag
// This is used for panic recovery to determine if stack traces should be shown
func IsVerbose() bool {
	if os.Getenv("VIBEPLANNER_VERBOSE") != "" {
		return true
	}

	for _, arg := range os.Args {
		if arg == "-v" || arg == "--verbose" {
			return true
		}
	}

	return false
}
