package internal

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"

	"github.com/jonit-dev/vibe-planner-mcp-sub000/internal/types"
)

func TestCLIError(t *testing.T) {
	assert.Equal(t, "something went wrong", NewCLIError(ExitError, "something went wrong").Error())

	cause := errors.New("underlying error")
	err := WrapError(ExitError, "operation failed", cause)
	assert.Equal(t, "operation failed: underlying error", err.Error())
	assert.Same(t, cause, errors.Unwrap(err))
}

func TestNotFound(t *testing.T) {
	id := types.NewID()
	err := NotFound("plan", id)

	assert.Equal(t, ExitNotFound, err.Code)
	assert.True(t, types.IsNotFound(err))
	assert.Contains(t, err.Error(), id.String())
}

func TestHandleError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{name: "nil", err: nil, want: ExitSuccess},
		{name: "cancelled", err: fmt.Errorf("run: %w", context.Canceled), want: ExitCancelled},
		{name: "cli error", err: NewCLIError(ExitConfigError, "bad"), want: ExitConfigError},
		{name: "not found", err: NotFound("task", types.NewID()), want: ExitNotFound},
		{name: "validation", err: types.NewValidationError("bad input", errors.New("name is required")), want: ExitValidation},
		{name: "config", err: types.NewError(types.CONFIG_LOAD_FAILED, "x"), want: ExitConfigError},
		{name: "database", err: types.NewError(types.DB_QUERY_FAILED, "x"), want: ExitDatabaseError},
		{name: "integrity", err: types.NewIntegrityError("tasks", "id", errors.New("x")), want: ExitDatabaseError},
		{name: "plain", err: errors.New("boom"), want: ExitError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cmd := &cobra.Command{}
			var stderr bytes.Buffer
			cmd.SetErr(&stderr)

			assert.Equal(t, tt.want, HandleError(cmd, tt.err))
			if tt.err != nil {
				assert.NotEmpty(t, stderr.String())
			}
		})
	}
}
