package prd

import (
	"fmt"
	"sort"
	"time"

	"github.com/jonit-dev/vibe-planner-mcp-sub000/internal/types"
)

// Task is a unit of work within a Phase.
//
// IsValidated is independent of Status: completing a task does not validate it.
// Dependencies may reference tasks in any phase of any plan.
type Task struct {
	ID                types.ID   `json:"id" yaml:"id" validate:"required,uuid"`
	PhaseID           types.ID   `json:"phaseId" yaml:"phase_id" validate:"required,uuid"`
	Name              string     `json:"name" yaml:"name" validate:"required"`
	Description       *string    `json:"description,omitempty" yaml:"description,omitempty"`
	Status            TaskStatus `json:"status" yaml:"status" validate:"required,oneof=pending in_progress completed blocked cancelled validated needs_review"`
	IsValidated       bool       `json:"isValidated" yaml:"is_validated"`
	Order             int        `json:"order" yaml:"order" validate:"gt=0"`
	Dependencies      []types.ID `json:"dependencies" yaml:"dependencies" validate:"dive,uuid"`
	ValidationCommand *string    `json:"validationCommand,omitempty" yaml:"validation_command,omitempty"`
	ValidationOutput  *string    `json:"validationOutput,omitempty" yaml:"validation_output,omitempty"`
	Notes             *string    `json:"notes,omitempty" yaml:"notes,omitempty"`
	CreationDate      time.Time  `json:"creationDate" yaml:"creation_date" validate:"required"`
	UpdatedAt         time.Time  `json:"updatedAt" yaml:"updated_at" validate:"required"`
	CompletionDate    *time.Time `json:"completionDate,omitempty" yaml:"completion_date,omitempty"`
}

// Validate checks every task field, including dependency ids.
func (t *Task) Validate() error {
	return validateStruct("task", t)
}

// SortTasks orders tasks by Order ascending. Ties keep their incoming order.
func SortTasks(tasks []*Task) {
	sort.SliceStable(tasks, func(i, j int) bool {
		return tasks[i].Order < tasks[j].Order
	})
}

// NewTask holds the caller-supplied fields for inserting a task row.
// Dependencies are written separately through the edge table.
type NewTask struct {
	PhaseID           types.ID   `json:"phaseId" validate:"required,uuid"`
	Name              string     `json:"name" validate:"required"`
	Description       *string    `json:"description,omitempty"`
	Status            TaskStatus `json:"status,omitempty" validate:"omitempty,oneof=pending in_progress completed blocked cancelled validated needs_review"`
	IsValidated       *bool      `json:"isValidated,omitempty"`
	Order             int        `json:"order" validate:"gt=0"`
	ValidationCommand *string    `json:"validationCommand,omitempty"`
	ValidationOutput  *string    `json:"validationOutput,omitempty"`
	Notes             *string    `json:"notes,omitempty"`
}

// Validate checks the creation input.
func (n *NewTask) Validate() error {
	return validateStruct("task input", n)
}

// TaskPatch is a partial update of a task row. Nil fields are left untouched.
type TaskPatch struct {
	Name                *string     `json:"name,omitempty" validate:"omitnil,min=1"`
	Description         *string     `json:"description,omitempty"`
	Status              *TaskStatus `json:"status,omitempty" validate:"omitnil,oneof=pending in_progress completed blocked cancelled validated needs_review"`
	IsValidated         *bool       `json:"isValidated,omitempty"`
	Order               *int        `json:"order,omitempty" validate:"omitnil,gt=0"`
	ValidationCommand   *string     `json:"validationCommand,omitempty"`
	ValidationOutput    *string     `json:"validationOutput,omitempty"`
	Notes               *string     `json:"notes,omitempty"`
	CompletionDate      *time.Time  `json:"completionDate,omitempty"`
	ClearCompletionDate bool        `json:"-"`
}

// IsEmpty reports whether the patch supplies no field.
func (p *TaskPatch) IsEmpty() bool {
	return p.Name == nil && p.Description == nil && p.Status == nil && p.IsValidated == nil &&
		p.Order == nil && p.ValidationCommand == nil && p.ValidationOutput == nil &&
		p.Notes == nil && p.CompletionDate == nil && !p.ClearCompletionDate
}

// Validate checks the supplied fields.
func (p *TaskPatch) Validate() error {
	return validateStruct("task update", p)
}

// ApplyTo returns a copy of task with the patch merged in. The dependency
// slice is copied so the result can be changed independently.
func (p *TaskPatch) ApplyTo(task *Task) *Task {
	merged := *task
	merged.Dependencies = append([]types.ID(nil), task.Dependencies...)
	if p.Name != nil {
		merged.Name = *p.Name
	}
	if p.Description != nil {
		merged.Description = p.Description
	}
	if p.Status != nil {
		merged.Status = *p.Status
	}
	if p.IsValidated != nil {
		merged.IsValidated = *p.IsValidated
	}
	if p.Order != nil {
		merged.Order = *p.Order
	}
	if p.ValidationCommand != nil {
		merged.ValidationCommand = p.ValidationCommand
	}
	if p.ValidationOutput != nil {
		merged.ValidationOutput = p.ValidationOutput
	}
	if p.Notes != nil {
		merged.Notes = p.Notes
	}
	if p.CompletionDate != nil {
		merged.CompletionDate = p.CompletionDate
	}
	if p.ClearCompletionDate {
		merged.CompletionDate = nil
	}
	return &merged
}

// TaskDetails is the input for adding a task to a phase.
type TaskDetails struct {
	Name              string     `json:"name"`
	Description       *string    `json:"description,omitempty"`
	Order             int        `json:"order"`
	ValidationCommand *string    `json:"validationCommand,omitempty"`
	Notes             *string    `json:"notes,omitempty"`
	Dependencies      []types.ID `json:"dependencies,omitempty"`
}

// TaskUpdate is the input for updating a task through the orchestrator. Besides
// the row fields it carries a validation outcome and an optional replacement
// dependency set (nil means "leave dependencies alone").
type TaskUpdate struct {
	TaskPatch
	ValidationOutcome *ValidationOutcome `json:"validationOutcome,omitempty"`
	Dependencies      *[]types.ID        `json:"dependencies,omitempty"`
}

// Validate checks the fields that are not covered by merged-entity validation.
func (u *TaskUpdate) Validate() error {
	if u.ValidationOutcome != nil && !u.ValidationOutcome.IsValid() {
		return types.NewValidationError("invalid task update",
			fmt.Errorf("validationOutcome must be one of [success failure] (got: %s)", *u.ValidationOutcome))
	}
	if u.Dependencies != nil {
		for _, id := range *u.Dependencies {
			if err := id.Validate(); err != nil {
				return types.NewValidationError("invalid task update",
					fmt.Errorf("dependencies: %q: %w", id, err))
			}
		}
	}
	return nil
}
