// Package prd defines the planning entities: a Plan holds ordered Phases and
// each Phase holds ordered Tasks linked by dependency edges.
//
// Ownership is by foreign key. The nested Phases and Tasks slices are views
// filled in on read and are never persisted from these structs.
package prd

import (
	"time"

	"github.com/jonit-dev/vibe-planner-mcp-sub000/internal/types"
)

// Plan is the top-level container of phases (formerly "PRD").
type Plan struct {
	ID             types.ID   `json:"id" yaml:"id" validate:"required,uuid"`
	Name           string     `json:"name" yaml:"name" validate:"required"`
	Description    *string    `json:"description,omitempty" yaml:"description,omitempty"`
	Status         PlanStatus `json:"status" yaml:"status" validate:"required,oneof=pending in_progress completed on_hold"`
	Phases         []*Phase   `json:"phases" yaml:"phases"`
	CreationDate   time.Time  `json:"creationDate" yaml:"creation_date" validate:"required"`
	UpdatedAt      time.Time  `json:"updatedAt" yaml:"updated_at" validate:"required"`
	CompletionDate *time.Time `json:"completionDate,omitempty" yaml:"completion_date,omitempty"`
}

// Validate checks the plan's own fields. Nested phases are not traversed.
func (p *Plan) Validate() error {
	return validateStruct("plan", p)
}

// NewPlan holds the caller-supplied fields for creating a plan. A zero Status
// leaves the column to the store default.
type NewPlan struct {
	Name        string     `json:"name" yaml:"name" validate:"required"`
	Description *string    `json:"description,omitempty" yaml:"description,omitempty"`
	Status      PlanStatus `json:"status,omitempty" yaml:"status,omitempty" validate:"omitempty,oneof=pending in_progress completed on_hold"`
}

// Validate checks the creation input.
func (n *NewPlan) Validate() error {
	return validateStruct("plan input", n)
}

// PlanPatch is a partial update. Nil fields are left untouched.
type PlanPatch struct {
	Name                *string     `json:"name,omitempty" validate:"omitnil,min=1"`
	Description         *string     `json:"description,omitempty"`
	Status              *PlanStatus `json:"status,omitempty" validate:"omitnil,oneof=pending in_progress completed on_hold"`
	CompletionDate      *time.Time  `json:"completionDate,omitempty"`
	ClearCompletionDate bool        `json:"-"`
}

// IsEmpty reports whether the patch supplies no field.
func (p *PlanPatch) IsEmpty() bool {
	return p.Name == nil && p.Description == nil && p.Status == nil &&
		p.CompletionDate == nil && !p.ClearCompletionDate
}

// Validate checks the supplied fields.
func (p *PlanPatch) Validate() error {
	return validateStruct("plan update", p)
}

// ApplyTo returns a copy of plan with the patch merged in.
func (p *PlanPatch) ApplyTo(plan *Plan) *Plan {
	merged := *plan
	if p.Name != nil {
		merged.Name = *p.Name
	}
	if p.Description != nil {
		merged.Description = p.Description
	}
	if p.Status != nil {
		merged.Status = *p.Status
	}
	if p.CompletionDate != nil {
		merged.CompletionDate = p.CompletionDate
	}
	if p.ClearCompletionDate {
		merged.CompletionDate = nil
	}
	return &merged
}

// Ptr returns a pointer to v. It keeps optional-field literals short.
func Ptr[T any](v T) *T {
	return &v
}
