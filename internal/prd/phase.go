package prd

import (
	"sort"
	"time"

	"github.com/jonit-dev/vibe-planner-mcp-sub000/internal/types"
)

// Phase is an ordered stage within a Plan.
type Phase struct {
	ID             types.ID    `json:"id" yaml:"id" validate:"required,uuid"`
	PlanID         types.ID    `json:"planId" yaml:"plan_id" validate:"required,uuid"`
	Name           string      `json:"name" yaml:"name" validate:"required"`
	Description    *string     `json:"description,omitempty" yaml:"description,omitempty"`
	Status         PhaseStatus `json:"status" yaml:"status" validate:"required,oneof=pending in_progress completed on_hold"`
	Order          int         `json:"order" yaml:"order" validate:"gt=0"`
	Tasks          []*Task     `json:"tasks" yaml:"tasks"`
	CreationDate   time.Time   `json:"creationDate" yaml:"creation_date" validate:"required"`
	UpdatedAt      time.Time   `json:"updatedAt" yaml:"updated_at" validate:"required"`
	CompletionDate *time.Time  `json:"completionDate,omitempty" yaml:"completion_date,omitempty"`
}

// Validate checks the phase's own fields. Nested tasks are not traversed.
func (p *Phase) Validate() error {
	return validateStruct("phase", p)
}

// SortPhases orders phases by Order ascending. Ties keep their incoming order.
func SortPhases(phases []*Phase) {
	sort.SliceStable(phases, func(i, j int) bool {
		return phases[i].Order < phases[j].Order
	})
}

// NewPhase holds the caller-supplied fields for creating a phase.
type NewPhase struct {
	PlanID      types.ID    `json:"planId" yaml:"plan_id" validate:"required,uuid"`
	Name        string      `json:"name" yaml:"name" validate:"required"`
	Description *string     `json:"description,omitempty" yaml:"description,omitempty"`
	Order       int         `json:"order" yaml:"order" validate:"gt=0"`
	Status      PhaseStatus `json:"status,omitempty" yaml:"status,omitempty" validate:"omitempty,oneof=pending in_progress completed on_hold"`
}

// Validate checks the creation input.
func (n *NewPhase) Validate() error {
	return validateStruct("phase input", n)
}

// PhasePatch is a partial update. Nil fields are left untouched.
type PhasePatch struct {
	Name                *string      `json:"name,omitempty" validate:"omitnil,min=1"`
	Description         *string      `json:"description,omitempty"`
	Status              *PhaseStatus `json:"status,omitempty" validate:"omitnil,oneof=pending in_progress completed on_hold"`
	Order               *int         `json:"order,omitempty" validate:"omitnil,gt=0"`
	CompletionDate      *time.Time   `json:"completionDate,omitempty"`
	ClearCompletionDate bool         `json:"-"`
}

// IsEmpty reports whether the patch supplies no field.
func (p *PhasePatch) IsEmpty() bool {
	return p.Name == nil && p.Description == nil && p.Status == nil && p.Order == nil &&
		p.CompletionDate == nil && !p.ClearCompletionDate
}

// Validate checks the supplied fields.
func (p *PhasePatch) Validate() error {
	return validateStruct("phase update", p)
}

// ApplyTo returns a copy of phase with the patch merged in.
func (p *PhasePatch) ApplyTo(phase *Phase) *Phase {
	merged := *phase
	if p.Name != nil {
		merged.Name = *p.Name
	}
	if p.Description != nil {
		merged.Description = p.Description
	}
	if p.Status != nil {
		merged.Status = *p.Status
	}
	if p.Order != nil {
		merged.Order = *p.Order
	}
	if p.CompletionDate != nil {
		merged.CompletionDate = p.CompletionDate
	}
	if p.ClearCompletionDate {
		merged.CompletionDate = nil
	}
	return &merged
}
