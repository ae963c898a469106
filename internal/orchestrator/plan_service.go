package orchestrator

import (
	"context"
	"errors"

	"go.opentelemetry.io/otel/attribute"

	"github.com/jonit-dev/vibe-planner-mcp-sub000/internal/persistence"
	"github.com/jonit-dev/vibe-planner-mcp-sub000/internal/prd"
	"github.com/jonit-dev/vibe-planner-mcp-sub000/internal/types"
)

// PlanService manages plan lifecycle: creation, status and detail updates,
// listing and deletion.
type PlanService struct {
	store *persistence.Service
	options
}

// NewPlanService creates a PlanService over store.
func NewPlanService(store *persistence.Service, opts ...Option) *PlanService {
	return &PlanService{store: store, options: newOptions(opts)}
}

// InitializePrd creates a new plan. The plan always starts pending; a status
// in the input is ignored.
func (s *PlanService) InitializePrd(ctx context.Context, in prd.NewPlan) (plan *prd.Plan, err error) {
	ctx, span := s.startSpan(ctx, "plan.initialize")
	defer func() { endSpan(span, err) }()

	if in.Status != "" && in.Status != prd.PlanStatusPending {
		s.logger.Debug("ignoring initial plan status", "status", in.Status)
	}
	in.Status = prd.PlanStatusPending

	plan, err = s.store.CreatePlan(ctx, in)
	if err != nil {
		return nil, err
	}

	span.SetAttributes(planAttr(plan.ID))
	s.logger.Info("plan initialized", "plan_id", plan.ID, "name", plan.Name)
	return plan, nil
}

// GetPrd returns the fully populated plan, or nil if it does not exist.
func (s *PlanService) GetPrd(ctx context.Context, id types.ID) (plan *prd.Plan, err error) {
	ctx, span := s.startSpan(ctx, "plan.get", planAttr(id))
	defer func() { endSpan(span, err) }()

	plan, err = s.store.GetPlanByID(ctx, id)
	span.SetAttributes(attribute.Bool(AttrFound, plan != nil))
	return plan, err
}

// ListPrds returns every plan, newest first.
func (s *PlanService) ListPrds(ctx context.Context) (plans []*prd.Plan, err error) {
	ctx, span := s.startSpan(ctx, "plan.list")
	defer func() { endSpan(span, err) }()

	return s.store.GetAllPlans(ctx)
}

// UpdatePrdStatus sets the plan status. Moving to completed stamps the
// completion date; moving away from completed clears it. Returns nil if the
// plan does not exist.
func (s *PlanService) UpdatePrdStatus(ctx context.Context, id types.ID, status prd.PlanStatus) (plan *prd.Plan, err error) {
	ctx, span := s.startSpan(ctx, "plan.update_status", planAttr(id), attribute.String(AttrStatus, status.String()))
	defer func() { endSpan(span, err) }()

	patch := prd.PlanPatch{Status: &status}
	if err := patch.Validate(); err != nil {
		return nil, err
	}

	existing, err := s.store.GetPlanByID(ctx, id)
	if err != nil || existing == nil {
		return nil, err
	}

	switch {
	case status == prd.PlanStatusCompleted && existing.CompletionDate == nil:
		patch.CompletionDate = s.completionNow()
	case status != prd.PlanStatusCompleted && existing.CompletionDate != nil:
		patch.ClearCompletionDate = true
	}

	plan, err = s.store.UpdatePlan(ctx, id, patch)
	if err != nil || plan == nil {
		return nil, err
	}

	s.logger.Info("plan status updated", "plan_id", id, "from", existing.Status, "to", status)
	return plan, nil
}

// UpdatePrdDetails changes the name and/or description of a plan. At least
// one must be given. Returns nil if the plan does not exist.
func (s *PlanService) UpdatePrdDetails(ctx context.Context, id types.ID, name, description *string) (plan *prd.Plan, err error) {
	ctx, span := s.startSpan(ctx, "plan.update_details", planAttr(id))
	defer func() { endSpan(span, err) }()

	if name == nil && description == nil {
		return nil, types.NewValidationError("invalid plan update",
			errors.New("either name or description must be provided"))
	}

	return s.store.UpdatePlan(ctx, id, prd.PlanPatch{Name: name, Description: description})
}

// DeletePrd removes a plan with all of its phases and tasks.
func (s *PlanService) DeletePrd(ctx context.Context, id types.ID) (deleted bool, err error) {
	ctx, span := s.startSpan(ctx, "plan.delete", planAttr(id))
	defer func() { endSpan(span, err) }()

	deleted, err = s.store.DeletePlan(ctx, id)
	if err != nil {
		return false, err
	}

	if deleted {
		s.logger.Info("plan deleted", "plan_id", id)
	}
	return deleted, nil
}

// PlanProgress summarizes task completion across a plan.
type PlanProgress struct {
	PlanID          types.ID               `json:"planId" yaml:"plan_id"`
	Phases          int                    `json:"phases" yaml:"phases"`
	Tasks           int                    `json:"tasks" yaml:"tasks"`
	Done            int                    `json:"done" yaml:"done"`
	Validated       int                    `json:"validated" yaml:"validated"`
	ByStatus        map[prd.TaskStatus]int `json:"byStatus" yaml:"by_status"`
	PercentComplete float64                `json:"percentComplete" yaml:"percent_complete"`
}

// GetPlanProgress counts the plan's tasks by status. A task is done when it is
// completed or validated. Returns nil if the plan does not exist.
func (s *PlanService) GetPlanProgress(ctx context.Context, id types.ID) (progress *PlanProgress, err error) {
	ctx, span := s.startSpan(ctx, "plan.progress", planAttr(id))
	defer func() { endSpan(span, err) }()

	plan, err := s.store.GetPlanByID(ctx, id)
	if err != nil || plan == nil {
		return nil, err
	}

	progress = &PlanProgress{
		PlanID:   plan.ID,
		Phases:   len(plan.Phases),
		ByStatus: make(map[prd.TaskStatus]int),
	}
	for _, phase := range plan.Phases {
		for _, task := range phase.Tasks {
			progress.Tasks++
			progress.ByStatus[task.Status]++
			if task.Status.IsDone() {
				progress.Done++
			}
			if task.IsValidated {
				progress.Validated++
			}
		}
	}
	if progress.Tasks > 0 {
		progress.PercentComplete = float64(progress.Done) * 100 / float64(progress.Tasks)
	}

	return progress, nil
}
