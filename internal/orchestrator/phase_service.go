package orchestrator

import (
	"context"

	"go.opentelemetry.io/otel/attribute"

	"github.com/jonit-dev/vibe-planner-mcp-sub000/internal/persistence"
	"github.com/jonit-dev/vibe-planner-mcp-sub000/internal/prd"
	"github.com/jonit-dev/vibe-planner-mcp-sub000/internal/types"
)

// PhaseService manages the phases of a plan.
type PhaseService struct {
	store *persistence.Service
	options
}

// NewPhaseService creates a PhaseService over store.
func NewPhaseService(store *persistence.Service, opts ...Option) *PhaseService {
	return &PhaseService{store: store, options: newOptions(opts)}
}

// CreatePhase adds a phase to the plan. The status defaults to pending.
// Returns nil if the plan does not exist.
func (s *PhaseService) CreatePhase(ctx context.Context, planID types.ID, in prd.NewPhase) (phase *prd.Phase, err error) {
	ctx, span := s.startSpan(ctx, "phase.create", planAttr(planID))
	defer func() { endSpan(span, err) }()

	plan, err := s.store.GetPlanByID(ctx, planID)
	if err != nil || plan == nil {
		return nil, err
	}

	in.PlanID = planID
	if in.Status == "" {
		in.Status = prd.PhaseStatusPending
	}

	phase, err = s.store.CreatePhase(ctx, in)
	if err != nil {
		return nil, err
	}

	span.SetAttributes(phaseAttr(phase.ID))
	s.logger.Info("phase created", "phase_id", phase.ID, "plan_id", planID, "order", phase.Order)
	return phase, nil
}

// GetPhase returns the phase with its tasks, or nil if it does not exist.
func (s *PhaseService) GetPhase(ctx context.Context, id types.ID) (phase *prd.Phase, err error) {
	ctx, span := s.startSpan(ctx, "phase.get", phaseAttr(id))
	defer func() { endSpan(span, err) }()

	phase, err = s.store.GetPhaseByID(ctx, id)
	span.SetAttributes(attribute.Bool(AttrFound, phase != nil))
	return phase, err
}

// GetPhasesForPlan returns the plan's phases in order, each with its tasks.
func (s *PhaseService) GetPhasesForPlan(ctx context.Context, planID types.ID) (phases []*prd.Phase, err error) {
	ctx, span := s.startSpan(ctx, "phase.list", planAttr(planID))
	defer func() { endSpan(span, err) }()

	return s.store.GetPhasesByPlanID(ctx, planID)
}

// GetPhasesWithTasks is GetPhasesForPlan.
func (s *PhaseService) GetPhasesWithTasks(ctx context.Context, planID types.ID) ([]*prd.Phase, error) {
	return s.GetPhasesForPlan(ctx, planID)
}

// UpdatePhase applies patch and returns the updated phase, or nil if it does
// not exist. A status change stamps or clears the completion date the same
// way UpdatePhaseStatus does, unless the patch sets the date itself.
func (s *PhaseService) UpdatePhase(ctx context.Context, id types.ID, patch prd.PhasePatch) (phase *prd.Phase, err error) {
	ctx, span := s.startSpan(ctx, "phase.update", phaseAttr(id))
	defer func() { endSpan(span, err) }()

	if patch.Status == nil || patch.CompletionDate != nil || patch.ClearCompletionDate {
		return s.store.UpdatePhase(ctx, id, patch)
	}

	if err := patch.Validate(); err != nil {
		return nil, err
	}
	existing, err := s.store.GetPhaseByID(ctx, id)
	if err != nil || existing == nil {
		return nil, err
	}
	s.stampCompletion(&patch, existing)

	return s.store.UpdatePhase(ctx, id, patch)
}

// stampCompletion sets the completion date when patch moves the phase into
// completed, and clears it when patch moves it out.
func (s *PhaseService) stampCompletion(patch *prd.PhasePatch, existing *prd.Phase) {
	switch {
	case *patch.Status == prd.PhaseStatusCompleted && existing.CompletionDate == nil:
		patch.CompletionDate = s.completionNow()
	case *patch.Status != prd.PhaseStatusCompleted && existing.CompletionDate != nil:
		patch.ClearCompletionDate = true
	}
}

// UpdatePhaseStatus sets the phase status, stamping or clearing the
// completion date like UpdatePrdStatus.
func (s *PhaseService) UpdatePhaseStatus(ctx context.Context, id types.ID, status prd.PhaseStatus) (phase *prd.Phase, err error) {
	ctx, span := s.startSpan(ctx, "phase.update_status", phaseAttr(id), attribute.String(AttrStatus, status.String()))
	defer func() { endSpan(span, err) }()

	patch := prd.PhasePatch{Status: &status}
	if err := patch.Validate(); err != nil {
		return nil, err
	}

	existing, err := s.store.GetPhaseByID(ctx, id)
	if err != nil || existing == nil {
		return nil, err
	}

	s.stampCompletion(&patch, existing)

	phase, err = s.store.UpdatePhase(ctx, id, patch)
	if err != nil || phase == nil {
		return nil, err
	}

	s.logger.Info("phase status updated", "phase_id", id, "from", existing.Status, "to", status)
	return phase, nil
}

// DeletePhase removes the phase and its tasks.
func (s *PhaseService) DeletePhase(ctx context.Context, id types.ID) (deleted bool, err error) {
	ctx, span := s.startSpan(ctx, "phase.delete", phaseAttr(id))
	defer func() { endSpan(span, err) }()

	deleted, err = s.store.DeletePhase(ctx, id)
	if err != nil {
		return false, err
	}
	if deleted {
		s.logger.Info("phase deleted", "phase_id", id)
	}
	return deleted, nil
}
