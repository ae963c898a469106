// Package orchestrator holds the planning services that sit between adapters
// and the persistence layer.
//
// PlanService and PhaseService are thin lifecycle wrappers. TaskService owns
// the status and validation coupling rules applied on task updates and the
// next-task selection walk.
//
// # Next task selection
//
// GetNextTaskForPlan walks phases in ascending order, skipping any phase that
// is not pending or in progress. Inside an eligible phase it walks tasks in
// ascending order and returns the first pending or in-progress task whose
// dependencies are all met. A dependency is met when the referenced task is
// completed or has been validated. A dependency that cannot be found is
// unmet. If an eligible phase yields nothing the walk moves to the next phase.
//
//	next, err := tasks.GetNextTaskForPlan(ctx, planID)
//	if err != nil {
//	    return err
//	}
//	if next == nil {
//	    // nothing actionable
//	}
//
// Dependency cycles are not prevented. Tasks in a cycle are never selected;
// DetectDependencyCycles reports them.
//
// # Not found
//
// Operations that target a missing plan, phase or task return a nil result
// and a nil error. Adapters decide how to present that.
package orchestrator
