// Package persistence assembles nested plan views from the repository layer.
//
// Reads populate every level: a plan carries its phases, each phase its
// tasks, each task its dependency ids. Nested collections are never nil.
// Missing entities are reported as nil results, not errors.
package persistence

import (
	"context"
	"database/sql"
	"log/slog"

	"github.com/jonit-dev/vibe-planner-mcp-sub000/internal/database"
	"github.com/jonit-dev/vibe-planner-mcp-sub000/internal/prd"
	"github.com/jonit-dev/vibe-planner-mcp-sub000/internal/types"
)

// Service composes the DAOs into aggregate reads and writes.
type Service struct {
	db           *database.DB
	plans        *database.PlanDAO
	phases       *database.PhaseDAO
	tasks        *database.TaskDAO
	dependencies *database.DependencyDAO
	logger       *slog.Logger
}

// Option configures a Service.
type Option func(*Service)

// WithLogger sets the logger for persistence operations.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// NewService creates a Service over an open, migrated database.
func NewService(db *database.DB, options ...Option) *Service {
	s := &Service{
		db:           db,
		plans:        database.NewPlanDAO(db),
		phases:       database.NewPhaseDAO(db),
		tasks:        database.NewTaskDAO(db),
		dependencies: database.NewDependencyDAO(db),
		logger:       slog.Default(),
	}

	for _, opt := range options {
		opt(s)
	}

	return s
}

// GetPlanByID returns the fully populated plan, or nil if it does not exist.
func (s *Service) GetPlanByID(ctx context.Context, id types.ID) (*prd.Plan, error) {
	plan, err := s.plans.FindByID(ctx, id)
	if err != nil || plan == nil {
		return nil, err
	}

	if err := s.populatePlan(ctx, plan); err != nil {
		return nil, err
	}
	return plan, nil
}

// GetAllPlans returns every plan, newest first, each fully populated.
func (s *Service) GetAllPlans(ctx context.Context) ([]*prd.Plan, error) {
	plans, err := s.plans.FindAll(ctx)
	if err != nil {
		return nil, err
	}

	for _, plan := range plans {
		if err := s.populatePlan(ctx, plan); err != nil {
			return nil, err
		}
	}
	return plans, nil
}

// CreatePlan inserts a plan. The result has an empty phase list.
func (s *Service) CreatePlan(ctx context.Context, in prd.NewPlan) (*prd.Plan, error) {
	plan, err := s.plans.Create(ctx, in)
	if err != nil {
		return nil, err
	}

	s.logger.Debug("plan created", "plan_id", plan.ID, "name", plan.Name)
	return plan, nil
}

// UpdatePlan applies patch and returns the populated plan, or nil if the plan
// does not exist.
func (s *Service) UpdatePlan(ctx context.Context, id types.ID, patch prd.PlanPatch) (*prd.Plan, error) {
	updated, err := s.plans.Update(ctx, id, patch)
	if err != nil || updated == nil {
		return nil, err
	}
	return s.GetPlanByID(ctx, id)
}

// DeletePlan removes a plan and, through the cascade, everything it owns.
func (s *Service) DeletePlan(ctx context.Context, id types.ID) (bool, error) {
	var deleted bool
	err := s.db.WithTx(ctx, func(tx *sql.Tx) error {
		var err error
		deleted, err = s.plans.WithTx(tx).Delete(ctx, id)
		return err
	})
	if err != nil {
		return false, err
	}

	if deleted {
		s.logger.Debug("plan deleted", "plan_id", id)
	}
	return deleted, nil
}

// GetPhaseByID returns the phase with its tasks, or nil if it does not exist.
func (s *Service) GetPhaseByID(ctx context.Context, id types.ID) (*prd.Phase, error) {
	phase, err := s.phases.FindByID(ctx, id)
	if err != nil || phase == nil {
		return nil, err
	}

	tasks, err := s.GetTasksByPhaseID(ctx, phase.ID)
	if err != nil {
		return nil, err
	}
	phase.Tasks = tasks
	return phase, nil
}

// PhaseExists reports whether a phase row with id exists. Tasks are not
// loaded.
func (s *Service) PhaseExists(ctx context.Context, id types.ID) (bool, error) {
	phase, err := s.phases.FindByID(ctx, id)
	if err != nil {
		return false, err
	}
	return phase != nil, nil
}

// GetPhasesByPlanID returns the phases of a plan in order, each with tasks.
func (s *Service) GetPhasesByPlanID(ctx context.Context, planID types.ID) ([]*prd.Phase, error) {
	phases, err := s.phases.FindByPlanID(ctx, planID)
	if err != nil {
		return nil, err
	}

	for _, phase := range phases {
		tasks, err := s.GetTasksByPhaseID(ctx, phase.ID)
		if err != nil {
			return nil, err
		}
		phase.Tasks = tasks
	}
	return phases, nil
}

// CreatePhase inserts a phase. The result has an empty task list.
func (s *Service) CreatePhase(ctx context.Context, in prd.NewPhase) (*prd.Phase, error) {
	phase, err := s.phases.Create(ctx, in)
	if err != nil {
		return nil, err
	}

	s.logger.Debug("phase created", "phase_id", phase.ID, "plan_id", phase.PlanID, "order", phase.Order)
	return phase, nil
}

// UpdatePhase applies patch and returns the populated phase, or nil if the
// phase does not exist.
func (s *Service) UpdatePhase(ctx context.Context, id types.ID, patch prd.PhasePatch) (*prd.Phase, error) {
	updated, err := s.phases.Update(ctx, id, patch)
	if err != nil || updated == nil {
		return nil, err
	}
	return s.GetPhaseByID(ctx, id)
}

// DeletePhase removes a phase with its tasks and their dependency edges.
func (s *Service) DeletePhase(ctx context.Context, id types.ID) (bool, error) {
	var deleted bool
	err := s.db.WithTx(ctx, func(tx *sql.Tx) error {
		var err error
		deleted, err = s.phases.WithTx(tx).Delete(ctx, id)
		return err
	})
	if err != nil {
		return false, err
	}

	if deleted {
		s.logger.Debug("phase deleted", "phase_id", id)
	}
	return deleted, nil
}

// GetTaskByID returns the task with its dependency ids, or nil if it does not
// exist.
func (s *Service) GetTaskByID(ctx context.Context, id types.ID) (*prd.Task, error) {
	task, err := s.tasks.FindByID(ctx, id)
	if err != nil || task == nil {
		return nil, err
	}

	deps, err := s.dependencies.FindDependencies(ctx, id)
	if err != nil {
		return nil, err
	}
	task.Dependencies = deps
	return task, nil
}

// GetTasksByPhaseID returns the tasks of a phase in order with dependency ids
// resolved. When statuses are given, only tasks in those statuses are
// returned and the filter runs in the query.
func (s *Service) GetTasksByPhaseID(ctx context.Context, phaseID types.ID, statuses ...prd.TaskStatus) ([]*prd.Task, error) {
	tasks, err := s.tasks.FindByPhaseID(ctx, phaseID, statuses...)
	if err != nil {
		return nil, err
	}
	if len(tasks) == 0 {
		return tasks, nil
	}

	byTask, err := s.dependencies.FindByPhaseID(ctx, phaseID)
	if err != nil {
		return nil, err
	}
	for _, task := range tasks {
		if deps, ok := byTask[task.ID]; ok {
			task.Dependencies = deps
		}
	}
	return tasks, nil
}

// GetDependents returns the ids of tasks that depend on taskID.
func (s *Service) GetDependents(ctx context.Context, taskID types.ID) ([]types.ID, error) {
	return s.dependencies.FindDependents(ctx, taskID)
}

// CreateTask inserts a task row without dependency edges.
func (s *Service) CreateTask(ctx context.Context, in prd.NewTask) (*prd.Task, error) {
	return s.CreateTaskWithDependencies(ctx, in, nil)
}

// UpdateTask applies patch and returns the task with dependencies, or nil if
// the task does not exist.
func (s *Service) UpdateTask(ctx context.Context, id types.ID, patch prd.TaskPatch) (*prd.Task, error) {
	return s.UpdateTaskWithDependencies(ctx, id, patch, nil)
}

// CreateTaskWithDependencies inserts a task row and its dependency edges in
// one transaction and returns the task with dependencies. If an edge cannot
// be written the row is not kept.
func (s *Service) CreateTaskWithDependencies(ctx context.Context, in prd.NewTask, deps []types.ID) (*prd.Task, error) {
	var id types.ID
	err := s.db.WithTx(ctx, func(tx *sql.Tx) error {
		task, err := s.tasks.WithTx(tx).Create(ctx, in)
		if err != nil {
			return err
		}
		id = task.ID
		if len(deps) == 0 {
			return nil
		}
		return s.dependencies.WithTx(tx).Replace(ctx, id, deps)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Debug("task created", "task_id", id, "phase_id", in.PhaseID, "order", in.Order, "dependencies", len(deps))
	return s.GetTaskByID(ctx, id)
}

// UpdateTaskWithDependencies applies patch and, when deps is non-nil, replaces
// the dependency set, all in one transaction. Nothing is written if either
// step fails. Returns nil if the task does not exist.
func (s *Service) UpdateTaskWithDependencies(ctx context.Context, id types.ID, patch prd.TaskPatch, deps *[]types.ID) (*prd.Task, error) {
	found := false
	err := s.db.WithTx(ctx, func(tx *sql.Tx) error {
		updated, err := s.tasks.WithTx(tx).Update(ctx, id, patch)
		if err != nil || updated == nil {
			return err
		}
		found = true
		if deps == nil {
			return nil
		}
		return s.dependencies.WithTx(tx).Replace(ctx, id, *deps)
	})
	if err != nil || !found {
		return nil, err
	}

	if deps != nil {
		s.logger.Debug("task dependencies replaced", "task_id", id, "count", len(*deps))
	}
	return s.GetTaskByID(ctx, id)
}

// UpdateTaskDependencies replaces the dependency set of taskID with ids in one
// transaction. Duplicates collapse. If any id names no task the store's
// constraint error is returned and the previous set is kept.
func (s *Service) UpdateTaskDependencies(ctx context.Context, taskID types.ID, ids []types.ID) error {
	err := s.db.WithTx(ctx, func(tx *sql.Tx) error {
		return s.dependencies.WithTx(tx).Replace(ctx, taskID, ids)
	})
	if err != nil {
		return err
	}

	s.logger.Debug("task dependencies replaced", "task_id", taskID, "count", len(ids))
	return nil
}

// DeleteTask removes the task and every dependency edge touching it, in either
// direction, in one transaction.
func (s *Service) DeleteTask(ctx context.Context, id types.ID) (bool, error) {
	var deleted bool
	err := s.db.WithTx(ctx, func(tx *sql.Tx) error {
		if _, err := s.dependencies.WithTx(tx).DeleteForTask(ctx, id); err != nil {
			return err
		}
		var err error
		deleted, err = s.tasks.WithTx(tx).Delete(ctx, id)
		return err
	})
	if err != nil {
		return false, err
	}

	if deleted {
		s.logger.Debug("task deleted", "task_id", id)
	}
	return deleted, nil
}

func (s *Service) populatePlan(ctx context.Context, plan *prd.Plan) error {
	phases, err := s.GetPhasesByPlanID(ctx, plan.ID)
	if err != nil {
		return err
	}
	plan.Phases = phases
	return nil
}
