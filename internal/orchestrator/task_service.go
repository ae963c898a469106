package orchestrator

import (
	"context"
	"sort"
	"strings"

	"go.opentelemetry.io/otel/attribute"

	"github.com/jonit-dev/vibe-planner-mcp-sub000/internal/observability"
	"github.com/jonit-dev/vibe-planner-mcp-sub000/internal/persistence"
	"github.com/jonit-dev/vibe-planner-mcp-sub000/internal/prd"
	"github.com/jonit-dev/vibe-planner-mcp-sub000/internal/types"
)

// TaskService manages tasks and picks the next actionable task of a plan.
type TaskService struct {
	store *persistence.Service
	options
}

// NewTaskService creates a TaskService over store.
func NewTaskService(store *persistence.Service, opts ...Option) *TaskService {
	return &TaskService{store: store, options: newOptions(opts)}
}

// AddTaskToPhase creates a pending, unvalidated task in the phase. When
// dependencies are given they are written after the row in the same
// transaction and the task is re-read. Returns nil if the phase does not
// exist.
func (s *TaskService) AddTaskToPhase(ctx context.Context, phaseID types.ID, details prd.TaskDetails) (task *prd.Task, err error) {
	ctx, span := s.startSpan(ctx, "task.add", phaseAttr(phaseID))
	defer func() { endSpan(span, err) }()

	exists, err := s.store.PhaseExists(ctx, phaseID)
	if err != nil || !exists {
		return nil, err
	}

	task, err = s.store.CreateTaskWithDependencies(ctx, prd.NewTask{
		PhaseID:           phaseID,
		Name:              details.Name,
		Description:       details.Description,
		Status:            prd.TaskStatusPending,
		IsValidated:       prd.Ptr(false),
		Order:             details.Order,
		ValidationCommand: details.ValidationCommand,
		Notes:             details.Notes,
	}, details.Dependencies)
	if err != nil {
		return nil, err
	}
	span.SetAttributes(taskAttr(task.ID))

	s.logger.Info("task added", "task_id", task.ID, "phase_id", phaseID, "order", task.Order,
		"dependencies", len(task.Dependencies))
	return task, nil
}

// GetTask returns the task with its dependencies, or nil if it does not exist.
func (s *TaskService) GetTask(ctx context.Context, id types.ID) (task *prd.Task, err error) {
	ctx, span := s.startSpan(ctx, "task.get", taskAttr(id))
	defer func() { endSpan(span, err) }()

	task, err = s.store.GetTaskByID(ctx, id)
	span.SetAttributes(attribute.Bool(AttrFound, task != nil))
	return task, err
}

// GetDependents returns the ids of tasks that depend on id. The result is
// empty, not nil, when nothing does or the task does not exist.
func (s *TaskService) GetDependents(ctx context.Context, id types.ID) (dependents []types.ID, err error) {
	ctx, span := s.startSpan(ctx, "task.dependents", taskAttr(id))
	defer func() { endSpan(span, err) }()

	return s.store.GetDependents(ctx, id)
}

// GetTasksForPhase returns the phase's tasks in order, optionally limited to
// the given statuses.
func (s *TaskService) GetTasksForPhase(ctx context.Context, phaseID types.ID, statuses ...prd.TaskStatus) (tasks []*prd.Task, err error) {
	ctx, span := s.startSpan(ctx, "task.list", phaseAttr(phaseID))
	defer func() { endSpan(span, err) }()

	return s.store.GetTasksByPhaseID(ctx, phaseID, statuses...)
}

// DeleteTask removes the task and every dependency edge touching it.
func (s *TaskService) DeleteTask(ctx context.Context, id types.ID) (deleted bool, err error) {
	ctx, span := s.startSpan(ctx, "task.delete", taskAttr(id))
	defer func() { endSpan(span, err) }()

	deleted, err = s.store.DeleteTask(ctx, id)
	if err != nil {
		return false, err
	}
	if deleted {
		s.logger.Info("task deleted", "task_id", id)
	}
	return deleted, nil
}

// UpdateTask applies update to the task. Status and IsValidated are coupled,
// first matching rule wins:
//
//  1. outcome success forces status validated and IsValidated true
//  2. outcome failure forces status needs_review and IsValidated false
//  3. status validated forces IsValidated true
//  4. leaving validated without an explicit IsValidated resets it to false
//  5. an explicit IsValidated is kept as given
//
// A status change to completed or validated stamps the completion date; any
// other status clears it. The merged task is validated before anything is
// written, and the row and dependency set are written in one transaction, so
// an error leaves the task unchanged. Returns nil if the task does not exist.
func (s *TaskService) UpdateTask(ctx context.Context, id types.ID, update prd.TaskUpdate) (task *prd.Task, err error) {
	ctx, span := s.startSpan(ctx, "task.update", taskAttr(id))
	defer func() { endSpan(span, err) }()

	if err := update.Validate(); err != nil {
		return nil, err
	}

	existing, err := s.store.GetTaskByID(ctx, id)
	if err != nil || existing == nil {
		return nil, err
	}

	patch := update.TaskPatch
	applyValidationRules(&patch, update.ValidationOutcome, existing.Status)
	if patch.Status != nil && patch.CompletionDate == nil && !patch.ClearCompletionDate {
		switch {
		case patch.Status.IsDone() && existing.CompletionDate == nil:
			patch.CompletionDate = s.completionNow()
		case !patch.Status.IsDone() && existing.CompletionDate != nil:
			patch.ClearCompletionDate = true
		}
	}

	merged := patch.ApplyTo(existing)
	if update.Dependencies != nil {
		merged.Dependencies = append([]types.ID{}, (*update.Dependencies)...)
	}
	if err := merged.Validate(); err != nil {
		return nil, err
	}

	task, err = s.store.UpdateTaskWithDependencies(ctx, id, patch, update.Dependencies)
	if err != nil || task == nil {
		return nil, err
	}

	s.metrics.StatusTransition(ctx, existing.Status.String(), task.Status.String())
	if update.ValidationOutcome != nil {
		s.metrics.Validation(ctx, string(*update.ValidationOutcome))
	}
	if existing.Status != task.Status {
		span.SetAttributes(attribute.String(AttrStatus, task.Status.String()))
		s.logger.Info("task status updated", "task_id", id, "from", existing.Status, "to", task.Status)
	}
	return task, nil
}

// applyValidationRules rewrites the status and IsValidated fields of patch
// following the precedence documented on UpdateTask.
func applyValidationRules(patch *prd.TaskPatch, outcome *prd.ValidationOutcome, prior prd.TaskStatus) {
	switch {
	case outcome != nil && *outcome == prd.ValidationSuccess:
		patch.Status = prd.Ptr(prd.TaskStatusValidated)
		patch.IsValidated = prd.Ptr(true)
	case outcome != nil && *outcome == prd.ValidationFailure:
		patch.Status = prd.Ptr(prd.TaskStatusNeedsReview)
		patch.IsValidated = prd.Ptr(false)
	case patch.Status != nil && *patch.Status == prd.TaskStatusValidated:
		patch.IsValidated = prd.Ptr(true)
	case patch.Status != nil && patch.IsValidated == nil && prior == prd.TaskStatusValidated:
		patch.IsValidated = prd.Ptr(false)
	}
}

// GetNextTaskForPlan returns the first workable task of the plan whose
// dependencies are all met, or nil if there is none.
//
// Phases are visited by order and only pending or in_progress phases are
// considered. Within a phase, pending and in_progress tasks are tried by order.
// A dependency is met when the task it names is completed or validated; a
// dependency naming no task is unmet.
func (s *TaskService) GetNextTaskForPlan(ctx context.Context, planID types.ID) (task *prd.Task, err error) {
	ctx, span := s.startSpan(ctx, "task.next", planAttr(planID))
	defer func() {
		if err == nil {
			span.SetAttributes(attribute.Bool(AttrFound, task != nil))
			if task != nil {
				span.SetAttributes(taskAttr(task.ID), phaseAttr(task.PhaseID))
			}
			s.metrics.TaskSelected(ctx, task != nil)
		}
		endSpan(span, err)
	}()

	logger := observability.WithTraceContext(ctx, s.logger)

	phases, err := s.store.GetPhasesByPlanID(ctx, planID)
	if err != nil {
		return nil, err
	}
	if len(phases) == 0 {
		logger.Debug("plan has no phases", "plan_id", planID)
		return nil, nil
	}

	phases = append([]*prd.Phase(nil), phases...)
	prd.SortPhases(phases)

	deps := newDependencyResolver(s.store, phases)
	for _, phase := range phases {
		if !phase.Status.IsWorkable() {
			logger.Debug("skipping phase", "phase_id", phase.ID, "status", phase.Status)
			continue
		}
		if len(phase.Tasks) == 0 {
			continue
		}

		tasks := append([]*prd.Task(nil), phase.Tasks...)
		prd.SortTasks(tasks)

		for _, candidate := range tasks {
			if !candidate.Status.IsWorkable() {
				continue
			}

			met, err := deps.allMet(ctx, candidate)
			if err != nil {
				return nil, err
			}
			if !met {
				logger.Debug("task has unmet dependencies", "task_id", candidate.ID)
				continue
			}

			logger.Debug("next task selected", "task_id", candidate.ID, "phase_id", phase.ID)
			return candidate, nil
		}
	}

	logger.Debug("no actionable task", "plan_id", planID)
	return nil, nil
}

// dependencyResolver looks tasks up by id for one selection, reading tasks
// outside the plan from the store at most once.
type dependencyResolver struct {
	store *persistence.Service
	known map[types.ID]*prd.Task
}

func newDependencyResolver(store *persistence.Service, phases []*prd.Phase) *dependencyResolver {
	r := &dependencyResolver{store: store, known: make(map[types.ID]*prd.Task)}
	for _, phase := range phases {
		for _, task := range phase.Tasks {
			r.known[task.ID] = task
		}
	}
	return r
}

// lookup returns the task with id, or nil if there is none.
func (r *dependencyResolver) lookup(ctx context.Context, id types.ID) (*prd.Task, error) {
	if task, ok := r.known[id]; ok {
		return task, nil
	}
	task, err := r.store.GetTaskByID(ctx, id)
	if err != nil {
		return nil, err
	}
	r.known[id] = task
	return task, nil
}

func (r *dependencyResolver) allMet(ctx context.Context, task *prd.Task) (bool, error) {
	for _, id := range task.Dependencies {
		dep, err := r.lookup(ctx, id)
		if err != nil {
			return false, err
		}
		if dep == nil || !(dep.Status == prd.TaskStatusCompleted || dep.IsValidated) {
			return false, nil
		}
	}
	return true, nil
}

// DetectDependencyCycles returns the dependency cycles reachable from the
// plan's tasks, each as a list of task ids starting at its smallest id. Edges
// into other plans are followed. Selection does not use this; a task on a
// cycle is simply never picked.
func (s *TaskService) DetectDependencyCycles(ctx context.Context, planID types.ID) (cycles [][]types.ID, err error) {
	ctx, span := s.startSpan(ctx, "task.detect_cycles", planAttr(planID))
	defer func() { endSpan(span, err) }()

	phases, err := s.store.GetPhasesByPlanID(ctx, planID)
	if err != nil {
		return nil, err
	}

	resolver := newDependencyResolver(s.store, phases)
	d := &cycleDetector{
		resolver: resolver,
		state:    make(map[types.ID]int),
		seen:     make(map[string]bool),
	}
	for _, phase := range phases {
		for _, task := range phase.Tasks {
			if err := d.visit(ctx, task.ID); err != nil {
				return nil, err
			}
		}
	}

	sort.Slice(d.cycles, func(i, j int) bool {
		return cycleKey(d.cycles[i]) < cycleKey(d.cycles[j])
	})
	if len(d.cycles) > 0 {
		s.logger.Warn("dependency cycles found", "plan_id", planID, "count", len(d.cycles))
	}
	return d.cycles, nil
}

const (
	unvisited = iota
	onStack
	finished
)

type cycleDetector struct {
	resolver *dependencyResolver
	state    map[types.ID]int
	stack    []types.ID
	seen     map[string]bool
	cycles   [][]types.ID
}

func (d *cycleDetector) visit(ctx context.Context, id types.ID) error {
	switch d.state[id] {
	case finished:
		return nil
	case onStack:
		d.record(id)
		return nil
	}

	task, err := d.resolver.lookup(ctx, id)
	if err != nil {
		return err
	}
	if task == nil {
		d.state[id] = finished
		return nil
	}

	d.state[id] = onStack
	d.stack = append(d.stack, id)
	for _, dep := range task.Dependencies {
		if err := d.visit(ctx, dep); err != nil {
			return err
		}
	}
	d.stack = d.stack[:len(d.stack)-1]
	d.state[id] = finished
	return nil
}

// record stores the cycle closing at id, the stack suffix starting at id.
func (d *cycleDetector) record(id types.ID) {
	start := len(d.stack) - 1
	for start >= 0 && d.stack[start] != id {
		start--
	}
	if start < 0 {
		return
	}

	cycle := canonicalCycle(d.stack[start:])
	key := cycleKey(cycle)
	if d.seen[key] {
		return
	}
	d.seen[key] = true
	d.cycles = append(d.cycles, cycle)
}

// canonicalCycle rotates ids so the smallest comes first.
func canonicalCycle(ids []types.ID) []types.ID {
	minIdx := 0
	for i, id := range ids {
		if id < ids[minIdx] {
			minIdx = i
		}
	}
	out := make([]types.ID, 0, len(ids))
	out = append(out, ids[minIdx:]...)
	return append(out, ids[:minIdx]...)
}

func cycleKey(ids []types.ID) string {
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = id.String()
	}
	return strings.Join(parts, ">")
}
