package persistence

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonit-dev/vibe-planner-mcp-sub000/internal/database"
	"github.com/jonit-dev/vibe-planner-mcp-sub000/internal/prd"
	"github.com/jonit-dev/vibe-planner-mcp-sub000/internal/types"
)

func setupService(t *testing.T) *Service {
	t.Helper()

	db, err := database.Open(filepath.Join(t.TempDir(), "planner.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, db.InitSchema(context.Background()))

	return NewService(db)
}

type graph struct {
	plan   *prd.Plan
	phase  *prd.Phase
	first  *prd.Task
	second *prd.Task
}

// seed builds plan -> phase -> [first, second] with second depending on first.
func seed(t *testing.T, s *Service) graph {
	t.Helper()
	ctx := context.Background()

	plan, err := s.CreatePlan(ctx, prd.NewPlan{Name: "plan"})
	require.NoError(t, err)
	phase, err := s.CreatePhase(ctx, prd.NewPhase{PlanID: plan.ID, Name: "phase", Order: 1})
	require.NoError(t, err)
	first, err := s.CreateTask(ctx, prd.NewTask{PhaseID: phase.ID, Name: "first", Order: 1})
	require.NoError(t, err)
	second, err := s.CreateTask(ctx, prd.NewTask{PhaseID: phase.ID, Name: "second", Order: 2})
	require.NoError(t, err)
	require.NoError(t, s.UpdateTaskDependencies(ctx, second.ID, []types.ID{first.ID}))

	return graph{plan: plan, phase: phase, first: first, second: second}
}

func TestFindAfterCreateIsDeepEqual(t *testing.T) {
	s := setupService(t)
	ctx := context.Background()

	plan, err := s.CreatePlan(ctx, prd.NewPlan{Name: "p", Description: prd.Ptr("desc")})
	require.NoError(t, err)
	foundPlan, err := s.GetPlanByID(ctx, plan.ID)
	require.NoError(t, err)
	assert.Equal(t, plan, foundPlan)

	phase, err := s.CreatePhase(ctx, prd.NewPhase{PlanID: plan.ID, Name: "ph", Order: 2})
	require.NoError(t, err)
	foundPhase, err := s.GetPhaseByID(ctx, phase.ID)
	require.NoError(t, err)
	assert.Equal(t, phase, foundPhase)

	task, err := s.CreateTask(ctx, prd.NewTask{
		PhaseID:           phase.ID,
		Name:              "t",
		Order:             3,
		IsValidated:       prd.Ptr(true),
		ValidationCommand: prd.Ptr("go test ./..."),
	})
	require.NoError(t, err)
	foundTask, err := s.GetTaskByID(ctx, task.ID)
	require.NoError(t, err)
	assert.Equal(t, task, foundTask)
}

func TestRoundTripPassesValidation(t *testing.T) {
	s := setupService(t)
	ctx := context.Background()
	g := seed(t, s)

	plan, err := s.GetPlanByID(ctx, g.plan.ID)
	require.NoError(t, err)
	require.NoError(t, plan.Validate())
	require.Len(t, plan.Phases, 1)
	require.NoError(t, plan.Phases[0].Validate())
	for _, task := range plan.Phases[0].Tasks {
		require.NoError(t, task.Validate())
	}

	updated, err := s.UpdateTask(ctx, g.first.ID, prd.TaskPatch{IsValidated: prd.Ptr(true)})
	require.NoError(t, err)
	require.NoError(t, updated.Validate())
	assert.True(t, updated.IsValidated)
}

func TestGetPlanPopulatesNestedViews(t *testing.T) {
	s := setupService(t)
	ctx := context.Background()
	g := seed(t, s)

	plan, err := s.GetPlanByID(ctx, g.plan.ID)
	require.NoError(t, err)
	require.Len(t, plan.Phases, 1)

	tasks := plan.Phases[0].Tasks
	require.Len(t, tasks, 2)
	assert.Equal(t, g.first.ID, tasks[0].ID)
	assert.NotNil(t, tasks[0].Dependencies)
	assert.Empty(t, tasks[0].Dependencies)
	assert.Equal(t, []types.ID{g.first.ID}, tasks[1].Dependencies)
}

func TestGetEmptyCollectionsAreNotNil(t *testing.T) {
	s := setupService(t)
	ctx := context.Background()

	plans, err := s.GetAllPlans(ctx)
	require.NoError(t, err)
	assert.NotNil(t, plans)

	plan, err := s.CreatePlan(ctx, prd.NewPlan{Name: "empty"})
	require.NoError(t, err)
	found, err := s.GetPlanByID(ctx, plan.ID)
	require.NoError(t, err)
	assert.NotNil(t, found.Phases)

	phases, err := s.GetPhasesByPlanID(ctx, types.NewID())
	require.NoError(t, err)
	assert.NotNil(t, phases)

	tasks, err := s.GetTasksByPhaseID(ctx, types.NewID())
	require.NoError(t, err)
	assert.NotNil(t, tasks)
}

func TestGetMissingReturnsNil(t *testing.T) {
	s := setupService(t)
	ctx := context.Background()

	plan, err := s.GetPlanByID(ctx, types.NewID())
	require.NoError(t, err)
	assert.Nil(t, plan)

	phase, err := s.GetPhaseByID(ctx, types.NewID())
	require.NoError(t, err)
	assert.Nil(t, phase)

	task, err := s.GetTaskByID(ctx, types.NewID())
	require.NoError(t, err)
	assert.Nil(t, task)

	updated, err := s.UpdateTask(ctx, types.NewID(), prd.TaskPatch{Name: prd.Ptr("x")})
	require.NoError(t, err)
	assert.Nil(t, updated)
}

func TestGetAllPlansNewestFirst(t *testing.T) {
	s := setupService(t)
	ctx := context.Background()

	older, err := s.CreatePlan(ctx, prd.NewPlan{Name: "older"})
	require.NoError(t, err)
	newer, err := s.CreatePlan(ctx, prd.NewPlan{Name: "newer"})
	require.NoError(t, err)

	plans, err := s.GetAllPlans(ctx)
	require.NoError(t, err)
	require.Len(t, plans, 2)
	assert.Equal(t, newer.ID, plans[0].ID)
	assert.Equal(t, older.ID, plans[1].ID)
}

func TestEmptyUpdateChangesOnlyUpdatedAt(t *testing.T) {
	s := setupService(t)
	ctx := context.Background()
	g := seed(t, s)

	beforePlan, err := s.GetPlanByID(ctx, g.plan.ID)
	require.NoError(t, err)
	afterPlan, err := s.UpdatePlan(ctx, g.plan.ID, prd.PlanPatch{})
	require.NoError(t, err)
	assert.True(t, afterPlan.UpdatedAt.After(beforePlan.UpdatedAt))
	afterPlan.UpdatedAt = beforePlan.UpdatedAt
	assert.Equal(t, beforePlan, afterPlan)

	beforePhase, err := s.GetPhaseByID(ctx, g.phase.ID)
	require.NoError(t, err)
	afterPhase, err := s.UpdatePhase(ctx, g.phase.ID, prd.PhasePatch{})
	require.NoError(t, err)
	assert.True(t, afterPhase.UpdatedAt.After(beforePhase.UpdatedAt))
	afterPhase.UpdatedAt = beforePhase.UpdatedAt
	assert.Equal(t, beforePhase, afterPhase)

	beforeTask, err := s.GetTaskByID(ctx, g.second.ID)
	require.NoError(t, err)
	afterTask, err := s.UpdateTask(ctx, g.second.ID, prd.TaskPatch{})
	require.NoError(t, err)
	assert.True(t, afterTask.UpdatedAt.After(beforeTask.UpdatedAt))
	afterTask.UpdatedAt = beforeTask.UpdatedAt
	assert.Equal(t, beforeTask, afterTask)
}

func TestDeleteSemantics(t *testing.T) {
	s := setupService(t)
	ctx := context.Background()
	g := seed(t, s)

	deleted, err := s.DeleteTask(ctx, types.NewID())
	require.NoError(t, err)
	assert.False(t, deleted)

	deleted, err = s.DeletePhase(ctx, types.NewID())
	require.NoError(t, err)
	assert.False(t, deleted)

	deleted, err = s.DeletePlan(ctx, types.NewID())
	require.NoError(t, err)
	assert.False(t, deleted)

	deleted, err = s.DeleteTask(ctx, g.second.ID)
	require.NoError(t, err)
	assert.True(t, deleted)

	task, err := s.GetTaskByID(ctx, g.second.ID)
	require.NoError(t, err)
	assert.Nil(t, task)
}

func TestDeleteTaskRemovesEdgesBothWays(t *testing.T) {
	s := setupService(t)
	ctx := context.Background()
	g := seed(t, s)

	third, err := s.CreateTask(ctx, prd.NewTask{PhaseID: g.phase.ID, Name: "third", Order: 3})
	require.NoError(t, err)
	require.NoError(t, s.UpdateTaskDependencies(ctx, third.ID, []types.ID{g.second.ID}))

	deleted, err := s.DeleteTask(ctx, g.second.ID)
	require.NoError(t, err)
	require.True(t, deleted)

	dependents, err := s.GetDependents(ctx, g.first.ID)
	require.NoError(t, err)
	assert.Empty(t, dependents)

	reloaded, err := s.GetTaskByID(ctx, third.ID)
	require.NoError(t, err)
	assert.Empty(t, reloaded.Dependencies)
}

func TestDeletePlanCascades(t *testing.T) {
	s := setupService(t)
	ctx := context.Background()
	g := seed(t, s)

	deleted, err := s.DeletePlan(ctx, g.plan.ID)
	require.NoError(t, err)
	require.True(t, deleted)

	phase, err := s.GetPhaseByID(ctx, g.phase.ID)
	require.NoError(t, err)
	assert.Nil(t, phase)

	for _, id := range []types.ID{g.first.ID, g.second.ID} {
		task, err := s.GetTaskByID(ctx, id)
		require.NoError(t, err)
		assert.Nil(t, task)
	}

	dependents, err := s.GetDependents(ctx, g.first.ID)
	require.NoError(t, err)
	assert.Empty(t, dependents)
}

func TestDeletePhaseCascades(t *testing.T) {
	s := setupService(t)
	ctx := context.Background()
	g := seed(t, s)

	deleted, err := s.DeletePhase(ctx, g.phase.ID)
	require.NoError(t, err)
	require.True(t, deleted)

	task, err := s.GetTaskByID(ctx, g.first.ID)
	require.NoError(t, err)
	assert.Nil(t, task)

	plan, err := s.GetPlanByID(ctx, g.plan.ID)
	require.NoError(t, err)
	require.NotNil(t, plan)
	assert.Empty(t, plan.Phases)
}

func TestUpdateTaskDependenciesFullReplace(t *testing.T) {
	s := setupService(t)
	ctx := context.Background()
	g := seed(t, s)

	create := func(name string, order int) *prd.Task {
		task, err := s.CreateTask(ctx, prd.NewTask{PhaseID: g.phase.ID, Name: name, Order: order})
		require.NoError(t, err)
		return task
	}
	a, b, c, target := create("a", 3), create("b", 4), create("c", 5), create("target", 6)

	require.NoError(t, s.UpdateTaskDependencies(ctx, target.ID, []types.ID{a.ID, b.ID}))
	require.NoError(t, s.UpdateTaskDependencies(ctx, target.ID, []types.ID{c.ID}))

	task, err := s.GetTaskByID(ctx, target.ID)
	require.NoError(t, err)
	assert.Equal(t, []types.ID{c.ID}, task.Dependencies)
}

func TestUpdateTaskDependenciesMissingTask(t *testing.T) {
	s := setupService(t)
	ctx := context.Background()
	g := seed(t, s)

	err := s.UpdateTaskDependencies(ctx, g.second.ID, []types.ID{g.first.ID, types.NewID()})
	require.Error(t, err)

	var sqliteErr sqlite3.Error
	require.True(t, errors.As(err, &sqliteErr))
	assert.Equal(t, sqlite3.ErrConstraint, sqliteErr.Code)

	task, err := s.GetTaskByID(ctx, g.second.ID)
	require.NoError(t, err)
	assert.Equal(t, []types.ID{g.first.ID}, task.Dependencies)
}

func TestGetTasksByPhaseIDStatusFilter(t *testing.T) {
	s := setupService(t)
	ctx := context.Background()
	g := seed(t, s)

	completed := prd.TaskStatusCompleted
	_, err := s.UpdateTask(ctx, g.first.ID, prd.TaskPatch{Status: &completed})
	require.NoError(t, err)

	pending, err := s.GetTasksByPhaseID(ctx, g.phase.ID, prd.TaskStatusPending)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, g.second.ID, pending[0].ID)
	assert.Equal(t, []types.ID{g.first.ID}, pending[0].Dependencies)
}

func TestCreateTaskInMissingPhase(t *testing.T) {
	s := setupService(t)

	_, err := s.CreateTask(context.Background(), prd.NewTask{PhaseID: types.NewID(), Name: "orphan", Order: 1})
	require.Error(t, err)
	assert.True(t, types.HasCode(err, types.DB_QUERY_FAILED))
}

func TestUpdateTaskWithDependenciesRollsBack(t *testing.T) {
	s := setupService(t)
	ctx := context.Background()
	g := seed(t, s)

	before, err := s.GetTaskByID(ctx, g.second.ID)
	require.NoError(t, err)

	completed := prd.TaskStatusCompleted
	got, err := s.UpdateTaskWithDependencies(ctx, g.second.ID,
		prd.TaskPatch{Name: prd.Ptr("renamed"), Status: &completed},
		&[]types.ID{types.NewID()})
	require.Error(t, err)
	assert.Nil(t, got)

	var sqliteErr sqlite3.Error
	require.True(t, errors.As(err, &sqliteErr))
	assert.Equal(t, sqlite3.ErrConstraint, sqliteErr.Code)

	after, err := s.GetTaskByID(ctx, g.second.ID)
	require.NoError(t, err)
	assert.Equal(t, before, after)
}

func TestUpdateTaskWithDependencies(t *testing.T) {
	s := setupService(t)
	ctx := context.Background()
	g := seed(t, s)

	got, err := s.UpdateTaskWithDependencies(ctx, g.second.ID, prd.TaskPatch{Notes: prd.Ptr("n")}, nil)
	require.NoError(t, err)
	assert.Equal(t, "n", *got.Notes)
	assert.Equal(t, []types.ID{g.first.ID}, got.Dependencies)

	got, err = s.UpdateTaskWithDependencies(ctx, g.second.ID, prd.TaskPatch{}, &[]types.ID{})
	require.NoError(t, err)
	assert.Empty(t, got.Dependencies)

	missing, err := s.UpdateTaskWithDependencies(ctx, types.NewID(), prd.TaskPatch{}, &[]types.ID{g.first.ID})
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestCreateTaskWithDependenciesRollsBack(t *testing.T) {
	s := setupService(t)
	ctx := context.Background()
	g := seed(t, s)

	created, err := s.CreateTaskWithDependencies(ctx,
		prd.NewTask{PhaseID: g.phase.ID, Name: "third", Order: 3},
		[]types.ID{g.first.ID})
	require.NoError(t, err)
	assert.Equal(t, []types.ID{g.first.ID}, created.Dependencies)

	_, err = s.CreateTaskWithDependencies(ctx,
		prd.NewTask{PhaseID: g.phase.ID, Name: "orphan", Order: 4},
		[]types.ID{types.NewID()})
	require.Error(t, err)

	tasks, err := s.GetTasksByPhaseID(ctx, g.phase.ID)
	require.NoError(t, err)
	assert.Len(t, tasks, 3)
	for _, task := range tasks {
		assert.NotEqual(t, "orphan", task.Name)
	}
}

func TestPhaseExists(t *testing.T) {
	s := setupService(t)
	ctx := context.Background()
	g := seed(t, s)

	exists, err := s.PhaseExists(ctx, g.phase.ID)
	require.NoError(t, err)
	assert.True(t, exists)

	exists, err = s.PhaseExists(ctx, types.NewID())
	require.NoError(t, err)
	assert.False(t, exists)
}
