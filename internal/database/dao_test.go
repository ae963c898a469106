package database

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonit-dev/vibe-planner-mcp-sub000/internal/prd"
	"github.com/jonit-dev/vibe-planner-mcp-sub000/internal/types"
)

type fixture struct {
	db           *DB
	plans        *PlanDAO
	phases       *PhaseDAO
	tasks        *TaskDAO
	dependencies *DependencyDAO
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	db := setupTestDB(t)
	return &fixture{
		db:           db,
		plans:        NewPlanDAO(db),
		phases:       NewPhaseDAO(db),
		tasks:        NewTaskDAO(db),
		dependencies: NewDependencyDAO(db),
	}
}

func (f *fixture) plan(t *testing.T, name string) *prd.Plan {
	t.Helper()
	p, err := f.plans.Create(context.Background(), prd.NewPlan{Name: name})
	require.NoError(t, err)
	return p
}

func (f *fixture) phase(t *testing.T, planID types.ID, name string, order int) *prd.Phase {
	t.Helper()
	p, err := f.phases.Create(context.Background(), prd.NewPhase{PlanID: planID, Name: name, Order: order})
	require.NoError(t, err)
	return p
}

func (f *fixture) task(t *testing.T, phaseID types.ID, name string, order int) *prd.Task {
	t.Helper()
	task, err := f.tasks.Create(context.Background(), prd.NewTask{PhaseID: phaseID, Name: name, Order: order})
	require.NoError(t, err)
	return task
}

func (f *fixture) count(t *testing.T, table string) int {
	t.Helper()
	var n int
	require.NoError(t, f.db.QueryRowContext(context.Background(), "SELECT COUNT(*) FROM "+table).Scan(&n))
	return n
}

func TestPlanDAOCreate(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	plan, err := f.plans.Create(ctx, prd.NewPlan{Name: "Launch", Description: prd.Ptr("ship it")})
	require.NoError(t, err)

	assert.NoError(t, plan.ID.Validate())
	assert.Equal(t, "Launch", plan.Name)
	assert.Equal(t, "ship it", *plan.Description)
	assert.Equal(t, prd.PlanStatusPending, plan.Status)
	assert.Equal(t, plan.CreationDate, plan.UpdatedAt)
	assert.Nil(t, plan.CompletionDate)
	assert.NotNil(t, plan.Phases)
	assert.Empty(t, plan.Phases)
}

func TestPlanDAOCreateValidation(t *testing.T) {
	f := newFixture(t)

	_, err := f.plans.Create(context.Background(), prd.NewPlan{Name: ""})
	require.Error(t, err)
	assert.True(t, types.IsValidationError(err))
	assert.Equal(t, 0, f.count(t, "plans"))
}

func TestPlanDAOFindAllNewestFirst(t *testing.T) {
	f := newFixture(t)

	first := f.plan(t, "first")
	second := f.plan(t, "second")
	third := f.plan(t, "third")

	plans, err := f.plans.FindAll(context.Background())
	require.NoError(t, err)
	require.Len(t, plans, 3)
	assert.Equal(t, third.ID, plans[0].ID)
	assert.Equal(t, second.ID, plans[1].ID)
	assert.Equal(t, first.ID, plans[2].ID)
}

func TestPlanDAOFindAllEmpty(t *testing.T) {
	f := newFixture(t)

	plans, err := f.plans.FindAll(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, plans)
	assert.Empty(t, plans)
}

func TestPlanDAOUpdate(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	plan := f.plan(t, "before")

	status := prd.PlanStatusInProgress
	updated, err := f.plans.Update(ctx, plan.ID, prd.PlanPatch{Name: prd.Ptr("after"), Status: &status})
	require.NoError(t, err)
	require.NotNil(t, updated)

	assert.Equal(t, "after", updated.Name)
	assert.Equal(t, prd.PlanStatusInProgress, updated.Status)
	assert.Equal(t, plan.CreationDate, updated.CreationDate)
	assert.True(t, updated.UpdatedAt.After(plan.UpdatedAt))
}

func TestPlanDAOEmptyUpdateTouchesOnlyUpdatedAt(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	plan, err := f.plans.Create(ctx, prd.NewPlan{Name: "same", Description: prd.Ptr("d")})
	require.NoError(t, err)

	updated, err := f.plans.Update(ctx, plan.ID, prd.PlanPatch{})
	require.NoError(t, err)
	require.NotNil(t, updated)

	assert.True(t, updated.UpdatedAt.After(plan.UpdatedAt))
	updated.UpdatedAt = plan.UpdatedAt
	assert.Equal(t, plan, updated)
}

func TestPlanDAOUpdateCompletionDate(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	plan := f.plan(t, "p")

	done := time.Date(2024, 5, 6, 7, 8, 9, 10000, time.UTC)
	updated, err := f.plans.Update(ctx, plan.ID, prd.PlanPatch{CompletionDate: &done})
	require.NoError(t, err)
	require.NotNil(t, updated.CompletionDate)
	assert.True(t, updated.CompletionDate.Equal(done))

	cleared, err := f.plans.Update(ctx, plan.ID, prd.PlanPatch{ClearCompletionDate: true})
	require.NoError(t, err)
	assert.Nil(t, cleared.CompletionDate)
}

func TestPlanDAOUpdateMissing(t *testing.T) {
	f := newFixture(t)

	updated, err := f.plans.Update(context.Background(), types.NewID(), prd.PlanPatch{Name: prd.Ptr("x")})
	require.NoError(t, err)
	assert.Nil(t, updated)
}

func TestPlanDAOUpdateInvalidPatch(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	plan := f.plan(t, "keep")

	_, err := f.plans.Update(ctx, plan.ID, prd.PlanPatch{Name: prd.Ptr("")})
	require.Error(t, err)
	assert.True(t, types.IsValidationError(err))

	found, err := f.plans.FindByID(ctx, plan.ID)
	require.NoError(t, err)
	assert.Equal(t, plan.UpdatedAt, found.UpdatedAt)
}

func TestPlanDAODelete(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	plan := f.plan(t, "gone")

	deleted, err := f.plans.Delete(ctx, plan.ID)
	require.NoError(t, err)
	assert.True(t, deleted)

	deleted, err = f.plans.Delete(ctx, plan.ID)
	require.NoError(t, err)
	assert.False(t, deleted)

	found, err := f.plans.FindByID(ctx, plan.ID)
	require.NoError(t, err)
	assert.Nil(t, found)
}

func TestPlanDeleteCascades(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	plan := f.plan(t, "root")
	phase := f.phase(t, plan.ID, "phase", 1)
	a := f.task(t, phase.ID, "a", 1)
	b := f.task(t, phase.ID, "b", 2)
	require.NoError(t, f.dependencies.Replace(ctx, b.ID, []types.ID{a.ID}))

	other := f.plan(t, "other")
	otherPhase := f.phase(t, other.ID, "other phase", 1)
	f.task(t, otherPhase.ID, "c", 1)

	deleted, err := f.plans.Delete(ctx, plan.ID)
	require.NoError(t, err)
	require.True(t, deleted)

	assert.Equal(t, 1, f.count(t, "plans"))
	assert.Equal(t, 1, f.count(t, "phases"))
	assert.Equal(t, 1, f.count(t, "tasks"))
	assert.Equal(t, 0, f.count(t, "task_dependencies"))
}

func TestPhaseDAOFindByPlanIDOrder(t *testing.T) {
	f := newFixture(t)
	plan := f.plan(t, "p")

	third := f.phase(t, plan.ID, "third", 3)
	firstA := f.phase(t, plan.ID, "first-a", 1)
	firstB := f.phase(t, plan.ID, "first-b", 1)
	second := f.phase(t, plan.ID, "second", 2)

	phases, err := f.phases.FindByPlanID(context.Background(), plan.ID)
	require.NoError(t, err)
	require.Len(t, phases, 4)
	assert.Equal(t, []types.ID{firstA.ID, firstB.ID, second.ID, third.ID},
		[]types.ID{phases[0].ID, phases[1].ID, phases[2].ID, phases[3].ID})
	assert.NotNil(t, phases[0].Tasks)
}

func TestPhaseDAOCreateDefaults(t *testing.T) {
	f := newFixture(t)
	plan := f.plan(t, "p")

	phase := f.phase(t, plan.ID, "design", 1)
	assert.Equal(t, plan.ID, phase.PlanID)
	assert.Equal(t, prd.PhaseStatusPending, phase.Status)
	assert.Equal(t, 1, phase.Order)
	assert.Nil(t, phase.Description)
}

func TestPhaseDAOCreateMissingPlan(t *testing.T) {
	f := newFixture(t)

	_, err := f.phases.Create(context.Background(), prd.NewPhase{PlanID: types.NewID(), Name: "orphan", Order: 1})
	require.Error(t, err)

	var sqliteErr sqlite3.Error
	require.True(t, errors.As(err, &sqliteErr))
	assert.Equal(t, sqlite3.ErrConstraint, sqliteErr.Code)
	assert.True(t, types.HasCode(err, types.DB_QUERY_FAILED))
}

func TestPhaseDAOUpdate(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	phase := f.phase(t, f.plan(t, "p").ID, "design", 1)

	status := prd.PhaseStatusOnHold
	updated, err := f.phases.Update(ctx, phase.ID, prd.PhasePatch{Status: &status, Order: prd.Ptr(4)})
	require.NoError(t, err)
	assert.Equal(t, prd.PhaseStatusOnHold, updated.Status)
	assert.Equal(t, 4, updated.Order)
	assert.Equal(t, "design", updated.Name)

	_, err = f.phases.Update(ctx, phase.ID, prd.PhasePatch{Order: prd.Ptr(0)})
	assert.True(t, types.IsValidationError(err))

	missing, err := f.phases.Update(ctx, types.NewID(), prd.PhasePatch{})
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestTaskDAOCreateDefaults(t *testing.T) {
	f := newFixture(t)
	phase := f.phase(t, f.plan(t, "p").ID, "design", 1)

	task := f.task(t, phase.ID, "write", 1)
	assert.Equal(t, prd.TaskStatusPending, task.Status)
	assert.False(t, task.IsValidated)
	assert.NotNil(t, task.Dependencies)
	assert.Empty(t, task.Dependencies)
	assert.Nil(t, task.ValidationCommand)
	assert.Nil(t, task.Notes)
}

func TestTaskDAOCreateAllFields(t *testing.T) {
	f := newFixture(t)
	phase := f.phase(t, f.plan(t, "p").ID, "design", 1)

	task, err := f.tasks.Create(context.Background(), prd.NewTask{
		PhaseID:           phase.ID,
		Name:              "build",
		Description:       prd.Ptr("compile it"),
		Status:            prd.TaskStatusInProgress,
		IsValidated:       prd.Ptr(true),
		Order:             7,
		ValidationCommand: prd.Ptr("make test"),
		ValidationOutput:  prd.Ptr("ok"),
		Notes:             prd.Ptr("n"),
	})
	require.NoError(t, err)

	assert.Equal(t, prd.TaskStatusInProgress, task.Status)
	assert.True(t, task.IsValidated)
	assert.Equal(t, 7, task.Order)
	assert.Equal(t, "compile it", *task.Description)
	assert.Equal(t, "make test", *task.ValidationCommand)
	assert.Equal(t, "ok", *task.ValidationOutput)
	assert.Equal(t, "n", *task.Notes)
}

func TestTaskDAOFindByPhaseIDStatusFilter(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	phase := f.phase(t, f.plan(t, "p").ID, "design", 1)

	pending := f.task(t, phase.ID, "pending", 3)
	active := f.task(t, phase.ID, "active", 2)
	done := f.task(t, phase.ID, "done", 1)

	inProgress := prd.TaskStatusInProgress
	_, err := f.tasks.Update(ctx, active.ID, prd.TaskPatch{Status: &inProgress})
	require.NoError(t, err)
	completed := prd.TaskStatusCompleted
	_, err = f.tasks.Update(ctx, done.ID, prd.TaskPatch{Status: &completed})
	require.NoError(t, err)

	all, err := f.tasks.FindByPhaseID(ctx, phase.ID)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, done.ID, all[0].ID)

	workable, err := f.tasks.FindByPhaseID(ctx, phase.ID, prd.TaskStatusPending, prd.TaskStatusInProgress)
	require.NoError(t, err)
	require.Len(t, workable, 2)
	assert.Equal(t, active.ID, workable[0].ID)
	assert.Equal(t, pending.ID, workable[1].ID)

	none, err := f.tasks.FindByPhaseID(ctx, phase.ID, prd.TaskStatusBlocked)
	require.NoError(t, err)
	assert.NotNil(t, none)
	assert.Empty(t, none)

	_, err = f.tasks.FindByPhaseID(ctx, phase.ID, prd.TaskStatus("bogus"))
	assert.True(t, types.IsValidationError(err))
}

func TestTaskDAOIntegrityFault(t *testing.T) {
	tests := []struct {
		name   string
		update string
	}{
		{name: "empty name", update: "UPDATE tasks SET name = '' WHERE id = ?"},
		{name: "bad timestamp", update: "UPDATE tasks SET creation_date = 'garbage' WHERE id = ?"},
		{name: "bad completion date", update: "UPDATE tasks SET completion_date = 'yesterday' WHERE id = ?"},
		{name: "text order", update: "UPDATE tasks SET order_index = 'abc' WHERE id = ?"},
		{name: "fractional order", update: "UPDATE tasks SET order_index = 2.5 WHERE id = ?"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			ctx := context.Background()
			phase := f.phase(t, f.plan(t, "p").ID, "design", 1)
			task := f.task(t, phase.ID, "corrupt", 1)

			_, err := f.db.ExecContext(ctx, tt.update, task.ID.String())
			require.NoError(t, err)

			found, err := f.tasks.FindByID(ctx, task.ID)
			require.Error(t, err)
			assert.Nil(t, found)
			assert.True(t, types.IsIntegrityError(err))
			assert.False(t, types.IsNotFound(err))

			_, err = f.tasks.FindByPhaseID(ctx, phase.ID)
			assert.True(t, types.IsIntegrityError(err))
		})
	}
}

func TestPhaseDAONonIntegerOrder(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	plan := f.plan(t, "p")
	phase := f.phase(t, plan.ID, "design", 1)

	_, err := f.db.ExecContext(ctx, "UPDATE phases SET order_index = 'abc' WHERE id = ?", phase.ID.String())
	require.NoError(t, err)

	found, err := f.phases.FindByID(ctx, phase.ID)
	require.Error(t, err)
	assert.Nil(t, found)
	assert.True(t, types.IsIntegrityError(err))
	assert.Contains(t, err.Error(), "order_index")

	_, err = f.phases.FindByPlanID(ctx, plan.ID)
	assert.True(t, types.IsIntegrityError(err))
}

func TestTaskDAOFindAll(t *testing.T) {
	f := newFixture(t)
	plan := f.plan(t, "p")
	f.task(t, f.phase(t, plan.ID, "one", 1).ID, "a", 1)
	f.task(t, f.phase(t, plan.ID, "two", 2).ID, "b", 1)

	tasks, err := f.tasks.FindAll(context.Background())
	require.NoError(t, err)
	assert.Len(t, tasks, 2)

	phases, err := f.phases.FindAll(context.Background())
	require.NoError(t, err)
	assert.Len(t, phases, 2)
}

func TestDependencyDAOReplace(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	phase := f.phase(t, f.plan(t, "p").ID, "design", 1)
	a := f.task(t, phase.ID, "a", 1)
	b := f.task(t, phase.ID, "b", 2)
	c := f.task(t, phase.ID, "c", 3)

	require.NoError(t, f.dependencies.Replace(ctx, c.ID, []types.ID{a.ID, b.ID, a.ID}))
	deps, err := f.dependencies.FindDependencies(ctx, c.ID)
	require.NoError(t, err)
	assert.ElementsMatch(t, []types.ID{a.ID, b.ID}, deps)

	require.NoError(t, f.dependencies.Replace(ctx, c.ID, []types.ID{b.ID}))
	deps, err = f.dependencies.FindDependencies(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, []types.ID{b.ID}, deps)

	dependents, err := f.dependencies.FindDependents(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, []types.ID{c.ID}, dependents)

	require.NoError(t, f.dependencies.Replace(ctx, c.ID, nil))
	deps, err = f.dependencies.FindDependencies(ctx, c.ID)
	require.NoError(t, err)
	assert.NotNil(t, deps)
	assert.Empty(t, deps)
}

func TestDependencyDAOReplaceMissingTaskKeepsPreviousSet(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	phase := f.phase(t, f.plan(t, "p").ID, "design", 1)
	a := f.task(t, phase.ID, "a", 1)
	b := f.task(t, phase.ID, "b", 2)
	require.NoError(t, f.dependencies.Replace(ctx, b.ID, []types.ID{a.ID}))

	err := f.db.WithTx(ctx, func(tx *sql.Tx) error {
		return f.dependencies.WithTx(tx).Replace(ctx, b.ID, []types.ID{types.NewID()})
	})
	require.Error(t, err)

	var sqliteErr sqlite3.Error
	require.True(t, errors.As(err, &sqliteErr))
	assert.Equal(t, sqlite3.ErrConstraint, sqliteErr.Code)

	deps, err := f.dependencies.FindDependencies(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, []types.ID{a.ID}, deps)
}

func TestDependencyDAOReplaceInvalidID(t *testing.T) {
	f := newFixture(t)
	phase := f.phase(t, f.plan(t, "p").ID, "design", 1)
	a := f.task(t, phase.ID, "a", 1)

	err := f.dependencies.Replace(context.Background(), a.ID, []types.ID{"not-a-uuid"})
	assert.True(t, types.IsValidationError(err))
}

func TestDependencyDAODeleteForTask(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	phase := f.phase(t, f.plan(t, "p").ID, "design", 1)
	a := f.task(t, phase.ID, "a", 1)
	b := f.task(t, phase.ID, "b", 2)
	c := f.task(t, phase.ID, "c", 3)
	require.NoError(t, f.dependencies.Replace(ctx, b.ID, []types.ID{a.ID}))
	require.NoError(t, f.dependencies.Replace(ctx, c.ID, []types.ID{b.ID}))

	removed, err := f.dependencies.DeleteForTask(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), removed)
	assert.Equal(t, 0, f.count(t, "task_dependencies"))
}

func TestDependencyDAOFindByPhaseID(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	plan := f.plan(t, "p")
	first := f.phase(t, plan.ID, "first", 1)
	second := f.phase(t, plan.ID, "second", 2)
	a := f.task(t, first.ID, "a", 1)
	b := f.task(t, first.ID, "b", 2)
	c := f.task(t, second.ID, "c", 1)
	require.NoError(t, f.dependencies.Replace(ctx, b.ID, []types.ID{a.ID}))
	require.NoError(t, f.dependencies.Replace(ctx, c.ID, []types.ID{a.ID, b.ID}))

	byTask, err := f.dependencies.FindByPhaseID(ctx, first.ID)
	require.NoError(t, err)
	assert.Equal(t, map[types.ID][]types.ID{b.ID: {a.ID}}, byTask)

	byTask, err = f.dependencies.FindByPhaseID(ctx, second.ID)
	require.NoError(t, err)
	assert.ElementsMatch(t, []types.ID{a.ID, b.ID}, byTask[c.ID])
}

func TestTaskDeleteCascadesEdges(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	phase := f.phase(t, f.plan(t, "p").ID, "design", 1)
	a := f.task(t, phase.ID, "a", 1)
	b := f.task(t, phase.ID, "b", 2)
	require.NoError(t, f.dependencies.Replace(ctx, b.ID, []types.ID{a.ID}))

	deleted, err := f.tasks.Delete(ctx, a.ID)
	require.NoError(t, err)
	assert.True(t, deleted)

	deps, err := f.dependencies.FindDependencies(ctx, b.ID)
	require.NoError(t, err)
	assert.Empty(t, deps)
}

func TestStrictlyIncreasingUpdatedAt(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	fixed := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	f.db.SetClock(NewClock(func() time.Time { return fixed }))

	plan := f.plan(t, "p")
	last := plan.UpdatedAt
	for i := 0; i < 5; i++ {
		updated, err := f.plans.Update(ctx, plan.ID, prd.PlanPatch{})
		require.NoError(t, err)
		assert.True(t, updated.UpdatedAt.After(last))
		last = updated.UpdatedAt
	}
}
