package orchestrator

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/jonit-dev/vibe-planner-mcp-sub000/internal/database"
	"github.com/jonit-dev/vibe-planner-mcp-sub000/internal/persistence"
	"github.com/jonit-dev/vibe-planner-mcp-sub000/internal/prd"
	"github.com/jonit-dev/vibe-planner-mcp-sub000/internal/types"
)

var fixedNow = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

type env struct {
	store  *persistence.Service
	plans  *PlanService
	phases *PhaseService
	tasks  *TaskService
	spans  *tracetest.SpanRecorder
}

func setup(t *testing.T, opts ...Option) *env {
	t.Helper()

	db, err := database.Open(filepath.Join(t.TempDir(), "planner.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, db.InitSchema(context.Background()))

	recorder := tracetest.NewSpanRecorder()
	provider := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	t.Cleanup(func() { _ = provider.Shutdown(context.Background()) })

	opts = append([]Option{
		WithTracer(provider.Tracer("orchestrator-test")),
		WithNow(func() time.Time { return fixedNow }),
	}, opts...)

	store := persistence.NewService(db)
	return &env{
		store:  store,
		plans:  NewPlanService(store, opts...),
		phases: NewPhaseService(store, opts...),
		tasks:  NewTaskService(store, opts...),
		spans:  recorder,
	}
}

func (e *env) plan(t *testing.T) *prd.Plan {
	t.Helper()
	plan, err := e.plans.InitializePrd(context.Background(), prd.NewPlan{Name: "plan"})
	require.NoError(t, err)
	return plan
}

func (e *env) phase(t *testing.T, planID types.ID, order int, status prd.PhaseStatus) *prd.Phase {
	t.Helper()
	phase, err := e.phases.CreatePhase(context.Background(), planID, prd.NewPhase{
		Name:   "phase",
		Order:  order,
		Status: status,
	})
	require.NoError(t, err)
	require.NotNil(t, phase)
	return phase
}

// task adds a task and then moves it to status, if that is not pending.
func (e *env) task(t *testing.T, phaseID types.ID, name string, order int, status prd.TaskStatus, deps ...types.ID) *prd.Task {
	t.Helper()
	ctx := context.Background()

	task, err := e.tasks.AddTaskToPhase(ctx, phaseID, prd.TaskDetails{
		Name:         name,
		Order:        order,
		Dependencies: deps,
	})
	require.NoError(t, err)
	require.NotNil(t, task)

	if status != prd.TaskStatusPending {
		task, err = e.tasks.UpdateTask(ctx, task.ID, prd.TaskUpdate{
			TaskPatch: prd.TaskPatch{Status: prd.Ptr(status)},
		})
		require.NoError(t, err)
		require.NotNil(t, task)
	}
	return task
}

// spanNamed returns the last ended span with name.
func (e *env) spanNamed(t *testing.T, name string) sdktrace.ReadOnlySpan {
	t.Helper()
	ended := e.spans.Ended()
	for i := len(ended) - 1; i >= 0; i-- {
		if ended[i].Name() == name {
			return ended[i]
		}
	}
	t.Fatalf("no span named %q", name)
	return nil
}
