package database

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jonit-dev/vibe-planner-mcp-sub000/internal/prd"
	"github.com/jonit-dev/vibe-planner-mcp-sub000/internal/types"
)

const tasksTable = "tasks"

var taskColumns = []string{
	"id", "phase_id", "name", "description", "status", "is_validated", "order_index",
	"validation_command", "validation_output", "notes",
	"creation_date", "updated_at", "completion_date",
}

// TaskDAO provides database access for Task rows. Dependencies live in the
// edge table and are handled by DependencyDAO; tasks returned here carry an
// empty dependency list.
type TaskDAO struct {
	table table[prd.Task]
	q     Querier
}

// NewTaskDAO creates a new TaskDAO instance
func NewTaskDAO(db *DB) *TaskDAO {
	return &TaskDAO{
		table: table[prd.Task]{
			db:       db,
			name:     tasksTable,
			columns:  taskColumns,
			scan:     scanTask,
			validate: (*prd.Task).Validate,
			idOf:     func(t *prd.Task) types.ID { return t.ID },
		},
		q: db,
	}
}

// WithTx returns a copy of the DAO that runs its statements on tx.
func (dao *TaskDAO) WithTx(tx *sql.Tx) *TaskDAO {
	clone := *dao
	clone.q = tx
	return &clone
}

// Create inserts a task row. Unset status and is_validated fall back to the
// column defaults (pending, false).
func (dao *TaskDAO) Create(ctx context.Context, in prd.NewTask) (*prd.Task, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}

	var fields fieldSet
	fields.set("phase_id", in.PhaseID.String())
	fields.set("name", in.Name)
	if in.Description != nil {
		fields.set("description", *in.Description)
	}
	if in.Status != "" {
		fields.set("status", in.Status.String())
	}
	if in.IsValidated != nil {
		fields.set("is_validated", boolToInt(*in.IsValidated))
	}
	fields.set("order_index", in.Order)
	if in.ValidationCommand != nil {
		fields.set("validation_command", *in.ValidationCommand)
	}
	if in.ValidationOutput != nil {
		fields.set("validation_output", *in.ValidationOutput)
	}
	if in.Notes != nil {
		fields.set("notes", *in.Notes)
	}

	return dao.table.insert(ctx, dao.q, fields)
}

// FindByID returns the task with id, or nil if it does not exist.
func (dao *TaskDAO) FindByID(ctx context.Context, id types.ID) (*prd.Task, error) {
	return dao.table.findByID(ctx, dao.q, id)
}

// FindAll returns every task of every phase.
func (dao *TaskDAO) FindAll(ctx context.Context) ([]*prd.Task, error) {
	return dao.table.findWhere(ctx, dao.q, "", "phase_id, "+byOrder)
}

// FindByPhaseID returns the tasks of a phase ordered by order. When statuses
// are given only tasks in one of them are returned; the filter runs in SQL.
func (dao *TaskDAO) FindByPhaseID(ctx context.Context, phaseID types.ID, statuses ...prd.TaskStatus) ([]*prd.Task, error) {
	if len(statuses) == 0 {
		return dao.table.findWhere(ctx, dao.q, "phase_id = ?", byOrder, phaseID.String())
	}

	for _, s := range statuses {
		if !s.IsValid() {
			return nil, types.NewValidationError("invalid status filter",
				fmt.Errorf("unknown task status %q", s))
		}
	}

	in, args := statusArgs(statuses)
	args = append([]any{phaseID.String()}, args...)
	return dao.table.findWhere(ctx, dao.q, "phase_id = ? AND status IN "+in, byOrder, args...)
}

// Update applies patch to the task with id. Returns nil if it does not exist.
func (dao *TaskDAO) Update(ctx context.Context, id types.ID, patch prd.TaskPatch) (*prd.Task, error) {
	if err := patch.Validate(); err != nil {
		return nil, err
	}

	var fields fieldSet
	if patch.Name != nil {
		fields.set("name", *patch.Name)
	}
	if patch.Description != nil {
		fields.set("description", *patch.Description)
	}
	if patch.Status != nil {
		fields.set("status", patch.Status.String())
	}
	if patch.IsValidated != nil {
		fields.set("is_validated", boolToInt(*patch.IsValidated))
	}
	if patch.Order != nil {
		fields.set("order_index", *patch.Order)
	}
	if patch.ValidationCommand != nil {
		fields.set("validation_command", *patch.ValidationCommand)
	}
	if patch.ValidationOutput != nil {
		fields.set("validation_output", *patch.ValidationOutput)
	}
	if patch.Notes != nil {
		fields.set("notes", *patch.Notes)
	}
	setCompletion(&fields, patch.CompletionDate, patch.ClearCompletionDate)

	return dao.table.update(ctx, dao.q, id, fields)
}

// Delete removes the task row. Edges referencing it are removed by the
// foreign key cascade.
func (dao *TaskDAO) Delete(ctx context.Context, id types.ID) (bool, error) {
	return dao.table.delete(ctx, dao.q, id)
}

func scanTask(s rowScanner) (*prd.Task, error) {
	var (
		id, phaseID, name, status           string
		description                         sql.NullString
		rawValidated, rawOrder              any
		validationCommand, validationOutput sql.NullString
		notes                               sql.NullString
		ts                                  timestamps
	)

	if err := s.Scan(&id, &phaseID, &name, &description, &status, &rawValidated, &rawOrder,
		&validationCommand, &validationOutput, &notes,
		&ts.creationDate, &ts.updatedAt, &ts.completionDate); err != nil {
		return nil, err
	}

	isValidated, err := integerValue("is_validated", rawValidated)
	if err != nil {
		return nil, types.NewIntegrityError(tasksTable, id, err)
	}
	validated, err := intToBool(isValidated)
	if err != nil {
		return nil, types.NewIntegrityError(tasksTable, id, fmt.Errorf("is_validated: %w", err))
	}
	order, err := integerValue("order_index", rawOrder)
	if err != nil {
		return nil, types.NewIntegrityError(tasksTable, id, err)
	}

	created, updated, completed, err := ts.decode()
	if err != nil {
		return nil, types.NewIntegrityError(tasksTable, id, err)
	}

	return &prd.Task{
		ID:                types.ID(id),
		PhaseID:           types.ID(phaseID),
		Name:              name,
		Description:       nullableString(description),
		Status:            prd.TaskStatus(status),
		IsValidated:       validated,
		Order:             int(order),
		Dependencies:      []types.ID{},
		ValidationCommand: nullableString(validationCommand),
		ValidationOutput:  nullableString(validationOutput),
		Notes:             nullableString(notes),
		CreationDate:      created,
		UpdatedAt:         updated,
		CompletionDate:    completed,
	}, nil
}
