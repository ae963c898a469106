package database

import (
	"context"
	"database/sql"

	"github.com/jonit-dev/vibe-planner-mcp-sub000/internal/prd"
	"github.com/jonit-dev/vibe-planner-mcp-sub000/internal/types"
)

const plansTable = "plans"

var planColumns = []string{
	"id", "name", "description", "status",
	"creation_date", "updated_at", "completion_date",
}

// PlanDAO provides database access for Plan rows. Nested phases are not
// loaded here; see the persistence service.
type PlanDAO struct {
	table table[prd.Plan]
	q     Querier
}

// NewPlanDAO creates a new PlanDAO instance
func NewPlanDAO(db *DB) *PlanDAO {
	return &PlanDAO{
		table: table[prd.Plan]{
			db:       db,
			name:     plansTable,
			columns:  planColumns,
			scan:     scanPlan,
			validate: (*prd.Plan).Validate,
			idOf:     func(p *prd.Plan) types.ID { return p.ID },
		},
		q: db,
	}
}

// WithTx returns a copy of the DAO that runs its statements on tx.
func (dao *PlanDAO) WithTx(tx *sql.Tx) *PlanDAO {
	clone := *dao
	clone.q = tx
	return &clone
}

// Create inserts a plan. A zero Status leaves the column default (pending).
func (dao *PlanDAO) Create(ctx context.Context, in prd.NewPlan) (*prd.Plan, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}

	var fields fieldSet
	fields.set("name", in.Name)
	if in.Description != nil {
		fields.set("description", *in.Description)
	}
	if in.Status != "" {
		fields.set("status", in.Status.String())
	}

	return dao.table.insert(ctx, dao.q, fields)
}

// FindByID returns the plan with id, or nil if it does not exist.
func (dao *PlanDAO) FindByID(ctx context.Context, id types.ID) (*prd.Plan, error) {
	return dao.table.findByID(ctx, dao.q, id)
}

// FindAll returns every plan, newest first.
func (dao *PlanDAO) FindAll(ctx context.Context) ([]*prd.Plan, error) {
	return dao.table.findWhere(ctx, dao.q, "", "creation_date DESC, rowid DESC")
}

// Update applies patch to the plan with id. An empty patch only refreshes
// updated_at. Returns nil if the plan does not exist.
func (dao *PlanDAO) Update(ctx context.Context, id types.ID, patch prd.PlanPatch) (*prd.Plan, error) {
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
	setCompletion(&fields, patch.CompletionDate, patch.ClearCompletionDate)

	return dao.table.update(ctx, dao.q, id, fields)
}

// Delete removes the plan. Phases, tasks and dependency edges go with it
// through the foreign key cascade.
func (dao *PlanDAO) Delete(ctx context.Context, id types.ID) (bool, error) {
	return dao.table.delete(ctx, dao.q, id)
}

func scanPlan(s rowScanner) (*prd.Plan, error) {
	var (
		id, name, status string
		description      sql.NullString
		ts               timestamps
	)

	if err := s.Scan(&id, &name, &description, &status,
		&ts.creationDate, &ts.updatedAt, &ts.completionDate); err != nil {
		return nil, err
	}

	created, updated, completed, err := ts.decode()
	if err != nil {
		return nil, types.NewIntegrityError(plansTable, id, err)
	}

	return &prd.Plan{
		ID:             types.ID(id),
		Name:           name,
		Description:    nullableString(description),
		Status:         prd.PlanStatus(status),
		Phases:         []*prd.Phase{},
		CreationDate:   created,
		UpdatedAt:      updated,
		CompletionDate: completed,
	}, nil
}
