package database

import (
	"context"
	"database/sql"

	"github.com/jonit-dev/vibe-planner-mcp-sub000/internal/prd"
	"github.com/jonit-dev/vibe-planner-mcp-sub000/internal/types"
)

const phasesTable = "phases"

var phaseColumns = []string{
	"id", "plan_id", "name", "description", "status", "order_index",
	"creation_date", "updated_at", "completion_date",
}

// byOrder sorts children by order, keeping insertion order for ties.
const byOrder = "order_index ASC, rowid ASC"

// PhaseDAO provides database access for Phase rows.
type PhaseDAO struct {
	table table[prd.Phase]
	q     Querier
}

// NewPhaseDAO creates a new PhaseDAO instance
func NewPhaseDAO(db *DB) *PhaseDAO {
	return &PhaseDAO{
		table: table[prd.Phase]{
			db:       db,
			name:     phasesTable,
			columns:  phaseColumns,
			scan:     scanPhase,
			validate: (*prd.Phase).Validate,
			idOf:     func(p *prd.Phase) types.ID { return p.ID },
		},
		q: db,
	}
}

// WithTx returns a copy of the DAO that runs its statements on tx.
func (dao *PhaseDAO) WithTx(tx *sql.Tx) *PhaseDAO {
	clone := *dao
	clone.q = tx
	return &clone
}

// Create inserts a phase. The owning plan must exist or the foreign key
// constraint fails.
func (dao *PhaseDAO) Create(ctx context.Context, in prd.NewPhase) (*prd.Phase, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}

	var fields fieldSet
	fields.set("plan_id", in.PlanID.String())
	fields.set("name", in.Name)
	if in.Description != nil {
		fields.set("description", *in.Description)
	}
	if in.Status != "" {
		fields.set("status", in.Status.String())
	}
	fields.set("order_index", in.Order)

	return dao.table.insert(ctx, dao.q, fields)
}

// FindByID returns the phase with id, or nil if it does not exist.
func (dao *PhaseDAO) FindByID(ctx context.Context, id types.ID) (*prd.Phase, error) {
	return dao.table.findByID(ctx, dao.q, id)
}

// FindAll returns every phase of every plan.
func (dao *PhaseDAO) FindAll(ctx context.Context) ([]*prd.Phase, error) {
	return dao.table.findWhere(ctx, dao.q, "", "plan_id, "+byOrder)
}

// FindByPlanID returns the phases of a plan ordered by order.
func (dao *PhaseDAO) FindByPlanID(ctx context.Context, planID types.ID) ([]*prd.Phase, error) {
	return dao.table.findWhere(ctx, dao.q, "plan_id = ?", byOrder, planID.String())
}

// Update applies patch to the phase with id. Returns nil if it does not exist.
func (dao *PhaseDAO) Update(ctx context.Context, id types.ID, patch prd.PhasePatch) (*prd.Phase, error) {
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
	if patch.Order != nil {
		fields.set("order_index", *patch.Order)
	}
	setCompletion(&fields, patch.CompletionDate, patch.ClearCompletionDate)

	return dao.table.update(ctx, dao.q, id, fields)
}

// Delete removes the phase together with its tasks and their edges.
func (dao *PhaseDAO) Delete(ctx context.Context, id types.ID) (bool, error) {
	return dao.table.delete(ctx, dao.q, id)
}

func scanPhase(s rowScanner) (*prd.Phase, error) {
	var (
		id, planID, name, status string
		description              sql.NullString
		rawOrder                 any
		ts                       timestamps
	)

	if err := s.Scan(&id, &planID, &name, &description, &status, &rawOrder,
		&ts.creationDate, &ts.updatedAt, &ts.completionDate); err != nil {
		return nil, err
	}

	order, err := integerValue("order_index", rawOrder)
	if err != nil {
		return nil, types.NewIntegrityError(phasesTable, id, err)
	}

	created, updated, completed, err := ts.decode()
	if err != nil {
		return nil, types.NewIntegrityError(phasesTable, id, err)
	}

	return &prd.Phase{
		ID:             types.ID(id),
		PlanID:         types.ID(planID),
		Name:           name,
		Description:    nullableString(description),
		Status:         prd.PhaseStatus(status),
		Order:          int(order),
		Tasks:          []*prd.Task{},
		CreationDate:   created,
		UpdatedAt:      updated,
		CompletionDate: completed,
	}, nil
}
