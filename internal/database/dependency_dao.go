package database

import (
	"context"
	"database/sql"

	"github.com/jonit-dev/vibe-planner-mcp-sub000/internal/types"
)

// DependencyDAO manages the task_dependencies edge table. An edge
// (task_id, dependency_id) means task_id waits on dependency_id.
type DependencyDAO struct {
	q Querier
}

// NewDependencyDAO creates a new DependencyDAO instance
func NewDependencyDAO(db *DB) *DependencyDAO {
	return &DependencyDAO{q: db}
}

// WithTx returns a copy of the DAO that runs its statements on tx.
func (dao *DependencyDAO) WithTx(tx *sql.Tx) *DependencyDAO {
	return &DependencyDAO{q: tx}
}

// FindDependencies returns the ids taskID depends on, never nil.
func (dao *DependencyDAO) FindDependencies(ctx context.Context, taskID types.ID) ([]types.ID, error) {
	return dao.queryIDs(ctx,
		"SELECT dependency_id FROM task_dependencies WHERE task_id = ? ORDER BY rowid",
		taskID.String())
}

// FindDependents returns the ids of tasks that depend on taskID, never nil.
func (dao *DependencyDAO) FindDependents(ctx context.Context, taskID types.ID) ([]types.ID, error) {
	return dao.queryIDs(ctx,
		"SELECT task_id FROM task_dependencies WHERE dependency_id = ? ORDER BY rowid",
		taskID.String())
}

// FindByPhaseID returns the dependency lists of every task in a phase that
// has at least one edge, keyed by task id. One query serves the whole phase.
func (dao *DependencyDAO) FindByPhaseID(ctx context.Context, phaseID types.ID) (map[types.ID][]types.ID, error) {
	query := `
		SELECT d.task_id, d.dependency_id
		FROM task_dependencies d
		JOIN tasks t ON t.id = d.task_id
		WHERE t.phase_id = ?
		ORDER BY d.rowid
	`

	rows, err := dao.q.QueryContext(ctx, query, phaseID.String())
	if err != nil {
		return nil, types.WrapError(types.DB_QUERY_FAILED, "failed to query task dependencies", err)
	}
	defer rows.Close()

	result := make(map[types.ID][]types.ID)
	for rows.Next() {
		var taskID, dependencyID string
		if err := rows.Scan(&taskID, &dependencyID); err != nil {
			return nil, types.WrapError(types.DB_QUERY_FAILED, "failed to scan task dependency", err)
		}
		result[types.ID(taskID)] = append(result[types.ID(taskID)], types.ID(dependencyID))
	}

	if err := rows.Err(); err != nil {
		return nil, types.WrapError(types.DB_QUERY_FAILED, "error iterating task dependencies", err)
	}

	return result, nil
}

// Replace makes ids the complete dependency set of taskID. Duplicate ids
// collapse to one edge. An id that names no task fails the foreign key
// constraint; callers run Replace inside a transaction so a failure leaves the
// previous set intact.
func (dao *DependencyDAO) Replace(ctx context.Context, taskID types.ID, ids []types.ID) error {
	for _, id := range ids {
		if err := id.Validate(); err != nil {
			return types.NewValidationError("invalid dependency id", err)
		}
	}

	if _, err := dao.q.ExecContext(ctx,
		"DELETE FROM task_dependencies WHERE task_id = ?", taskID.String()); err != nil {
		return types.WrapError(types.DB_QUERY_FAILED, "failed to clear task dependencies", err)
	}

	for _, id := range ids {
		if _, err := dao.q.ExecContext(ctx,
			"INSERT OR IGNORE INTO task_dependencies (task_id, dependency_id) VALUES (?, ?)",
			taskID.String(), id.String()); err != nil {
			return types.WrapError(types.DB_QUERY_FAILED, "failed to insert task dependency", err)
		}
	}

	return nil
}

// DeleteForTask removes every edge touching taskID in either direction and
// returns how many were removed.
func (dao *DependencyDAO) DeleteForTask(ctx context.Context, taskID types.ID) (int64, error) {
	result, err := dao.q.ExecContext(ctx,
		"DELETE FROM task_dependencies WHERE task_id = ? OR dependency_id = ?",
		taskID.String(), taskID.String())
	if err != nil {
		return 0, types.WrapError(types.DB_QUERY_FAILED, "failed to delete task dependencies", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return 0, types.WrapError(types.DB_QUERY_FAILED, "failed to get rows affected", err)
	}
	return affected, nil
}

func (dao *DependencyDAO) queryIDs(ctx context.Context, query string, args ...any) ([]types.ID, error) {
	rows, err := dao.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, types.WrapError(types.DB_QUERY_FAILED, "failed to query task dependencies", err)
	}
	defer rows.Close()

	ids := []types.ID{}
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, types.WrapError(types.DB_QUERY_FAILED, "failed to scan task dependency", err)
		}
		ids = append(ids, types.ID(id))
	}

	if err := rows.Err(); err != nil {
		return nil, types.WrapError(types.DB_QUERY_FAILED, "error iterating task dependencies", err)
	}

	return ids, nil
}
