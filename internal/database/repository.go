package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jonit-dev/vibe-planner-mcp-sub000/internal/types"
)

// rowScanner is satisfied by *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

// field is a single column assignment for an INSERT or UPDATE.
type field struct {
	column string
	value  any
}

// fieldSet holds only the columns a caller actually supplied. Columns that are
// not in the set are left to the store default (insert) or untouched (update).
type fieldSet []field

func (fs *fieldSet) set(column string, value any) {
	*fs = append(*fs, field{column: column, value: value})
}

// table describes one entity table: how to select, scan and validate its rows.
// The DAOs embed a table and add their entity-specific finders on top.
type table[T any] struct {
	db       *DB
	name     string
	columns  []string
	scan     func(rowScanner) (*T, error)
	validate func(*T) error
	idOf     func(*T) types.ID
}

func (t *table[T]) selectClause() string {
	return fmt.Sprintf("SELECT %s FROM %s", strings.Join(t.columns, ", "), t.name)
}

// read scans one row and validates it. A row that scans but is not a valid
// entity is an integrity fault.
func (t *table[T]) read(s rowScanner) (*T, error) {
	entity, err := t.scan(s)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) || types.IsIntegrityError(err) {
			return nil, err
		}
		return nil, types.WrapError(types.DB_QUERY_FAILED, fmt.Sprintf("failed to scan %s row", t.name), err)
	}
	if err := t.validate(entity); err != nil {
		return nil, types.NewIntegrityError(t.name, t.idOf(entity).String(), err)
	}
	return entity, nil
}

// insert writes a new row with a fresh id and identical creation/update
// stamps, then reads it back so the caller sees store defaults.
func (t *table[T]) insert(ctx context.Context, q Querier, fields fieldSet) (*T, error) {
	id := types.NewID()
	now := formatTimestamp(t.db.Clock().Now())

	all := make(fieldSet, 0, len(fields)+3)
	all.set("id", id.String())
	all = append(all, fields...)
	all.set("creation_date", now)
	all.set("updated_at", now)

	columns := make([]string, len(all))
	placeholders := make([]string, len(all))
	args := make([]any, len(all))
	for i, f := range all {
		columns[i] = f.column
		placeholders[i] = "?"
		args[i] = f.value
	}

	query := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		t.name, strings.Join(columns, ", "), strings.Join(placeholders, ", "))

	if _, err := q.ExecContext(ctx, query, args...); err != nil {
		return nil, types.WrapError(types.DB_QUERY_FAILED, fmt.Sprintf("failed to insert into %s", t.name), err)
	}

	entity, err := t.findByID(ctx, q, id)
	if err != nil {
		return nil, err
	}
	if entity == nil {
		return nil, types.NewIntegrityError(t.name, id.String(), errors.New("row missing after insert"))
	}
	return entity, nil
}

// findByID returns the row with id, or nil when there is none.
func (t *table[T]) findByID(ctx context.Context, q Querier, id types.ID) (*T, error) {
	row := q.QueryRowContext(ctx, t.selectClause()+" WHERE id = ?", id.String())
	entity, err := t.read(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return entity, nil
}

// findWhere returns every row matching where, in orderBy order. The result is
// never nil. Rows are fully drained before returning so the caller may issue
// further queries on a single-connection pool.
func (t *table[T]) findWhere(ctx context.Context, q Querier, where, orderBy string, args ...any) ([]*T, error) {
	query := t.selectClause()
	if where != "" {
		query += " WHERE " + where
	}
	if orderBy != "" {
		query += " ORDER BY " + orderBy
	}

	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, types.WrapError(types.DB_QUERY_FAILED, fmt.Sprintf("failed to query %s", t.name), err)
	}
	defer rows.Close()

	result := []*T{}
	for rows.Next() {
		entity, err := t.read(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, entity)
	}

	if err := rows.Err(); err != nil {
		return nil, types.WrapError(types.DB_QUERY_FAILED, fmt.Sprintf("error iterating %s", t.name), err)
	}

	return result, nil
}

// update rewrites the supplied columns plus updated_at. With no columns it
// only touches updated_at. Returns nil when id does not exist.
func (t *table[T]) update(ctx context.Context, q Querier, id types.ID, fields fieldSet) (*T, error) {
	all := make(fieldSet, 0, len(fields)+1)
	all = append(all, fields...)
	all.set("updated_at", formatTimestamp(t.db.Clock().Now()))

	assignments := make([]string, len(all))
	args := make([]any, 0, len(all)+1)
	for i, f := range all {
		assignments[i] = f.column + " = ?"
		args = append(args, f.value)
	}
	args = append(args, id.String())

	query := fmt.Sprintf("UPDATE %s SET %s WHERE id = ?", t.name, strings.Join(assignments, ", "))

	result, err := q.ExecContext(ctx, query, args...)
	if err != nil {
		return nil, types.WrapError(types.DB_QUERY_FAILED, fmt.Sprintf("failed to update %s", t.name), err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return nil, types.WrapError(types.DB_QUERY_FAILED, "failed to get rows affected", err)
	}
	if affected == 0 {
		return nil, nil
	}

	return t.findByID(ctx, q, id)
}

// delete removes the row with id and reports whether one was removed.
func (t *table[T]) delete(ctx context.Context, q Querier, id types.ID) (bool, error) {
	result, err := q.ExecContext(ctx, fmt.Sprintf("DELETE FROM %s WHERE id = ?", t.name), id.String())
	if err != nil {
		return false, types.WrapError(types.DB_QUERY_FAILED, fmt.Sprintf("failed to delete from %s", t.name), err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return false, types.WrapError(types.DB_QUERY_FAILED, "failed to get rows affected", err)
	}
	return affected > 0, nil
}

// boolToInt converts to the 0/1 form stored in INTEGER columns.
func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

// integerValue accepts only a stored integer. SQLite keeps text that does not
// look numeric as text even in an INTEGER column, so a scan straight into an
// int would fail as a driver conversion error.
func integerValue(column string, v any) (int64, error) {
	n, ok := v.(int64)
	if !ok {
		return 0, fmt.Errorf("%s holds non-integer value %v (%T)", column, v, v)
	}
	return n, nil
}

// intToBool accepts only 0 and 1.
func intToBool(v int64) (bool, error) {
	switch v {
	case 0:
		return false, nil
	case 1:
		return true, nil
	default:
		return false, fmt.Errorf("boolean column holds %d", v)
	}
}

// nullableString maps a NULL column to nil.
func nullableString(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	s := ns.String
	return &s
}

// nullableTimestamp parses a nullable timestamp column.
func nullableTimestamp(ns sql.NullString) (*time.Time, error) {
	if !ns.Valid {
		return nil, nil
	}
	t, err := parseTimestamp(ns.String)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// timestamps holds the three timestamp columns shared by every entity table.
type timestamps struct {
	creationDate   string
	updatedAt      string
	completionDate sql.NullString
}

func (ts timestamps) decode() (created, updated time.Time, completed *time.Time, err error) {
	if created, err = parseTimestamp(ts.creationDate); err != nil {
		return created, updated, nil, fmt.Errorf("creation_date: %w", err)
	}
	if updated, err = parseTimestamp(ts.updatedAt); err != nil {
		return created, updated, nil, fmt.Errorf("updated_at: %w", err)
	}
	if completed, err = nullableTimestamp(ts.completionDate); err != nil {
		return created, updated, nil, fmt.Errorf("completion_date: %w", err)
	}
	return created, updated, completed, nil
}

// setCompletion adds the completion_date assignment implied by a patch.
func setCompletion(fs *fieldSet, date *time.Time, clear bool) {
	switch {
	case clear:
		fs.set("completion_date", nil)
	case date != nil:
		fs.set("completion_date", formatTimestamp(*date))
	}
}

// statusArgs expands a status filter into an IN clause and its arguments.
func statusArgs[S ~string](statuses []S) (string, []any) {
	placeholders := make([]string, len(statuses))
	args := make([]any, len(statuses))
	for i, s := range statuses {
		placeholders[i] = "?"
		args[i] = string(s)
	}
	return "(" + strings.Join(placeholders, ", ") + ")", args
}
