package database

import (
	"context"
	"database/sql"
	_ "embed"
	"fmt"
	"sort"
	"strings"
)

//go:embed schema.sql
var planningSchema string

// Migrator handles database schema migrations
type Migrator interface {
	// Migrate applies all pending migrations
	Migrate(ctx context.Context) error

	// CurrentVersion returns the current schema version
	CurrentVersion(ctx context.Context) (int, error)

	// Rollback rolls back to a target version
	Rollback(ctx context.Context, targetVersion int) error

	// GetAppliedMigrations returns a list of all applied migrations
	GetAppliedMigrations(ctx context.Context) ([]MigrationInfo, error)
}

// MigrationInfo contains information about an applied migration
type MigrationInfo struct {
	Version   int
	Name      string
	AppliedAt string
}

type migration struct {
	version int
	name    string
	up      string
	down    string
}

type migrator struct {
	db         *DB
	migrations []migration
}

// NewMigrator creates a new database migrator
func NewMigrator(db *DB) Migrator {
	return &migrator{
		db:         db,
		migrations: getMigrations(),
	}
}

// getMigrations returns all available migrations in version order
func getMigrations() []migration {
	migrations := []migration{
		{
			version: 1,
			name:    "planning_schema",
			up:      planningSchema,
			down: `
DROP INDEX IF EXISTS idx_task_dependencies_dependency;
DROP INDEX IF EXISTS idx_tasks_status;
DROP INDEX IF EXISTS idx_tasks_phase_order;
DROP INDEX IF EXISTS idx_phases_plan_order;
DROP TABLE IF EXISTS task_dependencies;
DROP TABLE IF EXISTS tasks;
DROP TABLE IF EXISTS phases;
DROP TABLE IF EXISTS plans;
`,
		},
		{
			version: 2,
			name:    "plans_creation_index",
			up: `
-- newest-first plan listing
CREATE INDEX IF NOT EXISTS idx_plans_creation_date ON plans(creation_date DESC);
`,
			down: `DROP INDEX IF EXISTS idx_plans_creation_date;`,
		},
	}

	sort.Slice(migrations, func(i, j int) bool {
		return migrations[i].version < migrations[j].version
	})

	return migrations
}

// Migrate applies all pending migrations
func (m *migrator) Migrate(ctx context.Context) error {
	if err := m.ensureMigrationsTable(ctx); err != nil {
		return fmt.Errorf("failed to create migrations table: %w", err)
	}

	currentVersion, err := m.CurrentVersion(ctx)
	if err != nil {
		return fmt.Errorf("failed to get current version: %w", err)
	}

	for _, mig := range m.migrations {
		if mig.version <= currentVersion {
			continue
		}
		if err := m.applyMigration(ctx, mig); err != nil {
			return fmt.Errorf("failed to apply migration %d (%s): %w", mig.version, mig.name, err)
		}
	}

	return nil
}

// CurrentVersion returns the current schema version
func (m *migrator) CurrentVersion(ctx context.Context) (int, error) {
	if err := m.ensureMigrationsTable(ctx); err != nil {
		return 0, fmt.Errorf("failed to ensure migrations table: %w", err)
	}

	var version int
	err := m.db.conn.QueryRowContext(ctx, "SELECT COALESCE(MAX(version), 0) FROM migrations").Scan(&version)
	if err != nil {
		return 0, fmt.Errorf("failed to query current version: %w", err)
	}

	return version, nil
}

// Rollback rolls back to a target version
func (m *migrator) Rollback(ctx context.Context, targetVersion int) error {
	if targetVersion < 0 {
		return fmt.Errorf("invalid target version: %d", targetVersion)
	}

	currentVersion, err := m.CurrentVersion(ctx)
	if err != nil {
		return fmt.Errorf("failed to get current version: %w", err)
	}

	if targetVersion > currentVersion {
		return fmt.Errorf("cannot rollback to future version %d (current: %d)", targetVersion, currentVersion)
	}

	for i := len(m.migrations) - 1; i >= 0; i-- {
		mig := m.migrations[i]
		if mig.version <= targetVersion {
			break
		}
		if mig.version > currentVersion {
			continue
		}
		if err := m.rollbackMigration(ctx, mig); err != nil {
			return fmt.Errorf("failed to rollback migration %d (%s): %w", mig.version, mig.name, err)
		}
	}

	return nil
}

// GetAppliedMigrations returns a list of all applied migrations
func (m *migrator) GetAppliedMigrations(ctx context.Context) ([]MigrationInfo, error) {
	if err := m.ensureMigrationsTable(ctx); err != nil {
		return nil, fmt.Errorf("failed to ensure migrations table: %w", err)
	}

	rows, err := m.db.conn.QueryContext(ctx, "SELECT version, name, applied_at FROM migrations ORDER BY version")
	if err != nil {
		return nil, fmt.Errorf("failed to query migrations: %w", err)
	}
	defer rows.Close()

	var migrations []MigrationInfo
	for rows.Next() {
		var info MigrationInfo
		if err := rows.Scan(&info.Version, &info.Name, &info.AppliedAt); err != nil {
			return nil, fmt.Errorf("failed to scan migration: %w", err)
		}
		migrations = append(migrations, info)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating migrations: %w", err)
	}

	return migrations, nil
}

func (m *migrator) ensureMigrationsTable(ctx context.Context) error {
	query := `
	CREATE TABLE IF NOT EXISTS migrations (
		version INTEGER PRIMARY KEY,
		name TEXT NOT NULL,
		applied_at TEXT NOT NULL DEFAULT CURRENT_TIMESTAMP
	)`

	if _, err := m.db.conn.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("failed to create migrations table: %w", err)
	}
	return nil
}

// applyMigration applies a single migration within a transaction
func (m *migrator) applyMigration(ctx context.Context, mig migration) error {
	return m.db.WithTx(ctx, func(tx *sql.Tx) error {
		if err := execScript(ctx, tx, mig.up); err != nil {
			return err
		}

		_, err := tx.ExecContext(ctx,
			"INSERT INTO migrations (version, name, applied_at) VALUES (?, ?, CURRENT_TIMESTAMP)",
			mig.version, mig.name)
		if err != nil {
			return fmt.Errorf("failed to record migration: %w", err)
		}
		return nil
	})
}

// rollbackMigration rolls back a single migration within a transaction
func (m *migrator) rollbackMigration(ctx context.Context, mig migration) error {
	return m.db.WithTx(ctx, func(tx *sql.Tx) error {
		if err := execScript(ctx, tx, mig.down); err != nil {
			return err
		}

		if _, err := tx.ExecContext(ctx, "DELETE FROM migrations WHERE version = ?", mig.version); err != nil {
			return fmt.Errorf("failed to remove migration record: %w", err)
		}
		return nil
	})
}

// execScript runs every statement of a multi-statement SQL script.
func execScript(ctx context.Context, tx *sql.Tx, script string) error {
	for _, stmt := range splitSQL(script) {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to execute statement: %w\nStatement: %s", err, stmt)
		}
	}
	return nil
}

// splitSQL splits a script into statements on semicolons that are outside
// string literals. "--" comments are dropped.
func splitSQL(script string) []string {
	var statements []string
	var current strings.Builder
	var quote rune
	inComment := false

	flush := func() {
		if stmt := strings.TrimSpace(current.String()); stmt != "" {
			statements = append(statements, stmt)
		}
		current.Reset()
	}

	runes := []rune(script)
	for i := 0; i < len(runes); i++ {
		ch := runes[i]
		switch {
		case inComment:
			if ch == '\n' {
				inComment = false
				current.WriteRune(ch)
			}
		case quote != 0:
			if ch == quote {
				quote = 0
			}
			current.WriteRune(ch)
		case ch == '-' && i+1 < len(runes) && runes[i+1] == '-':
			inComment = true
			i++
		case ch == '\'' || ch == '"':
			quote = ch
			current.WriteRune(ch)
		case ch == ';':
			flush()
		default:
			current.WriteRune(ch)
		}
	}
	flush()

	return statements
}
