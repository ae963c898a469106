package main

import (
	"context"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/jonit-dev/vibe-planner-mcp-sub000/cmd/vibeplanner/internal"
	"github.com/jonit-dev/vibe-planner-mcp-sub000/internal/database"
	"github.com/jonit-dev/vibe-planner-mcp-sub000/internal/types"
)

func newDBCmd(flags *GlobalFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "db",
		Short: "Inspect and maintain the planner database",
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "status",
			Short: "Show the database path, schema version and connection stats",
			Args:  cobra.NoArgs,
			RunE:  withApp(flags, runDBStatus),
		},
		&cobra.Command{
			Use:   "vacuum",
			Short: "Checkpoint the WAL and reclaim unused space",
			Args:  cobra.NoArgs,
			RunE:  withApp(flags, runDBVacuum),
		},
	)
	return cmd
}

type dbStatus struct {
	Path       string                   `json:"path" yaml:"path"`
	Healthy    bool                     `json:"healthy" yaml:"healthy"`
	Version    int                      `json:"schemaVersion" yaml:"schema_version"`
	Migrations []database.MigrationInfo `json:"migrations" yaml:"migrations"`
	Stats      database.Stats           `json:"stats" yaml:"stats"`
}

func runDBStatus(ctx context.Context, _ *cobra.Command, a *app, _ []string) error {
	migrator := database.NewMigrator(a.db)

	version, err := migrator.CurrentVersion(ctx)
	if err != nil {
		return types.WrapError(types.DB_QUERY_FAILED, "failed to read schema version", err)
	}
	applied, err := migrator.GetAppliedMigrations(ctx)
	if err != nil {
		return types.WrapError(types.DB_QUERY_FAILED, "failed to list migrations", err)
	}

	status := dbStatus{
		Path:       a.db.Path(),
		Healthy:    a.db.Health(ctx) == nil,
		Version:    version,
		Migrations: applied,
		Stats:      a.db.Stats(),
	}

	return a.emit(status, func(out internal.Formatter) error {
		err := out.PrintDetails("Database", []internal.Field{
			{Label: "Path", Value: status.Path},
			{Label: "Healthy", Value: strconv.FormatBool(status.Healthy)},
			{Label: "Schema version", Value: strconv.Itoa(status.Version)},
			{Label: "Open connections", Value: strconv.Itoa(status.Stats.OpenConnections)},
		})
		if err != nil {
			return err
		}
		rows := make([][]string, 0, len(applied))
		for _, m := range applied {
			rows = append(rows, []string{strconv.Itoa(m.Version), m.Name, m.AppliedAt})
		}
		return out.PrintTable([]string{"version", "name", "applied"}, rows)
	})
}

func runDBVacuum(ctx context.Context, _ *cobra.Command, a *app, _ []string) error {
	if err := a.db.Checkpoint(ctx); err != nil {
		return types.WrapError(types.DB_QUERY_FAILED, "failed to checkpoint database", err)
	}
	if err := a.db.Vacuum(ctx); err != nil {
		return types.WrapError(types.DB_QUERY_FAILED, "failed to vacuum database", err)
	}
	a.logger.Info("database vacuumed", "path", a.db.Path())
	return a.out.PrintSuccess(fmt.Sprintf("vacuumed %s", a.db.Path()))
}
