package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"go.opentelemetry.io/otel/metric"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"

	"github.com/jonit-dev/vibe-planner-mcp-sub000/cmd/vibeplanner/internal"
	"github.com/jonit-dev/vibe-planner-mcp-sub000/internal/config"
	"github.com/jonit-dev/vibe-planner-mcp-sub000/internal/database"
	"github.com/jonit-dev/vibe-planner-mcp-sub000/internal/observability"
	"github.com/jonit-dev/vibe-planner-mcp-sub000/internal/orchestrator"
	"github.com/jonit-dev/vibe-planner-mcp-sub000/internal/persistence"
	"github.com/jonit-dev/vibe-planner-mcp-sub000/internal/types"
)

// app is the per-invocation wiring: configuration, telemetry, the database
// and the planning services built over it.
type app struct {
	cfg    *config.Config
	logger *slog.Logger
	db     *database.DB

	plans  *orchestrator.PlanService
	phases *orchestrator.PhaseService
	tasks  *orchestrator.TaskService

	format internal.OutputFormat
	out    internal.Formatter

	logCloser      io.Closer
	tracerProvider *sdktrace.TracerProvider
	meterProvider  metric.MeterProvider
}

// resolveConfig loads the config file for flags. Without a config file the
// defaults are rooted at the chosen home directory.
func resolveConfig(flags *GlobalFlags) (*config.Config, string, error) {
	homeDir := flags.HomeDir
	if homeDir == "" {
		homeDir = os.Getenv("VIBEPLANNER_HOME")
	}
	if homeDir == "" {
		homeDir = config.DefaultHomeDir()
	}

	configFile := flags.ConfigFile
	if configFile == "" {
		configFile = config.DefaultConfigPath(homeDir)
	}
	_, statErr := os.Stat(configFile)

	cfg, err := config.NewConfigLoader(config.NewValidator()).LoadWithDefaults(configFile)
	if err != nil {
		return nil, "", err
	}

	if errors.Is(statErr, os.ErrNotExist) {
		cfg.Core.HomeDir = homeDir
		if os.Getenv(config.EnvPrefix+"_DATABASE_PATH") == "" {
			cfg.Database.Path = filepath.Join(homeDir, "planner.db")
		}
	}
	if flags.DBPath != "" {
		cfg.Database.Path = flags.DBPath
	}
	switch {
	case flags.Verbose:
		cfg.Logging.Level = "debug"
	case flags.Quiet:
		cfg.Logging.Level = "error"
	}

	return cfg, configFile, nil
}

func openApp(ctx context.Context, cmd *cobra.Command, flags *GlobalFlags) (a *app, err error) {
	cfg, _, err := resolveConfig(flags)
	if err != nil {
		return nil, err
	}

	a = &app{cfg: cfg}
	defer func() {
		if err != nil {
			_ = a.Close(ctx)
		}
	}()

	outputName := flags.OutputFormat
	if outputName == "" {
		outputName = cfg.Core.Output
	}
	if a.format, err = internal.ParseOutputFormat(outputName); err != nil {
		return nil, internal.WrapError(internal.ExitValidation, "invalid output format", err)
	}
	a.out = internal.NewFormatter(a.format, cmd.OutOrStdout())

	if a.logger, a.logCloser, err = observability.NewLogger(cfg.Logging); err != nil {
		return nil, internal.WrapError(internal.ExitConfigError, "failed to set up logging", err)
	}
	if a.tracerProvider, err = observability.InitTracing(ctx, cfg.Tracing); err != nil {
		return nil, internal.WrapError(internal.ExitConfigError, "failed to set up tracing", err)
	}
	if a.meterProvider, err = observability.InitMetrics(ctx, cfg.Metrics); err != nil {
		return nil, internal.WrapError(internal.ExitConfigError, "failed to set up metrics", err)
	}
	metrics, err := observability.NewMetrics(a.meterProvider.Meter(observability.TracerName))
	if err != nil {
		return nil, internal.WrapError(internal.ExitConfigError, "failed to register metrics", err)
	}

	if a.db, err = openDatabase(ctx, cfg.Database); err != nil {
		return nil, err
	}

	store := persistence.NewService(a.db, persistence.WithLogger(a.logger))
	opts := []orchestrator.Option{
		orchestrator.WithLogger(a.logger),
		orchestrator.WithTracer(a.tracerProvider.Tracer(observability.TracerName)),
		orchestrator.WithMetrics(metrics),
	}
	a.plans = orchestrator.NewPlanService(store, opts...)
	a.phases = orchestrator.NewPhaseService(store, opts...)
	a.tasks = orchestrator.NewTaskService(store, opts...)

	return a, nil
}

// openDatabase opens the store, creating its directory, and applies migrations.
func openDatabase(ctx context.Context, cfg config.DBConfig) (*database.DB, error) {
	if err := os.MkdirAll(filepath.Dir(cfg.Path), 0o700); err != nil {
		return nil, types.WrapError(types.DB_OPEN_FAILED, "failed to create database directory", err)
	}

	db, err := database.OpenWithConfig(cfg.Store())
	if err != nil {
		return nil, err
	}
	if err := db.InitSchema(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}

// Close releases everything openApp acquired.
func (a *app) Close(ctx context.Context) error {
	var errs []error
	if a.db != nil {
		errs = append(errs, a.db.Close())
	}
	errs = append(errs,
		observability.ShutdownTracing(ctx, a.tracerProvider),
		observability.ShutdownMetrics(ctx, a.meterProvider),
	)
	if a.logCloser != nil {
		errs = append(errs, a.logCloser.Close())
	}
	return errors.Join(errs...)
}

// emit prints data in the structured formats, or calls text for text output.
func (a *app) emit(data any, text func(out internal.Formatter) error) error {
	if a.format != internal.FormatText {
		return a.out.PrintData(data)
	}
	return text(a.out)
}

type appRunFunc func(ctx context.Context, cmd *cobra.Command, a *app, args []string) error

// withApp adapts fn to a cobra RunE that opens and closes the app around it.
func withApp(flags *GlobalFlags, fn appRunFunc) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) (err error) {
		ctx := cmd.Context()
		a, err := openApp(ctx, cmd, flags)
		if err != nil {
			return err
		}
		defer func() {
			if closeErr := a.Close(context.WithoutCancel(ctx)); closeErr != nil && err == nil {
				err = closeErr
			}
		}()

		return fn(ctx, cmd, a, args)
	}
}

// parseID parses a positional id argument.
func parseID(kind, s string) (types.ID, error) {
	id, err := types.ParseID(s)
	if err != nil {
		return "", internal.WrapError(internal.ExitValidation, fmt.Sprintf("invalid %s id %q", kind, s), err)
	}
	return id, nil
}

// parseIDs parses a list of id flag values.
func parseIDs(kind string, values []string) ([]types.ID, error) {
	ids, err := types.ParseIDs(values)
	if err != nil {
		return nil, internal.WrapError(internal.ExitValidation, fmt.Sprintf("invalid %s id", kind), err)
	}
	return ids, nil
}
