package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/jonit-dev/vibe-planner-mcp-sub000/cmd/vibeplanner/internal"
	"github.com/jonit-dev/vibe-planner-mcp-sub000/internal/config"
	"github.com/jonit-dev/vibe-planner-mcp-sub000/pkg/version"
)

func newInitCmd(flags *GlobalFlags) *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Create the home directory, config file and database",
		Long: `Create the planner home directory, write a default config.yaml if none
exists (or --force is given), and create or migrate the database.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInit(cmd.Context(), cmd, flags, force)
		},
	}
	cmd.Flags().BoolVar(&force, "force", false, "Overwrite an existing config file")
	return cmd
}

func runInit(ctx context.Context, cmd *cobra.Command, flags *GlobalFlags, force bool) error {
	cfg, configFile, err := resolveConfig(flags)
	if err != nil {
		return err
	}

	format := internal.FormatText
	if flags.OutputFormat != "" {
		format, _ = internal.ParseOutputFormat(flags.OutputFormat)
	}
	out := internal.NewFormatter(format, cmd.OutOrStdout())

	_, statErr := os.Stat(configFile)
	wrote := false
	if force || errors.Is(statErr, os.ErrNotExist) {
		if err := config.Save(cfg, configFile); err != nil {
			return err
		}
		wrote = true
	}

	db, err := openDatabase(ctx, cfg.Database)
	if err != nil {
		return err
	}
	defer db.Close()

	if format != internal.FormatText {
		return out.PrintData(map[string]any{
			"config":        configFile,
			"configWritten": wrote,
			"database":      cfg.Database.Path,
		})
	}
	if wrote {
		if err := out.PrintSuccess(fmt.Sprintf("wrote config %s", configFile)); err != nil {
			return err
		}
	}
	return out.PrintSuccess(fmt.Sprintf("database ready at %s", cfg.Database.Path))
}

func newVersionCmd(flags *GlobalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if flags.OutputFormat == "" || flags.OutputFormat == string(internal.FormatText) {
				_, err := fmt.Fprintln(cmd.OutOrStdout(), version.String())
				return err
			}
			format, err := internal.ParseOutputFormat(flags.OutputFormat)
			if err != nil {
				return err
			}
			return internal.NewFormatter(format, cmd.OutOrStdout()).PrintData(version.Info())
		},
	}
}
