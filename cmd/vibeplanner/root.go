package main

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/jonit-dev/vibe-planner-mcp-sub000/cmd/vibeplanner/internal"
)

// GlobalFlags holds global flags available to all commands
type GlobalFlags struct {
	Verbose      bool
	Quiet        bool
	OutputFormat string
	ConfigFile   string
	HomeDir      string
	DBPath       string
}

// Register adds the persistent flags to the root command
func (f *GlobalFlags) Register(cmd *cobra.Command) {
	cmd.PersistentFlags().BoolVarP(&f.Verbose, "verbose", "v", false, "Enable debug logging")
	cmd.PersistentFlags().BoolVarP(&f.Quiet, "quiet", "q", false, "Only log errors")
	cmd.PersistentFlags().StringVarP(&f.OutputFormat, "output", "o", "", "Output format (text|json|yaml, default from config)")
	cmd.PersistentFlags().StringVar(&f.ConfigFile, "config", "", "Path to config file (default: $VIBEPLANNER_HOME/config.yaml)")
	cmd.PersistentFlags().StringVar(&f.HomeDir, "home", "", "Planner home directory (default: ~/.vibeplanner)")
	cmd.PersistentFlags().StringVar(&f.DBPath, "db", "", "Path to the planner database (overrides config)")
}

// Validate rejects conflicting or unknown flag values.
func (f *GlobalFlags) Validate() error {
	if f.Verbose && f.Quiet {
		return internal.NewCLIError(internal.ExitValidation, "--verbose and --quiet cannot be used together")
	}
	if f.OutputFormat != "" {
		if _, err := internal.ParseOutputFormat(f.OutputFormat); err != nil {
			return internal.WrapError(internal.ExitValidation, "invalid --output", err)
		}
	}
	return nil
}

func newRootCmd() *cobra.Command {
	flags := &GlobalFlags{}

	cmd := &cobra.Command{
		Use:   "vibeplanner",
		Short: "Plan work as plans, phases and dependent tasks",
		Long: `vibeplanner keeps plans in a local SQLite database. A plan holds ordered
phases, a phase holds ordered tasks, and tasks may depend on other tasks.

Use 'vibeplanner task next <plan-id>' to get the next actionable task.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return flags.Validate()
		},
	}
	flags.Register(cmd)

	cmd.AddCommand(
		newInitCmd(flags),
		newVersionCmd(flags),
		newPlanCmd(flags),
		newPhaseCmd(flags),
		newTaskCmd(flags),
		newDBCmd(flags),
	)
	return cmd
}

// Execute runs the root command with signal handling
func Execute(ctx context.Context, cmd *cobra.Command) error {
	ctx, cancel := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	return cmd.ExecuteContext(ctx)
}
