package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/jonit-dev/vibe-planner-mcp-sub000/cmd/vibeplanner/internal"
	"github.com/jonit-dev/vibe-planner-mcp-sub000/internal/prd"
	"github.com/jonit-dev/vibe-planner-mcp-sub000/internal/types"
)

func newPlanCmd(flags *GlobalFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "plan",
		Aliases: []string{"prd"},
		Short:   "Manage plans",
	}

	cmd.AddCommand(
		newPlanCreateCmd(flags),
		&cobra.Command{
			Use:   "list",
			Short: "List plans, newest first",
			Args:  cobra.NoArgs,
			RunE:  withApp(flags, runPlanList),
		},
		&cobra.Command{
			Use:   "show <plan-id>",
			Short: "Show a plan with its phases",
			Args:  cobra.ExactArgs(1),
			RunE:  withApp(flags, runPlanShow),
		},
		&cobra.Command{
			Use:       "status <plan-id> <status>",
			Short:     "Set the status of a plan",
			Args:      cobra.ExactArgs(2),
			ValidArgs: planStatusNames(),
			RunE:      withApp(flags, runPlanStatus),
		},
		newPlanUpdateCmd(flags),
		&cobra.Command{
			Use:   "delete <plan-id>",
			Short: "Delete a plan with all its phases and tasks",
			Args:  cobra.ExactArgs(1),
			RunE:  withApp(flags, runPlanDelete),
		},
		&cobra.Command{
			Use:   "progress <plan-id>",
			Short: "Show task completion for a plan",
			Args:  cobra.ExactArgs(1),
			RunE:  withApp(flags, runPlanProgress),
		},
		newPlanExportCmd(flags),
		&cobra.Command{
			Use:   "cycles <plan-id>",
			Short: "Report dependency cycles reachable from a plan's tasks",
			Args:  cobra.ExactArgs(1),
			RunE:  withApp(flags, runPlanCycles),
		},
	)
	return cmd
}

func planStatusNames() []string {
	names := make([]string, 0, len(prd.PlanStatuses()))
	for _, s := range prd.PlanStatuses() {
		names = append(names, s.String())
	}
	return names
}

func newPlanCreateCmd(flags *GlobalFlags) *cobra.Command {
	var name, description string

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a plan",
		Args:  cobra.NoArgs,
		RunE: withApp(flags, func(ctx context.Context, cmd *cobra.Command, a *app, args []string) error {
			in := prd.NewPlan{Name: name}
			if cmd.Flags().Changed("description") {
				in.Description = &description
			}

			plan, err := a.plans.InitializePrd(ctx, in)
			if err != nil {
				return err
			}
			return a.emit(plan, func(out internal.Formatter) error {
				return out.PrintSuccess(fmt.Sprintf("created plan %s (%s)", plan.Name, plan.ID))
			})
		}),
	}
	cmd.Flags().StringVar(&name, "name", "", "Plan name (required)")
	cmd.Flags().StringVar(&description, "description", "", "Plan description")
	_ = cmd.MarkFlagRequired("name")
	return cmd
}

func runPlanList(ctx context.Context, _ *cobra.Command, a *app, _ []string) error {
	plans, err := a.plans.ListPrds(ctx)
	if err != nil {
		return err
	}
	return a.emit(plans, func(out internal.Formatter) error {
		return printPlans(out, plans)
	})
}

func loadPlan(ctx context.Context, a *app, arg string) (*prd.Plan, error) {
	id, err := parseID("plan", arg)
	if err != nil {
		return nil, err
	}
	plan, err := a.plans.GetPrd(ctx, id)
	if err != nil {
		return nil, err
	}
	if plan == nil {
		return nil, internal.NotFound("plan", id)
	}
	return plan, nil
}

func runPlanShow(ctx context.Context, _ *cobra.Command, a *app, args []string) error {
	plan, err := loadPlan(ctx, a, args[0])
	if err != nil {
		return err
	}
	return a.emit(plan, func(out internal.Formatter) error {
		return printPlan(out, plan)
	})
}

func runPlanStatus(ctx context.Context, _ *cobra.Command, a *app, args []string) error {
	id, err := parseID("plan", args[0])
	if err != nil {
		return err
	}

	plan, err := a.plans.UpdatePrdStatus(ctx, id, prd.PlanStatus(args[1]))
	if err != nil {
		return err
	}
	if plan == nil {
		return internal.NotFound("plan", id)
	}
	return a.emit(plan, func(out internal.Formatter) error {
		return out.PrintSuccess(fmt.Sprintf("plan %s is now %s", plan.ID, plan.Status))
	})
}

func newPlanUpdateCmd(flags *GlobalFlags) *cobra.Command {
	var name, description string

	cmd := &cobra.Command{
		Use:   "update <plan-id>",
		Short: "Change the name or description of a plan",
		Args:  cobra.ExactArgs(1),
		RunE: withApp(flags, func(ctx context.Context, cmd *cobra.Command, a *app, args []string) error {
			id, err := parseID("plan", args[0])
			if err != nil {
				return err
			}

			var namePtr, descriptionPtr *string
			if cmd.Flags().Changed("name") {
				namePtr = &name
			}
			if cmd.Flags().Changed("description") {
				descriptionPtr = &description
			}

			plan, err := a.plans.UpdatePrdDetails(ctx, id, namePtr, descriptionPtr)
			if err != nil {
				return err
			}
			if plan == nil {
				return internal.NotFound("plan", id)
			}
			return a.emit(plan, func(out internal.Formatter) error {
				return out.PrintSuccess(fmt.Sprintf("updated plan %s", plan.ID))
			})
		}),
	}
	cmd.Flags().StringVar(&name, "name", "", "New plan name")
	cmd.Flags().StringVar(&description, "description", "", "New plan description")
	return cmd
}

func runPlanDelete(ctx context.Context, _ *cobra.Command, a *app, args []string) error {
	id, err := parseID("plan", args[0])
	if err != nil {
		return err
	}

	deleted, err := a.plans.DeletePrd(ctx, id)
	if err != nil {
		return err
	}
	if !deleted {
		return internal.NotFound("plan", id)
	}
	return a.out.PrintSuccess(fmt.Sprintf("deleted plan %s", id))
}

func runPlanProgress(ctx context.Context, _ *cobra.Command, a *app, args []string) error {
	id, err := parseID("plan", args[0])
	if err != nil {
		return err
	}

	progress, err := a.plans.GetPlanProgress(ctx, id)
	if err != nil {
		return err
	}
	if progress == nil {
		return internal.NotFound("plan", id)
	}
	return a.emit(progress, func(out internal.Formatter) error {
		return printProgress(out, progress)
	})
}

func newPlanExportCmd(flags *GlobalFlags) *cobra.Command {
	var format, file string

	cmd := &cobra.Command{
		Use:   "export <plan-id>",
		Short: "Export a plan with its phases and tasks as YAML or JSON",
		Args:  cobra.ExactArgs(1),
		RunE: withApp(flags, func(ctx context.Context, cmd *cobra.Command, a *app, args []string) error {
			outputFormat, err := internal.ParseOutputFormat(format)
			if err != nil || outputFormat == internal.FormatText {
				return internal.NewCLIError(internal.ExitValidation, "--format must be yaml or json")
			}

			plan, err := loadPlan(ctx, a, args[0])
			if err != nil {
				return err
			}

			if file == "" {
				return internal.NewFormatter(outputFormat, cmd.OutOrStdout()).PrintData(plan)
			}

			f, err := os.OpenFile(file, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o600)
			if err != nil {
				return internal.WrapError(internal.ExitError, "failed to create export file", err)
			}
			if err := internal.NewFormatter(outputFormat, f).PrintData(plan); err != nil {
				_ = f.Close()
				return err
			}
			if err := f.Close(); err != nil {
				return err
			}
			return a.out.PrintSuccess(fmt.Sprintf("exported plan %s to %s", plan.ID, file))
		}),
	}
	cmd.Flags().StringVar(&format, "format", "yaml", "Export format (yaml|json)")
	cmd.Flags().StringVarP(&file, "file", "f", "", "Write to file instead of stdout")
	return cmd
}

func runPlanCycles(ctx context.Context, _ *cobra.Command, a *app, args []string) error {
	plan, err := loadPlan(ctx, a, args[0])
	if err != nil {
		return err
	}

	cycles, err := a.tasks.DetectDependencyCycles(ctx, plan.ID)
	if err != nil {
		return err
	}
	if cycles == nil {
		cycles = [][]types.ID{}
	}
	return a.emit(cycles, func(out internal.Formatter) error {
		return printCycles(out, cycles)
	})
}
