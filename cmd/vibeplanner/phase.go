package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jonit-dev/vibe-planner-mcp-sub000/cmd/vibeplanner/internal"
	"github.com/jonit-dev/vibe-planner-mcp-sub000/internal/prd"
)

func newPhaseCmd(flags *GlobalFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "phase",
		Short: "Manage the phases of a plan",
	}

	cmd.AddCommand(
		newPhaseAddCmd(flags),
		&cobra.Command{
			Use:   "list <plan-id>",
			Short: "List a plan's phases in order",
			Args:  cobra.ExactArgs(1),
			RunE:  withApp(flags, runPhaseList),
		},
		&cobra.Command{
			Use:   "show <phase-id>",
			Short: "Show a phase with its tasks",
			Args:  cobra.ExactArgs(1),
			RunE:  withApp(flags, runPhaseShow),
		},
		newPhaseUpdateCmd(flags),
		&cobra.Command{
			Use:   "status <phase-id> <status>",
			Short: "Set the status of a phase",
			Args:  cobra.ExactArgs(2),
			RunE:  withApp(flags, runPhaseStatus),
		},
		&cobra.Command{
			Use:   "delete <phase-id>",
			Short: "Delete a phase with its tasks",
			Args:  cobra.ExactArgs(1),
			RunE:  withApp(flags, runPhaseDelete),
		},
	)
	return cmd
}

func newPhaseAddCmd(flags *GlobalFlags) *cobra.Command {
	var (
		name, description, status string
		order                     int
	)

	cmd := &cobra.Command{
		Use:   "add <plan-id>",
		Short: "Add a phase to a plan",
		Args:  cobra.ExactArgs(1),
		RunE: withApp(flags, func(ctx context.Context, cmd *cobra.Command, a *app, args []string) error {
			planID, err := parseID("plan", args[0])
			if err != nil {
				return err
			}

			in := prd.NewPhase{Name: name, Order: order, Status: prd.PhaseStatus(status)}
			if cmd.Flags().Changed("description") {
				in.Description = &description
			}

			phase, err := a.phases.CreatePhase(ctx, planID, in)
			if err != nil {
				return err
			}
			if phase == nil {
				return internal.NotFound("plan", planID)
			}
			return a.emit(phase, func(out internal.Formatter) error {
				return out.PrintSuccess(fmt.Sprintf("added phase %s (%s)", phase.Name, phase.ID))
			})
		}),
	}
	cmd.Flags().StringVar(&name, "name", "", "Phase name (required)")
	cmd.Flags().StringVar(&description, "description", "", "Phase description")
	cmd.Flags().IntVar(&order, "order", 1, "Position of the phase within the plan")
	cmd.Flags().StringVar(&status, "status", "", "Initial status (default pending)")
	_ = cmd.MarkFlagRequired("name")
	return cmd
}

func runPhaseList(ctx context.Context, _ *cobra.Command, a *app, args []string) error {
	plan, err := loadPlan(ctx, a, args[0])
	if err != nil {
		return err
	}

	phases, err := a.phases.GetPhasesForPlan(ctx, plan.ID)
	if err != nil {
		return err
	}
	return a.emit(phases, func(out internal.Formatter) error {
		return printPhases(out, phases)
	})
}

func runPhaseShow(ctx context.Context, _ *cobra.Command, a *app, args []string) error {
	id, err := parseID("phase", args[0])
	if err != nil {
		return err
	}

	phase, err := a.phases.GetPhase(ctx, id)
	if err != nil {
		return err
	}
	if phase == nil {
		return internal.NotFound("phase", id)
	}
	return a.emit(phase, func(out internal.Formatter) error {
		return printPhase(out, phase)
	})
}

func newPhaseUpdateCmd(flags *GlobalFlags) *cobra.Command {
	var (
		name, description string
		order             int
	)

	cmd := &cobra.Command{
		Use:   "update <phase-id>",
		Short: "Change the name, description or order of a phase",
		Args:  cobra.ExactArgs(1),
		RunE: withApp(flags, func(ctx context.Context, cmd *cobra.Command, a *app, args []string) error {
			id, err := parseID("phase", args[0])
			if err != nil {
				return err
			}

			var patch prd.PhasePatch
			if cmd.Flags().Changed("name") {
				patch.Name = &name
			}
			if cmd.Flags().Changed("description") {
				patch.Description = &description
			}
			if cmd.Flags().Changed("order") {
				patch.Order = &order
			}

			phase, err := a.phases.UpdatePhase(ctx, id, patch)
			if err != nil {
				return err
			}
			if phase == nil {
				return internal.NotFound("phase", id)
			}
			return a.emit(phase, func(out internal.Formatter) error {
				return out.PrintSuccess(fmt.Sprintf("updated phase %s", phase.ID))
			})
		}),
	}
	cmd.Flags().StringVar(&name, "name", "", "New phase name")
	cmd.Flags().StringVar(&description, "description", "", "New phase description")
	cmd.Flags().IntVar(&order, "order", 0, "New position within the plan")
	return cmd
}

func runPhaseStatus(ctx context.Context, _ *cobra.Command, a *app, args []string) error {
	id, err := parseID("phase", args[0])
	if err != nil {
		return err
	}

	phase, err := a.phases.UpdatePhaseStatus(ctx, id, prd.PhaseStatus(args[1]))
	if err != nil {
		return err
	}
	if phase == nil {
		return internal.NotFound("phase", id)
	}
	return a.emit(phase, func(out internal.Formatter) error {
		return out.PrintSuccess(fmt.Sprintf("phase %s is now %s", phase.ID, phase.Status))
	})
}

func runPhaseDelete(ctx context.Context, _ *cobra.Command, a *app, args []string) error {
	id, err := parseID("phase", args[0])
	if err != nil {
		return err
	}

	deleted, err := a.phases.DeletePhase(ctx, id)
	if err != nil {
		return err
	}
	if !deleted {
		return internal.NotFound("phase", id)
	}
	return a.out.PrintSuccess(fmt.Sprintf("deleted phase %s", id))
}
