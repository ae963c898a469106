package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jonit-dev/vibe-planner-mcp-sub000/cmd/vibeplanner/internal"
	"github.com/jonit-dev/vibe-planner-mcp-sub000/internal/prd"
	"github.com/jonit-dev/vibe-planner-mcp-sub000/internal/types"
)

func newTaskCmd(flags *GlobalFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "task",
		Short: "Manage tasks and pick the next one to work on",
	}

	cmd.AddCommand(
		newTaskAddCmd(flags),
		newTaskListCmd(flags),
		&cobra.Command{
			Use:   "show <task-id>",
			Short: "Show a task",
			Args:  cobra.ExactArgs(1),
			RunE:  withApp(flags, runTaskShow),
		},
		newTaskUpdateCmd(flags),
		&cobra.Command{
			Use:   "delete <task-id>",
			Short: "Delete a task and its dependency edges",
			Args:  cobra.ExactArgs(1),
			RunE:  withApp(flags, runTaskDelete),
		},
		&cobra.Command{
			Use:   "next <plan-id>",
			Short: "Print the next actionable task of a plan",
			Long: `Print the first task, in phase and task order, that is pending or in
progress, sits in a pending or in-progress phase, and whose dependencies
are all completed or validated.`,
			Args: cobra.ExactArgs(1),
			RunE: withApp(flags, runTaskNext),
		},
	)
	return cmd
}

func newTaskAddCmd(flags *GlobalFlags) *cobra.Command {
	var (
		name, description, validationCommand, notes string
		order                                       int
		dependsOn                                   []string
	)

	cmd := &cobra.Command{
		Use:   "add <phase-id>",
		Short: "Add a pending task to a phase",
		Args:  cobra.ExactArgs(1),
		RunE: withApp(flags, func(ctx context.Context, cmd *cobra.Command, a *app, args []string) error {
			phaseID, err := parseID("phase", args[0])
			if err != nil {
				return err
			}
			deps, err := parseIDs("dependency", dependsOn)
			if err != nil {
				return err
			}

			details := prd.TaskDetails{Name: name, Order: order, Dependencies: deps}
			if cmd.Flags().Changed("description") {
				details.Description = &description
			}
			if cmd.Flags().Changed("validation-command") {
				details.ValidationCommand = &validationCommand
			}
			if cmd.Flags().Changed("notes") {
				details.Notes = &notes
			}

			task, err := a.tasks.AddTaskToPhase(ctx, phaseID, details)
			if err != nil {
				return err
			}
			if task == nil {
				return internal.NotFound("phase", phaseID)
			}
			return a.emit(task, func(out internal.Formatter) error {
				return out.PrintSuccess(fmt.Sprintf("added task %s (%s)", task.Name, task.ID))
			})
		}),
	}
	cmd.Flags().StringVar(&name, "name", "", "Task name (required)")
	cmd.Flags().StringVar(&description, "description", "", "Task description")
	cmd.Flags().IntVar(&order, "order", 1, "Position of the task within the phase")
	cmd.Flags().StringVar(&validationCommand, "validation-command", "", "Command that checks the task is done")
	cmd.Flags().StringVar(&notes, "notes", "", "Free-form notes")
	cmd.Flags().StringSliceVar(&dependsOn, "depends-on", nil, "Ids of tasks this task depends on")
	_ = cmd.MarkFlagRequired("name")
	return cmd
}

func newTaskListCmd(flags *GlobalFlags) *cobra.Command {
	var statuses []string

	cmd := &cobra.Command{
		Use:   "list <phase-id>",
		Short: "List a phase's tasks in order",
		Args:  cobra.ExactArgs(1),
		RunE: withApp(flags, func(ctx context.Context, cmd *cobra.Command, a *app, args []string) error {
			phaseID, err := parseID("phase", args[0])
			if err != nil {
				return err
			}

			filter := make([]prd.TaskStatus, 0, len(statuses))
			for _, s := range statuses {
				status := prd.TaskStatus(s)
				if !status.IsValid() {
					return internal.NewCLIError(internal.ExitValidation, fmt.Sprintf("unknown task status %q", s))
				}
				filter = append(filter, status)
			}

			tasks, err := a.tasks.GetTasksForPhase(ctx, phaseID, filter...)
			if err != nil {
				return err
			}
			return a.emit(tasks, func(out internal.Formatter) error {
				return printTasks(out, tasks)
			})
		}),
	}
	cmd.Flags().StringSliceVar(&statuses, "status", nil, "Only list tasks with these statuses")
	return cmd
}

func runTaskShow(ctx context.Context, _ *cobra.Command, a *app, args []string) error {
	id, err := parseID("task", args[0])
	if err != nil {
		return err
	}

	task, err := a.tasks.GetTask(ctx, id)
	if err != nil {
		return err
	}
	if task == nil {
		return internal.NotFound("task", id)
	}
	dependents, err := a.tasks.GetDependents(ctx, id)
	if err != nil {
		return err
	}

	view := taskView{Task: *task, Dependents: dependents}
	return a.emit(view, func(out internal.Formatter) error {
		return printTask(out, task, dependents)
	})
}

// taskView is a task together with the ids of the tasks that depend on it.
type taskView struct {
	prd.Task   `yaml:",inline"`
	Dependents []types.ID `json:"dependents" yaml:"dependents"`
}

func newTaskUpdateCmd(flags *GlobalFlags) *cobra.Command {
	var (
		name, description, status, notes string
		validationCommand, validationOut string
		outcome                          string
		order                            int
		validated, clearDeps             bool
		dependsOn                        []string
	)

	cmd := &cobra.Command{
		Use:   "update <task-id>",
		Short: "Update a task, optionally recording a validation outcome",
		Long: `Update a task. Only the flags given are changed.

--outcome success sets the status to validated and the validated flag; it
overrides --status and --validated. --outcome failure sets the status to
needs_review and clears the flag. Setting --status validated also sets the
flag, and moving a validated task to another status without --validated
clears it.`,
		Args: cobra.ExactArgs(1),
		RunE: withApp(flags, func(ctx context.Context, cmd *cobra.Command, a *app, args []string) error {
			id, err := parseID("task", args[0])
			if err != nil {
				return err
			}

			var update prd.TaskUpdate
			changed := cmd.Flags().Changed
			if changed("name") {
				update.Name = &name
			}
			if changed("description") {
				update.Description = &description
			}
			if changed("status") {
				update.Status = prd.Ptr(prd.TaskStatus(status))
			}
			if changed("validated") {
				update.IsValidated = &validated
			}
			if changed("order") {
				update.Order = &order
			}
			if changed("notes") {
				update.Notes = &notes
			}
			if changed("validation-command") {
				update.ValidationCommand = &validationCommand
			}
			if changed("validation-output") {
				update.ValidationOutput = &validationOut
			}
			if changed("outcome") {
				update.ValidationOutcome = prd.Ptr(prd.ValidationOutcome(outcome))
			}

			if clearDeps && changed("depends-on") {
				return internal.NewCLIError(internal.ExitValidation, "--depends-on and --clear-dependencies cannot be used together")
			}
			switch {
			case clearDeps:
				update.Dependencies = &[]types.ID{}
			case changed("depends-on"):
				deps, err := parseIDs("dependency", dependsOn)
				if err != nil {
					return err
				}
				update.Dependencies = &deps
			}

			task, err := a.tasks.UpdateTask(ctx, id, update)
			if err != nil {
				return err
			}
			if task == nil {
				return internal.NotFound("task", id)
			}
			return a.emit(task, func(out internal.Formatter) error {
				return out.PrintSuccess(fmt.Sprintf("task %s is %s (validated: %t)", task.ID, task.Status, task.IsValidated))
			})
		}),
	}
	cmd.Flags().StringVar(&name, "name", "", "New task name")
	cmd.Flags().StringVar(&description, "description", "", "New description")
	cmd.Flags().StringVar(&status, "status", "", "New status")
	cmd.Flags().BoolVar(&validated, "validated", false, "Set the validated flag")
	cmd.Flags().IntVar(&order, "order", 0, "New position within the phase")
	cmd.Flags().StringVar(&notes, "notes", "", "New notes")
	cmd.Flags().StringVar(&validationCommand, "validation-command", "", "New validation command")
	cmd.Flags().StringVar(&validationOut, "validation-output", "", "Output of the last validation run")
	cmd.Flags().StringVar(&outcome, "outcome", "", "Validation outcome (success|failure)")
	cmd.Flags().StringSliceVar(&dependsOn, "depends-on", nil, "Replace the task's dependencies")
	cmd.Flags().BoolVar(&clearDeps, "clear-dependencies", false, "Remove all dependencies")
	return cmd
}

func runTaskDelete(ctx context.Context, _ *cobra.Command, a *app, args []string) error {
	id, err := parseID("task", args[0])
	if err != nil {
		return err
	}

	deleted, err := a.tasks.DeleteTask(ctx, id)
	if err != nil {
		return err
	}
	if !deleted {
		return internal.NotFound("task", id)
	}
	return a.out.PrintSuccess(fmt.Sprintf("deleted task %s", id))
}

func runTaskNext(ctx context.Context, _ *cobra.Command, a *app, args []string) error {
	id, err := parseID("plan", args[0])
	if err != nil {
		return err
	}

	task, err := a.tasks.GetNextTaskForPlan(ctx, id)
	if err != nil {
		return err
	}
	return a.emit(task, func(out internal.Formatter) error {
		if task == nil {
			return out.PrintSuccess("no actionable task")
		}
		return printTask(out, task, nil)
	})
}
