package main

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/jonit-dev/vibe-planner-mcp-sub000/cmd/vibeplanner/internal"
	"github.com/jonit-dev/vibe-planner-mcp-sub000/internal/orchestrator"
	"github.com/jonit-dev/vibe-planner-mcp-sub000/internal/prd"
	"github.com/jonit-dev/vibe-planner-mcp-sub000/internal/types"
)

const displayTime = "2006-01-02 15:04:05"

func optional(s *string) string {
	if s == nil {
		return "-"
	}
	return *s
}

func optionalTime(t *time.Time) string {
	if t == nil {
		return "-"
	}
	return t.Local().Format(displayTime)
}

func joinIDs(ids []types.ID) string {
	if len(ids) == 0 {
		return "-"
	}
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = id.String()
	}
	return strings.Join(parts, ", ")
}

func printPlans(out internal.Formatter, plans []*prd.Plan) error {
	rows := make([][]string, 0, len(plans))
	for _, p := range plans {
		rows = append(rows, []string{
			p.ID.String(), p.Name, p.Status.String(), strconv.Itoa(len(p.Phases)),
			p.CreationDate.Local().Format(displayTime),
		})
	}
	return out.PrintTable([]string{"id", "name", "status", "phases", "created"}, rows)
}

func printPlan(out internal.Formatter, p *prd.Plan) error {
	err := out.PrintDetails("Plan "+p.Name, []internal.Field{
		{Label: "ID", Value: p.ID.String()},
		{Label: "Status", Value: p.Status.String()},
		{Label: "Description", Value: optional(p.Description)},
		{Label: "Created", Value: p.CreationDate.Local().Format(displayTime)},
		{Label: "Updated", Value: p.UpdatedAt.Local().Format(displayTime)},
		{Label: "Completed", Value: optionalTime(p.CompletionDate)},
	})
	if err != nil || len(p.Phases) == 0 {
		return err
	}
	return printPhases(out, p.Phases)
}

func printPhases(out internal.Formatter, phases []*prd.Phase) error {
	rows := make([][]string, 0, len(phases))
	for _, p := range phases {
		rows = append(rows, []string{
			strconv.Itoa(p.Order), p.ID.String(), p.Name, p.Status.String(), strconv.Itoa(len(p.Tasks)),
		})
	}
	return out.PrintTable([]string{"order", "id", "name", "status", "tasks"}, rows)
}

func printPhase(out internal.Formatter, p *prd.Phase) error {
	err := out.PrintDetails("Phase "+p.Name, []internal.Field{
		{Label: "ID", Value: p.ID.String()},
		{Label: "Plan", Value: p.PlanID.String()},
		{Label: "Order", Value: strconv.Itoa(p.Order)},
		{Label: "Status", Value: p.Status.String()},
		{Label: "Description", Value: optional(p.Description)},
		{Label: "Completed", Value: optionalTime(p.CompletionDate)},
	})
	if err != nil || len(p.Tasks) == 0 {
		return err
	}
	return printTasks(out, p.Tasks)
}

func printTasks(out internal.Formatter, tasks []*prd.Task) error {
	rows := make([][]string, 0, len(tasks))
	for _, t := range tasks {
		rows = append(rows, []string{
			strconv.Itoa(t.Order), t.ID.String(), t.Name, t.Status.String(),
			strconv.FormatBool(t.IsValidated), strconv.Itoa(len(t.Dependencies)),
		})
	}
	return out.PrintTable([]string{"order", "id", "name", "status", "validated", "deps"}, rows)
}

// printTask prints t. Dependents are listed when non-nil.
func printTask(out internal.Formatter, t *prd.Task, dependents []types.ID) error {
	fields := []internal.Field{
		{Label: "ID", Value: t.ID.String()},
		{Label: "Phase", Value: t.PhaseID.String()},
		{Label: "Order", Value: strconv.Itoa(t.Order)},
		{Label: "Status", Value: t.Status.String()},
		{Label: "Validated", Value: strconv.FormatBool(t.IsValidated)},
		{Label: "Depends on", Value: joinIDs(t.Dependencies)},
		{Label: "Description", Value: optional(t.Description)},
		{Label: "Validation command", Value: optional(t.ValidationCommand)},
		{Label: "Validation output", Value: optional(t.ValidationOutput)},
		{Label: "Notes", Value: optional(t.Notes)},
		{Label: "Completed", Value: optionalTime(t.CompletionDate)},
	}
	if dependents != nil {
		fields = append(fields, internal.Field{Label: "Needed by", Value: joinIDs(dependents)})
	}
	return out.PrintDetails("Task "+t.Name, fields)
}

func printProgress(out internal.Formatter, p *orchestrator.PlanProgress) error {
	fields := []internal.Field{
		{Label: "Phases", Value: strconv.Itoa(p.Phases)},
		{Label: "Tasks", Value: strconv.Itoa(p.Tasks)},
		{Label: "Done", Value: strconv.Itoa(p.Done)},
		{Label: "Validated", Value: strconv.Itoa(p.Validated)},
		{Label: "Complete", Value: fmt.Sprintf("%.1f%%", p.PercentComplete)},
	}
	for _, status := range prd.TaskStatuses() {
		if n := p.ByStatus[status]; n > 0 {
			fields = append(fields, internal.Field{Label: status.String(), Value: strconv.Itoa(n)})
		}
	}
	return out.PrintDetails("Progress "+p.PlanID.String(), fields)
}

func printCycles(out internal.Formatter, cycles [][]types.ID) error {
	if len(cycles) == 0 {
		return out.PrintSuccess("no dependency cycles")
	}
	rows := make([][]string, 0, len(cycles))
	for i, cycle := range cycles {
		parts := make([]string, len(cycle)+1)
		for j, id := range cycle {
			parts[j] = id.String()
		}
		parts[len(cycle)] = cycle[0].String()
		rows = append(rows, []string{strconv.Itoa(i + 1), strings.Join(parts, " -> ")})
	}
	return out.PrintTable([]string{"cycle", "tasks"}, rows)
}
