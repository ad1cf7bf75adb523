// Package render provides output formatting for the operator terminal.
package render

import (
	"fmt"
	"strings"

	"github.com/fatih/color"

	"github.com/joss/cellpilot/internal/domain"
	"github.com/joss/cellpilot/internal/planner"
	"github.com/joss/cellpilot/internal/suggest"
)

// Renderer handles output formatting.
type Renderer struct {
	pretty bool
}

// New creates a new renderer.
func New(pretty bool) *Renderer {
	return &Renderer{pretty: pretty}
}

// RefreshResult formats the outcome of a plan refresh.
func (r *Renderer) RefreshResult(res *planner.RefreshResult) string {
	var sb strings.Builder
	if r.pretty {
		sb.WriteString(color.CyanString("Plan batch %s\n", res.PlanBatchID))
		sb.WriteString(strings.Repeat("─", 60) + "\n")
	} else {
		fmt.Fprintf(&sb, "PLAN BATCH: %s\n", res.PlanBatchID)
	}
	fmt.Fprintf(&sb, "  Machines: %s\n", strings.Join(res.Machines, ", "))
	fmt.Fprintf(&sb, "  Planned jobs: %d\n", res.PlannedJobsCount)
	return sb.String()
}

// PlannedJobs formats the rows of a batch.
func (r *Renderer) PlannedJobs(batchID string, jobs []domain.PlannedJobRow) string {
	if len(jobs) == 0 {
		return "No planned jobs"
	}

	var sb strings.Builder
	if r.pretty {
		sb.WriteString(color.CyanString("Batch %s\n", batchID))
		sb.WriteString(strings.Repeat("─", 60) + "\n")
	}
	for _, job := range jobs {
		fmt.Fprintf(&sb, "%s %-8s #%d  %s / %s %s  pallet=%s setup=%.0fm cycle=%.0fm\n",
			r.statusMark(job.Status), job.MachineID, job.SequenceIndex,
			job.WorkOrder, job.PartID, job.OperationID,
			orDash(job.MachinePalletID), job.EstimatedSetupMinutes, job.EstimatedCycleMinutes)
	}
	return sb.String()
}

// Suggestion formats a dispatch suggestion with its action plan.
func (r *Renderer) Suggestion(sug *suggest.Suggestion) string {
	var sb strings.Builder
	job := sug.Job

	if r.pretty {
		sb.WriteString(color.GreenString("Next job: %s / %s %s on %s\n",
			job.WorkOrder, job.PartID, job.OperationID, job.MachineID))
		sb.WriteString(strings.Repeat("─", 60) + "\n")
	} else {
		fmt.Fprintf(&sb, "NEXT: %s / %s %s on %s\n",
			job.WorkOrder, job.PartID, job.OperationID, job.MachineID)
	}

	fmt.Fprintf(&sb, "  Decision: %s  (window %s)\n", sug.DecisionID, sug.ShiftWindow)
	fmt.Fprintf(&sb, "  Score: %.1f  (setup %.1f, tool %.1f, balance %.1f)\n",
		sug.Score.Total, sug.Score.SetupPenalty, sug.Score.ToolPenalty, sug.Score.BalancePenalty)

	sb.WriteString("  Steps:\n")
	for i, step := range sug.ActionPlan.Steps {
		fmt.Fprintf(&sb, "    %d. [%s] %s\n", i+1, step.Step, step.Detail)
	}

	if len(sug.ActionPlan.FixtureHardwareList) > 0 {
		sb.WriteString("  Fixture hardware:\n")
		for _, fx := range sug.ActionPlan.FixtureHardwareList {
			fmt.Fprintf(&sb, "    - %s %s (%s)\n", fx.FixtureCode, fx.Description, orDash(fx.StorageLocation))
		}
	}

	if len(sug.Alternatives) > 0 {
		sb.WriteString("  Alternatives:\n")
		for _, alt := range sug.Alternatives {
			fmt.Fprintf(&sb, "    %s / %s on %s  score %.1f\n",
				alt.WorkOrder, alt.PartID, alt.MachineID, alt.Score.Total)
		}
	}

	if sug.Details != nil {
		fmt.Fprintf(&sb, "  Required fixture: %s  Current: %s\n",
			orDash(sug.Details.RequiredFixture), orDash(sug.Details.CurrentFixture))
		if len(sug.Details.MissingTools) > 0 {
			fmt.Fprintf(&sb, "  Missing tools: %s\n", strings.Join(sug.Details.MissingTools, ", "))
		}
	}
	return sb.String()
}

// MachineStatuses formats the availability map.
func (r *Renderer) MachineStatuses(statuses []domain.MachineStatus) string {
	if len(statuses) == 0 {
		return "No machine status recorded (all machines assumed available)"
	}

	var sb strings.Builder
	for _, st := range statuses {
		mark := "+"
		if r.pretty {
			mark = color.GreenString("✓")
			if !st.IsAvailable {
				mark = color.RedString("✗")
			}
		} else if !st.IsAvailable {
			mark = "-"
		}
		fmt.Fprintf(&sb, "%s %-8s %s %s\n", mark, st.MachineID, orDash(st.StatusText), st.Reason)
	}
	return sb.String()
}

// Decisions formats recent dispatch decisions.
func (r *Renderer) Decisions(decisions []domain.Decision) string {
	if len(decisions) == 0 {
		return "No decisions recorded"
	}

	var sb strings.Builder
	if r.pretty {
		sb.WriteString(color.CyanString("Recent decisions\n"))
		sb.WriteString(strings.Repeat("─", 60) + "\n")
	}
	for _, d := range decisions {
		fmt.Fprintf(&sb, "%s  %s on %s  total %.1f (tool %.1f)  window %s\n",
			d.CreatedAt.Format("01-02 15:04"), d.PlannedJobID, d.MachineID,
			d.Score.Total, d.Score.ToolPenalty, orDash(d.ShiftWindow))
	}
	return sb.String()
}

// ShiftWindows formats the configured windows, marking the active one.
func (r *Renderer) ShiftWindows(windows []domain.ShiftWindow, active string) string {
	if len(windows) == 0 {
		return "No shift windows configured (unit weights apply)"
	}

	var sb strings.Builder
	for _, w := range windows {
		mark := " "
		if w.Name == active {
			mark = "*"
			if r.pretty {
				mark = color.GreenString("*")
			}
		}
		fmt.Fprintf(&sb, "%s %-10s %s-%s  setup=%.2f run=%.2f tool=%.2f balance=%.2f\n",
			mark, w.Name, w.StartTime, w.EndTime,
			w.WeightShortSetup, w.WeightLongRun, w.WeightToolPenalty, w.WeightMachineBalance)
	}
	return sb.String()
}

func (r *Renderer) statusMark(status domain.JobStatus) string {
	if !r.pretty {
		return "[" + string(status)[:1] + "]"
	}
	switch status {
	case domain.JobPlanned:
		return color.CyanString("●")
	case domain.JobDispatched:
		return color.GreenString("✓")
	case domain.JobSkipped:
		return color.YellowString("≫")
	default:
		return color.HiBlackString("✗")
	}
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
