package suggest

import (
	"github.com/joss/cellpilot/internal/domain"
)

// MissingToolPenaltyMinutes is the minutes-equivalent cost attributed to
// each tool a program needs that the machine cannot supply.
const MissingToolPenaltyMinutes = 5.0

// minLongRunWeight floors the long-run divisor so a zero-configured
// weight cannot blow the cycle term up to infinity.
const minLongRunWeight = 0.1

// MissingTools returns the required tools the machine cannot serve: a
// tool is missing when the inventory does not list it, it is not
// mounted, or its remaining life (seconds converted to minutes) is zero
// or below the program's required usage time.
func MissingTools(reqs []domain.ToolRequirement, inventory map[string]domain.ToolState) []string {
	var missing []string
	for _, req := range reqs {
		st, ok := inventory[req.ToolID]
		if !ok || !st.IsPresent {
			missing = append(missing, req.ToolID)
			continue
		}
		lifeMinutes := st.RemainingLifeSeconds / 60.0
		requiredMinutes := req.UsageTimeSeconds / 60.0
		if lifeMinutes <= 0 || lifeMinutes < requiredMinutes {
			missing = append(missing, req.ToolID)
		}
	}
	return missing
}

// ToolPenalty converts a missing-tool count into minutes-equivalent cost.
func ToolPenalty(missingCount int) float64 {
	return float64(missingCount) * MissingToolPenaltyMinutes
}

// Score computes the scheduling cost of one planned job under a shift
// window's weights. Lower totals win. The weighted cycle time is folded
// into the setup penalty so the breakdown sums to the total.
// MaterialPenalty is carried in the breakdown but not yet populated.
func Score(job domain.PlannedJobRow, toolPenalty float64, w domain.ShiftWindow) domain.ScoreBreakdown {
	longRun := w.WeightLongRun
	if longRun < minLongRunWeight {
		longRun = minLongRunWeight
	}

	setup := job.EstimatedSetupMinutes * w.WeightShortSetup
	cycle := job.EstimatedCycleMinutes / longRun
	balance := float64(job.SequenceIndex) * w.WeightMachineBalance
	tool := toolPenalty * w.WeightToolPenalty

	return domain.ScoreBreakdown{
		Total:          setup + cycle + balance + tool,
		ToolPenalty:    tool,
		SetupPenalty:   setup + cycle,
		BalancePenalty: balance,
	}
}
