package suggest

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/joss/cellpilot/internal/domain"
)

func TestMissingTools(t *testing.T) {
	reqs := []domain.ToolRequirement{
		{ToolID: "T1", UsageTimeSeconds: 300},
		{ToolID: "T2", UsageTimeSeconds: 300},
		{ToolID: "T3", UsageTimeSeconds: 300},
		{ToolID: "T4", UsageTimeSeconds: 300},
		{ToolID: "T5", UsageTimeSeconds: 300},
	}
	inventory := map[string]domain.ToolState{
		"T1": {ToolID: "T1", IsPresent: true, RemainingLifeSeconds: 900},
		// Mounted but worn below the program's cutting time.
		"T2": {ToolID: "T2", IsPresent: true, RemainingLifeSeconds: 120},
		// In the magazine but not mounted.
		"T3": {ToolID: "T3", IsPresent: false, RemainingLifeSeconds: 900},
		// Exhausted.
		"T4": {ToolID: "T4", IsPresent: true, RemainingLifeSeconds: 0},
	}

	missing := MissingTools(reqs, inventory)
	assert.Equal(t, []string{"T2", "T3", "T4", "T5"}, missing)
}

func TestToolPenalty(t *testing.T) {
	assert.Equal(t, 0.0, ToolPenalty(0))
	assert.Equal(t, 15.0, ToolPenalty(3))
}

func TestScoreBreakdownSumsToTotal(t *testing.T) {
	job := domain.PlannedJobRow{
		EstimatedSetupMinutes: 12.0,
		EstimatedCycleMinutes: 45.0,
		SequenceIndex:         3,
	}
	w := domain.ShiftWindow{
		WeightShortSetup:     1.5,
		WeightLongRun:        2.0,
		WeightToolPenalty:    1.0,
		WeightMachineBalance: 0.5,
	}

	score := Score(job, ToolPenalty(2), w)
	assert.InDelta(t, 10.0, score.ToolPenalty, 0.001)
	assert.InDelta(t, 18.0+22.5, score.SetupPenalty, 0.001)
	assert.InDelta(t, 1.5, score.BalancePenalty, 0.001)
	assert.Equal(t, 0.0, score.MaterialPenalty)
	sum := score.ToolPenalty + score.SetupPenalty + score.MaterialPenalty + score.BalancePenalty
	assert.InDelta(t, score.Total, sum, 0.0001)
}

func TestScoreFloorsLongRunWeight(t *testing.T) {
	job := domain.PlannedJobRow{EstimatedCycleMinutes: 10.0}
	w := domain.ShiftWindow{WeightLongRun: 0}

	score := Score(job, 0, w)
	assert.InDelta(t, 100.0, score.Total, 0.001)
}

func TestScoreOrdering(t *testing.T) {
	w := domain.UnitShiftWindow()

	warm := domain.PlannedJobRow{EstimatedSetupMinutes: 12, EstimatedCycleMinutes: 30, SequenceIndex: 1}
	cold := domain.PlannedJobRow{EstimatedSetupMinutes: 25, EstimatedCycleMinutes: 30, SequenceIndex: 1}
	assert.Less(t, Score(warm, 0, w).Total, Score(cold, 0, w).Total,
		"warm setup should beat cold setup")

	first := domain.PlannedJobRow{EstimatedSetupMinutes: 12, EstimatedCycleMinutes: 30, SequenceIndex: 1}
	third := domain.PlannedJobRow{EstimatedSetupMinutes: 12, EstimatedCycleMinutes: 30, SequenceIndex: 3}
	assert.Less(t, Score(first, 0, w).Total, Score(third, 0, w).Total,
		"earlier queue position should score better")

	assert.Less(t, Score(first, 0, w).Total, Score(first, ToolPenalty(1), w).Total,
		"missing tools should cost minutes")
}
