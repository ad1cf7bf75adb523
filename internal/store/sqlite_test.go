package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joss/cellpilot/internal/domain"
)

func openTestSQLite(t *testing.T) *SQLite {
	t.Helper()
	s, err := NewSQLite(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestSQLiteBatchLifecycle(t *testing.T) {
	s := openTestSQLite(t)
	ctx := context.Background()

	latest, err := s.LatestBatchID(ctx)
	require.NoError(t, err)
	assert.Empty(t, latest)

	require.NoError(t, s.CreatePlanBatch(ctx, "batch-1", []domain.PlannedJobRow{
		jobRow("j1", "DMC1", 1),
		jobRow("j2", "DMC1", 2),
	}))
	require.NoError(t, s.CreatePlanBatch(ctx, "batch-2", []domain.PlannedJobRow{
		jobRow("j3", "DMC1", 1),
	}))

	latest, err = s.LatestBatchID(ctx)
	require.NoError(t, err)
	assert.Equal(t, "batch-2", latest)

	j1, err := s.GetPlannedJob(ctx, "j1")
	require.NoError(t, err)
	assert.Equal(t, domain.JobCancelled, j1.Status)

	jobs, err := s.ListPlannedJobs(ctx, "batch-2")
	require.NoError(t, err)
	require.Len(t, jobs, 1)
	assert.Equal(t, "j3", jobs[0].PlannedJobID)
	assert.Equal(t, domain.JobPlanned, jobs[0].Status)

	require.NoError(t, s.UpdateJobStatus(ctx, "j3", domain.JobDispatched, "d1"))
	j3, err := s.GetPlannedJob(ctx, "j3")
	require.NoError(t, err)
	assert.Equal(t, domain.JobDispatched, j3.Status)
	assert.Equal(t, "d1", j3.DecisionID)

	_, err = s.GetPlannedJob(ctx, "missing")
	assert.ErrorIs(t, err, domain.ErrJobNotFound)
	assert.ErrorIs(t, s.UpdateJobStatus(ctx, "missing", domain.JobSkipped, ""), domain.ErrJobNotFound)
}

func TestSQLiteDecisionRoundTrip(t *testing.T) {
	s := openTestSQLite(t)
	ctx := context.Background()

	d := &domain.Decision{
		DecisionID:   "d1",
		PlannedJobID: "j1",
		PlanBatchID:  "batch-1",
		MachineID:    "DMC1",
		ShiftWindow:  "day",
		Score: domain.ScoreBreakdown{
			Total: 17.5, ToolPenalty: 5.0, SetupPenalty: 12.0, BalancePenalty: 0.5,
		},
		ActionPlan: domain.ActionPlan{Steps: []domain.ActionPlanStep{
			{Step: domain.StepVerifyFixture, Fixture: "FX1"},
			{Step: domain.StepLoadRawMaterial, Pallet: "M1"},
		}},
		CreatedAt: time.Date(2026, 3, 2, 8, 0, 0, 0, time.UTC),
	}
	require.NoError(t, s.InsertDecision(ctx, d))

	decisions, err := s.ListDecisions(ctx, 10)
	require.NoError(t, err)
	require.Len(t, decisions, 1)
	got := decisions[0]
	assert.Equal(t, "d1", got.DecisionID)
	assert.Equal(t, "day", got.ShiftWindow)
	assert.InDelta(t, 17.5, got.Score.Total, 0.001)
	require.Len(t, got.ActionPlan.Steps, 2)
	assert.Equal(t, domain.StepVerifyFixture, got.ActionPlan.Steps[0].Step)
}

func TestSQLiteIgnoresAndWindows(t *testing.T) {
	s := openTestSQLite(t)
	ctx := context.Background()
	now := time.Date(2026, 3, 2, 8, 0, 0, 0, time.UTC)

	require.NoError(t, s.InsertIgnore(ctx, &domain.IgnoreRecord{
		WorkOrder: "WO-1", PartID: "1234", OperationID: "10OP",
		Reason: "fixture damaged", IgnoreUntil: now.Add(4 * time.Hour), CreatedAt: now,
	}))
	require.NoError(t, s.InsertIgnore(ctx, &domain.IgnoreRecord{
		WorkOrder: "WO-2", PartID: "1234", OperationID: "20OP",
		IgnoreUntil: now.Add(-time.Hour), CreatedAt: now.Add(-5 * time.Hour),
	}))

	active, err := s.ListActiveIgnores(ctx, now)
	require.NoError(t, err)
	require.Len(t, active, 1)
	assert.Equal(t, "WO-1", active[0].WorkOrder)
	assert.Equal(t, "fixture damaged", active[0].Reason)

	windows := []domain.ShiftWindow{
		{Name: "day", StartTime: "06:00", EndTime: "14:00", WeightShortSetup: 1.5, WeightLongRun: 1, WeightToolPenalty: 1, WeightMachineBalance: 1},
		{Name: "night", StartTime: "22:00", EndTime: "06:00", WeightShortSetup: 0.5, WeightLongRun: 2, WeightToolPenalty: 1, WeightMachineBalance: 0.5},
	}
	require.NoError(t, s.ReplaceShiftWindows(ctx, windows))
	got, err := s.ListShiftWindows(ctx)
	require.NoError(t, err)
	assert.Equal(t, windows, got)
}

func TestSQLiteSetupSessionIdempotent(t *testing.T) {
	s := openTestSQLite(t)
	ctx := context.Background()
	started := time.Date(2026, 3, 2, 8, 0, 0, 0, time.UTC)

	require.NoError(t, s.InsertSetupSession(ctx, &domain.SetupSession{
		SetupID: "s1", MachineID: "DMC1", PalletID: "PAL1", StartedAt: started,
	}))

	ok, err := s.CompleteSetupSession(ctx, "s1", started.Add(18*time.Minute))
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = s.CompleteSetupSession(ctx, "s1", started.Add(30*time.Minute))
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = s.CompleteSetupSession(ctx, "nope", started)
	require.NoError(t, err)
	assert.False(t, ok)
}
