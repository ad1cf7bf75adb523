package suggest

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joss/cellpilot/internal/domain"
	"github.com/joss/cellpilot/internal/provider"
	"github.com/joss/cellpilot/internal/store"
)

type fakeWorkOrderSource struct{ rows []provider.Row }

func (f *fakeWorkOrderSource) ListActiveOperations(ctx context.Context) ([]provider.Row, error) {
	return f.rows, nil
}

type fakeFixtureSource struct {
	matrix  map[string][]provider.Row
	pallets []provider.Row
}

func (f *fakeFixtureSource) GetFixtureMatrix(ctx context.Context, pieceCode string) ([]provider.Row, error) {
	return f.matrix[pieceCode], nil
}

func (f *fakeFixtureSource) ListMachinePallets(ctx context.Context) ([]provider.Row, error) {
	return f.pallets, nil
}

type fakeToolSource struct {
	requirements map[string][]provider.Row
	machines     map[string][]provider.Row
}

func (f *fakeToolSource) GetToolRequirements(ctx context.Context, program string) ([]provider.Row, error) {
	return f.requirements[program], nil
}

func (f *fakeToolSource) ListMachineTools(ctx context.Context, machineID string) ([]provider.Row, error) {
	return f.machines[machineID], nil
}

type fakeRouteSource struct{ rows []provider.Row }

func (f *fakeRouteSource) ListRoutes(ctx context.Context) ([]provider.Row, error) {
	return f.rows, nil
}

type harness struct {
	svc *Service
	db  *store.Memory
}

func newHarness(tools *fakeToolSource) *harness {
	if tools == nil {
		tools = &fakeToolSource{}
	}
	db := store.NewMemory()
	svc := NewService(
		db,
		provider.NewWorkOrderProvider(&fakeWorkOrderSource{}, nil),
		provider.NewFixtureProvider(&fakeFixtureSource{}),
		provider.NewToolingProvider(tools),
		provider.NewPalletRouteProvider(&fakeRouteSource{}),
	)
	svc.now = func() time.Time { return time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC) }
	return &harness{svc: svc, db: db}
}

func seedBatch(t *testing.T, db *store.Memory, jobs ...domain.PlannedJobRow) {
	t.Helper()
	require.NoError(t, db.CreatePlanBatch(context.Background(), "batch-1", jobs))
}

func warmJob(id, machine, part string, seq int) domain.PlannedJobRow {
	return domain.PlannedJobRow{
		PlannedJobID: id, WorkOrder: "WO-" + id, PartID: part, OperationID: "10OP",
		MachineID: machine, ProgramName: part + "-10OP",
		EstimatedSetupMinutes: 12, EstimatedCycleMinutes: 30, SequenceIndex: seq,
	}
}

func coldJob(id, machine, part string, seq int) domain.PlannedJobRow {
	j := warmJob(id, machine, part, seq)
	j.EstimatedSetupMinutes = 25
	return j
}

func TestNextSuggestionDrainsBatch(t *testing.T) {
	h := newHarness(nil)
	ctx := context.Background()
	seedBatch(t, h.db,
		warmJob("j1", "DMC1", "1111", 1),
		coldJob("j2", "DMC2", "2222", 1),
	)

	sug, err := h.svc.NextSuggestion(ctx, 2, false)
	require.NoError(t, err)
	assert.Equal(t, "j1", sug.Job.PlannedJobID, "warm setup wins under unit weights")
	assert.Equal(t, domain.JobDispatched, sug.Job.Status)
	assert.Equal(t, "default", sug.ShiftWindow)
	require.Len(t, sug.Alternatives, 1)
	assert.Equal(t, "j2", sug.Alternatives[0].PlannedJobID)

	// The decision is on disk and the winner is marked dispatched.
	decisions, err := h.db.ListDecisions(ctx, 10)
	require.NoError(t, err)
	require.Len(t, decisions, 1)
	assert.Equal(t, sug.DecisionID, decisions[0].DecisionID)
	assert.Equal(t, "j1", decisions[0].PlannedJobID)

	j1, err := h.db.GetPlannedJob(ctx, "j1")
	require.NoError(t, err)
	assert.Equal(t, domain.JobDispatched, j1.Status)
	assert.Equal(t, sug.DecisionID, j1.DecisionID)

	// Next call serves the remaining candidate, then the batch is drained.
	sug, err = h.svc.NextSuggestion(ctx, 2, false)
	require.NoError(t, err)
	assert.Equal(t, "j2", sug.Job.PlannedJobID)
	assert.Empty(t, sug.Alternatives)

	_, err = h.svc.NextSuggestion(ctx, 2, false)
	assert.ErrorIs(t, err, domain.ErrNoPlannedJobsRemaining)
}

func TestNextSuggestionNoBatch(t *testing.T) {
	h := newHarness(nil)
	_, err := h.svc.NextSuggestion(context.Background(), 0, false)
	assert.ErrorIs(t, err, domain.ErrNoPlanBatch)
}

func TestNextSuggestionAllIgnored(t *testing.T) {
	h := newHarness(nil)
	ctx := context.Background()
	seedBatch(t, h.db, warmJob("j1", "DMC1", "1111", 1))

	require.NoError(t, h.db.InsertIgnore(ctx, &domain.IgnoreRecord{
		WorkOrder: "WO-j1", PartID: "1111", OperationID: "10OP",
		IgnoreUntil: h.svc.now().Add(4 * time.Hour),
	}))

	_, err := h.svc.NextSuggestion(ctx, 0, false)
	assert.ErrorIs(t, err, domain.ErrAllJobsIgnored)
}

func TestNextSuggestionToolPenaltySteers(t *testing.T) {
	// j1 has the warm setup but its program needs three tools DMC1 cannot
	// serve; the penalty outweighs the setup advantage.
	tools := &fakeToolSource{
		requirements: map[string][]provider.Row{
			"1111-10OP": {
				{"tool_id": "T1", "usage_time_seconds": 60.0},
				{"tool_id": "T2", "usage_time_seconds": 60.0},
				{"tool_id": "T3", "usage_time_seconds": 60.0},
			},
		},
	}
	h := newHarness(tools)
	ctx := context.Background()
	seedBatch(t, h.db,
		warmJob("j1", "DMC1", "1111", 1),
		coldJob("j2", "DMC2", "2222", 1),
	)

	sug, err := h.svc.NextSuggestion(ctx, 1, true)
	require.NoError(t, err)
	assert.Equal(t, "j2", sug.Job.PlannedJobID)

	require.Len(t, sug.Alternatives, 1)
	alt := sug.Alternatives[0]
	assert.Equal(t, "j1", alt.PlannedJobID)
	assert.InDelta(t, 3*MissingToolPenaltyMinutes, alt.Score.ToolPenalty, 0.001)

	require.NotNil(t, sug.Details)
	assert.Empty(t, sug.Details.MissingTools, "winner needs no tools")
}

func TestNextSuggestionUsesConfiguredWindow(t *testing.T) {
	h := newHarness(nil)
	ctx := context.Background()
	require.NoError(t, h.db.ReplaceShiftWindows(ctx, []domain.ShiftWindow{
		{Name: "day", StartTime: "06:00", EndTime: "14:00",
			WeightShortSetup: 1, WeightLongRun: 1, WeightToolPenalty: 1, WeightMachineBalance: 1},
		{Name: "night", StartTime: "22:00", EndTime: "06:00",
			WeightShortSetup: 1, WeightLongRun: 1, WeightToolPenalty: 1, WeightMachineBalance: 1},
	}))
	seedBatch(t, h.db, warmJob("j1", "DMC1", "1111", 1))

	// The harness clock reads 10:00.
	sug, err := h.svc.NextSuggestion(ctx, 0, false)
	require.NoError(t, err)
	assert.Equal(t, "day", sug.ShiftWindow)

	decisions, err := h.db.ListDecisions(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, "day", decisions[0].ShiftWindow)
}
