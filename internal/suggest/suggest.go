// Package suggest drains the current plan batch one job at a time: each
// call scores every still-open candidate against live tool and pallet
// state, persists a decision for the winner and emits a concrete
// operator action plan.
package suggest

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/joss/cellpilot/internal/domain"
	"github.com/joss/cellpilot/internal/logging"
	"github.com/joss/cellpilot/internal/provider"
	"github.com/joss/cellpilot/internal/store"
)

// Service scores plan candidates and records dispatch decisions.
type Service struct {
	store      store.Store
	workOrders *provider.WorkOrderProvider
	fixtures   *provider.FixtureProvider
	tools      *provider.ToolingProvider
	routes     *provider.PalletRouteProvider
	log        *logging.Logger
	now        func() time.Time
}

// NewService wires a suggestion service.
func NewService(
	st store.Store,
	workOrders *provider.WorkOrderProvider,
	fixtures *provider.FixtureProvider,
	tools *provider.ToolingProvider,
	routes *provider.PalletRouteProvider,
) *Service {
	return &Service{
		store:      st,
		workOrders: workOrders,
		fixtures:   fixtures,
		tools:      tools,
		routes:     routes,
		log:        logging.New("suggest"),
		now:        time.Now,
	}
}

// Alternative is a lightweight next-best candidate.
type Alternative struct {
	PlannedJobID string                `json:"planned_job_id"`
	WorkOrder    string                `json:"work_order"`
	PartID       string                `json:"part_id"`
	MachineID    string                `json:"machine_id"`
	Score        domain.ScoreBreakdown `json:"score"`
}

// Details carries the optional deep-dive attachment for the winner.
type Details struct {
	RequiredFixture string   `json:"required_fixture,omitempty"`
	CurrentFixture  string   `json:"current_fixture,omitempty"`
	MissingTools    []string `json:"missing_tools,omitempty"`
}

// Suggestion is the outcome of one next-suggestion call.
type Suggestion struct {
	DecisionID   string                `json:"decision_id"`
	Job          domain.PlannedJobRow  `json:"job"`
	Score        domain.ScoreBreakdown `json:"score"`
	ShiftWindow  string                `json:"shift_window"`
	ActionPlan   domain.ActionPlan     `json:"action_plan"`
	Alternatives []Alternative         `json:"alternatives,omitempty"`
	Details      *Details              `json:"details,omitempty"`
}

type scoredJob struct {
	job     domain.PlannedJobRow
	score   domain.ScoreBreakdown
	missing []string
}

// NextSuggestion scores every eligible job of the latest batch and
// dispatches the best one. Scoring reads one consistent snapshot of
// tool, pallet and ignore state taken at the start of the call.
func (s *Service) NextSuggestion(ctx context.Context, maxAlternatives int, includeDetails bool) (*Suggestion, error) {
	now := s.now()

	batchID, err := s.store.LatestBatchID(ctx)
	if err != nil {
		return nil, fmt.Errorf("latest batch: %w", err)
	}
	if batchID == "" {
		return nil, domain.ErrNoPlanBatch
	}

	rows, err := s.store.ListPlannedJobs(ctx, batchID)
	if err != nil {
		return nil, fmt.Errorf("list planned jobs: %w", err)
	}

	open := s.rehydrate(ctx, rows)
	if len(open) == 0 {
		return nil, domain.ErrNoPlannedJobsRemaining
	}

	eligible, err := s.dropIgnored(ctx, open, now)
	if err != nil {
		return nil, err
	}

	windows, err := s.store.ListShiftWindows(ctx)
	if err != nil {
		return nil, fmt.Errorf("list shift windows: %w", err)
	}
	window := ActiveWindow(windows, now)

	scored := s.scoreAll(ctx, eligible, window)
	sort.SliceStable(scored, func(i, j int) bool { return scored[i].score.Total < scored[j].score.Total })
	winner := scored[0]

	plan := s.buildPlan(ctx, winner.job)

	decision := &domain.Decision{
		DecisionID:   uuid.NewString(),
		PlannedJobID: winner.job.PlannedJobID,
		PlanBatchID:  batchID,
		MachineID:    winner.job.MachineID,
		ShiftWindow:  window.Name,
		Score:        winner.score,
		ActionPlan:   plan,
		CreatedAt:    now,
	}

	// The decision insert must succeed before the job flips to
	// dispatched; a failed insert leaves the job planned.
	if err := s.store.InsertDecision(ctx, decision); err != nil {
		return nil, fmt.Errorf("persist decision: %w", err)
	}
	if err := s.store.UpdateJobStatus(ctx, winner.job.PlannedJobID, domain.JobDispatched, decision.DecisionID); err != nil {
		return nil, fmt.Errorf("mark job dispatched: %w", err)
	}

	sug := &Suggestion{
		DecisionID:  decision.DecisionID,
		Job:         winner.job,
		Score:       winner.score,
		ShiftWindow: window.Name,
		ActionPlan:  plan,
	}
	sug.Job.Status = domain.JobDispatched
	sug.Job.DecisionID = decision.DecisionID

	for _, alt := range scored[1:] {
		if len(sug.Alternatives) >= maxAlternatives {
			break
		}
		sug.Alternatives = append(sug.Alternatives, Alternative{
			PlannedJobID: alt.job.PlannedJobID,
			WorkOrder:    alt.job.WorkOrder,
			PartID:       alt.job.PartID,
			MachineID:    alt.job.MachineID,
			Score:        alt.score,
		})
	}

	if includeDetails {
		required := s.fixtures.GetRequiredPlaqueModel(ctx, winner.job.PartID, winner.job.OperationID)
		current := ""
		if winner.job.MachinePalletID != "" {
			current = s.fixtures.GetPalletFixture(ctx, winner.job.MachinePalletID)
		}
		sug.Details = &Details{
			RequiredFixture: required,
			CurrentFixture:  current,
			MissingTools:    winner.missing,
		}
	}

	s.log.Info("suggestion_dispatched", map[string]interface{}{
		"decision":   decision.DecisionID,
		"job":        winner.job.PlannedJobID,
		"machine":    winner.job.MachineID,
		"score":      winner.score.Total,
		"window":     window.Name,
		"candidates": len(scored),
	})
	return sug, nil
}

// rehydrate refreshes part and program identity from the current routing
// data (it may have changed since planning) and keeps only rows still
// planned.
func (s *Service) rehydrate(ctx context.Context, rows []domain.PlannedJobRow) []domain.PlannedJobRow {
	ops, err := s.workOrders.ListActiveOperations(ctx)
	if err != nil {
		ops = nil
	}
	type opKey struct{ workOrder, operationID string }
	current := make(map[opKey]domain.WorkOrderOperation, len(ops))
	for _, op := range ops {
		current[opKey{op.WorkOrder, op.OperationID}] = op
	}

	var open []domain.PlannedJobRow
	for _, row := range rows {
		if row.Status != domain.JobPlanned {
			continue
		}
		if op, ok := current[opKey{row.WorkOrder, row.OperationID}]; ok {
			row.PartID = op.PartID
			row.ProgramName = op.ProgramName
		}
		open = append(open, row)
	}
	return open
}

// dropIgnored removes rows under an active refusal TTL.
func (s *Service) dropIgnored(ctx context.Context, rows []domain.PlannedJobRow, now time.Time) ([]domain.PlannedJobRow, error) {
	ignores, err := s.store.ListActiveIgnores(ctx, now)
	if err != nil {
		return nil, fmt.Errorf("list ignores: %w", err)
	}

	var eligible []domain.PlannedJobRow
	for _, row := range rows {
		vetoed := false
		for _, rec := range ignores {
			if rec.Matches(row.WorkOrder, row.PartID, row.OperationID, now) {
				vetoed = true
				break
			}
		}
		if !vetoed {
			eligible = append(eligible, row)
		}
	}
	if len(eligible) == 0 {
		return nil, domain.ErrAllJobsIgnored
	}
	return eligible, nil
}

// scoreAll computes tool penalties and scores for every eligible row.
// Tool inventories are fetched concurrently per machine; requirements
// are cached per program for the duration of the call.
func (s *Service) scoreAll(ctx context.Context, rows []domain.PlannedJobRow, window domain.ShiftWindow) []scoredJob {
	s.routes.Refresh(ctx, false)

	machineSet := make(map[string]bool)
	var machines []string
	for _, row := range rows {
		if !machineSet[row.MachineID] {
			machineSet[row.MachineID] = true
			machines = append(machines, row.MachineID)
		}
	}
	inventories := s.tools.GetMachineToolStates(ctx, machines)

	reqCache := make(map[string][]domain.ToolRequirement)
	requirements := func(program string) []domain.ToolRequirement {
		if reqs, ok := reqCache[program]; ok {
			return reqs
		}
		reqs := s.tools.GetToolRequirements(ctx, program)
		reqCache[program] = reqs
		return reqs
	}

	scored := make([]scoredJob, 0, len(rows))
	for _, row := range rows {
		missing := MissingTools(requirements(row.ProgramName), inventories[row.MachineID])
		scored = append(scored, scoredJob{
			job:     row,
			score:   Score(row, ToolPenalty(len(missing)), window),
			missing: missing,
		})
	}
	return scored
}

// buildPlan assembles the operator action plan for the winning job.
func (s *Service) buildPlan(ctx context.Context, job domain.PlannedJobRow) domain.ActionPlan {
	required := s.fixtures.GetRequiredPlaqueModel(ctx, job.PartID, job.OperationID)

	current := ""
	finished := false
	if job.MachinePalletID != "" {
		current = s.fixtures.GetPalletFixture(ctx, job.MachinePalletID)
		if st, ok := s.routes.GetStatus(job.MachinePalletID); ok {
			finished = provider.PhaseFinished(st.Phase)
		}
	}

	hardware := s.fixtures.GetFixtureStates(ctx, job.PartID, job.OperationID)
	return BuildActionPlan(job, required, current, finished, hardware)
}
