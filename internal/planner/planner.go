// Package planner materializes plan batches: a bounded queue of
// candidate jobs per machine, each with a pallet and raw material
// assignment.
package planner

import (
	"context"
	"crypto/rand"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/oklog/ulid/v2"

	"github.com/joss/cellpilot/internal/domain"
	"github.com/joss/cellpilot/internal/logging"
	"github.com/joss/cellpilot/internal/provider"
	"github.com/joss/cellpilot/internal/store"
)

// Setup estimates in minutes: warm when a ready pallet was found, cold
// when the fixture has to be built up from scratch.
const (
	WarmSetupMinutes = 12.0
	ColdSetupMinutes = 25.0
)

// Service builds plan batches from the resource providers and persists
// them through the store.
type Service struct {
	workOrders *provider.WorkOrderProvider
	fixtures   *provider.FixtureProvider
	materials  *provider.MaterialProvider
	routes     *provider.PalletRouteProvider
	store      store.Store
	machines   []string
	log        *logging.Logger
}

// NewService wires a planner service.
func NewService(
	workOrders *provider.WorkOrderProvider,
	fixtures *provider.FixtureProvider,
	materials *provider.MaterialProvider,
	routes *provider.PalletRouteProvider,
	st store.Store,
	defaultMachines []string,
) *Service {
	return &Service{
		workOrders: workOrders,
		fixtures:   fixtures,
		materials:  materials,
		routes:     routes,
		store:      st,
		machines:   defaultMachines,
		log:        logging.New("planner"),
	}
}

// RefreshResult summarizes a newly created plan batch.
type RefreshResult struct {
	PlanBatchID      string   `json:"plan_batch_id"`
	Machines         []string `json:"machines"`
	PlannedJobsCount int      `json:"planned_jobs_count"`
}

// RefreshPlan builds and persists a new plan batch. jobsPerMachine of
// zero means unbounded; an empty machineIDs set falls back to the
// configured cell machines, then to the machines the routing mentions.
func (s *Service) RefreshPlan(ctx context.Context, jobsPerMachine int, machineIDs []string) (*RefreshResult, error) {
	start := time.Now()

	// New planning epoch: fresh reservation set, fresh route snapshot.
	res := NewReservation()
	s.routes.Refresh(ctx, true)

	ops, err := s.workOrders.ListActiveOperations(ctx)
	if err != nil {
		return nil, fmt.Errorf("list active operations: %w", err)
	}
	if len(ops) == 0 {
		return nil, domain.ErrNoWorkAvailable
	}

	machines, err := s.availableMachines(ctx, machineIDs, ops)
	if err != nil {
		return nil, err
	}

	type jobKey struct{ workOrder, partID, operationID string }
	scheduled := make(map[jobKey]bool)

	var jobs []domain.PlannedJobRow
	for _, machineID := range machines {
		// Truncation applies to the machine's filtered operation list;
		// cross-machine dedup happens after.
		retained, seq := 0, 0
		for _, op := range ops {
			if !op.AllowsMachine(machineID) {
				continue
			}
			retained++
			if jobsPerMachine > 0 && retained > jobsPerMachine {
				break
			}
			key := jobKey{op.WorkOrder, op.PartID, op.OperationID}
			if scheduled[key] {
				continue
			}
			scheduled[key] = true

			setupMinutes := ColdSetupMinutes
			machinePalletID := ""
			if pl := s.SelectPallet(ctx, res, op.PartID, op.OperationID, machineID); pl != nil {
				setupMinutes = WarmSetupMinutes
				machinePalletID = pl.PalletID
			}

			materialPalletID := ""
			if pallets := s.materials.GetPalletsForPart(ctx, op.PartID); len(pallets) > 0 {
				materialPalletID = pallets[0].PalletID
			}

			seq++
			jobs = append(jobs, domain.PlannedJobRow{
				PlannedJobID:          uuid.NewString(),
				WorkOrder:             op.WorkOrder,
				PartID:                op.PartID,
				OperationID:           op.OperationID,
				MachineID:             machineID,
				MachinePalletID:       machinePalletID,
				MaterialPalletID:      materialPalletID,
				ProgramName:           op.ProgramName,
				EstimatedSetupMinutes: setupMinutes,
				EstimatedCycleMinutes: op.EstimatedCycleMinutes,
				SequenceIndex:         seq,
			})
		}
	}

	if len(jobs) == 0 {
		return nil, domain.ErrNoEligiblePlanEntries
	}

	batchID := ulid.MustNew(ulid.Timestamp(time.Now()), rand.Reader).String()
	if err := s.store.CreatePlanBatch(ctx, batchID, jobs); err != nil {
		return nil, fmt.Errorf("persist plan batch: %w", err)
	}

	s.log.TimedEvent("plan_batch_created", start, map[string]interface{}{
		"batch":    batchID,
		"machines": len(machines),
		"jobs":     len(jobs),
	})

	return &RefreshResult{
		PlanBatchID:      batchID,
		Machines:         machines,
		PlannedJobsCount: len(jobs),
	}, nil
}

// availableMachines filters the requested machine set by persisted
// availability. A machine with no status row counts as available.
func (s *Service) availableMachines(ctx context.Context, requested []string, ops []domain.WorkOrderOperation) ([]string, error) {
	candidates := requested
	if len(candidates) == 0 {
		candidates = s.machines
	}
	if len(candidates) == 0 {
		seen := make(map[string]bool)
		for _, op := range ops {
			for _, m := range op.AllowedMachines {
				if !seen[m] {
					seen[m] = true
					candidates = append(candidates, m)
				}
			}
		}
	}
	if len(candidates) == 0 {
		return nil, domain.ErrNoEligiblePlanEntries
	}

	statuses, err := s.store.ListMachineStatus(ctx)
	if err != nil {
		return nil, fmt.Errorf("list machine status: %w", err)
	}
	unavailable := make(map[string]bool)
	for _, st := range statuses {
		if !st.IsAvailable {
			unavailable[st.MachineID] = true
		}
	}

	var machines []string
	for _, m := range candidates {
		if !unavailable[m] {
			machines = append(machines, m)
		}
	}
	if len(machines) == 0 {
		return nil, domain.ErrNoEligiblePlanEntries
	}
	return machines, nil
}
