// Package control handles operator interventions: job refusals with a
// TTL, machine availability toggles and fixture setup sessions.
package control

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/joss/cellpilot/internal/domain"
	"github.com/joss/cellpilot/internal/logging"
	"github.com/joss/cellpilot/internal/store"
)

// DefaultIgnoreTTL is the refusal window used when the profile does not
// configure one.
const DefaultIgnoreTTL = 4 * time.Hour

// Service mutates the persisted state the next suggestion call reads.
type Service struct {
	store     store.Store
	ignoreTTL time.Duration
	log       *logging.Logger
	now       func() time.Time
}

// NewService wires a control service. A non-positive ignoreTTL falls
// back to DefaultIgnoreTTL.
func NewService(st store.Store, ignoreTTL time.Duration) *Service {
	if ignoreTTL <= 0 {
		ignoreTTL = DefaultIgnoreTTL
	}
	return &Service{
		store:     st,
		ignoreTTL: ignoreTTL,
		log:       logging.New("control"),
		now:       time.Now,
	}
}

// RefuseJob records a time-bounded veto for a planned job and marks it
// skipped. Refusing an already-skipped job just extends the TTL.
func (s *Service) RefuseJob(ctx context.Context, jobID, decisionID, reason string) (*domain.IgnoreRecord, error) {
	job, err := s.store.GetPlannedJob(ctx, jobID)
	if err != nil {
		return nil, err
	}

	now := s.now()
	rec := &domain.IgnoreRecord{
		WorkOrder:   job.WorkOrder,
		PartID:      job.PartID,
		OperationID: job.OperationID,
		Reason:      reason,
		DecisionID:  decisionID,
		IgnoreUntil: now.Add(s.ignoreTTL),
		CreatedAt:   now,
	}
	if err := s.store.InsertIgnore(ctx, rec); err != nil {
		return nil, fmt.Errorf("insert ignore: %w", err)
	}

	if job.Status == domain.JobPlanned || job.Status == domain.JobDispatched {
		if err := s.store.UpdateJobStatus(ctx, jobID, domain.JobSkipped, job.DecisionID); err != nil {
			return nil, fmt.Errorf("mark job skipped: %w", err)
		}
	}

	s.log.Info("job_refused", map[string]interface{}{
		"job":          jobID,
		"work_order":   job.WorkOrder,
		"ignore_until": rec.IgnoreUntil.Format(time.RFC3339),
		"reason":       reason,
	})
	return rec, nil
}

// SetMachineStatus upserts a machine's availability and returns the full
// current status map.
func (s *Service) SetMachineStatus(ctx context.Context, machineID string, isAvailable bool, statusText, reason string) ([]domain.MachineStatus, error) {
	st := &domain.MachineStatus{
		MachineID:   machineID,
		IsAvailable: isAvailable,
		StatusText:  statusText,
		Reason:      reason,
		UpdatedAt:   s.now(),
	}
	if err := s.store.UpsertMachineStatus(ctx, st); err != nil {
		return nil, fmt.Errorf("upsert machine status: %w", err)
	}

	s.log.WithMachine(machineID).Info("machine_status_set", map[string]interface{}{
		"available": isAvailable,
		"status":    statusText,
	})
	return s.store.ListMachineStatus(ctx)
}

// StartSetupSession timestamps the start of a fixture changeover.
func (s *Service) StartSetupSession(ctx context.Context, machineID, palletID, fixtureCode, operator string) (*domain.SetupSession, error) {
	sess := &domain.SetupSession{
		SetupID:     uuid.NewString(),
		MachineID:   machineID,
		PalletID:    palletID,
		FixtureCode: fixtureCode,
		Operator:    operator,
		StartedAt:   s.now(),
	}
	if err := s.store.InsertSetupSession(ctx, sess); err != nil {
		return nil, fmt.Errorf("insert setup session: %w", err)
	}

	s.log.WithMachine(machineID).Info("setup_started", map[string]interface{}{
		"setup":   sess.SetupID,
		"fixture": fixtureCode,
	})
	return sess, nil
}

// EndSetupSession stamps a session end. Idempotent: a second end, or an
// unknown id, reports completed=false without error.
func (s *Service) EndSetupSession(ctx context.Context, setupID string) (bool, error) {
	completed, err := s.store.CompleteSetupSession(ctx, setupID, s.now())
	if err != nil {
		return false, fmt.Errorf("complete setup session: %w", err)
	}
	if completed {
		s.log.Info("setup_ended", map[string]interface{}{"setup": setupID})
	}
	return completed, nil
}
