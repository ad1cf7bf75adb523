// Package store persists plan batches, planned jobs, scoring decisions,
// refusals, machine availability, shift windows and setup sessions.
// Two adapters implement the same contract: a sqlite-backed one and an
// in-process one used when the backing store is unavailable.
package store

import (
	"context"
	"time"

	"github.com/joss/cellpilot/internal/domain"
)

// Store is the persistence contract shared by the planner, suggestion
// and control services.
type Store interface {
	// CreatePlanBatch supersedes every still-planned row of earlier
	// batches (marking them cancelled) and inserts the new rows as
	// planned, atomically.
	CreatePlanBatch(ctx context.Context, batchID string, jobs []domain.PlannedJobRow) error

	// LatestBatchID returns the most recent plan batch id, or empty when
	// no batch exists.
	LatestBatchID(ctx context.Context) (string, error)

	// ListPlannedJobs returns every row of a batch ordered by machine
	// then sequence index.
	ListPlannedJobs(ctx context.Context, batchID string) ([]domain.PlannedJobRow, error)

	// GetPlannedJob fetches one row by id; domain.ErrJobNotFound when
	// absent.
	GetPlannedJob(ctx context.Context, jobID string) (*domain.PlannedJobRow, error)

	// UpdateJobStatus transitions a row's status, optionally attaching
	// the decision that caused it.
	UpdateJobStatus(ctx context.Context, jobID string, status domain.JobStatus, decisionID string) error

	// InsertDecision records a dispatch decision.
	InsertDecision(ctx context.Context, d *domain.Decision) error

	// ListDecisions returns recent decisions, newest first.
	ListDecisions(ctx context.Context, limit int) ([]domain.Decision, error)

	// InsertIgnore records a time-bounded refusal.
	InsertIgnore(ctx context.Context, rec *domain.IgnoreRecord) error

	// ListActiveIgnores returns refusals whose TTL has not expired.
	ListActiveIgnores(ctx context.Context, now time.Time) ([]domain.IgnoreRecord, error)

	// UpsertMachineStatus persists machine availability.
	UpsertMachineStatus(ctx context.Context, st *domain.MachineStatus) error

	// ListMachineStatus returns every persisted machine status row.
	ListMachineStatus(ctx context.Context) ([]domain.MachineStatus, error)

	// ReplaceShiftWindows replaces the configured scoring windows,
	// preserving their order.
	ReplaceShiftWindows(ctx context.Context, windows []domain.ShiftWindow) error

	// ListShiftWindows returns the configured windows in order.
	ListShiftWindows(ctx context.Context) ([]domain.ShiftWindow, error)

	// InsertSetupSession records the start of a fixture changeover.
	InsertSetupSession(ctx context.Context, s *domain.SetupSession) error

	// CompleteSetupSession stamps the end of a session. Returns false
	// without error when the session is unknown or already ended.
	CompleteSetupSession(ctx context.Context, setupID string, endedAt time.Time) (bool, error)

	// Ping checks the store is reachable.
	Ping(ctx context.Context) error

	// Close releases store resources.
	Close() error
}
