package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/joss/cellpilot/internal/domain"
)

// Memory is the in-process Store adapter. It stands in when the sqlite
// store cannot be opened, trading durability across restarts for a
// planner that keeps working.
type Memory struct {
	mu sync.RWMutex

	batchOrder    []string
	jobs          map[string]*domain.PlannedJobRow
	jobsByBatch   map[string][]string
	decisions     []domain.Decision
	ignores       []domain.IgnoreRecord
	machines      map[string]domain.MachineStatus
	shiftWindows  []domain.ShiftWindow
	setupSessions map[string]*domain.SetupSession
}

// Verify Memory implements Store
var _ Store = (*Memory)(nil)

// NewMemory creates an empty in-process store.
func NewMemory() *Memory {
	return &Memory{
		jobs:          make(map[string]*domain.PlannedJobRow),
		jobsByBatch:   make(map[string][]string),
		machines:      make(map[string]domain.MachineStatus),
		setupSessions: make(map[string]*domain.SetupSession),
	}
}

func (m *Memory) CreatePlanBatch(ctx context.Context, batchID string, jobs []domain.PlannedJobRow) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, job := range m.jobs {
		if job.Status == domain.JobPlanned {
			job.Status = domain.JobCancelled
		}
	}

	m.batchOrder = append(m.batchOrder, batchID)
	now := time.Now().UTC()
	for i := range jobs {
		job := jobs[i]
		job.PlanBatchID = batchID
		job.Status = domain.JobPlanned
		job.CreatedAt = now
		m.jobs[job.PlannedJobID] = &job
		m.jobsByBatch[batchID] = append(m.jobsByBatch[batchID], job.PlannedJobID)
	}
	return nil
}

func (m *Memory) LatestBatchID(ctx context.Context) (string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if len(m.batchOrder) == 0 {
		return "", nil
	}
	return m.batchOrder[len(m.batchOrder)-1], nil
}

func (m *Memory) ListPlannedJobs(ctx context.Context, batchID string) ([]domain.PlannedJobRow, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	ids := m.jobsByBatch[batchID]
	jobs := make([]domain.PlannedJobRow, 0, len(ids))
	for _, id := range ids {
		if job, ok := m.jobs[id]; ok {
			jobs = append(jobs, *job)
		}
	}
	sort.SliceStable(jobs, func(i, j int) bool {
		if jobs[i].MachineID != jobs[j].MachineID {
			return jobs[i].MachineID < jobs[j].MachineID
		}
		return jobs[i].SequenceIndex < jobs[j].SequenceIndex
	})
	return jobs, nil
}

func (m *Memory) GetPlannedJob(ctx context.Context, jobID string) (*domain.PlannedJobRow, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	job, ok := m.jobs[jobID]
	if !ok {
		return nil, domain.ErrJobNotFound
	}
	copy := *job
	return &copy, nil
}

func (m *Memory) UpdateJobStatus(ctx context.Context, jobID string, status domain.JobStatus, decisionID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	job, ok := m.jobs[jobID]
	if !ok {
		return domain.ErrJobNotFound
	}
	job.Status = status
	job.DecisionID = decisionID
	return nil
}

func (m *Memory) InsertDecision(ctx context.Context, d *domain.Decision) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.decisions = append(m.decisions, *d)
	return nil
}

func (m *Memory) ListDecisions(ctx context.Context, limit int) ([]domain.Decision, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if limit <= 0 {
		limit = 20
	}
	out := make([]domain.Decision, 0, limit)
	for i := len(m.decisions) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, m.decisions[i])
	}
	return out, nil
}

func (m *Memory) InsertIgnore(ctx context.Context, rec *domain.IgnoreRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ignores = append(m.ignores, *rec)
	return nil
}

func (m *Memory) ListActiveIgnores(ctx context.Context, now time.Time) ([]domain.IgnoreRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var active []domain.IgnoreRecord
	for _, rec := range m.ignores {
		if rec.IgnoreUntil.After(now) {
			active = append(active, rec)
		}
	}
	return active, nil
}

func (m *Memory) UpsertMachineStatus(ctx context.Context, st *domain.MachineStatus) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.machines[st.MachineID] = *st
	return nil
}

func (m *Memory) ListMachineStatus(ctx context.Context) ([]domain.MachineStatus, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	statuses := make([]domain.MachineStatus, 0, len(m.machines))
	for _, st := range m.machines {
		statuses = append(statuses, st)
	}
	sort.Slice(statuses, func(i, j int) bool { return statuses[i].MachineID < statuses[j].MachineID })
	return statuses, nil
}

func (m *Memory) ReplaceShiftWindows(ctx context.Context, windows []domain.ShiftWindow) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.shiftWindows = append([]domain.ShiftWindow(nil), windows...)
	return nil
}

func (m *Memory) ListShiftWindows(ctx context.Context) ([]domain.ShiftWindow, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]domain.ShiftWindow(nil), m.shiftWindows...), nil
}

func (m *Memory) InsertSetupSession(ctx context.Context, s *domain.SetupSession) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	copy := *s
	m.setupSessions[s.SetupID] = &copy
	return nil
}

func (m *Memory) CompleteSetupSession(ctx context.Context, setupID string, endedAt time.Time) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	sess, ok := m.setupSessions[setupID]
	if !ok || sess.Completed() {
		return false, nil
	}
	sess.EndedAt = endedAt
	return true, nil
}

func (m *Memory) Ping(ctx context.Context) error { return nil }

func (m *Memory) Close() error { return nil }
