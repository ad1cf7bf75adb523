package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/joss/cellpilot/internal/domain"
)

// SQLite is the durable Store adapter.
type SQLite struct {
	db   *sql.DB
	path string
}

// Verify SQLite implements Store
var _ Store = (*SQLite)(nil)

// NewSQLite opens (or creates) the cell database under dataDir and runs
// migrations.
func NewSQLite(dataDir string) (*SQLite, error) {
	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}

	dbPath := filepath.Join(dataDir, "cellpilot.db")
	db, err := sql.Open("sqlite3", dbPath+"?_journal=WAL&_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	s := &SQLite{db: db, path: dbPath}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return s, nil
}

func (s *SQLite) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS plan_batches (
		batch_id TEXT PRIMARY KEY,
		created_at DATETIME NOT NULL
	);

	CREATE TABLE IF NOT EXISTS planned_jobs (
		planned_job_id TEXT PRIMARY KEY,
		plan_batch_id TEXT NOT NULL,
		work_order TEXT NOT NULL,
		part_id TEXT NOT NULL,
		operation_id TEXT NOT NULL,
		machine_id TEXT NOT NULL,
		machine_pallet_id TEXT,
		material_pallet_id TEXT,
		program_name TEXT NOT NULL,
		estimated_setup_minutes REAL NOT NULL,
		estimated_cycle_minutes REAL NOT NULL,
		sequence_index INTEGER NOT NULL,
		status TEXT NOT NULL,
		decision_id TEXT,
		created_at DATETIME NOT NULL,
		FOREIGN KEY (plan_batch_id) REFERENCES plan_batches(batch_id)
	);

	CREATE INDEX IF NOT EXISTS idx_jobs_batch ON planned_jobs(plan_batch_id);
	CREATE INDEX IF NOT EXISTS idx_jobs_status ON planned_jobs(status);

	CREATE TABLE IF NOT EXISTS decisions (
		decision_id TEXT PRIMARY KEY,
		planned_job_id TEXT NOT NULL,
		plan_batch_id TEXT NOT NULL,
		machine_id TEXT NOT NULL,
		shift_window TEXT,
		score_total REAL NOT NULL,
		score_tool REAL NOT NULL,
		score_setup REAL NOT NULL,
		score_material REAL NOT NULL,
		score_balance REAL NOT NULL,
		action_plan_json TEXT NOT NULL,
		created_at DATETIME NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_decisions_created ON decisions(created_at DESC);

	CREATE TABLE IF NOT EXISTS ignores (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		work_order TEXT NOT NULL,
		part_id TEXT NOT NULL,
		operation_id TEXT NOT NULL,
		reason TEXT,
		decision_id TEXT,
		ignore_until DATETIME NOT NULL,
		created_at DATETIME NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_ignores_until ON ignores(ignore_until);

	CREATE TABLE IF NOT EXISTS machine_status (
		machine_id TEXT PRIMARY KEY,
		is_available INTEGER NOT NULL,
		status_text TEXT,
		reason TEXT,
		updated_at DATETIME NOT NULL
	);

	CREATE TABLE IF NOT EXISTS shift_windows (
		position INTEGER PRIMARY KEY,
		name TEXT NOT NULL,
		start_time TEXT NOT NULL,
		end_time TEXT NOT NULL,
		weight_short_setup REAL NOT NULL,
		weight_long_run REAL NOT NULL,
		weight_tool_penalty REAL NOT NULL,
		weight_machine_balance REAL NOT NULL
	);

	CREATE TABLE IF NOT EXISTS setup_sessions (
		setup_id TEXT PRIMARY KEY,
		machine_id TEXT NOT NULL,
		pallet_id TEXT,
		fixture_code TEXT,
		operator TEXT,
		started_at DATETIME NOT NULL,
		ended_at DATETIME
	);
	`
	_, err := s.db.Exec(schema)
	return err
}

// Close releases the database handle.
func (s *SQLite) Close() error {
	return s.db.Close()
}

// Ping checks the database is reachable.
func (s *SQLite) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// CreatePlanBatch supersedes the previous batch and inserts the new rows
// in one transaction, so there is no window without planned rows.
func (s *SQLite) CreatePlanBatch(ctx context.Context, batchID string, jobs []domain.PlannedJobRow) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin batch tx: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		`UPDATE planned_jobs SET status = ? WHERE status = ?`,
		domain.JobCancelled, domain.JobPlanned,
	); err != nil {
		return fmt.Errorf("supersede planned rows: %w", err)
	}

	now := time.Now().UTC()
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO plan_batches (batch_id, created_at) VALUES (?, ?)`,
		batchID, now,
	); err != nil {
		return fmt.Errorf("insert batch: %w", err)
	}

	for _, job := range jobs {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO planned_jobs (
				planned_job_id, plan_batch_id, work_order, part_id, operation_id,
				machine_id, machine_pallet_id, material_pallet_id, program_name,
				estimated_setup_minutes, estimated_cycle_minutes, sequence_index,
				status, decision_id, created_at
			) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			job.PlannedJobID, batchID, job.WorkOrder, job.PartID, job.OperationID,
			job.MachineID, job.MachinePalletID, job.MaterialPalletID, job.ProgramName,
			job.EstimatedSetupMinutes, job.EstimatedCycleMinutes, job.SequenceIndex,
			domain.JobPlanned, "", now,
		); err != nil {
			return fmt.Errorf("insert planned job %s: %w", job.PlannedJobID, err)
		}
	}

	return tx.Commit()
}

// LatestBatchID returns the most recent batch id, or empty if none.
func (s *SQLite) LatestBatchID(ctx context.Context) (string, error) {
	var id string
	err := s.db.QueryRowContext(ctx,
		`SELECT batch_id FROM plan_batches ORDER BY created_at DESC, batch_id DESC LIMIT 1`,
	).Scan(&id)
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("latest batch: %w", err)
	}
	return id, nil
}

const jobColumns = `planned_job_id, plan_batch_id, work_order, part_id, operation_id,
	machine_id, machine_pallet_id, material_pallet_id, program_name,
	estimated_setup_minutes, estimated_cycle_minutes, sequence_index,
	status, decision_id, created_at`

func scanJob(scan func(...any) error) (domain.PlannedJobRow, error) {
	var job domain.PlannedJobRow
	var machinePallet, materialPallet, decisionID sql.NullString
	err := scan(
		&job.PlannedJobID, &job.PlanBatchID, &job.WorkOrder, &job.PartID, &job.OperationID,
		&job.MachineID, &machinePallet, &materialPallet, &job.ProgramName,
		&job.EstimatedSetupMinutes, &job.EstimatedCycleMinutes, &job.SequenceIndex,
		&job.Status, &decisionID, &job.CreatedAt,
	)
	if err != nil {
		return job, err
	}
	job.MachinePalletID = machinePallet.String
	job.MaterialPalletID = materialPallet.String
	job.DecisionID = decisionID.String
	return job, nil
}

// ListPlannedJobs returns every row of a batch.
func (s *SQLite) ListPlannedJobs(ctx context.Context, batchID string) ([]domain.PlannedJobRow, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+jobColumns+` FROM planned_jobs WHERE plan_batch_id = ?
		 ORDER BY machine_id, sequence_index`, batchID)
	if err != nil {
		return nil, fmt.Errorf("list planned jobs: %w", err)
	}
	defer rows.Close()

	var jobs []domain.PlannedJobRow
	for rows.Next() {
		job, err := scanJob(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("scan planned job: %w", err)
		}
		jobs = append(jobs, job)
	}
	return jobs, rows.Err()
}

// GetPlannedJob fetches one row by id.
func (s *SQLite) GetPlannedJob(ctx context.Context, jobID string) (*domain.PlannedJobRow, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+jobColumns+` FROM planned_jobs WHERE planned_job_id = ?`, jobID)
	job, err := scanJob(row.Scan)
	if err == sql.ErrNoRows {
		return nil, domain.ErrJobNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get planned job: %w", err)
	}
	return &job, nil
}

// UpdateJobStatus transitions one row's status.
func (s *SQLite) UpdateJobStatus(ctx context.Context, jobID string, status domain.JobStatus, decisionID string) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE planned_jobs SET status = ?, decision_id = ? WHERE planned_job_id = ?`,
		status, decisionID, jobID)
	if err != nil {
		return fmt.Errorf("update job status: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return domain.ErrJobNotFound
	}
	return nil
}

// InsertDecision records a dispatch decision with its score breakdown
// and action-plan payload.
func (s *SQLite) InsertDecision(ctx context.Context, d *domain.Decision) error {
	planJSON, err := json.Marshal(d.ActionPlan)
	if err != nil {
		return fmt.Errorf("marshal action plan: %w", err)
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO decisions (
			decision_id, planned_job_id, plan_batch_id, machine_id, shift_window,
			score_total, score_tool, score_setup, score_material, score_balance,
			action_plan_json, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		d.DecisionID, d.PlannedJobID, d.PlanBatchID, d.MachineID, d.ShiftWindow,
		d.Score.Total, d.Score.ToolPenalty, d.Score.SetupPenalty,
		d.Score.MaterialPenalty, d.Score.BalancePenalty,
		string(planJSON), d.CreatedAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("insert decision: %w", err)
	}
	return nil
}

// ListDecisions returns recent decisions, newest first.
func (s *SQLite) ListDecisions(ctx context.Context, limit int) ([]domain.Decision, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT decision_id, planned_job_id, plan_batch_id, machine_id, shift_window,
		       score_total, score_tool, score_setup, score_material, score_balance,
		       action_plan_json, created_at
		FROM decisions ORDER BY created_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("list decisions: %w", err)
	}
	defer rows.Close()

	var decisions []domain.Decision
	for rows.Next() {
		var d domain.Decision
		var window sql.NullString
		var planJSON string
		if err := rows.Scan(
			&d.DecisionID, &d.PlannedJobID, &d.PlanBatchID, &d.MachineID, &window,
			&d.Score.Total, &d.Score.ToolPenalty, &d.Score.SetupPenalty,
			&d.Score.MaterialPenalty, &d.Score.BalancePenalty,
			&planJSON, &d.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan decision: %w", err)
		}
		d.ShiftWindow = window.String
		json.Unmarshal([]byte(planJSON), &d.ActionPlan)
		decisions = append(decisions, d)
	}
	return decisions, rows.Err()
}

// InsertIgnore records a refusal.
func (s *SQLite) InsertIgnore(ctx context.Context, rec *domain.IgnoreRecord) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO ignores (work_order, part_id, operation_id, reason, decision_id, ignore_until, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		rec.WorkOrder, rec.PartID, rec.OperationID, rec.Reason, rec.DecisionID,
		rec.IgnoreUntil.UTC(), rec.CreatedAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("insert ignore: %w", err)
	}
	return nil
}

// ListActiveIgnores returns refusals still inside their TTL.
func (s *SQLite) ListActiveIgnores(ctx context.Context, now time.Time) ([]domain.IgnoreRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT work_order, part_id, operation_id, reason, decision_id, ignore_until, created_at
		FROM ignores WHERE ignore_until > ?`, now.UTC())
	if err != nil {
		return nil, fmt.Errorf("list ignores: %w", err)
	}
	defer rows.Close()

	var recs []domain.IgnoreRecord
	for rows.Next() {
		var rec domain.IgnoreRecord
		var reason, decisionID sql.NullString
		if err := rows.Scan(&rec.WorkOrder, &rec.PartID, &rec.OperationID,
			&reason, &decisionID, &rec.IgnoreUntil, &rec.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan ignore: %w", err)
		}
		rec.Reason = reason.String
		rec.DecisionID = decisionID.String
		recs = append(recs, rec)
	}
	return recs, rows.Err()
}

// UpsertMachineStatus persists machine availability.
func (s *SQLite) UpsertMachineStatus(ctx context.Context, st *domain.MachineStatus) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO machine_status (machine_id, is_available, status_text, reason, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(machine_id) DO UPDATE SET
			is_available = excluded.is_available,
			status_text = excluded.status_text,
			reason = excluded.reason,
			updated_at = excluded.updated_at`,
		st.MachineID, st.IsAvailable, st.StatusText, st.Reason, st.UpdatedAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("upsert machine status: %w", err)
	}
	return nil
}

// ListMachineStatus returns every persisted machine status row.
func (s *SQLite) ListMachineStatus(ctx context.Context) ([]domain.MachineStatus, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT machine_id, is_available, status_text, reason, updated_at
		FROM machine_status ORDER BY machine_id`)
	if err != nil {
		return nil, fmt.Errorf("list machine status: %w", err)
	}
	defer rows.Close()

	var statuses []domain.MachineStatus
	for rows.Next() {
		var st domain.MachineStatus
		var text, reason sql.NullString
		if err := rows.Scan(&st.MachineID, &st.IsAvailable, &text, &reason, &st.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan machine status: %w", err)
		}
		st.StatusText = text.String
		st.Reason = reason.String
		statuses = append(statuses, st)
	}
	return statuses, rows.Err()
}

// ReplaceShiftWindows replaces the configured scoring windows.
func (s *SQLite) ReplaceShiftWindows(ctx context.Context, windows []domain.ShiftWindow) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin windows tx: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM shift_windows`); err != nil {
		return fmt.Errorf("clear shift windows: %w", err)
	}
	for i, w := range windows {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO shift_windows (position, name, start_time, end_time,
				weight_short_setup, weight_long_run, weight_tool_penalty, weight_machine_balance)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			i, w.Name, w.StartTime, w.EndTime,
			w.WeightShortSetup, w.WeightLongRun, w.WeightToolPenalty, w.WeightMachineBalance,
		); err != nil {
			return fmt.Errorf("insert shift window %s: %w", w.Name, err)
		}
	}
	return tx.Commit()
}

// ListShiftWindows returns the configured windows in order.
func (s *SQLite) ListShiftWindows(ctx context.Context) ([]domain.ShiftWindow, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT name, start_time, end_time, weight_short_setup, weight_long_run,
		       weight_tool_penalty, weight_machine_balance
		FROM shift_windows ORDER BY position`)
	if err != nil {
		return nil, fmt.Errorf("list shift windows: %w", err)
	}
	defer rows.Close()

	var windows []domain.ShiftWindow
	for rows.Next() {
		var w domain.ShiftWindow
		if err := rows.Scan(&w.Name, &w.StartTime, &w.EndTime,
			&w.WeightShortSetup, &w.WeightLongRun, &w.WeightToolPenalty, &w.WeightMachineBalance); err != nil {
			return nil, fmt.Errorf("scan shift window: %w", err)
		}
		windows = append(windows, w)
	}
	return windows, rows.Err()
}

// InsertSetupSession records the start of a fixture changeover.
func (s *SQLite) InsertSetupSession(ctx context.Context, sess *domain.SetupSession) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO setup_sessions (setup_id, machine_id, pallet_id, fixture_code, operator, started_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		sess.SetupID, sess.MachineID, sess.PalletID, sess.FixtureCode, sess.Operator,
		sess.StartedAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("insert setup session: %w", err)
	}
	return nil
}

// CompleteSetupSession stamps the session end. A second call, or an
// unknown id, reports false without error.
func (s *SQLite) CompleteSetupSession(ctx context.Context, setupID string, endedAt time.Time) (bool, error) {
	res, err := s.db.ExecContext(ctx, `
		UPDATE setup_sessions SET ended_at = ?
		WHERE setup_id = ? AND ended_at IS NULL`,
		endedAt.UTC(), setupID)
	if err != nil {
		return false, fmt.Errorf("complete setup session: %w", err)
	}
	n, _ := res.RowsAffected()
	return n > 0, nil
}
