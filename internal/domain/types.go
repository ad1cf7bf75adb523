// Package domain holds the typed records shared by the planner, the
// suggestion engine and the control surface. Records are plain data;
// behavior lives in the services that own them.
package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// WorkOrderOperation is one routing step of a work order that is eligible
// for scheduling. part_id is always normalized (underscores to hyphens)
// before it enters the planner.
type WorkOrderOperation struct {
	WorkOrder            string          `json:"work_order"`
	PartID               string          `json:"part_id"`
	OperationID          string          `json:"operation_id"`
	RequiredQty          decimal.Decimal `json:"required_qty"`
	CompletedQty         decimal.Decimal `json:"completed_qty"`
	EstimatedCycleMinutes float64        `json:"estimated_cycle_minutes"`
	AllowedMachines      []string        `json:"allowed_machines,omitempty"`
	ProgramName          string          `json:"program_name"`
}

// RemainingQuantity returns required minus completed, floored at zero.
func (op WorkOrderOperation) RemainingQuantity() decimal.Decimal {
	rem := op.RequiredQty.Sub(op.CompletedQty)
	if rem.IsNegative() {
		return decimal.Zero
	}
	return rem
}

// AllowsMachine reports whether the operation may run on the machine.
// An empty allowed set means any machine.
func (op WorkOrderOperation) AllowsMachine(machineID string) bool {
	if len(op.AllowedMachines) == 0 {
		return true
	}
	for _, m := range op.AllowedMachines {
		if m == machineID {
			return true
		}
	}
	return false
}

// ToolRequirement is a tool an NC program needs, with the cutting time
// the program spends on it.
type ToolRequirement struct {
	ToolID           string  `json:"tool_id"`
	UsageTimeSeconds float64 `json:"usage_time_seconds"`
}

// ToolState is a tool's live status on one machine.
type ToolState struct {
	ToolID               string  `json:"tool_id"`
	IsPresent            bool    `json:"is_present"`
	RemainingLifeSeconds float64 `json:"remaining_life_seconds"`
}

// FixtureState is a fixture definition plus its storage slot.
type FixtureState struct {
	FixtureCode     string `json:"fixture_code"`
	Description     string `json:"description,omitempty"`
	StorageLocation string `json:"storage_location,omitempty"`
}

// MachinePalletState is a physical pallet currently mounted or mountable
// on a machine.
type MachinePalletState struct {
	PalletID    string `json:"pallet_id"`
	FixtureCode string `json:"fixture_code,omitempty"`
	MachineID   string `json:"machine_id,omitempty"`
	IsActive    bool   `json:"is_active"`
	PlaqueModel string `json:"plaque_model,omitempty"`
}

// MaterialPalletState is a raw-material stock pallet for a part.
type MaterialPalletState struct {
	PalletID          string          `json:"pallet_id"`
	PartID            string          `json:"part_id"`
	QuantityAvailable decimal.Decimal `json:"quantity_available"`
	Location          string          `json:"location,omitempty"`
}

// ScoreBreakdown decomposes a candidate's scheduling cost. Lower totals
// win. MaterialPenalty is carried for forward compatibility and is
// always zero today.
type ScoreBreakdown struct {
	Total           float64 `json:"total"`
	ToolPenalty     float64 `json:"tool_penalty"`
	SetupPenalty    float64 `json:"setup_penalty"`
	MaterialPenalty float64 `json:"material_penalty"`
	BalancePenalty  float64 `json:"balance_penalty"`
}

// PlanCandidate is one scheduled slot inside a plan batch before it is
// persisted. Immutable once stored.
type PlanCandidate struct {
	WorkOrder             string  `json:"work_order"`
	PartID                string  `json:"part_id"`
	OperationID           string  `json:"operation_id"`
	MachineID             string  `json:"machine_id"`
	MachinePalletID       string  `json:"machine_pallet_id,omitempty"`
	MaterialPalletID      string  `json:"material_pallet_id,omitempty"`
	ProgramName           string  `json:"program_name"`
	EstimatedSetupMinutes float64 `json:"estimated_setup_minutes"`
	EstimatedCycleMinutes float64 `json:"estimated_cycle_minutes"`
	SequenceIndex         int     `json:"sequence_index"`
}

// JobStatus is the lifecycle state of a persisted planned job.
type JobStatus string

const (
	JobPlanned    JobStatus = "planned"
	JobDispatched JobStatus = "dispatched"
	JobSkipped    JobStatus = "skipped"
	JobCancelled  JobStatus = "cancelled"
)

// PlannedJobRow is the persisted form of a PlanCandidate.
type PlannedJobRow struct {
	PlannedJobID          string    `json:"planned_job_id"`
	PlanBatchID           string    `json:"plan_batch_id"`
	WorkOrder             string    `json:"work_order"`
	PartID                string    `json:"part_id"`
	OperationID           string    `json:"operation_id"`
	MachineID             string    `json:"machine_id"`
	MachinePalletID       string    `json:"machine_pallet_id,omitempty"`
	MaterialPalletID      string    `json:"material_pallet_id,omitempty"`
	ProgramName           string    `json:"program_name"`
	EstimatedSetupMinutes float64   `json:"estimated_setup_minutes"`
	EstimatedCycleMinutes float64   `json:"estimated_cycle_minutes"`
	SequenceIndex         int       `json:"sequence_index"`
	Status                JobStatus `json:"status"`
	DecisionID            string    `json:"decision_id,omitempty"`
	CreatedAt             time.Time `json:"created_at"`
}

// ShiftWindow is a named time-of-day scoring profile. A window whose
// start is later than its end wraps past midnight.
type ShiftWindow struct {
	Name                 string  `json:"name" yaml:"name"`
	StartTime            string  `json:"start_time" yaml:"start_time"` // "HH:MM"
	EndTime              string  `json:"end_time" yaml:"end_time"`     // "HH:MM"
	WeightShortSetup     float64 `json:"weight_short_setup" yaml:"weight_short_setup"`
	WeightLongRun        float64 `json:"weight_long_run" yaml:"weight_long_run"`
	WeightToolPenalty    float64 `json:"weight_tool_penalty" yaml:"weight_tool_penalty"`
	WeightMachineBalance float64 `json:"weight_machine_balance" yaml:"weight_machine_balance"`
}

// UnitShiftWindow is the neutral profile used when nothing is configured.
func UnitShiftWindow() ShiftWindow {
	return ShiftWindow{
		Name:                 "default",
		WeightShortSetup:     1.0,
		WeightLongRun:        1.0,
		WeightToolPenalty:    1.0,
		WeightMachineBalance: 1.0,
	}
}

// ActionStep identifies one operator instruction in an action plan.
type ActionStep string

const (
	StepUnloadFinishedPart ActionStep = "UNLOAD_FINISHED_PART"
	StepVerifyFixture      ActionStep = "VERIFY_FIXTURE"
	StepRemoveFixture      ActionStep = "REMOVE_FIXTURE"
	StepInstallFixture     ActionStep = "INSTALL_FIXTURE"
	StepConfirmFixture     ActionStep = "CONFIRM_FIXTURE"
	StepLoadRawMaterial    ActionStep = "LOAD_RAW_MATERIAL"
)

// ActionPlanStep is one ordered operator instruction.
type ActionPlanStep struct {
	Step    ActionStep `json:"step"`
	Detail  string     `json:"detail,omitempty"`
	Fixture string     `json:"fixture,omitempty"`
	Pallet  string     `json:"pallet,omitempty"`
}

// ActionPlan is the ordered instruction list for executing a chosen job,
// plus up to a few fixture-hardware hints for the operator.
type ActionPlan struct {
	Steps               []ActionPlanStep `json:"steps"`
	FixtureHardwareList []FixtureState   `json:"fixture_hardware_list,omitempty"`
}

// MachineStatus is the persisted availability of one machine.
type MachineStatus struct {
	MachineID   string    `json:"machine_id"`
	IsAvailable bool      `json:"is_available"`
	StatusText  string    `json:"status_text,omitempty"`
	Reason      string    `json:"reason,omitempty"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// IgnoreRecord is a time-bounded operator veto on a job identity.
type IgnoreRecord struct {
	WorkOrder   string    `json:"work_order"`
	PartID      string    `json:"part_id"`
	OperationID string    `json:"operation_id"`
	Reason      string    `json:"reason,omitempty"`
	DecisionID  string    `json:"decision_id,omitempty"`
	IgnoreUntil time.Time `json:"ignore_until"`
	CreatedAt   time.Time `json:"created_at"`
}

// Matches reports whether the record vetoes the given job identity at
// the given instant.
func (r IgnoreRecord) Matches(workOrder, partID, operationID string, now time.Time) bool {
	return r.WorkOrder == workOrder &&
		r.PartID == partID &&
		r.OperationID == operationID &&
		r.IgnoreUntil.After(now)
}

// Decision is the persisted record of which candidate was dispatched
// and why.
type Decision struct {
	DecisionID   string         `json:"decision_id"`
	PlannedJobID string         `json:"planned_job_id"`
	PlanBatchID  string         `json:"plan_batch_id"`
	MachineID    string         `json:"machine_id"`
	ShiftWindow  string         `json:"shift_window"`
	Score        ScoreBreakdown `json:"score"`
	ActionPlan   ActionPlan     `json:"action_plan"`
	CreatedAt    time.Time      `json:"created_at"`
}

// SetupSession is a timestamped fixture changeover window.
type SetupSession struct {
	SetupID     string    `json:"setup_id"`
	MachineID   string    `json:"machine_id"`
	PalletID    string    `json:"pallet_id,omitempty"`
	FixtureCode string    `json:"fixture_code,omitempty"`
	Operator    string    `json:"operator,omitempty"`
	StartedAt   time.Time `json:"started_at"`
	EndedAt     time.Time `json:"ended_at,omitempty"`
}

// Completed reports whether the session has been ended.
func (s SetupSession) Completed() bool {
	return !s.EndedAt.IsZero()
}
