package provider

import (
	"context"

	"github.com/joss/cellpilot/internal/domain"
	"github.com/joss/cellpilot/internal/logging"
)

// WorkOrderProvider normalizes routing rows from the work-order source
// into schedulable operations.
type WorkOrderProvider struct {
	source   WorkOrderSource
	families []string
	log      *logging.Logger
}

// NewWorkOrderProvider creates a provider. families is the set of known
// machine-family prefixes used to extract allowed machines from flow
// descriptions.
func NewWorkOrderProvider(source WorkOrderSource, families []string) *WorkOrderProvider {
	return &WorkOrderProvider{
		source:   source,
		families: families,
		log:      logging.New("workorder-provider"),
	}
}

// ListActiveOperations fetches ready, unfinished routing lines. Malformed
// rows are skipped with a warning, never fatal; a dead source yields an
// empty list.
func (p *WorkOrderProvider) ListActiveOperations(ctx context.Context) ([]domain.WorkOrderOperation, error) {
	rows, err := p.source.ListActiveOperations(ctx)
	if err != nil {
		p.log.Warn("work_order_source_unavailable", nil, err)
		return nil, nil
	}

	ops := make([]domain.WorkOrderOperation, 0, len(rows))
	skipped := 0
	for _, row := range rows {
		op, ok := p.mapOperation(row)
		if !ok {
			skipped++
			continue
		}
		ops = append(ops, op)
	}

	if skipped > 0 {
		p.log.Warn("routing_rows_skipped", map[string]interface{}{"count": skipped}, nil)
	}
	return ops, nil
}

// mapOperation converts one raw routing row. Returns false when the row
// lacks the identity fields the planner cannot work without.
func (p *WorkOrderProvider) mapOperation(row Row) (domain.WorkOrderOperation, bool) {
	workOrder := FirstString(row, "work_order", "work_order_no", "prod_order_no", "order_no")
	rawPart := FirstString(row, "part_id", "item_no", "part_no", "source_no")
	if workOrder == "" || rawPart == "" {
		return domain.WorkOrderOperation{}, false
	}

	rawOpCode := FirstString(row, "operation_id", "operation_no", "op_code", "routing_no")
	lineNo := FirstInt(row, "line_no", "routing_line_no")
	suffix := OperationSuffix(rawOpCode, lineNo)

	flow := FirstString(row, "flow_description", "routing_description", "flow", "description")

	return domain.WorkOrderOperation{
		WorkOrder:             workOrder,
		PartID:                NormalizePartID(rawPart),
		OperationID:           suffix,
		RequiredQty:           FirstDecimal(row, "required_qty", "quantity", "qty"),
		CompletedQty:          FirstDecimal(row, "completed_qty", "finished_qty", "output_qty"),
		EstimatedCycleMinutes: FirstFloat(row, "estimated_cycle_minutes", "cycle_minutes", "run_time"),
		AllowedMachines:       AllowedMachines(flow, p.families),
		ProgramName:           rawPart + "-" + suffix,
	}, true
}
