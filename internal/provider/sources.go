// Package provider wraps the external read-only data sources of the cell
// (routing, fixtures, tooling, raw material, pallet telemetry) and
// normalizes their rows into domain types. Sources fail closed: a dead
// collaborator yields an empty result, never an aborted planning cycle.
package provider

import "context"

// Row is one raw record from an external source. Upstream systems are
// inconsistent about field names, so providers read rows through the
// alias-aware getters in row.go.
type Row map[string]any

// WorkOrderSource lists ready, unfinished routing lines.
type WorkOrderSource interface {
	ListActiveOperations(ctx context.Context) ([]Row, error)
}

// FixtureSource exposes the live fixture/pallet matrix and the static
// machine-pallet catalog.
type FixtureSource interface {
	GetFixtureMatrix(ctx context.Context, pieceCode string) ([]Row, error)
	ListMachinePallets(ctx context.Context) ([]Row, error)
}

// ToolSource exposes NC-program tool requirements and per-machine live
// tool inventory.
type ToolSource interface {
	GetToolRequirements(ctx context.Context, program string) ([]Row, error)
	ListMachineTools(ctx context.Context, machineID string) ([]Row, error)
}

// MaterialSource lists raw-material stock pallets.
type MaterialSource interface {
	ListStorage(ctx context.Context) ([]Row, error)
}

// RouteSource lists live pallet route/phase telemetry.
type RouteSource interface {
	ListRoutes(ctx context.Context) ([]Row, error)
}
