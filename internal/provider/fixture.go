package provider

import (
	"context"

	"github.com/joss/cellpilot/internal/domain"
	"github.com/joss/cellpilot/internal/logging"
)

// FixtureProvider answers fixture and machine-pallet questions for a
// piece. The live matrix is frequently incomplete (no pallet currently
// loaded for a piece), so lookups fall back to the static pallet catalog
// rather than failing the plan.
type FixtureProvider struct {
	source FixtureSource
	log    *logging.Logger
}

// NewFixtureProvider creates a provider over the fixture/pallet matrix
// source.
func NewFixtureProvider(source FixtureSource) *FixtureProvider {
	return &FixtureProvider{
		source: source,
		log:    logging.New("fixture-provider"),
	}
}

// matrix fetches and maps the fixture matrix for a piece; fails closed.
func (p *FixtureProvider) matrix(ctx context.Context, partID, operationSuffix string) []Row {
	piece := PieceCode(partID, operationSuffix)
	rows, err := p.source.GetFixtureMatrix(ctx, piece)
	if err != nil {
		p.log.Warn("fixture_matrix_unavailable", map[string]interface{}{"piece": piece}, err)
		return nil
	}
	return rows
}

// catalog fetches the static machine-pallet catalog; fails closed.
func (p *FixtureProvider) catalog(ctx context.Context) []domain.MachinePalletState {
	rows, err := p.source.ListMachinePallets(ctx)
	if err != nil {
		p.log.Warn("pallet_catalog_unavailable", nil, err)
		return nil
	}
	pallets := make([]domain.MachinePalletState, 0, len(rows))
	for _, row := range rows {
		if pl, ok := mapMachinePallet(row); ok {
			pallets = append(pallets, pl)
		}
	}
	return pallets
}

// GetFixtureStates returns the deduplicated fixtures known for a piece.
func (p *FixtureProvider) GetFixtureStates(ctx context.Context, partID, operationSuffix string) []domain.FixtureState {
	seen := make(map[string]bool)
	var fixtures []domain.FixtureState
	for _, row := range p.matrix(ctx, partID, operationSuffix) {
		code := NormalizePlaque(FirstString(row, "fixture_code", "fixture", "attrezzo"))
		if code == "" || seen[code] {
			continue
		}
		seen[code] = true
		fixtures = append(fixtures, domain.FixtureState{
			FixtureCode:     code,
			Description:     FirstString(row, "fixture_description", "description"),
			StorageLocation: FirstString(row, "storage_location", "location", "slot"),
		})
	}
	return fixtures
}

// GetReadyMachinePallets returns the active pallets the matrix knows for
// a piece. When the matrix has no active pallet but a required plaque
// model is known, the static catalog filtered by that plaque stands in.
func (p *FixtureProvider) GetReadyMachinePallets(ctx context.Context, partID, operationSuffix string) []domain.MachinePalletState {
	var ready []domain.MachinePalletState
	for _, row := range p.matrix(ctx, partID, operationSuffix) {
		pl, ok := mapMachinePallet(row)
		if !ok || !pl.IsActive {
			continue
		}
		ready = append(ready, pl)
	}
	if len(ready) > 0 {
		return ready
	}

	plaque := p.GetRequiredPlaqueModel(ctx, partID, operationSuffix)
	if plaque == "" {
		return nil
	}
	for _, pl := range p.catalog(ctx) {
		if NormalizePlaque(pl.PlaqueModel) == plaque || NormalizePlaque(pl.FixtureCode) == plaque {
			pl.IsActive = true
			ready = append(ready, pl)
		}
	}
	return ready
}

// GetRequiredPlaqueModel returns the best-known plaque/fixture code for
// a piece, or empty when none can be derived.
func (p *FixtureProvider) GetRequiredPlaqueModel(ctx context.Context, partID, operationSuffix string) string {
	for _, row := range p.matrix(ctx, partID, operationSuffix) {
		if plaque := NormalizePlaque(FirstString(row, "plaque_model", "plaque", "plate_model")); plaque != "" {
			return plaque
		}
	}
	for _, row := range p.matrix(ctx, partID, operationSuffix) {
		if code := NormalizePlaque(FirstString(row, "fixture_code", "fixture", "attrezzo")); code != "" {
			return code
		}
	}
	return ""
}

// GetCompatibleMachinePallet returns a static-catalog pallet compatible
// with the plaque model, preferring one parked at the requested machine,
// skipping excluded ids. Returns nil when nothing is compatible.
func (p *FixtureProvider) GetCompatibleMachinePallet(ctx context.Context, machineID, plaqueModel string, excludeIDs map[string]bool) *domain.MachinePalletState {
	plaque := NormalizePlaque(plaqueModel)
	compatible := func(pl domain.MachinePalletState) bool {
		if excludeIDs[pl.PalletID] {
			return false
		}
		if plaque == "" {
			return true
		}
		return NormalizePlaque(pl.PlaqueModel) == plaque || NormalizePlaque(pl.FixtureCode) == plaque
	}

	catalog := p.catalog(ctx)
	for _, pl := range catalog {
		if pl.MachineID == machineID && compatible(pl) {
			found := pl
			return &found
		}
	}
	for _, pl := range catalog {
		if compatible(pl) {
			found := pl
			return &found
		}
	}
	return nil
}

// GetPalletFixture returns the fixture code currently associated with a
// pallet in the static catalog, or empty when unknown.
func (p *FixtureProvider) GetPalletFixture(ctx context.Context, palletID string) string {
	for _, pl := range p.catalog(ctx) {
		if pl.PalletID == palletID {
			return NormalizePlaque(pl.FixtureCode)
		}
	}
	return ""
}

func mapMachinePallet(row Row) (domain.MachinePalletState, bool) {
	id := FirstString(row, "pallet_id", "pallet", "pallet_no")
	if id == "" {
		return domain.MachinePalletState{}, false
	}
	return domain.MachinePalletState{
		PalletID:    id,
		FixtureCode: NormalizePlaque(FirstString(row, "fixture_code", "fixture", "attrezzo")),
		MachineID:   FirstString(row, "machine_id", "machine", "machine_no"),
		IsActive:    FirstBool(row, "is_active", "active", "enabled"),
		PlaqueModel: NormalizePlaque(FirstString(row, "plaque_model", "plaque", "plate_model")),
	}, true
}
