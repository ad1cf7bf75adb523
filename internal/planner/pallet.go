package planner

import (
	"context"
	"sort"

	"github.com/joss/cellpilot/internal/domain"
	"github.com/joss/cellpilot/internal/provider"
)

// Reservation tracks the pallets already handed out during one planning
// epoch. Pallets are a scarce shared physical resource: without this,
// two candidates in the same pass could be assigned the same pallet.
// The set is owned by a single RefreshPlan call and dies with it.
type Reservation struct {
	ids map[string]bool
}

// NewReservation creates an empty reservation set.
func NewReservation() *Reservation {
	return &Reservation{ids: make(map[string]bool)}
}

// Reserved reports whether a pallet is already taken this epoch.
func (r *Reservation) Reserved(palletID string) bool {
	return r.ids[palletID]
}

// Reserve marks a pallet as taken this epoch.
func (r *Reservation) Reserve(palletID string) {
	r.ids[palletID] = true
}

// Taken exposes the reserved set for catalog-fallback exclusion.
func (r *Reservation) Taken() map[string]bool {
	return r.ids
}

// SelectPallet picks a ready machine pallet for one piece on one
// machine, honoring the epoch's reservations:
//
//  1. Rank ready pallets by live phase (finished, unknown, mid-cycle).
//  2. First pass requires a same-machine match; second pass drops it.
//  3. When nothing matches, fall back to the static catalog, accepting
//     only pallets not currently mid-cycle.
//
// Returns nil when no pallet can be found; planning then assumes a
// cold-start setup.
func (s *Service) SelectPallet(ctx context.Context, res *Reservation, partID, operationSuffix, machineID string) *domain.MachinePalletState {
	ready := s.fixtures.GetReadyMachinePallets(ctx, partID, operationSuffix)
	plaque := s.fixtures.GetRequiredPlaqueModel(ctx, partID, operationSuffix)

	ranked := append([]domain.MachinePalletState(nil), ready...)
	sort.SliceStable(ranked, func(i, j int) bool {
		return s.phaseRank(ranked[i].PalletID) < s.phaseRank(ranked[j].PalletID)
	})

	for _, sameMachine := range []bool{true, false} {
		for _, pl := range ranked {
			if sameMachine && pl.MachineID != machineID {
				continue
			}
			if res.Reserved(pl.PalletID) {
				continue
			}
			if !plaqueCompatible(pl, plaque) {
				continue
			}
			if s.phaseRank(pl.PalletID) == provider.RankInCycle {
				continue
			}
			res.Reserve(pl.PalletID)
			found := pl
			return &found
		}
	}

	fallback := s.fixtures.GetCompatibleMachinePallet(ctx, machineID, plaque, res.Taken())
	if fallback == nil {
		return nil
	}
	if s.phaseRank(fallback.PalletID) == provider.RankInCycle {
		return nil
	}
	res.Reserve(fallback.PalletID)
	return fallback
}

// phaseRank ranks a pallet by its cached live phase; pallets the
// telemetry does not know rank as unknown.
func (s *Service) phaseRank(palletID string) int {
	st, ok := s.routes.GetStatus(palletID)
	if !ok {
		return provider.RankUnknown
	}
	return provider.PhaseRank(st.Phase)
}

// plaqueCompatible matches a pallet against the required plaque model:
// either its plaque model or its fixture code must equal it. No required
// plaque means every pallet is compatible.
func plaqueCompatible(pl domain.MachinePalletState, requiredPlaque string) bool {
	if requiredPlaque == "" {
		return true
	}
	return provider.NormalizePlaque(pl.PlaqueModel) == requiredPlaque ||
		provider.NormalizePlaque(pl.FixtureCode) == requiredPlaque
}
