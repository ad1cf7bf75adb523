package provider

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/joss/cellpilot/internal/logging"
)

// RouteTTL is how long one pallet-route snapshot stays fresh.
const RouteTTL = 5 * time.Second

// RouteStatus is the live phase of one pallet.
type RouteStatus struct {
	PalletID string
	Phase    string
}

// Phase ranks used by pallet selection: lower is better.
const (
	RankFinished = 0
	RankUnknown  = 1
	RankInCycle  = 2
)

// PalletRouteProvider keeps a short-TTL snapshot of pallet route/phase
// telemetry keyed by pallet id. GetStatus is a pure cache read; Refresh
// re-pulls only when the snapshot is stale or forced.
type PalletRouteProvider struct {
	source RouteSource
	log    *logging.Logger
	now    func() time.Time

	mu        sync.RWMutex
	snapshot  map[string]RouteStatus
	fetchedAt time.Time
}

// NewPalletRouteProvider creates a provider over the route telemetry
// source.
func NewPalletRouteProvider(source RouteSource) *PalletRouteProvider {
	return &PalletRouteProvider{
		source:   source,
		log:      logging.New("route-provider"),
		now:      time.Now,
		snapshot: make(map[string]RouteStatus),
	}
}

// Refresh re-pulls the snapshot if it is older than RouteTTL or force is
// set. A failed pull keeps the previous snapshot.
func (p *PalletRouteProvider) Refresh(ctx context.Context, force bool) {
	p.mu.RLock()
	fresh := p.now().Sub(p.fetchedAt) < RouteTTL
	p.mu.RUnlock()
	if fresh && !force {
		return
	}

	rows, err := p.source.ListRoutes(ctx)
	if err != nil {
		p.log.Warn("route_telemetry_unavailable", nil, err)
		return
	}

	snapshot := make(map[string]RouteStatus, len(rows))
	for _, row := range rows {
		id := FirstString(row, "pallet_id", "pallet", "pallet_no")
		if id == "" {
			continue
		}
		snapshot[id] = RouteStatus{
			PalletID: id,
			Phase:    FirstString(row, "phase", "status", "state"),
		}
	}

	p.mu.Lock()
	p.snapshot = snapshot
	p.fetchedAt = p.now()
	p.mu.Unlock()
}

// GetStatus returns the cached phase for a pallet.
func (p *PalletRouteProvider) GetStatus(palletID string) (RouteStatus, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	st, ok := p.snapshot[palletID]
	return st, ok
}

// PhaseRank classifies a live phase for pallet ranking: finished beats
// unknown beats mid-cycle.
func PhaseRank(phase string) int {
	switch {
	case PhaseFinished(phase):
		return RankFinished
	case PhaseInCycle(phase):
		return RankInCycle
	default:
		return RankUnknown
	}
}

// PhaseFinished reports whether a phase means the pallet holds a
// finished part.
func PhaseFinished(phase string) bool {
	return containsToken(phase, "fin", "done", "complete")
}

// PhaseInCycle reports whether a phase means the pallet is mid-cycle.
func PhaseInCycle(phase string) bool {
	return containsToken(phase, "cycle", "ciclo", "exec", "run")
}

func containsToken(phase string, tokens ...string) bool {
	low := strings.ToLower(phase)
	for _, tok := range tokens {
		if strings.Contains(low, tok) {
			return true
		}
	}
	return false
}
