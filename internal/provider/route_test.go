package provider

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubRouteSource struct {
	rows  []Row
	err   error
	calls int
}

func (s *stubRouteSource) ListRoutes(ctx context.Context) ([]Row, error) {
	s.calls++
	return s.rows, s.err
}

func TestRouteProviderCachesWithinTTL(t *testing.T) {
	source := &stubRouteSource{rows: []Row{
		{"pallet_id": "PAL1", "phase": "FINE CICLO"},
	}}
	p := NewPalletRouteProvider(source)

	clock := time.Date(2026, 3, 2, 8, 0, 0, 0, time.UTC)
	p.now = func() time.Time { return clock }

	ctx := context.Background()
	p.Refresh(ctx, false)
	require.Equal(t, 1, source.calls)

	st, ok := p.GetStatus("PAL1")
	require.True(t, ok)
	assert.Equal(t, "FINE CICLO", st.Phase)

	// Inside the TTL nothing is re-pulled.
	clock = clock.Add(2 * time.Second)
	p.Refresh(ctx, false)
	assert.Equal(t, 1, source.calls)

	// Force bypasses the TTL.
	p.Refresh(ctx, true)
	assert.Equal(t, 2, source.calls)

	// Past the TTL a plain refresh re-pulls.
	clock = clock.Add(RouteTTL + time.Second)
	p.Refresh(ctx, false)
	assert.Equal(t, 3, source.calls)
}

func TestRouteProviderKeepsSnapshotOnFailure(t *testing.T) {
	source := &stubRouteSource{rows: []Row{{"pallet_id": "PAL1", "phase": "done"}}}
	p := NewPalletRouteProvider(source)
	ctx := context.Background()

	p.Refresh(ctx, true)
	_, ok := p.GetStatus("PAL1")
	require.True(t, ok)

	source.err = errors.New("telemetry gateway down")
	p.Refresh(ctx, true)

	st, ok := p.GetStatus("PAL1")
	assert.True(t, ok, "stale snapshot should survive a failed pull")
	assert.Equal(t, "done", st.Phase)
}

func TestPhaseRank(t *testing.T) {
	tests := []struct {
		phase string
		rank  int
	}{
		{"FINE CICLO", 0},
		{"done", 0},
		{"Complete", 0},
		{"IN CICLO", 2},
		{"executing", 2},
		{"running", 2},
		{"", 1},
		{"waiting", 1},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.rank, PhaseRank(tt.phase), "phase %q", tt.phase)
	}
}
