package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeProfile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "profile.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoadProfile(t *testing.T) {
	path := writeProfile(t, `
machines: [DMC1, DMC2, NH1]
machine_families: [DMC, NH]
jobs_per_machine: 3
ignore_ttl_hours: 2

shift_windows:
  - name: day
    start_time: "06:00"
    end_time: "14:00"
    weight_short_setup: 1.5
    weight_long_run: 1.0
    weight_tool_penalty: 1.0
    weight_machine_balance: 1.0
  - name: night
    start_time: "22:00"
    end_time: "06:00"
    weight_short_setup: 0.5
    weight_long_run: 2.0
    weight_tool_penalty: 1.0
    weight_machine_balance: 0.5

pallet_catalog:
  - pallet_id: PAL-01
    machine_id: DMC1
    plaque_model: P100
    fixture_code: FX-A
`)

	p, err := LoadProfile(path)
	require.NoError(t, err)

	assert.Equal(t, []string{"DMC1", "DMC2", "NH1"}, p.Machines)
	assert.Equal(t, []string{"DMC", "NH"}, p.MachineFamilies)
	assert.Equal(t, 3, p.JobsPerMachine)
	assert.Equal(t, 2.0, p.IgnoreTTLHours)

	require.Len(t, p.ShiftWindows, 2)
	assert.Equal(t, "day", p.ShiftWindows[0].Name)
	assert.Equal(t, "22:00", p.ShiftWindows[1].StartTime)
	assert.Equal(t, 2.0, p.ShiftWindows[1].WeightLongRun)

	require.Len(t, p.PalletCatalog, 1)
	assert.Equal(t, "PAL-01", p.PalletCatalog[0].PalletID)
	assert.Equal(t, "P100", p.PalletCatalog[0].PlaqueModel)
}

func TestLoadProfileDefaults(t *testing.T) {
	p, err := LoadProfile("")
	require.NoError(t, err)
	assert.Equal(t, []string{"DMC", "NH", "MAZAK"}, p.MachineFamilies)
	assert.Equal(t, 4.0, p.IgnoreTTLHours)
	assert.Equal(t, 5, p.JobsPerMachine)
	assert.Empty(t, p.Machines)
}

func TestLoadProfileSanitizesKnobs(t *testing.T) {
	path := writeProfile(t, "ignore_ttl_hours: -1\njobs_per_machine: -2\n")
	p, err := LoadProfile(path)
	require.NoError(t, err)
	assert.Equal(t, 4.0, p.IgnoreTTLHours)
	assert.Equal(t, 0, p.JobsPerMachine)
}

func TestLoadProfileErrors(t *testing.T) {
	_, err := LoadProfile(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	path := writeProfile(t, "machines: [unclosed")
	_, err = LoadProfile(path)
	assert.Error(t, err)
}
