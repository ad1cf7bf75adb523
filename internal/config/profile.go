package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/joss/cellpilot/internal/domain"
)

// CatalogPallet is one entry of the static machine-pallet catalog. The
// catalog backs up the live fixture matrix when no pallet is currently
// loaded for a piece.
type CatalogPallet struct {
	PalletID    string `yaml:"pallet_id"`
	MachineID   string `yaml:"machine_id"`
	PlaqueModel string `yaml:"plaque_model"`
	FixtureCode string `yaml:"fixture_code"`
}

// Profile is the cell profile document: scoring windows, the static
// pallet catalog and cell-level tuning knobs.
type Profile struct {
	ShiftWindows    []domain.ShiftWindow `yaml:"shift_windows"`
	PalletCatalog   []CatalogPallet      `yaml:"pallet_catalog"`
	MachineFamilies []string             `yaml:"machine_families"`
	IgnoreTTLHours  float64              `yaml:"ignore_ttl_hours"`
	JobsPerMachine  int                  `yaml:"jobs_per_machine"`
	Machines        []string             `yaml:"machines"`
}

// DefaultProfile returns the compiled-in profile used when no profile
// file is configured.
func DefaultProfile() *Profile {
	return &Profile{
		MachineFamilies: []string{"DMC", "NH", "MAZAK"},
		IgnoreTTLHours:  4,
		JobsPerMachine:  5,
	}
}

// LoadProfile reads the profile from path. An empty path yields the
// default profile; a missing or malformed file is an error so an
// operator typo does not silently plan with unit weights.
func LoadProfile(path string) (*Profile, error) {
	if path == "" {
		return DefaultProfile(), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read profile: %w", err)
	}

	p := DefaultProfile()
	if err := yaml.Unmarshal(data, p); err != nil {
		return nil, fmt.Errorf("parse profile %s: %w", path, err)
	}

	if p.IgnoreTTLHours <= 0 {
		p.IgnoreTTLHours = 4
	}
	if p.JobsPerMachine < 0 {
		p.JobsPerMachine = 0
	}
	return p, nil
}
