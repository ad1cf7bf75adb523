// Package config provides centralized configuration management for the
// cell planner: environment variables in one place plus the YAML cell
// profile (shift windows, static pallet catalog).
package config

import (
	"os"
	"path/filepath"
	"sync"
)

// CellEnv holds all cellpilot environment variables.
type CellEnv struct {
	// Cell is the manufacturing cell identifier (CELL_ID)
	Cell string

	// ProfilePath points at the cell profile YAML (CELL_PROFILE)
	ProfilePath string

	// DataDir is where the sqlite store lives (CELL_DATA_DIR)
	DataDir string

	// ERPBaseURL is the work-order/routing source endpoint (CELL_ERP_URL)
	ERPBaseURL string

	// FixtureBaseURL is the fixture/pallet matrix endpoint (CELL_FIXTURE_URL)
	FixtureBaseURL string

	// ToolBaseURL is the tool inventory endpoint (CELL_TOOL_URL)
	ToolBaseURL string

	// RouteBaseURL is the pallet route telemetry endpoint (CELL_ROUTE_URL)
	RouteBaseURL string

	// Operator identifies the operator station (CELL_OPERATOR)
	Operator string
}

var (
	env     *CellEnv
	envOnce sync.Once
)

// Env returns the singleton environment configuration.
// Thread-safe, loads once on first call.
func Env() *CellEnv {
	envOnce.Do(func() {
		env = &CellEnv{
			Cell:           getEnvDefault("CELL_ID", "cell-1"),
			ProfilePath:    os.Getenv("CELL_PROFILE"),
			DataDir:        getEnvDefault("CELL_DATA_DIR", defaultDataDir()),
			ERPBaseURL:     os.Getenv("CELL_ERP_URL"),
			FixtureBaseURL: os.Getenv("CELL_FIXTURE_URL"),
			ToolBaseURL:    os.Getenv("CELL_TOOL_URL"),
			RouteBaseURL:   os.Getenv("CELL_ROUTE_URL"),
			Operator:       os.Getenv("CELL_OPERATOR"),
		}
	})
	return env
}

// ResetEnv resets the cached environment (for testing).
func ResetEnv() {
	envOnce = sync.Once{}
	env = nil
}

func getEnvDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func defaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		home = "."
	}
	return filepath.Join(home, ".cellpilot", "data")
}

// EnsureDir creates a directory if it doesn't exist.
func EnsureDir(path string) error {
	return os.MkdirAll(path, 0755)
}
