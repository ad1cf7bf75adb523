package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEnv(t *testing.T) {
	// Reset env for clean test
	ResetEnv()

	// Set test environment
	os.Setenv("CELL_ID", "cell-7")
	os.Setenv("CELL_PROFILE", "/etc/cellpilot/profile.yaml")
	os.Setenv("CELL_ERP_URL", "http://erp.test:8080")
	os.Setenv("CELL_OPERATOR", "m.rossi")
	defer func() {
		os.Unsetenv("CELL_ID")
		os.Unsetenv("CELL_PROFILE")
		os.Unsetenv("CELL_ERP_URL")
		os.Unsetenv("CELL_OPERATOR")
		ResetEnv()
	}()

	env := Env()

	assert.Equal(t, "cell-7", env.Cell)
	assert.Equal(t, "/etc/cellpilot/profile.yaml", env.ProfilePath)
	assert.Equal(t, "http://erp.test:8080", env.ERPBaseURL)
	assert.Equal(t, "m.rossi", env.Operator)
}

func TestEnvDefaults(t *testing.T) {
	ResetEnv()

	os.Unsetenv("CELL_ID")
	os.Unsetenv("CELL_DATA_DIR")
	defer ResetEnv()

	env := Env()

	// Check defaults
	assert.Equal(t, "cell-1", env.Cell)
	assert.Contains(t, env.DataDir, ".cellpilot")
}

func TestEnvSingleton(t *testing.T) {
	ResetEnv()
	defer ResetEnv()

	env1 := Env()
	env2 := Env()

	// Should return same instance
	assert.Same(t, env1, env2)
}

func TestResetEnv(t *testing.T) {
	os.Setenv("CELL_ID", "first")
	env1 := Env()
	assert.Equal(t, "first", env1.Cell)

	os.Setenv("CELL_ID", "second")
	ResetEnv()

	env2 := Env()
	assert.Equal(t, "second", env2.Cell)

	// Cleanup
	os.Unsetenv("CELL_ID")
	ResetEnv()
}

func TestGetEnvDefault(t *testing.T) {
	tests := []struct {
		name     string
		key      string
		envVal   string
		fallback string
		want     string
	}{
		{"env set", "TEST_KEY", "value", "default", "value"},
		{"env empty", "TEST_KEY", "", "default", "default"},
		{"env not set", "TEST_KEY_NOTSET", "", "fallback", "fallback"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.envVal != "" {
				os.Setenv(tt.key, tt.envVal)
				defer os.Unsetenv(tt.key)
			}
			got := getEnvDefault(tt.key, tt.fallback)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestEnsureDir(t *testing.T) {
	tempDir := filepath.Join(t.TempDir(), "nested", "data")

	err := EnsureDir(tempDir)
	assert.NoError(t, err)

	info, err := os.Stat(tempDir)
	assert.NoError(t, err)
	assert.True(t, info.IsDir())

	// Running again should be idempotent
	err = EnsureDir(tempDir)
	assert.NoError(t, err)
}
