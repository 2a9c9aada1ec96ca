package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func loadFromDir(t *testing.T, dir string) *Config {
	t.Helper()

	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(wd) })

	cfg, err := Load()
	require.NoError(t, err)

	return cfg
}

func TestLoadDefaults(t *testing.T) {
	cfg := loadFromDir(t, t.TempDir())

	assert.Equal(t, "0.0.0.0:8080", cfg.Server.Addr())
	assert.Equal(t, "mock", cfg.Backend.Provider)
	assert.Equal(t, 0.6, cfg.Selector.CapabilityWeight)
	assert.Equal(t, 0.3, cfg.Selector.PerformanceWeight)
	assert.Equal(t, 0.1, cfg.Selector.IdleBonus)
	assert.Equal(t, 60*time.Second, cfg.Dispatch.Timeout)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Empty(t, cfg.Agents)
}

func TestLoadFromFile(t *testing.T) {
	dir := t.TempDir()

	yaml := `
server:
  port: 9090
backend:
  provider: openrouter
  default_model: openai/gpt-4o-mini
selector:
  capability_weight: 0.5
  performance_weight: 0.4
  idle_bonus: 0.1
agents:
  - id: cathy
    name: Cathy
    role: Personal Assistant
    capabilities:
      - name: email_management
        confidence: 0.95
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0o600))

	cfg := loadFromDir(t, dir)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, "openrouter", cfg.Backend.Provider)
	assert.Equal(t, 0.5, cfg.Selector.CapabilityWeight)

	agents := cfg.AgentDefs()
	require.Len(t, agents, 1)
	assert.Equal(t, "cathy", agents[0].ID)
	assert.Equal(t, "openai/gpt-4o-mini", agents[0].Model, "default model filled in")
	require.Len(t, agents[0].Capabilities, 1)
	assert.Equal(t, 0.95, agents[0].Capabilities[0].Confidence)
}

func TestEnvOverride(t *testing.T) {
	t.Setenv("SWARMGATE_SERVER_PORT", "7070")
	t.Setenv("SWARMGATE_BACKEND_PROVIDER", "anthropic")

	cfg := loadFromDir(t, t.TempDir())

	assert.Equal(t, 7070, cfg.Server.Port)
	assert.Equal(t, "anthropic", cfg.Backend.Provider)
}

func TestDefaultFleet(t *testing.T) {
	cfg := loadFromDir(t, t.TempDir())

	agents := cfg.AgentDefs()
	require.Len(t, agents, 6)

	ids := make([]string, len(agents))
	for i, a := range agents {
		ids[i] = a.ID
		assert.Equal(t, "openai/gpt-4o", a.Model)
		assert.NotEmpty(t, a.Capabilities)
	}

	assert.Equal(t, []string{"comms", "cathy", "dataminer", "coder", "creative", "researcher"}, ids)
}
