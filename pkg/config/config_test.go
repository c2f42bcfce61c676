package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaults(t *testing.T) {
	cfg := Defaults()

	assert.Equal(t, "claude-3-5-haiku-latest", cfg.LLMModel)
	assert.Equal(t, 0.3, cfg.LLMTemperature)
	assert.Equal(t, 3, cfg.MaxIterations)
	assert.Equal(t, 80.0, cfg.MinComplianceScore)
	assert.True(t, cfg.StrictCompliance)
	assert.InDelta(t, 1.0, cfg.HybridVectorWeight+cfg.HybridBM25Weight, 0.0001)
}

func TestLoadNoOverrides(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Defaults(), cfg)
}

func TestLoadYAMLOverride(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	contents := `
llm_model: claude-3-opus-latest
max_iterations: 5
strict_compliance: false
hybrid_vector_weight: 0.5
hybrid_bm25_weight: 0.5
`
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "claude-3-opus-latest", cfg.LLMModel)
	assert.Equal(t, 5, cfg.MaxIterations)
	assert.False(t, cfg.StrictCompliance)
	assert.Equal(t, 0.5, cfg.HybridVectorWeight)
	// Untouched fields keep their built-in default.
	assert.Equal(t, Defaults().LLMEndpoint, cfg.LLMEndpoint)
}

func TestLoadMissingYAMLFileIsNotAnError(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "does-not-exist.yaml"))
	require.NoError(t, err)
	assert.Equal(t, Defaults(), cfg)
}

func TestLoadEnvOverridesYAML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("max_iterations: 5\n"), 0o644))

	t.Setenv("MAX_ITERATIONS", "7")
	t.Setenv("STRICT_COMPLIANCE", "false")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 7, cfg.MaxIterations)
	assert.False(t, cfg.StrictCompliance)
}

func TestLoadIgnoresMalformedEnvVar(t *testing.T) {
	t.Setenv("MAX_ITERATIONS", "not-a-number")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Defaults().MaxIterations, cfg.MaxIterations)
}
