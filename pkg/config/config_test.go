package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadFromEnvDefaults(t *testing.T) {
	cfg := LoadFromEnv()
	assert.True(t, cfg.Matcher.CaseInsensitiveLabels)
	assert.Equal(t, 10, cfg.Matcher.MaxPathDepth)
	assert.Equal(t, 1000, cfg.Matcher.MaxPathResults)
	assert.False(t, cfg.Evaluator.NumericCoercion)
	assert.Equal(t, "counter", cfg.Actions.IDGenerator)
	require.NoError(t, cfg.Validate())
}

func TestLoadFromEnvHonorsOverrides(t *testing.T) {
	t.Setenv("GRAPHRULES_MATCHER_MAX_PATH_DEPTH", "25")
	t.Setenv("GRAPHRULES_ACTIONS_ID_GENERATOR", "uuid")
	t.Setenv("GRAPHRULES_EVALUATOR_NUMERIC_COERCION", "true")

	cfg := LoadFromEnv()
	assert.Equal(t, 25, cfg.Matcher.MaxPathDepth)
	assert.Equal(t, "uuid", cfg.Actions.IDGenerator)
	assert.True(t, cfg.Evaluator.NumericCoercion)
}

func TestLoadFromFileOverridesEnvBaseline(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "graphrules.yaml")
	contents := "matcher:\n  maxPathDepth: 42\nactions:\n  idGenerator: uuid\n"
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o644))

	cfg, err := LoadFromFile(path)
	require.NoError(t, err)
	assert.Equal(t, 42, cfg.Matcher.MaxPathDepth)
	assert.Equal(t, "uuid", cfg.Actions.IDGenerator)
	// Untouched by the YAML file, still carries the env-derived default.
	assert.Equal(t, 1000, cfg.Matcher.MaxPathResults)
}

func TestLoadFromFileMissingFileErrors(t *testing.T) {
	_, err := LoadFromFile(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestValidateRejectsUnknownIDGenerator(t *testing.T) {
	cfg := LoadFromEnv()
	cfg.Actions.IDGenerator = "snowflake"
	assert.Error(t, cfg.Validate())
}

func TestValidateRejectsNonPositiveMaxPathDepth(t *testing.T) {
	cfg := LoadFromEnv()
	cfg.Matcher.MaxPathDepth = 0
	assert.Error(t, cfg.Validate())
}

func TestValidateRejectsRollbackAndContinueBothSet(t *testing.T) {
	cfg := LoadFromEnv()
	cfg.Executor.RollbackOnFailure = true
	cfg.Executor.ContinueOnFailure = true
	assert.Error(t, cfg.Validate())
}
