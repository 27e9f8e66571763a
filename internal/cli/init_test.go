// init_test.go contains tests for the init command's scaffold flow.
package cli

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/feralbyte/botup/internal/config"
)

// TestRunInit_WritesScaffolds verifies a fresh directory gains both
// starter files and that the written configuration loads back cleanly.
func TestRunInit_WritesScaffolds(t *testing.T) {
	dir := t.TempDir()

	require.NoError(t, runInit(dir, &initFlags{}))

	cfgPath := filepath.Join(dir, config.FileName)
	cfg, err := config.Load(cfgPath)
	require.NoError(t, err, "the scaffolded configuration must load back")
	assert.Equal(t, config.Defaults().Name, cfg.Name)

	data, err := os.ReadFile(filepath.Join(dir, config.EnvExampleName))
	require.NoError(t, err)
	for _, key := range config.RequiredEnvKeys {
		assert.Contains(t, string(data), key)
	}
}

// TestRunInit_RefusesOverwrite verifies existing operator files survive a
// second init and that --force replaces them.
func TestRunInit_RefusesOverwrite(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, runInit(dir, &initFlags{}))

	cfgPath := filepath.Join(dir, config.FileName)
	require.NoError(t, os.WriteFile(cfgPath, []byte("// operator edits\n{}\n"), 0o644))

	err := runInit(dir, &initFlags{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "--force")

	data, readErr := os.ReadFile(cfgPath)
	require.NoError(t, readErr)
	assert.Equal(t, "// operator edits\n{}\n", string(data))

	require.NoError(t, runInit(dir, &initFlags{force: true}))
	data, readErr = os.ReadFile(cfgPath)
	require.NoError(t, readErr)
	assert.NotEqual(t, "// operator edits\n{}\n", string(data))
}

// TestRunInit_AbortsOnFirstExistingFile verifies init stops at the first
// conflict, leaving the rest of the directory untouched.
func TestRunInit_AbortsOnFirstExistingFile(t *testing.T) {
	dir := t.TempDir()

	cfgPath := filepath.Join(dir, config.FileName)
	require.NoError(t, os.WriteFile(cfgPath, []byte("{}\n"), 0o644))

	err := runInit(dir, &initFlags{})
	require.Error(t, err)

	_, statErr := os.Stat(filepath.Join(dir, config.EnvExampleName))
	assert.True(t, os.IsNotExist(statErr), ".env.example must not be written after the abort")
}
