package config

import (
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"github.com/feralbyte/botup/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// writeConfigFile writes a config fixture into dir and returns its path.
func writeConfigFile(t *testing.T, dir, content string) string {
	t.Helper()
	path := filepath.Join(dir, FileName)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

// isolateHome points the home directory at an empty temp dir so a real
// ~/.config/botup/botup.jsonc on the test machine cannot leak into probes.
func isolateHome(t *testing.T) string {
	t.Helper()
	home := t.TempDir()
	t.Setenv("HOME", home)
	if runtime.GOOS == "windows" {
		t.Setenv("USERPROFILE", home)
	}
	return home
}

// chdir switches the working directory for the duration of the test and
// restores the original one on cleanup.
func chdir(t *testing.T, dir string) {
	t.Helper()
	prev, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() {
		if err := os.Chdir(prev); err != nil {
			t.Errorf("restoring working directory: %v", err)
		}
	})
}

// TestDefaults verifies the built-in settings commands run on when no
// config file exists.
func TestDefaults(t *testing.T) {
	cfg := Defaults()

	assert.Equal(t, "statusbot", cfg.Name)
	assert.Equal(t, "~/statusbot", cfg.ProjectDir)
	assert.Equal(t, ".venv", cfg.VenvDir)
	assert.Equal(t, "bot.py", cfg.Entrypoint)
	assert.Equal(t, "requirements.txt", cfg.Requirements)
	assert.Equal(t, ".env", cfg.EnvFile)
	assert.Equal(t, "bot.py", cfg.ProcessPattern)
	assert.Equal(t, "logs", cfg.LogDir)
	assert.Equal(t, model.RuntimeProcess, cfg.Runtime)
	assert.Equal(t, "docker-compose.yml", cfg.ComposeFile)

	// The defaults themselves must pass validation.
	assert.NoError(t, cfg.Validate())
}

// TestLoad_OverridesDefaults verifies that a config file only needs to name
// the fields it changes: everything else keeps its default.
func TestLoad_OverridesDefaults(t *testing.T) {
	dir := t.TempDir()
	path := writeConfigFile(t, dir, `{
		// Comments are allowed: the file is JSONC.
		"name": "dayz-status",
		"projectDir": "`+escapeForJSON(dir)+`",
		"processPattern": "dayz_bot.py",
	}`)

	cfg, err := Load(path)
	require.NoError(t, err, "Load should succeed for a valid botup.jsonc")

	// Overridden fields.
	assert.Equal(t, "dayz-status", cfg.Name)
	assert.Equal(t, dir, cfg.ProjectDir)
	assert.Equal(t, "dayz_bot.py", cfg.ProcessPattern)

	// Untouched fields keep their defaults.
	assert.Equal(t, ".venv", cfg.VenvDir)
	assert.Equal(t, "bot.py", cfg.Entrypoint)
	assert.Equal(t, model.RuntimeProcess, cfg.Runtime)
}

// TestLoad_JSONCFeatures verifies comment stripping and trailing-comma
// tolerance, which plain encoding/json would reject.
func TestLoad_JSONCFeatures(t *testing.T) {
	dir := t.TempDir()
	path := writeConfigFile(t, dir, `{
		/* block comment */
		"name": "statusbot", // line comment
		"runtime": "docker",
	}`)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, model.RuntimeDocker, cfg.Runtime)
}

// TestLoad_NormalizesRuntimeCase verifies that runtime mode values are
// case-normalized during validation.
func TestLoad_NormalizesRuntimeCase(t *testing.T) {
	dir := t.TempDir()
	path := writeConfigFile(t, dir, `{"runtime": "Docker"}`)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, model.RuntimeDocker, cfg.Runtime)
}

// TestLoad_Errors covers the fatal load failures: a missing file, malformed
// JSON, and semantically invalid values. All must carry ExitFailure so the
// CLI exits 1.
func TestLoad_Errors(t *testing.T) {
	t.Run("file not found", func(t *testing.T) {
		_, err := Load(filepath.Join(t.TempDir(), "nope.jsonc"))
		require.Error(t, err)
		var cliErr *model.CLIError
		require.ErrorAs(t, err, &cliErr)
		assert.Equal(t, model.ExitFailure, cliErr.Code)
	})

	t.Run("malformed json", func(t *testing.T) {
		dir := t.TempDir()
		path := writeConfigFile(t, dir, `{"name": `)
		_, err := Load(path)
		require.Error(t, err)
		var cliErr *model.CLIError
		require.ErrorAs(t, err, &cliErr)
		assert.Equal(t, model.ExitFailure, cliErr.Code)
	})

	t.Run("invalid name", func(t *testing.T) {
		dir := t.TempDir()
		path := writeConfigFile(t, dir, `{"name": "status bot"}`)
		_, err := Load(path)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "invalid deployment name")
	})

	t.Run("invalid runtime", func(t *testing.T) {
		dir := t.TempDir()
		path := writeConfigFile(t, dir, `{"runtime": "podman"}`)
		_, err := Load(path)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "invalid runtime mode")
	})

	t.Run("blanked required field", func(t *testing.T) {
		dir := t.TempDir()
		path := writeConfigFile(t, dir, `{"entrypoint": ""}`)
		_, err := Load(path)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "entrypoint must not be empty")
	})

	t.Run("docker mode without compose file", func(t *testing.T) {
		dir := t.TempDir()
		path := writeConfigFile(t, dir, `{"runtime": "docker", "composeFile": ""}`)
		_, err := Load(path)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "composeFile")
	})
}

// TestFindConfigFile verifies the probe order and the not-found semantics.
func TestFindConfigFile(t *testing.T) {
	t.Run("explicit path must exist", func(t *testing.T) {
		_, err := FindConfigFile(filepath.Join(t.TempDir(), "missing.jsonc"))
		require.Error(t, err)
		var cliErr *model.CLIError
		require.ErrorAs(t, err, &cliErr)
		assert.Equal(t, model.ExitFailure, cliErr.Code)
	})

	t.Run("explicit path wins", func(t *testing.T) {
		dir := t.TempDir()
		path := writeConfigFile(t, dir, `{}`)
		found, err := FindConfigFile(path)
		require.NoError(t, err)
		assert.Equal(t, path, found)
	})

	t.Run("current directory probe", func(t *testing.T) {
		dir := t.TempDir()
		writeConfigFile(t, dir, `{}`)
		chdir(t, dir)

		found, err := FindConfigFile("")
		require.NoError(t, err)
		assert.Equal(t, FileName, found)
	})

	t.Run("nothing found is not an error", func(t *testing.T) {
		chdir(t, t.TempDir())
		isolateHome(t)

		found, err := FindConfigFile("")
		require.NoError(t, err)
		assert.Empty(t, found, "absence of a config file should return empty, not error")
	})
}

// TestResolve verifies the single entry point commands use: explicit file,
// probed file, or pure defaults.
func TestResolve(t *testing.T) {
	t.Run("defaults when nothing found", func(t *testing.T) {
		chdir(t, t.TempDir())
		home := isolateHome(t)

		cfg, path, err := Resolve("")
		require.NoError(t, err)
		assert.Empty(t, path, "no config file should yield an empty path")
		assert.Equal(t, "statusbot", cfg.Name)
		// The home-relative default must come back expanded.
		assert.Equal(t, filepath.Join(home, "statusbot"), cfg.ProjectDir)
	})

	t.Run("explicit file", func(t *testing.T) {
		dir := t.TempDir()
		path := writeConfigFile(t, dir, `{"name": "dayz-status"}`)

		cfg, used, err := Resolve(path)
		require.NoError(t, err)
		assert.Equal(t, path, used)
		assert.Equal(t, "dayz-status", cfg.Name)
	})
}

// TestExpandHome covers the tilde expansion rules.
func TestExpandHome(t *testing.T) {
	home, err := os.UserHomeDir()
	require.NoError(t, err)

	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"home-relative", "~/statusbot", filepath.Join(home, "statusbot")},
		{"bare tilde", "~", home},
		{"absolute untouched", "/opt/statusbot", "/opt/statusbot"},
		{"relative untouched", "statusbot", "statusbot"},
		{"inner tilde untouched", "/data/~backup", "/data/~backup"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := expandHome(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, got)
		})
	}
}

// TestPathAccessors verifies project-relative resolution and the absolute
// pass-through.
func TestPathAccessors(t *testing.T) {
	project := t.TempDir()
	cfg := Defaults()
	cfg.ProjectDir = project

	assert.Equal(t, filepath.Join(project, ".venv"), cfg.VenvPath())
	assert.Equal(t, filepath.Join(project, "bot.py"), cfg.EntrypointPath())
	assert.Equal(t, filepath.Join(project, "requirements.txt"), cfg.RequirementsPath())
	assert.Equal(t, filepath.Join(project, ".env"), cfg.EnvFilePath())
	assert.Equal(t, filepath.Join(project, "logs"), cfg.LogDirPath())
	assert.Equal(t, filepath.Join(project, "docker-compose.yml"), cfg.ComposeFilePath())

	// Absolute overrides bypass the project directory.
	logDir := t.TempDir()
	cfg.LogDir = logDir
	assert.Equal(t, logDir, cfg.LogDirPath())
}

// TestProjectIssues verifies the missing-file report printed as a notice
// before setup, update, and run launch the bot.
func TestProjectIssues(t *testing.T) {
	dir := t.TempDir()
	cfg := Defaults()
	cfg.ProjectDir = dir

	// Empty project: all three files are reported.
	issues := cfg.ProjectIssues()
	require.Len(t, issues, 3)

	// Fill the files in one by one and watch the report shrink.
	require.NoError(t, os.WriteFile(filepath.Join(dir, "bot.py"), []byte("print('hi')\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "requirements.txt"), []byte("discord.py\n"), 0o644))
	issues = cfg.ProjectIssues()
	require.Len(t, issues, 1)
	assert.Contains(t, issues[0], ".env")

	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("DISCORD_TOKEN=x\n"), 0o644))
	assert.Empty(t, cfg.ProjectIssues())
}

// escapeForJSON escapes backslashes so Windows temp paths survive being
// embedded in a JSON fixture.
func escapeForJSON(path string) string {
	return strings.ReplaceAll(path, `\`, `\\`)
}
