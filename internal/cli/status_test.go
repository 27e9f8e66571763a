// status_test.go contains tests for the status report assembly against
// real on-disk fixtures: a Git checkout, a fabricated venv, and an .env
// file with gaps.
package cli

import (
	"context"
	"net"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/feralbyte/botup/internal/config"
	"github.com/feralbyte/botup/internal/model"
	"github.com/feralbyte/botup/internal/venv"
)

// statusTestPattern matches nothing on any sane machine, standing in for
// a stopped bot.
const statusTestPattern = "botup-status-test-no-match-xyzzy"

// writePlainVenv fabricates the venv file layout without an executable
// stub. The status report only ever stats these files, so the fixture
// works on every platform.
func writePlainVenv(t *testing.T, projectDir string) string {
	t.Helper()

	venvPath := filepath.Join(projectDir, ".venv")
	interp := venv.InterpreterPath(venvPath)
	require.NoError(t, os.MkdirAll(filepath.Dir(interp), 0o755))
	require.NoError(t, os.WriteFile(interp, []byte("#!/bin/sh\n"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(venvPath, "pyvenv.cfg"), []byte("home = /usr\n"), 0o644))
	return venvPath
}

// statusTestConfig builds a process-runtime Config rooted at projectDir
// with the gateway probe disabled.
func statusTestConfig(projectDir string) *config.Config {
	return &config.Config{
		Name:           "statusbot",
		ProjectDir:     projectDir,
		VenvDir:        ".venv",
		Entrypoint:     "bot.py",
		Requirements:   "requirements.txt",
		EnvFile:        ".env",
		ProcessPattern: statusTestPattern,
		LogDir:         "logs",
		Runtime:        model.RuntimeProcess,
		ComposeFile:    "docker-compose.yml",
		GatewayAddr:    "",
	}
}

// TestCollectStatus_ProcessRuntime verifies the full report over a
// provisioned checkout: stopped bot, clean-tracked repository with two
// untracked files, present venv, and a partially filled .env.
func TestCollectStatus_ProcessRuntime(t *testing.T) {
	project := setupGitRepo(t)
	venvPath := writePlainVenv(t, project)

	// Partially filled: two of the required keys are absent.
	envContent := "DISCORD_TOKEN=abc123\nSTATUS_CHANNEL_ID=42\n"
	require.NoError(t, os.WriteFile(filepath.Join(project, ".env"), []byte(envContent), 0o600))

	report := collectStatus(context.Background(), statusTestConfig(project))

	assert.Equal(t, "statusbot", report.Name)
	assert.Equal(t, "process", report.Runtime)
	assert.Equal(t, model.StateStopped.String(), report.State)
	assert.Empty(t, report.PIDs)
	assert.True(t, report.ProjectDirPresent)

	require.NotNil(t, report.Checkout)
	assert.Equal(t, "main", report.Checkout.Branch)
	assert.NotEmpty(t, report.Checkout.Revision)
	assert.Equal(t, "initial commit", report.Checkout.LastCommit)
	// .env and .venv/ are untracked, which counts as local changes.
	assert.True(t, report.Checkout.Dirty)
	assert.Equal(t, 2, report.Checkout.LocalChanges)

	require.NotNil(t, report.Venv)
	assert.True(t, report.Venv.Present)
	assert.Equal(t, venv.InterpreterPath(venvPath), report.Venv.Interpreter)

	require.NotNil(t, report.Requirements)
	assert.True(t, report.Requirements.Present)

	require.NotNil(t, report.EnvFile)
	assert.True(t, report.EnvFile.Present)
	assert.Equal(t, []string{"GUILD_ID", "BATTLEMETRICS_SERVER_ID"}, report.EnvFile.MissingKeys)

	assert.Nil(t, report.Gateway, "an empty gateway address disables the probe")
}

// TestCollectStatus_MissingProjectDir verifies the report is still
// produced when the deployment does not exist on this machine at all.
func TestCollectStatus_MissingProjectDir(t *testing.T) {
	cfg := statusTestConfig(filepath.Join(t.TempDir(), "statusbot"))

	report := collectStatus(context.Background(), cfg)

	assert.Equal(t, model.StateStopped.String(), report.State)
	assert.False(t, report.ProjectDirPresent)
	assert.Nil(t, report.Checkout)
	assert.Nil(t, report.Venv)
	assert.Nil(t, report.Requirements)
	assert.Nil(t, report.EnvFile)
}

// TestCollectStatus_NonRepoCheckout verifies a project directory without
// Git history reports no checkout section instead of failing.
func TestCollectStatus_NonRepoCheckout(t *testing.T) {
	project := t.TempDir()

	report := collectStatus(context.Background(), statusTestConfig(project))

	assert.True(t, report.ProjectDirPresent)
	assert.Nil(t, report.Checkout, "a non-repository checkout has no Git section")

	require.NotNil(t, report.Venv)
	assert.False(t, report.Venv.Present)

	require.NotNil(t, report.EnvFile)
	assert.False(t, report.EnvFile.Present)
}

// TestCollectStatus_GatewayProbe verifies the reachability probe against
// a live local listener.
func TestCollectStatus_GatewayProbe(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer func() { _ = ln.Close() }()

	cfg := statusTestConfig(filepath.Join(t.TempDir(), "statusbot"))
	cfg.GatewayAddr = ln.Addr().String()

	report := collectStatus(context.Background(), cfg)

	require.NotNil(t, report.Gateway)
	assert.Equal(t, cfg.GatewayAddr, report.Gateway.Addr)
	assert.True(t, report.Gateway.Reachable)
}
