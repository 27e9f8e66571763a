//go:build !windows

package process

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"syscall"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/feralbyte/botup/internal/model"
)

// spawnMarked starts a long-running child whose command line carries a
// unique marker, so pattern-based discovery can find it without matching
// anything else on the machine. The marker goes into argv[0] via a
// symlink to the sleep binary, which keeps the child a single process
// with no shell in between.
func spawnMarked(t *testing.T) (int, string) {
	t.Helper()

	sleepBin, err := exec.LookPath("sleep")
	require.NoError(t, err, "sleep binary must be available for process tests")

	marker := fmt.Sprintf("botup-test-%d-%d", os.Getpid(), time.Now().UnixNano())
	link := filepath.Join(t.TempDir(), marker)
	require.NoError(t, os.Symlink(sleepBin, link))

	cmd := exec.Command(link, "300")
	require.NoError(t, cmd.Start())

	// Reap in the background so a terminated child leaves the process
	// table instead of lingering as a zombie and fooling IsAlive.
	go func() { _ = cmd.Wait() }()
	t.Cleanup(func() { _ = cmd.Process.Kill() })

	return cmd.Process.Pid, marker
}

func TestFindPIDs_MatchesCommandLine(t *testing.T) {
	pid, marker := spawnMarked(t)

	pids, err := FindPIDs(marker)
	require.NoError(t, err)
	assert.Contains(t, pids, pid, "discovery should find the process whose command line carries the marker")
}

func TestFindPIDs_ExcludesSelf(t *testing.T) {
	// The test binary's own command line contains its executable path;
	// matching on it must still not report the current process.
	pattern := filepath.Base(os.Args[0])

	pids, err := FindPIDs(pattern)
	require.NoError(t, err)
	assert.NotContains(t, pids, os.Getpid(), "discovery must never report the calling process")
}

func TestTerminate_StopsMatching(t *testing.T) {
	pid, marker := spawnMarked(t)

	stopped, err := Terminate(marker, 5*time.Second)
	require.NoError(t, err)
	assert.Contains(t, stopped, pid, "Terminate should report the PID it signalled")
	assert.False(t, IsAlive(pid), "the matched process should be gone after Terminate returns")
}

func TestIsAlive(t *testing.T) {
	assert.True(t, IsAlive(os.Getpid()), "the current process is alive")

	cmd := exec.Command("sleep", "0")
	require.NoError(t, cmd.Run())
	assert.False(t, IsAlive(cmd.Process.Pid), "an exited and reaped process is not alive")
}

func TestLaunchDetached(t *testing.T) {
	dir := t.TempDir()
	logDir := filepath.Join(dir, "logs")

	pid, logPath, err := LaunchDetached(LaunchSpec{
		Name:    "statusbot",
		Dir:     dir,
		Command: []string{"/bin/sh", "-c", "echo detached-marker; sleep 30"},
		LogDir:  logDir,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = syscall.Kill(-pid, syscall.SIGKILL) })

	assert.True(t, IsAlive(pid), "detached child should be running")
	assert.Equal(t, logDir, filepath.Dir(logPath), "log file should land in the requested directory")
	assert.Contains(t, filepath.Base(logPath), "statusbot-", "log file name should carry the deployment name")

	pgid, err := syscall.Getpgid(pid)
	require.NoError(t, err)
	selfPgid, err := syscall.Getpgid(os.Getpid())
	require.NoError(t, err)
	assert.NotEqual(t, selfPgid, pgid, "detached child must not share the launcher's process group")
	assert.Equal(t, pid, pgid, "detached child should lead its own process group")

	require.Eventually(t, func() bool {
		data, err := os.ReadFile(logPath)
		return err == nil && strings.Contains(string(data), "detached-marker")
	}, 3*time.Second, 100*time.Millisecond, "child output should be redirected into the log file")
}

func TestLaunchDetached_StartError(t *testing.T) {
	dir := t.TempDir()

	_, _, err := LaunchDetached(LaunchSpec{
		Name:    "statusbot",
		Dir:     dir,
		Command: []string{filepath.Join(dir, "missing-binary")},
		LogDir:  filepath.Join(dir, "logs"),
	})

	var cliErr *model.CLIError
	require.ErrorAs(t, err, &cliErr)
	assert.Equal(t, model.ExitFailure, cliErr.Code)
	assert.Contains(t, cliErr.Message, "failed to start")
}

func TestRunForeground_Success(t *testing.T) {
	err := RunForeground(context.Background(), LaunchSpec{
		Name:    "statusbot",
		Dir:     t.TempDir(),
		Command: []string{"/bin/sh", "-c", "exit 0"},
	})
	assert.NoError(t, err)
}

func TestRunForeground_ExitCodePassThrough(t *testing.T) {
	err := RunForeground(context.Background(), LaunchSpec{
		Name:    "statusbot",
		Dir:     t.TempDir(),
		Command: []string{"/bin/sh", "-c", "exit 7"},
	})

	var cliErr *model.CLIError
	require.ErrorAs(t, err, &cliErr)
	assert.Equal(t, model.ExitCode(7), cliErr.Code, "botup should adopt the child's exit code")
	assert.Contains(t, cliErr.Message, "statusbot exited with status 7")
}

func TestRunForeground_ExtraEnv(t *testing.T) {
	// The child only exits 0 when the extra variable arrived intact,
	// which is how venv activation reaches the bot.
	err := RunForeground(context.Background(), LaunchSpec{
		Name:     "statusbot",
		Dir:      t.TempDir(),
		Command:  []string{"/bin/sh", "-c", `test "$BOTUP_TEST_VAR" = "from-parent"`},
		ExtraEnv: []string{"BOTUP_TEST_VAR=from-parent"},
	})
	assert.NoError(t, err)
}

func TestRunForeground_StartError(t *testing.T) {
	dir := t.TempDir()

	err := RunForeground(context.Background(), LaunchSpec{
		Name:    "statusbot",
		Dir:     dir,
		Command: []string{filepath.Join(dir, "missing-binary")},
	})

	var cliErr *model.CLIError
	require.ErrorAs(t, err, &cliErr)
	assert.Equal(t, model.ExitFailure, cliErr.Code)
	assert.Contains(t, cliErr.Message, "failed to start")
}
