// Package process finds, terminates, and launches the bot process.
//
// The bot is an external process identified only by a command-line
// pattern — botup holds no state about it between invocations. Discovery
// goes through the platform's process tools (pgrep/ps on Unix, wmic on
// Windows), termination follows a SIGTERM, poll, SIGKILL ladder, and
// launches either detach the child into its own process group so it
// outlives botup, or run it in the foreground and adopt its exit status.
//
// Pattern matching is approximate by design: any process whose command
// line contains the pattern is treated as the bot, which is why callers
// print the matched PIDs before acting on them.
package process

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/feralbyte/botup/internal/model"
)

// pollInterval is how often the termination ladder re-checks whether the
// signalled processes have exited.
const pollInterval = 500 * time.Millisecond

// LaunchSpec describes one bot launch: what to run, where, and with which
// environment additions.
type LaunchSpec struct {
	// Name is the deployment name, used in log file names and in
	// messages about the child's exit.
	Name string

	// Dir is the working directory for the child process.
	Dir string

	// Command is the argv to execute; Command[0] is the binary.
	Command []string

	// ExtraEnv entries are appended to botup's own environment for the
	// child (venv activation variables, session policy, etc.).
	ExtraEnv []string

	// LogDir receives the timestamped log file of detached launches.
	// Unused for foreground runs, which inherit botup's stdio.
	LogDir string
}

// Terminate is the best-effort stop: find every process matching pattern,
// ask each to exit, poll until the deadline, and force-kill stragglers.
// The returned slice lists the PIDs that were signalled.
//
// No matching process is a normal condition, not an error — the caller is
// usually about to start a fresh instance and only cares that nothing
// stale survives.
func Terminate(pattern string, timeout time.Duration) ([]int, error) {
	pids, err := FindPIDs(pattern)
	if err != nil {
		return nil, err
	}
	if len(pids) == 0 {
		return nil, nil
	}

	// Ask politely first. Failures here are ignored: a process that died
	// between discovery and signalling is exactly what we want anyway,
	// and the poll below notices genuine survivors.
	for _, pid := range pids {
		_ = terminatePID(pid)
	}

	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if !anyAlive(pids) {
			return pids, nil
		}
		time.Sleep(pollInterval)
	}

	// Grace period exhausted; force-kill whatever is left.
	for _, pid := range pids {
		if IsAlive(pid) {
			_ = killPID(pid)
		}
	}
	return pids, nil
}

// anyAlive reports whether at least one of the given PIDs is still in the
// process table.
func anyAlive(pids []int) bool {
	for _, pid := range pids {
		if IsAlive(pid) {
			return true
		}
	}
	return false
}

// LaunchDetached starts the bot disconnected from the invoking session:
// its own process group (so it survives botup's exit and the terminal
// closing) with stdout and stderr redirected to a fresh timestamped log
// file under spec.LogDir.
//
// Only the immediate start is checked. The process handle is released
// right after — the child's eventual exit status is nobody's to collect.
// Returns the new PID and the log file path.
func LaunchDetached(spec LaunchSpec) (int, string, error) {
	if err := os.MkdirAll(spec.LogDir, 0o755); err != nil {
		return 0, "", fmt.Errorf("failed to create log directory %s: %w", spec.LogDir, err)
	}

	logPath := filepath.Join(spec.LogDir, fmt.Sprintf("%s-%s.log", spec.Name, time.Now().Format("20060102-150405")))
	logFile, err := os.Create(logPath)
	if err != nil {
		return 0, "", fmt.Errorf("failed to create log file %s: %w", logPath, err)
	}
	// The child holds its own descriptor after Start; this one is only
	// the parent's copy.
	defer logFile.Close()

	// #nosec G204 — the command comes from validated configuration
	cmd := exec.Command(spec.Command[0], spec.Command[1:]...)
	cmd.Dir = spec.Dir
	cmd.Env = append(os.Environ(), spec.ExtraEnv...)
	cmd.Stdout = logFile
	cmd.Stderr = logFile
	setDetachAttr(cmd)

	if err := cmd.Start(); err != nil {
		return 0, "", model.WrapCLIError(
			model.ExitFailure,
			fmt.Sprintf("failed to start %s", strings.Join(spec.Command, " ")),
			err,
		)
	}

	pid := cmd.Process.Pid
	_ = cmd.Process.Release()
	return pid, logPath, nil
}

// RunForeground runs the bot in the foreground with inherited stdio,
// blocking until it exits. A non-zero child exit comes back as a CLIError
// carrying the child's own exit code, so botup terminates exactly as the
// bot did.
//
// The interrupt signal is left to the child for the duration: the
// operator's Ctrl-C reaches the whole foreground group, and botup has to
// stay alive long enough to observe and adopt the child's exit status.
func RunForeground(ctx context.Context, spec LaunchSpec) error {
	// #nosec G204 — the command comes from validated configuration
	cmd := exec.CommandContext(ctx, spec.Command[0], spec.Command[1:]...)
	cmd.Dir = spec.Dir
	cmd.Env = append(os.Environ(), spec.ExtraEnv...)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr

	signal.Ignore(os.Interrupt)
	defer signal.Reset(os.Interrupt)

	err := cmd.Run()
	if err == nil {
		return nil
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		code := exitErr.ExitCode()
		if code < 0 {
			// Killed by a signal; mirror the shell convention of
			// 128+signal where the status is known.
			code = 1
			if ws, ok := exitErr.Sys().(syscall.WaitStatus); ok && ws.Signaled() {
				code = 128 + int(ws.Signal())
			}
		}
		return model.NewCLIError(
			model.ExitCode(code),
			fmt.Sprintf("%s exited with status %d", spec.Name, code),
		)
	}

	return model.WrapCLIError(
		model.ExitFailure,
		fmt.Sprintf("failed to start %s", strings.Join(spec.Command, " ")),
		err,
	)
}

// parsePIDs extracts process IDs from line-oriented tool output (pgrep,
// ps, wmic). Blank lines, column headers, and non-numeric noise are
// skipped, as is botup's own PID — the update flow must never match
// itself.
func parsePIDs(output string) []int {
	self := os.Getpid()
	var pids []int

	for _, line := range strings.Split(output, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		pid, err := strconv.Atoi(line)
		if err != nil || pid <= 0 || pid == self {
			continue
		}
		pids = append(pids, pid)
	}

	return pids
}
