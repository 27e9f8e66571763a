//go:build !windows

// process_unix.go implements process discovery, liveness checks, and
// signalling for Unix-like systems.

package process

import (
	"errors"
	"fmt"
	"os"
	"os/exec"
	"syscall"
)

// FindPIDs returns the PIDs of all processes whose full command line
// contains pattern. botup's own PID is never included. An empty result
// with a nil error means nothing matched.
func FindPIDs(pattern string) ([]int, error) {
	// pgrep -f matches against the full command line, which is exactly
	// the approximate matching the stop and update flows rely on.
	out, err := exec.Command("pgrep", "-f", pattern).Output()
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) && exitErr.ExitCode() == 1 {
			// Exit status 1 is pgrep's "no processes matched".
			return nil, nil
		}
		// pgrep missing or broken; fall back to a ps pipeline.
		return findPIDsPS(pattern)
	}
	return parsePIDs(string(out)), nil
}

// findPIDsPS is the fallback discovery path for systems without pgrep.
func findPIDsPS(pattern string) ([]int, error) {
	script := fmt.Sprintf("ps -ef | grep '%s' | grep -v grep | awk '{print $2}'", pattern)
	// #nosec G204 — the pattern comes from validated configuration
	out, err := exec.Command("/bin/sh", "-c", script).Output()
	if err != nil {
		return nil, fmt.Errorf("failed to list processes: %w", err)
	}
	return parsePIDs(string(out)), nil
}

// IsAlive reports whether a process with the given PID exists. Signal 0
// performs the existence check without delivering anything.
func IsAlive(pid int) bool {
	proc, err := os.FindProcess(pid)
	if err != nil {
		return false
	}
	return proc.Signal(syscall.Signal(0)) == nil
}

// terminatePID asks the process to exit on its own terms.
func terminatePID(pid int) error {
	return syscall.Kill(pid, syscall.SIGTERM)
}

// killPID removes the process immediately.
func killPID(pid int) error {
	return syscall.Kill(pid, syscall.SIGKILL)
}

// setDetachAttr places the child in its own process group so that
// signals aimed at botup's session (terminal close, Ctrl-C) do not reach
// it and it keeps running after botup exits.
func setDetachAttr(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
}
