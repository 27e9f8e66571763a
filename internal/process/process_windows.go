//go:build windows

// process_windows.go implements process discovery, liveness checks, and
// termination for Windows.

package process

import (
	"fmt"
	"os/exec"
	"strconv"
	"strings"
	"syscall"

	"golang.org/x/sys/windows"
)

// FindPIDs returns the PIDs of all processes whose full command line
// contains pattern. botup's own PID is never included. An empty result
// with a nil error means nothing matched.
func FindPIDs(pattern string) ([]int, error) {
	// tasklist cannot filter on command lines, so the query goes through
	// WMI. The output is a "ProcessId" header line followed by one PID
	// per line; parsePIDs skips the header along with other noise.
	query := fmt.Sprintf("CommandLine like '%%%s%%'", pattern)
	// #nosec G204 — the pattern comes from validated configuration
	out, err := exec.Command("wmic", "process", "where", query, "get", "ProcessId").Output()
	if err != nil {
		// wmic exits non-zero when the filter matches nothing.
		return nil, nil
	}
	return parsePIDs(string(out)), nil
}

// IsAlive reports whether a process with the given PID exists.
func IsAlive(pid int) bool {
	out, err := exec.Command("tasklist", "/FI", fmt.Sprintf("PID eq %d", pid), "/NH").Output()
	if err != nil {
		return false
	}
	return strings.Contains(string(out), strconv.Itoa(pid))
}

// terminatePID asks the process to exit. Without /F taskkill delivers a
// close request rather than an immediate kill, which is as close to
// SIGTERM as Windows offers.
func terminatePID(pid int) error {
	return exec.Command("taskkill", "/PID", strconv.Itoa(pid)).Run()
}

// killPID force-terminates the process and its children.
func killPID(pid int) error {
	return exec.Command("taskkill", "/PID", strconv.Itoa(pid), "/T", "/F").Run()
}

// setDetachAttr detaches the child from botup's console and puts it in
// its own process group so it survives botup's exit and ignores Ctrl-C
// events aimed at the invoking session.
func setDetachAttr(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{
		CreationFlags: windows.CREATE_NEW_PROCESS_GROUP | windows.DETACHED_PROCESS,
	}
}
