// Package process provides bot process management for the botup CLI.
//
// The bot has no PID file and no supervisor; the only handle botup has
// on it is an approximate match against process command lines. This
// package provides:
//   - Discovery of matching PIDs via pgrep/ps (Unix) or wmic (Windows),
//     always excluding botup's own process
//   - Best-effort termination: SIGTERM, a polled grace period, then
//     SIGKILL for survivors (taskkill on Windows)
//   - Detached launches into a separate process group with output
//     redirected to a timestamped log file
//   - Foreground runs that block and adopt the child's exit status
//   - Reading and following the log files of detached launches
//
// All process interaction goes through os/exec and the platform's own
// tools rather than a process-management library, so what botup sees is
// exactly what the operator would see running ps or tasklist by hand.
package process
