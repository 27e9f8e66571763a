//go:build windows

// policy_windows.go — session-scoped script-execution policy for Windows.
package venv

// SessionPolicyEnv returns the environment additions implementing the
// session-only script-execution-policy adjustment.
//
// PowerShell reads PSExecutionPolicyPreference as its process-scope
// execution policy, so PowerShell-based tooling spawned during setup
// (activation scripts, package build hooks) runs under RemoteSigned for
// the children of this invocation only. No persistent machine or user
// policy is changed.
func SessionPolicyEnv() []string {
	return []string{"PSExecutionPolicyPreference=RemoteSigned"}
}
