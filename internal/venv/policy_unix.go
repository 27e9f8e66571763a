//go:build !windows

// policy_unix.go — script-execution policy is a Windows concept; other
// platforms need no session environment additions.
package venv

// SessionPolicyEnv returns the environment additions implementing the
// session-only script-execution-policy adjustment. There is no such
// policy outside Windows, so it returns nil.
func SessionPolicyEnv() []string {
	return nil
}
