// Package repo provides Git synchronization and inspection operations.
//
// This package wraps Git CLI commands (via os/exec) to pull the bot
// checkout up to date and to report on its state (revision, branch, local
// changes). It is the version-control integration layer for the botup CLI.
//
// Design decisions:
//   - We shell out to `git` rather than using a Go Git library (e.g., go-git)
//     because pull must behave exactly like the operator's own git: remotes,
//     credential helpers, and merge configuration all come from the checkout.
//   - The Manager struct is currently stateless but exists as a receiver to
//     allow future extension (e.g., custom git binary path, logging).
//   - Failed Git commands are wrapped in model.CLIError with ExitFailure and
//     carry git's own stderr text, so the CLI reports the tool's error
//     untranslated.
package repo

import (
	"fmt"
	"os/exec"
	"strings"

	"github.com/feralbyte/botup/internal/model"
)

// CommitInfo holds metadata about a single commit as parsed from
// `git log -1` output.
type CommitInfo struct {
	// Hash is the abbreviated commit hash (e.g., "a1b2c3d").
	Hash string

	// Subject is the first line of the commit message.
	Subject string
}

// Manager provides Git operations on the bot checkout by invoking the
// git CLI.
//
// It is currently stateless — all methods receive the project directory
// as a parameter. The struct exists as a receiver to support future
// extensions such as a configurable git binary path.
type Manager struct{}

// NewManager creates a new repo Manager instance.
//
// Currently there is no initialization logic, but this constructor
// follows Go convention and allows us to add setup code later
// (e.g., verifying git is installed) without breaking callers.
func NewManager() *Manager {
	return &Manager{}
}

// Pull synchronizes the checkout with its remote by running `git pull`.
//
// The command runs with whatever remote, branch, and merge configuration
// the checkout already has — botup adds no flags. On success the trimmed
// stdout summary is returned (e.g., "Already up to date." or the merge
// stat block) so callers can print it as a status line. On failure the
// returned error carries git's stderr and the CLI exits 1.
func (m *Manager) Pull(projectDir string) (string, error) {
	output, err := runGit(projectDir, "pull")
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(output), nil
}

// Revision returns the abbreviated commit hash of HEAD.
//
// Uses `git rev-parse --short HEAD`. The result identifies what is
// currently deployed and is recorded in container labels in docker mode.
func (m *Manager) Revision(projectDir string) (string, error) {
	output, err := runGit(projectDir, "rev-parse", "--short", "HEAD")
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(output), nil
}

// CurrentBranch returns the name of the currently checked-out branch.
//
// Uses `git rev-parse --abbrev-ref HEAD` which returns the short branch
// name (e.g., "main" instead of "refs/heads/main"). Returns "HEAD" if the
// checkout is in a detached HEAD state.
func (m *Manager) CurrentBranch(projectDir string) (string, error) {
	output, err := runGit(projectDir, "rev-parse", "--abbrev-ref", "HEAD")
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(output), nil
}

// LastCommit returns the hash and subject of the most recent commit.
//
// Uses `git log -1 --format=%h%x09%s` — a tab separates the two fields so
// commit subjects containing spaces parse unambiguously.
func (m *Manager) LastCommit(projectDir string) (CommitInfo, error) {
	output, err := runGit(projectDir, "log", "-1", "--format=%h%x09%s")
	if err != nil {
		return CommitInfo{}, err
	}
	return parseLastCommit(output), nil
}

// LocalChanges returns the porcelain status lines for uncommitted local
// modifications (staged, unstaged, and untracked). An empty slice means
// the checkout is clean.
//
// A dirty checkout is worth surfacing before an update: `git pull` may
// refuse to merge over local edits, and the status command reports the
// condition so the operator is not surprised.
func (m *Manager) LocalChanges(projectDir string) ([]string, error) {
	output, err := runGit(projectDir, "status", "--porcelain")
	if err != nil {
		return nil, err
	}
	return parseStatusLines(output), nil
}

// IsRepo checks whether the given directory is inside a Git repository.
//
// This uses `git rev-parse --git-dir` which exits with code 0 inside a
// repository and non-zero otherwise. We only care about the exit code.
func (m *Manager) IsRepo(projectDir string) bool {
	_, err := runGit(projectDir, "rev-parse", "--git-dir")
	return err == nil
}

// runGit executes a git command with the given arguments in the specified
// directory.
//
// It captures stdout and stderr separately. On success (exit code 0), it
// returns the stdout output. On failure, it returns a model.CLIError with
// ExitFailure, including the stderr output in the error message so the
// underlying tool's own diagnostics reach the operator.
//
// The projectDir parameter is passed to git via the -C flag, which causes
// git to change to that directory before doing anything else. This avoids
// changing the process's working directory.
func runGit(projectDir string, args ...string) (string, error) {
	// Prepend -C <projectDir> to make git operate in the target directory.
	// This is safer than using exec.Command().Dir because -C is handled
	// by git itself and works correctly with all git subcommands.
	fullArgs := append([]string{"-C", projectDir}, args...)

	// #nosec G204 — args are constructed internally, not from user input
	cmd := exec.Command("git", fullArgs...)

	// Capture stdout and stderr separately so we can include stderr
	// in error messages while returning stdout on success.
	var stdout, stderr strings.Builder
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	if err != nil {
		stderrStr := strings.TrimSpace(stderr.String())
		message := fmt.Sprintf("git %s failed", strings.Join(args, " "))
		if stderrStr != "" {
			message = fmt.Sprintf("%s: %s", message, stderrStr)
		}
		return "", model.WrapCLIError(model.ExitFailure, message, err)
	}

	return stdout.String(), nil
}

// parseLastCommit parses a single `git log -1 --format=%h%x09%s` line into
// a CommitInfo. A line without a tab yields a bare hash, which can happen
// for commits with an empty subject.
func parseLastCommit(output string) CommitInfo {
	line := strings.TrimSpace(output)
	hash, subject, found := strings.Cut(line, "\t")
	if !found {
		return CommitInfo{Hash: line}
	}
	return CommitInfo{Hash: hash, Subject: subject}
}

// parseStatusLines splits `git status --porcelain` output into its
// non-empty lines. Each line is one changed path in the form "XY path"
// where XY are the status codes (e.g., " M", "??", "A ").
func parseStatusLines(output string) []string {
	var changes []string

	for _, line := range strings.Split(strings.TrimRight(output, "\n"), "\n") {
		if line == "" {
			continue
		}
		changes = append(changes, line)
	}

	return changes
}
