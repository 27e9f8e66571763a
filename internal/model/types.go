// Package model defines the domain types for the botup CLI.
//
// All entities in this package represent the shared vocabulary of the
// application: how a bot deployment is identified, which lifecycle state it
// is in, which runtime carries it, and how errors map to process exit
// codes. These types are passed between the config, repo, venv, process,
// docker, and cli packages.
//
// Key design decision: botup keeps no state file on disk. In the process
// runtime everything is observed live (the process table, the checkout, the
// virtual environment); in the docker runtime deployment metadata is
// persisted via container labels and reconstructed from Docker API queries.
package model

import (
	"fmt"
	"regexp"
	"strings"
	"time"
)

// RunState represents the observed lifecycle state of the bot.
// The state transitions are:
//
//	Stopped → Running → Stopped (update restarts: Running → Running)
//	Running/Stopped → Unknown (when the runtime cannot be queried)
type RunState string

const (
	// StateRunning indicates a bot process (or container) is alive.
	StateRunning RunState = "running"

	// StateStopped indicates no matching process or container exists.
	// The checkout and virtual environment are untouched.
	StateStopped RunState = "stopped"

	// StateUnknown indicates the runtime could not be queried, for
	// example when the process table listing fails or the Docker daemon
	// is unreachable.
	StateUnknown RunState = "unknown"
)

// String returns the string representation of RunState.
// This method satisfies the fmt.Stringer interface, enabling
// human-readable output in CLI commands.
func (s RunState) String() string {
	return string(s)
}

// IsValid checks whether the RunState value is one of the
// predefined valid states.
func (s RunState) IsValid() bool {
	switch s {
	case StateRunning, StateStopped, StateUnknown:
		return true
	default:
		return false
	}
}

// ParseRunState converts a string to a RunState.
// Returns an error if the string does not match any valid state.
func ParseRunState(s string) (RunState, error) {
	state := RunState(strings.ToLower(s))
	if !state.IsValid() {
		return "", fmt.Errorf("invalid run state: %q (valid: running, stopped, unknown)", s)
	}
	return state, nil
}

// RuntimeMode represents how the bot is executed on the host.
// The mode determines which backend the update, stop, run, and status
// commands drive.
//
// Mode selection logic:
//   - "process" → the bot runs as a host process under the venv interpreter
//   - "docker"  → the bot runs as a Docker Compose service
type RuntimeMode string

const (
	// RuntimeProcess runs the bot directly on the host: the venv
	// interpreter executes the entry file, detached for updates and
	// in the foreground for setup/run.
	RuntimeProcess RuntimeMode = "process"

	// RuntimeDocker runs the bot as a Compose service. Updates become
	// a rebuild-and-recreate, and deployment metadata is persisted as
	// container labels.
	RuntimeDocker RuntimeMode = "docker"
)

// String returns the string representation of RuntimeMode.
func (m RuntimeMode) String() string {
	return string(m)
}

// IsValid checks whether the RuntimeMode value is one of the
// predefined valid modes.
func (m RuntimeMode) IsValid() bool {
	switch m {
	case RuntimeProcess, RuntimeDocker:
		return true
	default:
		return false
	}
}

// IsDocker returns true if the mode runs the bot through Docker Compose.
// This is useful for branching logic in commands that drive both backends.
func (m RuntimeMode) IsDocker() bool {
	return m == RuntimeDocker
}

// ParseRuntimeMode converts a string to a RuntimeMode.
// Returns an error if the string does not match any valid mode.
func ParseRuntimeMode(s string) (RuntimeMode, error) {
	mode := RuntimeMode(strings.ToLower(s))
	if !mode.IsValid() {
		return "", fmt.Errorf("invalid runtime mode: %q (valid: process, docker)", s)
	}
	return mode, nil
}

// Deployment describes one deployed instance of the bot.
//
// In the docker runtime it is persisted as container labels and
// reconstructed from Docker API queries; in the process runtime it is
// assembled on the fly from the checkout and the process table.
type Deployment struct {
	// Name is the deployment name, used as the Compose project name and
	// in container labels. Must contain only alphanumeric characters
	// and hyphens.
	Name string `json:"name"`

	// ProjectDir is the absolute filesystem path to the bot checkout.
	ProjectDir string `json:"projectDir"`

	// Revision is the short commit hash the deployment was started from.
	Revision string `json:"revision"`

	// DeployedAt is the timestamp of the last start or update.
	DeployedAt time.Time `json:"deployedAt"`
}

// nameRegex validates deployment names: alphanumeric + hyphens only,
// must start and end with alphanumeric.
var nameRegex = regexp.MustCompile(`^[a-zA-Z0-9][a-zA-Z0-9-]*[a-zA-Z0-9]$|^[a-zA-Z0-9]$`)

// ValidateName checks if the given name is a valid deployment name.
// Valid names contain only alphanumeric characters and hyphens,
// and must start/end with an alphanumeric character.
func ValidateName(name string) error {
	if name == "" {
		return fmt.Errorf("deployment name must not be empty")
	}
	if !nameRegex.MatchString(name) {
		return fmt.Errorf("invalid deployment name %q: must contain only alphanumeric characters and hyphens, and start/end with alphanumeric", name)
	}
	return nil
}

// ContainerInfo holds runtime information about a Docker container
// belonging to a deployment. This data is fetched dynamically from the
// Docker API, not persisted.
type ContainerInfo struct {
	// ContainerID is the unique Docker container identifier (SHA-256 hash prefix).
	ContainerID string `json:"containerId"`

	// ContainerName is the human-readable Docker container name.
	ContainerName string `json:"containerName"`

	// ServiceName is the Docker Compose service name.
	ServiceName string `json:"serviceName,omitempty"`

	// Status is the Docker container status (e.g., "running", "exited", "created").
	Status string `json:"status"`

	// Labels is the full set of Docker labels on the container.
	// Includes botup management labels (botup.* prefix).
	Labels map[string]string `json:"labels,omitempty"`
}

// ExitCode defines the CLI exit codes. These codes allow wrapper scripts,
// cron jobs, and CI systems to programmatically determine the outcome of
// a command.
type ExitCode int

const (
	// ExitSuccess indicates the command completed successfully.
	ExitSuccess ExitCode = 0

	// ExitFailure indicates a fatal failure: a missing precondition
	// (project directory, venv interpreter, config) or a failed external
	// tool (git, venv creation, pip, docker). All fatal paths share this
	// code; the error message names the failed step.
	ExitFailure ExitCode = 1

	// ExitUserCancelled indicates the user declined an interactive prompt.
	ExitUserCancelled ExitCode = 2
)

// CLIError is a custom error type that carries an exit code.
// This allows the CLI layer to translate domain errors into
// appropriate process exit codes.
//
// Foreground runs construct a CLIError whose code is the bot's own exit
// status, so botup terminates exactly as the bot did.
type CLIError struct {
	// Code is the exit code to return to the OS.
	Code ExitCode

	// Message is the human-readable error description.
	Message string

	// Err is the underlying error, if any.
	Err error
}

// Error satisfies the error interface. It returns the human-readable
// error message, optionally including the underlying error.
func (e *CLIError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap returns the underlying error for use with errors.Is/errors.As.
// This follows Go's error wrapping convention introduced in Go 1.13.
func (e *CLIError) Unwrap() error {
	return e.Err
}

// NewCLIError creates a new CLIError with the given exit code and message.
func NewCLIError(code ExitCode, message string) *CLIError {
	return &CLIError{Code: code, Message: message}
}

// WrapCLIError creates a new CLIError that wraps an existing error.
func WrapCLIError(code ExitCode, message string, err error) *CLIError {
	return &CLIError{Code: code, Message: message, Err: err}
}
