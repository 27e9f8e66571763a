// Package cli implements the cobra-based CLI commands for botup.
//
// Each subcommand (update, setup, run, stop, status, logs, init) is
// defined in its own file within this package. This file defines the
// root command that serves as the parent for all subcommands and
// handles global flags.
package cli

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/feralbyte/botup/internal/model"
)

// Global flag variables shared across all subcommands. They are bound to
// cobra persistent flags on the root command, which makes them available
// to every subcommand automatically.
var (
	// jsonOutput switches command output to structured JSON for machine
	// consumption. The default is human-readable text.
	jsonOutput bool

	// verbose enables detailed progress output on stderr.
	verbose bool

	// configPath points at an explicit botup.jsonc. When empty, the
	// default candidate locations are probed.
	configPath string
)

// version, commit, and date are set at build time via ldflags. They are
// injected from the main package to display version information.
var (
	// Version is the semantic version of the binary (e.g. "1.0.0").
	Version = "dev"

	// Commit is the Git commit hash the binary was built from.
	Commit = "none"

	// Date is the build timestamp.
	Date = "unknown"
)

// NewRootCommand creates and configures the root cobra command, the
// entry point for the entire CLI application.
//
// The root command itself performs no action; it provides help text and
// global flags. Actual functionality lives in the subcommands.
func NewRootCommand() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "botup",
		Short: "Operate a Discord status bot deployment",
		Long: `botup updates, provisions, and runs a Python Discord bot on the machine
that hosts it.

The two main flows mirror how the bot is operated by hand:

  update   pull the latest code, restart the bot detached (the daily deploy)
  setup    provision the virtual environment, install dependencies, run the
           bot in the foreground (first run on a fresh machine)

The remaining commands (run, stop, status, logs, init) cover the day-to-day
chores around those two flows. Configuration is optional: without a
botup.jsonc every command uses the fixed defaults for the statusbot project.`,

		// Errors are formatted by Execute (text or JSON); cobra's own
		// printing would duplicate them.
		SilenceUsage:  true,
		SilenceErrors: true,

		Version: fmt.Sprintf("%s (commit: %s, built: %s)", Version, Commit, Date),
	}

	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "Output in JSON format")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose output")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to botup.jsonc (default: ./botup.jsonc, then ~/.config/botup/botup.jsonc)")

	rootCmd.AddCommand(NewUpdateCommand())
	rootCmd.AddCommand(NewSetupCommand())
	rootCmd.AddCommand(NewRunCommand())
	rootCmd.AddCommand(NewStopCommand())
	rootCmd.AddCommand(NewStatusCommand())
	rootCmd.AddCommand(NewLogsCommand())
	rootCmd.AddCommand(NewInitCommand())

	return rootCmd
}

// Execute runs the root command and handles exit codes. This is the main
// entry point called from main.go.
//
// CLIError values carry their own exit codes, including codes adopted
// from a foreground bot run; other errors exit 1.
func Execute(rootCmd *cobra.Command) {
	if err := rootCmd.Execute(); err != nil {
		if cliErr, ok := err.(*model.CLIError); ok {
			printError(cliErr.Message, cliErr.Err)
			os.Exit(int(cliErr.Code))
		}

		printError(err.Error(), nil)
		os.Exit(int(model.ExitFailure))
	}
}

// printError outputs an error message in the appropriate format (JSON or
// text) based on the --json global flag. Errors go to stderr in both
// modes; stdout is reserved for successful command output.
func printError(message string, underlying error) {
	if jsonOutput {
		errObj := map[string]interface{}{
			"error": map[string]interface{}{
				"message": message,
			},
		}
		if underlying != nil {
			if errMap, ok := errObj["error"].(map[string]interface{}); ok {
				errMap["detail"] = underlying.Error()
			}
		}
		data, _ := json.MarshalIndent(errObj, "", "  ")
		fmt.Fprintln(os.Stderr, string(data))
	} else {
		if underlying != nil {
			fmt.Fprintf(os.Stderr, "Error: %s: %v\n", message, underlying)
		} else {
			fmt.Fprintf(os.Stderr, "Error: %s\n", message)
		}
	}
}

// VerboseLog prints a message to stderr only when verbose mode is
// enabled. Subcommands use it for progress detail that would be noise in
// normal operation.
func VerboseLog(format string, args ...interface{}) {
	if verbose {
		fmt.Fprintf(os.Stderr, "[verbose] "+format+"\n", args...)
	}
}

// Warn prints a non-fatal notice to stderr regardless of verbosity. The
// update flow uses it for conditions that must not abort the deploy but
// the operator should see (a missing venv, a failed best-effort kill).
func Warn(format string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, "Warning: "+format+"\n", args...)
}

// IsJSONOutput returns whether the --json flag is set. Subcommands use
// this to decide their output format.
func IsJSONOutput() bool {
	return jsonOutput
}

// ConfigPath returns the value of the --config flag, empty when the
// default probing order should apply.
func ConfigPath() string {
	return configPath
}
