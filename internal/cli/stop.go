// stop.go implements the "botup stop" command: terminate the running bot
// without deploying anything.
//
// Discovery matches the configured pattern against process command
// lines, which is approximate on purpose (the bot has no PID file). The
// matched PIDs are shown and confirmed before anything is signalled,
// precisely because an overly broad pattern could match an unrelated
// process. --force skips the prompt for scripted use.
package cli

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/feralbyte/botup/internal/config"
	"github.com/feralbyte/botup/internal/docker"
	"github.com/feralbyte/botup/internal/model"
	"github.com/feralbyte/botup/internal/process"
)

// stopFlags holds the flag values for the stop command.
type stopFlags struct {
	// force skips the interactive confirmation prompt when true.
	force bool
}

// NewStopCommand creates the "stop" cobra command. It is called from
// NewRootCommand to register as a subcommand.
func NewStopCommand() *cobra.Command {
	flags := &stopFlags{}

	cmd := &cobra.Command{
		Use:   "stop",
		Short: "Stop the running bot",
		Long: `Stop the running bot process.

Processes are matched by the configured command-line pattern. The match
is approximate, so the PIDs about to be signalled are listed and
confirmed first; --force skips the prompt. Matched processes get a
termination request and a grace period before being force-killed.

When nothing matches, the bot simply is not running and the command
exits successfully.

Examples:
  botup stop
  botup stop --force
  botup stop --json --force`,

		Args: cobra.NoArgs,

		RunE: func(cmd *cobra.Command, args []string) error {
			return runStopCmd(cmd.Context(), ConfigPath(), flags)
		},
	}

	cmd.Flags().BoolVarP(&flags.force, "force", "f", false, "Stop without confirmation")

	return cmd
}

// runStopCmd is the main logic function for the stop command.
func runStopCmd(ctx context.Context, explicitConfig string, flags *stopFlags) error {
	cfg, _, err := config.Resolve(explicitConfig)
	if err != nil {
		return err
	}

	if cfg.Runtime.IsDocker() {
		return stopDocker(ctx, cfg, flags)
	}
	return stopProcess(cfg, flags)
}

// stopProcess terminates the bot in the process runtime.
func stopProcess(cfg *config.Config, flags *stopFlags) error {
	// Step 1: Find what the pattern matches right now.
	pids, err := process.FindPIDs(cfg.ProcessPattern)
	if err != nil {
		return model.WrapCLIError(
			model.ExitFailure,
			fmt.Sprintf("failed to look for processes matching %q", cfg.ProcessPattern),
			err,
		)
	}

	// Step 2: Nothing running is a clean outcome, not a failure.
	if len(pids) == 0 {
		printStopResult(cfg.Name, cfg.ProcessPattern, nil)
		return nil
	}

	// Step 3: Show the operator exactly which processes matched before
	// touching them.
	if !flags.force {
		confirmed, err := promptStopConfirmation(cfg.Name, cfg.ProcessPattern, pids)
		if err != nil {
			return model.WrapCLIError(model.ExitFailure, "failed to read user input", err)
		}
		if !confirmed {
			return model.NewCLIError(model.ExitUserCancelled, "operation cancelled by user")
		}
	}

	// Step 4: Terminate with the usual grace ladder.
	stopped, err := process.Terminate(cfg.ProcessPattern, terminateGrace)
	if err != nil {
		return model.WrapCLIError(
			model.ExitFailure,
			fmt.Sprintf("failed to stop %s", cfg.Name),
			err,
		)
	}

	printStopResult(cfg.Name, cfg.ProcessPattern, stopped)
	return nil
}

// stopDocker stops the compose deployment without removing it.
func stopDocker(ctx context.Context, cfg *config.Config, flags *stopFlags) error {
	if !flags.force {
		confirmed, err := promptDockerStopConfirmation(cfg.Name)
		if err != nil {
			return model.WrapCLIError(model.ExitFailure, "failed to read user input", err)
		}
		if !confirmed {
			return model.NewCLIError(model.ExitUserCancelled, "operation cancelled by user")
		}
	}

	if err := docker.ComposeStop(ctx, cfg.ProjectDir, composeFilesFor(cfg)); err != nil {
		return err
	}

	printStopResult(cfg.Name, "", nil)
	return nil
}

// promptStopConfirmation lists the matched PIDs and asks the user to
// confirm. Reads a single line from stdin; "y" or "yes" confirms.
func promptStopConfirmation(name, pattern string, pids []int) (bool, error) {
	fmt.Printf("About to stop %s:\n", name)
	fmt.Printf("  - pattern %q matched %s\n", pattern, FormatPIDList(pids))
	fmt.Print("\nContinue? [y/N] ")

	return readConfirmation()
}

// promptDockerStopConfirmation asks before stopping the compose
// deployment.
func promptDockerStopConfirmation(name string) (bool, error) {
	fmt.Printf("About to stop the %s compose deployment.\n", name)
	fmt.Print("\nContinue? [y/N] ")

	return readConfirmation()
}

// readConfirmation reads one line from stdin and interprets it as a
// yes/no answer. bufio.Scanner handles the line-ending differences
// across platforms. Closed stdin counts as "no".
func readConfirmation() (bool, error) {
	scanner := bufio.NewScanner(os.Stdin)
	if scanner.Scan() {
		answer := strings.TrimSpace(strings.ToLower(scanner.Text()))
		return answer == "y" || answer == "yes", nil
	}

	if err := scanner.Err(); err != nil {
		return false, err
	}
	return false, nil
}

// printStopResult outputs the stop command result in text or JSON
// format. A nil PID list with a pattern means nothing matched; without a
// pattern it is a docker-mode stop.
func printStopResult(name, pattern string, pids []int) {
	if IsJSONOutput() {
		printStopResultJSON(name, pids)
		return
	}

	switch {
	case pattern != "" && len(pids) == 0:
		fmt.Printf("%s is not running (no process matched %q)\n", name, pattern)
	case len(pids) > 0:
		fmt.Printf("Stopped %s (%s)\n", name, FormatPIDList(pids))
	default:
		fmt.Printf("Stopped %s\n", name)
	}
}

// printStopResultJSON outputs the stop result as structured JSON.
func printStopResultJSON(name string, pids []int) {
	if pids == nil {
		pids = []int{}
	}
	result := map[string]interface{}{
		"name":        name,
		"action":      "stopped",
		"stoppedPids": pids,
	}

	data, _ := json.MarshalIndent(result, "", "  ")
	fmt.Println(string(data))
}
