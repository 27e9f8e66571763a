// logs.go implements the "botup logs" command: show what the detached
// bot has been writing.
//
// Detached launches redirect the bot's output to a fresh timestamped file
// under the configured log directory, so the newest file is the current
// (or most recent) instance. The command tails that file by default and
// can follow it as the bot appends, the same reading habit as tail -f.
package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/feralbyte/botup/internal/config"
	"github.com/feralbyte/botup/internal/model"
	"github.com/feralbyte/botup/internal/process"
)

// logsFlags holds the flag values for the logs command.
type logsFlags struct {
	// lines is how many trailing lines to print before following.
	lines int

	// follow keeps streaming appended output until interrupted.
	follow bool

	// file picks a specific log file instead of the newest one.
	file string
}

// NewLogsCommand creates the "logs" cobra command. It is called from
// NewRootCommand to register as a subcommand.
func NewLogsCommand() *cobra.Command {
	flags := &logsFlags{}

	cmd := &cobra.Command{
		Use:   "logs",
		Short: "Show the detached bot's log output",
		Long: `Show the log output of the detached bot.

Each 'botup update' launch writes the bot's output to a fresh timestamped
file in the log directory; this command reads the newest one. With
--follow the command keeps streaming appended output until interrupted.

Log files exist in the process runtime only. Container output belongs to
the Docker engine; read it with 'docker compose logs'.

Examples:
  botup logs
  botup logs -n 200
  botup logs --follow
  botup logs --file logs/statusbot-20260825-120000.log`,

		Args: cobra.NoArgs,

		RunE: func(cmd *cobra.Command, args []string) error {
			return runLogs(cmd.Context(), ConfigPath(), flags)
		},
	}

	cmd.Flags().IntVarP(&flags.lines, "lines", "n", 50, "Number of trailing lines to show")
	cmd.Flags().BoolVarP(&flags.follow, "follow", "f", false, "Keep streaming appended output")
	cmd.Flags().StringVar(&flags.file, "file", "", "Log file to read (default: the newest in the log directory)")

	return cmd
}

// runLogs is the main logic function for the logs command.
func runLogs(ctx context.Context, explicitConfig string, flags *logsFlags) error {
	cfg, _, err := config.Resolve(explicitConfig)
	if err != nil {
		return err
	}

	if cfg.Runtime.IsDocker() {
		return model.NewCLIError(
			model.ExitFailure,
			"log files exist in the process runtime only; for docker deployments run 'docker compose logs'",
		)
	}

	logPath := flags.file
	if logPath == "" {
		logPath, err = process.LatestLogFile(cfg.LogDirPath())
		if err != nil {
			return err
		}
	}
	VerboseLog("Reading %s", logPath)

	lines, err := process.ReadLastLines(logPath, flags.lines)
	if err != nil {
		return err
	}

	// Following is inherently a raw stream; the JSON form covers only the
	// one-shot read.
	if !flags.follow && IsJSONOutput() {
		printLogsResultJSON(logPath, lines)
		return nil
	}

	for _, line := range lines {
		fmt.Println(line)
	}

	if !flags.follow {
		return nil
	}
	return process.Follow(ctx, logPath, os.Stdout)
}

// printLogsResultJSON outputs the one-shot log read as structured JSON.
func printLogsResultJSON(logPath string, lines []string) {
	if lines == nil {
		lines = []string{}
	}
	result := map[string]interface{}{
		"file":  logPath,
		"lines": lines,
	}

	data, _ := json.MarshalIndent(result, "", "  ")
	fmt.Println(string(data))
}
