// run.go implements the "botup run" command: start the bot in the
// foreground on an already provisioned machine. Nothing is created or
// installed; a missing virtual environment is an explicit error pointing
// at setup.
package cli

import (
	"github.com/spf13/cobra"

	"github.com/feralbyte/botup/internal/config"
	"github.com/feralbyte/botup/internal/model"
	"github.com/feralbyte/botup/internal/process"
	"github.com/feralbyte/botup/internal/venv"
)

// NewRunCommand creates the "run" cobra command. It is called from
// NewRootCommand to register as a subcommand.
func NewRunCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the bot in the foreground",
		Long: `Run the bot in the foreground, attached to the terminal.

The virtual environment must already exist (run "botup setup" once to
create it). botup blocks until the bot exits and adopts its exit status,
so a bot that dies with status 3 makes botup exit 3 as well.

Examples:
  botup run
  botup run --config /etc/botup/botup.jsonc`,

		Args: cobra.NoArgs,

		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, _, err := config.Resolve(ConfigPath())
			if err != nil {
				return err
			}
			if err := requireProjectDir(cfg.ProjectDir); err != nil {
				return err
			}

			if cfg.Runtime.IsDocker() {
				return model.NewCLIError(
					model.ExitFailure,
					"the run command applies to the process runtime; docker deployments are started with 'botup update'",
				)
			}

			venvPath := cfg.VenvPath()
			interp, err := venv.RequireInterpreter(venvPath)
			if err != nil {
				return err
			}

			warnProjectIssues(cfg)

			stepLine("Starting %s (Ctrl-C to stop)...", cfg.Name)
			return process.RunForeground(cmd.Context(), process.LaunchSpec{
				Name:     cfg.Name,
				Dir:      cfg.ProjectDir,
				Command:  []string{interp, cfg.Entrypoint},
				ExtraEnv: venv.ActivationEnv(venvPath),
			})
		},
	}

	return cmd
}
