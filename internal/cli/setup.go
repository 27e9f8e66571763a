// setup.go implements the "botup setup" command, the first-run
// provisioning flow: create the virtual environment, install the bot's
// dependencies, and run the bot in the foreground.
//
// Unlike update, setup is strict: every step's failure aborts the flow
// immediately and becomes botup's exit status. The installer tools run
// with inherited stdio, so pip's own error text reaches the terminal
// untranslated.
package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/feralbyte/botup/internal/config"
	"github.com/feralbyte/botup/internal/docker"
	"github.com/feralbyte/botup/internal/model"
	"github.com/feralbyte/botup/internal/process"
	"github.com/feralbyte/botup/internal/repo"
	"github.com/feralbyte/botup/internal/venv"
)

// setupFlags holds the flag values for the setup command.
type setupFlags struct {
	// skipRun provisions the environment without starting the bot.
	skipRun bool
}

// NewSetupCommand creates the "setup" cobra command. It is called from
// NewRootCommand to register as a subcommand.
func NewSetupCommand() *cobra.Command {
	flags := &setupFlags{}

	cmd := &cobra.Command{
		Use:   "setup",
		Short: "Provision the environment and run the bot",
		Long: `Provision the bot's environment on this machine and run it in the
foreground.

The command creates the virtual environment if it does not exist yet,
upgrades pip, installs the dependency manifest, and starts the bot
attached to the terminal. Every step must succeed; the first failure
aborts the flow with that tool's own error output. Running setup again on
a provisioned machine is safe: the existing virtual environment is
detected and reused.

Examples:
  botup setup
  botup setup --skip-run
  botup setup --config /etc/botup/botup.jsonc`,

		Args: cobra.NoArgs,

		RunE: func(cmd *cobra.Command, args []string) error {
			return runSetup(cmd.Context(), ConfigPath(), flags)
		},
	}

	cmd.Flags().BoolVar(&flags.skipRun, "skip-run", false, "Provision only, don't start the bot")

	return cmd
}

// setupResult carries the outcome of provisioning for output formatting.
type setupResult struct {
	Name        string `json:"name"`
	Runtime     string `json:"runtime"`
	VenvPath    string `json:"venvPath,omitempty"`
	VenvCreated bool   `json:"venvCreated"`
	Interpreter string `json:"interpreter,omitempty"`
	Manifest    string `json:"requirements,omitempty"`
	Starting    bool   `json:"starting"`
}

// runSetup is the main orchestration function for the setup command.
func runSetup(ctx context.Context, explicitConfig string, flags *setupFlags) error {
	// Step 1: Load configuration and verify the project directory.
	cfg, cfgFile, err := config.Resolve(explicitConfig)
	if err != nil {
		return err
	}
	if cfgFile != "" {
		VerboseLog("Using configuration from %s", cfgFile)
	}
	if err := requireProjectDir(cfg.ProjectDir); err != nil {
		return err
	}

	if cfg.Runtime.IsDocker() {
		return setupDocker(ctx, cfg, flags)
	}
	return setupProcess(ctx, cfg, flags)
}

// setupProcess provisions the venv and runs the bot as a foreground
// process.
func setupProcess(ctx context.Context, cfg *config.Config, flags *setupFlags) error {
	venvPath := cfg.VenvPath()

	// Step 2: Ensure the virtual environment. On a provisioned machine
	// this detects the existing venv and does nothing.
	created, err := venv.Ensure(ctx, cfg.PythonBin, cfg.ProjectDir, venvPath)
	if err != nil {
		return err
	}
	if created {
		stepLine("Created virtual environment at %s", venvPath)
	} else {
		stepLine("Virtual environment at %s already exists", venvPath)
	}

	// Step 3: Relax the script execution policy for this process only.
	// Children inherit it; nothing on the system changes. No-op outside
	// Windows.
	if err := applySessionPolicy(); err != nil {
		return err
	}

	// Step 4: The venv must now have its interpreter; a venv created
	// without one is broken enough to name explicitly.
	interp, err := venv.RequireInterpreter(venvPath)
	if err != nil {
		return err
	}
	VerboseLog("Using interpreter %s", interp)

	// Step 5: Upgrade pip. Fatal; pip's output went to the terminal.
	stepLine("Upgrading pip...")
	if err := venv.UpgradePip(ctx, interp, cfg.ProjectDir); err != nil {
		return err
	}

	// Step 6: Install the manifest. Fatal, and deliberately before any
	// launch: a bot must not start against half-installed dependencies.
	stepLine("Installing dependencies from %s...", cfg.Requirements)
	if err := venv.InstallRequirements(ctx, interp, cfg.ProjectDir, cfg.Requirements); err != nil {
		return err
	}

	warnProjectIssues(cfg)

	printSetupResult(&setupResult{
		Name:        cfg.Name,
		Runtime:     cfg.Runtime.String(),
		VenvPath:    venvPath,
		VenvCreated: created,
		Interpreter: interp,
		Manifest:    cfg.Requirements,
		Starting:    !flags.skipRun,
	})

	if flags.skipRun {
		return nil
	}

	// Step 7: Run the bot attached to the terminal. Its exit status
	// becomes botup's.
	stepLine("Starting %s (Ctrl-C to stop)...", cfg.Name)
	return process.RunForeground(ctx, process.LaunchSpec{
		Name:     cfg.Name,
		Dir:      cfg.ProjectDir,
		Command:  []string{interp, cfg.Entrypoint},
		ExtraEnv: venv.ActivationEnv(venvPath),
	})
}

// setupDocker provisions nothing locally; it verifies the daemon, writes
// the label override, and brings the deployment up attached so the
// operator watches the first run.
func setupDocker(ctx context.Context, cfg *config.Config, flags *setupFlags) error {
	cli, err := docker.NewClient()
	if err != nil {
		return err
	}
	defer func() { _ = cli.Close() }()

	if err := cli.Ping(ctx); err != nil {
		return err
	}
	VerboseLog("Connected to Docker daemon")

	deployment := buildDeployment(cfg)

	services, err := docker.ListComposeServices(cfg.ComposeFilePath())
	if err != nil {
		return err
	}

	overrideData, err := docker.GenerateComposeOverride(deployment, services)
	if err != nil {
		return model.WrapCLIError(model.ExitFailure, "failed to generate compose override", err)
	}
	overridePath := filepath.Join(cfg.ProjectDir, docker.OverrideFileName)
	if err := docker.WriteComposeOverride(overridePath, overrideData); err != nil {
		return model.WrapCLIError(model.ExitFailure, "failed to write compose override", err)
	}

	warnProjectIssues(cfg)

	printSetupResult(&setupResult{
		Name:     cfg.Name,
		Runtime:  cfg.Runtime.String(),
		Starting: !flags.skipRun,
	})

	if flags.skipRun {
		return nil
	}

	composeFiles := []string{cfg.ComposeFile, docker.OverrideFileName}
	stepLine("Starting %s with docker compose (Ctrl-C to stop)...", cfg.Name)
	return docker.ComposeUpForeground(ctx, cfg.ProjectDir, composeFiles, nil)
}

// buildDeployment assembles the deployment metadata stamped onto the
// containers. The revision is best effort: setup does not pull, and a
// non-git project directory still deploys.
func buildDeployment(cfg *config.Config) *model.Deployment {
	revision := "unknown"
	gm := repo.NewManager()
	if gm.IsRepo(cfg.ProjectDir) {
		if rev, err := gm.Revision(cfg.ProjectDir); err == nil {
			revision = rev
		}
	}

	return &model.Deployment{
		Name:       cfg.Name,
		ProjectDir: cfg.ProjectDir,
		Revision:   revision,
		DeployedAt: time.Now().UTC(),
	}
}

// applySessionPolicy exports the session-scoped script execution policy
// so every child process of this run inherits it. The process
// environment is the session: nothing persists after botup exits.
func applySessionPolicy() error {
	policy := venv.SessionPolicyEnv()
	if len(policy) == 0 {
		return nil
	}

	for _, kv := range policy {
		key, value, ok := strings.Cut(kv, "=")
		if !ok {
			continue
		}
		if err := os.Setenv(key, value); err != nil {
			return model.WrapCLIError(model.ExitFailure, "failed to set session execution policy", err)
		}
	}
	stepLine("Relaxed script execution policy for this session only")
	return nil
}

// stepLine prints a provisioning progress line unless JSON output is
// requested, in which case stdout stays reserved for the result object.
func stepLine(format string, args ...interface{}) {
	if !IsJSONOutput() {
		fmt.Printf(format+"\n", args...)
	}
}

// printSetupResult outputs the setup result in text or JSON format. In
// text mode the step lines already told the story, so only JSON prints a
// summary object.
func printSetupResult(res *setupResult) {
	if !IsJSONOutput() {
		return
	}
	data, _ := json.MarshalIndent(res, "", "  ")
	fmt.Println(string(data))
}
