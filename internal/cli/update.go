// update.go implements the "botup update" command, the routine deploy:
// pull the latest code and restart the bot on it.
//
// Orchestration steps (process runtime):
//  1. Load configuration (fixed defaults when no botup.jsonc exists)
//  2. Verify the project directory exists
//  3. git pull (a failed pull aborts the whole flow)
//  4. Resolve the Python interpreter, preferring the venv
//  5. Terminate any running bot process (best effort)
//  6. Check project files and .env completeness (notices only)
//  7. Launch the bot detached so it outlives botup
//  8. Output results (text or JSON)
//
// Everything after the pull is deliberately forgiving: a missing venv
// falls back to the system interpreter and a failed kill is only a
// warning. The launch's immediate start error is the single fatal
// condition in the back half, because botup's exit status stands for the
// launch, not for the bot's later life.
package cli

import (
	"context"
	"encoding/json"
	"errors"
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

// terminateGrace is how long a running bot gets to exit after SIGTERM
// before it is force-killed.
const terminateGrace = 10 * time.Second

// NewUpdateCommand creates the "update" cobra command. It is called from
// NewRootCommand to register as a subcommand.
func NewUpdateCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "update",
		Short: "Pull the latest code and restart the bot",
		Long: `Pull the latest code for the bot project and restart the bot on it.

The project directory must exist and the pull must succeed; after that the
flow is best effort: a running bot instance is terminated if one matches
the configured process pattern (no match is fine), and a fresh instance is
launched detached so it keeps running after botup exits.

With the docker runtime configured, the restart is a compose deployment:
the image is rebuilt from the pulled code and the services are brought up
detached.

Examples:
  botup update
  botup update --json
  botup update --config /etc/botup/botup.jsonc`,

		Args: cobra.NoArgs,

		RunE: func(cmd *cobra.Command, args []string) error {
			return runUpdate(cmd.Context(), ConfigPath())
		},
	}

	return cmd
}

// updateResult carries the outcome of an update for output formatting.
type updateResult struct {
	Name        string   `json:"name"`
	Runtime     string   `json:"runtime"`
	Revision    string   `json:"revision"`
	Branch      string   `json:"branch,omitempty"`
	Pattern     string   `json:"processPattern,omitempty"`
	StoppedPIDs []int    `json:"stoppedPids"`
	PID         int      `json:"pid,omitempty"`
	LogFile     string   `json:"logFile,omitempty"`
	Services    []string `json:"services,omitempty"`
}

// runUpdate is the main orchestration function for the update command.
func runUpdate(ctx context.Context, explicitConfig string) error {
	// Step 1: Load configuration.
	cfg, cfgFile, err := config.Resolve(explicitConfig)
	if err != nil {
		return err
	}
	if cfgFile != "" {
		VerboseLog("Using configuration from %s", cfgFile)
	} else {
		VerboseLog("No configuration file found, using defaults")
	}

	// Step 2: The project directory is the one hard precondition.
	if err := requireProjectDir(cfg.ProjectDir); err != nil {
		return err
	}

	// Step 3: Pull. A failed pull aborts before anything is killed or
	// launched; the bot keeps running on the old code.
	gm := repo.NewManager()
	VerboseLog("Pulling %s...", cfg.ProjectDir)
	pullOut, err := gm.Pull(cfg.ProjectDir)
	if err != nil {
		return err
	}
	VerboseLog("git pull: %s", pullOut)

	revision, err := gm.Revision(cfg.ProjectDir)
	if err != nil {
		return err
	}
	branch, err := gm.CurrentBranch(cfg.ProjectDir)
	if err != nil {
		return err
	}
	VerboseLog("Now at %s on %s", revision, branch)

	if cfg.Runtime.IsDocker() {
		return updateDocker(ctx, cfg, revision, branch)
	}
	return updateProcess(cfg, revision, branch)
}

// updateProcess restarts the bot as a plain detached process.
func updateProcess(cfg *config.Config, revision, branch string) error {
	// Step 4: Resolve the interpreter. A venv is preferred but its
	// absence does not abort the deploy; the launch falls back to the
	// system interpreter, matching how an unchecked activation behaves.
	interp, extraEnv, err := resolveInterpreter(cfg)
	if err != nil {
		return err
	}

	// Step 5: Stop whatever currently matches the pattern. No match is
	// the normal case on a fresh host. Failures here are warnings: the
	// launch below still runs, and its outcome is what the exit status
	// reports.
	VerboseLog("Looking for processes matching %q...", cfg.ProcessPattern)
	stopped, err := process.Terminate(cfg.ProcessPattern, terminateGrace)
	if err != nil {
		Warn("could not stop running bot: %v", err)
	}

	// Step 6: Missing project files or an incomplete .env are worth a
	// notice before the bot starts and trips over them, but they never
	// block the deploy.
	warnProjectIssues(cfg)

	// Step 7: Launch detached. The only fatal error left is the start
	// itself failing.
	pid, logPath, err := process.LaunchDetached(process.LaunchSpec{
		Name:     cfg.Name,
		Dir:      cfg.ProjectDir,
		Command:  []string{interp, cfg.Entrypoint},
		ExtraEnv: extraEnv,
		LogDir:   cfg.LogDirPath(),
	})
	if err != nil {
		return err
	}

	// Step 8: Report.
	printUpdateResult(&updateResult{
		Name:        cfg.Name,
		Runtime:     cfg.Runtime.String(),
		Revision:    revision,
		Branch:      branch,
		Pattern:     cfg.ProcessPattern,
		StoppedPIDs: stopped,
		PID:         pid,
		LogFile:     logPath,
	})
	return nil
}

// updateDocker redeploys the bot through docker compose: regenerate the
// label override, rebuild the image from the pulled code, bring the
// services up detached.
func updateDocker(ctx context.Context, cfg *config.Config, revision, branch string) error {
	cli, err := docker.NewClient()
	if err != nil {
		return err
	}
	defer func() { _ = cli.Close() }()

	if err := cli.Ping(ctx); err != nil {
		return err
	}
	VerboseLog("Connected to Docker daemon")

	deployment := &model.Deployment{
		Name:       cfg.Name,
		ProjectDir: cfg.ProjectDir,
		Revision:   revision,
		DeployedAt: time.Now().UTC(),
	}

	services, err := docker.ListComposeServices(cfg.ComposeFilePath())
	if err != nil {
		return err
	}
	VerboseLog("Compose services: %s", strings.Join(services, ", "))

	overrideData, err := docker.GenerateComposeOverride(deployment, services)
	if err != nil {
		return model.WrapCLIError(model.ExitFailure, "failed to generate compose override", err)
	}
	overridePath := filepath.Join(cfg.ProjectDir, docker.OverrideFileName)
	if err := docker.WriteComposeOverride(overridePath, overrideData); err != nil {
		return model.WrapCLIError(model.ExitFailure, "failed to write compose override", err)
	}
	VerboseLog("Compose override written to %s", overridePath)

	warnProjectIssues(cfg)

	composeFiles := []string{cfg.ComposeFile, docker.OverrideFileName}
	VerboseLog("Running docker compose up with files: %v", composeFiles)
	if err := docker.ComposeUp(ctx, cfg.ProjectDir, composeFiles, nil, true); err != nil {
		return err
	}

	printUpdateResult(&updateResult{
		Name:        cfg.Name,
		Runtime:     cfg.Runtime.String(),
		Revision:    revision,
		Branch:      branch,
		StoppedPIDs: nil,
		Services:    services,
	})
	return nil
}

// requireProjectDir verifies the configured project directory exists and
// is a directory. This is the first check of every flow that touches the
// project; nothing else runs when it fails.
func requireProjectDir(dir string) error {
	info, err := os.Stat(dir)
	if err != nil {
		return model.WrapCLIError(
			model.ExitFailure,
			fmt.Sprintf("project directory not found: %s", dir),
			err,
		)
	}
	if !info.IsDir() {
		return model.NewCLIError(
			model.ExitFailure,
			fmt.Sprintf("project path is not a directory: %s", dir),
		)
	}
	return nil
}

// resolveInterpreter picks the Python interpreter for a launch: the venv
// interpreter with its activation environment when the venv exists, the
// system interpreter otherwise. Only a host with no Python at all makes
// this fail.
func resolveInterpreter(cfg *config.Config) (string, []string, error) {
	venvPath := cfg.VenvPath()
	if venv.Exists(venvPath) {
		interp := venv.InterpreterPath(venvPath)
		VerboseLog("Using venv interpreter %s", interp)
		return interp, venv.ActivationEnv(venvPath), nil
	}

	Warn("virtual environment %s not found, falling back to the system interpreter (run 'botup setup' to create it)", venvPath)
	interp, err := venv.FindSystemPython(cfg.PythonBin)
	if err != nil {
		return "", nil, err
	}
	VerboseLog("Using system interpreter %s", interp)
	return interp, nil, nil
}

// warnProjectIssues prints notices for operator-maintained files the bot
// needs at runtime: ones that are absent entirely, and required keys
// absent from an existing .env. The bot will complain at startup either
// way; saying it before the launch saves a trip to the log file.
func warnProjectIssues(cfg *config.Config) {
	for _, issue := range cfg.ProjectIssues() {
		Warn("%s", issue)
	}

	missing, err := config.CheckEnvFile(cfg.EnvFilePath())
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			// Absence was already reported as a project issue.
			return
		}
		Warn("could not check %s: %v", cfg.EnvFile, err)
		return
	}
	if len(missing) > 0 {
		Warn("%s is missing required keys: %s", cfg.EnvFile, strings.Join(missing, ", "))
	}
}

// composeFilesFor returns the compose files for the deployment: the
// configured base file, plus the generated override when it exists. The
// override carries the compose project name, so commands that skip it
// would resolve a different project and find nothing.
func composeFilesFor(cfg *config.Config) []string {
	files := []string{cfg.ComposeFile}
	if _, err := os.Stat(filepath.Join(cfg.ProjectDir, docker.OverrideFileName)); err == nil {
		files = append(files, docker.OverrideFileName)
	}
	return files
}

// printUpdateResult outputs the update result in text or JSON format.
func printUpdateResult(res *updateResult) {
	if IsJSONOutput() {
		printUpdateResultJSON(res)
	} else {
		printUpdateResultText(res)
	}
}

// printUpdateResultJSON outputs the update result as structured JSON.
func printUpdateResultJSON(res *updateResult) {
	if res.StoppedPIDs == nil {
		// Empty array rather than null for the common no-match case.
		res.StoppedPIDs = []int{}
	}
	data, _ := json.MarshalIndent(res, "", "  ")
	fmt.Println(string(data))
}

// printUpdateResultText outputs the update result as human-readable text.
func printUpdateResultText(res *updateResult) {
	fmt.Printf("Updated %s to %s (%s)\n", res.Name, res.Revision, res.Branch)

	if res.Runtime == model.RuntimeDocker.String() {
		fmt.Printf("  Services: %s\n", strings.Join(res.Services, ", "))
		fmt.Printf("  Runtime:  docker compose, detached\n")
		return
	}

	if len(res.StoppedPIDs) > 0 {
		fmt.Printf("  Stopped:  %s\n", FormatPIDList(res.StoppedPIDs))
	} else {
		fmt.Printf("  Stopped:  no running instance matched %q\n", res.Pattern)
	}
	fmt.Printf("  Started:  PID %d\n", res.PID)
	fmt.Printf("  Log file: %s\n", res.LogFile)
}

// FormatPIDList renders a PID slice as "PID 4242" or "PIDs 4242, 4243".
// Exported for testing alongside the other pure formatting helpers.
func FormatPIDList(pids []int) string {
	if len(pids) == 0 {
		return "-"
	}

	parts := make([]string, 0, len(pids))
	for _, pid := range pids {
		parts = append(parts, fmt.Sprintf("%d", pid))
	}

	label := "PID"
	if len(pids) > 1 {
		label = "PIDs"
	}
	return fmt.Sprintf("%s %s", label, strings.Join(parts, ", "))
}
