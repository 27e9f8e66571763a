// status.go implements the "botup status" command, the operator's
// one-look deployment report.
//
// The report is assembled live — botup keeps no state file — from the
// process table (or the Docker daemon in docker mode), the Git checkout,
// the virtual environment, the operator-prepared .env file, and a TCP
// probe of the Discord gateway. Every part degrades independently: a
// broken piece becomes a reported condition, not a command failure, so
// status always exits 0 once the configuration itself loads.
package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/feralbyte/botup/internal/config"
	"github.com/feralbyte/botup/internal/docker"
	"github.com/feralbyte/botup/internal/model"
	"github.com/feralbyte/botup/internal/netcheck"
	"github.com/feralbyte/botup/internal/process"
	"github.com/feralbyte/botup/internal/repo"
	"github.com/feralbyte/botup/internal/venv"
)

// NewStatusCommand creates the "status" cobra command. It is called from
// NewRootCommand to register as a subcommand.
func NewStatusCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Report the state of the bot deployment",
		Long: `Report the state of the bot deployment on this machine.

The report covers the running process (or containers in docker mode), the
checkout's branch and revision, the virtual environment, the .env file,
and whether the Discord gateway is reachable from here. Conditions like a
missing venv or an unreachable daemon are reported, not treated as
command failures.

Examples:
  botup status
  botup status --json`,

		Args: cobra.NoArgs,

		RunE: func(cmd *cobra.Command, args []string) error {
			return runStatus(cmd.Context(), ConfigPath())
		},
	}

	return cmd
}

// statusReport is the assembled deployment report. The JSON shape doubles
// as the --json output.
type statusReport struct {
	Name              string            `json:"name"`
	Runtime           string            `json:"runtime"`
	State             string            `json:"state"`
	StateNote         string            `json:"stateNote,omitempty"`
	PIDs              []int             `json:"pids"`
	ProcessPattern    string            `json:"processPattern,omitempty"`
	ProjectDir        string            `json:"projectDir"`
	ProjectDirPresent bool              `json:"projectDirPresent"`
	Checkout          *checkoutStatus   `json:"checkout,omitempty"`
	Venv              *venvStatus       `json:"venv,omitempty"`
	Requirements      *fileStatus       `json:"requirements,omitempty"`
	EnvFile           *envFileStatus    `json:"envFile,omitempty"`
	Gateway           *gatewayStatus    `json:"gateway,omitempty"`
	Deployment        *deploymentStatus `json:"deployment,omitempty"`
	Containers        []containerStatus `json:"containers,omitempty"`
}

// checkoutStatus describes the Git state of the project directory. Absent
// from the report when the directory is missing or not a repository.
type checkoutStatus struct {
	Branch     string `json:"branch"`
	Revision   string `json:"revision"`
	LastCommit string `json:"lastCommit"`
	Dirty      bool   `json:"dirty"`
	// LocalChanges counts uncommitted paths (staged, unstaged, untracked).
	LocalChanges int `json:"localChanges"`
}

// venvStatus describes the virtual environment. Reported in the process
// runtime only; containers carry their own interpreter.
type venvStatus struct {
	Path        string `json:"path"`
	Present     bool   `json:"present"`
	Interpreter string `json:"interpreter,omitempty"`
}

// fileStatus reports the presence of one operator-maintained file.
type fileStatus struct {
	Path    string `json:"path"`
	Present bool   `json:"present"`
}

// envFileStatus reports the .env file and which required keys it lacks.
type envFileStatus struct {
	Path        string   `json:"path"`
	Present     bool     `json:"present"`
	MissingKeys []string `json:"missingKeys"`
}

// gatewayStatus reports the TCP reachability probe of the Discord gateway.
type gatewayStatus struct {
	Addr      string `json:"addr"`
	Reachable bool   `json:"reachable"`
}

// deploymentStatus carries the label-parsed metadata of a docker-mode
// deployment: what revision went out and when.
type deploymentStatus struct {
	Revision   string `json:"revision"`
	DeployedAt string `json:"deployedAt"`
}

// containerStatus is one container row of a docker-mode report.
type containerStatus struct {
	Name    string `json:"name"`
	Service string `json:"service,omitempty"`
	Status  string `json:"status"`
}

// runStatus is the main logic function for the status command. The only
// fatal path is configuration resolution; everything observed afterwards
// lands in the report whatever its state.
func runStatus(ctx context.Context, explicitConfig string) error {
	cfg, cfgFile, err := config.Resolve(explicitConfig)
	if err != nil {
		return err
	}
	if cfgFile != "" {
		VerboseLog("Using configuration from %s", cfgFile)
	}

	report := collectStatus(ctx, cfg)
	printStatusResult(report)
	return nil
}

// collectStatus assembles the full report for the configured deployment.
// Each section is gathered independently so one broken piece (a dead
// daemon, a non-repo directory) does not hide the rest.
func collectStatus(ctx context.Context, cfg *config.Config) *statusReport {
	report := &statusReport{
		Name:       cfg.Name,
		Runtime:    cfg.Runtime.String(),
		PIDs:       []int{},
		ProjectDir: cfg.ProjectDir,
	}

	// Run state first: the question status exists to answer.
	if cfg.Runtime.IsDocker() {
		collectDockerState(ctx, cfg, report)
	} else {
		collectProcessState(cfg, report)
	}

	// The checkout.
	if info, err := os.Stat(cfg.ProjectDir); err == nil && info.IsDir() {
		report.ProjectDirPresent = true
		report.Checkout = collectCheckout(cfg.ProjectDir)

		report.Requirements = &fileStatus{Path: cfg.RequirementsPath()}
		if _, err := os.Stat(cfg.RequirementsPath()); err == nil {
			report.Requirements.Present = true
		}

		report.EnvFile = collectEnvFile(cfg)

		if !cfg.Runtime.IsDocker() {
			report.Venv = collectVenv(cfg)
		}
	}

	// The gateway probe, last because it is the slowest piece (a dial
	// timeout on a dead network). An empty address disables it.
	if cfg.GatewayAddr != "" {
		checker := netcheck.NewChecker()
		report.Gateway = &gatewayStatus{
			Addr:      cfg.GatewayAddr,
			Reachable: checker.IsReachable(cfg.GatewayAddr),
		}
	}

	return report
}

// collectProcessState fills the run state from the process table.
func collectProcessState(cfg *config.Config, report *statusReport) {
	report.ProcessPattern = cfg.ProcessPattern

	pids, err := process.FindPIDs(cfg.ProcessPattern)
	if err != nil {
		report.State = model.StateUnknown.String()
		report.StateNote = fmt.Sprintf("could not query the process table: %v", err)
		return
	}

	if len(pids) > 0 {
		report.State = model.StateRunning.String()
		report.PIDs = pids
	} else {
		report.State = model.StateStopped.String()
	}
}

// collectDockerState fills the run state from the Docker daemon: the
// containers carrying this deployment's labels and the metadata parsed
// back out of them. An unreachable daemon degrades the state to unknown.
func collectDockerState(ctx context.Context, cfg *config.Config, report *statusReport) {
	cli, err := docker.NewClient()
	if err != nil {
		report.State = model.StateUnknown.String()
		report.StateNote = err.Error()
		return
	}
	defer func() { _ = cli.Close() }()

	if err := cli.Ping(ctx); err != nil {
		report.State = model.StateUnknown.String()
		report.StateNote = err.Error()
		return
	}

	containers, err := docker.ListBotContainers(ctx, cli)
	if err != nil {
		report.State = model.StateUnknown.String()
		report.StateNote = err.Error()
		return
	}

	// One host can carry several bot deployments; only this
	// configuration's name is reported.
	group := docker.GroupByDeployment(containers)[cfg.Name]
	if len(group) == 0 {
		report.State = model.StateStopped.String()
		report.StateNote = "no containers deployed"
		return
	}

	report.State = docker.DeploymentState(group).String()
	for _, c := range group {
		report.Containers = append(report.Containers, containerStatus{
			Name:    c.ContainerName,
			Service: c.ServiceName,
			Status:  c.Status,
		})

		// The labels on any one container carry the full deployment
		// metadata; the first parseable set wins.
		if report.Deployment == nil {
			if d, err := docker.ParseLabels(c.Labels); err == nil {
				report.Deployment = &deploymentStatus{
					Revision:   d.Revision,
					DeployedAt: d.DeployedAt.Format("2006-01-02 15:04:05 MST"),
				}
			}
		}
	}
}

// collectCheckout gathers branch, revision, and local-change information.
// Returns nil when the directory is not a Git repository.
func collectCheckout(projectDir string) *checkoutStatus {
	gm := repo.NewManager()
	if !gm.IsRepo(projectDir) {
		return nil
	}

	checkout := &checkoutStatus{}
	if branch, err := gm.CurrentBranch(projectDir); err == nil {
		checkout.Branch = branch
	}
	if rev, err := gm.Revision(projectDir); err == nil {
		checkout.Revision = rev
	}
	if info, err := gm.LastCommit(projectDir); err == nil {
		checkout.LastCommit = info.Subject
	}
	if changes, err := gm.LocalChanges(projectDir); err == nil {
		checkout.LocalChanges = len(changes)
		checkout.Dirty = len(changes) > 0
	}
	return checkout
}

// collectVenv gathers virtual environment presence and the interpreter
// path inside it.
func collectVenv(cfg *config.Config) *venvStatus {
	venvPath := cfg.VenvPath()
	status := &venvStatus{Path: venvPath}

	if venv.Exists(venvPath) {
		status.Present = true
		status.Interpreter = venv.InterpreterPath(venvPath)
	}
	return status
}

// collectEnvFile gathers .env presence and the required keys it lacks.
func collectEnvFile(cfg *config.Config) *envFileStatus {
	status := &envFileStatus{
		Path:        cfg.EnvFilePath(),
		MissingKeys: []string{},
	}

	if _, err := os.Stat(status.Path); err != nil {
		return status
	}
	status.Present = true

	// An unreadable or malformed file reports every required key as
	// missing rather than failing the whole report.
	missing, err := config.CheckEnvFile(status.Path)
	if err != nil {
		status.MissingKeys = config.RequiredEnvKeys
		return status
	}
	if missing != nil {
		status.MissingKeys = missing
	}
	return status
}

// printStatusResult outputs the report in text or JSON format, depending
// on the global --json flag.
func printStatusResult(report *statusReport) {
	if IsJSONOutput() {
		printStatusResultJSON(report)
	} else {
		printStatusResultText(report)
	}
}

// printStatusResultJSON outputs the report as structured JSON.
func printStatusResultJSON(report *statusReport) {
	data, _ := json.MarshalIndent(report, "", "  ")
	fmt.Println(string(data))
}

// printStatusResultText outputs the report as a human-readable block of
// aligned fields:
//
//	statusbot (process runtime)
//	  State:        running (PID 4242)
//	  Project:      /home/op/statusbot
//	  Checkout:     main @ a1b2c3d "fix reconnect loop"
//	  Local edits:  none
//	  Venv:         present (.venv/bin/python)
//	  Manifest:     present
//	  Env file:     present, all required keys set
//	  Gateway:      gateway.discord.gg:443 reachable
func printStatusResultText(report *statusReport) {
	fmt.Printf("%s (%s runtime)\n", report.Name, report.Runtime)

	state := report.State
	if len(report.PIDs) > 0 {
		state = fmt.Sprintf("%s (%s)", state, FormatPIDList(report.PIDs))
	}
	if report.StateNote != "" {
		state = fmt.Sprintf("%s (%s)", state, report.StateNote)
	}
	printField("State", state)

	if !report.ProjectDirPresent {
		printField("Project", report.ProjectDir+" (missing)")
		printGateway(report)
		return
	}
	printField("Project", report.ProjectDir)

	if report.Checkout != nil {
		printField("Checkout", fmt.Sprintf("%s @ %s %q",
			report.Checkout.Branch, report.Checkout.Revision, report.Checkout.LastCommit))
		if report.Checkout.Dirty {
			printField("Local edits", fmt.Sprintf("%d uncommitted paths", report.Checkout.LocalChanges))
		} else {
			printField("Local edits", "none")
		}
	} else {
		printField("Checkout", "not a git repository")
	}

	if report.Deployment != nil {
		printField("Deployed", fmt.Sprintf("%s at %s", report.Deployment.Revision, report.Deployment.DeployedAt))
	}

	for _, c := range report.Containers {
		label := c.Name
		if c.Service != "" {
			label = fmt.Sprintf("%s (service %s)", c.Name, c.Service)
		}
		printField("Container", fmt.Sprintf("%s: %s", label, c.Status))
	}

	if report.Venv != nil {
		if report.Venv.Present {
			printField("Venv", fmt.Sprintf("present (%s)", report.Venv.Interpreter))
		} else {
			printField("Venv", fmt.Sprintf("missing at %s (run 'botup setup' to create it)", report.Venv.Path))
		}
	}

	if report.Requirements != nil {
		printField("Manifest", presenceWord(report.Requirements.Present))
	}

	if report.EnvFile != nil {
		switch {
		case !report.EnvFile.Present:
			printField("Env file", fmt.Sprintf("missing (%s)", report.EnvFile.Path))
		case len(report.EnvFile.MissingKeys) > 0:
			printField("Env file", fmt.Sprintf("present, missing keys: %s",
				strings.Join(report.EnvFile.MissingKeys, ", ")))
		default:
			printField("Env file", "present, all required keys set")
		}
	}

	printGateway(report)
}

// printGateway prints the gateway probe line when the probe ran.
func printGateway(report *statusReport) {
	if report.Gateway == nil {
		return
	}
	word := "reachable"
	if !report.Gateway.Reachable {
		word = "unreachable"
	}
	printField("Gateway", fmt.Sprintf("%s %s", report.Gateway.Addr, word))
}

// printField prints one aligned name/value line of the text report.
func printField(name, value string) {
	fmt.Printf("  %-13s %s\n", name+":", value)
}

// presenceWord renders a presence flag for the text report.
func presenceWord(present bool) string {
	if present {
		return "present"
	}
	return "missing"
}
