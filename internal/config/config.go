// Package config handles loading and validation of the botup configuration.
//
// botup is designed to run flaglessly: every setting has a built-in default
// matching the fixed paths the deployment scripts historically relied on,
// and an optional botup.jsonc file overrides them. The file format is JSONC
// (JSON with Comments), so this package uses github.com/tidwall/jsonc to
// strip comments before parsing with the standard encoding/json library.
//
// Key responsibilities:
//   - Provide the built-in defaults (home-relative project directory)
//   - Locate botup.jsonc in the standard paths
//   - Load and parse botup.jsonc (with JSONC support)
//   - Validate and normalize the effective configuration
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/feralbyte/botup/internal/model"
	"github.com/tidwall/jsonc"
)

// FileName is the canonical name of the configuration file.
const FileName = "botup.jsonc"

// Config holds the effective botup settings. All path fields other than
// ProjectDir are resolved relative to ProjectDir unless they are absolute;
// use the *Path() accessors to obtain the resolved form.
type Config struct {
	// Name is the deployment name. It becomes the Compose project name in
	// docker mode and appears in container labels and status output.
	// Must contain only alphanumeric characters and hyphens.
	Name string `json:"name"`

	// ProjectDir is the bot checkout directory. A leading ~/ expands to
	// the invoking user's home directory at load time.
	ProjectDir string `json:"projectDir"`

	// VenvDir is the virtual environment directory, created by setup
	// when missing.
	VenvDir string `json:"venvDir"`

	// Entrypoint is the Python file the interpreter runs.
	Entrypoint string `json:"entrypoint"`

	// Requirements is the dependency manifest installed by setup.
	Requirements string `json:"requirements"`

	// EnvFile is the environment file the bot reads at startup. It is
	// prepared by the operator; botup only reports obvious gaps in it.
	EnvFile string `json:"envFile"`

	// ProcessPattern is the command-line substring used to find running
	// bot processes. Matching is approximate: any process whose command
	// line contains this string is treated as the bot, so a colliding
	// name on a shared host would be caught too.
	ProcessPattern string `json:"processPattern"`

	// PythonBin is the interpreter used to create the virtual
	// environment. Empty means auto-detect (python3/python on Unix,
	// py/python on Windows).
	PythonBin string `json:"pythonBin,omitempty"`

	// LogDir is where detached launches write their log files.
	LogDir string `json:"logDir"`

	// Runtime selects the execution backend: "process" runs the bot
	// under the venv interpreter, "docker" deploys it as a Compose
	// service.
	Runtime model.RuntimeMode `json:"runtime"`

	// ComposeFile is the Compose file used in docker mode.
	ComposeFile string `json:"composeFile"`

	// GatewayAddr is the host:port probed by the status command to
	// report whether the Discord gateway is reachable. Empty disables
	// the probe.
	GatewayAddr string `json:"gatewayAddr"`
}

// Defaults returns the built-in configuration: the fixed paths the
// deployment scripts historically used. Commands run on these values
// whenever no config file exists.
func Defaults() *Config {
	return &Config{
		Name:           "statusbot",
		ProjectDir:     "~/statusbot",
		VenvDir:        ".venv",
		Entrypoint:     "bot.py",
		Requirements:   "requirements.txt",
		EnvFile:        ".env",
		ProcessPattern: "bot.py",
		PythonBin:      "",
		LogDir:         "logs",
		Runtime:        model.RuntimeProcess,
		ComposeFile:    "docker-compose.yml",
		GatewayAddr:    "gateway.discord.gg:443",
	}
}

// FindConfigFile locates the configuration file to use.
//
// An explicit path (from the --config flag) always wins and must exist.
// Otherwise the standard locations are probed in priority order:
//  1. ./botup.jsonc (current directory)
//  2. ~/.config/botup/botup.jsonc (per-user)
//
// Not finding any file is not an error: the empty string signals that the
// built-in defaults apply.
func FindConfigFile(explicit string) (string, error) {
	if explicit != "" {
		if _, err := os.Stat(explicit); err != nil {
			return "", model.WrapCLIError(
				model.ExitFailure,
				fmt.Sprintf("config file not found: %s", explicit),
				err,
			)
		}
		return explicit, nil
	}

	candidates := []string{FileName}
	if home, err := os.UserHomeDir(); err == nil {
		candidates = append(candidates, filepath.Join(home, ".config", "botup", FileName))
	}

	for _, path := range candidates {
		// os.Stat checks if the file exists without reading its contents.
		if _, err := os.Stat(path); err == nil {
			return path, nil
		}
	}

	return "", nil
}

// Load reads a botup.jsonc file, strips JSONC comments, and parses it over
// the built-in defaults, so a config file only needs to name the fields it
// changes. The result is home-expanded, normalized, and validated.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, model.WrapCLIError(
				model.ExitFailure,
				fmt.Sprintf("config file not found: %s", path),
				err,
			)
		}
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	// Strip JSONC comments (// and /* */) and trailing commas before
	// parsing, then decode over the defaults. encoding/json silently
	// ignores unknown fields, so forward-compatible config files keep
	// loading.
	cleanJSON := jsonc.ToJSON(data)

	cfg := Defaults()
	if err := json.Unmarshal(cleanJSON, cfg); err != nil {
		return nil, model.WrapCLIError(
			model.ExitFailure,
			fmt.Sprintf("failed to parse config file %s", path),
			err,
		)
	}

	if err := cfg.finalize(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Resolve produces the effective configuration for a command invocation:
// the explicit --config path if given, otherwise the first config file
// found in the standard locations, otherwise the built-in defaults.
//
// The returned path names the file that was loaded; it is empty when the
// built-in defaults were used.
func Resolve(explicit string) (*Config, string, error) {
	path, err := FindConfigFile(explicit)
	if err != nil {
		return nil, "", err
	}

	if path == "" {
		cfg := Defaults()
		if err := cfg.finalize(); err != nil {
			return nil, "", err
		}
		return cfg, "", nil
	}

	cfg, err := Load(path)
	if err != nil {
		return nil, "", err
	}
	return cfg, path, nil
}

// finalize expands the home-relative project directory and validates the
// configuration. It is applied to defaults and loaded files alike so every
// Config handed to a command has passed the same checks.
func (c *Config) finalize() error {
	expanded, err := expandHome(c.ProjectDir)
	if err != nil {
		return fmt.Errorf("failed to resolve project directory: %w", err)
	}
	c.ProjectDir = expanded

	if err := c.Validate(); err != nil {
		return model.WrapCLIError(model.ExitFailure, "invalid configuration", err)
	}
	return nil
}

// Validate checks the configuration for internal consistency and
// normalizes the runtime mode to its lowercase canonical form.
func (c *Config) Validate() error {
	if err := model.ValidateName(c.Name); err != nil {
		return err
	}

	mode, err := model.ParseRuntimeMode(string(c.Runtime))
	if err != nil {
		return err
	}
	c.Runtime = mode

	required := []struct {
		field string
		value string
	}{
		{"projectDir", c.ProjectDir},
		{"venvDir", c.VenvDir},
		{"entrypoint", c.Entrypoint},
		{"requirements", c.Requirements},
		{"envFile", c.EnvFile},
		{"processPattern", c.ProcessPattern},
		{"logDir", c.LogDir},
	}
	for _, r := range required {
		if r.value == "" {
			return fmt.Errorf("%s must not be empty", r.field)
		}
	}

	if c.Runtime.IsDocker() && c.ComposeFile == "" {
		return fmt.Errorf("composeFile must be set when runtime is docker")
	}
	return nil
}

// expandHome expands a leading ~/ (or a bare ~) to the current user's home
// directory. Any other use of ~ is returned unchanged.
func expandHome(path string) (string, error) {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("cannot determine home directory: %w", err)
	}
	if path == "~" {
		return home, nil
	}
	return filepath.Join(home, path[2:]), nil
}

// joinProject resolves a config path relative to the project directory.
// Absolute paths are returned as-is.
func (c *Config) joinProject(path string) string {
	if filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(c.ProjectDir, path)
}

// VenvPath returns the resolved virtual environment directory.
func (c *Config) VenvPath() string {
	return c.joinProject(c.VenvDir)
}

// EntrypointPath returns the resolved path of the bot's entry file.
func (c *Config) EntrypointPath() string {
	return c.joinProject(c.Entrypoint)
}

// RequirementsPath returns the resolved path of the dependency manifest.
func (c *Config) RequirementsPath() string {
	return c.joinProject(c.Requirements)
}

// EnvFilePath returns the resolved path of the bot's environment file.
func (c *Config) EnvFilePath() string {
	return c.joinProject(c.EnvFile)
}

// LogDirPath returns the resolved log directory.
func (c *Config) LogDirPath() string {
	return c.joinProject(c.LogDir)
}

// ComposeFilePath returns the resolved Compose file path for docker mode.
func (c *Config) ComposeFilePath() string {
	return c.joinProject(c.ComposeFile)
}

// ProjectIssues reports missing files the bot needs at runtime. These are
// informational: the manifest and the environment file are prepared by the
// operator, and botup never creates them on its own.
func (c *Config) ProjectIssues() []string {
	var issues []string

	if _, err := os.Stat(c.EntrypointPath()); os.IsNotExist(err) {
		issues = append(issues, fmt.Sprintf("entry file not found: %s", c.Entrypoint))
	}
	if _, err := os.Stat(c.RequirementsPath()); os.IsNotExist(err) {
		issues = append(issues, fmt.Sprintf("dependency manifest not found: %s", c.Requirements))
	}
	if _, err := os.Stat(c.EnvFilePath()); os.IsNotExist(err) {
		issues = append(issues, fmt.Sprintf("environment file not found: %s (copy .env.example and fill in values)", c.EnvFile))
	}

	return issues
}
