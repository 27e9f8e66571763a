// template.go writes the starter files scaffolded by the init command: a
// commented botup.jsonc spelling out the built-in defaults, and a
// .env.example naming the variables the bot expects. Both are meant to be
// edited by the operator, so they carry explanatory comments rather than a
// do-not-edit header.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/feralbyte/botup/internal/model"
)

// EnvExampleName is the canonical name of the scaffolded env template.
const EnvExampleName = ".env.example"

// configTemplate is the scaffolded botup.jsonc. It restates the built-in
// defaults so operators can see every knob without reading source.
const configTemplate = `// botup configuration.
//
// Every field is optional: omitted fields fall back to the built-in
// defaults shown here. Paths other than projectDir are resolved relative
// to projectDir unless absolute.
{
  // Deployment name. Used as the Compose project name in docker mode and
  // in container labels. Alphanumeric characters and hyphens only.
  "name": "statusbot",

  // Checkout of the bot repository. A leading ~/ expands to the home
  // directory of the invoking user.
  "projectDir": "~/statusbot",

  // Virtual environment directory, created by setup when missing.
  "venvDir": ".venv",

  // Entry file the interpreter runs.
  "entrypoint": "bot.py",

  // Dependency manifest installed by setup.
  "requirements": "requirements.txt",

  // Environment file the bot reads at startup. Prepared by the operator;
  // see .env.example for the expected keys.
  "envFile": ".env",

  // Command-line substring used to find running bot processes. Matching
  // is approximate: any process whose command line contains this string
  // is treated as the bot.
  "processPattern": "bot.py",

  // Interpreter used to create the virtual environment. Leave empty to
  // auto-detect (python3/python on Linux, py/python on Windows).
  "pythonBin": "",

  // Directory for the detached bot's log files.
  "logDir": "logs",

  // Runtime mode: "process" runs the bot under the venv interpreter,
  // "docker" deploys it as a Compose service.
  "runtime": "process",

  // Compose file used in docker mode.
  "composeFile": "docker-compose.yml",

  // Address probed by status to report gateway reachability.
  "gatewayAddr": "gateway.discord.gg:443"
}
`

// envExampleTemplate is the scaffolded .env.example. The bot loads .env
// itself at startup; botup only checks that the required keys are present.
const envExampleTemplate = `# Environment for the status bot. Copy this file to .env and fill in the
# real values. The bot reads .env at startup.

# Discord bot token (required).
DISCORD_TOKEN=

# Channel ID the bot posts status updates to (required).
STATUS_CHANNEL_ID=

# Guild (server) ID the bot registers its commands in (required).
GUILD_ID=

# BattleMetrics server ID to poll (required).
BATTLEMETRICS_SERVER_ID=

# BattleMetrics server page URL (optional, used to scrape in-game time).
BATTLEMETRICS_URL=
`

// WriteTemplate writes the starter botup.jsonc to path. Existing files are
// preserved unless force is set.
func WriteTemplate(path string, force bool) error {
	return writeScaffold(path, configTemplate, force)
}

// WriteEnvExample writes the starter .env.example to path. Existing files
// are preserved unless force is set.
func WriteEnvExample(path string, force bool) error {
	return writeScaffold(path, envExampleTemplate, force)
}

// writeScaffold writes content to path, creating parent directories as
// needed and refusing to overwrite without force.
func writeScaffold(path, content string, force bool) error {
	if !force {
		if _, err := os.Stat(path); err == nil {
			return model.NewCLIError(
				model.ExitFailure,
				fmt.Sprintf("%s already exists (use --force to overwrite)", path),
			)
		}
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}

	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}
