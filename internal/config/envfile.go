// envfile.go inspects the operator-prepared .env file the bot reads at
// startup. The file is the operator's responsibility: botup never creates
// or modifies it, it only reports obvious gaps before a launch so a doomed
// start is visible early. Parsing uses github.com/joho/godotenv, the same
// format the bot itself loads.
package config

import (
	"fmt"

	"github.com/joho/godotenv"
)

// RequiredEnvKeys lists the variables the bot reads at startup and cannot
// run without.
var RequiredEnvKeys = []string{
	"DISCORD_TOKEN",
	"STATUS_CHANNEL_ID",
	"GUILD_ID",
	"BATTLEMETRICS_SERVER_ID",
}

// OptionalEnvKeys lists variables the bot uses when present. They are
// included in the scaffolded .env.example but never reported as missing.
var OptionalEnvKeys = []string{
	"BATTLEMETRICS_URL",
}

// CheckEnvFile parses the environment file at path and returns the
// required keys that are absent or empty. Callers print the result as a
// notice; an incomplete .env is never fatal because the file is documented
// as an operator-managed precondition, not an enforced one.
func CheckEnvFile(path string) ([]string, error) {
	vars, err := godotenv.Read(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}

	var missing []string
	for _, key := range RequiredEnvKeys {
		if vars[key] == "" {
			missing = append(missing, key)
		}
	}
	return missing, nil
}
