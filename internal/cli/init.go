// init.go implements the "botup init" command: scaffold the optional
// operator-edited files.
//
// botup runs fine with no configuration at all, so init exists purely for
// discoverability: it writes a botup.jsonc restating every default with a
// comment, and a .env.example naming the variables the bot expects. Both
// are starting points for the operator to edit, never regenerated behind
// their back.
package cli

import (
	"encoding/json"
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/feralbyte/botup/internal/config"
)

// initFlags holds the flag values for the init command.
type initFlags struct {
	// force overwrites existing files when true.
	force bool
}

// NewInitCommand creates the "init" cobra command. It is called from
// NewRootCommand to register as a subcommand.
func NewInitCommand() *cobra.Command {
	flags := &initFlags{}

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Scaffold botup.jsonc and .env.example",
		Long: `Scaffold the operator-edited files in the current directory.

Two files are written: botup.jsonc, a commented configuration restating
every built-in default, and .env.example, a template naming the
environment variables the bot reads at startup. Existing files are left
untouched unless --force is given.

Examples:
  botup init
  botup init --force`,

		Args: cobra.NoArgs,

		RunE: func(cmd *cobra.Command, args []string) error {
			return runInit(".", flags)
		},
	}

	cmd.Flags().BoolVar(&flags.force, "force", false, "Overwrite existing files")

	return cmd
}

// runInit writes the scaffold files into dir. The first file that already
// exists aborts the command (without --force), so a half-initialized
// directory is reported rather than silently skipped.
func runInit(dir string, flags *initFlags) error {
	configPath := filepath.Join(dir, config.FileName)
	if err := config.WriteTemplate(configPath, flags.force); err != nil {
		return err
	}

	envExamplePath := filepath.Join(dir, config.EnvExampleName)
	if err := config.WriteEnvExample(envExamplePath, flags.force); err != nil {
		return err
	}

	printInitResult([]string{configPath, envExamplePath})
	return nil
}

// printInitResult outputs the list of written files in text or JSON
// format.
func printInitResult(written []string) {
	if IsJSONOutput() {
		result := map[string]interface{}{
			"written": written,
		}
		data, _ := json.MarshalIndent(result, "", "  ")
		fmt.Println(string(data))
		return
	}

	for _, path := range written {
		fmt.Printf("Wrote %s\n", path)
	}
	fmt.Println("\nEdit botup.jsonc to match your deployment, then copy .env.example to .env and fill in the values.")
}
