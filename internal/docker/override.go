// override.go generates the compose override file that stamps botup's
// management labels onto the project's compose services.
//
// The project ships its own compose file; botup never edits it. Instead
// a small override file is generated next to it and passed to docker
// compose as the last -f argument, where compose's native file merging
// applies it on top. The override carries the compose project name and
// the per-service botup labels, nothing else.
package docker

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/feralbyte/botup/internal/model"
)

// OverrideFileName is the name of the generated override file, created
// in the project directory on every docker-mode deploy.
const OverrideFileName = "docker-compose.botup.yml"

// composeOverride is the YAML structure of the generated override file.
type composeOverride struct {
	// Name sets the compose project name. Compose uses it to prefix
	// container, network, and volume names, which keeps two bot
	// deployments on one host apart.
	Name string `yaml:"name"`

	// Services maps service names to their label overrides. Compose
	// merges these with the base service definitions.
	Services map[string]composeServiceOverride `yaml:"services"`
}

// composeServiceOverride carries the per-service additions. Only labels
// are overridden; everything else stays as the project defines it.
type composeServiceOverride struct {
	Labels map[string]string `yaml:"labels"`
}

// GenerateComposeOverride builds the override YAML applying the
// deployment's labels to every service in the project's compose file.
// All services get the full label set so each resulting container can be
// discovered and attributed on its own.
//
// Returns the YAML bytes with a header comment marking the file as
// generated.
func GenerateComposeOverride(d *model.Deployment, services []string) ([]byte, error) {
	labels := BuildLabels(d)

	override := composeOverride{
		Name:     d.Name,
		Services: make(map[string]composeServiceOverride),
	}

	// Sorted service order keeps the generated YAML reproducible.
	sortedServices := make([]string, len(services))
	copy(sortedServices, services)
	sort.Strings(sortedServices)

	for _, svc := range sortedServices {
		svcOverride := composeServiceOverride{
			Labels: make(map[string]string),
		}
		for k, v := range labels {
			svcOverride.Labels[k] = v
		}
		override.Services[svc] = svcOverride
	}

	yamlBytes, err := yaml.Marshal(&override)
	if err != nil {
		return nil, fmt.Errorf("failed to serialize compose override YAML: %w", err)
	}

	header := fmt.Sprintf(
		"# Generated by botup for deployment %q.\n# Do not edit; this file is rewritten on every deploy.\n",
		d.Name,
	)

	return []byte(header + string(yamlBytes)), nil
}

// WriteComposeOverride writes the override YAML to the given path,
// creating parent directories as needed.
func WriteComposeOverride(outputPath string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(outputPath), 0o755); err != nil {
		return fmt.Errorf("failed to create directory for %s: %w", outputPath, err)
	}
	if err := os.WriteFile(outputPath, data, 0o644); err != nil {
		return fmt.Errorf("failed to write compose override %s: %w", outputPath, err)
	}
	return nil
}

// ListComposeServices parses the project's compose file and returns its
// service names in sorted order. The override generator needs them so
// every service receives the management labels.
func ListComposeServices(composePath string) ([]string, error) {
	data, err := os.ReadFile(composePath)
	if err != nil {
		return nil, model.WrapCLIError(
			model.ExitFailure,
			fmt.Sprintf("failed to read compose file %s", composePath),
			err,
		)
	}

	// Only the service names matter here; the service bodies stay
	// whatever the project wrote.
	var doc struct {
		Services map[string]yaml.Node `yaml:"services"`
	}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, model.WrapCLIError(
			model.ExitFailure,
			fmt.Sprintf("failed to parse compose file %s", composePath),
			err,
		)
	}

	if len(doc.Services) == 0 {
		return nil, model.NewCLIError(
			model.ExitFailure,
			fmt.Sprintf("compose file %s defines no services", composePath),
		)
	}

	services := make([]string, 0, len(doc.Services))
	for name := range doc.Services {
		services = append(services, name)
	}
	sort.Strings(services)

	return services, nil
}
