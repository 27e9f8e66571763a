// lifecycle.go implements container discovery and compose lifecycle
// operations for the docker runtime.
//
// Discovery goes through the Docker SDK with a label filter, so only
// containers botup deployed are ever touched. Starting and stopping go
// through the docker compose CLI instead of the SDK: the bot is defined
// by the project's compose file, and the CLI applies the same file
// merging and variable substitution the operator gets running compose
// by hand.
package docker

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"strings"

	"github.com/docker/docker/api/types"
	"github.com/docker/docker/api/types/container"
	"github.com/docker/docker/api/types/filters"

	"github.com/feralbyte/botup/internal/model"
)

// ListBotContainers queries the Docker daemon for all containers
// carrying the botup management label, including stopped ones. Stopped
// containers still represent a deployment and must show up in status
// output.
func ListBotContainers(ctx context.Context, cli *Client) ([]model.ContainerInfo, error) {
	// Filtering server-side on the label beats listing everything and
	// sifting in Go.
	filterArgs := filters.NewArgs(
		filters.Arg("label", LabelManagedBy+"="+ManagedByValue),
	)

	containers, err := cli.Inner().ContainerList(ctx, container.ListOptions{
		All:     true,
		Filters: filterArgs,
	})
	if err != nil {
		return nil, model.WrapCLIError(
			model.ExitFailure,
			"failed to list Docker containers",
			err,
		)
	}

	result := make([]model.ContainerInfo, 0, len(containers))
	for _, c := range containers {
		result = append(result, containerToInfo(c))
	}

	return result, nil
}

// containerToInfo converts a Docker API container struct into the domain
// model, decoupling everything downstream from the SDK types.
//
// The API reports names with a leading "/" (an artifact of the API, not
// meaningful to operators), which is stripped. The compose service name
// comes from the label Docker Compose puts on every container it
// creates.
func containerToInfo(c types.Container) model.ContainerInfo {
	name := ""
	if len(c.Names) > 0 {
		name = strings.TrimPrefix(c.Names[0], "/")
	}

	serviceName := c.Labels["com.docker.compose.service"]

	return model.ContainerInfo{
		ContainerID:   c.ID,
		ContainerName: name,
		ServiceName:   serviceName,
		Status:        c.State,
		Labels:        c.Labels,
	}
}

// GroupByDeployment groups containers by their "botup.name" label. One
// host can carry several bot deployments; status output is organized per
// deployment.
//
// Containers without a name label cannot be attributed to a deployment
// and are skipped. ListBotContainers filtering should prevent that from
// happening in practice.
func GroupByDeployment(containers []model.ContainerInfo) map[string][]model.ContainerInfo {
	groups := make(map[string][]model.ContainerInfo)

	for _, c := range containers {
		name, ok := c.Labels[LabelName]
		if !ok || name == "" {
			continue
		}
		groups[name] = append(groups[name], c)
	}

	return groups
}

// DeploymentState derives the aggregate run state of a deployment from
// its containers: a single running container makes the whole deployment
// running, anything else is stopped.
func DeploymentState(containers []model.ContainerInfo) model.RunState {
	for _, c := range containers {
		if c.Status == "running" {
			return model.StateRunning
		}
	}
	return model.StateStopped
}

// ComposeUp deploys the bot with "docker compose ... up -d" in the
// project directory. The -d flag detaches the containers so botup does
// not block; supervision is the Docker daemon's job from here on.
//
// When build is true the image is rebuilt first, picking up source
// changes from the preceding git pull. The envVars parameter feeds
// variable substitution inside the compose files.
func ComposeUp(ctx context.Context, projectDir string, composeFiles []string, envVars map[string]string, build bool) error {
	args := buildComposeArgs(composeFiles)
	args = append(args, "up", "-d")
	if build {
		args = append(args, "--build")
	}

	return runCompose(ctx, projectDir, args, envVars)
}

// ComposeUpForeground brings the deployment up attached, with inherited
// stdio, blocking until the services exit or the operator interrupts.
// The setup flow uses it so the first run happens in front of the
// operator's eyes.
func ComposeUpForeground(ctx context.Context, projectDir string, composeFiles []string, envVars map[string]string) error {
	args := buildComposeArgs(composeFiles)
	args = append(args, "up", "--build")

	cmd := exec.CommandContext(ctx, "docker", args...)
	cmd.Dir = projectDir
	cmd.Env = os.Environ()
	for k, v := range envVars {
		cmd.Env = append(cmd.Env, k+"="+v)
	}
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr

	if err := cmd.Run(); err != nil {
		return model.WrapCLIError(model.ExitFailure, "docker compose up failed", err)
	}
	return nil
}

// ComposeStop stops the deployment's containers without removing them,
// preserving state for a later ComposeUp.
func ComposeStop(ctx context.Context, projectDir string, composeFiles []string) error {
	args := buildComposeArgs(composeFiles)
	args = append(args, "stop")

	return runCompose(ctx, projectDir, args, nil)
}

// buildComposeArgs constructs the shared leading arguments for docker
// compose invocations. Each file gets its own -f flag; compose merges
// them in order with later files taking precedence, which is how the
// generated override file wins over the project's base file.
func buildComposeArgs(composeFiles []string) []string {
	args := make([]string, 0, len(composeFiles)*2+2)
	args = append(args, "compose")
	for _, f := range composeFiles {
		args = append(args, "-f", f)
	}
	return args
}

// runCompose executes a docker compose command in the project directory.
// Modern Docker ships compose as a plugin subcommand, so the binary is
// "docker" with "compose" as the first argument.
//
// The command's own output is included in the error so the operator sees
// what compose itself reported.
func runCompose(ctx context.Context, projectDir string, args []string, envVars map[string]string) error {
	cmd := exec.CommandContext(ctx, "docker", args...)

	// Compose resolves relative paths in the YAML against the working
	// directory, so it must be the project root.
	cmd.Dir = projectDir

	cmd.Env = os.Environ()
	for k, v := range envVars {
		cmd.Env = append(cmd.Env, k+"="+v)
	}

	output, err := cmd.CombinedOutput()
	if err != nil {
		return model.WrapCLIError(
			model.ExitFailure,
			fmt.Sprintf("docker compose failed: %s", strings.TrimSpace(string(output))),
			err,
		)
	}

	return nil
}
