package docker

import (
	"fmt"
	"strings"
	"time"

	"github.com/feralbyte/botup/internal/model"
)

// Label key constants define the Docker labels botup stamps on every
// container it deploys. The labels are the only record of a deployment;
// there is no state file on disk.
//
// All keys share the "botup." prefix to keep them clear of labels set by
// other tools (Docker Compose, VS Code, etc.).
const (
	// LabelPrefix is the common prefix for all botup labels.
	LabelPrefix = "botup."

	// LabelManagedBy identifies containers deployed by botup and is the
	// label the discovery filter matches on.
	// Key: "botup.managed-by", value: always "botup".
	LabelManagedBy = LabelPrefix + "managed-by"

	// LabelName stores the deployment name from the configuration.
	// Key: "botup.name", value: e.g. "statusbot".
	LabelName = LabelPrefix + "name"

	// LabelProjectDir stores the absolute path of the bot project the
	// container was deployed from.
	// Key: "botup.project-dir".
	LabelProjectDir = LabelPrefix + "project-dir"

	// LabelRevision stores the short Git revision that was deployed.
	// Key: "botup.revision", value: e.g. "a1b2c3d".
	LabelRevision = LabelPrefix + "revision"

	// LabelDeployedAt stores when the deployment happened.
	// Key: "botup.deployed-at", value: RFC3339 timestamp in UTC.
	LabelDeployedAt = LabelPrefix + "deployed-at"
)

// ManagedByValue is the constant value of the LabelManagedBy label on
// every container botup deploys.
const ManagedByValue = "botup"

// BuildLabels constructs the Docker label map for a deployment. The
// labels go onto every container of the deployment so the full
// Deployment can be reconstructed from container inspection alone.
func BuildLabels(d *model.Deployment) map[string]string {
	return map[string]string{
		LabelManagedBy:  ManagedByValue,
		LabelName:       d.Name,
		LabelProjectDir: d.ProjectDir,
		LabelRevision:   d.Revision,
		// UTC keeps the stamp independent of the host timezone.
		LabelDeployedAt: d.DeployedAt.UTC().Format(time.RFC3339),
	}
}

// ParseLabels reconstructs a Deployment from Docker container labels,
// the inverse of BuildLabels.
//
// All botup labels are required. Missing keys are collected and reported
// together so one inspection shows everything that is wrong with a
// hand-labelled container.
func ParseLabels(labels map[string]string) (*model.Deployment, error) {
	requiredKeys := []string{
		LabelManagedBy,
		LabelName,
		LabelProjectDir,
		LabelRevision,
		LabelDeployedAt,
	}

	var missing []string
	for _, key := range requiredKeys {
		if _, ok := labels[key]; !ok {
			missing = append(missing, key)
		}
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("missing required Docker labels: %s", strings.Join(missing, ", "))
	}

	if labels[LabelManagedBy] != ManagedByValue {
		return nil, fmt.Errorf(
			"label %s has unexpected value %q (expected %q)",
			LabelManagedBy, labels[LabelManagedBy], ManagedByValue,
		)
	}

	deployedAt, err := time.Parse(time.RFC3339, labels[LabelDeployedAt])
	if err != nil {
		return nil, fmt.Errorf("invalid label %s: %w", LabelDeployedAt, err)
	}

	return &model.Deployment{
		Name:       labels[LabelName],
		ProjectDir: labels[LabelProjectDir],
		Revision:   labels[LabelRevision],
		DeployedAt: deployedAt,
	}, nil
}

// FilterLabels returns the label selector that matches every container
// botup manages, for use with the Docker API's list filters.
func FilterLabels() map[string]string {
	return map[string]string{
		LabelManagedBy: ManagedByValue,
	}
}
