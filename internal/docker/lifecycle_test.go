package docker

import (
	"testing"

	"github.com/docker/docker/api/types"
	"github.com/stretchr/testify/assert"

	"github.com/feralbyte/botup/internal/model"
)

// TestContainerToInfo verifies the mapping from the Docker API container
// struct to the domain model, including the leading-slash strip and the
// compose service label extraction.
func TestContainerToInfo(t *testing.T) {
	c := types.Container{
		ID:    "abc123",
		Names: []string{"/statusbot-bot-1"},
		State: "running",
		Labels: map[string]string{
			"com.docker.compose.service": "bot",
			LabelName:                    "statusbot",
		},
	}

	info := containerToInfo(c)

	assert.Equal(t, "abc123", info.ContainerID)
	assert.Equal(t, "statusbot-bot-1", info.ContainerName,
		"the leading slash from the Docker API should be stripped")
	assert.Equal(t, "bot", info.ServiceName)
	assert.Equal(t, "running", info.Status)
	assert.Equal(t, "statusbot", info.Labels[LabelName])
}

// TestContainerToInfo_NoNames verifies the degenerate case of a
// container the API reports without names.
func TestContainerToInfo_NoNames(t *testing.T) {
	info := containerToInfo(types.Container{ID: "abc123", State: "exited"})

	assert.Equal(t, "", info.ContainerName)
	assert.Equal(t, "exited", info.Status)
}

// TestGroupByDeployment verifies grouping by the botup.name label and
// that unlabelled containers are skipped.
func TestGroupByDeployment(t *testing.T) {
	containers := []model.ContainerInfo{
		{ContainerID: "a", Labels: map[string]string{LabelName: "statusbot"}},
		{ContainerID: "b", Labels: map[string]string{LabelName: "statusbot"}},
		{ContainerID: "c", Labels: map[string]string{LabelName: "otherbot"}},
		{ContainerID: "d", Labels: map[string]string{}},
	}

	groups := GroupByDeployment(containers)

	assert.Len(t, groups, 2)
	assert.Len(t, groups["statusbot"], 2)
	assert.Len(t, groups["otherbot"], 1)
}

// TestDeploymentState verifies the aggregate state rules: one running
// container makes the deployment running, otherwise it is stopped.
func TestDeploymentState(t *testing.T) {
	tests := []struct {
		name       string
		containers []model.ContainerInfo
		expected   model.RunState
	}{
		{
			name: "one running among stopped",
			containers: []model.ContainerInfo{
				{Status: "exited"},
				{Status: "running"},
			},
			expected: model.StateRunning,
		},
		{
			name: "all exited",
			containers: []model.ContainerInfo{
				{Status: "exited"},
				{Status: "created"},
			},
			expected: model.StateStopped,
		},
		{
			name:       "no containers",
			containers: nil,
			expected:   model.StateStopped,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, DeploymentState(tt.containers))
		})
	}
}

// TestBuildComposeArgs verifies the -f flag layout that compose file
// merging depends on.
func TestBuildComposeArgs(t *testing.T) {
	args := buildComposeArgs([]string{"docker-compose.yml", OverrideFileName})

	assert.Equal(t, []string{
		"compose",
		"-f", "docker-compose.yml",
		"-f", OverrideFileName,
	}, args)
}

func TestBuildComposeArgs_NoFiles(t *testing.T) {
	assert.Equal(t, []string{"compose"}, buildComposeArgs(nil))
}
