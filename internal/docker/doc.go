// Package docker provides Docker Engine API wrappers and compose
// lifecycle management for botup's optional containerized runtime.
//
// This package handles:
//   - Docker client initialization with automatic socket detection
//     (Linux, macOS, Windows)
//   - Container label management for recording deployment metadata
//     (Docker labels are the sole record of a deployment)
//   - Discovery of botup-deployed containers via label filters
//   - Compose override generation so the project's own compose file is
//     never edited
//   - Docker Compose operations: up, stop
//
// The package uses github.com/docker/docker/client as the underlying
// Docker SDK, with version negotiation enabled for broad compatibility.
// Compose operations shell out to the docker CLI, matching what the
// operator would run by hand.
package docker
