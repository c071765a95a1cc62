// SPDX-License-Identifier: MPL-2.0

package container

// DockerEngine probes the Docker CLI. The server version is queried so a
// stopped daemon counts as unavailable.
type DockerEngine struct {
	*BaseCLIEngine
}

// NewDockerEngine creates a new Docker engine.
func NewDockerEngine(opts ...BaseCLIEngineOption) *DockerEngine {
	return &DockerEngine{
		BaseCLIEngine: NewBaseCLIEngine(string(EngineTypeDocker), "{{.Server.Version}}", opts...),
	}
}
