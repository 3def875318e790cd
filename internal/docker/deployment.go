package docker

import (
	"github.com/apicheck/apicheck/config"
)

// Deployment is a collaborator running in a container on this host.
type Deployment struct {
	// The Deployer which was responsible for this deployment
	Deployer *Deployer
	// The name of the collaborator this container stands in for
	Collaborator string
	BaseURL      string // e.g http://127.0.0.1:38646
	ContainerID  string // e.g 10de45efba
}

// Destroy kills and removes the container. If `printServerLogs` is true, will print container logs first.
func (d *Deployment) Destroy(printServerLogs bool) {
	d.Deployer.Destroy(d, printServerLogs)
}

// Apply returns a copy of `cfg` which points the collaborator at this deployment.
func (d *Deployment) Apply(cfg *config.Config) *config.Config {
	return cfg.WithBaseURLs(map[string]string{d.Collaborator: d.BaseURL})
}
