// Copyright 2020 The Matrix.org Foundation C.I.C.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.
package docker

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/docker/docker/api/types/container"
	"github.com/docker/docker/api/types/image"
	"github.com/docker/docker/client"
	"github.com/docker/docker/pkg/stdcopy"
	"github.com/docker/go-connections/nat"
	"github.com/sirupsen/logrus"

	apiclient "github.com/apicheck/apicheck/client"
	"github.com/apicheck/apicheck/config"
)

// echoPort is the port the HTTP echo image listens on inside the container.
const echoPort = 80

type Deployer struct {
	Namespace string
	Docker    *client.Client
	Counter   int
	log       logrus.FieldLogger
	config    *config.Config
	// ReadyTimeout bounds how long Deploy waits for the container to answer HTTP requests
	ReadyTimeout time.Duration
}

func NewDeployer(namespace string, cfg *config.Config, log logrus.FieldLogger) (*Deployer, error) {
	cli, err := client.NewClientWithOpts(client.FromEnv, client.WithAPIVersionNegotiation())
	if err != nil {
		return nil, err
	}
	return &Deployer{
		Namespace:    namespace,
		Docker:       cli,
		log:          log,
		config:       cfg,
		ReadyTimeout: 30 * time.Second,
	}, nil
}

// DeployEcho starts the HTTP echo image from the config in a container with its port published on the
// host, and waits until it responds. Pulls the image if it is not present locally.
func (d *Deployer) DeployEcho(ctx context.Context) (*Deployment, error) {
	if err := d.ensureImage(ctx, d.config.EchoImage); err != nil {
		return nil, fmt.Errorf("DeployEcho: %w", err)
	}
	d.Counter++
	containerName := fmt.Sprintf("apicheck_%s_%s_%d", d.Namespace, config.Echo, d.Counter)
	body, err := d.Docker.ContainerCreate(ctx, &container.Config{
		Image:        d.config.EchoImage,
		ExposedPorts: nat.PortSet{nat.Port(fmt.Sprintf("%d/tcp", echoPort)): struct{}{}},
		Labels:       labelsFor(d.Namespace, config.Echo),
	}, &container.HostConfig{
		PublishAllPorts: true,
	}, nil, nil, containerName)
	if err != nil {
		return nil, fmt.Errorf("DeployEcho: failed to create container: %w", err)
	}
	dep := &Deployment{
		Deployer:     d,
		Collaborator: config.Echo,
		ContainerID:  body.ID,
	}
	if err = d.Docker.ContainerStart(ctx, body.ID, container.StartOptions{}); err != nil {
		d.Destroy(dep, false)
		return nil, fmt.Errorf("DeployEcho: failed to start container: %w", err)
	}
	inspect, err := d.Docker.ContainerInspect(ctx, body.ID)
	if err != nil {
		d.Destroy(dep, false)
		return nil, fmt.Errorf("DeployEcho: failed to inspect container: %w", err)
	}
	dep.BaseURL, err = hostURL(inspect.NetworkSettings.Ports, echoPort)
	if err != nil {
		d.Destroy(dep, true)
		return nil, fmt.Errorf("DeployEcho: image %s: %w", d.config.EchoImage, err)
	}
	if err = d.waitForReady(ctx, dep); err != nil {
		d.Destroy(dep, true)
		return nil, fmt.Errorf("DeployEcho: %w", err)
	}
	d.log.WithFields(logrus.Fields{
		"collaborator": config.Echo,
		"url":          dep.BaseURL,
		"container":    dep.ContainerID,
	}).Info("Deployed local collaborator")
	return dep, nil
}

// ensureImage pulls `ref` unless an image with that reference already exists locally.
func (d *Deployer) ensureImage(ctx context.Context, ref string) error {
	images, err := d.Docker.ImageList(ctx, image.ListOptions{Filters: reference(ref)})
	if err != nil {
		return fmt.Errorf("failed to ImageList: %w", err)
	}
	if len(images) > 0 {
		return nil
	}
	d.log.WithField("image", ref).Info("Pulling image")
	rc, err := d.Docker.ImagePull(ctx, ref, image.PullOptions{})
	if err != nil {
		return fmt.Errorf("failed to pull %s: %w", ref, err)
	}
	defer rc.Close()
	// the pull only completes once the progress stream is drained
	_, err = io.Copy(io.Discard, rc)
	return err
}

// waitForReady polls /get on the deployment until it answers 200. Connection errors are retried as well,
// since the port is published before the server inside the container is listening.
func (d *Deployer) waitForReady(ctx context.Context, dep *Deployment) error {
	cli := apiclient.New(dep.Collaborator, dep.BaseURL, &http.Client{Timeout: 2 * time.Second}, d.log)
	deadline := time.Now().Add(d.ReadyTimeout)
	var lastErr error
	for {
		remaining := time.Until(deadline)
		if remaining <= 0 {
			return fmt.Errorf("failed to check server is up after %v: %w", d.ReadyTimeout, lastErr)
		}
		res, err := cli.Do(ctx, "GET", "/get", apiclient.WithRetryUntil(remaining, func(res *apiclient.Response) bool {
			return res.StatusCode == 200
		}))
		if err == nil {
			return nil
		}
		if res != nil {
			return fmt.Errorf("failed to check server is up: %w", err)
		}
		lastErr = err
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(100 * time.Millisecond):
		}
	}
}

// Cleanup removes containers left behind by earlier runs in this namespace.
func (d *Deployer) Cleanup(ctx context.Context) error {
	containers, err := d.Docker.ContainerList(ctx, container.ListOptions{
		All:     true,
		Filters: label(namespaceLabel + "=" + d.Namespace),
	})
	if err != nil {
		return fmt.Errorf("Cleanup: failed to ContainerList: %w", err)
	}
	for _, c := range containers {
		if err := d.Docker.ContainerRemove(ctx, c.ID, container.RemoveOptions{Force: true}); err != nil {
			d.log.WithError(err).WithField("container", c.ID).Warn("Cleanup: failed to remove container")
		}
	}
	return nil
}

// Destroy a deployment. This will kill and remove its container. If `printServerLogs` is true, the container
// logs are written to the log first.
func (d *Deployer) Destroy(dep *Deployment, printServerLogs bool) {
	if printServerLogs {
		d.printLogs(dep.ContainerID, dep.Collaborator)
	}
	err := d.Docker.ContainerKill(context.Background(), dep.ContainerID, "KILL")
	if err != nil {
		d.log.Debugf("Destroy: Failed to kill container %s : %s", dep.ContainerID, err)
	}
	err = d.Docker.ContainerRemove(context.Background(), dep.ContainerID, container.RemoveOptions{
		Force: true,
	})
	if err != nil {
		d.log.Warnf("Destroy: Failed to remove container %s : %s", dep.ContainerID, err)
	}
}

func (d *Deployer) printLogs(containerID, contextStr string) {
	reader, err := d.Docker.ContainerLogs(context.Background(), containerID, container.LogsOptions{
		ShowStderr: true,
		ShowStdout: true,
		Follow:     false,
	})
	if err != nil {
		d.log.Warnf("%s : Failed to extract container logs: %s", contextStr, err)
		return
	}
	defer reader.Close()
	w := d.log.WithField("container", containerID).WriterLevel(logrus.InfoLevel)
	defer w.Close()
	d.log.Infof("%s : Server logs:", contextStr)
	_, _ = stdcopy.StdCopy(w, w, reader)
	d.log.Infof("%s : END LOGS ==============", contextStr)
}

// hostURL returns the loopback URL at which the container port `port` is published.
func hostURL(ports nat.PortMap, port int) (string, error) {
	bindings, ok := ports[nat.Port(fmt.Sprintf("%d/tcp", port))]
	if !ok || len(bindings) == 0 {
		return "", fmt.Errorf("container does not expose port %d/tcp - exposed: %v", port, ports)
	}
	return fmt.Sprintf("http://127.0.0.1:%s", bindings[0].HostPort), nil
}
