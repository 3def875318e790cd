package docker

import (
	"testing"

	"github.com/docker/go-connections/nat"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/apicheck/apicheck/config"
)

func TestHostURL(t *testing.T) {
	ports := nat.PortMap{
		"80/tcp": []nat.PortBinding{{HostIP: "0.0.0.0", HostPort: "49153"}},
	}
	u, err := hostURL(ports, 80)
	require.NoError(t, err)
	assert.Equal(t, "http://127.0.0.1:49153", u)

	_, err = hostURL(ports, 8080)
	assert.ErrorContains(t, err, "does not expose port 8080/tcp")

	_, err = hostURL(nat.PortMap{"80/tcp": nil}, 80)
	assert.Error(t, err)
}

func TestLabels(t *testing.T) {
	f := label(namespaceLabel + "=ci")
	assert.Equal(t, []string{"apicheck_namespace=ci"}, f.Get("label"))
	assert.Equal(t, []string{"kennethreitz/httpbin"}, reference("kennethreitz/httpbin").Get("reference"))
	assert.Equal(t, map[string]string{
		"apicheck_namespace":    "ci",
		"apicheck_collaborator": config.Echo,
	}, labelsFor("ci", config.Echo))
}

func TestDeploymentApply(t *testing.T) {
	cfg := &config.Config{EchoURL: "https://httpbin.org", GitHubURL: "https://api.github.com"}
	dep := &Deployment{Collaborator: config.Echo, BaseURL: "http://127.0.0.1:49153"}
	got := dep.Apply(cfg)
	assert.Equal(t, "http://127.0.0.1:49153", got.EchoURL)
	assert.Equal(t, "https://api.github.com", got.GitHubURL)
	assert.Equal(t, "https://httpbin.org", cfg.EchoURL)
}
