package suite_test

import (
	"context"
	"testing"
	"time"

	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/apicheck/apicheck/config"
	"github.com/apicheck/apicheck/internal/web"
	"github.com/apicheck/apicheck/runner"
	"github.com/apicheck/apicheck/scenario"
	"github.com/apicheck/apicheck/suite"
)

func TestCatalogIsValid(t *testing.T) {
	seen := map[string]bool{}
	for _, s := range suite.All() {
		assert.NoError(t, s.Validate())
		assert.False(t, seen[s.Name], "duplicate scenario name '%s'", s.Name)
		seen[s.Name] = true
	}
	assert.Len(t, suite.GitHub(), 20)
	assert.Len(t, suite.Placeholder(), 29)
	assert.Len(t, suite.Echo(), 8)
}

func TestSelect(t *testing.T) {
	assert.Equal(t, []string{config.Echo, config.GitHub, config.Placeholder}, suite.Names())

	all, err := suite.Select()
	require.NoError(t, err)
	assert.Len(t, all, len(suite.All()))

	echo, err := suite.Select(config.Echo)
	require.NoError(t, err)
	for _, s := range echo {
		assert.Equal(t, config.Echo, s.Collaborator)
	}

	_, err = suite.Select(config.Echo, "nope")
	assert.ErrorContains(t, err, "unknown suite 'nope'")
}

func TestCatalogPassesAgainstFakes(t *testing.T) {
	srv, err := web.NewFakeCollaborators()
	require.NoError(t, err)
	defer srv.Close()
	cfg := (&config.Config{
		Concurrency:     8,
		RequestTimeout:  5 * time.Second,
		ScenarioTimeout: 10 * time.Second,
	}).WithBaseURLs(srv.BaseURLs())
	log, _ := test.NewNullLogger()

	outcomes := runner.New(cfg, runner.WithLogger(log)).RunAll(context.Background(), suite.All())
	for _, o := range outcomes {
		if !assert.Equal(t, scenario.Passed, o.Verdict, "%s: %s", o.Scenario, o.Message) {
			for _, f := range o.Failures() {
				t.Logf("  %s: %s: %s", f.Step, f.Expectation, f.Message)
			}
		}
	}
}
