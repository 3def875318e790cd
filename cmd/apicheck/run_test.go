package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/apicheck/apicheck/config"
	"github.com/apicheck/apicheck/suite"
)

const extraScenario = `
name: extra echo check
collaborator: echo
steps:
  - method: GET
    url: /get
    expect:
      - check: status
        status: 200
`

func TestSelectScenarios(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "extra.yaml"), []byte(extraScenario), 0o644))

	all, err := (&runOptions{}).selectScenarios()
	require.NoError(t, err)
	assert.Len(t, all, len(suite.All()))

	onlyFiles, err := (&runOptions{ScenarioDir: dir}).selectScenarios()
	require.NoError(t, err)
	require.Len(t, onlyFiles, 1)
	assert.Equal(t, "extra echo check", onlyFiles[0].Name)

	both, err := (&runOptions{Suites: []string{config.Echo}, ScenarioDir: dir}).selectScenarios()
	require.NoError(t, err)
	assert.Len(t, both, len(suite.Echo())+1)

	_, err = (&runOptions{Suites: []string{"nope"}}).selectScenarios()
	assert.Error(t, err)
}
