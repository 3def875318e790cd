package main

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/plot/vg"

	"github.com/apicheck/apicheck/internal/report"
	"github.com/apicheck/apicheck/scenario"
)

func writeReport(t *testing.T, dir, name string, outcomes []scenario.Outcome) string {
	t.Helper()
	path := filepath.Join(dir, name+".json")
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()
	require.NoError(t, report.New(name, time.Now(), outcomes).WriteJSON(f))
	return path
}

func TestLoadRunAlignsScenarios(t *testing.T) {
	dir := t.TempDir()
	first := writeReport(t, dir, "before", []scenario.Outcome{
		{Scenario: "a", Duration: 10 * time.Millisecond},
		{Scenario: "b", Duration: 20 * time.Millisecond},
	})
	second := writeReport(t, dir, "after", []scenario.Outcome{
		{Scenario: "b", Duration: 40 * time.Millisecond},
		{Scenario: "c", Duration: 5 * time.Millisecond},
	})

	run1, names, err := loadRun(first, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, names)
	assert.Equal(t, "before", run1.Name)

	run2, names, err := loadRun(second, names)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, names)
	assert.InDeltaSlice(t, []float64{0, 40}, []float64(run2.Durations), 0.001)

	out := filepath.Join(dir, "duration.svg")
	require.NoError(t, generateDurationGraph([]Run{*run1, *run2}, names, out))
	info, err := os.Stat(out)
	require.NoError(t, err)
	assert.NotZero(t, info.Size())
}

func TestOffsets(t *testing.T) {
	w := vg.Points(10)
	assert.Equal(t, []vg.Length{0}, offsets(1, w))
	assert.Equal(t, []vg.Length{-5, 5}, offsets(2, w))
	assert.Equal(t, []vg.Length{-10, 0, 10}, offsets(3, w))
}
