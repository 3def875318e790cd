// Package report summarises the outcomes of a run as text, JSON and Prometheus metrics.
package report

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"
	"golang.org/x/term"

	"github.com/apicheck/apicheck/scenario"
)

const (
	ansiRed    = "\x1b[31m"
	ansiGreen  = "\x1b[32m"
	ansiYellow = "\x1b[33m"
	ansiReset  = "\x1b[39m"
)

// Report is the result of one run of the harness. It is what `apicheck --json` writes and what
// latencygraph reads.
type Report struct {
	RunID     string             `json:"run_id"`
	Name      string             `json:"name,omitempty"`
	StartedAt time.Time          `json:"started_at"`
	Duration  time.Duration      `json:"duration_ns"`
	Outcomes  []scenario.Outcome `json:"outcomes"`
	Summary   Summary            `json:"summary"`
}

// Summary counts outcomes by verdict.
type Summary struct {
	Total    int                      `json:"total"`
	Passed   int                      `json:"passed"`
	Failed   int                      `json:"failed"`
	Skipped  int                      `json:"skipped"`
	Verdicts map[scenario.Verdict]int `json:"verdicts"`
}

// New builds a report for outcomes of a run which began at `startedAt`.
func New(name string, startedAt time.Time, outcomes []scenario.Outcome) *Report {
	r := &Report{
		RunID:     uuid.New().String(),
		Name:      name,
		StartedAt: startedAt.UTC(),
		Duration:  time.Since(startedAt),
		Outcomes:  outcomes,
		Summary:   Summary{Verdicts: map[scenario.Verdict]int{}},
	}
	for _, o := range outcomes {
		r.Summary.Total++
		r.Summary.Verdicts[o.Verdict]++
		switch {
		case o.Verdict == scenario.Passed:
			r.Summary.Passed++
		case o.Verdict == scenario.Skipped:
			r.Summary.Skipped++
		default:
			r.Summary.Failed++
		}
	}
	return r
}

// ExitCode is 0 iff every scenario which was not skipped passed.
func (r *Report) ExitCode() int {
	if r.Summary.Failed > 0 {
		return 1
	}
	return 0
}

// Load reads a report previously written with WriteJSON.
func Load(path string) (*Report, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	var r Report
	if err := json.NewDecoder(f).Decode(&r); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return &r, nil
}

func (r *Report) WriteJSON(w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(r)
}

// ColorEnabled reports whether `w` is a terminal, which is the only case where WriteText should colour its output.
func ColorEnabled(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

// WriteText writes one line per scenario, the diagnostics of every failure, and totals per collaborator.
func (r *Report) WriteText(w io.Writer, color bool) error {
	paint := func(code, s string) string {
		if !color {
			return s
		}
		return code + s + ansiReset
	}
	var sb strings.Builder
	for _, o := range r.Outcomes {
		took := o.Duration.Round(time.Millisecond)
		switch o.Verdict {
		case scenario.Passed:
			fmt.Fprintf(&sb, "%s %s (%s, %v)\n", paint(ansiGreen, "✓"), o.Scenario, o.Collaborator, took)
		case scenario.Skipped:
			fmt.Fprintf(&sb, "%s %s (%s) SKIPPED: %s\n", paint(ansiYellow, "-"), o.Scenario, o.Collaborator, o.Message)
		default:
			fmt.Fprintf(&sb, "%s %s (%s, %v) %s: %s\n", paint(ansiRed, "✗"), o.Scenario, o.Collaborator, took,
				paint(ansiRed, string(o.Verdict)), o.Message)
			for _, f := range o.Failures() {
				fmt.Fprintf(&sb, "    %s: %s: %s\n", f.Step, f.Expectation, f.Message)
			}
		}
	}

	perCollab := map[string][3]int{}
	for _, o := range r.Outcomes {
		c := perCollab[o.Collaborator]
		switch {
		case o.Verdict == scenario.Passed:
			c[0]++
		case o.Verdict == scenario.Skipped:
			c[2]++
		default:
			c[1]++
		}
		perCollab[o.Collaborator] = c
	}
	names := maps.Keys(perCollab)
	slices.Sort(names)
	sb.WriteString("\n")
	for _, name := range names {
		c := perCollab[name]
		fmt.Fprintf(&sb, "%-12s %d passed, %d failed, %d skipped\n", name+":", c[0], c[1], c[2])
	}
	fmt.Fprintf(&sb, "%d scenarios: %s, %s, %s in %v\n", r.Summary.Total,
		paint(ansiGreen, fmt.Sprintf("%d passed", r.Summary.Passed)),
		paint(ansiRed, fmt.Sprintf("%d failed", r.Summary.Failed)),
		paint(ansiYellow, fmt.Sprintf("%d skipped", r.Summary.Skipped)),
		r.Duration.Round(time.Millisecond),
	)
	_, err := io.WriteString(w, sb.String())
	return err
}
