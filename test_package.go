package apicheck

import (
	"context"
	"fmt"
	"testing"

	"github.com/sirupsen/logrus"

	"github.com/apicheck/apicheck/config"
	"github.com/apicheck/apicheck/ct"
	"github.com/apicheck/apicheck/internal/web"
	"github.com/apicheck/apicheck/runner"
	"github.com/apicheck/apicheck/scenario"
)

// TestPackage represents the configuration for a package of tests. A package of tests
// are all tests in the same Go package (directory).
type TestPackage struct {
	// the config used for this package.
	Config *config.Config
	Runner *runner.Runner
	// fake collaborators, when running offline
	fakes *web.Server
}

// NewTestPackage creates a new test package which runs every check of a single package. This should be called from
// `TestMain` which is the Go-provided entry point before any tests run. After the tests have run, call
// `TestPackage.Cleanup`.
func NewTestPackage(offline bool) (*TestPackage, error) {
	cfg, err := config.NewConfigFromEnvVars()
	if err != nil {
		return nil, err
	}
	tp := &TestPackage{}
	if offline {
		tp.fakes, err = web.NewFakeCollaborators()
		if err != nil {
			return nil, fmt.Errorf("failed to start fake collaborators: %w", err)
		}
		cfg = cfg.WithBaseURLs(tp.fakes.BaseURLs())
	}

	// we don't want logs in our test output unless they are Serious.
	log := logrus.New()
	log.SetLevel(logrus.ErrorLevel)
	if cfg.DebugLoggingEnabled {
		log.SetLevel(logrus.DebugLevel)
	}
	tp.Config = cfg
	tp.Runner = runner.New(cfg, runner.WithLogger(log))
	return tp, nil
}

func (tp *TestPackage) Cleanup() {
	if tp.fakes != nil {
		tp.fakes.Close()
	}
}

// Check runs every scenario as a parallel subtest of `t`.
func (tp *TestPackage) Check(t *testing.T, scenarios ...scenario.Scenario) {
	t.Helper()
	for _, s := range scenarios {
		s := s
		t.Run(s.Name, func(t *testing.T) {
			t.Parallel()
			ReportOutcome(t, tp.Runner.Run(context.Background(), s))
		})
	}
}

// ReportOutcome turns `out` into a test result: failures are reported with their diagnostics, and skipped scenarios
// skip the test.
func ReportOutcome(t ct.TestLike, out scenario.Outcome) {
	t.Helper()
	switch out.Verdict {
	case scenario.Passed:
		return
	case scenario.Skipped:
		ct.Skipf(t, "%s", out.Message)
		return
	}
	for _, f := range out.Failures() {
		ct.Errorf(t, "%s: %s: %s", f.Step, f.Expectation, f.Message)
	}
	ct.Fatalf(t, "%s: %s", out.Verdict, out.Message)
}
