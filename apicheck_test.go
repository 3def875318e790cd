package apicheck_test

import (
	"fmt"
	"os"
	"testing"

	"github.com/apicheck/apicheck"
	"github.com/apicheck/apicheck/scenario"
	"github.com/apicheck/apicheck/suite"
)

// Set APICHECK_LIVE=1 to run the catalog against the real collaborators.
func TestMain(m *testing.M) {
	apicheck.TestMain(m, apicheck.WithOffline(os.Getenv("APICHECK_LIVE") != "1"))
}

func TestGitHub(t *testing.T) {
	apicheck.Check(t, suite.GitHub()...)
}

func TestPlaceholder(t *testing.T) {
	apicheck.Check(t, suite.Placeholder()...)
}

func TestEcho(t *testing.T) {
	apicheck.Check(t, suite.Echo()...)
}

type recorder struct {
	skipped bool
	fatal   bool
	errors  []string
}

func (r *recorder) Helper() {}
func (r *recorder) Logf(msg string, args ...interface{}) {}
func (r *recorder) Skipf(msg string, args ...interface{}) { r.skipped = true }
func (r *recorder) Error(args ...interface{}) { r.errors = append(r.errors, fmt.Sprint(args...)) }
func (r *recorder) Errorf(msg string, args ...interface{}) { r.errors = append(r.errors, fmt.Sprintf(msg, args...)) }
func (r *recorder) Fatalf(msg string, args ...interface{}) { r.fatal = true }
func (r *recorder) Failed() bool { return r.fatal || len(r.errors) > 0 }
func (r *recorder) Name() string { return "recorder" }

func TestReportOutcome(t *testing.T) {
	rec := &recorder{}
	apicheck.ReportOutcome(rec, scenario.Outcome{Verdict: scenario.Passed})
	if rec.Failed() || rec.skipped {
		t.Fatalf("passed outcome reported as failed or skipped")
	}

	rec = &recorder{}
	apicheck.ReportOutcome(rec, scenario.Outcome{Verdict: scenario.Skipped, Message: "rate limited"})
	if !rec.skipped || rec.Failed() {
		t.Fatalf("skipped outcome not reported as a skip")
	}

	rec = &recorder{}
	apicheck.ReportOutcome(rec, scenario.Outcome{
		Verdict: scenario.AssertionFailure,
		Results: []scenario.ExpectationResult{
			{Step: "GET /users/5", Expectation: "status == 200", Passed: true},
			{Step: "GET /users/5", Expectation: "name == \"x\"", Message: "mismatch"},
		},
	})
	if !rec.fatal || len(rec.errors) != 1 {
		t.Fatalf("failed outcome: fatal=%v errors=%v", rec.fatal, rec.errors)
	}
}
