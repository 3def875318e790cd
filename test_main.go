package apicheck

import (
	"fmt"
	"os"
	"testing"

	"github.com/apicheck/apicheck/ct"
	"github.com/apicheck/apicheck/scenario"
)

var testPackage *TestPackage

type apicheckOpts struct {
	cleanup func()
	offline bool
}
type opt func(*apicheckOpts)

// WithCleanup adds a cleanup function which is called prior to terminating the test suite.
// It is called BEFORE the fake collaborators are shut down.
func WithCleanup(fn func()) opt {
	return func(co *apicheckOpts) {
		co.cleanup = fn
	}
}

// WithOffline points every collaborator at in-process fakes instead of the real services, if `offline` is true.
func WithOffline(offline bool) opt {
	return func(co *apicheckOpts) {
		co.offline = offline
	}
}

// TestMain is the main entry point for packages of contract checks run with `go test`.
//
// It loads the configuration from the environment, starts the fake collaborators if requested, runs the tests, then
// shuts the fakes down again.
func TestMain(m *testing.M, customOpts ...opt) {
	opts := &apicheckOpts{}
	for _, o := range customOpts {
		o(opts)
	}

	var err error
	testPackage, err = NewTestPackage(opts.offline)
	if err != nil {
		fmt.Printf("Error: %s", err)
		os.Exit(1)
	}
	exitCode := m.Run()
	if opts.cleanup != nil {
		opts.cleanup()
	}
	testPackage.Cleanup()
	os.Exit(exitCode)
}

// Check runs every scenario as a parallel subtest of `t`, failing the subtest unless the scenario passes. Skipped
// scenarios skip their subtest.
func Check(t *testing.T, scenarios ...scenario.Scenario) {
	t.Helper()
	if testPackage == nil {
		ct.Fatalf(t, "Check: testPackage not set, did you forget to call apicheck.TestMain?")
	}
	testPackage.Check(t, scenarios...)
}
