// package ct contains wrappers and interfaces around testing.T
//
// The intention is that assertion helpers deal with these wrapper interfaces rather than the
// literal testing.T. This lets the same helpers be driven from `go test` and from the
// apicheck CLI, which reports outcomes instead of failing tests.
package ct

// TestLike is an interface that testing.T satisfies.
type TestLike interface {
	Helper()
	Logf(msg string, args ...interface{})
	Skipf(msg string, args ...interface{})
	Error(args ...interface{})
	Errorf(msg string, args ...interface{})
	Fatalf(msg string, args ...interface{})
	Failed() bool
	Name() string
}

const ansiRedForeground = "\x1b[31m"
const ansiYellowForeground = "\x1b[33m"
const ansiResetForeground = "\x1b[39m"

// Errorf is a wrapper around t.Errorf which prints the failing error message in red.
func Errorf(t TestLike, format string, args ...any) {
	t.Helper()
	format = ansiRedForeground + format + ansiResetForeground
	t.Errorf(format, args...)
}

// Fatalf is a wrapper around t.Fatalf which prints the failing error message in red.
func Fatalf(t TestLike, format string, args ...any) {
	t.Helper()
	format = ansiRedForeground + format + ansiResetForeground
	t.Fatalf(format, args...)
}

// Skipf is a wrapper around t.Skipf which prints the reason in yellow.
func Skipf(t TestLike, format string, args ...any) {
	t.Helper()
	format = ansiYellowForeground + format + ansiResetForeground
	t.Skipf(format, args...)
}
