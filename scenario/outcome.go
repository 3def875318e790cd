package scenario

import (
	"time"
)

// Verdict is the aggregate result of running a scenario.
type Verdict string

const (
	Passed           Verdict = "PASSED"
	AssertionFailure Verdict = "ASSERTION_FAILURE"
	TransportError   Verdict = "TRANSPORT_ERROR"
	ParseError       Verdict = "PARSE_ERROR"
	FieldMissing     Verdict = "FIELD_MISSING"
	Skipped          Verdict = "SKIPPED"
	Interrupted      Verdict = "INTERRUPTED"
)

// Verdicts lists every verdict in report order.
var Verdicts = []Verdict{Passed, AssertionFailure, TransportError, ParseError, FieldMissing, Skipped, Interrupted}

func (v Verdict) rank() int {
	switch v {
	case Interrupted:
		return 6
	case TransportError:
		return 5
	case ParseError:
		return 4
	case FieldMissing:
		return 3
	case AssertionFailure:
		return 2
	case Skipped:
		return 1
	}
	return 0
}

// Worse returns whichever of `a` and `b` takes precedence when a scenario hits both.
func Worse(a, b Verdict) Verdict {
	if b.rank() > a.rank() {
		return b
	}
	return a
}

// Failed reports whether the verdict counts against the exit code.
func (v Verdict) Failed() bool {
	return v != Passed && v != Skipped
}

// ExpectationResult is the result of one expectation of one step.
type ExpectationResult struct {
	Step        string `json:"step"`
	Expectation string `json:"expectation"`
	Passed      bool   `json:"passed"`
	Message     string `json:"message,omitempty"`
}

// Outcome is the result of running one scenario.
type Outcome struct {
	Scenario     string              `json:"scenario"`
	Collaborator string              `json:"collaborator"`
	Verdict      Verdict             `json:"verdict"`
	Results      []ExpectationResult `json:"results"`
	// Message explains a verdict which is not about a single expectation, e.g. a transport error or a skip.
	Message        string        `json:"message,omitempty"`
	Duration       time.Duration `json:"duration_ns"`
	StepsCompleted int           `json:"steps_completed"`
}

// Passed reports whether every expectation passed.
func (o *Outcome) Passed() bool {
	return o.Verdict == Passed
}

// Failures returns the results of every expectation which did not pass.
func (o *Outcome) Failures() []ExpectationResult {
	var failed []ExpectationResult
	for _, r := range o.Results {
		if !r.Passed {
			failed = append(failed, r)
		}
	}
	return failed
}
