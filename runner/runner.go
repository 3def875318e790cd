// Package runner executes contract check scenarios against their collaborators.
//
// A Runner owns one HTTP client per collaborator, all sharing a single pooled transport. Run executes one scenario
// and always returns an Outcome: failures of any kind are recorded in the outcome and never returned as errors or
// allowed to affect other scenarios. RunAll runs many scenarios with bounded concurrency.
package runner

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sort"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/apicheck/apicheck/client"
	"github.com/apicheck/apicheck/config"
	"github.com/apicheck/apicheck/internal/github"
	"github.com/apicheck/apicheck/scenario"
)

const notEvaluated = "not evaluated: an earlier step did not complete"

type Runner struct {
	cfg         *config.Config
	log         logrus.FieldLogger
	clients     map[string]*client.Client
	concurrency int
	transport   http.RoundTripper
}

type Opt func(r *Runner)

// WithLogger sets the logger. Defaults to the logrus standard logger.
func WithLogger(log logrus.FieldLogger) Opt {
	return func(r *Runner) {
		r.log = log
	}
}

// WithConcurrency overrides the configured number of scenarios run at once by RunAll.
func WithConcurrency(n int) Opt {
	return func(r *Runner) {
		if n < 1 {
			n = 1
		}
		r.concurrency = n
	}
}

// WithTransport replaces the pooled transport shared by every collaborator client.
func WithTransport(rt http.RoundTripper) Opt {
	return func(r *Runner) {
		r.transport = rt
	}
}

// New creates a Runner for the collaborators in `cfg`.
func New(cfg *config.Config, opts ...Opt) *Runner {
	r := &Runner{
		cfg:         cfg,
		log:         logrus.StandardLogger(),
		concurrency: cfg.Concurrency,
	}
	for _, o := range opts {
		o(r)
	}
	if r.concurrency < 1 {
		r.concurrency = 1
	}
	if r.transport == nil {
		pool := client.DefaultPoolConfig()
		if cfg.RequestTimeout > 0 {
			pool.ResponseHeaderTimeout = cfg.RequestTimeout
		}
		r.transport = client.NewTransport(pool)
	}
	r.clients = make(map[string]*client.Client)
	for name, collab := range cfg.Collaborators() {
		rt := client.WithBearerTransport(r.transport, collab.BearerToken)
		httpCli := client.NewLoggedClient(r.log, name, rt, cfg.RequestTimeout, cfg.DebugLoggingEnabled)
		c := client.New(name, collab.BaseURL, httpCli, r.log.WithField("collaborator", name))
		c.Debug = cfg.DebugLoggingEnabled
		r.clients[name] = c
	}
	if cfg.GitHubToken == "" {
		r.log.Warn("No GitHub token configured; github checks run unauthenticated and are skipped if rate limited")
	}
	return r
}

// Client returns the client for the named collaborator, or nil if there is no such collaborator.
func (r *Runner) Client(name string) *client.Client {
	return r.clients[name]
}

// RunAll runs every scenario, at most `concurrency` at a time. Outcomes are returned in the order of `scenarios`.
// Scenarios which have not started when `ctx` is cancelled are reported as INTERRUPTED.
func (r *Runner) RunAll(ctx context.Context, scenarios []scenario.Scenario) []scenario.Outcome {
	outcomes := make([]scenario.Outcome, len(scenarios))
	sem := make(chan struct{}, r.concurrency)
	var wg sync.WaitGroup

	for i := range scenarios {
		wg.Add(1)
		go func(idx int) {
			defer wg.Done()
			select {
			case sem <- struct{}{}: // Acquire
			case <-ctx.Done():
				outcomes[idx] = interrupted(&scenarios[idx], "run cancelled before the scenario started")
				return
			}
			defer func() { <-sem }() // Release
			outcomes[idx] = r.Run(ctx, scenarios[idx])
		}(i)
	}

	wg.Wait()
	return outcomes
}

// Run executes every step of `s` in order and evaluates all of its expectations.
func (r *Runner) Run(ctx context.Context, s scenario.Scenario) (out scenario.Outcome) {
	start := time.Now()
	log := r.log.WithFields(logrus.Fields{
		"scenario":     s.Name,
		"collaborator": s.Collaborator,
	})
	defer func() {
		if p := recover(); p != nil {
			out.Verdict = scenario.Worse(out.Verdict, scenario.AssertionFailure)
			out.Message = fmt.Sprintf("panic while evaluating: %v", p)
		}
		out.Duration = time.Since(start)
		entry := log.WithFields(logrus.Fields{"verdict": out.Verdict, "took": out.Duration})
		switch out.Verdict {
		case scenario.Passed:
			entry.Info("Scenario passed")
		case scenario.Skipped:
			entry.WithField("reason", out.Message).Warn("Scenario skipped")
		default:
			entry.WithField("reason", out.Message).Error("Scenario failed")
		}
	}()

	if ctx.Err() != nil {
		return interrupted(&s, "run cancelled before the scenario started")
	}
	out = scenario.Outcome{
		Scenario:     s.Name,
		Collaborator: s.Collaborator,
		Verdict:      scenario.Passed,
	}
	if err := s.Validate(); err != nil {
		out.Verdict = scenario.AssertionFailure
		out.Message = err.Error()
		out.Results = notRun(s.Steps, 0, "not evaluated: scenario is invalid")
		return out
	}
	cli := r.clients[s.Collaborator]
	if cli == nil {
		out.Verdict = scenario.AssertionFailure
		out.Message = fmt.Sprintf("unknown collaborator '%s'", s.Collaborator)
		out.Results = notRun(s.Steps, 0, "not evaluated: unknown collaborator")
		return out
	}

	// a non-positive timeout leaves the scenario bounded only by the request timeout
	sctx := ctx
	if timeout := s.Timeout(r.cfg.ScenarioTimeout); timeout > 0 {
		var cancel context.CancelFunc
		sctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	vars := scenario.Vars{}
	for i, step := range s.Steps {
		stepLog := log.WithField("step", step.Label())
		res, err := r.send(sctx, cli, step, vars)
		if err != nil {
			var transportErr *client.TransportError
			switch {
			case ctx.Err() != nil:
				out.Verdict = scenario.Interrupted
				out.Message = fmt.Sprintf("%s: run cancelled", step.Label())
			case errors.As(err, &transportErr) && s.Tolerate.TransportFailure:
				out.Verdict = scenario.Skipped
				out.Message = fmt.Sprintf("collaborator unreachable: %s", err)
				out.Results = nil
				return out
			case errors.As(err, &transportErr):
				out.Verdict = scenario.TransportError
				out.Message = err.Error()
			default:
				out.Verdict = scenario.AssertionFailure
				out.Message = fmt.Sprintf("%s: could not build request: %s", step.Label(), err)
			}
			stepLog.WithError(err).Debug("Step did not complete")
			out.Results = append(out.Results, notRun(s.Steps, i, notEvaluated)...)
			return out
		}

		if s.Tolerate.ToleratesStatus(res.StatusCode) {
			out.Verdict = scenario.Skipped
			out.Message = fmt.Sprintf("%s: collaborator returned tolerated status %d", step.Label(), res.StatusCode)
			out.Results = nil
			return out
		}
		if s.Collaborator == config.GitHub {
			if limited, msg := github.RateLimited(res); limited {
				out.Verdict = scenario.Skipped
				out.Message = msg
				out.Results = nil
				return out
			}
		}

		stepFailed := false
		for _, e := range step.Expect {
			result := scenario.ExpectationResult{Step: step.Label(), Expectation: e.Describe(), Passed: true}
			if err := e.Evaluate(res, vars); err != nil {
				stepFailed = true
				result.Passed = false
				result.Message = err.Error()
				out.Verdict = scenario.Worse(out.Verdict, classify(err))
			}
			out.Results = append(out.Results, result)
		}
		for _, name := range sortedKeys(step.Store) {
			path := step.Store[name]
			val, err := res.Field(path)
			if err != nil {
				stepFailed = true
				out.Verdict = scenario.Worse(out.Verdict, classify(err))
				out.Results = append(out.Results, scenario.ExpectationResult{
					Step:        step.Label(),
					Expectation: fmt.Sprintf("store %s from %s", name, path),
					Message:     err.Error(),
				})
				continue
			}
			vars[name] = val
		}
		out.StepsCompleted = i + 1
		stepLog.WithField("status", res.StatusCode).Debug("Step complete")
		if stepFailed {
			out.Message = fmt.Sprintf("%s: %d expectation(s) failed", step.Label(), len(out.Failures()))
			out.Results = append(out.Results, notRun(s.Steps, i+1, notEvaluated)...)
			return out
		}
	}
	return out
}

// classify maps an evaluation error to the verdict it implies.
func classify(err error) scenario.Verdict {
	var parseErr *client.ParseError
	var missingErr *client.FieldMissingError
	switch {
	case errors.As(err, &parseErr):
		return scenario.ParseError
	case errors.As(err, &missingErr):
		return scenario.FieldMissing
	}
	return scenario.AssertionFailure
}

// notRun returns a failed result for every expectation of steps[from:].
func notRun(steps []scenario.Step, from int, reason string) []scenario.ExpectationResult {
	var results []scenario.ExpectationResult
	for _, step := range steps[from:] {
		for _, e := range step.Expect {
			results = append(results, scenario.ExpectationResult{
				Step:        step.Label(),
				Expectation: e.Describe(),
				Message:     reason,
			})
		}
	}
	return results
}

func interrupted(s *scenario.Scenario, msg string) scenario.Outcome {
	return scenario.Outcome{
		Scenario:     s.Name,
		Collaborator: s.Collaborator,
		Verdict:      scenario.Interrupted,
		Message:      msg,
		Results:      notRun(s.Steps, 0, "not evaluated: run cancelled"),
	}
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
