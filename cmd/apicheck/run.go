package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/apicheck/apicheck/config"
	"github.com/apicheck/apicheck/internal/docker"
	"github.com/apicheck/apicheck/internal/report"
	"github.com/apicheck/apicheck/internal/web"
	"github.com/apicheck/apicheck/runner"
	"github.com/apicheck/apicheck/scenario"
	"github.com/apicheck/apicheck/suite"
)

// localEchoNamespace labels the containers started by --local-echo.
const localEchoNamespace = "apicheck-cli"

type runOptions struct {
	Suites      []string
	ScenarioDir string
	JSONPath    string
	MetricsPath string
	Name        string
	Offline     bool
	LocalEcho   bool
	Concurrency int
}

func (o *runOptions) addFlags(cmd *cobra.Command) {
	cmd.Flags().StringSliceVar(&o.Suites, "suite", nil, fmt.Sprintf("Suites to run, any of %v. Defaults to all of them", suite.Names()))
	cmd.Flags().StringVar(&o.ScenarioDir, "scenarios", "", "Directory of YAML/JSON scenario files to run. Without --suite, only these are run")
	cmd.Flags().StringVar(&o.JSONPath, "json", "", "Write a JSON report to this path, or - for stdout")
	cmd.Flags().StringVar(&o.MetricsPath, "metrics-file", "", "Write Prometheus metrics in the textfile format to this path")
	cmd.Flags().StringVar(&o.Name, "name", "", "A name to attach to the JSON report, e.g. 'nightly'")
	cmd.Flags().BoolVar(&o.Offline, "offline", false, "Run against in-process fakes of every collaborator instead of the real services")
	cmd.Flags().BoolVar(&o.LocalEcho, "local-echo", false, "Start the echo collaborator locally in Docker")
	cmd.Flags().IntVar(&o.Concurrency, "concurrency", 0, "Override APICHECK_CONCURRENCY")
}

// selectScenarios returns the catalog suites and scenario files requested by the options.
func (o *runOptions) selectScenarios() ([]scenario.Scenario, error) {
	var scenarios []scenario.Scenario
	if len(o.Suites) > 0 || o.ScenarioDir == "" {
		selected, err := suite.Select(o.Suites...)
		if err != nil {
			return nil, err
		}
		scenarios = append(scenarios, selected...)
	}
	if o.ScenarioDir != "" {
		fromFiles, err := scenario.LoadDir(o.ScenarioDir)
		if err != nil {
			return nil, err
		}
		scenarios = append(scenarios, fromFiles...)
	}
	return scenarios, nil
}

func newLogger(cfg *config.Config) *logrus.Logger {
	log := logrus.New()
	log.SetOutput(os.Stderr)
	log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	if cfg.DebugLoggingEnabled {
		log.SetLevel(logrus.DebugLevel)
	}
	return log
}

// run executes the selected scenarios and writes the reports. Returns the process exit code.
func run(ctx context.Context, opts *runOptions) (int, error) {
	cfg, err := config.NewConfigFromEnvVars()
	if err != nil {
		return 2, err
	}
	log := newLogger(cfg)
	scenarios, err := opts.selectScenarios()
	if err != nil {
		return 2, err
	}

	if opts.Offline {
		fakes, err := web.NewFakeCollaborators()
		if err != nil {
			return 2, err
		}
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := fakes.Shutdown(shutdownCtx); err != nil {
				fakes.Close()
			}
		}()
		cfg = cfg.WithBaseURLs(fakes.BaseURLs())
		log.WithField("url", fakes.URL).Info("Running against in-process fake collaborators")
	}
	if opts.LocalEcho && !opts.Offline {
		deployer, err := docker.NewDeployer(localEchoNamespace, cfg, log)
		if err != nil {
			return 2, fmt.Errorf("failed to connect to docker: %w", err)
		}
		// containers left behind by a run which was killed before it could destroy them
		if err := deployer.Cleanup(ctx); err != nil {
			log.WithError(err).Warn("Failed to remove stale local collaborators")
		}
		dep, err := deployer.DeployEcho(ctx)
		if err != nil {
			return 2, err
		}
		defer dep.Destroy(false)
		cfg = dep.Apply(cfg)
	}

	var runnerOpts []runner.Opt
	runnerOpts = append(runnerOpts, runner.WithLogger(log))
	if opts.Concurrency > 0 {
		runnerOpts = append(runnerOpts, runner.WithConcurrency(opts.Concurrency))
	}
	r := runner.New(cfg, runnerOpts...)

	log.WithField("scenarios", len(scenarios)).Info("Running checks")
	start := time.Now()
	outcomes := r.RunAll(ctx, scenarios)
	rep := report.New(opts.Name, start, outcomes)

	// keep stdout clean when the JSON report goes there
	textOut := os.Stdout
	if opts.JSONPath == "-" {
		textOut = os.Stderr
	}
	if err := rep.WriteText(textOut, report.ColorEnabled(textOut)); err != nil {
		return 2, err
	}
	if opts.JSONPath != "" {
		if err := writeFile(opts.JSONPath, rep.WriteJSON); err != nil {
			return 2, fmt.Errorf("failed to write JSON report: %w", err)
		}
	}
	if opts.MetricsPath != "" {
		m := report.NewMetrics()
		m.Observe(rep)
		if err := m.WriteTextfile(opts.MetricsPath); err != nil {
			return 2, fmt.Errorf("failed to write metrics: %w", err)
		}
	}
	if ctx.Err() != nil {
		log.Warn("Run was interrupted")
	}
	return rep.ExitCode(), nil
}

func writeFile(path string, write func(w io.Writer) error) error {
	if path == "-" {
		return write(os.Stdout)
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := write(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
