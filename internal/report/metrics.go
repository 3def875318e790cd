package report

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/apicheck/apicheck/scenario"
)

// Metrics holds the Prometheus metrics of a run in a private registry, so they can be written out as a
// node_exporter textfile at the end of the run.
type Metrics struct {
	registry  *prometheus.Registry
	scenarios *prometheus.CounterVec
	duration  *prometheus.HistogramVec
	lastRun   prometheus.Gauge
}

func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		scenarios: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "apicheck_scenarios_total",
			Help: "Total number of scenarios run, by collaborator and verdict",
		}, []string{"collaborator", "verdict"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "apicheck_scenario_duration_seconds",
			Help:    "Time taken to run a scenario, by collaborator",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		}, []string{"collaborator"}),
		lastRun: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "apicheck_last_run_timestamp_seconds",
			Help: "Unix time at which the last run started",
		}),
	}
	m.registry.MustRegister(m.scenarios, m.duration, m.lastRun)
	return m
}

// Observe records every outcome of `r`.
func (m *Metrics) Observe(r *Report) {
	m.lastRun.Set(float64(r.StartedAt.Unix()))
	for _, o := range r.Outcomes {
		m.scenarios.WithLabelValues(o.Collaborator, string(o.Verdict)).Inc()
		if o.Verdict != scenario.Skipped {
			m.duration.WithLabelValues(o.Collaborator).Observe(o.Duration.Seconds())
		}
	}
}

func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// WriteTextfile atomically writes the metrics to `path` in the Prometheus text format.
func (m *Metrics) WriteTextfile(path string) error {
	return prometheus.WriteToTextfile(path, m.registry)
}
