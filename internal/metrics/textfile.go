// Package metrics exports the outcome of a gate run in the Prometheus
// text format, for node_exporter's textfile collector.
package metrics

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/fyrsmithlabs/qualitygate/internal/gate"
)

// Collector holds the gauges describing the most recent gate run.
type Collector struct {
	registry *prometheus.Registry

	passed       prometheus.Gauge
	setupFailure prometheus.Gauge
	exitStatus   prometheus.Gauge
	duration     prometheus.Gauge
	lastRun      prometheus.Gauge
}

// NewCollector registers the gate gauges on a private registry. project
// is attached to every series as a constant label.
func NewCollector(project string) *Collector {
	labels := prometheus.Labels{"project": project}
	gauge := func(name, help string) prometheus.Gauge {
		return prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace:   "qualitygate",
			Name:        name,
			Help:        help,
			ConstLabels: labels,
		})
	}

	c := &Collector{
		registry:     prometheus.NewRegistry(),
		passed:       gauge("passed", "1 if the last gate run passed, 0 otherwise."),
		setupFailure: gauge("setup_failure", "1 if the last gate run failed before the checker produced a verdict."),
		exitStatus:   gauge("checker_exit_status", "Exit status of the checker in the last run, -1 if it did not run to completion."),
		duration:     gauge("duration_seconds", "Wall time of the last gate run."),
		lastRun:      gauge("last_run_timestamp_seconds", "Unix time the last gate run started."),
	}
	c.registry.MustRegister(c.passed, c.setupFailure, c.exitStatus, c.duration, c.lastRun)
	return c
}

// Observe records res.
func (c *Collector) Observe(res gate.Result) {
	c.passed.Set(boolGauge(res.Decision == gate.Pass))
	c.setupFailure.Set(boolGauge(res.SetupFailed()))
	c.exitStatus.Set(float64(res.CheckerExitStatus()))
	c.duration.Set(res.Duration.Seconds())
	if !res.Started.IsZero() {
		c.lastRun.Set(float64(res.Started.UnixNano()) / 1e9)
	}
}

// Gatherer exposes the registry, mainly for tests.
func (c *Collector) Gatherer() prometheus.Gatherer {
	return c.registry
}

// WriteTextfile writes the current gauges to path atomically.
func (c *Collector) WriteTextfile(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("creating metrics dir: %w", err)
		}
	}
	if err := prometheus.WriteToTextfile(path, c.registry); err != nil {
		return fmt.Errorf("writing metrics textfile %s: %w", path, err)
	}
	return nil
}

func boolGauge(b bool) float64 {
	if b {
		return 1
	}
	return 0
}
