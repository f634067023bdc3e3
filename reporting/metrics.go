package reporting

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/perfgo/ctsrun/model"
)

const (
	// MetricsFilename is the name of the metrics textfile in a run directory.
	MetricsFilename = "metrics.prom"

	metricsNamespace = "ctsrun"
)

// MetricsSink counts verdicts in a registry of its own and writes them in
// the Prometheus text format on completion, for node_exporter's textfile
// collector.
type MetricsSink struct {
	path     string
	registry *prometheus.Registry

	cases    *prometheus.CounterVec
	duration prometheus.Gauge
	complete prometheus.Gauge
}

// NewMetricsSink creates a MetricsSink writing to path. Every series carries
// the suite and target labels.
func NewMetricsSink(path, suite, target string) *MetricsSink {
	labels := prometheus.Labels{"suite": suite, "target": target}
	s := &MetricsSink{
		path:     path,
		registry: prometheus.NewRegistry(),
		cases: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace:   metricsNamespace,
			Name:        "cases_total",
			Help:        "Number of executed cases by verdict.",
			ConstLabels: labels,
		}, []string{"verdict"}),
		duration: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace:   metricsNamespace,
			Name:        "suite_duration_seconds",
			Help:        "Sum of the case durations of the last run.",
			ConstLabels: labels,
		}),
		complete: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace:   metricsNamespace,
			Name:        "suite_complete",
			Help:        "1 if every registered case ran.",
			ConstLabels: labels,
		}),
	}
	s.registry.MustRegister(s.cases, s.duration, s.complete)

	// Export all verdicts, including the ones that never occur.
	for _, st := range []model.Status{model.StatusPass, model.StatusFail, model.StatusSkip} {
		s.cases.WithLabelValues(string(st))
	}
	return s
}

// Consume counts one case.
func (s *MetricsSink) Consume(e model.Entry) error {
	s.cases.WithLabelValues(string(e.Verdict.Status)).Inc()
	s.duration.Add(e.Duration.Seconds())
	return nil
}

// Complete writes the textfile.
func (s *MetricsSink) Complete(r *model.Report) error {
	if r.Finalized {
		s.complete.Set(1)
	}
	if err := prometheus.WriteToTextfile(s.path, s.registry); err != nil {
		return fmt.Errorf("failed to write metrics: %w", err)
	}
	return nil
}

// Registry returns the registry holding the sink's metrics.
func (s *MetricsSink) Registry() *prometheus.Registry {
	return s.registry
}
