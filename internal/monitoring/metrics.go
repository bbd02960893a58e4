// Package monitoring records Prometheus metrics for analysis runs.
package monitoring

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rotisserie/eris"
)

const namespace = "claims"

// Metrics holds the counters and histograms for one runner.
type Metrics struct {
	registry *prometheus.Registry

	RowsRead      prometheus.Counter
	RowsRetained  prometheus.Counter
	RowsDropped   *prometheus.CounterVec // labels: reason
	UnparsedDates prometheus.Counter

	StageDuration *prometheus.HistogramVec // labels: stage
	StageFailures *prometheus.CounterVec   // labels: stage
	RunsTotal     *prometheus.CounterVec   // labels: outcome={success,partial,failed}
}

// NewMetrics creates metrics registered on a fresh registry, so several
// runners (or tests) never collide on registration.
func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		RowsRead: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rows_read_total",
			Help:      "Raw claim rows handed to the cleaning stage.",
		}),
		RowsRetained: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rows_retained_total",
			Help:      "Claim rows that passed the validity filter.",
		}),
		RowsDropped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rows_dropped_total",
			Help:      "Claim rows removed by the validity filter, by reason.",
		}, []string{"reason"}),
		UnparsedDates: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "unparsed_dates_total",
			Help:      "Non-empty date cells that could not be parsed.",
		}),
		StageDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "stage_duration_seconds",
			Help:      "Wall time of each analysis stage.",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.5, 1, 2.5, 5, 10, 30, 60},
		}, []string{"stage"}),
		StageFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "stage_failures_total",
			Help:      "Analysis stages that returned an error.",
		}, []string{"stage"}),
		RunsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "runs_total",
			Help:      "Completed runs by outcome.",
		}, []string{"outcome"}),
	}

	m.registry.MustRegister(
		m.RowsRead,
		m.RowsRetained,
		m.RowsDropped,
		m.UnparsedDates,
		m.StageDuration,
		m.StageFailures,
		m.RunsTotal,
	)
	return m
}

// Registry exposes the registry for gathering.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// ObserveCleaning records the row counts of one cleaning pass.
func (m *Metrics) ObserveCleaning(raw, retained, unparsed int, dropped map[string]int) {
	m.RowsRead.Add(float64(raw))
	m.RowsRetained.Add(float64(retained))
	m.UnparsedDates.Add(float64(unparsed))
	for reason, n := range dropped {
		m.RowsDropped.WithLabelValues(reason).Add(float64(n))
	}
}

// ObserveStage records a stage's duration and, when err is non-nil, a failure.
func (m *Metrics) ObserveStage(stage string, d time.Duration, err error) {
	m.StageDuration.WithLabelValues(stage).Observe(d.Seconds())
	if err != nil {
		m.StageFailures.WithLabelValues(stage).Inc()
	}
}

// ObserveRun counts a finished run under outcome.
func (m *Metrics) ObserveRun(outcome string) {
	m.RunsTotal.WithLabelValues(outcome).Inc()
}

// WriteTextfile writes every metric to path in the Prometheus text format,
// for node_exporter's textfile collector.
func (m *Metrics) WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, m.registry); err != nil {
		return eris.Wrapf(err, "monitoring: write metrics to %s", path)
	}
	return nil
}
