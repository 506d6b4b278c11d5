// Package observability exposes per-run Prometheus metrics and writes them in
// the node_exporter textfile format.
package observability

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "aqireport"

// Metrics holds the gauges describing a single report run.
type Metrics struct {
	RowsRead       prometheus.Gauge
	RowsDropped    prometheus.Gauge
	RowsRetained   prometheus.Gauge
	StageDuration  *prometheus.GaugeVec // labels: stage={load,clean,aggregate,render,compose}
	ChartsRendered prometheus.Gauge
	ReportPages    prometheus.Gauge
	LastSuccess    prometheus.Gauge

	registry *prometheus.Registry
}

// NewMetrics creates the run metrics on a fresh registry so each run, and
// each test, starts from zero.
func NewMetrics() *Metrics {
	m := &Metrics{
		RowsRead: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "rows_read",
			Help:      "Data rows read from the input file.",
		}),
		RowsDropped: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "rows_dropped",
			Help:      "Rows dropped because their timestamp could not be parsed.",
		}),
		RowsRetained: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "rows_retained",
			Help:      "Rows kept after cleaning.",
		}),
		StageDuration: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "stage_duration_seconds",
			Help:      "Wall time spent in each pipeline stage.",
		}, []string{"stage"}),
		ChartsRendered: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "charts_rendered",
			Help:      "Charts rendered into the report.",
		}),
		ReportPages: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "report_pages",
			Help:      "Pages in the written report.",
		}),
		LastSuccess: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_success_timestamp_seconds",
			Help:      "Unix time the last report was written.",
		}),
		registry: prometheus.NewRegistry(),
	}
	m.registry.MustRegister(
		m.RowsRead,
		m.RowsDropped,
		m.RowsRetained,
		m.StageDuration,
		m.ChartsRendered,
		m.ReportPages,
		m.LastSuccess,
	)
	return m
}

// ObserveStage records how long a stage took.
func (m *Metrics) ObserveStage(stage string, d time.Duration) {
	m.StageDuration.WithLabelValues(stage).Set(d.Seconds())
}

// MarkSuccess records the time the report was written.
func (m *Metrics) MarkSuccess(at time.Time) {
	m.LastSuccess.Set(float64(at.Unix()))
}

// Registry returns the registry holding the run metrics.
func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

// WriteTextfile writes the metrics to path atomically in text exposition format.
func (m *Metrics) WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, m.registry); err != nil {
		return fmt.Errorf("write metrics %s: %w", path, err)
	}
	return nil
}
