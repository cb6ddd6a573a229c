// Package metrics exposes parse and comparison counters through Prometheus
// collectors on a private registry.
package metrics

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/coolbeans/assockit/pkg/assocparser"
	"github.com/coolbeans/assockit/pkg/compare"
	"github.com/coolbeans/assockit/pkg/report"
)

const namespace = "assockit"

// Metrics holds the collectors for one process.
type Metrics struct {
	registry *prometheus.Registry

	LinesTotal        *prometheus.CounterVec
	AssociationsTotal *prometheus.CounterVec
	SkippedTotal      *prometheus.CounterVec
	MessagesTotal     *prometheus.CounterVec
	ParseDuration     *prometheus.HistogramVec
	ComparisonsTotal  *prometheus.CounterVec
}

// New creates the collectors and registers them on a fresh registry.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),

		LinesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "parse",
				Name:      "lines_total",
				Help:      "Total number of data lines read",
			},
			[]string{"dataset", "format"},
		),

		AssociationsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "parse",
				Name:      "associations_total",
				Help:      "Total number of associations produced",
			},
			[]string{"dataset", "format"},
		),

		SkippedTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "parse",
				Name:      "skipped_lines_total",
				Help:      "Total number of data lines that produced no association",
			},
			[]string{"dataset", "format"},
		),

		MessagesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "report",
				Name:      "messages_total",
				Help:      "Total number of report messages by level and rule",
			},
			[]string{"dataset", "level", "rule"},
		),

		ParseDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "parse",
				Name:      "duration_seconds",
				Help:      "Time spent parsing one file",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"format"},
		),

		ComparisonsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "compare",
				Name:      "associations_total",
				Help:      "Total number of compared associations by classification",
			},
			[]string{"classification"},
		),
	}

	m.registry.MustRegister(
		m.LinesTotal,
		m.AssociationsTotal,
		m.SkippedTotal,
		m.MessagesTotal,
		m.ParseDuration,
		m.ComparisonsTotal,
	)
	return m
}

// Registry returns the private registry, e.g. for an HTTP handler.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// ObserveCollection records the volume and messages of one parsed file.
func (m *Metrics) ObserveCollection(dataset string, collection *assocparser.Collection, elapsed time.Duration) {
	format := string(collection.Declaration.Format)
	m.LinesTotal.WithLabelValues(dataset, format).Add(float64(collection.Report.LineCount()))
	m.AssociationsTotal.WithLabelValues(dataset, format).Add(float64(collection.Report.AssociationCount()))
	m.SkippedTotal.WithLabelValues(dataset, format).Add(float64(collection.Skipped))
	m.ObserveReport(dataset, collection.Report)
	m.ParseDuration.WithLabelValues(format).Observe(elapsed.Seconds())
}

// ObserveReport counts report messages by level and rule.
func (m *Metrics) ObserveReport(dataset string, rep *report.Report) {
	for _, message := range rep.All() {
		m.MessagesTotal.WithLabelValues(dataset, string(message.Level), message.Rule).Inc()
	}
}

// ObserveComparison records the classification tallies of a comparison.
func (m *Metrics) ObserveComparison(result *compare.Result) {
	m.ComparisonsTotal.WithLabelValues(string(compare.Exact)).Add(float64(result.Exact))
	m.ComparisonsTotal.WithLabelValues(string(compare.Close)).Add(float64(result.Close))
	m.ComparisonsTotal.WithLabelValues(string(compare.Unmatched)).Add(float64(result.Unmatched))
}

// WriteTextfile writes the registry in the text exposition format for the
// node-exporter textfile collector.
func (m *Metrics) WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, m.registry); err != nil {
		return fmt.Errorf("writing metrics textfile: %w", err)
	}
	return nil
}
