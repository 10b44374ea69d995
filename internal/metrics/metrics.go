// Package metrics counts what a run processed and exports the counters in
// the Prometheus text format, suitable for the node_exporter textfile
// collector.
package metrics

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "json2bytes"

// Drop reasons.
const (
	DropPredicate = "predicate"
	DropDuplicate = "duplicate"
)

// Error kinds.
const (
	ErrorOpen      = "open"
	ErrorRead      = "read"
	ErrorParse     = "parse"
	ErrorWrite     = "write"
	ErrorPredicate = "predicate"
)

// Metrics holds the run counters. A nil *Metrics records nothing.
type Metrics struct {
	registry *prometheus.Registry

	documents *prometheus.CounterVec // by input
	emitted   prometheus.Counter
	bytes     prometheus.Counter
	dropped   *prometheus.CounterVec // by reason
	errors    *prometheus.CounterVec // by kind
}

func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),

		documents: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "documents_total",
			Help:      "Total number of JSON documents decoded",
		}, []string{"input"}),

		emitted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "strings_emitted_total",
			Help:      "Total number of strings written to the output",
		}),

		bytes: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "bytes_emitted_total",
			Help:      "Total number of bytes written to the output, framing included",
		}),

		dropped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "strings_dropped_total",
			Help:      "Total number of qualifying strings that were not written",
		}, []string{"reason"}), // reason: predicate, duplicate

		errors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "errors_total",
			Help:      "Total number of errors that stopped a run",
		}, []string{"kind"}), // kind: open, read, parse, write, predicate
	}

	m.registry.MustRegister(m.documents, m.emitted, m.bytes, m.dropped, m.errors)
	return m
}

func (m *Metrics) DocumentDecoded(input string) {
	if m == nil {
		return
	}
	m.documents.WithLabelValues(input).Inc()
}

// StringEmitted records one written match of n bytes.
func (m *Metrics) StringEmitted(n int) {
	if m == nil {
		return
	}
	m.emitted.Inc()
	m.bytes.Add(float64(n))
}

func (m *Metrics) StringDropped(reason string) {
	if m == nil {
		return
	}
	m.dropped.WithLabelValues(reason).Inc()
}

func (m *Metrics) Error(kind string) {
	if m == nil {
		return
	}
	m.errors.WithLabelValues(kind).Inc()
}

// WriteFile atomically writes all counters to path in the text format.
func (m *Metrics) WriteFile(path string) error {
	if m == nil {
		return nil
	}
	if err := prometheus.WriteToTextfile(path, m.registry); err != nil {
		return fmt.Errorf("write metrics file %s: %w", path, err)
	}
	return nil
}
