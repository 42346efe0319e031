// Package metrics exposes Prometheus instrumentation for lookups and verdicts.
//
// Metrics live in their own registry so batch runs can dump them to a
// node_exporter textfile and the HTTP server can serve them on /metrics.
package metrics

import (
	"context"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/ppiankov/groundcheck/internal/knowledge"
	"github.com/ppiankov/groundcheck/internal/model"
)

const namespace = "groundcheck"

// Lookup results
const (
	ResultFound   = "found"
	ResultMissing = "missing"
	ResultError   = "error"
)

// Lookup layers. "resolver" sees every lookup the verifier makes, "remote"
// only those that reach the knowledge service (cache misses).
const (
	LayerResolver = "resolver"
	LayerRemote   = "remote"
)

// Metrics holds the collectors of one registry
type Metrics struct {
	registry *prometheus.Registry

	LookupsTotal     *prometheus.CounterVec   // layer, result
	LookupDuration   *prometheus.HistogramVec // layer
	VerdictsTotal    *prometheus.CounterVec   // outcome
	CasesTotal       prometheus.Counter
	OverriddenTotal  prometheus.Counter
	HallucinationPct prometheus.Gauge
	LastRunTimestamp prometheus.Gauge
}

// New creates metrics registered in a fresh registry
func New() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,
		LookupsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "lookups_total",
			Help:      "Knowledge lookups by layer and result",
		}, []string{"layer", "result"}),
		LookupDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "lookup_duration_seconds",
			Help:      "Knowledge lookup latency by layer",
			Buckets:   []float64{0.001, 0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 15},
		}, []string{"layer"}),
		VerdictsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "verdicts_total",
			Help:      "Verifications by outcome",
		}, []string{"outcome"}),
		CasesTotal: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cases_total",
			Help:      "Cases evaluated in batch runs",
		}),
		OverriddenTotal: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "overridden_total",
			Help:      "Cases whose human label differs from the automatic verdict",
		}),
		HallucinationPct: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "hallucination_rate_percent",
			Help:      "Hallucination rate of the last completed run",
		}),
		LastRunTimestamp: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_run_timestamp_seconds",
			Help:      "Unix time of the last completed run",
		}),
	}
}

// Registry returns the underlying registry
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// ObserveEvaluation records a single verdict
func (m *Metrics) ObserveEvaluation(eval model.Evaluation) {
	m.VerdictsTotal.WithLabelValues(string(eval.Outcome)).Inc()
}

// ObserveReport records the aggregate figures of a completed run
func (m *Metrics) ObserveReport(report *model.Report) {
	if report == nil {
		return
	}
	m.CasesTotal.Add(float64(report.Summary.Total))
	m.OverriddenTotal.Add(float64(report.Summary.Overridden))
	m.HallucinationPct.Set(report.Summary.Rate)
	m.LastRunTimestamp.Set(float64(report.GeneratedAt.Unix()))
}

// WriteTextfile writes the registry in the text exposition format
// for the node_exporter textfile collector.
func (m *Metrics) WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, m.registry); err != nil {
		return fmt.Errorf("write metrics textfile: %w", err)
	}
	return nil
}

// Instrument wraps src so each lookup is counted under layer
func (m *Metrics) Instrument(src knowledge.Source, layer string) knowledge.Source {
	return &InstrumentedSource{Source: src, metrics: m, layer: layer}
}

// InstrumentedSource counts and times lookups of the wrapped source
type InstrumentedSource struct {
	knowledge.Source
	metrics *Metrics
	layer   string
}

// Page delegates and records the result
func (s *InstrumentedSource) Page(ctx context.Context, title string) (model.Article, error) {
	start := time.Now()
	article, err := s.Source.Page(ctx, title)
	s.metrics.LookupDuration.WithLabelValues(s.layer).Observe(time.Since(start).Seconds())

	result := ResultFound
	switch {
	case err != nil:
		result = ResultError
	case !article.Exists:
		result = ResultMissing
	}
	s.metrics.LookupsTotal.WithLabelValues(s.layer, result).Inc()

	return article, err
}
