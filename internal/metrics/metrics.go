// Package metrics exports service metrics in Prometheus format.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "notesummary"

// Metrics holds the collectors for the summary pipeline and note store.
// All recording methods are safe to call on a nil *Metrics.
type Metrics struct {
	registry *prometheus.Registry

	notesCreated     prometheus.Counter
	notesStored      prometheus.Gauge
	summaries        *prometheus.CounterVec
	generateDuration prometheus.Histogram
	backendErrors    *prometheus.CounterVec
	modelPulls       *prometheus.CounterVec
}

// New creates the collectors on a fresh registry. Go runtime and process
// collectors are registered alongside.
func New() *Metrics {
	registry := prometheus.NewRegistry()

	m := &Metrics{
		registry: registry,
		notesCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "notes",
			Name:      "created_total",
			Help:      "Total number of notes created",
		}),
		notesStored: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "notes",
			Name:      "stored",
			Help:      "Number of notes currently held by the store",
		}),
		summaries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "summary",
			Name:      "generated_total",
			Help:      "Summaries generated, by extraction tier",
		}, []string{"tier"}),
		generateDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "summary",
			Name:      "generate_duration_seconds",
			Help:      "Latency of model generate calls in seconds",
			Buckets:   []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60, 120},
		}),
		backendErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "backend",
			Name:      "errors_total",
			Help:      "Model backend failures, by kind",
		}, []string{"kind"}),
		modelPulls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "backend",
			Name:      "model_pulls_total",
			Help:      "Model pull attempts, by result",
		}, []string{"result"}),
	}

	registry.MustRegister(
		m.notesCreated,
		m.notesStored,
		m.summaries,
		m.generateDuration,
		m.backendErrors,
		m.modelPulls,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// Registry exposes the underlying registry, mainly for tests.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// NoteCreated counts a persisted note and records the new store size.
func (m *Metrics) NoteCreated(stored int) {
	if m == nil {
		return
	}
	m.notesCreated.Inc()
	m.notesStored.Set(float64(stored))
}

// SetStored records the store size, e.g. after loading the snapshot.
func (m *Metrics) SetStored(stored int) {
	if m == nil {
		return
	}
	m.notesStored.Set(float64(stored))
}

// SummaryGenerated counts a summary produced by the given extraction tier.
func (m *Metrics) SummaryGenerated(tier string, d time.Duration) {
	if m == nil {
		return
	}
	m.summaries.WithLabelValues(tier).Inc()
	m.generateDuration.Observe(d.Seconds())
}

// BackendError counts a model backend failure of the given kind.
func (m *Metrics) BackendError(kind string) {
	if m == nil {
		return
	}
	m.backendErrors.WithLabelValues(kind).Inc()
}

// ModelPull counts a pull attempt; result is "success" or "failure".
func (m *Metrics) ModelPull(result string) {
	if m == nil {
		return
	}
	m.modelPulls.WithLabelValues(result).Inc()
}
