// Package metrics exposes Prometheus instrumentation for call analyses.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// OutcomeSuccess labels analyses that produced a result; failures use their error kind
const OutcomeSuccess = "success"

// Metrics holds the analysis collectors and the registry they live in
type Metrics struct {
	registry *prometheus.Registry

	AnalysesTotal     *prometheus.CounterVec
	AnalysisDuration  *prometheus.HistogramVec
	InferenceDuration prometheus.Histogram
	AudioBytes        prometheus.Histogram
	InFlight          prometheus.Gauge
}

// New creates the collectors on a fresh registry, alongside Go runtime and process collectors
func New() *Metrics {
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	m := &Metrics{
		registry: registry,
		AnalysesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "callqa_analyses_total",
				Help: "Total number of call analyses by outcome",
			},
			[]string{"outcome"},
		),
		AnalysisDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "callqa_analysis_duration_seconds",
				Help:    "End-to-end analysis latency by outcome",
				Buckets: []float64{1, 5, 10, 20, 30, 60, 120, 300, 600},
			},
			[]string{"outcome"},
		),
		InferenceDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "callqa_inference_duration_seconds",
				Help:    "Latency of the remote inference call",
				Buckets: []float64{1, 5, 10, 20, 30, 60, 120, 300, 600},
			},
		),
		AudioBytes: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "callqa_audio_bytes",
				Help:    "Size of analyzed audio payloads",
				Buckets: prometheus.ExponentialBuckets(64*1024, 2, 10),
			},
		),
		InFlight: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "callqa_analyses_in_flight",
				Help: "Number of analyses currently running",
			},
		),
	}

	registry.MustRegister(m.AnalysesTotal, m.AnalysisDuration, m.InferenceDuration, m.AudioBytes, m.InFlight)
	return m
}

// ObserveAnalysis records one finished analysis
func (m *Metrics) ObserveAnalysis(outcome string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.AnalysesTotal.WithLabelValues(outcome).Inc()
	m.AnalysisDuration.WithLabelValues(outcome).Observe(elapsed.Seconds())
}

// ObserveInference records the latency of one remote call
func (m *Metrics) ObserveInference(elapsed time.Duration) {
	if m == nil {
		return
	}
	m.InferenceDuration.Observe(elapsed.Seconds())
}

// ObserveAudio records the raw size of an analyzed payload
func (m *Metrics) ObserveAudio(size int) {
	if m == nil {
		return
	}
	m.AudioBytes.Observe(float64(size))
}

// Start marks an analysis as running and returns the matching finish func
func (m *Metrics) Start() func() {
	if m == nil {
		return func() {}
	}
	m.InFlight.Inc()
	return m.InFlight.Dec
}

// Handler serves the registry in the Prometheus exposition format
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// Registry returns the underlying registry
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}
