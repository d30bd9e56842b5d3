package web

import (
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/hyperifyio/gonarrative/internal/narrative"
	"github.com/hyperifyio/gonarrative/internal/session"
)

type metrics struct {
	registry    *prometheus.Registry
	generations *prometheus.CounterVec
	latency     prometheus.Histogram
	uploads     *prometheus.CounterVec
	sessions    prometheus.Gauge
}

func newMetrics() *metrics {
	m := &metrics{
		registry: prometheus.NewRegistry(),
		generations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "gonarrative",
			Name:      "generations_total",
			Help:      "Narrative generation attempts by outcome.",
		}, []string{"outcome"}),
		latency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "gonarrative",
			Name:      "generation_duration_seconds",
			Help:      "Time spent waiting for the text-generation service.",
			Buckets:   []float64{0.5, 1, 2, 5, 10, 20, 30, 60},
		}),
		uploads: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "gonarrative",
			Name:      "uploads_total",
			Help:      "Metric table uploads by outcome.",
		}, []string{"outcome"}),
		sessions: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "gonarrative",
			Name:      "sessions_active",
			Help:      "Sessions currently held in memory.",
		}),
	}
	m.registry.MustRegister(
		m.generations, m.latency, m.uploads, m.sessions,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

func (m *metrics) observeGeneration(start time.Time, err error) {
	outcome := "ok"
	switch {
	case err == nil:
		m.latency.Observe(time.Since(start).Seconds())
	case errors.Is(err, session.ErrGenerationInProgress):
		outcome = "busy"
	case errors.Is(err, session.ErrSessionChanged):
		outcome = "discarded"
	case narrative.IsKind(err, narrative.RequestFailed):
		outcome = "failed"
		m.latency.Observe(time.Since(start).Seconds())
	default:
		outcome = "rejected"
	}
	m.generations.WithLabelValues(outcome).Inc()
}
