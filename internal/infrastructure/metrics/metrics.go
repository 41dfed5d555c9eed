// Package metrics contains Prometheus instrumentation of the media pipeline
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/Conte777/MediaFlow/internal/domain/media/deps"
	"github.com/Conte777/MediaFlow/internal/domain/media/entities"
)

// Metrics holds all Prometheus metrics for the media pipeline
type Metrics struct {
	// Request metrics
	RequestsTotal *prometheus.CounterVec
	InFlight      prometheus.Gauge

	// Acquisition metrics
	AcquisitionDuration *prometheus.HistogramVec
	DeliveredBytes      prometheus.Counter

	// Retention metrics
	SweptEntries prometheus.Counter
	Sweeps       prometheus.Counter
}

var _ deps.MetricsRecorder = (*Metrics)(nil)

// NewMetrics creates all counters and gauges on the given registerer
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		RequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "mediaflow_requests_total",
				Help: "Total number of processed links by outcome",
			},
			[]string{"platform", "kind", "outcome"},
		),
		InFlight: factory.NewGauge(prometheus.GaugeOpts{
			Name: "mediaflow_requests_in_flight",
			Help: "Current number of requests holding an admission slot",
		}),

		AcquisitionDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "mediaflow_acquisition_duration_seconds",
				Help:    "Duration of media acquisition in seconds",
				Buckets: []float64{0.5, 1, 2.5, 5, 10, 30, 60, 120, 300},
			},
			[]string{"platform"},
		),
		DeliveredBytes: factory.NewCounter(prometheus.CounterOpts{
			Name: "mediaflow_delivered_bytes_total",
			Help: "Total size of files uploaded to chats",
		}),

		SweptEntries: factory.NewCounter(prometheus.CounterOpts{
			Name: "mediaflow_swept_entries_total",
			Help: "Total number of stale download entries removed",
		}),
		Sweeps: factory.NewCounter(prometheus.CounterOpts{
			Name: "mediaflow_sweeps_total",
			Help: "Total number of retention sweep cycles",
		}),
	}
}

// NewRegistry creates a registry with the Go runtime and process collectors
func NewRegistry() *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return reg
}

// RecordOutcome records a finished request with its outcome label
func (m *Metrics) RecordOutcome(platform entities.PlatformID, kind entities.ContentKind, outcome string) {
	if outcome == "" {
		outcome = "unknown"
	}
	m.RequestsTotal.WithLabelValues(string(platform), string(kind), outcome).Inc()
}

// RecordAcquisition records how long an acquisition took
func (m *Metrics) RecordAcquisition(platform entities.PlatformID, seconds float64) {
	m.AcquisitionDuration.WithLabelValues(string(platform)).Observe(seconds)
}

// SetInFlight updates the in-flight gauge
func (m *Metrics) SetInFlight(n int) {
	m.InFlight.Set(float64(n))
}

// RecordDeliveredBytes adds an uploaded file size
func (m *Metrics) RecordDeliveredBytes(n int64) {
	// Only add positive values to prevent counter from going backwards
	if n > 0 {
		m.DeliveredBytes.Add(float64(n))
	}
}

// RecordSweep records a retention sweep cycle
func (m *Metrics) RecordSweep(removed int) {
	m.Sweeps.Inc()
	if removed > 0 {
		m.SweptEntries.Add(float64(removed))
	}
}
