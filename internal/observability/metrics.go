// Package observability holds the Prometheus metrics and OpenTelemetry spans
// recorded while narrating a session.
package observability

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Status label values.
const (
	StatusOK    = "ok"
	StatusError = "error"
)

// Job outcome label values.
const (
	OutcomeDone   = "done"
	OutcomeFailed = "failed"
)

// Metrics holds all Prometheus metrics for summarization jobs. A nil *Metrics is
// valid and records nothing.
type Metrics struct {
	// Gateway metrics
	GatewayRequestsTotal  *prometheus.CounterVec
	GatewayLatencySeconds *prometheus.HistogramVec

	// Job metrics
	JobsTotal        *prometheus.CounterVec
	JobChunks        prometheus.Histogram
	JobDurationSecs  prometheus.Histogram
	TranscriptsTotal *prometheus.CounterVec
}

// NewRegistry returns a registry with the Go runtime and process collectors.
func NewRegistry() *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return reg
}

// NewMetrics creates the narrator metrics on reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		GatewayRequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "narrator_gateway_requests_total",
				Help: "Total generation requests sent to the gateway",
			},
			[]string{"phase", "status"},
		),
		GatewayLatencySeconds: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "narrator_gateway_latency_seconds",
				Help:    "Generation request latency",
				Buckets: []float64{0.5, 1, 2, 5, 10, 30, 60, 120, 300, 600},
			},
			[]string{"phase"},
		),
		JobsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "narrator_jobs_total",
				Help: "Total summarization jobs by outcome",
			},
			[]string{"outcome"},
		),
		JobChunks: factory.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "narrator_job_chunks",
				Help:    "Number of chunks planned per job",
				Buckets: []float64{1, 2, 4, 8, 16, 32, 64},
			},
		),
		JobDurationSecs: factory.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "narrator_job_duration_seconds",
				Help:    "Wall time of a summarization job",
				Buckets: []float64{1, 5, 30, 60, 300, 900, 1800, 3600},
			},
		),
		TranscriptsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "narrator_transcriptions_total",
				Help: "Total audio files transcribed by status",
			},
			[]string{"status"},
		),
	}
}

// ObserveGatewayCall records one generation request.
func (m *Metrics) ObserveGatewayCall(phase string, elapsed time.Duration, err error) {
	if m == nil {
		return
	}
	m.GatewayRequestsTotal.WithLabelValues(phase, statusOf(err)).Inc()
	m.GatewayLatencySeconds.WithLabelValues(phase).Observe(elapsed.Seconds())
}

// ObserveJob records a finished job.
func (m *Metrics) ObserveJob(failed bool, chunks int, elapsed time.Duration) {
	if m == nil {
		return
	}
	outcome := OutcomeDone
	if failed {
		outcome = OutcomeFailed
	}
	m.JobsTotal.WithLabelValues(outcome).Inc()
	if chunks > 0 {
		m.JobChunks.Observe(float64(chunks))
	}
	m.JobDurationSecs.Observe(elapsed.Seconds())
}

// ObserveTranscription records one audio file transcription.
func (m *Metrics) ObserveTranscription(err error) {
	if m == nil {
		return
	}
	m.TranscriptsTotal.WithLabelValues(statusOf(err)).Inc()
}

// WriteTextfile dumps g in the text exposition format, for the node_exporter
// textfile collector.
func WriteTextfile(path string, g prometheus.Gatherer) error {
	return prometheus.WriteToTextfile(path, g)
}

// Handler serves g on /metrics.
func Handler(g prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}

func statusOf(err error) string {
	if err != nil {
		return StatusError
	}
	return StatusOK
}
