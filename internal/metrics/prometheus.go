package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics contains all Prometheus metrics for the langcoach services
type Metrics struct {
	// Transcription proxy metrics
	TranscriptionRequests  prometheus.Counter
	TranscriptionSuccesses prometheus.Counter
	TranscriptionFailures  *prometheus.CounterVec
	TranscriptionDuration  prometheus.Histogram
	AudioPayloadSize       prometheus.Histogram

	// Session metrics
	SessionsRecorded *prometheus.CounterVec
	CoachReplies     *prometheus.CounterVec

	// HTTP API metrics
	HTTPRequests        *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec
}

// New creates all metrics and registers them with reg. Pass
// prometheus.DefaultRegisterer in binaries and a fresh registry in tests.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		TranscriptionRequests: f.NewCounter(prometheus.CounterOpts{
			Name: "langcoach_transcription_requests_total",
			Help: "Total number of transcription requests received by the proxy",
		}),
		TranscriptionSuccesses: f.NewCounter(prometheus.CounterOpts{
			Name: "langcoach_transcription_successes_total",
			Help: "Total number of transcriptions relayed successfully",
		}),
		TranscriptionFailures: f.NewCounterVec(prometheus.CounterOpts{
			Name: "langcoach_transcription_failures_total",
			Help: "Total number of failed transcription requests by reason",
		}, []string{"reason"}),
		TranscriptionDuration: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "langcoach_transcription_duration_seconds",
			Help:    "Duration of upstream transcription calls",
			Buckets: prometheus.ExponentialBuckets(0.1, 2, 10), // 100ms to ~1.5 minutes
		}),
		AudioPayloadSize: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "langcoach_audio_payload_bytes",
			Help:    "Size of decoded audio payloads in bytes",
			Buckets: prometheus.ExponentialBuckets(1024, 2, 14), // 1KB to ~16MB
		}),

		SessionsRecorded: f.NewCounterVec(prometheus.CounterOpts{
			Name: "langcoach_sessions_recorded_total",
			Help: "Total number of practice sessions recorded by outcome",
		}, []string{"status"}),
		CoachReplies: f.NewCounterVec(prometheus.CounterOpts{
			Name: "langcoach_coach_replies_total",
			Help: "Total number of tutor replies by provider",
		}, []string{"provider"}),

		HTTPRequests: f.NewCounterVec(prometheus.CounterOpts{
			Name: "langcoach_http_requests_total",
			Help: "Total number of HTTP requests",
		}, []string{"method", "endpoint", "status_code"}),
		HTTPRequestDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "langcoach_http_request_duration_seconds",
			Help:    "Duration of HTTP requests",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "endpoint"}),
	}
}

// RecordTranscriptionRequest increments the transcription requests counter
func (m *Metrics) RecordTranscriptionRequest(payloadBytes int) {
	m.TranscriptionRequests.Inc()
	m.AudioPayloadSize.Observe(float64(payloadBytes))
}

// RecordTranscriptionSuccess records a successful transcription
func (m *Metrics) RecordTranscriptionSuccess(durationSeconds float64) {
	m.TranscriptionSuccesses.Inc()
	m.TranscriptionDuration.Observe(durationSeconds)
}

// RecordTranscriptionFailure records a failed transcription. Duration is only
// observed when the upstream call was made.
func (m *Metrics) RecordTranscriptionFailure(reason string, durationSeconds float64) {
	m.TranscriptionFailures.WithLabelValues(reason).Inc()
	if durationSeconds > 0 {
		m.TranscriptionDuration.Observe(durationSeconds)
	}
}

func (m *Metrics) RecordSession(status string) {
	m.SessionsRecorded.WithLabelValues(status).Inc()
}

func (m *Metrics) RecordCoachReply(provider string) {
	m.CoachReplies.WithLabelValues(provider).Inc()
}

// RecordHTTPRequest records an HTTP request
func (m *Metrics) RecordHTTPRequest(method, endpoint, statusCode string, durationSeconds float64) {
	m.HTTPRequests.WithLabelValues(method, endpoint, statusCode).Inc()
	m.HTTPRequestDuration.WithLabelValues(method, endpoint).Observe(durationSeconds)
}
