package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics contains all Prometheus metrics for the attendance service
type Metrics struct {
	// Capture cycle metrics
	CapturesStarted  prometheus.Counter
	CaptureOutcomes  *prometheus.CounterVec
	CaptureDuration  prometheus.Histogram
	CaptureInFlight  prometheus.Gauge
	RecordingSeconds prometheus.Histogram

	// Transcription metrics
	TranscriptionDuration *prometheus.HistogramVec

	// Record store metrics
	EntriesRecorded prometheus.Counter
	RecordViews     prometheus.Counter

	// HTTP API metrics
	HTTPRequests        *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec
	HTTPErrors          *prometheus.CounterVec
}

// NewMetrics creates all metrics and registers them with reg.
// Pass prometheus.DefaultRegisterer to expose them through promhttp.Handler.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		// Capture cycle metrics
		CapturesStarted: factory.NewCounter(prometheus.CounterOpts{
			Name: "attendance_captures_started_total",
			Help: "Total number of capture cycles started",
		}),
		CaptureOutcomes: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "attendance_captures_total",
			Help: "Total number of finished capture cycles by outcome",
		}, []string{"outcome"}),
		CaptureDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "attendance_capture_duration_seconds",
			Help:    "Duration of a full capture cycle from trigger to terminal status",
			Buckets: prometheus.ExponentialBuckets(0.5, 2, 8), // 0.5s to ~1 minute
		}),
		CaptureInFlight: factory.NewGauge(prometheus.GaugeOpts{
			Name: "attendance_capture_in_flight",
			Help: "1 while a capture cycle is running",
		}),
		RecordingSeconds: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "attendance_recording_duration_seconds",
			Help:    "Length of captured phrases",
			Buckets: prometheus.LinearBuckets(0.5, 0.5, 20), // 0.5s to 10s
		}),

		// Transcription metrics
		TranscriptionDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "attendance_transcription_duration_seconds",
			Help:    "Duration of transcription requests",
			Buckets: prometheus.ExponentialBuckets(0.1, 2, 10), // 100ms to ~1 minute
		}, []string{"backend", "result"}),

		// Record store metrics
		EntriesRecorded: factory.NewCounter(prometheus.CounterOpts{
			Name: "attendance_entries_recorded_total",
			Help: "Total number of attendance entries appended",
		}),
		RecordViews: factory.NewCounter(prometheus.CounterOpts{
			Name: "attendance_record_views_total",
			Help: "Total number of times today's records were rendered",
		}),

		// HTTP API metrics
		HTTPRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "attendance_http_requests_total",
			Help: "Total number of HTTP requests",
		}, []string{"method", "endpoint", "status_code"}),
		HTTPRequestDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "attendance_http_request_duration_seconds",
			Help:    "Duration of HTTP requests",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "endpoint"}),
		HTTPErrors: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "attendance_http_errors_total",
			Help: "Total number of HTTP errors",
		}, []string{"method", "endpoint", "error_type"}),
	}
}

// RecordCaptureStarted marks a capture cycle as in flight
func (m *Metrics) RecordCaptureStarted() {
	m.CapturesStarted.Inc()
	m.CaptureInFlight.Set(1)
}

// RecordCaptureFinished records the terminal outcome of a capture cycle
func (m *Metrics) RecordCaptureFinished(outcome string, durationSeconds float64) {
	m.CaptureOutcomes.WithLabelValues(outcome).Inc()
	m.CaptureDuration.Observe(durationSeconds)
	m.CaptureInFlight.Set(0)
}

// RecordRecording records the length of a captured phrase
func (m *Metrics) RecordRecording(durationSeconds float64) {
	m.RecordingSeconds.Observe(durationSeconds)
}

// RecordTranscription records a transcription request and its result
func (m *Metrics) RecordTranscription(backend, result string, durationSeconds float64) {
	m.TranscriptionDuration.WithLabelValues(backend, result).Observe(durationSeconds)
}

// RecordEntries adds appended entries to the counter
func (m *Metrics) RecordEntries(count int) {
	m.EntriesRecorded.Add(float64(count))
}

// RecordView increments the record view counter
func (m *Metrics) RecordView() {
	m.RecordViews.Inc()
}

// RecordHTTPRequest records an HTTP request
func (m *Metrics) RecordHTTPRequest(method, endpoint, statusCode string, durationSeconds float64) {
	m.HTTPRequests.WithLabelValues(method, endpoint, statusCode).Inc()
	m.HTTPRequestDuration.WithLabelValues(method, endpoint).Observe(durationSeconds)
}

// RecordHTTPError records an HTTP error
func (m *Metrics) RecordHTTPError(method, endpoint, errorType string) {
	m.HTTPErrors.WithLabelValues(method, endpoint, errorType).Inc()
}
