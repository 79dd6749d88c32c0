package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/Swadeeppatil/voice-based-attendance-system/internal/attendance"
	"github.com/Swadeeppatil/voice-based-attendance-system/internal/config"
	"github.com/Swadeeppatil/voice-based-attendance-system/internal/metrics"
	"github.com/Swadeeppatil/voice-based-attendance-system/internal/transcription"
	"github.com/Swadeeppatil/voice-based-attendance-system/internal/vad"
)

const (
	serviceName    = "voice-attendance"
	serviceVersion = "1.0.0"
)

// Pipeline is the capture pipeline as exposed over HTTP
type Pipeline interface {
	RequestCapture() (string, error)
	RenderRecords() string
	GetStats() attendance.Stats
}

// SpeechDetector reports speech detection statistics
type SpeechDetector interface {
	GetStats() vad.Stats
}

// HTTPServer provides HTTP API endpoints for monitoring and remote capture
type HTTPServer struct {
	server      *http.Server
	handler     http.Handler
	logger      *slog.Logger
	config      *config.Config
	pipeline    Pipeline
	transcriber transcription.Transcriber
	detector    SpeechDetector
	metrics     *metrics.Metrics

	startTime time.Time
}

// NewHTTPServer creates a new HTTP API server. gatherer backs the /metrics endpoint.
func NewHTTPServer(cfg config.HTTPConfig, logger *slog.Logger, appConfig *config.Config,
	pipeline Pipeline, transcriber transcription.Transcriber, detector SpeechDetector,
	m *metrics.Metrics, gatherer prometheus.Gatherer) *HTTPServer {

	h := &HTTPServer{
		logger:      logger,
		config:      appConfig,
		pipeline:    pipeline,
		transcriber: transcriber,
		detector:    detector,
		metrics:     m,
		startTime:   time.Now(),
	}

	mux := http.NewServeMux()
	h.setupRoutes(mux, gatherer)
	h.handler = mux

	h.server = &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Address, cfg.Port),
		Handler:      mux,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return h
}

// setupRoutes configures HTTP API routes
func (h *HTTPServer) setupRoutes(mux *http.ServeMux, gatherer prometheus.Gatherer) {
	mux.HandleFunc("/health", h.withMetrics("/health", h.handleHealth))
	mux.HandleFunc("/stats", h.withMetrics("/stats", h.handleStats))
	mux.HandleFunc("/config", h.withMetrics("/config", h.handleConfig))
	mux.HandleFunc("/records", h.withMetrics("/records", h.handleRecords))
	mux.HandleFunc("/capture", h.withMetrics("/capture", h.handleCapture))

	// Prometheus metrics endpoint (no metrics needed for metrics endpoint)
	mux.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))

	mux.HandleFunc("/", h.withMetrics("/", h.handleRoot))
}

// Handler returns the routed handler
func (h *HTTPServer) Handler() http.Handler {
	return h.handler
}

// withMetrics wraps an HTTP handler with metrics collection
func (h *HTTPServer) withMetrics(endpoint string, handler http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		startTime := time.Now()

		ww := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		handler(ww, r)

		duration := time.Since(startTime).Seconds()
		statusCode := fmt.Sprintf("%d", ww.statusCode)

		h.metrics.RecordHTTPRequest(r.Method, endpoint, statusCode, duration)

		if ww.statusCode >= 400 {
			errorType := "client_error"
			if ww.statusCode >= 500 {
				errorType = "server_error"
			}
			h.metrics.RecordHTTPError(r.Method, endpoint, errorType)
		}
	}
}

// responseWriter wraps http.ResponseWriter to capture status code
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

// Start starts the HTTP server
func (h *HTTPServer) Start() error {
	h.logger.Info("Starting HTTP API server",
		slog.String("address", h.server.Addr),
	)

	go func() {
		if err := h.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			h.logger.Error("HTTP server error", slog.String("error", err.Error()))
		}
	}()

	return nil
}

// Stop gracefully stops the HTTP server
func (h *HTTPServer) Stop(ctx context.Context) error {
	h.logger.Info("Stopping HTTP API server...")

	return h.server.Shutdown(ctx)
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// handleHealth implements the /health endpoint
func (h *HTTPServer) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	stats := h.pipeline.GetStats()

	health := map[string]interface{}{
		"status":    "healthy",
		"timestamp": time.Now().UTC(),
		"uptime":    time.Since(h.startTime).String(),
		"service": map[string]interface{}{
			"name":    serviceName,
			"version": serviceVersion,
		},
		"components": map[string]interface{}{
			"capture": map[string]interface{}{
				"state":            stats.State,
				"captures_started": stats.CapturesStarted,
			},
			"transcription": map[string]interface{}{
				"backend": h.transcriber.Name(),
			},
			"records": map[string]interface{}{
				"dir": h.config.Records.Dir,
			},
		},
	}

	writeJSON(w, http.StatusOK, health)
}

// handleStats implements the /stats endpoint
func (h *HTTPServer) handleStats(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	stats := map[string]interface{}{
		"uptime":    time.Since(h.startTime).String(),
		"timestamp": time.Now().UTC(),
		"capture":   h.pipeline.GetStats(),
	}

	if provider, ok := h.transcriber.(transcription.StatsProvider); ok {
		stats["transcription"] = provider.GetStats()
	}

	if h.detector != nil {
		stats["speech_detection"] = h.detector.GetStats()
	}

	writeJSON(w, http.StatusOK, stats)
}

// handleConfig implements the /config endpoint
func (h *HTTPServer) handleConfig(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	// API keys are intentionally omitted
	sanitizedConfig := map[string]interface{}{
		"records": map[string]interface{}{
			"dir":       h.config.Records.Dir,
			"extension": h.config.Records.Extension,
		},
		"audio": map[string]interface{}{
			"sample_rate":           h.config.Audio.SampleRate,
			"channels":              h.config.Audio.Channels,
			"frames_per_buffer":     h.config.Audio.FramesPerBuffer,
			"calibration_duration":  h.config.Audio.CalibrationDuration,
			"listen_timeout":        h.config.Audio.ListenTimeout,
			"phrase_time_limit":     h.config.Audio.PhraseTimeLimit,
			"phrase_threshold":      h.config.Audio.PhraseThreshold,
			"pause_duration":        h.config.Audio.PauseDuration,
			"non_speaking_duration": h.config.Audio.NonSpeakingDuration,
		},
		"vad": map[string]interface{}{
			"energy_threshold": h.config.VAD.EnergyThreshold,
			"dynamic":          h.config.VAD.Dynamic,
			"dynamic_ratio":    h.config.VAD.DynamicRatio,
			"damping":          h.config.VAD.Damping,
		},
		"transcription": map[string]interface{}{
			"backend":  h.config.Transcription.Backend,
			"endpoint": h.config.Transcription.Endpoint,
			"model":    h.config.Transcription.Model,
			"language": h.config.Transcription.Language,
			"timeout":  h.config.Transcription.Timeout,
		},
		"names": map[string]interface{}{
			"delimiter":  h.config.Names.Delimiter,
			"whole_word": h.config.Names.WholeWord,
		},
		"feedback": map[string]interface{}{
			"engine":  h.config.Feedback.Engine,
			"command": h.config.Feedback.Command,
			"voice":   h.config.Feedback.Voice,
		},
		"logging": map[string]interface{}{
			"level":  h.config.Logging.Level,
			"format": h.config.Logging.Format,
			"output": h.config.Logging.Output,
		},
	}

	writeJSON(w, http.StatusOK, sanitizedConfig)
}

// handleRecords implements the /records endpoint with today's table as text
func (h *HTTPServer) handleRecords(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	fmt.Fprintln(w, h.pipeline.RenderRecords())
}

// handleCapture implements POST /capture
func (h *HTTPServer) handleCapture(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	captureID, err := h.pipeline.RequestCapture()
	switch {
	case errors.Is(err, attendance.ErrCaptureInProgress):
		writeJSON(w, http.StatusConflict, map[string]interface{}{
			"error": err.Error(),
		})
		return
	case err != nil:
		writeJSON(w, http.StatusServiceUnavailable, map[string]interface{}{
			"error": err.Error(),
		})
		return
	}

	h.logger.Info("Capture requested over HTTP", slog.String("capture_id", captureID))

	writeJSON(w, http.StatusAccepted, map[string]interface{}{
		"capture_id": captureID,
		"status":     attendance.StatusListening,
	})
}

// handleRoot implements the / endpoint with API documentation
func (h *HTTPServer) handleRoot(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}

	apiDoc := map[string]interface{}{
		"service": "Voice Based Attendance System",
		"version": serviceVersion,
		"endpoints": map[string]interface{}{
			"GET /":         "API documentation",
			"GET /health":   "Service health check",
			"GET /stats":    "Capture and transcription statistics",
			"GET /config":   "Service configuration without secrets",
			"GET /records":  "Today's attendance records",
			"POST /capture": "Start a capture cycle",
			"GET /metrics":  "Prometheus metrics",
		},
		"timestamp": time.Now().UTC(),
	}

	writeJSON(w, http.StatusOK, apiDoc)
}
