package main

import (
	"encoding/json"
	"flag"
	"io"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/Swadeeppatil/voice-based-attendance-system/internal/audio"
)

type transcriptionResponse struct {
	RequestID   string    `json:"request_id"`
	Text        string    `json:"text"`
	Confidence  float32   `json:"confidence"`
	Language    string    `json:"language"`
	Duration    float64   `json:"duration"`
	ProcessedAt time.Time `json:"processed_at"`
}

type mockServer struct {
	text   string
	status int
	delay  time.Duration
	logger *slog.Logger
}

func (m *mockServer) transcribeHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	if err := r.ParseMultipartForm(10 << 20); err != nil {
		http.Error(w, "Error parsing form", http.StatusBadRequest)
		return
	}

	requestID := r.FormValue("request_id")
	language := r.FormValue("language")

	file, header, err := r.FormFile("file")
	if err != nil {
		http.Error(w, "Error getting audio file", http.StatusBadRequest)
		return
	}
	defer file.Close()

	audioData, err := io.ReadAll(file)
	if err != nil {
		http.Error(w, "Error reading audio file", http.StatusInternalServerError)
		return
	}

	duration, err := audio.WAVDuration(audioData)
	if err != nil {
		m.logger.Warn("Uploaded audio is not valid WAV",
			slog.String("request_id", requestID),
			slog.String("error", err.Error()),
		)
		http.Error(w, "Invalid WAV audio", http.StatusBadRequest)
		return
	}

	m.logger.Info("Transcription request received",
		slog.String("request_id", requestID),
		slog.String("filename", header.Filename),
		slog.Int("audio_bytes", len(audioData)),
		slog.Duration("audio_duration", duration),
		slog.String("language", language),
		slog.String("sample_rate", r.FormValue("sample_rate")),
	)

	time.Sleep(m.delay)

	if m.status != http.StatusOK {
		http.Error(w, "Simulated transcription failure", m.status)
		m.logger.Info("Simulated failure sent", slog.Int("status", m.status))
		return
	}

	response := transcriptionResponse{
		RequestID:   requestID,
		Text:        m.text,
		Confidence:  0.95,
		Language:    language,
		Duration:    duration.Seconds(),
		ProcessedAt: time.Now(),
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(response)

	m.logger.Info("Transcription response sent", slog.String("text", response.Text))
}

func main() {
	addr := flag.String("addr", ":9000", "Listen address")
	text := flag.String("text", "alice and bob", "Transcript to return (empty simulates unintelligible audio)")
	status := flag.Int("status", http.StatusOK, "HTTP status to answer with (non-200 simulates a service failure)")
	delay := flag.Duration("delay", 200*time.Millisecond, "Simulated processing time")
	flag.Parse()

	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))

	m := &mockServer{text: *text, status: *status, delay: *delay, logger: logger}
	http.HandleFunc("/transcribe", m.transcribeHandler)

	logger.Info("Mock transcription server starting",
		slog.String("addr", *addr),
		slog.String("endpoint", "/transcribe"),
		slog.String("text", *text),
	)

	if err := http.ListenAndServe(*addr, nil); err != nil {
		logger.Error("Server failed", slog.String("error", err.Error()))
		os.Exit(1)
	}
}
