package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/Swadeeppatil/voice-based-attendance-system/internal/attendance"
	"github.com/Swadeeppatil/voice-based-attendance-system/internal/audio"
	"github.com/Swadeeppatil/voice-based-attendance-system/internal/config"
	"github.com/Swadeeppatil/voice-based-attendance-system/internal/metrics"
	"github.com/Swadeeppatil/voice-based-attendance-system/internal/names"
	"github.com/Swadeeppatil/voice-based-attendance-system/internal/records"
	"github.com/Swadeeppatil/voice-based-attendance-system/internal/server"
	"github.com/Swadeeppatil/voice-based-attendance-system/internal/shell"
	"github.com/Swadeeppatil/voice-based-attendance-system/internal/speech"
	"github.com/Swadeeppatil/voice-based-attendance-system/internal/transcription"
	"github.com/Swadeeppatil/voice-based-attendance-system/internal/vad"
)

const (
	defaultConfigPath = "configs/config.yaml"
	serviceName       = "voice-attendance"
	serviceVersion    = "1.0.0"
)

func main() {
	configPath := flag.String("config", defaultConfigPath, "Path to configuration file")
	headless := flag.Bool("headless", false, "Run without the terminal shell (captures via HTTP only)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	logger := initLogger(cfg.Logging)

	logger.Info("Service starting",
		slog.String("service", serviceName),
		slog.String("version", serviceVersion),
		slog.String("config_path", *configPath),
	)

	logger.Info("Configuration loaded",
		slog.String("records_dir", cfg.Records.Dir),
		slog.Int("sample_rate", cfg.Audio.SampleRate),
		slog.Float64("listen_timeout", cfg.Audio.ListenTimeout),
		slog.Float64("energy_threshold", cfg.VAD.EnergyThreshold),
		slog.String("transcription_backend", cfg.Transcription.Backend),
		slog.String("transcription_endpoint", cfg.Transcription.Endpoint),
		slog.String("feedback_engine", cfg.Feedback.Engine),
		slog.String("log_level", cfg.Logging.Level),
	)

	if *headless && !cfg.HTTP.Enabled {
		logger.Error("Headless mode requires the HTTP API to be enabled")
		os.Exit(1)
	}

	appMetrics := metrics.NewMetrics(prometheus.DefaultRegisterer)

	store, err := records.NewStore(cfg.Records.Dir, cfg.Records.Extension)
	if err != nil {
		logger.Error("Failed to create record store", slog.String("error", err.Error()))
		os.Exit(1)
	}

	detector, err := vad.NewDetector(vad.Config{
		EnergyThreshold: cfg.VAD.EnergyThreshold,
		Dynamic:         cfg.VAD.Dynamic,
		DynamicRatio:    cfg.VAD.DynamicRatio,
		Damping:         cfg.VAD.Damping,
		SampleRate:      cfg.Audio.SampleRate,
	})
	if err != nil {
		logger.Error("Failed to create speech detector", slog.String("error", err.Error()))
		os.Exit(1)
	}

	listener, err := audio.NewListener(audio.PortAudioDevice{}, detector, audio.ListenerConfig{
		SampleRate:          cfg.Audio.SampleRate,
		FramesPerBuffer:     cfg.Audio.FramesPerBuffer,
		CalibrationDuration: cfg.Audio.GetCalibrationDuration(),
		ListenTimeout:       cfg.Audio.GetListenTimeout(),
		PhraseTimeLimit:     cfg.Audio.GetPhraseTimeLimit(),
		PhraseThreshold:     cfg.Audio.GetPhraseThreshold(),
		PauseDuration:       cfg.Audio.GetPauseDuration(),
		NonSpeakingDuration: cfg.Audio.GetNonSpeakingDuration(),
	}, logger)
	if err != nil {
		logger.Error("Failed to create listener", slog.String("error", err.Error()))
		os.Exit(1)
	}

	transcriber, err := transcription.New(cfg.Transcription.Backend, transcription.Config{
		Endpoint: cfg.Transcription.Endpoint,
		APIKey:   cfg.Transcription.APIKey,
		Model:    cfg.Transcription.Model,
		Language: cfg.Transcription.Language,
		Timeout:  cfg.Transcription.GetTimeoutDuration(),
	})
	if err != nil {
		logger.Error("Failed to create transcriber", slog.String("error", err.Error()))
		os.Exit(1)
	}

	speaker, err := newSpeaker(cfg.Feedback, cfg.Audio.FramesPerBuffer)
	if err != nil {
		logger.Error("Failed to create voice feedback", slog.String("error", err.Error()))
		os.Exit(1)
	}

	coordinator, err := attendance.NewCoordinator(attendance.Dependencies{
		Capturer:    listener,
		Transcriber: transcriber,
		Extractor:   names.NewExtractor(cfg.Names.Delimiter, cfg.Names.WholeWord),
		Store:       store,
		Speaker:     speaker,
		Metrics:     appMetrics,
		Logger:      logger,
	}, attendance.Config{Language: cfg.Transcription.Language})
	if err != nil {
		logger.Error("Failed to create coordinator", slog.String("error", err.Error()))
		os.Exit(1)
	}
	logger.Info("Capture pipeline initialized",
		slog.String("transcriber", transcriber.Name()),
		slog.String("delimiter", cfg.Names.Delimiter),
		slog.Bool("whole_word", cfg.Names.WholeWord),
	)

	var httpServer *server.HTTPServer
	if cfg.HTTP.Enabled {
		httpServer = server.NewHTTPServer(cfg.HTTP, logger, cfg, coordinator, transcriber, detector,
			appMetrics, prometheus.DefaultGatherer)
		if err := httpServer.Start(); err != nil {
			logger.Error("Failed to start HTTP server", slog.String("error", err.Error()))
			os.Exit(1)
		}
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// The shell is the only reader of coordinator updates while it runs
	frontendDone := make(chan error, 1)
	go func() {
		if *headless {
			frontendDone <- logUpdates(ctx, coordinator.Updates(), logger)
			return
		}
		frontendDone <- shell.New(coordinator, os.Stdin, os.Stdout, logger).Run(ctx)
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	logger.Info("Service started successfully", slog.Bool("headless", *headless))

	select {
	case sig := <-sigChan:
		logger.Info("Received shutdown signal", slog.String("signal", sig.String()))
	case err := <-frontendDone:
		if err != nil {
			logger.Error("Terminal input failed", slog.String("error", err.Error()))
		}
	}

	logger.Info("Starting graceful shutdown...")

	if httpServer != nil {
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()

		if err := httpServer.Stop(shutdownCtx); err != nil {
			logger.Error("Error stopping HTTP server", slog.String("error", err.Error()))
		}
	}

	// Stop the front end, keep draining updates while an in-flight capture finishes
	cancel()
	go func() {
		for range coordinator.Updates() {
		}
	}()
	coordinator.Close()

	stats := coordinator.GetStats()
	logger.Info("Final capture statistics",
		slog.Uint64("captures_started", stats.CapturesStarted),
		slog.Uint64("entries_recorded", stats.EntriesRecorded),
		slog.Any("outcomes", stats.Outcomes),
	)

	logger.Info("Service stopped")
}

// newSpeaker creates the configured voice feedback engine
func newSpeaker(cfg config.FeedbackConfig, framesPerBuffer int) (speech.Speaker, error) {
	switch cfg.Engine {
	case "command":
		speaker, err := speech.NewCommandSpeaker(cfg.Command)
		if err != nil {
			return nil, err
		}
		return speaker, nil
	case "openai":
		speaker, err := speech.NewOpenAISpeaker(speech.OpenAIConfig{
			APIKey: cfg.APIKey,
			Voice:  cfg.Voice,
		}, speech.PortAudioPlayer{FramesPerBuffer: framesPerBuffer})
		if err != nil {
			return nil, err
		}
		return speaker, nil
	default:
		return speech.NopSpeaker{}, nil
	}
}

// logUpdates drains coordinator updates into the log when no shell is attached
func logUpdates(ctx context.Context, updates <-chan attendance.Update, logger *slog.Logger) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case u, ok := <-updates:
			if !ok {
				return nil
			}
			switch u.Kind {
			case attendance.UpdateStatus:
				logger.Info("Status changed", slog.String("status", u.Text))
			case attendance.UpdateRecords:
				logger.Debug("Records refreshed", slog.String("view", u.Text))
			case attendance.UpdateCaptureEnabled:
				logger.Debug("Capture trigger changed", slog.Bool("enabled", u.Enabled))
			}
		}
	}
}

// initLogger creates and configures the structured logger based on configuration
func initLogger(cfg config.LoggingConfig) *slog.Logger {
	var level slog.Level
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{
		Level:     level,
		AddSource: level == slog.LevelDebug,
	}

	// The terminal shell owns stdout, so logs default to stderr
	var output *os.File
	switch cfg.Output {
	case "stdout":
		output = os.Stdout
	case "stderr", "":
		output = os.Stderr
	default:
		file, err := os.OpenFile(cfg.Output, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to open log file %s: %v, falling back to stderr\n", cfg.Output, err)
			output = os.Stderr
		} else {
			output = file
		}
	}

	var handler slog.Handler
	switch cfg.Format {
	case "json":
		handler = slog.NewJSONHandler(output, opts)
	default:
		handler = slog.NewTextHandler(output, opts)
	}

	return slog.New(handler)
}
