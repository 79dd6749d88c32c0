package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestLoadConfig(t *testing.T) {
	tempDir := t.TempDir()
	configPath := filepath.Join(tempDir, "config.yaml")

	configContent := `
records:
  dir: "./records"
  extension: "csv"

audio:
  sample_rate: 16000
  channels: 1
  frames_per_buffer: 512
  calibration_duration: 1.0
  listen_timeout: 5.0
  phrase_time_limit: 8.0
  pause_duration: 0.8
  non_speaking_duration: 0.5

vad:
  energy_threshold: 400
  dynamic: true
  dynamic_ratio: 1.5
  damping: 0.15

transcription:
  backend: "http"
  endpoint: "https://api.example.com/transcribe"
  api_key: "test-api-key"
  timeout: 30

feedback:
  engine: "none"

logging:
  level: "debug"
  format: "json"
  output: "stdout"
`

	if err := os.WriteFile(configPath, []byte(configContent), 0644); err != nil {
		t.Fatalf("Failed to write test config: %v", err)
	}

	config, err := Load(configPath)
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}

	if config.Records.Dir != "./records" {
		t.Errorf("Expected records dir ./records, got %s", config.Records.Dir)
	}

	if config.Audio.FramesPerBuffer != 512 {
		t.Errorf("Expected frames_per_buffer 512, got %d", config.Audio.FramesPerBuffer)
	}

	if config.VAD.EnergyThreshold != 400 {
		t.Errorf("Expected energy threshold 400, got %f", config.VAD.EnergyThreshold)
	}

	if config.Transcription.APIKey != "test-api-key" {
		t.Errorf("Expected API key test-api-key, got %s", config.Transcription.APIKey)
	}

	if config.Feedback.Engine != "none" {
		t.Errorf("Expected feedback engine none, got %s", config.Feedback.Engine)
	}

	// Values absent from the file keep their defaults
	if config.Names.Delimiter != "and" {
		t.Errorf("Expected default delimiter 'and', got %q", config.Names.Delimiter)
	}

	if config.Transcription.Language != "en-US" {
		t.Errorf("Expected default language en-US, got %s", config.Transcription.Language)
	}
}

func TestLoadConfigMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	if err == nil {
		t.Fatal("Expected error for missing config file")
	}
}

func TestParseExpandsEnvironment(t *testing.T) {
	t.Setenv("ATTENDANCE_TEST_KEY", "from-env")

	config, err := Parse([]byte(`
transcription:
  backend: "openai"
  api_key: "${ATTENDANCE_TEST_KEY}"
`))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}

	if config.Transcription.APIKey != "from-env" {
		t.Errorf("Expected expanded API key, got %q", config.Transcription.APIKey)
	}
}

func TestParseInvalidYAML(t *testing.T) {
	_, err := Parse([]byte("audio: [unclosed"))
	if err == nil {
		t.Fatal("Expected parse error")
	}
	if !strings.Contains(err.Error(), "failed to parse config") {
		t.Errorf("Unexpected error: %v", err)
	}
}

func TestConfigValidation(t *testing.T) {
	valid := func() Config {
		c := Default()
		c.Transcription.Endpoint = "http://localhost:9000/transcribe"
		return c
	}

	tests := []struct {
		name        string
		mutate      func(c *Config)
		expectError bool
		errorMsg    string
	}{
		{
			name:        "valid configuration",
			mutate:      func(c *Config) {},
			expectError: false,
		},
		{
			name:        "empty records dir",
			mutate:      func(c *Config) { c.Records.Dir = "" },
			expectError: true,
			errorMsg:    "records config",
		},
		{
			name:        "stereo audio",
			mutate:      func(c *Config) { c.Audio.Channels = 2 },
			expectError: true,
			errorMsg:    "audio config",
		},
		{
			name:        "pause shorter than pre-roll",
			mutate:      func(c *Config) { c.Audio.PauseDuration = 0.1 },
			expectError: true,
			errorMsg:    "audio config",
		},
		{
			name:        "phrase threshold beyond phrase limit",
			mutate:      func(c *Config) { c.Audio.PhraseThreshold = 10 },
			expectError: true,
			errorMsg:    "audio config",
		},
		{
			name:        "damping out of range",
			mutate:      func(c *Config) { c.VAD.Damping = 1 },
			expectError: true,
			errorMsg:    "vad config",
		},
		{
			name:        "http backend without endpoint",
			mutate:      func(c *Config) { c.Transcription.Endpoint = "" },
			expectError: true,
			errorMsg:    "transcription config",
		},
		{
			name:        "unknown backend",
			mutate:      func(c *Config) { c.Transcription.Backend = "vosk" },
			expectError: true,
			errorMsg:    "transcription config",
		},
		{
			name:        "empty delimiter",
			mutate:      func(c *Config) { c.Names.Delimiter = "" },
			expectError: true,
			errorMsg:    "names config",
		},
		{
			name:        "openai feedback without key",
			mutate:      func(c *Config) { c.Feedback.Engine = "openai" },
			expectError: true,
			errorMsg:    "feedback config",
		},
		{
			name: "http enabled with bad port",
			mutate: func(c *Config) {
				c.HTTP.Enabled = true
				c.HTTP.Port = 70000
			},
			expectError: true,
			errorMsg:    "http config",
		},
		{
			name:        "invalid log level",
			mutate:      func(c *Config) { c.Logging.Level = "trace" },
			expectError: true,
			errorMsg:    "logging config",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := valid()
			tt.mutate(&c)
			err := c.Validate()

			if tt.expectError && err == nil {
				t.Errorf("Expected error but got none")
			}

			if !tt.expectError && err != nil {
				t.Errorf("Expected no error but got: %v", err)
			}

			if tt.expectError && err != nil && !strings.Contains(err.Error(), tt.errorMsg) {
				t.Errorf("Expected error containing %q, got %q", tt.errorMsg, err.Error())
			}
		})
	}
}

func TestDurationHelpers(t *testing.T) {
	audio := AudioConfig{
		CalibrationDuration: 1.0,
		ListenTimeout:       5.0,
		PhraseTimeLimit:     10.0,
		PhraseThreshold:     0.3,
		PauseDuration:       0.8,
		NonSpeakingDuration: 0.5,
	}

	if audio.GetCalibrationDuration() != time.Second {
		t.Errorf("Expected 1 second, got %v", audio.GetCalibrationDuration())
	}

	if audio.GetListenTimeout() != 5*time.Second {
		t.Errorf("Expected 5 seconds, got %v", audio.GetListenTimeout())
	}

	if audio.GetPhraseTimeLimit() != 10*time.Second {
		t.Errorf("Expected 10 seconds, got %v", audio.GetPhraseTimeLimit())
	}

	if audio.GetPhraseThreshold() != 300*time.Millisecond {
		t.Errorf("Expected 0.3 seconds, got %v", audio.GetPhraseThreshold())
	}

	if audio.GetPauseDuration() != 800*time.Millisecond {
		t.Errorf("Expected 0.8 seconds, got %v", audio.GetPauseDuration())
	}

	if audio.GetNonSpeakingDuration() != 500*time.Millisecond {
		t.Errorf("Expected 0.5 seconds, got %v", audio.GetNonSpeakingDuration())
	}

	transcription := TranscriptionConfig{Timeout: 30}
	if transcription.GetTimeoutDuration() != 30*time.Second {
		t.Errorf("Expected 30 seconds, got %v", transcription.GetTimeoutDuration())
	}
}
