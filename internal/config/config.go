package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config represents the complete application configuration
type Config struct {
	Records       RecordsConfig       `yaml:"records"`
	Audio         AudioConfig         `yaml:"audio"`
	VAD           VADConfig           `yaml:"vad"`
	Transcription TranscriptionConfig `yaml:"transcription"`
	Names         NamesConfig         `yaml:"names"`
	Feedback      FeedbackConfig      `yaml:"feedback"`
	HTTP          HTTPConfig          `yaml:"http"`
	Logging       LoggingConfig       `yaml:"logging"`
}

// RecordsConfig controls where daily attendance files are written
type RecordsConfig struct {
	Dir       string `yaml:"dir"`
	Extension string `yaml:"extension"`
}

// AudioConfig contains microphone capture parameters
type AudioConfig struct {
	SampleRate          int     `yaml:"sample_rate"`
	Channels            int     `yaml:"channels"`
	FramesPerBuffer     int     `yaml:"frames_per_buffer"`
	CalibrationDuration float64 `yaml:"calibration_duration"`  // seconds
	ListenTimeout       float64 `yaml:"listen_timeout"`        // seconds
	PhraseTimeLimit     float64 `yaml:"phrase_time_limit"`     // seconds
	PhraseThreshold     float64 `yaml:"phrase_threshold"`      // minimum seconds of speech for a phrase
	PauseDuration       float64 `yaml:"pause_duration"`        // seconds
	NonSpeakingDuration float64 `yaml:"non_speaking_duration"` // seconds
}

// VADConfig contains energy-based speech detection parameters
type VADConfig struct {
	EnergyThreshold float64 `yaml:"energy_threshold"`
	Dynamic         bool    `yaml:"dynamic"`
	DynamicRatio    float64 `yaml:"dynamic_ratio"`
	Damping         float64 `yaml:"damping"`
}

// TranscriptionConfig contains transcription backend configuration
type TranscriptionConfig struct {
	Backend  string `yaml:"backend"` // "http" or "openai"
	Endpoint string `yaml:"endpoint"`
	APIKey   string `yaml:"api_key"`
	Model    string `yaml:"model"`
	Language string `yaml:"language"`
	Timeout  int    `yaml:"timeout"` // seconds, 0 leaves it to the service
}

// NamesConfig controls how transcripts are split into names
type NamesConfig struct {
	Delimiter string `yaml:"delimiter"`
	WholeWord bool   `yaml:"whole_word"`
}

// FeedbackConfig selects the voice feedback engine
type FeedbackConfig struct {
	Engine  string   `yaml:"engine"` // "command", "openai" or "none"
	Command []string `yaml:"command"`
	Voice   string   `yaml:"voice"`
	APIKey  string   `yaml:"api_key"`
}

// HTTPConfig contains HTTP API server configuration
type HTTPConfig struct {
	Port    int    `yaml:"port"`
	Address string `yaml:"address"`
	Enabled bool   `yaml:"enabled"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	Output string `yaml:"output"`
}

// Default returns a configuration with every optional value filled in
func Default() Config {
	return Config{
		Records: RecordsConfig{
			Dir:       "attendance_records",
			Extension: "csv",
		},
		Audio: AudioConfig{
			SampleRate:          16000,
			Channels:            1,
			FramesPerBuffer:     1024,
			CalibrationDuration: 1,
			ListenTimeout:       5,
			PhraseTimeLimit:     10,
			PhraseThreshold:     0.3,
			PauseDuration:       0.8,
			NonSpeakingDuration: 0.5,
		},
		VAD: VADConfig{
			EnergyThreshold: 300,
			Dynamic:         true,
			DynamicRatio:    1.5,
			Damping:         0.15,
		},
		Transcription: TranscriptionConfig{
			Backend:  "http",
			Language: "en-US",
		},
		Names: NamesConfig{
			Delimiter: "and",
		},
		Feedback: FeedbackConfig{
			Engine:  "command",
			Command: []string{"espeak"},
		},
		HTTP: HTTPConfig{
			Address: "127.0.0.1",
			Port:    8080,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
			Output: "stderr",
		},
	}
}

// Load reads the .env file (if any), then parses and validates the YAML configuration.
// ${VAR} references in the YAML are expanded from the environment.
func Load(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	return Parse(data)
}

// Parse decodes YAML configuration on top of the defaults and validates it
func Parse(data []byte) (*Config, error) {
	config := Default()
	if err := yaml.Unmarshal([]byte(os.ExpandEnv(string(data))), &config); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &config, nil
}

// Validate performs validation of the whole configuration
func (c *Config) Validate() error {
	if err := c.Records.Validate(); err != nil {
		return fmt.Errorf("records config: %w", err)
	}

	if err := c.Audio.Validate(); err != nil {
		return fmt.Errorf("audio config: %w", err)
	}

	if err := c.VAD.Validate(); err != nil {
		return fmt.Errorf("vad config: %w", err)
	}

	if err := c.Transcription.Validate(); err != nil {
		return fmt.Errorf("transcription config: %w", err)
	}

	if err := c.Names.Validate(); err != nil {
		return fmt.Errorf("names config: %w", err)
	}

	if err := c.Feedback.Validate(); err != nil {
		return fmt.Errorf("feedback config: %w", err)
	}

	if err := c.HTTP.Validate(); err != nil {
		return fmt.Errorf("http config: %w", err)
	}

	if err := c.Logging.Validate(); err != nil {
		return fmt.Errorf("logging config: %w", err)
	}

	return nil
}

// Validate validates records configuration
func (r *RecordsConfig) Validate() error {
	if r.Dir == "" {
		return fmt.Errorf("dir cannot be empty")
	}

	if r.Extension == "" {
		return fmt.Errorf("extension cannot be empty")
	}

	return nil
}

// Validate validates audio configuration
func (a *AudioConfig) Validate() error {
	if a.SampleRate < 8000 || a.SampleRate > 48000 {
		return fmt.Errorf("sample_rate must be between 8000 and 48000 Hz, got %d", a.SampleRate)
	}

	if a.Channels != 1 {
		return fmt.Errorf("channels must be 1 (mono), got %d", a.Channels)
	}

	if a.FramesPerBuffer < 64 {
		return fmt.Errorf("frames_per_buffer must be at least 64, got %d", a.FramesPerBuffer)
	}

	if a.CalibrationDuration <= 0 {
		return fmt.Errorf("calibration_duration must be positive, got %f", a.CalibrationDuration)
	}

	if a.ListenTimeout <= 0 {
		return fmt.Errorf("listen_timeout must be positive, got %f", a.ListenTimeout)
	}

	if a.PhraseTimeLimit <= 0 {
		return fmt.Errorf("phrase_time_limit must be positive, got %f", a.PhraseTimeLimit)
	}

	if a.PhraseThreshold < 0 || a.PhraseThreshold >= a.PhraseTimeLimit {
		return fmt.Errorf("phrase_threshold must be in [0, phrase_time_limit), got %f", a.PhraseThreshold)
	}

	if a.PauseDuration < a.NonSpeakingDuration || a.NonSpeakingDuration < 0 {
		return fmt.Errorf("pause_duration (%f) must be >= non_speaking_duration (%f) >= 0",
			a.PauseDuration, a.NonSpeakingDuration)
	}

	return nil
}

// Validate validates speech detection configuration
func (v *VADConfig) Validate() error {
	if v.EnergyThreshold <= 0 {
		return fmt.Errorf("energy_threshold must be positive, got %f", v.EnergyThreshold)
	}

	if v.DynamicRatio < 1 {
		return fmt.Errorf("dynamic_ratio must be at least 1, got %f", v.DynamicRatio)
	}

	if v.Damping <= 0 || v.Damping >= 1 {
		return fmt.Errorf("damping must be between 0 and 1 (exclusive), got %f", v.Damping)
	}

	return nil
}

// Validate validates transcription configuration
func (t *TranscriptionConfig) Validate() error {
	switch t.Backend {
	case "http":
		if t.Endpoint == "" {
			return fmt.Errorf("endpoint cannot be empty for the http backend")
		}
	case "openai":
		if t.APIKey == "" {
			return fmt.Errorf("api_key cannot be empty for the openai backend")
		}
	default:
		return fmt.Errorf("backend must be 'http' or 'openai', got '%s'", t.Backend)
	}

	if t.Timeout < 0 {
		return fmt.Errorf("timeout cannot be negative, got %d", t.Timeout)
	}

	return nil
}

// Validate validates name extraction configuration
func (n *NamesConfig) Validate() error {
	if n.Delimiter == "" {
		return fmt.Errorf("delimiter cannot be empty")
	}
	return nil
}

// Validate validates voice feedback configuration
func (f *FeedbackConfig) Validate() error {
	switch f.Engine {
	case "none":
	case "command":
		if len(f.Command) == 0 || f.Command[0] == "" {
			return fmt.Errorf("command cannot be empty for the command engine")
		}
	case "openai":
		if f.APIKey == "" {
			return fmt.Errorf("api_key cannot be empty for the openai engine")
		}
	default:
		return fmt.Errorf("engine must be one of [command, openai, none], got '%s'", f.Engine)
	}

	return nil
}

// Validate validates HTTP configuration
func (h *HTTPConfig) Validate() error {
	if h.Enabled {
		if h.Port < 1 || h.Port > 65535 {
			return fmt.Errorf("http port must be between 1 and 65535, got %d", h.Port)
		}

		if h.Address == "" {
			return fmt.Errorf("http address cannot be empty when HTTP is enabled")
		}
	}

	return nil
}

// Validate validates logging configuration
func (l *LoggingConfig) Validate() error {
	validLevels := map[string]bool{
		"debug": true, "info": true, "warn": true, "error": true,
	}
	if !validLevels[l.Level] {
		return fmt.Errorf("level must be one of [debug, info, warn, error], got '%s'", l.Level)
	}

	validFormats := map[string]bool{"json": true, "text": true}
	if !validFormats[l.Format] {
		return fmt.Errorf("format must be 'json' or 'text', got '%s'", l.Format)
	}

	return nil
}

func seconds(s float64) time.Duration {
	return time.Duration(s * float64(time.Second))
}

// GetCalibrationDuration returns the ambient calibration window as a time.Duration
func (a *AudioConfig) GetCalibrationDuration() time.Duration {
	return seconds(a.CalibrationDuration)
}

// GetListenTimeout returns how long to wait for speech to start
func (a *AudioConfig) GetListenTimeout() time.Duration {
	return seconds(a.ListenTimeout)
}

// GetPhraseTimeLimit returns the maximum phrase length
func (a *AudioConfig) GetPhraseTimeLimit() time.Duration {
	return seconds(a.PhraseTimeLimit)
}

// GetPauseDuration returns the quiet period that ends a phrase
func (a *AudioConfig) GetPauseDuration() time.Duration {
	return seconds(a.PauseDuration)
}

// GetPhraseThreshold returns the shortest burst of speech accepted as a phrase
func (a *AudioConfig) GetPhraseThreshold() time.Duration {
	return seconds(a.PhraseThreshold)
}

// GetNonSpeakingDuration returns the pre-roll kept before speech starts
func (a *AudioConfig) GetNonSpeakingDuration() time.Duration {
	return seconds(a.NonSpeakingDuration)
}

// GetTimeoutDuration returns the transcription timeout as a time.Duration
func (t *TranscriptionConfig) GetTimeoutDuration() time.Duration {
	return time.Duration(t.Timeout) * time.Second
}
