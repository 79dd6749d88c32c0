package vad

import (
	"math"
	"testing"
)

func testConfig() Config {
	return Config{
		EnergyThreshold: 300,
		Dynamic:         true,
		DynamicRatio:    1.5,
		Damping:         0.15,
		SampleRate:      16000,
	}
}

func constant(n int, value int16) []int16 {
	samples := make([]int16, n)
	for i := range samples {
		samples[i] = value
	}
	return samples
}

func TestNewDetectorValidation(t *testing.T) {
	tests := []struct {
		name      string
		mutate    func(c *Config)
		expectErr bool
	}{
		{name: "valid parameters", mutate: func(c *Config) {}, expectErr: false},
		{name: "zero threshold", mutate: func(c *Config) { c.EnergyThreshold = 0 }, expectErr: true},
		{name: "ratio below one", mutate: func(c *Config) { c.DynamicRatio = 0.5 }, expectErr: true},
		{name: "damping of one", mutate: func(c *Config) { c.Damping = 1 }, expectErr: true},
		{name: "negative sample rate", mutate: func(c *Config) { c.SampleRate = -1 }, expectErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			config := testConfig()
			tt.mutate(&config)
			_, err := NewDetector(config)
			if tt.expectErr && err == nil {
				t.Error("Expected error but got none")
			}
			if !tt.expectErr && err != nil {
				t.Errorf("Expected no error but got: %v", err)
			}
		})
	}
}

func TestEnergy(t *testing.T) {
	if Energy(nil) != 0 {
		t.Errorf("Expected zero energy for empty buffer")
	}

	if e := Energy(constant(100, 200)); math.Abs(e-200) > 1e-9 {
		t.Errorf("Expected energy 200, got %f", e)
	}

	alternating := make([]int16, 100)
	for i := range alternating {
		if i%2 == 0 {
			alternating[i] = 500
		} else {
			alternating[i] = -500
		}
	}
	if e := Energy(alternating); math.Abs(e-500) > 1e-9 {
		t.Errorf("Expected energy 500, got %f", e)
	}
}

func TestCalibrate(t *testing.T) {
	tests := []struct {
		name     string
		samples  []int16
		expected float64
	}{
		{
			name:     "silent room lowers threshold",
			samples:  make([]int16, 16000),
			expected: 300 * 0.15,
		},
		{
			name:     "noisy room tracks ambient level",
			samples:  constant(16000, 100),
			expected: 300*0.15 + 150*0.85,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			detector, err := NewDetector(testConfig())
			if err != nil {
				t.Fatalf("Failed to create detector: %v", err)
			}

			detector.Calibrate(tt.samples)

			if got := detector.Threshold(); math.Abs(got-tt.expected) > 1e-6 {
				t.Errorf("Expected threshold %f, got %f", tt.expected, got)
			}
		})
	}
}

func TestCalibrateIgnoresDynamicFlag(t *testing.T) {
	config := testConfig()
	config.Dynamic = false
	detector, err := NewDetector(config)
	if err != nil {
		t.Fatalf("Failed to create detector: %v", err)
	}

	detector.Calibrate(make([]int16, 16000))
	if detector.Threshold() >= 300 {
		t.Errorf("Expected calibration to lower the threshold, got %f", detector.Threshold())
	}
}

func TestProcess(t *testing.T) {
	detector, err := NewDetector(testConfig())
	if err != nil {
		t.Fatalf("Failed to create detector: %v", err)
	}

	tests := []struct {
		name        string
		samples     []int16
		expectVoice bool
	}{
		{name: "silence", samples: make([]int16, 1024), expectVoice: false},
		{name: "speech", samples: constant(1024, 8000), expectVoice: true},
		{name: "low hum", samples: constant(1024, 20), expectVoice: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := detector.Process(tt.samples)
			if err != nil {
				t.Fatalf("Process failed: %v", err)
			}
			if result.HasVoice != tt.expectVoice {
				t.Errorf("Expected voice=%v, got %v (energy=%.1f threshold=%.1f)",
					tt.expectVoice, result.HasVoice, result.Energy, result.Threshold)
			}
			if result.Timestamp.IsZero() {
				t.Error("Expected non-zero timestamp")
			}
		})
	}

	if _, err := detector.Process(nil); err == nil {
		t.Error("Expected error for empty buffer")
	}
}

func TestProcessAdaptsOnlyDuringSilence(t *testing.T) {
	detector, err := NewDetector(testConfig())
	if err != nil {
		t.Fatalf("Failed to create detector: %v", err)
	}

	before := detector.Threshold()
	if _, err := detector.Process(constant(1024, 8000)); err != nil {
		t.Fatalf("Process failed: %v", err)
	}
	if detector.Threshold() != before {
		t.Errorf("Threshold moved during speech: %f -> %f", before, detector.Threshold())
	}

	if _, err := detector.Process(make([]int16, 1024)); err != nil {
		t.Fatalf("Process failed: %v", err)
	}
	if detector.Threshold() >= before {
		t.Errorf("Expected threshold to drop during silence, got %f", detector.Threshold())
	}
}

func TestStats(t *testing.T) {
	detector, err := NewDetector(testConfig())
	if err != nil {
		t.Fatalf("Failed to create detector: %v", err)
	}

	for i := 0; i < 10; i++ {
		if i%2 == 0 {
			detector.Process(constant(512, 8000))
		} else {
			detector.Process(make([]int16, 512))
		}
	}

	stats := detector.GetStats()
	if stats.TotalWindows != 10 {
		t.Errorf("Expected 10 total windows, got %d", stats.TotalWindows)
	}
	if stats.VoiceWindows != 5 {
		t.Errorf("Expected 5 voice windows, got %d", stats.VoiceWindows)
	}
	if math.Abs(stats.VoicePercentage-50) > 1e-9 {
		t.Errorf("Expected 50%% voice, got %f", stats.VoicePercentage)
	}
	if stats.Threshold != detector.Threshold() {
		t.Errorf("Expected stats threshold %f, got %f", detector.Threshold(), stats.Threshold)
	}
}
