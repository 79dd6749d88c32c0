package vad

import (
	"fmt"
	"math"
	"sync"
	"time"
)

// Config contains detector parameters
type Config struct {
	EnergyThreshold float64 // Initial RMS energy threshold
	Dynamic         bool    // Keep adapting the threshold during silence
	DynamicRatio    float64 // Threshold multiple of the ambient energy
	Damping         float64 // Per-second weight kept from the previous threshold
	SampleRate      int
}

// Detector classifies PCM buffers as speech or silence by RMS energy
type Detector struct {
	config    Config
	threshold float64

	// Statistics
	totalWindows  uint64
	voiceWindows  uint64
	lastEnergy    float64
	lastProcessed time.Time

	mu sync.RWMutex
}

// Result represents the detection outcome for one buffer
type Result struct {
	Energy    float64   `json:"energy"`
	Threshold float64   `json:"threshold"`
	HasVoice  bool      `json:"has_voice"`
	Timestamp time.Time `json:"timestamp"`
}

// Stats represents detector statistics
type Stats struct {
	Threshold       float64   `json:"threshold"`
	TotalWindows    uint64    `json:"total_windows"`
	VoiceWindows    uint64    `json:"voice_windows"`
	VoicePercentage float64   `json:"voice_percentage"`
	LastEnergy      float64   `json:"last_energy"`
	LastProcessed   time.Time `json:"last_processed"`
}

// NewDetector creates a new energy detector
func NewDetector(config Config) (*Detector, error) {
	if config.EnergyThreshold <= 0 {
		return nil, fmt.Errorf("energy threshold must be positive, got %f", config.EnergyThreshold)
	}

	if config.DynamicRatio < 1 {
		return nil, fmt.Errorf("dynamic ratio must be at least 1, got %f", config.DynamicRatio)
	}

	if config.Damping <= 0 || config.Damping >= 1 {
		return nil, fmt.Errorf("damping must be between 0 and 1 (exclusive), got %f", config.Damping)
	}

	if config.SampleRate <= 0 {
		return nil, fmt.Errorf("sample rate must be positive, got %d", config.SampleRate)
	}

	return &Detector{
		config:    config,
		threshold: config.EnergyThreshold,
	}, nil
}

// Energy returns the RMS energy of a buffer
func Energy(samples []int16) float64 {
	if len(samples) == 0 {
		return 0
	}

	var sum float64
	for _, sample := range samples {
		sum += float64(sample) * float64(sample)
	}
	return math.Sqrt(sum / float64(len(samples)))
}

// Calibrate moves the threshold toward the ambient level of a buffer known to
// contain no speech. It adapts regardless of the Dynamic setting.
func (d *Detector) Calibrate(samples []int16) {
	energy := Energy(samples)

	d.mu.Lock()
	defer d.mu.Unlock()

	d.adapt(energy, len(samples))
	d.lastEnergy = energy
	d.lastProcessed = time.Now()
}

// Process classifies one buffer. While no voice is heard and the detector is
// dynamic, the threshold keeps tracking the ambient level.
func (d *Detector) Process(samples []int16) (*Result, error) {
	if len(samples) == 0 {
		return nil, fmt.Errorf("cannot process empty buffer")
	}

	energy := Energy(samples)

	d.mu.Lock()
	defer d.mu.Unlock()

	hasVoice := energy > d.threshold
	result := &Result{
		Energy:    energy,
		Threshold: d.threshold,
		HasVoice:  hasVoice,
		Timestamp: time.Now(),
	}

	if !hasVoice && d.config.Dynamic {
		d.adapt(energy, len(samples))
	}

	d.totalWindows++
	if hasVoice {
		d.voiceWindows++
	}
	d.lastEnergy = energy
	d.lastProcessed = result.Timestamp

	return result, nil
}

// adapt must be called with d.mu held
func (d *Detector) adapt(energy float64, numSamples int) {
	secondsPerBuffer := float64(numSamples) / float64(d.config.SampleRate)
	damping := math.Pow(d.config.Damping, secondsPerBuffer)
	target := energy * d.config.DynamicRatio
	d.threshold = d.threshold*damping + target*(1-damping)
}

// Threshold returns the current energy threshold
func (d *Detector) Threshold() float64 {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.threshold
}

// GetStats returns current detector statistics
func (d *Detector) GetStats() Stats {
	d.mu.RLock()
	defer d.mu.RUnlock()

	voicePercentage := float64(0)
	if d.totalWindows > 0 {
		voicePercentage = float64(d.voiceWindows) / float64(d.totalWindows) * 100
	}

	return Stats{
		Threshold:       d.threshold,
		TotalWindows:    d.totalWindows,
		VoiceWindows:    d.voiceWindows,
		VoicePercentage: voicePercentage,
		LastEnergy:      d.lastEnergy,
		LastProcessed:   d.lastProcessed,
	}
}
