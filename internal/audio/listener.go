package audio

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/Swadeeppatil/voice-based-attendance-system/internal/vad"
)

// ErrCaptureTimeout is returned when no speech starts within the listen timeout
var ErrCaptureTimeout = errors.New("listening timed out while waiting for phrase to start")

// Device opens microphone input streams
type Device interface {
	Open(sampleRate, framesPerBuffer int) (Stream, error)
}

// Stream is an open microphone input. Read blocks until buf is filled.
type Stream interface {
	Read(buf []int16) error
	Close() error
}

// ListenerConfig contains capture timing parameters
type ListenerConfig struct {
	SampleRate          int
	FramesPerBuffer     int
	CalibrationDuration time.Duration
	ListenTimeout       time.Duration
	PhraseTimeLimit     time.Duration
	PhraseThreshold     time.Duration // shorter bursts are discarded as noise
	PauseDuration       time.Duration
	NonSpeakingDuration time.Duration
}

// Recording is one captured phrase
type Recording struct {
	Samples    []int16
	SampleRate int
	StartedAt  time.Time
}

// Duration returns the length of the recording
func (r *Recording) Duration() time.Duration {
	if r.SampleRate <= 0 {
		return 0
	}
	return samplesDuration(len(r.Samples), r.SampleRate)
}

// WAV encodes the recording for upload
func (r *Recording) WAV() ([]byte, error) {
	return EncodeWAV(r.Samples, r.SampleRate)
}

// Listener records a single spoken phrase from a Device
type Listener struct {
	device   Device
	detector *vad.Detector
	config   ListenerConfig
	logger   *slog.Logger
}

// NewListener creates a listener. The detector is shared across captures so
// its calibrated threshold carries over like a long-lived recognizer.
func NewListener(device Device, detector *vad.Detector, config ListenerConfig, logger *slog.Logger) (*Listener, error) {
	if device == nil {
		return nil, fmt.Errorf("device cannot be nil")
	}

	if detector == nil {
		return nil, fmt.Errorf("detector cannot be nil")
	}

	if config.SampleRate <= 0 || config.FramesPerBuffer <= 0 {
		return nil, fmt.Errorf("sample rate and frames per buffer must be positive, got %d/%d",
			config.SampleRate, config.FramesPerBuffer)
	}

	return &Listener{
		device:   device,
		detector: detector,
		config:   config,
		logger:   logger,
	}, nil
}

// Capture opens the device, calibrates against ambient noise, waits up to the
// listen timeout for speech and records until a pause or the phrase limit.
// Bursts shorter than the phrase threshold are discarded and waiting resumes
// against the same timeout. The device is closed on every return path.
func (l *Listener) Capture(ctx context.Context) (*Recording, error) {
	stream, err := l.device.Open(l.config.SampleRate, l.config.FramesPerBuffer)
	if err != nil {
		return nil, fmt.Errorf("failed to open microphone: %w", err)
	}
	defer func() {
		if closeErr := stream.Close(); closeErr != nil {
			l.logger.Warn("Failed to close microphone", slog.String("error", closeErr.Error()))
		}
	}()

	bufferDuration := samplesDuration(l.config.FramesPerBuffer, l.config.SampleRate)

	if err := l.calibrate(ctx, stream, bufferDuration); err != nil {
		return nil, err
	}

	l.logger.Debug("Ambient noise calibrated",
		slog.Float64("energy_threshold", l.detector.Threshold()),
	)

	minBuffers := buffersFor(l.config.PhraseThreshold, bufferDuration)

	var frames [][]int16
	elapsed := time.Duration(0)
	for {
		preRoll, waited, err := l.waitForSpeech(ctx, stream, bufferDuration, elapsed)
		if err != nil {
			return nil, err
		}

		phrase, voiced, recorded, err := l.recordPhrase(ctx, stream, bufferDuration, preRoll)
		if err != nil {
			return nil, err
		}
		elapsed = waited + recorded

		if voiced >= minBuffers {
			frames = phrase
			break
		}

		l.logger.Debug("Discarded short noise burst",
			slog.Int("voiced_buffers", voiced),
			slog.Int("min_buffers", minBuffers),
		)
	}

	samples := make([]int16, 0, len(frames)*l.config.FramesPerBuffer)
	for _, frame := range frames {
		samples = append(samples, frame...)
	}

	rec := &Recording{
		Samples:    samples,
		SampleRate: l.config.SampleRate,
		StartedAt:  time.Now().Add(-samplesDuration(len(samples), l.config.SampleRate)),
	}

	l.logger.Debug("Phrase captured", slog.Duration("duration", rec.Duration()))

	return rec, nil
}

func (l *Listener) calibrate(ctx context.Context, stream Stream, bufferDuration time.Duration) error {
	buf := make([]int16, l.config.FramesPerBuffer)
	for elapsed := time.Duration(0); elapsed < l.config.CalibrationDuration; elapsed += bufferDuration {
		if err := l.read(ctx, stream, buf); err != nil {
			return err
		}
		l.detector.Calibrate(buf)
	}
	return nil
}

// waitForSpeech returns the buffered pre-roll ending with the first voiced
// buffer, and the listen time used so far including elapsed.
func (l *Listener) waitForSpeech(ctx context.Context, stream Stream, bufferDuration, elapsed time.Duration) ([][]int16, time.Duration, error) {
	maxPreRoll := buffersFor(l.config.NonSpeakingDuration, bufferDuration)
	if maxPreRoll < 1 {
		maxPreRoll = 1
	}

	var preRoll [][]int16
	for {
		if elapsed > l.config.ListenTimeout {
			return nil, elapsed, ErrCaptureTimeout
		}

		buf := make([]int16, l.config.FramesPerBuffer)
		if err := l.read(ctx, stream, buf); err != nil {
			return nil, elapsed, err
		}
		elapsed += bufferDuration

		preRoll = append(preRoll, buf)
		if len(preRoll) > maxPreRoll {
			preRoll = preRoll[1:]
		}

		result, err := l.detector.Process(buf)
		if err != nil {
			return nil, elapsed, fmt.Errorf("speech detection failed: %w", err)
		}
		if result.HasVoice {
			return preRoll, elapsed, nil
		}
	}
}

// recordPhrase reads until a pause or the phrase limit. It returns the frames,
// the phrase length in buffers without the trailing pause, and the time read.
func (l *Listener) recordPhrase(ctx context.Context, stream Stream, bufferDuration time.Duration, frames [][]int16) ([][]int16, int, time.Duration, error) {
	pauseBuffers := buffersFor(l.config.PauseDuration, bufferDuration)
	keepBuffers := buffersFor(l.config.NonSpeakingDuration, bufferDuration)
	threshold := l.detector.Threshold()

	// The voiced buffer that ended waitForSpeech starts the phrase
	phraseBuffers := 1
	pauseCount := 0
	read := time.Duration(0)
	for elapsed := bufferDuration; elapsed < l.config.PhraseTimeLimit; elapsed += bufferDuration {
		buf := make([]int16, l.config.FramesPerBuffer)
		if err := l.read(ctx, stream, buf); err != nil {
			return nil, 0, read, err
		}
		read += bufferDuration
		frames = append(frames, buf)
		phraseBuffers++

		if vad.Energy(buf) > threshold {
			pauseCount = 0
		} else {
			pauseCount++
		}
		if pauseCount > pauseBuffers {
			break
		}
	}

	// Trim trailing quiet down to the non-speaking allowance
	if trim := pauseCount - keepBuffers; trim > 0 && trim < len(frames) {
		frames = frames[:len(frames)-trim]
	}

	return frames, phraseBuffers - pauseCount, read, nil
}

func (l *Listener) read(ctx context.Context, stream Stream, buf []int16) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := stream.Read(buf); err != nil {
		return fmt.Errorf("failed to read microphone: %w", err)
	}
	return nil
}

// buffersFor returns how many buffers cover d, rounding up
func buffersFor(d, bufferDuration time.Duration) int {
	return int((d + bufferDuration - 1) / bufferDuration)
}
