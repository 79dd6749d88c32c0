package attendance

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/Swadeeppatil/voice-based-attendance-system/internal/audio"
	"github.com/Swadeeppatil/voice-based-attendance-system/internal/metrics"
	"github.com/Swadeeppatil/voice-based-attendance-system/internal/names"
	"github.com/Swadeeppatil/voice-based-attendance-system/internal/records"
	"github.com/Swadeeppatil/voice-based-attendance-system/internal/speech"
	"github.com/Swadeeppatil/voice-based-attendance-system/internal/transcription"
)

var (
	// ErrCaptureInProgress is returned when a capture is requested while one is running
	ErrCaptureInProgress = errors.New("capture already in progress")

	// ErrClosed is returned after the coordinator has been closed
	ErrClosed = errors.New("coordinator closed")
)

const defaultUpdateBuffer = 16

// Capturer records one spoken phrase
type Capturer interface {
	Capture(ctx context.Context) (*audio.Recording, error)
}

// RecordStore appends and reads daily attendance entries
type RecordStore interface {
	Append(names []string, at time.Time) ([]records.Entry, error)
	Read(date time.Time) ([]records.Entry, error)
}

// State is the capture lifecycle state
type State int32

const (
	StateIdle State = iota
	StateCapturing
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateCapturing:
		return "capturing"
	default:
		return fmt.Sprintf("State(%d)", int32(s))
	}
}

// UpdateKind identifies what an Update carries
type UpdateKind int

const (
	// UpdateStatus replaces the status line
	UpdateStatus UpdateKind = iota
	// UpdateRecords replaces the records view
	UpdateRecords
	// UpdateCaptureEnabled toggles the capture trigger
	UpdateCaptureEnabled
)

// Update is a presentation change produced by the capture worker
type Update struct {
	Kind    UpdateKind
	Text    string
	Enabled bool
}

// Dependencies are the long-lived resources a coordinator drives
type Dependencies struct {
	Capturer    Capturer
	Transcriber transcription.Transcriber
	Extractor   *names.Extractor
	Store       RecordStore
	Speaker     speech.Speaker
	Metrics     *metrics.Metrics
	Logger      *slog.Logger
}

// Config contains coordinator settings
type Config struct {
	Language     string
	UpdateBuffer int
}

// Result describes a finished capture cycle
type Result struct {
	CaptureID string          `json:"capture_id"`
	Outcome   Outcome         `json:"outcome"`
	Status    string          `json:"status"`
	Entries   []records.Entry `json:"entries,omitempty"`
	Started   time.Time       `json:"started"`
	Finished  time.Time       `json:"finished"`
}

// Stats represents coordinator statistics
type Stats struct {
	State           string             `json:"state"`
	CapturesStarted uint64             `json:"captures_started"`
	Outcomes        map[Outcome]uint64 `json:"outcomes"`
	EntriesRecorded uint64             `json:"entries_recorded"`
	LastStatus      string             `json:"last_status,omitempty"`
	LastResult      *Result            `json:"last_result,omitempty"`
}

// Coordinator runs capture cycles one at a time
type Coordinator struct {
	capturer    Capturer
	transcriber transcription.Transcriber
	extractor   *names.Extractor
	store       RecordStore
	speaker     speech.Speaker
	metrics     *metrics.Metrics
	logger      *slog.Logger
	language    string
	now         func() time.Time

	state   atomic.Int32
	updates chan Update

	// closeMu guards closed and wg.Add against Close
	closeMu sync.Mutex
	closed  bool
	wg      sync.WaitGroup

	// cycleMu keeps one worker's update sequence ahead of the next worker's
	cycleMu sync.Mutex

	// Statistics
	statsMu         sync.RWMutex
	capturesStarted uint64
	outcomes        map[Outcome]uint64
	entriesRecorded uint64
	lastStatus      string
	lastResult      *Result
}

// NewCoordinator creates a coordinator from its dependencies
func NewCoordinator(deps Dependencies, config Config) (*Coordinator, error) {
	switch {
	case deps.Capturer == nil:
		return nil, fmt.Errorf("capturer cannot be nil")
	case deps.Transcriber == nil:
		return nil, fmt.Errorf("transcriber cannot be nil")
	case deps.Extractor == nil:
		return nil, fmt.Errorf("extractor cannot be nil")
	case deps.Store == nil:
		return nil, fmt.Errorf("store cannot be nil")
	case deps.Metrics == nil:
		return nil, fmt.Errorf("metrics cannot be nil")
	case deps.Logger == nil:
		return nil, fmt.Errorf("logger cannot be nil")
	}

	speaker := deps.Speaker
	if speaker == nil {
		speaker = speech.NopSpeaker{}
	}

	bufferSize := config.UpdateBuffer
	if bufferSize <= 0 {
		bufferSize = defaultUpdateBuffer
	}

	return &Coordinator{
		capturer:    deps.Capturer,
		transcriber: deps.Transcriber,
		extractor:   deps.Extractor,
		store:       deps.Store,
		speaker:     speaker,
		metrics:     deps.Metrics,
		logger:      deps.Logger,
		language:    config.Language,
		now:         time.Now,
		updates:     make(chan Update, bufferSize),
		outcomes:    make(map[Outcome]uint64),
	}, nil
}

// Updates returns the hand-off channel. It is closed by Close.
func (c *Coordinator) Updates() <-chan Update {
	return c.updates
}

// State returns the current lifecycle state
func (c *Coordinator) State() State {
	return State(c.state.Load())
}

// RequestCapture starts a capture cycle in the background. It returns
// ErrCaptureInProgress without side effects while another cycle is running.
func (c *Coordinator) RequestCapture() (string, error) {
	c.closeMu.Lock()
	defer c.closeMu.Unlock()

	if c.closed {
		return "", ErrClosed
	}

	if !c.state.CompareAndSwap(int32(StateIdle), int32(StateCapturing)) {
		return "", ErrCaptureInProgress
	}

	captureID := uuid.NewString()

	c.statsMu.Lock()
	c.capturesStarted++
	c.statsMu.Unlock()
	c.metrics.RecordCaptureStarted()

	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		c.runCapture(captureID)
	}()

	return captureID, nil
}

// RenderRecords reads today's store and formats it for display
func (c *Coordinator) RenderRecords() string {
	entries, err := c.store.Read(c.now())
	if err != nil && !errors.Is(err, records.ErrNoRecords) {
		c.logger.Warn("Failed to read today's records", slog.String("error", err.Error()))
	}

	c.metrics.RecordView()
	return records.RenderView(entries, err)
}

// Close waits for an in-flight capture to finish and closes the update channel.
// Captures cannot be cancelled once started.
func (c *Coordinator) Close() {
	c.closeMu.Lock()
	if c.closed {
		c.closeMu.Unlock()
		return
	}
	c.closed = true
	c.closeMu.Unlock()

	c.wg.Wait()
	close(c.updates)
}

// GetStats returns current coordinator statistics
func (c *Coordinator) GetStats() Stats {
	c.statsMu.RLock()
	defer c.statsMu.RUnlock()

	outcomes := make(map[Outcome]uint64, len(c.outcomes))
	for k, v := range c.outcomes {
		outcomes[k] = v
	}

	var last *Result
	if c.lastResult != nil {
		r := *c.lastResult
		last = &r
	}

	return Stats{
		State:           c.State().String(),
		CapturesStarted: c.capturesStarted,
		Outcomes:        outcomes,
		EntriesRecorded: c.entriesRecorded,
		LastStatus:      c.lastStatus,
		LastResult:      last,
	}
}

// runCapture owns one full cycle and always returns the coordinator to idle
func (c *Coordinator) runCapture(captureID string) {
	// A new cycle may start once state is idle, before the previous worker
	// has emitted its final update
	c.cycleMu.Lock()
	defer c.cycleMu.Unlock()

	ctx := context.Background()
	logger := c.logger.With(slog.String("capture_id", captureID))
	result := &Result{CaptureID: captureID, Started: c.now()}

	c.emit(Update{Kind: UpdateCaptureEnabled, Enabled: false})
	c.setStatus(StatusListening)
	logger.Info("Capture started")

	entries, err := c.capture(ctx, logger, captureID)
	result.Outcome = Classify(err)

	var phrase string
	if err == nil {
		recorded := make([]string, len(entries))
		for i, e := range entries {
			recorded[i] = e.Name
		}
		result.Entries = entries
		result.Status = recordedStatus(recorded)
		phrase = PhraseRecorded

		c.setStatus(result.Status)
		c.emit(Update{Kind: UpdateRecords, Text: c.RenderRecords()})

		logger.Info("Attendance recorded", slog.Int("entries", len(entries)))
	} else {
		result.Status, phrase = failureMessages(result.Outcome, err)
		c.setStatus(result.Status)

		logger.Warn("Capture failed",
			slog.String("outcome", string(result.Outcome)),
			slog.String("error", err.Error()),
		)
	}

	if err := c.speaker.Say(ctx, phrase); err != nil {
		logger.Warn("Voice feedback failed", slog.String("error", err.Error()))
	}

	result.Finished = c.now()
	c.finish(result)
	c.metrics.RecordCaptureFinished(string(result.Outcome), result.Finished.Sub(result.Started).Seconds())

	c.state.Store(int32(StateIdle))
	c.emit(Update{Kind: UpdateCaptureEnabled, Enabled: true})

	logger.Info("Capture finished", slog.String("outcome", string(result.Outcome)))
}

// capture runs listen, transcribe, extract and append. Any error ends the cycle
// before anything is written.
func (c *Coordinator) capture(ctx context.Context, logger *slog.Logger, captureID string) ([]records.Entry, error) {
	recording, err := c.capturer.Capture(ctx)
	if err != nil {
		return nil, fmt.Errorf("capture failed: %w", err)
	}
	c.metrics.RecordRecording(recording.Duration().Seconds())

	wav, err := recording.WAV()
	if err != nil {
		return nil, fmt.Errorf("failed to encode recording: %w", err)
	}

	logger.Debug("Phrase captured",
		slog.Duration("duration", recording.Duration()),
		slog.Int("wav_bytes", len(wav)),
	)

	start := time.Now()
	resp, err := c.transcriber.Transcribe(ctx, &transcription.Request{
		Audio:      wav,
		Format:     "wav",
		SampleRate: recording.SampleRate,
		Duration:   recording.Duration(),
		Language:   c.language,
		RequestID:  captureID,
		Timestamp:  recording.StartedAt,
	})
	c.metrics.RecordTranscription(c.transcriber.Name(), transcriptionResult(err), time.Since(start).Seconds())
	if err != nil {
		return nil, fmt.Errorf("transcription failed: %w", err)
	}

	logger.Info("Transcript received", slog.String("text", resp.Text))

	extracted := c.extractor.Extract(resp.Text)
	entries, err := c.store.Append(extracted, c.now())
	if err != nil {
		return nil, err
	}

	c.metrics.RecordEntries(len(entries))
	return entries, nil
}

func transcriptionResult(err error) string {
	switch {
	case err == nil:
		return "success"
	case errors.Is(err, transcription.ErrUnintelligible):
		return "unintelligible"
	default:
		return "error"
	}
}

func (c *Coordinator) setStatus(text string) {
	c.statsMu.Lock()
	c.lastStatus = text
	c.statsMu.Unlock()

	c.emit(Update{Kind: UpdateStatus, Text: text})
}

func (c *Coordinator) finish(result *Result) {
	c.statsMu.Lock()
	defer c.statsMu.Unlock()

	c.outcomes[result.Outcome]++
	c.entriesRecorded += uint64(len(result.Entries))
	c.lastResult = result
}

// emit blocks when the buffer is full; the presentation layer must keep draining
func (c *Coordinator) emit(u Update) {
	c.updates <- u
}
