package transcription

import (
	"context"
	"errors"
	"sync"
	"time"
)

var (
	// ErrUnintelligible means the service answered but recognized no speech
	ErrUnintelligible = errors.New("speech could not be understood")

	// ErrServiceUnavailable means the transcription request itself failed
	ErrServiceUnavailable = errors.New("transcription service unavailable")
)

// Transcriber converts audio to a transcript
type Transcriber interface {
	Transcribe(ctx context.Context, request *Request) (*Response, error)
	Name() string
}

// Request represents one transcription call
type Request struct {
	Audio      []byte        `json:"-"`
	Format     string        `json:"format"` // container of Audio, e.g. "wav"
	SampleRate int           `json:"sample_rate"`
	Duration   time.Duration `json:"duration"`
	Language   string        `json:"language,omitempty"`
	RequestID  string        `json:"request_id"`
	Timestamp  time.Time     `json:"timestamp"`
}

// Response represents a transcription result
type Response struct {
	Text        string    `json:"text"`
	Confidence  float32   `json:"confidence"`
	Language    string    `json:"language,omitempty"`
	ProcessedAt time.Time `json:"processed_at"`
}

// Stats represents client statistics
type Stats struct {
	Backend          string        `json:"backend"`
	TotalRequests    uint64        `json:"total_requests"`
	SuccessRequests  uint64        `json:"success_requests"`
	Unintelligible   uint64        `json:"unintelligible"`
	FailedRequests   uint64        `json:"failed_requests"`
	SuccessRate      float64       `json:"success_rate"`
	AvgResponseTime  time.Duration `json:"avg_response_time"`
	LastResponseTime time.Time     `json:"last_response_time"`
}

// counters is shared bookkeeping for the backends
type counters struct {
	totalRequests   uint64
	successRequests uint64
	unintelligible  uint64
	failedRequests  uint64
	avgResponseTime time.Duration
	lastResponse    time.Time

	mu sync.RWMutex
}

func (c *counters) record(err error, elapsed time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.totalRequests++
	switch {
	case err == nil:
		c.successRequests++
	case errors.Is(err, ErrUnintelligible):
		c.unintelligible++
	default:
		c.failedRequests++
	}

	// Simple moving average
	if c.avgResponseTime == 0 {
		c.avgResponseTime = elapsed
	} else {
		c.avgResponseTime = (c.avgResponseTime + elapsed) / 2
	}
	c.lastResponse = time.Now()
}

func (c *counters) snapshot(backend string) Stats {
	c.mu.RLock()
	defer c.mu.RUnlock()

	successRate := float64(0)
	if c.totalRequests > 0 {
		successRate = float64(c.successRequests) / float64(c.totalRequests) * 100
	}

	return Stats{
		Backend:          backend,
		TotalRequests:    c.totalRequests,
		SuccessRequests:  c.successRequests,
		Unintelligible:   c.unintelligible,
		FailedRequests:   c.failedRequests,
		SuccessRate:      successRate,
		AvgResponseTime:  c.avgResponseTime,
		LastResponseTime: c.lastResponse,
	}
}
