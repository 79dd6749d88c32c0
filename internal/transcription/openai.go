package transcription

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"
)

// OpenAIClient transcribes audio with the OpenAI Whisper API
type OpenAIClient struct {
	config Config
	client *openai.Client
	counters
}

// NewOpenAIClient creates a Whisper client. A non-empty Endpoint replaces the
// API base URL, which allows OpenAI-compatible servers.
func NewOpenAIClient(config Config) (*OpenAIClient, error) {
	if config.APIKey == "" {
		return nil, fmt.Errorf("API key cannot be empty")
	}

	if config.Model == "" {
		config.Model = openai.Whisper1
	}

	clientConfig := openai.DefaultConfig(config.APIKey)
	if config.Endpoint != "" {
		clientConfig.BaseURL = config.Endpoint
	}
	clientConfig.HTTPClient = &http.Client{Timeout: config.Timeout}

	return &OpenAIClient{
		config: config,
		client: openai.NewClientWithConfig(clientConfig),
	}, nil
}

// Name identifies the backend
func (c *OpenAIClient) Name() string {
	return "openai"
}

// Transcribe sends captured audio to the Whisper endpoint
func (c *OpenAIClient) Transcribe(ctx context.Context, request *Request) (*Response, error) {
	startTime := time.Now()
	response, err := c.doRequest(ctx, request)
	c.record(err, time.Since(startTime))
	return response, err
}

func (c *OpenAIClient) doRequest(ctx context.Context, request *Request) (*Response, error) {
	if len(request.Audio) == 0 {
		return nil, fmt.Errorf("audio cannot be empty")
	}

	format := request.Format
	if format == "" {
		format = "wav"
	}

	language := request.Language
	if language == "" {
		language = c.config.Language
	}

	resp, err := c.client.CreateTranscription(ctx, openai.AudioRequest{
		Model:    c.config.Model,
		FilePath: fmt.Sprintf("%s.%s", request.RequestID, format),
		Reader:   bytes.NewReader(request.Audio),
		Language: isoLanguage(language),
		Format:   openai.AudioResponseFormatJSON,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrServiceUnavailable, err)
	}

	text := strings.TrimSpace(resp.Text)
	if text == "" {
		return nil, ErrUnintelligible
	}

	return &Response{
		Text:        text,
		Language:    resp.Language,
		ProcessedAt: time.Now(),
	}, nil
}

// GetStats returns current client statistics
func (c *OpenAIClient) GetStats() Stats {
	return c.snapshot(c.Name())
}

// isoLanguage reduces a locale such as "en-US" to the ISO-639-1 code Whisper expects
func isoLanguage(locale string) string {
	code, _, _ := strings.Cut(locale, "-")
	return strings.ToLower(code)
}
