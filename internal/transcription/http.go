package transcription

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"time"
)

// Config contains transcription client configuration
type Config struct {
	Endpoint string
	APIKey   string
	Model    string
	Language string
	Timeout  time.Duration // 0 leaves the deadline to the service
}

// HTTPClient posts audio as multipart form data to a transcription endpoint.
// A single attempt is made per request.
type HTTPClient struct {
	config     Config
	httpClient *http.Client
	counters
}

type httpResponse struct {
	Text       string  `json:"text"`
	Confidence float32 `json:"confidence"`
	Language   string  `json:"language,omitempty"`
}

// NewHTTPClient creates a new transcription HTTP client
func NewHTTPClient(config Config) (*HTTPClient, error) {
	if config.Endpoint == "" {
		return nil, fmt.Errorf("endpoint cannot be empty")
	}

	httpClient := &http.Client{
		Timeout: config.Timeout,
		Transport: &http.Transport{
			MaxIdleConns:        10,
			MaxIdleConnsPerHost: 2,
			IdleConnTimeout:     90 * time.Second,
		},
	}

	return &HTTPClient{
		config:     config,
		httpClient: httpClient,
	}, nil
}

// Name identifies the backend
func (c *HTTPClient) Name() string {
	return "http"
}

// Transcribe sends captured audio for transcription
func (c *HTTPClient) Transcribe(ctx context.Context, request *Request) (*Response, error) {
	startTime := time.Now()
	response, err := c.doRequest(ctx, request)
	c.record(err, time.Since(startTime))
	return response, err
}

func (c *HTTPClient) doRequest(ctx context.Context, request *Request) (*Response, error) {
	body, contentType, err := c.createMultipartRequest(request)
	if err != nil {
		return nil, fmt.Errorf("failed to create multipart request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.config.Endpoint, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create HTTP request: %w", err)
	}

	httpReq.Header.Set("Content-Type", contentType)
	httpReq.Header.Set("Accept", "application/json")
	httpReq.Header.Set("User-Agent", "Voice-Attendance/1.0")
	if c.config.APIKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+c.config.APIKey)
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrServiceUnavailable, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to read response body: %v", ErrServiceUnavailable, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("%w: HTTP error %d: %s", ErrServiceUnavailable, resp.StatusCode, strings.TrimSpace(string(respBody)))
	}

	var parsed httpResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return nil, fmt.Errorf("failed to parse response JSON: %w", err)
	}

	text := strings.TrimSpace(parsed.Text)
	if text == "" {
		return nil, ErrUnintelligible
	}

	return &Response{
		Text:        text,
		Confidence:  parsed.Confidence,
		Language:    parsed.Language,
		ProcessedAt: time.Now(),
	}, nil
}

// createMultipartRequest creates a multipart/form-data request body
func (c *HTTPClient) createMultipartRequest(request *Request) (io.Reader, string, error) {
	if len(request.Audio) == 0 {
		return nil, "", fmt.Errorf("audio cannot be empty")
	}

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)

	format := request.Format
	if format == "" {
		format = "wav"
	}

	fileWriter, err := writer.CreateFormFile("file", fmt.Sprintf("%s.%s", request.RequestID, format))
	if err != nil {
		return nil, "", fmt.Errorf("failed to create form file: %w", err)
	}

	if _, err := fileWriter.Write(request.Audio); err != nil {
		return nil, "", fmt.Errorf("failed to write audio data: %w", err)
	}

	language := request.Language
	if language == "" {
		language = c.config.Language
	}

	fields := [][2]string{
		{"request_id", request.RequestID},
		{"request_timestamp", request.Timestamp.Format(time.RFC3339)},
		{"format", format},
		{"sample_rate", fmt.Sprintf("%d", request.SampleRate)},
		{"duration", fmt.Sprintf("%.3f", request.Duration.Seconds())},
		{"response_format", "json"},
	}
	if language != "" {
		fields = append(fields, [2]string{"language", language})
	}
	if c.config.Model != "" {
		fields = append(fields, [2]string{"model", c.config.Model})
	}

	for _, field := range fields {
		if err := writer.WriteField(field[0], field[1]); err != nil {
			return nil, "", fmt.Errorf("failed to write field %s: %w", field[0], err)
		}
	}

	if err := writer.Close(); err != nil {
		return nil, "", fmt.Errorf("failed to close multipart writer: %w", err)
	}

	return &buf, writer.FormDataContentType(), nil
}

// GetStats returns current client statistics
func (c *HTTPClient) GetStats() Stats {
	return c.snapshot(c.Name())
}
