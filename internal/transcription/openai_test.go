package transcription

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func newWhisperServer(t *testing.T, status int, body string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/audio/transcriptions" {
			t.Errorf("Unexpected path %s", r.URL.Path)
		}
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			t.Errorf("Failed to parse multipart form: %v", err)
		}
		if got := r.FormValue("model"); got != "whisper-1" {
			t.Errorf("Expected model whisper-1, got %q", got)
		}
		if got := r.FormValue("language"); got != "en" {
			t.Errorf("Expected language en, got %q", got)
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		w.Write([]byte(body))
	}))
}

func TestOpenAIClientTranscribe(t *testing.T) {
	server := newWhisperServer(t, http.StatusOK, `{"text": "charlie"}`)
	defer server.Close()

	client, err := NewOpenAIClient(Config{APIKey: "sk-test", Endpoint: server.URL + "/v1", Language: "en-US"})
	if err != nil {
		t.Fatalf("NewOpenAIClient failed: %v", err)
	}

	resp, err := client.Transcribe(context.Background(), testRequest())
	if err != nil {
		t.Fatalf("Transcribe failed: %v", err)
	}
	if resp.Text != "charlie" {
		t.Errorf("Expected transcript charlie, got %q", resp.Text)
	}
	if client.GetStats().SuccessRequests != 1 {
		t.Errorf("Expected one successful request")
	}
}

func TestOpenAIClientErrors(t *testing.T) {
	tests := []struct {
		name     string
		status   int
		body     string
		expected error
	}{
		{
			name:     "silence",
			status:   http.StatusOK,
			body:     `{"text": ""}`,
			expected: ErrUnintelligible,
		},
		{
			name:     "api error",
			status:   http.StatusServiceUnavailable,
			body:     `{"error": {"message": "overloaded", "type": "server_error"}}`,
			expected: ErrServiceUnavailable,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := newWhisperServer(t, tt.status, tt.body)
			defer server.Close()

			client, err := NewOpenAIClient(Config{APIKey: "sk-test", Endpoint: server.URL + "/v1", Language: "en-US"})
			if err != nil {
				t.Fatalf("NewOpenAIClient failed: %v", err)
			}

			_, err = client.Transcribe(context.Background(), testRequest())
			if !errors.Is(err, tt.expected) {
				t.Errorf("Expected %v, got %v", tt.expected, err)
			}
		})
	}
}

func TestNewOpenAIClientRequiresKey(t *testing.T) {
	if _, err := NewOpenAIClient(Config{}); err == nil {
		t.Error("Expected error for missing API key")
	}
}

func TestISOLanguage(t *testing.T) {
	tests := map[string]string{
		"en-US": "en",
		"EN":    "en",
		"":      "",
		"uk-UA": "uk",
	}
	for input, expected := range tests {
		if got := isoLanguage(input); got != expected {
			t.Errorf("isoLanguage(%q): expected %q, got %q", input, expected, got)
		}
	}
}
