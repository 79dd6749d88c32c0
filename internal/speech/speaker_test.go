package speech

import (
	"bytes"
	"context"
	"encoding/binary"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestCommandSpeaker(t *testing.T) {
	var out bytes.Buffer
	speaker, err := NewCommandSpeaker([]string{"echo", "-n"})
	if err != nil {
		t.Fatalf("NewCommandSpeaker failed: %v", err)
	}
	speaker.Output = &out

	if err := speaker.Say(context.Background(), "Attendance recorded successfully"); err != nil {
		t.Fatalf("Say failed: %v", err)
	}

	if got := strings.TrimSpace(out.String()); got != "Attendance recorded successfully" {
		t.Errorf("Unexpected output %q", got)
	}

	// Say must not mutate the configured argument list
	if len(speaker.Command) != 2 {
		t.Errorf("Command was modified: %v", speaker.Command)
	}
}

func TestCommandSpeakerErrors(t *testing.T) {
	if _, err := NewCommandSpeaker(nil); err == nil {
		t.Error("Expected error for empty command")
	}

	speaker, _ := NewCommandSpeaker([]string{"definitely-not-a-tts-binary"})
	if err := speaker.Say(context.Background(), "hello"); err == nil {
		t.Error("Expected error for missing binary")
	}
}

func TestNopSpeaker(t *testing.T) {
	if err := (NopSpeaker{}).Say(context.Background(), "anything"); err != nil {
		t.Errorf("NopSpeaker returned %v", err)
	}
}

type recordingPlayer struct {
	samples    []int16
	sampleRate int
}

func (p *recordingPlayer) Play(_ context.Context, samples []int16, sampleRate int) error {
	p.samples = samples
	p.sampleRate = sampleRate
	return nil
}

func TestOpenAISpeaker(t *testing.T) {
	pcm := make([]byte, 8)
	for i, v := range []int16{1, -1, 300, -300} {
		binary.LittleEndian.PutUint16(pcm[i*2:], uint16(v))
	}

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/audio/speech" {
			t.Errorf("Unexpected path %s", r.URL.Path)
		}
		var body map[string]interface{}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Errorf("Failed to decode request: %v", err)
		}
		if body["input"] != "Service error. Please check your internet connection." {
			t.Errorf("Unexpected input %v", body["input"])
		}
		if body["response_format"] != "pcm" {
			t.Errorf("Expected pcm format, got %v", body["response_format"])
		}
		w.Header().Set("Content-Type", "application/octet-stream")
		w.Write(pcm)
	}))
	defer server.Close()

	player := &recordingPlayer{}
	speaker, err := NewOpenAISpeaker(OpenAIConfig{APIKey: "sk-test", Endpoint: server.URL + "/v1"}, player)
	if err != nil {
		t.Fatalf("NewOpenAISpeaker failed: %v", err)
	}

	if err := speaker.Say(context.Background(), "Service error. Please check your internet connection."); err != nil {
		t.Fatalf("Say failed: %v", err)
	}

	expected := []int16{1, -1, 300, -300}
	if len(player.samples) != len(expected) {
		t.Fatalf("Expected %d samples, got %d", len(expected), len(player.samples))
	}
	for i := range expected {
		if player.samples[i] != expected[i] {
			t.Errorf("Sample %d: expected %d, got %d", i, expected[i], player.samples[i])
		}
	}
	if player.sampleRate != 24000 {
		t.Errorf("Expected 24kHz playback, got %d", player.sampleRate)
	}
}

func TestNewOpenAISpeakerValidation(t *testing.T) {
	if _, err := NewOpenAISpeaker(OpenAIConfig{}, &recordingPlayer{}); err == nil {
		t.Error("Expected error for missing API key")
	}
	if _, err := NewOpenAISpeaker(OpenAIConfig{APIKey: "sk-test"}, nil); err == nil {
		t.Error("Expected error for nil player")
	}
}
