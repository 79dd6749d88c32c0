package shell

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/Swadeeppatil/voice-based-attendance-system/internal/attendance"
)

type fakePipeline struct {
	updates   chan attendance.Update
	captures  int
	err       error
	onCapture func(updates chan attendance.Update)
}

func newFakePipeline() *fakePipeline {
	return &fakePipeline{updates: make(chan attendance.Update, 16)}
}

func (p *fakePipeline) RequestCapture() (string, error) {
	if p.err != nil {
		return "", p.err
	}
	p.captures++
	if p.onCapture != nil {
		p.onCapture(p.updates)
	}
	return "capture-1", nil
}

func (p *fakePipeline) RenderRecords() string {
	return "No records found for today."
}

func (p *fakePipeline) Updates() <-chan attendance.Update {
	return p.updates
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestShellCommands(t *testing.T) {
	var out bytes.Buffer
	pipeline := newFakePipeline()
	sh := New(pipeline, strings.NewReader("v\nhelp\n\nbogus\nq\nr\n"), &out, testLogger())

	if err := sh.Run(context.Background()); err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	output := out.String()
	for _, want := range []string{
		"Voice Based Attendance System",
		"No records found for today.",
		`Unknown command "bogus"`,
	} {
		if !strings.Contains(output, want) {
			t.Errorf("Output missing %q:\n%s", want, output)
		}
	}

	// Commands after quit are never read
	if pipeline.captures != 0 {
		t.Errorf("Expected no captures, got %d", pipeline.captures)
	}
}

func TestShellRendersCaptureUpdates(t *testing.T) {
	pipeline := newFakePipeline()
	pipeline.onCapture = func(updates chan attendance.Update) {
		updates <- attendance.Update{Kind: attendance.UpdateCaptureEnabled, Enabled: false}
		updates <- attendance.Update{Kind: attendance.UpdateStatus, Text: attendance.StatusListening}
		updates <- attendance.Update{Kind: attendance.UpdateStatus, Text: "Attendance recorded for alice, bob"}
		updates <- attendance.Update{Kind: attendance.UpdateRecords, Text: "Today's Attendance Records:"}
		updates <- attendance.Update{Kind: attendance.UpdateCaptureEnabled, Enabled: true}
		close(updates)
	}

	pr, pw := io.Pipe()
	defer pw.Close()

	var out bytes.Buffer
	sh := New(pipeline, pr, &out, testLogger())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan error, 1)
	go func() { done <- sh.Run(ctx) }()

	if _, err := pw.Write([]byte("record\n")); err != nil {
		t.Fatalf("Write failed: %v", err)
	}

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Run failed: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Shell did not stop after updates closed")
	}

	output := out.String()
	for _, want := range []string{
		"Status: Listening... Speak the names clearly",
		"Status: Attendance recorded for alice, bob",
		"Today's Attendance Records:",
		"Ready.",
	} {
		if !strings.Contains(output, want) {
			t.Errorf("Output missing %q:\n%s", want, output)
		}
	}

	if pipeline.captures != 1 {
		t.Errorf("Expected one capture, got %d", pipeline.captures)
	}
	if !sh.captureEnabled {
		t.Error("Expected capture to be re-enabled")
	}
}

func TestShellBlocksCaptureWhileDisabled(t *testing.T) {
	var out bytes.Buffer
	pipeline := newFakePipeline()
	sh := New(pipeline, strings.NewReader(""), &out, testLogger())

	sh.apply(attendance.Update{Kind: attendance.UpdateCaptureEnabled, Enabled: false})
	sh.handle("r")

	if pipeline.captures != 0 {
		t.Errorf("Capture must not be requested while disabled")
	}
	if !strings.Contains(out.String(), "Capture in progress") {
		t.Errorf("Expected in-progress notice, got %q", out.String())
	}
}

func TestShellCaptureRejected(t *testing.T) {
	var out bytes.Buffer
	pipeline := newFakePipeline()
	pipeline.err = attendance.ErrCaptureInProgress
	sh := New(pipeline, strings.NewReader("r\nq\n"), &out, testLogger())

	if err := sh.Run(context.Background()); err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if !strings.Contains(out.String(), "Capture in progress, please wait") {
		t.Errorf("Expected in-progress notice, got %q", out.String())
	}
}

func TestShellStopsAtEndOfInput(t *testing.T) {
	var out bytes.Buffer
	sh := New(newFakePipeline(), strings.NewReader("v\n"), &out, testLogger())

	done := make(chan error, 1)
	go func() { done <- sh.Run(context.Background()) }()

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Run failed: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Shell did not stop at end of input")
	}
}
