package shell

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/Swadeeppatil/voice-based-attendance-system/internal/attendance"
)

const help = "Commands: [r]ecord attendance, [v]iew today's records, [q]uit"

// Pipeline is the capture pipeline as seen by the shell
type Pipeline interface {
	RequestCapture() (string, error)
	RenderRecords() string
	Updates() <-chan attendance.Update
}

// Shell is a line-oriented terminal front end. All output is written from
// the goroutine running Run.
type Shell struct {
	pipeline Pipeline
	in       io.Reader
	out      io.Writer
	logger   *slog.Logger

	captureEnabled bool
}

// New creates a shell reading commands from in and writing to out
func New(pipeline Pipeline, in io.Reader, out io.Writer, logger *slog.Logger) *Shell {
	return &Shell{
		pipeline:       pipeline,
		in:             in,
		out:            out,
		logger:         logger,
		captureEnabled: true,
	}
}

// Run processes commands and pipeline updates until quit, end of input,
// context cancellation or the update channel closing
func (s *Shell) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	lines := make(chan string)
	readErr := make(chan error, 1)

	go func() {
		scanner := bufio.NewScanner(s.in)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-ctx.Done():
				return
			}
		}
		readErr <- scanner.Err()
	}()

	s.println("Voice Based Attendance System")
	s.println(help)

	for {
		select {
		case <-ctx.Done():
			return nil

		case err := <-readErr:
			return err

		case u, ok := <-s.pipeline.Updates():
			if !ok {
				return nil
			}
			s.apply(u)

		case line := <-lines:
			if quit := s.handle(strings.TrimSpace(line)); quit {
				return nil
			}
		}
	}
}

// handle runs one command and reports whether the shell should exit
func (s *Shell) handle(command string) bool {
	switch strings.ToLower(command) {
	case "":
		return false

	case "r", "record":
		if !s.captureEnabled {
			s.println("Capture in progress, please wait")
			return false
		}
		id, err := s.pipeline.RequestCapture()
		if errors.Is(err, attendance.ErrCaptureInProgress) {
			s.println("Capture in progress, please wait")
			return false
		}
		if err != nil {
			s.println(fmt.Sprintf("Error: %v", err))
			return false
		}
		s.logger.Debug("Capture requested from terminal", slog.String("capture_id", id))

	case "v", "view":
		s.println(s.pipeline.RenderRecords())

	case "q", "quit", "exit":
		return true

	case "h", "help", "?":
		s.println(help)

	default:
		s.println(fmt.Sprintf("Unknown command %q. %s", command, help))
	}

	return false
}

// apply renders one update from the capture worker
func (s *Shell) apply(u attendance.Update) {
	switch u.Kind {
	case attendance.UpdateStatus:
		s.println("Status: " + u.Text)
	case attendance.UpdateRecords:
		s.println(u.Text)
	case attendance.UpdateCaptureEnabled:
		s.captureEnabled = u.Enabled
		if u.Enabled {
			s.println("Ready. " + help)
		}
	}
}

func (s *Shell) println(text string) {
	fmt.Fprintln(s.out, text)
}
