package audio

import (
	"errors"
	"fmt"

	"github.com/gordonklaus/portaudio"
)

// PortAudioDevice opens the system default input device
type PortAudioDevice struct{}

type portAudioStream struct {
	stream *portaudio.Stream
	buf    []int16
}

// Open initializes PortAudio and starts a mono PCM-16 input stream.
// Each successful Open must be paired with Close on the returned stream.
func (PortAudioDevice) Open(sampleRate, framesPerBuffer int) (Stream, error) {
	if err := portaudio.Initialize(); err != nil {
		return nil, fmt.Errorf("failed to initialize portaudio: %w", err)
	}

	buf := make([]int16, framesPerBuffer)
	stream, err := portaudio.OpenDefaultStream(1, 0, float64(sampleRate), framesPerBuffer, buf)
	if err != nil {
		portaudio.Terminate()
		return nil, fmt.Errorf("failed to open default input stream: %w", err)
	}

	if err := stream.Start(); err != nil {
		stream.Close()
		portaudio.Terminate()
		return nil, fmt.Errorf("failed to start input stream: %w", err)
	}

	return &portAudioStream{stream: stream, buf: buf}, nil
}

func (s *portAudioStream) Read(out []int16) error {
	if len(out) != len(s.buf) {
		return fmt.Errorf("expected buffer of %d samples, got %d", len(s.buf), len(out))
	}

	// An overflow drops frames but the buffer still holds fresh audio
	if err := s.stream.Read(); err != nil && !errors.Is(err, portaudio.InputOverflowed) {
		return err
	}

	copy(out, s.buf)
	return nil
}

func (s *portAudioStream) Close() error {
	return errors.Join(
		s.stream.Stop(),
		s.stream.Close(),
		portaudio.Terminate(),
	)
}
