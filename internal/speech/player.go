package speech

import (
	"context"
	"errors"
	"fmt"

	"github.com/gordonklaus/portaudio"
)

// Player plays mono PCM-16 audio to completion
type Player interface {
	Play(ctx context.Context, samples []int16, sampleRate int) error
}

// PortAudioPlayer plays through the system default output device
type PortAudioPlayer struct {
	FramesPerBuffer int
}

// Play holds the output device until every sample has been written
func (p PortAudioPlayer) Play(ctx context.Context, samples []int16, sampleRate int) (err error) {
	frames := p.FramesPerBuffer
	if frames <= 0 {
		frames = 1024
	}

	if err := portaudio.Initialize(); err != nil {
		return fmt.Errorf("failed to initialize portaudio: %w", err)
	}
	defer func() { err = errors.Join(err, portaudio.Terminate()) }()

	buf := make([]int16, frames)
	stream, err := portaudio.OpenDefaultStream(0, 1, float64(sampleRate), frames, buf)
	if err != nil {
		return fmt.Errorf("failed to open default output stream: %w", err)
	}
	defer func() { err = errors.Join(err, stream.Close()) }()

	if err := stream.Start(); err != nil {
		return fmt.Errorf("failed to start output stream: %w", err)
	}
	defer func() { err = errors.Join(err, stream.Stop()) }()

	for offset := 0; offset < len(samples); offset += frames {
		if err := ctx.Err(); err != nil {
			return err
		}

		n := copy(buf, samples[offset:])
		clear(buf[n:])

		if err := stream.Write(); err != nil && !errors.Is(err, portaudio.OutputUnderflowed) {
			return fmt.Errorf("failed to write output stream: %w", err)
		}
	}

	return nil
}
