package speech

import (
	"context"
	"fmt"
	"io"
	"os/exec"
)

// Speaker speaks a phrase and returns once playback completes
type Speaker interface {
	Say(ctx context.Context, phrase string) error
}

// CommandSpeaker runs a local text-to-speech program such as espeak or say,
// passing the phrase as the final argument
type CommandSpeaker struct {
	Command []string
	Output  io.Writer
}

// NewCommandSpeaker creates a speaker for the given command line
func NewCommandSpeaker(command []string) (*CommandSpeaker, error) {
	if len(command) == 0 || command[0] == "" {
		return nil, fmt.Errorf("command cannot be empty")
	}

	return &CommandSpeaker{Command: command}, nil
}

// Say runs the command and waits for it to exit
func (s *CommandSpeaker) Say(ctx context.Context, phrase string) error {
	args := append(append([]string{}, s.Command[1:]...), phrase)
	cmd := exec.CommandContext(ctx, s.Command[0], args...)
	if s.Output != nil {
		cmd.Stdout = s.Output
	}

	if err := cmd.Run(); err != nil {
		return fmt.Errorf("%s: %w", s.Command[0], err)
	}
	return nil
}

// NopSpeaker discards phrases
type NopSpeaker struct{}

// Say does nothing
func (NopSpeaker) Say(context.Context, string) error {
	return nil
}
