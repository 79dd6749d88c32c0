package speech

import (
	"context"
	"encoding/binary"
	"fmt"
	"io"

	openai "github.com/sashabaranov/go-openai"
)

// OpenAI returns raw PCM as 24kHz signed 16-bit little-endian mono
const openAIPCMSampleRate = 24000

// OpenAIConfig configures cloud speech synthesis
type OpenAIConfig struct {
	APIKey   string
	Endpoint string // optional base URL override
	Voice    string
}

// OpenAISpeaker synthesizes phrases with the OpenAI speech API and plays them locally
type OpenAISpeaker struct {
	client *openai.Client
	voice  openai.SpeechVoice
	player Player
}

// NewOpenAISpeaker creates a cloud speaker that plays through player
func NewOpenAISpeaker(config OpenAIConfig, player Player) (*OpenAISpeaker, error) {
	if config.APIKey == "" {
		return nil, fmt.Errorf("API key cannot be empty")
	}

	if player == nil {
		return nil, fmt.Errorf("player cannot be nil")
	}

	voice := openai.SpeechVoice(config.Voice)
	if voice == "" {
		voice = openai.VoiceAlloy
	}

	clientConfig := openai.DefaultConfig(config.APIKey)
	if config.Endpoint != "" {
		clientConfig.BaseURL = config.Endpoint
	}

	return &OpenAISpeaker{
		client: openai.NewClientWithConfig(clientConfig),
		voice:  voice,
		player: player,
	}, nil
}

// Say synthesizes the phrase and blocks until it has been played
func (s *OpenAISpeaker) Say(ctx context.Context, phrase string) error {
	resp, err := s.client.CreateSpeech(ctx, openai.CreateSpeechRequest{
		Model:          openai.TTSModel1,
		Input:          phrase,
		Voice:          s.voice,
		ResponseFormat: openai.SpeechResponseFormatPcm,
	})
	if err != nil {
		return fmt.Errorf("speech synthesis failed: %w", err)
	}
	defer resp.Close()

	data, err := io.ReadAll(resp)
	if err != nil {
		return fmt.Errorf("failed to read synthesized audio: %w", err)
	}

	samples := make([]int16, len(data)/2)
	for i := range samples {
		samples[i] = int16(binary.LittleEndian.Uint16(data[i*2:]))
	}

	return s.player.Play(ctx, samples, openAIPCMSampleRate)
}
