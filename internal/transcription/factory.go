package transcription

import "fmt"

// StatsProvider is implemented by backends that keep request statistics
type StatsProvider interface {
	GetStats() Stats
}

// New creates the transcriber for the named backend
func New(backend string, config Config) (Transcriber, error) {
	switch backend {
	case "http":
		client, err := NewHTTPClient(config)
		if err != nil {
			return nil, err
		}
		return client, nil
	case "openai":
		client, err := NewOpenAIClient(config)
		if err != nil {
			return nil, err
		}
		return client, nil
	default:
		return nil, fmt.Errorf("unknown transcription backend %q", backend)
	}
}
