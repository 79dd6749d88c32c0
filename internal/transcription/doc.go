// Package transcription turns captured audio into text through a remote service.
// Backends are selected by configuration: a generic multipart HTTP endpoint or the
// OpenAI Whisper API. Failures are classified as ErrUnintelligible (the service heard
// nothing it could map to text) or ErrServiceUnavailable (the call itself failed).
package transcription
