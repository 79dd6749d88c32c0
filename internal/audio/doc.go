// Package audio handles microphone capture and audio encoding.
// A Listener owns the input device for the duration of one capture: it calibrates
// the ambient noise level, waits for speech, records the phrase and returns it as
// PCM-16 samples that can be encoded to WAV for transcription.
package audio
