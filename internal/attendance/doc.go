// Package attendance runs the capture cycle: listen, transcribe, extract names,
// append them to today's record store, refresh the records view and speak the result.
//
// A Coordinator owns the long-lived capture, transcription and speech resources.
// At most one capture is in flight; it runs on its own goroutine and reports back
// only through the buffered Updates channel, which the presentation layer drains
// from a single goroutine.
package attendance
