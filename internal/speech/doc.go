// Package speech speaks short status phrases back to the operator.
// Say blocks until playback has finished. Callers treat feedback as best effort:
// an error is logged, never shown as a capture failure.
package speech
