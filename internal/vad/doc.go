// Package vad provides energy-based voice activity detection.
// A Detector measures the RMS energy of PCM-16 buffers against a threshold that is
// calibrated from ambient noise and, optionally, keeps adapting while no one is speaking.
package vad
