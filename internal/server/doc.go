// Package server implements the optional HTTP API: health, statistics, sanitized
// configuration, today's records, a remote capture trigger and Prometheus metrics.
package server
